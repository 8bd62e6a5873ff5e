// Package cli provides the interactive card-manager command-line client.
//
// It wires configuration, the local card cache, the remote store, and the
// sync engine into a REPL. Card commands work the same signed in or out:
// the engine serves the local cache immediately and reconciles with the
// server in the background once a session exists.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
