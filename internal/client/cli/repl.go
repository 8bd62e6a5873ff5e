package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Migrate(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Favorite(ctx context.Context, id string) error
	MyCard(ctx context.Context) error
	SetMyCard(ctx context.Context) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on 'a'. Card commands work for guests too; only
// the session commands change with login state. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cards %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Card commands: (l)ist, show <id>, add, del <id>, fav <id>, mycard, setcard")
			printlnFn("Data commands: export <file>, import <file>")
			if a.isLoggedIn() {
				printlnFn("Session commands: migrate, logout, exit")
			} else {
				printlnFn("Session commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "migrate":
			_ = a.Migrate(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "add":
			_ = a.Add(ctx)

		case "del", "delete":
			if len(args) == 0 {
				printlnFn("Usage: del <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "fav":
			if len(args) == 0 {
				printlnFn("Usage: fav <id>")
				continue
			}
			_ = a.Favorite(ctx, args[0])

		case "mycard":
			_ = a.MyCard(ctx)

		case "setcard":
			_ = a.SetMyCard(ctx)

		case "export":
			if len(args) == 0 {
				printlnFn("Usage: export <file>")
				continue
			}
			_ = a.Export(ctx, args[0])

		case "import":
			if len(args) == 0 {
				printlnFn("Usage: import <file>")
				continue
			}
			_ = a.Import(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
