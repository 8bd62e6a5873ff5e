package config

import (
	"flag"
	"os"
	"time"

	"github.com/kymbms/name-card-manage/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   websocket URL of the sync server (default from Config)
//	-d string   path of the local card database (default from Config)
//	-t int      remote call timeout in seconds (default from Config)
//	-l int      loading fallback timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "websocket URL of the sync server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the local card database")
	remoteTimeout := fs.Int("t", int(cfg.RemoteTimeout.Seconds()), "remote call timeout (in seconds)")
	loadingTimeout := fs.Int("l", int(cfg.LoadingTimeout.Seconds()), "loading fallback timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RemoteTimeout = time.Duration(*remoteTimeout) * time.Second
	cfg.LoadingTimeout = time.Duration(*loadingTimeout) * time.Second
}
