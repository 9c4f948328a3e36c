package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/docsum/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend API (default from Config)
//	-s string   path of the local storage file (default from Config)
//	-l string   log level: debug, info, warn, error (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "base URL of the backend API")
	fs.StringVar(&cfg.StoragePath, "s", cfg.StoragePath, "path of the local storage file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
