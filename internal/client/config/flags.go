package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the story API (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-d string   path of the local SQLite database
//	-m string   listen address of the status endpoint, empty disables it
//	-l string   log format: text, json, zerolog or console
//	-v          debug logging
//
// Note: The function filters args to only include the flags it knows about,
// using flagx.FilterArgs, so -c/-config are left to parseJson.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-m", "-l", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "base URL of the story API")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "status endpoint address, empty to disable")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format: text, json, zerolog or console")
	fs.BoolVar(&cfg.Debug, "v", cfg.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
