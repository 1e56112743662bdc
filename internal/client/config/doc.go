// Package config loads runtime configuration for the HoaxBuster CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// The result is validated with gookit/validate struct tags.
//
// Supported flags
//
//	-a string   base URL of the story API
//	-i int      online status check interval (seconds)
//	-d string   SQLite database path
//	-m string   status endpoint address (empty disables it)
//	-l string   log format
//	-v          debug logging
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_url": "https://api.example.com",
//	  "online_check_interval": "3s",
//	  "database_path": "hoaxbuster.db",
//	  "metrics_addr": "127.0.0.1:9100",
//	  "log_format": "json",
//	  "request_timeout": "30s",
//	  "match_window": "60s",
//	  "max_retries": 5,
//	  "replay_policy": "halt",
//	  "geocode_timeout": "8s",
//	  "geocode_sweep_interval": "1h"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
