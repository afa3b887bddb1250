// Package config loads exchanged's runtime settings from flags, using
// the standard library's flag package rather than a config file format.
package config

import (
	"flag"
	"fmt"
)

// Config holds the settings exchanged needs to start listening and
// serving a set of symbols.
type Config struct {
	Address     string
	Port        int
	Symbols     []string
	Workers     int
	LogLevel    string
	StorePath   string
}

// Load parses args (typically os.Args[1:]) into a Config.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("exchanged", flag.ContinueOnError)

	address := fs.String("address", "0.0.0.0", "listen address")
	port := fs.Int("port", 9001, "listen port")
	symbols := fs.String("symbols", "AAPL", "comma-separated list of symbols to register")
	workers := fs.Int("workers", 10, "connection-handling worker pool size")
	logLevel := fs.String("log-level", "info", "zerolog level: debug, info, warn, error")
	storePath := fs.String("store", "", "path to a JSON file for trade persistence; empty disables it")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	cfg := Config{
		Address:   *address,
		Port:      *port,
		Symbols:   splitSymbols(*symbols),
		Workers:   *workers,
		LogLevel:  *logLevel,
		StorePath: *storePath,
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("config: workers must be positive, got %d", cfg.Workers)
	}
	if len(cfg.Symbols) == 0 {
		return Config{}, fmt.Errorf("config: at least one symbol is required")
	}
	return cfg, nil
}

func splitSymbols(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
