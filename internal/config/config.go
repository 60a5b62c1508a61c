// Package config provides functionality for managing configuration options
// for the settings server and the configurator client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Options holds the configuration values for the settings server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string
	// DatabaseDSN selects the store: a postgres DSN or a sqlite file (sqlite:path).
	DatabaseDSN string
	// Config is the path to the Config file.
	Config string `json:"-"`
	// LogLevel is the zap level name.
	LogLevel string
	// RevisionRetention is how long old document revisions are kept.
	RevisionRetention time.Duration `json:"-"`
	// PruneInterval is how often expired revisions are removed.
	PruneInterval time.Duration `json:"-"`
}

// Parse parses the process arguments and environment.
func Parse() (*Options, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args and the environment into Options. Flags are applied
// first, then the JSON config file, then SERVER_ADDRESS and DATABASE_DSN.
func ParseArgs(args []string) (*Options, error) {
	options := &Options{}
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.StringVarP(&options.Port, "address", "a", "localhost:5000", "run on ip:port server")
	fs.StringVarP(&options.DatabaseDSN, "dsn", "d", "sqlite:settings.db", "postgres DSN or sqlite:<path>")
	fs.StringVarP(&options.Config, "config", "c", "config.json", "path to config file")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.DurationVar(&options.RevisionRetention, "revision-retention", 30*24*time.Hour, "how long to keep settings revisions")
	fs.DurationVar(&options.PruneInterval, "prune-interval", time.Hour, "how often to prune settings revisions")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	return options, nil
}
