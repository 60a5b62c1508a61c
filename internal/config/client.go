package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
)

// Client is the configurator client configuration.
type Client struct {
	// Host of the settings service.
	Host string `toml:"host"`
	// Schema is a path to a JSON or JSONC schema; empty uses the bundled one.
	Schema string `toml:"schema"`
	// StateDir holds the credential file and the client log.
	StateDir string `toml:"state_dir"`
	// LogLevel is the zap level name.
	LogLevel string `toml:"log_level"`
	// RequestTimeout bounds each settings call, in seconds; zero waits forever.
	RequestTimeout int `toml:"request_timeout"`
}

// DefaultClient returns the built-in client configuration.
func DefaultClient() Client {
	return Client{
		Host:     "localhost",
		StateDir: defaultStateDir(),
		LogLevel: "info",
	}
}

// DefaultClientConfigPath is where LoadClient looks when no path is given.
func DefaultClientConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "configurator.toml"
	}
	return filepath.Join(dir, "configurator", "config.toml")
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".configurator"
	}
	return filepath.Join(dir, "configurator")
}

// LoadClient reads the TOML file at path over the defaults, then applies
// CONFIGURATOR_HOST, CONFIGURATOR_SCHEMA and CONFIGURATOR_STATE_DIR.
// A missing file is not an error.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if path == "" {
		path = DefaultClientConfigPath()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Client{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Client{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("CONFIGURATOR_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("CONFIGURATOR_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("CONFIGURATOR_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	cfg.FillMissingDefaults()
	return cfg, nil
}

// FillMissingDefaults restores defaults for fields left empty.
func (c *Client) FillMissingDefaults() {
	def := DefaultClient()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.StateDir == "" {
		c.StateDir = def.StateDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
}

// Timeout returns RequestTimeout as a duration.
func (c Client) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// LogPath is the client log file inside StateDir.
func (c Client) LogPath() string {
	return filepath.Join(c.StateDir, "configurator.log")
}

// LoadSchema returns the configured schema document, or nil for the bundled one.
func (c Client) LoadSchema() (json.RawMessage, error) {
	if c.Schema == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Clean(c.Schema))
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return json.RawMessage(jsonc.ToJSON(data)), nil
}
