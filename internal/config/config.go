// Package config loads teamflow's configuration.
//
// The file is chosen by, in order:
//   - the --config flag,
//   - the TEAMFLOW_CONFIG environment variable,
//   - $XDG_CONFIG_HOME/teamflow/config.yaml, if it exists.
//
// An explicitly named file must exist. Without any file the defaults are
// used. TEAMFLOW_BASE_URL overrides server.base_url from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig names the config file.
	EnvConfig = "TEAMFLOW_CONFIG"

	// EnvBaseURL overrides server.base_url.
	EnvBaseURL = "TEAMFLOW_BASE_URL"
)

// Config is the teamflow configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the task service connection.
type ServerConfig struct {
	// BaseURL is the service root, e.g. https://tasks.example.com/api.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each request, as a Go duration.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// SessionConfig configures local session persistence.
type SessionConfig struct {
	// Path is the SQLite file holding the session. Empty selects
	// $XDG_DATA_HOME/teamflow/session.db.
	Path string `yaml:"path"`
}

// LogConfig configures the log file. The terminal belongs to the UI, so
// logs never go to stderr while it runs.
type LogConfig struct {
	// Path is the log file. Empty selects
	// $XDG_STATE_HOME/teamflow/teamflow.log.
	Path string `yaml:"path"`

	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves the config file from flagPath, the environment, or the
// default location, and returns the merged configuration.
func Load(flagPath string) (*Config, error) {
	path, required := flagPath, true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		required = false
		path = defaultPath()
	}

	cfg := Default()
	if path != "" {
		err := cfg.loadFile(path)
		switch {
		case err == nil:
		case !required && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Server.BaseURL = v
	}
	cfg.Session.Path = os.ExpandEnv(cfg.Session.Path)
	cfg.Log.Path = os.ExpandEnv(cfg.Log.Path)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "teamflow", "config.yaml")
}

// Timeout returns server.timeout as a duration.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 0, fmt.Errorf("server.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	return d, nil
}

// Level returns log.level as an slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LogPath returns log.path, or the default under $XDG_STATE_HOME.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "teamflow", "teamflow.log"), nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.BaseURL == "" {
		errs = append(errs, fmt.Errorf("server.base_url is required"))
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.base_url must be an http or https URL, got %q", c.Server.BaseURL))
	}

	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
