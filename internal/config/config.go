package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for cronometro, stored in
// ~/.cronometro/config.yaml.
type Config struct {
	// Monitor is the operator name written on every record.
	Monitor string        `yaml:"monitor"`
	API     APIConfig     `yaml:"api"`
	Clock   ClockConfig   `yaml:"clock"`
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
	Board   BoardConfig   `yaml:"board"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig points at the race results API gateway.
type APIConfig struct {
	// BaseURL of the gateway, e.g. "https://xxxx.execute-api.us-east-1.amazonaws.com".
	// Empty disables server time and uploads.
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClockConfig controls the race clock reference.
type ClockConfig struct {
	// SyncTimeout bounds the server time request before falling back to the local clock.
	SyncTimeout time.Duration `yaml:"sync_timeout"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `yaml:"dsn"`
}

// NATSConfig enables the timing event feed. Empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// BoardConfig holds the results board HTTP settings.
type BoardConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds the zerolog level name.
type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultAPITimeout    = 30 * time.Second
	DefaultSyncTimeout   = 5 * time.Second
	DefaultDriver        = "sqlite"
	DefaultSubjectPrefix = "cronometro"
	DefaultBoardAddr     = ":8080"
	DefaultLogLevel      = "info"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		API:     APIConfig{Timeout: DefaultAPITimeout},
		Clock:   ClockConfig{SyncTimeout: DefaultSyncTimeout},
		Storage: StorageConfig{Driver: DefaultDriver},
		NATS:    NATSConfig{SubjectPrefix: DefaultSubjectPrefix},
		Board:   BoardConfig{Addr: DefaultBoardAddr},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# cronometro configuration - ~/.cronometro/config.yaml
#
# All settings are optional. Environment variables (or a .env file in the
# working directory) override these values: CRONOMETRO_MONITOR,
# CRONOMETRO_API_URL, CRONOMETRO_API_TOKEN, CRONOMETRO_DB_DRIVER,
# CRONOMETRO_DB_DSN, CRONOMETRO_NATS_URL, CRONOMETRO_LOG_LEVEL.

# Name of the monitor operating this station. Can be overridden with --monitor.
monitor: ""

api:
  # Base URL of the race results API gateway. Leave empty to work offline:
  # the local clock is used as race reference and sync commands are disabled.
  base_url: ""
  # Bearer token sent with every request, if the gateway requires one.
  token: ""
  timeout: 30s

clock:
  # How long to wait for the server time before using the local clock.
  sync_timeout: 5s

storage:
  # sqlite (default, ~/.cronometro/cronometro.db) or postgres.
  # With postgres and an empty dsn the DB_HOST, DB_PORT, DB_USER, DB_PASSWORD,
  # DB_NAME and DB_SSLMODE variables are used.
  driver: sqlite
  dsn: ""

nats:
  # NATS server for the live timing feed, e.g. nats://localhost:4222. Empty disables it.
  url: ""
  subject_prefix: cronometro

board:
  # Listen address of: cronometro serve
  addr: ":8080"

log:
  # trace, debug, info, warn, error
  level: info
`

// DefaultPath returns the path to ~/.cronometro/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cronometro", "config.yaml"), nil
}

// Load reads the config file at path (DefaultPath when empty), creating it
// with annotated defaults on first run, then applies environment overrides.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return Default(), err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces zero-value fields so callers always get a usable
// Config even if the file is only partially filled in.
func (c *Config) fillDefaults() {
	d := Default()
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.Clock.SyncTimeout == 0 {
		c.Clock.SyncTimeout = d.Clock.SyncTimeout
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		c.Storage.DSN = PostgresFromEnv().DSN()
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = d.NATS.SubjectPrefix
	}
	if c.Board.Addr == "" {
		c.Board.Addr = d.Board.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
}

func applyEnv(c *Config) {
	c.Monitor = getEnv("CRONOMETRO_MONITOR", c.Monitor)
	c.API.BaseURL = getEnv("CRONOMETRO_API_URL", c.API.BaseURL)
	c.API.Token = getEnv("CRONOMETRO_API_TOKEN", c.API.Token)
	c.Storage.Driver = getEnv("CRONOMETRO_DB_DRIVER", c.Storage.Driver)
	c.Storage.DSN = getEnv("CRONOMETRO_DB_DSN", c.Storage.DSN)
	c.NATS.URL = getEnv("CRONOMETRO_NATS_URL", c.NATS.URL)
	c.Log.Level = getEnv("CRONOMETRO_LOG_LEVEL", c.Log.Level)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: must be sqlite or postgres", c.Storage.Driver))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.Clock.SyncTimeout <= 0 {
		errs = append(errs, fmt.Errorf("clock.sync_timeout must be positive, got %s", c.Clock.SyncTimeout))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.API.BaseURL != "" && !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("api.base_url %q: must start with http:// or https://", c.API.BaseURL))
	}
	return errors.Join(errs...)
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
