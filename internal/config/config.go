package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"testdrive-wizard/internal/datastore"
)

// Config is the process configuration, read from the environment.
type Config struct {
	StoreType      string        `env:"TD_STORE_TYPE" envDefault:"file"`
	DataDir        string        `env:"TD_DATA_DIR" envDefault:".tdwizard"`
	ConnString     string        `env:"DB_CONN_STRING" envDefault:"postgres://localhost:5432/postgres?sslmode=disable"`
	APIURL         string        `env:"TD_API_URL" envDefault:"http://localhost:8089"`
	SessionID      string        `env:"TD_SESSION_ID"`
	RequestTimeout time.Duration `env:"TD_REQUEST_TIMEOUT" envDefault:"30s"`
	LogLevel       string        `env:"TD_LOG_LEVEL" envDefault:"warn"`
	ServerAddr     string        `env:"TD_SERVER_ADDR" envDefault:":8089"`
	// Requests per second accepted by the development backend; 0 disables limiting.
	ServerRateLimit float64 `env:"TD_SERVER_RATE_LIMIT" envDefault:"20"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GetDataStoreConfig returns the data store configuration.
func (c Config) GetDataStoreConfig() (datastore.Config, error) {
	storeType, err := datastore.ParseType(strings.ToLower(c.StoreType))
	if err != nil {
		return datastore.Config{}, err
	}
	return datastore.Config{
		Type:             storeType,
		ConnectionString: c.ConnString,
		DataDir:          c.DataDir,
	}, nil
}

// IsMemoryMode returns true if state will not survive the process.
func (c Config) IsMemoryMode() bool {
	t, err := datastore.ParseType(strings.ToLower(c.StoreType))
	return err == nil && t == datastore.MemoryStore
}

// SlogLevel maps TD_LOG_LEVEL onto a slog level, defaulting to warn.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
