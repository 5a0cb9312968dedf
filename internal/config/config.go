// Package config loads server configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

// ServerConfig configures the relay HTTP listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig configures the optional PostgreSQL card cache. An
// empty URL disables it; deck imports then always hit the card API.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// StorageConfig configures the on-disk stores.
type StorageConfig struct {
	DecksDir  string `mapstructure:"decks_dir"`
	SavesDir  string `mapstructure:"saves_dir"`
	ImagesDir string `mapstructure:"images_dir"`
}

// CardsConfig configures the card API client.
type CardsConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	BatchSpacing time.Duration `mapstructure:"batch_spacing"`
}

// Load reads the configuration file at path and applies TABLETOP_*
// environment overrides. A missing file is fine; defaults plus
// environment carry a development setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.url", "")
	v.SetDefault("storage.decks_dir", "data/decks")
	v.SetDefault("storage.saves_dir", "data/saves")
	v.SetDefault("storage.images_dir", "data/images")
	v.SetDefault("cards.base_url", "https://api.scryfall.com")
	v.SetDefault("cards.batch_spacing", time.Second)

	v.SetEnvPrefix("TABLETOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	return nil
}
