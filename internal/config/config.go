package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig     `mapstructure:"app"`
	Store  StoreConfig   `mapstructure:"store"`
	Limits []LimitConfig `mapstructure:"limits"`
	Sim    SimConfig     `mapstructure:"sim"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

type StoreConfig struct {
	// Path of the SQLite database holding order records and trade
	// limits. Empty selects the in-memory store.
	Path string `mapstructure:"path"`
}

type LimitConfig struct {
	Key        string `mapstructure:"key"`
	PeriodDays int    `mapstructure:"period_days"`
	MaxAbs     int64  `mapstructure:"max_abs"`
}

type SimConfig struct {
	// Stages is how many partial fills the simulated broker spreads a
	// complete execution over.
	Stages int `mapstructure:"stages"`
}

// Load reads a YAML config file, applies defaults and validates.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Sim.Stages <= 0 {
		c.Sim.Stages = 2
	}
}

func validate(c *Config) error {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.App.LogLevel)
	}
	for _, l := range c.Limits {
		if strings.TrimSpace(l.Key) == "" {
			return fmt.Errorf("trade limit with empty key")
		}
		if l.PeriodDays <= 0 {
			return fmt.Errorf("trade limit for %s: period must be positive, got %d", l.Key, l.PeriodDays)
		}
		if l.MaxAbs < 0 {
			return fmt.Errorf("trade limit for %s: max_abs cannot be negative", l.Key)
		}
	}
	return nil
}
