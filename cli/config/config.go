package config

import (
	"fmt"
	"os"
	"time"

	"github.com/andrewpaige1/problempad/client"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryFile = ".problempad_history"
	DefaultLogLevel    = "warn"
)

// Config holds terminal client configuration.
type Config struct {
	BaseURL       string        `yaml:"baseURL"`
	Timeout       time.Duration `yaml:"timeout"`
	AutoSaveDelay time.Duration `yaml:"autoSaveDelay"`
	Language      string        `yaml:"language"`
	Theme         string        `yaml:"theme"`
	FlushOnSwitch bool          `yaml:"flushOnSwitch"`
	HistoryFile   string        `yaml:"historyFile"`
	LogLevel      string        `yaml:"logLevel"`
}

func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	if cfg.Timeout < 0 || cfg.AutoSaveDelay < 0 {
		return cfg, fmt.Errorf("timeout and autoSaveDelay must not be negative")
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = client.DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = client.DefaultTimeout
	}
	if cfg.AutoSaveDelay == 0 {
		cfg.AutoSaveDelay = client.DefaultAutoSaveDelay
	}
	if cfg.Language == "" {
		cfg.Language = client.DefaultLanguage
	}
	if cfg.Theme == "" {
		cfg.Theme = client.DefaultTheme
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
