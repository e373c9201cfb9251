package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/myuser/txkv/internal/txn"
)

// Config holds the shell settings. The store itself takes none.
type Config struct {
	Prompt      string `yaml:"prompt"`
	Echo        bool   `yaml:"echo"`
	MetricsAddr string `yaml:"metrics_addr"`
	Retry       Retry  `yaml:"retry"`
}

type Retry struct {
	MaxRetries uint64        `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

func Default() Config {
	return Config{
		Prompt: "txkv> ",
		Retry: Retry{
			MaxRetries: txn.DefaultRetryPolicy.MaxRetries,
			BaseDelay:  txn.DefaultRetryPolicy.BaseDelay,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive, got %v", c.Retry.BaseDelay)
	}
	return nil
}

// RetryPolicy converts the retry section for txn.RunWithRetry.
func (c Config) RetryPolicy() txn.RetryPolicy {
	return txn.RetryPolicy{MaxRetries: c.Retry.MaxRetries, BaseDelay: c.Retry.BaseDelay}
}
