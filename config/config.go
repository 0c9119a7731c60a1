// Package config loads the CLI's runtime configuration via viper, from
// flags and environment variables (JEPSEN_ prefixed). This package does
// not read a config file itself.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config mirrors the knobs cmd/jepsen exposes as flags.
type Config struct {
	TestName    string        `mapstructure:"test-name"`
	Concurrency int           `mapstructure:"concurrency"`
	TimeLimit   time.Duration `mapstructure:"time-limit"`
	Nodes       []string      `mapstructure:"nodes"`

	LogLevel string `mapstructure:"log-level"`
	Pretty   bool   `mapstructure:"pretty"`

	FIFODir string `mapstructure:"fifo-dir"`

	// ResultsDir, if set, is where the run's journal (named
	// <run-id>.jsonl) is written; see cmd/jepsen.
	ResultsDir string `mapstructure:"results-dir"`
}

// Defaults returns a Config with the baseline values Load falls back
// to before flag/env overrides are applied.
func Defaults() Config {
	return Config{
		TestName:    "jepsen",
		Concurrency: 5,
		TimeLimit:   60 * time.Second,
		LogLevel:    "info",
	}
}

// Load reads cfg from v, which the caller has already bound to flags
// (via BindPFlags) and environment.
func Load(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// New builds a *viper.Viper preconfigured with the JEPSEN_ environment
// prefix and key-replacer for flag-style dashed keys.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("jepsen")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for k, val := range map[string]any{
		"test-name":   "jepsen",
		"concurrency": 5,
		"time-limit":  60 * time.Second,
		"log-level":   "info",
	} {
		v.SetDefault(k, val)
	}
	return v
}
