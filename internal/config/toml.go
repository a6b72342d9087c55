// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// State backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Calculator CalculatorConfig `toml:"calculator"`
	State      StateConfig      `toml:"state"`
	Log        LogConfig        `toml:"log"`
}

// CalculatorConfig maps default form values.
type CalculatorConfig struct {
	Mode    *string  `toml:"mode"`
	Balance *float64 `toml:"balance"`
	Monthly *float64 `toml:"monthly"`
	Target  *float64 `toml:"target"`
	Years   *float64 `toml:"years"`
	Rate    *float64 `toml:"rate"`
}

// StateConfig maps form-state persistence settings.
type StateConfig struct {
	Backend   *string `toml:"backend"`
	TTL       *string `toml:"ttl"`
	RedisAddr *string `toml:"redis-addr"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// StateBackend returns the configured backend, defaulting to SQLite.
func (c StateConfig) StateBackend() (string, error) {
	if c.Backend == nil {
		return BackendSQLite, nil
	}
	backend := strings.ToLower(strings.TrimSpace(*c.Backend))
	switch backend {
	case BackendSQLite, BackendRedis, BackendNone:
		return backend, nil
	case "":
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown state backend %q (use sqlite, redis or none)", backend)
	}
}

// StateTTL parses the configured TTL, falling back to def when unset.
func (c StateConfig) StateTTL(def time.Duration) (time.Duration, error) {
	if c.TTL == nil || strings.TrimSpace(*c.TTL) == "" {
		return def, nil
	}
	ttl, err := time.ParseDuration(strings.TrimSpace(*c.TTL))
	if err != nil {
		return 0, fmt.Errorf("invalid state ttl: %w", err)
	}
	return ttl, nil
}
