// Package config loads server settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	DatabasePath    string `yaml:"database_path"`
	StartingBalance int64  `yaml:"starting_balance"`
	LeaderboardSize int    `yaml:"leaderboard_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		DatabasePath:    "casino.db",
		StartingBalance: 1000,
		LeaderboardSize: 10,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.ListenAddr = envString("CASINO_LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabasePath = envString("CASINO_DB_PATH", cfg.DatabasePath)
	cfg.StartingBalance = envInt64("CASINO_STARTING_BALANCE", cfg.StartingBalance)
	cfg.LeaderboardSize = int(envInt64("CASINO_LEADERBOARD_SIZE", int64(cfg.LeaderboardSize)))

	if cfg.StartingBalance < 0 {
		return cfg, fmt.Errorf("starting_balance must be non-negative, got %d", cfg.StartingBalance)
	}
	return cfg, nil
}

func envString(k, def string) string {
	if s := os.Getenv(k); s != "" {
		return s
	}
	return def
}

func envInt64(k string, def int64) int64 {
	if s := os.Getenv(k); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}
	return def
}
