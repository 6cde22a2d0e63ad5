package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all creator CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath      string `json:"db_path"`
	LogLevel    string `json:"log_level"`
	Workers     int    `json:"workers"`
	FrameBudget int    `json:"frame_budget"`
}

func defaultConfig() Config {
	return Config{
		DBPath:   filepath.Join(creatorDir(), "creator.db"),
		LogLevel: "info",
	}
}

func creatorDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".creator"
	}
	return filepath.Join(home, ".creator")
}

func settingsPath() string {
	return filepath.Join(creatorDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("CREATOR_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CREATOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CREATOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("CREATOR_FRAME_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FrameBudget = n
		}
	}

	return cfg
}
