package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port        int
	NatsURL     string
	NatsToken   string
	DatabaseURL string
	SQLitePath  string
	LogLevel    string
	APIToken    string
	EventCap    int
	ReplayHAR   string
}

func Load() Config {
	return Config{
		Port:        envInt("QUARRY_PORT", 8760),
		NatsURL:     envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		SQLitePath:  envStr("QUARRY_SQLITE_PATH", expandHome("~/.quarry/state.db")),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIToken:    envStr("QUARRY_API_TOKEN", ""),
		EventCap:    envInt("QUARRY_EVENT_CAP", 200),
		ReplayHAR:   envStr("QUARRY_REPLAY_HAR", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
