package config

import (
	"os"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	SessionTTL time.Duration

	// Build metadata, filled in by main from ldflags.
	Version   string
	Commit    string
	BuildTime string
}

func Load() Config {
	addr := envString("REALWORLD_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	cfg := Config{
		Addr:       addr,
		DBPath:     envString("REALWORLD_DB", "realworld.db"),
		JWTSecret:  envString("REALWORLD_JWT_SECRET", "secret"),
		TokenTTL:   envDuration("REALWORLD_TOKEN_TTL", 60*24*time.Hour),
		SessionTTL: envDuration("REALWORLD_SESSION_TTL", 5*time.Minute),
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
