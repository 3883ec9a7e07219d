package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process settings loaded from the environment.
type Config struct {
	ListenAddr    string
	LedgerFile    string
	IdentityFile  string
	JWTSecret     string
	TokenTTL      time.Duration
	AdminPassword string
}

// Load reads an optional .env file and then the environment, falling back
// to development defaults for anything unset.
func Load() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file loaded", "err", err)
		}
	}
	cfg := Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		LedgerFile:    getenv("LEDGER_FILE", "bank_data.json"),
		IdentityFile:  getenv("IDENTITY_FILE", "users.json"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:      12 * time.Hour,
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		} else {
			slog.Warn("invalid TOKEN_TTL, using default", "value", ttl)
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
