// Package config loads configuration from the environment.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// OIDC holds the optional SSO settings; SSO is enabled when Issuer is set.
type OIDC struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO should be wired up.
func (o OIDC) Enabled() bool { return o.Issuer != "" }

// Config is the full process configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	CachePath     string
	RemoteTimeout time.Duration
	OIDC          OIDC
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          env("ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CachePath:     env("CACHE_PATH", "trainlog-cache.db"),
		RemoteTimeout: 10 * time.Second,
		OIDC: OIDC{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if v := os.Getenv("REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid REMOTE_TIMEOUT: " + v)
		}
		cfg.RemoteTimeout = d
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
