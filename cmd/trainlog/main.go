package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	adapthttp "trainlog/internal/adapter/http"
	"trainlog/internal/adapter/postgres"
	"trainlog/internal/adapter/sqlite"
	"trainlog/internal/app"
	"trainlog/internal/config"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("remote store open", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	cache, err := sqlite.Open(cfg.CachePath)
	if err != nil {
		log.Error("local cache open", "error", err)
		os.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	state := app.NewSyncState()
	// Writes queued in a previous run survive in the cache; pick up their
	// accounting before serving.
	if keys, err := cache.ListPending(context.Background()); err != nil {
		log.Warn("could not count pending writes", "error", err)
	} else if len(keys) > 0 {
		state.SeedPending(len(keys))
		log.Info("resuming with pending writes", "pending", len(keys))
	}

	ident := app.NewSessionIdentity()
	weekRepo := postgres.NewWeekRepo(db, ident)

	storage := app.NewStorageService(weekRepo, cache, state, log)
	storage.SetRemoteTimeout(cfg.RemoteTimeout)
	syncSvc := app.NewSyncService(weekRepo, cache, state, log)
	syncSvc.SetRemoteTimeout(cfg.RemoteTimeout)
	authSvc := app.NewAuthService(db, postgres.NewSessionRepo(db))

	oidcCfg := adapthttp.OIDCConfig{}
	if cfg.OIDC.Enabled() {
		provider, err := oidc.NewProvider(context.Background(), cfg.OIDC.Issuer)
		if err != nil {
			log.Error("oidc provider", "error", err)
			os.Exit(1)
		}
		oidcCfg = adapthttp.OIDCConfig{
			Enabled:  true,
			Provider: provider,
			OAuth2Config: oauth2.Config{
				ClientID:     cfg.OIDC.ClientID,
				ClientSecret: cfg.OIDC.ClientSecret,
				RedirectURL:  cfg.OIDC.RedirectURL,
				Endpoint:     provider.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			},
		}
	}

	h := adapthttp.New(storage, syncSvc, authSvc, oidcCfg, log).Handler()
	log.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server", "error", err)
		os.Exit(1)
	}
}
