// Package adapthttp implements the HTTP boundary for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"trainlog/internal/app"
)

// OIDCConfig carries the optional SSO configuration.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	storage    *app.StorageService
	sync       *app.SyncService
	authSvc    *app.AuthService
	oidcConfig OIDCConfig
	log        *slog.Logger

	// disableAuth skips session validation and injects a fixed test user.
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(storage *app.StorageService, sync *app.SyncService, authSvc *app.AuthService, oidcConfig OIDCConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{storage: storage, sync: sync, authSvc: authSvc, oidcConfig: oidcConfig, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/week/", s.handleWeek)
	protected.HandleFunc("/sync/trigger", s.handleSyncTrigger)
	protected.HandleFunc("/sync/status", s.handleSyncStatus)
	protected.HandleFunc("/sync/clear", s.handleSyncClear)
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
