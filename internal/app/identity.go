package app

import (
	"context"
	"sync/atomic"

	"trainlog/internal/domain"
	"trainlog/internal/errs"
)

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user ID. The HTTP
// middleware sets it after validating a session.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext reads the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// SessionIdentity resolves the caller identity from the request context and
// remembers the last identity it saw for non-blocking reads.
type SessionIdentity struct {
	last atomic.Value // string
}

// NewSessionIdentity creates an identity resolver with no cached identity.
func NewSessionIdentity() *SessionIdentity {
	return &SessionIdentity{}
}

var _ domain.Identity = (*SessionIdentity)(nil)

// CurrentUserID returns the authenticated user ID or an authentication-kind
// error; the remote store never proceeds anonymously.
func (i *SessionIdentity) CurrentUserID(ctx context.Context) (string, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return "", errs.E(errs.Auth, "remote store", "no authenticated user")
	}
	i.last.Store(id)
	return id, nil
}

// CachedUserID returns the last resolved identity, or "" if none was seen.
func (i *SessionIdentity) CachedUserID() string {
	if v, ok := i.last.Load().(string); ok {
		return v
	}
	return ""
}
