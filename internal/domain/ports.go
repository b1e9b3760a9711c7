package domain

import (
	"context"
	"time"
)

// CacheTTL bounds how long a cached record may be served without a refresh
// attempt against the remote store.
const CacheTTL = 5 * time.Minute

// CacheEntry wraps a WeekRecord for local storage. Entries are owned by the
// cache adapter; services only touch them through LocalCache calls.
type CacheEntry struct {
	Record   WeekRecord `json:"payload"`
	CachedAt time.Time  `json:"cachedAt"`
	// Pending marks a record accepted locally but not yet confirmed against
	// the remote store.
	Pending bool `json:"pending,omitempty"`
}

// Stale reports whether the entry has outlived the cache TTL.
func (e CacheEntry) Stale(now time.Time) bool {
	return now.Sub(e.CachedAt) > CacheTTL
}

// RemoteStore is the port for the authoritative, identity-scoped backend.
// Get returns (nil, nil) when no record exists for the key; absence is not
// a failure.
type RemoteStore interface {
	Get(ctx context.Context, key WeekKey) (*WeekRecord, error)
	Put(ctx context.Context, key WeekKey, rec WeekRecord) error
}

// LocalCache is the port for the on-device fallback and read-through store.
// Get returns (nil, nil) when no entry exists for the key.
type LocalCache interface {
	Get(ctx context.Context, key WeekKey) (*CacheEntry, error)
	Put(ctx context.Context, key WeekKey, entry CacheEntry) error
	Delete(ctx context.Context, key WeekKey) error
	ListPending(ctx context.Context) ([]WeekKey, error)
	ClearPending(ctx context.Context, key WeekKey) error
}

// Identity resolves the authenticated caller the remote store scopes its
// rows by. CurrentUserID fails when no identity can be established;
// CachedUserID is a non-blocking best-effort read of the last known identity.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
	CachedUserID() string
}
