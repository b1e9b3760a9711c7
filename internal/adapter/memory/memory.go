// Package memory implements in-memory backends for development and testing.
package memory

import (
	"context"
	"sync"

	"trainlog/internal/domain"
)

// RemoteStore is an in-memory stand-in for the remote backend. Failures are
// injected through the error fields; call counters let tests assert which
// backend operations a save or load actually performed.
type RemoteStore struct {
	mu      sync.Mutex
	records map[string]domain.WeekRecord

	GetErr error
	PutErr error

	GetCalls int
	PutCalls int
}

// NewRemoteStore creates an empty in-memory remote store.
func NewRemoteStore() *RemoteStore {
	return &RemoteStore{records: make(map[string]domain.WeekRecord)}
}

var _ domain.RemoteStore = (*RemoteStore)(nil)

// Get returns the stored record, or (nil, nil) when absent.
func (s *RemoteStore) Get(ctx context.Context, key domain.WeekKey) (*domain.WeekRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	rec, ok := s.records[key.String()]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

// Put stores the record under the key.
func (s *RemoteStore) Put(ctx context.Context, key domain.WeekKey, rec domain.WeekRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCalls++
	if s.PutErr != nil {
		return s.PutErr
	}
	s.records[key.String()] = rec
	return nil
}

// Seed places a record directly into the store without counting as a call.
func (s *RemoteStore) Seed(rec domain.WeekRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key().String()] = rec
}

// Record returns the stored record and whether it exists.
func (s *RemoteStore) Record(key domain.WeekKey) (domain.WeekRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key.String()]
	return rec, ok
}

// LocalCache is an in-memory stand-in for the on-device cache with the same
// failure injection and counters as RemoteStore.
type LocalCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry

	GetErr error
	PutErr error

	GetCalls int
	PutCalls int
}

// NewLocalCache creates an empty in-memory cache.
func NewLocalCache() *LocalCache {
	return &LocalCache{entries: make(map[string]domain.CacheEntry)}
}

var _ domain.LocalCache = (*LocalCache)(nil)

// Get returns the cached entry, or (nil, nil) when absent.
func (c *LocalCache) Get(ctx context.Context, key domain.WeekKey) (*domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	entry, ok := c.entries[key.String()]
	if !ok {
		return nil, nil
	}
	out := entry
	return &out, nil
}

// Put stores the entry under the key.
func (c *LocalCache) Put(ctx context.Context, key domain.WeekKey, entry domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PutCalls++
	if c.PutErr != nil {
		return c.PutErr
	}
	c.entries[key.String()] = entry
	return nil
}

// Delete removes the entry for the key.
func (c *LocalCache) Delete(ctx context.Context, key domain.WeekKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
	return nil
}

// ListPending returns keys of entries flagged pending.
func (c *LocalCache) ListPending(ctx context.Context) ([]domain.WeekKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []domain.WeekKey
	for s, entry := range c.entries {
		if !entry.Pending {
			continue
		}
		key, err := domain.ParseWeekKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ClearPending drops the pending flag for the key.
func (c *LocalCache) ClearPending(ctx context.Context, key domain.WeekKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key.String()]; ok {
		entry.Pending = false
		c.entries[key.String()] = entry
	}
	return nil
}

// Seed places an entry directly into the cache without counting as a call.
func (c *LocalCache) Seed(key domain.WeekKey, entry domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = entry
}

// Entry returns the cached entry and whether it exists.
func (c *LocalCache) Entry(key domain.WeekKey) (domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key.String()]
	return entry, ok
}

// StaticIdentity implements domain.Identity with a fixed user, for tests and
// development.
type StaticIdentity struct {
	UserID string
	Err    error
}

// CurrentUserID returns the fixed user ID or the injected error.
func (i StaticIdentity) CurrentUserID(ctx context.Context) (string, error) {
	if i.Err != nil {
		return "", i.Err
	}
	return i.UserID, nil
}

// CachedUserID returns the fixed user ID.
func (i StaticIdentity) CachedUserID() string { return i.UserID }
