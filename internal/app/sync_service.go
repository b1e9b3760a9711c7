package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trainlog/internal/domain"
	"trainlog/internal/errs"
	"trainlog/internal/result"
)

// SyncState tracks the last successful sync time and the number of keys
// with writes pending remote delivery. It is constructed explicitly and
// passed to the services that mutate it; there is no package-level instance.
type SyncState struct {
	mu       sync.Mutex
	lastSync time.Time
	pending  int
}

// NewSyncState returns state with no sync time and zero pending writes.
func NewSyncState() *SyncState {
	return &SyncState{}
}

// Pending returns the current pending-write count.
func (s *SyncState) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastSync returns the last successful sync time; ok is false when no sync
// has succeeded yet.
func (s *SyncState) LastSync() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync, !s.lastSync.IsZero()
}

func (s *SyncState) addPending(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending += n
	if s.pending < 0 {
		s.pending = 0
	}
}

func (s *SyncState) setPending(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = n
}

// SeedPending initializes the pending count from persisted cache state at
// process start.
func (s *SyncState) SeedPending(n int) {
	s.setPending(n)
}

func (s *SyncState) markSynced(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = t
}

// FlushReport summarizes one Trigger invocation.
type FlushReport struct {
	Synced    int `json:"synced"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
}

// SyncStatus is the read-only view the boundary exposes.
type SyncStatus struct {
	PendingCount int        `json:"pendingCount"`
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
}

// SyncService is the boundary capability for inspecting and driving
// synchronization of locally pending writes.
type SyncService struct {
	remote domain.RemoteStore
	cache  domain.LocalCache
	state  *SyncState
	log    *slog.Logger

	now           func() time.Time
	remoteTimeout time.Duration
}

// NewSyncService creates a SyncService over the two backends.
func NewSyncService(remote domain.RemoteStore, cache domain.LocalCache, state *SyncState, log *slog.Logger) *SyncService {
	if log == nil {
		log = slog.Default()
	}
	return &SyncService{
		remote:        remote,
		cache:         cache,
		state:         state,
		log:           log,
		now:           time.Now,
		remoteTimeout: DefaultRemoteTimeout,
	}
}

// SetRemoteTimeout overrides the per-call remote store timeout.
func (s *SyncService) SetRemoteTimeout(d time.Duration) {
	if d > 0 {
		s.remoteTimeout = d
	}
}

// PendingCount is a pure read of the current pending-write count.
func (s *SyncService) PendingCount() int {
	return s.state.Pending()
}

// Status returns the pending count and last successful sync time.
func (s *SyncService) Status() SyncStatus {
	st := SyncStatus{PendingCount: s.state.Pending()}
	if t, ok := s.state.LastSync(); ok {
		st.LastSyncTime = &t
	}
	return st
}

// Trigger attempts to deliver every pending entry to the remote store, one
// attempt per entry per invocation. Pending entries are pushed
// unconditionally (a pending write was by definition never confirmed
// remotely), except when the remote record has diverged beyond the tolerance
// window, in which case the remote version wins and replaces the local copy.
// Triggering with nothing pending is a no-op that reports zero synced.
func (s *SyncService) Trigger(ctx context.Context) result.Result[FlushReport] {
	flushID := uuid.NewString()

	keys, err := s.cache.ListPending(ctx)
	if err != nil {
		return result.Err[FlushReport](errs.Wrap(errs.Internal, "local cache", "list pending entries", err))
	}

	var rep FlushReport
	for _, key := range keys {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("pending entry unreadable", "flush_id", flushID, "key", key.String(), "error", err)
			rep.Failed++
			continue
		}
		if entry == nil || !entry.Pending {
			// Orphaned pending flag; drop the accounting.
			_ = s.cache.ClearPending(ctx, key)
			s.state.addPending(-1)
			continue
		}
		s.flushOne(ctx, flushID, key, *entry, &rep)
	}

	if rep.Failed == 0 {
		s.state.markSynced(s.now())
	}
	s.log.Info("sync flush finished", "flush_id", flushID,
		"synced", rep.Synced, "conflicts", rep.Conflicts, "failed", rep.Failed,
		"pending", s.state.Pending())
	return result.Ok(rep)
}

func (s *SyncService) flushOne(ctx context.Context, flushID string, key domain.WeekKey, entry domain.CacheEntry, rep *FlushReport) {
	gctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	remoteRec, gerr := s.remote.Get(gctx, key)
	cancel()
	if gerr == nil && remoteRec != nil && domain.HasConflict(entry.Record.LastModified, remoteRec.LastModified) {
		// Remote wins; the queued local write is discarded.
		if err := s.cache.Put(ctx, key, domain.CacheEntry{Record: *remoteRec, CachedAt: s.now()}); err != nil {
			s.log.Warn("cache refresh after flush conflict failed", "flush_id", flushID, "key", key.String(), "error", err)
		}
		s.state.addPending(-1)
		rep.Conflicts++
		return
	}

	pctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	perr := s.remote.Put(pctx, key, entry.Record)
	cancel()
	if perr != nil {
		s.log.Warn("flush push failed; entry stays pending", "flush_id", flushID, "key", key.String(), "error", perr)
		rep.Failed++
		return
	}

	if err := s.cache.Put(ctx, key, domain.CacheEntry{Record: entry.Record, CachedAt: s.now()}); err != nil {
		s.log.Warn("clearing pending flag failed after push", "flush_id", flushID, "key", key.String(), "error", err)
	}
	s.state.addPending(-1)
	rep.Synced++
}

// Clear resets pending accounting without attempting delivery. This is an
// explicit discard invoked by the user, not a success path: queued records
// stay in the cache but will no longer be pushed.
func (s *SyncService) Clear(ctx context.Context) error {
	keys, err := s.cache.ListPending(ctx)
	if err != nil {
		return errs.Wrap(errs.Internal, "local cache", "list pending entries", err)
	}
	for _, key := range keys {
		if err := s.cache.ClearPending(ctx, key); err != nil {
			return errs.Wrap(errs.Internal, "local cache", "clear pending flag for "+key.String(), err)
		}
	}
	s.state.setPending(0)
	return nil
}
