// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trainlog/internal/domain"
	"trainlog/internal/errs"
	"trainlog/internal/result"
)

// DefaultRemoteTimeout bounds a single remote store call. A timeout is
// handled exactly like a network failure.
const DefaultRemoteTimeout = 10 * time.Second

// SaveStatus describes how a save was satisfied.
type SaveStatus string

const (
	// StatusSaved means the remote store accepted the write.
	StatusSaved SaveStatus = "saved"
	// StatusSavedLocally means the remote store failed and the local cache
	// holds the write pending sync.
	StatusSavedLocally SaveStatus = "saved_locally"
	// StatusUnchanged means the candidate matched the last-known record and
	// no backend was contacted.
	StatusUnchanged SaveStatus = "unchanged"
)

// SaveReceipt reports the outcome of a save along with the pending count
// after it.
type SaveReceipt struct {
	Status  SaveStatus `json:"status"`
	Pending int        `json:"pendingCount"`
}

// LoadResult carries a loaded record and how it was obtained. Stale marks a
// cache copy older than the TTL served because the remote store was
// unreachable (or because the copy is still pending sync).
type LoadResult struct {
	Record    domain.WeekRecord `json:"record"`
	Found     bool              `json:"found"`
	Stale     bool              `json:"stale"`
	FromCache bool              `json:"fromCache"`
}

// ConflictError reports a save discarded because the remote record diverged
// beyond the tolerance window. It carries the winning remote record so the
// caller can re-render from it.
type ConflictError struct {
	Remote domain.WeekRecord
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s was modified remotely; remote version wins", e.Remote.Key())
}

// ErrKind classifies the conflict for errs.KindOf.
func (e *ConflictError) ErrKind() errs.Kind { return errs.Conflict }

// StorageService sequences the remote store and local cache for every save
// and load, reconciling their disagreement and guaranteeing that a failure
// is never reported as success.
//
// Saves against the same key are not serialized here; a caller that needs
// strict per-key ordering must await each Save before issuing the next.
type StorageService struct {
	remote domain.RemoteStore
	cache  domain.LocalCache
	state  *SyncState
	log    *slog.Logger

	now           func() time.Time
	remoteTimeout time.Duration
}

// NewStorageService creates a StorageService over the two backends.
func NewStorageService(remote domain.RemoteStore, cache domain.LocalCache, state *SyncState, log *slog.Logger) *StorageService {
	if log == nil {
		log = slog.Default()
	}
	return &StorageService{
		remote:        remote,
		cache:         cache,
		state:         state,
		log:           log,
		now:           time.Now,
		remoteTimeout: DefaultRemoteTimeout,
	}
}

// SetRemoteTimeout overrides the per-call remote store timeout.
func (s *StorageService) SetRemoteTimeout(d time.Duration) {
	if d > 0 {
		s.remoteTimeout = d
	}
}

// Save persists a candidate record: remote first, cache as write-through on
// success or as the fallback system of record on remote failure. Identical
// candidates are suppressed without contacting either backend.
func (s *StorageService) Save(ctx context.Context, rec domain.WeekRecord) result.Result[SaveReceipt] {
	if err := rec.Validate(); err != nil {
		return result.Err[SaveReceipt](err)
	}
	rec.Normalize()
	key := rec.Key()

	cached, cerr := s.cache.Get(ctx, key)
	if cerr != nil {
		// A broken diff read must not block the save.
		s.log.Warn("cache read before save failed", "key", key.String(), "error", cerr)
		cached = nil
	}
	if cached != nil && !cached.Pending && cached.Record.Equal(rec) {
		return result.Ok(SaveReceipt{Status: StatusUnchanged, Pending: s.state.Pending()})
	}

	if remoteRec := s.probeRemote(ctx, key); remoteRec != nil && domain.HasConflict(rec.LastModified, remoteRec.LastModified) {
		// Remote wins beyond the tolerance window. Surface the winning
		// record and refresh the cache with it; this is an outcome, not a
		// hard failure.
		if err := s.cache.Put(ctx, key, domain.CacheEntry{Record: *remoteRec, CachedAt: s.now()}); err != nil {
			s.log.Warn("cache refresh after conflict failed", "key", key.String(), "error", err)
		}
		if cached != nil && cached.Pending {
			// The queued write this key was counted for is now discarded.
			s.state.addPending(-1)
		}
		return result.Err[SaveReceipt](&ConflictError{Remote: *remoteRec})
	}

	pctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if perr := s.remote.Put(pctx, key, rec); perr != nil {
		return s.saveFallback(ctx, key, rec, cached, perr)
	}

	s.state.markSynced(s.now())
	if cached != nil && cached.Pending {
		// This save settles the queued write the key was counted for.
		s.state.addPending(-1)
	}
	if err := s.cache.Put(ctx, key, domain.CacheEntry{Record: rec, CachedAt: s.now()}); err != nil {
		// Cache is advisory once the remote write landed.
		s.log.Warn("write-through to cache failed", "key", key.String(), "error", err)
	}
	return result.Ok(SaveReceipt{Status: StatusSaved, Pending: s.state.Pending()})
}

// probeRemote fetches the current remote record for the conflict check. A
// probe failure falls through to the put, which applies its own failure
// policy.
func (s *StorageService) probeRemote(ctx context.Context, key domain.WeekKey) *domain.WeekRecord {
	gctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	remoteRec, err := s.remote.Get(gctx, key)
	if err != nil {
		s.log.Debug("remote probe before save failed", "key", key.String(), "error", err)
		return nil
	}
	return remoteRec
}

func (s *StorageService) saveFallback(ctx context.Context, key domain.WeekKey, rec domain.WeekRecord, cached *domain.CacheEntry, remoteErr error) result.Result[SaveReceipt] {
	entry := domain.CacheEntry{Record: rec, CachedAt: s.now(), Pending: true}
	if cacheErr := s.cache.Put(ctx, key, entry); cacheErr != nil {
		err := errs.E(errs.DoubleFailure, "",
			fmt.Sprintf("save %s failed on both backends: remote store: %v; local cache: %v", key, remoteErr, cacheErr))
		return result.Err[SaveReceipt](err)
	}
	if cached == nil || !cached.Pending {
		// Count pending keys, not attempts: re-saving an already-pending
		// key just replaces the queued entry.
		s.state.addPending(1)
	}
	s.log.Warn("remote save failed; write queued locally pending sync",
		"key", key.String(), "pending", s.state.Pending(), "error", remoteErr)
	return result.Ok(SaveReceipt{Status: StatusSavedLocally, Pending: s.state.Pending()})
}

// Load reads a record: fresh cache copy first, then the remote store with a
// cache backfill. When the remote store is unreachable a stale cache copy is
// served with the Stale flag set; Load fails only when neither backend can
// produce a copy.
func (s *StorageService) Load(ctx context.Context, key domain.WeekKey, refresh bool) result.Result[LoadResult] {
	if err := key.Validate(); err != nil {
		return result.Err[LoadResult](err)
	}

	entry, cerr := s.cache.Get(ctx, key)
	if cerr != nil {
		s.log.Warn("cache read failed", "key", key.String(), "error", cerr)
		entry = nil
	}
	if entry != nil && entry.Pending {
		// A pending entry is the newest local truth; the remote copy, if
		// any, predates it. Serve it until the flush lands.
		return result.Ok(LoadResult{Record: entry.Record, Found: true, Stale: entry.Stale(s.now()), FromCache: true})
	}
	if entry != nil && !refresh && !entry.Stale(s.now()) {
		return result.Ok(LoadResult{Record: entry.Record, Found: true, FromCache: true})
	}

	gctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	remoteRec, rerr := s.remote.Get(gctx, key)
	if rerr == nil {
		if remoteRec == nil {
			if entry != nil {
				// The authoritative store says the record no longer
				// exists; drop the leftover cache copy.
				if err := s.cache.Delete(ctx, key); err != nil {
					s.log.Warn("cache delete failed", "key", key.String(), "error", err)
				}
			}
			return result.Ok(LoadResult{})
		}
		if err := s.cache.Put(ctx, key, domain.CacheEntry{Record: *remoteRec, CachedAt: s.now()}); err != nil {
			s.log.Warn("cache backfill failed", "key", key.String(), "error", err)
		}
		return result.Ok(LoadResult{Record: *remoteRec, Found: true})
	}

	if entry != nil {
		// Graceful degradation: a stale read beats no read for an
		// offline-capable tool.
		return result.Ok(LoadResult{Record: entry.Record, Found: true, Stale: true, FromCache: true})
	}
	return result.Err[LoadResult](errs.Wrap(errs.Network, "remote store",
		fmt.Sprintf("load %s failed with no cached copy", key), rerr))
}
