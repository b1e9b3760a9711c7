package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainlog/internal/adapter/memory"
	"trainlog/internal/domain"
)

func newSync(remote *memory.RemoteStore, cache *memory.LocalCache) (*SyncService, *SyncState) {
	state := NewSyncState()
	svc := NewSyncService(remote, cache, state, discardLogger())
	svc.now = func() time.Time { return testNow }
	return svc, state
}

func seedPending(cache *memory.LocalCache, state *SyncState, rec domain.WeekRecord) {
	cache.Seed(rec.Key(), domain.CacheEntry{
		Record:   rec,
		CachedAt: testNow.Add(-10 * time.Minute),
		Pending:  true,
	})
	state.addPending(1)
}

func TestTrigger_DeliversPendingWrites(t *testing.T) {
	remote := memory.NewRemoteStore()
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	rec := testRecord()
	seedPending(cache, state, rec)

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	rep := res.Value()
	if rep.Synced != 1 || rep.Conflicts != 0 || rep.Failed != 0 {
		t.Fatalf("expected 1 synced, got %+v", rep)
	}
	if state.Pending() != 0 {
		t.Fatalf("pending count must drop to 0, got %d", state.Pending())
	}
	stored, ok := remote.Record(rec.Key())
	if !ok || !stored.Equal(rec) {
		t.Fatal("pending record must reach the remote store")
	}
	entry, _ := cache.Entry(rec.Key())
	if entry.Pending {
		t.Fatal("delivered entry must no longer be pending")
	}
	if _, ok := state.LastSync(); !ok {
		t.Fatal("successful flush must record a sync time")
	}
}

func TestTrigger_PushesUnconditionallyWithinTolerance(t *testing.T) {
	remote := memory.NewRemoteStore()
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	rec := testRecord()
	seedPending(cache, state, rec)

	// A remote copy exists but is within the tolerance window, so the
	// queued local write still goes through.
	older := rec
	older.Target.Value = 4000
	older.LastModified = rec.LastModified.Add(-500 * time.Millisecond)
	remote.Seed(older)

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	if res.Value().Synced != 1 {
		t.Fatalf("expected push, got %+v", res.Value())
	}
	stored, _ := remote.Record(rec.Key())
	if stored.Target.Value != 5000 {
		t.Fatal("local write must overwrite the remote copy")
	}
}

func TestTrigger_RemoteWinsOnConflict(t *testing.T) {
	remote := memory.NewRemoteStore()
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	rec := testRecord()
	seedPending(cache, state, rec)

	newer := rec
	newer.Target.Value = 4000
	newer.LastModified = rec.LastModified.Add(2 * time.Second)
	remote.Seed(newer)

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	rep := res.Value()
	if rep.Conflicts != 1 || rep.Synced != 0 {
		t.Fatalf("expected 1 conflict, got %+v", rep)
	}
	stored, _ := remote.Record(rec.Key())
	if stored.Target.Value != 4000 {
		t.Fatal("remote record must be untouched")
	}
	entry, _ := cache.Entry(rec.Key())
	if entry.Pending || entry.Record.Target.Value != 4000 {
		t.Fatal("cache must be replaced with the winning remote record")
	}
	if state.Pending() != 0 {
		t.Fatalf("conflict resolves the pending key, got %d", state.Pending())
	}
}

func TestTrigger_FailureLeavesEntryPending(t *testing.T) {
	remote := memory.NewRemoteStore()
	remote.GetErr = errors.New("offline")
	remote.PutErr = errors.New("offline")
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	rec := testRecord()
	seedPending(cache, state, rec)

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("a failed flush still reports: %v", res.Err())
	}
	rep := res.Value()
	if rep.Failed != 1 || rep.Synced != 0 {
		t.Fatalf("expected 1 failed, got %+v", rep)
	}
	if state.Pending() != 1 {
		t.Fatalf("failed entry must stay pending, got %d", state.Pending())
	}
	entry, _ := cache.Entry(rec.Key())
	if !entry.Pending {
		t.Fatal("failed entry must keep its pending flag")
	}
	if _, ok := state.LastSync(); ok {
		t.Fatal("a flush with failures must not record a sync time")
	}
	if remote.PutCalls != 1 {
		t.Fatalf("one attempt per entry per invocation, got %d", remote.PutCalls)
	}
}

func TestTrigger_NothingPendingIsANoOp(t *testing.T) {
	remote := memory.NewRemoteStore()
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	if rep := res.Value(); rep != (FlushReport{}) {
		t.Fatalf("expected empty report, got %+v", rep)
	}
	if remote.GetCalls != 0 || remote.PutCalls != 0 {
		t.Fatal("nothing to flush must not contact the remote store")
	}
	if _, ok := state.LastSync(); !ok {
		t.Fatal("an empty flush still counts as a successful sync")
	}
}

// phantomPendingCache lists a key as pending that the cache no longer holds.
type phantomPendingCache struct {
	*memory.LocalCache
	phantom domain.WeekKey
}

func (c *phantomPendingCache) ListPending(ctx context.Context) ([]domain.WeekKey, error) {
	keys, err := c.LocalCache.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return append(keys, c.phantom), nil
}

func TestTrigger_OrphanedPendingFlagIsDropped(t *testing.T) {
	remote := memory.NewRemoteStore()
	key := domain.WeekKey{Year: 2026, Week: 9}
	cache := &phantomPendingCache{LocalCache: memory.NewLocalCache(), phantom: key}

	state := NewSyncState()
	state.SeedPending(1)
	svc := NewSyncService(remote, cache, state, discardLogger())

	res := svc.Trigger(context.Background())
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Err())
	}
	if rep := res.Value(); rep != (FlushReport{}) {
		t.Fatalf("orphan is neither synced nor failed, got %+v", rep)
	}
	if state.Pending() != 0 {
		t.Fatalf("orphaned accounting must be dropped, got %d", state.Pending())
	}
	if remote.PutCalls != 0 {
		t.Fatal("nothing real to push")
	}
}

func TestClear_DiscardsAccountingWithoutDelivery(t *testing.T) {
	remote := memory.NewRemoteStore()
	cache := memory.NewLocalCache()
	svc, state := newSync(remote, cache)

	rec := testRecord()
	seedPending(cache, state, rec)

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if state.Pending() != 0 {
		t.Fatalf("expected pending 0, got %d", state.Pending())
	}
	if remote.PutCalls != 0 {
		t.Fatal("clear must not attempt delivery")
	}
	entry, ok := cache.Entry(rec.Key())
	if !ok {
		t.Fatal("cleared record stays in the cache")
	}
	if entry.Pending {
		t.Fatal("pending flag must be dropped")
	}
	if _, ok := remote.Record(rec.Key()); ok {
		t.Fatal("remote store must be untouched")
	}
}

func TestStatus(t *testing.T) {
	svc, state := newSync(memory.NewRemoteStore(), memory.NewLocalCache())

	st := svc.Status()
	if st.PendingCount != 0 || st.LastSyncTime != nil {
		t.Fatalf("expected empty status, got %+v", st)
	}

	state.addPending(2)
	state.markSynced(testNow)
	st = svc.Status()
	if st.PendingCount != 2 {
		t.Fatalf("expected pending 2, got %d", st.PendingCount)
	}
	if st.LastSyncTime == nil || !st.LastSyncTime.Equal(testNow) {
		t.Fatalf("expected last sync %v, got %v", testNow, st.LastSyncTime)
	}
}
