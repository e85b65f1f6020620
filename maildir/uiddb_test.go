package maildir

import (
	"testing"
)

func TestDBUIDStore_InitializesFresh(t *testing.T) {
	dir := t.TempDir()
	s, err := openDBUIDStore(dir)
	if err != nil {
		t.Fatalf("openDBUIDStore failed: %v", err)
	}
	defer s.close()

	if s.uidvalidity() == 0 {
		t.Fatalf("expected a nonzero uidvalidity")
	}
	if s.nextUID != 0 {
		t.Fatalf("expected next_uid 0, got %d", s.nextUID)
	}
}

func TestDBUIDStore_SetUIDThenLookup(t *testing.T) {
	dir := t.TempDir()
	s, err := openDBUIDStore(dir)
	if err != nil {
		t.Fatalf("openDBUIDStore failed: %v", err)
	}
	defer s.close()

	uid, err := s.setUID("1700000000.99_1.host")
	if err != nil {
		t.Fatalf("setUID failed: %v", err)
	}
	if uid != 1 {
		t.Fatalf("got uid %d, want 1", uid)
	}

	got, ok := s.lookupUID("1700000000.99_1.host")
	if !ok || got != uid {
		t.Fatalf("lookupUID: got (%d, %v), want (%d, true)", got, ok, uid)
	}
}

func TestDBUIDStore_GCRemovesUnseenKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := openDBUIDStore(dir)
	if err != nil {
		t.Fatalf("openDBUIDStore failed: %v", err)
	}
	defer s.close()

	if _, err := s.setUID("keep-me"); err != nil {
		t.Fatalf("setUID failed: %v", err)
	}
	if _, err := s.setUID("drop-me"); err != nil {
		t.Fatalf("setUID failed: %v", err)
	}

	// Simulate a rescan that only observed "keep-me".
	s.seen = map[string]bool{"keep-me": true}

	if err := s.gc(); err != nil {
		t.Fatalf("gc failed: %v", err)
	}

	if _, ok := s.lookupUID("keep-me"); !ok {
		t.Fatalf("expected keep-me to survive gc")
	}
	if _, ok := s.lookupUID("drop-me"); ok {
		t.Fatalf("expected drop-me to be gc'd")
	}
}

func TestDBUIDStore_DeleteKey(t *testing.T) {
	dir := t.TempDir()
	s, err := openDBUIDStore(dir)
	if err != nil {
		t.Fatalf("openDBUIDStore failed: %v", err)
	}
	defer s.close()

	if _, err := s.setUID("gone-soon"); err != nil {
		t.Fatalf("setUID failed: %v", err)
	}
	s.deleteKey("gone-soon")

	if _, ok := s.lookupUID("gone-soon"); ok {
		t.Fatalf("expected gone-soon to be deleted")
	}
}

// TestDBUIDStore_ReopensAfterDeferredUnlock simulates the deferred-unlock
// timer firing (closing db and releasing the flock) and checks that a
// subsequent operation transparently re-acquires the lock and reopens the
// sqlite handle instead of dereferencing a nil *sql.DB.
func TestDBUIDStore_ReopensAfterDeferredUnlock(t *testing.T) {
	dir := t.TempDir()
	s, err := openDBUIDStore(dir)
	if err != nil {
		t.Fatalf("openDBUIDStore failed: %v", err)
	}
	defer s.close()

	if _, err := s.setUID("before-expiry"); err != nil {
		t.Fatalf("setUID failed: %v", err)
	}

	// Simulate the deferred-unlock timer firing.
	s.mu.Lock()
	if s.unlockAt != nil {
		s.unlockAt.Stop()
	}
	_ = s.db.Close()
	s.db = nil
	_ = s.lock.Unlock()
	s.locked = false
	s.mu.Unlock()

	uid, err := s.setUID("after-expiry")
	if err != nil {
		t.Fatalf("setUID after simulated unlock expiry failed: %v", err)
	}
	if uid != 2 {
		t.Fatalf("got uid %d, want 2", uid)
	}

	if _, ok := s.lookupUID("before-expiry"); !ok {
		t.Fatalf("expected before-expiry key to survive the reopen")
	}
}

func TestOpenUIDStore_SelectsDBBackendOnAltMap(t *testing.T) {
	dir := t.TempDir()
	store, err := openUIDStore(dir, true)
	if err != nil {
		t.Fatalf("openUIDStore failed: %v", err)
	}
	defer store.close()

	if _, ok := store.(*dbUIDStore); !ok {
		t.Fatalf("expected *dbUIDStore when altMap is set, got %T", store)
	}
}

func TestOpenUIDStore_SelectsFileBackendByDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := openUIDStore(dir, false)
	if err != nil {
		t.Fatalf("openUIDStore failed: %v", err)
	}
	defer store.close()

	if _, ok := store.(*fileUIDStore); !ok {
		t.Fatalf("expected *fileUIDStore by default, got %T", store)
	}
}
