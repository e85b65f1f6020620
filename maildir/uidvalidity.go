package maildir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/infodancer/maildirsync/errors"
)

// unlockDelay batches bursts of UID allocation into one lock epoch (§4.3).
const unlockDelay = 2 * time.Second

// uidStore persists (uidvalidity, next_uid) for one folder and, in DB mode,
// the filename-stem-to-UID map. Both backends share the same locking and
// deferred-unlock discipline; only the storage medium differs.
type uidStore interface {
	// uidvalidity returns the folder's current UIDVALIDITY.
	uidvalidity() uint32

	// obtainUID allocates and persists the next UID under the write lock.
	obtainUID() (uint32, error)

	// lookupUID returns the UID stored for key (DB mode only; file mode
	// always returns ok=false, since the UID lives in the filename).
	lookupUID(key string) (uid uint32, ok bool)

	// setUID allocates a UID and, in DB mode, records key -> uid.
	setUID(key string) (uint32, error)

	// markSeen records that key is still live, for DB garbage collection.
	markSeen(key string)

	// gc deletes every DB row not marked seen since the last gc (DB mode
	// only; a no-op in file mode).
	gc() error

	// deleteKey removes key's DB row (DB mode only; a no-op in file mode).
	deleteKey(key string)

	// touch resets the deferred-unlock timer without changing state.
	touch()

	// close flushes pending state and releases the advisory lock.
	close() error

	// remove unlinks the backing resource entirely (delete_box).
	remove() error
}

// fileUIDStore is the plain-file backend: a two-line ".uidvalidity" text
// file holding uidvalidity and next_uid, guarded by a gofrs/flock advisory
// lock on a sibling ".uidvalidity.lock" file.
type fileUIDStore struct {
	path string
	lock *flock.Flock

	mu        sync.Mutex
	validity  uint32
	nextUID   uint32
	locked    bool
	unlockAt  *time.Timer
}

// openUIDStore selects the backend for folderPath: the DB backend when
// altMap is set or a ".isyncuidmap.db" already exists there, otherwise the
// plain-file backend (§4.3, §9 "selected at folder-open time from the
// presence of the respective artifact and the AltMap configuration flag").
func openUIDStore(folderPath string, altMap bool) (uidStore, error) {
	if altMap || isDBPresent(folderPath) {
		return openDBUIDStore(folderPath)
	}
	return openFileUIDStore(folderPath)
}

func isDBPresent(folderPath string) bool {
	_, err := os.Stat(filepath.Join(folderPath, ".isyncuidmap.db"))
	return err == nil
}

func openFileUIDStore(folderPath string) (*fileUIDStore, error) {
	s := &fileUIDStore{
		path: filepath.Join(folderPath, ".uidvalidity"),
		lock: flock.New(filepath.Join(folderPath, ".uidvalidity.lock")),
	}
	if err := s.lockAndLoad(); err != nil {
		return nil, err
	}
	s.scheduleUnlock()
	return s, nil
}

func (s *fileUIDStore) lockAndLoad() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	s.locked = true

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.validity = uint32(time.Now().Unix())
		s.nextUID = 0
		return s.persistLocked()
	case err != nil:
		return err
	case len(data) == 0:
		s.validity = uint32(time.Now().Unix())
		s.nextUID = 0
		return s.persistLocked()
	}

	var validity, next uint32
	n, scanErr := fmt.Sscanf(string(data), "%d\n%d\n", &validity, &next)
	if scanErr != nil || n != 2 {
		return errors.ErrUIDValidityCorrupt
	}
	s.validity = validity
	s.nextUID = next
	return nil
}

func (s *fileUIDStore) persistLocked() error {
	content := fmt.Sprintf("%d\n%d\n", s.validity, s.nextUID)
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileUIDStore) uidvalidity() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validity
}

func (s *fileUIDStore) obtainUID() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLockedLocked(); err != nil {
		return 0, err
	}
	s.nextUID++
	if err := s.persistLocked(); err != nil {
		return 0, err
	}
	s.resetUnlockTimerLocked()
	return s.nextUID, nil
}

func (s *fileUIDStore) lookupUID(string) (uint32, bool) { return 0, false }

func (s *fileUIDStore) setUID(key string) (uint32, error) {
	return s.obtainUID()
}

func (s *fileUIDStore) markSeen(string) {}
func (s *fileUIDStore) gc() error       { return nil }
func (s *fileUIDStore) deleteKey(string) {}

func (s *fileUIDStore) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensureLockedLocked()
	s.resetUnlockTimerLocked()
}

func (s *fileUIDStore) ensureLockedLocked() error {
	if s.locked {
		return nil
	}
	if err := s.lock.Lock(); err != nil {
		return err
	}
	s.locked = true
	return nil
}

func (s *fileUIDStore) resetUnlockTimerLocked() {
	if s.unlockAt != nil {
		s.unlockAt.Stop()
	}
	s.unlockAt = time.AfterFunc(unlockDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.locked {
			_ = s.lock.Unlock()
			s.locked = false
		}
	})
}

func (s *fileUIDStore) scheduleUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetUnlockTimerLocked()
}

// close flushes the deferred-unlock timer synchronously: this driver has no
// event loop of its own to let the timer fire on schedule, so Close must
// not leave the lock held past the caller's last use.
func (s *fileUIDStore) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlockAt != nil {
		s.unlockAt.Stop()
	}
	if s.locked {
		err := s.lock.Unlock()
		s.locked = false
		return err
	}
	return nil
}

func (s *fileUIDStore) remove() error {
	_ = s.close()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		err = nil
	}
	_ = os.Remove(s.lock.Path())
	return err
}
