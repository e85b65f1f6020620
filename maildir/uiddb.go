package maildir

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/infodancer/maildirsync/errors"
)

// dbUIDStore is the hash-DB backend: a two-table sqlite database replacing
// the opaque single-keyspace DB of the original design (§11.1). meta holds
// the reserved UIDVALIDITY entry; uidmap holds one row per message stem.
type dbUIDStore struct {
	dbPath string
	lock   *flock.Flock
	db     *sql.DB

	mu       sync.Mutex
	validity uint32
	nextUID  uint32
	locked   bool
	seen     map[string]bool
	unlockAt *time.Timer
}

func openDBUIDStore(folderPath string) (*dbUIDStore, error) {
	s := &dbUIDStore{
		dbPath: filepath.Join(folderPath, ".isyncuidmap.db"),
		lock:   flock.New(filepath.Join(folderPath, ".isyncuidmap.db.lock")),
		seen:   make(map[string]bool),
	}
	if err := s.lockAndOpen(); err != nil {
		return nil, err
	}
	s.scheduleUnlock()
	return s, nil
}

func (s *dbUIDStore) lockAndOpen() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	s.locked = true
	return s.openDBLocked()
}

// openDBLocked opens (or reopens) the sqlite handle and loads the cached
// uidvalidity/next_uid pair. The caller must already hold s.mu and s.lock.
func (s *dbUIDStore) openDBLocked() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (uidvalidity INTEGER NOT NULL, next_uid INTEGER NOT NULL)`); err != nil {
		db.Close()
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS uidmap (key TEXT PRIMARY KEY, uid INTEGER NOT NULL)`); err != nil {
		db.Close()
		return err
	}
	s.db = db

	row := db.QueryRow(`SELECT uidvalidity, next_uid FROM meta LIMIT 1`)
	var validity, next uint32
	switch err := row.Scan(&validity, &next); {
	case err == sql.ErrNoRows:
		validity = uint32(time.Now().Unix())
		next = 0
		if _, err := db.Exec(`INSERT INTO meta (uidvalidity, next_uid) VALUES (?, ?)`, validity, next); err != nil {
			return err
		}
	case err != nil:
		return errors.ErrUIDValidityCorrupt
	}
	s.validity = validity
	s.nextUID = next
	return nil
}

func (s *dbUIDStore) uidvalidity() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validity
}

func (s *dbUIDStore) obtainUID() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLockedLocked(); err != nil {
		return 0, err
	}
	next := s.nextUID + 1
	if _, err := s.db.Exec(`UPDATE meta SET next_uid = ?`, next); err != nil {
		return 0, err
	}
	s.nextUID = next
	s.resetUnlockTimerLocked()
	return next, nil
}

func (s *dbUIDStore) lookupUID(key string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLockedLocked(); err != nil {
		return 0, false
	}
	s.resetUnlockTimerLocked()
	var uid uint32
	err := s.db.QueryRow(`SELECT uid FROM uidmap WHERE key = ?`, key).Scan(&uid)
	if err != nil {
		return 0, false
	}
	return uid, true
}

func (s *dbUIDStore) setUID(key string) (uint32, error) {
	s.mu.Lock()
	if err := s.ensureLockedLocked(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	next := s.nextUID + 1
	if _, err := s.db.Exec(`UPDATE meta SET next_uid = ?`, next); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if _, err := s.db.Exec(`INSERT INTO uidmap (key, uid) VALUES (?, ?)`, key, next); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.nextUID = next
	s.resetUnlockTimerLocked()
	s.mu.Unlock()
	s.markSeen(key)
	return next, nil
}

func (s *dbUIDStore) markSeen(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key] = true
}

// gc deletes every uidmap row not marked seen since the last scan (§4.4
// step 6), then resets the seen set for the next scan.
func (s *dbUIDStore) gc() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLockedLocked(); err != nil {
		return err
	}
	s.resetUnlockTimerLocked()

	rows, err := s.db.Query(`SELECT key FROM uidmap`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return err
		}
		if !s.seen[key] {
			stale = append(stale, key)
		}
	}
	rows.Close()

	for _, key := range stale {
		if _, err := s.db.Exec(`DELETE FROM uidmap WHERE key = ?`, key); err != nil {
			return err
		}
	}
	s.seen = make(map[string]bool)
	return nil
}

func (s *dbUIDStore) deleteKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLockedLocked(); err != nil {
		return
	}
	s.resetUnlockTimerLocked()
	_, _ = s.db.Exec(`DELETE FROM uidmap WHERE key = ?`, key)
	delete(s.seen, key)
}

func (s *dbUIDStore) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensureLockedLocked()
	s.resetUnlockTimerLocked()
}

// ensureLockedLocked re-acquires the flock and reopens the sqlite handle if
// either was released by the deferred-unlock timer (§4.3). The caller must
// already hold s.mu.
func (s *dbUIDStore) ensureLockedLocked() error {
	if !s.locked {
		if err := s.lock.Lock(); err != nil {
			return err
		}
		s.locked = true
	}
	if s.db == nil {
		if err := s.openDBLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *dbUIDStore) resetUnlockTimerLocked() {
	if s.unlockAt != nil {
		s.unlockAt.Stop()
	}
	s.unlockAt = time.AfterFunc(unlockDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.db != nil {
			_ = s.db.Close()
			s.db = nil
		}
		if s.locked {
			_ = s.lock.Unlock()
			s.locked = false
		}
	})
}

func (s *dbUIDStore) scheduleUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetUnlockTimerLocked()
}

func (s *dbUIDStore) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlockAt != nil {
		s.unlockAt.Stop()
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.locked {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
		s.locked = false
	}
	return err
}

func (s *dbUIDStore) remove() error {
	_ = s.close()
	err := os.Remove(s.dbPath)
	if os.IsNotExist(err) {
		err = nil
	}
	_ = os.Remove(s.lock.Path())
	return err
}
