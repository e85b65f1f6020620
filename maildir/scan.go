package maildir

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/infodancer/maildirsync"
	"github.com/infodancer/maildirsync/errors"
)

// uidUnassigned is the sentinel UID used for candidates not yet assigned
// a real UID (§4.4 step 3).
const uidUnassigned = 0

// errRescanNeeded signals that a UID-assignment rename lost a race with
// another process removing the file; the caller should restart the scan
// from the top rather than treat this as an error (§4.4 step 8).
var errRescanNeeded = stderrors.New("maildir: rescan needed")

type scanCandidate struct {
	name   string // filename as currently on disk
	recent bool   // true if found in new/
	uid    uint32
	flags  Flag
	tie    tieBreakFields
}

// scanParams filters a scan (§4.4 step 4).
type scanParams struct {
	minUID, maxUID uint32
	excluded       map[uint32]bool
	zeroDelay      bool
}

// scan produces the canonical message list for folder, applying the
// mtime-fence detect-and-retry protocol and assigning UIDs to UID-less
// entries via store.
func scan(folder string, delim byte, fresh freshSubdirs, store uidStore, params scanParams) ([]*maildirsync.Message, error) {
	curDir := filepath.Join(folder, "cur")
	newDir := filepath.Join(folder, "new")

	for {
		mtimes, err := fenceAndStat(curDir, newDir, fresh, params.zeroDelay)
		if err != nil {
			return nil, err
		}

		candidates, err := enumerate(curDir, newDir, delim, store)
		if err != nil {
			return nil, err
		}
		candidates = filterByUID(candidates, params)

		changed, err := revalidate(curDir, newDir, mtimes)
		if err != nil {
			return nil, err
		}
		if changed {
			slog.Debug("maildir: directory changed during scan, retrying", "folder", folder)
			continue
		}

		msgs, err := assignUIDs(folder, delim, store, candidates)
		if stderrors.Is(err, errRescanNeeded) {
			slog.Debug("maildir: UID assignment lost a race, rescanning", "folder", folder)
			continue
		}
		if err != nil {
			return nil, err
		}

		if dbStore, ok := store.(*dbUIDStore); ok {
			if err := dbStore.gc(); err != nil {
				return nil, err
			}
		}

		return msgs, nil
	}
}

type dirMtimes struct {
	cur, new time.Time
}

// fenceAndStat implements the 1-second mtime fence (§4.4 step 1): a
// directory whose mtime equals the current wall-clock second may still
// receive writes this same second from a racing process, so we sleep and
// re-stat until it no longer does, unless the caller asked for zero-delay
// mode or the subdir was freshly created this session (nothing could be
// racing a directory we just made).
func fenceAndStat(curDir, newDir string, fresh freshSubdirs, zeroDelay bool) (dirMtimes, error) {
	for {
		curInfo, err := os.Stat(curDir)
		if err != nil {
			return dirMtimes{}, err
		}
		newInfo, err := os.Stat(newDir)
		if err != nil {
			return dirMtimes{}, err
		}

		now := time.Now()
		curRacy := !fresh.cur && sameSecond(curInfo.ModTime(), now)
		newRacy := !fresh.new && sameSecond(newInfo.ModTime(), now)
		if zeroDelay || (!curRacy && !newRacy) {
			return dirMtimes{cur: curInfo.ModTime(), new: newInfo.ModTime()}, nil
		}

		slog.Debug("maildir: mtime fence, sleeping", "cur", curDir, "new", newDir)
		time.Sleep(time.Second)
	}
}

func sameSecond(t, now time.Time) bool {
	return t.Unix() == now.Unix()
}

func revalidate(curDir, newDir string, prev dirMtimes) (changed bool, err error) {
	curInfo, err := os.Stat(curDir)
	if err != nil {
		return false, err
	}
	newInfo, err := os.Stat(newDir)
	if err != nil {
		return false, err
	}
	return !curInfo.ModTime().Equal(prev.cur) || !newInfo.ModTime().Equal(prev.new), nil
}

func enumerate(curDir, newDir string, delim byte, store uidStore) ([]scanCandidate, error) {
	var candidates []scanCandidate

	add := func(dir string, recent bool) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := e.Name()
			if len(name) == 0 || name[0] == '.' {
				continue
			}
			stem, flags := splitInfo(name, delim)

			var uid uint32
			switch s := store.(type) {
			case *dbUIDStore:
				if u, ok := s.lookupUID(stem); ok {
					uid = u
				}
				s.markSeen(stem)
			default:
				if _, u, ok := extractUID(stem); ok {
					uid = u
				}
			}

			candidates = append(candidates, scanCandidate{
				name:   name,
				recent: recent,
				uid:    uid,
				flags:  flags,
				tie:    parseTieBreak(name),
			})
		}
		return nil
	}

	if err := add(curDir, false); err != nil {
		return nil, err
	}
	if err := add(newDir, true); err != nil {
		return nil, err
	}
	return candidates, nil
}

func filterByUID(candidates []scanCandidate, params scanParams) []scanCandidate {
	out := candidates[:0]
	for _, c := range candidates {
		if c.uid == uidUnassigned {
			out = append(out, c)
			continue
		}
		if c.uid > params.maxUID {
			continue
		}
		if c.uid < params.minUID && !params.excluded[c.uid] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// assignUIDs sorts candidates by (uid, tie-break), assigns UIDs to every
// unassigned entry in order, and fails fatally on any duplicate (§4.4
// steps 7-9).
func assignUIDs(folder string, delim byte, store uidStore, candidates []scanCandidate) ([]*maildirsync.Message, error) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.uid != b.uid {
			if a.uid == uidUnassigned {
				return false
			}
			if b.uid == uidUnassigned {
				return true
			}
			return a.uid < b.uid
		}
		return compareTieBreak(a.tie, b.tie) < 0
	})

	msgs := make([]*maildirsync.Message, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.uid == uidUnassigned {
			if err := assignOne(folder, delim, store, c); err != nil {
				return nil, err
			}
		}

		status := maildirsync.MessageStatus(0)
		if c.recent {
			status |= maildirsync.StatusRecent
		}
		msgs = append(msgs, &maildirsync.Message{
			UID:    c.uid,
			Base:   c.name,
			Flags:  c.flags,
			Status: status | maildirsync.StatusFlagsLoaded,
		})
	}

	for i := 1; i < len(msgs); i++ {
		if msgs[i].UID == msgs[i-1].UID {
			return nil, errors.ErrDuplicateUID
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].UID < msgs[j].UID })
	return msgs, nil
}

func assignOne(folder string, delim byte, store uidStore, c *scanCandidate) error {
	dbStore, isDB := store.(*dbUIDStore)
	if isDB {
		stem, _ := splitInfo(c.name, delim)
		uid, err := dbStore.setUID(stem)
		if err != nil {
			return err
		}
		c.uid = uid
		return nil
	}

	uid, err := store.obtainUID()
	if err != nil {
		return err
	}
	newName := insertUID(c.name, delim, uid)

	subdir := "cur"
	if c.recent {
		subdir = "new"
	}
	oldPath := filepath.Join(folder, subdir, c.name)
	newPath := filepath.Join(folder, subdir, newName)
	if err := os.Rename(oldPath, newPath); err != nil {
		if os.IsNotExist(err) {
			return errRescanNeeded
		}
		return err
	}

	c.uid = uid
	c.name = newName
	return nil
}
