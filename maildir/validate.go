package maildir

import (
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-maildir"

	"github.com/infodancer/maildirsync/errors"
)

// staleTmpAge is how long a tmp/ entry may sit before it is considered an
// abandoned delivery and swept (invariant 4).
const staleTmpAge = 24 * time.Hour

// freshSubdirs records which of cur/new/tmp were freshly created by
// validate, so the scanner can skip the mtime fence for them (§4.2).
type freshSubdirs struct {
	cur, new, tmp bool
}

// validate ensures path exists with cur/, new/, tmp/ subdirectories,
// creating the whole tree when create is true. cur/ is the presence marker:
// its absence with create=false means the folder does not exist. When cur/
// exists, a missing new/ or tmp/ is created regardless of create.
func validate(path string, create bool) (freshSubdirs, error) {
	var fresh freshSubdirs

	curPath := filepath.Join(path, "cur")
	curInfo, err := os.Stat(curPath)
	curExists := err == nil && curInfo.IsDir()

	if !curExists {
		if !create {
			return fresh, errors.ErrBoxNotFound
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return fresh, err
		}
		dir := maildir.Dir(path)
		if err := dir.Init(); err != nil {
			return fresh, err
		}
		fresh = freshSubdirs{cur: true, new: true, tmp: true}
		return fresh, nil
	}

	for _, sub := range [...]string{"new", "tmp"} {
		p := filepath.Join(path, sub)
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			continue
		}
		if err := os.MkdirAll(p, 0700); err != nil {
			return fresh, err
		}
		switch sub {
		case "new":
			fresh.new = true
		case "tmp":
			fresh.tmp = true
		}
	}

	sweepStaleTmp(filepath.Join(path, "tmp"))
	return fresh, nil
}

// sweepStaleTmp unlinks regular files under tmpDir older than staleTmpAge.
// Failures are ignored: a sweep is best-effort housekeeping, not load-bearing
// for any invariant beyond eventually freeing disk.
func sweepStaleTmp(tmpDir string) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-staleTmpAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(tmpDir, entry.Name()))
		}
	}
}

// isDir reports whether path is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
