package maildir

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/infodancer/maildirsync"
	"github.com/infodancer/maildirsync/errors"
)

// locateMsg returns the subdirectory ("cur" or "new") and absolute path of
// msg's current file.
func locateMsg(folder string, msg *maildirsync.Message) (subdir, path string) {
	subdir = "cur"
	if msg.Status&maildirsync.StatusRecent != 0 {
		subdir = "new"
	}
	return subdir, filepath.Join(folder, subdir, msg.Base)
}

// withVanishRetry implements the retry-on-vanish idiom shared by fetch,
// set-flags, trash, and close (§4.6, §9): op is attempted; if it fails
// with ENOENT, the folder is rescanned and msg's Base/Status are refreshed
// from the rescan before one retry. If the rescan no longer finds msg, it
// is marked Dead and the operation reports MsgBad. Any other error
// surfaces as BoxBad.
func withVanishRetry(b *Store, msg *maildirsync.Message, op func() error) maildirsync.Status {
	err := op()
	if err == nil {
		return maildirsync.StatusOK
	}
	if !os.IsNotExist(err) {
		return maildirsync.StatusBoxBad
	}

	if rescanErr := b.rescanLocked(); rescanErr != nil {
		return maildirsync.StatusBoxBad
	}
	refreshed := b.findLoaded(msg.UID)
	if refreshed == nil {
		msg.Status |= maildirsync.StatusDead
		return maildirsync.StatusMsgBad
	}
	msg.Base = refreshed.Base
	msg.Status = refreshed.Status
	msg.Flags = refreshed.Flags

	if err := op(); err != nil {
		if os.IsNotExist(err) {
			msg.Status |= maildirsync.StatusDead
			return maildirsync.StatusMsgBad
		}
		return maildirsync.StatusBoxBad
	}
	return maildirsync.StatusOK
}

// fetchMsg reads msg's body and, if not already loaded, its flags (§4.6 Fetch).
func fetchMsg(b *Store, msg *maildirsync.Message, data *maildirsync.MsgData) maildirsync.Status {
	var body []byte
	status := withVanishRetry(b, msg, func() error {
		_, path := locateMsg(b.folderPath, msg)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		buf := make([]byte, info.Size())
		n, err := f.Read(buf)
		if err != nil && n < len(buf) {
			return errors.ErrShortRead
		}
		body = buf[:n]

		if data.Date == -1 {
			data.Date = info.ModTime().Unix()
		}
		if msg.Status&maildirsync.StatusFlagsLoaded == 0 {
			_, flags := splitInfo(msg.Base, b.infoDelim)
			msg.Flags = flags
			msg.Status |= maildirsync.StatusFlagsLoaded
		}
		return nil
	})
	if status == maildirsync.StatusOK {
		data.Data = body
		data.Flags = msg.Flags
	}
	return status
}

// storeMsg delivers data via the tmp -> new/cur rename protocol, assigning
// a UID unless toTrash (§4.6 Append). It returns the delivered filename and
// whether it landed in new/ (recent) rather than cur/, so the caller can
// build an in-memory Message without a rescan.
func storeMsg(b *Store, data *maildirsync.MsgData, toTrash bool) (maildirsync.Status, uint32, string, bool) {
	folder := b.folderPath
	if toTrash {
		if b.cfg.Trash == "" {
			return maildirsync.StatusBoxBad, 0, "", false
		}
		folder = b.trashPath
	}

	base := uniqueName()
	var uid uint32
	if !toTrash {
		var err error
		if dbStore, ok := b.uidStore.(*dbUIDStore); ok {
			stem, _ := splitInfo(base, b.infoDelim)
			uid, err = dbStore.setUID(stem)
		} else {
			uid, err = b.uidStore.obtainUID()
			if err == nil {
				base = fmt.Sprintf("%s,U=%d", base, uid)
			}
		}
		if err != nil {
			return maildirsync.StatusBoxBad, 0, "", false
		}
	}

	name := base + infoSuffix(b.infoDelim, data.Flags)
	tmpPath := filepath.Join(folder, "tmp", name)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil && toTrash && os.IsNotExist(err) {
		if _, verr := validate(folder, true); verr != nil {
			return maildirsync.StatusBoxBad, 0, "", false
		}
		f, err = os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	}
	if err != nil {
		return maildirsync.StatusBoxBad, 0, "", false
	}

	if _, err := f.Write(data.Data); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return maildirsync.StatusBoxBad, 0, "", false
	}
	if b.useFsync {
		if err := f.Sync(); err != nil {
			f.Close()
			_ = os.Remove(tmpPath)
			return maildirsync.StatusBoxBad, 0, "", false
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return maildirsync.StatusBoxBad, 0, "", false
	}

	if data.Date != 0 {
		t := time.Unix(data.Date, 0)
		_ = os.Chtimes(tmpPath, t, t)
	}

	// Non-conforming but client-interoperable: a Seen message lands
	// directly in cur/, matching the documented concession this format's
	// common implementations make.
	destSub := "new"
	if data.Flags&maildirsync.FlagSeen != 0 {
		destSub = "cur"
	}
	destPath := filepath.Join(folder, destSub, name)
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return maildirsync.StatusBoxBad, 0, "", false
	}

	return maildirsync.StatusOK, uid, name, destSub == "new"
}

// setMsgFlags renames msg's file to reflect (flags ∪ add) \ del (§4.6 Set flags).
func setMsgFlags(b *Store, msg *maildirsync.Message, add, del maildirsync.Flag) maildirsync.Status {
	newFlags := (msg.Flags | add) &^ del
	if newFlags == msg.Flags {
		return maildirsync.StatusOK
	}

	return withVanishRetry(b, msg, func() error {
		_, oldPath := locateMsg(b.folderPath, msg)
		stem, _ := splitInfo(msg.Base, b.infoDelim)
		newName := stem + infoSuffix(b.infoDelim, newFlags)
		newPath := filepath.Join(b.folderPath, "cur", newName)

		if err := os.Rename(oldPath, newPath); err != nil {
			return err
		}

		msg.Base = newName
		msg.Flags = newFlags
		msg.Status &^= maildirsync.StatusRecent
		return nil
	})
}

// trashMsg moves msg into the Trash folder under a freshly-generated name,
// preserving flags but dropping the source folder's UID (§4.6 Trash).
func trashMsg(b *Store, msg *maildirsync.Message) maildirsync.Status {
	if b.cfg.Trash == "" {
		return maildirsync.StatusBoxBad
	}

	return withVanishRetry(b, msg, func() error {
		subdir, oldPath := locateMsg(b.folderPath, msg)
		newName := uniqueName() + infoSuffix(b.infoDelim, msg.Flags)
		newPath := filepath.Join(b.trashPath, subdir, newName)

		err := os.Rename(oldPath, newPath)
		if err != nil {
			// The rename may have failed because the trash folder itself
			// is missing rather than because the source vanished; validate
			// it and retry once before treating this as a vanished source.
			if _, verr := validate(b.trashPath, true); verr == nil {
				err = os.Rename(oldPath, newPath)
			}
		}
		if err != nil {
			return err
		}

		msg.Status |= maildirsync.StatusDead
		if dbStore, ok := b.uidStore.(*dbUIDStore); ok {
			stem, _ := splitInfo(msg.Base, b.infoDelim)
			dbStore.deleteKey(stem)
		}
		return nil
	})
}

// closeBox unlinks every live message flagged Deleted (§4.6 Close/expunge).
func closeBox(b *Store, msgs []*maildirsync.Message) maildirsync.Status {
	for _, msg := range msgs {
		if msg.Status&maildirsync.StatusDead != 0 || msg.Flags&maildirsync.FlagDeleted == 0 {
			continue
		}
		status := withVanishRetry(b, msg, func() error {
			_, path := locateMsg(b.folderPath, msg)
			if err := os.Remove(path); err != nil {
				return err
			}
			msg.Status |= maildirsync.StatusDead
			if dbStore, ok := b.uidStore.(*dbUIDStore); ok {
				stem, _ := splitInfo(msg.Base, b.infoDelim)
				dbStore.deleteKey(stem)
			}
			return nil
		})
		if status != maildirsync.StatusOK && status != maildirsync.StatusMsgBad {
			return status
		}
	}
	return maildirsync.StatusOK
}
