package maildir

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/infodancer/maildirsync"
)

func TestStore_CreateBoxProducesUidvalidityFile(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "Maildir")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: inbox})
	openBox(t, b, "INBOX", true)
	defer b.Close()

	data, err := os.ReadFile(filepath.Join(inbox, ".uidvalidity"))
	if err != nil {
		t.Fatalf("ReadFile(.uidvalidity) failed: %v", err)
	}
	if !regexp.MustCompile(`^\d+\n0\n$`).Match(data) {
		t.Fatalf("unexpected .uidvalidity contents: %q", data)
	}

	var status maildirsync.Status
	b.PrepareLoad(maildirsync.OpenOld | maildirsync.OpenNew)
	b.LoadBox(0, ^uint32(0), 0, nil, func(s maildirsync.Status) { status = s })
	if status != maildirsync.StatusOK {
		t.Fatalf("LoadBox: got %v", status)
	}
	if msgs := b.Messages(); len(msgs) != 0 {
		t.Fatalf("expected empty mailbox, got %+v", msgs)
	}
}

func TestStore_AppendFilenameMatchesPattern(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "Maildir")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: inbox})
	openBox(t, b, "INBOX", true)
	defer b.Close()

	var status maildirsync.Status
	var uid uint32
	data := &maildirsync.MsgData{Data: []byte("hello\n"), Flags: maildirsync.FlagSeen}
	b.StoreMsg(data, false, func(s maildirsync.Status, u uint32) { status, uid = s, u })
	if status != maildirsync.StatusOK || uid != 1 {
		t.Fatalf("StoreMsg: got (%v, %d)", status, uid)
	}

	entries, err := os.ReadDir(filepath.Join(inbox, "cur"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one delivered file, got %d", len(entries))
	}
	pattern := regexp.MustCompile(`^\d+\.[^,]+,U=1:2,S$`)
	if !pattern.MatchString(entries[0].Name()) {
		t.Fatalf("delivered filename %q does not match expected pattern", entries[0].Name())
	}
}

func TestStore_ConfirmEmpty(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "Maildir")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: inbox})
	openBox(t, b, "INBOX", true)
	defer b.Close()

	if status := b.ConfirmEmpty(); status != maildirsync.StatusOK {
		t.Fatalf("ConfirmEmpty on a fresh box: got %v, want StatusOK", status)
	}

	var storeStatus maildirsync.Status
	data := &maildirsync.MsgData{Data: []byte("body"), Flags: 0}
	b.StoreMsg(data, false, func(s maildirsync.Status, u uint32) { storeStatus = s })
	if storeStatus != maildirsync.StatusOK {
		t.Fatalf("StoreMsg: got %v", storeStatus)
	}

	if status := b.ConfirmEmpty(); status != maildirsync.StatusBoxBad {
		t.Fatalf("ConfirmEmpty on a non-empty box: got %v, want StatusBoxBad", status)
	}
}

func TestStore_DeleteThenFinishDelete(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "folders")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: filepath.Join(base, "Maildir"), Path: path, SubFolders: maildirsync.SubFoldersVerbatim})
	openBox(t, b, "Archive", true)

	boxPath := filepath.Join(path, "Archive")

	var status maildirsync.Status
	b.Delete(func(s maildirsync.Status) { status = s })
	if status != maildirsync.StatusOK {
		t.Fatalf("Delete: got %v", status)
	}
	if _, err := os.Stat(filepath.Join(boxPath, "cur")); !os.IsNotExist(err) {
		t.Fatalf("expected cur/ to be removed")
	}
	if _, err := os.Stat(filepath.Join(boxPath, ".uidvalidity")); !os.IsNotExist(err) {
		t.Fatalf("expected .uidvalidity to be removed")
	}

	if err := b.FinishDelete(); err != nil {
		t.Fatalf("FinishDelete failed: %v", err)
	}
	if _, err := os.Stat(boxPath); !os.IsNotExist(err) {
		t.Fatalf("expected folder root to be removed")
	}
}

func TestStore_FinishDeleteToleratesPreservedSubfolders(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "folders")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: filepath.Join(base, "Maildir"), Path: path, SubFolders: maildirsync.SubFoldersVerbatim})
	openBox(t, b, "Archive", true)
	makeMaildir(t, filepath.Join(path, "Archive", "sub"))

	var status maildirsync.Status
	b.Delete(func(s maildirsync.Status) { status = s })
	if status != maildirsync.StatusOK {
		t.Fatalf("Delete: got %v", status)
	}

	if err := b.FinishDelete(); err != nil {
		t.Fatalf("FinishDelete must tolerate a non-empty (preserved-subfolder) root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(path, "Archive", "sub")); err != nil {
		t.Fatalf("expected preserved subfolder to survive delete: %v", err)
	}
}

func TestStore_ListSuppressesOverlappingInbox(t *testing.T) {
	base := t.TempDir()
	inbox := filepath.Join(base, "Maildir")
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: inbox, Path: inbox, SubFolders: maildirsync.SubFoldersVerbatim})

	var status maildirsync.Status
	b.List(maildirsync.ListInbox|maildirsync.ListPath, func(s maildirsync.Status) { status = s })
	if status != maildirsync.StatusOK {
		t.Fatalf("List: got %v", status)
	}
	count := 0
	for _, name := range b.Folders() {
		if name == "INBOX" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one INBOX entry when Path == Inbox, got %d in %v", count, b.Folders())
	}
}

func TestStore_SelectUnsetSubFoldersFails(t *testing.T) {
	b := newTestStore(t, maildirsync.StoreConfig{Inbox: filepath.Join(t.TempDir(), "Maildir")})
	if err := b.Select("INBOX/Sub"); err == nil {
		t.Fatalf("expected an error selecting a subfolder with SubFolders unset")
	}
}

func TestDriver_RegisteredUnderMaildirName(t *testing.T) {
	found := false
	for _, name := range maildirsync.RegisteredTypes() {
		if name == "maildir" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected \"maildir\" to be registered, got %v", maildirsync.RegisteredTypes())
	}

	driver, err := maildirsync.Open(maildirsync.StoreConfig{Type: "maildir", Inbox: filepath.Join(t.TempDir(), "Maildir")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := driver.(*Store); !ok {
		t.Fatalf("expected *Store, got %T", driver)
	}
}
