package maildir

import (
	"path/filepath"
	"testing"

	"github.com/infodancer/maildirsync"
	"github.com/infodancer/maildirsync/errors"
)

func TestResolveFolder_Inbox(t *testing.T) {
	cfg := &maildirsync.StoreConfig{Inbox: "/home/user/Maildir"}

	path, isInbox, err := resolveFolder(cfg, "INBOX")
	if err != nil {
		t.Fatalf("resolveFolder failed: %v", err)
	}
	if path != cfg.Inbox || !isInbox {
		t.Fatalf("got (%q, %v), want (%q, true)", path, isInbox, cfg.Inbox)
	}
}

func TestResolveFolder_InboxSubfolderVerbatim(t *testing.T) {
	cfg := &maildirsync.StoreConfig{Inbox: "/home/user/Maildir", SubFolders: maildirsync.SubFoldersVerbatim}

	path, isInbox, err := resolveFolder(cfg, "INBOX/Archive/2020")
	if err != nil {
		t.Fatalf("resolveFolder failed: %v", err)
	}
	if !isInbox {
		t.Fatalf("expected isInbox=true")
	}
	want := filepath.Join(cfg.Inbox, "Archive", "2020")
	if path != want {
		t.Fatalf("got %q, want %q", path, want)
	}
}

func TestResolveFolder_NoPathConfigured(t *testing.T) {
	cfg := &maildirsync.StoreConfig{Inbox: "/home/user/Maildir"}

	if _, _, err := resolveFolder(cfg, "Sent"); err != errors.ErrNoPath {
		t.Fatalf("got %v, want ErrNoPath", err)
	}
}

func TestSubFolderPath_Verbatim(t *testing.T) {
	cfg := &maildirsync.StoreConfig{SubFolders: maildirsync.SubFoldersVerbatim}

	got, err := subFolderPath(cfg, "Archive/2020")
	if err != nil {
		t.Fatalf("subFolderPath failed: %v", err)
	}
	if want := filepath.Join("Archive", "2020"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubFolderPath_MaildirPP(t *testing.T) {
	cfg := &maildirsync.StoreConfig{SubFolders: maildirsync.SubFoldersMaildirPP}

	got, err := subFolderPath(cfg, "Archive/2020")
	if err != nil {
		t.Fatalf("subFolderPath failed: %v", err)
	}
	if got != ".Archive.2020" {
		t.Fatalf("got %q, want %q", got, ".Archive.2020")
	}
}

func TestSubFolderPath_MaildirPPRejectsDot(t *testing.T) {
	cfg := &maildirsync.StoreConfig{SubFolders: maildirsync.SubFoldersMaildirPP}

	if _, err := subFolderPath(cfg, "Archive.old"); err != errors.ErrDotInMailboxPP {
		t.Fatalf("got %v, want ErrDotInMailboxPP", err)
	}
}

func TestSubFolderPath_Legacy(t *testing.T) {
	cfg := &maildirsync.StoreConfig{SubFolders: maildirsync.SubFoldersLegacy}

	got, err := subFolderPath(cfg, "Archive/2020")
	if err != nil {
		t.Fatalf("subFolderPath failed: %v", err)
	}
	if want := filepath.Join(".Archive", ".2020"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubFolderPath_Unset(t *testing.T) {
	cfg := &maildirsync.StoreConfig{}

	if _, err := subFolderPath(cfg, "Archive"); err != errors.ErrSubFoldersUnset {
		t.Fatalf("got %v, want ErrSubFoldersUnset", err)
	}
}

func TestSubFolderPath_EmptyNameIsRoot(t *testing.T) {
	cfg := &maildirsync.StoreConfig{SubFolders: maildirsync.SubFoldersVerbatim}

	got, err := subFolderPath(cfg, "")
	if err != nil {
		t.Fatalf("subFolderPath failed: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
