package maildir

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/infodancer/maildirsync"
)

// listFolders discovers folder names under the roots selected by flags,
// handling the case where the inbox path and the general path overlap
// (one nests the other) without double-listing (§4.5).
func listFolders(cfg *maildirsync.StoreConfig, flags maildirsync.ListFlag) ([]string, error) {
	var names []string

	wantInbox := flags&maildirsync.ListInbox != 0
	wantPath := flags&maildirsync.ListPath != 0
	if flags&maildirsync.ListPathMaybe != 0 && cfg.Path != "" {
		wantPath = true
	}

	inboxAbs, inboxErr := filepath.Abs(cfg.Inbox)
	pathAbs, pathErr := filepath.Abs(cfg.Path)
	overlap := cfg.Path != "" && inboxErr == nil && pathErr == nil &&
		(inboxAbs == pathAbs || under(inboxAbs, pathAbs) || under(pathAbs, inboxAbs))

	if wantInbox {
		names = append(names, "INBOX")
		subs, err := listSubtree(cfg, cfg.Inbox, "INBOX/")
		if err != nil {
			return nil, err
		}
		names = append(names, subs...)
	}

	if wantPath {
		subs, err := listSubtree(cfg, cfg.Path, "")
		if err != nil {
			return nil, err
		}
		for _, name := range subs {
			if overlap && wantInbox && under(filepath.Join(cfg.Path, name), cfg.Inbox) {
				continue
			}
			if strings.EqualFold(name, "INBOX") {
				slog.Warn("maildir: folder named INBOX found under general root, skipping", "name", name)
				continue
			}
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// under reports whether child is inboxAbs/pathAbs nested under parent.
func under(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// listSubtree walks root looking for nested maildirs (directories
// containing cur/), emitting logical names prefixed with prefix. Recursion
// honors the subfolder style: MAILDIRPP is flat (one dot-prefixed level),
// LEGACY descends through dot-prefixed directories, VERBATIM/UNSET
// recurses plainly.
func listSubtree(cfg *maildirsync.StoreConfig, root, prefix string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	if !isDir(root) {
		return nil, nil
	}

	switch cfg.SubFolders {
	case maildirsync.SubFoldersMaildirPP:
		return listMaildirPP(root, prefix)
	case maildirsync.SubFoldersLegacy:
		return listLegacy(root, prefix)
	default:
		return listVerbatim(root, prefix)
	}
}

func listMaildirPP(root, prefix string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), ".") {
			continue
		}
		logical := strings.ReplaceAll(strings.TrimPrefix(e.Name(), "."), ".", "/")
		if !isMaildirDir(filepath.Join(root, e.Name())) {
			continue
		}
		names = append(names, prefix+logical)
	}
	return names, nil
}

func listLegacy(root, prefix string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), ".") {
			continue
		}
		logical := strings.TrimPrefix(e.Name(), ".")
		full := filepath.Join(root, e.Name())
		if isMaildirDir(full) {
			names = append(names, prefix+logical)
		}
		children, err := listLegacy(full, prefix+logical+"/")
		if err != nil {
			return nil, err
		}
		names = append(names, children...)
	}
	return names, nil
}

func listVerbatim(root, prefix string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := filepath.Join(root, e.Name())
		logical := prefix + e.Name()
		if isMaildirDir(full) {
			names = append(names, logical)
		}
		children, err := listVerbatim(full, logical+"/")
		if err != nil {
			return nil, err
		}
		names = append(names, children...)
	}
	return names, nil
}

func isMaildirDir(path string) bool {
	return isDir(filepath.Join(path, "cur"))
}
