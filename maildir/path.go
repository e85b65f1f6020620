package maildir

import (
	"path/filepath"
	"strings"

	"github.com/infodancer/maildirsync"
	"github.com/infodancer/maildirsync/errors"
)

// resolveFolder maps a logical folder name to an absolute filesystem path
// and reports whether the name resolved under the inbox root (as opposed
// to the general root).
func resolveFolder(cfg *maildirsync.StoreConfig, name string) (path string, isInbox bool, err error) {
	if name == "INBOX" {
		return cfg.Inbox, true, nil
	}
	if rest, ok := strings.CutPrefix(name, "INBOX/"); ok {
		sub, err := subFolderPath(cfg, rest)
		if err != nil {
			return "", true, err
		}
		return filepath.Join(cfg.Inbox, sub), true, nil
	}

	if cfg.Path == "" {
		return "", false, errors.ErrNoPath
	}
	sub, err := subFolderPath(cfg, name)
	if err != nil {
		return "", false, err
	}
	return filepath.Join(cfg.Path, sub), false, nil
}

// subFolderPath translates a "/"-separated logical name into the relative
// path fragment dictated by the configured subfolder style (§4.1).
func subFolderPath(cfg *maildirsync.StoreConfig, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if cfg.SubFolders == maildirsync.SubFoldersUnset {
		return "", errors.ErrSubFoldersUnset
	}

	parts := strings.Split(name, "/")

	switch cfg.SubFolders {
	case maildirsync.SubFoldersVerbatim:
		return filepath.Join(parts...), nil

	case maildirsync.SubFoldersMaildirPP:
		for _, p := range parts {
			if strings.Contains(p, ".") {
				return "", errors.ErrDotInMailboxPP
			}
		}
		// Maildir++ is flat: every level beyond the root folds into one
		// dot-prefixed directory name; only the root/name boundary is a
		// real path separator.
		return "." + strings.Join(parts, "."), nil

	case maildirsync.SubFoldersLegacy:
		b := new(strings.Builder)
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('/')
			}
			b.WriteByte('.')
			b.WriteString(p)
		}
		return b.String(), nil
	}

	return "", errors.ErrSubFoldersUnset
}
