// Package config implements the line-oriented directive parser consumed
// by the maildirsync driver's parse_store entry point (§6). It is
// deliberately built on bufio.Scanner + strings rather than a general
// config library: no example in this codebase's ecosystem parses a
// block-structured, whitespace-separated directive stream like this one,
// and the grammar is small enough that a scanner loop is the idiomatic
// fit (see DESIGN.md).
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/infodancer/maildirsync"
)

// ParseStore reads a "MaildirStore <name>" block from r and returns the
// populated StoreConfig. Recognized directives are listed in §6; any
// other directive name is stored verbatim in Options for the generic
// store parser to interpret.
func ParseStore(r io.Reader) (maildirsync.StoreConfig, error) {
	cfg := maildirsync.StoreConfig{Type: "maildir", Options: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	started := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		directive := fields[0]

		if !started {
			if directive != "MaildirStore" {
				continue
			}
			if len(fields) < 2 {
				return cfg, fmt.Errorf("config: MaildirStore directive missing name")
			}
			cfg.Name = fields[1]
			started = true
			continue
		}

		if directive == "." || directive == "End" {
			break
		}

		value := ""
		if len(fields) > 1 {
			value = strings.Join(fields[1:], " ")
		}

		switch directive {
		case "Inbox":
			cfg.Inbox = value
		case "Path":
			cfg.Path = value
		case "Trash":
			cfg.Trash = value
		case "AltMap":
			switch strings.ToLower(value) {
			case "yes", "on":
				cfg.AltMap = true
			case "no", "off":
				cfg.AltMap = false
			default:
				b, err := strconv.ParseBool(value)
				if err != nil {
					return cfg, fmt.Errorf("config: AltMap: %w", err)
				}
				cfg.AltMap = b
			}
		case "InfoDelimiter":
			if len(value) != 1 {
				return cfg, fmt.Errorf("config: InfoDelimiter must be a single character")
			}
			cfg.InfoDelimiter = value[0]
		case "SubFolders":
			style, err := parseSubFolderStyle(value)
			if err != nil {
				return cfg, err
			}
			cfg.SubFolders = style
		case "MaxMessageSize":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("config: MaxMessageSize: %w", err)
			}
			cfg.MaxMessageSize = n
		default:
			cfg.Options[directive] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	if !started {
		return cfg, fmt.Errorf("config: no MaildirStore block found")
	}
	if cfg.Inbox == "" {
		cfg.Inbox = "~/Maildir"
	}
	return cfg, nil
}

func parseSubFolderStyle(value string) (maildirsync.SubFolderStyle, error) {
	switch strings.ToLower(value) {
	case "verbatim":
		return maildirsync.SubFoldersVerbatim, nil
	case "maildir++":
		return maildirsync.SubFoldersMaildirPP, nil
	case "legacy":
		return maildirsync.SubFoldersLegacy, nil
	default:
		return maildirsync.SubFoldersUnset, fmt.Errorf("config: unknown SubFolders style %q", value)
	}
}
