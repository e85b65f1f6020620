// Package errors provides centralized error definitions for maildirsync.
package errors

import "errors"

// Configuration errors.
var (
	// ErrStoreNotRegistered indicates no driver is registered for a config type.
	ErrStoreNotRegistered = errors.New("store type not registered")

	// ErrStoreConfigInvalid indicates a store configuration is missing required fields.
	ErrStoreConfigInvalid = errors.New("store configuration invalid")

	// ErrNoPath indicates a store has no Path configured and a non-INBOX folder was requested.
	ErrNoPath = errors.New("store has no Path")

	// ErrSubFoldersUnset indicates a subfolder was addressed but no SubFolders style was configured.
	ErrSubFoldersUnset = errors.New("store does not specify SubFolders style")

	// ErrDotInMailboxPP indicates a Maildir++ mailbox name contains a literal dot.
	ErrDotInMailboxPP = errors.New("SubFolders style Maildir++ does not support dots in mailbox names")
)

// Path / folder errors.
var (
	// ErrPathTraversal indicates a resolved path would escape its configured root.
	ErrPathTraversal = errors.New("path escapes configured root")

	// ErrBoxNotFound indicates the selected folder does not exist on disk.
	ErrBoxNotFound = errors.New("mailbox does not exist")

	// ErrNotAMailbox indicates a path exists but is not a valid maildir.
	ErrNotAMailbox = errors.New("not a valid mailbox")
)

// UID validity store errors.
var (
	// ErrUIDValidityCorrupt indicates the uidvalidity resource exists but cannot be parsed.
	ErrUIDValidityCorrupt = errors.New("cannot read uidvalidity")

	// ErrDuplicateUID indicates a scan found two messages sharing one UID.
	ErrDuplicateUID = errors.New("duplicate uid")
)

// Message errors.
var (
	// ErrMessageNotFound indicates the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMessageDead indicates a rescan found the target message gone.
	ErrMessageDead = errors.New("message no longer exists")

	// ErrShortRead indicates fewer bytes were read than the file's reported size.
	ErrShortRead = errors.New("short read")
)

// Driver contract errors.
var (
	// ErrNotImplemented indicates a contract method this driver never supports was called.
	ErrNotImplemented = errors.New("operation not supported by this driver")
)
