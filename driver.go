package maildirsync

import "io"

// StatusFunc is the completion callback used throughout the Driver
// contract. The façade invokes it inline, before the originating call
// returns, unless documented otherwise (§9) — this driver performs no
// cross-goroutine dispatch.
type StatusFunc func(status Status)

// AppendFunc is the completion callback for StoreMsg, which additionally
// reports the UID assigned to the stored message (0 if the message was
// routed to Trash, which does not use the folder's UID sequence).
type AppendFunc func(status Status, uid uint32)

// MsgData is the payload and metadata passed to FetchMsg (as an out
// parameter) and StoreMsg (as an in parameter).
type MsgData struct {
	// Data is the full RFC 5322 message body.
	Data []byte

	// Flags are the message's flags, read from or written to the info suffix.
	Flags Flag

	// Date is the INTERNALDATE to apply to the delivered file's atime/mtime.
	// Zero means "use current time"; a Date of -1 passed to FetchMsg is
	// replaced with the file's mtime (§4.6 Fetch semantics).
	Date int64
}

// Driver is the storage-driver contract consumed by the synchronization
// engine (§6). One Driver value corresponds to one opened store; Select
// may be called many times in sequence to visit different folders.
type Driver interface {
	// Connect validates the store's configuration (a non-empty Inbox, and a
	// resolvable Trash folder name when Trash is set) without yet selecting
	// a folder. It does not check that the root paths exist on disk.
	Connect(cb StatusFunc)

	// List enumerates folder names under the roots selected by flags.
	// Discovered names are retrievable via Folders after the callback runs.
	List(flags ListFlag, cb StatusFunc)

	// Folders returns the folder names most recently discovered by List.
	Folders() []string

	// Select designates name (an INBOX-rooted or Path-rooted logical folder
	// name) as the folder subsequent calls operate on. It does not touch
	// the filesystem; Open/Create validate and open it.
	Select(name string) error

	// Open validates that the selected folder exists (creating a missing
	// new/ or tmp/ subdirectory, but never cur/ or the folder root: a folder
	// without cur/ does not exist) and opens its UID-validity resource.
	Open(cb StatusFunc)

	// Create validates the selected folder, creating the whole tree
	// (including the folder root) if it is missing.
	Create(cb StatusFunc)

	// ConfirmEmpty reports StatusOK if the selected folder currently holds
	// zero messages, StatusBoxBad otherwise.
	ConfirmEmpty() Status

	// Delete removes the selected folder's uidvalidity resource and its
	// three subdirectories, and preserves any nested subfolders and the
	// folder root itself. It does not remove messages: a subdirectory that
	// still holds files makes it report StatusBoxBad.
	Delete(cb StatusFunc)

	// FinishDelete removes the now-empty folder root, tolerating it being
	// already gone or still holding preserved subfolders.
	FinishDelete() error

	// PrepareLoad records which per-message work LoadBox should perform,
	// after applying the option-widening rules (§6).
	PrepareLoad(opts OpenOption)

	// LoadBox scans the selected folder and populates the in-memory message
	// list, subject to the given filters. excluded is owned by the driver
	// after this call (§6: "driver takes ownership of excs").
	LoadBox(minUID, maxUID, newUID uint32, excluded []uint32, cb StatusFunc)

	// Messages returns the message list most recently produced by LoadBox
	// or mutated by subsequent operations, sorted by UID ascending.
	Messages() []*Message

	// FetchMsg reads one message's full body (and, if not already loaded,
	// its flags) into data.
	FetchMsg(msg *Message, data *MsgData, cb StatusFunc)

	// StoreMsg delivers a new message via the tmp→new/cur rename protocol,
	// assigning it a UID unless toTrash is set.
	StoreMsg(data *MsgData, toTrash bool, cb AppendFunc)

	// FindNewMsgs is unreachable on this driver: UIDs are committed during
	// StoreMsg, so the engine never needs a separate discovery pass.
	FindNewMsgs(newUID uint32, cb StatusFunc)

	// SetMsgFlags applies add/del flag bitmasks to msg, renaming its file.
	SetMsgFlags(msg *Message, add, del Flag, cb StatusFunc)

	// TrashMsg moves msg into the configured Trash folder.
	TrashMsg(msg *Message, cb StatusFunc)

	// CloseBox unlinks every Deleted message still live and marks it dead.
	CloseBox(cb StatusFunc)

	// CancelCmds completes immediately: this driver has no command queue
	// to drain (§5).
	CancelCmds(cb func())

	// CommitCmds is a no-op: every mutating call above already committed
	// its effect synchronously.
	CommitCmds()

	// MemoryUsage always returns 0: the driver's allocations are considered
	// part of the caller's Message values.
	MemoryUsage() int

	// FailState reports whether a Connect failure should be retried, and
	// how soon.
	FailState() FailState

	// Close releases the store's resources (open file descriptors, pending
	// deferred-unlock timer). Not part of the original driver vtable, but
	// required for this driver to be usable from Go without leaking a lock
	// file descriptor and a running timer past the caller's last use.
	Close() error
}

// BadCallback is invoked at most once per store when an operation
// discovers unrecoverable state; afterwards the store may only be disposed.
type BadCallback func()

var _ io.Closer = Driver(nil)
