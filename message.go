package maildirsync

// TUIDLen is the length in bytes of the sync-tag written into a message's
// X-TUID header by the sync engine to match messages across stores before
// UIDs are known.
const TUIDLen = 12

// Flag is a bitmask over the five Maildir-representable message flags.
// The bit order matches the canonical letter order D,F,R,S,T used when
// serializing the info suffix (§4.6).
type Flag uint8

const (
	FlagDraft Flag = 1 << iota
	FlagFlagged
	FlagAnswered
	FlagSeen
	FlagDeleted
)

// flagLetters is the fixed serialization order: letters appear in this
// order for whichever bits are set, never any other order.
var flagLetters = [...]struct {
	bit    Flag
	letter byte
}{
	{FlagDraft, 'D'},
	{FlagFlagged, 'F'},
	{FlagAnswered, 'R'},
	{FlagSeen, 'S'},
	{FlagDeleted, 'T'},
}

// Status is overloaded by Go convention elsewhere in this package for the
// driver outcome; message lifecycle bits below are a separate bitmask.

// MessageStatus holds lifecycle bits that are not persisted to disk.
type MessageStatus uint8

const (
	// StatusRecent marks a message that still lives in new/, not cur/.
	StatusRecent MessageStatus = 1 << iota
	// StatusDead marks a message a rescan discovered is gone.
	StatusDead
	// StatusFlagsLoaded marks a message whose Flags field has been populated.
	StatusFlagsLoaded
)

// Message is one live message in a selected folder.
type Message struct {
	// UID is unique within (store, uidvalidity); zero means unassigned.
	UID uint32

	// Base is the filename (without directory) of the message's current
	// location, e.g. "1700000000.99_1.host,U=2:2,S".
	Base string

	// Size is the message size in bytes; zero means "not fetched".
	Size int64

	// Flags holds the five-bit flag set.
	Flags Flag

	// Status holds lifecycle bits (Recent/Dead/FlagsLoaded).
	Status MessageStatus

	// TUID is the 12-byte sync-tag, populated only when OpenFind scanning
	// located an X-TUID header and UID >= newuid (§4.4 step 10).
	TUID [TUIDLen]byte
}
