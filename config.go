package maildirsync

// SubFolderStyle selects how a logical folder name containing "/" is mapped
// onto a filesystem path (§4.1).
type SubFolderStyle int

const (
	// SubFoldersUnset means accessing any subfolder is a configuration error.
	SubFoldersUnset SubFolderStyle = iota
	// SubFoldersVerbatim keeps "/" as a literal path separator.
	SubFoldersVerbatim
	// SubFoldersMaildirPP flattens nested folders with a dot, Maildir++ style.
	SubFoldersMaildirPP
	// SubFoldersLegacy nests folders with a dot-prefixed directory per level.
	SubFoldersLegacy
)

func (s SubFolderStyle) String() string {
	switch s {
	case SubFoldersVerbatim:
		return "Verbatim"
	case SubFoldersMaildirPP:
		return "Maildir++"
	case SubFoldersLegacy:
		return "Legacy"
	default:
		return "Unset"
	}
}

// StoreConfig is the immutable-per-run configuration for one store (§3, §6).
type StoreConfig struct {
	// Type selects the registered driver, e.g. "maildir".
	Type string

	// Name identifies this store in logs and error messages.
	Name string

	// Inbox is the root path of the inbox mailbox. Defaults to "~/Maildir"
	// when empty, per the Inbox directive's documented default.
	Inbox string

	// Path is the base for general (non-INBOX) folders. Empty means only
	// INBOX is accessible.
	Path string

	// Trash is the name of the folder messages are moved to on TrashMsg.
	// Empty disables Trash/StoreMsg(toTrash=true).
	Trash string

	// SubFolders selects the subfolder naming style.
	SubFolders SubFolderStyle

	// InfoDelimiter is the punctuation character preceding "2,<flags>" in a
	// message's info suffix. Zero value means the driver's own default (':').
	InfoDelimiter byte

	// AltMap selects the hash-DB UID backend over the filename-embedded one.
	AltMap bool

	// MaxMessageSize caps delivered message size in bytes; zero means
	// unlimited. Enforcement is the caller's responsibility before Store;
	// this field exists so parse_store has somewhere to put the directive.
	MaxMessageSize int64

	// Options carries any other implementation-specific settings verbatim.
	Options map[string]string
}
