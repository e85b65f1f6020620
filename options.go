package maildirsync

// OpenOption selects which per-message work a load_box call should perform.
// This driver widens the requested set per §6: OpenSetFlags implies
// OpenOld, and OpenExpunge implies OpenOld|OpenNew|OpenFlags.
type OpenOption uint16

const (
	OpenOld OpenOption = 1 << iota
	OpenNew
	OpenFlags
	OpenSize
	OpenExpunge
	OpenSetFlags
	OpenAppend
	OpenFind
)

// Widen applies the driver's option-widening rules and returns the
// effective option set.
func (o OpenOption) Widen() OpenOption {
	if o&OpenSetFlags != 0 {
		o |= OpenOld
	}
	if o&OpenExpunge != 0 {
		o |= OpenOld | OpenNew | OpenFlags
	}
	return o
}

// ListFlag selects which root(s) a folder listing should cover.
type ListFlag uint8

const (
	// ListInbox lists folders rooted at the inbox path.
	ListInbox ListFlag = 1 << iota
	// ListPath lists folders rooted at the general path.
	ListPath
	// ListPathMaybe lists the general path only if one is configured.
	ListPathMaybe
)
