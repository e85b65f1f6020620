package maildir

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/infodancer/maildirsync"
)

// Flag is a local alias for maildirsync.Flag so the filename helpers below
// read naturally without a package qualifier on every use.
type Flag = maildirsync.Flag

const (
	FlagDraft    = maildirsync.FlagDraft
	FlagFlagged  = maildirsync.FlagFlagged
	FlagAnswered = maildirsync.FlagAnswered
	FlagSeen     = maildirsync.FlagSeen
	FlagDeleted  = maildirsync.FlagDeleted
)

// flagLetters is the fixed serialization order for the info suffix (§4.6):
// letters appear in this order for whichever bits are set, never any other.
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

var (
	deliveryCounter uint64
	cachedHostname  string
	bootSequence    uint32
)

func init() {
	cachedHostname = sanitizeHostname(hostnameOrLocalhost())
	bootSequence = uint32(time.Now().UnixNano() & 0x7fffffff)
}

func hostnameOrLocalhost() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return hostname
}

func sanitizeHostname(hostname string) string {
	hostname = strings.ReplaceAll(hostname, "/", "_")
	hostname = strings.ReplaceAll(hostname, ":", "_")
	return strings.ReplaceAll(hostname, "\x00", "")
}

// uniqueName produces the Maildir unique-name prefix (before any ",U="
// or info suffix): "<secs>.M<micros>P<pid>Q<bootseq>.<host>_<counter>".
func uniqueName() string {
	now := time.Now()
	counter := atomic.AddUint64(&deliveryCounter, 1)
	return fmt.Sprintf("%d.M%dP%dQ%d.%s_%d",
		now.Unix(),
		now.Nanosecond()/1000,
		os.Getpid(),
		bootSequence,
		cachedHostname,
		counter,
	)
}

// infoSuffix serializes flags in the fixed letter order D,F,R,S,T (§4.6).
func infoSuffix(delim byte, flags Flag) string {
	b := new(strings.Builder)
	b.WriteByte(delim)
	b.WriteString("2,")
	for _, fl := range flagLetters {
		if flags&fl.bit != 0 {
			b.WriteByte(fl.letter)
		}
	}
	return b.String()
}

// splitInfo splits a message filename into its stem (before the info
// delimiter) and its parsed flags. A filename with no recognizable info
// suffix is returned with flags 0 and stem equal to the whole name.
func splitInfo(name string, delim byte) (stem string, flags Flag) {
	idx := strings.IndexByte(name, delim)
	if idx < 0 {
		return name, 0
	}
	rest := name[idx+1:]
	if !strings.HasPrefix(rest, "2,") {
		return name, 0
	}
	letters := rest[2:]
	for _, fl := range flagLetters {
		if strings.IndexByte(letters, fl.letter) >= 0 {
			flags |= fl.bit
		}
	}
	return name[:idx], flags
}

// extractUID parses ",U=<digits>" out of stem, if present, returning the
// remaining stem with that run removed and the parsed UID (0, false if
// absent).
func extractUID(stem string) (rest string, uid uint32, ok bool) {
	const marker = ",U="
	idx := strings.Index(stem, marker)
	if idx < 0 {
		return stem, 0, false
	}
	digitsStart := idx + len(marker)
	end := digitsStart
	for end < len(stem) && stem[end] >= '0' && stem[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return stem, 0, false
	}
	n, err := strconv.ParseUint(stem[digitsStart:end], 10, 32)
	if err != nil {
		return stem, 0, false
	}
	return stem[:idx] + stem[end:], uint32(n), true
}

// insertUID removes any existing ",U=…" run from base and places ",U=<uid>"
// at the end of the stem, directly before the info suffix if base has one
// (§4.4 step 8 filename mode). The info suffix itself is kept as it was.
func insertUID(base string, delim byte, uid uint32) string {
	stem, _ := splitInfo(base, delim)
	info := base[len(stem):]
	stem, _, _ = extractUID(stem)
	return fmt.Sprintf("%s,U=%d%s", stem, uid, info)
}

// tieBreakFields holds the pieces of a unique name used to order
// UID-less entries on first scan (§4.4 step 7, §9).
type tieBreakFields struct {
	secs   string // seconds field, compared length-then-lex
	micros string // Mnnn or #nnn counter field, if present
	hasPID bool
	pid    int
	hasSeq bool
	seq    int
	raw    string // full filename, final lexical fallback
}

func parseTieBreak(name string) tieBreakFields {
	f := tieBreakFields{raw: name}

	secsEnd := strings.IndexByte(name, '.')
	if secsEnd < 0 {
		f.secs = name
		return f
	}
	f.secs = name[:secsEnd]

	rest := name[secsEnd+1:]
	// rest looks like "M<micros>P<pid>Q<seq>.<host>_<counter>" or may use
	// "#nnn" in place of "Mnnn" for the same slot.
	if strings.HasPrefix(rest, "M") || strings.HasPrefix(rest, "#") {
		rest = rest[1:]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		f.micros = rest[:end]
		rest = rest[end:]
	}
	if strings.HasPrefix(rest, "P") {
		rest = rest[1:]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 {
			if pid, err := strconv.Atoi(rest[:end]); err == nil {
				f.hasPID = true
				f.pid = pid
			}
		}
		rest = rest[end:]
	}
	if strings.HasPrefix(rest, "Q") {
		rest = rest[1:]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 {
			if seq, err := strconv.Atoi(rest[:end]); err == nil {
				f.hasSeq = true
				f.seq = seq
			}
		}
	}
	return f
}

// compareLenLex orders strings shorter-then-lexical, matching numeric
// ordering for equal-width decimal fields without parsing them.
func compareLenLex(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// pidWraparoundTolerance is the magnitude beyond which two PIDs are assumed
// to have wrapped the kernel's PID counter rather than reflecting real
// allocation order, and so are compared as if reversed (§4.4 step 7).
const pidWraparoundTolerance = 20000

// compareTieBreak implements the fallback ordering for two UID-less
// entries: seconds, then micros/counter, then PID (wraparound-tolerant),
// then boot sequence, then raw lexical order.
func compareTieBreak(a, b tieBreakFields) int {
	if c := compareLenLex(a.secs, b.secs); c != 0 {
		return c
	}
	if a.micros != "" || b.micros != "" {
		if c := compareLenLex(a.micros, b.micros); c != 0 {
			return c
		}
	}
	if a.hasPID && b.hasPID && a.pid != b.pid {
		diff := a.pid - b.pid
		if diff < -pidWraparoundTolerance || diff > pidWraparoundTolerance {
			diff = -diff
		}
		if diff < 0 {
			return -1
		}
		return 1
	}
	if a.hasSeq && b.hasSeq && a.seq != b.seq {
		if a.seq < b.seq {
			return -1
		}
		return 1
	}
	return strings.Compare(a.raw, b.raw)
}
