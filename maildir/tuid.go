package maildir

import (
	"bufio"
	"os"
	"strings"

	"github.com/infodancer/maildirsync"
)

const tuidHeader = "X-TUID:"

// findTUID scans path's header lines, up to the first blank line, for an
// X-TUID header and returns its 12-byte value (§4.4 step 10).
func findTUID(path string) (tuid [maildirsync.TUIDLen]byte, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return tuid, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			return tuid, false
		}
		if !strings.HasPrefix(line, tuidHeader) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, tuidHeader))
		if len(value) != maildirsync.TUIDLen {
			return tuid, false
		}
		copy(tuid[:], value)
		return tuid, true
	}
	return tuid, false
}
