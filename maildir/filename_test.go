package maildir

import "testing"

func TestInfoSuffix_FixedLetterOrder(t *testing.T) {
	got := infoSuffix(':', FlagDeleted|FlagSeen|FlagDraft)
	if want := ":2,DST"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInfoSuffix_NoFlags(t *testing.T) {
	if got := infoSuffix(':', 0); got != ":2," {
		t.Fatalf("got %q, want %q", got, ":2,")
	}
}

func TestSplitInfo_RoundTrip(t *testing.T) {
	for _, flags := range []Flag{
		0, FlagSeen, FlagDraft | FlagFlagged | FlagAnswered | FlagSeen | FlagDeleted, FlagAnswered,
	} {
		name := "1700000000.99_1.host" + infoSuffix(':', flags)
		stem, parsed := splitInfo(name, ':')
		if parsed != flags {
			t.Fatalf("flags %v: parsed %v", flags, parsed)
		}
		if stem != "1700000000.99_1.host" {
			t.Fatalf("flags %v: stem %q", flags, stem)
		}
	}
}

func TestSplitInfo_NoInfoSuffix(t *testing.T) {
	stem, flags := splitInfo("1700000000.99_1.host", ':')
	if stem != "1700000000.99_1.host" || flags != 0 {
		t.Fatalf("got (%q, %v)", stem, flags)
	}
}

func TestExtractUID(t *testing.T) {
	rest, uid, ok := extractUID("1700000000.99_1.host,U=42")
	if !ok || uid != 42 || rest != "1700000000.99_1.host" {
		t.Fatalf("got (%q, %d, %v)", rest, uid, ok)
	}
}

func TestExtractUID_Absent(t *testing.T) {
	rest, uid, ok := extractUID("1700000000.99_1.host")
	if ok || uid != 0 || rest != "1700000000.99_1.host" {
		t.Fatalf("got (%q, %d, %v)", rest, uid, ok)
	}
}

func TestInsertUID_BeforeInfoDelimiter(t *testing.T) {
	got := insertUID("1700000000.99_1.host:2,S", ':', 7)
	if want := "1700000000.99_1.host,U=7:2,S"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInsertUID_ReplacesExisting(t *testing.T) {
	got := insertUID("1700000000.99_1.host,U=3:2,S", ':', 9)
	if want := "1700000000.99_1.host,U=9:2,S"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseTieBreak_MAndPAndQ(t *testing.T) {
	f := parseTieBreak("1700000000.M123456P4242Q7.host_1")
	if f.secs != "1700000000" || f.micros != "123456" {
		t.Fatalf("got secs=%q micros=%q", f.secs, f.micros)
	}
	if !f.hasPID || f.pid != 4242 {
		t.Fatalf("got pid=%d hasPID=%v", f.pid, f.hasPID)
	}
	if !f.hasSeq || f.seq != 7 {
		t.Fatalf("got seq=%d hasSeq=%v", f.seq, f.hasSeq)
	}
}

func TestParseTieBreak_HashVariant(t *testing.T) {
	f := parseTieBreak("1700000000.#99P100.host")
	if f.micros != "99" {
		t.Fatalf("got micros=%q, want 99", f.micros)
	}
}

func TestCompareTieBreak_SecondsLenThenLex(t *testing.T) {
	a := parseTieBreak("9.host")
	b := parseTieBreak("10.host")
	if compareTieBreak(a, b) >= 0 {
		t.Fatalf("expected a < b (shorter second field sorts first)")
	}
}

func TestCompareTieBreak_PIDWraparound(t *testing.T) {
	// A huge PID delta is treated as wraparound and the comparison inverted.
	a := tieBreakFields{secs: "1", hasPID: true, pid: 1, raw: "a"}
	b := tieBreakFields{secs: "1", hasPID: true, pid: 40000, raw: "b"}
	if compareTieBreak(a, b) <= 0 {
		t.Fatalf("expected wraparound-adjusted comparison to put a after b")
	}
}

func TestCompareTieBreak_FallsBackToRawLex(t *testing.T) {
	a := tieBreakFields{secs: "1", raw: "aaa"}
	b := tieBreakFields{secs: "1", raw: "bbb"}
	if compareTieBreak(a, b) >= 0 {
		t.Fatalf("expected a < b by raw lexical order")
	}
}
