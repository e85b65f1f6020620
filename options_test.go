package maildirsync

import "testing"

func TestOpenOption_Widen_SetFlagsImpliesOld(t *testing.T) {
	got := OpenSetFlags.Widen()
	if got&OpenOld == 0 {
		t.Fatalf("OpenSetFlags should imply OpenOld, got %v", got)
	}
}

func TestOpenOption_Widen_ExpungeImpliesOldNewFlags(t *testing.T) {
	got := OpenExpunge.Widen()
	want := OpenExpunge | OpenOld | OpenNew | OpenFlags
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOpenOption_Widen_NoOpWhenUnrelated(t *testing.T) {
	got := OpenAppend.Widen()
	if got != OpenAppend {
		t.Fatalf("OpenAppend should not be widened, got %v", got)
	}
}
