package mustache

import (
	"regexp"
	"testing"
)

func TestScannerScan(t *testing.T) {
	sc := NewScanner("{{ name }}")
	open := regexp.MustCompile(`\{\{\s*`)

	if got := sc.Scan(regexp.MustCompile(`name`)); got != "" {
		t.Fatalf("Scan matched away from the cursor: %q", got)
	}
	if sc.Pos() != 0 {
		t.Fatalf("failed Scan moved the cursor to %d", sc.Pos())
	}
	if got := sc.Scan(open); got != "{{ " {
		t.Fatalf("Scan = %q, want %q", got, "{{ ")
	}
	if sc.Pos() != 3 {
		t.Errorf("Pos = %d, want 3", sc.Pos())
	}
}

func TestScannerScanUntil(t *testing.T) {
	sc := NewScanner("abc{{x}}")
	open := regexp.MustCompile(`\{\{`)

	if got := sc.ScanUntil(open); got != "abc" {
		t.Fatalf("ScanUntil = %q, want %q", got, "abc")
	}
	if got := sc.ScanUntil(open); got != "" {
		t.Fatalf("ScanUntil at a match = %q, want empty", got)
	}
	sc.Scan(open)
	if got := sc.ScanUntil(regexp.MustCompile(`nope`)); got != "x}}" {
		t.Fatalf("ScanUntil without match = %q, want rest of input", got)
	}
	if !sc.EOS() {
		t.Error("scanner should be at end of input")
	}
}
