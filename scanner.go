package mustache

import "regexp"

// ----------------------------- Scanner --------------------------------------

// Scanner is a cursor over an immutable template source.
type Scanner struct {
	src string
	pos int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// EOS reports whether the whole source has been consumed.
func (s *Scanner) EOS() bool { return s.pos >= len(s.src) }

// Pos returns the absolute byte offset of the cursor.
func (s *Scanner) Pos() int { return s.pos }

// Scan consumes re if it matches exactly at the cursor and returns the matched
// text. Otherwise it returns "" and leaves the cursor in place.
func (s *Scanner) Scan(re *regexp.Regexp) string {
	tail := s.src[s.pos:]
	loc := re.FindStringIndex(tail)
	if loc == nil || loc[0] != 0 {
		return ""
	}
	s.pos += loc[1]
	return tail[:loc[1]]
}

// ScanUntil skips ahead to the first match of re and returns the skipped text.
// When re never matches, the rest of the source is returned.
func (s *Scanner) ScanUntil(re *regexp.Regexp) string {
	tail := s.src[s.pos:]
	loc := re.FindStringIndex(tail)
	switch {
	case loc == nil:
		s.pos = len(s.src)
		return tail
	case loc[0] == 0:
		return ""
	default:
		s.pos += loc[0]
		return tail[:loc[0]]
	}
}
