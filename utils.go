package mustache

import (
	"strings"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"
)

// EscapeHTML replaces & < > " ' and / with HTML entities.
func EscapeHTML(s string) string {
	needsEscape := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&', '<', '>', '"', '\'', '/':
			needsEscape = true
		}
		if needsEscape {
			break
		}
	}
	if !needsEscape {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + len(s)/4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&#39;")
		case '/':
			sb.WriteString("&#x2F;")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeHTML strips every HTML element from s and escapes what remains.
// It can be installed with SetEscaper or WithEscaper when values may carry
// markup that should disappear rather than show up as text.
func SanitizeHTML(s string) string {
	return strictPolicy.Sanitize(s)
}

// NoEscape returns s unchanged.
func NoEscape(s string) string { return s }

var escaper atomic.Pointer[func(string) string]

// SetEscaper replaces the process-wide escaping function used for {{name}}
// tags by writers without their own. A nil fn restores EscapeHTML.
func SetEscaper(fn func(string) string) {
	if fn == nil {
		escaper.Store(nil)
		return
	}
	escaper.Store(&fn)
}

func defaultEscape(s string) string {
	if fn := escaper.Load(); fn != nil {
		return (*fn)(s)
	}
	return EscapeHTML(s)
}

// fastTrim trims ASCII whitespace without allocating.
func fastTrim(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
