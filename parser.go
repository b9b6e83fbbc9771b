package mustache

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ----------------------------- Parser ---------------------------------------

// DefaultDelimiters are the tag markers used when none are given.
var DefaultDelimiters = [2]string{"{{", "}}"}

var (
	whiteRe = regexp.MustCompile(`^\s*`)
	eqRe    = regexp.MustCompile(`\s*=`)
	curlyRe = regexp.MustCompile(`^\s*\}`)
	sigilRe = regexp.MustCompile(`^(?:#|\^|/|>|\{|&|=|!)`)
)

type parser struct {
	sc           *Scanner
	openRe       *regexp.Regexp
	closeRe      *regexp.Regexp
	closeCurlyRe *regexp.Regexp // closes {{{name}}}

	tokens   []*Instruction
	spaces   []int // indices of whitespace text tokens on the current line
	hasTag   bool  // the current line holds a tag
	nonSpace bool  // the current line holds visible output
}

// Parse tokenizes template and returns its instruction tree. The optional
// delims are the opening and closing tag markers; DefaultDelimiters apply
// when none are given.
func Parse(template string, delims ...string) ([]*Instruction, error) {
	if len(delims) == 0 {
		delims = DefaultDelimiters[:]
	}
	p := &parser{sc: NewScanner(template)}
	if err := p.setDelimiters(delims, 0); err != nil {
		return nil, err
	}
	if err := p.tokenize(); err != nil {
		return nil, err
	}
	return nestInstructions(squashInstructions(p.tokens))
}

func (p *parser) setDelimiters(delims []string, pos int) error {
	if len(delims) != 2 || delims[0] == "" || delims[1] == "" || delims[0] == delims[1] {
		return &ParseError{Err: ErrMalformedDelimiters, Name: strings.Join(delims, " "), Pos: pos}
	}
	p.openRe = regexp.MustCompile(regexp.QuoteMeta(delims[0]) + `\s*`)
	p.closeRe = regexp.MustCompile(`\s*` + regexp.QuoteMeta(delims[1]))
	p.closeCurlyRe = regexp.MustCompile(`\s*` + regexp.QuoteMeta("}"+delims[1]))
	return nil
}

// stripSpace drops the whitespace of the current line when the line held
// only structural tags, then resets the line state.
func (p *parser) stripSpace() {
	if p.hasTag && !p.nonSpace {
		for i := len(p.spaces) - 1; i >= 0; i-- {
			idx := p.spaces[i]
			p.tokens = slices.Delete(p.tokens, idx, idx+1)
		}
	}
	p.spaces = p.spaces[:0]
	p.hasTag = false
	p.nonSpace = false
}

func (p *parser) tokenize() error {
	sc := p.sc
	for !sc.EOS() {
		start := sc.Pos()
		text := sc.ScanUntil(p.openRe)
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				p.spaces = append(p.spaces, len(p.tokens))
			} else {
				p.nonSpace = true
			}
			p.tokens = append(p.tokens, &Instruction{
				Kind:  KindText,
				Value: text[i : i+size],
				Start: start + i,
				End:   start + i + size,
			})
			i += size
			if r == '\n' {
				p.stripSpace()
			}
		}

		start = sc.Pos()
		if sc.Scan(p.openRe) == "" {
			break
		}
		p.hasTag = true

		sigil := sc.Scan(sigilRe)
		sc.Scan(whiteRe)

		var value string
		switch sigil {
		case "=":
			value = sc.ScanUntil(eqRe)
			sc.Scan(eqRe)
			sc.ScanUntil(p.closeRe)
		case "{":
			value = sc.ScanUntil(p.closeCurlyRe)
			sc.Scan(curlyRe)
			sc.ScanUntil(p.closeRe)
			sigil = "&"
		default:
			value = sc.ScanUntil(p.closeRe)
		}

		if sc.Scan(p.closeRe) == "" {
			return &ParseError{Err: ErrUnclosedTag, Pos: sc.Pos()}
		}

		kind := KindName
		if k, ok := sigilKinds[sigil]; ok {
			kind = k
		}
		p.tokens = append(p.tokens, &Instruction{Kind: kind, Value: value, Start: start, End: sc.Pos()})

		switch kind {
		case KindName, KindUnescaped:
			p.nonSpace = true
		case KindDelimiters:
			if err := p.setDelimiters(strings.Fields(value), start); err != nil {
				return err
			}
		}
	}
	// A standalone tag on the last line has no trailing newline to trigger
	// stripping.
	p.stripSpace()
	return nil
}

// squashInstructions merges runs of text instructions into one.
func squashInstructions(tokens []*Instruction) []*Instruction {
	out := make([]*Instruction, 0, len(tokens))
	var last *Instruction
	for _, t := range tokens {
		if last != nil && last.Kind == KindText && t.Kind == KindText {
			last.Value += t.Value
			last.End = t.End
			continue
		}
		last = t
		out = append(out, t)
	}
	return out
}

// nestInstructions folds section contents into their opening instruction.
func nestInstructions(tokens []*Instruction) ([]*Instruction, error) {
	var tree []*Instruction
	var sections []*Instruction

	appendTo := func(in *Instruction) {
		if n := len(sections); n > 0 {
			sections[n-1].Children = append(sections[n-1].Children, in)
			return
		}
		tree = append(tree, in)
	}

	for _, t := range tokens {
		switch t.Kind {
		case KindSection, KindInverted:
			appendTo(t)
			sections = append(sections, t)
		case KindClose:
			if len(sections) == 0 {
				return nil, &ParseError{Err: ErrUnopenedSection, Name: t.Value, Pos: t.Start}
			}
			open := sections[len(sections)-1]
			sections = sections[:len(sections)-1]
			if open.Value != t.Value {
				return nil, &ParseError{Err: ErrUnclosedSection, Name: open.Value, Pos: open.Start}
			}
		case KindComment:
		default:
			appendTo(t)
		}
	}

	if n := len(sections); n > 0 {
		open := sections[n-1]
		return nil, &ParseError{Err: ErrUnclosedSection, Name: open.Value, Pos: open.Start}
	}
	return tree, nil
}
