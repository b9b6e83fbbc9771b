package mustache

import (
	"errors"
	"fmt"
)

// Parse failures. Every error returned by Parse wraps exactly one of these.
var (
	ErrMalformedDelimiters = errors.New("malformed delimiters")
	ErrUnclosedTag         = errors.New("unclosed tag")
	ErrUnopenedSection     = errors.New("unopened section")
	ErrUnclosedSection     = errors.New("unclosed section")
)

// ParseError reports where a template failed to parse.
type ParseError struct {
	Err  error
	Name string // section name or delimiter text, when relevant
	Pos  int    // byte offset into the template
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnclosedTag):
		return fmt.Sprintf("mustache: %v at %d", e.Err, e.Pos)
	case e.Name != "":
		return fmt.Sprintf("mustache: %v %q at %d", e.Err, e.Name, e.Pos)
	default:
		return fmt.Sprintf("mustache: %v at %d", e.Err, e.Pos)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
