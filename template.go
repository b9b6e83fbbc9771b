package mustache

import (
	"bytes"
	"io"
)

// ----------------------------- Public API -----------------------------------

// Template is a compiled template bound to the Writer that compiled it.
type Template struct {
	w    *Writer
	src  string
	tree []*Instruction
	prog *program
}

// Source returns the template text.
func (t *Template) Source() string { return t.src }

// Tree returns the parsed instruction tree.
func (t *Template) Tree() []*Instruction { return t.tree }

// Render renders the template with view and returns the output. view may be
// any data or a *Context to render within an existing scope. partials may be
// nil.
func (t *Template) Render(view any, partials Partials) (string, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	if err := t.execute(buf, view, partials); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Execute renders the template with view into out. Nothing is written when
// rendering fails.
func (t *Template) Execute(out io.Writer, view any, partials Partials) error {
	buf := getBuffer()
	defer putBuffer(buf)
	if err := t.execute(buf, view, partials); err != nil {
		return err
	}
	_, err := out.Write(buf.Bytes())
	return err
}

func (t *Template) execute(buf *bytes.Buffer, view any, partials Partials) error {
	if partials != nil {
		if err := partials.install(t.w); err != nil {
			return err
		}
	}
	return t.prog.render(t.w, makeContext(view), t.src, buf)
}
