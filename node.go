package mustache

import (
	"bytes"
)

// ----------------------------- Compiled programs ----------------------------

// program is a compiled instruction list. subs holds the compiled body of
// each section, indexed by the section's position in instrs, so every
// iteration of a section reuses one program.
type program struct {
	instrs []*Instruction
	subs   []*program
}

func compileTree(tree []*Instruction) *program {
	p := &program{instrs: tree, subs: make([]*program, len(tree))}
	for i, in := range tree {
		if in.Kind == KindSection || in.Kind == KindInverted {
			p.subs[i] = compileTree(in.Children)
		}
	}
	return p
}

func (p *program) render(w *Writer, ctx *Context, src string, buf *bytes.Buffer) error {
	for i, in := range p.instrs {
		var err error
		switch in.Kind {
		case KindText:
			buf.WriteString(in.Value)
		case KindName:
			buf.WriteString(w.escape(nameString(ctx.Lookup(in.Value))))
		case KindUnescaped:
			buf.WriteString(nameString(ctx.Lookup(in.Value)))
		case KindSection:
			err = w.section(in, p.subs[i], ctx, src, buf)
		case KindInverted:
			err = w.inverted(in, p.subs[i], ctx, src, buf)
		case KindPartial:
			err = w.renderPartial(in.Value, ctx, buf)
		case KindDelimiters:
			// Delimiters only matter while parsing.
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// nameString is the output text of a resolved {{name}} value. Section
// lambdas have no text form outside a section.
func nameString(v any) string {
	if Classify(v) == SectionCallable {
		return ""
	}
	return toString(v)
}

func (w *Writer) section(in *Instruction, body *program, ctx *Context, src string, buf *bytes.Buffer) error {
	value := ctx.Lookup(in.Value)

	switch Classify(value) {
	case Null:
		return nil
	case Sequence:
		return eachElem(value, func(elem any) error {
			return body.render(w, ctx.Push(elem), src, buf)
		})
	case Mapping:
		return body.render(w, ctx.Push(value), src, buf)
	case SectionCallable:
		start, end := sectionBounds(in)
		render := func(template string) (string, error) {
			return w.Render(template, ctx, nil)
		}
		out, err := asSectionLambda(value)(ctx.View(), src[start:end], render)
		if err != nil {
			return err
		}
		buf.WriteString(out)
		return nil
	case Scalar, Callable:
		if Truthy(value) {
			return body.render(w, ctx, src, buf)
		}
	}
	return nil
}

func (w *Writer) inverted(in *Instruction, body *program, ctx *Context, src string, buf *bytes.Buffer) error {
	value := ctx.Lookup(in.Value)
	if !Truthy(value) || isEmptySequence(value) {
		return body.render(w, ctx, src, buf)
	}
	return nil
}

func (w *Writer) renderPartial(name string, ctx *Context, buf *bytes.Buffer) error {
	t, err := w.partial(name)
	if err != nil || t == nil {
		return err
	}
	return t.prog.render(w, ctx, t.src, buf)
}

func asSectionLambda(v any) SectionLambda {
	switch fn := v.(type) {
	case SectionLambda:
		return fn
	case func(any, string, RenderFunc) (string, error):
		return fn
	}
	return nil
}
