package mustache

import "strings"

// Context is one level of the scope chain names are resolved against. A
// section pushes a new Context for each element or object it renders.
type Context struct {
	view   any
	parent *Context
	cache  map[string]any
}

// NewContext returns a root Context for view.
func NewContext(view any) *Context {
	return &Context{view: view, cache: make(map[string]any)}
}

// makeContext reuses view when it already is a Context.
func makeContext(view any) *Context {
	if c, ok := view.(*Context); ok && c != nil {
		return c
	}
	return NewContext(view)
}

// Push returns a child Context for view. The receiver is not modified.
func (c *Context) Push(view any) *Context {
	return &Context{view: view, parent: c, cache: make(map[string]any)}
}

// View returns the data this Context wraps.
func (c *Context) View() any { return c.view }

// Parent returns the enclosing Context, or nil for a root.
func (c *Context) Parent() *Context { return c.parent }

// Lookup resolves name against this Context and then its ancestors, nearest
// first. "." is the current view. A dotted name is walked segment by segment
// in each Context; when the path ends in nothing the parent is tried next.
// A resolved Lambda is called with the current view and its result is what
// Lookup returns. Results are memoized per name for the life of the Context.
func (c *Context) Lookup(name string) any {
	if v, ok := c.cache[name]; ok {
		return v
	}

	var value any
	if name == "." {
		value = c.view
	} else {
		segments := []string{name}
		if strings.IndexByte(name, '.') > 0 {
			segments = strings.Split(name, ".")
		}
		for ctx := c; ctx != nil; ctx = ctx.parent {
			head := resolveField(ctx.view, segments[0])
			if Classify(head) == Null {
				continue
			}
			if v := resolvePath(head, ctx.view, segments[1:]); Classify(v) != Null {
				value = v
				break
			}
		}
	}

	value = invoke(value, c.view)
	c.cache[name] = value
	return value
}
