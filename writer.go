package mustache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
)

// ErrPartialNotFound may be returned by a PartialLoader to report that it
// has no template for a name. The partial then renders as nothing.
var ErrPartialNotFound = errors.New("partial not found")

// Writer compiles templates and keeps two caches: compiled templates keyed by
// their source text and compiled partials keyed by name. Both live until
// ClearCache. A Writer is safe for concurrent use.
type Writer struct {
	mu       sync.RWMutex
	cache    map[string]*Template
	partials map[string]*Template
	loader   PartialLoader
	delims   []string

	escaper func(string) string
	logger  *slog.Logger
}

type writerOptions struct {
	delims  []string
	escaper func(string) string
	logger  *slog.Logger
	loader  PartialLoader
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithEscaper sets the escaping function for {{name}} tags, overriding the
// process-wide one installed by SetEscaper.
func WithEscaper(fn func(string) string) WriterOption {
	return func(o *writerOptions) { o.escaper = fn }
}

// WithDelimiters sets the tag delimiters templates and partials compiled by
// the Writer start with when no delimiters are passed explicitly.
func WithDelimiters(open, close string) WriterOption {
	return func(o *writerOptions) { o.delims = []string{open, close} }
}

// WithLogger sets the logger cache misses and partial loads are reported to
// at debug level.
func WithLogger(l *slog.Logger) WriterOption {
	return func(o *writerOptions) { o.logger = l }
}

// WithPartialLoader installs a loader for partials that were never compiled.
func WithPartialLoader(l PartialLoader) WriterOption {
	return func(o *writerOptions) { o.loader = l }
}

// NewWriter returns a Writer with empty caches.
func NewWriter(opts ...WriterOption) *Writer {
	o := writerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{
		cache:    make(map[string]*Template),
		partials: make(map[string]*Template),
		loader:   o.loader,
		delims:   o.delims,
		escaper:  o.escaper,
		logger:   o.logger,
	}
}

func (w *Writer) escape(s string) string {
	if w.escaper != nil {
		return w.escaper(s)
	}
	return defaultEscape(s)
}

// ClearCache drops every compiled template and partial. A registered partial
// loader stays installed.
func (w *Writer) ClearCache() {
	w.mu.Lock()
	w.cache = make(map[string]*Template)
	w.partials = make(map[string]*Template)
	w.mu.Unlock()
}

// SetPartialLoader installs l as the loader for unknown partials. A nil l
// removes the loader.
func (w *Writer) SetPartialLoader(l PartialLoader) {
	w.mu.Lock()
	w.loader = l
	w.mu.Unlock()
}

// Compile parses template and returns its compiled form. The result is cached
// by template text alone, so delims only matter the first time a given text
// is compiled. Without delims the Writer's own delimiters apply.
func (w *Writer) Compile(template string, delims ...string) (*Template, error) {
	w.mu.RLock()
	t, ok := w.cache[template]
	w.mu.RUnlock()
	if ok {
		return t, nil
	}

	if len(delims) == 0 {
		delims = w.delims
	}
	tree, err := Parse(template, delims...)
	if err != nil {
		return nil, err
	}
	t = &Template{w: w, src: template, tree: tree, prog: compileTree(tree)}

	w.mu.Lock()
	if existing, ok := w.cache[template]; ok {
		t = existing
	} else {
		w.cache[template] = t
	}
	w.mu.Unlock()

	w.logger.Debug("compiled template", "bytes", len(template), "instructions", len(tree))
	return t, nil
}

// CompilePartial compiles template and registers it as the partial name.
func (w *Writer) CompilePartial(name, template string, delims ...string) (*Template, error) {
	t, err := w.Compile(template, delims...)
	if err != nil {
		return nil, fmt.Errorf("mustache: partial %q: %w", name, err)
	}
	w.mu.Lock()
	w.partials[name] = t
	w.mu.Unlock()
	return t, nil
}

// Render compiles template if needed and renders it with view.
func (w *Writer) Render(template string, view any, partials Partials) (string, error) {
	t, err := w.Compile(template)
	if err != nil {
		return "", err
	}
	return t.Render(view, partials)
}

// partial returns the compiled partial name, asking the loader for it when it
// was never registered. A nil Template means the partial does not exist.
func (w *Writer) partial(name string) (*Template, error) {
	w.mu.RLock()
	t, ok := w.partials[name]
	loader := w.loader
	w.mu.RUnlock()
	if ok || loader == nil {
		return t, nil
	}

	src, err := loader(name)
	if err != nil {
		if errors.Is(err, ErrPartialNotFound) || errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("partial not found", "name", name)
			return nil, nil
		}
		return nil, fmt.Errorf("mustache: loading partial %q: %w", name, err)
	}
	w.logger.Debug("loaded partial", "name", name, "bytes", len(src))
	return w.CompilePartial(name, src)
}

// Partials supplies the partial templates a render may reference: either a
// PartialMap compiled up front or a PartialLoader consulted on demand.
type Partials interface {
	install(w *Writer) error
}

// PartialMap maps partial names to template text.
type PartialMap map[string]string

func (m PartialMap) install(w *Writer) error {
	for name, src := range m {
		if _, err := w.CompilePartial(name, src); err != nil {
			return err
		}
	}
	return nil
}

// PartialLoader returns the template text of the named partial. It is called
// at most once per name until the Writer cache is cleared.
type PartialLoader func(name string) (string, error)

func (l PartialLoader) install(w *Writer) error {
	w.SetPartialLoader(l)
	return nil
}
