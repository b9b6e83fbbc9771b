package mustache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrTemplateNotFound is returned when an Engine has no template by the
// requested name.
var ErrTemplateNotFound = errors.New("template not found")

// Engine serves the templates of one directory by name. Files whose base
// name starts with "_" are registered as partials under their name without
// the prefix; every other file with the engine's extension is a template.
type Engine struct {
	mu        sync.RWMutex
	dir       string
	ext       string
	templates map[string]*Template
	layout    string

	writer *Writer
	files  *FileCache
	reload *ReloadManager
	logger *slog.Logger
}

// EngineOptions holds the settings an EngineOption changes.
type EngineOptions struct {
	defaultLayout string
	reload        bool
	debounce      time.Duration
	logger        *slog.Logger
	escaper       func(string) string
	delims        []string
}

// EngineOption configures an Engine.
type EngineOption func(*EngineOptions)

// WithLayout wraps every rendered template in the named layout template,
// which receives the page output as "content".
func WithLayout(name string) EngineOption {
	return func(o *EngineOptions) { o.defaultLayout = name }
}

// WithReload watches the template directory and reloads on change.
func WithReload(debounce time.Duration) EngineOption {
	return func(o *EngineOptions) {
		o.reload = true
		o.debounce = debounce
	}
}

// WithEngineLogger sets the logger for reloads and skipped files.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(o *EngineOptions) { o.logger = l }
}

// WithEngineEscaper sets the escaping function used for {{name}} tags.
func WithEngineEscaper(fn func(string) string) EngineOption {
	return func(o *EngineOptions) { o.escaper = fn }
}

// WithEngineDelimiters sets the initial tag delimiters of every template and
// partial.
func WithEngineDelimiters(open, close string) EngineOption {
	return func(o *EngineOptions) { o.delims = []string{open, close} }
}

// NewEngine creates an engine that loads all templates ending in ext from dir.
func NewEngine(dir, ext string, opts ...EngineOption) (*Engine, error) {
	eo := EngineOptions{}
	for _, o := range opts {
		o(&eo)
	}
	if eo.logger == nil {
		eo.logger = slog.New(slog.DiscardHandler)
	}

	files := NewFileCache(1000)
	files.SetLogger(eo.logger)
	e := &Engine{
		dir:       dir,
		ext:       ext,
		templates: make(map[string]*Template),
		layout:    eo.defaultLayout,
		files:     files,
		logger:    eo.logger,
	}
	wopts := []WriterOption{
		WithEscaper(eo.escaper),
		WithLogger(eo.logger),
		WithPartialLoader(files.Loader(dir, ext)),
	}
	if len(eo.delims) == 2 {
		wopts = append(wopts, WithDelimiters(eo.delims[0], eo.delims[1]))
	}
	e.writer = NewWriter(wopts...)

	if err := e.Load(); err != nil {
		return nil, err
	}

	if eo.reload {
		rm, err := NewReloadManager(eo.debounce, eo.logger)
		if err != nil {
			return nil, err
		}
		if err := rm.WatchDirectory(dir, ext); err != nil {
			_ = rm.Stop()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
		rm.AddCallback(e.onChange)
		rm.Start(context.Background())
		e.reload = rm
	}
	return e, nil
}

// Writer returns the Writer the engine compiles with.
func (e *Engine) Writer() *Writer { return e.writer }

// Load reads every template in the engine directory again. Templates that
// fail to load are reported in the returned error; the rest replace the
// previous set.
func (e *Engine) Load() error {
	e.writer.ClearCache()
	e.files.ClearCache()

	templates := make(map[string]*Template)
	var errs []error
	err := filepath.WalkDir(e.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, e.ext) {
			return nil
		}
		rel, err := filepath.Rel(e.dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, e.ext))

		src, err := e.files.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}

		dir, base := filepath.Split(name)
		if strings.HasPrefix(base, "_") {
			if _, err := e.writer.CompilePartial(dir+strings.TrimPrefix(base, "_"), src); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
			}
			return nil
		}
		t, err := e.writer.Compile(src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		templates[name] = t
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading templates from %q: %w", e.dir, err)
	}

	e.mu.Lock()
	e.templates = templates
	e.mu.Unlock()
	return errors.Join(errs...)
}

// Names returns the loaded template names in order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.templates))
}

// Lookup returns the named template.
func (e *Engine) Lookup(name string) (*Template, error) {
	e.mu.RLock()
	t, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mustache: %w: %q", ErrTemplateNotFound, name)
	}
	return t, nil
}

// Render renders the named template with view, wrapped in the layout when one
// is configured.
func (e *Engine) Render(name string, view any) (string, error) {
	t, err := e.Lookup(name)
	if err != nil {
		return "", err
	}
	if e.layout == "" || name == e.layout {
		return t.Render(view, nil)
	}

	layout, err := e.Lookup(e.layout)
	if err != nil {
		return "", err
	}
	content, err := t.Render(view, nil)
	if err != nil {
		return "", err
	}
	ctx := makeContext(view).Push(map[string]any{"content": content})
	return layout.Render(ctx, nil)
}

// Execute renders the named template into out.
func (e *Engine) Execute(out io.Writer, name string, view any) error {
	s, err := e.Render(name, view)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

// Close stops watching for changes.
func (e *Engine) Close() error {
	if e.reload == nil {
		return nil
	}
	return e.reload.Stop()
}

func (e *Engine) onChange(filename string, err error) {
	if err != nil {
		e.logger.Warn("template watcher failed", "error", err)
		return
	}
	if err := e.Load(); err != nil {
		e.logger.Error("template reload failed", "file", filename, "error", err)
		return
	}
	e.logger.Info("templates reloaded", "file", filename)
}
