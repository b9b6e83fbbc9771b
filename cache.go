package mustache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ----------------------------- Template file cache --------------------------

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileCache caches template file contents by path and modification time.
type FileCache struct {
	mu      sync.RWMutex
	files   map[string]*cachedFile
	maxSize int
	logger  *slog.Logger
}

type cachedFile struct {
	content string
	modTime time.Time
}

var globalFileCache = NewFileCache(1000)

// NewFileCache creates a file cache holding at most maxSize files.
func NewFileCache(maxSize int) *FileCache {
	return &FileCache{
		files:   make(map[string]*cachedFile),
		maxSize: maxSize,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets where skipped partial files are reported.
func (fc *FileCache) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	fc.mu.Lock()
	fc.logger = l
	fc.mu.Unlock()
}

// ReadFile returns the content of filename without a leading UTF-8 BOM. The
// file is read again only when its modification time changes.
func (fc *FileCache) ReadFile(filename string) (string, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return "", fmt.Errorf("template file %q: %w", filename, err)
	}

	fc.mu.RLock()
	cached, exists := fc.files[filename]
	fc.mu.RUnlock()
	if exists && !cached.modTime.Before(info.ModTime()) {
		return cached.content, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading template %q: %w", filename, err)
	}
	content := string(bytes.TrimPrefix(data, utf8BOM))

	fc.mu.Lock()
	if len(fc.files) >= fc.maxSize {
		// Evict an arbitrary entry.
		for k := range fc.files {
			delete(fc.files, k)
			break
		}
	}
	fc.files[filename] = &cachedFile{content: content, modTime: info.ModTime()}
	fc.mu.Unlock()

	return content, nil
}

// CompileFile compiles filename with w and registers the files next to it
// whose names start with "_" as partials: "_header.html" becomes the partial
// "header". Partials that cannot be read or parsed are skipped.
func (fc *FileCache) CompileFile(w *Writer, filename string) (*Template, error) {
	content, err := fc.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	tmpl, err := w.Compile(content)
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", filename, err)
	}

	dir := filepath.Dir(filename)
	base := filepath.Base(filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return tmpl, nil
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == base || !strings.HasPrefix(name, "_") {
			continue
		}
		partialName := strings.TrimSuffix(strings.TrimPrefix(name, "_"), filepath.Ext(name))
		partialPath := filepath.Join(dir, name)

		src, err := fc.ReadFile(partialPath)
		if err == nil {
			_, err = w.CompilePartial(partialName, src)
		}
		if err != nil {
			fc.mu.RLock()
			logger := fc.logger
			fc.mu.RUnlock()
			logger.Warn("skipping partial", "file", partialPath, "error", err)
		}
	}
	return tmpl, nil
}

// Loader returns a PartialLoader that reads the partial "name" from
// dir/name+ext, falling back to dir/_name+ext. Names that would escape dir
// are reported as not found.
func (fc *FileCache) Loader(dir, ext string) PartialLoader {
	return func(name string) (string, error) {
		name = fastTrim(name)
		if name == "" || !filepath.IsLocal(name) {
			return "", ErrPartialNotFound
		}
		src, err := fc.ReadFile(filepath.Join(dir, name+ext))
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		base := filepath.Join(filepath.Dir(name), "_"+filepath.Base(name)+ext)
		return fc.ReadFile(filepath.Join(dir, base))
	}
}

// ClearCache drops every cached file.
func (fc *FileCache) ClearCache() {
	fc.mu.Lock()
	fc.files = make(map[string]*cachedFile)
	fc.mu.Unlock()
}

// CompileFile compiles filename with the default Writer, registering
// "_"-prefixed sibling files as partials.
func CompileFile(filename string) (*Template, error) {
	return globalFileCache.CompileFile(defaultWriter, filename)
}

// DirLoader returns a PartialLoader over dir backed by the global file cache.
func DirLoader(dir, ext string) PartialLoader {
	return globalFileCache.Loader(dir, ext)
}
