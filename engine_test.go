package mustache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestEngine(t *testing.T, files map[string]string, opts ...EngineOption) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, files)
	e, err := NewEngine(dir, ".html", opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, dir
}

var siteFiles = map[string]string{
	"layout.html":    "<html>{{>header}}{{{content}}}</html>",
	"_header.html":   "<h1>{{title}}</h1>",
	"index.html":     "<p>{{body}}</p>",
	"sub/page.html":  "{{title}}{{>sub/item}}{{>nope}}",
	"sub/_item.html": "!",
	"notes.txt":      "not a template",
}

func TestEngineRender(t *testing.T) {
	e, _ := newTestEngine(t, siteFiles, WithLayout("layout"))
	view := map[string]any{"title": "T", "body": "B"}

	if diff := cmp.Diff([]string{"index", "layout", "sub/page"}, e.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		want string
	}{
		{"index", "<html><h1>T</h1><p>B</p></html>"},
		{"sub/page", "<html><h1>T</h1>T!</html>"},
		{"layout", "<html><h1>T</h1></html>"},
	}
	for _, tt := range tests {
		got, err := e.Render(tt.name, view)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	var buf bytes.Buffer
	if err := e.Execute(&buf, "index", view); err != nil {
		t.Fatal(err)
	}
	if buf.String() != tests[0].want {
		t.Errorf("Execute wrote %q", buf.String())
	}

	if _, err := e.Render("missing", view); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Render(missing) error = %v", err)
	}
}

func TestEngineWithoutLayout(t *testing.T) {
	e, _ := newTestEngine(t, siteFiles)
	got, err := e.Render("index", map[string]any{"body": "<B>"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>&lt;B&gt;</p>" {
		t.Errorf("Render = %q", got)
	}
}

func TestEngineOptions(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{
		"page.html":  "<%x%> {{x}} <%>part%><%>lazy%>",
		"_part.html": "<%y%>",
		"lazy.html":  "<%y%>",
	}, WithEngineDelimiters("<%", "%>"), WithEngineEscaper(NoEscape))

	got, err := e.Render("page", map[string]any{"x": "<i>", "y": "&"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "<i> {{x}} &&" {
		t.Errorf("Render = %q", got)
	}
	if e.Writer() == nil {
		t.Error("Writer is nil")
	}
}

func TestEngineLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.html": "ok",
		"bad.html":  "{{#open}}",
	})
	_, err := NewEngine(dir, ".html")
	if !errors.Is(err, ErrUnclosedSection) {
		t.Errorf("NewEngine error = %v, want ErrUnclosedSection", err)
	}

	if _, err := NewEngine(filepath.Join(dir, "nope"), ".html"); err == nil {
		t.Error("NewEngine on a missing directory succeeded")
	}
}

func TestEngineReload(t *testing.T) {
	e, dir := newTestEngine(t, map[string]string{
		"index.html": "v1{{>foot}}",
		"_foot.html": ".",
	}, WithReload(20*time.Millisecond))

	if got, _ := e.Render("index", nil); got != "v1." {
		t.Fatalf("Render = %q", got)
	}

	writeFiles(t, dir, map[string]string{"index.html": "v2{{>foot}}", "extra.html": "new"})

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, _ := e.Render("index", nil)
		_, extraErr := e.Lookup("extra")
		if got == "v2." && extraErr == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("templates not reloaded: index = %q, extra error = %v", got, extraErr)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
