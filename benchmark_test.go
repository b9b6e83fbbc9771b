package mustache

import (
	"html/template"
	"io"
	"testing"
)

var (
	mustacheTpl *Template
	htmlTpl     *template.Template
	data        = map[string]any{
		"title": "Products",
		"user":  map[string]any{"name": "Orgware", "admin": true},
		"items": []map[string]any{{"name": "Alpha", "price": 100}, {"name": "Beta", "price": 120}},
	}
)

func init() {
	var err error
	mustacheTpl, err = NewWriter().Compile(`
<html>
<head><title>{{ title }}</title></head>
<body>
  <ul>
  {{#items}}
    <li>{{ name }} - {{ price }}</li>
  {{/items}}
  </ul>
  {{#user.admin}}<div class="admin">Hi, {{ user.name }}</div>{{/user.admin}}{{^user.admin}}<div>Welcome!</div>{{/user.admin}}
</body>
</html>`)
	if err != nil {
		panic(err)
	}

	htmlTpl, err = template.New("test").Parse(`
<html>
<head><title>{{.Title}}</title></head>
<body>
  <ul>
  {{range .Items}}
    <li>{{.Name}} - {{.Price}}</li>
  {{end}}
  </ul>
  {{if .User.Admin}}<div class="admin">Hi, {{.User.Name}}</div>{{else}}<div>Welcome!</div>{{end}}
</body>
</html>`)
	if err != nil {
		panic(err)
	}
}

func BenchmarkMustache(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mustacheTpl.Execute(io.Discard, data, nil)
	}
}

func BenchmarkMustacheStruct(b *testing.B) {
	view := struct {
		Title string
		User  struct {
			Name  string
			Admin bool
		}
		Items []product
	}{Title: "Products", Items: []product{{"Alpha", 100}, {"Beta", 120}}}
	view.User.Name, view.User.Admin = "Orgware", true

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mustacheTpl.Execute(io.Discard, view, nil)
	}
}

func BenchmarkHTMLTemplate(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = htmlTpl.Execute(io.Discard, struct {
			Title string
			User  struct {
				Name  string
				Admin bool
			}
			Items []struct {
				Name  string
				Price int
			}
		}{
			Title: "Products",
			User: struct {
				Name  string
				Admin bool
			}{Name: "Orgware", Admin: true},
			Items: []struct {
				Name  string
				Price int
			}{{Name: "Alpha", Price: 100}, {Name: "Beta", Price: 120}},
		})
	}
}

func BenchmarkParse(b *testing.B) {
	src := mustacheTpl.Source()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(src); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBenchmarkTemplatesAgree(t *testing.T) {
	WarmupPools(4, 1024)
	got, err := mustacheTpl.Render(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "\n<html>\n<head><title>Products</title></head>\n<body>\n  <ul>\n" +
		"    <li>Alpha - 100</li>\n    <li>Beta - 120</li>\n" +
		"  </ul>\n  <div class=\"admin\">Hi, Orgware</div>\n</body>\n</html>"
	if got != want {
		t.Errorf("Render =\n%q\nwant\n%q", got, want)
	}
}
