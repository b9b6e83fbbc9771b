package mustache

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseTree(t *testing.T) {
	tests := []struct {
		name     string
		template string
		delims   []string
		want     []*Instruction
	}{
		{
			name:     "text and name",
			template: "Hi {{name}}!",
			want: []*Instruction{
				{Kind: KindText, Value: "Hi ", Start: 0, End: 3},
				{Kind: KindName, Value: "name", Start: 3, End: 11},
				{Kind: KindText, Value: "!", Start: 11, End: 12},
			},
		},
		{
			name:     "whitespace inside tags",
			template: "{{  name  }}",
			want: []*Instruction{
				{Kind: KindName, Value: "name", Start: 0, End: 12},
			},
		},
		{
			name:     "section",
			template: "{{#a}}x{{/a}}",
			want: []*Instruction{
				{Kind: KindSection, Value: "a", Start: 0, End: 6, Children: []*Instruction{
					{Kind: KindText, Value: "x", Start: 6, End: 7},
				}},
			},
		},
		{
			name:     "nested inverted section",
			template: "{{#a}}{{^b}}y{{/b}}{{/a}}",
			want: []*Instruction{
				{Kind: KindSection, Value: "a", Start: 0, End: 6, Children: []*Instruction{
					{Kind: KindInverted, Value: "b", Start: 6, End: 12, Children: []*Instruction{
						{Kind: KindText, Value: "y", Start: 12, End: 13},
					}},
				}},
			},
		},
		{
			name:     "triple mustache",
			template: "{{{x}}}",
			want: []*Instruction{
				{Kind: KindUnescaped, Value: "x", Start: 0, End: 7},
			},
		},
		{
			name:     "ampersand",
			template: "{{& x }}",
			want: []*Instruction{
				{Kind: KindUnescaped, Value: "x", Start: 0, End: 8},
			},
		},
		{
			name:     "partial and comment",
			template: "{{>p}}{{! note }}",
			want: []*Instruction{
				{Kind: KindPartial, Value: "p", Start: 0, End: 6},
			},
		},
		{
			name:     "delimiter change",
			template: "{{=<% %>=}}<% x %>",
			want: []*Instruction{
				{Kind: KindDelimiters, Value: "<% %>", Start: 0, End: 11},
				{Kind: KindName, Value: "x", Start: 11, End: 18},
			},
		},
		{
			name:     "triple mustache follows delimiter changes",
			template: "{{=<% %>=}}<%{x}%><%={{ }}=%>{{{y}}}",
			want: []*Instruction{
				{Kind: KindDelimiters, Value: "<% %>", Start: 0, End: 11},
				{Kind: KindUnescaped, Value: "x", Start: 11, End: 18},
				{Kind: KindDelimiters, Value: "{{ }}", Start: 18, End: 29},
				{Kind: KindUnescaped, Value: "y", Start: 29, End: 36},
			},
		},
		{
			name:     "custom initial delimiters",
			template: "<%x%>{{y}}",
			delims:   []string{"<%", "%>"},
			want: []*Instruction{
				{Kind: KindName, Value: "x", Start: 0, End: 5},
				{Kind: KindText, Value: "{{y}}", Start: 5, End: 10},
			},
		},
		{
			name:     "merged text keeps last end offset",
			template: "ab\ncd",
			want: []*Instruction{
				{Kind: KindText, Value: "ab\ncd", Start: 0, End: 5},
			},
		},
		{
			name:     "multibyte text offsets",
			template: "é{{x}}",
			want: []*Instruction{
				{Kind: KindText, Value: "é", Start: 0, End: 2},
				{Kind: KindName, Value: "x", Start: 2, End: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.template, tt.delims...)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStandaloneLines(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string // concatenated text of the root level
	}{
		{"section lines", "{{#ok}}\nX\n{{/ok}}\n", ""},
		{"comment line", "a\n{{! c }}\nb", "a\nb"},
		{"indented comment", "a\n   {{! c }}  \nb", "a\nb"},
		{"comment on last line", "a\n  {{! c }}", "a\n"},
		{"name tag is never standalone", "  {{x}}\n", "  \n"},
		{"text on the line", "a {{! c }}\n", "a \n"},
		{"delimiter line", "{{=<% %>=}}\n<%x%>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.template)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			var text string
			for _, in := range tree {
				if in.Kind == KindText {
					text += in.Value
				}
			}
			if text != tt.want {
				t.Errorf("root text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		delims   []string
		want     error
		wantName string
	}{
		{"unclosed section", "{{#a}}x", nil, ErrUnclosedSection, "a"},
		{"mismatched close", "{{#a}}x{{/b}}", nil, ErrUnclosedSection, "a"},
		{"unopened section", "x{{/a}}", nil, ErrUnopenedSection, "a"},
		{"unclosed tag", "{{x", nil, ErrUnclosedTag, ""},
		{"unclosed triple", "{{{x}}", nil, ErrUnclosedTag, ""},
		{"one delimiter in tag", "{{=<%=}}", nil, ErrMalformedDelimiters, "<%"},
		{"three delimiters in tag", "{{=a b c=}}", nil, ErrMalformedDelimiters, "a b c"},
		{"one delimiter argument", "x", []string{"{{"}, ErrMalformedDelimiters, "{{"},
		{"identical delimiters", "x", []string{"|", "|"}, ErrMalformedDelimiters, "| |"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.template, tt.delims...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse error = %v, want %v", err, tt.want)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if perr.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", perr.Name, tt.wantName)
			}
		})
	}
}

func TestSectionBounds(t *testing.T) {
	src := "{{#l}}a{{#b}}c{{/b}}{{/l}}"
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	start, end := sectionBounds(tree[0])
	if got := src[start:end]; got != "a{{#b}}c" {
		t.Errorf("section text = %q, want %q", got, "a{{#b}}c")
	}

	tree, err = Parse("{{#e}}{{/e}}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if start, end := sectionBounds(tree[0]); start != end {
		t.Errorf("empty section bounds = [%d, %d), want empty", start, end)
	}
}

func TestKindString(t *testing.T) {
	if got := KindSection.String(); got != "#" {
		t.Errorf("KindSection = %q", got)
	}
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("Kind(99) = %q", got)
	}
}
