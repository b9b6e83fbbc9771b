package mustache

// Kind identifies what an Instruction does when rendered.
type Kind int

const (
	KindText       Kind = iota // literal text
	KindName                   // {{name}}, escaped
	KindUnescaped              // {{&name}} and {{{name}}}
	KindSection                // {{#name}}
	KindInverted               // {{^name}}
	KindPartial                // {{>name}}
	KindDelimiters             // {{=<% %>=}}

	// Only produced while tokenizing, never present in a parsed tree.
	KindClose   // {{/name}}
	KindComment // {{!comment}}
)

var kindNames = [...]string{
	KindText:       "text",
	KindName:       "name",
	KindUnescaped:  "&",
	KindSection:    "#",
	KindInverted:   "^",
	KindPartial:    ">",
	KindDelimiters: "=",
	KindClose:      "/",
	KindComment:    "!",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var sigilKinds = map[string]Kind{
	"#": KindSection,
	"^": KindInverted,
	"/": KindClose,
	">": KindPartial,
	"&": KindUnescaped,
	"=": KindDelimiters,
	"!": KindComment,
}

// Instruction is one node of a parsed template. Start and End are byte
// offsets of the instruction in the template source. Children is only set for
// sections and inverted sections.
type Instruction struct {
	Kind     Kind
	Value    string
	Start    int
	End      int
	Children []*Instruction
}

// sectionBounds returns the span of raw template text covered by a section:
// from the end of its opening tag to the end of its last nested instruction,
// descending through trailing nested sections.
func sectionBounds(in *Instruction) (start, end int) {
	start = in.End
	end = start
	for len(in.Children) > 0 {
		in = in.Children[len(in.Children)-1]
		end = in.End
	}
	return start, end
}
