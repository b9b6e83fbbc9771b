// Package mustache renders logic-less {{mustache}} templates.
//
// A template is parsed into a tree of instructions (text, names, sections,
// inverted sections, partials and delimiter changes), compiled once per
// Writer and rendered against view data: maps, structs, slices, scalars,
// Lambda values and SectionLambda values.
//
// The package-level functions use a default Writer that lives for the whole
// process. Call ClearCache to drop what it has compiled, or create dedicated
// writers with NewWriter.
package mustache

var defaultWriter = NewWriter()

// DefaultWriter returns the Writer behind the package-level functions.
func DefaultWriter() *Writer { return defaultWriter }

// Compile compiles template with the default Writer.
func Compile(template string, delims ...string) (*Template, error) {
	return defaultWriter.Compile(template, delims...)
}

// CompilePartial compiles template as the partial name with the default
// Writer.
func CompilePartial(name, template string, delims ...string) (*Template, error) {
	return defaultWriter.CompilePartial(name, template, delims...)
}

// Render renders template with view using the default Writer.
func Render(template string, view any, partials Partials) (string, error) {
	return defaultWriter.Render(template, view, partials)
}

// ClearCache empties the caches of the default Writer.
func ClearCache() {
	defaultWriter.ClearCache()
}
