package mustache

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ValueKind classifies view data for section dispatch.
type ValueKind int

const (
	Null ValueKind = iota
	Scalar
	Sequence
	Mapping
	Callable
	SectionCallable
)

func (k ValueKind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	case Callable:
		return "callable"
	case SectionCallable:
		return "section callable"
	}
	return "unknown"
}

// Lambda is a zero-argument view value. It receives the view of the context
// it is looked up from and its result stands in for the value.
type Lambda func(view any) any

// RenderFunc renders a template string against the context a section lambda
// was invoked in.
type RenderFunc func(template string) (string, error)

// SectionLambda handles a section itself. It receives the current view, the
// unrendered text of the section and a RenderFunc bound to the current
// context. The returned string is written as-is.
type SectionLambda func(view any, text string, render RenderFunc) (string, error)

// Classify reports which kind of view data v is. Functions and channels
// that are not one of the lambda shapes are Null: they have no text form.
func Classify(v any) ValueKind {
	switch v.(type) {
	case nil:
		return Null
	case string, []byte, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return Scalar
	case Lambda, func() any, func(any) any:
		return Callable
	case SectionLambda, func(any, string, RenderFunc) (string, error):
		return SectionCallable
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		if rv.Elem().Kind() == reflect.Struct {
			return Mapping
		}
		return Classify(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return Null
		}
		return Mapping
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		return Sequence
	case reflect.Array:
		return Sequence
	case reflect.Struct:
		return Mapping
	case reflect.Func, reflect.Chan:
		return Null
	}
	return Scalar
}

// Truthy reports whether v counts as true for a section: nil, false, "",
// numeric zero and NaN are false. Sequences and mappings are always true,
// even when empty.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []byte:
		return len(x) != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() != 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// isEmptySequence reports whether v is a sequence with no elements.
func isEmptySequence(v any) bool {
	if Classify(v) != Sequence {
		return false
	}
	return deref(reflect.ValueOf(v)).Len() == 0
}

// deref follows pointers and interfaces down to the value they hold.
func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv
}

// eachElem calls fn for every element of the sequence v, in order.
func eachElem(v any, fn func(elem any) error) error {
	switch s := v.(type) {
	case []any:
		for _, e := range s {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	case []map[string]any:
		for _, e := range s {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	}
	rv := deref(reflect.ValueOf(v))
	for i := 0; i < rv.Len(); i++ {
		if err := fn(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// toString renders v for output. nil becomes the empty string.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	return fmt.Sprint(v)
}
