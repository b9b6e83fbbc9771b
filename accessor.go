package mustache

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ----------------------------- Field access ---------------------------------

type fieldCacheKey struct {
	typ  reflect.Type
	name string
}

type fieldInfo struct {
	index    []int
	found    bool
	isMethod bool
}

// fieldCache remembers how a name resolves on a struct type so repeated
// lookups skip FieldByNameFunc.
type fieldCache struct {
	mu    sync.RWMutex
	cache map[fieldCacheKey]*fieldInfo
}

var globalFieldCache = &fieldCache{cache: make(map[fieldCacheKey]*fieldInfo)}

func (fc *fieldCache) lookup(typ reflect.Type, name string) *fieldInfo {
	key := fieldCacheKey{typ: typ, name: name}
	fc.mu.RLock()
	info, ok := fc.cache[key]
	fc.mu.RUnlock()
	if ok {
		return info
	}

	info = &fieldInfo{}
	if m, ok := reflect.PointerTo(typ).MethodByName(name); ok && isGetter(m.Type, 1) {
		info.found, info.isMethod = true, true
	} else if f, ok := typ.FieldByName(name); ok && f.IsExported() {
		info.found, info.index = true, f.Index
	} else if f, ok := typ.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) }); ok && f.IsExported() {
		info.found, info.index = true, f.Index
	}

	fc.mu.Lock()
	fc.cache[key] = info
	fc.mu.Unlock()
	return info
}

// isGetter reports whether a method type takes no arguments besides its
// receiver (recv is 1 for method expressions, 0 for bound methods) and returns
// at least one value.
func isGetter(t reflect.Type, recv int) bool {
	return t.NumIn() == recv && t.NumOut() >= 1
}

// resolvePath walks rest from cur, whose container is owner. Lambdas met
// along the way are called with their container. It returns nil as soon as a
// segment cannot be resolved.
func resolvePath(cur, owner any, rest []string) any {
	for _, seg := range rest {
		cur = invoke(cur, owner)
		if cur == nil {
			return nil
		}
		owner, cur = cur, resolveField(cur, seg)
	}
	return cur
}

// resolveField returns the member called name of in: a map entry, an exported
// struct field or getter method, or a sequence element for numeric names.
func resolveField(in any, name string) any {
	if m, ok := in.(map[string]any); ok {
		return m[name]
	}

	rv := reflect.ValueOf(in)
	if !rv.IsValid() {
		return nil
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return resolveStruct(rv, rv.Elem(), name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return resolveStruct(reflect.Value{}, rv, name)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if mv.IsValid() {
			return mv.Interface()
		}
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil
		}
		return rv.Index(idx).Interface()
	}
	return nil
}

// resolveStruct looks name up on a struct value. ptr is the addressable
// pointer to sv when one is available, so pointer-receiver methods resolve.
func resolveStruct(ptr, sv reflect.Value, name string) any {
	info := globalFieldCache.lookup(sv.Type(), name)
	if !info.found {
		return nil
	}
	if info.isMethod {
		recv := ptr
		if !recv.IsValid() {
			recv = reflect.New(sv.Type())
			recv.Elem().Set(sv)
		}
		out := recv.MethodByName(name).Call(nil)
		return out[0].Interface()
	}
	fv, err := sv.FieldByIndexErr(info.index)
	if err != nil || !fv.IsValid() {
		return nil
	}
	return fv.Interface()
}

// invoke calls v when it is a Lambda-style value and returns its result.
// Other values are returned unchanged.
func invoke(v any, view any) any {
	switch fn := v.(type) {
	case Lambda:
		return fn(view)
	case func(any) any:
		return fn(view)
	case func() any:
		return fn()
	}
	return v
}
