package observation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Lookup reads key from obj. Supported shapes: ObjectProvider, map[string]T,
// the length/size of collections, slices and strings, and exported struct
// fields (by capitalized name or `au:"name"` tag) and methods.
func Lookup(obj any, key string) (any, bool) {
	switch o := obj.(type) {
	case nil:
		return nil, false
	case *Object:
		return o.Lookup(key)
	case ObjectProvider:
		if bag := o.AsObject(); bag != nil {
			if v, ok := bag.Lookup(key); ok {
				return v, true
			}
		}
		if bagMethods[exportedName(key)] {
			return nil, false
		}
		return lookupReflect(reflect.ValueOf(obj), key)
	case map[string]any:
		v, ok := o[key]
		return v, ok
	case *Array:
		if key == "length" {
			return o.Len(), true
		}
		return nil, false
	case *Set:
		if key == "size" {
			return o.Len(), true
		}
		return nil, false
	case *Map:
		if key == "size" {
			return o.Len(), true
		}
		return nil, false
	case string:
		if key == "length" {
			return utf8.RuneCountInString(o), true
		}
		return nil, false
	}
	return lookupReflect(reflect.ValueOf(obj), key)
}

// Get reads key from obj, nil when absent
func Get(obj any, key string) any {
	v, _ := Lookup(obj, key)
	return v
}

// Has reports whether obj has key
func Has(obj any, key string) bool {
	_, ok := Lookup(obj, key)
	return ok
}

// SetProperty writes key on obj
func SetProperty(obj any, key string, value any) error {
	switch o := obj.(type) {
	case nil:
		return fmt.Errorf("cannot set property %q of nil", key)
	case ObjectProvider:
		if bag := o.AsObject(); bag != nil {
			if _, ok := fieldIndex(reflect.TypeOf(obj), key); !ok {
				bag.Set(key, value)
				return nil
			}
		}
	case map[string]any:
		o[key] = value
		return nil
	case *Array:
		if key == "length" {
			n, ok := ToFloat(value)
			if !ok {
				return fmt.Errorf("invalid array length %v", value)
			}
			o.Truncate(int(n))
			return nil
		}
	}
	return setReflect(reflect.ValueOf(obj), key, value)
}

func lookupReflect(v reflect.Value, key string) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if m := v.MethodByName(exportedName(key)); m.IsValid() {
			return m.Interface(), true
		}
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		if idx, ok := fieldIndex(v.Type(), key); ok {
			f, err := v.FieldByIndexErr(idx)
			if err != nil {
				return nil, false
			}
			return f.Interface(), true
		}
		if m := v.MethodByName(exportedName(key)); m.IsValid() {
			return m.Interface(), true
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return v.Len(), true
		}
	}
	return nil, false
}

func setReflect(v reflect.Value, key string, value any) error {
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		idx, ok := fieldIndex(v.Type(), key)
		if !ok {
			return fmt.Errorf("no property %q on %s", key, v.Type())
		}
		f := v.FieldByIndex(idx)
		if !f.CanSet() {
			return fmt.Errorf("property %q of %s is not settable", key, v.Type())
		}
		return assign(f, value)
	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("cannot set property %q on %s", key, v.Type())
		}
		nv := reflect.New(v.Type().Elem()).Elem()
		if err := assign(nv, value); err != nil {
			return err
		}
		v.SetMapIndex(reflect.ValueOf(key).Convert(v.Type().Key()), nv)
		return nil
	}
	return fmt.Errorf("cannot set property %q on %T", key, v.Interface())
}

func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && convertible(src.Kind(), dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
	}
	return nil
}

// convertible excludes the int -> string conversion reflect allows
func convertible(from, to reflect.Kind) bool {
	if to == reflect.String {
		return from == reflect.String
	}
	return true
}

// bagMethods are the methods an embedded Object promotes; they are not properties
var bagMethods = func() map[string]bool {
	m := make(map[string]bool)
	t := reflect.TypeOf(&Object{})
	for i := 0; i < t.NumMethod(); i++ {
		m[t.Method(i).Name] = true
	}
	return m
}()

var fieldCache sync.Map // reflect.Type -> map[string][]int

func fieldIndex(t reflect.Type, key string) ([]int, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	cached, ok := fieldCache.Load(t)
	if !ok {
		fields := make(map[string][]int)
		for _, f := range reflect.VisibleFields(t) {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			if tag, ok := f.Tag.Lookup("au"); ok {
				name, _, _ := strings.Cut(tag, ",")
				if name == "-" {
					continue
				}
				if name != "" {
					fields[name] = f.Index
					continue
				}
			}
			fields[unexportedName(f.Name)] = f.Index
			fields[f.Name] = f.Index
		}
		cached, _ = fieldCache.LoadOrStore(t, fields)
	}
	idx, ok := cached.(map[string][]int)[key]
	return idx, ok
}

func exportedName(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// unexportedName lowers the leading initialism: Title -> title, ID -> id, URLPath -> urlPath
func unexportedName(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
