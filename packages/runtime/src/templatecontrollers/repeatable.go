package templatecontrollers

import (
	"fmt"
	"reflect"
	"sort"

	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/observation"
)

// RepeatableHandler flattens one shape of value into the items a repeat renders
type RepeatableHandler interface {
	Handles(value any) bool
	Items(value any) []any
}

// Handlers resolves the handler for a value. Handlers added later take
// precedence over earlier ones and over the built-in ones.
type Handlers struct {
	list []RepeatableHandler
}

// HandlersKey resolves the repeatable handlers repeats use
var HandlersKey = di.NewKey[*Handlers]("repeatable-handlers")

// DefaultHandlers handles nil, observation arrays, sets and maps, numbers
// (as the range 0..n-1), Go slices and arrays, and Go maps
func DefaultHandlers() *Handlers {
	return &Handlers{list: []RepeatableHandler{
		nilHandler{}, arrayHandler{}, setHandler{}, mapHandler{}, numberHandler{}, reflectHandler{},
	}}
}

// Add registers h ahead of every handler already present
func (h *Handlers) Add(handler RepeatableHandler) {
	h.list = append([]RepeatableHandler{handler}, h.list...)
}

// Items flattens value with the first handler that accepts it
func (h *Handlers) Items(value any) ([]any, error) {
	for _, handler := range h.list {
		if handler.Handles(value) {
			return handler.Items(value), nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrNotRepeatable, value)
}

type nilHandler struct{}

func (nilHandler) Handles(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (nilHandler) Items(any) []any { return nil }

type arrayHandler struct{}

func (arrayHandler) Handles(v any) bool {
	_, ok := v.(*observation.Array)
	return ok
}

func (arrayHandler) Items(v any) []any { return v.(*observation.Array).Items() }

type setHandler struct{}

func (setHandler) Handles(v any) bool {
	_, ok := v.(*observation.Set)
	return ok
}

func (setHandler) Items(v any) []any { return v.(*observation.Set).Values() }

// mapHandler yields [key, value] entries
type mapHandler struct{}

func (mapHandler) Handles(v any) bool {
	_, ok := v.(*observation.Map)
	return ok
}

func (mapHandler) Items(v any) []any {
	entries := v.(*observation.Map).Entries()
	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	return items
}

type numberHandler struct{}

func (numberHandler) Handles(v any) bool {
	_, ok := observation.ToFloat(v)
	return ok
}

func (numberHandler) Items(v any) []any {
	f, _ := observation.ToFloat(v)
	n := int(f)
	if n < 0 {
		n = 0
	}
	items := make([]any, n)
	for i := range items {
		items[i] = i
	}
	return items
}

// reflectHandler covers Go slices, arrays and maps. Map entries are sorted by key.
type reflectHandler struct{}

func (reflectHandler) Handles(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func (reflectHandler) Items(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map {
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i].Interface(), keys[j].Interface()) })
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = [2]any{k.Interface(), rv.MapIndex(k).Interface()}
		}
		return items
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func lessKey(a, b any) bool {
	fa, aNum := observation.ToFloat(a)
	fb, bNum := observation.ToFloat(b)
	if aNum && bNum {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
