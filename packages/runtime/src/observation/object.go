// Package observation provides the observable data model used by bindings:
// property bags, collections, observers, the flush queue that batches change
// notifications, and the locator that hands out observers.
package observation

import (
	"math"
	"reflect"
	"sort"
)

// ObjectProvider is implemented by view-models that keep their observable state in an Object.
// Embedding Object in a struct promotes AsObject.
type ObjectProvider interface {
	AsObject() *Object
}

// Object is an ordered property bag. The zero value is ready to use.
type Object struct {
	keys      []string
	values    map[string]any
	observers map[string]Observer
}

// NewObject creates a bag holding values. Keys are stored in sorted order.
func NewObject(values map[string]any) *Object {
	o := &Object{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Define(k, values[k])
	}
	return o
}

// AsObject returns o
func (o *Object) AsObject() *Object {
	return o
}

// Lookup returns the value of key and whether the key exists
func (o *Object) Lookup(key string) (any, bool) {
	if ob, ok := o.observers[key]; ok {
		if acc, ok := ob.(accessorObserver); ok && acc.hasAccessor() {
			return ob.GetValue(), true
		}
	}
	v, ok := o.values[key]
	return v, ok
}

// Get returns the value of key, nil when absent
func (o *Object) Get(key string) any {
	v, _ := o.Lookup(key)
	return v
}

// Has reports whether key exists
func (o *Object) Has(key string) bool {
	_, ok := o.Lookup(key)
	return ok
}

// Set assigns key, notifying its observer when one is installed
func (o *Object) Set(key string, value any) {
	if ob, ok := o.observers[key]; ok {
		ob.SetValue(value)
		return
	}
	o.Define(key, value)
}

// Define assigns key without notifying observers
func (o *Object) Define(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in definition order
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys
func (o *Object) Len() int {
	return len(o.keys)
}

func (o *Object) observer(key string) Observer {
	return o.observers[key]
}

func (o *Object) install(key string, ob Observer) {
	if o.observers == nil {
		o.observers = make(map[string]Observer)
	}
	o.observers[key] = ob
}

// Same reports whether a and b are the same value. Numbers compare by value
// across Go numeric kinds, NaN is the same as NaN, and +0 differs from -0.
// Slices, maps and funcs compare by identity.
func Same(a, b any) bool {
	fa, aNum := ToFloat(a)
	fb, bNum := ToFloat(b)
	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		if fa == 0 && fb == 0 {
			return math.Signbit(fa) == math.Signbit(fb)
		}
		return fa == fb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() {
		return a == b
	}
	return false
}

// StrictEqual is === over the Go value model: like Same, except NaN never
// equals itself and +0 equals -0.
func StrictEqual(a, b any) bool {
	fa, aNum := ToFloat(a)
	fb, bNum := ToFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return Same(a, b)
}

// ToFloat converts Go numeric kinds to float64
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	return 0, false
}
