package observation

import "reflect"

type accessorObserver interface {
	hasAccessor() bool
}

// PropertyObserver observes one key of an Object. Writes with no subscriber
// are plain stores; subscribers are notified once per flush.
type PropertyObserver struct {
	obj   *Object
	key   string
	queue *FlushQueue
	subs  SubscriberRecord

	pending  bool
	oldValue any
}

func newPropertyObserver(obj *Object, key string, queue *FlushQueue) *PropertyObserver {
	return &PropertyObserver{obj: obj, key: key, queue: queue}
}

func (o *PropertyObserver) GetValue() any {
	return o.obj.values[o.key]
}

func (o *PropertyObserver) SetValue(value any) {
	old := o.obj.values[o.key]
	if _, exists := o.obj.values[o.key]; exists && Same(old, value) {
		return
	}
	o.obj.Define(o.key, value)
	o.enqueue(old)
}

func (o *PropertyObserver) Subscribe(s Subscriber) {
	o.subs.Add(s)
}

func (o *PropertyObserver) Unsubscribe(s Subscriber) {
	o.subs.Remove(s)
}

func (o *PropertyObserver) enqueue(old any) {
	if o.subs.Count() == 0 {
		return
	}
	if o.queue == nil {
		o.subs.Notify(o.GetValue(), old)
		return
	}
	if !o.pending {
		o.pending = true
		o.oldValue = old
		o.queue.Add(o)
	}
}

func (o *PropertyObserver) flush() {
	o.pending = false
	old := o.oldValue
	o.oldValue = nil
	if value := o.GetValue(); !Same(value, old) {
		o.subs.Notify(value, old)
	}
}

// BindableOptions customizes a BindableObserver
type BindableOptions struct {
	// Get and Set replace the default storage
	Get func() any
	Set func(value any)
	// Changed runs synchronously on every effective write while CanNotify allows it
	Changed   func(newValue, oldValue any)
	CanNotify func() bool
	// Coerce converts incoming values before they are stored
	Coerce func(value any) any
	// OnError receives writes the view-model rejected
	OnError func(err error)
}

// BindableObserver observes a bindable property of a view-model. Without a
// custom accessor or a change callback it stays inert: writes are plain stores
// until the first subscriber arrives.
type BindableObserver struct {
	obj   any
	key   string
	opts  BindableOptions
	queue *FlushQueue
	subs  SubscriberRecord

	pending  bool
	oldValue any
}

func (o *BindableObserver) hasAccessor() bool {
	return o.opts.Get != nil
}

// Inert reports whether the observer only passes values through
func (o *BindableObserver) Inert() bool {
	return o.opts.Get == nil && o.opts.Set == nil && o.opts.Changed == nil && o.subs.Count() == 0
}

func (o *BindableObserver) GetValue() any {
	if o.opts.Get != nil {
		return o.opts.Get()
	}
	if p, ok := o.obj.(ObjectProvider); ok {
		if bag := p.AsObject(); bag != nil {
			if _, isField := fieldIndex(reflect.TypeOf(o.obj), o.key); !isField {
				return bag.values[o.key]
			}
		}
	}
	return Get(o.obj, o.key)
}

func (o *BindableObserver) store(value any) error {
	switch {
	case o.opts.Set != nil:
		o.opts.Set(value)
		return nil
	case o.opts.Get != nil:
		return nil
	}
	if p, ok := o.obj.(ObjectProvider); ok {
		if bag := p.AsObject(); bag != nil {
			if _, isField := fieldIndex(reflect.TypeOf(o.obj), o.key); !isField {
				bag.Define(o.key, value)
				return nil
			}
		}
	}
	return setReflect(reflect.ValueOf(o.obj), o.key, value)
}

func (o *BindableObserver) SetValue(value any) {
	if o.opts.Coerce != nil {
		value = o.opts.Coerce(value)
	}
	old := o.GetValue()
	if Same(old, value) {
		return
	}
	if err := o.store(value); err != nil {
		if o.opts.OnError != nil {
			o.opts.OnError(err)
		}
		return
	}
	if o.Inert() {
		return
	}
	if o.opts.Changed != nil && (o.opts.CanNotify == nil || o.opts.CanNotify()) {
		o.opts.Changed(value, old)
	}
	if o.subs.Count() == 0 {
		return
	}
	if o.queue == nil {
		o.subs.Notify(o.GetValue(), old)
		return
	}
	if !o.pending {
		o.pending = true
		o.oldValue = old
		o.queue.Add(o)
	}
}

func (o *BindableObserver) Subscribe(s Subscriber) {
	o.subs.Add(s)
}

func (o *BindableObserver) Unsubscribe(s Subscriber) {
	o.subs.Remove(s)
}

func (o *BindableObserver) flush() {
	o.pending = false
	old := o.oldValue
	o.oldValue = nil
	if value := o.GetValue(); !Same(value, old) {
		o.subs.Notify(value, old)
	}
}

// ReflectObserver reads and writes any supported shape without notifying.
// It is returned for properties nothing can intercept.
type ReflectObserver struct {
	obj any
	key string
}

func (o *ReflectObserver) GetValue() any {
	return Get(o.obj, o.key)
}

func (o *ReflectObserver) SetValue(value any) {
	_ = SetProperty(o.obj, o.key, value)
}

func (o *ReflectObserver) Subscribe(Subscriber)   {}
func (o *ReflectObserver) Unsubscribe(Subscriber) {}
