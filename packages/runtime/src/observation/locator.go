package observation

import "reflect"

// ObserverAdapter supplies observers for objects the locator does not know,
// such as DOM nodes.
type ObserverAdapter interface {
	GetObserver(obj any, key string) (Observer, bool)
}

// ObserverLocator hands out one observer per (object, key)
type ObserverLocator struct {
	queue    *FlushQueue
	adapters []ObserverAdapter
	// observers registered for values that are not property bags
	external map[objectID]map[string]Observer
}

// NewObserverLocator creates a locator whose observers notify through queue
func NewObserverLocator(queue *FlushQueue, adapters ...ObserverAdapter) *ObserverLocator {
	return &ObserverLocator{
		queue:    queue,
		adapters: adapters,
		external: make(map[objectID]map[string]Observer),
	}
}

// Queue returns the flush queue observers notify through
func (l *ObserverLocator) Queue() *FlushQueue {
	return l.queue
}

// AddAdapter registers an adapter consulted before the reflective fallback
func (l *ObserverLocator) AddAdapter(a ObserverAdapter) {
	l.adapters = append(l.adapters, a)
}

type objectID struct {
	t reflect.Type
	p uintptr
}

func identity(obj any) (objectID, bool) {
	if obj == nil {
		return objectID{}, false
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan:
		if v.IsNil() {
			return objectID{}, false
		}
		return objectID{t: v.Type(), p: v.Pointer()}, true
	}
	return objectID{}, false
}

func (l *ObserverLocator) registered(obj any, key string) Observer {
	if p, ok := obj.(ObjectProvider); ok {
		if bag := p.AsObject(); bag != nil {
			if ob := bag.observer(key); ob != nil {
				return ob
			}
		}
	}
	if id, ok := identity(obj); ok {
		return l.external[id][key]
	}
	return nil
}

// RegisterObserver makes ob the observer of key on obj
func (l *ObserverLocator) RegisterObserver(obj any, key string, ob Observer) {
	if p, ok := obj.(ObjectProvider); ok {
		if bag := p.AsObject(); bag != nil {
			if _, isField := fieldIndex(reflect.TypeOf(obj), key); !isField {
				bag.install(key, ob)
				return
			}
		}
	}
	id, ok := identity(obj)
	if !ok {
		return
	}
	byKey := l.external[id]
	if byKey == nil {
		byKey = make(map[string]Observer)
		l.external[id] = byKey
	}
	byKey[key] = ob
}

// Forget drops observers registered for obj outside of property bags
func (l *ObserverLocator) Forget(obj any) {
	if id, ok := identity(obj); ok {
		delete(l.external, id)
	}
}

// NewBindableObserver creates and registers the observer of a bindable property
func (l *ObserverLocator) NewBindableObserver(obj any, key string, opts BindableOptions) *BindableObserver {
	ob := &BindableObserver{obj: obj, key: key, opts: opts, queue: l.queue}
	l.RegisterObserver(obj, key, ob)
	return ob
}

// GetObserver returns the observer of key on obj
func (l *ObserverLocator) GetObserver(obj any, key string) Observer {
	if ob := l.registered(obj, key); ob != nil {
		return ob
	}
	switch o := obj.(type) {
	case *Array:
		if key == "length" {
			return l.GetCollectionObserver(o).LengthObserver()
		}
	case *Set:
		if key == "size" {
			return l.GetCollectionObserver(o).LengthObserver()
		}
	case *Map:
		if key == "size" {
			return l.GetCollectionObserver(o).LengthObserver()
		}
	}
	for _, a := range l.adapters {
		if ob, ok := a.GetObserver(obj, key); ok {
			return ob
		}
	}
	if p, ok := obj.(ObjectProvider); ok {
		if bag := p.AsObject(); bag != nil {
			if _, isField := fieldIndex(reflect.TypeOf(obj), key); !isField {
				ob := newPropertyObserver(bag, key, l.queue)
				bag.install(key, ob)
				return ob
			}
		}
	}
	return &ReflectObserver{obj: obj, key: key}
}

// GetCollectionObserver returns the observer of c
func (l *ObserverLocator) GetCollectionObserver(c ObservableCollection) *CollectionObserver {
	return c.observe(l.queue)
}

// SetValue writes key on obj through its registered observer when there is one
func (l *ObserverLocator) SetValue(obj any, key string, value any) error {
	if l != nil {
		if ob := l.registered(obj, key); ob != nil {
			ob.SetValue(value)
			return nil
		}
	}
	return SetProperty(obj, key, value)
}
