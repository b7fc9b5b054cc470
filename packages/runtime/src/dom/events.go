package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// Event is dispatched to listeners registered on a node and its ancestors
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Detail        any

	defaultPrevented bool
	stopped          bool
}

// PreventDefault marks the event as handled
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation stops bubbling after the current node
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event
type Listener func(e *Event)

type registration struct {
	id       uint64
	node     *html.Node
	typ      string
	listener Listener
}

// Events is the listener registry of a document
type Events struct {
	mu     sync.Mutex
	nextID uint64
	byNode map[*html.Node][]*registration
}

// NewEvents creates an empty registry
func NewEvents() *Events {
	return &Events{byNode: make(map[*html.Node][]*registration)}
}

// AddEventListener registers l for events of typ on n and returns its removal func
func (r *Events) AddEventListener(n *html.Node, typ string, l Listener) (remove func()) {
	r.mu.Lock()
	r.nextID++
	reg := &registration{id: r.nextID, node: n, typ: typ, listener: l}
	r.byNode[n] = append(r.byNode[n], reg)
	r.mu.Unlock()
	return func() { r.remove(reg) }
}

func (r *Events) remove(reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byNode[reg.node]
	for i, x := range list {
		if x.id == reg.id {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.byNode, reg.node)
		return
	}
	r.byNode[reg.node] = list
}

// Count returns the number of listeners registered on n
func (r *Events) Count(n *html.Node) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byNode[n])
}

// Dispatch delivers e to target and then bubbles it up the ancestors. It
// reports whether no listener prevented the default.
func (r *Events) Dispatch(target *html.Node, e *Event) bool {
	e.Target = target
	for n := target; n != nil && !e.stopped; n = n.Parent {
		r.mu.Lock()
		var matching []*registration
		for _, reg := range r.byNode[n] {
			if reg.typ == e.Type {
				matching = append(matching, reg)
			}
		}
		r.mu.Unlock()
		e.CurrentTarget = n
		for _, reg := range matching {
			reg.listener(e)
		}
	}
	return !e.defaultPrevented
}
