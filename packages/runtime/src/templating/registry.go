package templating

import (
	"reflect"

	"golang.org/x/net/html"
)

// Registry relates view-models and DOM nodes to their controllers. One
// registry belongs to each application root container.
type Registry struct {
	byViewModel map[any]*Controller
	elements    map[*html.Node]*Controller
	attributes  map[*html.Node]map[string]*Controller
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset forgets every controller
func (r *Registry) Reset() {
	r.byViewModel = make(map[any]*Controller)
	r.elements = make(map[*html.Node]*Controller)
	r.attributes = make(map[*html.Node]map[string]*Controller)
}

// Len returns the number of view-models with a controller
func (r *Registry) Len() int {
	return len(r.byViewModel)
}

// For returns the controller of vm
func (r *Registry) For(vm any) (*Controller, bool) {
	if !hashable(vm) {
		return nil, false
	}
	c, ok := r.byViewModel[vm]
	return c, ok
}

// ElementFor returns the custom element controller hosted by n
func (r *Registry) ElementFor(n *html.Node) (*Controller, bool) {
	c, ok := r.elements[n]
	return c, ok
}

// AttributeFor returns the controller of the custom attribute name on n
func (r *Registry) AttributeFor(n *html.Node, name string) (*Controller, bool) {
	c, ok := r.attributes[n][name]
	return c, ok
}

func (r *Registry) add(c *Controller) {
	if hashable(c.ViewModel) {
		r.byViewModel[c.ViewModel] = c
	}
	if c.Host == nil {
		return
	}
	switch c.Kind {
	case KindElement:
		r.elements[c.Host] = c
	case KindAttribute:
		byName := r.attributes[c.Host]
		if byName == nil {
			byName = make(map[string]*Controller)
			r.attributes[c.Host] = byName
		}
		byName[c.Name] = c
	}
}

func (r *Registry) remove(c *Controller) {
	if hashable(c.ViewModel) && r.byViewModel[c.ViewModel] == c {
		delete(r.byViewModel, c.ViewModel)
	}
	if c.Host == nil {
		return
	}
	switch c.Kind {
	case KindElement:
		if r.elements[c.Host] == c {
			delete(r.elements, c.Host)
		}
	case KindAttribute:
		if byName := r.attributes[c.Host]; byName[c.Name] == c {
			delete(byName, c.Name)
			if len(byName) == 0 {
				delete(r.attributes, c.Host)
			}
		}
	}
}

// hashable reports whether v has an identity. Plain values are never looked up.
func hashable(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}
