// Package di is a small hierarchical service container.
//
// Keys are arbitrary comparable values. Key[T] gives a typed handle so callers
// can use Get and Register without type assertions at every call site.
package di

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned when no resolver exists for a key
var ErrNotRegistered = errors.New("no registration for key")

// Key is a typed container key. Compare by pointer identity.
type Key[T any] struct {
	name string
}

// NewKey creates a typed key. The name only serves diagnostics.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) String() string {
	return k.name
}

// Factory builds a value using the requesting container
type Factory func(c *Container) (any, error)

type strategy int

const (
	strategyInstance strategy = iota
	strategySingleton
	strategyTransient
)

type resolver struct {
	strategy strategy
	factory  Factory
	value    any
	resolved bool
}

func (r *resolver) resolve(requestor *Container) (any, error) {
	switch r.strategy {
	case strategyInstance:
		return r.value, nil
	case strategySingleton:
		if !r.resolved {
			v, err := r.factory(requestor)
			if err != nil {
				return nil, err
			}
			r.value = v
			r.resolved = true
		}
		return r.value, nil
	}
	return r.factory(requestor)
}

// Container resolves registrations, falling back to its parent
type Container struct {
	parent    *Container
	resolvers map[any][]*resolver
}

// New creates a root container
func New() *Container {
	return &Container{resolvers: make(map[any][]*resolver)}
}

// CreateChild creates a container whose lookups fall back to c
func (c *Container) CreateChild() *Container {
	child := New()
	child.parent = c
	return child
}

// Parent returns the parent container, nil for the root
func (c *Container) Parent() *Container {
	return c.parent
}

// Root returns the top-most container
func (c *Container) Root() *Container {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func (c *Container) add(key any, r *resolver) {
	c.resolvers[key] = append(c.resolvers[key], r)
}

// RegisterInstance registers value under key
func (c *Container) RegisterInstance(key, value any) {
	c.add(key, &resolver{strategy: strategyInstance, value: value})
}

// RegisterSingleton registers a factory whose result is cached in c
func (c *Container) RegisterSingleton(key any, f Factory) {
	c.add(key, &resolver{strategy: strategySingleton, factory: f})
}

// RegisterTransient registers a factory invoked on every lookup
func (c *Container) RegisterTransient(key any, f Factory) {
	c.add(key, &resolver{strategy: strategyTransient, factory: f})
}

// Deregister removes every registration of key in c (not in ancestors)
func (c *Container) Deregister(key any) {
	delete(c.resolvers, key)
}

// Has reports whether key is registered in c, or in an ancestor when searchAncestors is set
func (c *Container) Has(key any, searchAncestors bool) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if len(cur.resolvers[key]) > 0 {
			return true
		}
		if !searchAncestors {
			return false
		}
	}
	return false
}

// Get resolves the most recent registration of key in the nearest container holding it
func (c *Container) Get(key any) (any, error) {
	for cur := c; cur != nil; cur = cur.parent {
		if rs := cur.resolvers[key]; len(rs) > 0 {
			return rs[len(rs)-1].resolve(c)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNotRegistered, key)
}

// GetAll resolves every registration of key in the nearest container holding it,
// or in c and all its ancestors when searchAncestors is set
func (c *Container) GetAll(key any, searchAncestors bool) ([]any, error) {
	var values []any
	for cur := c; cur != nil; cur = cur.parent {
		rs := cur.resolvers[key]
		for _, r := range rs {
			v, err := r.resolve(c)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if len(rs) > 0 && !searchAncestors {
			break
		}
	}
	return values, nil
}

// Register registers value under a typed key
func Register[T any](c *Container, key *Key[T], value T) {
	c.RegisterInstance(key, value)
}

// RegisterFactory registers a typed singleton factory
func RegisterFactory[T any](c *Container, key *Key[T], f func(c *Container) (T, error)) {
	c.RegisterSingleton(key, func(c *Container) (any, error) {
		return f(c)
	})
}

// Get resolves a typed key
func Get[T any](c *Container, key *Key[T]) (T, error) {
	var zero T
	v, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("registration for %v has type %T", key, v)
	}
	return t, nil
}

// MustGet resolves a typed key and panics when it is missing
func MustGet[T any](c *Container, key *Key[T]) T {
	v, err := Get(c, key)
	if err != nil {
		panic(err)
	}
	return v
}

// GetAll resolves every registration of a typed key
func GetAll[T any](c *Container, key *Key[T], searchAncestors bool) ([]T, error) {
	values, err := c.GetAll(key, searchAncestors)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("registration for %v has type %T", key, v)
		}
		out = append(out, t)
	}
	return out, nil
}
