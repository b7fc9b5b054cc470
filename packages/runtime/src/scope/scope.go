// Package scope implements the parent-linked lookup structure every expression
// evaluates against.
package scope

import (
	"errors"

	"au-go/packages/runtime/src/observation"
)

// ErrNilScope is returned when a scope is derived from a nil parent
var ErrNilScope = errors.New("parent scope is nil")

// OverrideContext holds names that shadow the binding context, such as the
// contextual properties a repeat adds ($index, $first...).
type OverrideContext struct {
	observation.Object
	BindingContext any
}

// Scope couples a binding context with its override context and parent
type Scope struct {
	Parent          *Scope
	BindingContext  any
	OverrideContext *OverrideContext
	// IsBoundary stops implicit name resolution from walking past this scope
	IsBoundary bool
}

// Create creates a root scope. A nil oc gets a fresh override context.
func Create(bindingContext any, oc *OverrideContext, isBoundary bool) *Scope {
	if oc == nil {
		oc = &OverrideContext{}
	}
	oc.BindingContext = bindingContext
	return &Scope{BindingContext: bindingContext, OverrideContext: oc, IsBoundary: isBoundary}
}

// FromParent creates a child scope of parent
func FromParent(parent *Scope, bindingContext any) (*Scope, error) {
	if parent == nil {
		return nil, ErrNilScope
	}
	s := Create(bindingContext, nil, false)
	s.Parent = parent
	return s, nil
}

// WithOverride creates a child scope of parent with a prepared override context
func WithOverride(parent *Scope, bindingContext any, oc *OverrideContext) (*Scope, error) {
	if parent == nil {
		return nil, ErrNilScope
	}
	s := Create(bindingContext, oc, false)
	s.Parent = parent
	return s, nil
}

// GetContext returns the object that holds name for s.
//
// With ancestor > 0 it walks exactly that many parent links and returns nil
// when the chain is shorter. Otherwise it walks up while neither the override
// context nor the binding context has name, stopping at a boundary, and falls
// back to the binding context of s.
func GetContext(s *Scope, name string, ancestor int) any {
	if s == nil {
		return nil
	}
	if ancestor > 0 {
		cur := s
		for ; ancestor > 0; ancestor-- {
			cur = cur.Parent
			if cur == nil {
				return nil
			}
		}
		return contextOf(cur, name)
	}

	cur := s
	for cur != nil && !cur.IsBoundary && !hasName(cur, name) {
		cur = cur.Parent
	}
	if cur == nil {
		return s.BindingContext
	}
	return contextOf(cur, name)
}

// Ancestor returns the scope ancestor links above s, nil when the chain is shorter
func Ancestor(s *Scope, ancestor int) *Scope {
	for ; s != nil && ancestor > 0; ancestor-- {
		s = s.Parent
	}
	return s
}

func hasName(s *Scope, name string) bool {
	if s.OverrideContext != nil && s.OverrideContext.Has(name) {
		return true
	}
	return observation.Has(s.BindingContext, name)
}

func contextOf(s *Scope, name string) any {
	if s.OverrideContext != nil && s.OverrideContext.Has(name) {
		return s.OverrideContext
	}
	return s.BindingContext
}
