package binding

import (
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/scope"
)

// ListenerBinding evaluates an expression when an event reaches its target.
// The event is visible to the expression as $event.
type ListenerBinding struct {
	base
	Target         *html.Node
	Event          string
	PreventDefault bool

	remove func()
}

// NewListenerBinding creates an unbound listener binding
func NewListenerBinding(env *Env, ast expression.AST, target *html.Node, event string, preventDefault bool) *ListenerBinding {
	return &ListenerBinding{
		base:           base{env: env, ast: ast},
		Target:         target,
		Event:          event,
		PreventDefault: preventDefault,
	}
}

func (b *ListenerBinding) Bind(s, host *scope.Scope) error {
	if b.bound {
		if b.scope == s {
			return nil
		}
		b.Unbind()
	}
	b.scope, b.host = s, host
	if err := b.bindBehaviors(b); err != nil {
		return err
	}
	if b.env.Events != nil {
		b.remove = b.env.Events.AddEventListener(b.Target, b.Event, b.handleEvent)
	}
	b.bound = true
	return nil
}

func (b *ListenerBinding) handleEvent(e *dom.Event) {
	if !b.bound {
		return
	}
	var result any
	b.run(func() {
		if !b.bound {
			return
		}
		oc := b.scope.OverrideContext
		oc.Define("$event", e)
		v, err := b.evaluate(nil)
		oc.Delete("$event")
		if err != nil {
			b.logError("event handler failed", err)
			return
		}
		result = v
	})
	if result != true && b.PreventDefault {
		e.PreventDefault()
	}
}

func (b *ListenerBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.unbindBehaviors(b)
	if b.remove != nil {
		b.remove()
		b.remove = nil
	}
	b.scope, b.host = nil, nil
}
