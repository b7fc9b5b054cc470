package binding

import (
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
)

// PropertyBinding keeps a target property and an expression in sync
type PropertyBinding struct {
	base
	mode           Mode
	Target         any
	TargetProperty string

	targetObserver observation.Observer
	record         *observation.Record
	fromView       *observation.SubscriberFunc
}

// NewPropertyBinding creates an unbound property binding
func NewPropertyBinding(env *Env, ast expression.AST, target any, property string, mode Mode) *PropertyBinding {
	b := &PropertyBinding{
		base:           base{env: env, ast: ast},
		mode:           mode,
		Target:         target,
		TargetProperty: property,
	}
	b.record = observation.NewRecord(env.Locator,
		&observation.SubscriberFunc{Fn: func(_, _ any) { b.handleSourceChange() }},
		&collectionHandler{b.handleSourceChange})
	b.fromView = &observation.SubscriberFunc{Fn: func(v, _ any) { b.handleTargetChange(v) }}
	return b
}

type collectionHandler struct {
	fn func()
}

func (h *collectionHandler) HandleCollectionChange(observation.Collection, *observation.IndexMap) {
	h.fn()
}

func (b *PropertyBinding) Mode() Mode     { return b.mode }
func (b *PropertyBinding) SetMode(m Mode) { b.mode = m }

// Bind evaluates the expression against s and starts observing
func (b *PropertyBinding) Bind(s, host *scope.Scope) error {
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
	if b.targetObserver == nil {
		b.targetObserver = b.env.Locator.GetObserver(b.Target, b.TargetProperty)
	}

	mode := b.mode
	switch {
	case mode == OneTime:
		v, err := b.evaluate(nil)
		if err != nil {
			return err
		}
		b.targetObserver.SetValue(v)
	case mode.toView():
		b.record.Begin()
		v, err := b.evaluate(b.record)
		b.record.Clear(false)
		if err != nil {
			return err
		}
		b.targetObserver.SetValue(v)
	}
	if mode.fromView() {
		b.targetObserver.Subscribe(b.fromView)
		if mode == FromView {
			if err := b.ast.Assign(b.scope, b.host, b.env, b.targetObserver.GetValue()); err != nil {
				return err
			}
		}
	}
	b.bound = true
	return nil
}

func (b *PropertyBinding) handleSourceChange() {
	if !b.bound || !b.mode.toView() {
		return
	}
	update := func() {
		if !b.bound {
			return
		}
		b.record.Begin()
		v, err := b.evaluate(b.record)
		b.record.Clear(false)
		if err != nil {
			b.logError("property binding update failed", err)
			return
		}
		b.targetObserver.SetValue(v)
	}
	// behaviors intercept the source direction of from-view bindings
	if b.mode.fromView() {
		update()
		return
	}
	b.run(update)
}

func (b *PropertyBinding) handleTargetChange(v any) {
	if !b.bound {
		return
	}
	b.run(func() {
		if !b.bound {
			return
		}
		if err := b.ast.Assign(b.scope, b.host, b.env, v); err != nil {
			b.logError("property binding source update failed", err)
		}
	})
}

// UpdateSource assigns v through the binding expression
func (b *PropertyBinding) UpdateSource(v any) error {
	return b.ast.Assign(b.scope, b.host, b.env, v)
}

// Unbind stops observing and releases the scope
func (b *PropertyBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.unbindBehaviors(b)
	b.record.Clear(true)
	if b.targetObserver != nil {
		b.targetObserver.Unsubscribe(b.fromView)
	}
	b.scope, b.host = nil, nil
}
