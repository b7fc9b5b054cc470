package binding

import (
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/util"
)

// InterpolationBinding renders an interpolation into a target property or attribute
type InterpolationBinding struct {
	base
	Target         any
	TargetProperty string

	targetObserver observation.Observer
	record         *observation.Record
}

// NewInterpolationBinding creates an unbound interpolation binding
func NewInterpolationBinding(env *Env, interp *expression.Interpolation, target any, property string) *InterpolationBinding {
	b := &InterpolationBinding{
		base:           base{env: env, ast: interp},
		Target:         target,
		TargetProperty: property,
	}
	b.record = observation.NewRecord(env.Locator, &observation.SubscriberFunc{Fn: func(_, _ any) { b.update() }}, nil)
	return b
}

func (b *InterpolationBinding) Bind(s, host *scope.Scope) error {
	if b.bound {
		if b.scope == s {
			return nil
		}
		b.Unbind()
	}
	b.scope, b.host = s, host
	if b.targetObserver == nil {
		b.targetObserver = b.env.Locator.GetObserver(b.Target, b.TargetProperty)
	}
	if err := b.refresh(); err != nil {
		return err
	}
	b.bound = true
	return nil
}

func (b *InterpolationBinding) refresh() error {
	b.record.Begin()
	var v any
	var err error
	// a lone expression hands its raw value to the target
	if interp := b.ast.(*expression.Interpolation); interp.IsSimple() {
		v, err = interp.Expressions[0].Evaluate(b.scope, b.host, b.env, b.record)
	} else {
		v, err = b.evaluate(b.record)
	}
	b.record.Clear(false)
	if err != nil {
		return err
	}
	b.targetObserver.SetValue(v)
	return nil
}

func (b *InterpolationBinding) update() {
	if !b.bound {
		return
	}
	b.run(func() {
		if !b.bound {
			return
		}
		if err := b.refresh(); err != nil {
			b.logError("interpolation update failed", err)
		}
	})
}

func (b *InterpolationBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.record.Clear(true)
	b.scope, b.host = nil, nil
}

// ContentBinding renders an expression as the text of a text node
type ContentBinding struct {
	base
	Target *html.Node

	record *observation.Record
}

// NewContentBinding creates an unbound content binding
func NewContentBinding(env *Env, ast expression.AST, target *html.Node) *ContentBinding {
	b := &ContentBinding{base: base{env: env, ast: ast}, Target: target}
	b.record = observation.NewRecord(env.Locator,
		&observation.SubscriberFunc{Fn: func(_, _ any) { b.update() }},
		&collectionHandler{b.update})
	return b
}

func (b *ContentBinding) Bind(s, host *scope.Scope) error {
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
	if err := b.refresh(); err != nil {
		return err
	}
	b.bound = true
	return nil
}

func (b *ContentBinding) refresh() error {
	b.record.Begin()
	v, err := b.evaluate(b.record)
	b.record.Clear(false)
	if err != nil {
		return err
	}
	dom.SetTextContent(b.Target, util.Stringify(v))
	return nil
}

func (b *ContentBinding) update() {
	if !b.bound {
		return
	}
	b.run(func() {
		if !b.bound {
			return
		}
		if err := b.refresh(); err != nil {
			b.logError("content update failed", err)
		}
	})
}

func (b *ContentBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.unbindBehaviors(b)
	b.record.Clear(true)
	b.scope, b.host = nil, nil
}
