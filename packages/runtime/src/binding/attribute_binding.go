package binding

import (
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/util"
)

// AttributeBinding writes an expression into an attribute of an element.
// The class attribute toggles TargetKey; the style attribute sets the TargetKey
// declaration.
type AttributeBinding struct {
	base
	Target          *html.Node
	TargetAttribute string
	TargetKey       string

	record *observation.Record
}

// NewAttributeBinding creates an unbound attribute binding
func NewAttributeBinding(env *Env, ast expression.AST, target *html.Node, attr, key string) *AttributeBinding {
	b := &AttributeBinding{
		base:            base{env: env, ast: ast},
		Target:          target,
		TargetAttribute: attr,
		TargetKey:       key,
	}
	b.record = observation.NewRecord(env.Locator, &observation.SubscriberFunc{Fn: func(_, _ any) { b.update() }}, nil)
	return b
}

func (b *AttributeBinding) Bind(s, host *scope.Scope) error {
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

func (b *AttributeBinding) refresh() error {
	b.record.Begin()
	v, err := b.evaluate(b.record)
	b.record.Clear(false)
	if err != nil {
		return err
	}
	b.apply(v)
	return nil
}

func (b *AttributeBinding) apply(v any) {
	switch b.TargetAttribute {
	case "class":
		if expression.Truthy(v) {
			dom.AddClass(b.Target, b.TargetKey)
		} else {
			dom.RemoveClass(b.Target, b.TargetKey)
		}
	case "style":
		setStyleProperty(b.Target, b.TargetKey, v)
	default:
		switch t := v.(type) {
		case nil:
			dom.RemoveAttr(b.Target, b.TargetAttribute)
		case bool:
			if t {
				dom.SetAttr(b.Target, b.TargetAttribute, "")
			} else {
				dom.RemoveAttr(b.Target, b.TargetAttribute)
			}
		default:
			dom.SetAttr(b.Target, b.TargetAttribute, util.Stringify(v))
		}
	}
}

func (b *AttributeBinding) update() {
	if !b.bound {
		return
	}
	b.run(func() {
		if !b.bound {
			return
		}
		if err := b.refresh(); err != nil {
			b.logError("attribute update failed", err)
		}
	})
}

func (b *AttributeBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.unbindBehaviors(b)
	b.record.Clear(true)
	b.scope, b.host = nil, nil
}
