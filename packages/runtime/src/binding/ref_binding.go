package binding

import (
	"strings"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/util"
)

// RefBinding assigns its target (an element, view-model or controller) to an
// expression while bound
type RefBinding struct {
	base
	Target any
}

// NewRefBinding creates an unbound ref binding
func NewRefBinding(env *Env, ast expression.AST, target any) *RefBinding {
	return &RefBinding{base: base{env: env, ast: ast}, Target: target}
}

func (b *RefBinding) Bind(s, host *scope.Scope) error {
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
	if err := b.ast.Assign(s, host, b.env, b.Target); err != nil {
		return err
	}
	b.bound = true
	return nil
}

func (b *RefBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	if v, err := b.evaluate(nil); err == nil && observation.Same(v, b.Target) {
		_ = b.ast.Assign(b.scope, b.host, b.env, nil)
	}
	b.unbindBehaviors(b)
	b.scope, b.host = nil, nil
}

// LetBinding declares a name in the override context (or the binding context)
// and keeps it equal to an expression
type LetBinding struct {
	base
	TargetProperty   string
	ToBindingContext bool

	target any
	record *observation.Record
}

// NewLetBinding creates an unbound let binding
func NewLetBinding(env *Env, ast expression.AST, property string, toBindingContext bool) *LetBinding {
	b := &LetBinding{
		base:             base{env: env, ast: ast},
		TargetProperty:   property,
		ToBindingContext: toBindingContext,
	}
	b.record = observation.NewRecord(env.Locator, &observation.SubscriberFunc{Fn: func(_, _ any) { b.update() }}, nil)
	return b
}

func (b *LetBinding) Bind(s, host *scope.Scope) error {
	if b.bound {
		if b.scope == s {
			return nil
		}
		b.Unbind()
	}
	b.scope, b.host = s, host
	if b.ToBindingContext {
		b.target = s.BindingContext
	} else {
		b.target = s.OverrideContext
	}
	if err := b.bindBehaviors(b); err != nil {
		return err
	}
	if err := b.refresh(); err != nil {
		return err
	}
	b.bound = true
	return nil
}

func (b *LetBinding) refresh() error {
	b.record.Begin()
	v, err := b.evaluate(b.record)
	b.record.Clear(false)
	if err != nil {
		return err
	}
	return b.env.Locator.SetValue(b.target, b.TargetProperty, v)
}

func (b *LetBinding) update() {
	if !b.bound {
		return
	}
	b.run(func() {
		if !b.bound {
			return
		}
		if err := b.refresh(); err != nil {
			b.logError("let update failed", err)
		}
	})
}

func (b *LetBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.unbindBehaviors(b)
	b.record.Clear(true)
	b.scope, b.host, b.target = nil, nil, nil
}

// SetStyleProperty sets or removes one declaration of the style attribute
func SetStyleProperty(n *html.Node, property string, value any) {
	setStyleProperty(n, property, value)
}

func setStyleProperty(n *html.Node, property string, value any) {
	property = util.CamelCaseToDashCase(property)
	current, _ := dom.GetAttr(n, "style")
	decls := parseStyle(current)
	val := ""
	if value != nil {
		val = util.Stringify(value)
	}
	found := false
	out := decls[:0]
	for _, d := range decls {
		if d[0] == property {
			found = true
			if val == "" {
				continue
			}
			d[1] = val
		}
		out = append(out, d)
	}
	if !found && val != "" {
		out = append(out, [2]string{property, val})
	}
	if len(out) == 0 {
		dom.RemoveAttr(n, "style")
		return
	}
	dom.SetAttr(n, "style", formatStyle(out))
}

func parseStyle(css string) [][2]string {
	var decls [][2]string
	for _, part := range strings.Split(css, ";") {
		if i := strings.IndexByte(part, ':'); i > 0 {
			decls = append(decls, [2]string{strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])})
		}
	}
	return decls
}

func formatStyle(decls [][2]string) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d[0] + ": " + d[1]
	}
	return strings.Join(parts, "; ")
}
