// Package binding connects evaluated expressions to targets: view-model
// properties, DOM properties and attributes, text nodes and event listeners.
package binding

import (
	"errors"
	"fmt"
	"strings"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/scope"
)

// ErrBehaviorNotFound is returned when a binding behavior cannot be resolved
var ErrBehaviorNotFound = errors.New("binding behavior not found")

// Mode is the data flow direction of a property binding
type Mode int

const (
	Default Mode = iota
	OneTime
	ToView
	FromView
	TwoWay
)

func (m Mode) String() string {
	switch m {
	case Default:
		return "default"
	case OneTime:
		return "oneTime"
	case ToView:
		return "toView"
	case FromView:
		return "fromView"
	case TwoWay:
		return "twoWay"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the camel, dash and lower-case spellings of a mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "", "default":
		return Default, nil
	case "onetime":
		return OneTime, nil
	case "toview", "oneway":
		return ToView, nil
	case "fromview":
		return FromView, nil
	case "twoway":
		return TwoWay, nil
	}
	return Default, fmt.Errorf("unknown binding mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Mode) toView() bool  { return m == ToView || m == TwoWay || m == Default }
func (m Mode) fromView() bool { return m == FromView || m == TwoWay }

// Binding is bound and unbound in lock-step with its owning controller
type Binding interface {
	Bind(s, host *scope.Scope) error
	Unbind()
	IsBound() bool
}

// ModeSetter is implemented by bindings whose mode behaviors can override
type ModeSetter interface {
	Mode() Mode
	SetMode(m Mode)
}

// Interceptor wraps the update a binding is about to perform
type Interceptor func(next func())

// Interceptable is implemented by bindings that route updates through an interceptor
type Interceptable interface {
	SetInterceptor(i Interceptor)
}

// Behavior customizes a binding for as long as it is bound
type Behavior interface {
	Bind(s *scope.Scope, b Binding, args ...any) error
	Unbind(s *scope.Scope, b Binding)
}

// Resources resolves the named resources expressions refer to
type Resources interface {
	ValueConverter(name string) (expression.ValueConverter, error)
	BindingBehavior(name string) (Behavior, error)
}

// Env carries the services bindings share. It implements expression.Env.
type Env struct {
	Locator   *observation.ObserverLocator
	Resources Resources
	Platform  *platform.Platform
	Events    *dom.Events
}

// ValueConverter implements expression.Env
func (e *Env) ValueConverter(name string) (expression.ValueConverter, error) {
	if e.Resources == nil {
		return nil, fmt.Errorf("no resources to resolve %q", name)
	}
	return e.Resources.ValueConverter(name)
}

// ObserverLocator implements expression.Env
func (e *Env) ObserverLocator() *observation.ObserverLocator {
	return e.Locator
}

// base holds what every expression-driven binding needs
type base struct {
	env   *Env
	ast   expression.AST
	scope *scope.Scope
	host  *scope.Scope
	bound bool

	intercept Interceptor
	behaviors []appliedBehavior
}

type appliedBehavior struct {
	behavior Behavior
}

func (b *base) IsBound() bool {
	return b.bound
}

// AST returns the binding expression
func (b *base) AST() expression.AST {
	return b.ast
}

// Scope returns the scope the binding is bound to
func (b *base) Scope() *scope.Scope {
	return b.scope
}

func (b *base) SetInterceptor(i Interceptor) {
	b.intercept = i
}

func (b *base) run(fn func()) {
	if b.intercept != nil {
		b.intercept(fn)
		return
	}
	fn()
}

// bindBehaviors applies the behavior chain of the expression, innermost first
func (b *base) bindBehaviors(self Binding) error {
	var chain []*expression.BindingBehaviorExpression
	for ast := b.ast; ; {
		bb, ok := ast.(*expression.BindingBehaviorExpression)
		if !ok {
			break
		}
		chain = append(chain, bb)
		ast = bb.Expr
	}
	for i := len(chain) - 1; i >= 0; i-- {
		bb := chain[i]
		if b.env.Resources == nil {
			return fmt.Errorf("%w: %s", ErrBehaviorNotFound, bb.Name)
		}
		behavior, err := b.env.Resources.BindingBehavior(bb.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBehaviorNotFound, bb.Name, err)
		}
		args, err := bb.EvaluateArgs(b.scope, b.host, b.env)
		if err != nil {
			return err
		}
		if err := behavior.Bind(b.scope, self, args...); err != nil {
			return err
		}
		b.behaviors = append(b.behaviors, appliedBehavior{behavior})
	}
	return nil
}

func (b *base) unbindBehaviors(self Binding) {
	for i := len(b.behaviors) - 1; i >= 0; i-- {
		b.behaviors[i].behavior.Unbind(b.scope, self)
	}
	b.behaviors = nil
}

func (b *base) evaluate(c observation.Connectable) (any, error) {
	return b.ast.Evaluate(b.scope, b.host, b.env, c)
}

func (b *base) logError(msg string, err error) {
	if b.env.Platform != nil {
		b.env.Platform.Logger.Error(msg, "expression", b.ast.String(), "error", err)
	}
}
