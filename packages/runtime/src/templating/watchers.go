package templating

import (
	"fmt"
	"reflect"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
)

// watcher re-evaluates an expression against a view-model and calls back
// when the result changes. It binds and unbinds with its controller.
type watcher struct {
	env    *binding.Env
	ast    expression.AST
	vm     any
	fn     func(newValue, oldValue any)
	record *observation.Record

	scope *scope.Scope
	value any
	bound bool
}

type watchCollection struct {
	w *watcher
}

func (h watchCollection) HandleCollectionChange(observation.Collection, *observation.IndexMap) {
	if h.w.bound {
		h.w.fn(h.w.value, h.w.value)
	}
}

func (c *Controller) setupWatches(watches []definition.Watch) error {
	for _, w := range watches {
		fn, err := watchCallback(c.ViewModel, w)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Path(), err)
		}
		ast, err := expression.Parse(w.Expression, expression.TypeProperty)
		if err != nil {
			return fmt.Errorf("%s: watch %q: %w", c.Path(), w.Expression, err)
		}
		wt := &watcher{env: c.Env, ast: ast, vm: c.ViewModel, fn: fn}
		wt.record = observation.NewRecord(c.Env.Locator, wt, watchCollection{wt})
		c.AddBinding(wt)
	}
	return nil
}

func watchCallback(vm any, w definition.Watch) (func(newValue, oldValue any), error) {
	if w.Fn != nil {
		return func(newValue, oldValue any) { w.Fn(vm, newValue, oldValue) }, nil
	}
	m := reflect.ValueOf(vm).MethodByName(w.Callback)
	if w.Callback == "" || !m.IsValid() || !m.Type().ConvertibleTo(changeCallbackType) {
		return nil, fmt.Errorf("watch %q: no callback method %q on %T", w.Expression, w.Callback, vm)
	}
	return m.Convert(changeCallbackType).Interface().(func(any, any)), nil
}

func (w *watcher) Bind(_, _ *scope.Scope) error {
	if w.bound {
		return nil
	}
	w.scope = scope.Create(w.vm, nil, true)
	v, err := w.compute()
	if err != nil {
		return err
	}
	w.value = v
	w.bound = true
	return nil
}

func (w *watcher) compute() (any, error) {
	w.record.Begin()
	v, err := w.ast.Evaluate(w.scope, nil, w.env, w.record)
	w.record.Clear(false)
	return v, err
}

func (w *watcher) HandleChange(_, _ any) {
	if !w.bound {
		return
	}
	v, err := w.compute()
	if err != nil {
		w.env.Platform.Logger.Error("watch evaluation failed", "expression", w.ast.String(), "error", err)
		return
	}
	if observation.Same(v, w.value) {
		return
	}
	old := w.value
	w.value = v
	w.fn(v, old)
}

func (w *watcher) Unbind() {
	if !w.bound {
		return
	}
	w.bound = false
	w.record.Clear(true)
	w.scope, w.value = nil, nil
}

func (w *watcher) IsBound() bool {
	return w.bound
}
