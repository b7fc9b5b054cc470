package templatecontrollers

import (
	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/templating"
)

// WithDefinition is the with template controller: its view evaluates against
// a child scope whose binding context is Value
func WithDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("with").
		Bindable("value", definition.AsPrimary()).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &With{owned: o}, nil
		}).
		MustBuild()
}

// With is the view-model of with
type With struct {
	owned

	Value any

	view *templating.Controller
}

func (w *With) childScope() (*scope.Scope, error) {
	var bc any = w.Value
	if bc == nil {
		bc = observation.NewObject(nil)
	}
	return scope.FromParent(w.ctrl.Scope, bc)
}

func (w *With) Attaching(initiator, _ *templating.Controller) async.Result {
	if w.view == nil {
		view, err := w.createView()
		if err != nil {
			return async.Fail(err)
		}
		w.view = view
	}
	s, err := w.childScope()
	if err != nil {
		return async.Fail(err)
	}
	return w.view.Activate(initiator, w.ctrl, 0, s, w.ctrl.HostScope)
}

// ValueChanged rebinds the bindings of the active view against a scope for
// the new value. The view stays mounted.
func (w *With) ValueChanged(_, _ any) {
	if w.ctrl == nil || !w.ctrl.IsActive() || w.view == nil || !w.view.IsActive() {
		return
	}
	s, err := w.childScope()
	if err != nil {
		w.ctrl.Platform.Logger.Error("with rebind failed", "controller", w.ctrl.Path(), "error", err)
		return
	}
	w.view.Scope = s
	for _, b := range w.view.Bindings {
		if err := b.Bind(s, w.ctrl.HostScope); err != nil {
			w.ctrl.Platform.Logger.Error("with rebind failed", "controller", w.ctrl.Path(), "error", err)
		}
	}
}

func (w *With) Detaching(initiator, _ *templating.Controller) async.Result {
	if w.view == nil {
		return async.Ready()
	}
	return w.view.Deactivate(initiator, w.ctrl, 0)
}

func (w *With) Dispose() {
	if w.view != nil {
		w.view.Dispose()
		w.view = nil
	}
}
