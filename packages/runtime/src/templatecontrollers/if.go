package templatecontrollers

import (
	"fmt"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/templating"
)

// IfDefinition is the if template controller. With cache (the default) the
// view of each branch is kept and reused when the branch comes back.
func IfDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("if").
		Bindable("value", definition.AsPrimary()).
		Bindable("cache", definition.WithSetter(toBool)).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &If{owned: o, Cache: true, pending: async.Ready()}, nil
		}).
		MustBuild()
}

// ElseDefinition is the else template controller. It hands its view factory
// to the if rendered right before it.
func ElseDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("else").
		ViewModel(func(c *di.Container) (any, error) {
			factory, err := di.Get(c, templating.ViewFactoryKey)
			if err != nil {
				return nil, err
			}
			return &Else{factory: factory}, nil
		}).
		MustBuild()
}

// If shows one of two views depending on the truthiness of Value
type If struct {
	owned

	Value any
	Cache bool

	elseFactory *templating.ViewFactory
	ifView      *templating.Controller
	elseView    *templating.Controller
	view        *templating.Controller

	pending         async.Result
	swapID          int
	wantsDeactivate bool
}

func (i *If) Attaching(initiator, _ *templating.Controller) async.Result {
	return i.swap(initiator, i.Value)
}

func (i *If) Detaching(initiator, _ *templating.Controller) async.Result {
	i.wantsDeactivate = true
	return async.Then(settled(i.pending), func() async.Result {
		i.wantsDeactivate = false
		i.pending = async.Ready()
		view := i.view
		if view == nil {
			return async.Ready()
		}
		if !i.Cache {
			i.release(view)
			i.view = nil
		}
		return view.Deactivate(initiator, i.ctrl, 0)
	})
}

// ValueChanged swaps branches when the truthiness of the value changes
func (i *If) ValueChanged(newValue, oldValue any) {
	if i.ctrl == nil || !i.ctrl.IsActive() {
		return
	}
	if expression.Truthy(newValue) == expression.Truthy(oldValue) {
		return
	}
	i.logResult("if swap", i.swap(nil, newValue))
}

// swap deactivates the current view, then activates the view of the branch
// value selects. The old view is fully deactivated before the new one mounts.
func (i *If) swap(initiator *templating.Controller, value any) async.Result {
	i.swapID++
	id := i.swapID
	current := func() bool { return !i.wantsDeactivate && i.swapID == id }
	ctrl := i.ctrl

	r := async.Then(settled(i.pending), func() async.Result {
		old := i.view
		deactivated := async.Ready()
		if old != nil {
			if !i.Cache {
				i.release(old)
				i.view = nil
			}
			deactivated = old.Deactivate(old, ctrl, 0)
		}
		return async.Then(deactivated, func() async.Result {
			if !current() {
				return async.Ready()
			}
			view, err := i.viewFor(value)
			if err != nil {
				return async.Fail(err)
			}
			i.view = view
			if view == nil {
				return async.Ready()
			}
			return view.Activate(orSelf(initiator, view), ctrl, 0, ctrl.Scope, ctrl.HostScope)
		})
	})
	if !r.IsPending() {
		i.pending = async.Ready()
		return r
	}
	i.pending = r
	r.Promise().OnSettled(func(any, error) {
		if i.swapID == id {
			i.pending = async.Ready()
		}
	})
	return r
}

func (i *If) viewFor(value any) (*templating.Controller, error) {
	factory, slot := i.factory, &i.ifView
	if !expression.Truthy(value) {
		factory, slot = i.elseFactory, &i.elseView
	}
	if factory == nil {
		return nil, nil
	}
	if *slot != nil {
		return *slot, nil
	}
	view, err := factory.Create(i.ctrl)
	if err != nil {
		return nil, err
	}
	view.SetLocation(i.location)
	*slot = view
	return view, nil
}

// release hands view back to its factory once unbound and forgets it
func (i *If) release(view *templating.Controller) {
	view.Release()
	switch view {
	case i.ifView:
		i.ifView = nil
	case i.elseView:
		i.elseView = nil
	}
}

func (i *If) Dispose() {
	for _, v := range []*templating.Controller{i.ifView, i.elseView} {
		if v != nil {
			v.Dispose()
		}
	}
	i.ifView, i.elseView, i.view = nil, nil, nil
}

// Else is the view-model of else
type Else struct {
	factory *templating.ViewFactory
}

// Link attaches the else branch to the if declared right before it
func (e *Else) Link(owner templating.Owner, _ *templating.Controller, _ any, _ definition.Instruction) error {
	children := owner.RenderingController().Children
	if n := len(children); n > 0 {
		if prev, ok := children[n-1].ViewModel.(*If); ok {
			prev.elseFactory = e.factory
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIfNotFound, owner.RenderingController().Path())
}
