// Package templatecontrollers implements the built-in template controllers.
// Each one is a custom attribute that owns views created by the view factory
// of its render location and activates them in response to its bindables:
// if/else, repeat, with, switch/case, promise/pending/then/catch and portal.
package templatecontrollers

import (
	"errors"
	"strings"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/templating"
)

var (
	// ErrIfNotFound is returned for an else that does not follow an if
	ErrIfNotFound = errors.New("else without a preceding if")
	// ErrSwitchNotFound is returned for a case that is not a direct child of a switch
	ErrSwitchNotFound = errors.New("case outside of a switch")
	// ErrMultipleDefaultCases is returned for a second default-case in one switch
	ErrMultipleDefaultCases = errors.New("switch with more than one default case")
	// ErrPromiseNotFound is returned for pending, then or catch outside of a promise
	ErrPromiseNotFound = errors.New("promise branch outside of a promise")
	// ErrPortalTarget is returned by a strict portal whose target cannot be resolved
	ErrPortalTarget = errors.New("portal target not found")
	// ErrEmptySelector is returned by a strict portal with an empty selector
	ErrEmptySelector = errors.New("empty portal target selector")
	// ErrIndexMapMismatch is returned when an index map does not describe the rendered views
	ErrIndexMapMismatch = errors.New("index map does not match the views")
	// ErrNotRepeatable is returned when no repeatable handler accepts the items
	ErrNotRepeatable = errors.New("value is not repeatable")
)

// Definitions returns the definitions of every built-in template controller
func Definitions() []definition.Resource {
	return []definition.Resource{
		IfDefinition(),
		ElseDefinition(),
		RepeatDefinition(),
		WithDefinition(),
		SwitchDefinition(),
		CaseDefinition(),
		DefaultCaseDefinition(),
		PromiseDefinition(),
		PendingDefinition(),
		FulfilledDefinition(),
		RejectedDefinition(),
		PortalDefinition(),
	}
}

// Register makes the built-in template controllers and the default
// repeatable handlers available to templates rendered with c
func Register(c *di.Container) {
	definition.Register(c, Definitions()...)
	if !c.Has(HandlersKey, true) {
		di.Register(c, HandlersKey, DefaultHandlers())
	}
}

// owned holds what every template controller resolves from its container
type owned struct {
	ctrl     *templating.Controller
	factory  *templating.ViewFactory
	location *dom.RenderLocation
}

func resolveOwned(c *di.Container) (owned, error) {
	factory, err := di.Get(c, templating.ViewFactoryKey)
	if err != nil {
		return owned{}, err
	}
	loc, err := di.Get(c, templating.RenderLocationKey)
	if err != nil {
		return owned{}, err
	}
	return owned{factory: factory, location: loc}, nil
}

// Created implements templating.CreatedHook
func (o *owned) Created(c *templating.Controller) {
	o.ctrl = c
}

// createView creates a view mounted at the controller's location
func (o *owned) createView() (*templating.Controller, error) {
	view, err := o.factory.Create(o.ctrl)
	if err != nil {
		return nil, err
	}
	view.SetLocation(o.location)
	return view, nil
}

// logResult logs a failed asynchronous swap that nobody awaits
func (o *owned) logResult(op string, r async.Result) {
	report := func(err error) {
		if err != nil {
			o.ctrl.Platform.Logger.Error(op+" failed", "controller", o.ctrl.Path(), "error", err)
		}
	}
	if !r.IsPending() {
		report(r.Err())
		return
	}
	r.Promise().OnSettled(func(_ any, err error) { report(err) })
}

// settled waits for r and drops its error, which whoever started r reported
func settled(r async.Result) async.Result {
	return async.Catch(r, func(error) async.Result { return async.Ready() })
}

func orSelf(initiator, view *templating.Controller) *templating.Controller {
	if initiator == nil {
		return view
	}
	return initiator
}

// toBool coerces attribute strings: "false" and "" are false
func toBool(v any) any {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		return s != "" && s != "false"
	}
	return expression.Truthy(v)
}
