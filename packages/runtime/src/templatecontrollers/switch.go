package templatecontrollers

import (
	"fmt"
	"reflect"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/templating"
)

// SwitchDefinition is the switch template controller. Its view holds the
// case and default-case template controllers.
func SwitchDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("switch").
		Bindable("value", definition.AsPrimary()).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &Switch{owned: o, pending: async.Ready()}, nil
		}).
		MustBuild()
}

// CaseDefinition is the case template controller. Value may be a list, in
// which case the case matches any of its items.
func CaseDefinition() *definition.AttributeDefinition {
	return caseDefinition("case", false)
}

// DefaultCaseDefinition is the default-case template controller
func DefaultCaseDefinition() *definition.AttributeDefinition {
	return caseDefinition("default-case", true)
}

func caseDefinition(name string, isDefault bool) *definition.AttributeDefinition {
	return definition.NewTemplateController(name).
		Bindable("value", definition.AsPrimary()).
		Bindable("fallThrough", definition.WithSetter(toBool)).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &Case{owned: o, isDefault: isDefault}, nil
		}).
		MustBuild()
}

// Switch activates the views of the cases matching Value
type Switch struct {
	owned

	Value any

	view        *templating.Controller
	cases       []*Case
	defaultCase *Case
	activeCases []*Case
	registered  int

	pending   async.Result
	pendingID int
}

// Link creates the view holding the cases, so they can register themselves
// while it renders
func (s *Switch) Link(_ templating.Owner, c *templating.Controller, _ any, _ definition.Instruction) error {
	s.ctrl = c
	view, err := s.createView()
	if err != nil {
		return err
	}
	s.view = view
	return nil
}

// ActiveCases returns the cases whose views are shown
func (s *Switch) ActiveCases() []*Case {
	return append([]*Case(nil), s.activeCases...)
}

func (s *Switch) Attaching(initiator, _ *templating.Controller) async.Result {
	s.queue(func() async.Result {
		return s.view.Activate(initiator, s.ctrl, 0, s.ctrl.Scope, s.ctrl.HostScope)
	})
	s.queue(func() async.Result { return s.swap(initiator, s.Value) })
	return s.pending
}

func (s *Switch) Detaching(initiator, _ *templating.Controller) async.Result {
	s.queue(func() async.Result {
		return s.view.Deactivate(initiator, s.ctrl, 0)
	})
	return s.pending
}

// ValueChanged recomputes the active cases
func (s *Switch) ValueChanged(_, _ any) {
	if s.ctrl == nil || !s.ctrl.IsActive() {
		return
	}
	s.queue(func() async.Result { return s.swap(nil, s.Value) })
	s.logResult("switch", s.pending)
}

// caseChanged reacts to a case whose value or fall-through changed
func (s *Switch) caseChanged(c *Case) {
	if c.isDefault || s.ctrl == nil || !s.ctrl.IsActive() {
		return
	}
	s.queue(func() async.Result { return s.handleCaseChange(c) })
	s.logResult("switch", s.pending)
}

// queue runs action once every queued action has settled
func (s *Switch) queue(action func() async.Result) {
	s.pendingID++
	id := s.pendingID
	r := async.Then(settled(s.pending), action)
	if !r.IsPending() {
		if r.Err() == nil {
			r = async.Ready()
		}
		s.pending = r
		return
	}
	s.pending = r
	r.Promise().OnSettled(func(any, error) {
		if s.pendingID == id {
			s.pending = async.Ready()
		}
	})
}

func (s *Switch) handleCaseChange(c *Case) async.Result {
	match := c.IsMatch(s.Value)
	active := s.activeCases
	if !match {
		if len(active) > 0 && active[0] == c {
			return s.clearActiveCases(nil, nil)
		}
		return async.Ready()
	}
	if len(active) > 0 && active[0].id < c.id {
		return async.Ready()
	}
	var next []*Case
	if !c.FallThrough {
		next = []*Case{c}
	} else {
		fall := true
		for i := indexOfCase(s.cases, c); i >= 0 && i < len(s.cases) && fall; i++ {
			next = append(next, s.cases[i])
			fall = s.cases[i].FallThrough
		}
	}
	return async.Then(s.clearActiveCases(nil, next), func() async.Result {
		s.activeCases = next
		return s.activateCases(nil)
	})
}

func (s *Switch) swap(initiator *templating.Controller, value any) async.Result {
	var next []*Case
	fall := false
	for _, c := range s.cases {
		if fall || c.IsMatch(value) {
			next = append(next, c)
			fall = c.FallThrough
		}
		if len(next) > 0 && !fall {
			break
		}
	}
	if len(next) == 0 && s.defaultCase != nil {
		next = []*Case{s.defaultCase}
	}
	return async.Then(s.clearActiveCases(initiator, next), func() async.Result {
		s.activeCases = next
		return s.activateCases(initiator)
	})
}

func (s *Switch) activateCases(initiator *templating.Controller) async.Result {
	if !s.ctrl.IsActive() || len(s.activeCases) == 0 {
		return async.Ready()
	}
	results := make([]async.Result, 0, len(s.activeCases))
	for _, c := range s.activeCases {
		results = append(results, c.activate(initiator, s.ctrl.Scope))
	}
	return async.All(results...)
}

// clearActiveCases deactivates the active cases that are not in keep
func (s *Switch) clearActiveCases(initiator *templating.Controller, keep []*Case) async.Result {
	active := s.activeCases
	if len(active) == 0 {
		return async.Ready()
	}
	results := make([]async.Result, 0, len(active))
	for _, c := range active {
		if !containsCase(keep, c) {
			results = append(results, c.deactivate(initiator))
		}
	}
	return async.Then(async.All(results...), func() async.Result {
		s.activeCases = nil
		return async.Ready()
	})
}

// addCase registers c. Ids follow registration order, so a default case
// declared last never precedes the cases before it.
func (s *Switch) addCase(c *Case) error {
	c.id = s.registered
	s.registered++
	if c.isDefault {
		if s.defaultCase != nil {
			return fmt.Errorf("%w: %s", ErrMultipleDefaultCases, s.ctrl.Path())
		}
		s.defaultCase = c
		return nil
	}
	s.cases = append(s.cases, c)
	return nil
}

func (s *Switch) Dispose() {
	if s.view != nil {
		s.view.Dispose()
		s.view = nil
	}
}

func containsCase(cases []*Case, c *Case) bool {
	return indexOfCase(cases, c) >= 0
}

func indexOfCase(cases []*Case, c *Case) int {
	for i, x := range cases {
		if x == c {
			return i
		}
	}
	return -1
}

// Case is the view-model of case and default-case
type Case struct {
	owned

	Value       any
	FallThrough bool

	id        int
	isDefault bool
	sw        *Switch
	view      *templating.Controller
	observed  *observation.CollectionObserver
}

// Link registers the case with the switch owning the view it renders in
func (c *Case) Link(owner templating.Owner, ctrl *templating.Controller, _ any, _ definition.Instruction) error {
	c.ctrl = ctrl
	var sw *Switch
	if parent := owner.RenderingController().Parent; parent != nil {
		sw, _ = parent.ViewModel.(*Switch)
	}
	if sw == nil {
		return fmt.Errorf("%w: %s", ErrSwitchNotFound, ctrl.Path())
	}
	c.sw = sw
	return sw.addCase(c)
}

// IsMatch reports whether value selects the case: it equals Value, or is an
// item of Value when Value is a list
func (c *Case) IsMatch(value any) bool {
	switch v := c.Value.(type) {
	case *observation.Array:
		for _, item := range v.Items() {
			if observation.StrictEqual(item, value) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range v {
			if observation.StrictEqual(item, value) {
				return true
			}
		}
		return false
	}
	if rv := reflect.ValueOf(c.Value); rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if observation.StrictEqual(rv.Index(i).Interface(), value) {
				return true
			}
		}
		return false
	}
	return observation.StrictEqual(c.Value, value)
}

func (c *Case) ValueChanged(_, _ any) {
	if c.ctrl != nil && c.ctrl.IsActive() {
		c.observe()
	}
	if c.sw != nil {
		c.sw.caseChanged(c)
	}
}

func (c *Case) FallThroughChanged(_, _ any) {
	if c.sw != nil {
		c.sw.caseChanged(c)
	}
}

// HandleCollectionChange re-evaluates the switch when the list of values mutates
func (c *Case) HandleCollectionChange(observation.Collection, *observation.IndexMap) {
	if c.sw != nil {
		c.sw.caseChanged(c)
	}
}

// Bound subscribes to the list of values once the value bindable holds it
func (c *Case) Bound(_, _ *templating.Controller) async.Result {
	c.observe()
	return async.Ready()
}

func (c *Case) Unbinding(_, _ *templating.Controller) async.Result {
	c.unobserve()
	return async.Ready()
}

func (c *Case) observe() {
	arr, _ := c.Value.(*observation.Array)
	if c.observed != nil && (arr == nil || c.observed.Collection() != observation.ObservableCollection(arr)) {
		c.unobserve()
	}
	if arr != nil && c.observed == nil && c.ctrl != nil {
		c.observed = c.ctrl.Env.Locator.GetCollectionObserver(arr)
		c.observed.Subscribe(c)
	}
}

func (c *Case) activate(initiator *templating.Controller, s *scope.Scope) async.Result {
	if c.view == nil {
		view, err := c.createView()
		if err != nil {
			return async.Fail(err)
		}
		c.view = view
	}
	if c.view.IsActive() {
		return async.Ready()
	}
	return c.view.Activate(orSelf(initiator, c.view), c.ctrl, 0, s, c.ctrl.HostScope)
}

func (c *Case) deactivate(initiator *templating.Controller) async.Result {
	if c.view == nil || !c.view.IsActive() {
		return async.Ready()
	}
	return c.view.Deactivate(orSelf(initiator, c.view), c.ctrl, 0)
}

// Detaching takes the view down with the switch
func (c *Case) Detaching(initiator, _ *templating.Controller) async.Result {
	return c.deactivate(initiator)
}

func (c *Case) unobserve() {
	if c.observed != nil {
		c.observed.Unsubscribe(c)
		c.observed = nil
	}
}

func (c *Case) Dispose() {
	c.unobserve()
	if c.view != nil {
		c.view.Dispose()
		c.view = nil
	}
}
