package templating

import (
	"fmt"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/scope"
)

// DefaultSlotName names the slot of content projected without a name
const DefaultSlotName = "default"

// AuSlotDefinition is the containerless <au-slot> element. Content the user
// of a component projects into a slot evaluates in the user's scope, with
// $host resolving to the component. Without projected content the slot shows
// its own fallback content in the component's scope.
func AuSlotDefinition() *definition.ElementDefinition {
	return &definition.ElementDefinition{
		Name:          "au-slot",
		Containerless: true,
		Bindables:     []*definition.Bindable{definition.NewBindable("name")},
		New:           newAuSlot,
	}
}

// AuSlot is the view-model of <au-slot>
type AuSlot struct {
	Name string

	// Projected reports whether the view shows projected content rather than fallback
	Projected bool

	owner   *HydrationContext
	ctrl    *Controller
	factory *ViewFactory
	view    *Controller
}

func newAuSlot(c *di.Container) (any, error) {
	ins, err := di.Get(c, InstructionKey)
	if err != nil {
		return nil, err
	}
	own, ok := ins.(*definition.HydrateElement)
	if !ok {
		return nil, fmt.Errorf("au-slot created by a %q instruction", ins.Type())
	}
	owner, err := di.Get(c, HydrationContextKey)
	if err != nil {
		return nil, fmt.Errorf("%w: au-slot outside of a custom element", ErrNoHydrationContext)
	}
	rendering, err := di.Get(c, RenderingKey)
	if err != nil {
		return nil, err
	}
	s := &AuSlot{Name: DefaultSlotName, owner: owner}
	for _, p := range own.Props {
		if sp, ok := p.(*definition.SetProperty); ok && sp.To == "name" {
			if name, ok := sp.Value.(string); ok && name != "" {
				s.Name = name
			}
		}
	}

	def := own.Projections[DefaultSlotName]
	container := c
	if owner.Instruction != nil {
		if projected := owner.Instruction.Projections[s.Name]; projected != nil {
			def = projected
			s.Projected = true
			if outer := owner.Controller.Container.Parent(); outer != nil {
				container = outer
			}
		}
	}
	if def == nil {
		return s, nil
	}
	s.factory, err = NewViewFactory(rendering, def, container)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AuSlot) Created(c *Controller) {
	s.ctrl = c
}

// Binding creates the view on first activation
func (s *AuSlot) Binding(_, _ *Controller) async.Result {
	if s.factory == nil || s.view != nil {
		return async.Ready()
	}
	c := s.ctrl
	view, err := s.factory.Create(c)
	if err != nil {
		return async.Fail(err)
	}
	if s.Projected {
		view.Hydration = s.owner.Parent
	}
	view.SetLocation(c.Location)
	s.view = view
	return async.Ready()
}

// Attaching activates the view in the projecting or the fallback scope
func (s *AuSlot) Attaching(initiator, _ *Controller) async.Result {
	if s.view == nil {
		return async.Ready()
	}
	c := s.ctrl
	var outer, host *scope.Scope
	if s.Projected {
		el := s.owner.Controller
		outer, host = el.Scope.Parent, el.Scope
	} else {
		outer, host = c.Scope.Parent, c.HostScope
	}
	return s.view.Activate(initiator, c, 0, outer, host)
}

// Detaching deactivates the view along with the slot
func (s *AuSlot) Detaching(initiator, _ *Controller) async.Result {
	if s.view == nil {
		return async.Ready()
	}
	return s.view.Deactivate(initiator, s.ctrl, 0)
}

// Dispose disposes the view
func (s *AuSlot) Dispose() {
	if s.view != nil {
		s.view.Dispose()
		s.view = nil
	}
}
