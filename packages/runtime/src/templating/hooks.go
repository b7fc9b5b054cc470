package templating

import (
	"reflect"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/util"
)

// Lifecycle hooks a view-model may implement. Every hook is optional.
type (
	// Definer may replace the definition of a custom element before it is compiled
	Definer interface {
		Define(c *Controller, hydration *HydrationContext, def *definition.ElementDefinition) *definition.ElementDefinition
	}
	HydratingHook interface{ Hydrating(c *Controller) }
	HydratedHook  interface{ Hydrated(c *Controller) }
	// CreatedHook runs once the controller and its children exist
	CreatedHook interface{ Created(c *Controller) }
	BindingHook interface {
		Binding(initiator, parent *Controller) async.Result
	}
	BoundHook interface {
		Bound(initiator, parent *Controller) async.Result
	}
	AttachingHook interface {
		Attaching(initiator, parent *Controller) async.Result
	}
	AttachedHook interface {
		Attached(initiator *Controller) async.Result
	}
	DetachingHook interface {
		Detaching(initiator, parent *Controller) async.Result
	}
	UnbindingHook interface {
		Unbinding(initiator, parent *Controller) async.Result
	}
	DisposeHook interface{ Dispose() }
	// LinkHook runs for custom attributes after their props are rendered and
	// before the attribute becomes a child of owner
	LinkHook interface {
		Link(owner Owner, c *Controller, target any, ins definition.Instruction) error
	}
	// PropertyChangedHook is called for every bindable change
	PropertyChangedHook interface {
		PropertyChanged(name string, newValue, oldValue any)
	}
)

// hooks is the capability record of a view-model, computed once at hydration
type hooks struct {
	define    Definer
	hydrating HydratingHook
	hydrated  HydratedHook
	created   CreatedHook
	binding   BindingHook
	bound     BoundHook
	attaching AttachingHook
	attached  AttachedHook
	detaching DetachingHook
	unbinding UnbindingHook
	dispose   DisposeHook
	link      LinkHook
	changed   PropertyChangedHook
}

func hooksOf(vm any) hooks {
	var h hooks
	if vm == nil {
		return h
	}
	h.define, _ = vm.(Definer)
	h.hydrating, _ = vm.(HydratingHook)
	h.hydrated, _ = vm.(HydratedHook)
	h.created, _ = vm.(CreatedHook)
	h.binding, _ = vm.(BindingHook)
	h.bound, _ = vm.(BoundHook)
	h.attaching, _ = vm.(AttachingHook)
	h.attached, _ = vm.(AttachedHook)
	h.detaching, _ = vm.(DetachingHook)
	h.unbinding, _ = vm.(UnbindingHook)
	h.dispose, _ = vm.(DisposeHook)
	h.link, _ = vm.(LinkHook)
	h.changed, _ = vm.(PropertyChangedHook)
	return h
}

var changeCallbackType = reflect.TypeOf(func(any, any) {})

// changeCallback finds the method called when bindable b changes:
// ValueChanged(newValue, oldValue any) for a bindable named value
func changeCallback(vm any, b *definition.Bindable) func(newValue, oldValue any) {
	name := b.Callback
	if name == "" {
		name = exported(b.Name) + "Changed"
	}
	m := reflect.ValueOf(vm).MethodByName(name)
	if !m.IsValid() || !m.Type().ConvertibleTo(changeCallbackType) {
		return nil
	}
	return m.Convert(changeCallbackType).Interface().(func(any, any))
}

func exported(name string) string {
	name = util.DashCaseToCamelCase(name)
	if name == "" {
		return name
	}
	if c := name[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + name[1:]
	}
	return name
}
