package templating

import (
	"fmt"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/scope"
)

// SpreadBinding applies the attributes a custom element captured from its
// usage site to a node inside the element's template. The captured bindings
// evaluate in the scope the element was used in.
type SpreadBinding struct {
	// Context is the hydration context whose captures are spread
	Context *HydrationContext

	owner    *Controller
	bindings []binding.Binding
	children []*Controller
	bound    bool
}

// RenderingController implements Owner
func (b *SpreadBinding) RenderingController() *Controller {
	return b.Context.Controller
}

// AddBinding implements Owner
func (b *SpreadBinding) AddBinding(inner binding.Binding) {
	b.bindings = append(b.bindings, inner)
}

// AddChild implements Owner
func (b *SpreadBinding) AddChild(c *Controller) {
	b.children = append(b.children, c)
}

func (b *SpreadBinding) Bind(_, _ *scope.Scope) error {
	if b.bound {
		return nil
	}
	el := b.Context.Controller
	if el.Scope == nil || el.Scope.Parent == nil {
		return fmt.Errorf("%w: spread of %s", ErrNoScope, el.Path())
	}
	s, host := el.Scope.Parent, el.HostScope
	for _, inner := range b.bindings {
		if err := inner.Bind(s, host); err != nil {
			return err
		}
	}
	for _, c := range b.children {
		if err := c.Activate(c, b.owner, 0, s, host).Err(); err != nil {
			return err
		}
	}
	b.bound = true
	return nil
}

func (b *SpreadBinding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	results := make([]async.Result, 0, len(b.children))
	for _, c := range b.children {
		results = append(results, c.Deactivate(c, b.owner, 0))
	}
	if err := async.All(results...).Err(); err != nil {
		b.owner.logger.Error("spread deactivation failed", "controller", b.owner.Path(), "error", err)
	}
	for _, inner := range b.bindings {
		inner.Unbind()
	}
}

func (b *SpreadBinding) IsBound() bool {
	return b.bound
}

func renderSpreadBinding(r *Rendering, owner Owner, target any, _ definition.Instruction) error {
	oc := owner.RenderingController()
	return spread(r, owner, oc.Hydration, 0, target)
}

// spread renders the captures of the hydration context depth levels above
// base. A captured spread forwards the captures of the next level up.
func spread(r *Rendering, owner Owner, base *HydrationContext, depth int, target any) error {
	ctx := base.Ancestor(depth)
	if ctx == nil || ctx.Controller == nil {
		return fmt.Errorf("%w: %d levels up from %s", ErrNoHydrationContext, depth, owner.RenderingController().Path())
	}
	b := &SpreadBinding{Context: ctx, owner: owner.RenderingController()}
	if ctx.Instruction != nil {
		for _, ins := range ctx.Instruction.Captures {
			if ins.Type() == definition.TypeSpreadBinding {
				if err := spread(r, b, base, depth+1, target); err != nil {
					return err
				}
				continue
			}
			if err := r.Render(b, target, ins); err != nil {
				return err
			}
		}
	}
	owner.AddBinding(b)
	return nil
}

func renderSpreadElementProp(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.SpreadElementProp)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	c, ok := owner.RenderingController().registry.ElementFor(node)
	if !ok {
		return fmt.Errorf("%w: no custom element on <%s> to spread into", ErrResourceNotFound, node.Data)
	}
	return r.Render(owner, c.ViewModel, i.Instruction)
}
