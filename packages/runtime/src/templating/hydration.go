package templating

import (
	"fmt"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
)

// HydrationContext links a custom element to the instruction that created it
// and to the hydration context of the element whose template it appears in.
// Slots and spreads walk this chain.
type HydrationContext struct {
	Controller  *Controller
	Instruction *definition.HydrateElement
	Parent      *HydrationContext
}

// Ancestor returns the context depth levels up, nil when the chain is shorter
func (h *HydrationContext) Ancestor(depth int) *HydrationContext {
	cur := h
	for ; cur != nil && depth > 0; depth-- {
		cur = cur.Parent
	}
	return cur
}

// ElementHydration carries what ForCustomElement needs besides the view-model
// and its definition
type ElementHydration struct {
	Container *di.Container
	Host      *html.Node
	// Location replaces Host for containerless elements
	Location    *dom.RenderLocation
	Instruction *definition.HydrateElement
	Parent      *HydrationContext
	SSR         any
	// Nodes are adopted instead of cloning the template, for enhancing markup
	// that is already in the document
	Nodes *dom.NodeSequence
}

// ForCustomElement hydrates a custom element: it runs the hydration hooks,
// creates the bindable observers and renders the template. The controller is
// ready to be activated.
func ForCustomElement(vm any, def *definition.ElementDefinition, h ElementHydration) (_ *Controller, err error) {
	c, err := newController(KindElement, h.Container, vm)
	if err != nil {
		return nil, err
	}
	c.Name = def.Name
	c.Definition = def
	c.Host = h.Host
	c.Location = h.Location
	c.SSR = h.SSR
	if err := c.register(); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			c.registry.remove(c)
		}
	}()
	c.Hydration = &HydrationContext{Controller: c, Instruction: h.Instruction, Parent: h.Parent}
	di.Register(h.Container, HydrationContextKey, c.Hydration)
	di.Register(h.Container, ControllerKey, c)

	if c.hooks.define != nil {
		if d := c.hooks.define.Define(c, h.Parent, def); d != nil {
			def = d
			c.Definition = d
		}
	}
	if c.hooks.hydrating != nil {
		c.hooks.hydrating.Hydrating(c)
	}
	definition.Register(h.Container, def.Dependencies...)
	if def.Injectable {
		h.Container.RegisterInstance(definition.InjectableKey(def.Name), vm)
	}
	c.createObservers(def.Bindables)
	c.Scope = scope.Create(vm, nil, true)

	rendering, err := di.Get(h.Container, RenderingKey)
	if err != nil {
		return nil, err
	}
	owner := h.Container.Parent()
	if owner == nil {
		owner = h.Container
	}
	ctx, err := rendering.Compile(def, owner)
	if err != nil {
		return nil, err
	}
	if c.hooks.hydrated != nil {
		c.hooks.hydrated.Hydrated(c)
	}

	c.Nodes = h.Nodes
	if c.Nodes == nil {
		c.Nodes = ctx.CreateNodes()
	}
	surrogateHost := c.Host
	if def.Containerless && c.Location == nil && c.Host != nil {
		c.Location = dom.ConvertToRenderLocation(c.Host)
	}
	if c.Location != nil {
		surrogateHost = nil
	}
	if err := ctx.Render(c, c.Nodes.Targets(), surrogateHost); err != nil {
		return nil, err
	}
	if err := c.setupWatches(def.Watches); err != nil {
		return nil, err
	}
	if c.hooks.created != nil {
		c.hooks.created.Created(c)
	}
	c.logger.Debug("hydrated", "controller", c.Path(), "targets", len(c.Nodes.Targets()))
	return c, nil
}

// ForCustomAttribute creates the controller of a custom attribute or template
// controller on host
func ForCustomAttribute(vm any, def *definition.AttributeDefinition, container *di.Container, host *html.Node) (*Controller, error) {
	c, err := newController(KindAttribute, container, vm)
	if err != nil {
		return nil, err
	}
	c.Name = def.Name
	c.AttributeDefinition = def
	c.Host = host
	if err := c.register(); err != nil {
		return nil, err
	}
	di.Register(container, ControllerKey, c)
	definition.Register(container, def.Dependencies...)
	c.createObservers(def.Bindables)
	if err := c.setupWatches(def.Watches); err != nil {
		c.registry.remove(c)
		return nil, err
	}
	if c.hooks.created != nil {
		c.hooks.created.Created(c)
	}
	return c, nil
}

// register claims the view-model for c
func (c *Controller) register() error {
	if existing, ok := c.registry.For(c.ViewModel); ok {
		return fmt.Errorf("%w: %T is controlled by %s", ErrViewModelInUse, c.ViewModel, existing.Path())
	}
	c.registry.add(c)
	return nil
}

func (c *Controller) createObservers(bindables []*definition.Bindable) {
	c.observers = make(map[string]*observation.BindableObserver, len(bindables))
	for _, b := range bindables {
		b := b
		cb := changeCallback(c.ViewModel, b)
		var changed func(newValue, oldValue any)
		if cb != nil || c.hooks.changed != nil {
			changed = func(newValue, oldValue any) {
				if cb != nil {
					cb(newValue, oldValue)
				}
				if c.hooks.changed != nil {
					c.hooks.changed.PropertyChanged(b.Name, newValue, oldValue)
				}
			}
		}
		c.observers[b.Name] = c.Env.Locator.NewBindableObserver(c.ViewModel, b.Name, observation.BindableOptions{
			Changed:   changed,
			CanNotify: c.canNotify,
			Coerce:    b.Set,
			OnError: func(err error) {
				c.logger.Error("bindable write failed", "controller", c.Path(), "property", b.Name, "error", err)
			},
		})
	}
}
