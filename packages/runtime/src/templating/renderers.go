package templating

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
)

// ForOfReceiver is implemented by view-models that need the parsed for-of
// declaration of their iterator binding, such as repeat
type ForOfReceiver interface {
	SetForOf(f *expression.ForOf)
}

func defaultRenderers() map[definition.InstructionType]Renderer {
	return map[definition.InstructionType]Renderer{
		definition.TypeHydrateElement:            RendererFunc(renderElement),
		definition.TypeHydrateAttribute:          RendererFunc(renderAttribute),
		definition.TypeHydrateTemplateController: RendererFunc(renderTemplateController),
		definition.TypeHydrateLetElement:         RendererFunc(renderLetElement),
		definition.TypeSetProperty:               RendererFunc(renderSetProperty),
		definition.TypeInterpolation:             RendererFunc(renderInterpolation),
		definition.TypePropertyBinding:           RendererFunc(renderPropertyBinding),
		definition.TypeLetBinding:                RendererFunc(renderLetBinding),
		definition.TypeRefBinding:                RendererFunc(renderRefBinding),
		definition.TypeIteratorBinding:           RendererFunc(renderIteratorBinding),
		definition.TypeTextBinding:               RendererFunc(renderTextBinding),
		definition.TypeListenerBinding:           RendererFunc(renderListenerBinding),
		definition.TypeAttributeBinding:          RendererFunc(renderAttributeBinding),
		definition.TypeStylePropertyBinding:      RendererFunc(renderStylePropertyBinding),
		definition.TypeSetAttribute:              RendererFunc(renderSetAttribute),
		definition.TypeSetClassAttribute:         RendererFunc(renderSetClassAttribute),
		definition.TypeSetStyleAttribute:         RendererFunc(renderSetStyleAttribute),
		definition.TypeSpreadBinding:             RendererFunc(renderSpreadBinding),
		definition.TypeSpreadElementProp:         RendererFunc(renderSpreadElementProp),
	}
}

func nodeOf(target any, ins definition.Instruction) (*html.Node, error) {
	n, ok := target.(*html.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %q needs a node, got %T", ErrTargetMismatch, ins.Type(), target)
	}
	return n, nil
}

func newViewModel(ctor definition.Constructor, c *di.Container) (any, error) {
	if ctor == nil {
		return observation.NewObject(nil), nil
	}
	return ctor(c)
}

func renderElement(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.HydrateElement)
	oc := owner.RenderingController()
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	def, ok := definition.FindElement(oc.Container, i.Res)
	if !ok {
		return fmt.Errorf("%w: element %q", ErrResourceNotFound, i.Res)
	}
	child := oc.Container.CreateChild()
	di.Register(child, NodeKey, node)
	di.Register(child, InstructionKey, ins)
	var loc *dom.RenderLocation
	if i.Containerless || def.Containerless {
		loc = dom.ConvertToRenderLocation(node)
		di.Register(child, RenderLocationKey, loc)
	}
	vm, err := newViewModel(def.New, child)
	if err != nil {
		return fmt.Errorf("create %s: %w", i.Res, err)
	}
	c, err := ForCustomElement(vm, def, ElementHydration{
		Container:   child,
		Host:        node,
		Location:    loc,
		Instruction: i,
		Parent:      oc.Hydration,
		SSR:         oc.SSR,
	})
	if err != nil {
		return err
	}
	if err := r.RenderAll(owner, vm, i.Props); err != nil {
		return err
	}
	owner.AddChild(c)
	return nil
}

func renderAttribute(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.HydrateAttribute)
	oc := owner.RenderingController()
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	def, ok := definition.FindAttribute(oc.Container, i.Res)
	if !ok {
		return fmt.Errorf("%w: attribute %q", ErrResourceNotFound, i.Res)
	}
	child := oc.Container.CreateChild()
	di.Register(child, NodeKey, node)
	di.Register(child, InstructionKey, ins)
	vm, err := newViewModel(def.New, child)
	if err != nil {
		return fmt.Errorf("create %s: %w", i.Res, err)
	}
	c, err := ForCustomAttribute(vm, def, child, node)
	if err != nil {
		return err
	}
	return linkAttribute(r, owner, c, target, ins, i.Props)
}

func renderTemplateController(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.HydrateTemplateController)
	oc := owner.RenderingController()
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	def, ok := definition.FindAttribute(oc.Container, i.Res)
	if !ok {
		return fmt.Errorf("%w: template controller %q", ErrResourceNotFound, i.Res)
	}
	loc := dom.ConvertToRenderLocation(node)
	factory, err := NewViewFactory(r, i.Def, oc.Container)
	if err != nil {
		return err
	}
	if factory.Name == "" {
		factory.Name = i.Res
	}
	if size, err := di.Get(oc.Container, ViewCacheSizeKey); err == nil {
		factory.SetCacheSize(size, true)
	}
	child := oc.Container.CreateChild()
	di.Register(child, NodeKey, loc.End)
	di.Register(child, InstructionKey, ins)
	di.Register(child, RenderLocationKey, loc)
	di.Register(child, ViewFactoryKey, factory)
	vm, err := newViewModel(def.New, child)
	if err != nil {
		return fmt.Errorf("create %s: %w", i.Res, err)
	}
	c, err := ForCustomAttribute(vm, def, child, loc.End)
	if err != nil {
		return err
	}
	c.Location = loc
	c.Hydration = oc.Hydration
	c.SSR = oc.SSR
	return linkAttribute(r, owner, c, target, ins, i.Props)
}

// linkAttribute renders the props of an attribute with the attribute as
// their owner, so they bind in its binding phase, then adds it to owner
func linkAttribute(r *Rendering, owner Owner, c *Controller, target any, ins definition.Instruction, props definition.Instructions) error {
	if err := r.RenderAll(c, c.ViewModel, props); err != nil {
		return err
	}
	if c.hooks.link != nil {
		if err := c.hooks.link.Link(owner, c, target, ins); err != nil {
			return err
		}
	}
	owner.AddChild(c)
	return nil
}

func renderLetElement(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.HydrateLetElement)
	oc := owner.RenderingController()
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	dom.Detach(node)
	for _, let := range i.Instructions {
		ast, err := r.parse(let.From, expression.TypeProperty)
		if err != nil {
			return err
		}
		owner.AddBinding(binding.NewLetBinding(oc.Env, ast, let.To, i.ToBindingContext))
	}
	return nil
}

func renderLetBinding(r *Rendering, owner Owner, _ any, ins definition.Instruction) error {
	i := ins.(*definition.LetBinding)
	ast, err := r.parse(i.From, expression.TypeProperty)
	if err != nil {
		return err
	}
	owner.AddBinding(binding.NewLetBinding(owner.RenderingController().Env, ast, i.To, false))
	return nil
}

func renderSetProperty(_ *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.SetProperty)
	return owner.RenderingController().Env.Locator.SetValue(target, i.To, i.Value)
}

func renderInterpolation(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.Interpolation)
	oc := owner.RenderingController()
	ast, err := r.parse(i.From, expression.TypeInterpolation)
	if err != nil {
		return err
	}
	if ast == nil {
		return oc.Env.Locator.SetValue(target, i.To, i.From)
	}
	owner.AddBinding(binding.NewInterpolationBinding(oc.Env, ast.(*expression.Interpolation), target, i.To))
	return nil
}

func renderPropertyBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.PropertyBinding)
	oc := owner.RenderingController()
	ast, err := r.parse(i.From, expression.TypeProperty)
	if err != nil {
		return err
	}
	mode := resolveMode(oc.registry, target, i.To, i.Mode)
	owner.AddBinding(binding.NewPropertyBinding(oc.Env, ast, target, i.To, mode))
	return nil
}

// resolveMode picks the mode of a binding declared without one: the
// bindable's mode, then the attribute's default mode, then two-way for form
// values and to-view for everything else
func resolveMode(reg *Registry, target any, property string, mode binding.Mode) binding.Mode {
	if mode != binding.Default {
		return mode
	}
	if c, ok := reg.For(target); ok {
		var b *definition.Bindable
		switch {
		case c.Definition != nil && c.Kind == KindElement:
			b = c.Definition.Bindable(property)
		case c.AttributeDefinition != nil:
			b = c.AttributeDefinition.Bindable(property)
			if (b == nil || b.Mode == binding.Default) && c.AttributeDefinition.DefaultMode != binding.Default {
				return c.AttributeDefinition.DefaultMode
			}
		}
		if b != nil && b.Mode != binding.Default {
			return b.Mode
		}
		return binding.ToView
	}
	if n, ok := target.(*html.Node); ok && n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			if property == "value" || property == "checked" {
				return binding.TwoWay
			}
		}
	}
	return binding.ToView
}

func renderRefBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.RefBinding)
	oc := owner.RenderingController()
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	ast, err := r.parse(i.From, expression.TypeProperty)
	if err != nil {
		return err
	}
	var value any
	switch i.To {
	case "", "element":
		value = node
	case "controller", "component", "view-model":
		c, ok := oc.registry.ElementFor(node)
		if !ok {
			return fmt.Errorf("%w: no custom element on <%s> for ref %q", ErrResourceNotFound, node.Data, i.From)
		}
		value = c.ViewModel
		if i.To == "controller" {
			value = c
		}
	default:
		c, ok := oc.registry.AttributeFor(node, i.To)
		if !ok {
			return fmt.Errorf("%w: no attribute %q on <%s>", ErrResourceNotFound, i.To, node.Data)
		}
		value = c.ViewModel
	}
	owner.AddBinding(binding.NewRefBinding(oc.Env, ast, value))
	return nil
}

func renderIteratorBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.IteratorBinding)
	ast, err := r.parse(i.From, expression.TypeIterator)
	if err != nil {
		return err
	}
	forOf, ok := ast.(*expression.ForOf)
	if !ok {
		return fmt.Errorf("%w: %q is not a for-of declaration", expression.ErrParse, i.From)
	}
	if recv, ok := target.(ForOfReceiver); ok {
		recv.SetForOf(forOf)
	}
	owner.AddBinding(binding.NewPropertyBinding(owner.RenderingController().Env, forOf, target, i.To, binding.ToView))
	return nil
}

func renderTextBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.TextBinding)
	oc := owner.RenderingController()
	end, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	ast, err := r.parse(i.From, expression.TypeInterpolation)
	if err != nil {
		return err
	}
	text := dom.CreateText("")
	dom.InsertBefore(text, end)
	dom.LocationOf(end).Remove()
	if ast == nil {
		text.Data = i.From
		return nil
	}
	interp := ast.(*expression.Interpolation)
	if interp.IsSimple() {
		owner.AddBinding(binding.NewContentBinding(oc.Env, interp.Expressions[0], text))
		return nil
	}
	owner.AddBinding(binding.NewInterpolationBinding(oc.Env, interp, text, "textContent"))
	return nil
}

func renderListenerBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.ListenerBinding)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	ast, err := r.parse(i.From, expression.TypeFunction)
	if err != nil {
		return err
	}
	owner.AddBinding(binding.NewListenerBinding(owner.RenderingController().Env, ast, node, i.To, i.PreventDefault))
	return nil
}

func renderAttributeBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.AttributeBinding)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	ast, err := r.parse(i.From, expression.TypeProperty)
	if err != nil {
		return err
	}
	owner.AddBinding(binding.NewAttributeBinding(owner.RenderingController().Env, ast, node, i.Attr, i.To))
	return nil
}

func renderStylePropertyBinding(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.StylePropertyBinding)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	ast, err := r.parse(i.From, expression.TypeProperty)
	if err != nil {
		return err
	}
	owner.AddBinding(binding.NewAttributeBinding(owner.RenderingController().Env, ast, node, "style", i.To))
	return nil
}

func renderSetAttribute(_ *Rendering, _ Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.SetAttribute)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	dom.SetAttr(node, i.To, i.Value)
	return nil
}

func renderSetClassAttribute(_ *Rendering, _ Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.SetClassAttribute)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	dom.AddClass(node, strings.Fields(i.Value)...)
	return nil
}

func renderSetStyleAttribute(_ *Rendering, _ Owner, target any, ins definition.Instruction) error {
	i := ins.(*definition.SetStyleAttribute)
	node, err := nodeOf(target, ins)
	if err != nil {
		return err
	}
	for _, decl := range strings.Split(i.Value, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		binding.SetStyleProperty(node, strings.TrimSpace(prop), strings.TrimSpace(value))
	}
	return nil
}
