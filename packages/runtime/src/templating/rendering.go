package templating

import (
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
)

// Renderer turns one instruction into bindings or child controllers on owner
type Renderer interface {
	Render(r *Rendering, owner Owner, target any, ins definition.Instruction) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(r *Rendering, owner Owner, target any, ins definition.Instruction) error

func (f RendererFunc) Render(r *Rendering, owner Owner, target any, ins definition.Instruction) error {
	return f(r, owner, target, ins)
}

type contextKey struct {
	def       *definition.ElementDefinition
	container *di.Container
}

// Rendering dispatches instructions to renderers and caches the compiled
// render context of each definition per container.
type Rendering struct {
	Parser *expression.Parser

	mu        sync.Mutex
	renderers map[definition.InstructionType]Renderer
	contexts  map[contextKey]*RenderContext
}

// NewRendering creates a Rendering with a renderer for every built-in instruction
func NewRendering() *Rendering {
	r := &Rendering{
		Parser:    expression.NewParser(),
		renderers: make(map[definition.InstructionType]Renderer),
		contexts:  make(map[contextKey]*RenderContext),
	}
	for t, rd := range defaultRenderers() {
		r.renderers[t] = rd
	}
	return r
}

// Register installs rd for instructions of type t, replacing any renderer already there
func (r *Rendering) Register(t definition.InstructionType, rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[t] = rd
}

// Render renders a single instruction
func (r *Rendering) Render(owner Owner, target any, ins definition.Instruction) error {
	r.mu.Lock()
	rd, ok := r.renderers[ins.Type()]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoRenderer, ins.Type())
	}
	return rd.Render(r, owner, target, ins)
}

// RenderAll renders instructions in order against one target
func (r *Rendering) RenderAll(owner Owner, target any, instructions definition.Instructions) error {
	for _, ins := range instructions {
		if err := r.Render(owner, target, ins); err != nil {
			return err
		}
	}
	return nil
}

// Compile returns the render context of def for container, creating it on first use
func (r *Rendering) Compile(def *definition.ElementDefinition, container *di.Container) (*RenderContext, error) {
	key := contextKey{def, container}
	r.mu.Lock()
	ctx, ok := r.contexts[key]
	r.mu.Unlock()
	if ok {
		return ctx, nil
	}
	var template *html.Node
	if def.Template != "" {
		frag, err := dom.ParseFragment(def.Template)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", def.Name, err)
		}
		template = frag
	}
	ctx = &RenderContext{Definition: def, Container: container, rendering: r, template: template}
	r.mu.Lock()
	if existing, ok := r.contexts[key]; ok {
		ctx = existing
	} else {
		r.contexts[key] = ctx
	}
	r.mu.Unlock()
	return ctx, nil
}

func (r *Rendering) parse(src string, typ expression.ExpressionType) (expression.AST, error) {
	return r.Parser.Parse(src, typ)
}

// RenderContext is a definition compiled for one container: its template is
// parsed once and cloned for every view.
type RenderContext struct {
	Definition *definition.ElementDefinition
	Container  *di.Container

	rendering *Rendering
	template  *html.Node
}

// CreateNodes clones the template into a fresh, unmounted node sequence
func (ctx *RenderContext) CreateNodes() *dom.NodeSequence {
	if ctx.template == nil {
		return dom.EmptySequence()
	}
	return dom.NewNodeSequence(dom.Clone(ctx.template))
}

// Render renders each instruction row against its target and the surrogates
// against host
func (ctx *RenderContext) Render(owner Owner, targets []*html.Node, host *html.Node) error {
	rows := ctx.Definition.Instructions
	if len(targets) != len(rows) {
		return fmt.Errorf("%w: %s has %d targets for %d instruction rows",
			ErrTargetMismatch, owner.RenderingController().Path(), len(targets), len(rows))
	}
	for i, row := range rows {
		if err := ctx.rendering.RenderAll(owner, targets[i], row); err != nil {
			return err
		}
	}
	if host != nil && len(ctx.Definition.Surrogates) > 0 {
		return ctx.rendering.RenderAll(owner, host, ctx.Definition.Surrogates)
	}
	return nil
}

// containerResources resolves the resources expressions name from a
// component's container
type containerResources struct {
	c *di.Container
}

func (r containerResources) ValueConverter(name string) (expression.ValueConverter, error) {
	v, err := r.c.Get(definition.ValueConverterKey(name))
	if err != nil {
		return nil, fmt.Errorf("%w: value converter %q", expression.ErrNoConverter, name)
	}
	vc, ok := v.(expression.ValueConverter)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T", expression.ErrNoConverter, name, v)
	}
	return vc, nil
}

func (r containerResources) BindingBehavior(name string) (binding.Behavior, error) {
	v, err := r.c.Get(definition.BindingBehaviorKey(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", binding.ErrBehaviorNotFound, name)
	}
	b, ok := v.(binding.Behavior)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T", binding.ErrBehaviorNotFound, name, v)
	}
	return b, nil
}
