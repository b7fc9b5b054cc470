package definition

import "au-go/packages/runtime/src/binding"

// ElementBuilder assembles an ElementDefinition
type ElementBuilder struct {
	def *ElementDefinition
}

// NewElement starts the definition of the custom element name
func NewElement(name string) *ElementBuilder {
	return &ElementBuilder{def: &ElementDefinition{Name: name}}
}

// NewView starts the definition of a template controller's view
func NewView(template string) *ElementBuilder {
	return &ElementBuilder{def: &ElementDefinition{Template: template}}
}

func (b *ElementBuilder) Template(markup string) *ElementBuilder {
	b.def.Template = markup
	return b
}

// Target appends the instruction row of the next target
func (b *ElementBuilder) Target(ins ...Instruction) *ElementBuilder {
	b.def.Instructions = append(b.def.Instructions, Instructions(ins))
	return b
}

func (b *ElementBuilder) Surrogate(ins ...Instruction) *ElementBuilder {
	b.def.Surrogates = append(b.def.Surrogates, ins...)
	return b
}

func (b *ElementBuilder) Bindable(name string, opts ...BindableOption) *ElementBuilder {
	b.def.Bindables = append(b.def.Bindables, NewBindable(name, opts...))
	return b
}

func (b *ElementBuilder) Containerless() *ElementBuilder {
	b.def.Containerless = true
	return b
}

func (b *ElementBuilder) Injectable() *ElementBuilder {
	b.def.Injectable = true
	return b
}

func (b *ElementBuilder) Watch(expression string, fn func(vm, newValue, oldValue any)) *ElementBuilder {
	b.def.Watches = append(b.def.Watches, Watch{Expression: expression, Fn: fn})
	return b
}

func (b *ElementBuilder) Dependencies(resources ...Resource) *ElementBuilder {
	b.def.Dependencies = append(b.def.Dependencies, resources...)
	return b
}

// ViewModel sets the view-model constructor
func (b *ElementBuilder) ViewModel(ctor Constructor) *ElementBuilder {
	b.def.New = ctor
	return b
}

// Build validates and returns the definition
func (b *ElementBuilder) Build() (*ElementDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return b.def, nil
}

// MustBuild is Build for definitions known to be valid
func (b *ElementBuilder) MustBuild() *ElementDefinition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

// AttributeBuilder assembles an AttributeDefinition
type AttributeBuilder struct {
	def *AttributeDefinition
}

// NewAttribute starts the definition of the custom attribute name
func NewAttribute(name string) *AttributeBuilder {
	return &AttributeBuilder{def: &AttributeDefinition{Name: name}}
}

// NewTemplateController starts the definition of the template controller name
func NewTemplateController(name string) *AttributeBuilder {
	return &AttributeBuilder{def: &AttributeDefinition{Name: name, IsTemplateController: true}}
}

func (b *AttributeBuilder) Alias(names ...string) *AttributeBuilder {
	b.def.Aliases = append(b.def.Aliases, names...)
	return b
}

func (b *AttributeBuilder) Bindable(name string, opts ...BindableOption) *AttributeBuilder {
	b.def.Bindables = append(b.def.Bindables, NewBindable(name, opts...))
	return b
}

func (b *AttributeBuilder) DefaultMode(m binding.Mode) *AttributeBuilder {
	b.def.DefaultMode = m
	return b
}

func (b *AttributeBuilder) Watch(expression string, fn func(vm, newValue, oldValue any)) *AttributeBuilder {
	b.def.Watches = append(b.def.Watches, Watch{Expression: expression, Fn: fn})
	return b
}

func (b *AttributeBuilder) Dependencies(resources ...Resource) *AttributeBuilder {
	b.def.Dependencies = append(b.def.Dependencies, resources...)
	return b
}

func (b *AttributeBuilder) ViewModel(ctor Constructor) *AttributeBuilder {
	b.def.New = ctor
	return b
}

func (b *AttributeBuilder) Build() (*AttributeDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return b.def, nil
}

func (b *AttributeBuilder) MustBuild() *AttributeDefinition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
