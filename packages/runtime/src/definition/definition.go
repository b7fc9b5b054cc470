package definition

import (
	"errors"
	"fmt"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/util"
)

// ErrInvalidDefinition is returned when a definition fails validation
var ErrInvalidDefinition = errors.New("invalid definition")

// Constructor creates a view-model. The container is the component's own
// child container, so it resolves the node, render location and other
// contextual services of the component being hydrated.
type Constructor func(c *di.Container) (any, error)

// Resource is anything a container can hold for templates to refer to by name
type Resource interface {
	Register(c *di.Container)
}

// Bindable describes a property a component accepts from its owner
type Bindable struct {
	Name      string       `yaml:"name"`
	Attribute string       `yaml:"attribute,omitempty"`
	Mode      binding.Mode `yaml:"mode,omitempty"`
	Primary   bool         `yaml:"primary,omitempty"`
	// Callback names the view-model method called on change. It defaults to
	// the exported property name followed by "Changed".
	Callback string `yaml:"callback,omitempty"`
	// Set coerces incoming values
	Set func(value any) any `yaml:"-"`
}

// BindableOption configures a Bindable
type BindableOption func(b *Bindable)

// NewBindable creates a bindable whose attribute is the dash-cased name
func NewBindable(name string, opts ...BindableOption) *Bindable {
	b := &Bindable{Name: name}
	for _, opt := range opts {
		opt(b)
	}
	b.normalize()
	return b
}

func (b *Bindable) normalize() {
	if b.Attribute == "" {
		b.Attribute = util.CamelCaseToDashCase(b.Name)
	}
}

// WithMode sets the default binding mode
func WithMode(m binding.Mode) BindableOption {
	return func(b *Bindable) { b.Mode = m }
}

// WithAttribute overrides the attribute name
func WithAttribute(attr string) BindableOption {
	return func(b *Bindable) { b.Attribute = attr }
}

// WithCallback overrides the change callback method name
func WithCallback(method string) BindableOption {
	return func(b *Bindable) { b.Callback = method }
}

// WithSetter installs a coercion
func WithSetter(set func(any) any) BindableOption {
	return func(b *Bindable) { b.Set = set }
}

// AsPrimary marks the bindable that receives an attribute's plain value
func AsPrimary() BindableOption {
	return func(b *Bindable) { b.Primary = true }
}

// Watch observes an expression on the view-model. Callback names a
// view-model method; Fn, when set, is called instead.
type Watch struct {
	Expression string                           `yaml:"expression"`
	Callback   string                           `yaml:"callback,omitempty"`
	Fn         func(vm, newValue, oldValue any) `yaml:"-"`
}

// ElementDefinition is a compiled custom element, or the template of the
// views a template controller creates
type ElementDefinition struct {
	Name string `yaml:"name"`
	// Template is the markup with instruction targets marked by the "au" class
	Template string `yaml:"template"`
	// Instructions holds one row per target, in target order
	Instructions  []Instructions `yaml:"instructions,omitempty"`
	Surrogates    Instructions   `yaml:"surrogates,omitempty"`
	Bindables     []*Bindable    `yaml:"bindables,omitempty"`
	Containerless bool           `yaml:"containerless,omitempty"`
	HasSlots      bool           `yaml:"hasSlots,omitempty"`
	// Injectable registers the view-model in its own container under InjectableKey(Name)
	Injectable bool    `yaml:"injectable,omitempty"`
	Watches    []Watch `yaml:"watches,omitempty"`

	Dependencies []Resource  `yaml:"-"`
	New          Constructor `yaml:"-"`
}

// Bindable returns the bindable named name
func (d *ElementDefinition) Bindable(name string) *Bindable {
	return findBindable(d.Bindables, name)
}

// Register implements Resource
func (d *ElementDefinition) Register(c *di.Container) {
	c.RegisterInstance(ElementKey(d.Name), d)
}

// Validate checks the definition and every nested template
func (d *ElementDefinition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil element definition", ErrInvalidDefinition)
	}
	if err := validateBindables(d.Name, d.Bindables); err != nil {
		return err
	}
	frag, err := dom.ParseFragment(d.Template)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.Name, err)
	}
	if targets := len(dom.FindTargets(frag)); targets != len(d.Instructions) {
		return fmt.Errorf("%w: %s: template has %d targets but %d instruction rows",
			ErrInvalidDefinition, d.displayName(), targets, len(d.Instructions))
	}
	for _, row := range d.Instructions {
		if err := validateRow(row); err != nil {
			return fmt.Errorf("%s: %w", d.displayName(), err)
		}
	}
	return validateRow(d.Surrogates)
}

func (d *ElementDefinition) displayName() string {
	if d.Name == "" {
		return "(anonymous)"
	}
	return d.Name
}

func validateRow(row Instructions) error {
	for _, ins := range row {
		switch i := ins.(type) {
		case nil:
			return fmt.Errorf("%w: nil instruction", ErrInvalidDefinition)
		case *HydrateTemplateController:
			if err := i.Def.Validate(); err != nil {
				return err
			}
		case *HydrateElement:
			for _, p := range i.Projections {
				if err := p.Validate(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// AttributeDefinition is a compiled custom attribute or template controller
type AttributeDefinition struct {
	Name                 string      `yaml:"name"`
	Aliases              []string    `yaml:"aliases,omitempty"`
	Bindables            []*Bindable `yaml:"bindables,omitempty"`
	IsTemplateController bool        `yaml:"isTemplateController,omitempty"`
	// DefaultMode applies to bindables declared without a mode
	DefaultMode binding.Mode `yaml:"defaultMode,omitempty"`
	Watches     []Watch      `yaml:"watches,omitempty"`

	Dependencies []Resource  `yaml:"-"`
	New          Constructor `yaml:"-"`
}

// Bindable returns the bindable named name
func (d *AttributeDefinition) Bindable(name string) *Bindable {
	return findBindable(d.Bindables, name)
}

// Primary returns the primary bindable, or the first one
func (d *AttributeDefinition) Primary() *Bindable {
	for _, b := range d.Bindables {
		if b.Primary {
			return b
		}
	}
	if len(d.Bindables) > 0 {
		return d.Bindables[0]
	}
	return nil
}

// Register implements Resource. Aliases resolve to the same definition.
func (d *AttributeDefinition) Register(c *di.Container) {
	c.RegisterInstance(AttributeKey(d.Name), d)
	for _, alias := range d.Aliases {
		c.RegisterInstance(AttributeKey(alias), d)
	}
}

// Validate checks bindable names
func (d *AttributeDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: attribute without a name", ErrInvalidDefinition)
	}
	return validateBindables(d.Name, d.Bindables)
}

// ValueConverterDefinition registers a value converter
type ValueConverterDefinition struct {
	Name      string
	Converter expression.ValueConverter
}

func (d *ValueConverterDefinition) Register(c *di.Container) {
	c.RegisterInstance(ValueConverterKey(d.Name), d.Converter)
}

// BindingBehaviorDefinition registers a binding behavior. New runs on first use.
type BindingBehaviorDefinition struct {
	Name string
	New  func(c *di.Container) (binding.Behavior, error)
}

func (d *BindingBehaviorDefinition) Register(c *di.Container) {
	c.RegisterSingleton(BindingBehaviorKey(d.Name), func(c *di.Container) (any, error) {
		return d.New(c)
	})
}

type resourceKey struct {
	kind string
	name string
}

func (k resourceKey) String() string {
	return k.kind + ":" + k.name
}

// ElementKey is the container key of the custom element name
func ElementKey(name string) any { return resourceKey{"element", name} }

// AttributeKey is the container key of the custom attribute name
func AttributeKey(name string) any { return resourceKey{"attribute", name} }

// ValueConverterKey is the container key of the value converter name
func ValueConverterKey(name string) any { return resourceKey{"value-converter", name} }

// BindingBehaviorKey is the container key of the binding behavior name
func BindingBehaviorKey(name string) any { return resourceKey{"binding-behavior", name} }

// InjectableKey is the key an injectable element registers its view-model under
func InjectableKey(name string) any { return resourceKey{"injectable", name} }

// FindElement resolves an element definition visible from c
func FindElement(c *di.Container, name string) (*ElementDefinition, bool) {
	v, err := c.Get(ElementKey(name))
	if err != nil {
		return nil, false
	}
	d, ok := v.(*ElementDefinition)
	return d, ok
}

// FindAttribute resolves an attribute definition visible from c
func FindAttribute(c *di.Container, name string) (*AttributeDefinition, bool) {
	v, err := c.Get(AttributeKey(name))
	if err != nil {
		return nil, false
	}
	d, ok := v.(*AttributeDefinition)
	return d, ok
}

// Register registers every resource in c
func Register(c *di.Container, resources ...Resource) {
	for _, r := range resources {
		r.Register(c)
	}
}

func findBindable(bindables []*Bindable, name string) *Bindable {
	for _, b := range bindables {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func validateBindables(owner string, bindables []*Bindable) error {
	seen := make(map[string]bool, len(bindables))
	for _, b := range bindables {
		if b == nil || b.Name == "" {
			return fmt.Errorf("%w: %s: bindable without a name", ErrInvalidDefinition, owner)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: %s: duplicate bindable %q", ErrInvalidDefinition, owner, b.Name)
		}
		seen[b.Name] = true
		b.normalize()
	}
	return nil
}
