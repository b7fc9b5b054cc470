// Package definition holds the compiled form of components: render
// instructions, element and attribute definitions, bindables and the
// resources a template refers to by name.
package definition

import (
	"au-go/packages/runtime/src/binding"
)

// InstructionType is the short tag that selects a renderer
type InstructionType string

const (
	TypeHydrateElement            InstructionType = "ra"
	TypeHydrateAttribute          InstructionType = "rb"
	TypeHydrateTemplateController InstructionType = "rc"
	TypeHydrateLetElement         InstructionType = "rd"
	TypeSetProperty               InstructionType = "re"
	TypeInterpolation             InstructionType = "rf"
	TypePropertyBinding           InstructionType = "rg"
	TypeLetBinding                InstructionType = "ri"
	TypeRefBinding                InstructionType = "rj"
	TypeIteratorBinding           InstructionType = "rk"
	TypeTextBinding               InstructionType = "ha"
	TypeListenerBinding           InstructionType = "hb"
	TypeAttributeBinding          InstructionType = "hc"
	TypeStylePropertyBinding      InstructionType = "hd"
	TypeSetAttribute              InstructionType = "he"
	TypeSetClassAttribute         InstructionType = "hf"
	TypeSetStyleAttribute         InstructionType = "hg"
	TypeSpreadBinding             InstructionType = "hs"
	TypeSpreadElementProp         InstructionType = "hp"
)

// Instruction tells a renderer what to create for one target
type Instruction interface {
	Type() InstructionType
}

// HydrateElement instantiates a custom element on its target
type HydrateElement struct {
	Res string `yaml:"res"`
	// Props render against the new view-model in the scope of the owner
	Props Instructions `yaml:"props,omitempty"`
	// Projections holds the au-slot content by slot name
	Projections   map[string]*ElementDefinition `yaml:"projections,omitempty"`
	Containerless bool                          `yaml:"containerless,omitempty"`
	// Captures are the attributes a spread binding inside the element can forward
	Captures Instructions `yaml:"captures,omitempty"`
}

// HydrateAttribute instantiates a custom attribute on its target
type HydrateAttribute struct {
	Res   string       `yaml:"res"`
	Alias string       `yaml:"alias,omitempty"`
	Props Instructions `yaml:"props,omitempty"`
}

// HydrateTemplateController instantiates a template controller on a render
// location. Def is the template of the views the controller creates.
type HydrateTemplateController struct {
	Res   string             `yaml:"res"`
	Alias string             `yaml:"alias,omitempty"`
	Def   *ElementDefinition `yaml:"def"`
	Props Instructions       `yaml:"props,omitempty"`
}

// HydrateLetElement declares <let> values
type HydrateLetElement struct {
	Instructions     []*LetBinding `yaml:"instructions"`
	ToBindingContext bool          `yaml:"toBindingContext,omitempty"`
}

// SetProperty assigns a constant to the target property
type SetProperty struct {
	Value any    `yaml:"value"`
	To    string `yaml:"to"`
}

// Interpolation binds an interpolated string to the target property
type Interpolation struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PropertyBinding binds an expression to the target property
type PropertyBinding struct {
	From string       `yaml:"from"`
	To   string       `yaml:"to"`
	Mode binding.Mode `yaml:"mode,omitempty"`
}

// LetBinding is one declaration of a <let> element
type LetBinding struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RefBinding assigns the target to an expression. To selects what is
// assigned: "element", "controller", "component" or a custom attribute name.
type RefBinding struct {
	From string `yaml:"from"`
	To   string `yaml:"to,omitempty"`
}

// IteratorBinding binds a for-of declaration (`item of items`)
type IteratorBinding struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// TextBinding renders interpolated text at a marker
type TextBinding struct {
	From string `yaml:"from"`
}

// ListenerBinding runs an expression on an event
type ListenerBinding struct {
	From           string `yaml:"from"`
	To             string `yaml:"to"`
	PreventDefault bool   `yaml:"preventDefault,omitempty"`
}

// AttributeBinding binds an expression to an attribute, or to one class or
// style declaration of it
type AttributeBinding struct {
	Attr string `yaml:"attr"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// StylePropertyBinding binds an expression to one style declaration
type StylePropertyBinding struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// SetAttribute sets a constant attribute
type SetAttribute struct {
	Value string `yaml:"value"`
	To    string `yaml:"to"`
}

// SetClassAttribute adds classes
type SetClassAttribute struct {
	Value string `yaml:"value"`
}

// SetStyleAttribute appends style declarations
type SetStyleAttribute struct {
	Value string `yaml:"value"`
}

// SpreadBinding forwards the attributes captured by the enclosing custom element
type SpreadBinding struct{}

// SpreadElementProp renders Instruction against the custom element on the
// target instead of the element itself
type SpreadElementProp struct {
	Instruction Instruction `yaml:"-"`
}

func (*HydrateElement) Type() InstructionType            { return TypeHydrateElement }
func (*HydrateAttribute) Type() InstructionType          { return TypeHydrateAttribute }
func (*HydrateTemplateController) Type() InstructionType { return TypeHydrateTemplateController }
func (*HydrateLetElement) Type() InstructionType         { return TypeHydrateLetElement }
func (*SetProperty) Type() InstructionType               { return TypeSetProperty }
func (*Interpolation) Type() InstructionType             { return TypeInterpolation }
func (*PropertyBinding) Type() InstructionType           { return TypePropertyBinding }
func (*LetBinding) Type() InstructionType                { return TypeLetBinding }
func (*RefBinding) Type() InstructionType                { return TypeRefBinding }
func (*IteratorBinding) Type() InstructionType           { return TypeIteratorBinding }
func (*TextBinding) Type() InstructionType               { return TypeTextBinding }
func (*ListenerBinding) Type() InstructionType           { return TypeListenerBinding }
func (*AttributeBinding) Type() InstructionType          { return TypeAttributeBinding }
func (*StylePropertyBinding) Type() InstructionType      { return TypeStylePropertyBinding }
func (*SetAttribute) Type() InstructionType              { return TypeSetAttribute }
func (*SetClassAttribute) Type() InstructionType         { return TypeSetClassAttribute }
func (*SetStyleAttribute) Type() InstructionType         { return TypeSetStyleAttribute }
func (*SpreadBinding) Type() InstructionType             { return TypeSpreadBinding }
func (*SpreadElementProp) Type() InstructionType         { return TypeSpreadElementProp }

// Instructions is the instruction list of one target
type Instructions []Instruction
