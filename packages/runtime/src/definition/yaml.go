package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

var instructionTypes = map[InstructionType]func() Instruction{
	TypeHydrateElement:            func() Instruction { return &HydrateElement{} },
	TypeHydrateAttribute:          func() Instruction { return &HydrateAttribute{} },
	TypeHydrateTemplateController: func() Instruction { return &HydrateTemplateController{} },
	TypeHydrateLetElement:         func() Instruction { return &HydrateLetElement{} },
	TypeSetProperty:               func() Instruction { return &SetProperty{} },
	TypeInterpolation:             func() Instruction { return &Interpolation{} },
	TypePropertyBinding:           func() Instruction { return &PropertyBinding{} },
	TypeLetBinding:                func() Instruction { return &LetBinding{} },
	TypeRefBinding:                func() Instruction { return &RefBinding{} },
	TypeIteratorBinding:           func() Instruction { return &IteratorBinding{} },
	TypeTextBinding:               func() Instruction { return &TextBinding{} },
	TypeListenerBinding:           func() Instruction { return &ListenerBinding{} },
	TypeAttributeBinding:          func() Instruction { return &AttributeBinding{} },
	TypeStylePropertyBinding:      func() Instruction { return &StylePropertyBinding{} },
	TypeSetAttribute:              func() Instruction { return &SetAttribute{} },
	TypeSetClassAttribute:         func() Instruction { return &SetClassAttribute{} },
	TypeSetStyleAttribute:         func() Instruction { return &SetStyleAttribute{} },
	TypeSpreadBinding:             func() Instruction { return &SpreadBinding{} },
	TypeSpreadElementProp:         func() Instruction { return &SpreadElementProp{} },
}

// UnmarshalYAML decodes a sequence of mappings, each tagged by its "type" key
func (l *Instructions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: instructions must be a sequence", node.Line)
	}
	out := make(Instructions, 0, len(node.Content))
	for _, item := range node.Content {
		ins, err := decodeInstruction(item)
		if err != nil {
			return err
		}
		out = append(out, ins)
	}
	*l = out
	return nil
}

// MarshalYAML writes every instruction with its "type" key first
func (l Instructions) MarshalYAML() (any, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, ins := range l {
		n, err := encodeInstruction(ins)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	return seq, nil
}

func decodeInstruction(node *yaml.Node) (Instruction, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: instruction must be a mapping", node.Line)
	}
	var tag string
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "type" {
			tag = node.Content[i+1].Value
			break
		}
	}
	if tag == "" {
		return nil, fmt.Errorf("line %d: instruction without a type", node.Line)
	}
	create, ok := instructionTypes[InstructionType(tag)]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown instruction type %q", node.Line, tag)
	}
	ins := create()
	if err := node.Decode(ins); err != nil {
		return nil, fmt.Errorf("instruction %s: %w", tag, err)
	}
	return ins, nil
}

func encodeInstruction(ins Instruction) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(ins); err != nil {
		return nil, err
	}
	if n.Kind != yaml.MappingNode {
		n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	typ := []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "type"},
		{Kind: yaml.ScalarNode, Value: string(ins.Type())},
	}
	n.Content = append(typ, n.Content...)
	return n, nil
}

func (p *SpreadElementProp) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "instruction" {
			continue
		}
		ins, err := decodeInstruction(node.Content[i+1])
		if err != nil {
			return err
		}
		p.Instruction = ins
		return nil
	}
	return fmt.Errorf("line %d: spread element prop without an instruction", node.Line)
}

func (p *SpreadElementProp) MarshalYAML() (any, error) {
	inner, err := encodeInstruction(p.Instruction)
	if err != nil {
		return nil, err
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "instruction"},
		inner,
	}}, nil
}
