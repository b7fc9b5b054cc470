package definition_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
)

const component = `
name: todo-list
template: '<h1 class="au"></h1><au-m class="au"></au-m>'
bindables:
  - name: itemsLeft
    mode: twoWay
instructions:
  - - type: rg
      from: title
      to: textContent
      mode: one-time
    - type: hb
      from: clear()
      to: click
      preventDefault: true
  - - type: rc
      res: repeat
      def:
        template: '<li><au-m class="au"></au-m></li>'
        instructions:
          - - type: ha
              from: '${item.text}'
      props:
        - type: rk
          from: 'item of items; key: id'
          to: items
        - type: hp
          instruction:
            type: re
            value: 3
            to: limit
`

func TestDecodeInstructions(t *testing.T) {
	var def definition.ElementDefinition
	if err := yaml.Unmarshal([]byte(component), &def); err != nil {
		t.Fatal(err)
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := []definition.Instructions{
		{
			&definition.PropertyBinding{From: "title", To: "textContent", Mode: binding.OneTime},
			&definition.ListenerBinding{From: "clear()", To: "click", PreventDefault: true},
		},
		{
			&definition.HydrateTemplateController{
				Res: "repeat",
				Def: &definition.ElementDefinition{
					Template: `<li><au-m class="au"></au-m></li>`,
					Instructions: []definition.Instructions{
						{&definition.TextBinding{From: "${item.text}"}},
					},
				},
				Props: definition.Instructions{
					&definition.IteratorBinding{From: "item of items; key: id", To: "items"},
					&definition.SpreadElementProp{Instruction: &definition.SetProperty{Value: 3, To: "limit"}},
				},
			},
		},
	}
	if diff := cmp.Diff(want, def.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	b := def.Bindable("itemsLeft")
	if b == nil || b.Mode != binding.TwoWay || b.Attribute != "items-left" {
		t.Errorf("bindable = %+v", b)
	}
}

func TestEncodeKeepsTypes(t *testing.T) {
	row := definition.Instructions{
		&definition.SetAttribute{Value: "x", To: "title"},
		&definition.SpreadBinding{},
	}
	out, err := yaml.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	var back definition.Instructions
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(row, back); diff != "" {
		t.Errorf("(-want +got):\n%s\n%s", diff, out)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"not a sequence", "type: rg"},
		{"missing type", "- from: x"},
		{"unknown type", "- type: zz"},
		{"scalar item", "- rg"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var l definition.Instructions
			if err := yaml.Unmarshal([]byte(tc.src), &l); err == nil {
				t.Errorf("expected an error, got %v", l)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("target mismatch", func(t *testing.T) {
		_, err := definition.NewElement("x").Template(`<div class="au"></div><span class="au"></span>`).
			Target(&definition.TextBinding{From: "a"}).Build()
		if !errors.Is(err, definition.ErrInvalidDefinition) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("duplicate bindable", func(t *testing.T) {
		_, err := definition.NewElement("x").Bindable("value").Bindable("value").Build()
		if !errors.Is(err, definition.ErrInvalidDefinition) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("nested view", func(t *testing.T) {
		view := &definition.ElementDefinition{Template: `<b class="au"></b>`}
		_, err := definition.NewElement("x").Template(`<au-m class="au"></au-m>`).
			Target(&definition.HydrateTemplateController{Res: "if", Def: view}).Build()
		if !errors.Is(err, definition.ErrInvalidDefinition) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestRegistration(t *testing.T) {
	c := di.New()
	el := definition.NewElement("my-el").Bindable("value", definition.AsPrimary()).MustBuild()
	attr := definition.NewTemplateController("if").Alias("when").Bindable("value").MustBuild()
	definition.Register(c, el, attr)

	child := c.CreateChild()
	if got, ok := definition.FindElement(child, "my-el"); !ok || got != el {
		t.Errorf("FindElement = %v, %v", got, ok)
	}
	if got, ok := definition.FindAttribute(child, "when"); !ok || got != attr {
		t.Errorf("FindAttribute(alias) = %v, %v", got, ok)
	}
	if _, ok := definition.FindElement(child, "if"); ok {
		t.Error("attributes and elements share no names")
	}
	if p := attr.Primary(); p == nil || p.Name != "value" {
		t.Errorf("Primary = %v", p)
	}
}
