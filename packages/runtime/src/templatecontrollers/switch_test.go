package templatecontrollers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/templatecontrollers"
	"au-go/packages/runtime/src/templating"
)

func switchApp(cases ...definition.Instruction) *definition.ElementDefinition {
	markup := ""
	for range cases {
		markup += marker
	}
	return app(marker, tc("switch", view(markup, cases...), bind("v", "value")))
}

func switchOf(ctrl *templating.Controller) *templatecontrollers.Switch {
	return ctrl.Children[0].ViewModel.(*templatecontrollers.Switch)
}

func TestSwitchFallThrough(t *testing.T) {
	f := newFixture(t)
	vm := observation.NewObject(map[string]any{"v": 1})
	ctrl := f.start(t, vm, switchApp(
		tc("case", view(`<span>one</span>`), set("value", 1), set("fallThrough", true)),
		tc("case", view(`<span>two</span>`), set("value", 2)),
		tc("default-case", view(`<span>X</span>`)),
	))
	require.Equal(t, `<span>one</span><span>two</span>`, f.text())
	require.Len(t, switchOf(ctrl).ActiveCases(), 2)

	vm.Set("v", 5)
	f.settle(t)
	require.Equal(t, `<span>X</span>`, f.text())
	require.Len(t, switchOf(ctrl).ActiveCases(), 1)

	vm.Set("v", 2)
	f.settle(t)
	require.Equal(t, `<span>two</span>`, f.text())

	require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
	require.Equal(t, ``, f.text())
}

func TestSwitchCaseChanges(t *testing.T) {
	f := newFixture(t)
	vm := observation.NewObject(map[string]any{"v": "b", "first": "a", "fall": false})
	list := observation.NewArray("x")
	vm.Set("list", list)
	ctrl := f.start(t, vm, switchApp(
		tc("case", view(`<i>first</i>`), bind("first", "value"), bind("fall", "fallThrough")),
		tc("case", view(`<i>list</i>`), bind("list", "value")),
		tc("default-case", view(`<i>default</i>`)),
	))
	require.Equal(t, `<i>default</i>`, f.text())

	vm.Set("first", "b")
	f.settle(t)
	require.Equal(t, `<i>first</i>`, f.text(), "a case whose value starts matching takes over")

	vm.Set("fall", true)
	f.settle(t)
	require.Equal(t, `<i>first</i><i>list</i>`, f.text())

	vm.Set("first", "a")
	f.settle(t)
	require.Equal(t, ``, f.text(), "the leading case stopping to match clears the active cases")

	list.Push("b")
	f.settle(t)
	require.Equal(t, `<i>list</i>`, f.text(), "list values are observed")

	vm.Set("v", "x")
	f.settle(t)
	require.Equal(t, `<i>list</i>`, f.text())

	vm.Set("v", "zzz")
	f.settle(t)
	require.Equal(t, `<i>default</i>`, f.text())
	require.NotNil(t, ctrl)
}

func TestSwitchObservesCaseList(t *testing.T) {
	f := newFixture(t)
	list := observation.NewArray("x")
	vm := observation.NewObject(map[string]any{"v": "b", "list": list})
	ctrl := f.start(t, vm, switchApp(
		tc("case", view(`<i>list</i>`), bind("list", "value")),
		tc("default-case", view(`<i>default</i>`)),
	))
	require.Equal(t, `<i>default</i>`, f.text())

	list.Push("b")
	f.settle(t)
	require.Equal(t, `<i>list</i>`, f.text())

	require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
	list.Splice(0, list.Len())
	f.settle(t)
	require.Equal(t, ``, f.text())

	require.NoError(t, ctrl.Activate(ctrl, nil, 0, nil, nil).Err())
	require.Equal(t, `<i>default</i>`, f.text())
	list.Push("b")
	f.settle(t)
	require.Equal(t, `<i>list</i>`, f.text(), "the list is observed again after reactivation")
}

func TestSwitchErrors(t *testing.T) {
	t.Run("case outside switch", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.hydrate(observation.NewObject(nil), app(marker, tc("case", view(`<i></i>`), set("value", 1))))
		require.ErrorIs(t, err, templatecontrollers.ErrSwitchNotFound)
	})

	t.Run("two defaults", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.hydrate(observation.NewObject(map[string]any{"v": 1}), switchApp(
			tc("default-case", view(`<i>a</i>`)),
			tc("default-case", view(`<i>b</i>`)),
		))
		require.ErrorIs(t, err, templatecontrollers.ErrMultipleDefaultCases)
	})
}

func TestCaseIsMatch(t *testing.T) {
	tests := []struct {
		name  string
		value any
		input any
		want  bool
	}{
		{"equal numbers of different kinds", 1, 1.0, true},
		{"different strings", "a", "b", false},
		{"array member", observation.NewArray("a", "b"), "b", true},
		{"array non-member", observation.NewArray("a"), "b", false},
		{"slice member", []int{1, 2}, 2, true},
		{"any slice member", []any{"x", 3}, 3, true},
		{"nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &templatecontrollers.Case{Value: tt.value}
			require.Equal(t, tt.want, c.IsMatch(tt.input))
		})
	}
}
