package templatecontrollers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/logging"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/templatecontrollers"
	"au-go/packages/runtime/src/templating"
)

const marker = `<au-m class="au"></au-m>`

type fixture struct {
	p    *platform.Platform
	c    *di.Container
	host *html.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := platform.New(nil, platform.WithLogger(logging.Discard()))
	c := di.New()
	templating.RegisterServices(c, p)
	templatecontrollers.Register(c)
	host := dom.CreateElement("div")
	dom.Append(p.Body(), host)
	return &fixture{p: p, c: c, host: host}
}

func (f *fixture) hydrate(vm any, def *definition.ElementDefinition) (*templating.Controller, error) {
	return templating.ForCustomElement(vm, def, templating.ElementHydration{
		Container: f.c.CreateChild(),
		Host:      f.host,
	})
}

func (f *fixture) start(t *testing.T, vm any, def *definition.ElementDefinition) *templating.Controller {
	t.Helper()
	ctrl, err := f.hydrate(vm, def)
	require.NoError(t, err)
	r := ctrl.Activate(ctrl, nil, 0, nil, nil)
	require.False(t, r.IsPending(), "activation went asynchronous")
	require.NoError(t, r.Err())
	return ctrl
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.p.Settle())
}

// text renders the host without render location comments
func (f *fixture) text() string {
	return stripLocations(dom.RenderChildren(f.host))
}

func stripLocations(s string) string {
	return strings.NewReplacer("<!--au-start-->", "", "<!--au-end-->", "").Replace(s)
}

// app is a root element rendering one instruction row per marker in markup
func app(markup string, rows ...definition.Instruction) *definition.ElementDefinition {
	b := definition.NewElement("app").Template(markup)
	for _, ins := range rows {
		b.Target(ins)
	}
	return b.MustBuild()
}

// view is the template of a controller's views with one row per marker
func view(markup string, rows ...definition.Instruction) *definition.ElementDefinition {
	b := definition.NewView(markup)
	for _, ins := range rows {
		b.Target(ins)
	}
	return b.MustBuild()
}

func tc(res string, def *definition.ElementDefinition, props ...definition.Instruction) *definition.HydrateTemplateController {
	return &definition.HydrateTemplateController{Res: res, Def: def, Props: props}
}

func bind(from, to string) *definition.PropertyBinding {
	return &definition.PropertyBinding{From: from, To: to}
}

func set(to string, value any) *definition.SetProperty {
	return &definition.SetProperty{Value: value, To: to}
}

func text(from string) *definition.TextBinding {
	return &definition.TextBinding{From: from}
}

func TestIf(t *testing.T) {
	branch := view(`<p>`+marker+`</p>`, text("${msg}"))

	t.Run("toggle", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"show": true, "msg": "X"})
		ctrl := f.start(t, vm, app(marker, tc("if", branch, bind("show", "value"))))
		require.Equal(t, `<!--au-start--><p>X</p><!--au-end-->`, dom.RenderChildren(f.host))

		vm.Set("show", false)
		f.settle(t)
		require.Equal(t, `<!--au-start--><!--au-end-->`, dom.RenderChildren(f.host))

		vm.Set("msg", "Y")
		vm.Set("show", true)
		f.settle(t)
		require.Equal(t, `<p>Y</p>`, f.text())

		vm.Set("msg", "X")
		f.settle(t)
		require.Equal(t, `<p>X</p>`, f.text())

		require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
		require.Equal(t, ``, f.text())
	})

	t.Run("same truthiness", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"show": 1, "msg": "X"})
		ctrl := f.start(t, vm, app(marker, tc("if", branch, bind("show", "value"))))
		sub := ctrl.Children[0].ViewModel.(*templatecontrollers.If)
		require.Equal(t, 1, sub.Value)

		vm.Set("show", "yes")
		f.settle(t)
		require.Equal(t, `<p>X</p>`, f.text())
	})

	t.Run("cache off", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"show": true, "msg": "X"})
		ctrl := f.start(t, vm, app(marker, tc("if", branch, bind("show", "value"), set("cache", "false"))))
		require.False(t, ctrl.Children[0].ViewModel.(*templatecontrollers.If).Cache)

		for _, show := range []bool{false, true, false, true} {
			vm.Set("show", show)
			f.settle(t)
		}
		require.Equal(t, `<p>X</p>`, f.text())
	})

	t.Run("else", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"show": false, "msg": "X"})
		def := app(marker+marker,
			tc("if", branch, bind("show", "value")),
			tc("else", view(`<i>none</i>`)),
		)
		f.start(t, vm, def)
		require.Equal(t, `<!--au-start--><i>none</i><!--au-end--><!--au-start--><!--au-end-->`, dom.RenderChildren(f.host),
			"the else view renders at the location of the if")

		vm.Set("show", true)
		f.settle(t)
		require.Equal(t, `<p>X</p>`, f.text())

		vm.Set("show", false)
		f.settle(t)
		require.Equal(t, `<i>none</i>`, f.text())
	})

	t.Run("else without if", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.hydrate(observation.NewObject(nil), app(marker, tc("else", view(`<i>none</i>`))))
		require.ErrorIs(t, err, templatecontrollers.ErrIfNotFound)
	})
}

func TestWith(t *testing.T) {
	f := newFixture(t)
	vm := observation.NewObject(map[string]any{
		"user": observation.NewObject(map[string]any{"name": "Ann"}),
		"site": "home",
	})
	def := app(marker, tc("with", view(`<p>`+marker+`</p>`, text("${name}@${site}")), bind("user", "value")))
	ctrl := f.start(t, vm, def)
	require.Equal(t, `<p>Ann@home</p>`, f.text(), "names missing on the value resolve through the parent scope")

	vm.Set("user", observation.NewObject(map[string]any{"name": "Bob"}))
	f.settle(t)
	require.Equal(t, `<p>Bob@home</p>`, f.text())

	require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
	require.Equal(t, ``, f.text())
}
