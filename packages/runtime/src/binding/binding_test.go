package binding_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/scope"
)

type resources struct {
	behaviors map[string]binding.Behavior
}

type upperConverter struct{}

func (upperConverter) ToView(v any, _ ...any) any { return strings.ToUpper(v.(string)) }

func (r resources) ValueConverter(name string) (expression.ValueConverter, error) {
	if name == "upper" {
		return upperConverter{}, nil
	}
	return nil, errors.New("no converter")
}

func (r resources) BindingBehavior(name string) (binding.Behavior, error) {
	if b, ok := r.behaviors[name]; ok {
		return b, nil
	}
	return nil, errors.New("no behavior")
}

type fixture struct {
	env   *binding.Env
	queue *observation.FlushQueue
	clock *platform.ManualClock
	p     *platform.Platform
}

func newFixture() *fixture {
	clock := platform.NewManualClock(time.Unix(0, 0))
	p := platform.New(nil, platform.WithClock(clock.Now))
	events := dom.NewEvents()
	queue := observation.NewFlushQueue(nil)
	env := &binding.Env{
		Locator:  observation.NewObserverLocator(queue, dom.NewNodeObserverAdapter(events)),
		Platform: p,
		Events:   events,
		Resources: resources{behaviors: map[string]binding.Behavior{
			"oneTime":  binding.NewModeBehavior(binding.OneTime),
			"twoWay":   binding.NewModeBehavior(binding.TwoWay),
			"debounce": binding.NewDebounceBehavior(p),
		}},
	}
	return &fixture{env: env, queue: queue, clock: clock, p: p}
}

func parse(t *testing.T, src string, typ expression.ExpressionType) expression.AST {
	t.Helper()
	ast, err := expression.Parse(src, typ)
	require.NoError(t, err)
	return ast
}

func element(t *testing.T, markup string) *html.Node {
	t.Helper()
	frag, err := dom.ParseFragment(markup)
	require.NoError(t, err)
	return frag.FirstChild
}

func TestPropertyBindingToView(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"name": "ada"})
	s := scope.Create(vm, nil, true)
	target := observation.NewObject(nil)

	b := binding.NewPropertyBinding(f.env, parse(t, "name | upper", expression.TypeProperty), target, "value", binding.ToView)
	require.NoError(t, b.Bind(s, nil))
	require.True(t, b.IsBound())
	require.Equal(t, "ADA", target.Get("value"))

	vm.Set("name", "grace")
	require.Equal(t, "ADA", target.Get("value"), "updates wait for the flush")
	f.queue.Flush()
	require.Equal(t, "GRACE", target.Get("value"))

	b.Unbind()
	require.False(t, b.IsBound())
	vm.Set("name", "linus")
	f.queue.Flush()
	require.Equal(t, "GRACE", target.Get("value"))
}

func TestPropertyBindingTwoWay(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"text": "a"})
	s := scope.Create(vm, nil, true)
	input := element(t, `<input>`)

	b := binding.NewPropertyBinding(f.env, parse(t, "text", expression.TypeProperty), input, "value", binding.TwoWay)
	require.NoError(t, b.Bind(s, nil))
	v, _ := dom.GetAttr(input, "value")
	require.Equal(t, "a", v)

	dom.SetAttr(input, "value", "typed")
	f.env.Events.Dispatch(input, &dom.Event{Type: "input"})
	require.Equal(t, "typed", vm.Get("text"))

	b.Unbind()
	require.Zero(t, f.env.Events.Count(input))
}

func TestPropertyBindingOneTimeBehavior(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"n": 1})
	s := scope.Create(vm, nil, true)
	target := observation.NewObject(nil)

	b := binding.NewPropertyBinding(f.env, parse(t, "n & oneTime", expression.TypeProperty), target, "value", binding.ToView)
	require.NoError(t, b.Bind(s, nil))
	require.Equal(t, binding.OneTime, b.Mode())
	vm.Set("n", 2)
	f.queue.Flush()
	require.Equal(t, 1, target.Get("value"))

	b.Unbind()
	require.Equal(t, binding.ToView, b.Mode(), "the original mode comes back on unbind")
}

func TestDebounce(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"q": ""})
	s := scope.Create(vm, nil, true)
	input := element(t, `<input>`)

	b := binding.NewPropertyBinding(f.env, parse(t, "q & debounce:100", expression.TypeProperty), input, "value", binding.TwoWay)
	require.NoError(t, b.Bind(s, nil))

	for _, typed := range []string{"a", "ab", "abc"} {
		dom.SetAttr(input, "value", typed)
		f.env.Events.Dispatch(input, &dom.Event{Type: "input"})
	}
	require.NoError(t, f.p.Settle())
	require.Equal(t, "", vm.Get("q"), "nothing is written before the delay")

	f.clock.Advance(100 * time.Millisecond)
	require.NoError(t, f.p.Settle())
	require.Equal(t, "abc", vm.Get("q"))
	b.Unbind()
}

func TestMissingBehavior(t *testing.T) {
	f := newFixture()
	s := scope.Create(observation.NewObject(nil), nil, true)
	b := binding.NewPropertyBinding(f.env, parse(t, "x & nope", expression.TypeProperty), observation.NewObject(nil), "v", binding.ToView)
	require.ErrorIs(t, b.Bind(s, nil), binding.ErrBehaviorNotFound)
}

func TestInterpolationAndContent(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"first": "Ada", "last": "Lovelace"})
	s := scope.Create(vm, nil, true)
	div := element(t, `<div></div>`)
	text := dom.CreateText("")

	interp, err := expression.ParseInterpolation("${first} ${last}")
	require.NoError(t, err)
	ib := binding.NewInterpolationBinding(f.env, interp, div, "title")
	cb := binding.NewContentBinding(f.env, parse(t, "first", expression.TypeProperty), text)
	require.NoError(t, ib.Bind(s, nil))
	require.NoError(t, cb.Bind(s, nil))

	title, _ := dom.GetAttr(div, "title")
	require.Equal(t, "Ada Lovelace", title)
	require.Equal(t, "Ada", text.Data)

	vm.Set("first", "Augusta")
	f.queue.Flush()
	title, _ = dom.GetAttr(div, "title")
	require.Equal(t, "Augusta Lovelace", title)
	require.Equal(t, "Augusta", text.Data)
}

func TestListenerBinding(t *testing.T) {
	f := newFixture()
	var got []any
	vm := observation.NewObject(map[string]any{
		"clicked": func(e *dom.Event, n float64) { got = append(got, e.Type, n) },
	})
	s := scope.Create(vm, nil, true)
	button := element(t, `<button></button>`)

	b := binding.NewListenerBinding(f.env, parse(t, "clicked($event, 7)", expression.TypeFunction), button, "click", true)
	require.NoError(t, b.Bind(s, nil))
	ok := f.env.Events.Dispatch(button, &dom.Event{Type: "click"})
	require.False(t, ok, "handlers that do not return true prevent the default")
	require.Equal(t, []any{"click", float64(7)}, got)
	require.False(t, s.OverrideContext.Has("$event"))

	b.Unbind()
	f.env.Events.Dispatch(button, &dom.Event{Type: "click"})
	require.Len(t, got, 2)
}

func TestAttributeBinding(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"active": true, "width": "10px", "label": "x"})
	s := scope.Create(vm, nil, true)
	div := element(t, `<div class="base" style="color: red"></div>`)

	bindings := []binding.Binding{
		binding.NewAttributeBinding(f.env, parse(t, "active", expression.TypeProperty), div, "class", "on"),
		binding.NewAttributeBinding(f.env, parse(t, "width", expression.TypeProperty), div, "style", "width"),
		binding.NewAttributeBinding(f.env, parse(t, "label", expression.TypeProperty), div, "aria-label", ""),
	}
	for _, b := range bindings {
		require.NoError(t, b.Bind(s, nil))
	}
	require.Equal(t, `<div class="base on" style="color: red; width: 10px" aria-label="x"></div>`, dom.Render(div))

	vm.Set("active", false)
	vm.Set("width", nil)
	vm.Set("label", nil)
	f.queue.Flush()
	require.Equal(t, `<div class="base" style="color: red"></div>`, dom.Render(div))
}

func TestRefAndLet(t *testing.T) {
	f := newFixture()
	vm := observation.NewObject(map[string]any{"a": 2})
	s := scope.Create(vm, nil, true)
	div := element(t, `<div></div>`)

	ref := binding.NewRefBinding(f.env, parse(t, "el", expression.TypeProperty), div)
	require.NoError(t, ref.Bind(s, nil))
	require.Same(t, div, vm.Get("el"))

	let := binding.NewLetBinding(f.env, parse(t, "a * 10", expression.TypeProperty), "big", false)
	require.NoError(t, let.Bind(s, nil))
	require.Equal(t, float64(20), s.OverrideContext.Get("big"))
	vm.Set("a", 3)
	f.queue.Flush()
	require.Equal(t, float64(30), s.OverrideContext.Get("big"))

	ref.Unbind()
	require.Nil(t, vm.Get("el"))
	let.Unbind()
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]binding.Mode{
		"":          binding.Default,
		"one-time":  binding.OneTime,
		"toView":    binding.ToView,
		"from-view": binding.FromView,
		"twoWay":    binding.TwoWay,
	} {
		got, err := binding.ParseMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := binding.ParseMode("sideways")
	require.Error(t, err)
}
