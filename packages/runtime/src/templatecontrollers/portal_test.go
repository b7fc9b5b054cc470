package templatecontrollers_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/templatecontrollers"
	"au-go/packages/runtime/src/templating"
)

func (f *fixture) element(tag, id, markup string) *html.Node {
	n := dom.CreateElement(tag)
	dom.SetAttr(n, "id", id)
	if markup != "" {
		frag, err := dom.ParseFragment(markup)
		if err != nil {
			panic(err)
		}
		for _, c := range dom.Children(frag) {
			dom.Append(n, c)
		}
	}
	dom.Append(f.p.Body(), n)
	return n
}

func portalApp(props ...definition.Instruction) *definition.ElementDefinition {
	return app(marker, tc("portal", view(`<em>`+marker+`</em>`, text("${msg}")), props...))
}

func TestPortal(t *testing.T) {
	t.Run("selector", func(t *testing.T) {
		f := newFixture(t)
		dest := f.element("section", "dest", "")
		vm := observation.NewObject(map[string]any{"msg": "hi"})
		ctrl := f.start(t, vm, portalApp(set("target", "#dest")))
		require.Equal(t, `<em>hi</em>`, stripLocations(dom.RenderChildren(dest)))
		require.Equal(t, ``, f.text(), "nothing renders in place")

		vm.Set("msg", "yo")
		f.settle(t)
		require.Equal(t, `<em>yo</em>`, stripLocations(dom.RenderChildren(dest)), "the view keeps the scope of the portal")

		require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
		require.Equal(t, ``, dom.RenderChildren(dest))
	})

	t.Run("positions", func(t *testing.T) {
		tests := []struct {
			position string
			want     string
		}{
			{templatecontrollers.PositionBeforeBegin, `<em>hi</em><section id="dest"><b>x</b></section>`},
			{templatecontrollers.PositionAfterBegin, `<section id="dest"><em>hi</em><b>x</b></section>`},
			{templatecontrollers.PositionBeforeEnd, `<section id="dest"><b>x</b><em>hi</em></section>`},
			{templatecontrollers.PositionAfterEnd, `<section id="dest"><b>x</b></section><em>hi</em>`},
		}
		for _, tt := range tests {
			t.Run(tt.position, func(t *testing.T) {
				f := newFixture(t)
				wrap := f.element("main", "wrap", "")
				dest := f.element("section", "dest", "<b>x</b>")
				dom.Append(wrap, dest)
				f.start(t, observation.NewObject(map[string]any{"msg": "hi"}),
					portalApp(set("target", "#dest"), set("position", tt.position)))
				require.Equal(t, tt.want, stripLocations(dom.RenderChildren(wrap)))
			})
		}
	})

	t.Run("fallback to body", func(t *testing.T) {
		f := newFixture(t)
		ctrl := f.start(t, observation.NewObject(map[string]any{"msg": "hi"}), portalApp(set("target", "#missing")))
		portal := ctrl.Children[0].ViewModel.(*templatecontrollers.Portal)
		require.Same(t, f.p.Body(), portal.CurrentTarget())
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t)
		ctrl, err := f.hydrate(observation.NewObject(nil), portalApp(set("target", "#missing"), set("strict", true)))
		require.NoError(t, err)
		require.ErrorIs(t, ctrl.Activate(ctrl, nil, 0, nil, nil).Err(), templatecontrollers.ErrPortalTarget)

		f = newFixture(t)
		ctrl, err = f.hydrate(observation.NewObject(nil), portalApp(set("target", " "), set("strict", "true")))
		require.NoError(t, err)
		require.ErrorIs(t, ctrl.Activate(ctrl, nil, 0, nil, nil).Err(), templatecontrollers.ErrEmptySelector)
	})

	t.Run("retarget", func(t *testing.T) {
		f := newFixture(t)
		one := f.element("section", "one", "")
		two := f.element("section", "two", "")
		vm := observation.NewObject(map[string]any{"msg": "hi", "where": "#one"})
		f.start(t, vm, portalApp(bind("where", "target")))
		require.Equal(t, `<em>hi</em>`, stripLocations(dom.RenderChildren(one)))

		vm.Set("where", two)
		f.settle(t)
		require.Equal(t, ``, dom.RenderChildren(one))
		require.Equal(t, `<em>hi</em>`, stripLocations(dom.RenderChildren(two)))
	})

	t.Run("render context", func(t *testing.T) {
		f := newFixture(t)
		outer := f.element("section", "outer", `<p class="slot"></p>`)
		f.element("section", "other", `<p class="slot"></p>`)
		f.start(t, observation.NewObject(map[string]any{"msg": "hi"}),
			portalApp(set("target", ".slot"), set("renderContext", "#other")))
		require.Equal(t, `<p class="slot"></p>`, dom.RenderChildren(outer))
	})

	t.Run("callbacks", func(t *testing.T) {
		f := newFixture(t)
		dest := f.element("section", "dest", "")
		var log []string
		hook := func(name string) func(*html.Node, *templating.Controller) {
			return func(target *html.Node, view *templating.Controller) {
				require.Same(t, dest, target)
				require.NotNil(t, view)
				log = append(log, name)
			}
		}
		ctrl := f.start(t, observation.NewObject(map[string]any{"msg": "hi"}), portalApp(
			set("target", "#dest"),
			set("activating", hook("activating")),
			set("activated", hook("activated")),
			set("deactivating", hook("deactivating")),
			set("deactivated", hook("deactivated")),
		))
		require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
		require.Equal(t, []string{"activating", "activated", "deactivating", "deactivated"}, log)
	})
}
