package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/app"
	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/logging"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/templating"
)

const marker = `<au-m class="au"></au-m>`

func greeting() *definition.ElementDefinition {
	return definition.NewElement("greeting").
		Template(`<p>` + marker + `</p>`).
		Target(&definition.TextBinding{From: "Hello ${name}"}).
		MustBuild()
}

func newApp(opts ...app.Option) *app.Aurelia {
	p := platform.New(nil, platform.WithLogger(logging.Discard()))
	return app.New(append([]app.Option{app.WithPlatform(p)}, opts...)...)
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	au := newApp()
	vm := observation.NewObject(map[string]any{"name": "world"})

	require.ErrorIs(t, au.Start(ctx), app.ErrNoRoot)

	root, err := au.App(app.Config{Definition: greeting(), Component: vm})
	require.NoError(t, err)
	require.Same(t, au.Platform().Body(), root.Host)
	require.Equal(t, ``, dom.RenderChildren(root.Host), "nothing renders before Start")

	require.NoError(t, au.Start(ctx))
	require.True(t, root.Started())
	require.Equal(t, `<p>Hello world</p>`, dom.RenderChildren(root.Host))

	vm.Set("name", "there")
	require.NoError(t, au.Platform().Settle())
	require.Equal(t, `<p>Hello there</p>`, dom.RenderChildren(root.Host))

	_, err = au.App(app.Config{Definition: greeting()})
	require.ErrorIs(t, err, app.ErrAlreadyStarted)

	require.NoError(t, au.Stop(ctx, true))
	require.False(t, root.Started())
	require.Equal(t, ``, dom.RenderChildren(root.Host))
	require.Nil(t, au.Root())
	require.ErrorIs(t, au.Stop(ctx, false), app.ErrNoRoot)
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	au := newApp()
	_, err := au.App(app.Config{Definition: greeting(), Component: observation.NewObject(map[string]any{"name": "a"})})
	require.NoError(t, err)
	require.NoError(t, au.Start(ctx))
	require.NoError(t, au.Stop(ctx, false))
	require.NoError(t, au.Start(ctx))
	require.Equal(t, `<p>Hello a</p>`, dom.RenderChildren(au.Platform().Body()))
}

func TestComponentDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("constructor", func(t *testing.T) {
		au := newApp()
		def := greeting()
		def.New = func(*di.Container) (any, error) {
			return observation.NewObject(map[string]any{"name": "ctor"}), nil
		}
		_, err := au.App(app.Config{Definition: def})
		require.NoError(t, err)
		require.NoError(t, au.Start(ctx))
		require.Equal(t, `<p>Hello ctor</p>`, dom.RenderChildren(au.Platform().Body()))
	})

	t.Run("empty object", func(t *testing.T) {
		au := newApp()
		root, err := au.App(app.Config{Definition: greeting()})
		require.NoError(t, err)
		require.IsType(t, &observation.Object{}, root.Controller.ViewModel)
	})

	t.Run("invalid definition", func(t *testing.T) {
		au := newApp()
		def := &definition.ElementDefinition{Name: "broken", Template: marker}
		_, err := au.App(app.Config{Definition: def})
		require.ErrorIs(t, err, definition.ErrInvalidDefinition)

		_, err = au.App(app.Config{})
		require.ErrorIs(t, err, app.ErrNoRoot)
	})

	t.Run("host", func(t *testing.T) {
		au := newApp()
		host := dom.CreateElement("main")
		dom.Append(au.Platform().Body(), host)
		_, err := au.App(app.Config{Host: host, Definition: greeting(), Component: observation.NewObject(map[string]any{"name": "x"})})
		require.NoError(t, err)
		require.NoError(t, au.Start(ctx))
		require.Equal(t, `<main><p>Hello x</p></main>`, dom.RenderChildren(au.Platform().Body()))
	})
}

func TestEnhance(t *testing.T) {
	au := newApp()
	host := dom.CreateElement("div")
	frag, err := dom.ParseFragment(`<p>` + marker + `</p><span>kept</span>`)
	require.NoError(t, err)
	for _, n := range dom.Children(frag) {
		dom.Append(host, n)
	}
	dom.Append(au.Platform().Body(), host)

	vm := observation.NewObject(map[string]any{"name": "markup"})
	_, err = au.Enhance(context.Background(), app.Config{Host: host, Definition: greeting(), Component: vm})
	require.NoError(t, err)
	require.Equal(t, `<p>Hello markup</p><span>kept</span>`, dom.RenderChildren(host))

	_, err = au.Enhance(context.Background(), app.Config{Definition: greeting()})
	require.ErrorIs(t, err, app.ErrNoHost)
}

func TestStandardResources(t *testing.T) {
	au := newApp(app.WithViewCacheSize(3))
	for _, name := range []string{"oneTime", "toView", "fromView", "twoWay", "debounce"} {
		require.True(t, au.Container().Has(definition.BindingBehaviorKey(name), false), name)
	}
	require.True(t, au.Container().Has(definition.AttributeKey("repeat"), false))

	size, err := di.Get(au.Container(), templating.ViewCacheSizeKey)
	require.NoError(t, err)
	require.Equal(t, 3, size)
}

func TestBehaviorInstances(t *testing.T) {
	au := newApp()
	b, err := au.Container().Get(definition.BindingBehaviorKey("oneTime"))
	require.NoError(t, err)
	require.Equal(t, binding.OneTime, b.(*binding.ModeBehavior).Mode)

	b, err = au.Container().Get(definition.BindingBehaviorKey("debounce"))
	require.NoError(t, err)
	require.Same(t, au.Platform(), b.(*binding.DebounceBehavior).Platform)

	again, err := au.Container().Get(definition.BindingBehaviorKey("debounce"))
	require.NoError(t, err)
	require.Same(t, b, again, "behaviors are singletons")
}
