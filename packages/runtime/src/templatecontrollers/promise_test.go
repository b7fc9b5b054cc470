package templatecontrollers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/templatecontrollers"
)

func promiseApp() *definition.ElementDefinition {
	return app(marker, tc("promise",
		view(marker+marker+marker,
			tc("pending", view(`<i>wait</i>`)),
			tc("then", view(`<b>`+marker+`</b>`, text("${data}")), bind("data", "value")),
			tc("catch", view(`<u>failed</u>`), bind("err", "value")),
		),
		bind("p", "value"),
	))
}

func TestPromise(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		f := newFixture(t)
		p := async.NewPromise()
		vm := observation.NewObject(map[string]any{"p": p})
		ctrl := f.start(t, vm, promiseApp())
		f.settle(t)
		require.Equal(t, `<i>wait</i>`, f.text())

		p.Resolve(42)
		f.settle(t)
		require.Equal(t, `<b>42</b>`, f.text())
		require.Equal(t, 42, vm.Get("data"))

		require.NoError(t, ctrl.Deactivate(ctrl, nil, 0).Err())
		require.Equal(t, ``, f.text())
	})

	t.Run("reject", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("boom")
		p := async.NewPromise()
		vm := observation.NewObject(map[string]any{"p": p})
		f.start(t, vm, promiseApp())
		p.Reject(boom)
		f.settle(t)
		require.Equal(t, `<u>failed</u>`, f.text())
		err, _ := vm.Get("err").(error)
		require.ErrorIs(t, err, boom)
	})

	t.Run("settled before the first flush", func(t *testing.T) {
		f := newFixture(t)
		p := async.NewPromise()
		p.Resolve("now")
		vm := observation.NewObject(map[string]any{"p": p})
		f.start(t, vm, promiseApp())
		f.settle(t)
		require.Equal(t, `<b>now</b>`, f.text())
	})

	t.Run("reassigned before settling", func(t *testing.T) {
		f := newFixture(t)
		first, second := async.NewPromise(), async.NewPromise()
		vm := observation.NewObject(map[string]any{"p": first})
		f.start(t, vm, promiseApp())
		f.settle(t)

		vm.Set("p", second)
		f.settle(t)
		require.Equal(t, `<i>wait</i>`, f.text())

		first.Resolve("stale")
		f.settle(t)
		require.Equal(t, `<i>wait</i>`, f.text(), "a replaced promise does not render")

		second.Resolve("fresh")
		f.settle(t)
		require.Equal(t, `<b>fresh</b>`, f.text())

		first.Reject(errors.New("late"))
		f.settle(t)
		require.Equal(t, `<b>fresh</b>`, f.text())
	})

	t.Run("swap after settling", func(t *testing.T) {
		f := newFixture(t)
		first := async.NewPromise()
		first.Resolve(1)
		vm := observation.NewObject(map[string]any{"p": first})
		f.start(t, vm, promiseApp())
		f.settle(t)
		require.Equal(t, `<b>1</b>`, f.text())

		next := async.NewPromise()
		vm.Set("p", next)
		f.settle(t)
		require.Equal(t, `<i>wait</i>`, f.text())

		next.Reject(errors.New("no"))
		f.settle(t)
		require.Equal(t, `<u>failed</u>`, f.text())
	})

	t.Run("reassignment cancels queued swaps", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"p": async.NewPromise()})
		ctrl := f.start(t, vm, promiseApp())
		f.settle(t)
		promise := ctrl.Children[0].ViewModel.(*templatecontrollers.Promise)

		last := async.NewPromise()
		for _, next := range []*async.Promise{async.NewPromise(), async.NewPromise(), last} {
			promise.Value = next
			promise.ValueChanged(next, nil)
		}
		require.Equal(t, 1, f.p.DomWriteQueue.Len(), "only the latest pending swap stays queued")

		last.Resolve("last")
		f.settle(t)
		require.Equal(t, `<b>last</b>`, f.text())
	})

	t.Run("not a promise", func(t *testing.T) {
		f := newFixture(t)
		vm := observation.NewObject(map[string]any{"p": 3})
		f.start(t, vm, promiseApp())
		f.settle(t)
		require.Equal(t, ``, f.text())
	})

	t.Run("branch outside promise", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.hydrate(observation.NewObject(nil), app(marker, tc("then", view(`<b></b>`))))
		require.ErrorIs(t, err, templatecontrollers.ErrPromiseNotFound)
	})
}
