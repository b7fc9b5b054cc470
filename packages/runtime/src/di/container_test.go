package di_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"au-go/packages/runtime/src/di"
)

func TestContainer(t *testing.T) {
	name := di.NewKey[string]("name")

	t.Run("child falls back to parent", func(t *testing.T) {
		root := di.New()
		di.Register(root, name, "root")
		child := root.CreateChild()
		got, err := di.Get(child, name)
		if err != nil {
			t.Fatal(err)
		}
		if got != "root" {
			t.Errorf("Expected root, got %q", got)
		}
		if child.Has(name, false) {
			t.Errorf("Expected child not to own the key")
		}
		if !child.Has(name, true) {
			t.Errorf("Expected key through ancestors")
		}
	})

	t.Run("child registration shadows parent", func(t *testing.T) {
		root := di.New()
		di.Register(root, name, "root")
		child := root.CreateChild()
		di.Register(child, name, "child")
		if got := di.MustGet(child, name); got != "child" {
			t.Errorf("Expected child, got %q", got)
		}
		if got := di.MustGet(root, name); got != "root" {
			t.Errorf("Expected root, got %q", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := di.Get(di.New(), name)
		if !errors.Is(err, di.ErrNotRegistered) {
			t.Errorf("Expected ErrNotRegistered, got %v", err)
		}
	})

	t.Run("singleton resolves once", func(t *testing.T) {
		c := di.New()
		calls := 0
		counter := di.NewKey[int]("counter")
		di.RegisterFactory(c, counter, func(*di.Container) (int, error) {
			calls++
			return calls, nil
		})
		di.MustGet(c, counter)
		if got := di.MustGet(c, counter); got != 1 || calls != 1 {
			t.Errorf("Expected one factory call, got value %d after %d calls", got, calls)
		}
	})

	t.Run("transient resolves every time", func(t *testing.T) {
		c := di.New()
		calls := 0
		c.RegisterTransient("n", func(*di.Container) (any, error) {
			calls++
			return calls, nil
		})
		c.Get("n")
		v, _ := c.Get("n")
		if v != 2 {
			t.Errorf("Expected 2, got %v", v)
		}
	})

	t.Run("get all", func(t *testing.T) {
		root := di.New()
		di.Register(root, name, "a")
		child := root.CreateChild()
		di.Register(child, name, "b")
		di.Register(child, name, "c")
		own, _ := di.GetAll(child, name, false)
		if diff := cmp.Diff([]string{"b", "c"}, own); diff != "" {
			t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
		}
		all, _ := di.GetAll(child, name, true)
		if diff := cmp.Diff([]string{"b", "c", "a"}, all); diff != "" {
			t.Errorf("GetAll with ancestors mismatch (-want +got):\n%s", diff)
		}
	})
}
