package scope_test

import (
	"errors"
	"testing"

	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
)

func bag(kv map[string]any) *observation.Object {
	return observation.NewObject(kv)
}

func TestGetContext(t *testing.T) {
	root := scope.Create(bag(map[string]any{"a": 1, "shared": "root"}), nil, true)
	mid, _ := scope.FromParent(root, bag(map[string]any{"b": 2, "shared": "mid"}))
	leaf, _ := scope.FromParent(mid, bag(map[string]any{"c": 3}))
	leaf.OverrideContext.Define("$index", 0)

	t.Run("finds names up the chain", func(t *testing.T) {
		if got := scope.GetContext(leaf, "a", 0); got != root.BindingContext {
			t.Errorf("Expected root context for a")
		}
		if got := scope.GetContext(leaf, "shared", 0); got != mid.BindingContext {
			t.Errorf("Expected the nearest context for shared")
		}
	})

	t.Run("prefers the override context", func(t *testing.T) {
		if got := scope.GetContext(leaf, "$index", 0); got != leaf.OverrideContext {
			t.Errorf("Expected override context")
		}
	})

	t.Run("falls back to the starting binding context", func(t *testing.T) {
		orphan := scope.Create(bag(nil), nil, false)
		child, _ := scope.FromParent(orphan, bag(nil))
		if got := scope.GetContext(child, "missing", 0); got != child.BindingContext {
			t.Errorf("Expected the starting binding context")
		}
	})

	t.Run("stops at a boundary", func(t *testing.T) {
		parent := scope.Create(bag(map[string]any{"x": 1}), nil, false)
		boundary := scope.Create(bag(nil), nil, true)
		boundary.Parent = parent
		if got := scope.GetContext(boundary, "x", 0); got != boundary.BindingContext {
			t.Errorf("Expected resolution to stop at the boundary")
		}
	})

	t.Run("walks exactly the requested ancestors", func(t *testing.T) {
		if got := scope.GetContext(leaf, "b", 1); got != mid.BindingContext {
			t.Errorf("Expected $parent context")
		}
		if got := scope.GetContext(leaf, "a", 2); got != root.BindingContext {
			t.Errorf("Expected $parent.$parent context")
		}
	})

	t.Run("returns nil when the chain is too short", func(t *testing.T) {
		for _, k := range []int{3, 4, 10} {
			if got := scope.GetContext(leaf, "a", k); got != nil {
				t.Errorf("ancestor %d: expected nil, got %v", k, got)
			}
		}
	})
}

func TestFromParent(t *testing.T) {
	if _, err := scope.FromParent(nil, nil); !errors.Is(err, scope.ErrNilScope) {
		t.Errorf("Expected ErrNilScope, got %v", err)
	}
}
