package observation_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"au-go/packages/runtime/src/observation"
)

type change struct {
	New, Old any
}

type recorder struct {
	changes []change
}

func (r *recorder) HandleChange(newValue, oldValue any) {
	r.changes = append(r.changes, change{newValue, oldValue})
}

type collectionRecorder struct {
	maps []*observation.IndexMap
}

func (r *collectionRecorder) HandleCollectionChange(_ observation.Collection, m *observation.IndexMap) {
	r.maps = append(r.maps, m.Clone())
}

func TestSame(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, true},
		{"int and float", 1, 1.0, true},
		{"NaN", math.NaN(), math.NaN(), true},
		{"signed zero", 0.0, math.Copysign(0, -1), false},
		{"strings", "a", "a", true},
		{"number and string", 1, "1", false},
		{"nil", nil, nil, true},
		{"nil and value", nil, 0, false},
		{"same slice", sharedSlice, sharedSlice, true},
		{"different slices", []int{1}, []int{1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := observation.Same(c.a, c.b); got != c.want {
				t.Errorf("Same(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

var sharedSlice = []int{1, 2}

func TestPropertyObserver(t *testing.T) {
	t.Run("coalesces writes until flush", func(t *testing.T) {
		queue := observation.NewFlushQueue(nil)
		locator := observation.NewObserverLocator(queue)
		obj := observation.NewObject(map[string]any{"name": "a"})
		rec := &recorder{}
		locator.GetObserver(obj, "name").Subscribe(rec)

		obj.Set("name", "b")
		obj.Set("name", "c")
		if len(rec.changes) != 0 {
			t.Fatalf("Expected no notification before flush, got %v", rec.changes)
		}
		queue.Flush()
		if diff := cmp.Diff([]change{{"c", "a"}}, rec.changes); diff != "" {
			t.Errorf("changes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("skips a flush that ends on the original value", func(t *testing.T) {
		queue := observation.NewFlushQueue(nil)
		locator := observation.NewObserverLocator(queue)
		obj := observation.NewObject(map[string]any{"n": 1})
		rec := &recorder{}
		locator.GetObserver(obj, "n").Subscribe(rec)
		obj.Set("n", 2)
		obj.Set("n", 1)
		queue.Flush()
		if len(rec.changes) != 0 {
			t.Errorf("Expected no notification, got %v", rec.changes)
		}
	})

	t.Run("returns one observer per key", func(t *testing.T) {
		locator := observation.NewObserverLocator(nil)
		obj := &observation.Object{}
		if locator.GetObserver(obj, "x") != locator.GetObserver(obj, "x") {
			t.Errorf("Expected the same observer")
		}
	})
}

type viewModel struct {
	observation.Object
	Title string
}

func TestBindableObserver(t *testing.T) {
	t.Run("invokes the change callback while allowed", func(t *testing.T) {
		locator := observation.NewObserverLocator(nil)
		vm := &viewModel{}
		allowed := false
		var calls []change
		ob := locator.NewBindableObserver(vm, "value", observation.BindableOptions{
			Changed:   func(n, o any) { calls = append(calls, change{n, o}) },
			CanNotify: func() bool { return allowed },
		})
		ob.SetValue(1)
		allowed = true
		vm.Set("value", 2)
		if diff := cmp.Diff([]change{{2, 1}}, calls); diff != "" {
			t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
		}
		if got := vm.Get("value"); got != 2 {
			t.Errorf("Expected stored value 2, got %v", got)
		}
	})

	t.Run("reports rejected writes", func(t *testing.T) {
		locator := observation.NewObserverLocator(nil)
		vm := &struct{ Count int }{Count: 1}
		var errs []error
		changed := 0
		ob := locator.NewBindableObserver(vm, "count", observation.BindableOptions{
			Changed: func(_, _ any) { changed++ },
			OnError: func(err error) { errs = append(errs, err) },
		})
		ob.SetValue("many")
		if len(errs) != 1 {
			t.Fatalf("Expected one reported error, got %v", errs)
		}
		if changed != 0 || vm.Count != 1 {
			t.Errorf("Expected a rejected write to change nothing, got Count=%d and %d callbacks", vm.Count, changed)
		}
		ob.SetValue(2)
		if vm.Count != 2 || changed != 1 {
			t.Errorf("Expected Count=2 after one callback, got Count=%d and %d callbacks", vm.Count, changed)
		}
	})

	t.Run("writes struct fields", func(t *testing.T) {
		locator := observation.NewObserverLocator(nil)
		vm := &viewModel{}
		ob := locator.NewBindableObserver(vm, "title", observation.BindableOptions{})
		if !ob.Inert() {
			t.Errorf("Expected an observer without callback or subscriber to be inert")
		}
		ob.SetValue("hello")
		if vm.Title != "hello" {
			t.Errorf("Expected field to be set, got %q", vm.Title)
		}
		if locator.GetObserver(vm, "title") != observation.Observer(ob) {
			t.Errorf("Expected the locator to return the registered observer")
		}
	})
}

func TestAccess(t *testing.T) {
	type item struct {
		ID    int
		Label string `au:"text"`
	}
	it := &item{ID: 3, Label: "x"}
	if got := observation.Get(it, "id"); got != 3 {
		t.Errorf("Expected id 3, got %v", got)
	}
	if got := observation.Get(it, "text"); got != "x" {
		t.Errorf("Expected tagged field, got %v", got)
	}
	if err := observation.SetProperty(it, "id", 4.0); err != nil || it.ID != 4 {
		t.Errorf("Expected float to convert into int field: %v %d", err, it.ID)
	}
	m := map[string]any{"a": 1}
	if got := observation.Get(m, "a"); got != 1 {
		t.Errorf("Expected map value, got %v", got)
	}
	if observation.Has(m, "b") {
		t.Errorf("Expected missing key")
	}
	if got := observation.Get(observation.NewArray(1, 2), "length"); got != 2 {
		t.Errorf("Expected length 2, got %v", got)
	}
}

func TestArrayObserver(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(a *observation.Array)
		want   *observation.IndexMap
	}{
		{
			name:   "push",
			mutate: func(a *observation.Array) { a.Push("d") },
			want:   &observation.IndexMap{Indices: []int{0, 1, 2, -2}},
		},
		{
			name:   "splice",
			mutate: func(a *observation.Array) { a.Splice(1, 1, "x", "y") },
			want: &observation.IndexMap{
				Indices:        []int{0, -2, -2, 2},
				DeletedIndices: []int{1},
				DeletedItems:   []any{"b"},
			},
		},
		{
			name:   "reverse",
			mutate: func(a *observation.Array) { a.Reverse() },
			want:   &observation.IndexMap{Indices: []int{2, 1, 0}},
		},
		{
			name: "shift then push",
			mutate: func(a *observation.Array) {
				a.Shift()
				a.Push("z")
			},
			want: &observation.IndexMap{
				Indices:        []int{1, 2, -2},
				DeletedIndices: []int{0},
				DeletedItems:   []any{"a"},
			},
		},
		{
			name:   "sort",
			mutate: func(a *observation.Array) { a.Sort(func(x, y any) bool { return x.(string) > y.(string) }) },
			want:   &observation.IndexMap{Indices: []int{2, 1, 0}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			queue := observation.NewFlushQueue(nil)
			locator := observation.NewObserverLocator(queue)
			arr := observation.NewArray("a", "b", "c")
			rec := &collectionRecorder{}
			locator.GetCollectionObserver(arr).Subscribe(rec)
			c.mutate(arr)
			queue.Flush()
			if len(rec.maps) != 1 {
				t.Fatalf("Expected one notification, got %d", len(rec.maps))
			}
			if diff := cmp.Diff(c.want, rec.maps[0]); diff != "" {
				t.Errorf("index map mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLengthObserver(t *testing.T) {
	queue := observation.NewFlushQueue(nil)
	locator := observation.NewObserverLocator(queue)
	set := observation.NewSet(1, 2)
	rec := &recorder{}
	locator.GetObserver(set, "size").Subscribe(rec)
	set.Add(3)
	set.Add(3)
	queue.Flush()
	if diff := cmp.Diff([]change{{3, 2}}, rec.changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord(t *testing.T) {
	locator := observation.NewObserverLocator(nil)
	obj := observation.NewObject(map[string]any{"a": 1, "b": 2})
	rec := &recorder{}
	r := observation.NewRecord(locator, rec, nil)

	r.Begin()
	r.Observe(obj, "a")
	r.Observe(obj, "b")
	r.Clear(false)

	r.Begin()
	r.Observe(obj, "b")
	r.Clear(false)

	obj.Set("a", 10)
	obj.Set("b", 20)
	if diff := cmp.Diff([]change{{20, 2}}, rec.changes); diff != "" {
		t.Errorf("Expected only b to notify (-want +got):\n%s", diff)
	}
	r.Clear(true)
	if r.Count() != 0 {
		t.Errorf("Expected no dependencies left, got %d", r.Count())
	}
}
