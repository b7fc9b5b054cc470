package templatecontrollers

import (
	"fmt"
	"reflect"
	"sort"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/expression"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/templating"
	"au-go/packages/runtime/src/util"
)

// RepeatDefinition is the repeat template controller. It is bound with an
// iterator binding (`item of items`, optionally `; key: id` or
// `; key.bind: expr`) and renders one view per item.
func RepeatDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("repeat").
		Bindable("items", definition.AsPrimary()).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			handlers, err := di.Get(c, HandlersKey)
			if err != nil {
				handlers = DefaultHandlers()
			}
			return &Repeat{owned: o, handlers: handlers, pending: async.Ready()}, nil
		}).
		MustBuild()
}

// Repeat renders a view per item of Items. Each view evaluates in a scope
// holding the item under the declared local name, and the contextual
// properties $index, $first, $last, $middle, $even, $odd and $length.
type Repeat struct {
	owned

	Items any

	forOf    *expression.ForOf
	handlers *Handlers

	// views and items are index-aligned with the last render
	views    []*templating.Controller
	items    []any
	observed *observation.CollectionObserver

	pending  async.Result
	updateID int

	// memoized keys and scopes, valid during one update
	keyMap   map[any]any
	scopeMap map[any]*scope.Scope
}

// SetForOf implements templating.ForOfReceiver
func (r *Repeat) SetForOf(f *expression.ForOf) {
	r.forOf = f
}

// Views returns the rendered views in item order
func (r *Repeat) Views() []*templating.Controller {
	return r.views
}

func (r *Repeat) Attaching(initiator, _ *templating.Controller) async.Result {
	r.observe()
	items, err := r.handlers.Items(r.Items)
	if err != nil {
		return async.Fail(err)
	}
	r.items = items
	return r.activateAll(initiator)
}

func (r *Repeat) Detaching(initiator, _ *templating.Controller) async.Result {
	r.unobserve()
	return r.deactivateAll(initiator)
}

// ItemsChanged re-renders against a new collection
func (r *Repeat) ItemsChanged(_, _ any) {
	if r.ctrl == nil || !r.ctrl.IsActive() {
		return
	}
	r.unobserve()
	r.observe()
	r.enqueue(nil)
}

// HandleCollectionChange applies a mutation of the observed collection. A
// keyed repeat correlates views by key and ignores the index map.
func (r *Repeat) HandleCollectionChange(_ observation.Collection, m *observation.IndexMap) {
	if r.ctrl == nil || !r.ctrl.IsActive() {
		return
	}
	if r.keyed() {
		m = nil
	} else {
		m = m.Clone()
	}
	r.enqueue(m)
}

func (r *Repeat) enqueue(m *observation.IndexMap) {
	r.updateID++
	id := r.updateID
	res := async.Then(settled(r.pending), func() async.Result { return r.update(m) })
	r.logResult("repeat update", res)
	if !res.IsPending() {
		r.pending = async.Ready()
		return
	}
	r.pending = res
	res.Promise().OnSettled(func(any, error) {
		if r.updateID == id {
			r.pending = async.Ready()
		}
	})
}

func (r *Repeat) observe() {
	if (nilHandler{}).Handles(r.Items) {
		return
	}
	if c, ok := r.Items.(observation.ObservableCollection); ok {
		r.observed = r.ctrl.Env.Locator.GetCollectionObserver(c)
		r.observed.Subscribe(r)
	}
}

func (r *Repeat) unobserve() {
	if r.observed != nil {
		r.observed.Unsubscribe(r)
		r.observed = nil
	}
}

// update reconciles the views with the current items. m is the index map
// reported by the collection, nil when it has to be computed from keys.
func (r *Repeat) update(m *observation.IndexMap) async.Result {
	if !r.ctrl.IsActive() {
		return async.Ready()
	}
	r.resetCaches()
	items, err := r.handlers.Items(r.Items)
	if err != nil {
		return async.Fail(err)
	}
	old := r.items
	if m != nil && r.check(m, len(items)) != nil {
		// the map describes mutations the views never saw
		m = nil
	}
	if m == nil {
		m = r.computeIndexMap(old, items)
		if m != nil {
			if err := r.check(m, len(items)); err != nil {
				return async.Fail(err)
			}
		}
	}
	r.items = items
	if m == nil {
		return async.Then(r.deactivateAll(nil), func() async.Result { return r.activateAll(nil) })
	}
	return async.Then(r.removeDeleted(m), func() async.Result { return r.placeViews(m) })
}

// check verifies that m maps every rendered view exactly once, either to a
// new position or to deletion
func (r *Repeat) check(m *observation.IndexMap, n int) error {
	if len(m.Indices) != n {
		return fmt.Errorf("%w: %d indices for %d items", ErrIndexMapMismatch, len(m.Indices), n)
	}
	seen := make([]bool, len(r.views))
	mark := func(i int) error {
		if i < 0 || i >= len(seen) || seen[i] {
			return fmt.Errorf("%w: view %d of %d", ErrIndexMapMismatch, i, len(seen))
		}
		seen[i] = true
		return nil
	}
	count := 0
	for _, prev := range m.Indices {
		if prev == observation.IndexInserted {
			continue
		}
		if err := mark(prev); err != nil {
			return err
		}
		count++
	}
	for _, d := range m.DeletedIndices {
		if err := mark(d); err != nil {
			return err
		}
		count++
	}
	if count != len(r.views) {
		return fmt.Errorf("%w: %d of %d views accounted for", ErrIndexMapMismatch, count, len(r.views))
	}
	return nil
}

func (r *Repeat) activateAll(initiator *templating.Controller) async.Result {
	n := len(r.items)
	r.views = make([]*templating.Controller, 0, n)
	results := make([]async.Result, 0, n)
	for i, item := range r.items {
		view, err := r.createView()
		if err != nil {
			return async.Fail(err)
		}
		r.views = append(r.views, view)
		s, err := r.scopeFor(item, i, n)
		if err != nil {
			return async.Fail(err)
		}
		results = append(results, view.Activate(orSelf(initiator, view), r.ctrl, 0, s, r.ctrl.HostScope))
	}
	r.resetCaches()
	return async.All(results...)
}

func (r *Repeat) deactivateAll(initiator *templating.Controller) async.Result {
	results := make([]async.Result, 0, len(r.views))
	for _, view := range r.views {
		view.Release()
		results = append(results, view.Deactivate(orSelf(initiator, view), r.ctrl, 0))
	}
	r.views = nil
	return async.All(results...)
}

// removeDeleted deactivates the views of deleted items, last first
func (r *Repeat) removeDeleted(m *observation.IndexMap) async.Result {
	deleted := append([]int(nil), m.DeletedIndices...)
	sort.Sort(sort.Reverse(sort.IntSlice(deleted)))
	results := make([]async.Result, 0, len(deleted))
	for _, d := range deleted {
		view := r.views[d]
		view.Release()
		results = append(results, view.Deactivate(view, r.ctrl, 0))
	}
	return async.All(results...)
}

// placeViews builds the new view list from m, activates views for inserted
// items and moves every reused view that is not part of the longest run of
// views already in order
func (r *Repeat) placeViews(m *observation.IndexMap) async.Result {
	if !r.ctrl.IsActive() {
		return async.Ready()
	}
	old := r.views
	n := len(m.Indices)
	views := make([]*templating.Controller, n)
	reused := 0
	for i, prev := range m.Indices {
		if prev != observation.IndexInserted {
			views[i] = old[prev]
			reused++
			continue
		}
		view, err := r.createView()
		if err != nil {
			return async.Fail(err)
		}
		views[i] = view
	}
	r.views = views

	seq := LongestIncreasingSubsequence(m.Indices)
	// a run of one is no anchor: every reused view is moved
	moveAll := len(seq) == 1 && reused > 1
	j := len(seq) - 1
	results := make([]async.Result, 0, n-reused)
	for i := n - 1; i >= 0; i-- {
		view := views[i]
		if i+1 < n {
			view.Nodes.LinkSequence(views[i+1].Nodes)
		} else {
			view.Nodes.LinkLocation(r.location)
		}
		item := r.items[i]
		switch {
		case m.Indices[i] == observation.IndexInserted:
			s, err := r.scopeFor(item, i, n)
			if err != nil {
				return async.Fail(err)
			}
			results = append(results, view.Activate(view, r.ctrl, 0, s, r.ctrl.HostScope))
		case moveAll || j < 0 || i != seq[j]:
			r.refresh(view, item, i, n)
			view.Nodes.AddToLinked()
		default:
			r.refresh(view, item, i, n)
			j--
		}
	}
	r.resetCaches()
	return async.All(results...)
}

// computeIndexMap correlates old and new items by key. Matching runs at both
// ends are mapped directly; the middle goes through a key to index map. It
// returns nil when nothing correlates.
func (r *Repeat) computeIndexMap(old, items []any) *observation.IndexMap {
	oldLen, newLen := len(old), len(items)
	if oldLen == 0 || newLen == 0 {
		return nil
	}
	oldKeys := make([]any, oldLen)
	for i, item := range old {
		oldKeys[i] = r.keyOf(item, i)
	}
	newKeys := make([]any, newLen)
	for i, item := range items {
		newKeys[i] = r.keyOf(item, i)
	}

	m := &observation.IndexMap{Indices: make([]int, newLen)}
	reused := 0
	deleteAt := func(i int) {
		m.DeletedIndices = append(m.DeletedIndices, i)
		m.DeletedItems = append(m.DeletedItems, old[i])
	}
	i, e1, e2 := 0, oldLen-1, newLen-1
	for ; i <= e1 && i <= e2 && oldKeys[i] == newKeys[i]; i++ {
		m.Indices[i] = i
		reused++
	}
	for ; i <= e1 && i <= e2 && oldKeys[e1] == newKeys[e2]; e1, e2 = e1-1, e2-1 {
		m.Indices[e2] = e1
		reused++
	}
	switch {
	case i > e1:
		for k := i; k <= e2; k++ {
			m.Indices[k] = observation.IndexInserted
		}
	case i > e2:
		for k := i; k <= e1; k++ {
			deleteAt(k)
		}
	default:
		newIndex := make(map[any]int, e2-i+1)
		for k := i; k <= e2; k++ {
			m.Indices[k] = observation.IndexInserted
			if _, dup := newIndex[newKeys[k]]; !dup {
				newIndex[newKeys[k]] = k
			}
		}
		for k := i; k <= e1; k++ {
			j, ok := newIndex[oldKeys[k]]
			if !ok {
				deleteAt(k)
				continue
			}
			delete(newIndex, oldKeys[k])
			m.Indices[j] = k
			reused++
		}
	}
	if reused == 0 {
		return nil
	}
	return m
}

func (r *Repeat) keyed() bool {
	return r.forOf != nil && (r.forOf.KeyProperty != "" || r.forOf.KeyExpr != nil)
}

// keyOf returns the comparable identity of item. Unkeyed objects are their
// own key; unkeyed values get a key from their position, type and text.
func (r *Repeat) keyOf(item any, index int) any {
	switch {
	case r.forOf != nil && r.forOf.KeyProperty != "":
		return keyValue(observation.Get(item, r.forOf.KeyProperty))
	case r.forOf != nil && r.forOf.KeyExpr != nil:
		memo, cacheable := hashKey(item)
		if cacheable {
			if k, ok := r.keyMap[memo]; ok {
				return k
			}
		}
		s, err := r.newScope(item)
		if err != nil {
			return ensureUnique(item, index)
		}
		v, err := r.forOf.KeyExpr.Evaluate(s, r.ctrl.HostScope, r.ctrl.Env, nil)
		if err != nil {
			r.ctrl.Platform.Logger.Warn("repeat key failed", "controller", r.ctrl.Path(), "error", err)
			return ensureUnique(item, index)
		}
		k := keyValue(v)
		if cacheable {
			r.keyMap[memo] = k
			r.scopeMap[memo] = s
		}
		return k
	}
	return ensureUnique(item, index)
}

// scopeFor returns the scope of the view rendering item at index, reusing
// one built while computing keys
func (r *Repeat) scopeFor(item any, index, length int) (*scope.Scope, error) {
	var s *scope.Scope
	if memo, ok := hashKey(item); ok {
		if cached := r.scopeMap[memo]; cached != nil {
			s = cached
			delete(r.scopeMap, memo)
		}
	}
	if s == nil {
		var err error
		if s, err = r.newScope(item); err != nil {
			return nil, err
		}
	}
	setContextual(s.OverrideContext, index, length)
	return s, nil
}

func (r *Repeat) newScope(item any) (*scope.Scope, error) {
	bc := observation.NewObject(nil)
	if r.forOf != nil {
		r.forOf.DeclareItem(bc, item)
	}
	return scope.WithOverride(r.ctrl.Scope, bc, &scope.OverrideContext{})
}

// refresh updates a reused view for its item and position
func (r *Repeat) refresh(view *templating.Controller, item any, index, length int) {
	s := view.Scope
	if s == nil {
		return
	}
	if bc, ok := s.BindingContext.(*observation.Object); ok && r.forOf != nil {
		next := observation.NewObject(nil)
		r.forOf.DeclareItem(next, item)
		for _, k := range next.Keys() {
			if v := next.Get(k); !observation.Same(bc.Get(k), v) {
				bc.Set(k, v)
			}
		}
	}
	setContextual(s.OverrideContext, index, length)
}

func (r *Repeat) resetCaches() {
	r.keyMap = make(map[any]any)
	r.scopeMap = make(map[any]*scope.Scope)
}

func (r *Repeat) Dispose() {
	r.unobserve()
	for _, view := range r.views {
		view.Dispose()
	}
	r.views = nil
}

func setContextual(oc *scope.OverrideContext, index, length int) {
	first, last, even := index == 0, index == length-1, index%2 == 0
	for _, p := range []struct {
		name  string
		value any
	}{
		{"$index", index},
		{"$first", first},
		{"$last", last},
		{"$middle", !first && !last},
		{"$even", even},
		{"$odd", !even},
		{"$length", length},
	} {
		if v, ok := oc.Lookup(p.name); !ok || !observation.Same(v, p.value) {
			oc.Set(p.name, p.value)
		}
	}
}

// hashKey reports whether v can be used as a map key
func hashKey(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	return v, reflect.ValueOf(v).Comparable()
}

// keyValue makes a key comparable: numbers compare by value, anything that
// cannot be a map key by its text
func keyValue(v any) any {
	if f, ok := observation.ToFloat(v); ok {
		return f
	}
	if _, ok := hashKey(v); ok {
		return v
	}
	return fmt.Sprintf("%#v", v)
}

type identity struct {
	kind reflect.Kind
	ptr  uintptr
}

// ensureUnique keys an unkeyed item. References are their own key. Values
// are keyed by index, type and text, so equal values at different positions
// never correlate.
func ensureUnique(item any, index int) any {
	if item != nil {
		v := reflect.ValueOf(item)
		switch v.Kind() {
		case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
			return item
		case reflect.Map, reflect.Slice, reflect.Func:
			return identity{v.Kind(), v.Pointer()}
		}
	}
	return fmt.Sprintf("%d%s%s", index, typeOf(item), util.Stringify(item))
}

func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	}
	if _, ok := observation.ToFloat(v); ok {
		return "number"
	}
	return "object"
}
