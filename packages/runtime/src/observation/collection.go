package observation

import "sort"

// IndexInserted marks a slot of an IndexMap that holds a new item
const IndexInserted = -2

// IndexMap relates the current indices of a collection to the indices its
// items had at the last flush. Indices[i] is the previous index of the item
// now at i, or IndexInserted.
type IndexMap struct {
	Indices        []int
	DeletedIndices []int
	DeletedItems   []any
}

// NewIndexMap returns the identity map of length n
func NewIndexMap(n int) *IndexMap {
	m := &IndexMap{Indices: make([]int, n)}
	for i := range m.Indices {
		m.Indices[i] = i
	}
	return m
}

// Len returns the current collection length the map describes
func (m *IndexMap) Len() int {
	return len(m.Indices)
}

// HasChanges reports whether the map differs from identity
func (m *IndexMap) HasChanges() bool {
	if len(m.DeletedIndices) > 0 {
		return true
	}
	for i, v := range m.Indices {
		if v != i {
			return true
		}
	}
	return false
}

// Clone copies the map
func (m *IndexMap) Clone() *IndexMap {
	return &IndexMap{
		Indices:        append([]int(nil), m.Indices...),
		DeletedIndices: append([]int(nil), m.DeletedIndices...),
		DeletedItems:   append([]any(nil), m.DeletedItems...),
	}
}

// CollectionKind tells the built-in collections apart
type CollectionKind int

const (
	KindArray CollectionKind = iota
	KindSet
	KindMap
)

// Collection is an ordered container with a length
type Collection interface {
	Len() int
}

// ObservableCollection is a collection that can report structural changes
type ObservableCollection interface {
	Collection
	Kind() CollectionKind
	observe(queue *FlushQueue) *CollectionObserver
}

// CollectionObserver accumulates an IndexMap between flushes and hands it to subscribers
type CollectionObserver struct {
	kind       CollectionKind
	collection ObservableCollection
	queue      *FlushQueue
	subs       CollectionSubscriberRecord
	length     *LengthObserver

	indexMap *IndexMap
}

func newCollectionObserver(c ObservableCollection, queue *FlushQueue) *CollectionObserver {
	return &CollectionObserver{kind: c.Kind(), collection: c, queue: queue}
}

// Collection returns the observed collection
func (o *CollectionObserver) Collection() ObservableCollection {
	return o.collection
}

func (o *CollectionObserver) Subscribe(s CollectionSubscriber) {
	o.subs.Add(s)
}

func (o *CollectionObserver) Unsubscribe(s CollectionSubscriber) {
	o.subs.Remove(s)
}

// LengthObserver returns the observer of the collection's length or size
func (o *CollectionObserver) LengthObserver() *LengthObserver {
	if o.length == nil {
		o.length = &LengthObserver{observer: o, value: o.collection.Len()}
		o.Subscribe(o.length)
	}
	return o.length
}

// begin starts recording changes against the length before the mutation
func (o *CollectionObserver) begin(length int) {
	if o == nil || o.indexMap != nil {
		return
	}
	o.indexMap = NewIndexMap(length)
	if o.queue == nil {
		return
	}
	o.queue.Add(o)
}

func (o *CollectionObserver) splice(start, deleteCount int, deleted []any, insertCount int) {
	if o == nil {
		return
	}
	m := o.indexMap
	for i := 0; i < deleteCount; i++ {
		if prev := m.Indices[start+i]; prev >= 0 {
			m.DeletedIndices = append(m.DeletedIndices, prev)
			m.DeletedItems = append(m.DeletedItems, deleted[i])
		}
	}
	inserted := make([]int, insertCount)
	for i := range inserted {
		inserted[i] = IndexInserted
	}
	tail := append([]int(nil), m.Indices[start+deleteCount:]...)
	m.Indices = append(append(m.Indices[:start], inserted...), tail...)
	if o.queue == nil {
		o.flush()
	}
}

func (o *CollectionObserver) permute(perm []int) {
	if o == nil {
		return
	}
	m := o.indexMap
	next := make([]int, len(perm))
	for i, p := range perm {
		next[i] = m.Indices[p]
	}
	m.Indices = next
	if o.queue == nil {
		o.flush()
	}
}

func (o *CollectionObserver) flush() {
	m := o.indexMap
	o.indexMap = nil
	if m == nil || !m.HasChanges() {
		return
	}
	o.subs.Notify(o.collection, m)
}

// LengthObserver observes the length of an Array or the size of a Set or Map
type LengthObserver struct {
	observer *CollectionObserver
	value    int
	subs     SubscriberRecord
}

func (o *LengthObserver) GetValue() any {
	return o.observer.collection.Len()
}

// SetValue truncates arrays; sets and maps ignore it
func (o *LengthObserver) SetValue(value any) {
	arr, ok := o.observer.collection.(*Array)
	if !ok {
		return
	}
	if n, ok := ToFloat(value); ok {
		arr.Truncate(int(n))
	}
}

func (o *LengthObserver) Subscribe(s Subscriber) {
	o.subs.Add(s)
}

func (o *LengthObserver) Unsubscribe(s Subscriber) {
	o.subs.Remove(s)
}

func (o *LengthObserver) HandleCollectionChange(c Collection, _ *IndexMap) {
	old := o.value
	o.value = c.Len()
	if old != o.value {
		o.subs.Notify(o.value, old)
	}
}

// Array is an observable list
type Array struct {
	items    []any
	observer *CollectionObserver
}

// NewArray creates an array holding items
func NewArray(items ...any) *Array {
	return &Array{items: append([]any(nil), items...)}
}

func (a *Array) Kind() CollectionKind { return KindArray }

func (a *Array) observe(queue *FlushQueue) *CollectionObserver {
	if a.observer == nil {
		a.observer = newCollectionObserver(a, queue)
	}
	return a.observer
}

// Len returns the number of items
func (a *Array) Len() int {
	return len(a.items)
}

// At returns the item at i, nil when out of range
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns a copy of the items
func (a *Array) Items() []any {
	return append([]any(nil), a.items...)
}

// IndexOf returns the first index holding a value Same as v, or -1
func (a *Array) IndexOf(v any) int {
	for i, item := range a.items {
		if Same(item, v) {
			return i
		}
	}
	return -1
}

// Includes reports whether the array holds v
func (a *Array) Includes(v any) bool {
	return a.IndexOf(v) >= 0
}

// Splice removes deleteCount items at start, inserts items there and returns the removed items
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	n := len(a.items)
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}
	if deleteCount == 0 && len(items) == 0 {
		return nil
	}
	a.observer.begin(n)
	deleted := append([]any(nil), a.items[start:start+deleteCount]...)
	tail := append([]any(nil), a.items[start+deleteCount:]...)
	a.items = append(append(a.items[:start], items...), tail...)
	a.observer.splice(start, deleteCount, deleted, len(items))
	return deleted
}

// Push appends items and returns the new length
func (a *Array) Push(items ...any) int {
	a.Splice(len(a.items), 0, items...)
	return len(a.items)
}

// Pop removes and returns the last item
func (a *Array) Pop() any {
	if len(a.items) == 0 {
		return nil
	}
	return a.Splice(len(a.items)-1, 1)[0]
}

// Shift removes and returns the first item
func (a *Array) Shift() any {
	if len(a.items) == 0 {
		return nil
	}
	return a.Splice(0, 1)[0]
}

// Unshift prepends items and returns the new length
func (a *Array) Unshift(items ...any) int {
	a.Splice(0, 0, items...)
	return len(a.items)
}

// Set replaces the item at i. Setting at Len appends.
func (a *Array) Set(i int, v any) {
	if i == len(a.items) {
		a.Push(v)
		return
	}
	if i < 0 || i > len(a.items) {
		return
	}
	a.Splice(i, 1, v)
}

// Truncate shortens the array to n items
func (a *Array) Truncate(n int) {
	if n < len(a.items) && n >= 0 {
		a.Splice(n, len(a.items)-n)
	}
}

// Replace swaps the whole content
func (a *Array) Replace(items ...any) {
	a.Splice(0, len(a.items), items...)
}

// Reverse reverses the items in place
func (a *Array) Reverse() {
	n := len(a.items)
	if n < 2 {
		return
	}
	a.observer.begin(n)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = n - 1 - i
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.observer.permute(perm)
}

// Sort sorts the items stably with less
func (a *Array) Sort(less func(x, y any) bool) {
	n := len(a.items)
	if n < 2 {
		return
	}
	a.observer.begin(n)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	items := a.items
	sort.SliceStable(perm, func(i, j int) bool { return less(items[perm[i]], items[perm[j]]) })
	sorted := make([]any, n)
	for i, p := range perm {
		sorted[i] = items[p]
	}
	a.items = sorted
	a.observer.permute(perm)
}

// Set is an observable insertion-ordered set
type Set struct {
	items    []any
	observer *CollectionObserver
}

// NewSet creates a set holding the distinct values of items
func NewSet(items ...any) *Set {
	s := &Set{}
	for _, v := range items {
		if s.indexOf(v) < 0 {
			s.items = append(s.items, v)
		}
	}
	return s
}

func (s *Set) Kind() CollectionKind { return KindSet }

func (s *Set) observe(queue *FlushQueue) *CollectionObserver {
	if s.observer == nil {
		s.observer = newCollectionObserver(s, queue)
	}
	return s.observer
}

func (s *Set) indexOf(v any) int {
	for i, item := range s.items {
		if Same(item, v) {
			return i
		}
	}
	return -1
}

// Len returns the number of values
func (s *Set) Len() int {
	return len(s.items)
}

// Values returns the values in insertion order
func (s *Set) Values() []any {
	return append([]any(nil), s.items...)
}

// Has reports whether v is in the set
func (s *Set) Has(v any) bool {
	return s.indexOf(v) >= 0
}

// Add inserts v when absent
func (s *Set) Add(v any) {
	if s.indexOf(v) >= 0 {
		return
	}
	s.observer.begin(len(s.items))
	s.items = append(s.items, v)
	s.observer.splice(len(s.items)-1, 0, nil, 1)
}

// Delete removes v and reports whether it was present
func (s *Set) Delete(v any) bool {
	i := s.indexOf(v)
	if i < 0 {
		return false
	}
	s.observer.begin(len(s.items))
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.observer.splice(i, 1, []any{v}, 0)
	return true
}

// Clear removes every value
func (s *Set) Clear() {
	if len(s.items) == 0 {
		return
	}
	s.observer.begin(len(s.items))
	deleted := s.items
	s.items = nil
	s.observer.splice(0, len(deleted), deleted, 0)
}

// Map is an observable insertion-ordered map
type Map struct {
	keys     []any
	values   []any
	observer *CollectionObserver
}

// NewMap creates an empty map
func NewMap() *Map {
	return &Map{}
}

func (m *Map) Kind() CollectionKind { return KindMap }

func (m *Map) observe(queue *FlushQueue) *CollectionObserver {
	if m.observer == nil {
		m.observer = newCollectionObserver(m, queue)
	}
	return m.observer
}

func (m *Map) indexOf(k any) int {
	for i, key := range m.keys {
		if Same(key, k) {
			return i
		}
	}
	return -1
}

// Len returns the number of entries
func (m *Map) Len() int {
	return len(m.keys)
}

// Get returns the value of k
func (m *Map) Get(k any) (any, bool) {
	if i := m.indexOf(k); i >= 0 {
		return m.values[i], true
	}
	return nil, false
}

// Has reports whether k is present
func (m *Map) Has(k any) bool {
	return m.indexOf(k) >= 0
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []any {
	return append([]any(nil), m.keys...)
}

// Entries returns [key, value] pairs in insertion order
func (m *Map) Entries() [][2]any {
	out := make([][2]any, len(m.keys))
	for i := range m.keys {
		out[i] = [2]any{m.keys[i], m.values[i]}
	}
	return out
}

// Set assigns k. Replacing the value of an existing key counts as a replaced entry.
func (m *Map) Set(k, v any) {
	if i := m.indexOf(k); i >= 0 {
		if Same(m.values[i], v) {
			return
		}
		m.observer.begin(len(m.keys))
		old := [2]any{k, m.values[i]}
		m.values[i] = v
		m.observer.splice(i, 1, []any{old}, 1)
		return
	}
	m.observer.begin(len(m.keys))
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	m.observer.splice(len(m.keys)-1, 0, nil, 1)
}

// Delete removes k and reports whether it was present
func (m *Map) Delete(k any) bool {
	i := m.indexOf(k)
	if i < 0 {
		return false
	}
	m.observer.begin(len(m.keys))
	old := [2]any{k, m.values[i]}
	m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
	m.values = append(m.values[:i:i], m.values[i+1:]...)
	m.observer.splice(i, 1, []any{old}, 0)
	return true
}

// Clear removes every entry
func (m *Map) Clear() {
	if len(m.keys) == 0 {
		return
	}
	m.observer.begin(len(m.keys))
	deleted := make([]any, len(m.keys))
	for i := range m.keys {
		deleted[i] = [2]any{m.keys[i], m.values[i]}
	}
	m.keys, m.values = nil, nil
	m.observer.splice(0, len(deleted), deleted, 0)
}
