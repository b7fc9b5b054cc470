package observation

// Connectable is told which properties and collections an evaluation reads
type Connectable interface {
	Observe(obj any, key string)
	ObserveCollection(c Collection)
}

// Record tracks the observers a subscriber depends on. Each evaluation starts
// with Begin; Clear(false) afterwards drops what the evaluation no longer read.
type Record struct {
	locator     *ObserverLocator
	sub         Subscriber
	csub        CollectionSubscriber
	version     int
	observers   map[Observer]int
	collections map[*CollectionObserver]int
}

type collectionChange struct {
	sub Subscriber
}

func (c *collectionChange) HandleCollectionChange(collection Collection, _ *IndexMap) {
	c.sub.HandleChange(collection, collection)
}

// NewRecord creates a record subscribing sub. A nil csub turns collection
// changes into HandleChange calls on sub.
func NewRecord(locator *ObserverLocator, sub Subscriber, csub CollectionSubscriber) *Record {
	if csub == nil {
		csub = &collectionChange{sub: sub}
	}
	return &Record{
		locator:     locator,
		sub:         sub,
		csub:        csub,
		observers:   make(map[Observer]int),
		collections: make(map[*CollectionObserver]int),
	}
}

// Begin starts a new evaluation
func (r *Record) Begin() {
	r.version++
}

// Observe subscribes to key on obj
func (r *Record) Observe(obj any, key string) {
	r.Add(r.locator.GetObserver(obj, key))
}

// Add subscribes to ob for the current evaluation
func (r *Record) Add(ob Observer) {
	if _, ok := r.observers[ob]; !ok {
		ob.Subscribe(r.sub)
	}
	r.observers[ob] = r.version
}

// ObserveCollection subscribes to structural changes of c when it is observable
func (r *Record) ObserveCollection(c Collection) {
	oc, ok := c.(ObservableCollection)
	if !ok {
		return
	}
	co := r.locator.GetCollectionObserver(oc)
	if _, ok := r.collections[co]; !ok {
		co.Subscribe(r.csub)
	}
	r.collections[co] = r.version
}

// Count returns the number of observed dependencies
func (r *Record) Count() int {
	return len(r.observers) + len(r.collections)
}

// Clear unsubscribes stale dependencies, or every dependency when all is set
func (r *Record) Clear(all bool) {
	for ob, v := range r.observers {
		if all || v != r.version {
			ob.Unsubscribe(r.sub)
			delete(r.observers, ob)
		}
	}
	for co, v := range r.collections {
		if all || v != r.version {
			co.Unsubscribe(r.csub)
			delete(r.collections, co)
		}
	}
}
