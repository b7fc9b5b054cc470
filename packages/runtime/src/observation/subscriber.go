package observation

// Subscriber receives property change notifications
type Subscriber interface {
	HandleChange(newValue, oldValue any)
}

// CollectionSubscriber receives structural collection changes
type CollectionSubscriber interface {
	HandleCollectionChange(collection Collection, indexMap *IndexMap)
}

// Observer reads, writes and notifies about one property
type Observer interface {
	GetValue() any
	SetValue(value any)
	Subscribe(s Subscriber)
	Unsubscribe(s Subscriber)
}

// SubscriberFunc adapts a function to Subscriber. Use a pointer so the
// subscriber has an identity: `s := &SubscriberFunc{...}`.
type SubscriberFunc struct {
	Fn func(newValue, oldValue any)
}

func (f *SubscriberFunc) HandleChange(newValue, oldValue any) {
	f.Fn(newValue, oldValue)
}

// SubscriberRecord is an ordered set of subscribers
type SubscriberRecord struct {
	subs []Subscriber
}

// Add adds s unless present. It reports whether s was added.
func (r *SubscriberRecord) Add(s Subscriber) bool {
	if r.Has(s) {
		return false
	}
	r.subs = append(r.subs, s)
	return true
}

// Remove removes s. It reports whether s was present.
func (r *SubscriberRecord) Remove(s Subscriber) bool {
	for i, sub := range r.subs {
		if sub == s {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether s is subscribed
func (r *SubscriberRecord) Has(s Subscriber) bool {
	for _, sub := range r.subs {
		if sub == s {
			return true
		}
	}
	return false
}

// Count returns the number of subscribers
func (r *SubscriberRecord) Count() int {
	return len(r.subs)
}

// Notify calls every subscriber present when the notification starts
func (r *SubscriberRecord) Notify(newValue, oldValue any) {
	subs := r.subs
	for _, s := range subs {
		s.HandleChange(newValue, oldValue)
	}
}

// CollectionSubscriberRecord is an ordered set of collection subscribers
type CollectionSubscriberRecord struct {
	subs []CollectionSubscriber
}

// Add adds s unless present
func (r *CollectionSubscriberRecord) Add(s CollectionSubscriber) bool {
	for _, sub := range r.subs {
		if sub == s {
			return false
		}
	}
	r.subs = append(r.subs, s)
	return true
}

// Remove removes s
func (r *CollectionSubscriberRecord) Remove(s CollectionSubscriber) bool {
	for i, sub := range r.subs {
		if sub == s {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of subscribers
func (r *CollectionSubscriberRecord) Count() int {
	return len(r.subs)
}

// Notify calls every subscriber present when the notification starts
func (r *CollectionSubscriberRecord) Notify(c Collection, indexMap *IndexMap) {
	subs := r.subs
	for _, s := range subs {
		s.HandleCollectionChange(c, indexMap)
	}
}
