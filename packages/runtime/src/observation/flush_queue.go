package observation

type flushable interface {
	flush()
}

// FlushQueue batches change notifications: an observer written several times
// before the queue flushes notifies its subscribers once.
type FlushQueue struct {
	schedule  func(func())
	items     []flushable
	scheduled bool
	flushing  bool
}

// NewFlushQueue creates a queue that asks schedule to run Flush later.
// With a nil schedule the owner calls Flush explicitly.
func NewFlushQueue(schedule func(flush func())) *FlushQueue {
	return &FlushQueue{schedule: schedule}
}

// Add queues f for the next flush
func (q *FlushQueue) Add(f flushable) {
	q.items = append(q.items, f)
	if q.flushing || q.scheduled || q.schedule == nil {
		return
	}
	q.scheduled = true
	q.schedule(q.Flush)
}

// Len returns the number of queued items
func (q *FlushQueue) Len() int {
	return len(q.items)
}

// Flush notifies every queued item, including items queued while flushing
func (q *FlushQueue) Flush() {
	q.scheduled = false
	if q.flushing {
		return
	}
	q.flushing = true
	defer func() { q.flushing = false }()
	for len(q.items) > 0 {
		item := q.items[0]
		q.items = q.items[1:]
		item.flush()
	}
}
