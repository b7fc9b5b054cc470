package async

import (
	"context"
	"sync"
)

// State is the settlement state of a Promise
type State int

const (
	StatePending State = iota
	StateFulfilled
	StateRejected
)

// Promise is a one-shot value that settles at most once with either a value or an error.
// Callbacks registered through OnSettled run on the goroutine that settles the promise,
// or immediately when the promise has already settled.
type Promise struct {
	mu        sync.Mutex
	state     State
	value     interface{}
	err       error
	callbacks []func(interface{}, error)
	done      chan struct{}
}

// NewPromise creates a pending Promise
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved creates a Promise fulfilled with value
func Resolved(value interface{}) *Promise {
	p := NewPromise()
	p.Resolve(value)
	return p
}

// Rejected creates a Promise rejected with err
func Rejected(err error) *Promise {
	p := NewPromise()
	p.Reject(err)
	return p
}

// Resolve fulfills the promise. Resolving with another *Promise adopts its outcome.
func (p *Promise) Resolve(value interface{}) {
	if other, ok := value.(*Promise); ok {
		if other == p {
			return
		}
		other.OnSettled(func(v interface{}, err error) {
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(v)
		})
		return
	}
	p.settle(StateFulfilled, value, nil)
}

// Reject rejects the promise with err
func (p *Promise) Reject(err error) {
	p.settle(StateRejected, nil, err)
}

func (p *Promise) settle(state State, value interface{}, err error) {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return
	}
	p.state = state
	p.value = value
	p.err = err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
}

// OnSettled registers fn to run once the promise settles
func (p *Promise) OnSettled(fn func(value interface{}, err error)) {
	p.mu.Lock()
	if p.state == StatePending {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	value, err := p.value, p.err
	p.mu.Unlock()
	fn(value, err)
}

// Then returns a promise that settles with the result of fn once p fulfills.
// A rejection of p skips fn and rejects the returned promise.
func (p *Promise) Then(fn func(value interface{}) Result) *Promise {
	next := NewPromise()
	p.OnSettled(func(value interface{}, err error) {
		if err != nil {
			next.Reject(err)
			return
		}
		fn(value).forward(next)
	})
	return next
}

// State returns the current settlement state
func (p *Promise) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Settled reports whether the promise is no longer pending
func (p *Promise) Settled() bool {
	return p.State() != StatePending
}

// Value returns the fulfillment value, nil while pending or when rejected
func (p *Promise) Value() interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Err returns the rejection error, nil while pending or when fulfilled
func (p *Promise) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done returns a channel closed when the promise settles
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise settles or ctx is done
func (p *Promise) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
