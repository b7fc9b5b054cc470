// Package async models lifecycle steps that complete either synchronously or later.
//
// Every lifecycle hook returns a Result. A Ready result costs nothing: combinators run
// their continuation immediately on the same call stack. Only a Pending result defers
// continuations until its Promise settles.
package async

import "sync/atomic"

// Result is either Ready (optionally carrying an error) or Pending on a Promise
type Result struct {
	promise *Promise
	err     error
}

// Ready returns a successfully completed result
func Ready() Result {
	return Result{}
}

// Fail returns a completed result carrying err
func Fail(err error) Result {
	return Result{err: err}
}

// FromError returns Ready when err is nil and Fail otherwise
func FromError(err error) Result {
	if err != nil {
		return Fail(err)
	}
	return Ready()
}

// Pending wraps p. A nil or already settled promise collapses to a completed result.
func Pending(p *Promise) Result {
	if p == nil {
		return Ready()
	}
	switch p.State() {
	case StateFulfilled:
		return Ready()
	case StateRejected:
		return Fail(p.Err())
	}
	return Result{promise: p}
}

// IsPending reports whether the result still waits on a promise
func (r Result) IsPending() bool {
	return r.promise != nil && !r.promise.Settled()
}

// Err returns the error of a completed result, or of a rejected promise
func (r Result) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.promise != nil {
		return r.promise.Err()
	}
	return nil
}

// Promise returns the underlying promise, or nil for a completed result
func (r Result) Promise() *Promise {
	return r.promise
}

// ToPromise converts the result to a promise, allocating one for completed results
func (r Result) ToPromise() *Promise {
	if r.promise != nil {
		return r.promise
	}
	if r.err != nil {
		return Rejected(r.err)
	}
	return Resolved(nil)
}

func (r Result) forward(p *Promise) {
	switch {
	case r.promise != nil:
		r.promise.OnSettled(func(_ interface{}, err error) {
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(nil)
		})
	case r.err != nil:
		p.Reject(r.err)
	default:
		p.Resolve(nil)
	}
}

// Then runs fn after r completes successfully. A failed r short-circuits.
// When r is Ready, fn runs synchronously and its result is returned as is.
func Then(r Result, fn func() Result) Result {
	if r.err != nil {
		return r
	}
	if r.promise == nil {
		return fn()
	}
	next := NewPromise()
	r.promise.OnSettled(func(_ interface{}, err error) {
		if err != nil {
			next.Reject(err)
			return
		}
		fn().forward(next)
	})
	return Pending(next)
}

// Catch runs fn when r fails, replacing the failure with fn's result
func Catch(r Result, fn func(err error) Result) Result {
	if r.err != nil {
		return fn(r.err)
	}
	if r.promise == nil {
		return r
	}
	next := NewPromise()
	r.promise.OnSettled(func(_ interface{}, err error) {
		if err != nil {
			fn(err).forward(next)
			return
		}
		next.Resolve(nil)
	})
	return Pending(next)
}

// All combines results. Completed results are skipped; the combination is pending
// only while at least one input is. The first failure wins.
func All(results ...Result) Result {
	var pending []*Promise
	for _, r := range results {
		if r.err != nil {
			return r
		}
		if r.promise != nil {
			pending = append(pending, r.promise)
		}
	}
	switch len(pending) {
	case 0:
		return Ready()
	case 1:
		return Pending(pending[0])
	}
	next := NewPromise()
	var remaining atomic.Int32
	remaining.Store(int32(len(pending)))
	for _, p := range pending {
		p.OnSettled(func(_ interface{}, err error) {
			if err != nil {
				next.Reject(err)
				return
			}
			if remaining.Add(-1) == 0 {
				next.Resolve(nil)
			}
		})
	}
	return Pending(next)
}
