package binding

import (
	"fmt"
	"time"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/scope"
)

// ModeBehavior forces a binding mode while bound: `& oneTime`, `& toView`...
type ModeBehavior struct {
	Mode Mode

	original map[Binding]Mode
}

// NewModeBehavior creates the behavior for mode
func NewModeBehavior(mode Mode) *ModeBehavior {
	return &ModeBehavior{Mode: mode, original: make(map[Binding]Mode)}
}

func (m *ModeBehavior) Bind(_ *scope.Scope, b Binding, _ ...any) error {
	ms, ok := b.(ModeSetter)
	if !ok {
		return fmt.Errorf("binding %T has no mode to set to %s", b, m.Mode)
	}
	m.original[b] = ms.Mode()
	ms.SetMode(m.Mode)
	return nil
}

func (m *ModeBehavior) Unbind(_ *scope.Scope, b Binding) {
	if ms, ok := b.(ModeSetter); ok {
		if orig, ok := m.original[b]; ok {
			ms.SetMode(orig)
			delete(m.original, b)
		}
	}
}

// DefaultDebounceDelay is used when `& debounce` has no argument
const DefaultDebounceDelay = 200 * time.Millisecond

// DebounceBehavior delays a binding's updates until no new update arrived for
// the given number of milliseconds. Scheduling goes through the platform task queue.
type DebounceBehavior struct {
	Platform *platform.Platform

	pending map[Binding]*platform.Task
}

// NewDebounceBehavior creates the debounce behavior
func NewDebounceBehavior(p *platform.Platform) *DebounceBehavior {
	return &DebounceBehavior{Platform: p, pending: make(map[Binding]*platform.Task)}
}

func (d *DebounceBehavior) Bind(_ *scope.Scope, b Binding, args ...any) error {
	ib, ok := b.(Interceptable)
	if !ok {
		return fmt.Errorf("binding %T cannot be debounced", b)
	}
	delay := DefaultDebounceDelay
	if len(args) > 0 {
		if ms, ok := observation.ToFloat(args[0]); ok {
			delay = time.Duration(ms * float64(time.Millisecond))
		}
	}
	ib.SetInterceptor(func(next func()) {
		if t := d.pending[b]; t != nil {
			t.Cancel()
		}
		d.pending[b] = d.Platform.TaskQueue.QueueTask(func() async.Result {
			delete(d.pending, b)
			next()
			return async.Ready()
		}, platform.TaskOptions{Delay: delay})
	})
	return nil
}

func (d *DebounceBehavior) Unbind(_ *scope.Scope, b Binding) {
	if t := d.pending[b]; t != nil {
		t.Cancel()
		delete(d.pending, b)
	}
	if ib, ok := b.(Interceptable); ok {
		ib.SetInterceptor(nil)
	}
}
