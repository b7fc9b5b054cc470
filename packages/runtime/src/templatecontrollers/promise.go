package templatecontrollers

import (
	"fmt"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/scope"
	"au-go/packages/runtime/src/templating"
)

// PromiseDefinition is the promise template controller. Its view holds the
// pending, then and catch branches.
func PromiseDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("promise").
		Bindable("value", definition.AsPrimary()).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &Promise{owned: o}, nil
		}).
		MustBuild()
}

// PendingDefinition is the branch shown while the promise is unsettled
func PendingDefinition() *definition.AttributeDefinition {
	return branchDefinition("pending", branchPending, binding.ToView)
}

// FulfilledDefinition is the then branch. Its value receives the resolved value.
func FulfilledDefinition() *definition.AttributeDefinition {
	return branchDefinition("then", branchFulfilled, binding.FromView)
}

// RejectedDefinition is the catch branch. Its value receives the error.
func RejectedDefinition() *definition.AttributeDefinition {
	return branchDefinition("catch", branchRejected, binding.FromView)
}

type branchKind int

const (
	branchPending branchKind = iota
	branchFulfilled
	branchRejected
)

func branchDefinition(name string, kind branchKind, mode binding.Mode) *definition.AttributeDefinition {
	return definition.NewTemplateController(name).
		Bindable("value", definition.AsPrimary(), definition.WithMode(mode)).
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &PromiseBranch{owned: o, kind: kind}, nil
		}).
		MustBuild()
}

// Promise shows its pending branch until Value, an *async.Promise, settles,
// then its then or catch branch. Branch swaps run on the DOM write queue.
type Promise struct {
	owned

	Value any

	view      *templating.Controller
	viewScope *scope.Scope
	pending   *PromiseBranch
	fulfilled *PromiseBranch
	rejected  *PromiseBranch

	preSettled  *platform.Task
	postSettled *platform.Task
}

// Link creates the view holding the branches
func (p *Promise) Link(_ templating.Owner, c *templating.Controller, _ any, _ definition.Instruction) error {
	p.ctrl = c
	view, err := p.createView()
	if err != nil {
		return err
	}
	p.view = view
	return nil
}

func (p *Promise) Attaching(initiator, _ *templating.Controller) async.Result {
	s, err := scope.FromParent(p.ctrl.Scope, observation.NewObject(nil))
	if err != nil {
		return async.Fail(err)
	}
	p.viewScope = s
	return async.Then(p.view.Activate(initiator, p.ctrl, 0, s, p.ctrl.HostScope), func() async.Result {
		p.swap()
		return async.Ready()
	})
}

func (p *Promise) Detaching(initiator, _ *templating.Controller) async.Result {
	p.cancelTasks()
	return p.view.Deactivate(initiator, p.ctrl, 0)
}

func (p *Promise) ValueChanged(_, _ any) {
	if p.ctrl == nil || !p.ctrl.IsActive() {
		return
	}
	p.swap()
}

func (p *Promise) cancelTasks() {
	if p.preSettled != nil {
		p.preSettled.Cancel()
	}
	if p.postSettled != nil {
		p.postSettled.Cancel()
	}
	p.preSettled, p.postSettled = nil, nil
}

// swap schedules the pending branch, then the settled branch once the
// promise settles. A settlement is ignored when Value changed in between.
func (p *Promise) swap() {
	value, ok := p.Value.(*async.Promise)
	if !ok {
		p.ctrl.Platform.Logger.Warn("promise value is not a promise, nothing changes",
			"controller", p.ctrl.Path(), "value", fmt.Sprint(p.Value))
		return
	}
	q := p.ctrl.Platform.DomWriteQueue
	s := p.viewScope

	run := func() {
		pre := q.QueueTask(func() async.Result {
			return async.All(p.fulfilled.deactivate(nil), p.rejected.deactivate(nil), p.pending.activate(nil, s, nil))
		}, platform.TaskOptions{})
		p.preSettled = pre
		value.OnSettled(func(data any, err error) {
			if current, _ := p.Value.(*async.Promise); current != value {
				return
			}
			settle := func() {
				p.postSettled = q.QueueTask(func() async.Result {
					if err != nil {
						return async.All(p.pending.deactivate(nil), p.fulfilled.deactivate(nil), p.rejected.activate(nil, s, err))
					}
					return async.All(p.pending.deactivate(nil), p.rejected.deactivate(nil), p.fulfilled.activate(nil, s, data))
				}, platform.TaskOptions{})
			}
			if pre.Status() == platform.TaskRunning {
				pre.Result().OnSettled(func(any, error) { settle() })
				return
			}
			pre.Cancel()
			settle()
		})
	}

	if pre := p.preSettled; pre != nil && pre.Status() != platform.TaskRunning {
		pre.Cancel()
	}
	if post := p.postSettled; post != nil && post.Status() == platform.TaskRunning {
		post.Result().OnSettled(func(any, error) { run() })
		return
	}
	if p.postSettled != nil {
		p.postSettled.Cancel()
	}
	run()
}

func (p *Promise) Dispose() {
	p.cancelTasks()
	if p.view != nil {
		p.view.Dispose()
		p.view = nil
	}
}

// PromiseBranch is the view-model of pending, then and catch
type PromiseBranch struct {
	owned

	Value any

	kind branchKind
	view *templating.Controller
}

// Link registers the branch with the promise owning the view it renders in
func (b *PromiseBranch) Link(owner templating.Owner, c *templating.Controller, _ any, _ definition.Instruction) error {
	b.ctrl = c
	var p *Promise
	if parent := owner.RenderingController().Parent; parent != nil {
		p, _ = parent.ViewModel.(*Promise)
	}
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPromiseNotFound, c.Path())
	}
	switch b.kind {
	case branchPending:
		p.pending = b
	case branchFulfilled:
		p.fulfilled = b
	case branchRejected:
		p.rejected = b
	}
	return nil
}

// activate shows the branch. value, for then and catch, is published
// through the value bindable.
func (b *PromiseBranch) activate(initiator *templating.Controller, s *scope.Scope, value any) async.Result {
	if b == nil {
		return async.Ready()
	}
	if b.kind != branchPending {
		if ob := b.ctrl.Observer("value"); ob != nil {
			ob.SetValue(value)
		} else {
			b.Value = value
		}
	}
	if b.view == nil {
		view, err := b.createView()
		if err != nil {
			return async.Fail(err)
		}
		b.view = view
	}
	if b.view.IsActive() {
		return async.Ready()
	}
	return b.view.Activate(orSelf(initiator, b.view), b.ctrl, 0, s, b.ctrl.HostScope)
}

func (b *PromiseBranch) deactivate(initiator *templating.Controller) async.Result {
	if b == nil || b.view == nil || !b.view.IsActive() {
		return async.Ready()
	}
	return b.view.Deactivate(orSelf(initiator, b.view), b.ctrl, 0)
}

func (b *PromiseBranch) Detaching(initiator, _ *templating.Controller) async.Result {
	return b.deactivate(initiator)
}

func (b *PromiseBranch) Dispose() {
	if b.view != nil {
		b.view.Dispose()
		b.view = nil
	}
}
