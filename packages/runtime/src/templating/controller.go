package templating

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/scope"
)

// Kind tells custom elements, custom attributes and synthetic views apart
type Kind int

const (
	KindElement Kind = iota
	KindAttribute
	KindSynthetic
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "customElement"
	case KindAttribute:
		return "customAttribute"
	case KindSynthetic:
		return "synthetic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the lifecycle state of a controller
type State int

const (
	StateNone State = iota
	StateActivating
	StateActivated
	StateDeactivating
	StateDeactivated
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateDeactivating:
		return "deactivating"
	case StateDeactivated:
		return "deactivated"
	case StateDisposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Flags modify a lifecycle operation
type Flags uint8

const (
	// FlagDispose disposes synthetic views once they are unbound instead of caching them
	FlagDispose Flags = 1 << iota
)

type mountTarget int

const (
	mountNone mountTarget = iota
	mountHost
	mountLocation
)

// Owner collects the bindings and child controllers renderers create
type Owner interface {
	// RenderingController returns the controller whose container and
	// environment the renderers use
	RenderingController() *Controller
	AddBinding(b binding.Binding)
	AddChild(c *Controller)
}

// Controller drives one custom element, custom attribute or synthetic view
// through hydrate, activate, deactivate and dispose.
type Controller struct {
	Name      string
	Kind      Kind
	ViewModel any

	Definition          *definition.ElementDefinition
	AttributeDefinition *definition.AttributeDefinition

	Container *di.Container
	Platform  *platform.Platform
	Env       *binding.Env

	// Host is the element of a custom element or attribute, or the mount
	// parent of a view moved by SetHost
	Host      *html.Node
	Location  *dom.RenderLocation
	Nodes     *dom.NodeSequence
	Factory   *ViewFactory
	Hydration *HydrationContext

	Parent    *Controller
	Children  []*Controller
	Bindings  []binding.Binding
	Scope     *scope.Scope
	HostScope *scope.Scope
	// SSR is carried through rendering untouched for template controllers
	// that adopt server-rendered nodes
	SSR any

	state        State
	flags        Flags
	hooks        hooks
	registry     *Registry
	logger       *slog.Logger
	mount        mountTarget
	scopeLocked  bool
	released     bool
	bindingsDone bool
	observers    map[string]*observation.BindableObserver

	initiator        *Controller
	head, tail, next *Controller
	detachingStack   int
	unbindingStack   int
	deactivation     *async.Promise
	deactivationErr  error
}

func newController(kind Kind, container *di.Container, vm any) (*Controller, error) {
	p, err := di.Get(container, PlatformKey)
	if err != nil {
		return nil, err
	}
	locator, err := di.Get(container, ObserverLocatorKey)
	if err != nil {
		return nil, err
	}
	events, err := di.Get(container, EventsKey)
	if err != nil {
		return nil, err
	}
	registry, err := di.Get(container, RegistryKey)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		Kind:      kind,
		ViewModel: vm,
		Container: container,
		Platform:  p,
		hooks:     hooksOf(vm),
		registry:  registry,
		logger:    p.Logger,
	}
	c.Env = &binding.Env{
		Locator:   locator,
		Resources: containerResources{container},
		Platform:  p,
		Events:    events,
	}
	return c, nil
}

// State returns the lifecycle state
func (c *Controller) State() State {
	return c.state
}

// IsActive reports whether the controller is activating or activated
func (c *Controller) IsActive() bool {
	return c.state == StateActivating || c.state == StateActivated
}

// RenderingController implements Owner
func (c *Controller) RenderingController() *Controller {
	return c
}

// AddBinding implements Owner
func (c *Controller) AddBinding(b binding.Binding) {
	c.Bindings = append(c.Bindings, b)
}

// AddChild implements Owner
func (c *Controller) AddChild(child *Controller) {
	c.Children = append(c.Children, child)
}

// Observer returns the observer of a bindable property
func (c *Controller) Observer(name string) *observation.BindableObserver {
	return c.observers[name]
}

// LockScope fixes the scope of a synthetic view. Later activations keep it.
func (c *Controller) LockScope(s *scope.Scope) {
	c.Scope = s
	c.scopeLocked = true
}

// SetLocation makes a synthetic view mount before loc
func (c *Controller) SetLocation(loc *dom.RenderLocation) {
	c.Location = loc
	c.mount = mountLocation
}

// SetHost makes a synthetic view mount at the end of n
func (c *Controller) SetHost(n *html.Node) {
	c.Host = n
	c.mount = mountHost
}

// Release marks a synthetic view as no longer needed by its owner: once
// unbound it goes back to its factory's cache, or is disposed
func (c *Controller) Release() {
	c.released = true
}

// Path returns the names of the controller and its ancestors, outermost first
func (c *Controller) Path() string {
	var names []string
	for cur := c; cur != nil; cur = cur.Parent {
		name := cur.Name
		if name == "" {
			name = cur.Kind.String()
		}
		names = append(names, name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ">")
}

func (c *Controller) stateError(err error, transition State) error {
	return fmt.Errorf("%w: %s to %s: %s", err, c.state, transition, c.Path())
}

func (c *Controller) canNotify() bool {
	return c.state != StateActivating || c.bindingsDone
}

// Activate binds, mounts and attaches the controller and its children.
// Activating an activated controller does nothing, and so does activating a
// controller whose parent is no longer active. The result is Ready when no
// hook went asynchronous.
func (c *Controller) Activate(initiator, parent *Controller, flags Flags, s, hostScope *scope.Scope) async.Result {
	switch c.state {
	case StateNone, StateDeactivated:
		if parent != nil && !parent.IsActive() {
			return async.Ready()
		}
		c.state = StateActivating
	case StateActivated:
		return async.Ready()
	case StateDisposed:
		return async.Fail(c.stateError(ErrDisposed, StateActivating))
	default:
		return async.Fail(c.stateError(ErrInvalidState, StateActivating))
	}

	c.Parent = parent
	c.HostScope = hostScope
	switch c.Kind {
	case KindElement:
		c.Scope.Parent = s
	case KindAttribute:
		c.Scope = s
	case KindSynthetic:
		if !c.scopeLocked {
			if s == nil {
				c.state = StateNone
				return async.Fail(fmt.Errorf("%w: %s", ErrNoScope, c.Path()))
			}
			c.Scope = s
		}
	}
	c.initiator = initiator
	c.flags = flags
	c.bindingsDone = false
	c.logger.Debug("activating", "controller", c.Path(), "kind", c.Kind)

	r := async.Ready()
	if c.hooks.binding != nil {
		r = c.hooks.binding.Binding(initiator, parent)
	}
	return async.Then(r, c.bind)
}

func (c *Controller) bind() async.Result {
	for _, b := range c.Bindings {
		if err := b.Bind(c.Scope, c.HostScope); err != nil {
			return async.Fail(fmt.Errorf("%s: %w", c.Path(), err))
		}
	}
	c.bindingsDone = true
	r := async.Ready()
	if c.hooks.bound != nil {
		r = c.hooks.bound.Bound(c.initiator, c.Parent)
	}
	return async.Then(r, c.attach)
}

func (c *Controller) attach() async.Result {
	c.appendNodes()
	r := async.Ready()
	if c.hooks.attaching != nil {
		r = c.hooks.attaching.Attaching(c.initiator, c.Parent)
	}
	return async.Then(r, func() async.Result {
		return async.Then(c.activateChildren(), c.attached)
	})
}

func (c *Controller) activateChildren() async.Result {
	if len(c.Children) == 0 {
		return async.Ready()
	}
	hostScope := c.HostScope
	if c.Kind == KindElement {
		hostScope = c.Scope
	}
	results := make([]async.Result, 0, len(c.Children))
	for _, child := range c.Children {
		results = append(results, child.Activate(c.initiator, c, c.flags, c.Scope, hostScope))
	}
	return async.All(results...)
}

func (c *Controller) attached() async.Result {
	r := async.Ready()
	if c.hooks.attached != nil {
		r = c.hooks.attached.Attached(c.initiator)
	}
	return async.Then(r, func() async.Result {
		c.state = StateActivated
		c.initiator = nil
		c.logger.Debug("activated", "controller", c.Path())
		return async.Ready()
	})
}

func (c *Controller) appendNodes() {
	if c.Nodes == nil {
		return
	}
	switch c.Kind {
	case KindElement:
		if c.Location != nil {
			c.Nodes.InsertBefore(c.Location.End)
		} else if c.Host != nil {
			c.Nodes.AppendTo(c.Host)
		}
	case KindSynthetic:
		switch c.mount {
		case mountLocation:
			c.Nodes.InsertBefore(c.Location.End)
		case mountHost:
			c.Nodes.AppendTo(c.Host)
		}
	}
}

func (c *Controller) removeNodes() {
	if c.Nodes == nil || c.Kind == KindAttribute {
		return
	}
	c.Nodes.Remove()
	c.Nodes.Unlink()
}

// Deactivate detaches and unbinds the controller and its children.
//
// Every controller reached during one deactivation appends itself to a list
// kept by the initiator, in the order its detaching phase completes. The
// initiator then removes nodes and runs unbinding hooks for the whole list
// in a single pass, and finally unbinds every member in list order.
func (c *Controller) Deactivate(initiator, parent *Controller, flags Flags) async.Result {
	switch c.state {
	case StateActivated:
		c.state = StateDeactivating
	case StateNone, StateDeactivated, StateDeactivating, StateDisposed:
		return async.Ready()
	default:
		return async.Fail(c.stateError(ErrInvalidState, StateDeactivating))
	}

	c.initiator = initiator
	c.flags = flags
	c.logger.Debug("deactivating", "controller", c.Path())
	if initiator == c {
		c.deactivation = async.NewPromise()
		c.deactivationErr = nil
		c.detachingStack++
	}

	r := async.Ready()
	if c.hooks.detaching != nil {
		r = c.hooks.detaching.Detaching(initiator, parent)
	}
	if r.IsPending() {
		initiator.detachingStack++
		r.Promise().OnSettled(func(_ any, err error) {
			initiator.recordError(err)
			initiator.link(c)
			initiator.leaveDetaching()
		})
	} else {
		initiator.recordError(r.Err())
	}

	for _, child := range c.Children {
		// pending work of children is tracked by the initiator's detaching stack
		child.Deactivate(initiator, c, flags)
	}

	if !r.IsPending() {
		initiator.link(c)
	}
	if initiator != c {
		return async.Ready()
	}
	p := c.deactivation
	c.leaveDetaching()
	return async.Pending(p)
}

func (c *Controller) recordError(err error) {
	if err != nil && c.deactivationErr == nil {
		c.deactivationErr = err
	}
}

func (c *Controller) link(member *Controller) {
	if c.head == nil {
		c.head = member
	} else {
		c.tail.next = member
	}
	c.tail = member
}

func (c *Controller) leaveDetaching() {
	c.detachingStack--
	if c.detachingStack > 0 {
		return
	}
	c.unbindingStack++
	for cur := c.head; cur != nil; cur = cur.next {
		cur.removeNodes()
		if cur.hooks.unbinding == nil {
			continue
		}
		r := cur.hooks.unbinding.Unbinding(cur.initiator, cur.Parent)
		if r.IsPending() {
			c.unbindingStack++
			r.Promise().OnSettled(func(_ any, err error) {
				c.recordError(err)
				c.leaveUnbinding()
			})
			continue
		}
		c.recordError(r.Err())
	}
	c.leaveUnbinding()
}

func (c *Controller) leaveUnbinding() {
	c.unbindingStack--
	if c.unbindingStack > 0 {
		return
	}
	for cur := c.head; cur != nil; {
		next := cur.next
		cur.next = nil
		if cur != c {
			cur.unbind()
		}
		cur = next
	}
	c.head, c.tail = nil, nil
	p, err := c.deactivation, c.deactivationErr
	c.deactivation, c.deactivationErr = nil, nil
	c.unbind()
	if p == nil {
		return
	}
	if err != nil {
		p.Reject(err)
		return
	}
	p.Resolve(nil)
}

func (c *Controller) unbind() {
	for _, b := range c.Bindings {
		b.Unbind()
	}
	c.Parent = nil
	c.bindingsDone = false
	c.state = StateDeactivated
	flags := c.flags
	c.initiator = nil
	c.logger.Debug("deactivated", "controller", c.Path())
	switch c.Kind {
	case KindAttribute:
		c.Scope = nil
	case KindElement:
		if c.Scope != nil {
			c.Scope.Parent = nil
		}
	case KindSynthetic:
		if !c.scopeLocked {
			c.Scope = nil
		}
		switch {
		case flags&FlagDispose != 0:
			c.Dispose()
		case c.released:
			if c.Factory == nil || !c.Factory.TryReturnToCache(c) {
				c.Dispose()
			}
		}
	}
}

// Dispose releases the controller and its children. A disposed controller
// cannot be activated again.
func (c *Controller) Dispose() {
	if c.state == StateDisposed {
		return
	}
	c.state = StateDisposed
	if c.hooks.dispose != nil {
		c.hooks.dispose.Dispose()
	}
	for _, child := range c.Children {
		child.Dispose()
	}
	c.registry.remove(c)
	if c.Nodes != nil {
		c.Nodes.Remove()
	}
	c.Children = nil
	c.Bindings = nil
	c.Scope = nil
	c.HostScope = nil
	c.Parent = nil
	c.logger.Debug("disposed", "controller", c.Name)
}
