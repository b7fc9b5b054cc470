// Package templating drives components through their lifecycle: controllers,
// view factories, render contexts and the renderers that turn compiled
// instructions into bindings and child controllers.
package templating

import (
	"errors"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
)

var (
	// ErrInvalidState is returned for a lifecycle transition the current state does not allow
	ErrInvalidState = errors.New("invalid state transition")
	// ErrDisposed is returned when a disposed controller is used
	ErrDisposed = errors.New("controller is disposed")
	// ErrNoHydrationContext is returned when a spread cannot find the requested ancestor
	ErrNoHydrationContext = errors.New("no hydration context")
	// ErrResourceNotFound is returned when a template names an unregistered resource
	ErrResourceNotFound = errors.New("resource not found")
	// ErrTargetMismatch is returned when targets and instructions do not line up
	ErrTargetMismatch = errors.New("instruction target mismatch")
	// ErrNoRenderer is returned for an instruction type without a renderer
	ErrNoRenderer = errors.New("no renderer for instruction")
	// ErrNoScope is returned when a view is activated without a scope
	ErrNoScope = errors.New("no scope to activate with")
	// ErrViewModelInUse is returned when a view-model that already has a live
	// controller is hydrated again
	ErrViewModelInUse = errors.New("view-model already has a controller")
)

// Container keys of the services the runtime shares, and of the contextual
// values a component's container resolves while it is hydrated
var (
	PlatformKey         = di.NewKey[*platform.Platform]("platform")
	ObserverLocatorKey  = di.NewKey[*observation.ObserverLocator]("observer-locator")
	EventsKey           = di.NewKey[*dom.Events]("events")
	RegistryKey         = di.NewKey[*Registry]("controller-registry")
	RenderingKey        = di.NewKey[*Rendering]("rendering")
	NodeKey             = di.NewKey[*html.Node]("node")
	ControllerKey       = di.NewKey[*Controller]("controller")
	InstructionKey      = di.NewKey[definition.Instruction]("instruction")
	RenderLocationKey   = di.NewKey[*dom.RenderLocation]("render-location")
	ViewFactoryKey      = di.NewKey[*ViewFactory]("view-factory")
	HydrationContextKey = di.NewKey[*HydrationContext]("hydration-context")
	// ViewCacheSizeKey, when registered, sizes the cache of every view factory
	// a template controller gets
	ViewCacheSizeKey = di.NewKey[int]("view-cache-size")
)
