package templating

import (
	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
)

// RegisterServices registers in c the services every controller resolves:
// the platform, an observer locator flushing on p's microtask queue, the
// event registry, the controller registry, the renderers, and <au-slot>.
func RegisterServices(c *di.Container, p *platform.Platform) {
	events := dom.NewEvents()
	queue := observation.NewFlushQueue(func(flush func()) {
		p.Microtasks.QueueTask(func() async.Result {
			flush()
			return async.Ready()
		}, platform.TaskOptions{})
	})
	locator := observation.NewObserverLocator(queue, dom.NewNodeObserverAdapter(events))

	di.Register(c, PlatformKey, p)
	di.Register(c, EventsKey, events)
	di.Register(c, ObserverLocatorKey, locator)
	di.Register(c, RegistryKey, NewRegistry())
	di.Register(c, RenderingKey, NewRendering())
	definition.Register(c, AuSlotDefinition())
}
