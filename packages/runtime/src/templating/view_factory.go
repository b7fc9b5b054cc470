package templating

import (
	"fmt"
	"strconv"
	"strings"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
)

// CacheUnbounded lets a factory cache every returned view
const CacheUnbounded = int(^uint(0) >> 1)

// ParseCacheSize reads a cache size: a non-negative number, or "*" for unbounded
func ParseCacheSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "*" {
		return CacheUnbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid view cache size %q", s)
	}
	return n, nil
}

// ViewFactory creates the synthetic views of one template controller and
// keeps released views for reuse.
type ViewFactory struct {
	Name      string
	Context   *RenderContext
	Container *di.Container

	cacheSize int
	cache     []*Controller
}

// NewViewFactory creates a factory rendering def with container. Caching is
// off until SetCacheSize is called.
func NewViewFactory(r *Rendering, def *definition.ElementDefinition, container *di.Container) (*ViewFactory, error) {
	ctx, err := r.Compile(def, container)
	if err != nil {
		return nil, err
	}
	return &ViewFactory{Name: def.Name, Context: ctx, Container: container, cacheSize: -1}, nil
}

// SetCacheSize sets how many views the factory keeps. With doNotOverride an
// already configured size is kept.
func (f *ViewFactory) SetCacheSize(size int, doNotOverride bool) {
	if doNotOverride && f.cacheSize >= 0 {
		return
	}
	f.cacheSize = max(size, 0)
	if f.cacheSize == 0 {
		f.cache = nil
	} else if len(f.cache) > f.cacheSize {
		f.cache = f.cache[:f.cacheSize]
	}
}

// CacheSize returns the configured size, -1 when never set
func (f *ViewFactory) CacheSize() int {
	return f.cacheSize
}

// Cached returns the number of views waiting for reuse
func (f *ViewFactory) Cached() int {
	return len(f.cache)
}

// CanReturnToCache reports whether the cache has room
func (f *ViewFactory) CanReturnToCache() bool {
	return f.cacheSize > 0 && len(f.cache) < f.cacheSize
}

// TryReturnToCache keeps view for reuse when there is room
func (f *ViewFactory) TryReturnToCache(view *Controller) bool {
	if !f.CanReturnToCache() {
		return false
	}
	f.cache = append(f.cache, view)
	return true
}

// Create returns a cached view, or renders a new one. The view's Parent is
// parent until it is first deactivated, so controllers rendered inside it can
// find the template controller that owns it.
func (f *ViewFactory) Create(parent *Controller) (*Controller, error) {
	if n := len(f.cache); n > 0 {
		view := f.cache[n-1]
		f.cache = f.cache[:n-1]
		view.released = false
		view.Parent = parent
		return view, nil
	}
	return f.render(parent, f.Context.CreateNodes())
}

// Adopt renders a view over nodes that are already mounted, such as
// server-rendered markup
func (f *ViewFactory) Adopt(parent *Controller, nodes *dom.NodeSequence) (*Controller, error) {
	return f.render(parent, nodes)
}

func (f *ViewFactory) render(parent *Controller, nodes *dom.NodeSequence) (*Controller, error) {
	c, err := newController(KindSynthetic, f.Container, nil)
	if err != nil {
		return nil, err
	}
	c.Name = f.Name
	c.Factory = f
	c.Nodes = nodes
	c.Definition = f.Context.Definition
	c.Parent = parent
	if parent != nil {
		c.Hydration = parent.Hydration
		c.SSR = parent.SSR
	}
	if err := f.Context.Render(c, nodes.Targets(), nil); err != nil {
		return nil, err
	}
	return c, nil
}
