// Package app is the composition root: it wires the platform, the container
// and the standard resources, and drives the root component through its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/templating"
)

var (
	// ErrNoRoot is returned by Start and Stop before App or Enhance
	ErrNoRoot = errors.New("no root component")
	// ErrAlreadyStarted is returned by App once a root exists
	ErrAlreadyStarted = errors.New("root component already set")
	// ErrNoHost is returned when no host element can be found
	ErrNoHost = errors.New("no host element")
)

// Config describes the root component
type Config struct {
	// Host is the element the root renders into. It defaults to the body.
	Host *html.Node
	// Component is the root view-model. Nil gets an empty observable object
	// unless Definition has a constructor.
	Component  any
	Definition *definition.ElementDefinition
}

type options struct {
	platform      *platform.Platform
	logger        *slog.Logger
	viewCacheSize int
	cacheSet      bool
}

// Option configures an Aurelia
type Option func(*options)

// WithPlatform runs the application on p instead of a new platform over an
// empty document
func WithPlatform(p *platform.Platform) Option {
	return func(o *options) { o.platform = p }
}

// WithLogger sets the logger of the platform New creates
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithViewCacheSize sizes the view cache of every template controller.
// templating.CacheUnbounded keeps every released view.
func WithViewCacheSize(n int) Option {
	return func(o *options) {
		o.viewCacheSize = n
		o.cacheSet = true
	}
}

// Aurelia owns the container an application resolves from and its root
// component
type Aurelia struct {
	container *di.Container
	platform  *platform.Platform
	root      *Root
}

// Root is a hydrated root component
type Root struct {
	Host       *html.Node
	Controller *templating.Controller
	started    bool
}

// New creates an application with the standard services and resources registered
func New(opts ...Option) *Aurelia {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := o.platform
	if p == nil {
		var popts []platform.Option
		if o.logger != nil {
			popts = append(popts, platform.WithLogger(o.logger))
		}
		p = platform.New(nil, popts...)
	}
	c := di.New()
	RegisterStandard(c, p)
	if o.cacheSet {
		di.Register(c, templating.ViewCacheSizeKey, o.viewCacheSize)
	}
	return &Aurelia{container: c, platform: p}
}

// Container returns the root container
func (a *Aurelia) Container() *di.Container { return a.container }

// Platform returns the platform the application runs on
func (a *Aurelia) Platform() *platform.Platform { return a.platform }

// Root returns the root component, nil before App or Enhance
func (a *Aurelia) Root() *Root { return a.root }

// Register makes resources available to every template of the application
func (a *Aurelia) Register(resources ...definition.Resource) *Aurelia {
	definition.Register(a.container, resources...)
	return a
}

// App hydrates the root component. Its view renders into the host on Start.
func (a *Aurelia) App(cfg Config) (*Root, error) {
	if a.root != nil {
		return nil, ErrAlreadyStarted
	}
	root, err := a.hydrate(cfg, nil)
	if err != nil {
		return nil, err
	}
	a.root = root
	return root, nil
}

// Start activates the root component and waits for every asynchronous hook
func (a *Aurelia) Start(ctx context.Context) error {
	if a.root == nil {
		return ErrNoRoot
	}
	return a.root.activate(ctx, a.platform)
}

// Stop deactivates the root component. With dispose, the root is disposed
// and the application can take a new one.
func (a *Aurelia) Stop(ctx context.Context, dispose bool) error {
	if a.root == nil {
		return ErrNoRoot
	}
	c := a.root.Controller
	if err := a.platform.Await(ctx, c.Deactivate(c, nil, 0)); err != nil {
		return fmt.Errorf("stop %s: %w", c.Path(), err)
	}
	a.root.started = false
	a.platform.Logger.Info("app stopped", "controller", c.Path())
	if dispose {
		c.Dispose()
		a.root = nil
	}
	return nil
}

// Enhance hydrates a component over the existing children of cfg.Host
// instead of rendering a fresh copy of the template, and activates it. The
// markup must have the targets the definition's instructions expect.
func (a *Aurelia) Enhance(ctx context.Context, cfg Config) (*Root, error) {
	host := cfg.Host
	if host == nil {
		return nil, ErrNoHost
	}
	root, err := a.hydrate(cfg, dom.AdoptNodes(dom.Children(host)))
	if err != nil {
		return nil, err
	}
	if err := root.activate(ctx, a.platform); err != nil {
		return nil, err
	}
	return root, nil
}

func (a *Aurelia) hydrate(cfg Config, nodes *dom.NodeSequence) (*Root, error) {
	def := cfg.Definition
	if def == nil {
		return nil, fmt.Errorf("%w: no definition", ErrNoRoot)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	host := cfg.Host
	if host == nil {
		host = a.platform.Body()
	}
	if host == nil {
		return nil, ErrNoHost
	}
	vm := cfg.Component
	child := a.container.CreateChild()
	if vm == nil {
		var err error
		if def.New != nil {
			if vm, err = def.New(child); err != nil {
				return nil, fmt.Errorf("create %s: %w", def.Name, err)
			}
		} else {
			vm = observation.NewObject(nil)
		}
	}
	c, err := templating.ForCustomElement(vm, def, templating.ElementHydration{
		Container: child,
		Host:      host,
		Nodes:     nodes,
	})
	if err != nil {
		return nil, err
	}
	return &Root{Host: host, Controller: c}, nil
}

func (r *Root) activate(ctx context.Context, p *platform.Platform) error {
	c := r.Controller
	if err := p.Await(ctx, c.Activate(c, nil, 0, nil, nil)); err != nil {
		return fmt.Errorf("start %s: %w", c.Path(), err)
	}
	r.started = true
	p.Logger.Info("app started", "controller", c.Path())
	return nil
}

// Started reports whether the root is active
func (r *Root) Started() bool {
	return r.started
}
