// Package testutil starts applications for tests: an empty document, a
// manual clock and a discarding logger.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/app"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/logging"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/templating"
)

// Epoch is where fixture clocks start
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Fixture is a started application rendering into a <div> of the body
type Fixture struct {
	t        testing.TB
	App      *app.Aurelia
	Platform *platform.Platform
	Clock    *platform.ManualClock
	Root     *app.Root
	Host     *html.Node
	// Component is the root view-model
	Component any
	// Logs holds what the application logged at debug level and above, as text
	Logs *bytes.Buffer
}

// New registers resources, starts root with component and stops the
// application when the test ends. A nil component is an empty observable
// object.
func New(t testing.TB, root *definition.ElementDefinition, component any, resources ...definition.Resource) *Fixture {
	t.Helper()
	f := Build(t, resources...)
	f.Start(root, component)
	return f
}

// Build creates the application without a root, for tests that need to
// register more before starting
func Build(t testing.TB, resources ...definition.Resource) *Fixture {
	t.Helper()
	clock := platform.NewManualClock(Epoch)
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if !testing.Verbose() {
		logger = logging.Discard()
	}
	p := platform.New(nil, platform.WithLogger(logger), platform.WithClock(clock.Now))
	host := dom.CreateElement("div")
	dom.Append(p.Body(), host)

	au := app.New(app.WithPlatform(p))
	au.Register(resources...)
	return &Fixture{t: t, App: au, Platform: p, Clock: clock, Host: host, Logs: logs}
}

// Start hydrates and activates root
func (f *Fixture) Start(root *definition.ElementDefinition, component any) {
	f.t.Helper()
	if component == nil {
		component = observation.NewObject(nil)
	}
	r, err := f.App.App(app.Config{Host: f.Host, Component: component, Definition: root})
	require.NoError(f.t, err)
	require.NoError(f.t, f.App.Start(context.Background()))
	f.Root = r
	f.Component = component
	f.t.Cleanup(func() {
		if f.App.Root() != nil && f.Root.Started() {
			_ = f.App.Stop(context.Background(), true)
		}
	})
}

// Settle runs every due task
func (f *Fixture) Settle() {
	f.t.Helper()
	require.NoError(f.t, f.Platform.Settle())
}

// Advance moves the clock forward and runs what became due
func (f *Fixture) Advance(d time.Duration) {
	f.t.Helper()
	f.Clock.Advance(d)
	f.Settle()
}

// Set assigns a property of the root view-model when it is an observable
// object, and settles
func (f *Fixture) Set(key string, value any) {
	f.t.Helper()
	o, ok := f.Component.(*observation.Object)
	require.True(f.t, ok, "root view-model is %T, not an observable object", f.Component)
	o.Set(key, value)
	f.Settle()
}

// HTML renders the host's children without render location comments
func (f *Fixture) HTML() string {
	clone := dom.Clone(f.Host)
	dom.StripLocations(clone)
	return dom.RenderChildren(clone)
}

// RawHTML renders the host's children as they are
func (f *Fixture) RawHTML() string {
	return dom.RenderChildren(f.Host)
}

// Query returns the first element under the host matching sel, or nil
func (f *Fixture) Query(sel string) *html.Node {
	f.t.Helper()
	n, err := dom.QuerySelector(f.Host, sel)
	require.NoError(f.t, err)
	return n
}

// Dispatch fires an event of typ at n and settles
func (f *Fixture) Dispatch(n *html.Node, typ string) *dom.Event {
	f.t.Helper()
	events := di.MustGet(f.App.Container(), templating.EventsKey)
	e := &dom.Event{Type: typ}
	events.Dispatch(n, e)
	f.Settle()
	return e
}

// Stop deactivates and disposes the root
func (f *Fixture) Stop() {
	f.t.Helper()
	require.NoError(f.t, f.App.Stop(context.Background(), true))
}
