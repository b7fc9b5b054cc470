// Package runtime is the controller lifecycle and rendering kernel: it turns
// compiled component definitions into live views over a golang.org/x/net/html
// document and keeps them in sync with their view-models.
//
// Templates arrive already compiled. A definition carries markup whose
// instruction targets are marked with the "au" class, and one row of
// instructions per target. The runtime never parses template syntax itself,
// only binding expressions.
//
// Main sub-packages:
//
//   - async: Ready/Pending results and the Then/All combinators every lifecycle hook returns through
//   - platform: document, logger, clock and the microtask, DOM write, DOM read and macrotask queues
//   - di: the container resources, services and per-component values resolve from
//   - observation: observable objects and collections, property and bindable observers, index maps
//   - scope: binding context chains and name resolution
//   - expression: binding expression lexer, parser and evaluator
//   - dom: node helpers, node sequences, render locations and selector queries
//   - binding: property, interpolation, listener, ref, let and attribute bindings, binding behaviors
//   - definition: component, attribute and instruction definitions, builders and YAML decoding
//   - templating: the Controller state machine, view factories and the renderers
//   - templatecontrollers: if/else, repeat, with, switch/case, promise and portal
//   - app: the composition root (Aurelia, App, Start, Stop, Enhance)
//   - config: YAML application files
//   - testutil: a started application with a manual clock, for tests
//
// A minimal application:
//
//	au := app.New()
//	au.Register(components...)
//	if _, err := au.App(app.Config{Definition: root, Component: vm}); err != nil {
//		return err
//	}
//	if err := au.Start(ctx); err != nil {
//		return err
//	}
package runtime
