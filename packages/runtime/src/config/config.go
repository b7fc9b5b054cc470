// Package config loads application files: the compiled components of an
// application, the name of its root, the data its view-model starts with, and
// the runtime settings (view cache, logging).
//
// A minimal file:
//
//	root: app
//	data:
//	  name: world
//	components:
//	  - name: app
//	    template: <p><au-m class="au"></au-m></p>
//	    instructions:
//	      - - type: ha
//	          from: Hello ${name}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/logging"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/templating"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid application config")

// Log holds the logger settings. Empty fields leave the choice to the caller.
type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// App is an application file
type App struct {
	// Root names the component rendered into the host
	Root string `yaml:"root"`
	// Document is the page the application renders into. Empty means an
	// empty document.
	Document string `yaml:"document,omitempty"`
	// Host selects the host element in Document. Empty means the body.
	Host       string                          `yaml:"host,omitempty"`
	Data       map[string]any                  `yaml:"data,omitempty"`
	Components []*definition.ElementDefinition `yaml:"components"`
	// ViewCacheSize is a number or "*". Empty leaves template controllers
	// with their own defaults.
	ViewCacheSize string `yaml:"viewCacheSize,omitempty"`
	Log           Log    `yaml:"log,omitempty"`
}

// Load reads and validates the application file at path
func Load(path string) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates an application file. Unknown keys are errors.
func Parse(src []byte) (*App, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	var cfg App
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names, settings and every component definition
func (a *App) Validate() error {
	if a.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(a.Components))
	for i, c := range a.Components {
		if c == nil || c.Name == "" {
			return fmt.Errorf("%w: component %d has no name", ErrInvalid, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: component %q is defined twice", ErrInvalid, c.Name)
		}
		seen[c.Name] = true
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if !seen[a.Root] {
		return fmt.Errorf("%w: root component %q is not defined", ErrInvalid, a.Root)
	}
	if _, _, err := a.CacheSize(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := logging.ParseLevel(a.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch strings.ToLower(a.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", ErrInvalid, a.Log.Format)
	}
	return nil
}

// RootDefinition returns the definition of the root component
func (a *App) RootDefinition() *definition.ElementDefinition {
	for _, c := range a.Components {
		if c.Name == a.Root {
			return c
		}
	}
	return nil
}

// Resources returns the components other than the root, for registration in
// the application container
func (a *App) Resources() []definition.Resource {
	var out []definition.Resource
	for _, c := range a.Components {
		if c.Name != a.Root {
			out = append(out, c)
		}
	}
	return out
}

// CacheSize parses ViewCacheSize. ok is false when it is not set.
func (a *App) CacheSize() (size int, ok bool, err error) {
	if strings.TrimSpace(a.ViewCacheSize) == "" {
		return 0, false, nil
	}
	size, err = templating.ParseCacheSize(a.ViewCacheSize)
	if err != nil {
		return 0, false, err
	}
	return size, true, nil
}

// Model turns Data into the root view-model: mappings become observable
// objects and sequences observable arrays
func (a *App) Model() *observation.Object {
	values := make(map[string]any, len(a.Data))
	for k, v := range a.Data {
		values[k] = observable(v)
	}
	return observation.NewObject(values)
}

func observable(v any) any {
	switch v := v.(type) {
	case map[string]any:
		values := make(map[string]any, len(v))
		for k, item := range v {
			values[k] = observable(item)
		}
		return observation.NewObject(values)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = observable(item)
		}
		return observation.NewArray(items...)
	}
	return v
}
