package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/config"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/templating"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load(filepath.Join("testdata", "todo.yaml"))
	require.NoError(t, err)

	require.Equal(t, "todo-app", cfg.Root)
	require.Equal(t, "#app", cfg.Host)
	require.Equal(t, config.Log{Level: "debug", Format: "json"}, cfg.Log)
	require.Contains(t, cfg.Document, `<main id="app"></main>`)

	root := cfg.RootDefinition()
	require.NotNil(t, root)
	require.Len(t, root.Instructions, 2)
	repeat, ok := root.Instructions[1][0].(*definition.HydrateTemplateController)
	require.True(t, ok, "%T", root.Instructions[1][0])
	require.Equal(t, "repeat", repeat.Res)
	if diff := cmp.Diff(definition.Instructions{&definition.IteratorBinding{From: "item of items", To: "items"}}, repeat.Props); diff != "" {
		t.Errorf("repeat props (-want +got):\n%s", diff)
	}

	resources := cfg.Resources()
	require.Len(t, resources, 1)
	item := resources[0].(*definition.ElementDefinition)
	require.Equal(t, "todo-item", item.Name)
	require.Equal(t, binding.ToView, item.Bindable("item").Mode)

	size, set, err := cfg.CacheSize()
	require.NoError(t, err)
	require.True(t, set)
	require.Equal(t, templating.CacheUnbounded, size)
}

func TestModel(t *testing.T) {
	cfg, err := config.Load(filepath.Join("testdata", "todo.yaml"))
	require.NoError(t, err)

	vm := cfg.Model()
	require.Equal(t, "Groceries", vm.Get("title"))
	items, ok := vm.Get("items").(*observation.Array)
	require.True(t, ok, "%T", vm.Get("items"))
	require.Equal(t, 2, items.Len())
	first := items.Items()[0].(*observation.Object)
	require.Equal(t, "milk", first.Get("text"))
	require.Equal(t, true, first.Get("done"))
}

func TestParseErrors(t *testing.T) {
	const app = `
components:
  - name: app
    template: '<p></p>'
`
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ``},
		{"no root", app},
		{"unknown root", "root: other\n" + app},
		{"unknown key", "root: app\ncolor: red\n" + app},
		{"duplicate component", "root: app\n" + app + "  - name: app\n    template: ''\n"},
		{"nameless component", "root: app\n" + app + "  - template: ''\n"},
		{"targets without instructions", "root: app\ncomponents:\n  - name: app\n    template: '<au-m class=\"au\"></au-m>'\n"},
		{"cache size", "root: app\nviewCacheSize: lots\n" + app},
		{"log level", "root: app\nlog:\n  level: loud\n" + app},
		{"log format", "root: app\nlog:\n  format: xml\n" + app},
		{"bindable mode", "root: app\ncomponents:\n  - name: app\n    template: ''\n    bindables:\n      - name: x\n        mode: sideways\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.src))
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}

	cfg, err := config.Parse([]byte("root: app\n" + app))
	require.NoError(t, err)
	_, set, err := cfg.CacheSize()
	require.NoError(t, err)
	require.False(t, set)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
