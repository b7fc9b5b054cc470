package testutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/testutil"
)

const marker = `<au-m class="au"></au-m>`

func todoItem() *definition.ElementDefinition {
	return definition.NewElement("todo-item").
		Template(`<li>` + marker + `</li>`).
		Bindable("item", definition.WithMode(binding.ToView)).
		Target(&definition.TextBinding{From: "${item.text}"}).
		MustBuild()
}

func todoApp() *definition.ElementDefinition {
	row := definition.NewView(`<todo-item class="au"></todo-item>`).
		Target(&definition.HydrateElement{Res: "todo-item", Props: definition.Instructions{
			&definition.PropertyBinding{From: "item", To: "item"},
		}}).
		MustBuild()
	empty := definition.NewView(`<p>nothing to do</p>`).MustBuild()
	return definition.NewElement("todo-app").
		Template(`<ul>` + marker + `</ul>` + marker + `<button class="au"></button>`).
		Target(&definition.HydrateTemplateController{Res: "repeat", Def: row, Props: definition.Instructions{
			&definition.IteratorBinding{From: "item of items", To: "items"},
		}}).
		Target(&definition.HydrateTemplateController{Res: "if", Def: empty, Props: definition.Instructions{
			&definition.PropertyBinding{From: "items.length === 0", To: "value"},
		}}).
		Target(&definition.ListenerBinding{From: "items.pop()", To: "click"}).
		MustBuild()
}

func TestTodoApp(t *testing.T) {
	items := observation.NewArray(
		observation.NewObject(map[string]any{"text": "milk"}),
		observation.NewObject(map[string]any{"text": "eggs"}),
	)
	f := testutil.New(t, todoApp(), observation.NewObject(map[string]any{"items": items}), todoItem())
	require.Equal(t, `<ul><todo-item><li>milk</li></todo-item><todo-item><li>eggs</li></todo-item></ul><button></button>`, f.HTML())
	require.Contains(t, f.RawHTML(), `<!--au-start-->`)

	items.Push(observation.NewObject(map[string]any{"text": "bread"}))
	f.Settle()
	require.Equal(t, `<ul><todo-item><li>milk</li></todo-item><todo-item><li>eggs</li></todo-item><todo-item><li>bread</li></todo-item></ul><button></button>`, f.HTML())

	button := f.Query("button")
	for i := 0; i < 3; i++ {
		f.Dispatch(button, "click")
	}
	require.Equal(t, 0, items.Len())
	require.Equal(t, `<ul></ul><p>nothing to do</p><button></button>`, f.HTML())

	f.Stop()
	require.Equal(t, ``, f.HTML())
}

func TestDebouncedInput(t *testing.T) {
	def := definition.NewElement("search").
		Template(`<input class="au"><p>` + marker + `</p>`).
		Target(&definition.PropertyBinding{From: "query & debounce:100", To: "value", Mode: binding.TwoWay}).
		Target(&definition.TextBinding{From: "${query}"}).
		MustBuild()
	f := testutil.New(t, def, observation.NewObject(map[string]any{"query": ""}))
	input := f.Query("input")

	for _, typed := range []string{"a", "ab", "abc"} {
		dom.SetAttr(input, "value", typed)
		f.Dispatch(input, "input")
	}
	require.Equal(t, "", f.Component.(*observation.Object).Get("query"))

	f.Advance(99 * time.Millisecond)
	require.Equal(t, "", f.Component.(*observation.Object).Get("query"))

	f.Advance(time.Millisecond)
	require.Equal(t, "abc", f.Component.(*observation.Object).Get("query"))
	require.Equal(t, `abc`, dom.RenderChildren(f.Query("p")))
}

func TestSet(t *testing.T) {
	def := definition.NewElement("greeting").
		Template(`<p>` + marker + `</p>`).
		Target(&definition.TextBinding{From: "Hi ${name}"}).
		MustBuild()
	f := testutil.New(t, def, nil)
	require.Equal(t, `<p>Hi </p>`, f.HTML())
	f.Set("name", "Ada")
	require.Equal(t, `<p>Hi Ada</p>`, f.HTML())
}
