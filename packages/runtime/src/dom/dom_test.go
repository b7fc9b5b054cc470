package dom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/observation"
)

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	frag, err := dom.ParseFragment(markup)
	if err != nil {
		t.Fatalf("ParseFragment(%q): %v", markup, err)
	}
	return frag
}

func TestFindTargets(t *testing.T) {
	frag := mustParse(t, `<div class="au x"><au-m class="au"></au-m><span class="au"></span></div>`)
	targets := dom.FindTargets(frag)
	if len(targets) != 3 {
		t.Fatalf("Expected 3 targets, got %d", len(targets))
	}
	if targets[0].Data != "div" || targets[2].Data != "span" {
		t.Errorf("Unexpected target order: %s, %s", targets[0].Data, targets[2].Data)
	}
	if !dom.IsLocationEnd(targets[1]) {
		t.Errorf("Expected the marker to become a render location")
	}
	want := `<div class="x"><!--au-start--><!--au-end--><span></span></div>`
	if got := dom.Render(frag); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderLocation(t *testing.T) {
	frag := mustParse(t, `<p><au-m class="au"></au-m></p>`)
	end := dom.FindTargets(frag)[0]
	loc := dom.LocationOf(end)
	if loc.Start == nil {
		t.Fatal("Expected the start comment to be found")
	}

	nested := dom.NewRenderLocation()
	dom.InsertBefore(nested.Start, loc.End)
	dom.InsertBefore(nested.End, loc.End)
	dom.InsertBefore(dom.CreateText("a"), loc.End)

	if got := dom.LocationOf(loc.End); got.Start != loc.Start {
		t.Errorf("Expected nested locations to be skipped")
	}
	if n := len(loc.Nodes()); n != 3 {
		t.Errorf("Expected 3 nodes inside the location, got %d", n)
	}
}

func TestNodeSequence(t *testing.T) {
	host := mustParse(t, `<ul><li>end</li></ul>`)
	ul := host.FirstChild
	ref := ul.FirstChild

	seq := dom.NewNodeSequence(mustParse(t, `<li>a</li><li class="au">b</li>`))
	if len(seq.Targets()) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(seq.Targets()))
	}

	t.Run("insert and remove", func(t *testing.T) {
		seq.InsertBefore(ref)
		if got, want := dom.Render(host), `<ul><li>a</li><li>b</li><li>end</li></ul>`; got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}
		seq.Remove()
		if seq.IsMounted() {
			t.Errorf("Expected sequence to be unmounted")
		}
		if got, want := dom.Render(host), `<ul><li>end</li></ul>`; got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}
	})

	t.Run("linked sequences", func(t *testing.T) {
		loc := dom.NewRenderLocation()
		ul.AppendChild(loc.Start)
		ul.AppendChild(loc.End)

		first := dom.NewNodeSequence(mustParse(t, `<li>1</li>`))
		second := dom.NewNodeSequence(mustParse(t, `<li>2</li>`))
		second.LinkLocation(loc)
		second.AddToLinked()
		first.LinkSequence(second)
		first.AddToLinked()

		want := `<ul><li>end</li><!--au-start--><li>1</li><li>2</li><!--au-end--></ul>`
		if got := dom.Render(host); got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}

		// move first after second
		second.LinkSequence(first)
		first.LinkLocation(loc)
		first.AddToLinked()
		second.AddToLinked()
		want = `<ul><li>end</li><!--au-start--><li>2</li><li>1</li><!--au-end--></ul>`
		if got := dom.Render(host); got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}
		if first.Mounts() != 2 || second.Mounts() != 2 {
			t.Errorf("Unexpected mount counts: %d, %d", first.Mounts(), second.Mounts())
		}
	})
}

func TestClone(t *testing.T) {
	frag := mustParse(t, `<div id="a"><b>x</b></div>`)
	c := dom.Clone(frag)
	dom.SetAttr(c.FirstChild, "id", "b")
	if got := dom.Render(frag); got != `<div id="a"><b>x</b></div>` {
		t.Errorf("Clone shares attributes with the original: %q", got)
	}
	if got := dom.Render(c); got != `<div id="b"><b>x</b></div>` {
		t.Errorf("Render(clone) = %q", got)
	}
}

func TestEvents(t *testing.T) {
	frag := mustParse(t, `<div><button>go</button></div>`)
	div := frag.FirstChild
	button := div.FirstChild
	events := dom.NewEvents()

	var got []string
	removeDiv := events.AddEventListener(div, "click", func(e *dom.Event) {
		got = append(got, "div")
		e.PreventDefault()
	})
	events.AddEventListener(button, "click", func(e *dom.Event) { got = append(got, "button") })

	if events.Dispatch(button, &dom.Event{Type: "click"}) {
		t.Errorf("Expected the default to be prevented")
	}
	if diff := cmp.Diff([]string{"button", "div"}, got); diff != "" {
		t.Errorf("Dispatch order mismatch (-want +got):\n%s", diff)
	}

	removeDiv()
	got = nil
	events.Dispatch(button, &dom.Event{Type: "click"})
	if diff := cmp.Diff([]string{"button"}, got); diff != "" {
		t.Errorf("Listener not removed (-want +got):\n%s", diff)
	}
}

func TestNodeObservers(t *testing.T) {
	frag := mustParse(t, `<input><p class="keep"></p>`)
	input := frag.FirstChild
	p := input.NextSibling
	events := dom.NewEvents()
	adapter := dom.NewNodeObserverAdapter(events)
	locator := observation.NewObserverLocator(nil, adapter)

	t.Run("class accessor keeps foreign classes", func(t *testing.T) {
		ob := locator.GetObserver(p, "class")
		ob.SetValue("a b")
		ob.SetValue("b c")
		if got := dom.Classes(p); !cmp.Equal(got, []string{"keep", "b", "c"}) {
			t.Errorf("Classes = %v", got)
		}
	})

	t.Run("attribute accessor", func(t *testing.T) {
		ob := locator.GetObserver(p, "ariaLabel")
		ob.SetValue("hi")
		if v, _ := dom.GetAttr(p, "aria-label"); v != "hi" {
			t.Errorf("aria-label = %q", v)
		}
		ob.SetValue(nil)
		if _, ok := dom.GetAttr(p, "aria-label"); ok {
			t.Errorf("Expected the attribute to be removed")
		}
	})

	t.Run("value observer notifies on input", func(t *testing.T) {
		ob := locator.GetObserver(input, "value")
		var changes []any
		sub := &observation.SubscriberFunc{Fn: func(v, _ any) { changes = append(changes, v) }}
		ob.Subscribe(sub)
		ob.SetValue("from binding")
		dom.SetAttr(input, "value", "typed")
		events.Dispatch(input, &dom.Event{Type: "input"})
		if diff := cmp.Diff([]any{"typed"}, changes); diff != "" {
			t.Errorf("Changes mismatch (-want +got):\n%s", diff)
		}
		ob.Unsubscribe(sub)
		if events.Count(input) != 0 {
			t.Errorf("Expected listeners to be removed")
		}
	})
}

func TestQuerySelector(t *testing.T) {
	doc := mustParse(t, `<div><section id="target" class="c"></section></div>`)
	n, err := dom.QuerySelector(doc, "#target")
	if err != nil || n == nil || n.Data != "section" {
		t.Fatalf("QuerySelector = %v, %v", n, err)
	}
	all, err := dom.QuerySelectorAll(doc, "div, .c")
	if err != nil || len(all) != 2 {
		t.Errorf("QuerySelectorAll = %d nodes, %v", len(all), err)
	}
	if _, err := dom.QuerySelector(doc, "[["); err == nil {
		t.Errorf("Expected an invalid selector error")
	}
}
