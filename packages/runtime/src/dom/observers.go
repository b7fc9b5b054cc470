package dom

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"au-go/packages/runtime/src/observation"
	"au-go/packages/runtime/src/util"
)

// NodeObserverAdapter supplies observers for properties of DOM nodes. Element
// properties are reflected as attributes.
type NodeObserverAdapter struct {
	events    *Events
	observers map[nodeKey]observation.Observer
}

type nodeKey struct {
	node *html.Node
	key  string
}

// NewNodeObserverAdapter creates an adapter whose value observers listen on events
func NewNodeObserverAdapter(events *Events) *NodeObserverAdapter {
	return &NodeObserverAdapter{events: events, observers: make(map[nodeKey]observation.Observer)}
}

// GetObserver implements observation.ObserverAdapter
func (a *NodeObserverAdapter) GetObserver(obj any, key string) (observation.Observer, bool) {
	n, ok := obj.(*html.Node)
	if !ok {
		return nil, false
	}
	k := nodeKey{n, key}
	if ob, ok := a.observers[k]; ok {
		return ob, true
	}
	ob := a.create(n, key)
	a.observers[k] = ob
	return ob, true
}

// Forget drops the cached observers of n
func (a *NodeObserverAdapter) Forget(n *html.Node) {
	for k := range a.observers {
		if k.node == n {
			delete(a.observers, k)
		}
	}
}

func (a *NodeObserverAdapter) create(n *html.Node, key string) observation.Observer {
	if n.Type != html.ElementNode {
		return &TextObserver{node: n}
	}
	switch key {
	case "textContent", "innerText":
		return &TextObserver{node: n}
	case "class", "className":
		return &ClassAccessor{node: n}
	case "style":
		return &StyleAccessor{node: n}
	case "value", "checked":
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			return &ValueObserver{node: n, key: key, events: a.events}
		}
	}
	return &AttributeAccessor{node: n, name: util.CamelCaseToDashCase(key)}
}

type noSubscribers struct{}

func (noSubscribers) Subscribe(observation.Subscriber)   {}
func (noSubscribers) Unsubscribe(observation.Subscriber) {}

// TextObserver reads and writes the text of a node
type TextObserver struct {
	noSubscribers
	node *html.Node
}

func (o *TextObserver) GetValue() any {
	return TextContent(o.node)
}

func (o *TextObserver) SetValue(value any) {
	SetTextContent(o.node, util.Stringify(value))
}

// AttributeAccessor reflects a value as an attribute: nil and false remove
// it, true sets it empty
type AttributeAccessor struct {
	noSubscribers
	node *html.Node
	name string
}

func (o *AttributeAccessor) GetValue() any {
	v, ok := GetAttr(o.node, o.name)
	if !ok {
		return nil
	}
	return v
}

func (o *AttributeAccessor) SetValue(value any) {
	switch v := value.(type) {
	case nil:
		RemoveAttr(o.node, o.name)
	case bool:
		if v {
			SetAttr(o.node, o.name, "")
		} else {
			RemoveAttr(o.node, o.name)
		}
	default:
		SetAttr(o.node, o.name, util.Stringify(value))
	}
}

// ClassAccessor adds the classes of the bound value and removes the ones it added before
type ClassAccessor struct {
	noSubscribers
	node  *html.Node
	value any
	added []string
}

func (o *ClassAccessor) GetValue() any {
	return o.value
}

func (o *ClassAccessor) SetValue(value any) {
	o.value = value
	next := classNames(value)
	keep := make(map[string]bool, len(next))
	for _, c := range next {
		keep[c] = true
	}
	var stale []string
	for _, c := range o.added {
		if !keep[c] {
			stale = append(stale, c)
		}
	}
	RemoveClass(o.node, stale...)
	AddClass(o.node, next...)
	o.added = next
}

func classNames(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(v)
	case []string:
		return v
	case []any:
		var out []string
		for _, x := range v {
			out = append(out, classNames(x)...)
		}
		return out
	case *observation.Array:
		return classNames(v.Items())
	case *observation.Object:
		var out []string
		for _, k := range v.Keys() {
			if truthy(v.Get(k)) {
				out = append(out, k)
			}
		}
		return out
	case map[string]bool:
		var out []string
		for k, on := range v {
			if on {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out
	}
	return strings.Fields(util.Stringify(value))
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := observation.ToFloat(v); ok {
		return f != 0
	}
	return true
}

// StyleAccessor writes the style attribute from a string or a property bag
type StyleAccessor struct {
	noSubscribers
	node  *html.Node
	value any
}

func (o *StyleAccessor) GetValue() any {
	return o.value
}

func (o *StyleAccessor) SetValue(value any) {
	o.value = value
	var css string
	switch v := value.(type) {
	case nil:
	case string:
		css = v
	case *observation.Object:
		var parts []string
		for _, k := range v.Keys() {
			if val := v.Get(k); val != nil && val != "" {
				parts = append(parts, util.CamelCaseToDashCase(k)+": "+util.Stringify(val))
			}
		}
		css = strings.Join(parts, "; ")
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, util.CamelCaseToDashCase(k)+": "+v[k])
		}
		css = strings.Join(parts, "; ")
	default:
		css = util.Stringify(value)
	}
	if css == "" {
		RemoveAttr(o.node, "style")
		return
	}
	SetAttr(o.node, "style", css)
}

// ValueObserver observes the value or checked state of a form element. Writes
// from bindings do not notify; input and change events do.
type ValueObserver struct {
	node   *html.Node
	key    string
	events *Events
	subs   observation.SubscriberRecord
	remove []func()
	last   any
}

func (o *ValueObserver) GetValue() any {
	if o.key == "checked" {
		_, ok := GetAttr(o.node, "checked")
		return ok
	}
	if o.node.DataAtom == atom.Textarea {
		return TextContent(o.node)
	}
	v, _ := GetAttr(o.node, "value")
	return v
}

func (o *ValueObserver) SetValue(value any) {
	if o.key == "checked" {
		if truthy(value) {
			SetAttr(o.node, "checked", "")
		} else {
			RemoveAttr(o.node, "checked")
		}
	} else if o.node.DataAtom == atom.Textarea {
		SetTextContent(o.node, util.Stringify(value))
	} else {
		SetAttr(o.node, "value", util.Stringify(value))
	}
	o.last = o.GetValue()
}

func (o *ValueObserver) Subscribe(s observation.Subscriber) {
	if o.subs.Add(s) && o.subs.Count() == 1 && o.events != nil {
		o.last = o.GetValue()
		for _, typ := range []string{"input", "change"} {
			o.remove = append(o.remove, o.events.AddEventListener(o.node, typ, o.handleEvent))
		}
	}
}

func (o *ValueObserver) Unsubscribe(s observation.Subscriber) {
	if o.subs.Remove(s) && o.subs.Count() == 0 {
		for _, rm := range o.remove {
			rm()
		}
		o.remove = nil
	}
}

func (o *ValueObserver) handleEvent(e *Event) {
	if e.Target != o.node {
		return
	}
	old := o.last
	value := o.GetValue()
	if observation.Same(old, value) {
		return
	}
	o.last = value
	o.subs.Notify(value, old)
}
