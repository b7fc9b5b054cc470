package templatecontrollers

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"au-go/packages/runtime/src/async"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/templating"
)

// Portal positions relative to the target element
const (
	PositionBeforeBegin = "beforebegin"
	PositionAfterBegin  = "afterbegin"
	PositionBeforeEnd   = "beforeend"
	PositionAfterEnd    = "afterend"
)

// PortalCallback is the signature of the portal lifecycle callbacks. A
// callback without a result is accepted too.
type PortalCallback func(target *html.Node, view *templating.Controller) async.Result

// PortalDefinition is the portal template controller. Its view renders at a
// target element, given as a node or a CSS selector, instead of in place.
func PortalDefinition() *definition.AttributeDefinition {
	return definition.NewTemplateController("portal").
		Bindable("target", definition.AsPrimary()).
		Bindable("position").
		Bindable("strict", definition.WithSetter(toBool)).
		Bindable("renderContext").
		Bindable("activating").
		Bindable("activated").
		Bindable("deactivating").
		Bindable("deactivated").
		ViewModel(func(c *di.Container) (any, error) {
			o, err := resolveOwned(c)
			if err != nil {
				return nil, err
			}
			return &Portal{owned: o, Position: PositionBeforeEnd, pending: async.Ready()}, nil
		}).
		MustBuild()
}

// Portal renders its view at Target. Without a target, or when the selector
// matches nothing, the view goes to the document body unless Strict is set.
type Portal struct {
	owned

	Target        any
	Position      any
	Strict        bool
	RenderContext any

	Activating   any
	Activated    any
	Deactivating any
	Deactivated  any

	view    *templating.Controller
	target  *html.Node
	mount   *dom.RenderLocation
	pending async.Result
}

// CurrentTarget returns the element the view is rendered at
func (p *Portal) CurrentTarget() *html.Node {
	return p.target
}

func (p *Portal) Attaching(initiator, _ *templating.Controller) async.Result {
	target, err := p.resolveTarget()
	if err != nil {
		return async.Fail(err)
	}
	return p.activate(initiator, target)
}

func (p *Portal) Detaching(initiator, _ *templating.Controller) async.Result {
	return async.Then(settled(p.pending), func() async.Result {
		p.pending = async.Ready()
		return p.deactivate(initiator)
	})
}

func (p *Portal) TargetChanged(_, _ any)        { p.retarget() }
func (p *Portal) PositionChanged(_, _ any)      { p.retarget() }
func (p *Portal) RenderContextChanged(_, _ any) { p.retarget() }

// retarget moves an active view to the current target and position
func (p *Portal) retarget() {
	if p.ctrl == nil || !p.ctrl.IsActive() {
		return
	}
	r := async.Then(settled(p.pending), func() async.Result {
		target, err := p.resolveTarget()
		if err != nil {
			return async.Fail(err)
		}
		return async.Then(p.deactivate(nil), func() async.Result {
			return p.activate(nil, target)
		})
	})
	p.pending = r
	p.logResult("portal retarget", r)
}

func (p *Portal) activate(initiator *templating.Controller, target *html.Node) async.Result {
	if p.view == nil {
		view, err := p.createView()
		if err != nil {
			return async.Fail(err)
		}
		p.view = view
	}
	view := p.view
	p.target = target
	p.mount = dom.NewRenderLocation()
	if err := insertAt(target, p.position(), p.mount); err != nil {
		return async.Fail(err)
	}
	view.SetLocation(p.mount)
	return async.Then(p.call(p.Activating, target), func() async.Result {
		return async.Then(view.Activate(orSelf(initiator, view), p.ctrl, 0, p.ctrl.Scope, p.ctrl.HostScope), func() async.Result {
			return p.call(p.Activated, target)
		})
	})
}

func (p *Portal) deactivate(initiator *templating.Controller) async.Result {
	view, target := p.view, p.target
	if view == nil || !view.IsActive() {
		return async.Ready()
	}
	return async.Then(p.call(p.Deactivating, target), func() async.Result {
		return async.Then(view.Deactivate(orSelf(initiator, view), p.ctrl, 0), func() async.Result {
			if p.mount != nil {
				p.mount.Remove()
				p.mount = nil
			}
			return p.call(p.Deactivated, target)
		})
	})
}

func (p *Portal) call(cb any, target *html.Node) async.Result {
	switch fn := cb.(type) {
	case nil:
		return async.Ready()
	case PortalCallback:
		return fn(target, p.view)
	case func(*html.Node, *templating.Controller) async.Result:
		return fn(target, p.view)
	case func(*html.Node, *templating.Controller):
		fn(target, p.view)
		return async.Ready()
	case func():
		fn()
		return async.Ready()
	}
	p.ctrl.Platform.Logger.Warn("portal callback has an unsupported signature",
		"controller", p.ctrl.Path(), "type", fmt.Sprintf("%T", cb))
	return async.Ready()
}

func (p *Portal) position() string {
	s, _ := p.Position.(string)
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case PositionBeforeBegin, PositionAfterBegin, PositionAfterEnd:
		return s
	}
	return PositionBeforeEnd
}

// resolveTarget finds the element to render at. A selector is queried within
// the render context when that resolves, else within the document.
func (p *Portal) resolveTarget() (*html.Node, error) {
	doc := p.ctrl.Platform.Document
	body := p.ctrl.Platform.Body()
	if body == nil {
		body = doc
	}
	switch t := p.Target.(type) {
	case *html.Node:
		if t != nil {
			return t, nil
		}
	case string:
		sel := strings.TrimSpace(t)
		if sel == "" {
			if p.Strict {
				return nil, fmt.Errorf("%w: %s", ErrEmptySelector, p.ctrl.Path())
			}
			return body, nil
		}
		root := p.renderContext()
		if root == nil {
			root = doc
		}
		n, err := dom.QuerySelector(root, sel)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
		if p.Strict {
			return nil, fmt.Errorf("%w: %q: %s", ErrPortalTarget, sel, p.ctrl.Path())
		}
		return body, nil
	}
	if p.Strict {
		return nil, fmt.Errorf("%w: %s", ErrPortalTarget, p.ctrl.Path())
	}
	return body, nil
}

func (p *Portal) renderContext() *html.Node {
	switch rc := p.RenderContext.(type) {
	case *html.Node:
		return rc
	case string:
		if sel := strings.TrimSpace(rc); sel != "" {
			n, err := dom.QuerySelector(p.ctrl.Platform.Document, sel)
			if err == nil {
				return n
			}
		}
	}
	return nil
}

// insertAt places loc relative to target
func insertAt(target *html.Node, position string, loc *dom.RenderLocation) error {
	switch position {
	case PositionBeforeBegin, PositionAfterEnd:
		if target.Parent == nil {
			return fmt.Errorf("%w: %s of a detached element", ErrPortalTarget, position)
		}
		ref := target
		if position == PositionAfterEnd {
			ref = target.NextSibling
		}
		insert(target.Parent, loc.Start, ref)
		insert(target.Parent, loc.End, ref)
	case PositionAfterBegin:
		ref := target.FirstChild
		insert(target, loc.Start, ref)
		insert(target, loc.End, ref)
	default:
		insert(target, loc.Start, nil)
		insert(target, loc.End, nil)
	}
	return nil
}

func insert(parent, n, ref *html.Node) {
	if ref == nil {
		dom.Append(parent, n)
		return
	}
	dom.InsertBefore(n, ref)
}

func (p *Portal) Dispose() {
	if p.mount != nil {
		p.mount.Remove()
		p.mount = nil
	}
	if p.view != nil {
		p.view.Dispose()
		p.view = nil
	}
}
