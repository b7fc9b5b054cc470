package dom

import (
	"golang.org/x/net/html"
)

const (
	// TargetClass marks elements that instructions render against
	TargetClass = "au"
	// MarkerTag marks a render location in compiled templates
	MarkerTag = "au-m"

	locationStart = "au-start"
	locationEnd   = "au-end"
)

// RenderLocation is a pair of comments. Views owned by a template controller
// are inserted before End.
type RenderLocation struct {
	Start *html.Node
	End   *html.Node
}

// IsMarker reports whether n is an <au-m> render location marker
func IsMarker(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == MarkerTag
}

// IsLocationEnd reports whether n is the end comment of a render location
func IsLocationEnd(n *html.Node) bool {
	return n != nil && n.Type == html.CommentNode && n.Data == locationEnd
}

// IsLocationStart reports whether n is the start comment of a render location
func IsLocationStart(n *html.Node) bool {
	return n != nil && n.Type == html.CommentNode && n.Data == locationStart
}

// StripLocations removes every render location comment under root. The
// result is for display only: views can no longer be mounted in it.
func StripLocations(root *html.Node) {
	var comments []*html.Node
	Walk(root, func(n *html.Node) bool {
		if IsLocationStart(n) || IsLocationEnd(n) {
			comments = append(comments, n)
		}
		return true
	})
	for _, n := range comments {
		Detach(n)
	}
}

// ConvertToRenderLocation replaces n with a start/end comment pair. A node that
// already is a location end is returned as its location.
func ConvertToRenderLocation(n *html.Node) *RenderLocation {
	if IsLocationEnd(n) {
		return LocationOf(n)
	}
	loc := &RenderLocation{Start: CreateComment(locationStart), End: CreateComment(locationEnd)}
	if n.Parent != nil {
		n.Parent.InsertBefore(loc.Start, n)
		n.Parent.InsertBefore(loc.End, n)
		Detach(n)
	}
	return loc
}

// NewRenderLocation creates a detached location
func NewRenderLocation() *RenderLocation {
	return &RenderLocation{Start: CreateComment(locationStart), End: CreateComment(locationEnd)}
}

// LocationOf finds the location whose end comment is end
func LocationOf(end *html.Node) *RenderLocation {
	depth := 0
	for n := end.PrevSibling; n != nil; n = n.PrevSibling {
		if n.Type != html.CommentNode {
			continue
		}
		switch n.Data {
		case locationEnd:
			depth++
		case locationStart:
			if depth == 0 {
				return &RenderLocation{Start: n, End: end}
			}
			depth--
		}
	}
	return &RenderLocation{End: end}
}

// Nodes returns the nodes currently between the start and end comments
func (l *RenderLocation) Nodes() []*html.Node {
	var out []*html.Node
	if l.Start == nil {
		return out
	}
	for n := l.Start.NextSibling; n != nil && n != l.End; n = n.NextSibling {
		out = append(out, n)
	}
	return out
}

// Remove detaches both comments
func (l *RenderLocation) Remove() {
	if l.Start != nil {
		Detach(l.Start)
	}
	Detach(l.End)
}

// Parent returns the node containing the location
func (l *RenderLocation) Parent() *html.Node {
	return l.End.Parent
}

// FindTargets collects instruction targets under root in document order:
// elements carrying the target class (the class is removed) and markers, which
// become render locations represented by their end comment.
func FindTargets(root *html.Node) []*html.Node {
	var targets []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !HasClass(n, TargetClass) {
			return true
		}
		if IsMarker(n) {
			targets = append(targets, ConvertToRenderLocation(n).End)
			return true
		}
		RemoveClass(n, TargetClass)
		targets = append(targets, n)
		return true
	})
	return targets
}
