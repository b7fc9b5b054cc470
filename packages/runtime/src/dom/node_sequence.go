package dom

import (
	"golang.org/x/net/html"
)

// NodeSequence is the ordered set of top-level nodes rendered for one view.
// While unmounted the nodes live in a private fragment.
type NodeSequence struct {
	frag    *html.Node
	nodes   []*html.Node
	targets []*html.Node

	mounted bool
	linked  bool
	next    *NodeSequence
	ref     *html.Node
	mounts  int
}

// NewNodeSequence takes ownership of the children of frag and discovers their targets
func NewNodeSequence(frag *html.Node) *NodeSequence {
	s := &NodeSequence{frag: frag}
	s.targets = FindTargets(frag)
	s.nodes = Children(frag)
	return s
}

// AdoptNodes builds a mounted sequence over nodes that already are in the document
func AdoptNodes(nodes []*html.Node) *NodeSequence {
	s := &NodeSequence{frag: NewFragment(), nodes: nodes, mounted: true}
	for _, n := range nodes {
		s.targets = append(s.targets, FindTargets(n)...)
	}
	return s
}

// EmptySequence returns a sequence without nodes
func EmptySequence() *NodeSequence {
	return &NodeSequence{frag: NewFragment()}
}

// Targets returns the instruction targets in document order
func (s *NodeSequence) Targets() []*html.Node {
	return s.targets
}

// ChildNodes returns the top-level nodes
func (s *NodeSequence) ChildNodes() []*html.Node {
	return s.nodes
}

// FirstChild returns the first top-level node, or nil
func (s *NodeSequence) FirstChild() *html.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0]
}

// LastChild returns the last top-level node, or nil
func (s *NodeSequence) LastChild() *html.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

// IsMounted reports whether the nodes are outside the private fragment
func (s *NodeSequence) IsMounted() bool {
	return s.mounted
}

// Mounts counts how many times the sequence was inserted or moved
func (s *NodeSequence) Mounts() int {
	return s.mounts
}

// InsertBefore mounts the nodes before ref. A linked sequence mounts before
// its link instead.
func (s *NodeSequence) InsertBefore(ref *html.Node) {
	if s.linked {
		if r := s.refNode(); r != nil {
			ref = r
		}
	}
	for _, n := range s.nodes {
		InsertBefore(n, ref)
	}
	s.mounted = true
	s.mounts++
}

// AppendTo mounts the nodes at the end of parent
func (s *NodeSequence) AppendTo(parent *html.Node) {
	for _, n := range s.nodes {
		Append(parent, n)
	}
	s.mounted = true
	s.mounts++
}

// Remove unmounts the nodes back into the private fragment
func (s *NodeSequence) Remove() {
	if !s.mounted {
		return
	}
	for _, n := range s.nodes {
		Append(s.frag, n)
	}
	s.mounted = false
}

// LinkSequence makes the sequence mount before next
func (s *NodeSequence) LinkSequence(next *NodeSequence) {
	s.linked = true
	s.next = next
	s.ref = nil
}

// LinkLocation makes the sequence mount before loc
func (s *NodeSequence) LinkLocation(loc *RenderLocation) {
	s.linked = true
	s.next = nil
	s.ref = loc.End
}

// Unlink forgets the link set by LinkSequence or LinkLocation
func (s *NodeSequence) Unlink() {
	s.linked = false
	s.next = nil
	s.ref = nil
}

// AddToLinked mounts or moves the nodes before the linked sequence or location
func (s *NodeSequence) AddToLinked() {
	ref := s.refNode()
	if ref == nil || ref.Parent == nil {
		return
	}
	s.InsertBefore(ref)
}

func (s *NodeSequence) refNode() *html.Node {
	if s.next == nil {
		return s.ref
	}
	// an empty neighbour defers to its own link
	for next := s.next; next != nil; next = next.next {
		if first := next.FirstChild(); first != nil {
			return first
		}
		if next.next == nil {
			return next.ref
		}
	}
	return nil
}
