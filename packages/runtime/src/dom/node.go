// Package dom is the node layer the runtime renders into. Nodes are
// golang.org/x/net/html nodes; a fragment is a DocumentNode whose children are
// the fragment's top-level nodes.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewFragment returns an empty fragment container
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// IsFragment reports whether n is a fragment container
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode
}

// ParseFragment parses markup in a body context into a fragment
func ParseFragment(markup string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	frag := NewFragment()
	for _, n := range nodes {
		frag.AppendChild(n)
	}
	return frag, nil
}

// CreateElement returns a detached element
func CreateElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// CreateText returns a detached text node
func CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// CreateComment returns a detached comment node
func CreateComment(text string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: text}
}

// Clone deep-copies n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Children returns the child nodes of n
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Detach removes n from its parent, if any
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore moves n before ref in ref's parent
func InsertBefore(n, ref *html.Node) {
	Detach(n)
	ref.Parent.InsertBefore(n, ref)
}

// Append moves n to the end of parent
func Append(parent, n *html.Node) {
	Detach(n)
	parent.AppendChild(n)
}

// Replace puts n where old is and detaches old
func Replace(old, n *html.Node) {
	InsertBefore(n, old)
	Detach(old)
}

// GetAttr returns the value of attribute key
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key to val
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes attribute key
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// Classes returns the class list of n
func Classes(n *html.Node) []string {
	v, _ := GetAttr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n has class name
func HasClass(n *html.Node, name string) bool {
	for _, c := range Classes(n) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds the classes in names
func AddClass(n *html.Node, names ...string) {
	list := Classes(n)
	for _, name := range names {
		if name != "" && !HasClass(n, name) {
			list = append(list, name)
			SetAttr(n, "class", strings.Join(list, " "))
		}
	}
}

// RemoveClass removes the classes in names; an empty class attribute is dropped
func RemoveClass(n *html.Node, names ...string) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	var kept []string
	for _, c := range Classes(n) {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// TextContent concatenates the text of n and its descendants
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode, html.DocumentNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetTextContent replaces the children of n with one text node, or sets the data of a text node
func SetTextContent(n *html.Node, text string) {
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		n.Data = text
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(CreateText(text))
	}
}

// Render serializes n. Fragments and documents render their children only.
func Render(n *html.Node) string {
	var buf bytes.Buffer
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&buf, c)
		}
		return buf.String()
	}
	_ = html.Render(&buf, n)
	return buf.String()
}

// RenderChildren serializes the children of n
func RenderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Walk visits n and its descendants in document order until fn returns false
func Walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !Walk(c, fn) {
			return false
		}
		c = next
	}
	return true
}

// Contains reports whether n is root or one of its descendants
func Contains(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
