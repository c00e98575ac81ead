// Package nodes defines the Telegraph content node model and its wire codec.
//
// On the wire a node is either a bare JSON string (a text node) or an object
// of the form {"tag": ..., "attrs": {...}, "children": [...]}. The custom
// codec below preserves that shape exactly, which lets the paginator work
// with real serialized sizes instead of estimates.
package nodes

import (
	"encoding/json"
	"fmt"
)

// Node is one element of Telegraph page content.
// A Node with an empty Tag is a text node carrying Text; otherwise it is an
// element with optional Attrs and Children. Children order is significant.
type Node struct {
	Text     string
	Tag      string
	Attrs    map[string]string
	Children []Node
}

// element mirrors the object form of the wire format.
type element struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// MarshalJSON encodes text nodes as JSON strings and elements as objects.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Tag == "" {
		return json.Marshal(n.Text)
	}
	return json.Marshal(element{Tag: n.Tag, Attrs: n.Attrs, Children: n.Children})
}

// UnmarshalJSON accepts both wire forms.
func (n *Node) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("nodes: text node: %w", err)
		}
		*n = Node{Text: s}
		return nil
	}
	var e element
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("nodes: element node: %w", err)
	}
	*n = Node{Tag: e.Tag, Attrs: e.Attrs, Children: e.Children}
	return nil
}

// NewText returns a text node.
func NewText(s string) Node {
	return Node{Text: s}
}

// NewElement returns an element node with the given children.
func NewElement(tag string, children ...Node) Node {
	return Node{Tag: tag, Children: children}
}

// Image returns an img node pointing at src.
func Image(src string) Node {
	return Node{Tag: "img", Attrs: map[string]string{"src": src}}
}

// Anchor returns an a node linking to href.
func Anchor(href string, children ...Node) Node {
	return Node{Tag: "a", Attrs: map[string]string{"href": href}, Children: children}
}

// Size returns the serialized byte length of n on the wire.
// Marshal cannot fail for Node values (strings, maps and slices only),
// so the error is discarded.
func (n Node) Size() int {
	b, _ := json.Marshal(n)
	return len(b)
}

// Size returns the serialized byte length of the node sequence, brackets
// and separators included. This is the exact payload size Telegraph sees.
func Size(ns []Node) int {
	b, _ := json.Marshal(ns)
	return len(b)
}

// Walk visits every node in the sequence depth-first, parents before
// children. The callback receives a pointer so it can rewrite nodes in
// place (the paginator uses this to patch navigation targets).
func Walk(ns []Node, fn func(*Node)) {
	for i := range ns {
		fn(&ns[i])
		Walk(ns[i].Children, fn)
	}
}

// allowedTags is the element set the Telegraph API accepts.
var allowedTags = map[string]bool{
	"a": true, "aside": true, "b": true, "blockquote": true, "br": true,
	"code": true, "em": true, "figcaption": true, "figure": true,
	"h3": true, "h4": true, "hr": true, "i": true, "iframe": true,
	"img": true, "li": true, "ol": true, "p": true, "pre": true,
	"s": true, "strong": true, "u": true, "ul": true, "video": true,
}

// Allowed reports whether tag is accepted by the Telegraph API.
func Allowed(tag string) bool {
	return allowedTags[tag]
}

// Sanitize clamps heading tags to the supported range: the API only knows
// h3 and h4, so h1 maps to h3 and h2, h5 and h6 map to h4. Other tags pass
// through untouched. Nodes are rewritten in place and returned for chaining.
func Sanitize(ns []Node) []Node {
	Walk(ns, func(n *Node) {
		switch n.Tag {
		case "h1":
			n.Tag = "h3"
		case "h2", "h5", "h6":
			n.Tag = "h4"
		}
	})
	return ns
}

// PlainText flattens the sequence to its visible text, ignoring markup.
// Used for log excerpts and for deciding whether a page has any content.
func PlainText(ns []Node) string {
	var out []byte
	var walk func(ns []Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			if n.Tag == "" {
				out = append(out, n.Text...)
				continue
			}
			walk(n.Children)
		}
	}
	walk(ns)
	return string(out)
}
