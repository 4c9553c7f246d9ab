// Package xmlnode is the intermediate tree both exporters build before
// serialisation. Nodes keep insertion order; empty branches are pruned so
// optional structures disappear instead of being emitted empty.
package xmlnode

import "strings"

// Attr is a node attribute
type Attr struct {
	Key   string
	Value string
}

// Node is an element with a qualified tag such as "cbc:ID"
type Node struct {
	Tag      string
	Text     string
	Attrs    []Attr
	Children []*Node
}

// Attributes that qualify a value but carry no information on their own
var qualifierAttrs = map[string]bool{
	"currencyID": true,
	"unitCode":   true,
	"schemeID":   true,
	"format":     true,
	"listID":     true,
}

// New creates an element node with children
func New(tag string, children ...*Node) *Node {
	n := &Node{Tag: tag}
	return n.Add(children...)
}

// Leaf creates a text node
func Leaf(tag, text string) *Node {
	return &Node{Tag: tag, Text: text}
}

// Attr sets an attribute, replacing an existing value
func (n *Node) Attr(key, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
	return n
}

// AttrIf sets an attribute when value is not empty
func (n *Node) AttrIf(key, value string) *Node {
	if value == "" {
		return n
	}
	return n.Attr(key, value)
}

// Add appends children, skipping nil
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// AddIf appends children when cond holds
func (n *Node) AddIf(cond bool, children ...*Node) *Node {
	if !cond {
		return n
	}
	return n.Add(children...)
}

// Prune removes empty descendants and reports whether n itself is empty.
// A node is empty without text, children and meaningful attributes.
func (n *Node) Prune() bool {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !c.Prune() {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept

	if strings.TrimSpace(n.Text) != "" || len(n.Children) > 0 {
		return false
	}
	for _, a := range n.Attrs {
		if a.Value != "" && !qualifierAttrs[a.Key] {
			return false
		}
	}
	return true
}
