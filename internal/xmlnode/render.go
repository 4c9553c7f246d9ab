package xmlnode

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// ErrEmptyDocument is returned when pruning removed the whole tree
var ErrEmptyDocument = errors.New("xmlnode: document is empty")

// Render prunes the tree and serialises it as indented UTF-8 XML with an
// XML declaration. Namespaces are prefix / URI pairs declared on the root in
// the given order; an empty prefix declares the default namespace.
func Render(root *Node, namespaces [][2]string) ([]byte, error) {
	if root == nil || root.Prune() {
		return nil, ErrEmptyDocument
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	el := doc.CreateElement(root.Tag)
	for _, ns := range namespaces {
		if ns[0] == "" {
			el.CreateAttr("xmlns", ns[1])
		} else {
			el.CreateAttr("xmlns:"+ns[0], ns[1])
		}
	}
	write(el, root)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("xmlnode: serialize: %w", err)
	}
	return out, nil
}

func write(el *etree.Element, n *Node) {
	for _, a := range n.Attrs {
		if a.Value != "" {
			el.CreateAttr(a.Key, a.Value)
		}
	}
	if n.Text != "" {
		el.SetText(n.Text)
	}
	for _, c := range n.Children {
		write(el.CreateElement(c.Tag), c)
	}
}

// Canonicalize returns the canonical XML form of a document. The XML
// declaration is not part of the canonical form.
func Canonicalize(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if end := bytes.Index(data, []byte("?>")); end >= 0 {
			data = bytes.TrimSpace(data[end+2:])
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("xmlnode: canonicalize: %w", err)
	}
	return out, nil
}

// Digest returns the hex SHA-256 of the canonical form of a document.
// Two documents differing only in formatting of markup share a digest.
func Digest(data []byte) (string, error) {
	canonical, err := Canonicalize(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
