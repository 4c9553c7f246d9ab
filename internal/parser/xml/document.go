package xml

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// Prefixes the adapters use in their paths, whatever the document declares
var canonicalPrefixes = map[string]string{
	codelist.NamespaceRSM:           "rsm",
	codelist.NamespaceRAM:           "ram",
	codelist.NamespaceUDT:           "udt",
	codelist.NamespaceQDT:           "qdt",
	codelist.NamespaceCAC:           "cac",
	codelist.NamespaceCBC:           "cbc",
	codelist.NamespaceUBLInvoice:    "",
	codelist.NamespaceUBLCreditNote: "",
}

// readDocument parses content and rewrites element prefixes to the canonical
// ones so paths do not depend on the producer's namespace declarations
func readDocument(format model.Format, r io.Reader) (*etree.Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(format, "content", "failed to read content", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, model.NewParseError(format, "xml", "failed to parse XML", err)
	}
	if doc.Root() == nil {
		return nil, model.NewParseError(format, "root", "document has no root element", nil)
	}

	type pending struct {
		el    *etree.Element
		space string
	}
	var renames []pending
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if prefix, ok := canonicalPrefixes[el.NamespaceURI()]; ok {
			renames = append(renames, pending{el, prefix})
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(doc.Root())
	// namespace lookups walk the ancestors, so rename only after resolving all
	for _, p := range renames {
		p.el.Space = p.space
	}
	return doc, nil
}

// rootNamespace returns the namespace URI and local name of the root element
func rootNamespace(content []byte) (string, string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil || doc.Root() == nil {
		return "", ""
	}
	return doc.Root().NamespaceURI(), doc.Root().Tag
}

func find(el *etree.Element, path string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElement(path)
}

func findAll(el *etree.Element, path string) []*etree.Element {
	if el == nil {
		return nil
	}
	return el.FindElements(path)
}

func text(el *etree.Element, path string) string {
	if e := find(el, path); e != nil {
		return strings.TrimSpace(e.Text())
	}
	return ""
}

func attr(el *etree.Element, path, key string) string {
	if e := find(el, path); e != nil {
		return strings.TrimSpace(e.SelectAttrValue(key, ""))
	}
	return ""
}

func number(el *etree.Element, path string) (decimal.Decimal, bool) {
	s := text(el, path)
	if s == "" {
		return money.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return money.Zero, false
	}
	return d, true
}

func amountAt(el *etree.Element, path string) decimal.Decimal {
	d, _ := number(el, path)
	return d
}

// parseDate accepts CCYYMMDD and ISO dates
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"20060102",
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
}

func dateAt(el *etree.Element, path string) time.Time {
	s := text(el, path)
	if s == "" {
		return time.Time{}
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var subjectNote = regexp.MustCompile(`(?s)^#([A-Z]{3})#(.*)$`)

// splitNote reads "#CODE#content" notes
func splitNote(content string) model.Note {
	if m := subjectNote.FindStringSubmatch(content); m != nil {
		return model.Note{SubjectCode: m[1], Content: m[2]}
	}
	return model.Note{Content: content}
}

// addNote sets the first note without subject code as narration
func addNote(inv *model.Invoice, n model.Note) {
	if n.Content == "" {
		return
	}
	if n.SubjectCode == "" && inv.Narration == "" {
		inv.Narration = n.Content
		return
	}
	inv.Notes = append(inv.Notes, n)
}

// sameParty reports whether a delivery party only repeats the customer
func sameParty(a, b model.Party) bool {
	return a.Name == b.Name && a.Address == b.Address
}
