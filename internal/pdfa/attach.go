package pdfa

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Attachment is an embedded file of a PDF
type Attachment struct {
	Name         string
	MIME         string
	Relationship string
	Description  string
	Content      []byte
	ModTime      time.Time
}

var configOnce sync.Once

func newConfig() *pdfmodel.Configuration {
	// no pdfcpu config directory in the user's home
	configOnce.Do(func() { pdfmodel.ConfigPath = "disable" })
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}

func readContext(pdf []byte) (*pdfmodel.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), newConfig())
	if err != nil {
		return nil, NewPackageError(ErrCodeReadFailed, "failed to read PDF", err)
	}
	return ctx, nil
}

// attach adds file to the embedded files name tree and the catalog /AF
// array, replacing a previous attachment of the same name, and sets the
// document metadata stream
func attach(pdf []byte, file Attachment, metadata []byte) ([]byte, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}
	xrt := ctx.XRefTable

	catalog, err := xrt.Catalog()
	if err != nil {
		return nil, NewPackageError(ErrCodeReadFailed, "PDF has no catalog", err)
	}

	spec, err := fileSpec(xrt, file)
	if err != nil {
		return nil, err
	}
	replaced, err := addEmbeddedFile(xrt, catalog, file.Name, spec)
	if err != nil {
		return nil, err
	}
	if err := addAssociatedFile(xrt, catalog, spec, replaced); err != nil {
		return nil, err
	}

	if metadata != nil {
		ref, err := metadataStream(xrt, metadata)
		if err != nil {
			return nil, err
		}
		catalog.Update("Metadata", ref)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, NewPackageError(ErrCodeWriteFailed, "failed to write PDF", err)
	}
	return buf.Bytes(), nil
}

func fileSpec(xrt *pdfmodel.XRefTable, file Attachment) (types.IndirectRef, error) {
	modTime := file.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	sd := types.NewStreamDict(types.Dict{
		"Type":    types.Name("EmbeddedFile"),
		"Subtype": types.Name(file.MIME),
		"Params": types.Dict{
			"Size":    types.Integer(len(file.Content)),
			"ModDate": types.StringLiteral(types.DateString(modTime)),
		},
	}, 0, nil, nil, nil)
	sd.Content = file.Content
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, NewPackageError(ErrCodeWriteFailed, "failed to encode attachment", err)
	}
	streamRef, err := xrt.IndRefForNewObject(sd)
	if err != nil {
		return types.IndirectRef{}, NewPackageError(ErrCodeWriteFailed, "failed to add attachment stream", err)
	}

	spec := types.Dict{
		"Type": types.Name("Filespec"),
		"F":    types.StringLiteral(file.Name),
		"UF":   types.StringLiteral(file.Name),
		"EF":   types.Dict{"F": *streamRef, "UF": *streamRef},
	}
	if file.Description != "" {
		spec["Desc"] = types.StringLiteral(file.Description)
	}
	if file.Relationship != "" {
		spec["AFRelationship"] = types.Name(file.Relationship)
	}
	specRef, err := xrt.IndRefForNewObject(spec)
	if err != nil {
		return types.IndirectRef{}, NewPackageError(ErrCodeWriteFailed, "failed to add file specification", err)
	}
	return *specRef, nil
}

func metadataStream(xrt *pdfmodel.XRefTable, packet []byte) (types.IndirectRef, error) {
	sd := types.NewStreamDict(types.Dict{
		"Type":    types.Name("Metadata"),
		"Subtype": types.Name("XML"),
	}, 0, nil, nil, nil)
	sd.Content = packet
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, NewPackageError(ErrCodeWriteFailed, "failed to encode metadata", err)
	}
	ref, err := xrt.IndRefForNewObject(sd)
	if err != nil {
		return types.IndirectRef{}, NewPackageError(ErrCodeWriteFailed, "failed to add metadata", err)
	}
	return *ref, nil
}

type nameEntry struct {
	name  string
	key   types.Object
	value types.Object
}

// addEmbeddedFile rewrites the embedded files name tree as a single sorted
// leaf. It returns the values of entries replaced by the new file.
func addEmbeddedFile(xrt *pdfmodel.XRefTable, catalog types.Dict, name string, spec types.IndirectRef) ([]types.Object, error) {
	names, err := subDict(xrt, catalog, "Names")
	if err != nil {
		return nil, err
	}
	tree, err := subDict(xrt, names, "EmbeddedFiles")
	if err != nil {
		return nil, err
	}

	entries, err := nameTreeEntries(xrt, tree, 0)
	if err != nil {
		return nil, err
	}

	var kept []nameEntry
	var replaced []types.Object
	for _, e := range entries {
		if strings.EqualFold(e.name, name) {
			replaced = append(replaced, e.value)
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, nameEntry{name: name, key: types.StringLiteral(name), value: spec})
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].name < kept[j].name })

	arr := make(types.Array, 0, 2*len(kept))
	for _, e := range kept {
		arr = append(arr, e.key, e.value)
	}
	tree.Delete("Kids")
	tree.Delete("Limits")
	tree.Update("Names", arr)
	return replaced, nil
}

func addAssociatedFile(xrt *pdfmodel.XRefTable, catalog types.Dict, spec types.IndirectRef, replaced []types.Object) error {
	var af types.Array
	if obj, found := catalog.Find("AF"); found && obj != nil {
		arr, err := xrt.DereferenceArray(obj)
		if err != nil {
			return NewPackageError(ErrCodeReadFailed, "invalid /AF array", err)
		}
		for _, o := range arr {
			if !containsRef(replaced, o) {
				af = append(af, o)
			}
		}
	}
	catalog.Update("AF", append(af, spec))
	return nil
}

func containsRef(refs []types.Object, o types.Object) bool {
	ref, ok := o.(types.IndirectRef)
	if !ok {
		return false
	}
	for _, r := range refs {
		if other, ok := r.(types.IndirectRef); ok && other.ObjectNumber == ref.ObjectNumber {
			return true
		}
	}
	return false
}

func subDict(xrt *pdfmodel.XRefTable, parent types.Dict, key string) (types.Dict, error) {
	obj, found := parent.Find(key)
	if found && obj != nil {
		d, err := xrt.DereferenceDict(obj)
		if err != nil {
			return nil, NewPackageError(ErrCodeReadFailed, "invalid /"+key+" dictionary", err)
		}
		if d != nil {
			return d, nil
		}
	}
	d := types.NewDict()
	parent.Update(key, d)
	return d, nil
}

// maxTreeDepth bounds name tree recursion on malformed files
const maxTreeDepth = 32

func nameTreeEntries(xrt *pdfmodel.XRefTable, node types.Dict, depth int) ([]nameEntry, error) {
	if node == nil || depth > maxTreeDepth {
		return nil, nil
	}

	var entries []nameEntry
	if obj, found := node.Find("Names"); found {
		arr, err := xrt.DereferenceArray(obj)
		if err != nil {
			return nil, NewPackageError(ErrCodeReadFailed, "invalid name tree", err)
		}
		for i := 0; i+1 < len(arr); i += 2 {
			entries = append(entries, nameEntry{name: textString(xrt, arr[i]), key: arr[i], value: arr[i+1]})
		}
	}

	if obj, found := node.Find("Kids"); found {
		kids, err := xrt.DereferenceArray(obj)
		if err != nil {
			return nil, NewPackageError(ErrCodeReadFailed, "invalid name tree", err)
		}
		for _, k := range kids {
			kid, err := xrt.DereferenceDict(k)
			if err != nil {
				return nil, NewPackageError(ErrCodeReadFailed, "invalid name tree node", err)
			}
			sub, err := nameTreeEntries(xrt, kid, depth+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		}
	}
	return entries, nil
}

// textString decodes a PDF text string, literal or hex, PDFDoc or UTF-16
func textString(xrt *pdfmodel.XRefTable, o types.Object) string {
	o, err := xrt.Dereference(o)
	if err != nil {
		return ""
	}
	switch v := o.(type) {
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(v); err == nil {
			return s
		}
		return v.Value()
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(v); err == nil {
			return s
		}
		return v.Value()
	case types.Name:
		return v.Value()
	}
	return ""
}
