package pdfa

import (
	"strings"

	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// InvoiceAttachmentNames are the attachment names of hybrid e-invoices, in
// lookup order
var InvoiceAttachmentNames = []string{
	FacturXFilename,
	"zugferd-invoice.xml",
	"ZUGFeRD-invoice.xml",
	"xrechnung.xml",
}

// Attachments lists the embedded files of a PDF
func Attachments(pdf []byte) ([]Attachment, error) {
	if !IsPDF(pdf) {
		return nil, ErrNotPDF()
	}
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}
	xrt := ctx.XRefTable

	catalog, err := xrt.Catalog()
	if err != nil {
		return nil, NewPackageError(ErrCodeReadFailed, "PDF has no catalog", err)
	}
	names, err := lookupDict(xrt, catalog, "Names")
	if err != nil || names == nil {
		return nil, err
	}
	tree, err := lookupDict(xrt, names, "EmbeddedFiles")
	if err != nil || tree == nil {
		return nil, err
	}
	entries, err := nameTreeEntries(xrt, tree, 0)
	if err != nil {
		return nil, err
	}

	var out []Attachment
	for _, e := range entries {
		a, err := readAttachment(xrt, e)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Extract returns the e-invoice XML embedded in a PDF
func Extract(pdf []byte) (*Attachment, error) {
	attachments, err := Attachments(pdf)
	if err != nil {
		return nil, err
	}
	for _, name := range InvoiceAttachmentNames {
		for i := range attachments {
			if strings.EqualFold(attachments[i].Name, name) {
				return &attachments[i], nil
			}
		}
	}
	return nil, ErrNoAttachment()
}

func lookupDict(xrt *pdfmodel.XRefTable, parent types.Dict, key string) (types.Dict, error) {
	obj, found := parent.Find(key)
	if !found || obj == nil {
		return nil, nil
	}
	d, err := xrt.DereferenceDict(obj)
	if err != nil {
		return nil, NewPackageError(ErrCodeReadFailed, "invalid /"+key+" dictionary", err)
	}
	return d, nil
}

func readAttachment(xrt *pdfmodel.XRefTable, e nameEntry) (Attachment, error) {
	a := Attachment{Name: e.name}

	spec, err := xrt.DereferenceDict(e.value)
	if err != nil || spec == nil {
		return a, NewPackageError(ErrCodeReadFailed, "invalid file specification: "+e.name, err)
	}
	if a.Name == "" {
		if uf, found := spec.Find("UF"); found {
			a.Name = textString(xrt, uf)
		}
	}
	if rel := spec.NameEntry("AFRelationship"); rel != nil {
		a.Relationship = *rel
	}
	if desc, found := spec.Find("Desc"); found {
		a.Description = textString(xrt, desc)
	}

	ef, err := lookupDict(xrt, spec, "EF")
	if err != nil || ef == nil {
		return a, NewPackageError(ErrCodeReadFailed, "file specification without embedded file: "+a.Name, err)
	}
	obj, found := ef.Find("UF")
	if !found {
		obj, found = ef.Find("F")
	}
	if !found {
		return a, NewPackageError(ErrCodeReadFailed, "file specification without embedded file: "+a.Name, nil)
	}

	sd, _, err := xrt.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return a, NewPackageError(ErrCodeReadFailed, "invalid embedded file stream: "+a.Name, err)
	}
	if subtype := sd.NameEntry("Subtype"); subtype != nil {
		a.MIME = *subtype
	}
	if err := sd.Decode(); err != nil {
		return a, NewPackageError(ErrCodeReadFailed, "failed to decode embedded file: "+a.Name, err)
	}
	a.Content = sd.Content
	return a, nil
}
