package pdfa

import (
	"time"

	"github.com/beevik/etree"
)

const (
	nsRDF       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsFacturX   = "urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#"
	facturXName = "Factur-X PDFA Extension Schema"
)

// xmpInfo is the content of the document metadata stream
type xmpInfo struct {
	Title      string
	Level      string
	DocumentID string
	Producer   string
	Date       time.Time
}

type fxProperty struct {
	name, description string
}

var fxProperties = []fxProperty{
	{"DocumentFileName", "The name of the embedded XML document"},
	{"DocumentType", "The type of the hybrid document in capital letters, e.g. INVOICE or ORDER"},
	{"Version", "The actual version of the standard applying to the embedded XML document"},
	{"ConformanceLevel", "The conformance level of the embedded XML document"},
}

// xmpPacket renders the XMP packet declaring PDF/A-3B and the Factur-X
// extension schema
func xmpPacket(info xmpInfo) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xpacket", "begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"")

	meta := doc.CreateElement("x:xmpmeta")
	meta.CreateAttr("xmlns:x", "adobe:ns:meta/")
	rdf := meta.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", nsRDF)

	date := info.Date.UTC().Format(time.RFC3339)

	d := description(rdf, "pdfaid", "http://www.aiim.org/pdfa/ns/id/")
	d.CreateElement("pdfaid:part").SetText("3")
	d.CreateElement("pdfaid:conformance").SetText("B")

	d = description(rdf, "dc", "http://purl.org/dc/elements/1.1/")
	title := d.CreateElement("dc:title").CreateElement("rdf:Alt").CreateElement("rdf:li")
	title.CreateAttr("xml:lang", "x-default")
	title.SetText(info.Title)

	d = description(rdf, "pdf", "http://ns.adobe.com/pdf/1.3/")
	d.CreateElement("pdf:Producer").SetText(info.Producer)

	d = description(rdf, "xmp", "http://ns.adobe.com/xap/1.0/")
	d.CreateElement("xmp:CreatorTool").SetText(info.Producer)
	d.CreateElement("xmp:CreateDate").SetText(date)
	d.CreateElement("xmp:ModifyDate").SetText(date)
	d.CreateElement("xmp:MetadataDate").SetText(date)

	d = description(rdf, "xmpMM", "http://ns.adobe.com/xap/1.0/mm/")
	d.CreateElement("xmpMM:DocumentID").SetText("uuid:" + info.DocumentID)

	extensionSchema(rdf)

	d = description(rdf, "fx", nsFacturX)
	d.CreateElement("fx:DocumentType").SetText("INVOICE")
	d.CreateElement("fx:DocumentFileName").SetText(FacturXFilename)
	d.CreateElement("fx:Version").SetText("1.0")
	d.CreateElement("fx:ConformanceLevel").SetText(info.Level)

	doc.CreateProcInst("xpacket", `end="w"`)
	doc.Indent(1)
	return doc.WriteToBytes()
}

func description(rdf *etree.Element, prefix, uri string) *etree.Element {
	d := rdf.CreateElement("rdf:Description")
	d.CreateAttr("rdf:about", "")
	d.CreateAttr("xmlns:"+prefix, uri)
	return d
}

// extensionSchema declares the fx properties, required for custom schemas
// in PDF/A
func extensionSchema(rdf *etree.Element) {
	d := description(rdf, "pdfaExtension", "http://www.aiim.org/pdfa/ns/extension/")
	d.CreateAttr("xmlns:pdfaSchema", "http://www.aiim.org/pdfa/ns/schema#")
	d.CreateAttr("xmlns:pdfaProperty", "http://www.aiim.org/pdfa/ns/property#")

	schema := d.CreateElement("pdfaExtension:schemas").CreateElement("rdf:Bag").CreateElement("rdf:li")
	schema.CreateAttr("rdf:parseType", "Resource")
	schema.CreateElement("pdfaSchema:schema").SetText(facturXName)
	schema.CreateElement("pdfaSchema:namespaceURI").SetText(nsFacturX)
	schema.CreateElement("pdfaSchema:prefix").SetText("fx")

	seq := schema.CreateElement("pdfaSchema:property").CreateElement("rdf:Seq")
	for _, p := range fxProperties {
		li := seq.CreateElement("rdf:li")
		li.CreateAttr("rdf:parseType", "Resource")
		li.CreateElement("pdfaProperty:name").SetText(p.name)
		li.CreateElement("pdfaProperty:valueType").SetText("Text")
		li.CreateElement("pdfaProperty:category").SetText("external")
		li.CreateElement("pdfaProperty:description").SetText(p.description)
	}
}
