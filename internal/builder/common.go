// Package builder turns an invoice and its aggregated tax view into
// Factur-X (CII) or UBL BIS 3 XML through the xmlnode tree.
package builder

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// Process types
const (
	ProcessBilling     = "billing"
	ProcessSelfBilling = "selfbilling"
)

// Options controls document generation
type Options struct {
	// ProcessType is billing or selfbilling
	ProcessType string
	// NegateHeaderTax emits the CII header tax total with a negative sign
	NegateHeaderTax bool
}

// DefaultOptions returns the default builder options
func DefaultOptions() Options {
	return Options{
		ProcessType:     ProcessBilling,
		NegateHeaderTax: true,
	}
}

// UBLFilename returns the conventional file name of a UBL BIS 3 export
func UBLFilename(number string) string {
	return safeNumber(number) + "_ubl_bis3.xml"
}

// CIIFrenchFilename returns the file name of a standalone CII (CIUS-FR) export
func CIIFrenchFilename(number string) string {
	return safeNumber(number) + "_cii_fr.xml"
}

func safeNumber(number string) string {
	return strings.ReplaceAll(number, "/", "_")
}

func (o Options) selfBilled(inv *model.Invoice) bool {
	return inv.SelfBilled || o.ProcessType == ProcessSelfBilling
}

// wireLine holds the quantity and unit price as emitted. A negative unit
// price is inverted together with the quantity; the product is unchanged.
type wireLine struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

func canonicalLine(l model.Line) wireLine {
	if l.UnitPrice.IsNegative() {
		return wireLine{Quantity: l.Quantity.Neg(), Price: l.UnitPrice.Neg()}
	}
	return wireLine{Quantity: l.Quantity, Price: l.UnitPrice}
}

// amount renders a monetary value with the given precision
func amount(d decimal.Decimal, places int32) string {
	return money.Format(d, places)
}

// price renders a unit price with at least places decimals, keeping any
// additional precision of the value
func price(d decimal.Decimal, places int32) string {
	if !d.Round(places).Equal(d) {
		return d.String()
	}
	return d.StringFixed(places)
}

func quantity(d decimal.Decimal) string {
	return money.FormatQuantity(d)
}

func rate(d decimal.Decimal) string {
	return money.FormatRate(d)
}

func dateCII(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

func dateUBL(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// unitCode maps the line unit to Rec 20, emitting the raw name when unmapped
func unitCode(l model.Line) string {
	code, _ := codelist.UoMCode(l.UoM)
	return code
}

var subjectNote = regexp.MustCompile(`(?s)^#([A-Z]{3})#(.*)$`)

// splitNote separates a "#CODE#content" note into its subject code and content
func splitNote(n model.Note) model.Note {
	if n.SubjectCode != "" {
		return n
	}
	if m := subjectNote.FindStringSubmatch(n.Content); m != nil {
		return model.Note{SubjectCode: m[1], Content: m[2]}
	}
	return n
}

// documentNotes returns the narration followed by the invoice notes
func documentNotes(inv *model.Invoice) []model.Note {
	var notes []model.Note
	if strings.TrimSpace(inv.Narration) != "" {
		notes = append(notes, splitNote(model.Note{Content: inv.Narration}))
	}
	for _, n := range inv.Notes {
		notes = append(notes, splitNote(n))
	}
	return notes
}

// legalScheme returns the ICD scheme of a party registration number
func legalScheme(p model.Party) string {
	if p.RegistrationScheme != "" {
		return p.RegistrationScheme
	}
	switch strings.ToUpper(p.Address.Country) {
	case "NL":
		scheme, _ := codelist.DutchLegalScheme(p.Registration)
		return scheme
	case "DK":
		return codelist.SchemeCVR
	case "FR":
		scheme, _ := codelist.FrenchLegalScheme(p.Registration)
		return scheme
	case "NO":
		return codelist.SchemeNOOrg
	}
	return ""
}

// legalIdentifier returns the registration number and its scheme as written
// on the legal entity. French SIRETs are reduced to the SIREN.
func legalIdentifier(p model.Party) (string, string) {
	id := strings.TrimSpace(p.Registration)
	if isFrench(p) {
		if _, ok := codelist.FrenchLegalScheme(id); ok {
			return codelist.SIREN(id), codelist.SchemeSIRENE
		}
	}
	if id == "" {
		return "", ""
	}
	return id, legalScheme(p)
}

// electronicAddress returns the party endpoint and its EAS scheme. French
// parties without a Peppol endpoint fall back to SIRET or SIREN.
func electronicAddress(p model.Party) (string, string) {
	if p.Endpoint != "" && p.EndpointScheme != "" {
		return p.Endpoint, p.EndpointScheme
	}
	if strings.EqualFold(p.Address.Country, "FR") {
		if scheme, ok := codelist.FrenchLegalScheme(p.Registration); ok {
			return strings.TrimSpace(p.Registration), scheme
		}
	}
	return "", ""
}

func isFrench(p model.Party) bool {
	return strings.EqualFold(p.Address.Country, "FR")
}

func country(c string) string {
	return strings.ToUpper(c)
}
