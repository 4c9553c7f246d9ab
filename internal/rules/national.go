package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

var norwegianVAT = regexp.MustCompile(`^NO\d{9}MVA$`)

func isCountry(p model.Party, code string) bool {
	return strings.EqualFold(p.Address.Country, code)
}

// Dutch national rules (SI-UBL 2.0), applied to Dutch suppliers and buyers
func netherlandsRules() []Rule {
	return []Rule{
		{
			ID:          "NL-R-001",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch credit notes shall reference the corrected invoice",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if isCountry(inv.Supplier, "NL") && inv.IsRefund() && strings.TrimSpace(inv.BillingReference) == "" {
					return fail("billing_reference", "a credit note issued by a Dutch supplier must reference the original invoice")
				}
				return nil
			},
		},
		{
			ID:          "NL-R-002",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch suppliers shall provide street, city and postal code",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if !isCountry(inv.Supplier, "NL") {
					return nil
				}
				return incompleteAddress("supplier", inv.Supplier)
			},
		},
		{
			ID:          "NL-R-003",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch suppliers shall provide a KVK or OIN legal entity identifier",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if !isCountry(inv.Supplier, "NL") {
					return nil
				}
				return dutchLegalEntity("supplier", inv.Supplier)
			},
		},
		{
			ID:          "NL-R-004",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch buyers shall provide street, city and postal code",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if !isCountry(inv.Supplier, "NL") || !isCountry(inv.Customer, "NL") {
					return nil
				}
				return incompleteAddress("customer", inv.Customer)
			},
		},
		{
			ID:          "NL-R-005",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch buyers shall provide a KVK or OIN legal entity identifier",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if !isCountry(inv.Supplier, "NL") || !isCountry(inv.Customer, "NL") {
					return nil
				}
				return dutchLegalEntity("customer", inv.Customer)
			},
		},
		{
			ID:          "NL-R-007",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Dutch suppliers shall provide a payment means",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if isCountry(inv.Supplier, "NL") && (inv.PaymentMeans == nil || inv.PaymentMeans.Code == "") {
					return fail("payment_means", "a Dutch supplier must provide a payment means")
				}
				return nil
			},
		},
	}
}

func dutchLegalEntity(path string, p model.Party) []Violation {
	scheme, ok := codelist.DutchLegalScheme(p.Registration)
	if !ok {
		return fail(path+".registration", "%s must have a KVK (8 digits) or OIN (9 or 20 digits) number, got %q", p.Name, p.Registration)
	}
	if p.RegistrationScheme != "" && p.RegistrationScheme != scheme {
		return fail(path+".registration_scheme", "%s registration %q implies scheme %s (%s), got %s",
			p.Name, p.Registration, scheme, codelist.EASName(scheme), p.RegistrationScheme)
	}
	return nil
}

func norwayRules() []Rule {
	return []Rule{
		{
			ID:          "no_r_001",
			Severity:    model.SeverityBlocking,
			Description: "Norwegian suppliers shall use a VAT number of the form NO999999999MVA",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if !isCountry(inv.Supplier, "NO") {
					return nil
				}
				if !norwegianVAT.MatchString(inv.Supplier.VAT) {
					return fail("supplier.vat", "the VAT number %q of the supplier does not seem to be valid, it should be of the form NO179728982MVA", inv.Supplier.VAT)
				}
				return nil
			},
		},
	}
}

func denmarkRules() []Rule {
	return []Rule{
		{
			ID:          "DK-R-014",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "Danish suppliers shall identify the legal entity with a CVR number",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				p := inv.Supplier
				if !isCountry(p, "DK") {
					return nil
				}
				if p.Registration == "" {
					return fail("supplier.registration", "a Danish supplier must provide its CVR number")
				}
				if p.RegistrationScheme != "" && p.RegistrationScheme != codelist.SchemeCVR {
					return fail("supplier.registration_scheme", "legal entity scheme must be %s (%s), got %s",
						codelist.SchemeCVR, codelist.EASName(codelist.SchemeCVR), p.RegistrationScheme)
				}
				return nil
			},
		},
	}
}

// French CIUS rules on electronic addresses, reported as warnings
func franceRules() []Rule {
	return []Rule{
		{
			ID:          "BR-FR-12",
			Severity:    model.SeverityWarning,
			Formats:     facturxOnly,
			Description: "The seller electronic address shall be provided",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if isCountry(inv.Supplier, "FR") && !hasElectronicAddress(inv.Supplier) {
					return fail("supplier.endpoint", "%s has no electronic address (Peppol endpoint, SIRET or SIREN)", inv.Supplier.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-FR-13",
			Severity:    model.SeverityWarning,
			Formats:     facturxOnly,
			Description: "The buyer electronic address shall be provided",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if isCountry(inv.Supplier, "FR") && !hasElectronicAddress(inv.Customer) {
					return fail("customer.endpoint", "%s has no electronic address (Peppol endpoint, SIRET or SIREN)", inv.Customer.Name)
				}
				return nil
			},
		},
	}
}

func hasElectronicAddress(p model.Party) bool {
	if p.Endpoint != "" && p.EndpointScheme != "" {
		return true
	}
	_, ok := codelist.FrenchLegalScheme(p.Registration)
	return ok
}

func advisoryRules(opts Options) []Rule {
	rules := []Rule{
		{
			ID:          "facturx_number_length",
			Severity:    model.SeverityWarning,
			Formats:     facturxOnly,
			Description: "Factur-X invoice numbers should not exceed 16 characters",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if n := len([]rune(inv.Number)); n > 16 {
					return fail("number", "invoice number %q has %d characters, some receivers accept at most 16", inv.Number, n)
				}
				return nil
			},
		},
	}
	if opts.WarnOnUnmappedUoM {
		rules = append(rules, Rule{
			ID:          "uom_unmapped",
			Severity:    model.SeverityWarning,
			Description: "Units of measure should map to UN/ECE Recommendation 20",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for i, line := range inv.Lines {
					if _, ok := codelist.UoMCode(line.UoM); !ok {
						out = append(out, Violation{
							Path:    linePath(i, "uom"),
							Message: fmt.Sprintf("unit %q has no UN/ECE Rec 20 code, exported as is", line.UoM),
						})
					}
				}
				return out
			},
		})
	}
	return rules
}
