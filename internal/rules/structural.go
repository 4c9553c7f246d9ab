package rules

import (
	"fmt"
	"strings"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

func structuralRules() []Rule {
	return []Rule{
		{
			ID:          "BR-02",
			Severity:    model.SeverityBlocking,
			Description: "An invoice shall have an invoice number",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if strings.TrimSpace(inv.Number) == "" {
					return fail("number", "invoice number is required")
				}
				return nil
			},
		},
		{
			ID:          "BR-03",
			Severity:    model.SeverityBlocking,
			Description: "An invoice shall have an issue date",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if inv.IssueDate.IsZero() {
					return fail("issue_date", "issue date is required")
				}
				return nil
			},
		},
		{
			ID:          "BR-05",
			Severity:    model.SeverityBlocking,
			Description: "An invoice shall have an invoice currency code",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if strings.TrimSpace(inv.Currency) == "" {
					return fail("currency", "currency is required")
				}
				return nil
			},
		},
		{
			ID:          "BR-CL-04",
			Severity:    model.SeverityBlocking,
			Description: "Currency codes shall be coded using ISO 4217",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if inv.Currency != "" && !codelist.IsCurrency(inv.Currency) {
					return fail("currency", "%q is not an ISO 4217 currency code", inv.Currency)
				}
				return nil
			},
		},
		{
			ID:          "BR-08",
			Severity:    model.SeverityBlocking,
			Description: "An invoice shall contain the seller postal address",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				return incompleteAddress("supplier", inv.Supplier)
			},
		},
		{
			ID:          "BR-09",
			Severity:    model.SeverityBlocking,
			Description: "The seller postal address shall contain a country code",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if inv.Supplier.Address.Country == "" {
					return fail("supplier.address.country", "supplier %q has no country", inv.Supplier.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-11",
			Severity:    model.SeverityBlocking,
			Description: "The buyer postal address shall contain a country code",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if inv.Customer.Address.Country == "" {
					return fail("customer.address.country", "customer %q has no country", inv.Customer.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-CL-14",
			Severity:    model.SeverityBlocking,
			Description: "Country codes shall be coded using ISO 3166-1",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for _, p := range []struct {
					path    string
					country string
				}{
					{"supplier.address.country", inv.Supplier.Address.Country},
					{"customer.address.country", inv.Customer.Address.Country},
				} {
					if p.country != "" && !codelist.IsCountry(p.country) {
						out = append(out, Violation{Path: p.path, Message: fmt.Sprintf("%q is not an ISO 3166-1 country code", p.country)})
					}
				}
				return out
			},
		},
		{
			ID:          "BR-CO-26",
			Severity:    model.SeverityBlocking,
			Description: "The seller VAT identifier or legal registration identifier shall be present",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if inv.Supplier.VAT == "" && inv.Supplier.Registration == "" {
					return fail("supplier.vat", "supplier %q needs a VAT number or a company registration number", inv.Supplier.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-16",
			Severity:    model.SeverityBlocking,
			Description: "An invoice shall have at least one invoice line",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if len(inv.Lines) == 0 {
					return fail("lines", "invoice has no lines")
				}
				return nil
			},
		},
		{
			ID:          "BR-25",
			Severity:    model.SeverityBlocking,
			Description: "Each invoice line shall contain the item name",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for i, line := range inv.Lines {
					if strings.TrimSpace(line.Name) == "" && strings.TrimSpace(line.Description) == "" {
						out = append(out, Violation{Path: linePath(i, "name"), Message: fmt.Sprintf("line %d has no item name", i+1)})
					}
				}
				return out
			},
		},
		{
			ID:          "UBL-SR-48",
			Severity:    model.SeverityBlocking,
			Description: "Invoice lines shall have one and only one classified tax category",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for i, line := range inv.Lines {
					if n := len(line.PercentTaxes()); n != 1 {
						out = append(out, Violation{
							Path:    linePath(i, "taxes"),
							Message: fmt.Sprintf("line %d must have exactly one percentage tax, found %d", i+1, n),
						})
					}
				}
				return out
			},
		},
		{
			ID:          "line_discount_range",
			Severity:    model.SeverityBlocking,
			Description: "Line discounts are percentages between 0 and 100",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for i, line := range inv.Lines {
					if line.Discount.IsNegative() || line.Discount.GreaterThan(money.Hundred) {
						out = append(out, Violation{
							Path:    linePath(i, "discount"),
							Message: fmt.Sprintf("line %d discount %s is outside [0, 100]", i+1, line.Discount.String()),
						})
					}
				}
				return out
			},
		},
		{
			ID:          "PEPPOL-EN16931-CL008",
			Severity:    model.SeverityBlocking,
			Description: "Electronic addresses shall carry a scheme from the EAS code list",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for _, p := range []struct {
					path  string
					party model.Party
				}{
					{"supplier", inv.Supplier},
					{"customer", inv.Customer},
				} {
					if p.party.Endpoint == "" {
						continue
					}
					if p.party.EndpointScheme == "" {
						out = append(out, Violation{Path: p.path + ".endpoint_scheme", Message: fmt.Sprintf("endpoint %q has no EAS scheme", p.party.Endpoint)})
					} else if !codelist.IsEAS(p.party.EndpointScheme) {
						out = append(out, Violation{Path: p.path + ".endpoint_scheme", Message: fmt.Sprintf("%q is not an EAS scheme", p.party.EndpointScheme)})
					}
				}
				return out
			},
		},
	}
}

// incompleteAddress reports missing street, city or zip of a party
func incompleteAddress(path string, p model.Party) []Violation {
	var missing []string
	if p.Address.Street == "" {
		missing = append(missing, "street")
	}
	if p.Address.City == "" {
		missing = append(missing, "city")
	}
	if p.Address.Zip == "" {
		missing = append(missing, "zip")
	}
	if len(missing) == 0 {
		return nil
	}
	return fail(path+".address", "%s address is missing %s", p.Name, strings.Join(missing, ", "))
}

func linePath(i int, field string) string {
	return fmt.Sprintf("lines[%d].%s", i, field)
}
