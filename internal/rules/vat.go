package rules

import (
	"fmt"
	"strings"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

func intracomRules() []Rule {
	return []Rule{
		{
			ID:          "BR-IC-02",
			Severity:    model.SeverityBlocking,
			Description: "An intra-community supply shall contain the seller VAT identifier",
			Check: func(inv *model.Invoice, view *tax.View) []Violation {
				if view.IntracomDelivery && inv.Supplier.VAT == "" {
					return fail("supplier.vat", "intra-community supply requires the VAT number of %s", inv.Supplier.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-IC-04",
			Severity:    model.SeverityBlocking,
			Description: "An intra-community supply shall contain the buyer VAT identifier",
			Check: func(inv *model.Invoice, view *tax.View) []Violation {
				if view.IntracomDelivery && inv.Customer.VAT == "" {
					return fail("customer.vat", "intra-community supply requires the VAT number of %s", inv.Customer.Name)
				}
				return nil
			},
		},
		{
			ID:          "BR-IC-11",
			Severity:    model.SeverityBlocking,
			Description: "An intra-community supply shall contain the actual delivery date or the invoicing period",
			Check: func(inv *model.Invoice, view *tax.View) []Violation {
				if view.IntracomDelivery && !inv.HasDeliveryInformation() {
					return fail("delivery_date", "intra-community supply requires a delivery date or an invoicing period")
				}
				return nil
			},
		},
		{
			ID:          "BR-IC-12",
			Severity:    model.SeverityBlocking,
			Description: "An intra-community supply shall contain the deliver to country code",
			Check: func(inv *model.Invoice, view *tax.View) []Violation {
				if view.IntracomDelivery && inv.DeliveryParty().Address.Country == "" {
					return fail("shipping.address.country", "intra-community supply requires the delivery country")
				}
				return nil
			},
		},
	}
}

func vatRules() []Rule {
	return []Rule{
		{
			ID:          "BR-CO-09",
			Severity:    model.SeverityBlocking,
			Description: "VAT identifiers shall have a prefix in accordance with ISO 3166-1 alpha-2",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for _, p := range []struct {
					path  string
					party model.Party
				}{
					{"supplier.vat", inv.Supplier},
					{"customer.vat", inv.Customer},
				} {
					vat := strings.TrimSpace(p.party.VAT)
					country := p.party.Address.Country
					if vat == "" || codelist.VATScheme(country, vat) != codelist.TaxSchemeVAT {
						continue
					}
					if codelist.IsEU(country) {
						prefix := codelist.VATPrefix(country)
						if !strings.HasPrefix(strings.ToUpper(vat), prefix) {
							out = append(out, Violation{
								Path:    p.path,
								Message: fmt.Sprintf("VAT number %q of %s must start with %s (%s)", vat, p.party.Name, prefix, codelist.CountryName(country)),
							})
						}
						continue
					}
					if !codelist.ValidVATPrefix(vat) {
						out = append(out, Violation{Path: p.path, Message: fmt.Sprintf("VAT number %q of %s has no valid country prefix", vat, p.party.Name)})
					}
				}
				return out
			},
		},
		{
			ID:          "br_co_09_not_eu_vat",
			Severity:    model.SeverityWarning,
			Description: "Non-EU VAT numbers without prefix are declared under the NOT_EU_VAT scheme",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				var out []Violation
				for _, p := range []struct {
					path  string
					party model.Party
				}{
					{"supplier.vat", inv.Supplier},
					{"customer.vat", inv.Customer},
				} {
					if p.party.VAT != "" && codelist.VATScheme(p.party.Address.Country, p.party.VAT) == codelist.TaxSchemeNotEUVAT {
						out = append(out, Violation{
							Path:    p.path,
							Message: fmt.Sprintf("VAT number %q of %s is exported with scheme %s", p.party.VAT, p.party.Name, codelist.TaxSchemeNotEUVAT),
						})
					}
				}
				return out
			},
		},
	}
}

func paymentRules() []Rule {
	return []Rule{
		{
			ID:          "BR-61",
			Severity:    model.SeverityBlocking,
			Description: "Credit transfers shall contain the payment account identifier",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				pm := inv.PaymentMeans
				if pm != nil && codelist.RequiresAccount(pm.Code) && strings.TrimSpace(pm.Account) == "" {
					return fail("payment_means.account", "payment means %s (%s) requires a bank account", pm.Code, codelist.PaymentMeansName(pm.Code))
				}
				return nil
			},
		},
		{
			ID:          "BR-CL-16",
			Severity:    model.SeverityBlocking,
			Description: "Payment means shall be coded using UNCL 4461",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				pm := inv.PaymentMeans
				if pm != nil && pm.Code != "" && !codelist.IsPaymentMeans(pm.Code) {
					return fail("payment_means.code", "%q is not a UNCL 4461 payment means code", pm.Code)
				}
				return nil
			},
		},
	}
}

func peppolRules() []Rule {
	return []Rule{
		{
			ID:          "PEPPOL-EN16931-R003",
			Severity:    model.SeverityBlocking,
			Formats:     ublOnly,
			Description: "A buyer reference or purchase order reference shall be provided",
			Check: func(inv *model.Invoice, _ *tax.View) []Violation {
				if strings.TrimSpace(inv.BuyerReference) == "" && strings.TrimSpace(inv.PurchaseOrderReference) == "" {
					return fail("buyer_reference", "a buyer reference or a purchase order reference is required")
				}
				return nil
			},
		},
	}
}
