package tax

import (
	"strings"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// Classification is the VAT category assigned to a tax
type Classification struct {
	Category        string
	ExemptionCode   string
	ExemptionReason string
}

// Classify assigns a VAT category to a percentage tax from the supplier and
// customer countries, the customer zip and the rate. An explicit category on
// the tax always wins.
func Classify(inv *model.Invoice, t model.Tax, opts Options) Classification {
	if !t.IsPercent() {
		return Classification{Category: codelist.CategoryOtherCharge}
	}

	if t.Category != "" {
		return explicit(t)
	}

	supplier := strings.ToUpper(inv.Supplier.Address.Country)
	customer := strings.ToUpper(inv.Customer.Address.Country)
	zip := inv.Customer.Address.Zip
	zero := t.Amount.IsZero()

	if codelist.IsCanaryIslands(customer, zip) {
		return Classification{Category: codelist.CategoryCanaryIslands}
	}
	if codelist.IsCeutaMelilla(customer, zip) {
		return Classification{Category: codelist.CategoryCeutaMelilla}
	}

	if supplier == customer {
		if !zero {
			return Classification{Category: codelist.CategoryStandard}
		}
		return Classification{
			Category:        codelist.CategoryExempt,
			ExemptionReason: exemptReason(inv, opts),
		}
	}

	if codelist.IsEEA(supplier) && inv.Supplier.VAT != "" {
		if !zero {
			return Classification{Category: codelist.CategoryStandard}
		}
		if !codelist.IsEEA(customer) {
			return Classification{
				Category:        codelist.CategoryExport,
				ExemptionCode:   codelist.VATEXExport,
				ExemptionReason: codelist.ReasonExport,
			}
		}
		return Classification{
			Category:        codelist.CategoryIntraCommunity,
			ExemptionCode:   codelist.VATEXIntraCommunity,
			ExemptionReason: codelist.ReasonIntraCommunity,
		}
	}

	if !zero {
		return Classification{Category: codelist.CategoryStandard}
	}
	return Classification{
		Category:        codelist.CategoryExempt,
		ExemptionReason: exemptReason(inv, opts),
	}
}

func explicit(t model.Tax) Classification {
	c := Classification{
		Category:        strings.ToUpper(t.Category),
		ExemptionCode:   t.ExemptionCode,
		ExemptionReason: t.ExemptionReason,
	}
	if codelist.RequiresExemptionReason(c.Category) && c.ExemptionCode == "" && c.ExemptionReason == "" {
		c.ExemptionCode, c.ExemptionReason = codelist.DefaultExemption(c.Category)
	}
	return c
}

// exemptReason picks the reason text of a domestic zero-rated tax
func exemptReason(inv *model.Invoice, opts Options) string {
	if strings.EqualFold(inv.Supplier.Address.Country, "FR") && strings.Contains(inv.Narration, codelist.ReasonDebours) {
		return codelist.ReasonDebours
	}
	if opts.FrenchExemptionReason != "" {
		return opts.FrenchExemptionReason
	}
	return codelist.ReasonDirectiveArt226
}
