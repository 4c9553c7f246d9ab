package tax_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func vat(rate string) model.Tax {
	return model.Tax{Name: "VAT " + rate, Kind: model.TaxKindPercent, Amount: dec(rate)}
}

func invoice(supplierCountry, customerCountry string, lines ...model.Line) *model.Invoice {
	return &model.Invoice{
		Number:    "INV/2024/0001",
		Type:      model.DocumentTypeInvoice,
		IssueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:  "EUR",
		Supplier: model.Party{
			Name:    "Supplier",
			VAT:     supplierCountry + "123456789",
			Address: model.Address{Street: "1 Rue", City: "City", Zip: "1000", Country: supplierCountry},
		},
		Customer: model.Party{
			Name:    "Customer",
			VAT:     customerCountry + "987654321",
			Address: model.Address{Street: "2 Str", City: "Town", Zip: "2000", Country: customerCountry},
		},
		Lines: lines,
	}
}

func line(qty, price string, taxes ...model.Tax) model.Line {
	return model.Line{Sequence: 1, Name: "Item", Quantity: dec(qty), UnitPrice: dec(price), Taxes: taxes}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		supplier string
		customer string
		zip      string
		rate     string
		category string
		code     string
	}{
		{"domestic standard", "FR", "FR", "75001", "20", "S", ""},
		{"domestic zero", "FR", "FR", "75001", "0", "E", ""},
		{"intra-community", "BE", "DE", "10115", "0", "K", "VATEX-EU-IC"},
		{"intra-community with rate", "BE", "DE", "10115", "21", "S", ""},
		{"export", "FR", "US", "10001", "0", "G", "VATEX-EU-G"},
		{"canary islands", "ES", "ES", "35001", "0", "L", ""},
		{"tenerife", "FR", "ES", "38001", "7", "L", ""},
		{"ceuta", "ES", "ES", "51001", "0", "M", ""},
		{"outside EEA supplier", "US", "CA", "H2X", "0", "E", ""},
		{"outside EEA supplier with rate", "US", "CA", "H2X", "5", "S", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := invoice(tt.supplier, tt.customer)
			inv.Customer.Address.Zip = tt.zip

			c := tax.Classify(inv, vat(tt.rate), tax.Options{Places: 2})
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.code, c.ExemptionCode)
		})
	}
}

func TestClassify_ExplicitCategoryWins(t *testing.T) {
	inv := invoice("FR", "FR")

	c := tax.Classify(inv, model.Tax{Amount: dec("0"), Category: "z"}, tax.Options{})
	assert.Equal(t, "Z", c.Category)
	assert.Empty(t, c.ExemptionReason)

	c = tax.Classify(inv, model.Tax{Amount: dec("0"), Category: "AE"}, tax.Options{})
	assert.Equal(t, "AE", c.Category)
	assert.Equal(t, "VATEX-EU-AE", c.ExemptionCode)

	c = tax.Classify(inv, model.Tax{Amount: dec("0"), Category: "O", ExemptionReason: "Outside scope"}, tax.Options{})
	assert.Equal(t, "Outside scope", c.ExemptionReason)
	assert.Empty(t, c.ExemptionCode)
}

func TestClassify_FrenchExemptionReason(t *testing.T) {
	inv := invoice("FR", "FR")

	c := tax.Classify(inv, vat("0"), tax.Options{})
	assert.Equal(t, "Articles 226 items 11 to 15 Directive 2006/112/EN", c.ExemptionReason)

	c = tax.Classify(inv, vat("0"), tax.Options{FrenchExemptionReason: "Article 261 du CGI"})
	assert.Equal(t, "Article 261 du CGI", c.ExemptionReason)

	inv.Narration = "Frais DEBOURS refacturés"
	c = tax.Classify(inv, vat("0"), tax.Options{FrenchExemptionReason: "Article 261 du CGI"})
	assert.Equal(t, "DEBOURS", c.ExemptionReason)
}

func TestClassify_FixedTax(t *testing.T) {
	inv := invoice("FR", "FR")
	c := tax.Classify(inv, model.Tax{Kind: model.TaxKindFixed, Amount: dec("0.50")}, tax.Options{})
	assert.Equal(t, "other-charge", c.Category)
}

func TestAggregate_DomesticInvoice(t *testing.T) {
	inv := invoice("FR", "FR", line("10", "100", vat("20")))

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	require.Len(t, view.Lines, 1)
	assert.Equal(t, "1000.00", view.Lines[0].Net.StringFixed(2))
	require.NotNil(t, view.Lines[0].VAT)
	assert.Equal(t, "S", view.Lines[0].VAT.Category)

	require.Len(t, view.Breakdown, 1)
	b := view.Breakdown[0]
	assert.Equal(t, "S", b.Category)
	assert.Equal(t, "1000.00", b.Base.StringFixed(2))
	assert.Equal(t, "200.00", b.Amount.StringFixed(2))

	assert.Equal(t, "1000.00", view.Totals.TaxExclusive.StringFixed(2))
	assert.Equal(t, "200.00", view.Totals.TaxTotal.StringFixed(2))
	assert.Equal(t, "1200.00", view.Totals.TaxInclusive.StringFixed(2))
	assert.Equal(t, "1200.00", view.Totals.Payable.StringFixed(2))
	assert.False(t, view.IntracomDelivery)
}

func TestAggregate_IntraCommunity(t *testing.T) {
	inv := invoice("BE", "DE", line("5", "200", vat("0")))

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	assert.True(t, view.IntracomDelivery)
	assert.True(t, view.HasCategory("K"))
	assert.Equal(t, []string{"K"}, view.Categories())
	require.Len(t, view.Breakdown, 1)
	assert.Equal(t, "VATEX-EU-IC", view.Breakdown[0].ExemptionCode)
	assert.Equal(t, "0.00", view.Breakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "1000.00", view.Totals.Payable.StringFixed(2))
}

func TestAggregate_DiscountAndGrouping(t *testing.T) {
	inv := invoice("FR", "FR",
		model.Line{Name: "A", Quantity: dec("3"), UnitPrice: dec("19.99"), Discount: dec("10"), Taxes: []model.Tax{vat("20")}},
		model.Line{Name: "B", Quantity: dec("1"), UnitPrice: dec("50"), Taxes: []model.Tax{vat("20")}},
		model.Line{Name: "C", Quantity: dec("2"), UnitPrice: dec("10"), Taxes: []model.Tax{vat("5.5")}},
	)

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	// 3 * 19.99 = 59.97, less 10% = 53.973 -> 53.97
	assert.Equal(t, "59.97", view.Lines[0].Gross.StringFixed(2))
	assert.Equal(t, "53.97", view.Lines[0].Net.StringFixed(2))
	assert.Equal(t, "6.00", view.Lines[0].Allowance.StringFixed(2))

	require.Len(t, view.Breakdown, 2)
	assert.Equal(t, "103.97", view.Breakdown[0].Base.StringFixed(2))
	assert.Equal(t, "20.79", view.Breakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "20.00", view.Breakdown[1].Base.StringFixed(2))
	assert.Equal(t, "1.10", view.Breakdown[1].Amount.StringFixed(2))

	assert.Equal(t, "123.97", view.Totals.LineTotal.StringFixed(2))
	assert.Equal(t, "21.89", view.Totals.TaxTotal.StringFixed(2))
	assert.Equal(t, "145.86", view.Totals.TaxInclusive.StringFixed(2))
}

func TestAggregate_FixedTaxBucket(t *testing.T) {
	eco := model.Tax{Name: "Eco-participation", Kind: model.TaxKindFixed, Amount: dec("0.50")}
	inv := invoice("FR", "FR", line("4", "25", eco, vat("20")))

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	ld := view.Lines[0]
	assert.Equal(t, "2.00", ld.Charges.StringFixed(2))
	assert.Equal(t, "102.00", ld.Total.StringFixed(2))
	require.NotNil(t, ld.VAT)
	assert.Equal(t, "S", ld.VAT.Category)
	assert.Equal(t, "2.00", view.OtherCharges.StringFixed(2))

	require.Len(t, view.Breakdown, 1)
	assert.Equal(t, "102.00", view.Breakdown[0].Base.StringFixed(2))
	assert.Equal(t, "20.40", view.Breakdown[0].Amount.StringFixed(2))
}

func TestAggregate_DocumentAllowances(t *testing.T) {
	inv := invoice("FR", "FR", line("1", "100", vat("20")))
	inv.AllowanceCharges = []model.AllowanceCharge{
		{Amount: dec("10"), Reason: "Loyalty", Tax: vat("20")},
		{Charge: true, Amount: dec("5"), Reason: "Freight", Tax: vat("20")},
	}
	inv.Prepaid = dec("20")

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	require.Len(t, view.Allowances, 2)
	require.Len(t, view.Breakdown, 1)
	assert.Equal(t, "95.00", view.Breakdown[0].Base.StringFixed(2))
	assert.Equal(t, "19.00", view.Breakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "10.00", view.Totals.AllowanceTotal.StringFixed(2))
	assert.Equal(t, "5.00", view.Totals.ChargeTotal.StringFixed(2))
	assert.Equal(t, "95.00", view.Totals.TaxExclusive.StringFixed(2))
	assert.Equal(t, "114.00", view.Totals.TaxInclusive.StringFixed(2))
	assert.Equal(t, "94.00", view.Totals.Payable.StringFixed(2))
}

func TestAggregate_NegativePrice(t *testing.T) {
	inv := invoice("FR", "FR", line("2", "-50", vat("20")))

	view := tax.Aggregate(inv, tax.Options{Places: 2})

	assert.Equal(t, "-100.00", view.Lines[0].Net.StringFixed(2))
	assert.Equal(t, "-20.00", view.Breakdown[0].Amount.StringFixed(2))
}

func TestAggregate_ZeroDecimalCurrency(t *testing.T) {
	inv := invoice("FR", "FR", line("3", "333.3", vat("10")))
	inv.Currency = "JPY"

	view := tax.Aggregate(inv, tax.Options{Places: 0})

	assert.Equal(t, "1000", view.Lines[0].Net.String())
	assert.Equal(t, "100", view.Breakdown[0].Amount.String())
}

func TestAggregate_DoesNotMutate(t *testing.T) {
	inv := invoice("FR", "FR", line("2", "-50", vat("20")))
	before := inv.Lines[0]

	tax.Aggregate(inv, tax.Options{Places: 2})

	assert.True(t, before.UnitPrice.Equal(inv.Lines[0].UnitPrice))
	assert.True(t, before.Quantity.Equal(inv.Lines[0].Quantity))
	assert.Nil(t, inv.Totals)
}
