// Package tax computes line tax details, VAT categories, per-category
// breakdowns and document totals of an invoice.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// Options controls rounding and exemption texts of the aggregation
type Options struct {
	// Places is the monetary precision, usually the currency's minor unit
	Places int32
	// FrenchExemptionReason replaces the default directive citation on
	// domestic zero-rated taxes
	FrenchExemptionReason string
}

// TaxDetail is the evaluation of one tax against a line or allowance base
type TaxDetail struct {
	Classification
	Tax    model.Tax
	Rate   decimal.Decimal
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// LineDetail holds the amounts of one invoice line
type LineDetail struct {
	Index     int
	Gross     decimal.Decimal // quantity * unit price
	Allowance decimal.Decimal // discount amount
	Net       decimal.Decimal // gross - allowance
	Charges   decimal.Decimal // fixed taxes
	Total     decimal.Decimal // net + charges, the line extension amount
	Taxes     []TaxDetail
	VAT       *TaxDetail // the tax determining the line's category
}

// AllowanceDetail is a classified document level allowance or charge
type AllowanceDetail struct {
	model.AllowanceCharge
	Classification
	Rate decimal.Decimal
}

// View is the aggregated tax view of an invoice
type View struct {
	Places           int32
	Lines            []LineDetail
	Allowances       []AllowanceDetail
	Breakdown        []model.TaxBreakdown
	OtherCharges     decimal.Decimal
	IntracomDelivery bool
	Totals           model.Totals
}

// Aggregate evaluates every tax of the invoice. The invoice is not modified.
func Aggregate(inv *model.Invoice, opts Options) *View {
	v := &View{Places: opts.Places, OtherCharges: money.Zero}
	groups := newGroups()

	for i, line := range inv.Lines {
		ld := aggregateLine(inv, i, line, opts)
		for j := range ld.Taxes {
			td := &ld.Taxes[j]
			if td.Category == codelist.CategoryOtherCharge {
				v.OtherCharges = v.OtherCharges.Add(td.Amount)
				continue
			}
			if ld.VAT == nil {
				ld.VAT = td
				groups.add(td.Classification, td.Rate, ld.Total)
			}
		}
		v.Lines = append(v.Lines, ld)
	}

	for _, ac := range inv.AllowanceCharges {
		c := Classify(inv, ac.Tax, opts)
		ad := AllowanceDetail{AllowanceCharge: ac, Classification: c, Rate: ac.Tax.Amount}
		amount := money.Round(ac.Amount, opts.Places)
		if !ac.Charge {
			amount = amount.Neg()
		}
		groups.add(c, ad.Rate, amount)
		v.Allowances = append(v.Allowances, ad)
	}

	v.Breakdown = groups.breakdown(opts.Places)
	for _, b := range v.Breakdown {
		if b.Category == codelist.CategoryIntraCommunity {
			v.IntracomDelivery = true
		}
	}
	v.Totals = v.totals(inv)
	return v
}

func aggregateLine(inv *model.Invoice, index int, line model.Line, opts Options) LineDetail {
	places := opts.Places
	gross := money.Round(line.Quantity.Mul(line.UnitPrice), places)
	net := money.LineNet(line.Quantity, line.UnitPrice, line.Discount, places)

	ld := LineDetail{
		Index:     index,
		Gross:     gross,
		Allowance: gross.Sub(net),
		Net:       net,
		Charges:   money.Zero,
	}

	for _, t := range line.Taxes {
		if t.IsPercent() {
			continue
		}
		amount := money.Round(t.Amount.Mul(line.Quantity), places)
		ld.Charges = ld.Charges.Add(amount)
		ld.Taxes = append(ld.Taxes, TaxDetail{
			Classification: Classification{Category: codelist.CategoryOtherCharge},
			Tax:            t,
			Rate:           money.Zero,
			Base:           line.Quantity,
			Amount:         amount,
		})
	}
	ld.Total = net.Add(ld.Charges)

	for _, t := range line.Taxes {
		if !t.IsPercent() {
			continue
		}
		ld.Taxes = append(ld.Taxes, TaxDetail{
			Classification: Classify(inv, t, opts),
			Tax:            t,
			Rate:           t.Amount,
			Base:           ld.Total,
			Amount:         money.Percent(ld.Total, t.Amount, places),
		})
	}
	return ld
}

func (v *View) totals(inv *model.Invoice) model.Totals {
	t := model.Totals{
		LineTotal:      money.Zero,
		AllowanceTotal: money.Zero,
		ChargeTotal:    money.Zero,
		TaxTotal:       money.Zero,
		Prepaid:        money.Round(inv.Prepaid, v.Places),
	}
	for _, ld := range v.Lines {
		t.LineTotal = t.LineTotal.Add(ld.Total)
	}
	for _, ad := range v.Allowances {
		amount := money.Round(ad.Amount, v.Places)
		if ad.Charge {
			t.ChargeTotal = t.ChargeTotal.Add(amount)
		} else {
			t.AllowanceTotal = t.AllowanceTotal.Add(amount)
		}
	}
	for _, b := range v.Breakdown {
		t.TaxTotal = t.TaxTotal.Add(b.Amount)
	}
	t.TaxExclusive = t.LineTotal.Sub(t.AllowanceTotal).Add(t.ChargeTotal)
	t.TaxInclusive = t.TaxExclusive.Add(t.TaxTotal)
	t.Payable = t.TaxInclusive.Sub(t.Prepaid)
	return t
}

// Categories returns the distinct VAT categories of the breakdown in order
func (v *View) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range v.Breakdown {
		if !seen[b.Category] {
			seen[b.Category] = true
			out = append(out, b.Category)
		}
	}
	return out
}

// HasCategory returns true if any breakdown entry uses the category
func (v *View) HasCategory(category string) bool {
	for _, b := range v.Breakdown {
		if b.Category == category {
			return true
		}
	}
	return false
}

// Line returns the detail of the line at index i
func (v *View) Line(i int) LineDetail {
	return v.Lines[i]
}

type groupKey struct {
	category string
	rate     string
	reason   string
}

// groups accumulates taxable bases per category and rate in first-seen order
type groups struct {
	order []groupKey
	items map[groupKey]*model.TaxBreakdown
}

func newGroups() *groups {
	return &groups{items: map[groupKey]*model.TaxBreakdown{}}
}

func (g *groups) add(c Classification, rate, base decimal.Decimal) {
	key := groupKey{category: c.Category, rate: rate.StringFixed(4), reason: c.ExemptionCode + "|" + c.ExemptionReason}
	b, ok := g.items[key]
	if !ok {
		b = &model.TaxBreakdown{
			Category:        c.Category,
			Rate:            rate,
			Base:            money.Zero,
			ExemptionCode:   c.ExemptionCode,
			ExemptionReason: c.ExemptionReason,
		}
		g.items[key] = b
		g.order = append(g.order, key)
	}
	b.Base = b.Base.Add(base)
}

func (g *groups) breakdown(places int32) []model.TaxBreakdown {
	out := make([]model.TaxBreakdown, 0, len(g.order))
	for _, key := range g.order {
		b := *g.items[key]
		b.Base = money.Round(b.Base, places)
		b.Amount = money.Percent(b.Base, b.Rate, places)
		out = append(out, b)
	}
	return out
}
