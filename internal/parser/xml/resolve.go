package xml

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// session carries the resolvers and the log of one import
type session struct {
	format model.Format
	res    Resolvers
	opts   Options
	log    zerolog.Logger
	logs   []string
}

func newSession(format model.Format, res Resolvers, opts Options) *session {
	if opts.Direction == "" {
		opts.Direction = DirectionPurchase
	}
	return &session{
		format: format,
		res:    res,
		opts:   opts,
		log:    opts.Logger.With().Str("format", format.String()).Logger(),
	}
}

func (s *session) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.logs = append(s.logs, msg)
	s.log.Debug().Msg(msg)
}

// resolve runs the caller's resolvers on the draft. Misses are logged and the
// affected ids stay empty.
func (s *session) resolve(inv *model.Invoice) {
	if s.res.Currency != nil && inv.Currency != "" {
		if inv.CurrencyID = s.res.Currency(inv.Currency); inv.CurrencyID == "" {
			s.logf("Could not retrieve currency: %s", inv.Currency)
		}
	}

	if s.res.Partner != nil {
		p := &inv.Supplier
		if s.opts.Direction == DirectionSale {
			p = &inv.Customer
		}
		if p.ID = s.res.Partner(p.Name, p.VAT, p.Contact.Email); p.ID == "" {
			s.logf("Could not retrieve partner: name=%q vat=%q email=%q", p.Name, p.VAT, p.Contact.Email)
		}
	}

	if s.res.Tax == nil {
		return
	}
	for i := range inv.Lines {
		for j := range inv.Lines[i].Taxes {
			s.resolveTax(&inv.Lines[i].Taxes[j], i)
		}
	}
	for i := range inv.AllowanceCharges {
		s.resolveTax(&inv.AllowanceCharges[i].Tax, -1)
	}
}

func (s *session) resolveTax(t *model.Tax, line int) {
	if !t.IsPercent() {
		return
	}
	if t.ID = s.res.Tax(t.Amount, s.opts.Direction); t.ID != "" {
		return
	}
	if line >= 0 {
		s.logf("Could not retrieve the tax: %s %% for line %d", money.FormatRate(t.Amount), line+1)
	} else {
		s.logf("Could not retrieve the tax: %s %% for a document allowance or charge", money.FormatRate(t.Amount))
	}
}

// normalizeSigns turns a negative invoice into a refund with positive amounts
// and moves negative quantities back to the unit price
func (s *session) normalizeSigns(inv *model.Invoice, total decimal.Decimal) {
	if !inv.IsRefund() && total.IsNegative() {
		inv.Type = model.DocumentTypeRefund
		s.logf("Negative total on an invoice, imported as refund")
		for i := range inv.Lines {
			inv.Lines[i].Quantity = inv.Lines[i].Quantity.Neg()
		}
		for i := range inv.AllowanceCharges {
			inv.AllowanceCharges[i].Amount = inv.AllowanceCharges[i].Amount.Neg()
		}
		inv.Prepaid = inv.Prepaid.Neg()
		if t := inv.Totals; t != nil {
			negateTotals(t)
		}
	}

	for i := range inv.Lines {
		l := &inv.Lines[i]
		if l.Quantity.IsNegative() {
			l.Quantity = l.Quantity.Neg()
			l.UnitPrice = l.UnitPrice.Neg()
		}
	}
}

func negateTotals(t *model.Totals) {
	t.LineTotal = t.LineTotal.Neg()
	t.AllowanceTotal = t.AllowanceTotal.Neg()
	t.ChargeTotal = t.ChargeTotal.Neg()
	t.TaxExclusive = t.TaxExclusive.Neg()
	t.TaxTotal = t.TaxTotal.Neg()
	t.TaxInclusive = t.TaxInclusive.Neg()
	t.Prepaid = t.Prepaid.Neg()
	t.Payable = t.Payable.Neg()
}

// discountPercent recovers a line discount from its allowance amount
func (s *session) discountPercent(allowance, price, qty decimal.Decimal, line int) decimal.Decimal {
	if allowance.IsZero() {
		return money.Zero
	}
	d, ok := money.DiscountPercent(allowance, price, qty)
	if !ok {
		s.logf("Line %d: allowance on a zero price, discount set to 0", line+1)
		return money.Zero
	}
	return d.Round(2)
}

// fixedTax rebuilds a per-unit fixed tax from a line charge
func fixedTax(name string, charge, qty decimal.Decimal) model.Tax {
	per := charge
	if !qty.IsZero() {
		per = charge.DivRound(qty, 6)
	}
	return model.Tax{Name: name, Kind: model.TaxKindFixed, Amount: per}
}
