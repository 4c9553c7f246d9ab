package builder

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
	"github.com/rezonia/einvoice-codec/internal/xmlnode"
)

// Default content of the notes French invoices must carry
var frenchNotes = []model.Note{
	{SubjectCode: "PMT", Content: "L'indemnité forfaitaire légale pour frais de recouvrement est de 40 €."},
	{SubjectCode: "PMD", Content: "En cas de retard de paiement, une pénalité égale à 3 fois le taux d'intérêt légal sera exigible."},
	{SubjectCode: "AAB", Content: "Pas d'escompte pour paiement anticipé."},
}

const (
	schemeVAT        = "VA"
	schemeForeignTax = "FC"
)

// BuildFacturX renders the invoice as a Factur-X (CII, EN 16931 profile)
// document. Amounts come from the aggregated view.
func BuildFacturX(inv *model.Invoice, view *tax.View, opts Options) ([]byte, error) {
	places := view.Places

	root := xmlnode.New("rsm:CrossIndustryInvoice",
		xmlnode.New("rsm:ExchangedDocumentContext",
			xmlnode.New("ram:BusinessProcessSpecifiedDocumentContextParameter",
				xmlnode.Leaf("ram:ID", codelist.CIIBusinessProcess)),
			xmlnode.New("ram:GuidelineSpecifiedDocumentContextParameter",
				xmlnode.Leaf("ram:ID", codelist.CIIGuideline)),
		),
		ciiDocument(inv),
	)

	transaction := xmlnode.New("rsm:SupplyChainTradeTransaction")
	for i, line := range inv.Lines {
		transaction.Add(ciiLine(line, view.Line(i), places))
	}
	transaction.Add(
		ciiAgreement(inv),
		ciiDelivery(inv, view),
		ciiSettlement(inv, view, opts),
	)
	root.Add(transaction)

	return xmlnode.Render(root, codelist.CIINamespaces())
}

func ciiDocument(inv *model.Invoice) *xmlnode.Node {
	typeCode := codelist.TypeCodeInvoice
	if inv.IsRefund() {
		typeCode = codelist.TypeCodeCreditNote
	}

	doc := xmlnode.New("rsm:ExchangedDocument",
		xmlnode.Leaf("ram:ID", inv.Number),
		xmlnode.Leaf("ram:TypeCode", typeCode),
		xmlnode.New("ram:IssueDateTime", ciiDate(inv.IssueDate)),
	)
	for _, n := range ciiNotes(inv) {
		doc.Add(xmlnode.New("ram:IncludedNote",
			xmlnode.Leaf("ram:Content", n.Content),
			xmlnode.Leaf("ram:SubjectCode", n.SubjectCode),
		))
	}
	return doc
}

// ciiNotes returns the document notes, completed with the mandatory French
// notes for French suppliers
func ciiNotes(inv *model.Invoice) []model.Note {
	notes := documentNotes(inv)
	if !isFrench(inv.Supplier) {
		return notes
	}
	present := map[string]bool{}
	for _, n := range notes {
		present[n.SubjectCode] = true
	}
	for _, n := range frenchNotes {
		if !present[n.SubjectCode] {
			notes = append(notes, n)
		}
	}
	return notes
}

func ciiDate(t time.Time) *xmlnode.Node {
	return xmlnode.Leaf("udt:DateTimeString", dateCII(t)).Attr("format", codelist.DateFormatCII)
}

func ciiLine(line model.Line, ld tax.LineDetail, places int32) *xmlnode.Node {
	w := canonicalLine(line)

	document := xmlnode.New("ram:AssociatedDocumentLineDocument",
		xmlnode.Leaf("ram:LineID", strconv.Itoa(ld.Index+1)),
	)
	if n := line.Note; n != nil && strings.TrimSpace(n.Content) != "" {
		subject := n.SubjectCode
		if subject == "" {
			subject = codelist.SubjectCodeGeneral
		}
		document.Add(xmlnode.New("ram:IncludedNote",
			xmlnode.Leaf("ram:Content", n.Content),
			xmlnode.Leaf("ram:SubjectCode", subject),
		))
	}

	product := xmlnode.New("ram:SpecifiedTradeProduct",
		xmlnode.Leaf("ram:SellerAssignedID", line.ProductRef),
		xmlnode.Leaf("ram:BuyerAssignedID", line.BuyerProductRef),
		xmlnode.Leaf("ram:Name", line.Name),
		xmlnode.Leaf("ram:Description", line.Description),
		xmlnode.New("ram:OriginTradeCountry",
			xmlnode.Leaf("ram:ID", country(line.OriginCountry))),
	)

	agreement := xmlnode.New("ram:SpecifiedLineTradeAgreement",
		xmlnode.New("ram:BuyerOrderReferencedDocument",
			xmlnode.Leaf("ram:LineID", line.BuyerOrderLineRef)),
	)
	netPrice := w.Price
	if !line.Discount.IsZero() {
		perUnit := money.Round(w.Price.Mul(line.Discount).Div(money.Hundred), 6)
		netPrice = w.Price.Sub(perUnit)
		agreement.Add(xmlnode.New("ram:GrossPriceProductTradePrice",
			xmlnode.Leaf("ram:ChargeAmount", price(w.Price, places)),
			xmlnode.New("ram:AppliedTradeAllowanceCharge",
				xmlnode.New("ram:ChargeIndicator", xmlnode.Leaf("udt:Indicator", "false")),
				xmlnode.Leaf("ram:ActualAmount", price(perUnit, places)),
			),
		))
	}
	agreement.Add(xmlnode.New("ram:NetPriceProductTradePrice",
		xmlnode.Leaf("ram:ChargeAmount", price(netPrice, places)),
	))

	settlement := xmlnode.New("ram:SpecifiedLineTradeSettlement")
	if ld.VAT != nil {
		settlement.Add(ciiTax(ld.VAT.Classification, ld.VAT.Rate))
	}
	for _, td := range ld.Taxes {
		if td.Category != codelist.CategoryOtherCharge {
			continue
		}
		settlement.Add(xmlnode.New("ram:SpecifiedTradeAllowanceCharge",
			xmlnode.New("ram:ChargeIndicator", xmlnode.Leaf("udt:Indicator", "true")),
			xmlnode.Leaf("ram:ActualAmount", amount(td.Amount, places)),
			xmlnode.Leaf("ram:Reason", td.Tax.Name),
		))
	}
	settlement.Add(
		xmlnode.New("ram:SpecifiedTradeSettlementLineMonetarySummation",
			xmlnode.Leaf("ram:LineTotalAmount", amount(ld.Total, places)),
		),
		xmlnode.New("ram:ReceivableSpecifiedTradeAccountingAccount",
			xmlnode.Leaf("ram:ID", line.BuyerAccountingRef)),
	)

	return xmlnode.New("ram:IncludedSupplyChainTradeLineItem",
		document,
		product,
		agreement,
		xmlnode.New("ram:SpecifiedLineTradeDelivery",
			xmlnode.Leaf("ram:BilledQuantity", quantity(w.Quantity)).Attr("unitCode", unitCode(line)),
		),
		settlement,
	)
}

// ciiTax renders a line level tax or the category of a document allowance
func ciiTax(c tax.Classification, r decimal.Decimal) *xmlnode.Node {
	return xmlnode.New("ram:ApplicableTradeTax",
		xmlnode.Leaf("ram:TypeCode", codelist.TaxSchemeVAT),
		xmlnode.Leaf("ram:CategoryCode", c.Category),
		xmlnode.Leaf("ram:RateApplicablePercent", rate(r)),
	)
}

func ciiAgreement(inv *model.Invoice) *xmlnode.Node {
	agreement := xmlnode.New("ram:ApplicableHeaderTradeAgreement",
		xmlnode.Leaf("ram:BuyerReference", inv.BuyerReference),
		ciiParty("ram:SellerTradeParty", inv.Supplier),
		ciiParty("ram:BuyerTradeParty", inv.Customer),
	)
	if inv.TaxRepresentative != nil {
		agreement.Add(ciiTaxRepresentative(*inv.TaxRepresentative))
	}
	agreement.Add(
		ciiReference("ram:SellerOrderReferencedDocument", inv.SellerOrderReference),
		ciiReference("ram:BuyerOrderReferencedDocument", inv.PurchaseOrderReference),
	)
	for _, d := range inv.AdditionalDocuments {
		if d.ID == "" {
			continue
		}
		agreement.Add(xmlnode.New("ram:AdditionalReferencedDocument",
			xmlnode.Leaf("ram:IssuerAssignedID", d.ID),
			xmlnode.Leaf("ram:URIID", d.URI),
			xmlnode.Leaf("ram:TypeCode", d.TypeCode),
			xmlnode.Leaf("ram:Name", d.Name),
		))
	}
	if p := inv.ProcuringProject; p != nil && p.ID != "" {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		agreement.Add(xmlnode.New("ram:SpecifiedProcuringProject",
			xmlnode.Leaf("ram:ID", p.ID),
			xmlnode.Leaf("ram:Name", name),
		))
	}
	return agreement
}

// ciiTaxRepresentative renders the seller tax representative, identified by
// its VAT number only
func ciiTaxRepresentative(p model.Party) *xmlnode.Node {
	return xmlnode.New("ram:SellerTaxRepresentativeTradeParty",
		xmlnode.Leaf("ram:Name", p.Name),
		ciiAddress(p.Address),
		xmlnode.New("ram:SpecifiedTaxRegistration",
			xmlnode.Leaf("ram:ID", strings.TrimSpace(p.VAT)).Attr("schemeID", schemeVAT),
		),
	)
}

// ciiPayee renders the payee: name, global identifier and legal registration
func ciiPayee(p model.Party) *xmlnode.Node {
	legalID, legalSchemeID := legalIdentifier(p)
	endpoint, scheme := electronicAddress(p)
	return xmlnode.New("ram:PayeeTradeParty",
		xmlnode.Leaf("ram:GlobalID", endpoint).AttrIf("schemeID", scheme),
		xmlnode.Leaf("ram:Name", p.Name),
		xmlnode.New("ram:SpecifiedLegalOrganization",
			xmlnode.Leaf("ram:ID", legalID).AttrIf("schemeID", legalSchemeID),
		),
	)
}

func ciiReference(tag, id string) *xmlnode.Node {
	return xmlnode.New(tag, xmlnode.Leaf("ram:IssuerAssignedID", id))
}

func ciiParty(tag string, p model.Party) *xmlnode.Node {
	name := p.Name
	trading := ""
	if p.LegalName != "" && p.LegalName != p.Name {
		name = p.LegalName
		trading = p.Name
	}

	party := xmlnode.New(tag,
		xmlnode.Leaf("ram:Name", name),
		xmlnode.Leaf("ram:Description", p.LegalForm),
	)

	legalID, legalSchemeID := legalIdentifier(p)
	party.Add(xmlnode.New("ram:SpecifiedLegalOrganization",
		xmlnode.Leaf("ram:ID", legalID).AttrIf("schemeID", legalSchemeID),
		xmlnode.Leaf("ram:TradingBusinessName", trading),
	))

	endpoint, scheme := electronicAddress(p)
	party.Add(
		xmlnode.New("ram:DefinedTradeContact",
			xmlnode.Leaf("ram:PersonName", p.Contact.Name),
			xmlnode.Leaf("ram:DepartmentName", p.Contact.Department),
			xmlnode.New("ram:TelephoneUniversalCommunication",
				xmlnode.Leaf("ram:CompleteNumber", p.Contact.Phone)),
			xmlnode.New("ram:EmailURIUniversalCommunication",
				xmlnode.Leaf("ram:URIID", p.Contact.Email)),
		),
		ciiAddress(p.Address),
		xmlnode.New("ram:URIUniversalCommunication",
			xmlnode.Leaf("ram:URIID", endpoint).AttrIf("schemeID", scheme),
		),
	)

	if vat := strings.TrimSpace(p.VAT); vat != "" {
		scheme := schemeVAT
		if codelist.VATScheme(p.Address.Country, vat) == codelist.TaxSchemeNotEUVAT {
			scheme = schemeForeignTax
		}
		party.Add(xmlnode.New("ram:SpecifiedTaxRegistration",
			xmlnode.Leaf("ram:ID", vat).Attr("schemeID", scheme),
		))
	}
	return party
}

// ciiShipTo renders the delivery party, which carries no contact
func ciiShipTo(p model.Party) *xmlnode.Node {
	return xmlnode.New("ram:ShipToTradeParty",
		xmlnode.Leaf("ram:Name", p.Name),
		ciiAddress(p.Address),
	)
}

func ciiAddress(a model.Address) *xmlnode.Node {
	return xmlnode.New("ram:PostalTradeAddress",
		xmlnode.Leaf("ram:PostcodeCode", a.Zip),
		xmlnode.Leaf("ram:LineOne", a.Street),
		xmlnode.Leaf("ram:LineTwo", a.Street2),
		xmlnode.Leaf("ram:LineThree", a.Street3),
		xmlnode.Leaf("ram:CityName", a.City),
		xmlnode.Leaf("ram:CountryID", country(a.Country)),
		xmlnode.Leaf("ram:CountrySubDivisionName", a.State),
	)
}

func ciiDelivery(inv *model.Invoice, view *tax.View) *xmlnode.Node {
	delivery := xmlnode.New("ram:ApplicableHeaderTradeDelivery")
	if inv.Shipping != nil || view.IntracomDelivery {
		delivery.Add(ciiShipTo(*inv.DeliveryParty()))
	}
	if !inv.DeliveryDate.IsZero() {
		delivery.Add(xmlnode.New("ram:ActualDeliverySupplyChainEvent",
			xmlnode.New("ram:OccurrenceDateTime", ciiDate(inv.DeliveryDate)),
		))
	}
	delivery.Add(
		ciiReference("ram:DespatchAdviceReferencedDocument", inv.DespatchAdviceReference),
		ciiReference("ram:ReceivingAdviceReferencedDocument", inv.ReceivingAdviceReference),
	)
	return delivery
}

func ciiSettlement(inv *model.Invoice, view *tax.View, opts Options) *xmlnode.Node {
	places := view.Places
	pm := inv.PaymentMeans
	if pm == nil {
		pm = &model.PaymentMeans{}
	}

	settlement := xmlnode.New("ram:ApplicableHeaderTradeSettlement",
		xmlnode.Leaf("ram:PaymentReference", pm.Reference),
		xmlnode.Leaf("ram:InvoiceCurrencyCode", inv.Currency),
	)
	if inv.Payee != nil {
		settlement.Add(ciiPayee(*inv.Payee))
	}

	if pm.Code != "" {
		means := xmlnode.New("ram:SpecifiedTradeSettlementPaymentMeans",
			xmlnode.Leaf("ram:TypeCode", pm.Code),
		)
		if codelist.IsDirectDebit(pm.Code) {
			means.Add(xmlnode.New("ram:PayerPartyDebtorFinancialAccount",
				xmlnode.Leaf("ram:IBANID", pm.Account)))
		} else {
			means.Add(xmlnode.New("ram:PayeePartyCreditorFinancialAccount",
				xmlnode.Leaf("ram:IBANID", pm.Account),
				xmlnode.Leaf("ram:AccountName", pm.AccountName),
			))
		}
		means.Add(xmlnode.New("ram:PayeeSpecifiedCreditorFinancialInstitution",
			xmlnode.Leaf("ram:BICID", pm.BIC)))
		settlement.Add(means)
	}

	for _, b := range view.Breakdown {
		settlement.Add(xmlnode.New("ram:ApplicableTradeTax",
			xmlnode.Leaf("ram:CalculatedAmount", amount(b.Amount, places)),
			xmlnode.Leaf("ram:TypeCode", codelist.TaxSchemeVAT),
			xmlnode.Leaf("ram:ExemptionReason", b.ExemptionReason),
			xmlnode.Leaf("ram:BasisAmount", amount(b.Base, places)),
			xmlnode.Leaf("ram:CategoryCode", b.Category),
			xmlnode.Leaf("ram:ExemptionReasonCode", b.ExemptionCode),
			xmlnode.Leaf("ram:RateApplicablePercent", rate(b.Rate)),
		))
	}

	if p := inv.InvoicePeriod; p != nil {
		settlement.Add(xmlnode.New("ram:BillingSpecifiedPeriod",
			xmlnode.New("ram:StartDateTime", ciiDate(p.Start)),
			xmlnode.New("ram:EndDateTime", ciiDate(p.End)),
		))
	}

	for _, ad := range view.Allowances {
		indicator := "false"
		if ad.Charge {
			indicator = "true"
		}
		settlement.Add(xmlnode.New("ram:SpecifiedTradeAllowanceCharge",
			xmlnode.New("ram:ChargeIndicator", xmlnode.Leaf("udt:Indicator", indicator)),
			xmlnode.Leaf("ram:ActualAmount", amount(ad.Amount, places)),
			xmlnode.Leaf("ram:ReasonCode", ad.ReasonCode),
			xmlnode.Leaf("ram:Reason", ad.Reason),
			xmlnode.New("ram:CategoryTradeTax",
				xmlnode.Leaf("ram:TypeCode", codelist.TaxSchemeVAT),
				xmlnode.Leaf("ram:CategoryCode", ad.Category),
				xmlnode.Leaf("ram:RateApplicablePercent", rate(ad.Rate)),
			),
		))
	}

	terms := xmlnode.New("ram:SpecifiedTradePaymentTerms",
		xmlnode.Leaf("ram:Description", inv.PaymentTerms),
	)
	if !inv.DueDate.IsZero() {
		terms.Add(xmlnode.New("ram:DueDateDateTime", ciiDate(inv.DueDate)))
	}
	terms.Add(xmlnode.Leaf("ram:DirectDebitMandateID", pm.Mandate))
	settlement.Add(terms)

	t := view.Totals
	taxTotal := t.TaxTotal
	if opts.NegateHeaderTax && !taxTotal.IsZero() {
		taxTotal = taxTotal.Neg()
	}
	hasAC := len(view.Allowances) > 0
	settlement.Add(xmlnode.New("ram:SpecifiedTradeSettlementHeaderMonetarySummation",
		xmlnode.Leaf("ram:LineTotalAmount", amount(t.LineTotal, places)),
	).AddIf(hasAC,
		xmlnode.Leaf("ram:ChargeTotalAmount", amount(t.ChargeTotal, places)),
		xmlnode.Leaf("ram:AllowanceTotalAmount", amount(t.AllowanceTotal, places)),
	).Add(
		xmlnode.Leaf("ram:TaxBasisTotalAmount", amount(t.TaxExclusive, places)),
		xmlnode.Leaf("ram:TaxTotalAmount", amount(taxTotal, places)).Attr("currencyID", inv.Currency),
		xmlnode.Leaf("ram:GrandTotalAmount", amount(t.TaxInclusive, places)),
	).AddIf(!t.Prepaid.IsZero(),
		xmlnode.Leaf("ram:TotalPrepaidAmount", amount(t.Prepaid, places)),
	).Add(
		xmlnode.Leaf("ram:DuePayableAmount", amount(t.Payable, places)),
	))

	settlement.Add(ciiReference("ram:InvoiceReferencedDocument", inv.BillingReference))
	return settlement
}

