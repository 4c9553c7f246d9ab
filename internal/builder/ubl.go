package builder

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
	"github.com/rezonia/einvoice-codec/internal/xmlnode"
)

// UNCL 5189 allowance reason for discounts
const discountReasonCode = "95"

// ublDoc holds the element names that differ between Invoice and CreditNote
type ublDoc struct {
	root     string
	typeTag  string
	typeCode string
	line     string
	quantity string
}

func ublKind(inv *model.Invoice, selfBilled bool) ublDoc {
	if inv.IsRefund() {
		code := codelist.TypeCodeCreditNote
		if selfBilled {
			code = codelist.TypeCodeSelfBilledCredit
		}
		return ublDoc{root: "CreditNote", typeTag: "cbc:CreditNoteTypeCode", typeCode: code, line: "cac:CreditNoteLine", quantity: "cbc:CreditedQuantity"}
	}
	code := codelist.TypeCodeInvoice
	if selfBilled {
		code = codelist.TypeCodeSelfBilledInvoice
	}
	return ublDoc{root: "Invoice", typeTag: "cbc:InvoiceTypeCode", typeCode: code, line: "cac:InvoiceLine", quantity: "cbc:InvoicedQuantity"}
}

// BuildUBL renders the invoice as a Peppol BIS Billing 3.0 Invoice or
// CreditNote
func BuildUBL(inv *model.Invoice, view *tax.View, opts Options) ([]byte, error) {
	selfBilled := opts.selfBilled(inv)
	kind := ublKind(inv, selfBilled)
	places := view.Places
	cur := inv.Currency

	customization, profile := codelist.PeppolBillingCustomization, codelist.PeppolBillingProfile
	if selfBilled {
		customization, profile = codelist.PeppolSelfBillingCustomization, codelist.PeppolSelfBillingProfile
	}

	root := xmlnode.New(kind.root,
		xmlnode.Leaf("cbc:CustomizationID", customization),
		xmlnode.Leaf("cbc:ProfileID", profile),
		xmlnode.Leaf("cbc:ID", inv.Number),
		xmlnode.Leaf("cbc:IssueDate", dateUBL(inv.IssueDate)),
	)
	root.AddIf(!inv.IsRefund(), xmlnode.Leaf("cbc:DueDate", dateUBL(inv.DueDate)))
	root.Add(xmlnode.Leaf(kind.typeTag, kind.typeCode))
	for _, n := range documentNotes(inv) {
		root.Add(xmlnode.Leaf("cbc:Note", ublNote(n)))
	}
	root.Add(
		xmlnode.Leaf("cbc:DocumentCurrencyCode", cur),
		xmlnode.Leaf("cbc:BuyerReference", inv.BuyerReference),
	)

	if p := inv.InvoicePeriod; p != nil {
		root.Add(xmlnode.New("cac:InvoicePeriod",
			xmlnode.Leaf("cbc:StartDate", dateUBL(p.Start)),
			xmlnode.Leaf("cbc:EndDate", dateUBL(p.End)),
		))
	}

	// OrderReference/ID is mandatory when a sales order reference is given
	orderID := inv.PurchaseOrderReference
	if orderID == "" && inv.SellerOrderReference != "" {
		orderID = "NA"
	}
	root.Add(
		xmlnode.New("cac:OrderReference",
			xmlnode.Leaf("cbc:ID", orderID),
			xmlnode.Leaf("cbc:SalesOrderID", inv.SellerOrderReference),
		),
		xmlnode.New("cac:BillingReference",
			xmlnode.New("cac:InvoiceDocumentReference", xmlnode.Leaf("cbc:ID", inv.BillingReference)),
		),
		xmlnode.New("cac:DespatchDocumentReference", xmlnode.Leaf("cbc:ID", inv.DespatchAdviceReference)),
		xmlnode.New("cac:ReceiptDocumentReference", xmlnode.Leaf("cbc:ID", inv.ReceivingAdviceReference)),
		xmlnode.New("cac:AccountingSupplierParty", ublParty(inv.Supplier)),
		xmlnode.New("cac:AccountingCustomerParty", ublParty(inv.Customer)),
		ublDelivery(inv, view),
		ublPaymentMeans(inv),
		xmlnode.New("cac:PaymentTerms", xmlnode.Leaf("cbc:Note", inv.PaymentTerms)),
	)

	for _, ad := range view.Allowances {
		root.Add(ublAllowanceCharge(ad.Charge, ad.ReasonCode, ad.Reason, decimal.Zero, ad.Amount, decimal.Zero, cur, places).Add(
			ublTaxCategory("cac:TaxCategory", ad.Category, ad.Rate, "", ""),
		))
	}

	taxTotal := xmlnode.New("cac:TaxTotal",
		xmlnode.Leaf("cbc:TaxAmount", amount(view.Totals.TaxTotal, places)).Attr("currencyID", cur),
	)
	for _, b := range view.Breakdown {
		category := ublTaxCategory("cac:TaxCategory", b.Category, b.Rate, b.ExemptionCode, b.ExemptionReason)
		taxTotal.Add(xmlnode.New("cac:TaxSubtotal",
			xmlnode.Leaf("cbc:TaxableAmount", amount(b.Base, places)).Attr("currencyID", cur),
			xmlnode.Leaf("cbc:TaxAmount", amount(b.Amount, places)).Attr("currencyID", cur),
			category,
		))
	}
	root.Add(taxTotal)

	t := view.Totals
	hasAC := len(view.Allowances) > 0
	root.Add(xmlnode.New("cac:LegalMonetaryTotal",
		xmlnode.Leaf("cbc:LineExtensionAmount", amount(t.LineTotal, places)).Attr("currencyID", cur),
		xmlnode.Leaf("cbc:TaxExclusiveAmount", amount(t.TaxExclusive, places)).Attr("currencyID", cur),
		xmlnode.Leaf("cbc:TaxInclusiveAmount", amount(t.TaxInclusive, places)).Attr("currencyID", cur),
	).AddIf(hasAC,
		xmlnode.Leaf("cbc:AllowanceTotalAmount", amount(t.AllowanceTotal, places)).Attr("currencyID", cur),
		xmlnode.Leaf("cbc:ChargeTotalAmount", amount(t.ChargeTotal, places)).Attr("currencyID", cur),
	).AddIf(!t.Prepaid.IsZero(),
		xmlnode.Leaf("cbc:PrepaidAmount", amount(t.Prepaid, places)).Attr("currencyID", cur),
	).Add(
		xmlnode.Leaf("cbc:PayableAmount", amount(t.Payable, places)).Attr("currencyID", cur),
	))

	for i, line := range inv.Lines {
		root.Add(ublLine(kind, line, view.Line(i), cur, places))
	}

	return xmlnode.Render(root, codelist.UBLNamespaces(inv.IsRefund()))
}

// ublNote keeps the subject code inline since UBL notes have no attribute for it
func ublNote(n model.Note) string {
	if n.SubjectCode == "" {
		return n.Content
	}
	return "#" + n.SubjectCode + "#" + n.Content
}

func ublParty(p model.Party) *xmlnode.Node {
	endpoint, scheme := electronicAddress(p)
	legalID, legalSchemeID := legalIdentifier(p)
	if endpoint == "" && legalID != "" && codelist.IsEAS(legalSchemeID) {
		endpoint, scheme = legalID, legalSchemeID
	}

	registrationName := p.LegalName
	if registrationName == "" {
		registrationName = p.Name
	}

	party := xmlnode.New("cac:Party",
		xmlnode.Leaf("cbc:EndpointID", endpoint).AttrIf("schemeID", scheme),
		xmlnode.New("cac:PartyName", xmlnode.Leaf("cbc:Name", p.Name)),
		ublAddress("cac:PostalAddress", p.Address),
	)
	if vat := strings.TrimSpace(p.VAT); vat != "" {
		party.Add(xmlnode.New("cac:PartyTaxScheme",
			xmlnode.Leaf("cbc:CompanyID", vat),
			xmlnode.New("cac:TaxScheme",
				xmlnode.Leaf("cbc:ID", codelist.VATScheme(p.Address.Country, vat))),
		))
	}
	party.Add(
		xmlnode.New("cac:PartyLegalEntity",
			xmlnode.Leaf("cbc:RegistrationName", registrationName),
			xmlnode.Leaf("cbc:CompanyID", legalID).AttrIf("schemeID", legalSchemeID),
		),
		xmlnode.New("cac:Contact",
			xmlnode.Leaf("cbc:Name", p.Contact.Name),
			xmlnode.Leaf("cbc:Telephone", p.Contact.Phone),
			xmlnode.Leaf("cbc:ElectronicMail", p.Contact.Email),
		),
	)
	return party
}

// ublAddress renders a postal address. CountrySubentityCode is never
// emitted.
func ublAddress(tag string, a model.Address) *xmlnode.Node {
	return xmlnode.New(tag,
		xmlnode.Leaf("cbc:StreetName", a.Street),
		xmlnode.Leaf("cbc:AdditionalStreetName", a.Street2),
		xmlnode.Leaf("cbc:CityName", a.City),
		xmlnode.Leaf("cbc:PostalZone", a.Zip),
		xmlnode.Leaf("cbc:CountrySubentity", a.State),
		xmlnode.New("cac:Country", xmlnode.Leaf("cbc:IdentificationCode", country(a.Country))),
	)
}

func ublDelivery(inv *model.Invoice, view *tax.View) *xmlnode.Node {
	delivery := xmlnode.New("cac:Delivery",
		xmlnode.Leaf("cbc:ActualDeliveryDate", dateUBL(inv.DeliveryDate)),
	)
	if inv.Shipping != nil || view.IntracomDelivery {
		p := inv.DeliveryParty()
		delivery.Add(
			xmlnode.New("cac:DeliveryLocation", ublAddress("cac:Address", p.Address)),
			xmlnode.New("cac:DeliveryParty", xmlnode.New("cac:PartyName", xmlnode.Leaf("cbc:Name", p.Name))),
		)
	}
	return delivery
}

func ublPaymentMeans(inv *model.Invoice) *xmlnode.Node {
	pm := inv.PaymentMeans
	if pm == nil || pm.Code == "" {
		return nil
	}

	means := xmlnode.New("cac:PaymentMeans",
		xmlnode.Leaf("cbc:PaymentMeansCode", pm.Code),
	)
	// CreditNote has no header due date
	means.AddIf(inv.IsRefund(), xmlnode.Leaf("cbc:PaymentDueDate", dateUBL(inv.DueDate)))
	means.Add(xmlnode.Leaf("cbc:PaymentID", pm.Reference))

	if codelist.IsDirectDebit(pm.Code) {
		means.Add(xmlnode.New("cac:PaymentMandate",
			xmlnode.Leaf("cbc:ID", pm.Mandate),
			xmlnode.New("cac:PayerFinancialAccount", xmlnode.Leaf("cbc:ID", pm.Account)),
		))
		return means
	}
	means.Add(xmlnode.New("cac:PayeeFinancialAccount",
		xmlnode.Leaf("cbc:ID", pm.Account),
		xmlnode.Leaf("cbc:Name", pm.AccountName),
		xmlnode.New("cac:FinancialInstitutionBranch", xmlnode.Leaf("cbc:ID", pm.BIC)),
	))
	return means
}

func ublAllowanceCharge(charge bool, reasonCode, reason string, multiplier, value, base decimal.Decimal, cur string, places int32) *xmlnode.Node {
	n := xmlnode.New("cac:AllowanceCharge",
		xmlnode.Leaf("cbc:ChargeIndicator", strconv.FormatBool(charge)),
		xmlnode.Leaf("cbc:AllowanceChargeReasonCode", reasonCode),
		xmlnode.Leaf("cbc:AllowanceChargeReason", reason),
	)
	n.AddIf(!multiplier.IsZero(), xmlnode.Leaf("cbc:MultiplierFactorNumeric", rate(multiplier)))
	n.Add(xmlnode.Leaf("cbc:Amount", amount(value, places)).Attr("currencyID", cur))
	n.AddIf(!base.IsZero(), xmlnode.Leaf("cbc:BaseAmount", amount(base, places)).Attr("currencyID", cur))
	return n
}

// ublTaxCategory renders a tax category. Exemption reasons are only given on
// the document breakdown.
func ublTaxCategory(tag, category string, r decimal.Decimal, exemptionCode, exemptionReason string) *xmlnode.Node {
	n := xmlnode.New(tag, xmlnode.Leaf("cbc:ID", category))
	n.AddIf(category != codelist.CategoryOutOfScope, xmlnode.Leaf("cbc:Percent", rate(r)))
	return n.Add(
		xmlnode.Leaf("cbc:TaxExemptionReasonCode", exemptionCode),
		xmlnode.Leaf("cbc:TaxExemptionReason", exemptionReason),
		xmlnode.New("cac:TaxScheme", xmlnode.Leaf("cbc:ID", codelist.TaxSchemeVAT)),
	)
}

func ublLine(kind ublDoc, line model.Line, ld tax.LineDetail, cur string, places int32) *xmlnode.Node {
	w := canonicalLine(line)

	n := xmlnode.New(kind.line,
		xmlnode.Leaf("cbc:ID", strconv.Itoa(ld.Index+1)),
		xmlnode.Leaf(kind.quantity, quantity(w.Quantity)).Attr("unitCode", unitCode(line)),
		xmlnode.Leaf("cbc:LineExtensionAmount", amount(ld.Total, places)).Attr("currencyID", cur),
	)

	if !line.Discount.IsZero() {
		n.Add(ublAllowanceCharge(false, discountReasonCode, "Discount", line.Discount, ld.Allowance, ld.Gross, cur, places))
	}
	for _, td := range ld.Taxes {
		if td.Category == codelist.CategoryOtherCharge {
			n.Add(ublAllowanceCharge(true, "", td.Tax.Name, decimal.Zero, td.Amount, decimal.Zero, cur, places))
		}
	}

	item := xmlnode.New("cac:Item",
		xmlnode.Leaf("cbc:Description", line.Description),
		xmlnode.Leaf("cbc:Name", line.Name),
		xmlnode.New("cac:SellersItemIdentification", xmlnode.Leaf("cbc:ID", line.ProductRef)),
	)
	if ld.VAT != nil {
		item.Add(ublTaxCategory("cac:ClassifiedTaxCategory", ld.VAT.Category, ld.VAT.Rate, "", ""))
	}

	return n.Add(
		item,
		xmlnode.New("cac:Price",
			xmlnode.Leaf("cbc:PriceAmount", price(w.Price, places)).Attr("currencyID", cur),
		),
	)
}
