package xml

import (
	"context"
	"io"
	"strconv"

	"github.com/beevik/etree"

	"github.com/rezonia/einvoice-codec/internal/codelist"
	money "github.com/rezonia/einvoice-codec/internal/decimal"
	"github.com/rezonia/einvoice-codec/internal/model"
)

// UBLAdapter parses UBL 2.1 Invoice and CreditNote documents (Peppol BIS 3)
type UBLAdapter struct{}

// NewUBLAdapter creates a new UBL adapter
func NewUBLAdapter() *UBLAdapter {
	return &UBLAdapter{}
}

// Format returns the document format
func (a *UBLAdapter) Format() model.Format {
	return model.FormatUBL
}

// CanParse checks the root element is a UBL Invoice or CreditNote
func (a *UBLAdapter) CanParse(content []byte) bool {
	ns, tag := rootNamespace(content)
	return (ns == codelist.NamespaceUBLInvoice && tag == "Invoice") ||
		(ns == codelist.NamespaceUBLCreditNote && tag == "CreditNote")
}

// Parse parses UBL XML into a draft invoice
func (a *UBLAdapter) Parse(ctx context.Context, r io.Reader, res Resolvers, opts Options) (*Result, error) {
	doc, err := readDocument(model.FormatUBL, r)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	var lineTag, qtyTag, typeTag string
	inv := &model.Invoice{Type: model.DocumentTypeInvoice}
	switch root.Tag {
	case "Invoice":
		lineTag, qtyTag, typeTag = "cac:InvoiceLine", "cbc:InvoicedQuantity", "cbc:InvoiceTypeCode"
	case "CreditNote":
		lineTag, qtyTag, typeTag = "cac:CreditNoteLine", "cbc:CreditedQuantity", "cbc:CreditNoteTypeCode"
		inv.Type = model.DocumentTypeRefund
	default:
		return nil, model.NewParseError(model.FormatUBL, "root", "not a UBL Invoice or CreditNote: "+root.Tag, nil)
	}

	s := newSession(model.FormatUBL, res, opts)

	inv.Number = text(root, "cbc:ID")
	inv.IssueDate = dateAt(root, "cbc:IssueDate")
	inv.DueDate = dateAt(root, "cbc:DueDate")
	inv.Currency = text(root, "cbc:DocumentCurrencyCode")
	inv.BuyerReference = text(root, "cbc:BuyerReference")

	switch text(root, typeTag) {
	case codelist.TypeCodeCreditNote:
		inv.Type = model.DocumentTypeRefund
	case codelist.TypeCodeSelfBilledCredit:
		inv.Type = model.DocumentTypeRefund
		inv.SelfBilled = true
	case codelist.TypeCodeSelfBilledInvoice:
		inv.SelfBilled = true
	}

	for _, n := range findAll(root, "cbc:Note") {
		addNote(inv, splitNote(n.Text()))
	}

	if period := find(root, "cac:InvoicePeriod"); period != nil {
		inv.InvoicePeriod = &model.Period{
			Start: dateAt(period, "cbc:StartDate"),
			End:   dateAt(period, "cbc:EndDate"),
		}
	}

	if order := text(root, "cac:OrderReference/cbc:ID"); order != "NA" {
		inv.PurchaseOrderReference = order
	}
	inv.SellerOrderReference = text(root, "cac:OrderReference/cbc:SalesOrderID")
	inv.BillingReference = text(root, "cac:BillingReference/cac:InvoiceDocumentReference/cbc:ID")
	inv.DespatchAdviceReference = text(root, "cac:DespatchDocumentReference/cbc:ID")
	inv.ReceivingAdviceReference = text(root, "cac:ReceiptDocumentReference/cbc:ID")

	inv.Supplier = ublParty(find(root, "cac:AccountingSupplierParty/cac:Party"))
	inv.Customer = ublParty(find(root, "cac:AccountingCustomerParty/cac:Party"))

	if delivery := find(root, "cac:Delivery"); delivery != nil {
		inv.DeliveryDate = dateAt(delivery, "cbc:ActualDeliveryDate")
		if address := find(delivery, "cac:DeliveryLocation/cac:Address"); address != nil {
			shipTo := model.Party{
				Name:    text(delivery, "cac:DeliveryParty/cac:PartyName/cbc:Name"),
				Address: ublAddress(address),
			}
			if !sameParty(shipTo, inv.Customer) {
				inv.Shipping = &shipTo
			}
		}
	}

	if means := find(root, "cac:PaymentMeans"); means != nil {
		inv.PaymentMeans = &model.PaymentMeans{
			Code:        text(means, "cbc:PaymentMeansCode"),
			Reference:   text(means, "cbc:PaymentID"),
			Account:     text(means, "cac:PayeeFinancialAccount/cbc:ID"),
			AccountName: text(means, "cac:PayeeFinancialAccount/cbc:Name"),
			BIC:         text(means, "cac:PayeeFinancialAccount/cac:FinancialInstitutionBranch/cbc:ID"),
			Mandate:     text(means, "cac:PaymentMandate/cbc:ID"),
		}
		if inv.PaymentMeans.Account == "" {
			inv.PaymentMeans.Account = text(means, "cac:PaymentMandate/cac:PayerFinancialAccount/cbc:ID")
		}
		if inv.DueDate.IsZero() {
			inv.DueDate = dateAt(means, "cbc:PaymentDueDate")
		}
	}
	inv.PaymentTerms = text(root, "cac:PaymentTerms/cbc:Note")

	for _, ac := range findAll(root, "cac:AllowanceCharge") {
		inv.AllowanceCharges = append(inv.AllowanceCharges, model.AllowanceCharge{
			Charge:     text(ac, "cbc:ChargeIndicator") == "true",
			Amount:     amountAt(ac, "cbc:Amount"),
			Reason:     text(ac, "cbc:AllowanceChargeReason"),
			ReasonCode: text(ac, "cbc:AllowanceChargeReasonCode"),
			Tax: model.Tax{
				Kind:     model.TaxKindPercent,
				Amount:   amountAt(ac, "cac:TaxCategory/cbc:Percent"),
				Category: text(ac, "cac:TaxCategory/cbc:ID"),
			},
		})
	}

	total := find(root, "cac:LegalMonetaryTotal")
	payable := amountAt(total, "cbc:PayableAmount")
	inv.Totals = &model.Totals{
		LineTotal:      amountAt(total, "cbc:LineExtensionAmount"),
		AllowanceTotal: amountAt(total, "cbc:AllowanceTotalAmount"),
		ChargeTotal:    amountAt(total, "cbc:ChargeTotalAmount"),
		TaxExclusive:   amountAt(total, "cbc:TaxExclusiveAmount"),
		TaxTotal:       amountAt(root, "cac:TaxTotal/cbc:TaxAmount"),
		TaxInclusive:   amountAt(total, "cbc:TaxInclusiveAmount"),
		Prepaid:        amountAt(total, "cbc:PrepaidAmount"),
		Payable:        payable,
	}
	inv.Prepaid = inv.Totals.Prepaid

	for i, el := range findAll(root, lineTag) {
		inv.Lines = append(inv.Lines, s.ublLine(el, qtyTag, i))
	}

	sign := inv.Totals.TaxInclusive
	if sign.IsZero() {
		sign = payable
	}
	s.normalizeSigns(inv, sign)
	s.resolve(inv)

	return &Result{Invoice: inv, Logs: s.logs}, nil
}

func ublAddress(el *etree.Element) model.Address {
	return model.Address{
		Street:  text(el, "cbc:StreetName"),
		Street2: text(el, "cbc:AdditionalStreetName"),
		City:    text(el, "cbc:CityName"),
		Zip:     text(el, "cbc:PostalZone"),
		Country: text(el, "cac:Country/cbc:IdentificationCode"),
		State:   text(el, "cbc:CountrySubentity"),
	}
}

func ublParty(el *etree.Element) model.Party {
	if el == nil {
		return model.Party{}
	}
	p := model.Party{
		Name:               text(el, "cac:PartyName/cbc:Name"),
		VAT:                text(el, "cac:PartyTaxScheme/cbc:CompanyID"),
		Registration:       text(el, "cac:PartyLegalEntity/cbc:CompanyID"),
		RegistrationScheme: attr(el, "cac:PartyLegalEntity/cbc:CompanyID", "schemeID"),
		Address:            ublAddress(find(el, "cac:PostalAddress")),
		Contact: model.Contact{
			Name:  text(el, "cac:Contact/cbc:Name"),
			Phone: text(el, "cac:Contact/cbc:Telephone"),
			Email: text(el, "cac:Contact/cbc:ElectronicMail"),
		},
		Endpoint:       text(el, "cbc:EndpointID"),
		EndpointScheme: attr(el, "cbc:EndpointID", "schemeID"),
	}
	registrationName := text(el, "cac:PartyLegalEntity/cbc:RegistrationName")
	switch {
	case p.Name == "":
		p.Name = registrationName
	case registrationName != p.Name:
		p.LegalName = registrationName
	}
	return p
}

func (s *session) ublLine(el *etree.Element, qtyTag string, index int) model.Line {
	line := model.Line{
		Sequence:    index + 1,
		ProductRef:  text(el, "cac:Item/cac:SellersItemIdentification/cbc:ID"),
		Name:        text(el, "cac:Item/cbc:Name"),
		Description: text(el, "cac:Item/cbc:Description"),
		Quantity:    amountAt(el, qtyTag),
		UoM:         attr(el, qtyTag, "unitCode"),
		UnitPrice:   amountAt(el, "cac:Price/cbc:PriceAmount"),
		Discount:    money.Zero,
	}
	if id, err := strconv.Atoi(text(el, "cbc:ID")); err == nil {
		line.Sequence = id
	}
	if base, ok := number(el, "cac:Price/cbc:BaseQuantity"); ok && !base.IsZero() {
		line.UnitPrice = line.UnitPrice.Div(base)
	}

	if c := find(el, "cac:Item/cac:ClassifiedTaxCategory"); c != nil {
		line.Taxes = append(line.Taxes, model.Tax{
			Kind:     model.TaxKindPercent,
			Amount:   amountAt(c, "cbc:Percent"),
			Category: text(c, "cbc:ID"),
		})
	}

	allowance := money.Zero
	for _, ac := range findAll(el, "cac:AllowanceCharge") {
		value := amountAt(ac, "cbc:Amount")
		if text(ac, "cbc:ChargeIndicator") == "true" {
			line.Taxes = append(line.Taxes, fixedTax(text(ac, "cbc:AllowanceChargeReason"), value, line.Quantity))
			continue
		}
		allowance = allowance.Add(value)
	}
	line.Discount = s.discountPercent(allowance, line.UnitPrice, line.Quantity, index)

	if line.Name == "" {
		line.Name = line.Description
	}
	return line
}
