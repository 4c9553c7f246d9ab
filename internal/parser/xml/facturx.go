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

// FacturXAdapter parses Factur-X / ZUGFeRD Cross-Industry Invoices
type FacturXAdapter struct{}

// NewFacturXAdapter creates a new Factur-X adapter
func NewFacturXAdapter() *FacturXAdapter {
	return &FacturXAdapter{}
}

// Format returns the document format
func (a *FacturXAdapter) Format() model.Format {
	return model.FormatFacturX
}

// CanParse checks the root element is a CII CrossIndustryInvoice
func (a *FacturXAdapter) CanParse(content []byte) bool {
	ns, tag := rootNamespace(content)
	return ns == codelist.NamespaceRSM && tag == "CrossIndustryInvoice"
}

// Parse parses CII XML into a draft invoice
func (a *FacturXAdapter) Parse(ctx context.Context, r io.Reader, res Resolvers, opts Options) (*Result, error) {
	doc, err := readDocument(model.FormatFacturX, r)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root.Tag != "CrossIndustryInvoice" {
		return nil, model.NewParseError(model.FormatFacturX, "root", "not a CrossIndustryInvoice: "+root.Tag, nil)
	}

	s := newSession(model.FormatFacturX, res, opts)
	exchanged := find(root, "rsm:ExchangedDocument")
	transaction := find(root, "rsm:SupplyChainTradeTransaction")
	if exchanged == nil || transaction == nil {
		return nil, model.NewParseError(model.FormatFacturX, "root", "missing ExchangedDocument or SupplyChainTradeTransaction", nil)
	}
	agreement := find(transaction, "ram:ApplicableHeaderTradeAgreement")
	delivery := find(transaction, "ram:ApplicableHeaderTradeDelivery")
	settlement := find(transaction, "ram:ApplicableHeaderTradeSettlement")

	inv := &model.Invoice{
		Number:    text(exchanged, "ram:ID"),
		Type:      model.DocumentTypeInvoice,
		IssueDate: dateAt(exchanged, "ram:IssueDateTime/udt:DateTimeString"),
		Currency:  text(settlement, "ram:InvoiceCurrencyCode"),
	}
	switch text(exchanged, "ram:TypeCode") {
	case codelist.TypeCodeCreditNote:
		inv.Type = model.DocumentTypeRefund
	case codelist.TypeCodeSelfBilledCredit:
		inv.Type = model.DocumentTypeRefund
		inv.SelfBilled = true
	case codelist.TypeCodeSelfBilledInvoice:
		inv.SelfBilled = true
	}

	for _, n := range findAll(exchanged, "ram:IncludedNote") {
		note := model.Note{SubjectCode: text(n, "ram:SubjectCode"), Content: text(n, "ram:Content")}
		if note.SubjectCode == "" {
			note = splitNote(note.Content)
		}
		addNote(inv, note)
	}

	// Agreement
	inv.BuyerReference = text(agreement, "ram:BuyerReference")
	inv.Supplier = ciiParty(find(agreement, "ram:SellerTradeParty"))
	inv.Customer = ciiParty(find(agreement, "ram:BuyerTradeParty"))
	inv.SellerOrderReference = text(agreement, "ram:SellerOrderReferencedDocument/ram:IssuerAssignedID")
	inv.PurchaseOrderReference = text(agreement, "ram:BuyerOrderReferencedDocument/ram:IssuerAssignedID")
	if el := find(agreement, "ram:SellerTaxRepresentativeTradeParty"); el != nil {
		rep := ciiParty(el)
		inv.TaxRepresentative = &rep
	}
	for _, d := range findAll(agreement, "ram:AdditionalReferencedDocument") {
		inv.AdditionalDocuments = append(inv.AdditionalDocuments, model.DocumentReference{
			ID:       text(d, "ram:IssuerAssignedID"),
			TypeCode: text(d, "ram:TypeCode"),
			URI:      text(d, "ram:URIID"),
			Name:     text(d, "ram:Name"),
		})
	}
	if id := text(agreement, "ram:SpecifiedProcuringProject/ram:ID"); id != "" {
		inv.ProcuringProject = &model.Project{
			ID:   id,
			Name: text(agreement, "ram:SpecifiedProcuringProject/ram:Name"),
		}
	}

	// Delivery
	if el := find(delivery, "ram:ShipToTradeParty"); el != nil {
		if shipTo := ciiParty(el); !sameParty(shipTo, inv.Customer) {
			inv.Shipping = &shipTo
		}
	}
	inv.DeliveryDate = dateAt(delivery, "ram:ActualDeliverySupplyChainEvent/ram:OccurrenceDateTime/udt:DateTimeString")
	inv.DespatchAdviceReference = text(delivery, "ram:DespatchAdviceReferencedDocument/ram:IssuerAssignedID")
	inv.ReceivingAdviceReference = text(delivery, "ram:ReceivingAdviceReferencedDocument/ram:IssuerAssignedID")

	// Settlement
	ciiSettlement(settlement, inv)

	summation := find(settlement, "ram:SpecifiedTradeSettlementHeaderMonetarySummation")
	grandTotal, hasTotal := number(summation, "ram:GrandTotalAmount")
	inv.Totals = &model.Totals{
		LineTotal:      amountAt(summation, "ram:LineTotalAmount"),
		AllowanceTotal: amountAt(summation, "ram:AllowanceTotalAmount"),
		ChargeTotal:    amountAt(summation, "ram:ChargeTotalAmount"),
		TaxExclusive:   amountAt(summation, "ram:TaxBasisTotalAmount"),
		TaxTotal:       amountAt(summation, "ram:TaxTotalAmount").Abs(),
		TaxInclusive:   grandTotal,
		Prepaid:        amountAt(summation, "ram:TotalPrepaidAmount"),
		Payable:        amountAt(summation, "ram:DuePayableAmount"),
	}
	inv.Prepaid = inv.Totals.Prepaid
	if grandTotal.IsNegative() {
		// the header tax is unsigned on input; keep it with the other totals
		inv.Totals.TaxTotal = inv.Totals.TaxTotal.Neg()
	}

	// Lines
	items := findAll(transaction, "ram:IncludedSupplyChainTradeLineItem")
	for i, item := range items {
		inv.Lines = append(inv.Lines, s.ciiLine(item, i))
	}
	if len(items) == 0 && hasTotal {
		inv.Lines = append(inv.Lines, s.basicWLLine(inv, settlement))
	}

	s.normalizeSigns(inv, grandTotal)
	s.resolve(inv)

	return &Result{Invoice: inv, Logs: s.logs}, nil
}

func ciiParty(el *etree.Element) model.Party {
	if el == nil {
		return model.Party{}
	}
	p := model.Party{
		Name:               text(el, "ram:Name"),
		LegalForm:          text(el, "ram:Description"),
		Registration:       text(el, "ram:SpecifiedLegalOrganization/ram:ID"),
		RegistrationScheme: attr(el, "ram:SpecifiedLegalOrganization/ram:ID", "schemeID"),
		Address: model.Address{
			Street:  text(el, "ram:PostalTradeAddress/ram:LineOne"),
			Street2: text(el, "ram:PostalTradeAddress/ram:LineTwo"),
			Street3: text(el, "ram:PostalTradeAddress/ram:LineThree"),
			City:    text(el, "ram:PostalTradeAddress/ram:CityName"),
			Zip:     text(el, "ram:PostalTradeAddress/ram:PostcodeCode"),
			Country: text(el, "ram:PostalTradeAddress/ram:CountryID"),
			State:   text(el, "ram:PostalTradeAddress/ram:CountrySubDivisionName"),
		},
		Contact: model.Contact{
			Name:       text(el, "ram:DefinedTradeContact/ram:PersonName"),
			Department: text(el, "ram:DefinedTradeContact/ram:DepartmentName"),
			Phone:      text(el, "ram:DefinedTradeContact/ram:TelephoneUniversalCommunication/ram:CompleteNumber"),
			Email:      text(el, "ram:DefinedTradeContact/ram:EmailURIUniversalCommunication/ram:URIID"),
		},
		Endpoint:       text(el, "ram:URIUniversalCommunication/ram:URIID"),
		EndpointScheme: attr(el, "ram:URIUniversalCommunication/ram:URIID", "schemeID"),
	}
	if trading := text(el, "ram:SpecifiedLegalOrganization/ram:TradingBusinessName"); trading != "" {
		p.LegalName = p.Name
		p.Name = trading
	}
	for _, reg := range findAll(el, "ram:SpecifiedTaxRegistration") {
		// VA is the VAT number, FC the tax number of non-EU sellers
		if id := text(reg, "ram:ID"); id != "" && p.VAT == "" {
			p.VAT = id
		}
	}
	return p
}

func ciiSettlement(el *etree.Element, inv *model.Invoice) {
	if el == nil {
		return
	}

	if payee := find(el, "ram:PayeeTradeParty"); payee != nil {
		p := ciiParty(payee)
		if p.Endpoint == "" {
			p.Endpoint = text(payee, "ram:GlobalID")
			p.EndpointScheme = attr(payee, "ram:GlobalID", "schemeID")
		}
		inv.Payee = &p
	}

	if means := find(el, "ram:SpecifiedTradeSettlementPaymentMeans"); means != nil {
		pm := &model.PaymentMeans{
			Code:        text(means, "ram:TypeCode"),
			Account:     text(means, "ram:PayeePartyCreditorFinancialAccount/ram:IBANID"),
			AccountName: text(means, "ram:PayeePartyCreditorFinancialAccount/ram:AccountName"),
			BIC:         text(means, "ram:PayeeSpecifiedCreditorFinancialInstitution/ram:BICID"),
		}
		if pm.Account == "" {
			pm.Account = text(means, "ram:PayeePartyCreditorFinancialAccount/ram:ProprietaryID")
		}
		if pm.Account == "" {
			pm.Account = text(means, "ram:PayerPartyDebtorFinancialAccount/ram:IBANID")
		}
		inv.PaymentMeans = pm
	}
	if ref := text(el, "ram:PaymentReference"); ref != "" {
		if inv.PaymentMeans == nil {
			inv.PaymentMeans = &model.PaymentMeans{}
		}
		inv.PaymentMeans.Reference = ref
	}

	if period := find(el, "ram:BillingSpecifiedPeriod"); period != nil {
		inv.InvoicePeriod = &model.Period{
			Start: dateAt(period, "ram:StartDateTime/udt:DateTimeString"),
			End:   dateAt(period, "ram:EndDateTime/udt:DateTimeString"),
		}
	}

	for _, ac := range findAll(el, "ram:SpecifiedTradeAllowanceCharge") {
		inv.AllowanceCharges = append(inv.AllowanceCharges, model.AllowanceCharge{
			Charge:     text(ac, "ram:ChargeIndicator/udt:Indicator") == "true",
			Amount:     amountAt(ac, "ram:ActualAmount"),
			Reason:     text(ac, "ram:Reason"),
			ReasonCode: text(ac, "ram:ReasonCode"),
			Tax: model.Tax{
				Kind:     model.TaxKindPercent,
				Amount:   amountAt(ac, "ram:CategoryTradeTax/ram:RateApplicablePercent"),
				Category: text(ac, "ram:CategoryTradeTax/ram:CategoryCode"),
			},
		})
	}

	if terms := find(el, "ram:SpecifiedTradePaymentTerms"); terms != nil {
		inv.PaymentTerms = text(terms, "ram:Description")
		inv.DueDate = dateAt(terms, "ram:DueDateDateTime/udt:DateTimeString")
		if mandate := text(terms, "ram:DirectDebitMandateID"); mandate != "" {
			if inv.PaymentMeans == nil {
				inv.PaymentMeans = &model.PaymentMeans{}
			}
			inv.PaymentMeans.Mandate = mandate
		}
	}

	inv.BillingReference = text(el, "ram:InvoiceReferencedDocument/ram:IssuerAssignedID")
}

func (s *session) ciiLine(el *etree.Element, index int) model.Line {
	line := model.Line{
		Sequence:    index + 1,
		ProductRef:         text(el, "ram:SpecifiedTradeProduct/ram:SellerAssignedID"),
		BuyerProductRef:    text(el, "ram:SpecifiedTradeProduct/ram:BuyerAssignedID"),
		Name:               text(el, "ram:SpecifiedTradeProduct/ram:Name"),
		Description:        text(el, "ram:SpecifiedTradeProduct/ram:Description"),
		OriginCountry:      text(el, "ram:SpecifiedTradeProduct/ram:OriginTradeCountry/ram:ID"),
		Quantity:           amountAt(el, "ram:SpecifiedLineTradeDelivery/ram:BilledQuantity"),
		UoM:                attr(el, "ram:SpecifiedLineTradeDelivery/ram:BilledQuantity", "unitCode"),
		Discount:           money.Zero,
		BuyerOrderLineRef:  text(el, "ram:SpecifiedLineTradeAgreement/ram:BuyerOrderReferencedDocument/ram:LineID"),
		BuyerAccountingRef: text(el, "ram:SpecifiedLineTradeSettlement/ram:ReceivableSpecifiedTradeAccountingAccount/ram:ID"),
	}
	if n := find(el, "ram:AssociatedDocumentLineDocument/ram:IncludedNote"); n != nil {
		line.Note = &model.Note{SubjectCode: text(n, "ram:SubjectCode"), Content: text(n, "ram:Content")}
	}
	if id, err := strconv.Atoi(text(el, "ram:AssociatedDocumentLineDocument/ram:LineID")); err == nil {
		line.Sequence = id
	}

	agreement := find(el, "ram:SpecifiedLineTradeAgreement")
	net, _ := number(agreement, "ram:NetPriceProductTradePrice/ram:ChargeAmount")
	if basis, ok := number(agreement, "ram:NetPriceProductTradePrice/ram:BasisQuantity"); ok && !basis.IsZero() {
		net = net.Div(basis)
	}
	line.UnitPrice = net

	if gross, ok := number(agreement, "ram:GrossPriceProductTradePrice/ram:ChargeAmount"); ok {
		line.UnitPrice = gross
		allowance := money.Zero
		for _, ac := range findAll(agreement, "ram:GrossPriceProductTradePrice/ram:AppliedTradeAllowanceCharge") {
			if text(ac, "ram:ChargeIndicator/udt:Indicator") != "true" {
				allowance = allowance.Add(amountAt(ac, "ram:ActualAmount"))
			}
		}
		if allowance.IsZero() && !gross.Equal(net) {
			allowance = gross.Sub(net)
		}
		line.Discount = s.discountPercent(allowance, gross, money.FromInt(1), index)
	}

	settlement := find(el, "ram:SpecifiedLineTradeSettlement")
	for _, t := range findAll(settlement, "ram:ApplicableTradeTax") {
		line.Taxes = append(line.Taxes, model.Tax{
			Kind:     model.TaxKindPercent,
			Amount:   amountAt(t, "ram:RateApplicablePercent"),
			Category: text(t, "ram:CategoryCode"),
		})
	}

	lineAllowance := money.Zero
	for _, ac := range findAll(settlement, "ram:SpecifiedTradeAllowanceCharge") {
		value := amountAt(ac, "ram:ActualAmount")
		if text(ac, "ram:ChargeIndicator/udt:Indicator") == "true" {
			line.Taxes = append(line.Taxes, fixedTax(text(ac, "ram:Reason"), value, line.Quantity))
			continue
		}
		lineAllowance = lineAllowance.Add(value)
	}
	if !lineAllowance.IsZero() && line.Discount.IsZero() {
		line.Discount = s.discountPercent(lineAllowance, line.UnitPrice, line.Quantity, index)
	}

	if line.Name == "" {
		line.Name = line.Description
	}
	return line
}

// basicWLLine synthesises the single line of a document without lines
// (BASIC WL profile) from its totals
func (s *session) basicWLLine(inv *model.Invoice, settlement *etree.Element) model.Line {
	s.logf("No invoice lines, one line created from the document totals")

	price := inv.Totals.TaxExclusive
	if price.IsZero() {
		price = inv.Totals.TaxInclusive.Sub(inv.Totals.TaxTotal)
	}
	name := inv.Narration
	if name == "" {
		name = inv.Number
	}

	line := model.Line{
		Sequence:    1,
		Name:        name,
		Description: inv.Narration,
		Quantity:    money.FromInt(1),
		UnitPrice:   price,
		Discount:    money.Zero,
	}
	if t := find(settlement, "ram:ApplicableTradeTax"); t != nil {
		line.Taxes = []model.Tax{{
			Kind:     model.TaxKindPercent,
			Amount:   amountAt(t, "ram:RateApplicablePercent"),
			Category: text(t, "ram:CategoryCode"),
		}}
	}
	return line
}
