package builder_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-codec/internal/builder"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func vat(rate string) model.Tax {
	return model.Tax{Name: "VAT " + rate, Kind: model.TaxKindPercent, Amount: dec(rate)}
}

func party(name, country, vatID string) model.Party {
	return model.Party{
		Name:    name,
		VAT:     vatID,
		Address: model.Address{Street: "1 Main Street", City: "City", Zip: "75001", Country: country},
		Contact: model.Contact{Email: "billing@example.com"},
	}
}

func domesticFrench() *model.Invoice {
	return &model.Invoice{
		Number:         "INV/2024/0001",
		Type:           model.DocumentTypeInvoice,
		IssueDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Currency:       "EUR",
		Supplier:       party("Supplier SARL", "FR", "FR12345678901"),
		Customer:       party("Customer SA", "FR", "FR98765432109"),
		BuyerReference: "BUYER-1",
		Lines: []model.Line{
			{Name: "Consulting", Quantity: dec("10"), UoM: "Units", UnitPrice: dec("100"), Taxes: []model.Tax{vat("20")}},
		},
		PaymentMeans: &model.PaymentMeans{Code: "30", Account: "FR7630006000011234567890189", BIC: "AGRIFRPP"},
	}
}

func intraCommunity() *model.Invoice {
	return &model.Invoice{
		Number:                 "BE/2024/17",
		Type:                   model.DocumentTypeInvoice,
		IssueDate:              time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:               "EUR",
		Supplier:               party("Supplier BV", "BE", "BE0477472701"),
		Customer:               party("Kunde GmbH", "DE", "DE123456789"),
		DeliveryDate:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		PurchaseOrderReference: "PO-77",
		Lines: []model.Line{
			{Name: "Machine", Quantity: dec("5"), UnitPrice: dec("200"), Taxes: []model.Tax{vat("0")}},
		},
	}
}

func build(t *testing.T, format string, inv *model.Invoice) *etree.Document {
	t.Helper()
	view := tax.Aggregate(inv, tax.Options{Places: 2})

	var out []byte
	var err error
	if format == "ubl" {
		out, err = builder.BuildUBL(inv, view, builder.DefaultOptions())
	} else {
		out, err = builder.BuildFacturX(inv, view, builder.DefaultOptions())
	}
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	return doc
}

func text(t *testing.T, doc *etree.Document, path string) string {
	t.Helper()
	el := doc.FindElement(path)
	require.NotNil(t, el, path)
	return el.Text()
}

func attr(t *testing.T, doc *etree.Document, path, key string) string {
	t.Helper()
	el := doc.FindElement(path)
	require.NotNil(t, el, path)
	return el.SelectAttrValue(key, "")
}

func TestBuildFacturX_Domestic(t *testing.T) {
	doc := build(t, "facturx", domesticFrench())

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "CrossIndustryInvoice", root.Tag)
	assert.Equal(t, "rsm", root.Space)

	assert.Equal(t, "380", text(t, doc, "//rsm:ExchangedDocument/ram:TypeCode"))
	assert.Equal(t, "20240301", text(t, doc, "//ram:IssueDateTime/udt:DateTimeString"))
	assert.Equal(t, "102", attr(t, doc, "//ram:IssueDateTime/udt:DateTimeString", "format"))
	assert.Equal(t, "urn:cen.eu:en16931:2017", text(t, doc, "//ram:GuidelineSpecifiedDocumentContextParameter/ram:ID"))

	assert.Equal(t, "1200.00", text(t, doc, "//ram:GrandTotalAmount"))
	assert.Equal(t, "1000.00", text(t, doc, "//ram:TaxBasisTotalAmount"))
	assert.Equal(t, "-200.00", text(t, doc, "//ram:SpecifiedTradeSettlementHeaderMonetarySummation/ram:TaxTotalAmount"))
	assert.Equal(t, "1200.00", text(t, doc, "//ram:DuePayableAmount"))

	taxes := doc.FindElements("//ram:ApplicableHeaderTradeSettlement/ram:ApplicableTradeTax")
	require.Len(t, taxes, 1)
	assert.Equal(t, "S", taxes[0].FindElement("ram:CategoryCode").Text())
	assert.Equal(t, "20.00", taxes[0].FindElement("ram:RateApplicablePercent").Text())
	assert.Equal(t, "200.00", taxes[0].FindElement("ram:CalculatedAmount").Text())

	assert.Equal(t, "10", text(t, doc, "//ram:BilledQuantity"))
	assert.Equal(t, "C62", attr(t, doc, "//ram:BilledQuantity", "unitCode"))
	assert.Equal(t, "100.00", text(t, doc, "//ram:NetPriceProductTradePrice/ram:ChargeAmount"))
	assert.Equal(t, "1000.00", text(t, doc, "//ram:SpecifiedTradeSettlementLineMonetarySummation/ram:LineTotalAmount"))

	assert.Equal(t, "FR12345678901", text(t, doc, "//ram:SellerTradeParty/ram:SpecifiedTaxRegistration/ram:ID"))
	assert.Equal(t, "VA", attr(t, doc, "//ram:SellerTradeParty/ram:SpecifiedTaxRegistration/ram:ID", "schemeID"))
	assert.Equal(t, "FR7630006000011234567890189", text(t, doc, "//ram:PayeePartyCreditorFinancialAccount/ram:IBANID"))
	assert.Equal(t, "AGRIFRPP", text(t, doc, "//ram:PayeeSpecifiedCreditorFinancialInstitution/ram:BICID"))
	assert.Equal(t, "20240331", text(t, doc, "//ram:DueDateDateTime/udt:DateTimeString"))
}

func TestBuildFacturX_FrenchNotes(t *testing.T) {
	inv := domesticFrench()
	inv.Narration = "Thank you"
	inv.Notes = []model.Note{{Content: "#PMT#Custom recovery fee"}}

	doc := build(t, "facturx", inv)

	notes := doc.FindElements("//rsm:ExchangedDocument/ram:IncludedNote")
	require.Len(t, notes, 4)

	assert.Equal(t, "Thank you", notes[0].FindElement("ram:Content").Text())
	assert.Nil(t, notes[0].FindElement("ram:SubjectCode"))

	codes := map[string]string{}
	for _, n := range notes[1:] {
		codes[n.FindElement("ram:SubjectCode").Text()] = n.FindElement("ram:Content").Text()
	}
	assert.Equal(t, "Custom recovery fee", codes["PMT"])
	assert.Contains(t, codes, "PMD")
	assert.Contains(t, codes, "AAB")
}

func TestBuildFacturX_FrenchIdentifiers(t *testing.T) {
	inv := domesticFrench()
	inv.Supplier.Registration = "73282932000074"

	doc := build(t, "facturx", inv)

	assert.Equal(t, "732829320", text(t, doc, "//ram:SellerTradeParty/ram:SpecifiedLegalOrganization/ram:ID"))
	assert.Equal(t, "0002", attr(t, doc, "//ram:SellerTradeParty/ram:SpecifiedLegalOrganization/ram:ID", "schemeID"))
	assert.Equal(t, "73282932000074", text(t, doc, "//ram:SellerTradeParty/ram:URIUniversalCommunication/ram:URIID"))
	assert.Equal(t, "0009", attr(t, doc, "//ram:SellerTradeParty/ram:URIUniversalCommunication/ram:URIID", "schemeID"))
}

func childTags(el *etree.Element) []string {
	var tags []string
	for _, c := range el.ChildElements() {
		tags = append(tags, c.Tag)
	}
	return tags
}

func TestBuildFacturX_FrenchExtensions(t *testing.T) {
	inv := domesticFrench()
	inv.Supplier.LegalForm = "SAS au capital de 10 000 EUR"
	inv.Supplier.Address.Street3 = "Bâtiment B"
	inv.Supplier.Contact.Department = "Facturation"
	inv.TaxRepresentative = &model.Party{Name: "Fiscal Rep SARL", VAT: "FR55443322110", Address: model.Address{Country: "FR"}}
	inv.Payee = &model.Party{Name: "Factor SA", Registration: "55210055400013", Address: model.Address{Country: "FR"}}
	inv.AdditionalDocuments = []model.DocumentReference{{ID: "PRJ-7", TypeCode: "50"}, {ID: ""}}
	inv.ProcuringProject = &model.Project{ID: "MP-88"}
	inv.Lines[0].Note = &model.Note{Content: "Delivered on site"}
	inv.Lines[0].BuyerProductRef = "B-100"
	inv.Lines[0].BuyerOrderLineRef = "3"
	inv.Lines[0].OriginCountry = "de"
	inv.Lines[0].BuyerAccountingRef = "6063"

	doc := build(t, "facturx", inv)

	seller := "//ram:SellerTradeParty"
	assert.Equal(t, "SAS au capital de 10 000 EUR", text(t, doc, seller+"/ram:Description"))
	assert.Equal(t, "Bâtiment B", text(t, doc, seller+"/ram:PostalTradeAddress/ram:LineThree"))
	assert.Equal(t, "Facturation", text(t, doc, seller+"/ram:DefinedTradeContact/ram:DepartmentName"))
	assert.Equal(t, []string{"Name", "Description", "DefinedTradeContact", "PostalTradeAddress", "SpecifiedTaxRegistration"},
		childTags(doc.FindElement(seller)))

	agreement := doc.FindElement("//ram:ApplicableHeaderTradeAgreement")
	assert.Equal(t, []string{
		"BuyerReference", "SellerTradeParty", "BuyerTradeParty", "SellerTaxRepresentativeTradeParty",
		"AdditionalReferencedDocument", "SpecifiedProcuringProject",
	}, childTags(agreement))
	assert.Equal(t, "FR55443322110", text(t, doc, "//ram:SellerTaxRepresentativeTradeParty/ram:SpecifiedTaxRegistration/ram:ID"))
	assert.Equal(t, "50", text(t, doc, "//ram:AdditionalReferencedDocument/ram:TypeCode"))
	assert.Equal(t, "MP-88", text(t, doc, "//ram:SpecifiedProcuringProject/ram:Name"))

	settlement := childTags(doc.FindElement("//ram:ApplicableHeaderTradeSettlement"))
	require.GreaterOrEqual(t, len(settlement), 3)
	assert.Equal(t, []string{"InvoiceCurrencyCode", "PayeeTradeParty", "SpecifiedTradeSettlementPaymentMeans"}, settlement[:3])
	assert.Equal(t, "55210055400013", text(t, doc, "//ram:PayeeTradeParty/ram:GlobalID"))
	assert.Equal(t, "552100554", text(t, doc, "//ram:PayeeTradeParty/ram:SpecifiedLegalOrganization/ram:ID"))

	item := "//ram:IncludedSupplyChainTradeLineItem"
	assert.Equal(t, "Delivered on site", text(t, doc, item+"/ram:AssociatedDocumentLineDocument/ram:IncludedNote/ram:Content"))
	assert.Equal(t, "AAI", text(t, doc, item+"/ram:AssociatedDocumentLineDocument/ram:IncludedNote/ram:SubjectCode"))
	assert.Equal(t, []string{"BuyerAssignedID", "Name", "OriginTradeCountry"},
		childTags(doc.FindElement(item+"/ram:SpecifiedTradeProduct")))
	assert.Equal(t, "DE", text(t, doc, item+"/ram:SpecifiedTradeProduct/ram:OriginTradeCountry/ram:ID"))
	assert.Equal(t, []string{"BuyerOrderReferencedDocument", "NetPriceProductTradePrice"},
		childTags(doc.FindElement(item+"/ram:SpecifiedLineTradeAgreement")))
	assert.Equal(t, "3", text(t, doc, item+"/ram:SpecifiedLineTradeAgreement/ram:BuyerOrderReferencedDocument/ram:LineID"))
	assert.Equal(t, []string{"ApplicableTradeTax", "SpecifiedTradeSettlementLineMonetarySummation", "ReceivableSpecifiedTradeAccountingAccount"},
		childTags(doc.FindElement(item+"/ram:SpecifiedLineTradeSettlement")))
}

func TestBuildFacturX_FrenchExtensionsAbsent(t *testing.T) {
	doc := build(t, "facturx", domesticFrench())

	for _, path := range []string{
		"//ram:SellerTaxRepresentativeTradeParty",
		"//ram:PayeeTradeParty",
		"//ram:AdditionalReferencedDocument",
		"//ram:SpecifiedProcuringProject",
		"//ram:AssociatedDocumentLineDocument/ram:IncludedNote",
		"//ram:OriginTradeCountry",
		"//ram:SpecifiedLineTradeAgreement/ram:BuyerOrderReferencedDocument",
		"//ram:ReceivableSpecifiedTradeAccountingAccount",
		"//ram:LineThree",
		"//ram:DepartmentName",
	} {
		assert.Nil(t, doc.FindElement(path), path)
	}
}

func TestBuildFacturX_Refund(t *testing.T) {
	inv := domesticFrench()
	inv.Type = model.DocumentTypeRefund
	inv.BillingReference = "INV/2023/0099"

	doc := build(t, "facturx", inv)

	assert.Equal(t, "381", text(t, doc, "//rsm:ExchangedDocument/ram:TypeCode"))
	assert.Equal(t, "1200.00", text(t, doc, "//ram:GrandTotalAmount"))
	assert.Equal(t, "INV/2023/0099", text(t, doc, "//ram:InvoiceReferencedDocument/ram:IssuerAssignedID"))
}

func TestBuildFacturX_HeaderTaxSign(t *testing.T) {
	inv := domesticFrench()
	view := tax.Aggregate(inv, tax.Options{Places: 2})

	opts := builder.DefaultOptions()
	opts.NegateHeaderTax = false
	out, err := builder.BuildFacturX(inv, view, opts)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "200.00", text(t, doc, "//ram:SpecifiedTradeSettlementHeaderMonetarySummation/ram:TaxTotalAmount"))
}

func TestBuildFacturX_Discount(t *testing.T) {
	inv := domesticFrench()
	inv.Lines[0].Discount = dec("10")

	doc := build(t, "facturx", inv)

	assert.Equal(t, "100.00", text(t, doc, "//ram:GrossPriceProductTradePrice/ram:ChargeAmount"))
	assert.Equal(t, "false", text(t, doc, "//ram:AppliedTradeAllowanceCharge/ram:ChargeIndicator/udt:Indicator"))
	assert.Equal(t, "10.00", text(t, doc, "//ram:AppliedTradeAllowanceCharge/ram:ActualAmount"))
	assert.Equal(t, "90.00", text(t, doc, "//ram:NetPriceProductTradePrice/ram:ChargeAmount"))
	assert.Equal(t, "900.00", text(t, doc, "//ram:SpecifiedTradeSettlementLineMonetarySummation/ram:LineTotalAmount"))
	assert.Equal(t, "1080.00", text(t, doc, "//ram:GrandTotalAmount"))
}

func TestBuildFacturX_IntraCommunity(t *testing.T) {
	doc := build(t, "facturx", intraCommunity())

	tax := doc.FindElement("//ram:ApplicableHeaderTradeSettlement/ram:ApplicableTradeTax")
	require.NotNil(t, tax)
	assert.Equal(t, "K", tax.FindElement("ram:CategoryCode").Text())
	assert.Equal(t, "VATEX-EU-IC", tax.FindElement("ram:ExemptionReasonCode").Text())
	assert.Equal(t, "20240315", text(t, doc, "//ram:ActualDeliverySupplyChainEvent/ram:OccurrenceDateTime/udt:DateTimeString"))
	assert.Equal(t, "DE", text(t, doc, "//ram:ShipToTradeParty/ram:PostalTradeAddress/ram:CountryID"))
	assert.Nil(t, doc.FindElement("//ram:ShipToTradeParty/ram:DefinedTradeContact"))
	assert.Equal(t, "PO-77", text(t, doc, "//ram:BuyerOrderReferencedDocument/ram:IssuerAssignedID"))
}

func TestBuildFacturX_FixedTax(t *testing.T) {
	inv := domesticFrench()
	inv.Lines[0].Taxes = append(inv.Lines[0].Taxes, model.Tax{Name: "Eco-participation", Kind: model.TaxKindFixed, Amount: dec("0.50")})

	doc := build(t, "facturx", inv)

	charge := doc.FindElement("//ram:SpecifiedLineTradeSettlement/ram:SpecifiedTradeAllowanceCharge")
	require.NotNil(t, charge)
	assert.Equal(t, "true", charge.FindElement("ram:ChargeIndicator/udt:Indicator").Text())
	assert.Equal(t, "5.00", charge.FindElement("ram:ActualAmount").Text())
	assert.Equal(t, "Eco-participation", charge.FindElement("ram:Reason").Text())
	assert.Equal(t, "1005.00", text(t, doc, "//ram:SpecifiedTradeSettlementLineMonetarySummation/ram:LineTotalAmount"))
	assert.Len(t, doc.FindElements("//ram:ApplicableHeaderTradeSettlement/ram:ApplicableTradeTax"), 1)
}

func TestBuildUBL_IntraCommunity(t *testing.T) {
	doc := build(t, "ubl", intraCommunity())

	assert.Equal(t, "Invoice", doc.Root().Tag)
	assert.Equal(t, "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0", text(t, doc, "/Invoice/cbc:CustomizationID"))
	assert.Equal(t, "380", text(t, doc, "/Invoice/cbc:InvoiceTypeCode"))
	assert.Equal(t, "2024-03-15", text(t, doc, "/Invoice/cbc:IssueDate"))

	assert.Equal(t, "K", text(t, doc, "//cac:TaxSubtotal/cac:TaxCategory/cbc:ID"))
	assert.Equal(t, "VATEX-EU-IC", text(t, doc, "//cac:TaxSubtotal/cac:TaxCategory/cbc:TaxExemptionReasonCode"))
	assert.Equal(t, "2024-03-15", text(t, doc, "//cac:Delivery/cbc:ActualDeliveryDate"))
	assert.Equal(t, "DE", text(t, doc, "//cac:Delivery/cac:DeliveryLocation/cac:Address/cac:Country/cbc:IdentificationCode"))

	assert.Equal(t, "1000.00", text(t, doc, "//cac:LegalMonetaryTotal/cbc:PayableAmount"))
	assert.Equal(t, "EUR", attr(t, doc, "//cac:LegalMonetaryTotal/cbc:PayableAmount", "currencyID"))
	assert.Equal(t, "0.00", text(t, doc, "/Invoice/cac:TaxTotal/cbc:TaxAmount"))

	assert.Nil(t, doc.FindElement("//cac:InvoiceLine/cac:TaxTotal"))
	assert.Nil(t, doc.FindElement("//cac:ClassifiedTaxCategory/cbc:TaxExemptionReasonCode"))
	assert.Equal(t, "K", text(t, doc, "//cac:InvoiceLine/cac:Item/cac:ClassifiedTaxCategory/cbc:ID"))
}

func TestBuildUBL_NegativePrice(t *testing.T) {
	inv := intraCommunity()
	inv.Lines[0] = model.Line{Name: "Return", Quantity: dec("2"), UnitPrice: dec("-50"), Taxes: []model.Tax{vat("0")}}

	doc := build(t, "ubl", inv)

	assert.Equal(t, "50.00", text(t, doc, "//cac:InvoiceLine/cac:Price/cbc:PriceAmount"))
	assert.Equal(t, "-2", text(t, doc, "//cac:InvoiceLine/cbc:InvoicedQuantity"))
	assert.Equal(t, "-100.00", text(t, doc, "//cac:InvoiceLine/cbc:LineExtensionAmount"))
}

func TestBuildUBL_CreditNote(t *testing.T) {
	inv := intraCommunity()
	inv.Type = model.DocumentTypeRefund
	inv.BillingReference = "BE/2024/16"
	inv.DueDate = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	inv.PaymentMeans = &model.PaymentMeans{Code: "58", Account: "BE71096123456769"}

	doc := build(t, "ubl", inv)

	assert.Equal(t, "CreditNote", doc.Root().Tag)
	assert.Equal(t, "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2", doc.Root().SelectAttrValue("xmlns", ""))
	assert.Equal(t, "381", text(t, doc, "/CreditNote/cbc:CreditNoteTypeCode"))
	assert.Nil(t, doc.FindElement("/CreditNote/cbc:DueDate"))
	assert.Equal(t, "2024-04-15", text(t, doc, "//cac:PaymentMeans/cbc:PaymentDueDate"))
	assert.Equal(t, "BE/2024/16", text(t, doc, "//cac:BillingReference/cac:InvoiceDocumentReference/cbc:ID"))
	assert.Equal(t, "5", text(t, doc, "//cac:CreditNoteLine/cbc:CreditedQuantity"))
	assert.Nil(t, doc.FindElement("//cac:InvoiceLine"))
}

func TestBuildUBL_SelfBilling(t *testing.T) {
	tests := []struct {
		name     string
		refund   bool
		typePath string
		code     string
	}{
		{"invoice", false, "/Invoice/cbc:InvoiceTypeCode", "389"},
		{"credit note", true, "/CreditNote/cbc:CreditNoteTypeCode", "261"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := intraCommunity()
			inv.SelfBilled = true
			if tt.refund {
				inv.Type = model.DocumentTypeRefund
			}

			doc := build(t, "ubl", inv)

			assert.Equal(t, tt.code, text(t, doc, tt.typePath))
			assert.Equal(t, "urn:fdc:peppol.eu:2017:poacc:selfbilling:01:1.0", text(t, doc, "//cbc:ProfileID"))
		})
	}
}

func TestBuildUBL_DutchLegalEntity(t *testing.T) {
	tests := []struct {
		name         string
		registration string
		scheme       string
	}{
		{"kvk", "12345678", "0106"},
		{"oin", "123456789", "0190"},
		{"oin long", "00000001234567890000", "0190"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := intraCommunity()
			inv.Supplier = party("Leverancier BV", "NL", "NL123456789B01")
			inv.Supplier.Registration = tt.registration

			doc := build(t, "ubl", inv)

			path := "//cac:AccountingSupplierParty/cac:Party/cac:PartyLegalEntity/cbc:CompanyID"
			assert.Equal(t, tt.registration, text(t, doc, path))
			assert.Equal(t, tt.scheme, attr(t, doc, path, "schemeID"))
		})
	}
}

func TestBuildUBL_Party(t *testing.T) {
	inv := intraCommunity()
	inv.Supplier.Endpoint = "0477472701"
	inv.Supplier.EndpointScheme = "0208"
	inv.Supplier.Address.State = "Brussels"
	inv.PaymentMeans = &model.PaymentMeans{Code: "30", Account: "BE71096123456769", AccountName: "Supplier BV", BIC: "GKCCBEBB", Reference: "+++090/9337/55493+++"}

	doc := build(t, "ubl", inv)

	supplier := doc.FindElement("//cac:AccountingSupplierParty/cac:Party")
	require.NotNil(t, supplier)
	assert.Equal(t, "0477472701", supplier.FindElement("cbc:EndpointID").Text())
	assert.Equal(t, "0208", supplier.FindElement("cbc:EndpointID").SelectAttrValue("schemeID", ""))
	assert.Equal(t, "VAT", supplier.FindElement("cac:PartyTaxScheme/cac:TaxScheme/cbc:ID").Text())
	assert.Equal(t, "Brussels", supplier.FindElement("cac:PostalAddress/cbc:CountrySubentity").Text())
	assert.Nil(t, doc.FindElement("//cbc:CountrySubentityCode"))

	assert.Equal(t, "GKCCBEBB", text(t, doc, "//cac:PayeeFinancialAccount/cac:FinancialInstitutionBranch/cbc:ID"))
	assert.Nil(t, doc.FindElement("//cac:FinancialInstitution"))
	assert.Equal(t, "+++090/9337/55493+++", text(t, doc, "//cac:PaymentMeans/cbc:PaymentID"))
}

func TestBuildUBL_NotEUVAT(t *testing.T) {
	inv := intraCommunity()
	inv.Supplier = party("Vendor Inc", "US", "123456789")
	inv.Customer = party("Kunde GmbH", "DE", "DE123456789")

	doc := build(t, "ubl", inv)

	assert.Equal(t, "NOT_EU_VAT", text(t, doc, "//cac:AccountingSupplierParty/cac:Party/cac:PartyTaxScheme/cac:TaxScheme/cbc:ID"))
}

func TestBuildUBL_LineDiscountAndNotes(t *testing.T) {
	inv := intraCommunity()
	inv.Lines[0].Discount = dec("25")
	inv.Narration = "Delivered in two batches"
	inv.Notes = []model.Note{{SubjectCode: "AAI", Content: "General information"}}

	doc := build(t, "ubl", inv)

	ac := doc.FindElement("//cac:InvoiceLine/cac:AllowanceCharge")
	require.NotNil(t, ac)
	assert.Equal(t, "false", ac.FindElement("cbc:ChargeIndicator").Text())
	assert.Equal(t, "250.00", ac.FindElement("cbc:Amount").Text())
	assert.Equal(t, "1000.00", ac.FindElement("cbc:BaseAmount").Text())
	assert.Equal(t, "25.00", ac.FindElement("cbc:MultiplierFactorNumeric").Text())
	assert.Equal(t, "750.00", text(t, doc, "//cac:InvoiceLine/cbc:LineExtensionAmount"))
	assert.Equal(t, "200.00", text(t, doc, "//cac:InvoiceLine/cac:Price/cbc:PriceAmount"))

	notes := doc.FindElements("/Invoice/cbc:Note")
	require.Len(t, notes, 2)
	assert.Equal(t, "Delivered in two batches", notes[0].Text())
	assert.Equal(t, "#AAI#General information", notes[1].Text())
}

func TestBuildUBL_NoEmptyElements(t *testing.T) {
	doc := build(t, "ubl", intraCommunity())

	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if len(el.ChildElements()) == 0 {
			assert.NotEmpty(t, el.Text(), el.GetPath())
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(doc.Root())
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "INV_2024_0001_ubl_bis3.xml", builder.UBLFilename("INV/2024/0001"))
	assert.Equal(t, "INV_2024_0001_cii_fr.xml", builder.CIIFrenchFilename("INV/2024/0001"))
}
