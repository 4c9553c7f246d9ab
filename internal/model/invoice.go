package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes invoice from refund (credit note)
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeRefund  DocumentType = "refund"
)

// TaxKind distinguishes percentage taxes from fixed per-unit amounts
type TaxKind string

const (
	TaxKindPercent TaxKind = "percent"
	TaxKindFixed   TaxKind = "fixed"
)

// Invoice is the codec value model. Exporters consume it, importers produce it.
type Invoice struct {
	// Header
	Number     string       `json:"number"`
	Type       DocumentType `json:"type"`
	IssueDate  time.Time    `json:"issue_date"`
	DueDate    time.Time    `json:"due_date,omitempty"`
	Currency   string       `json:"currency"`
	SelfBilled bool         `json:"self_billed,omitempty"`

	// Parties
	Supplier Party  `json:"supplier"`
	Customer Party  `json:"customer"`
	Shipping *Party `json:"shipping,omitempty"`

	// Seller tax representative (BG-11) and payee when it differs from the
	// seller (BG-10)
	TaxRepresentative *Party `json:"tax_representative,omitempty"`
	Payee             *Party `json:"payee,omitempty"`

	// Delivery
	DeliveryDate  time.Time `json:"delivery_date,omitempty"`
	InvoicePeriod *Period   `json:"invoice_period,omitempty"`

	// References
	BuyerReference           string `json:"buyer_reference,omitempty"`
	PurchaseOrderReference   string `json:"purchase_order_reference,omitempty"`
	SellerOrderReference     string `json:"seller_order_reference,omitempty"`
	DespatchAdviceReference  string `json:"despatch_advice_reference,omitempty"`
	ReceivingAdviceReference string `json:"receiving_advice_reference,omitempty"`
	BillingReference         string `json:"billing_reference,omitempty"` // invoice being credited

	AdditionalDocuments []DocumentReference `json:"additional_documents,omitempty"`
	ProcuringProject    *Project            `json:"procuring_project,omitempty"`

	// Content
	Lines            []Line            `json:"lines"`
	AllowanceCharges []AllowanceCharge `json:"allowance_charges,omitempty"`

	// Payment
	PaymentTerms string          `json:"payment_terms,omitempty"`
	PaymentMeans *PaymentMeans   `json:"payment_means,omitempty"`
	Prepaid      decimal.Decimal `json:"prepaid,omitempty"`

	// Free text
	Narration string `json:"narration,omitempty"`
	Notes     []Note `json:"notes,omitempty"`

	// Totals as read from a document on import; exporters recompute them.
	Totals *Totals `json:"totals,omitempty"`

	// Resolved currency identifier (import only)
	CurrencyID string `json:"currency_id,omitempty"`
}

// Party represents supplier, customer or shipping party
type Party struct {
	ID                 string  `json:"id,omitempty"` // resolved partner (import only)
	Name               string  `json:"name"`
	LegalName          string  `json:"legal_name,omitempty"`
	LegalForm          string  `json:"legal_form,omitempty"` // e.g. "SAS au capital de 10 000 EUR"
	VAT                string  `json:"vat,omitempty"`
	Registration       string  `json:"registration,omitempty"`        // KVK, OIN, SIRET, CVR...
	RegistrationScheme string  `json:"registration_scheme,omitempty"` // ICD scheme of Registration
	Address            Address `json:"address"`
	Contact            Contact `json:"contact,omitempty"`
	Endpoint           string  `json:"endpoint,omitempty"`        // Peppol endpoint id
	EndpointScheme     string  `json:"endpoint_scheme,omitempty"` // EAS code
}

// Address is a postal address
type Address struct {
	Street  string `json:"street,omitempty"`
	Street2 string `json:"street2,omitempty"`
	Street3 string `json:"street3,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country"` // ISO 3166-1 alpha-2
	State   string `json:"state,omitempty"`
}

// Contact holds party contact details
type Contact struct {
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Period is an invoicing period
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Line represents an invoice line
type Line struct {
	Sequence    int             `json:"sequence"`
	ProductRef  string          `json:"product_ref,omitempty"`
	ProductID   string          `json:"product_id,omitempty"` // resolved product (import only)
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UoM         string          `json:"uom,omitempty"` // unit name or Rec 20 code
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount,omitempty"` // percent
	Taxes       []Tax           `json:"taxes"`

	Note               *Note  `json:"note,omitempty"`
	BuyerProductRef    string `json:"buyer_product_ref,omitempty"`    // buyer's item identifier
	BuyerOrderLineRef  string `json:"buyer_order_line_ref,omitempty"` // line of the purchase order
	OriginCountry      string `json:"origin_country,omitempty"`       // ISO 3166-1 alpha-2
	BuyerAccountingRef string `json:"buyer_accounting_ref,omitempty"` // buyer's accounting account
}

// Tax is a tax applied to a line or allowance
type Tax struct {
	ID              string          `json:"id,omitempty"` // resolved tax (import only)
	Name            string          `json:"name,omitempty"`
	Kind            TaxKind         `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`             // rate in percent, or fixed amount per unit
	Category        string          `json:"category,omitempty"` // forces the VAT category
	ExemptionCode   string          `json:"exemption_code,omitempty"`
	ExemptionReason string          `json:"exemption_reason,omitempty"`
}

// AllowanceCharge is a document level allowance (discount) or charge
type AllowanceCharge struct {
	Charge     bool            `json:"charge"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	ReasonCode string          `json:"reason_code,omitempty"`
	Tax        Tax             `json:"tax"`
}

// PaymentMeans describes how the invoice is to be paid
type PaymentMeans struct {
	Code        string `json:"code"`                   // UNCL 4461
	Account     string `json:"account,omitempty"`      // IBAN or account number
	AccountName string `json:"account_name,omitempty"` // account holder
	BIC         string `json:"bic,omitempty"`
	Mandate     string `json:"mandate,omitempty"`   // direct debit mandate reference
	Reference   string `json:"reference,omitempty"` // remittance information
}

// DocumentReference is an additional supporting document (BG-24). TypeCode
// is UNTDID 1001: 50 for a project, 916 for a tender or lot, 130 for an
// invoiced object.
type DocumentReference struct {
	ID       string `json:"id"`
	TypeCode string `json:"type_code,omitempty"`
	URI      string `json:"uri,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Project is the procuring project of a public procurement invoice
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Note is a free text note with an optional subject code (UNTDID 4451)
type Note struct {
	SubjectCode string `json:"subject_code,omitempty"`
	Content     string `json:"content"`
}

// Totals are the document level monetary totals
type Totals struct {
	LineTotal      decimal.Decimal `json:"line_total"`
	AllowanceTotal decimal.Decimal `json:"allowance_total"`
	ChargeTotal    decimal.Decimal `json:"charge_total"`
	TaxExclusive   decimal.Decimal `json:"tax_exclusive"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	TaxInclusive   decimal.Decimal `json:"tax_inclusive"`
	Prepaid        decimal.Decimal `json:"prepaid"`
	Payable        decimal.Decimal `json:"payable"`
}

// TaxBreakdown is one VAT breakdown entry of the document
type TaxBreakdown struct {
	Category        string          `json:"category"`
	Rate            decimal.Decimal `json:"rate"`
	Base            decimal.Decimal `json:"base"`
	Amount          decimal.Decimal `json:"amount"`
	ExemptionCode   string          `json:"exemption_code,omitempty"`
	ExemptionReason string          `json:"exemption_reason,omitempty"`
}

// IsRefund returns true for credit notes
func (inv *Invoice) IsRefund() bool {
	return inv.Type == DocumentTypeRefund
}

// HasDeliveryInformation returns true when a delivery date or a complete
// invoicing period is present
func (inv *Invoice) HasDeliveryInformation() bool {
	if !inv.DeliveryDate.IsZero() {
		return true
	}
	return inv.InvoicePeriod != nil && !inv.InvoicePeriod.Start.IsZero() && !inv.InvoicePeriod.End.IsZero()
}

// DeliveryParty returns the shipping party, falling back to the customer
func (inv *Invoice) DeliveryParty() *Party {
	if inv.Shipping != nil {
		return inv.Shipping
	}
	return &inv.Customer
}

// IsPercent returns true for percentage taxes
func (t Tax) IsPercent() bool {
	return t.Kind == "" || t.Kind == TaxKindPercent
}

// PercentTaxes returns the line's non-fixed percentage taxes
func (l Line) PercentTaxes() []Tax {
	var out []Tax
	for _, t := range l.Taxes {
		if t.IsPercent() {
			out = append(out, t)
		}
	}
	return out
}

// FixedTaxes returns the line's fixed amount taxes
func (l Line) FixedTaxes() []Tax {
	var out []Tax
	for _, t := range l.Taxes {
		if !t.IsPercent() {
			out = append(out, t)
		}
	}
	return out
}

// IsEmpty reports whether the address carries no information at all
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.Street2 == "" && a.City == "" && a.Zip == "" && a.Country == "" && a.State == ""
}
