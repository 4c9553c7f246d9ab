package codelist

// Payment means codes (UNCL 4461)
const (
	PaymentNotDefined        = "1"
	PaymentCash              = "10"
	PaymentCheque            = "20"
	PaymentCreditTransfer    = "30"
	PaymentDebitTransfer     = "31"
	PaymentBankAccount       = "42"
	PaymentBankCard          = "48"
	PaymentDirectDebit       = "49"
	PaymentStandingAgreement = "57"
	PaymentSEPACredit        = "58"
	PaymentSEPADirectDebit   = "59"
	PaymentMutuallyDefined   = "ZZZ"
)

var paymentMeans = map[string]string{
	PaymentNotDefined:        "Instrument not defined",
	PaymentCash:              "In cash",
	PaymentCheque:            "Cheque",
	PaymentCreditTransfer:    "Credit transfer",
	PaymentDebitTransfer:     "Debit transfer",
	PaymentBankAccount:       "Payment to bank account",
	PaymentBankCard:          "Bank card",
	PaymentDirectDebit:       "Direct debit",
	PaymentStandingAgreement: "Standing agreement",
	PaymentSEPACredit:        "SEPA credit transfer",
	PaymentSEPADirectDebit:   "SEPA direct debit",
	PaymentMutuallyDefined:   "Mutually defined",
}

// IsPaymentMeans reports whether code is a known payment means code
func IsPaymentMeans(code string) bool {
	_, ok := paymentMeans[code]
	return ok
}

// PaymentMeansName returns the description of a payment means code
func PaymentMeansName(code string) string {
	return paymentMeans[code]
}

// RequiresAccount reports whether the payment means needs a payee account (BR-61)
func RequiresAccount(code string) bool {
	return code == PaymentCreditTransfer || code == PaymentSEPACredit
}

// IsDirectDebit reports whether the payment means is a direct debit
func IsDirectDebit(code string) bool {
	return code == PaymentDirectDebit || code == PaymentSEPADirectDebit
}
