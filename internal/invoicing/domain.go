// Package invoicing owns the invoice aggregate: lines, payments, discounts,
// the status machine and the VAT breakdown used by legal document generation.
package invoicing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

// InvoiceType discriminates invoices from credit notes.
type InvoiceType string

const (
	TypeInvoice    InvoiceType = "INVOICE"
	TypeCreditNote InvoiceType = "CREDIT_NOTE"
)

// InvoiceStatus enumerates the invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusFinalized     InvoiceStatus = "FINALIZED"
	StatusPaid          InvoiceStatus = "PAID"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusCancelled     InvoiceStatus = "CANCELLED"
)

// TaxCategory classifies a line for VAT purposes.
type TaxCategory string

const (
	CategoryStandard      TaxCategory = "STANDARD"
	CategoryExempt        TaxCategory = "EXEMPT"
	CategoryReverseCharge TaxCategory = "REVERSE_CHARGE"
	CategoryIntraEU       TaxCategory = "INTRA_EU"
	CategoryExport        TaxCategory = "EXPORT"
	CategoryNotSubject    TaxCategory = "NOT_SUBJECT"
	CategoryZeroRate      TaxCategory = "ZERO_RATE"
)

// exemptionReasons maps zero-rated non-standard categories to the legal
// mention that must appear on the document.
var exemptionReasons = map[TaxCategory]string{
	CategoryExempt:        "Exonération de TVA",
	CategoryReverseCharge: "Autoliquidation - Article 283 du CGI",
	CategoryIntraEU:       "Livraison intracommunautaire exonérée - Article 262 ter du CGI",
	CategoryExport:        "Exportation exonérée - Article 262 du CGI",
	CategoryNotSubject:    "Opération non soumise à TVA",
	CategoryZeroRate:      "TVA à taux zéro",
}

// ExemptionReason returns the legal exemption mention for a zero-rated
// category, or "" for STANDARD and unknown categories.
func ExemptionReason(c TaxCategory) string {
	return exemptionReasons[c]
}

// ValidTaxCategory reports whether c is one of the known categories.
func ValidTaxCategory(c TaxCategory) bool {
	if c == CategoryStandard {
		return true
	}
	_, ok := exemptionReasons[c]
	return ok
}

// DiscountKind tags the Discount variant.
type DiscountKind int

const (
	DiscountNone DiscountKind = iota
	DiscountRate
	DiscountFixed
)

// Discount is a tagged variant: no discount, a percentage rate, or a fixed
// amount. Modelling it as one variant keeps the fixed-over-rate priority in
// a single place instead of two nullable fields.
type Discount struct {
	Kind   DiscountKind
	Rate   float64
	Amount money.Money
}

// NoDiscount is the absent discount.
var NoDiscount = Discount{Kind: DiscountNone}

// RateDiscount builds a percentage discount.
func RateDiscount(rate float64) Discount {
	return Discount{Kind: DiscountRate, Rate: rate}
}

// FixedDiscount builds a fixed-amount discount.
func FixedDiscount(amount money.Money) Discount {
	return Discount{Kind: DiscountFixed, Amount: amount}
}

// DiscountFrom maps two optional inputs to the variant. A fixed amount
// always wins over a simultaneously supplied rate.
func DiscountFrom(rate *float64, amount *money.Money) Discount {
	switch {
	case amount != nil:
		return FixedDiscount(*amount)
	case rate != nil:
		return RateDiscount(*rate)
	default:
		return NoDiscount
	}
}

// AmountOff resolves the discount against a base amount.
func (d Discount) AmountOff(base money.Money) money.Money {
	switch d.Kind {
	case DiscountFixed:
		return d.Amount
	case DiscountRate:
		return base.MulRate(d.Rate)
	default:
		return money.Zero
	}
}

// Address is a structured postal address.
type Address struct {
	Street   string
	Postcode string
	City     string
	Country  string
}

// PartySnapshot denormalizes the seller or customer as of issuance.
// Snapshots are plain values: later master-data edits must not alter a
// finalized document.
type PartySnapshot struct {
	Name      string
	Address   Address
	VATNumber string
	SIREN     string
	Email     string
	Phone     string
}

// Payment records money received against an invoice. Amounts may be
// negative (refund correction) or exceed the balance.
type Payment struct {
	ID        int64
	Amount    money.Money
	PaidAt    time.Time
	Method    string
	Reference string
	Notes     string
}

// Invoice is the aggregate root. Lines are append-only while DRAFT and
// owned exclusively by this invoice.
type Invoice struct {
	ID       int64
	PublicID uuid.UUID
	Type     InvoiceType
	Status   InvoiceStatus
	Number   string

	Date    time.Time
	DueDate time.Time

	CompanyID *int64
	Seller    PartySnapshot
	Customer  PartySnapshot

	Lines    []Line
	Payments []Payment

	GlobalDiscount Discount
	Currency       string

	BuyerReference      string
	PurchaseOrderRef    string
	AccountingReference string
	OperationCategory   string
	VATOnDebits         bool
	PaymentTermsNote    string

	DeliveryAddress *Address
	DeliveryDate    *time.Time

	// CreditedInvoiceNumber back-references the invoice a credit note corrects.
	CreditedInvoiceNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sentinel errors surfaced to callers; the HTTP layer maps them onto
// problem-details responses.
var (
	ErrNotFound        = errors.New("invoicing: invoice not found")
	ErrInvalidStatus   = errors.New("invoicing: invoice not in required status")
	ErrInvalidInput    = errors.New("invoicing: invalid input")
	ErrUnknownCategory = errors.New("invoicing: unknown tax category")
	ErrUnknownProfile  = errors.New("invoicing: unknown document profile")
)
