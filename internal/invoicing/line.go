package invoicing

import (
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

// Line is one billable invoice line. Quantity is signed: negative
// quantities express returns and credit adjustments.
type Line struct {
	ID          int64
	Description string
	Quantity    float64
	UnitPrice   money.Money
	VATRate     float64
	Discount    Discount
	TaxCategory TaxCategory

	// UnitCode is the UN/ECE Rec 20 quantity unit, e.g. "C62" (unit) or "HUR".
	UnitCode string

	SellerItemID  string
	OriginCountry string
}

// UnitPriceAfterDiscount applies the line discount to the unit price.
// A fixed discount takes priority over a rate discount.
func (l Line) UnitPriceAfterDiscount() money.Money {
	return l.UnitPrice.Sub(l.Discount.AmountOff(l.UnitPrice))
}

// TotalBeforeVAT is quantity x discounted unit price, rounded to cents.
func (l Line) TotalBeforeVAT() money.Money {
	return l.UnitPriceAfterDiscount().MulScalar(l.Quantity)
}

// VATAmount is the line VAT, rounded to cents.
func (l Line) VATAmount() money.Money {
	return l.TotalBeforeVAT().MulRate(l.VATRate)
}

// TotalIncludingVAT is the gross line total.
func (l Line) TotalIncludingVAT() money.Money {
	return l.TotalBeforeVAT().Add(l.VATAmount())
}
