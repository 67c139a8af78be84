package invoicing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

func standardLine(desc string, qty float64, unitPrice string, rate float64) Line {
	return Line{
		Description: desc,
		Quantity:    qty,
		UnitPrice:   money.MustFromString(unitPrice),
		VATRate:     rate,
		TaxCategory: CategoryStandard,
	}
}

func TestVATBreakdownSingleRate(t *testing.T) {
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft, Currency: "EUR"}
	require.NoError(t, inv.AddLine(standardLine("Prestation", 1, "100.00", 20)))

	groups := inv.VATBreakdown()
	require.Len(t, groups, 1)
	require.Equal(t, money.MustFromString("100.00"), groups[0].Basis)
	require.Equal(t, money.MustFromString("20.00"), groups[0].Amount)
	require.Equal(t, money.MustFromString("120.00"), inv.TotalIncludingVAT())
}

func TestVATBreakdownGroupsByRateAndCategory(t *testing.T) {
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft}
	require.NoError(t, inv.AddLine(standardLine("A", 1, "40.00", 20)))
	require.NoError(t, inv.AddLine(standardLine("B", 1, "60.00", 20)))
	require.NoError(t, inv.AddLine(standardLine("C", 1, "50.00", 5.5)))

	groups := inv.VATBreakdown()
	require.Len(t, groups, 2)
	require.Equal(t, money.MustFromString("100.00"), groups[0].Basis)
	require.Equal(t, money.MustFromString("20.00"), groups[0].Amount)
	require.Equal(t, money.MustFromString("50.00"), groups[1].Basis)
}

func TestVATBreakdownRateDescendingOrder(t *testing.T) {
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft}
	require.NoError(t, inv.AddLine(standardLine("reduced", 1, "10.00", 5.5)))
	require.NoError(t, inv.AddLine(standardLine("standard", 1, "10.00", 20)))
	require.NoError(t, inv.AddLine(Line{
		Description: "export",
		Quantity:    1,
		UnitPrice:   money.MustFromString("10.00"),
		VATRate:     0,
		TaxCategory: CategoryExport,
	}))

	groups := inv.VATBreakdown()
	require.Len(t, groups, 3)
	require.Equal(t, 20.0, groups[0].Rate)
	require.Equal(t, 5.5, groups[1].Rate)
	require.Equal(t, 0.0, groups[2].Rate)
}

func TestVATBreakdownExemptionReason(t *testing.T) {
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft}
	require.NoError(t, inv.AddLine(Line{
		Description: "intra-EU delivery",
		Quantity:    1,
		UnitPrice:   money.MustFromString("200.00"),
		VATRate:     0,
		TaxCategory: CategoryIntraEU,
	}))

	groups := inv.VATBreakdown()
	require.Len(t, groups, 1)
	require.Equal(t, "Livraison intracommunautaire exonérée - Article 262 ter du CGI", groups[0].ExemptionReason)
	require.True(t, groups[0].Amount.IsZero())
}

func TestVATBreakdownNoReasonForStandardZeroBasis(t *testing.T) {
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft}
	require.NoError(t, inv.AddLine(standardLine("free sample", 1, "0.00", 20)))

	groups := inv.VATBreakdown()
	require.Len(t, groups, 1)
	require.Empty(t, groups[0].ExemptionReason)
}

func TestVATBreakdownGlobalDiscountProration(t *testing.T) {
	inv := &Invoice{
		Type:           TypeInvoice,
		Status:         StatusDraft,
		GlobalDiscount: FixedDiscount(money.MustFromString("15.00")),
	}
	require.NoError(t, inv.AddLine(standardLine("A", 1, "100.00", 20)))
	require.NoError(t, inv.AddLine(standardLine("B", 1, "50.00", 5.5)))

	require.Equal(t, money.MustFromString("150.00"), inv.SubtotalBeforeDiscount())
	require.Equal(t, money.MustFromString("15.00"), inv.GlobalDiscountAmount())
	require.Equal(t, money.MustFromString("135.00"), inv.SubtotalAfterDiscount())

	groups := inv.VATBreakdown()
	require.Len(t, groups, 2)

	// 15.00 split 100:50 across the bases, VAT re-derived per adjusted basis.
	require.Equal(t, money.MustFromString("90.00"), groups[0].Basis)
	require.Equal(t, money.MustFromString("18.00"), groups[0].Amount)
	require.Equal(t, money.MustFromString("45.00"), groups[1].Basis)
	require.Equal(t, money.MustFromString("2.48"), groups[1].Amount) // 45 x 5.5% = 2.475

	require.Equal(t, money.MustFromString("20.48"), inv.TotalVAT())
	require.Equal(t, money.MustFromString("155.48"), inv.TotalIncludingVAT())
}

func TestVATBreakdownFivePercentGlobalDiscount(t *testing.T) {
	inv := &Invoice{
		Type:           TypeInvoice,
		Status:         StatusDraft,
		GlobalDiscount: RateDiscount(5),
	}
	require.NoError(t, inv.AddLine(standardLine("A", 1, "100.00", 20)))
	require.NoError(t, inv.AddLine(standardLine("B", 1, "50.00", 10)))

	require.Equal(t, money.MustFromString("150.00"), inv.SubtotalBeforeDiscount())
	require.Equal(t, money.MustFromString("7.50"), inv.GlobalDiscountAmount())
	require.Equal(t, money.MustFromString("142.50"), inv.SubtotalAfterDiscount())

	groups := inv.VATBreakdown()
	require.Len(t, groups, 2)
	require.Equal(t, money.MustFromString("95.00"), groups[0].Basis)
	require.Equal(t, money.MustFromString("19.00"), groups[0].Amount)
	require.Equal(t, money.MustFromString("47.50"), groups[1].Basis)
	require.Equal(t, money.MustFromString("4.75"), groups[1].Amount)

	require.Equal(t, money.MustFromString("23.75"), inv.TotalVAT())
	require.Equal(t, money.MustFromString("166.25"), inv.TotalIncludingVAT())
}

func TestVATBreakdownGlobalRateDiscount(t *testing.T) {
	inv := &Invoice{
		Type:           TypeInvoice,
		Status:         StatusDraft,
		GlobalDiscount: RateDiscount(10),
	}
	require.NoError(t, inv.AddLine(standardLine("A", 1, "200.00", 20)))

	require.Equal(t, money.MustFromString("20.00"), inv.GlobalDiscountAmount())
	groups := inv.VATBreakdown()
	require.Equal(t, money.MustFromString("180.00"), groups[0].Basis)
	require.Equal(t, money.MustFromString("36.00"), groups[0].Amount)
}

func TestVATBreakdownInvariants(t *testing.T) {
	inv := &Invoice{
		Type:           TypeInvoice,
		Status:         StatusDraft,
		GlobalDiscount: FixedDiscount(money.MustFromString("10.00")),
	}
	require.NoError(t, inv.AddLine(standardLine("A", 3, "33.33", 20)))
	require.NoError(t, inv.AddLine(standardLine("B", 1, "66.67", 10)))
	require.NoError(t, inv.AddLine(standardLine("C", 2, "12.34", 5.5)))

	groups := inv.VATBreakdown()

	var bases, vat money.Money
	for _, g := range groups {
		bases = bases.Add(g.Basis)
		vat = vat.Add(g.Amount)
	}
	require.Equal(t, inv.SubtotalAfterDiscount(), bases)
	require.Equal(t, inv.TotalVAT(), vat)
	require.Equal(t, inv.SubtotalAfterDiscount().Add(vat), inv.TotalIncludingVAT())
}

func TestLineDiscountFixedWinsOverRate(t *testing.T) {
	line := Line{
		Description: "discounted",
		Quantity:    1,
		UnitPrice:   money.MustFromString("100.00"),
		VATRate:     20,
		TaxCategory: CategoryStandard,
		Discount: Discount{
			Kind:   DiscountFixed,
			Rate:   50, // ignored, fixed wins
			Amount: money.MustFromString("5.00"),
		},
	}
	require.Equal(t, money.MustFromString("95.00"), line.UnitPriceAfterDiscount())
	require.Equal(t, money.MustFromString("95.00"), line.TotalBeforeVAT())
}

func TestDiscountFromPrefersAmount(t *testing.T) {
	rate := 10.0
	amount := money.MustFromString("7.50")

	d := DiscountFrom(&rate, &amount)
	require.Equal(t, DiscountFixed, d.Kind)
	require.Equal(t, amount, d.AmountOff(money.MustFromString("100.00")))

	d = DiscountFrom(&rate, nil)
	require.Equal(t, DiscountRate, d.Kind)
	require.Equal(t, money.MustFromString("10.00"), d.AmountOff(money.MustFromString("100.00")))

	d = DiscountFrom(nil, nil)
	require.Equal(t, DiscountNone, d.Kind)
	require.True(t, d.AmountOff(money.MustFromString("100.00")).IsZero())
}

func TestLineRateDiscountAndNegativeQuantity(t *testing.T) {
	line := Line{
		Description: "returned goods",
		Quantity:    -2,
		UnitPrice:   money.MustFromString("10.00"),
		VATRate:     20,
		TaxCategory: CategoryStandard,
		Discount:    RateDiscount(10),
	}
	require.Equal(t, money.MustFromString("9.00"), line.UnitPriceAfterDiscount())
	require.Equal(t, money.MustFromString("-18.00"), line.TotalBeforeVAT())
	require.Equal(t, money.MustFromString("-3.60"), line.VATAmount())
	require.Equal(t, money.MustFromString("-21.60"), line.TotalIncludingVAT())
}
