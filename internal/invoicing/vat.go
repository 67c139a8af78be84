package invoicing

import (
	"fmt"
	"sort"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

// VATGroup is one (rate, category) entry of the invoice VAT breakdown.
// Basis and Amount already include the proportional share of the global
// discount when the invoice carries one.
type VATGroup struct {
	Rate            float64
	Category        TaxCategory
	Basis           money.Money
	Amount          money.Money
	ExemptionReason string
}

// VATBreakdown partitions the invoice lines by (rate formatted to 2
// decimals, tax category), then redistributes the global discount
// proportionally to each group basis and re-derives each group VAT from
// its adjusted basis. Rounding happens independently at each stage; the
// two-stage recompute is deliberate and must not be collapsed into a
// prorating of the original rounded VAT amounts.
func (inv *Invoice) VATBreakdown() []VATGroup {
	type key struct {
		rate     string
		category TaxCategory
	}

	groups := make(map[key]*VATGroup)
	var order []key
	for _, line := range inv.Lines {
		k := key{rate: fmt.Sprintf("%.2f", line.VATRate), category: line.TaxCategory}
		g, ok := groups[k]
		if !ok {
			g = &VATGroup{Rate: line.VATRate, Category: line.TaxCategory}
			if line.VATRate == 0 && line.TaxCategory != CategoryStandard {
				g.ExemptionReason = ExemptionReason(line.TaxCategory)
			}
			groups[k] = g
			order = append(order, k)
		}
		g.Basis = g.Basis.Add(line.TotalBeforeVAT())
		g.Amount = g.Amount.Add(line.VATAmount())
	}

	discount := inv.GlobalDiscountAmount()
	if !discount.IsZero() {
		total := inv.SubtotalBeforeDiscount()
		for _, k := range order {
			g := groups[k]
			share := discount.Prorate(g.Basis, total)
			g.Basis = g.Basis.Sub(share)
			g.Amount = g.Basis.MulRate(g.Rate)
		}
	}

	// Deterministic output: rate descending, insertion order breaking ties.
	out := make([]VATGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	return out
}

// SubtotalBeforeDiscount sums line net totals before the global discount.
func (inv *Invoice) SubtotalBeforeDiscount() money.Money {
	var sum money.Money
	for _, line := range inv.Lines {
		sum = sum.Add(line.TotalBeforeVAT())
	}
	return sum
}

// GlobalDiscountAmount resolves the invoice-level discount. A fixed amount
// wins over a rate; a rate applies to the pre-discount subtotal.
func (inv *Invoice) GlobalDiscountAmount() money.Money {
	return inv.GlobalDiscount.AmountOff(inv.SubtotalBeforeDiscount())
}

// SubtotalAfterDiscount is the taxable basis total across all groups.
func (inv *Invoice) SubtotalAfterDiscount() money.Money {
	return inv.SubtotalBeforeDiscount().Sub(inv.GlobalDiscountAmount())
}

// TotalVAT sums the discount-adjusted VAT group amounts.
func (inv *Invoice) TotalVAT() money.Money {
	var sum money.Money
	for _, g := range inv.VATBreakdown() {
		sum = sum.Add(g.Amount)
	}
	return sum
}

// TotalIncludingVAT is the grand total: subtotal after discount plus VAT,
// exact in integer cents.
func (inv *Invoice) TotalIncludingVAT() money.Money {
	return inv.SubtotalAfterDiscount().Add(inv.TotalVAT())
}

// TotalPaid accumulates recorded payments.
func (inv *Invoice) TotalPaid() money.Money {
	var sum money.Money
	for _, p := range inv.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
