package invoicing

import (
	"fmt"
	"time"
)

// allowedTransitions encodes the status machine. Any transition absent
// from the table is rejected.
var allowedTransitions = map[InvoiceStatus][]InvoiceStatus{
	StatusDraft:         {StatusFinalized, StatusCancelled},
	StatusFinalized:     {StatusPaid, StatusPartiallyPaid},
	StatusPartiallyPaid: {StatusPaid, StatusPartiallyPaid},
	StatusPaid:          {StatusPartiallyPaid, StatusPaid},
}

// CanTransition reports whether the invoice may move to the target status.
func (inv *Invoice) CanTransition(target InvoiceStatus) bool {
	for _, next := range allowedTransitions[inv.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// transition moves the invoice to target or fails with ErrInvalidStatus.
func (inv *Invoice) transition(target InvoiceStatus) error {
	if !inv.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, inv.Status, target)
	}
	inv.Status = target
	return nil
}

// IsDraft reports whether the invoice is still mutable.
func (inv *Invoice) IsDraft() bool {
	return inv.Status == StatusDraft
}

// AddLine appends a line to a draft invoice. Lines are append-only and
// rejected once the invoice left DRAFT.
func (inv *Invoice) AddLine(line Line) error {
	if !inv.IsDraft() {
		return fmt.Errorf("%w: lines frozen after %s", ErrInvalidStatus, inv.Status)
	}
	if !ValidTaxCategory(line.TaxCategory) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, line.TaxCategory)
	}
	inv.Lines = append(inv.Lines, line)
	return nil
}

// Finalize stamps the assigned number and leaves DRAFT. The caller runs
// this inside the same transaction that consumed the sequence number.
func (inv *Invoice) Finalize(number string, at time.Time) error {
	if err := inv.transition(StatusFinalized); err != nil {
		return err
	}
	inv.Number = number
	inv.UpdatedAt = at
	return nil
}

// Cancel abandons a draft invoice. Finalized invoices cannot be cancelled,
// only corrected through a credit note.
func (inv *Invoice) Cancel() error {
	return inv.transition(StatusCancelled)
}

// RecordPayment attaches a payment and re-derives the payment status from
// the accumulated total. Payments never mutate invoice totals.
func (inv *Invoice) RecordPayment(p Payment) error {
	switch inv.Status {
	case StatusFinalized, StatusPartiallyPaid, StatusPaid:
	default:
		return fmt.Errorf("%w: payments require a finalized invoice", ErrInvalidStatus)
	}
	inv.Payments = append(inv.Payments, p)

	paid := inv.TotalPaid()
	switch {
	case paid.Cents() >= inv.TotalIncludingVAT().Cents():
		inv.Status = StatusPaid
	case !paid.IsZero():
		inv.Status = StatusPartiallyPaid
	default:
		inv.Status = StatusFinalized
	}
	return nil
}
