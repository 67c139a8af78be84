package invoicing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

func draftInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv := &Invoice{Type: TypeInvoice, Status: StatusDraft, Currency: "EUR"}
	require.NoError(t, inv.AddLine(standardLine("Prestation", 1, "100.00", 20)))
	return inv
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{StatusDraft, StatusFinalized, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusPaid, false},
		{StatusDraft, StatusPartiallyPaid, false},
		{StatusFinalized, StatusPaid, true},
		{StatusFinalized, StatusPartiallyPaid, true},
		{StatusFinalized, StatusDraft, false},
		{StatusFinalized, StatusCancelled, false},
		{StatusPartiallyPaid, StatusPaid, true},
		{StatusPartiallyPaid, StatusCancelled, false},
		{StatusPaid, StatusPartiallyPaid, true},
		{StatusPaid, StatusCancelled, false},
		{StatusCancelled, StatusFinalized, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tc := range tests {
		inv := &Invoice{Status: tc.from}
		require.Equal(t, tc.allowed, inv.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAddLineOnlyWhileDraft(t *testing.T) {
	inv := draftInvoice(t)
	require.NoError(t, inv.Finalize("FA-2025-0001", time.Now()))

	err := inv.AddLine(standardLine("late line", 1, "10.00", 20))
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Len(t, inv.Lines, 1)
}

func TestAddLineRejectsUnknownCategory(t *testing.T) {
	inv := &Invoice{Status: StatusDraft}
	err := inv.AddLine(Line{
		Description: "bad",
		Quantity:    1,
		UnitPrice:   money.MustFromString("10.00"),
		TaxCategory: TaxCategory("MYSTERY"),
	})
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestFinalizeStampsNumber(t *testing.T) {
	inv := draftInvoice(t)
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, inv.Finalize("FA-2025-0042", at))
	require.Equal(t, StatusFinalized, inv.Status)
	require.Equal(t, "FA-2025-0042", inv.Number)
	require.Equal(t, at, inv.UpdatedAt)

	err := inv.Finalize("FA-2025-0043", at)
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Equal(t, "FA-2025-0042", inv.Number)
}

func TestCancelOnlyFromDraft(t *testing.T) {
	inv := draftInvoice(t)
	require.NoError(t, inv.Cancel())
	require.Equal(t, StatusCancelled, inv.Status)

	finalized := draftInvoice(t)
	require.NoError(t, finalized.Finalize("FA-2025-0001", time.Now()))
	require.ErrorIs(t, finalized.Cancel(), ErrInvalidStatus)
}

func TestRecordPaymentRequiresFinalized(t *testing.T) {
	inv := draftInvoice(t)
	err := inv.RecordPayment(Payment{Amount: money.MustFromString("50.00"), PaidAt: time.Now()})
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Empty(t, inv.Payments)
}

func TestRecordPaymentDerivesStatus(t *testing.T) {
	inv := draftInvoice(t) // total 120.00
	require.NoError(t, inv.Finalize("FA-2025-0001", time.Now()))

	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("50.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusPartiallyPaid, inv.Status)

	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("70.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusPaid, inv.Status)
	require.Equal(t, money.MustFromString("120.00"), inv.TotalPaid())
}

func TestRecordPaymentOverpaymentStaysPaid(t *testing.T) {
	inv := draftInvoice(t)
	require.NoError(t, inv.Finalize("FA-2025-0001", time.Now()))

	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("150.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusPaid, inv.Status)
}

func TestRecordPaymentNegativeCorrection(t *testing.T) {
	inv := draftInvoice(t)
	require.NoError(t, inv.Finalize("FA-2025-0001", time.Now()))

	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("120.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusPaid, inv.Status)

	// A refund correction drops the balance back under the total.
	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("-20.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusPartiallyPaid, inv.Status)
	require.Equal(t, money.MustFromString("100.00"), inv.TotalPaid())

	// Refunding everything reverts to FINALIZED.
	require.NoError(t, inv.RecordPayment(Payment{Amount: money.MustFromString("-100.00"), PaidAt: time.Now()}))
	require.Equal(t, StatusFinalized, inv.Status)
}
