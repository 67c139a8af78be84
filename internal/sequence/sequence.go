// Package sequence assigns gap-free sequential invoice numbers scoped by
// (company, document type, fiscal year). Counters live in Postgres and are
// mutated only under a pessimistic row lock inside the caller's
// transaction, so a failed finalize never consumes a number.
package sequence

import (
	"errors"
	"fmt"
	"time"
)

// DocumentType scopes a counter to invoices or credit notes.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "INVOICE"
	DocumentTypeCreditNote DocumentType = "CREDIT_NOTE"
)

// numberPrefixes maps document types to the public number prefix.
var numberPrefixes = map[DocumentType]string{
	DocumentTypeInvoice:    "FA",
	DocumentTypeCreditNote: "AV",
}

// ErrUnknownDocumentType rejects a scope with an unmapped document type.
var ErrUnknownDocumentType = errors.New("sequence: unknown document type")

// Scope identifies one independent counter. A nil CompanyID is the
// mono-company scope: distinct and stable, not a wildcard.
type Scope struct {
	CompanyID    *int64
	DocumentType DocumentType
	FiscalYear   int
}

// Window is the inclusive [start, end] date range of a fiscal year.
type Window struct {
	Start time.Time
	End   time.Time
}

// Row is the persisted counter for one scope.
type Row struct {
	ID         int64
	Scope      Scope
	Window     Window
	LastNumber int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FiscalYearFor computes the fiscal year an invoice date belongs to, given
// the configured fiscal-year start (month, day). A date on or after the
// start belongs to that calendar year's fiscal year; a date before it
// belongs to the previous one.
func FiscalYearFor(date time.Time, startMonth time.Month, startDay int) int {
	start := time.Date(date.Year(), startMonth, startDay, 0, 0, 0, 0, date.Location())
	if date.Before(start) {
		return date.Year() - 1
	}
	return date.Year()
}

// WindowFor returns the inclusive window of a fiscal year.
func WindowFor(fiscalYear int, startMonth time.Month, startDay int) Window {
	start := time.Date(fiscalYear, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	return Window{Start: start, End: end}
}

// Format renders the public invoice number: PREFIX-FISCALYEAR-NNNN, zero
// padded to 4 digits with no truncation beyond (10000 stays 10000).
func Format(scope Scope, number int64) (string, error) {
	prefix, ok := numberPrefixes[scope.DocumentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, scope.DocumentType)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, scope.FiscalYear, number), nil
}
