// Package company holds issuing-company master data: identity, legal
// identifiers and fiscal-year configuration.
package company

import (
	"time"
)

// Company represents an issuing company.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Street    string    `json:"street"`
	Postcode  string    `json:"postcode"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	VATNumber string    `json:"vat_number"`
	SIREN     string    `json:"siren"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`

	// Fiscal year start; defaults to January 1st.
	FiscalYearStartMonth time.Month `json:"fiscal_year_start_month"`
	FiscalYearStartDay   int        `json:"fiscal_year_start_day"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FiscalYearStart normalizes the configured start, defaulting to Jan 1.
func (c Company) FiscalYearStart() (time.Month, int) {
	month := c.FiscalYearStartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	day := c.FiscalYearStartDay
	if day < 1 || day > 31 {
		day = 1
	}
	return month, day
}
