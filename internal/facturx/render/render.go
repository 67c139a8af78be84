// Package render produces the human-readable PDF an archived Factur-X
// invoice embeds its structured data into.
package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
)

// Renderer lays out an invoice on an A4 page.
type Renderer struct{}

// NewRenderer constructs a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the visual PDF for an invoice.
func (r *Renderer) Render(inv *invoicing.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	title := "FACTURE"
	if inv.Type == invoicing.TypeCreditNote {
		title = "AVOIR"
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, tr(inv.Seller.Name))
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	for _, line := range addressLines(inv.Seller) {
		pdf.Cell(0, 5, tr(line))
		pdf.Ln(4)
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 22)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(70, 6, tr(fmt.Sprintf("Numéro : %s", inv.Number)))
	pdf.Cell(70, 6, fmt.Sprintf("Date : %s", inv.Date.Format("02/01/2006")))
	pdf.Ln(6)
	if !inv.DueDate.IsZero() {
		pdf.Cell(70, 6, tr(fmt.Sprintf("Échéance : %s", inv.DueDate.Format("02/01/2006"))))
	}
	pdf.Cell(70, 6, fmt.Sprintf("Devise : %s", inv.Currency))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Client :")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, tr(inv.Customer.Name))
	pdf.Ln(5)
	for _, line := range addressLines(inv.Customer) {
		pdf.Cell(0, 5, tr(line))
		pdf.Ln(4)
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, tr("Qté"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 7, "PU HT", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, "TVA %", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Total HT", "1", 0, "R", true, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, line := range inv.Lines {
		pdf.CellFormat(90, 6, tr(line.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%g", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, line.UnitPrice.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.2f", line.VATRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.TotalBeforeVAT().String(), "1", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	writeTotal := func(label, value string) {
		pdf.CellFormat(125, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, value, "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	writeTotal("Total HT", inv.SubtotalBeforeDiscount().String())
	if discount := inv.GlobalDiscountAmount(); !discount.IsZero() {
		writeTotal("Remise globale", "-"+discount.String())
		writeTotal("Net HT", inv.SubtotalAfterDiscount().String())
	}
	for _, g := range inv.VATBreakdown() {
		writeTotal(fmt.Sprintf("TVA %.2f %%", g.Rate), g.Amount.String())
	}
	pdf.SetFont("Arial", "B", 11)
	writeTotal("Total TTC", inv.TotalIncludingVAT().String())

	pdf.SetFont("Arial", "", 8)
	pdf.Ln(6)
	for _, g := range inv.VATBreakdown() {
		if g.ExemptionReason != "" {
			pdf.Cell(0, 4, tr(g.ExemptionReason))
			pdf.Ln(4)
		}
	}
	if inv.PaymentTermsNote != "" {
		pdf.Cell(0, 4, tr(inv.PaymentTermsNote))
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: output pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addressLines(p invoicing.PartySnapshot) []string {
	var lines []string
	if p.Address.Street != "" {
		lines = append(lines, p.Address.Street)
	}
	if p.Address.Postcode != "" || p.Address.City != "" {
		lines = append(lines, fmt.Sprintf("%s %s", p.Address.Postcode, p.Address.City))
	}
	if p.Address.Country != "" {
		lines = append(lines, p.Address.Country)
	}
	if p.VATNumber != "" {
		lines = append(lines, "TVA : "+p.VATNumber)
	}
	if p.SIREN != "" {
		lines = append(lines, "SIREN : "+p.SIREN)
	}
	return lines
}
