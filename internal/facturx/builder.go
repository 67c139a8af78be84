package facturx

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

// Builder serializes a finalized invoice into a profile-specific CII
// document. Builders are stateless: everything per-build is local to the
// Build call, so one instance can serve concurrent requests.
type Builder interface {
	Build(inv *invoicing.Invoice) ([]byte, error)
	Profile() Profile
	Supports(p Profile) bool
}

// typeCodes maps invoice types to UNCL1001 document type codes.
var typeCodes = map[invoicing.InvoiceType]string{
	invoicing.TypeInvoice:    "380",
	invoicing.TypeCreditNote: "381",
}

// categoryCodes maps tax categories to UNCL5305 duty/tax category codes.
var categoryCodes = map[invoicing.TaxCategory]string{
	invoicing.CategoryStandard:      "S",
	invoicing.CategoryExempt:        "E",
	invoicing.CategoryReverseCharge: "AE",
	invoicing.CategoryIntraEU:       "K",
	invoicing.CategoryExport:        "G",
	invoicing.CategoryNotSubject:    "O",
	invoicing.CategoryZeroRate:      "Z",
}

const (
	taxTypeVAT      = "VAT"
	vatSchemeID     = "VA"
	businessProcess = "A1"
	defaultUnitCode = "C62"
)

// buildOptions select the extra elements a richer profile requires.
type buildOptions struct {
	profile Profile
	// structuredAddresses emits postcode/street/city as separate elements
	// instead of a single address line.
	structuredAddresses bool
	// contacts emits seller phone/email and buyer email blocks.
	contacts bool
	// lineItemDetails emits per-line seller item ID and origin country.
	lineItemDetails bool
	// taxRegistrations emits seller/buyer VAT IDs under scheme VA.
	taxRegistrations bool
}

// build assembles the document tree and marshals it. The line identifier
// is a local counter starting at 1 on every call.
func build(inv *invoicing.Invoice, opts buildOptions) ([]byte, error) {
	typeCode, ok := typeCodes[inv.Type]
	if !ok {
		return nil, fmt.Errorf("facturx: unknown invoice type %q", inv.Type)
	}
	guideline, err := opts.profile.GuidelineURN()
	if err != nil {
		return nil, err
	}

	doc := crossIndustryInvoice{
		XmlnsRSM: nsRSM,
		XmlnsRAM: nsRAM,
		XmlnsUDT: nsUDT,
		Context: exchangedDocumentContext{
			BusinessProcess: &documentContextParameter{ID: businessProcess},
			Guideline:       documentContextParameter{ID: guideline},
		},
		Document: exchangedDocument{
			ID:            inv.Number,
			TypeCode:      typeCode,
			IssueDateTime: formatDate(inv.Date),
		},
	}
	if inv.PaymentTermsNote != "" {
		doc.Document.IncludedNote = &note{Content: inv.PaymentTermsNote}
	}

	lineID := 0
	for _, line := range inv.Lines {
		lineID++
		doc.Transaction.LineItems = append(doc.Transaction.LineItems, buildLineItem(lineID, line, opts))
	}

	doc.Transaction.Agreement = headerTradeAgreement{
		BuyerReference: inv.BuyerReference,
		Seller:         buildParty(inv.Seller, opts, true),
		Buyer:          buildParty(inv.Customer, opts, false),
	}
	if inv.PurchaseOrderRef != "" {
		doc.Transaction.Agreement.BuyerOrder = &referencedDocument{IssuerAssignedID: inv.PurchaseOrderRef}
	}

	doc.Transaction.Delivery = buildDelivery(inv)
	doc.Transaction.Settlement = buildSettlement(inv)

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("facturx: marshal document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func buildLineItem(id int, line invoicing.Line, opts buildOptions) tradeLineItem {
	item := tradeLineItem{
		LineDocument: lineDocument{LineID: id},
		Product:      tradeProduct{Name: line.Description},
		Agreement: lineTradeAgreement{
			NetPrice: tradePrice{ChargeAmount: line.UnitPriceAfterDiscount().String()},
		},
		Delivery: lineTradeDelivery{
			BilledQuantity: quantity{UnitCode: unitCode(line.UnitCode), Value: formatQuantity(line.Quantity)},
		},
		Settlement: lineTradeSettlement{
			TradeTax: lineTradeTax{
				TypeCode:              taxTypeVAT,
				CategoryCode:          categoryCodes[line.TaxCategory],
				RateApplicablePercent: formatRate(line.VATRate),
			},
			Summation: lineMonetarySummation{LineTotalAmount: line.TotalBeforeVAT().String()},
		},
	}
	if opts.lineItemDetails {
		item.Product.SellerAssignedID = line.SellerItemID
		if line.OriginCountry != "" {
			item.Product.OriginCountry = &tradeCountry{ID: line.OriginCountry}
		}
	}
	return item
}

func buildParty(p invoicing.PartySnapshot, opts buildOptions, seller bool) tradeParty {
	party := tradeParty{Name: p.Name}

	if opts.structuredAddresses {
		party.PostalAddress = &postalAddress{
			PostcodeCode: p.Address.Postcode,
			LineOne:      p.Address.Street,
			CityName:     p.Address.City,
			CountryID:    p.Address.Country,
		}
	} else {
		party.PostalAddress = &postalAddress{
			LineOne:   joinAddress(p.Address),
			CountryID: p.Address.Country,
		}
	}

	if opts.contacts {
		if seller && (p.Phone != "" || p.Email != "") {
			contact := &tradeContact{}
			if p.Phone != "" {
				contact.Telephone = &telephoneContact{CompleteNumber: p.Phone}
			}
			if p.Email != "" {
				contact.Email = &emailContact{URIID: p.Email}
			}
			party.Contact = contact
		}
		if !seller && p.Email != "" {
			party.Contact = &tradeContact{Email: &emailContact{URIID: p.Email}}
		}
	}

	if opts.taxRegistrations && p.VATNumber != "" {
		party.TaxRegistrations = []taxRegistration{
			{ID: schemedID{SchemeID: vatSchemeID, Value: p.VATNumber}},
		}
	}
	return party
}

func buildDelivery(inv *invoicing.Invoice) headerTradeDelivery {
	deliveredAt := inv.Date
	if inv.DeliveryDate != nil {
		deliveredAt = *inv.DeliveryDate
	}
	delivery := headerTradeDelivery{
		ActualDelivery: actualDeliveryEvent{OccurrenceDateTime: formatDate(deliveredAt)},
	}
	if inv.DeliveryAddress != nil {
		delivery.ShipTo = &tradeParty{
			Name: inv.Customer.Name,
			PostalAddress: &postalAddress{
				PostcodeCode: inv.DeliveryAddress.Postcode,
				LineOne:      inv.DeliveryAddress.Street,
				CityName:     inv.DeliveryAddress.City,
				CountryID:    inv.DeliveryAddress.Country,
			},
		}
	}
	return delivery
}

func buildSettlement(inv *invoicing.Invoice) headerTradeSettlement {
	groups := inv.VATBreakdown()
	discount := inv.GlobalDiscountAmount()
	grandTotal := inv.TotalIncludingVAT()

	settlement := headerTradeSettlement{
		InvoiceCurrencyCode: inv.Currency,
		PaymentTerms:        paymentTerms{Description: inv.PaymentTermsNote},
		Summation: monetarySummation{
			LineTotalAmount:     inv.SubtotalBeforeDiscount().String(),
			ChargeTotalAmount:   money.Zero.String(),
			TaxBasisTotalAmount: inv.SubtotalAfterDiscount().String(),
			TaxTotalAmount:      currencyAmount{CurrencyID: inv.Currency, Value: inv.TotalVAT().String()},
			GrandTotalAmount:    grandTotal.String(),
			// No partial-payment offset at document-generation time.
			DuePayableAmount: grandTotal.String(),
		},
	}
	if !inv.DueDate.IsZero() {
		due := formatDate(inv.DueDate)
		settlement.PaymentTerms.DueDate = &due
	}

	for _, g := range groups {
		settlement.TradeTaxes = append(settlement.TradeTaxes, headerTradeTax{
			CalculatedAmount:      g.Amount.String(),
			TypeCode:              taxTypeVAT,
			ExemptionReason:       g.ExemptionReason,
			BasisAmount:           g.Basis.String(),
			CategoryCode:          categoryCodes[g.Category],
			RateApplicablePercent: formatRate(g.Rate),
		})
	}

	if !discount.IsZero() {
		settlement.Summation.AllowanceTotalAmount = discount.String()
		// One allowance per VAT group carrying its proportional share, so
		// the allowance taxes reconcile with the breakdown.
		total := inv.SubtotalBeforeDiscount()
		rawGroups := rawBases(inv)
		for i, g := range groups {
			share := discount.Prorate(rawGroups[i], total)
			if share.IsZero() {
				continue
			}
			settlement.AllowanceCharges = append(settlement.AllowanceCharges, allowanceCharge{
				ChargeIndicator: indicator{Indicator: false},
				ActualAmount:    share.String(),
				Reason:          "Remise globale",
				CategoryTradeTax: &categoryTradeTax{
					TypeCode:              taxTypeVAT,
					CategoryCode:          categoryCodes[g.Category],
					RateApplicablePercent: formatRate(g.Rate),
				},
			})
		}
	}

	if inv.CreditedInvoiceNumber != "" {
		settlement.InvoiceReference = &referencedDocument{IssuerAssignedID: inv.CreditedInvoiceNumber}
	}
	if inv.AccountingReference != "" {
		settlement.AccountingAccount = &accountingReference{ID: inv.AccountingReference}
	}
	return settlement
}

// rawBases recomputes the pre-discount basis per breakdown group, in the
// same order VATBreakdown returns them.
func rawBases(inv *invoicing.Invoice) []money.Money {
	type key struct {
		rate     string
		category invoicing.TaxCategory
	}
	sums := make(map[key]money.Money)
	for _, line := range inv.Lines {
		k := key{rate: formatRate(line.VATRate), category: line.TaxCategory}
		sums[k] = sums[k].Add(line.TotalBeforeVAT())
	}
	groups := inv.VATBreakdown()
	out := make([]money.Money, len(groups))
	for i, g := range groups {
		out[i] = sums[key{rate: formatRate(g.Rate), category: g.Category}]
	}
	return out
}

func formatDate(t time.Time) dateTime {
	return dateTime{DateTimeString: formattedDate{
		Format: dateFormatCCYYMMDD,
		Value:  t.Format("20060102"),
	}}
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f", rate)
}

func formatQuantity(q float64) string {
	return fmt.Sprintf("%g", q)
}

func unitCode(code string) string {
	if code == "" {
		return defaultUnitCode
	}
	return code
}

func joinAddress(a invoicing.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.Postcode, a.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
