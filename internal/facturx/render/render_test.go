package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
)

func archivedInvoice() *invoicing.Invoice {
	return &invoicing.Invoice{
		Type:    invoicing.TypeInvoice,
		Status:  invoicing.StatusFinalized,
		Number:  "FA-2025-0001",
		Date:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate: time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC),
		Seller: invoicing.PartySnapshot{
			Name: "Acme SARL",
			Address: invoicing.Address{
				Street: "1 rue de la Paix", Postcode: "75002", City: "Paris", Country: "FR",
			},
			VATNumber: "FR32123456789",
			SIREN:     "123456789",
		},
		Customer: invoicing.PartySnapshot{
			Name: "Client SAS",
			Address: invoicing.Address{
				Street: "8 avenue Foch", Postcode: "69006", City: "Lyon", Country: "FR",
			},
		},
		Lines: []invoicing.Line{{
			Description: "Prestation de conseil",
			Quantity:    1,
			UnitPrice:   money.MustFromString("100.00"),
			VATRate:     20,
			TaxCategory: invoicing.CategoryStandard,
		}},
		Currency:         "EUR",
		PaymentTermsNote: "Paiement à 30 jours",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	payload, err := NewRenderer().Render(archivedInvoice())
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.Equal(t, "%PDF", string(payload[:4]))
}

func TestRenderCreditNote(t *testing.T) {
	inv := archivedInvoice()
	inv.Type = invoicing.TypeCreditNote
	inv.Number = "AV-2025-0001"

	payload, err := NewRenderer().Render(inv)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}

func TestRenderWithDiscountAndExemption(t *testing.T) {
	inv := archivedInvoice()
	inv.GlobalDiscount = invoicing.RateDiscount(10)
	inv.Lines = append(inv.Lines, invoicing.Line{
		Description: "Livraison UE",
		Quantity:    1,
		UnitPrice:   money.MustFromString("50.00"),
		VATRate:     0,
		TaxCategory: invoicing.CategoryIntraEU,
	})

	payload, err := NewRenderer().Render(inv)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}
