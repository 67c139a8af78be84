package invoicing

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*serviceFixture, http.Handler) {
	t.Helper()
	f := newServiceFixture(t, ServiceConfig{})
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.service)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return f, r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out))
	return out
}

func TestHandlerCreateInvoice(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/invoices", `{
		"type": "INVOICE",
		"seller": {"name": "Acme SARL", "address": {"country": "FR"}},
		"customer": {"name": "Client SAS"}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "DRAFT", body["status"])
	require.Equal(t, "EUR", body["currency"])
	require.NotEmpty(t, body["id"])
}

func TestHandlerCreateInvoiceValidation(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/invoices", `{
		"type": "QUOTE",
		"customer": {"name": "Client SAS"}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerAddLineAndTotals(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/lines", `{
		"description": "Denrées",
		"quantity": 2,
		"unit_price": "10.50",
		"vat_rate": 5.5
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	line := decodeBody(t, rec)
	require.Equal(t, "21.00", line["total_before_vat"])
	require.Equal(t, "1.16", line["vat_amount"])
	require.Equal(t, "STANDARD", line["tax_category"])

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+inv.PublicID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "121.00", body["subtotal_before_discount"])
	require.Len(t, body["vat_breakdown"], 2)
}

func TestHandlerAddLineBadDecimal(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/lines", `{
		"description": "Broken",
		"quantity": 1,
		"unit_price": "ten euros"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateDraft(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPatch, "/invoices/"+inv.PublicID.String(), `{
		"global_discount_rate": 5,
		"payment_terms_note": "Paiement à 30 jours"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "5.00", body["global_discount"])
	require.Equal(t, "95.00", body["subtotal_after_discount"])

	// Updates are rejected once finalized.
	doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize", "")
	rec = doJSON(t, router, http.MethodPatch, "/invoices/"+inv.PublicID.String(),
		`{"payment_terms_note": "too late"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerFinalizeFlow(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "FINALIZED", body["status"])
	require.Equal(t, "FA-2025-0001", body["number"])

	// Finalizing twice conflicts.
	rec = doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerFinalizeUnknownProfile(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize",
		`{"profile": "EXTENDED"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetDocument(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+inv.PublicID.String()+"/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	require.Equal(t, "<doc>FA-2025-0001</doc>", rec.Body.String())
}

func TestHandlerDocumentOnDraftConflicts(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodGet, "/invoices/"+inv.PublicID.String()+"/document", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRecordPayment(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)
	doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/finalize", "")

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/payments", `{
		"amount": "120.00",
		"method": "TRANSFER"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+inv.PublicID.String(), "")
	body := decodeBody(t, rec)
	require.Equal(t, "PAID", body["status"])
	require.Equal(t, "120.00", body["total_paid"])
}

func TestHandlerCancelInvoice(t *testing.T) {
	f, router := newTestRouter(t)
	inv := f.createDraft(t, TypeInvoice)

	rec := doJSON(t, router, http.MethodPost, "/invoices/"+inv.PublicID.String()+"/cancel", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+inv.PublicID.String(), "")
	body := decodeBody(t, rec)
	require.Equal(t, "CANCELLED", body["status"])
}

func TestHandlerNotFoundAndBadID(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/invoices/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/2b6c52e0-93ec-4a43-8f3d-000000000000", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListProfiles(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["profiles"], 2)
}
