package invoicing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/httpx"
)

// defaultProfile is used when a document request names no profile.
const defaultProfile = "BASIC"

// Handler manages invoicing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoicing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.listInvoices)
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Patch("/invoices/{id}", h.updateInvoice)
	r.Post("/invoices/{id}/lines", h.addLine)
	r.Post("/invoices/{id}/finalize", h.finalizeInvoice)
	r.Post("/invoices/{id}/payments", h.recordPayment)
	r.Post("/invoices/{id}/cancel", h.cancelInvoice)
	r.Get("/invoices/{id}/document", h.getDocument)
	r.Get("/profiles", h.listProfiles)
}

// --- Request and response shapes ---

type addressPayload struct {
	Street   string `json:"street"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Country  string `json:"country" validate:"omitempty,len=2"`
}

type partyPayload struct {
	Name      string         `json:"name" validate:"required"`
	Address   addressPayload `json:"address"`
	VATNumber string         `json:"vat_number"`
	SIREN     string         `json:"siren"`
	Email     string         `json:"email" validate:"omitempty,email"`
	Phone     string         `json:"phone"`
}

type createInvoiceRequest struct {
	Type      string        `json:"type" validate:"required,oneof=INVOICE CREDIT_NOTE"`
	Date      time.Time     `json:"date"`
	DueDate   time.Time     `json:"due_date"`
	Currency  string        `json:"currency" validate:"omitempty,len=3"`
	CompanyID *int64        `json:"company_id"`
	Seller    *partyPayload `json:"seller"`
	Customer  partyPayload  `json:"customer" validate:"required"`

	GlobalDiscountRate   *float64 `json:"global_discount_rate" validate:"omitempty,gte=0,lte=100"`
	GlobalDiscountAmount *string  `json:"global_discount_amount"`

	BuyerReference        string          `json:"buyer_reference"`
	PurchaseOrderRef      string          `json:"purchase_order_ref"`
	AccountingReference   string          `json:"accounting_reference"`
	OperationCategory     string          `json:"operation_category"`
	VATOnDebits           bool            `json:"vat_on_debits"`
	PaymentTermsNote      string          `json:"payment_terms_note"`
	DeliveryAddress       *addressPayload `json:"delivery_address"`
	DeliveryDate          *time.Time      `json:"delivery_date"`
	CreditedInvoiceNumber string          `json:"credited_invoice_number"`
}

type updateInvoiceRequest struct {
	Date     *time.Time    `json:"date"`
	DueDate  *time.Time    `json:"due_date"`
	Currency *string       `json:"currency" validate:"omitempty,len=3"`
	Customer *partyPayload `json:"customer"`

	GlobalDiscountRate   *float64 `json:"global_discount_rate" validate:"omitempty,gte=0,lte=100"`
	GlobalDiscountAmount *string  `json:"global_discount_amount"`
	ClearGlobalDiscount  bool     `json:"clear_global_discount"`

	BuyerReference        *string         `json:"buyer_reference"`
	PurchaseOrderRef      *string         `json:"purchase_order_ref"`
	AccountingReference   *string         `json:"accounting_reference"`
	OperationCategory     *string         `json:"operation_category"`
	VATOnDebits           *bool           `json:"vat_on_debits"`
	PaymentTermsNote      *string         `json:"payment_terms_note"`
	DeliveryAddress       *addressPayload `json:"delivery_address"`
	DeliveryDate          *time.Time      `json:"delivery_date"`
	CreditedInvoiceNumber *string         `json:"credited_invoice_number"`
}

type addLineRequest struct {
	Description    string   `json:"description" validate:"required"`
	Quantity       float64  `json:"quantity" validate:"required"`
	UnitPrice      string   `json:"unit_price" validate:"required"`
	VATRate        float64  `json:"vat_rate" validate:"gte=0,lte=100"`
	DiscountRate   *float64 `json:"discount_rate" validate:"omitempty,gte=0,lte=100"`
	DiscountAmount *string  `json:"discount_amount"`
	TaxCategory    string   `json:"tax_category"`
	UnitCode       string   `json:"unit_code"`
	SellerItemID   string   `json:"seller_item_id"`
	OriginCountry  string   `json:"origin_country" validate:"omitempty,len=2"`
}

type recordPaymentRequest struct {
	Amount    string    `json:"amount" validate:"required"`
	PaidAt    time.Time `json:"paid_at"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	Notes     string    `json:"notes"`
}

type finalizeRequest struct {
	Profile string `json:"profile"`
}

type lineResponse struct {
	ID            int64       `json:"id"`
	Description   string      `json:"description"`
	Quantity      float64     `json:"quantity"`
	UnitPrice     money.Money `json:"unit_price"`
	VATRate       float64     `json:"vat_rate"`
	TaxCategory   TaxCategory `json:"tax_category"`
	UnitCode      string      `json:"unit_code,omitempty"`
	SellerItemID  string      `json:"seller_item_id,omitempty"`
	OriginCountry string      `json:"origin_country,omitempty"`

	TotalBeforeVAT money.Money `json:"total_before_vat"`
	VATAmount      money.Money `json:"vat_amount"`
	TotalIncVAT    money.Money `json:"total_including_vat"`
}

type vatGroupResponse struct {
	Rate            float64     `json:"rate"`
	Category        TaxCategory `json:"category"`
	Basis           money.Money `json:"basis"`
	Amount          money.Money `json:"amount"`
	ExemptionReason string      `json:"exemption_reason,omitempty"`
}

type paymentResponse struct {
	ID        int64       `json:"id"`
	Amount    money.Money `json:"amount"`
	PaidAt    time.Time   `json:"paid_at"`
	Method    string      `json:"method,omitempty"`
	Reference string      `json:"reference,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

type invoiceResponse struct {
	PublicID uuid.UUID     `json:"id"`
	Type     InvoiceType   `json:"type"`
	Status   InvoiceStatus `json:"status"`
	Number   string        `json:"number,omitempty"`
	Date     time.Time     `json:"date"`
	DueDate  time.Time     `json:"due_date"`
	Currency string        `json:"currency"`

	Seller   partyPayload `json:"seller"`
	Customer partyPayload `json:"customer"`

	Lines    []lineResponse    `json:"lines"`
	Payments []paymentResponse `json:"payments,omitempty"`

	SubtotalBeforeDiscount money.Money        `json:"subtotal_before_discount"`
	GlobalDiscount         money.Money        `json:"global_discount"`
	SubtotalAfterDiscount  money.Money        `json:"subtotal_after_discount"`
	VATBreakdown           []vatGroupResponse `json:"vat_breakdown"`
	TotalVAT               money.Money        `json:"total_vat"`
	TotalIncludingVAT      money.Money        `json:"total_including_vat"`
	TotalPaid              money.Money        `json:"total_paid"`

	BuyerReference        string     `json:"buyer_reference,omitempty"`
	PurchaseOrderRef      string     `json:"purchase_order_ref,omitempty"`
	AccountingReference   string     `json:"accounting_reference,omitempty"`
	OperationCategory     string     `json:"operation_category,omitempty"`
	VATOnDebits           bool       `json:"vat_on_debits,omitempty"`
	PaymentTermsNote      string     `json:"payment_terms_note,omitempty"`
	DeliveryDate          *time.Time `json:"delivery_date,omitempty"`
	CreditedInvoiceNumber string     `json:"credited_invoice_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Endpoints ---

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateInvoiceInput{
		Type:                  InvoiceType(req.Type),
		Date:                  req.Date,
		DueDate:               req.DueDate,
		Currency:              req.Currency,
		CompanyID:             req.CompanyID,
		Customer:              partyFromPayload(req.Customer),
		GlobalDiscountRate:    req.GlobalDiscountRate,
		BuyerReference:        req.BuyerReference,
		PurchaseOrderRef:      req.PurchaseOrderRef,
		AccountingReference:   req.AccountingReference,
		OperationCategory:     req.OperationCategory,
		VATOnDebits:           req.VATOnDebits,
		PaymentTermsNote:      req.PaymentTermsNote,
		DeliveryDate:          req.DeliveryDate,
		CreditedInvoiceNumber: req.CreditedInvoiceNumber,
	}
	if req.Seller != nil {
		input.Seller = partyFromPayload(*req.Seller)
	}
	if req.DeliveryAddress != nil {
		a := addressFromPayload(*req.DeliveryAddress)
		input.DeliveryAddress = &a
	}
	if req.GlobalDiscountAmount != nil {
		amount, err := money.FromString(*req.GlobalDiscountAmount)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "global_discount_amount: invalid decimal")
			return
		}
		input.GlobalDiscountAmount = &amount
	}

	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListInvoicesRequest{
		Status:       InvoiceStatus(q.Get("status")),
		Type:         InvoiceType(q.Get("type")),
		CustomerName: q.Get("customer"),
		Limit:        100,
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.FromDate = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.ToDate = t
		}
	}
	if q.Get("overdue") == "true" {
		req.OverdueAt = time.Now()
	}

	invoices, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, toInvoiceResponse(&invoices[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": resp})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}

	var req updateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := UpdateDraftInput{
		Date:                  req.Date,
		DueDate:               req.DueDate,
		Currency:              req.Currency,
		ClearGlobalDiscount:   req.ClearGlobalDiscount,
		GlobalDiscountRate:    req.GlobalDiscountRate,
		BuyerReference:        req.BuyerReference,
		PurchaseOrderRef:      req.PurchaseOrderRef,
		AccountingReference:   req.AccountingReference,
		OperationCategory:     req.OperationCategory,
		VATOnDebits:           req.VATOnDebits,
		PaymentTermsNote:      req.PaymentTermsNote,
		DeliveryDate:          req.DeliveryDate,
		CreditedInvoiceNumber: req.CreditedInvoiceNumber,
	}
	if req.Customer != nil {
		customer := partyFromPayload(*req.Customer)
		input.Customer = &customer
	}
	if req.DeliveryAddress != nil {
		a := addressFromPayload(*req.DeliveryAddress)
		input.DeliveryAddress = &a
	}
	if req.GlobalDiscountAmount != nil {
		amount, err := money.FromString(*req.GlobalDiscountAmount)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "global_discount_amount: invalid decimal")
			return
		}
		input.GlobalDiscountAmount = &amount
	}

	inv, err := h.service.UpdateDraft(r.Context(), id, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	unitPrice, err := money.FromString(req.UnitPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unit_price: invalid decimal")
		return
	}
	var discountAmount *money.Money
	if req.DiscountAmount != nil {
		amount, err := money.FromString(*req.DiscountAmount)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "discount_amount: invalid decimal")
			return
		}
		discountAmount = &amount
	}

	category := TaxCategory(req.TaxCategory)
	if req.TaxCategory == "" {
		category = CategoryStandard
	}

	line := Line{
		Description:   req.Description,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		VATRate:       req.VATRate,
		Discount:      DiscountFrom(req.DiscountRate, discountAmount),
		TaxCategory:   category,
		UnitCode:      req.UnitCode,
		SellerItemID:  req.SellerItemID,
		OriginCountry: req.OriginCountry,
	}

	created, err := h.service.AddLine(r.Context(), id, line)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLineResponse(*created))
}

func (h *Handler) finalizeInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}

	var req finalizeRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
	}
	if req.Profile == "" {
		req.Profile = defaultProfile
	}

	inv, _, err := h.service.Finalize(r.Context(), id, req.Profile)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logger.Info("invoice finalized",
		slog.String("invoice_id", inv.PublicID.String()),
		slog.String("number", inv.Number),
		slog.String("profile", req.Profile))
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := money.FromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount: invalid decimal")
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), id, Payment{
		Amount:    amount,
		PaidAt:    req.PaidAt,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, paymentResponse{
		ID:        payment.ID,
		Amount:    payment.Amount,
		PaidAt:    payment.PaidAt,
		Method:    payment.Method,
		Reference: payment.Reference,
		Notes:     payment.Notes,
	})
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelInvoice(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicID(w, r)
	if !ok {
		return
	}
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = defaultProfile
	}

	document, err := h.service.Document(r.Context(), id, profile)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": h.service.SupportedProfiles()})
}

// --- Helpers ---

func (h *Handler) publicID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrUnknownProfile):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("invoicing request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func partyFromPayload(p partyPayload) PartySnapshot {
	return PartySnapshot{
		Name:      p.Name,
		Address:   addressFromPayload(p.Address),
		VATNumber: p.VATNumber,
		SIREN:     p.SIREN,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

func addressFromPayload(a addressPayload) Address {
	return Address{Street: a.Street, Postcode: a.Postcode, City: a.City, Country: a.Country}
}

func toPartyPayload(p PartySnapshot) partyPayload {
	return partyPayload{
		Name: p.Name,
		Address: addressPayload{
			Street:   p.Address.Street,
			Postcode: p.Address.Postcode,
			City:     p.Address.City,
			Country:  p.Address.Country,
		},
		VATNumber: p.VATNumber,
		SIREN:     p.SIREN,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

func toLineResponse(l Line) lineResponse {
	return lineResponse{
		ID:             l.ID,
		Description:    l.Description,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		VATRate:        l.VATRate,
		TaxCategory:    l.TaxCategory,
		UnitCode:       l.UnitCode,
		SellerItemID:   l.SellerItemID,
		OriginCountry:  l.OriginCountry,
		TotalBeforeVAT: l.TotalBeforeVAT(),
		VATAmount:      l.VATAmount(),
		TotalIncVAT:    l.TotalIncludingVAT(),
	}
}

func toInvoiceResponse(inv *Invoice) invoiceResponse {
	resp := invoiceResponse{
		PublicID: inv.PublicID,
		Type:     inv.Type,
		Status:   inv.Status,
		Number:   inv.Number,
		Date:     inv.Date,
		DueDate:  inv.DueDate,
		Currency: inv.Currency,
		Seller:   toPartyPayload(inv.Seller),
		Customer: toPartyPayload(inv.Customer),

		SubtotalBeforeDiscount: inv.SubtotalBeforeDiscount(),
		GlobalDiscount:         inv.GlobalDiscountAmount(),
		SubtotalAfterDiscount:  inv.SubtotalAfterDiscount(),
		TotalVAT:               inv.TotalVAT(),
		TotalIncludingVAT:      inv.TotalIncludingVAT(),
		TotalPaid:              inv.TotalPaid(),

		BuyerReference:        inv.BuyerReference,
		PurchaseOrderRef:      inv.PurchaseOrderRef,
		AccountingReference:   inv.AccountingReference,
		OperationCategory:     inv.OperationCategory,
		VATOnDebits:           inv.VATOnDebits,
		PaymentTermsNote:      inv.PaymentTermsNote,
		DeliveryDate:          inv.DeliveryDate,
		CreditedInvoiceNumber: inv.CreditedInvoiceNumber,

		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}

	resp.Lines = make([]lineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, toLineResponse(l))
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:        p.ID,
			Amount:    p.Amount,
			PaidAt:    p.PaidAt,
			Method:    p.Method,
			Reference: p.Reference,
			Notes:     p.Notes,
		})
	}
	for _, g := range inv.VATBreakdown() {
		resp.VATBreakdown = append(resp.VATBreakdown, vatGroupResponse{
			Rate:            g.Rate,
			Category:        g.Category,
			Basis:           g.Basis,
			Amount:          g.Amount,
			ExemptionReason: g.ExemptionReason,
		})
	}
	return resp
}
