package company

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/httpx"
)

// Handler manages company endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies", h.listCompanies)
	r.Post("/companies", h.createCompany)
	r.Get("/companies/{id}", h.getCompany)
}

type createCompanyRequest struct {
	Name      string `json:"name" validate:"required"`
	Street    string `json:"street"`
	Postcode  string `json:"postcode"`
	City      string `json:"city"`
	Country   string `json:"country" validate:"required,len=2"`
	VATNumber string `json:"vat_number"`
	SIREN     string `json:"siren" validate:"omitempty,len=9,numeric"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`

	FiscalYearStartMonth int `json:"fiscal_year_start_month" validate:"omitempty,min=1,max=12"`
	FiscalYearStartDay   int `json:"fiscal_year_start_day" validate:"omitempty,min=1,max=31"`
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.CreateCompany(r.Context(), Company{
		Name:                 req.Name,
		Street:               req.Street,
		Postcode:             req.Postcode,
		City:                 req.City,
		Country:              req.Country,
		VATNumber:            req.VATNumber,
		SIREN:                req.SIREN,
		Email:                req.Email,
		Phone:                req.Phone,
		FiscalYearStartMonth: time.Month(req.FiscalYearStartMonth),
		FiscalYearStartDay:   req.FiscalYearStartDay,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
		return
	}
	c, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("company request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
