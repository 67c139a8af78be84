package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/company"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/sequence"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, publicID uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	AddLine(ctx context.Context, invoiceID int64, line Line) (*Line, error)
	UpdateDraft(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) error
	RecordPayment(ctx context.Context, invoiceID int64, p Payment, status InvoiceStatus) (*Payment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside the finalize
// transaction. The sequence increment, the number stamp and the status
// transition commit or roll back together.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, publicID uuid.UUID) (*Invoice, error)
	NextSequenceNumber(ctx context.Context, scope sequence.Scope, window sequence.Window) (int64, error)
	MarkFinalized(ctx context.Context, invoiceID int64, number string, at time.Time) error
}

// CompanyPort resolves the issuing company for snapshots and fiscal-year
// configuration.
type CompanyPort interface {
	GetCompany(ctx context.Context, id int64) (*company.Company, error)
}

// DocumentBuilder produces the structured document bytes for one profile.
type DocumentBuilder interface {
	Build(inv *Invoice) ([]byte, error)
}

// DocumentRegistry resolves a builder by profile name. Unknown profiles
// resolve to an error wrapping ErrUnknownProfile.
type DocumentRegistry interface {
	BuilderFor(profile string) (DocumentBuilder, error)
	ProfileNames() []string
}

// DocumentCachePort fronts document generation with a shared cache.
type DocumentCachePort interface {
	Fetch(ctx context.Context, invoiceID uuid.UUID, profile string, loader func(context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, invoiceID uuid.UUID) error
}

// ArchiveEnqueuer schedules background PDF archival after finalize.
type ArchiveEnqueuer interface {
	EnqueueArchive(ctx context.Context, invoiceID uuid.UUID, profile string) error
}

// MetricsPort records domain counters. A nil port is a no-op.
type MetricsPort interface {
	InvoiceFinalized(invoiceType string)
	DocumentBuilt(profile string)
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	Status       InvoiceStatus
	Type         InvoiceType
	CustomerName string
	FromDate     time.Time
	ToDate       time.Time
	OverdueAt    time.Time
	Limit        int
	Offset       int
}

// CreateInvoiceInput carries everything needed to open a draft.
type CreateInvoiceInput struct {
	Type      InvoiceType
	Date      time.Time
	DueDate   time.Time
	Currency  string
	CompanyID *int64
	// Seller is used verbatim in mono-company mode; ignored when
	// CompanyID resolves a company snapshot.
	Seller   PartySnapshot
	Customer PartySnapshot

	GlobalDiscountRate   *float64
	GlobalDiscountAmount *money.Money

	BuyerReference        string
	PurchaseOrderRef      string
	AccountingReference   string
	OperationCategory     string
	VATOnDebits           bool
	PaymentTermsNote      string
	DeliveryAddress       *Address
	DeliveryDate          *time.Time
	CreditedInvoiceNumber string
}

// UpdateDraftInput carries header updates for a draft invoice. Nil fields
// are left untouched; a discount field replaces the variant entirely.
type UpdateDraftInput struct {
	Date     *time.Time
	DueDate  *time.Time
	Currency *string
	Customer *PartySnapshot

	GlobalDiscountRate   *float64
	GlobalDiscountAmount *money.Money
	ClearGlobalDiscount  bool

	BuyerReference        *string
	PurchaseOrderRef      *string
	AccountingReference   *string
	OperationCategory     *string
	VATOnDebits           *bool
	PaymentTermsNote      *string
	DeliveryAddress       *Address
	DeliveryDate          *time.Time
	CreditedInvoiceNumber *string
}

// Service handles invoicing business logic.
type Service struct {
	repo      RepositoryPort
	companies CompanyPort
	registry  DocumentRegistry
	cache     DocumentCachePort
	archiver  ArchiveEnqueuer
	metrics   MetricsPort
	// Fiscal-year start used in mono-company mode.
	fyStartMonth time.Month
	fyStartDay   int
	now          func() time.Time
}

// ServiceConfig carries optional service knobs.
type ServiceConfig struct {
	// Fiscal-year start used when an invoice has no issuing company
	// (mono-company mode). Zero values default to January 1st.
	FiscalYearStartMonth time.Month
	FiscalYearStartDay   int

	// Metrics is optional; nil disables domain counters.
	Metrics MetricsPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, companies CompanyPort, registry DocumentRegistry, cache DocumentCachePort, archiver ArchiveEnqueuer, cfg ServiceConfig) *Service {
	month := cfg.FiscalYearStartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	day := cfg.FiscalYearStartDay
	if day < 1 || day > 31 {
		day = 1
	}
	return &Service{
		repo:         repo,
		companies:    companies,
		registry:     registry,
		cache:        cache,
		archiver:     archiver,
		metrics:      cfg.Metrics,
		fyStartMonth: month,
		fyStartDay:   day,
		now:          time.Now,
	}
}

// CreateInvoice opens a draft invoice with issuance snapshots resolved.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.Type != TypeInvoice && input.Type != TypeCreditNote {
		return nil, fmt.Errorf("%w: invoice type %q", ErrInvalidInput, input.Type)
	}
	if input.Customer.Name == "" {
		return nil, fmt.Errorf("%w: customer name required", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}
	if input.Currency == "" {
		input.Currency = "EUR"
	}

	seller := input.Seller
	if input.CompanyID != nil {
		c, err := s.companies.GetCompany(ctx, *input.CompanyID)
		if err != nil {
			return nil, err
		}
		seller = snapshotFromCompany(c)
	}
	if seller.Name == "" {
		return nil, fmt.Errorf("%w: seller snapshot required", ErrInvalidInput)
	}

	now := s.now()
	inv := &Invoice{
		PublicID:              uuid.New(),
		Type:                  input.Type,
		Status:                StatusDraft,
		Date:                  input.Date,
		DueDate:               input.DueDate,
		CompanyID:             input.CompanyID,
		Seller:                seller,
		Customer:              input.Customer,
		Currency:              input.Currency,
		GlobalDiscount:        DiscountFrom(input.GlobalDiscountRate, input.GlobalDiscountAmount),
		BuyerReference:        input.BuyerReference,
		PurchaseOrderRef:      input.PurchaseOrderRef,
		AccountingReference:   input.AccountingReference,
		OperationCategory:     input.OperationCategory,
		VATOnDebits:           input.VATOnDebits,
		PaymentTermsNote:      input.PaymentTermsNote,
		DeliveryAddress:       input.DeliveryAddress,
		DeliveryDate:          input.DeliveryDate,
		CreditedInvoiceNumber: input.CreditedInvoiceNumber,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	return s.repo.CreateInvoice(ctx, inv)
}

// GetInvoice fetches an invoice with lines and payments.
func (s *Service) GetInvoice(ctx context.Context, publicID uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, publicID)
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, req)
}

// AddLine appends a line to a draft invoice.
func (s *Service) AddLine(ctx context.Context, publicID uuid.UUID, line Line) (*Line, error) {
	inv, err := s.repo.GetInvoice(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if err := inv.AddLine(line); err != nil {
		return nil, err
	}
	return s.repo.AddLine(ctx, inv.ID, line)
}

// UpdateDraft applies header changes to a draft invoice. Finalized
// invoices are immutable apart from payments.
func (s *Service) UpdateDraft(ctx context.Context, publicID uuid.UUID, input UpdateDraftInput) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, fmt.Errorf("%w: updates require DRAFT, got %s", ErrInvalidStatus, inv.Status)
	}

	if input.Customer != nil {
		if input.Customer.Name == "" {
			return nil, fmt.Errorf("%w: customer name required", ErrInvalidInput)
		}
		inv.Customer = *input.Customer
	}
	if input.Date != nil {
		inv.Date = *input.Date
	}
	if input.DueDate != nil {
		inv.DueDate = *input.DueDate
	}
	if input.Currency != nil {
		inv.Currency = *input.Currency
	}
	switch {
	case input.ClearGlobalDiscount:
		inv.GlobalDiscount = NoDiscount
	case input.GlobalDiscountRate != nil || input.GlobalDiscountAmount != nil:
		inv.GlobalDiscount = DiscountFrom(input.GlobalDiscountRate, input.GlobalDiscountAmount)
	}
	if input.BuyerReference != nil {
		inv.BuyerReference = *input.BuyerReference
	}
	if input.PurchaseOrderRef != nil {
		inv.PurchaseOrderRef = *input.PurchaseOrderRef
	}
	if input.AccountingReference != nil {
		inv.AccountingReference = *input.AccountingReference
	}
	if input.OperationCategory != nil {
		inv.OperationCategory = *input.OperationCategory
	}
	if input.VATOnDebits != nil {
		inv.VATOnDebits = *input.VATOnDebits
	}
	if input.PaymentTermsNote != nil {
		inv.PaymentTermsNote = *input.PaymentTermsNote
	}
	if input.DeliveryAddress != nil {
		inv.DeliveryAddress = input.DeliveryAddress
	}
	if input.DeliveryDate != nil {
		inv.DeliveryDate = input.DeliveryDate
	}
	if input.CreditedInvoiceNumber != nil {
		inv.CreditedInvoiceNumber = *input.CreditedInvoiceNumber
	}

	inv.UpdatedAt = s.now()
	if err := s.repo.UpdateDraft(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelInvoice abandons a draft.
func (s *Service) CancelInvoice(ctx context.Context, publicID uuid.UUID) error {
	inv, err := s.repo.GetInvoice(ctx, publicID)
	if err != nil {
		return err
	}
	if err := inv.Cancel(); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, inv.ID, inv.Status); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, inv.PublicID)
	}
	return nil
}

// RecordPayment registers a payment and re-derives the payment status.
func (s *Service) RecordPayment(ctx context.Context, publicID uuid.UUID, p Payment) (*Payment, error) {
	inv, err := s.repo.GetInvoice(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = s.now()
	}
	if err := inv.RecordPayment(p); err != nil {
		return nil, err
	}
	return s.repo.RecordPayment(ctx, inv.ID, p, inv.Status)
}

// Finalize stamps the next sequence number onto a draft invoice, verifies
// the document builds for the requested profile, and transitions the
// invoice to FINALIZED — all in one transaction. Any failure after the
// sequence lock is acquired rolls everything back, so the counter is not
// consumed and the invoice stays DRAFT. The document build itself is
// pure; keeping it inside the boundary is what makes a build failure
// abort the numbering.
func (s *Service) Finalize(ctx context.Context, publicID uuid.UUID, profile string) (*Invoice, []byte, error) {
	builder, err := s.registry.BuilderFor(profile)
	if err != nil {
		return nil, nil, err
	}

	var (
		inv      *Invoice
		document []byte
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		inv, err = tx.GetInvoiceForUpdate(ctx, publicID)
		if err != nil {
			return err
		}
		if !inv.IsDraft() {
			return fmt.Errorf("%w: finalize requires DRAFT, got %s", ErrInvalidStatus, inv.Status)
		}

		month, day := s.fiscalYearStart(ctx, inv)
		scope := sequence.Scope{
			CompanyID:    inv.CompanyID,
			DocumentType: documentType(inv.Type),
			FiscalYear:   sequence.FiscalYearFor(inv.Date, month, day),
		}
		window := sequence.WindowFor(scope.FiscalYear, month, day)

		n, err := tx.NextSequenceNumber(ctx, scope, window)
		if err != nil {
			return err
		}
		number, err := sequence.Format(scope, n)
		if err != nil {
			return err
		}

		now := s.now()
		if err := inv.Finalize(number, now); err != nil {
			return err
		}
		if err := tx.MarkFinalized(ctx, inv.ID, number, now); err != nil {
			return err
		}

		document, err = builder.Build(inv)
		if err != nil {
			return fmt.Errorf("invoicing: build %s document: %w", profile, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.InvoiceFinalized(string(inv.Type))
		s.metrics.DocumentBuilt(profile)
	}
	if s.archiver != nil {
		// The invoice is already numbered; archival is retried by the
		// worker, never by failing the request.
		_ = s.archiver.EnqueueArchive(ctx, inv.PublicID, profile)
	}
	return inv, document, nil
}

// Document builds (or serves from cache) the structured document of a
// finalized invoice for the requested profile.
func (s *Service) Document(ctx context.Context, publicID uuid.UUID, profile string) ([]byte, error) {
	builder, err := s.registry.BuilderFor(profile)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.GetInvoice(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if inv.IsDraft() || inv.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: document requires a finalized invoice", ErrInvalidStatus)
	}
	load := func(ctx context.Context) ([]byte, error) {
		if s.metrics != nil {
			s.metrics.DocumentBuilt(profile)
		}
		return builder.Build(inv)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Fetch(ctx, inv.PublicID, profile, load)
}

// SupportedProfiles lists the profiles a document can be generated for.
func (s *Service) SupportedProfiles() []string {
	return s.registry.ProfileNames()
}

func (s *Service) fiscalYearStart(ctx context.Context, inv *Invoice) (time.Month, int) {
	if inv.CompanyID != nil && s.companies != nil {
		if c, err := s.companies.GetCompany(ctx, *inv.CompanyID); err == nil {
			return c.FiscalYearStart()
		}
	}
	return s.fyStartMonth, s.fyStartDay
}

// snapshotFromCompany freezes the company fields an issued document must
// carry, immune to later master-data edits.
func snapshotFromCompany(c *company.Company) PartySnapshot {
	return PartySnapshot{
		Name: c.Name,
		Address: Address{
			Street:   c.Street,
			Postcode: c.Postcode,
			City:     c.City,
			Country:  c.Country,
		},
		VATNumber: c.VATNumber,
		SIREN:     c.SIREN,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

func documentType(t InvoiceType) sequence.DocumentType {
	if t == TypeCreditNote {
		return sequence.DocumentTypeCreditNote
	}
	return sequence.DocumentTypeInvoice
}
