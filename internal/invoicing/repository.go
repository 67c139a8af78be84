package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/money"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/db"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/sequence"
)

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
	seq  sequence.Store
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, seq sequence.Store) *Repository {
	return &Repository{pool: pool, seq: seq}
}

// querier is the subset of pgxpool.Pool and pgx.Tx the queries need, so
// reads work identically inside and outside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const invoiceColumns = `
	id, public_id, type, status, number, date, due_date, company_id,
	seller_name, seller_street, seller_postcode, seller_city, seller_country,
	seller_vat_number, seller_siren, seller_email, seller_phone,
	customer_name, customer_street, customer_postcode, customer_city, customer_country,
	customer_vat_number, customer_siren, customer_email, customer_phone,
	currency, global_discount_rate, global_discount_amount_cents,
	buyer_reference, purchase_order_ref, accounting_reference,
	operation_category, vat_on_debits, payment_terms_note,
	delivery_street, delivery_postcode, delivery_city, delivery_country, delivery_date,
	credited_invoice_number, created_at, updated_at`

// CreateInvoice inserts a draft invoice.
func (r *Repository) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	query := `
		INSERT INTO invoices (
			public_id, type, status, number, date, due_date, company_id,
			seller_name, seller_street, seller_postcode, seller_city, seller_country,
			seller_vat_number, seller_siren, seller_email, seller_phone,
			customer_name, customer_street, customer_postcode, customer_city, customer_country,
			customer_vat_number, customer_siren, customer_email, customer_phone,
			currency, global_discount_rate, global_discount_amount_cents,
			buyer_reference, purchase_order_ref, accounting_reference,
			operation_category, vat_on_debits, payment_terms_note,
			delivery_street, delivery_postcode, delivery_city, delivery_country, delivery_date,
			credited_invoice_number, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25,
			$26, $27, $28,
			$29, $30, $31, $32, $33, $34,
			$35, $36, $37, $38, $39,
			$40, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at`

	rate, amount := discountColumns(inv.GlobalDiscount)

	var deliveryStreet, deliveryPostcode, deliveryCity, deliveryCountry pgtype.Text
	if a := inv.DeliveryAddress; a != nil {
		deliveryStreet = pgtype.Text{String: a.Street, Valid: true}
		deliveryPostcode = pgtype.Text{String: a.Postcode, Valid: true}
		deliveryCity = pgtype.Text{String: a.City, Valid: true}
		deliveryCountry = pgtype.Text{String: a.Country, Valid: true}
	}
	var deliveryDate pgtype.Timestamptz
	if inv.DeliveryDate != nil {
		deliveryDate = pgtype.Timestamptz{Time: *inv.DeliveryDate, Valid: true}
	}
	var companyID pgtype.Int8
	if inv.CompanyID != nil {
		companyID = pgtype.Int8{Int64: *inv.CompanyID, Valid: true}
	}

	err := r.pool.QueryRow(ctx, query,
		inv.PublicID,
		inv.Type,
		inv.Status,
		inv.Number,
		inv.Date,
		inv.DueDate,
		companyID,
		inv.Seller.Name, inv.Seller.Address.Street, inv.Seller.Address.Postcode,
		inv.Seller.Address.City, inv.Seller.Address.Country,
		inv.Seller.VATNumber, inv.Seller.SIREN, inv.Seller.Email, inv.Seller.Phone,
		inv.Customer.Name, inv.Customer.Address.Street, inv.Customer.Address.Postcode,
		inv.Customer.Address.City, inv.Customer.Address.Country,
		inv.Customer.VATNumber, inv.Customer.SIREN, inv.Customer.Email, inv.Customer.Phone,
		inv.Currency,
		rate,
		amount,
		inv.BuyerReference,
		inv.PurchaseOrderRef,
		inv.AccountingReference,
		inv.OperationCategory,
		inv.VATOnDebits,
		inv.PaymentTermsNote,
		deliveryStreet, deliveryPostcode, deliveryCity, deliveryCountry, deliveryDate,
		inv.CreditedInvoiceNumber,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invoicing: create invoice: %w", err)
	}
	return inv, nil
}

// GetInvoice loads an invoice with its lines and payments.
func (r *Repository) GetInvoice(ctx context.Context, publicID uuid.UUID) (*Invoice, error) {
	return getInvoice(ctx, r.pool, publicID, false)
}

func getInvoice(ctx context.Context, q querier, publicID uuid.UUID, forUpdate bool) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE public_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	inv, err := scanInvoice(q.QueryRow(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("invoicing: get invoice: %w", err)
	}

	if inv.Lines, err = loadLines(ctx, q, inv.ID); err != nil {
		return nil, err
	}
	if inv.Payments, err = loadPayments(ctx, q, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns invoices matching the filter, most recent first.
// Lines and payments are loaded per invoice so derived totals are usable
// on list responses.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	idx := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, req.Status)
		idx++
	}
	if req.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, req.Type)
		idx++
	}
	if req.CustomerName != "" {
		query += fmt.Sprintf(" AND customer_name ILIKE $%d", idx)
		args = append(args, "%"+req.CustomerName+"%")
		idx++
	}
	if !req.FromDate.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", idx)
		args = append(args, req.FromDate)
		idx++
	}
	if !req.ToDate.IsZero() {
		query += fmt.Sprintf(" AND date <= $%d", idx)
		args = append(args, req.ToDate)
		idx++
	}
	if !req.OverdueAt.IsZero() {
		query += fmt.Sprintf(" AND due_date < $%d AND status IN ('FINALIZED', 'PARTIALLY_PAID')", idx)
		args = append(args, req.OverdueAt)
		idx++
	}

	query += " ORDER BY date DESC, id DESC"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, req.Limit)
		idx++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoicing: list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("invoicing: list invoices: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoicing: list invoices: %w", err)
	}

	for i := range invoices {
		if invoices[i].Lines, err = loadLines(ctx, r.pool, invoices[i].ID); err != nil {
			return nil, err
		}
		if invoices[i].Payments, err = loadPayments(ctx, r.pool, invoices[i].ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// AddLine inserts a line for a draft invoice.
func (r *Repository) AddLine(ctx context.Context, invoiceID int64, line Line) (*Line, error) {
	query := `
		INSERT INTO invoice_lines (
			invoice_id, description, quantity, unit_price_cents, vat_rate,
			discount_rate, discount_amount_cents, tax_category,
			unit_code, seller_item_id, origin_country, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id`

	rate, amount := discountColumns(line.Discount)

	err := r.pool.QueryRow(ctx, query,
		invoiceID,
		line.Description,
		line.Quantity,
		line.UnitPrice.Cents(),
		line.VATRate,
		rate,
		amount,
		line.TaxCategory,
		line.UnitCode,
		line.SellerItemID,
		line.OriginCountry,
	).Scan(&line.ID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: add line: %w", err)
	}
	return &line, nil
}

// UpdateDraft persists header changes. The status guard keeps a draft
// update from racing a concurrent finalize.
func (r *Repository) UpdateDraft(ctx context.Context, inv *Invoice) error {
	query := `
		UPDATE invoices SET
			date = $3, due_date = $4, currency = $5,
			customer_name = $6, customer_street = $7, customer_postcode = $8,
			customer_city = $9, customer_country = $10,
			customer_vat_number = $11, customer_siren = $12,
			customer_email = $13, customer_phone = $14,
			global_discount_rate = $15, global_discount_amount_cents = $16,
			buyer_reference = $17, purchase_order_ref = $18, accounting_reference = $19,
			operation_category = $20, vat_on_debits = $21, payment_terms_note = $22,
			delivery_street = $23, delivery_postcode = $24, delivery_city = $25,
			delivery_country = $26, delivery_date = $27,
			credited_invoice_number = $28, updated_at = $29
		WHERE id = $1 AND status = $2`

	rate, amount := discountColumns(inv.GlobalDiscount)

	var deliveryStreet, deliveryPostcode, deliveryCity, deliveryCountry pgtype.Text
	if a := inv.DeliveryAddress; a != nil {
		deliveryStreet = pgtype.Text{String: a.Street, Valid: true}
		deliveryPostcode = pgtype.Text{String: a.Postcode, Valid: true}
		deliveryCity = pgtype.Text{String: a.City, Valid: true}
		deliveryCountry = pgtype.Text{String: a.Country, Valid: true}
	}
	var deliveryDate pgtype.Timestamptz
	if inv.DeliveryDate != nil {
		deliveryDate = pgtype.Timestamptz{Time: *inv.DeliveryDate, Valid: true}
	}

	tag, err := r.pool.Exec(ctx, query,
		inv.ID, StatusDraft,
		inv.Date, inv.DueDate, inv.Currency,
		inv.Customer.Name, inv.Customer.Address.Street, inv.Customer.Address.Postcode,
		inv.Customer.Address.City, inv.Customer.Address.Country,
		inv.Customer.VATNumber, inv.Customer.SIREN, inv.Customer.Email, inv.Customer.Phone,
		rate, amount,
		inv.BuyerReference, inv.PurchaseOrderRef, inv.AccountingReference,
		inv.OperationCategory, inv.VATOnDebits, inv.PaymentTermsNote,
		deliveryStreet, deliveryPostcode, deliveryCity, deliveryCountry, deliveryDate,
		inv.CreditedInvoiceNumber, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("invoicing: update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice is no longer a draft", ErrInvalidStatus)
	}
	return nil
}

// UpdateStatus sets the invoice status.
func (r *Repository) UpdateStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`,
		invoiceID, status)
	if err != nil {
		return fmt.Errorf("invoicing: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPayment inserts a payment and the re-derived status atomically.
func (r *Repository) RecordPayment(ctx context.Context, invoiceID int64, p Payment, status InvoiceStatus) (*Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoicing: record payment: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO invoice_payments (invoice_id, amount_cents, paid_at, method, reference, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		invoiceID, p.Amount.Cents(), p.PaidAt, p.Method, p.Reference, p.Notes,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: record payment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`,
		invoiceID, status); err != nil {
		return nil, fmt.Errorf("invoicing: record payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("invoicing: record payment: %w", err)
	}
	return &p, nil
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, seq: r.seq})
	})
}

type txRepo struct {
	tx  pgx.Tx
	seq sequence.Store
}

// GetInvoiceForUpdate loads the invoice row under a pessimistic lock.
func (t *txRepo) GetInvoiceForUpdate(ctx context.Context, publicID uuid.UUID) (*Invoice, error) {
	return getInvoice(ctx, t.tx, publicID, true)
}

// NextSequenceNumber increments the fiscal-year counter inside the
// enclosing transaction; rollback returns the number to the pool.
func (t *txRepo) NextSequenceNumber(ctx context.Context, scope sequence.Scope, window sequence.Window) (int64, error) {
	return t.seq.Next(ctx, t.tx, scope, window)
}

// MarkFinalized stamps the legal number and transitions out of DRAFT.
func (t *txRepo) MarkFinalized(ctx context.Context, invoiceID int64, number string, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE invoices SET number = $2, status = $3, updated_at = $4 WHERE id = $1`,
		invoiceID, number, StatusFinalized, at)
	if err != nil {
		return fmt.Errorf("invoicing: mark finalized: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Scanning helpers ---

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv              Invoice
		companyID        pgtype.Int8
		discountRate     pgtype.Float8
		discountAmount   pgtype.Int8
		deliveryStreet   pgtype.Text
		deliveryPostcode pgtype.Text
		deliveryCity     pgtype.Text
		deliveryCountry  pgtype.Text
		deliveryDate     pgtype.Timestamptz
	)

	err := row.Scan(
		&inv.ID, &inv.PublicID, &inv.Type, &inv.Status, &inv.Number,
		&inv.Date, &inv.DueDate, &companyID,
		&inv.Seller.Name, &inv.Seller.Address.Street, &inv.Seller.Address.Postcode,
		&inv.Seller.Address.City, &inv.Seller.Address.Country,
		&inv.Seller.VATNumber, &inv.Seller.SIREN, &inv.Seller.Email, &inv.Seller.Phone,
		&inv.Customer.Name, &inv.Customer.Address.Street, &inv.Customer.Address.Postcode,
		&inv.Customer.Address.City, &inv.Customer.Address.Country,
		&inv.Customer.VATNumber, &inv.Customer.SIREN, &inv.Customer.Email, &inv.Customer.Phone,
		&inv.Currency, &discountRate, &discountAmount,
		&inv.BuyerReference, &inv.PurchaseOrderRef, &inv.AccountingReference,
		&inv.OperationCategory, &inv.VATOnDebits, &inv.PaymentTermsNote,
		&deliveryStreet, &deliveryPostcode, &deliveryCity, &deliveryCountry, &deliveryDate,
		&inv.CreditedInvoiceNumber, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if companyID.Valid {
		inv.CompanyID = &companyID.Int64
	}
	inv.GlobalDiscount = discountFromColumns(discountRate, discountAmount)
	if deliveryStreet.Valid || deliveryCity.Valid {
		inv.DeliveryAddress = &Address{
			Street:   deliveryStreet.String,
			Postcode: deliveryPostcode.String,
			City:     deliveryCity.String,
			Country:  deliveryCountry.String,
		}
	}
	if deliveryDate.Valid {
		inv.DeliveryDate = &deliveryDate.Time
	}
	return &inv, nil
}

func loadLines(ctx context.Context, q querier, invoiceID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, description, quantity, unit_price_cents, vat_rate,
		       discount_rate, discount_amount_cents, tax_category,
		       unit_code, seller_item_id, origin_country
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: load lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			line           Line
			unitPriceCents int64
			discountRate   pgtype.Float8
			discountAmount pgtype.Int8
		)
		if err := rows.Scan(
			&line.ID, &line.Description, &line.Quantity, &unitPriceCents, &line.VATRate,
			&discountRate, &discountAmount, &line.TaxCategory,
			&line.UnitCode, &line.SellerItemID, &line.OriginCountry,
		); err != nil {
			return nil, fmt.Errorf("invoicing: load lines: %w", err)
		}
		line.UnitPrice = money.FromCents(unitPriceCents)
		line.Discount = discountFromColumns(discountRate, discountAmount)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func loadPayments(ctx context.Context, q querier, invoiceID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, amount_cents, paid_at, method, reference, notes
		FROM invoice_payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: load payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var (
			p           Payment
			amountCents int64
		)
		if err := rows.Scan(&p.ID, &amountCents, &p.PaidAt, &p.Method, &p.Reference, &p.Notes); err != nil {
			return nil, fmt.Errorf("invoicing: load payments: %w", err)
		}
		p.Amount = money.FromCents(amountCents)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func discountColumns(d Discount) (pgtype.Float8, pgtype.Int8) {
	var rate pgtype.Float8
	var amount pgtype.Int8
	switch d.Kind {
	case DiscountRate:
		rate = pgtype.Float8{Float64: d.Rate, Valid: true}
	case DiscountFixed:
		amount = pgtype.Int8{Int64: d.Amount.Cents(), Valid: true}
	}
	return rate, amount
}

func discountFromColumns(rate pgtype.Float8, amount pgtype.Int8) Discount {
	switch {
	case amount.Valid:
		return FixedDiscount(money.FromCents(amount.Int64))
	case rate.Valid:
		return RateDiscount(rate.Float64)
	default:
		return NoDiscount
	}
}
