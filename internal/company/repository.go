package company

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the company does not exist.
var ErrNotFound = errors.New("company: not found")

// Repository provides PostgreSQL backed persistence for companies.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, name, street, postcode, city, country, vat_number, siren, email, phone,
	fiscal_year_start_month, fiscal_year_start_day, created_at, updated_at`

// Create inserts a company and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, c Company) (*Company, error) {
	month, day := c.FiscalYearStart()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO companies (name, street, postcode, city, country, vat_number, siren, email, phone,
			fiscal_year_start_month, fiscal_year_start_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.Name, c.Street, c.Postcode, c.City, c.Country, c.VATNumber, c.SIREN, c.Email, c.Phone,
		int(month), day,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("company: create: %w", err)
	}
	c.FiscalYearStartMonth = month
	c.FiscalYearStartDay = day
	return &c, nil
}

// Get fetches a company by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("company: get: %w", err)
	}
	return c, nil
}

// List returns all companies ordered by name.
func (r *Repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("company: list: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("company: list scan: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	var month int
	if err := row.Scan(
		&c.ID, &c.Name, &c.Street, &c.Postcode, &c.City, &c.Country, &c.VATNumber, &c.SIREN,
		&c.Email, &c.Phone, &month, &c.FiscalYearStartDay, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.FiscalYearStartMonth = time.Month(month)
	return &c, nil
}
