package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx.Tx the store needs. The store never opens
// its own transaction: the caller owns the boundary so the increment, the
// number stamp and the status transition commit or roll back together.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store performs the locked read-increment-write on sequence rows.
type Store struct{}

// NewStore constructs a Store.
func NewStore() Store {
	return Store{}
}

const uniqueViolation = "23505"

// Next acquires an exclusive lock on the scope's counter row, creating it
// lazily on first use, then increments and persists lastNumber. The
// critical section is kept to the read-increment-write.
func (Store) Next(ctx context.Context, q Querier, scope Scope, window Window) (int64, error) {
	last, found, err := lockRow(ctx, q, scope)
	if err != nil {
		return 0, err
	}
	if !found {
		_, err := q.Exec(ctx, `
			INSERT INTO invoice_sequences (company_id, document_type, fiscal_year, start_date, end_date, last_number, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())`,
			scope.CompanyID, string(scope.DocumentType), scope.FiscalYear, window.Start, window.End,
		)
		if err != nil {
			// A concurrent finalize may have created the row between our
			// locked read and the insert; fold back into the lock.
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
				return 0, fmt.Errorf("sequence: create counter: %w", err)
			}
		}
		last, found, err = lockRow(ctx, q, scope)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("sequence: counter row missing after create for scope %+v", scope)
		}
	}

	next := last + 1
	tag, err := q.Exec(ctx, `
		UPDATE invoice_sequences
		SET last_number = $4, updated_at = NOW()
		WHERE company_id IS NOT DISTINCT FROM $1 AND document_type = $2 AND fiscal_year = $3`,
		scope.CompanyID, string(scope.DocumentType), scope.FiscalYear, next,
	)
	if err != nil {
		return 0, fmt.Errorf("sequence: increment counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("sequence: counter row vanished for scope %+v", scope)
	}
	return next, nil
}

func lockRow(ctx context.Context, q Querier, scope Scope) (last int64, found bool, err error) {
	err = q.QueryRow(ctx, `
		SELECT last_number FROM invoice_sequences
		WHERE company_id IS NOT DISTINCT FROM $1 AND document_type = $2 AND fiscal_year = $3
		FOR UPDATE`,
		scope.CompanyID, string(scope.DocumentType), scope.FiscalYear,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sequence: lock counter: %w", err)
	}
	return last, true, nil
}
