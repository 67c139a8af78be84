package company

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCompanyRepo struct {
	nextID    int64
	companies map[int64]Company
}

func newMemoryCompanyRepo() *memoryCompanyRepo {
	return &memoryCompanyRepo{companies: make(map[int64]Company)}
}

func (r *memoryCompanyRepo) Create(_ context.Context, c Company) (*Company, error) {
	r.nextID++
	c.ID = r.nextID
	r.companies[c.ID] = c
	return &c, nil
}

func (r *memoryCompanyRepo) Get(_ context.Context, id int64) (*Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryCompanyRepo) List(_ context.Context) ([]Company, error) {
	out := make([]Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	return out, nil
}

func TestCreateCompany(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	c, err := svc.CreateCompany(context.Background(), Company{
		Name:    "Acme SARL",
		Country: "FR",
		SIREN:   "123456789",
	})
	require.NoError(t, err)
	require.NotZero(t, c.ID)

	got, err := svc.GetCompany(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme SARL", got.Name)
}

func TestCreateCompanyValidation(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())
	ctx := context.Background()

	_, err := svc.CreateCompany(ctx, Company{Country: "FR"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateCompany(ctx, Company{Name: "Acme SARL"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetCompanyNotFound(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())
	_, err := svc.GetCompany(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFiscalYearStartDefaults(t *testing.T) {
	c := Company{}
	month, day := c.FiscalYearStart()
	require.Equal(t, time.January, month)
	require.Equal(t, 1, day)

	c = Company{FiscalYearStartMonth: time.April, FiscalYearStartDay: 1}
	month, day = c.FiscalYearStart()
	require.Equal(t, time.April, month)
	require.Equal(t, 1, day)

	c = Company{FiscalYearStartMonth: 13, FiscalYearStartDay: 40}
	month, day = c.FiscalYearStart()
	require.Equal(t, time.January, month)
	require.Equal(t, 1, day)
}
