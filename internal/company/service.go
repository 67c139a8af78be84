package company

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput flags rejected company input.
var ErrInvalidInput = errors.New("company: invalid input")

// RepositoryPort defines data access methods for companies.
type RepositoryPort interface {
	Create(ctx context.Context, c Company) (*Company, error)
	Get(ctx context.Context, id int64) (*Company, error)
	List(ctx context.Context) ([]Company, error)
}

// Service handles company business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateCompany validates and persists a company.
func (s *Service) CreateCompany(ctx context.Context, c Company) (*Company, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

// GetCompany fetches a company by ID.
func (s *Service) GetCompany(ctx context.Context, id int64) (*Company, error) {
	return s.repo.Get(ctx, id)
}

// ListCompanies returns all companies.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

func (s *Service) validate(c Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Country) == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidInput)
	}
	return nil
}
