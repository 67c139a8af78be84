package facturx

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
)

// RegistryAdapter exposes a Registry through the invoicing service's
// DocumentRegistry port, translating profile names to typed profiles.
type RegistryAdapter struct {
	Registry *Registry
}

func (a RegistryAdapter) BuilderFor(profile string) (invoicing.DocumentBuilder, error) {
	p, err := ParseProfile(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", invoicing.ErrUnknownProfile, profile)
	}
	b, err := a.Registry.Get(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", invoicing.ErrUnknownProfile, profile)
	}
	return b, nil
}

func (a RegistryAdapter) ProfileNames() []string {
	profiles := a.Registry.SupportedProfiles()
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, string(p))
	}
	return names
}

// CacheAdapter exposes a DocumentCache through the invoicing service's
// DocumentCachePort.
type CacheAdapter struct {
	Cache    *DocumentCache
	Registry *Registry
}

func (a CacheAdapter) Fetch(ctx context.Context, invoiceID uuid.UUID, profile string, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	return a.Cache.Fetch(ctx, invoiceID, Profile(profile), loader)
}

func (a CacheAdapter) Invalidate(ctx context.Context, invoiceID uuid.UUID) error {
	return a.Cache.Invalidate(ctx, invoiceID, a.Registry.SupportedProfiles())
}
