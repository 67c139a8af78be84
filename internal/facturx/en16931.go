package facturx

import (
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
)

// EN16931Builder emits the EN16931 profile: structured postal addresses,
// seller/buyer contacts, per-line seller item identifiers and origin
// countries, and VAT identifiers under scheme VA.
type EN16931Builder struct{}

// NewEN16931Builder constructs an EN16931Builder.
func NewEN16931Builder() *EN16931Builder {
	return &EN16931Builder{}
}

// Build serializes the invoice as an EN16931 profile document.
func (b *EN16931Builder) Build(inv *invoicing.Invoice) ([]byte, error) {
	return build(inv, buildOptions{
		profile:             ProfileEN16931,
		structuredAddresses: true,
		contacts:            true,
		lineItemDetails:     true,
		taxRegistrations:    true,
	})
}

// Profile returns the profile this builder emits.
func (b *EN16931Builder) Profile() Profile {
	return ProfileEN16931
}

// Supports reports whether this builder can emit the given profile.
func (b *EN16931Builder) Supports(p Profile) bool {
	return p == ProfileEN16931
}
