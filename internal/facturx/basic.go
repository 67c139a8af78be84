package facturx

import (
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
)

// BasicBuilder emits the BASIC profile: single-line addresses, no contact
// blocks, no per-line item identifiers.
type BasicBuilder struct{}

// NewBasicBuilder constructs a BasicBuilder.
func NewBasicBuilder() *BasicBuilder {
	return &BasicBuilder{}
}

// Build serializes the invoice as a BASIC profile document.
func (b *BasicBuilder) Build(inv *invoicing.Invoice) ([]byte, error) {
	return build(inv, buildOptions{profile: ProfileBasic})
}

// Profile returns the profile this builder emits.
func (b *BasicBuilder) Profile() Profile {
	return ProfileBasic
}

// Supports reports whether this builder can emit the given profile.
func (b *BasicBuilder) Supports(p Profile) bool {
	return p == ProfileBasic
}
