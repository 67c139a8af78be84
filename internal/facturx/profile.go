// Package facturx serializes finalized invoices into the UN/CEFACT
// Cross-Industry-Invoice XML document used by the Factur-X profiles.
package facturx

import (
	"errors"
	"fmt"
)

// Profile identifies a Factur-X conformance level.
type Profile string

const (
	ProfileMinimum  Profile = "MINIMUM"
	ProfileBasic    Profile = "BASIC"
	ProfileBasicWL  Profile = "BASIC_WL"
	ProfileEN16931  Profile = "EN16931"
	ProfileExtended Profile = "EXTENDED"
)

// guidelineURNs maps profiles to the guideline declaration emitted in the
// document context. Values are part of the wire contract and must match
// byte-for-byte.
var guidelineURNs = map[Profile]string{
	ProfileMinimum:  "urn:factur-x.eu:1p0:minimum",
	ProfileBasic:    "urn:factur-x.eu:1p0:basic",
	ProfileBasicWL:  "urn:factur-x.eu:1p0:basicwl",
	ProfileEN16931:  "urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:en16931",
	ProfileExtended: "urn:cen.eu:en16931:2017#conformant#urn:factur-x.eu:1p0:extended",
}

// ErrUnknownProfile rejects profiles outside the recognized set.
var ErrUnknownProfile = errors.New("facturx: unknown profile")

// Valid reports whether p is one of the five recognized profiles.
func (p Profile) Valid() bool {
	_, ok := guidelineURNs[p]
	return ok
}

// GuidelineURN returns the profile's guideline identifier.
func (p Profile) GuidelineURN() (string, error) {
	urn, ok := guidelineURNs[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, p)
	}
	return urn, nil
}

// ParseProfile converts the external identifier into a Profile.
func ParseProfile(s string) (Profile, error) {
	p := Profile(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
	return p, nil
}
