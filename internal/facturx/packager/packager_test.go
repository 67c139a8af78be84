package packager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx"
)

func TestEmbedRejectsEmptyPDF(t *testing.T) {
	p := New()
	_, err := p.Embed(nil, []byte("<doc/>"), facturx.ProfileBasic)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorContains(t, err, "pdf")
}

func TestEmbedRejectsEmptyDocument(t *testing.T) {
	p := New()
	_, err := p.Embed([]byte("%PDF-1.7"), nil, facturx.ProfileBasic)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorContains(t, err, "document")
}

func TestEmbedRejectsUnknownProfile(t *testing.T) {
	p := New()
	_, err := p.Embed([]byte("%PDF-1.7"), []byte("<doc/>"), facturx.Profile("FULL"))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorContains(t, err, "FULL")
}

func TestEmbedWrapsConversionFailure(t *testing.T) {
	p := New()
	// Not a parseable PDF, so pdfcpu fails past input validation.
	_, err := p.Embed([]byte("not a pdf"), []byte("<doc/>"), facturx.ProfileBasic)
	require.ErrorIs(t, err, ErrConversion)
}
