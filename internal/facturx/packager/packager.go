// Package packager embeds a Factur-X document into an existing PDF as a
// file attachment. Full PDF/A-3 conformance (XMP metadata, output intents)
// is handled downstream; this adapter only performs the embedding and the
// input validation the finalize flow relies on.
package packager

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx"
)

// AttachmentName is the attachment filename mandated by the Factur-X
// specification.
const AttachmentName = "factur-x.xml"

var (
	// ErrInvalidInput rejects empty buffers or unknown profiles.
	ErrInvalidInput = errors.New("packager: invalid input")
	// ErrConversion wraps failures of the underlying PDF processing.
	ErrConversion = errors.New("packager: conversion failed")
)

// Packager attaches CII documents to PDFs via pdfcpu.
type Packager struct {
	conf *model.Configuration
}

// New constructs a Packager with relaxed validation so non-archival source
// PDFs are accepted.
func New() *Packager {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Packager{conf: conf}
}

// Embed returns a copy of pdf with the document attached under the
// Factur-X attachment name. Either buffer empty or an unrecognized
// profile is a validation error; any pdfcpu failure is wrapped in
// ErrConversion with its cause.
func (p *Packager) Embed(pdf, document []byte, profile facturx.Profile) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty pdf buffer", ErrInvalidInput)
	}
	if len(document) == 0 {
		return nil, fmt.Errorf("%w: empty document buffer", ErrInvalidInput)
	}
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidInput, profile)
	}

	// pdfcpu's attachment API takes file paths; stage the document under
	// the mandated name so the attachment is labelled correctly.
	dir, err := os.MkdirTemp("", "facturx-embed-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	defer os.RemoveAll(dir)

	attachment := filepath.Join(dir, AttachmentName)
	if err := os.WriteFile(attachment, document, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	var out bytes.Buffer
	if err := api.AddAttachments(bytes.NewReader(pdf), &out, []string{attachment}, false, p.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return out.Bytes(), nil
}
