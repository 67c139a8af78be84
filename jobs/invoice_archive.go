package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx/packager"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx/render"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/observability"
)

// InvoiceArchiveJob renders the visual PDF, rebuilds the structured
// document and embeds it, then writes the archive under Dir.
type InvoiceArchiveJob struct {
	Service  *invoicing.Service
	Renderer *render.Renderer
	Packager *packager.Packager
	Dir      string
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// NewInvoiceArchiveJob initialises the archive handler.
func NewInvoiceArchiveJob(service *invoicing.Service, renderer *render.Renderer, pack *packager.Packager, dir string, logger *slog.Logger, metrics *observability.Metrics) *InvoiceArchiveJob {
	return &InvoiceArchiveJob{
		Service:  service,
		Renderer: renderer,
		Packager: pack,
		Dir:      dir,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Handle processes TaskInvoiceArchive tasks.
func (j *InvoiceArchiveJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		j.Logger.Warn("archive task with bad invoice id", slog.String("invoice_id", payload.InvoiceID))
		return asynq.SkipRetry
	}

	inv, err := j.Service.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("jobs: load invoice %s: %w", invoiceID, err)
	}

	document, err := j.Service.Document(ctx, invoiceID, payload.Profile)
	if err != nil {
		return fmt.Errorf("jobs: build document for %s: %w", invoiceID, err)
	}

	visual, err := j.Renderer.Render(inv)
	if err != nil {
		return fmt.Errorf("jobs: render pdf for %s: %w", invoiceID, err)
	}

	archive, err := j.Packager.Embed(visual, document, facturx.Profile(payload.Profile))
	if err != nil {
		return fmt.Errorf("jobs: embed document for %s: %w", invoiceID, err)
	}

	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return fmt.Errorf("jobs: create archive dir: %w", err)
	}
	path := filepath.Join(j.Dir, inv.Number+".pdf")
	if err := os.WriteFile(path, archive, 0o644); err != nil {
		return fmt.Errorf("jobs: write archive %s: %w", path, err)
	}

	j.Logger.Info("invoice archived",
		slog.String("invoice_id", invoiceID.String()),
		slog.String("number", inv.Number),
		slog.String("path", path))
	if j.Metrics != nil {
		j.Metrics.ArchiveWritten()
	}
	return nil
}
