// Package jobs hosts the asynq task definitions and the background worker
// that turns finalized invoices into Factur-X PDF/A-3 archives.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceArchive embeds the structured document of a finalized
	// invoice into its visual PDF and stores the archive.
	TaskInvoiceArchive = "invoice:archive"
)

// InvoiceArchivePayload identifies the invoice and profile to archive.
type InvoiceArchivePayload struct {
	InvoiceID string `json:"invoice_id"`
	Profile   string `json:"profile"`
}

// NewInvoiceArchiveTask constructs an Asynq task.
func NewInvoiceArchiveTask(payload InvoiceArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceArchive, data, asynq.Queue(QueueDefault)), nil
}
