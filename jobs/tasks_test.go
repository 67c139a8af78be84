package jobs

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewInvoiceArchiveTask(t *testing.T) {
	invoiceID := uuid.New()
	task, err := NewInvoiceArchiveTask(InvoiceArchivePayload{
		InvoiceID: invoiceID.String(),
		Profile:   "EN16931",
	})
	require.NoError(t, err)
	require.Equal(t, TaskInvoiceArchive, task.Type())

	var payload InvoiceArchivePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, invoiceID.String(), payload.InvoiceID)
	require.Equal(t, "EN16931", payload.Profile)
}
