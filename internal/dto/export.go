package dto

import "github.com/noah-isme/freightdesk-api/internal/models"

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	Kind            models.ExportKind        `json:"kind"`
	Format          models.ExportFormat      `json:"format"`
	Status          models.TransactionStatus `json:"status,omitempty"`
	TransactionType models.TransactionType   `json:"transactionType,omitempty"`
	TransactionID   int64                    `json:"transactionId,omitempty"`
}
