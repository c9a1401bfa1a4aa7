package models

import "time"

// ExportKind enumerates the datasets that can be exported.
type ExportKind string

const (
	ExportKindApprovals       ExportKind = "approvals"
	ExportKindApprovalHistory ExportKind = "approval_history"
)

// ExportFormat enumerates supported export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult describes a rendered export and its signed download link.
type ExportResult struct {
	ID           string       `json:"id"`
	Kind         ExportKind   `json:"kind"`
	Format       ExportFormat `json:"format"`
	RelativePath string       `json:"-"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Rows         int          `json:"rows"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}
