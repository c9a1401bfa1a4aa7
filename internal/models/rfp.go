package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFP is a request for payment raised against the operating budget.
type RFP struct {
	ID          int64           `db:"id" json:"id"`
	ReferenceNo string          `db:"reference_no" json:"referenceNo"`
	ClientID    *int64          `db:"client_id" json:"clientId,omitempty"`
	ClientName  *string         `db:"client_name" json:"clientName,omitempty"`
	Payee       string          `db:"payee" json:"payee"`
	Purpose     string          `db:"purpose" json:"purpose"`
	Currency    string          `db:"currency" json:"currency"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	NeededBy    *time.Time      `db:"needed_by" json:"neededBy,omitempty"`
	Workflow
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []LineItem `db:"-" json:"items"`
}

// RFPDetail bundles an RFP with its approval trail.
type RFPDetail struct {
	RFP
	History []ApprovalHistoryEntry `json:"history"`
}
