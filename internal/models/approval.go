package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalHistoryEntry is one immutable row of the approval trail.
type ApprovalHistoryEntry struct {
	ApprovalID      int64             `db:"approval_id" json:"approvalId"`
	TransactionType TransactionType   `db:"transaction_type" json:"transactionType"`
	TransactionID   int64             `db:"transaction_id" json:"transactionId"`
	Action          ApprovalAction    `db:"action" json:"action"`
	ActorID         int64             `db:"actor_id" json:"actorId"`
	ActorName       *string           `db:"actor_name" json:"actorName,omitempty"`
	ActedAt         time.Time         `db:"acted_at" json:"actedAt"`
	Comments        *string           `db:"comments" json:"comments,omitempty"`
	PreviousStatus  TransactionStatus `db:"previous_status" json:"previousStatus"`
	NewStatus       TransactionStatus `db:"new_status" json:"newStatus"`
	IsOverride      bool              `db:"is_override" json:"isOverride"`
}

// ApprovalItem is a row of the combined quotation/RFP approval queue.
type ApprovalItem struct {
	TransactionType TransactionType   `db:"transaction_type" json:"transactionType"`
	TransactionID   int64             `db:"transaction_id" json:"transactionId"`
	ReferenceNo     string            `db:"reference_no" json:"referenceNo"`
	ClientName      *string           `db:"client_name" json:"clientName,omitempty"`
	Amount          decimal.Decimal   `db:"amount" json:"amount"`
	Currency        string            `db:"currency" json:"currency"`
	Status          TransactionStatus `db:"status" json:"status"`
	CreatedBy       int64             `db:"created_by" json:"createdBy"`
	SubmittedBy     *int64            `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmittedByName *string           `db:"submitted_by_name" json:"submittedByName,omitempty"`
	SubmittedAt     *time.Time        `db:"submitted_at" json:"submittedAt,omitempty"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updatedAt"`
}

// ApprovalFilter constrains the approval queue. An empty Status means every
// status; OwnerID restricts to documents created or submitted by that user.
type ApprovalFilter struct {
	Status   TransactionStatus
	Type     TransactionType
	Search   string
	OwnerID  *int64
	Page     int
	PageSize int
}

// ApprovalStats aggregates document counts by status.
type ApprovalStats struct {
	Total    int                                           `json:"total"`
	ByStatus map[TransactionStatus]int                     `json:"byStatus"`
	ByType   map[TransactionType]map[TransactionStatus]int `json:"byType"`
}

// ApprovalStatusCount is a raw grouped count row.
type ApprovalStatusCount struct {
	TransactionType TransactionType   `db:"transaction_type"`
	Status          TransactionStatus `db:"status"`
	Count           int               `db:"count"`
}

// TransitionResult is returned by every workflow action.
type TransitionResult struct {
	Transaction TransactionRef       `json:"transaction"`
	Entry       ApprovalHistoryEntry `json:"entry"`
}
