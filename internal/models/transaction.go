package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies which document an approval refers to.
type TransactionType string

const (
	TransactionQuotation TransactionType = "quotation"
	TransactionRFP       TransactionType = "rfp"
)

// Valid reports whether the type is known.
func (t TransactionType) Valid() bool {
	return t == TransactionQuotation || t == TransactionRFP
}

// TransactionStatus is the approval state held on a quotation or RFP.
type TransactionStatus string

const (
	StatusDraft           TransactionStatus = "draft"
	StatusPendingApproval TransactionStatus = "pending_approval"
	StatusApproved        TransactionStatus = "approved"
	StatusRejected        TransactionStatus = "rejected"
)

// TransactionStatuses lists every status in workflow order.
var TransactionStatuses = []TransactionStatus{StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected}

// Valid reports whether the status is one of the workflow states.
func (s TransactionStatus) Valid() bool {
	for _, candidate := range TransactionStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ApprovalAction is the verb recorded in approval history.
type ApprovalAction string

const (
	ActionSubmitted ApprovalAction = "submitted"
	ActionApproved  ApprovalAction = "approved"
	ActionRejected  ApprovalAction = "rejected"
	ActionCancelled ApprovalAction = "cancelled"
	ActionRevised   ApprovalAction = "revised"
)

// LineItem is a priced row on a quotation or RFP. ParentID maps to the
// owning document column through a query alias.
type LineItem struct {
	ID          int64           `db:"id" json:"id"`
	ParentID    int64           `db:"parent_id" json:"-"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Unit        string          `db:"unit" json:"unit"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	SortOrder   int             `db:"sort_order" json:"sortOrder"`
}

// Workflow holds the approval columns shared by quotations and RFPs.
type Workflow struct {
	Status         TransactionStatus `db:"status" json:"status"`
	CreatedBy      int64             `db:"created_by" json:"createdBy"`
	SubmittedBy    *int64            `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmittedAt    *time.Time        `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedBy     *int64            `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewComments *string           `db:"review_comments" json:"reviewComments,omitempty"`
}

// TransactionRef is the minimal projection needed to authorise a transition.
type TransactionRef struct {
	Type        TransactionType   `db:"-" json:"type"`
	ID          int64             `db:"id" json:"id"`
	ReferenceNo string            `db:"reference_no" json:"referenceNo"`
	Status      TransactionStatus `db:"status" json:"status"`
	CreatedBy   int64             `db:"created_by" json:"createdBy"`
	SubmittedBy *int64            `db:"submitted_by" json:"submittedBy,omitempty"`
}

// TransactionFilter constrains quotation and RFP listings.
type TransactionFilter struct {
	Status    TransactionStatus
	ClientID  *int64
	CreatedBy *int64
	Search    string
	Page      int
	PageSize  int
}
