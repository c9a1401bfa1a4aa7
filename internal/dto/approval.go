package dto

import "github.com/noah-isme/freightdesk-api/internal/models"

// ApprovalQuery mirrors the approval queue filters. An empty Status lists
// every status.
type ApprovalQuery struct {
	Status   models.TransactionStatus
	Type     models.TransactionType
	Search   string
	Page     int
	PageSize int
}

// DecisionRequest is the approve/reject payload.
type DecisionRequest struct {
	Comments   string `json:"comments"`
	IsOverride bool   `json:"isOverride"`
}

// WorkflowRequest carries optional comments for submit, cancel and revise.
type WorkflowRequest struct {
	Comments string `json:"comments"`
}
