package service

import (
	"fmt"

	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type workflowEdge struct {
	from   models.TransactionStatus
	action models.ApprovalAction
}

var workflowEdges = map[workflowEdge]models.TransactionStatus{
	{models.StatusDraft, models.ActionSubmitted}:           models.StatusPendingApproval,
	{models.StatusPendingApproval, models.ActionApproved}:  models.StatusApproved,
	{models.StatusPendingApproval, models.ActionRejected}:  models.StatusRejected,
	{models.StatusPendingApproval, models.ActionCancelled}: models.StatusDraft,
	{models.StatusRejected, models.ActionRevised}:          models.StatusDraft,
}

// NextStatus returns the status a transaction moves to when action is applied
// in state current. Approved is terminal.
func NextStatus(current models.TransactionStatus, action models.ApprovalAction) (models.TransactionStatus, error) {
	next, ok := workflowEdges[workflowEdge{from: current, action: action}]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s a transaction in status %s", actionVerb(action), current))
	}
	return next, nil
}

func actionVerb(action models.ApprovalAction) string {
	switch action {
	case models.ActionSubmitted:
		return "submit"
	case models.ActionApproved:
		return "approve"
	case models.ActionRejected:
		return "reject"
	case models.ActionCancelled:
		return "cancel"
	case models.ActionRevised:
		return "revise"
	default:
		return string(action)
	}
}
