package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

// buildLineItems prices every row (quantity x unit price, rounded to cents)
// and returns the document total.
func buildLineItems(reqs []dto.LineItemRequest) ([]models.LineItem, decimal.Decimal, error) {
	items := make([]models.LineItem, 0, len(reqs))
	total := decimal.Zero
	for i, req := range reqs {
		if !req.Quantity.IsPositive() {
			return nil, decimal.Zero, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
		}
		if req.UnitPrice.IsNegative() {
			return nil, decimal.Zero, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
		amount := req.Quantity.Mul(req.UnitPrice).Round(2)
		items = append(items, models.LineItem{
			Description: strings.TrimSpace(req.Description),
			Quantity:    req.Quantity,
			Unit:        strings.TrimSpace(req.Unit),
			UnitPrice:   req.UnitPrice,
			Amount:      amount,
			SortOrder:   i + 1,
		})
		total = total.Add(amount)
	}
	return items, total, nil
}

func lookupActiveClient(ctx context.Context, clients clientLookup, id int64) (*models.Client, error) {
	client, err := clients.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("client %d does not exist", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	if !client.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("client %s is inactive", client.Code))
	}
	return client, nil
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return models.DefaultCurrency
	}
	return currency
}

func parseStatusFilter(raw string) (models.TransactionStatus, error) {
	status := models.TransactionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status == "" || status.Valid() {
		return status, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw))
}

// canEditDraft allows the creator and administrators to change a draft.
func canEditDraft(actor *models.JWTClaims, wf models.Workflow) error {
	if wf.CreatedBy != actor.UserID && !actor.Role.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator may modify this draft")
	}
	if wf.Status != models.StatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("only drafts can be modified, current status is %s", wf.Status))
	}
	return nil
}

func draftWriteError(err error, label, action string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, label+" not found")
	case errors.Is(err, repository.ErrStatusChanged):
		return appErrors.Clone(appErrors.ErrInvalidState, "only drafts that never entered approval can be "+action+"d")
	case errors.Is(err, repository.ErrReferenced):
		return appErrors.Clone(appErrors.ErrValidation, label+" references unknown master data")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "reference number already exists")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action+" "+label)
	}
}

func formatMoney(currency string, amount decimal.Decimal) string {
	return currency + " " + amount.StringFixed(2)
}
