package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const rfpSelect = `SELECT r.id, COALESCE(r.reference_no, '') AS reference_no, r.client_id, c.name AS client_name,
	r.payee, r.purpose, r.currency, r.amount, r.needed_by, r.status, r.created_by, r.submitted_by,
	r.submitted_at, r.reviewed_by, r.reviewed_at, r.review_comments, r.created_at, r.updated_at
FROM rfps r
LEFT JOIN clients c ON c.id = r.client_id`

// RFPRepository persists requests for payment and their line items.
type RFPRepository struct {
	db *sqlx.DB
}

// NewRFPRepository constructs the repository.
func NewRFPRepository(db *sqlx.DB) *RFPRepository {
	return &RFPRepository{db: db}
}

// List returns RFPs ordered by last update.
func (r *RFPRepository) List(ctx context.Context, filter models.TransactionFilter) ([]models.RFP, int, error) {
	where, args := transactionWhere("r", filter, "r.payee")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := r.db.Rebind(fmt.Sprintf("%s %s ORDER BY r.updated_at DESC, r.id DESC LIMIT %d OFFSET %d", rfpSelect, where, limit, offset))
	rfps := make([]models.RFP, 0)
	if err := r.db.SelectContext(ctx, &rfps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rfps: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM rfps r "+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count rfps: %w", err)
	}
	return rfps, total, nil
}

// FindByID returns an RFP with its items.
func (r *RFPRepository) FindByID(ctx context.Context, id int64) (*models.RFP, error) {
	var rfp models.RFP
	if err := r.db.GetContext(ctx, &rfp, r.db.Rebind(rfpSelect+" WHERE r.id = ?"), id); err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.db, documentTables[models.TransactionRFP], id)
	if err != nil {
		return nil, err
	}
	rfp.Items = items
	return &rfp, nil
}

// Create inserts a draft RFP with its items and reference number.
func (r *RFPRepository) Create(ctx context.Context, rfp *models.RFP) (err error) {
	table := documentTables[models.TransactionRFP]
	now := time.Now().UTC()
	rfp.CreatedAt, rfp.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rfp transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := tx.Rebind(`INSERT INTO rfps (reference_no, client_id, payee, purpose, currency, amount, needed_by, status, created_by, created_at, updated_at)
VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err = tx.QueryRowxContext(ctx, query,
		rfp.ReferenceNo, rfp.ClientID, rfp.Payee, rfp.Purpose, rfp.Currency, rfp.Amount, rfp.NeededBy,
		rfp.Status, rfp.CreatedBy, rfp.CreatedAt, rfp.UpdatedAt,
	).Scan(&rfp.ID); err != nil {
		return fmt.Errorf("insert rfp: %w", classify(err))
	}
	if rfp.ReferenceNo, err = assignReference(ctx, tx, table, rfp.ID, rfp.ReferenceNo, now); err != nil {
		return err
	}
	if err = insertItems(ctx, tx, table, rfp.ID, rfp.Items); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit rfp: %w", err)
	}
	return nil
}

// UpdateDraft replaces the header and items of an RFP still in draft.
func (r *RFPRepository) UpdateDraft(ctx context.Context, rfp *models.RFP) (err error) {
	table := documentTables[models.TransactionRFP]
	rfp.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rfp transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := tx.Rebind(`UPDATE rfps SET client_id = ?, payee = ?, purpose = ?, currency = ?, amount = ?, needed_by = ?, updated_at = ?
WHERE id = ? AND status = ?`)
	res, err := tx.ExecContext(ctx, query,
		rfp.ClientID, rfp.Payee, rfp.Purpose, rfp.Currency, rfp.Amount, rfp.NeededBy, rfp.UpdatedAt, rfp.ID, models.StatusDraft,
	)
	if err != nil {
		return fmt.Errorf("update rfp: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = missingOrChanged(ctx, tx, table.name, rfp.ID)
		return err
	}
	if err = replaceItems(ctx, tx, table, rfp.ID, rfp.Items); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit rfp: %w", err)
	}
	return nil
}

// DeleteDraft removes a draft RFP that never entered the workflow.
func (r *RFPRepository) DeleteDraft(ctx context.Context, id int64) error {
	return deleteDraft(ctx, r.db, models.TransactionRFP, id)
}
