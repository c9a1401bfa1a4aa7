package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const quotationSelect = `SELECT q.id, COALESCE(q.reference_no, '') AS reference_no, q.client_id, c.name AS client_name,
	q.category_id, q.container_size_id, q.truck_size_id, q.origin, q.destination, q.valid_until,
	q.currency, q.amount, q.remarks, q.status, q.created_by, q.submitted_by, q.submitted_at,
	q.reviewed_by, q.reviewed_at, q.review_comments, q.created_at, q.updated_at
FROM quotations q
LEFT JOIN clients c ON c.id = q.client_id`

// QuotationRepository persists quotations and their line items.
type QuotationRepository struct {
	db *sqlx.DB
}

// NewQuotationRepository constructs the repository.
func NewQuotationRepository(db *sqlx.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// List returns quotations ordered by last update.
func (r *QuotationRepository) List(ctx context.Context, filter models.TransactionFilter) ([]models.Quotation, int, error) {
	where, args := transactionWhere("q", filter, "c.name")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := r.db.Rebind(fmt.Sprintf("%s %s ORDER BY q.updated_at DESC, q.id DESC LIMIT %d OFFSET %d", quotationSelect, where, limit, offset))
	quotations := make([]models.Quotation, 0)
	if err := r.db.SelectContext(ctx, &quotations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM quotations q LEFT JOIN clients c ON c.id = q.client_id " + where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}
	return quotations, total, nil
}

// FindByID returns a quotation with its items.
func (r *QuotationRepository) FindByID(ctx context.Context, id int64) (*models.Quotation, error) {
	var quotation models.Quotation
	if err := r.db.GetContext(ctx, &quotation, r.db.Rebind(quotationSelect+" WHERE q.id = ?"), id); err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.db, documentTables[models.TransactionQuotation], id)
	if err != nil {
		return nil, err
	}
	quotation.Items = items
	return &quotation, nil
}

// Create inserts a draft quotation, its items and its reference number atomically.
func (r *QuotationRepository) Create(ctx context.Context, quotation *models.Quotation) (err error) {
	table := documentTables[models.TransactionQuotation]
	now := time.Now().UTC()
	quotation.CreatedAt, quotation.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quotation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := tx.Rebind(`INSERT INTO quotations (reference_no, client_id, category_id, container_size_id, truck_size_id,
	origin, destination, valid_until, currency, amount, remarks, status, created_by, created_at, updated_at)
VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err = tx.QueryRowxContext(ctx, query,
		quotation.ReferenceNo, quotation.ClientID, quotation.CategoryID, quotation.ContainerSizeID, quotation.TruckSizeID,
		quotation.Origin, quotation.Destination, quotation.ValidUntil, quotation.Currency, quotation.Amount, quotation.Remarks,
		quotation.Status, quotation.CreatedBy, quotation.CreatedAt, quotation.UpdatedAt,
	).Scan(&quotation.ID); err != nil {
		return fmt.Errorf("insert quotation: %w", classify(err))
	}
	if quotation.ReferenceNo, err = assignReference(ctx, tx, table, quotation.ID, quotation.ReferenceNo, now); err != nil {
		return err
	}
	if err = insertItems(ctx, tx, table, quotation.ID, quotation.Items); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quotation: %w", err)
	}
	return nil
}

// UpdateDraft replaces the header and items of a quotation still in draft.
// It returns ErrStatusChanged when the quotation has left draft.
func (r *QuotationRepository) UpdateDraft(ctx context.Context, quotation *models.Quotation) (err error) {
	table := documentTables[models.TransactionQuotation]
	quotation.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quotation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := tx.Rebind(`UPDATE quotations SET client_id = ?, category_id = ?, container_size_id = ?, truck_size_id = ?,
	origin = ?, destination = ?, valid_until = ?, currency = ?, amount = ?, remarks = ?, updated_at = ?
WHERE id = ? AND status = ?`)
	res, err := tx.ExecContext(ctx, query,
		quotation.ClientID, quotation.CategoryID, quotation.ContainerSizeID, quotation.TruckSizeID,
		quotation.Origin, quotation.Destination, quotation.ValidUntil, quotation.Currency, quotation.Amount, quotation.Remarks,
		quotation.UpdatedAt, quotation.ID, models.StatusDraft,
	)
	if err != nil {
		return fmt.Errorf("update quotation: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = missingOrChanged(ctx, tx, table.name, quotation.ID)
		return err
	}
	if err = replaceItems(ctx, tx, table, quotation.ID, quotation.Items); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quotation: %w", err)
	}
	return nil
}

// DeleteDraft removes a draft quotation that never entered the workflow.
func (r *QuotationRepository) DeleteDraft(ctx context.Context, id int64) error {
	return deleteDraft(ctx, r.db, models.TransactionQuotation, id)
}

func deleteDraft(ctx context.Context, db *sqlx.DB, txType models.TransactionType, id int64) error {
	table := documentTables[txType]
	query := db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND status = ?
AND NOT EXISTS (SELECT 1 FROM approval_history h WHERE h.transaction_type = ? AND h.transaction_id = ?)`, table.name))
	res, err := db.ExecContext(ctx, query, id, models.StatusDraft, txType, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table.name, classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missingOrChanged(ctx, db, table.name, id)
	}
	return nil
}

func transactionWhere(alias string, filter models.TransactionFilter, nameColumn string) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		conditions = append(conditions, alias+".status = ?")
		args = append(args, filter.Status)
	}
	if filter.ClientID != nil {
		conditions = append(conditions, alias+".client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, alias+".created_by = ?")
		args = append(args, *filter.CreatedBy)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(%s.reference_no, '')) LIKE ? OR LOWER(COALESCE(%s, '')) LIKE ?)", alias, nameColumn))
		args = append(args, pattern, pattern)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
