package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

// ApprovalRepository owns the workflow columns of quotations and RFPs and the
// append-only approval_history table. It exposes no update or delete for
// history rows.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// TransitionParams describes a single guarded status change.
type TransitionParams struct {
	Type       models.TransactionType
	ID         int64
	From       models.TransactionStatus
	To         models.TransactionStatus
	Action     models.ApprovalAction
	ActorID    int64
	Comments   *string
	IsOverride bool
	At         time.Time
}

// GetTransaction loads the workflow projection of a quotation or RFP.
func (r *ApprovalRepository) GetTransaction(ctx context.Context, txType models.TransactionType, id int64) (*models.TransactionRef, error) {
	table, err := tableFor(txType)
	if err != nil {
		return nil, err
	}
	query := r.db.Rebind(fmt.Sprintf(`SELECT id, COALESCE(reference_no, '') AS reference_no, status, created_by, submitted_by FROM %s WHERE id = ?`, table.name))
	var ref models.TransactionRef
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		return nil, err
	}
	ref.Type = txType
	return &ref, nil
}

// CountDescribedItems counts line items with a non-blank description.
func (r *ApprovalRepository) CountDescribedItems(ctx context.Context, txType models.TransactionType, id int64) (int, error) {
	table, err := tableFor(txType)
	if err != nil {
		return 0, err
	}
	query := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND TRIM(description) <> ''", table.items, table.parent))
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.items, err)
	}
	return count, nil
}

// Transition moves a transaction from params.From to params.To and appends
// the matching history row in one database transaction. When the row is no
// longer in params.From it returns ErrStatusChanged; when it does not exist it
// returns sql.ErrNoRows. Nothing is written in either case.
func (r *ApprovalRepository) Transition(ctx context.Context, params TransitionParams) (entry *models.ApprovalHistoryEntry, err error) {
	table, err := tableFor(params.Type)
	if err != nil {
		return nil, err
	}
	if params.At.IsZero() {
		params.At = time.Now().UTC()
	}

	setClause, setArgs := workflowColumns(params)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	update := tx.Rebind(fmt.Sprintf("UPDATE %s SET status = ?, %s, updated_at = ? WHERE id = ? AND status = ?", table.name, setClause))
	args := append([]interface{}{params.To}, setArgs...)
	args = append(args, params.At, params.ID, params.From)
	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s status: %w", table.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = missingOrChanged(ctx, tx, table.name, params.ID)
		return nil, err
	}

	entry = &models.ApprovalHistoryEntry{
		TransactionType: params.Type,
		TransactionID:   params.ID,
		Action:          params.Action,
		ActorID:         params.ActorID,
		ActedAt:         params.At,
		Comments:        params.Comments,
		PreviousStatus:  params.From,
		NewStatus:       params.To,
		IsOverride:      params.IsOverride,
	}
	insert := tx.Rebind(`INSERT INTO approval_history (transaction_type, transaction_id, action, actor_id, acted_at, comments, previous_status, new_status, is_override)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING approval_id`)
	if err = tx.QueryRowxContext(ctx, insert,
		entry.TransactionType, entry.TransactionID, entry.Action, entry.ActorID, entry.ActedAt,
		entry.Comments, entry.PreviousStatus, entry.NewStatus, entry.IsOverride,
	).Scan(&entry.ApprovalID); err != nil {
		return nil, fmt.Errorf("insert approval history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return entry, nil
}

func workflowColumns(params TransitionParams) (string, []interface{}) {
	switch params.Action {
	case models.ActionSubmitted:
		return "submitted_by = ?, submitted_at = ?, reviewed_by = NULL, reviewed_at = NULL, review_comments = NULL",
			[]interface{}{params.ActorID, params.At}
	case models.ActionApproved, models.ActionRejected:
		return "reviewed_by = ?, reviewed_at = ?, review_comments = ?",
			[]interface{}{params.ActorID, params.At, params.Comments}
	case models.ActionCancelled:
		return "submitted_by = NULL, submitted_at = NULL", nil
	default:
		return "reviewed_by = NULL, reviewed_at = NULL, review_comments = NULL", nil
	}
}

// History returns the approval trail oldest first.
func (r *ApprovalRepository) History(ctx context.Context, txType models.TransactionType, id int64) ([]models.ApprovalHistoryEntry, error) {
	query := r.db.Rebind(`SELECT h.approval_id, h.transaction_type, h.transaction_id, h.action, h.actor_id, u.full_name AS actor_name,
	h.acted_at, h.comments, h.previous_status, h.new_status, h.is_override
FROM approval_history h
LEFT JOIN users u ON u.id = h.actor_id
WHERE h.transaction_type = ? AND h.transaction_id = ?
ORDER BY h.acted_at ASC, h.approval_id ASC`)
	entries := make([]models.ApprovalHistoryEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, txType, id); err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	return entries, nil
}

const approvalQueueBranch = `SELECT '%[1]s' AS transaction_type, t.id AS transaction_id, COALESCE(t.reference_no, '') AS reference_no,
	c.name AS client_name, t.amount, t.currency, t.status, t.created_by, t.submitted_by,
	u.full_name AS submitted_by_name, t.submitted_at, t.updated_at AS updated_at
FROM %[2]s t
LEFT JOIN clients c ON c.id = t.client_id
LEFT JOIN users u ON u.id = t.submitted_by`

// List returns the combined quotation and RFP queue with its total size.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalItem, int, error) {
	var (
		branches []string
		args     []interface{}
	)
	for _, txType := range []models.TransactionType{models.TransactionQuotation, models.TransactionRFP} {
		if filter.Type != "" && filter.Type != txType {
			continue
		}
		where, branchArgs := approvalQueueWhere(filter)
		branches = append(branches, fmt.Sprintf(approvalQueueBranch, txType, documentTables[txType].name)+where)
		args = append(args, branchArgs...)
	}
	if len(branches) == 0 {
		return []models.ApprovalItem{}, 0, nil
	}
	union := strings.Join(branches, "\nUNION ALL\n")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := r.db.Rebind(fmt.Sprintf("%s\nORDER BY updated_at DESC, transaction_id DESC LIMIT %d OFFSET %d", union, limit, offset))
	items := make([]models.ApprovalItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list approvals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM ("+union+") queue"), args...); err != nil {
		return nil, 0, fmt.Errorf("count approvals: %w", err)
	}
	return items, total, nil
}

func approvalQueueWhere(filter models.ApprovalFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, filter.Status)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "(t.created_by = ? OR t.submitted_by = ?)")
		args = append(args, *filter.OwnerID, *filter.OwnerID)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		conditions = append(conditions, "(LOWER(COALESCE(t.reference_no, '')) LIKE ? OR LOWER(COALESCE(c.name, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conditions, " AND "), args
}

// StatusCounts groups every quotation and RFP by status.
func (r *ApprovalRepository) StatusCounts(ctx context.Context) ([]models.ApprovalStatusCount, error) {
	const query = `SELECT 'quotation' AS transaction_type, status, COUNT(*) AS count FROM quotations GROUP BY status
UNION ALL
SELECT 'rfp' AS transaction_type, status, COUNT(*) AS count FROM rfps GROUP BY status`
	counts := make([]models.ApprovalStatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count approval statuses: %w", err)
	}
	return counts, nil
}
