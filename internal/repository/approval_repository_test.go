package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

func TestTransitionWritesStatusAndHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	comments := "looks good"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotations SET status = ?, reviewed_by = ?, reviewed_at = ?, review_comments = ?, updated_at = ? WHERE id = ? AND status = ?")).
		WithArgs(models.StatusApproved, int64(2), at, &comments, at, int64(10), models.StatusPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO approval_history .* RETURNING approval_id").
		WithArgs(models.TransactionQuotation, int64(10), models.ActionApproved, int64(2), at, &comments, models.StatusPendingApproval, models.StatusApproved, false).
		WillReturnRows(sqlmock.NewRows([]string{"approval_id"}).AddRow(7))
	mock.ExpectCommit()

	entry, err := repo.Transition(context.Background(), TransitionParams{
		Type:     models.TransactionQuotation,
		ID:       10,
		From:     models.StatusPendingApproval,
		To:       models.StatusApproved,
		Action:   models.ActionApproved,
		ActorID:  2,
		Comments: &comments,
		At:       at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ApprovalID)
	assert.Equal(t, models.StatusApproved, entry.NewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStaleStatusRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE rfps SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM rfps WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), TransitionParams{
		Type: models.TransactionRFP, ID: 4,
		From: models.StatusPendingApproval, To: models.StatusRejected,
		Action: models.ActionRejected, ActorID: 1,
	})
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionMissingTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotations SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM quotations").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), TransitionParams{
		Type: models.TransactionQuotation, ID: 99,
		From: models.StatusDraft, To: models.StatusPendingApproval,
		Action: models.ActionSubmitted, ActorID: 1,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionHistoryFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotations SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO approval_history").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), TransitionParams{
		Type: models.TransactionQuotation, ID: 1,
		From: models.StatusDraft, To: models.StatusPendingApproval,
		Action: models.ActionSubmitted, ActorID: 1,
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRejectsUnknownType(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	_, err := repo.Transition(context.Background(), TransitionParams{Type: "invoice", ID: 1})
	assert.Error(t, err)
}

func TestApprovalListUnionsBothTypes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	now := time.Now()
	columns := []string{"transaction_type", "transaction_id", "reference_no", "client_name", "amount", "currency", "status", "created_by", "submitted_by", "submitted_by_name", "submitted_at", "updated_at"}
	mock.ExpectQuery("FROM quotations t(.|\n)*WHERE t.status = \\?(.|\n)*UNION ALL(.|\n)*FROM rfps t(.|\n)*ORDER BY updated_at DESC, transaction_id DESC LIMIT 20 OFFSET 0").
		WithArgs(models.StatusPendingApproval, models.StatusPendingApproval).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rfp", 3, "RFP-202405-00003", nil, "120.50", "PHP", "pending_approval", 1, 1, "Staff", now, now).
			AddRow("quotation", 8, "QT-202405-00008", "Acme", "900.00", "PHP", "pending_approval", 1, 1, "Staff", now, now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM \\(").
		WithArgs(models.StatusPendingApproval, models.StatusPendingApproval).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.List(context.Background(), models.ApprovalFilter{Status: models.StatusPendingApproval})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.TransactionRFP, items[0].TransactionType)
	assert.True(t, items[1].Amount.Equal(decimal.RequireFromString("900")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalListSingleTypeWithOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	owner := int64(5)
	mock.ExpectQuery("FROM rfps t(.|\n)*\\(t.created_by = \\? OR t.submitted_by = \\?\\)").
		WithArgs(int64(5), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.ApprovalFilter{Type: models.TransactionRFP, OwnerID: &owner})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountDescribedItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM quotation_items WHERE quotation_id = ? AND TRIM(description) <> ''")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.CountDescribedItems(context.Background(), models.TransactionQuotation, 3)
	require.NoError(t, err)
	assert.Zero(t, count)
}
