package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

func TestQuotationCreateGeneratesReference(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuotationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO quotations .* RETURNING id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotations SET reference_no = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO quotation_items \\(quotation_id").
		WithArgs(int64(12), "Ocean freight", sqlmock.AnyArg(), "cntr", sqlmock.AnyArg(), sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	quotation := &models.Quotation{
		ClientID: 1,
		Currency: models.DefaultCurrency,
		Amount:   decimal.NewFromInt(1500),
		Workflow: models.Workflow{Status: models.StatusDraft, CreatedBy: 2},
		Items: []models.LineItem{{
			Description: "Ocean freight",
			Quantity:    decimal.NewFromInt(1),
			Unit:        "cntr",
			UnitPrice:   decimal.NewFromInt(1500),
			Amount:      decimal.NewFromInt(1500),
		}},
	}
	require.NoError(t, repo.Create(context.Background(), quotation))
	assert.Equal(t, int64(12), quotation.ID)
	assert.Regexp(t, `^QT-\d{6}-00012$`, quotation.ReferenceNo)
	assert.Equal(t, int64(12), quotation.Items[0].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationCreateKeepsSuppliedReference(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuotationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO quotations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	quotation := &models.Quotation{ReferenceNo: "CUSTOM-1", ClientID: 1, Workflow: models.Workflow{Status: models.StatusDraft, CreatedBy: 2}}
	require.NoError(t, repo.Create(context.Background(), quotation))
	assert.Equal(t, "CUSTOM-1", quotation.ReferenceNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationUpdateDraftRejectsSubmitted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuotationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotations SET client_id").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM quotations WHERE id = \\?").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.UpdateDraft(context.Background(), &models.Quotation{ID: 4, ClientID: 1})
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationUpdateDraftReplacesItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuotationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotations SET client_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM quotation_items WHERE quotation_id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("INSERT INTO quotation_items").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	err := repo.UpdateDraft(context.Background(), &models.Quotation{ID: 4, ClientID: 1, Items: []models.LineItem{{Description: "Trucking"}}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationDeleteDraftMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuotationRepository(db)

	mock.ExpectExec("DELETE FROM quotations WHERE id = \\? AND status = \\?").
		WithArgs(int64(6), models.StatusDraft, models.TransactionQuotation, int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM quotations").WillReturnError(sql.ErrNoRows)

	err := repo.DeleteDraft(context.Background(), 6)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRFPListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRFPRepository(db)

	owner := int64(3)
	mock.ExpectQuery("FROM rfps r\nLEFT JOIN clients c ON c.id = r.client_id WHERE r.status = \\? AND r.created_by = \\? ORDER BY r.updated_at DESC, r.id DESC LIMIT 10 OFFSET 10").
		WithArgs(models.StatusDraft, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference_no", "payee"}).AddRow(1, "RFP-202405-00001", "Port Authority"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rfps r WHERE r.status = ? AND r.created_by = ?")).
		WithArgs(models.StatusDraft, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	rfps, total, err := repo.List(context.Background(), models.TransactionFilter{Status: models.StatusDraft, CreatedBy: &owner, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, rfps, 1)
	assert.Equal(t, "Port Authority", rfps[0].Payee)
	assert.NoError(t, mock.ExpectationsWereMet())
}
