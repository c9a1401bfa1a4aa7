package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/migrations"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/config"
	"github.com/noah-isme/freightdesk-api/pkg/database"
)

type sqliteFixture struct {
	db        *sqlx.DB
	approvals *ApprovalRepository
	quotes    *QuotationRepository
	staff     *models.User
	manager   *models.User
	client    *models.Client
}

func newSQLiteFixture(t *testing.T) *sqliteFixture {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runner, err := migrations.NewRunner(db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background()))

	ctx := context.Background()
	users := NewUserRepository(db)
	staff := &models.User{Email: "staff@example.com", PasswordHash: "x", FullName: "Sam Staff", Role: models.RoleStaff, Active: true}
	manager := &models.User{Email: "manager@example.com", PasswordHash: "x", FullName: "Mia Manager", Role: models.RoleManager, Active: true}
	require.NoError(t, users.Create(ctx, staff))
	require.NoError(t, users.Create(ctx, manager))

	client := &models.Client{Code: "ACME", Name: "Acme Shipping", Active: true}
	require.NoError(t, NewClientRepository(db).Create(ctx, client))

	return &sqliteFixture{
		db:        db,
		approvals: NewApprovalRepository(db),
		quotes:    NewQuotationRepository(db),
		staff:     staff,
		manager:   manager,
		client:    client,
	}
}

func (f *sqliteFixture) draftQuotation(t *testing.T) *models.Quotation {
	t.Helper()
	quotation := &models.Quotation{
		ClientID:    f.client.ID,
		Origin:      "Manila",
		Destination: "Cebu",
		Currency:    models.DefaultCurrency,
		Amount:      decimal.RequireFromString("2500.50"),
		Workflow:    models.Workflow{Status: models.StatusDraft, CreatedBy: f.staff.ID},
		Items: []models.LineItem{{
			Description: "Door to door",
			Quantity:    decimal.NewFromInt(1),
			Unit:        "lot",
			UnitPrice:   decimal.RequireFromString("2500.50"),
			Amount:      decimal.RequireFromString("2500.50"),
		}},
	}
	require.NoError(t, f.quotes.Create(context.Background(), quotation))
	return quotation
}

func (f *sqliteFixture) submit(t *testing.T, id int64) {
	t.Helper()
	_, err := f.approvals.Transition(context.Background(), TransitionParams{
		Type: models.TransactionQuotation, ID: id,
		From: models.StatusDraft, To: models.StatusPendingApproval,
		Action: models.ActionSubmitted, ActorID: f.staff.ID,
	})
	require.NoError(t, err)
}

func TestSQLiteSubmitThenApprove(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	quotation := f.draftQuotation(t)

	f.submit(t, quotation.ID)
	_, err := f.approvals.Transition(ctx, TransitionParams{
		Type: models.TransactionQuotation, ID: quotation.ID,
		From: models.StatusPendingApproval, To: models.StatusApproved,
		Action: models.ActionApproved, ActorID: f.manager.ID,
	})
	require.NoError(t, err)

	ref, err := f.approvals.GetTransaction(ctx, models.TransactionQuotation, quotation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, ref.Status)

	history, err := f.approvals.History(ctx, models.TransactionQuotation, quotation.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionSubmitted, history[0].Action)
	assert.Equal(t, models.ActionApproved, history[1].Action)
	assert.Equal(t, ref.Status, history[1].NewStatus)
	require.NotNil(t, history[1].ActorName)
	assert.Equal(t, "Mia Manager", *history[1].ActorName)

	stored, err := f.quotes.FindByID(ctx, quotation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, f.manager.ID, *stored.ReviewedBy)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("2500.50")))
	require.Len(t, stored.Items, 1)
}

func TestSQLiteRejectRecordsComments(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	quotation := f.draftQuotation(t)
	f.submit(t, quotation.ID)

	comments := "missing invoice"
	_, err := f.approvals.Transition(ctx, TransitionParams{
		Type: models.TransactionQuotation, ID: quotation.ID,
		From: models.StatusPendingApproval, To: models.StatusRejected,
		Action: models.ActionRejected, ActorID: f.manager.ID, Comments: &comments,
	})
	require.NoError(t, err)

	history, err := f.approvals.History(ctx, models.TransactionQuotation, quotation.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, models.ActionRejected, last.Action)
	require.NotNil(t, last.Comments)
	assert.Equal(t, "missing invoice", *last.Comments)

	err = f.quotes.DeleteDraft(ctx, quotation.ID)
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestSQLiteConcurrentApproveHasOneWinner(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	quotation := f.draftQuotation(t)
	f.submit(t, quotation.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.approvals.Transition(ctx, TransitionParams{
				Type: models.TransactionQuotation, ID: quotation.ID,
				From: models.StatusPendingApproval, To: models.StatusApproved,
				Action: models.ActionApproved, ActorID: f.manager.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrStatusChanged)
	}
	assert.Equal(t, 1, succeeded)

	history, err := f.approvals.History(ctx, models.TransactionQuotation, quotation.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSQLiteQueueAndCounts(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	first := f.draftQuotation(t)
	f.draftQuotation(t)
	f.submit(t, first.ID)

	items, total, err := f.approvals.List(ctx, models.ApprovalFilter{Status: models.StatusPendingApproval})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, first.ReferenceNo, items[0].ReferenceNo)
	require.NotNil(t, items[0].SubmittedByName)
	assert.Equal(t, "Sam Staff", *items[0].SubmittedByName)

	items, total, err = f.approvals.List(ctx, models.ApprovalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	statuses := []models.TransactionStatus{items[0].Status, items[1].Status}
	assert.ElementsMatch(t, []models.TransactionStatus{models.StatusDraft, models.StatusPendingApproval}, statuses)

	counts, err := f.approvals.StatusCounts(ctx)
	require.NoError(t, err)
	byStatus := map[models.TransactionStatus]int{}
	for _, c := range counts {
		byStatus[c.Status] += c.Count
	}
	assert.Equal(t, 1, byStatus[models.StatusDraft])
	assert.Equal(t, 1, byStatus[models.StatusPendingApproval])
}
