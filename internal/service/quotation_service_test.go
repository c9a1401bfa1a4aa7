package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	"github.com/noah-isme/freightdesk-api/pkg/export"
)

type fakeQuotationRepo struct {
	quotations map[int64]*models.Quotation
	nextID     int64
	lastFilter models.TransactionFilter
	updateErr  error
	deleteErr  error
	deleted    []int64
}

func newFakeQuotationRepo() *fakeQuotationRepo {
	return &fakeQuotationRepo{quotations: make(map[int64]*models.Quotation), nextID: 1}
}

func (f *fakeQuotationRepo) List(ctx context.Context, filter models.TransactionFilter) ([]models.Quotation, int, error) {
	f.lastFilter = filter
	result := make([]models.Quotation, 0, len(f.quotations))
	for _, q := range f.quotations {
		result = append(result, *q)
	}
	return result, len(result), nil
}

func (f *fakeQuotationRepo) FindByID(ctx context.Context, id int64) (*models.Quotation, error) {
	q, ok := f.quotations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuotationRepo) Create(ctx context.Context, quotation *models.Quotation) error {
	quotation.ID = f.nextID
	f.nextID++
	if quotation.ReferenceNo == "" {
		quotation.ReferenceNo = "QT-202405-00001"
	}
	copied := *quotation
	f.quotations[quotation.ID] = &copied
	return nil
}

func (f *fakeQuotationRepo) UpdateDraft(ctx context.Context, quotation *models.Quotation) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *quotation
	f.quotations[quotation.ID] = &copied
	return nil
}

func (f *fakeQuotationRepo) DeleteDraft(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.quotations, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeClientLookup map[int64]models.Client

func (f fakeClientLookup) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	client, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &client, nil
}

type capturingRenderer struct {
	doc export.Document
}

func (c *capturingRenderer) RenderDocument(doc export.Document) ([]byte, error) {
	c.doc = doc
	return []byte("%PDF-1.3"), nil
}

func testClients() fakeClientLookup {
	return fakeClientLookup{
		1: {ID: 1, Code: "ACME", Name: "Acme Logistics", Active: true},
		2: {ID: 2, Code: "OLD", Name: "Old Client", Active: false},
	}
}

func sampleQuotationRequest() dto.QuotationRequest {
	return dto.QuotationRequest{
		ClientID:    1,
		Origin:      " Manila ",
		Destination: "Cebu",
		Items: []dto.LineItemRequest{
			{Description: "Ocean freight 20ft", Quantity: decimal.NewFromInt(2), Unit: "cntr", UnitPrice: decimal.RequireFromString("10.555")},
			{Description: "Documentation", Quantity: decimal.NewFromInt(1), Unit: "lot", UnitPrice: decimal.RequireFromString("1500")},
		},
	}
}

func newQuotationServiceForTest(repo *fakeQuotationRepo, audit *mockAuditRepo, renderer documentRenderer) *QuotationService {
	return NewQuotationService(repo, TransactionDeps{Clients: testClients(), Audit: audit, Renderer: renderer})
}

func TestQuotationServiceCreatePricesItems(t *testing.T) {
	repo := newFakeQuotationRepo()
	audit := &mockAuditRepo{}
	svc := newQuotationServiceForTest(repo, audit, nil)

	quotation, err := svc.Create(context.Background(), sampleQuotationRequest(), staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, quotation.Status)
	assert.Equal(t, staffActor.UserID, quotation.CreatedBy)
	assert.Equal(t, "Manila", quotation.Origin)
	assert.Equal(t, models.DefaultCurrency, quotation.Currency)
	require.Len(t, quotation.Items, 2)
	assert.Equal(t, "21.11", quotation.Items[0].Amount.StringFixed(2))
	assert.Equal(t, 2, quotation.Items[1].SortOrder)
	assert.Equal(t, "1521.11", quotation.Amount.StringFixed(2))
	assert.Equal(t, []string{models.AuditActionTransactionCreate}, audit.actions())
}

func TestQuotationServiceCreateRejectsBadInput(t *testing.T) {
	svc := newQuotationServiceForTest(newFakeQuotationRepo(), nil, nil)
	ctx := context.Background()

	inactive := sampleQuotationRequest()
	inactive.ClientID = 2
	_, err := svc.Create(ctx, inactive, staffActor)
	assertAppError(t, err, http.StatusBadRequest)

	unknown := sampleQuotationRequest()
	unknown.ClientID = 42
	_, err = svc.Create(ctx, unknown, staffActor)
	assertAppError(t, err, http.StatusBadRequest)

	zeroQty := sampleQuotationRequest()
	zeroQty.Items[0].Quantity = decimal.Zero
	_, err = svc.Create(ctx, zeroQty, staffActor)
	assertAppError(t, err, http.StatusBadRequest)

	badCurrency := sampleQuotationRequest()
	badCurrency.Currency = "PESO"
	_, err = svc.Create(ctx, badCurrency, staffActor)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestQuotationServiceUpdateRules(t *testing.T) {
	repo := newFakeQuotationRepo()
	svc := newQuotationServiceForTest(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, sampleQuotationRequest(), staffActor)
	require.NoError(t, err)

	other := &models.JWTClaims{UserID: 31, Role: models.RoleStaff}
	_, err = svc.Update(ctx, created.ID, sampleQuotationRequest(), other)
	assertAppError(t, err, http.StatusForbidden)

	req := sampleQuotationRequest()
	req.Destination = "Davao"
	updated, err := svc.Update(ctx, created.ID, req, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Davao", updated.Destination)

	repo.quotations[created.ID].Status = models.StatusPendingApproval
	_, err = svc.Update(ctx, created.ID, req, staffActor)
	assertAppError(t, err, http.StatusConflict)

	repo.quotations[created.ID].Status = models.StatusDraft
	repo.updateErr = repository.ErrStatusChanged
	_, err = svc.Update(ctx, created.ID, req, staffActor)
	assertAppError(t, err, http.StatusConflict)
}

func TestQuotationServiceDelete(t *testing.T) {
	repo := newFakeQuotationRepo()
	svc := newQuotationServiceForTest(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, sampleQuotationRequest(), staffActor)
	require.NoError(t, err)

	repo.deleteErr = repository.ErrStatusChanged
	err = svc.Delete(ctx, created.ID, staffActor)
	assertAppError(t, err, http.StatusConflict)

	repo.deleteErr = nil
	require.NoError(t, svc.Delete(ctx, created.ID, staffActor))
	assert.Equal(t, []int64{created.ID}, repo.deleted)

	err = svc.Delete(ctx, created.ID, staffActor)
	assertAppError(t, err, http.StatusNotFound)
}

func TestQuotationServiceListScopesStaff(t *testing.T) {
	repo := newFakeQuotationRepo()
	svc := newQuotationServiceForTest(repo, nil, nil)

	_, _, err := svc.List(context.Background(), dto.TransactionQuery{Status: "Pending_Approval"}, staffActor)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.CreatedBy)
	assert.Equal(t, staffActor.UserID, *repo.lastFilter.CreatedBy)
	assert.Equal(t, models.StatusPendingApproval, repo.lastFilter.Status)

	_, _, err = svc.List(context.Background(), dto.TransactionQuery{Status: "closed"}, managerActor)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestQuotationServiceRenderPDF(t *testing.T) {
	repo := newFakeQuotationRepo()
	renderer := &capturingRenderer{}
	svc := newQuotationServiceForTest(repo, nil, renderer)
	created, err := svc.Create(context.Background(), sampleQuotationRequest(), staffActor)
	require.NoError(t, err)

	payload, filename, err := svc.RenderPDF(context.Background(), created.ID, staffActor)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Equal(t, "QT-202405-00001.pdf", filename)
	assert.Equal(t, "Quotation QT-202405-00001", renderer.doc.Title)
	require.Len(t, renderer.doc.Items.Rows, 2)
	assert.Equal(t, "PHP 1521.11", renderer.doc.Totals[0].Value)

	outsider := &models.JWTClaims{UserID: 31, Role: models.RoleStaff}
	_, _, err = svc.RenderPDF(context.Background(), created.ID, outsider)
	assertAppError(t, err, http.StatusForbidden)
}
