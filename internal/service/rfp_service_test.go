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
)

type fakeRFPRepo struct {
	rfps      map[int64]*models.RFP
	deleteErr error
}

func (f *fakeRFPRepo) List(ctx context.Context, filter models.TransactionFilter) ([]models.RFP, int, error) {
	return nil, 0, nil
}

func (f *fakeRFPRepo) FindByID(ctx context.Context, id int64) (*models.RFP, error) {
	rfp, ok := f.rfps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *rfp
	return &copied, nil
}

func (f *fakeRFPRepo) Create(ctx context.Context, rfp *models.RFP) error {
	rfp.ID = int64(len(f.rfps) + 1)
	if rfp.ReferenceNo == "" {
		rfp.ReferenceNo = "RFP-202405-00001"
	}
	copied := *rfp
	f.rfps[rfp.ID] = &copied
	return nil
}

func (f *fakeRFPRepo) UpdateDraft(ctx context.Context, rfp *models.RFP) error {
	copied := *rfp
	f.rfps[rfp.ID] = &copied
	return nil
}

func (f *fakeRFPRepo) DeleteDraft(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rfps, id)
	return nil
}

func sampleRFPRequest() dto.RFPRequest {
	return dto.RFPRequest{
		Payee:    "Harbor Brokerage",
		Purpose:  "Port charges for BL 5521",
		Currency: "usd",
		Items: []dto.LineItemRequest{
			{Description: "Arrastre", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("33.333")},
		},
	}
}

func TestRFPServiceCreateWithoutClient(t *testing.T) {
	repo := &fakeRFPRepo{rfps: make(map[int64]*models.RFP)}
	svc := NewRFPService(repo, TransactionDeps{Clients: testClients()})

	rfp, err := svc.Create(context.Background(), sampleRFPRequest(), staffActor)
	require.NoError(t, err)
	assert.Nil(t, rfp.ClientID)
	assert.Equal(t, "USD", rfp.Currency)
	assert.Equal(t, "100.00", rfp.Amount.StringFixed(2))
	assert.Equal(t, models.StatusDraft, rfp.Status)
}

func TestRFPServiceCreateWithInactiveClient(t *testing.T) {
	repo := &fakeRFPRepo{rfps: make(map[int64]*models.RFP)}
	svc := NewRFPService(repo, TransactionDeps{Clients: testClients()})
	req := sampleRFPRequest()
	clientID := int64(2)
	req.ClientID = &clientID

	_, err := svc.Create(context.Background(), req, staffActor)
	assertAppError(t, err, http.StatusBadRequest)
	assert.Empty(t, repo.rfps)
}

func TestRFPServiceDeleteAfterWorkflow(t *testing.T) {
	repo := &fakeRFPRepo{rfps: make(map[int64]*models.RFP), deleteErr: repository.ErrStatusChanged}
	svc := NewRFPService(repo, TransactionDeps{Clients: testClients()})
	rfp, err := svc.Create(context.Background(), sampleRFPRequest(), staffActor)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), rfp.ID, staffActor)
	appErr := assertAppError(t, err, http.StatusConflict)
	assert.Contains(t, appErr.Message, "never entered approval")
}

func TestRFPServiceRenderPDF(t *testing.T) {
	repo := &fakeRFPRepo{rfps: make(map[int64]*models.RFP)}
	renderer := &capturingRenderer{}
	svc := NewRFPService(repo, TransactionDeps{Clients: testClients(), Renderer: renderer})
	rfp, err := svc.Create(context.Background(), sampleRFPRequest(), staffActor)
	require.NoError(t, err)

	_, filename, err := svc.RenderPDF(context.Background(), rfp.ID, managerActor)
	require.NoError(t, err)
	assert.Equal(t, "RFP-202405-00001.pdf", filename)
	assert.Equal(t, "USD 100.00", renderer.doc.Totals[0].Value)
}
