package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/middleware"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type fakeQuotationSrv struct {
	lastQuery  dto.TransactionQuery
	lastCreate dto.QuotationRequest
}

func (f *fakeQuotationSrv) List(_ context.Context, query dto.TransactionQuery, _ *models.JWTClaims) ([]models.Quotation, *models.Pagination, error) {
	f.lastQuery = query
	return []models.Quotation{}, models.NewPagination(query.Page, query.PageSize, 0), nil
}

func (f *fakeQuotationSrv) Get(_ context.Context, id int64, _ *models.JWTClaims) (*models.Quotation, error) {
	return &models.Quotation{ID: id}, nil
}

func (f *fakeQuotationSrv) Create(_ context.Context, req dto.QuotationRequest, actor *models.JWTClaims) (*models.Quotation, error) {
	f.lastCreate = req
	return &models.Quotation{ID: 1, ClientID: req.ClientID, Workflow: models.Workflow{Status: models.StatusDraft, CreatedBy: actor.UserID}}, nil
}

func (f *fakeQuotationSrv) Update(_ context.Context, id int64, _ dto.QuotationRequest, _ *models.JWTClaims) (*models.Quotation, error) {
	return nil, appErrors.Clone(appErrors.ErrInvalidState, "only draft quotations can be edited")
}

func (f *fakeQuotationSrv) Delete(context.Context, int64, *models.JWTClaims) error {
	return nil
}

func (f *fakeQuotationSrv) RenderPDF(_ context.Context, id int64, _ *models.JWTClaims) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "QT-202405-00001.pdf", nil
}

type fakeWorkflowSrv struct {
	calls []string
	types []models.TransactionType
	req   dto.WorkflowRequest
}

func (f *fakeWorkflowSrv) Submit(_ context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, _ *models.JWTClaims) (*models.TransitionResult, error) {
	return f.record("submit", txType, id, req, models.StatusPendingApproval)
}

func (f *fakeWorkflowSrv) Cancel(_ context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, _ *models.JWTClaims) (*models.TransitionResult, error) {
	return f.record("cancel", txType, id, req, models.StatusDraft)
}

func (f *fakeWorkflowSrv) Revise(_ context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, _ *models.JWTClaims) (*models.TransitionResult, error) {
	return f.record("revise", txType, id, req, models.StatusDraft)
}

func (f *fakeWorkflowSrv) record(call string, txType models.TransactionType, id int64, req dto.WorkflowRequest, status models.TransactionStatus) (*models.TransitionResult, error) {
	f.calls = append(f.calls, call)
	f.types = append(f.types, txType)
	f.req = req
	return &models.TransitionResult{Transaction: models.TransactionRef{Type: txType, ID: id, Status: status}}, nil
}

var testStaff = &models.JWTClaims{UserID: 10, Role: models.RoleStaff}

func transactionRouter(quotations quotationService, rfps rfpService, workflow workflowService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, testStaff)
		c.Next()
	})
	q := NewQuotationHandler(quotations, workflow)
	r.GET("/quotations", q.List)
	r.POST("/quotations", q.Create)
	r.PUT("/quotations/:id", q.Update)
	r.DELETE("/quotations/:id", q.Delete)
	r.GET("/quotations/:id/pdf", q.PDF)
	r.POST("/quotations/:id/submit", q.Submit)
	r.POST("/quotations/:id/cancel", q.Cancel)
	r.POST("/quotations/:id/revise", q.Revise)
	if rfps != nil {
		h := NewRFPHandler(rfps, workflow)
		r.POST("/rfps/:id/submit", h.Submit)
	}
	return r
}

func TestQuotationHandlerListParsesFilters(t *testing.T) {
	svc := &fakeQuotationSrv{}
	r := transactionRouter(svc, nil, &fakeWorkflowSrv{})

	rec, _ := serve(r, http.MethodGet, "/quotations?status=draft&client_id=3&search=manila&page=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "draft", svc.lastQuery.Status)
	require.NotNil(t, svc.lastQuery.ClientID)
	assert.Equal(t, int64(3), *svc.lastQuery.ClientID)
	assert.Equal(t, "manila", svc.lastQuery.Search)
	assert.Equal(t, 2, svc.lastQuery.Page)

	rec, _ = serve(r, http.MethodGet, "/quotations?client_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotationHandlerCreate(t *testing.T) {
	svc := &fakeQuotationSrv{}
	r := transactionRouter(svc, nil, &fakeWorkflowSrv{})

	body := `{"clientId":1,"origin":"Manila","destination":"Cebu","items":[{"description":"Ocean freight","quantity":"2","unitPrice":"10.50"}]}`
	rec, _ := serve(r, http.MethodPost, "/quotations", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), svc.lastCreate.ClientID)
	require.Len(t, svc.lastCreate.Items, 1)
	assert.Equal(t, "10.5", svc.lastCreate.Items[0].UnitPrice.String())

	rec, _ = serve(r, http.MethodPost, "/quotations", `{"clientId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotationHandlerUpdateConflict(t *testing.T) {
	r := transactionRouter(&fakeQuotationSrv{}, nil, &fakeWorkflowSrv{})

	rec, env := serve(r, http.MethodPut, "/quotations/1", `{"clientId":1,"origin":"a","destination":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	rec, _ = serve(r, http.MethodDelete, "/quotations/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestQuotationHandlerWorkflowEndpoints(t *testing.T) {
	workflow := &fakeWorkflowSrv{}
	r := transactionRouter(&fakeQuotationSrv{}, &fakeRFPSrv{}, workflow)

	rec, _ := serve(r, http.MethodPost, "/quotations/5/submit", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = serve(r, http.MethodPost, "/quotations/5/cancel", `{"comments":"wrong rate"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wrong rate", workflow.req.Comments)
	rec, _ = serve(r, http.MethodPost, "/quotations/5/revise", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = serve(r, http.MethodPost, "/rfps/2/submit", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"submit", "cancel", "revise", "submit"}, workflow.calls)
	assert.Equal(t, []models.TransactionType{
		models.TransactionQuotation, models.TransactionQuotation, models.TransactionQuotation, models.TransactionRFP,
	}, workflow.types)
}

func TestQuotationHandlerPDF(t *testing.T) {
	r := transactionRouter(&fakeQuotationSrv{}, nil, &fakeWorkflowSrv{})

	rec, _ := serve(r, http.MethodGet, "/quotations/1/pdf", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "QT-202405-00001.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

type fakeRFPSrv struct{}

func (fakeRFPSrv) List(context.Context, dto.TransactionQuery, *models.JWTClaims) ([]models.RFP, *models.Pagination, error) {
	return nil, nil, nil
}

func (fakeRFPSrv) Get(context.Context, int64, *models.JWTClaims) (*models.RFP, error) {
	return nil, appErrors.ErrNotFound
}

func (fakeRFPSrv) Create(context.Context, dto.RFPRequest, *models.JWTClaims) (*models.RFP, error) {
	return nil, nil
}

func (fakeRFPSrv) Update(context.Context, int64, dto.RFPRequest, *models.JWTClaims) (*models.RFP, error) {
	return nil, nil
}

func (fakeRFPSrv) Delete(context.Context, int64, *models.JWTClaims) error {
	return nil
}

func (fakeRFPSrv) RenderPDF(context.Context, int64, *models.JWTClaims) ([]byte, string, error) {
	return nil, "", nil
}
