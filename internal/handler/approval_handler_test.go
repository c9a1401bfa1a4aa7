package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/middleware"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type fakeApprovalSrv struct {
	lastQuery    dto.ApprovalQuery
	lastType     models.TransactionType
	lastID       int64
	lastDecision dto.DecisionRequest
	lastActor    *models.JWTClaims
	decideErr    error
	items        []models.ApprovalItem
}

func (f *fakeApprovalSrv) List(_ context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalItem, *models.Pagination, error) {
	f.lastQuery = query
	f.lastActor = actor
	return f.items, models.NewPagination(query.Page, query.PageSize, len(f.items)), nil
}

func (f *fakeApprovalSrv) Stats(context.Context) (*models.ApprovalStats, error) {
	return &models.ApprovalStats{Total: 3, ByStatus: map[models.TransactionStatus]int{models.StatusPendingApproval: 3}}, nil
}

func (f *fakeApprovalSrv) GetQuotation(_ context.Context, id int64, _ *models.JWTClaims) (*models.QuotationDetail, error) {
	f.lastID = id
	return &models.QuotationDetail{}, nil
}

func (f *fakeApprovalSrv) GetRFP(_ context.Context, id int64, _ *models.JWTClaims) (*models.RFPDetail, error) {
	f.lastID = id
	return nil, appErrors.Clone(appErrors.ErrNotFound, "rfp not found")
}

func (f *fakeApprovalSrv) History(_ context.Context, txType models.TransactionType, id int64, _ *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	f.lastType = txType
	f.lastID = id
	return []models.ApprovalHistoryEntry{{ApprovalID: 1, Action: models.ActionSubmitted}}, nil
}

func (f *fakeApprovalSrv) Approve(_ context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	return f.record(txType, id, req, actor, models.StatusApproved)
}

func (f *fakeApprovalSrv) Reject(_ context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	return f.record(txType, id, req, actor, models.StatusRejected)
}

func (f *fakeApprovalSrv) record(txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims, status models.TransactionStatus) (*models.TransitionResult, error) {
	f.lastType = txType
	f.lastID = id
	f.lastDecision = req
	f.lastActor = actor
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	return &models.TransitionResult{
		Transaction: models.TransactionRef{Type: txType, ID: id, Status: status},
		Entry:       models.ApprovalHistoryEntry{TransactionType: txType, TransactionID: id, NewStatus: status},
	}, nil
}

var testManager = &models.JWTClaims{UserID: 20, Role: models.RoleManager, FullName: "Mia Manager"}

func approvalRouter(svc approvalService, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	})
	h := NewApprovalHandler(svc)
	r.GET("/approvals", h.List)
	r.GET("/approvals/stats", h.Stats)
	r.GET("/approvals/quotation/:id", h.GetQuotation)
	r.GET("/approvals/rfp/:id", h.GetRFP)
	r.GET("/approvals/quotation/:id/history", h.QuotationHistory)
	r.POST("/approvals/quotation/:id/approve", h.ApproveQuotation)
	r.POST("/approvals/quotation/:id/reject", h.RejectQuotation)
	r.POST("/approvals/rfp/:id/approve", h.ApproveRFP)
	return r
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func serve(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestApprovalHandlerListDefaultsToPending(t *testing.T) {
	svc := &fakeApprovalSrv{}
	r := approvalRouter(svc, testManager)

	rec, env := serve(r, http.MethodGet, "/approvals", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPendingApproval, svc.lastQuery.Status)
	assert.Equal(t, "pending_approval", env.Meta["status"])
	assert.Same(t, testManager, svc.lastActor)

	rec, env = serve(r, http.MethodGet, "/approvals?status=ALL&type=RFP&page=2&page_size=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TransactionStatus(""), svc.lastQuery.Status)
	assert.Equal(t, models.TransactionRFP, svc.lastQuery.Type)
	assert.Equal(t, 2, svc.lastQuery.Page)
	assert.Equal(t, 5, svc.lastQuery.PageSize)
	assert.Equal(t, "all", env.Meta["status"])
}

func TestApprovalHandlerRequiresClaims(t *testing.T) {
	r := approvalRouter(&fakeApprovalSrv{}, nil)

	rec, _ := serve(r, http.MethodGet, "/approvals", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(r, http.MethodPost, "/approvals/quotation/1/approve", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApprovalHandlerApproveWithoutBody(t *testing.T) {
	svc := &fakeApprovalSrv{}
	r := approvalRouter(svc, testManager)

	rec, env := serve(r, http.MethodPost, "/approvals/quotation/7/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TransactionQuotation, svc.lastType)
	assert.Equal(t, int64(7), svc.lastID)
	assert.False(t, svc.lastDecision.IsOverride)

	var result models.TransitionResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.StatusApproved, result.Transaction.Status)
}

func TestApprovalHandlerRejectPassesPayload(t *testing.T) {
	svc := &fakeApprovalSrv{}
	r := approvalRouter(svc, testManager)

	rec, _ := serve(r, http.MethodPost, "/approvals/quotation/3/reject", `{"comments":"missing invoice","isOverride":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "missing invoice", svc.lastDecision.Comments)
	assert.True(t, svc.lastDecision.IsOverride)
}

func TestApprovalHandlerRFPRoutesUseRFPType(t *testing.T) {
	svc := &fakeApprovalSrv{}
	r := approvalRouter(svc, testManager)

	rec, _ := serve(r, http.MethodPost, "/approvals/rfp/4/approve", "{}")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TransactionRFP, svc.lastType)

	rec, env := serve(r, http.MethodGet, "/approvals/rfp/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestApprovalHandlerPropagatesServiceErrors(t *testing.T) {
	svc := &fakeApprovalSrv{decideErr: appErrors.Clone(appErrors.ErrInvalidState, "cannot approve a transaction in status approved")}
	r := approvalRouter(svc, testManager)

	rec, env := serve(r, http.MethodPost, "/approvals/quotation/1/approve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	svc.decideErr = appErrors.Clone(appErrors.ErrValidation, "comments are required when rejecting")
	rec, _ = serve(r, http.MethodPost, "/approvals/quotation/1/reject", `{"comments":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovalHandlerRejectsBadInput(t *testing.T) {
	r := approvalRouter(&fakeApprovalSrv{}, testManager)

	rec, _ := serve(r, http.MethodGet, "/approvals/quotation/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(r, http.MethodPost, "/approvals/quotation/1/reject", `{"comments":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovalHandlerHistoryAndStats(t *testing.T) {
	svc := &fakeApprovalSrv{}
	r := approvalRouter(svc, testManager)

	rec, env := serve(r, http.MethodGet, "/approvals/quotation/9/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), svc.lastID)
	var entries []models.ApprovalHistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)

	rec, env = serve(r, http.MethodGet, "/approvals/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var stats models.ApprovalStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.Total)
}
