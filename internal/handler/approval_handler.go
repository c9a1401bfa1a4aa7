package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/middleware"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
	"github.com/noah-isme/freightdesk-api/pkg/response"
)

type approvalService interface {
	List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalItem, *models.Pagination, error)
	Stats(ctx context.Context) (*models.ApprovalStats, error)
	GetQuotation(ctx context.Context, id int64, actor *models.JWTClaims) (*models.QuotationDetail, error)
	GetRFP(ctx context.Context, id int64, actor *models.JWTClaims) (*models.RFPDetail, error)
	History(ctx context.Context, txType models.TransactionType, id int64, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error)
	Approve(ctx context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error)
	Reject(ctx context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error)
}

type decisionFunc func(ctx context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error)

// statusAll lifts the default pending_approval filter on the approval queue.
const statusAll = "all"

// ApprovalHandler exposes the approval queue and decision endpoints.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(svc approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// List godoc
// @Summary Approval queue
// @Description Lists quotations and RFPs by approval status. Defaults to pending_approval; use status=all for every status.
// @Tags Approvals
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "quotation or rfp"
// @Param search query string false "Reference or client"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	switch status {
	case "":
		status = string(models.StatusPendingApproval)
	case statusAll:
		status = ""
	}
	page, size := pageParams(c)
	query := dto.ApprovalQuery{
		Status:   models.TransactionStatus(status),
		Type:     models.TransactionType(strings.ToLower(c.Query("type"))),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if status == "" {
		middleware.SetMeta(c, "status", statusAll)
	} else {
		middleware.SetMeta(c, "status", status)
	}
	response.JSON(c, http.StatusOK, items, pagination, middleware.ResponseMeta(c))
}

// Stats godoc
// @Summary Approval statistics
// @Description Document counts per status overall and per transaction type
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals/stats [get]
func (h *ApprovalHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// GetQuotation godoc
// @Summary Quotation approval detail
// @Tags Approvals
// @Produce json
// @Param id path int true "Quotation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/quotation/{id} [get]
func (h *ApprovalHandler) GetQuotation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.GetQuotation(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetRFP godoc
// @Summary RFP approval detail
// @Tags Approvals
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/rfp/{id} [get]
func (h *ApprovalHandler) GetRFP(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.GetRFP(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// QuotationHistory godoc
// @Summary Quotation approval history
// @Tags Approvals
// @Produce json
// @Param id path int true "Quotation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/quotation/{id}/history [get]
func (h *ApprovalHandler) QuotationHistory(c *gin.Context) {
	h.history(c, models.TransactionQuotation)
}

// RFPHistory godoc
// @Summary RFP approval history
// @Tags Approvals
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/rfp/{id}/history [get]
func (h *ApprovalHandler) RFPHistory(c *gin.Context) {
	h.history(c, models.TransactionRFP)
}

// ApproveQuotation godoc
// @Summary Approve quotation
// @Description Approver roles only. Deciding on your own submission returns 403 unless isOverride is set.
// @Description isOverride requires override to be enabled and an ADMIN or SUPER_ADMIN actor; it waives the approver-role and own-submission checks.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.DecisionRequest false "Comments and override flag"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/quotation/{id}/approve [post]
func (h *ApprovalHandler) ApproveQuotation(c *gin.Context) {
	h.decide(c, models.TransactionQuotation, h.service.Approve)
}

// RejectQuotation godoc
// @Summary Reject quotation
// @Description Comments are required
// @Description Approver roles only. Deciding on your own submission returns 403 unless isOverride is set.
// @Description isOverride requires override to be enabled and an ADMIN or SUPER_ADMIN actor; it waives the approver-role and own-submission checks.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.DecisionRequest true "Comments and override flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/quotation/{id}/reject [post]
func (h *ApprovalHandler) RejectQuotation(c *gin.Context) {
	h.decide(c, models.TransactionQuotation, h.service.Reject)
}

// ApproveRFP godoc
// @Summary Approve RFP
// @Description Approver roles only. Deciding on your own submission returns 403 unless isOverride is set.
// @Description isOverride requires override to be enabled and an ADMIN or SUPER_ADMIN actor; it waives the approver-role and own-submission checks.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.DecisionRequest false "Comments and override flag"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/rfp/{id}/approve [post]
func (h *ApprovalHandler) ApproveRFP(c *gin.Context) {
	h.decide(c, models.TransactionRFP, h.service.Approve)
}

// RejectRFP godoc
// @Summary Reject RFP
// @Description Comments are required
// @Description Approver roles only. Deciding on your own submission returns 403 unless isOverride is set.
// @Description isOverride requires override to be enabled and an ADMIN or SUPER_ADMIN actor; it waives the approver-role and own-submission checks.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.DecisionRequest true "Comments and override flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/rfp/{id}/reject [post]
func (h *ApprovalHandler) RejectRFP(c *gin.Context) {
	h.decide(c, models.TransactionRFP, h.service.Reject)
}

func (h *ApprovalHandler) history(c *gin.Context, txType models.TransactionType) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.History(c.Request.Context(), txType, id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *ApprovalHandler) decide(c *gin.Context, txType models.TransactionType, fn decisionFunc) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DecisionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := fn(c.Request.Context(), txType, id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
