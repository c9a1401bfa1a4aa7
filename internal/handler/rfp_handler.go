package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
	"github.com/noah-isme/freightdesk-api/pkg/response"
)

type rfpService interface {
	List(ctx context.Context, query dto.TransactionQuery, actor *models.JWTClaims) ([]models.RFP, *models.Pagination, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.RFP, error)
	Create(ctx context.Context, req dto.RFPRequest, actor *models.JWTClaims) (*models.RFP, error)
	Update(ctx context.Context, id int64, req dto.RFPRequest, actor *models.JWTClaims) (*models.RFP, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
	RenderPDF(ctx context.Context, id int64, actor *models.JWTClaims) ([]byte, string, error)
}

// RFPHandler exposes request-for-payment drafting and workflow endpoints.
type RFPHandler struct {
	service  rfpService
	workflow workflowEndpoints
}

// NewRFPHandler constructs the handler.
func NewRFPHandler(svc rfpService, workflow workflowService) *RFPHandler {
	return &RFPHandler{
		service:  svc,
		workflow: workflowEndpoints{txType: models.TransactionRFP, service: workflow},
	}
}

// List godoc
// @Summary List requests for payment
// @Description STAFF only see RFPs they created
// @Tags RFPs
// @Produce json
// @Param status query string false "draft, pending_approval, approved or rejected"
// @Param client_id query int false "Client filter"
// @Param search query string false "Reference, payee or purpose"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rfps [get]
func (h *RFPHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, err := transactionQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rfps, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rfps, pagination)
}

// Get godoc
// @Summary Get RFP
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rfps/{id} [get]
func (h *RFPHandler) Get(c *gin.Context) {
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
	rfp, err := h.service.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rfp, nil)
}

// Create godoc
// @Summary Create RFP draft
// @Tags RFPs
// @Accept json
// @Produce json
// @Param payload body dto.RFPRequest true "RFP payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rfps [post]
func (h *RFPHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rfp, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rfp)
}

// Update godoc
// @Summary Update RFP draft
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.RFPRequest true "RFP payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rfps/{id} [put]
func (h *RFPHandler) Update(c *gin.Context) {
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
	var req dto.RFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rfp, err := h.service.Update(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rfp, nil)
}

// Delete godoc
// @Summary Delete RFP draft
// @Tags RFPs
// @Param id path int true "RFP ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rfps/{id} [delete]
func (h *RFPHandler) Delete(c *gin.Context) {
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
	if err := h.service.Delete(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PDF godoc
// @Summary Print RFP
// @Tags RFPs
// @Produce application/pdf
// @Param id path int true "RFP ID"
// @Success 200 {file} file
// @Router /rfps/{id}/pdf [get]
func (h *RFPHandler) PDF(c *gin.Context) {
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
	payload, filename, err := h.service.RenderPDF(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", payload)
}

// Submit godoc
// @Summary Submit RFP for approval
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rfps/{id}/submit [post]
func (h *RFPHandler) Submit(c *gin.Context) { h.workflow.submit(c) }

// Cancel godoc
// @Summary Withdraw a pending RFP back to draft
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Router /rfps/{id}/cancel [post]
func (h *RFPHandler) Cancel(c *gin.Context) { h.workflow.cancel(c) }

// Revise godoc
// @Summary Reopen a rejected RFP as draft
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Router /rfps/{id}/revise [post]
func (h *RFPHandler) Revise(c *gin.Context) { h.workflow.revise(c) }
