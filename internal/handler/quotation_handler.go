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

type quotationService interface {
	List(ctx context.Context, query dto.TransactionQuery, actor *models.JWTClaims) ([]models.Quotation, *models.Pagination, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Quotation, error)
	Create(ctx context.Context, req dto.QuotationRequest, actor *models.JWTClaims) (*models.Quotation, error)
	Update(ctx context.Context, id int64, req dto.QuotationRequest, actor *models.JWTClaims) (*models.Quotation, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
	RenderPDF(ctx context.Context, id int64, actor *models.JWTClaims) ([]byte, string, error)
}

// QuotationHandler exposes quotation drafting and workflow endpoints.
type QuotationHandler struct {
	service  quotationService
	workflow workflowEndpoints
}

// NewQuotationHandler constructs the handler.
func NewQuotationHandler(svc quotationService, workflow workflowService) *QuotationHandler {
	return &QuotationHandler{
		service:  svc,
		workflow: workflowEndpoints{txType: models.TransactionQuotation, service: workflow},
	}
}

// List godoc
// @Summary List quotations
// @Description STAFF only see quotations they created
// @Tags Quotations
// @Produce json
// @Param status query string false "draft, pending_approval, approved or rejected"
// @Param client_id query int false "Client filter"
// @Param search query string false "Reference, origin or destination"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
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
	quotations, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quotations, pagination)
}

// Get godoc
// @Summary Get quotation
// @Tags Quotations
// @Produce json
// @Param id path int true "Quotation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quotations/{id} [get]
func (h *QuotationHandler) Get(c *gin.Context) {
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
	quotation, err := h.service.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quotation, nil)
}

// Create godoc
// @Summary Create quotation draft
// @Tags Quotations
// @Accept json
// @Produce json
// @Param payload body dto.QuotationRequest true "Quotation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.QuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quotation, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quotation)
}

// Update godoc
// @Summary Update quotation draft
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.QuotationRequest true "Quotation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
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
	var req dto.QuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quotation, err := h.service.Update(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quotation, nil)
}

// Delete godoc
// @Summary Delete quotation draft
// @Tags Quotations
// @Param id path int true "Quotation ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quotations/{id} [delete]
func (h *QuotationHandler) Delete(c *gin.Context) {
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
// @Summary Print quotation
// @Tags Quotations
// @Produce application/pdf
// @Param id path int true "Quotation ID"
// @Success 200 {file} file
// @Router /quotations/{id}/pdf [get]
func (h *QuotationHandler) PDF(c *gin.Context) {
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
// @Summary Submit quotation for approval
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quotations/{id}/submit [post]
func (h *QuotationHandler) Submit(c *gin.Context) { h.workflow.submit(c) }

// Cancel godoc
// @Summary Withdraw a pending quotation back to draft
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Router /quotations/{id}/cancel [post]
func (h *QuotationHandler) Cancel(c *gin.Context) { h.workflow.cancel(c) }

// Revise godoc
// @Summary Reopen a rejected quotation as draft
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "Quotation ID"
// @Param payload body dto.WorkflowRequest false "Optional comments"
// @Success 200 {object} response.Envelope
// @Router /quotations/{id}/revise [post]
func (h *QuotationHandler) Revise(c *gin.Context) { h.workflow.revise(c) }

func transactionQuery(c *gin.Context) (dto.TransactionQuery, error) {
	clientID, err := optionalIDQuery(c, "client_id")
	if err != nil {
		return dto.TransactionQuery{}, err
	}
	page, size := pageParams(c)
	return dto.TransactionQuery{
		Status:   c.Query("status"),
		ClientID: clientID,
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	}, nil
}
