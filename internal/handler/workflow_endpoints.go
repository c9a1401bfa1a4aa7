package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
	"github.com/noah-isme/freightdesk-api/pkg/response"
)

type workflowService interface {
	Submit(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error)
	Cancel(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error)
	Revise(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error)
}

type workflowFunc func(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error)

// workflowEndpoints serves submit, cancel and revise for one transaction type.
type workflowEndpoints struct {
	txType  models.TransactionType
	service workflowService
}

func (w workflowEndpoints) submit(c *gin.Context) { w.run(c, w.service.Submit) }
func (w workflowEndpoints) cancel(c *gin.Context) { w.run(c, w.service.Cancel) }
func (w workflowEndpoints) revise(c *gin.Context) { w.run(c, w.service.Revise) }

func (w workflowEndpoints) run(c *gin.Context, fn workflowFunc) {
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
	var req dto.WorkflowRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := fn(c.Request.Context(), w.txType, id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// bindOptionalJSON binds the body when present; an empty body leaves dest untouched.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}
