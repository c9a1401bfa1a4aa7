package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/service"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
	"github.com/noah-isme/freightdesk-api/pkg/response"
)

type masterDataService[T any, R any] interface {
	List(ctx context.Context, filter models.MasterDataFilter) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, req R, actorID int64) (*T, error)
	Update(ctx context.Context, id int64, req R, actorID int64) (*T, error)
	Delete(ctx context.Context, id int64, actorID int64) error
}

// masterDataEndpoints implements the CRUD endpoints shared by every
// reference-data resource.
type masterDataEndpoints[T any, R any] struct {
	service masterDataService[T, R]
}

func (e masterDataEndpoints[T, R]) list(c *gin.Context) {
	filter := models.MasterDataFilter{Active: activeQuery(c), Search: c.Query("search")}
	items, err := e.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func (e masterDataEndpoints[T, R]) get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := e.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func (e masterDataEndpoints[T, R]) create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := e.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

func (e masterDataEndpoints[T, R]) update(c *gin.Context) {
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
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := e.service.Update(c.Request.Context(), id, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func (e masterDataEndpoints[T, R]) delete(c *gin.Context) {
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
	if err := e.service.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClientHandler exposes client master data.
type ClientHandler struct {
	endpoints masterDataEndpoints[models.Client, service.ClientRequest]
}

// NewClientHandler constructs the handler.
func NewClientHandler(svc masterDataService[models.Client, service.ClientRequest]) *ClientHandler {
	return &ClientHandler{endpoints: masterDataEndpoints[models.Client, service.ClientRequest]{service: svc}}
}

// List godoc
// @Summary List clients
// @Tags Master Data
// @Produce json
// @Param active query bool false "Active filter"
// @Param search query string false "Search by code or name"
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) { h.endpoints.list(c) }

// Get godoc
// @Summary Get client
// @Tags Master Data
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) { h.endpoints.get(c) }

// Create godoc
// @Summary Create client
// @Tags Master Data
// @Accept json
// @Produce json
// @Param payload body service.ClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Create(c *gin.Context) { h.endpoints.create(c) }

// Update godoc
// @Summary Update client
// @Tags Master Data
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param payload body service.ClientRequest true "Client payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) { h.endpoints.update(c) }

// Delete godoc
// @Summary Delete client
// @Description Clients referenced by quotations or RFPs cannot be deleted
// @Tags Master Data
// @Param id path int true "Client ID"
// @Success 204 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) { h.endpoints.delete(c) }

// CategoryHandler exposes service categories.
type CategoryHandler struct {
	endpoints masterDataEndpoints[models.Category, service.CategoryRequest]
}

// NewCategoryHandler constructs the handler.
func NewCategoryHandler(svc masterDataService[models.Category, service.CategoryRequest]) *CategoryHandler {
	return &CategoryHandler{endpoints: masterDataEndpoints[models.Category, service.CategoryRequest]{service: svc}}
}

// List godoc
// @Summary List categories
// @Tags Master Data
// @Produce json
// @Param active query bool false "Active filter"
// @Param search query string false "Search by code or name"
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) { h.endpoints.list(c) }

// Get godoc
// @Summary Get category
// @Tags Master Data
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) { h.endpoints.get(c) }

// Create godoc
// @Summary Create category
// @Tags Master Data
// @Accept json
// @Produce json
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) { h.endpoints.create(c) }

// Update godoc
// @Summary Update category
// @Tags Master Data
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) { h.endpoints.update(c) }

// Delete godoc
// @Summary Delete category
// @Tags Master Data
// @Param id path int true "Category ID"
// @Success 204 {object} response.Envelope
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) { h.endpoints.delete(c) }

// ContainerSizeHandler exposes container sizes.
type ContainerSizeHandler struct {
	endpoints masterDataEndpoints[models.ContainerSize, service.ContainerSizeRequest]
}

// NewContainerSizeHandler constructs the handler.
func NewContainerSizeHandler(svc masterDataService[models.ContainerSize, service.ContainerSizeRequest]) *ContainerSizeHandler {
	return &ContainerSizeHandler{endpoints: masterDataEndpoints[models.ContainerSize, service.ContainerSizeRequest]{service: svc}}
}

// List godoc
// @Summary List container sizes
// @Tags Master Data
// @Produce json
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /container-sizes [get]
func (h *ContainerSizeHandler) List(c *gin.Context) { h.endpoints.list(c) }

// Get godoc
// @Summary Get container size
// @Tags Master Data
// @Produce json
// @Param id path int true "Container size ID"
// @Success 200 {object} response.Envelope
// @Router /container-sizes/{id} [get]
func (h *ContainerSizeHandler) Get(c *gin.Context) { h.endpoints.get(c) }

// Create godoc
// @Summary Create container size
// @Tags Master Data
// @Accept json
// @Produce json
// @Param payload body service.ContainerSizeRequest true "Container size payload"
// @Success 201 {object} response.Envelope
// @Router /container-sizes [post]
func (h *ContainerSizeHandler) Create(c *gin.Context) { h.endpoints.create(c) }

// Update godoc
// @Summary Update container size
// @Tags Master Data
// @Accept json
// @Produce json
// @Param id path int true "Container size ID"
// @Param payload body service.ContainerSizeRequest true "Container size payload"
// @Success 200 {object} response.Envelope
// @Router /container-sizes/{id} [put]
func (h *ContainerSizeHandler) Update(c *gin.Context) { h.endpoints.update(c) }

// Delete godoc
// @Summary Delete container size
// @Tags Master Data
// @Param id path int true "Container size ID"
// @Success 204 {object} response.Envelope
// @Router /container-sizes/{id} [delete]
func (h *ContainerSizeHandler) Delete(c *gin.Context) { h.endpoints.delete(c) }

// TruckSizeHandler exposes truck sizes.
type TruckSizeHandler struct {
	endpoints masterDataEndpoints[models.TruckSize, service.TruckSizeRequest]
}

// NewTruckSizeHandler constructs the handler.
func NewTruckSizeHandler(svc masterDataService[models.TruckSize, service.TruckSizeRequest]) *TruckSizeHandler {
	return &TruckSizeHandler{endpoints: masterDataEndpoints[models.TruckSize, service.TruckSizeRequest]{service: svc}}
}

// List godoc
// @Summary List truck sizes
// @Tags Master Data
// @Produce json
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /truck-sizes [get]
func (h *TruckSizeHandler) List(c *gin.Context) { h.endpoints.list(c) }

// Get godoc
// @Summary Get truck size
// @Tags Master Data
// @Produce json
// @Param id path int true "Truck size ID"
// @Success 200 {object} response.Envelope
// @Router /truck-sizes/{id} [get]
func (h *TruckSizeHandler) Get(c *gin.Context) { h.endpoints.get(c) }

// Create godoc
// @Summary Create truck size
// @Tags Master Data
// @Accept json
// @Produce json
// @Param payload body service.TruckSizeRequest true "Truck size payload"
// @Success 201 {object} response.Envelope
// @Router /truck-sizes [post]
func (h *TruckSizeHandler) Create(c *gin.Context) { h.endpoints.create(c) }

// Update godoc
// @Summary Update truck size
// @Tags Master Data
// @Accept json
// @Produce json
// @Param id path int true "Truck size ID"
// @Param payload body service.TruckSizeRequest true "Truck size payload"
// @Success 200 {object} response.Envelope
// @Router /truck-sizes/{id} [put]
func (h *TruckSizeHandler) Update(c *gin.Context) { h.endpoints.update(c) }

// Delete godoc
// @Summary Delete truck size
// @Tags Master Data
// @Param id path int true "Truck size ID"
// @Success 204 {object} response.Envelope
// @Router /truck-sizes/{id} [delete]
func (h *TruckSizeHandler) Delete(c *gin.Context) { h.endpoints.delete(c) }
