package service

import (
	"context"
	"strings"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

// CategoryRequest is the create/update payload for service categories.
type CategoryRequest struct {
	Name         string  `json:"name" validate:"required,max=128"`
	Code         string  `json:"code" validate:"required,max=32"`
	Description  *string `json:"description"`
	Active       *bool   `json:"active"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
}

// CategoryService manages service categories.
type CategoryService struct {
	catalog catalog[models.Category]
}

// NewCategoryService constructs the service.
func NewCategoryService(repo masterDataRepository[models.Category], deps MasterDataDeps) *CategoryService {
	return &CategoryService{
		catalog: newCatalog[models.Category](models.MasterDataCategories, "category", repo, func(c *models.Category) int64 { return c.ID }, deps),
	}
}

// List returns categories in display order.
func (s *CategoryService) List(ctx context.Context, filter models.MasterDataFilter) ([]models.Category, error) {
	return s.catalog.list(ctx, filter)
}

// Get returns a single category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.catalog.get(ctx, id)
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest, actorID int64) (*models.Category, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	category := &models.Category{Active: activeOrDefault(req.Active, true)}
	applyCategory(category, req)
	return s.catalog.create(ctx, category, category.Code, actorID)
}

// Update replaces a category's attributes.
func (s *CategoryService) Update(ctx context.Context, id int64, req CategoryRequest, actorID int64) (*models.Category, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	return s.catalog.update(ctx, id, normalizeCode(req.Code), actorID, func(category *models.Category) {
		category.Active = activeOrDefault(req.Active, category.Active)
		applyCategory(category, req)
	})
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id int64, actorID int64) error {
	return s.catalog.remove(ctx, id, actorID)
}

func applyCategory(category *models.Category, req CategoryRequest) {
	category.Name = strings.TrimSpace(req.Name)
	category.Code = normalizeCode(req.Code)
	category.Description = trimmedOrNil(req.Description)
	category.DisplayOrder = req.DisplayOrder
}
