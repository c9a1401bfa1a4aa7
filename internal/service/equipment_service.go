package service

import (
	"context"
	"strings"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

// ContainerSizeRequest is the create/update payload for container sizes.
type ContainerSizeRequest struct {
	Name         string  `json:"name" validate:"required,max=64"`
	Code         string  `json:"code" validate:"required,max=16"`
	LengthFt     float64 `json:"lengthFt" validate:"gte=0"`
	WidthFt      float64 `json:"widthFt" validate:"gte=0"`
	HeightFt     float64 `json:"heightFt" validate:"gte=0"`
	MaxWeightKg  float64 `json:"maxWeightKg" validate:"gte=0"`
	TEU          float64 `json:"teu" validate:"gte=0"`
	Active       *bool   `json:"active"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
}

// TruckSizeRequest is the create/update payload for truck sizes.
type TruckSizeRequest struct {
	Name         string  `json:"name" validate:"required,max=64"`
	Code         string  `json:"code" validate:"required,max=16"`
	CapacityKg   float64 `json:"capacityKg" validate:"gte=0"`
	CapacityCBM  float64 `json:"capacityCbm" validate:"gte=0"`
	Active       *bool   `json:"active"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
}

// ContainerSizeService manages container size master data.
type ContainerSizeService struct {
	catalog catalog[models.ContainerSize]
}

// NewContainerSizeService constructs the service.
func NewContainerSizeService(repo masterDataRepository[models.ContainerSize], deps MasterDataDeps) *ContainerSizeService {
	return &ContainerSizeService{
		catalog: newCatalog[models.ContainerSize](models.MasterDataContainerSizes, "container size", repo, func(c *models.ContainerSize) int64 { return c.ID }, deps),
	}
}

// List returns container sizes in display order.
func (s *ContainerSizeService) List(ctx context.Context, filter models.MasterDataFilter) ([]models.ContainerSize, error) {
	return s.catalog.list(ctx, filter)
}

// Get returns a single container size.
func (s *ContainerSizeService) Get(ctx context.Context, id int64) (*models.ContainerSize, error) {
	return s.catalog.get(ctx, id)
}

// Create adds a container size.
func (s *ContainerSizeService) Create(ctx context.Context, req ContainerSizeRequest, actorID int64) (*models.ContainerSize, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	size := &models.ContainerSize{Active: activeOrDefault(req.Active, true)}
	applyContainerSize(size, req)
	return s.catalog.create(ctx, size, size.Code, actorID)
}

// Update replaces a container size's attributes.
func (s *ContainerSizeService) Update(ctx context.Context, id int64, req ContainerSizeRequest, actorID int64) (*models.ContainerSize, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	return s.catalog.update(ctx, id, normalizeCode(req.Code), actorID, func(size *models.ContainerSize) {
		size.Active = activeOrDefault(req.Active, size.Active)
		applyContainerSize(size, req)
	})
}

// Delete removes a container size.
func (s *ContainerSizeService) Delete(ctx context.Context, id int64, actorID int64) error {
	return s.catalog.remove(ctx, id, actorID)
}

// TruckSizeService manages truck size master data.
type TruckSizeService struct {
	catalog catalog[models.TruckSize]
}

// NewTruckSizeService constructs the service.
func NewTruckSizeService(repo masterDataRepository[models.TruckSize], deps MasterDataDeps) *TruckSizeService {
	return &TruckSizeService{
		catalog: newCatalog[models.TruckSize](models.MasterDataTruckSizes, "truck size", repo, func(t *models.TruckSize) int64 { return t.ID }, deps),
	}
}

// List returns truck sizes in display order.
func (s *TruckSizeService) List(ctx context.Context, filter models.MasterDataFilter) ([]models.TruckSize, error) {
	return s.catalog.list(ctx, filter)
}

// Get returns a single truck size.
func (s *TruckSizeService) Get(ctx context.Context, id int64) (*models.TruckSize, error) {
	return s.catalog.get(ctx, id)
}

// Create adds a truck size.
func (s *TruckSizeService) Create(ctx context.Context, req TruckSizeRequest, actorID int64) (*models.TruckSize, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	size := &models.TruckSize{Active: activeOrDefault(req.Active, true)}
	applyTruckSize(size, req)
	return s.catalog.create(ctx, size, size.Code, actorID)
}

// Update replaces a truck size's attributes.
func (s *TruckSizeService) Update(ctx context.Context, id int64, req TruckSizeRequest, actorID int64) (*models.TruckSize, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	return s.catalog.update(ctx, id, normalizeCode(req.Code), actorID, func(size *models.TruckSize) {
		size.Active = activeOrDefault(req.Active, size.Active)
		applyTruckSize(size, req)
	})
}

// Delete removes a truck size.
func (s *TruckSizeService) Delete(ctx context.Context, id int64, actorID int64) error {
	return s.catalog.remove(ctx, id, actorID)
}

func applyContainerSize(size *models.ContainerSize, req ContainerSizeRequest) {
	size.Name = strings.TrimSpace(req.Name)
	size.Code = normalizeCode(req.Code)
	size.LengthFt = req.LengthFt
	size.WidthFt = req.WidthFt
	size.HeightFt = req.HeightFt
	size.MaxWeightKg = req.MaxWeightKg
	size.TEU = req.TEU
	size.DisplayOrder = req.DisplayOrder
}

func applyTruckSize(size *models.TruckSize, req TruckSizeRequest) {
	size.Name = strings.TrimSpace(req.Name)
	size.Code = normalizeCode(req.Code)
	size.CapacityKg = req.CapacityKg
	size.CapacityCBM = req.CapacityCBM
	size.DisplayOrder = req.DisplayOrder
}
