package service

import (
	"context"
	"strings"

	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type clientRepository interface {
	masterDataRepository[models.Client]
	CountReferences(ctx context.Context, id int64) (int, error)
}

// ClientRequest is the create/update payload for clients.
type ClientRequest struct {
	Code          string  `json:"code" validate:"required,max=32"`
	Name          string  `json:"name" validate:"required,max=255"`
	ContactPerson *string `json:"contactPerson" validate:"omitempty,max=255"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone" validate:"omitempty,max=64"`
	Address       *string `json:"address"`
	Active        *bool   `json:"active"`
}

// ClientService manages client master data.
type ClientService struct {
	catalog catalog[models.Client]
	repo    clientRepository
}

// NewClientService constructs the service.
func NewClientService(repo clientRepository, deps MasterDataDeps) *ClientService {
	return &ClientService{
		catalog: newCatalog[models.Client](models.MasterDataClients, "client", repo, func(c *models.Client) int64 { return c.ID }, deps),
		repo:    repo,
	}
}

// List returns clients matching the filter.
func (s *ClientService) List(ctx context.Context, filter models.MasterDataFilter) ([]models.Client, error) {
	return s.catalog.list(ctx, filter)
}

// Get returns a single client.
func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	return s.catalog.get(ctx, id)
}

// Create adds a client.
func (s *ClientService) Create(ctx context.Context, req ClientRequest, actorID int64) (*models.Client, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	client := &models.Client{Active: activeOrDefault(req.Active, true)}
	applyClient(client, req)
	return s.catalog.create(ctx, client, client.Code, actorID)
}

// Update replaces a client's attributes.
func (s *ClientService) Update(ctx context.Context, id int64, req ClientRequest, actorID int64) (*models.Client, error) {
	if err := s.catalog.validate(req); err != nil {
		return nil, err
	}
	return s.catalog.update(ctx, id, normalizeCode(req.Code), actorID, func(client *models.Client) {
		client.Active = activeOrDefault(req.Active, client.Active)
		applyClient(client, req)
	})
}

// Delete removes a client that no quotation or RFP refers to.
func (s *ClientService) Delete(ctx context.Context, id int64, actorID int64) error {
	if _, err := s.catalog.get(ctx, id); err != nil {
		return err
	}
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check client references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "client is referenced by quotations or RFPs")
	}
	return s.catalog.remove(ctx, id, actorID)
}

func applyClient(client *models.Client, req ClientRequest) {
	client.Code = normalizeCode(req.Code)
	client.Name = strings.TrimSpace(req.Name)
	client.ContactPerson = trimmedOrNil(req.ContactPerson)
	client.Email = trimmedOrNil(req.Email)
	client.Phone = trimmedOrNil(req.Phone)
	client.Address = trimmedOrNil(req.Address)
}
