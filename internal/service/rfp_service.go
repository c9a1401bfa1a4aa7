package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/export"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type rfpRepository interface {
	List(ctx context.Context, filter models.TransactionFilter) ([]models.RFP, int, error)
	FindByID(ctx context.Context, id int64) (*models.RFP, error)
	Create(ctx context.Context, rfp *models.RFP) error
	UpdateDraft(ctx context.Context, rfp *models.RFP) error
	DeleteDraft(ctx context.Context, id int64) error
}

// RFPService manages draft requests for payment.
type RFPService struct {
	repo      rfpRepository
	clients   clientLookup
	validator *validator.Validate
	cache     *CacheService
	audit     auditTrail
	renderer  documentRenderer
}

// NewRFPService constructs an RFPService.
func NewRFPService(repo rfpRepository, deps TransactionDeps) *RFPService {
	deps = deps.withDefaults()
	return &RFPService{
		repo:      repo,
		clients:   deps.Clients,
		validator: deps.Validator,
		cache:     deps.Cache,
		audit:     newAuditTrail(deps.Audit, deps.Logger),
		renderer:  deps.Renderer,
	}
}

// List returns RFPs; STAFF only see their own.
func (s *RFPService) List(ctx context.Context, query dto.TransactionQuery, actor *models.JWTClaims) ([]models.RFP, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	status, err := parseStatusFilter(query.Status)
	if err != nil {
		return nil, nil, err
	}
	filter := models.TransactionFilter{
		Status:   status,
		ClientID: query.ClientID,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if actor.Role == models.RoleStaff {
		owner := actor.UserID
		filter.CreatedBy = &owner
	}
	rfps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rfps")
	}
	return rfps, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Get returns an RFP with its items.
func (s *RFPService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.RFP, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "rfp", "failed to load rfp")
	}
	if !canView(actor, rfp.Workflow) {
		return nil, appErrors.ErrForbidden
	}
	return rfp, nil
}

// Create stores a new draft RFP owned by the actor.
func (s *RFPService) Create(ctx context.Context, req dto.RFPRequest, actor *models.JWTClaims) (*models.RFP, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rfp := &models.RFP{
		ReferenceNo: strings.TrimSpace(req.ReferenceNo),
		Workflow:    models.Workflow{Status: models.StatusDraft, CreatedBy: actor.UserID},
	}
	if err := s.apply(ctx, rfp, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rfp); err != nil {
		return nil, draftWriteError(err, "rfp", "create")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionCreate, rfp.ID, nil, rfp)
	return rfp, nil
}

// Update replaces header and items of a draft RFP.
func (s *RFPService) Update(ctx context.Context, id int64, req dto.RFPRequest, actor *models.JWTClaims) (*models.RFP, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "rfp", "failed to load rfp")
	}
	if err := canEditDraft(actor, rfp.Workflow); err != nil {
		return nil, err
	}
	before := *rfp
	if err := s.apply(ctx, rfp, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDraft(ctx, rfp); err != nil {
		return nil, draftWriteError(err, "rfp", "update")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionUpdate, rfp.ID, before, rfp)
	return rfp, nil
}

// Delete removes a draft RFP that never entered approval.
func (s *RFPService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "rfp", "failed to load rfp")
	}
	if err := canEditDraft(actor, rfp.Workflow); err != nil {
		return err
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		return draftWriteError(err, "rfp", "delete")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionDelete, id, rfp, nil)
	return nil
}

// RenderPDF prints the RFP and returns the file name to serve it under.
func (s *RFPService) RenderPDF(ctx context.Context, id int64, actor *models.JWTClaims) ([]byte, string, error) {
	rfp, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.renderer.RenderDocument(rfpDocument(rfp))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render rfp")
	}
	return payload, sanitizeFilename(rfp.ReferenceNo) + ".pdf", nil
}

func (s *RFPService) apply(ctx context.Context, rfp *models.RFP, req dto.RFPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rfp payload")
	}
	rfp.ClientName = nil
	if req.ClientID != nil {
		client, err := lookupActiveClient(ctx, s.clients, *req.ClientID)
		if err != nil {
			return err
		}
		rfp.ClientName = &client.Name
	}
	items, total, err := buildLineItems(req.Items)
	if err != nil {
		return err
	}
	rfp.ClientID = req.ClientID
	rfp.Payee = strings.TrimSpace(req.Payee)
	rfp.Purpose = strings.TrimSpace(req.Purpose)
	rfp.Currency = normalizeCurrency(req.Currency)
	rfp.NeededBy = req.NeededBy
	rfp.Items = items
	rfp.Amount = total
	return nil
}

func (s *RFPService) afterWrite(ctx context.Context, actorID int64, action string, id int64, oldValues, newValues interface{}) {
	_ = s.cache.Invalidate(ctx, cacheKey(cacheNamespaceApprovals, "*"))
	s.audit.record(ctx, actorID, action, string(models.TransactionRFP), id, oldValues, newValues)
}

func rfpDocument(r *models.RFP) export.Document {
	fields := []export.Field{
		{Label: "Payee", Value: r.Payee},
		{Label: "Purpose", Value: r.Purpose},
		{Label: "Status", Value: string(r.Status)},
		{Label: "Date", Value: r.CreatedAt.Format("2006-01-02")},
	}
	if r.ClientName != nil {
		fields = append(fields, export.Field{Label: "Client", Value: *r.ClientName})
	} else if r.ClientID != nil {
		fields = append(fields, export.Field{Label: "Client", Value: fmt.Sprintf("#%d", *r.ClientID)})
	}
	if r.NeededBy != nil {
		fields = append(fields, export.Field{Label: "Needed by", Value: r.NeededBy.Format("2006-01-02")})
	}
	return export.Document{
		Title:    "Request for Payment " + r.ReferenceNo,
		Subtitle: r.Payee,
		Fields:   fields,
		Items:    lineItemDataset(r.Currency, r.Items),
		Totals:   []export.Field{{Label: "Total", Value: formatMoney(r.Currency, r.Amount)}},
	}
}
