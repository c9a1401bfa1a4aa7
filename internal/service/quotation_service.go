package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/export"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type quotationRepository interface {
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Quotation, int, error)
	FindByID(ctx context.Context, id int64) (*models.Quotation, error)
	Create(ctx context.Context, quotation *models.Quotation) error
	UpdateDraft(ctx context.Context, quotation *models.Quotation) error
	DeleteDraft(ctx context.Context, id int64) error
}

type clientLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Client, error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

// TransactionDeps carries the collaborators shared by the quotation and RFP services.
type TransactionDeps struct {
	Clients   clientLookup
	Validator *validator.Validate
	Cache     *CacheService
	Audit     auditRepository
	Renderer  documentRenderer
	Logger    *zap.Logger
}

func (d TransactionDeps) withDefaults() TransactionDeps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Renderer == nil {
		d.Renderer = export.NewPDFExporter()
	}
	return d
}

// QuotationService manages draft quotations. Workflow transitions go through ApprovalService.
type QuotationService struct {
	repo      quotationRepository
	clients   clientLookup
	validator *validator.Validate
	cache     *CacheService
	audit     auditTrail
	renderer  documentRenderer
}

// NewQuotationService constructs a QuotationService.
func NewQuotationService(repo quotationRepository, deps TransactionDeps) *QuotationService {
	deps = deps.withDefaults()
	return &QuotationService{
		repo:      repo,
		clients:   deps.Clients,
		validator: deps.Validator,
		cache:     deps.Cache,
		audit:     newAuditTrail(deps.Audit, deps.Logger),
		renderer:  deps.Renderer,
	}
}

// List returns quotations; STAFF only see their own.
func (s *QuotationService) List(ctx context.Context, query dto.TransactionQuery, actor *models.JWTClaims) ([]models.Quotation, *models.Pagination, error) {
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
	quotations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quotations")
	}
	return quotations, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Get returns a quotation with its items.
func (s *QuotationService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Quotation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	quotation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quotation", "failed to load quotation")
	}
	if !canView(actor, quotation.Workflow) {
		return nil, appErrors.ErrForbidden
	}
	return quotation, nil
}

// Create stores a new draft quotation owned by the actor.
func (s *QuotationService) Create(ctx context.Context, req dto.QuotationRequest, actor *models.JWTClaims) (*models.Quotation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	quotation := &models.Quotation{
		ReferenceNo: strings.TrimSpace(req.ReferenceNo),
		Workflow:    models.Workflow{Status: models.StatusDraft, CreatedBy: actor.UserID},
	}
	if err := s.apply(ctx, quotation, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, quotation); err != nil {
		return nil, draftWriteError(err, "quotation", "create")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionCreate, quotation.ID, nil, quotation)
	return quotation, nil
}

// Update replaces header and items of a draft quotation.
func (s *QuotationService) Update(ctx context.Context, id int64, req dto.QuotationRequest, actor *models.JWTClaims) (*models.Quotation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	quotation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quotation", "failed to load quotation")
	}
	if err := canEditDraft(actor, quotation.Workflow); err != nil {
		return nil, err
	}
	before := *quotation
	if err := s.apply(ctx, quotation, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDraft(ctx, quotation); err != nil {
		return nil, draftWriteError(err, "quotation", "update")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionUpdate, quotation.ID, before, quotation)
	return quotation, nil
}

// Delete removes a draft quotation that never entered approval.
func (s *QuotationService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	quotation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "quotation", "failed to load quotation")
	}
	if err := canEditDraft(actor, quotation.Workflow); err != nil {
		return err
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		return draftWriteError(err, "quotation", "delete")
	}
	s.afterWrite(ctx, actor.UserID, models.AuditActionTransactionDelete, id, quotation, nil)
	return nil
}

// RenderPDF prints the quotation and returns the file name to serve it under.
func (s *QuotationService) RenderPDF(ctx context.Context, id int64, actor *models.JWTClaims) ([]byte, string, error) {
	quotation, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.renderer.RenderDocument(quotationDocument(quotation))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render quotation")
	}
	return payload, sanitizeFilename(quotation.ReferenceNo) + ".pdf", nil
}

func (s *QuotationService) apply(ctx context.Context, quotation *models.Quotation, req dto.QuotationRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quotation payload")
	}
	client, err := lookupActiveClient(ctx, s.clients, req.ClientID)
	if err != nil {
		return err
	}
	items, total, err := buildLineItems(req.Items)
	if err != nil {
		return err
	}
	quotation.ClientID = req.ClientID
	quotation.ClientName = &client.Name
	quotation.CategoryID = req.CategoryID
	quotation.ContainerSizeID = req.ContainerSizeID
	quotation.TruckSizeID = req.TruckSizeID
	quotation.Origin = strings.TrimSpace(req.Origin)
	quotation.Destination = strings.TrimSpace(req.Destination)
	quotation.ValidUntil = req.ValidUntil
	quotation.Currency = normalizeCurrency(req.Currency)
	quotation.Remarks = optionalString(req.Remarks)
	quotation.Items = items
	quotation.Amount = total
	return nil
}

func (s *QuotationService) afterWrite(ctx context.Context, actorID int64, action string, id int64, oldValues, newValues interface{}) {
	_ = s.cache.Invalidate(ctx, cacheKey(cacheNamespaceApprovals, "*"))
	s.audit.record(ctx, actorID, action, string(models.TransactionQuotation), id, oldValues, newValues)
}

func quotationDocument(q *models.Quotation) export.Document {
	client := fmt.Sprintf("#%d", q.ClientID)
	if q.ClientName != nil {
		client = *q.ClientName
	}
	fields := []export.Field{
		{Label: "Client", Value: client},
		{Label: "Origin", Value: q.Origin},
		{Label: "Destination", Value: q.Destination},
		{Label: "Status", Value: string(q.Status)},
		{Label: "Date", Value: q.CreatedAt.Format("2006-01-02")},
	}
	if q.ValidUntil != nil {
		fields = append(fields, export.Field{Label: "Valid until", Value: q.ValidUntil.Format("2006-01-02")})
	}
	doc := export.Document{
		Title:    "Quotation " + q.ReferenceNo,
		Subtitle: q.Origin + " to " + q.Destination,
		Fields:   fields,
		Items:    lineItemDataset(q.Currency, q.Items),
		Totals:   []export.Field{{Label: "Total", Value: formatMoney(q.Currency, q.Amount)}},
	}
	if q.Remarks != nil {
		doc.Footer = *q.Remarks
	}
	return doc
}

func lineItemDataset(currency string, items []models.LineItem) export.Dataset {
	data := export.Dataset{
		Columns: []export.Column{
			{Key: "description", Label: "Description", Width: 4},
			{Key: "quantity", Label: "Qty", Width: 1, Align: "R"},
			{Key: "unit", Label: "Unit", Width: 1},
			{Key: "unit_price", Label: "Unit price", Width: 1.5, Align: "R"},
			{Key: "amount", Label: "Amount (" + currency + ")", Width: 1.5, Align: "R"},
		},
		Rows: make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"description": item.Description,
			"quantity":    item.Quantity.String(),
			"unit":        item.Unit,
			"unit_price":  item.UnitPrice.StringFixed(2),
			"amount":      item.Amount.StringFixed(2),
		})
	}
	return data
}
