package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type masterDataRepository[T any] interface {
	List(ctx context.Context, filter models.MasterDataFilter) ([]T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id int64) error
}

// MasterDataDeps carries the collaborators shared by every reference-data service.
type MasterDataDeps struct {
	Validator *validator.Validate
	Cache     *CacheService
	CacheTTL  time.Duration
	Audit     auditRepository
	Logger    *zap.Logger
}

// catalog implements list/get/create/update/delete for one reference table
// with list caching, code uniqueness and audit logging.
type catalog[T any] struct {
	kind      models.MasterDataKind
	label     string
	repo      masterDataRepository[T]
	idOf      func(*T) int64
	validator *validator.Validate
	cache     *CacheService
	ttl       time.Duration
	audit     auditTrail
	logger    *zap.Logger
}

func newCatalog[T any](kind models.MasterDataKind, label string, repo masterDataRepository[T], idOf func(*T) int64, deps MasterDataDeps) catalog[T] {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	return catalog[T]{
		kind:      kind,
		label:     label,
		repo:      repo,
		idOf:      idOf,
		validator: validate,
		cache:     deps.Cache,
		ttl:       deps.CacheTTL,
		audit:     newAuditTrail(deps.Audit, logger),
		logger:    logger,
	}
}

func (c catalog[T]) list(ctx context.Context, filter models.MasterDataFilter) ([]T, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	key := cacheKey(cacheNamespaceMasterData, string(c.kind), "active="+boolKey(filter.Active), "q="+strings.ToLower(filter.Search))

	var cached []T
	if hit, _ := c.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	items, err := c.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+string(c.kind))
	}
	_ = c.cache.Set(ctx, key, items, c.ttl)
	return items, nil
}

func (c catalog[T]) get(ctx context.Context, id int64) (*T, error) {
	item, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, c.label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+c.label)
	}
	return item, nil
}

func (c catalog[T]) validate(req interface{}) error {
	if err := c.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+c.label+" payload")
	}
	return nil
}

func (c catalog[T]) ensureUniqueCode(ctx context.Context, code string, excludeID int64) error {
	exists, err := c.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check "+c.label+" code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, c.label+" code already exists")
	}
	return nil
}

func (c catalog[T]) create(ctx context.Context, item *T, code string, actorID int64) (*T, error) {
	if err := c.ensureUniqueCode(ctx, code, 0); err != nil {
		return nil, err
	}
	if err := c.repo.Create(ctx, item); err != nil {
		return nil, c.writeError(err, "create")
	}
	c.afterWrite(ctx, actorID, models.AuditActionMasterDataCreate, c.idOf(item), nil, item)
	return item, nil
}

func (c catalog[T]) update(ctx context.Context, id int64, code string, actorID int64, apply func(*T)) (*T, error) {
	item, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	if err := c.ensureUniqueCode(ctx, code, id); err != nil {
		return nil, err
	}
	apply(item)
	if err := c.repo.Update(ctx, item); err != nil {
		return nil, c.writeError(err, "update")
	}
	c.afterWrite(ctx, actorID, models.AuditActionMasterDataUpdate, id, before, item)
	return item, nil
}

func (c catalog[T]) remove(ctx context.Context, id int64, actorID int64) error {
	item, err := c.get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return c.writeError(err, "delete")
	}
	c.afterWrite(ctx, actorID, models.AuditActionMasterDataDelete, id, item, nil)
	return nil
}

func (c catalog[T]) writeError(err error, op string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, c.label+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, c.label+" code already exists")
	case errors.Is(err, repository.ErrReferenced):
		return appErrors.Clone(appErrors.ErrPreconditionFailed, c.label+" is still referenced")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op+" "+c.label)
}

func (c catalog[T]) afterWrite(ctx context.Context, actorID int64, action string, id int64, before, after interface{}) {
	_ = c.cache.Invalidate(ctx, cacheKey(cacheNamespaceMasterData, string(c.kind), "*"))
	c.audit.record(ctx, actorID, action, string(c.kind), id, before, after)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func activeOrDefault(active *bool, fallback bool) bool {
	if active == nil {
		return fallback
	}
	return *active
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
