package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type approvalRepository interface {
	GetTransaction(ctx context.Context, txType models.TransactionType, id int64) (*models.TransactionRef, error)
	CountDescribedItems(ctx context.Context, txType models.TransactionType, id int64) (int, error)
	Transition(ctx context.Context, params repository.TransitionParams) (*models.ApprovalHistoryEntry, error)
	History(ctx context.Context, txType models.TransactionType, id int64) ([]models.ApprovalHistoryEntry, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalItem, int, error)
	StatusCounts(ctx context.Context) ([]models.ApprovalStatusCount, error)
}

type quotationReader interface {
	FindByID(ctx context.Context, id int64) (*models.Quotation, error)
}

type rfpReader interface {
	FindByID(ctx context.Context, id int64) (*models.RFP, error)
}

// DecisionNotifier is told about approve and reject decisions.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, notice DecisionNotice) error
}

// ApprovalConfig tunes who may decide and whether overrides are possible.
type ApprovalConfig struct {
	ApproverRoles   []models.UserRole
	OverrideEnabled bool
	StatsCacheTTL   time.Duration
}

// ApprovalServiceParams groups constructor dependencies.
type ApprovalServiceParams struct {
	Repo       approvalRepository
	Quotations quotationReader
	RFPs       rfpReader
	Cache      *CacheService
	Metrics    *MetricsService
	Notifier   DecisionNotifier
	Audit      auditRepository
	Logger     *zap.Logger
	Config     ApprovalConfig
}

// ApprovalService runs the quotation/RFP approval workflow.
type ApprovalService struct {
	repo       approvalRepository
	quotations quotationReader
	rfps       rfpReader
	cache      *CacheService
	metrics    *MetricsService
	notifier   DecisionNotifier
	audit      auditTrail
	logger     *zap.Logger
	cfg        ApprovalConfig
	now        func() time.Time
}

// NewApprovalService constructs an ApprovalService with defaults applied.
func NewApprovalService(params ApprovalServiceParams) *ApprovalService {
	cfg := params.Config
	if len(cfg.ApproverRoles) == 0 {
		cfg.ApproverRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager}
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		repo:       params.Repo,
		quotations: params.Quotations,
		rfps:       params.RFPs,
		cache:      params.Cache,
		metrics:    params.Metrics,
		notifier:   params.Notifier,
		audit:      newAuditTrail(params.Audit, logger),
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CanApprove reports whether the role may approve or reject without override.
func (s *ApprovalService) CanApprove(role models.UserRole) bool {
	for _, candidate := range s.cfg.ApproverRoles {
		if candidate == role {
			return true
		}
	}
	return false
}

// List returns the approval queue. STAFF only see documents they created or submitted.
func (s *ApprovalService) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalItem, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", query.Status))
	}
	if query.Type != "" && !query.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown transaction type %q", query.Type))
	}
	filter := models.ApprovalFilter{
		Status:   query.Status,
		Type:     query.Type,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if actor.Role == models.RoleStaff {
		owner := actor.UserID
		filter.OwnerID = &owner
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}
	return items, models.NewPagination(query.Page, query.PageSize, total), nil
}

// Stats returns document counts by status, overall and per type.
func (s *ApprovalService) Stats(ctx context.Context) (*models.ApprovalStats, error) {
	key := cacheKey(cacheNamespaceApprovals, "stats")
	var cached models.ApprovalStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval stats")
	}
	stats := newApprovalStats()
	for _, row := range counts {
		if !row.Status.Valid() {
			continue
		}
		stats.Total += row.Count
		stats.ByStatus[row.Status] += row.Count
		if perType, ok := stats.ByType[row.TransactionType]; ok {
			perType[row.Status] += row.Count
		}
	}
	_ = s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL)
	return stats, nil
}

func newApprovalStats() *models.ApprovalStats {
	stats := &models.ApprovalStats{
		ByStatus: make(map[models.TransactionStatus]int, len(models.TransactionStatuses)),
		ByType:   make(map[models.TransactionType]map[models.TransactionStatus]int, 2),
	}
	for _, txType := range []models.TransactionType{models.TransactionQuotation, models.TransactionRFP} {
		stats.ByType[txType] = make(map[models.TransactionStatus]int, len(models.TransactionStatuses))
		for _, status := range models.TransactionStatuses {
			stats.ByType[txType][status] = 0
		}
	}
	for _, status := range models.TransactionStatuses {
		stats.ByStatus[status] = 0
	}
	return stats
}

// GetQuotation returns a quotation with its items and approval trail.
func (s *ApprovalService) GetQuotation(ctx context.Context, id int64, actor *models.JWTClaims) (*models.QuotationDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	quotation, err := s.quotations.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quotation", "failed to load quotation")
	}
	if !canView(actor, quotation.Workflow) {
		return nil, appErrors.ErrForbidden
	}
	history, err := s.repo.History(ctx, models.TransactionQuotation, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	return &models.QuotationDetail{Quotation: *quotation, History: history}, nil
}

// GetRFP returns an RFP with its items and approval trail.
func (s *ApprovalService) GetRFP(ctx context.Context, id int64, actor *models.JWTClaims) (*models.RFPDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rfp, err := s.rfps.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "rfp", "failed to load rfp")
	}
	if !canView(actor, rfp.Workflow) {
		return nil, appErrors.ErrForbidden
	}
	history, err := s.repo.History(ctx, models.TransactionRFP, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	return &models.RFPDetail{RFP: *rfp, History: history}, nil
}

// History returns the approval trail of a transaction, oldest first.
func (s *ApprovalService) History(ctx context.Context, txType models.TransactionType, id int64, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ref, err := s.load(ctx, txType, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStaff && !ownsRef(actor.UserID, ref) {
		return nil, appErrors.ErrForbidden
	}
	history, err := s.repo.History(ctx, txType, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	return history, nil
}

// Approve moves a pending transaction to approved.
func (s *ApprovalService) Approve(ctx context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	return s.decide(ctx, txType, id, models.ActionApproved, req, actor)
}

// Reject moves a pending transaction to rejected. Comments are mandatory.
func (s *ApprovalService) Reject(ctx context.Context, txType models.TransactionType, id int64, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	return s.decide(ctx, txType, id, models.ActionRejected, req, actor)
}

func (s *ApprovalService) decide(ctx context.Context, txType models.TransactionType, id int64, action models.ApprovalAction, req dto.DecisionRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	comments := strings.TrimSpace(req.Comments)
	if action == models.ActionRejected && comments == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comments are required when rejecting")
	}
	ref, err := s.load(ctx, txType, id)
	if err != nil {
		return nil, err
	}
	if _, err := NextStatus(ref.Status, action); err != nil {
		return nil, err
	}
	if req.IsOverride {
		if !s.cfg.OverrideEnabled {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "approval override is disabled")
		}
		if !actor.Role.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may override approvals")
		}
	} else {
		if !s.CanApprove(actor.Role) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot %s transactions", actor.Role, actionVerb(action)))
		}
		if ref.SubmittedBy != nil && *ref.SubmittedBy == actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot decide on your own submission")
		}
	}
	return s.transition(ctx, ref, action, optionalString(comments), req.IsOverride, actor)
}

// Submit sends a draft for approval. The draft needs at least one described line item.
func (s *ApprovalService) Submit(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ref, err := s.load(ctx, txType, id)
	if err != nil {
		return nil, err
	}
	if ref.CreatedBy != actor.UserID && !s.CanApprove(actor.Role) && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator may submit this transaction")
	}
	if _, err := NextStatus(ref.Status, models.ActionSubmitted); err != nil {
		return nil, err
	}
	described, err := s.repo.CountDescribedItems(ctx, txType, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect line items")
	}
	if described == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one line item with a description is required")
	}
	return s.transition(ctx, ref, models.ActionSubmitted, optionalString(req.Comments), false, actor)
}

// Cancel withdraws a pending submission back to draft.
func (s *ApprovalService) Cancel(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ref, err := s.load(ctx, txType, id)
	if err != nil {
		return nil, err
	}
	submitter := ref.SubmittedBy != nil && *ref.SubmittedBy == actor.UserID
	if !submitter && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter may cancel this submission")
	}
	if _, err := NextStatus(ref.Status, models.ActionCancelled); err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, models.ActionCancelled, optionalString(req.Comments), false, actor)
}

// Revise reopens a rejected transaction as a draft.
func (s *ApprovalService) Revise(ctx context.Context, txType models.TransactionType, id int64, req dto.WorkflowRequest, actor *models.JWTClaims) (*models.TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ref, err := s.load(ctx, txType, id)
	if err != nil {
		return nil, err
	}
	if ref.CreatedBy != actor.UserID && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator may revise this transaction")
	}
	if _, err := NextStatus(ref.Status, models.ActionRevised); err != nil {
		return nil, err
	}
	return s.transition(ctx, ref, models.ActionRevised, optionalString(req.Comments), false, actor)
}

func (s *ApprovalService) load(ctx context.Context, txType models.TransactionType, id int64) (*models.TransactionRef, error) {
	if !txType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown transaction type %q", txType))
	}
	ref, err := s.repo.GetTransaction(ctx, txType, id)
	if err != nil {
		return nil, notFoundOr(err, string(txType), "failed to load "+string(txType))
	}
	return ref, nil
}

func (s *ApprovalService) transition(ctx context.Context, ref *models.TransactionRef, action models.ApprovalAction, comments *string, override bool, actor *models.JWTClaims) (*models.TransitionResult, error) {
	next, err := NextStatus(ref.Status, action)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.Transition(ctx, repository.TransitionParams{
		Type:       ref.Type,
		ID:         ref.ID,
		From:       ref.Status,
		To:         next,
		Action:     action,
		ActorID:    actor.UserID,
		Comments:   comments,
		IsOverride: override,
		At:         s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, string(ref.Type)+" not found")
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("%s %d was changed by another request", ref.Type, ref.ID))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record approval transition")
		}
	}
	previous := *ref
	updated := *ref
	updated.Status = next
	switch action {
	case models.ActionSubmitted:
		submitter := actor.UserID
		updated.SubmittedBy = &submitter
	case models.ActionCancelled:
		updated.SubmittedBy = nil
	}
	s.afterTransition(ctx, previous, updated, *entry, actor)
	return &models.TransitionResult{Transaction: updated, Entry: *entry}, nil
}

func (s *ApprovalService) afterTransition(ctx context.Context, previous, updated models.TransactionRef, entry models.ApprovalHistoryEntry, actor *models.JWTClaims) {
	s.metrics.RecordApprovalTransition(updated.Type, entry.Action)
	_ = s.cache.Invalidate(ctx, cacheKey(cacheNamespaceApprovals, "*"))

	resource := string(updated.Type)
	s.audit.record(ctx, actor.UserID, models.AuditActionApprovalTransition, resource, updated.ID,
		map[string]interface{}{"status": previous.Status},
		map[string]interface{}{"status": updated.Status, "action": entry.Action, "comments": entry.Comments})
	if entry.IsOverride {
		s.logger.Warn("approval override",
			zap.String("type", resource),
			zap.Int64("id", updated.ID),
			zap.String("action", string(entry.Action)),
			zap.Int64("actor_id", actor.UserID),
			zap.String("actor_role", string(actor.Role)))
		s.audit.record(ctx, actor.UserID, models.AuditActionApprovalOverride, resource, updated.ID,
			map[string]interface{}{"status": previous.Status},
			map[string]interface{}{"status": updated.Status, "role": actor.Role})
	}

	if s.notifier == nil || (entry.Action != models.ActionApproved && entry.Action != models.ActionRejected) {
		return
	}
	recipient := updated.CreatedBy
	if previous.SubmittedBy != nil {
		recipient = *previous.SubmittedBy
	}
	notice := DecisionNotice{
		Type:        updated.Type,
		ID:          updated.ID,
		ReferenceNo: updated.ReferenceNo,
		Action:      entry.Action,
		Status:      updated.Status,
		Comments:    entry.Comments,
		RecipientID: recipient,
		ActorName:   actor.FullName,
		DecidedAt:   entry.ActedAt,
	}
	if err := s.notifier.NotifyDecision(ctx, notice); err != nil {
		s.logger.Warn("failed to queue decision notification", zap.String("type", resource), zap.Int64("id", updated.ID), zap.Error(err))
	}
}

func canView(actor *models.JWTClaims, wf models.Workflow) bool {
	if actor.Role != models.RoleStaff {
		return true
	}
	return wf.CreatedBy == actor.UserID || (wf.SubmittedBy != nil && *wf.SubmittedBy == actor.UserID)
}

func ownsRef(userID int64, ref *models.TransactionRef) bool {
	return ref.CreatedBy == userID || (ref.SubmittedBy != nil && *ref.SubmittedBy == userID)
}

func notFoundOr(err error, label, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, label+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
