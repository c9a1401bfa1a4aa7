package service

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/middleware/requestid"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditTrail writes best-effort audit records; failures are logged, never returned.
type auditTrail struct {
	repo   auditRepository
	logger *zap.Logger
}

func newAuditTrail(repo auditRepository, logger *zap.Logger) auditTrail {
	if repo != nil {
		if v := reflect.ValueOf(repo); v.Kind() == reflect.Ptr && v.IsNil() {
			repo = nil
		}
	}
	return auditTrail{repo: repo, logger: logger}
}

func (a auditTrail) record(ctx context.Context, actorID int64, action, resource string, resourceID int64, oldValues, newValues interface{}) {
	if a.repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		OldValues: marshalAudit(oldValues),
		NewValues: marshalAudit(newValues),
	}
	if actorID > 0 {
		entry.UserID = &actorID
	}
	if resourceID > 0 {
		id := strconv.FormatInt(resourceID, 10)
		entry.ResourceID = &id
	}
	if err := a.repo.CreateAuditLog(ctx, entry); err != nil && a.logger != nil {
		a.logger.Warn("failed to record audit log",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
	}
}

func marshalAudit(value interface{}) []byte {
	if value == nil {
		return nil
	}
	if raw, ok := value.([]byte); ok {
		return raw
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return data
}
