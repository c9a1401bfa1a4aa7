package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
	"github.com/noah-isme/freightdesk-api/pkg/export"
	"github.com/noah-isme/freightdesk-api/pkg/storage"
)

// exportPageSize is the page size used when walking the whole approval queue.
const exportPageSize = 100

type approvalSource interface {
	List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalItem, *models.Pagination, error)
	History(ctx context.Context, txType models.TransactionType, id int64, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders approval datasets and serves them through signed links.
type ExportService struct {
	approvals approvalSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(approvals approvalSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		approvals: approvals,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders the requested dataset, stores it and returns a signed link.
func (s *ExportService) Generate(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (*models.ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	dataset, err := s.buildDataset(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch req.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	relPath, err := s.storage.Save(s.buildFilename(req, id), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	s.logger.Info("export generated",
		zap.String("id", id),
		zap.String("kind", string(req.Kind)),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int64("actor_id", actor.UserID))

	return &models.ExportResult{
		ID:           id,
		Kind:         req.Kind,
		Format:       req.Format,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Rows:         len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) ([]byte, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "export link is invalid or expired")
	}
	data, err := s.storage.Read(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
	}
	return data, relPath, nil
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (s *ExportService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Cleanup(0)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("export cleanup", zap.Int("removed", len(removed)))
			}
		}
	}
}

func (s *ExportService) buildFilename(req dto.ExportRequest, id string) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(string(req.Kind)), timestamp, id[:8], req.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (export.Dataset, error) {
	switch req.Kind {
	case models.ExportKindApprovals:
		return s.buildApprovalsDataset(ctx, req, actor)
	case models.ExportKindApprovalHistory:
		return s.buildHistoryDataset(ctx, req, actor)
	default:
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export kind %q", req.Kind))
	}
}

func (s *ExportService) buildApprovalsDataset(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (export.Dataset, error) {
	query := dto.ApprovalQuery{Status: req.Status, Type: req.TransactionType, Page: 1, PageSize: exportPageSize}
	var items []models.ApprovalItem
	for {
		page, pagination, err := s.approvals.List(ctx, query, actor)
		if err != nil {
			return export.Dataset{}, err
		}
		items = append(items, page...)
		if len(page) < exportPageSize || len(items) >= pagination.TotalCount {
			break
		}
		query.Page++
	}

	title := "Approval register"
	if req.Status != "" {
		title += " (" + string(req.Status) + ")"
	}
	dataset := export.Dataset{
		Title: title,
		Columns: []export.Column{
			{Key: "type", Label: "Type", Width: 1},
			{Key: "reference", Label: "Reference", Width: 1.6},
			{Key: "client", Label: "Client", Width: 2},
			{Key: "amount", Label: "Amount", Width: 1.4, Align: "R"},
			{Key: "status", Label: "Status", Width: 1.4},
			{Key: "submitted_by", Label: "Submitted by", Width: 1.6},
			{Key: "submitted_at", Label: "Submitted at", Width: 1.6},
		},
		Rows: make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"type":         string(item.TransactionType),
			"reference":    item.ReferenceNo,
			"client":       deref(item.ClientName),
			"amount":       formatMoney(item.Currency, item.Amount),
			"status":       string(item.Status),
			"submitted_by": deref(item.SubmittedByName),
			"submitted_at": formatReportTime(item.SubmittedAt),
		})
	}
	return dataset, nil
}

func (s *ExportService) buildHistoryDataset(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (export.Dataset, error) {
	if req.TransactionID <= 0 {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, "transactionId is required for approval history exports")
	}
	entries, err := s.approvals.History(ctx, req.TransactionType, req.TransactionID, actor)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Title: fmt.Sprintf("Approval history %s #%d", req.TransactionType, req.TransactionID),
		Columns: []export.Column{
			{Key: "acted_at", Label: "Date", Width: 1.6},
			{Key: "action", Label: "Action", Width: 1},
			{Key: "actor", Label: "Actor", Width: 1.6},
			{Key: "from", Label: "From", Width: 1.4},
			{Key: "to", Label: "To", Width: 1.4},
			{Key: "override", Label: "Override", Width: 0.8},
			{Key: "comments", Label: "Comments", Width: 3},
		},
		Rows: make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		actorName := deref(entry.ActorName)
		if actorName == "" {
			actorName = fmt.Sprintf("#%d", entry.ActorID)
		}
		override := ""
		if entry.IsOverride {
			override = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"acted_at": formatReportTime(&entry.ActedAt),
			"action":   string(entry.Action),
			"actor":    actorName,
			"from":     string(entry.PreviousStatus),
			"to":       string(entry.NewStatus),
			"override": override,
			"comments": deref(entry.Comments),
		})
	}
	return dataset, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
