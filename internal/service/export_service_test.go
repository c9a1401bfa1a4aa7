package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/dto"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/export"
	"github.com/noah-isme/freightdesk-api/pkg/storage"
)

type approvalSourceStub struct {
	items   []models.ApprovalItem
	queries []dto.ApprovalQuery
}

func (a *approvalSourceStub) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalItem, *models.Pagination, error) {
	a.queries = append(a.queries, query)
	start := (query.Page - 1) * query.PageSize
	if start > len(a.items) {
		start = len(a.items)
	}
	end := start + query.PageSize
	if end > len(a.items) {
		end = len(a.items)
	}
	return a.items[start:end], models.NewPagination(query.Page, query.PageSize, len(a.items)), nil
}

func (a *approvalSourceStub) History(ctx context.Context, txType models.TransactionType, id int64, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	name := "Mia Manager"
	comments := "missing invoice"
	return []models.ApprovalHistoryEntry{
		{ApprovalID: 1, TransactionType: txType, TransactionID: id, Action: models.ActionSubmitted, ActorID: 10, ActedAt: time.Now(), PreviousStatus: models.StatusDraft, NewStatus: models.StatusPendingApproval},
		{ApprovalID: 2, TransactionType: txType, TransactionID: id, Action: models.ActionRejected, ActorID: 20, ActorName: &name, ActedAt: time.Now(), Comments: &comments, PreviousStatus: models.StatusPendingApproval, NewStatus: models.StatusRejected},
	}, nil
}

func approvalItems(n int) []models.ApprovalItem {
	items := make([]models.ApprovalItem, n)
	for i := range items {
		items[i] = models.ApprovalItem{
			TransactionType: models.TransactionQuotation,
			TransactionID:   int64(i + 1),
			ReferenceNo:     fmt.Sprintf("QT-202405-%05d", i+1),
			Amount:          decimal.NewFromInt(int64(100 * (i + 1))),
			Currency:        "PHP",
			Status:          models.StatusPendingApproval,
		}
	}
	return items
}

func newExportServiceForTest(t *testing.T, source approvalSource) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api", ResultTTL: time.Hour}
	svc := NewExportService(source, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateApprovalsCSV(t *testing.T) {
	source := &approvalSourceStub{items: approvalItems(3)}
	svc, _ := newExportServiceForTest(t, source)

	result, err := svc.Generate(context.Background(), dto.ExportRequest{Kind: models.ExportKindApprovals, Format: models.ExportFormatCSV, Status: models.StatusPendingApproval}, managerActor)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.True(t, strings.HasPrefix(result.URL, "/api/exports/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))

	data, name, err := svc.Download(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.RelativePath, name)
	assert.Contains(t, string(data), "Reference")
	assert.Contains(t, string(data), "PHP 300.00")
}

func TestExportServiceWalksAllPages(t *testing.T) {
	source := &approvalSourceStub{items: approvalItems(exportPageSize + 5)}
	svc, _ := newExportServiceForTest(t, source)

	result, err := svc.Generate(context.Background(), dto.ExportRequest{Kind: models.ExportKindApprovals, Format: models.ExportFormatCSV}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, exportPageSize+5, result.Rows)
	require.Len(t, source.queries, 2)
	assert.Equal(t, 2, source.queries[1].Page)
}

func TestExportServiceGenerateHistoryPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &approvalSourceStub{})

	result, err := svc.Generate(context.Background(), dto.ExportRequest{
		Kind:            models.ExportKindApprovalHistory,
		Format:          models.ExportFormatPDF,
		TransactionType: models.TransactionQuotation,
		TransactionID:   1,
	}, managerActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)

	data, _, err := svc.Download(result.Token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportServiceRejectsBadRequests(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &approvalSourceStub{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, dto.ExportRequest{Kind: models.ExportKindApprovals, Format: "xlsx"}, managerActor)
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.Generate(ctx, dto.ExportRequest{Kind: "invoices", Format: models.ExportFormatCSV}, managerActor)
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.Generate(ctx, dto.ExportRequest{Kind: models.ExportKindApprovalHistory, Format: models.ExportFormatCSV}, managerActor)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &approvalSourceStub{items: approvalItems(1)})
	result, err := svc.Generate(context.Background(), dto.ExportRequest{Kind: models.ExportKindApprovals, Format: models.ExportFormatCSV}, managerActor)
	require.NoError(t, err)

	_, _, err = svc.Download(result.Token + "00")
	assertAppError(t, err, http.StatusForbidden)
}

func TestExportServiceCleanup(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &approvalSourceStub{items: approvalItems(1)})
	result, err := svc.Generate(context.Background(), dto.ExportRequest{Kind: models.ExportKindApprovals, Format: models.ExportFormatCSV}, managerActor)
	require.NoError(t, err)

	removed, err := svc.Cleanup(time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, []string{result.RelativePath}, removed)

	_, _, err = svc.Download(result.Token)
	assertAppError(t, err, http.StatusNotFound)
}
