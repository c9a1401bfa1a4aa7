package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/freightdesk-api/internal/handler"
	"github.com/noah-isme/freightdesk-api/internal/models"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type staticTokens struct {
	claims *models.JWTClaims
}

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newTestRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Options{Tokens: staticTokens{claims: claims}}, Handlers{
		Metrics: handler.NewMetricsHandler(nil, nil),
	})
}

func do(r *gin.Engine, method, path string, authorised bool) int {
	req := httptest.NewRequest(method, path, nil)
	if authorised {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(nil)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", false))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", false))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/docs/index.html", false))
}

func TestRouterProtectsApprovalRoutes(t *testing.T) {
	r := newTestRouter(&models.JWTClaims{UserID: 3, Role: models.RoleStaff})
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/approvals"},
		{http.MethodGet, "/api/approvals/stats"},
		{http.MethodGet, "/api/approvals/quotation/1"},
		{http.MethodPost, "/api/approvals/quotation/1/approve"},
		{http.MethodPost, "/api/approvals/quotation/1/reject"},
		{http.MethodGet, "/api/approvals/quotation/1/history"},
		{http.MethodPost, "/api/approvals/rfp/1/approve"},
		{http.MethodPost, "/api/quotations/1/submit"},
		{http.MethodPost, "/api/exports"},
	}
	for _, p := range paths {
		assert.Equal(t, http.StatusUnauthorized, do(r, p.method, p.path, false), p.path)
	}
}

func TestRouterAdminOnlyWrites(t *testing.T) {
	r := newTestRouter(&models.JWTClaims{UserID: 3, Role: models.RoleStaff})
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/clients", true))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/api/truck-sizes/1", true))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users", true))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users/4", true))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/metrics/snapshot", true))
}
