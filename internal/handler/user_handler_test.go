package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/middleware"
	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/service"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type fakeUserSrv struct {
	lastFilter models.UserFilter
	deleted    int64
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.User{{ID: 1, Email: "ops@freightdesk.local", Role: models.RoleManager}}, models.NewPagination(filter.Page, filter.PageSize, 1), nil
}

func (f *fakeUserSrv) Get(_ context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) Create(_ context.Context, req service.CreateUserRequest, _ int64) (*models.User, error) {
	return &models.User{ID: 5, Email: req.Email, Role: req.Role}, nil
}

func (f *fakeUserSrv) Update(_ context.Context, id int64, req service.UpdateUserRequest, _ int64) (*models.User, error) {
	return &models.User{ID: id, FullName: req.FullName, Role: req.Role}, nil
}

func (f *fakeUserSrv) Delete(_ context.Context, id int64, actorID int64) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "you cannot delete your own account")
	}
	f.deleted = id
	return nil
}

func userRouter(svc *fakeUserSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 1, Role: models.RoleAdmin})
		c.Next()
	})
	h := NewUserHandler(svc)
	r.GET("/users", h.List)
	r.POST("/users", h.Create)
	r.DELETE("/users/:id", h.Delete)
	return r
}

func TestUserHandlerListFilters(t *testing.T) {
	svc := &fakeUserSrv{}
	r := userRouter(svc)

	rec, env := serve(r, http.MethodGet, "/users?role=manager&active=false&page=2&page_size=5&search=ops", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastFilter.Role)
	assert.Equal(t, models.RoleManager, *svc.lastFilter.Role)
	require.NotNil(t, svc.lastFilter.Active)
	assert.False(t, *svc.lastFilter.Active)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 5, svc.lastFilter.PageSize)
	assert.Equal(t, "ops", svc.lastFilter.Search)
	assert.Contains(t, string(env.Data), "ops@freightdesk.local")
}

func TestUserHandlerDelete(t *testing.T) {
	svc := &fakeUserSrv{}
	r := userRouter(svc)

	rec, _ := serve(r, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec, _ = serve(r, http.MethodDelete, "/users/7", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), svc.deleted)

	rec, _ = serve(r, http.MethodDelete, "/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlerCreateRejectsMalformedPayload(t *testing.T) {
	r := userRouter(&fakeUserSrv{})
	rec, _ := serve(r, http.MethodPost, "/users", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(r, http.MethodPost, "/users", `{"email":"new@freightdesk.local","role":"STAFF"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
