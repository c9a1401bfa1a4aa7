package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/internal/repository"
	appErrors "github.com/noah-isme/freightdesk-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

type fakeClientRepo struct {
	clients   map[int64]*models.Client
	refs      int
	listCalls int
	deleteErr error
}

func (f *fakeClientRepo) List(ctx context.Context, filter models.MasterDataFilter) ([]models.Client, error) {
	f.listCalls++
	out := make([]models.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClientRepo) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (f *fakeClientRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	for _, c := range f.clients {
		if c.Code == code && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error {
	client.ID = int64(len(f.clients) + 1)
	copy := *client
	f.clients[client.ID] = &copy
	return nil
}

func (f *fakeClientRepo) Update(ctx context.Context, client *models.Client) error {
	copy := *client
	f.clients[client.ID] = &copy
	return nil
}

func (f *fakeClientRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeClientRepo) CountReferences(ctx context.Context, id int64) (int, error) {
	return f.refs, nil
}

func newClientServiceForTest(repo *fakeClientRepo, audit *mockAuditRepo, cache *memoryCache) *ClientService {
	deps := MasterDataDeps{Logger: zap.NewNop()}
	if audit != nil {
		deps.Audit = audit
	}
	if cache != nil {
		deps.Cache = NewCacheService(cache, nil, time.Minute, zap.NewNop(), true)
	}
	return NewClientService(repo, deps)
}

func TestClientServiceCreateNormalisesCode(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{}}
	audit := &mockAuditRepo{}
	svc := newClientServiceForTest(repo, audit, nil)

	blank := "  "
	client, err := svc.Create(context.Background(), ClientRequest{Code: " acme ", Name: " Acme Shipping ", Phone: &blank}, 1)
	require.NoError(t, err)
	assert.Equal(t, "ACME", client.Code)
	assert.Equal(t, "Acme Shipping", client.Name)
	assert.Nil(t, client.Phone)
	assert.True(t, client.Active)
	assert.Equal(t, []string{models.AuditActionMasterDataCreate}, audit.actions())
}

func TestClientServiceCreateDuplicateCode(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{1: {ID: 1, Code: "ACME", Name: "Acme"}}}
	svc := newClientServiceForTest(repo, nil, nil)

	_, err := svc.Create(context.Background(), ClientRequest{Code: "acme", Name: "Other"}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Status, appErrors.FromError(err).Status)
}

func TestClientServiceCreateValidatesEmail(t *testing.T) {
	svc := newClientServiceForTest(&fakeClientRepo{clients: map[int64]*models.Client{}}, nil, nil)
	bad := "not-an-email"

	_, err := svc.Create(context.Background(), ClientRequest{Code: "X", Name: "X", Email: &bad}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClientServiceUpdateKeepsActiveWhenOmitted(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{1: {ID: 1, Code: "ACME", Name: "Acme", Active: false}}}
	svc := newClientServiceForTest(repo, nil, nil)

	client, err := svc.Update(context.Background(), 1, ClientRequest{Code: "ACME", Name: "Acme Corp"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", client.Name)
	assert.False(t, client.Active)
}

func TestClientServiceDeleteReferenced(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{1: {ID: 1, Code: "ACME"}}, refs: 3}
	svc := newClientServiceForTest(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Status, appErrors.FromError(err).Status)
	assert.Contains(t, repo.clients, int64(1))
}

func TestClientServiceDeleteForeignKeyRace(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{1: {ID: 1, Code: "ACME"}}, deleteErr: repository.ErrReferenced}
	svc := newClientServiceForTest(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Status, appErrors.FromError(err).Status)
}

func TestClientServiceDeleteMissing(t *testing.T) {
	svc := newClientServiceForTest(&fakeClientRepo{clients: map[int64]*models.Client{}}, nil, nil)

	err := svc.Delete(context.Background(), 4, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestClientServiceListIsCachedUntilWrite(t *testing.T) {
	repo := &fakeClientRepo{clients: map[int64]*models.Client{1: {ID: 1, Code: "ACME", Name: "Acme"}}}
	cache := newMemoryCache()
	svc := newClientServiceForTest(repo, nil, cache)
	ctx := context.Background()

	first, err := svc.List(ctx, models.MasterDataFilter{})
	require.NoError(t, err)
	second, err := svc.List(ctx, models.MasterDataFilter{})
	require.NoError(t, err)
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Code, second[0].Code)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, ClientRequest{Code: "BETA", Name: "Beta"}, 1)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	third, err := svc.List(ctx, models.MasterDataFilter{})
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, repo.listCalls)
}
