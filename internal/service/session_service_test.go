package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/upstream"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

type consoleUpstreamStub struct {
	mu        sync.Mutex
	items     map[string][]map[string]any
	listCalls int
	listErr   error
}

func (u *consoleUpstreamStub) List(ctx context.Context, endpoint string, q models.ListQuery) (*models.ListPage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listCalls++
	if u.listErr != nil {
		return nil, u.listErr
	}
	var items []models.Entity
	for _, fields := range u.items[endpoint] {
		e, err := models.NewEntity(fields)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return &models.ListPage{Items: items, Total: len(items)}, nil
}

func (u *consoleUpstreamStub) BulkPatch(ctx context.Context, endpoint string, req models.BulkPatchRequest) (*models.BulkResult, error) {
	return &models.BulkResult{Success: true}, nil
}

func (u *consoleUpstreamStub) BulkDelete(ctx context.Context, endpoint string, ids []string) (*models.BulkResult, error) {
	return &models.BulkResult{Success: true}, nil
}

func (u *consoleUpstreamStub) Details(ctx context.Context, endpoint, id string) (models.RowDetail, error) {
	return models.RowDetail{"id": id}, nil
}

func (u *consoleUpstreamStub) SoftDelete(ctx context.Context, endpoint, id string, req models.SoftDeleteRequest) error {
	return nil
}

func (u *consoleUpstreamStub) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.listCalls
}

type memoryViewStateRepo struct {
	mu   sync.Mutex
	data map[string]listquery.Params
}

func newMemoryViewStateRepo() *memoryViewStateRepo {
	return &memoryViewStateRepo{data: make(map[string]listquery.Params)}
}

func (r *memoryViewStateRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*listquery.Params)) = p.Clone()
	return nil
}

func (r *memoryViewStateRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value.(listquery.Params).Clone()
	return nil
}

func (r *memoryViewStateRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.data {
		if strings.HasPrefix(key, prefix) {
			delete(r.data, key)
		}
	}
	return nil
}

func (r *memoryViewStateRepo) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[key]
	return ok
}

func newSessionServiceForTest(t *testing.T, cfg SessionConfig, repo *memoryViewStateRepo) (*SessionService, *consoleUpstreamStub) {
	t.Helper()
	upstream := &consoleUpstreamStub{items: map[string][]map[string]any{
		"/students": {
			{"id": 1, "name": "Ayu", "department": "Science", "status": "ACTIVE"},
			{"id": 2, "name": "Bima", "department": "Arts", "status": "ACTIVE"},
		},
	}}
	var viewState *ViewStateService
	if repo != nil {
		viewState = NewViewStateService(repo, nil, time.Hour, zap.NewNop(), true)
	}
	svc := NewSessionService(cfg, SessionDeps{
		Catalog:   catalog.Default(),
		Upstream:  upstream,
		ViewState: viewState,
		Logger:    zap.NewNop(),
	})
	t.Cleanup(svc.Shutdown)
	return svc, upstream
}

var testAdmin = Principal{Subject: "admin-1", Token: "token-a"}

func openWorkspace(t *testing.T, svc *SessionService, id string) (*Workspace, bool) {
	t.Helper()
	w, created, err := svc.Open(testAdmin, id)
	require.NoError(t, err)
	return w, created
}

func TestSessionServiceOpenReusesWorkspace(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, nil)

	first, created := openWorkspace(t, svc, "")
	require.True(t, created)
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", first.Owner)

	again, created := openWorkspace(t, svc, first.ID)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created := openWorkspace(t, svc, "not-a-uuid")
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 2, svc.Len())
}

func TestSessionServiceRequiresPrincipal(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, nil)

	_, _, err := svc.Open(Principal{}, "")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Zero(t, svc.Len())
}

func TestSessionIsBoundToOwner(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, nil)
	mine, _ := openWorkspace(t, svc, "")

	theirs, created, err := svc.Open(Principal{Subject: "admin-2", Token: "token-b"}, mine.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, mine.ID, theirs.ID)
	assert.Equal(t, "admin-2", theirs.Owner)
	assert.Equal(t, "token-a", mine.Credential())

	again, created, err := svc.Open(Principal{Subject: "admin-1", Token: "token-a2"}, mine.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, mine, again)
	assert.Equal(t, "token-a2", mine.Credential())
}

func TestPageCallsCarryOwnerToken(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = io.WriteString(w, `[{"id":1,"name":"Ayu","status":"ACTIVE"}]`)
	}))
	t.Cleanup(srv.Close)

	client := upstream.New(upstream.Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Tokens:  upstream.NewTokenSource("service-secret", "", time.Minute),
	}, zap.NewNop(), nil)
	svc := NewSessionService(SessionConfig{}, SessionDeps{Catalog: catalog.Default(), Upstream: client, Logger: zap.NewNop()})
	t.Cleanup(svc.Shutdown)

	w, _ := openWorkspace(t, svc, "")
	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	require.True(t, c.Loaded())

	_, _, err = svc.Open(Principal{Subject: "admin-1", Token: "token-a2"}, w.ID)
	require.NoError(t, err)
	require.NoError(t, c.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer token-a", "Bearer token-a2"}, seen)
}

func TestWorkspacePageLoadsOnce(t *testing.T) {
	svc, upstream := newSessionServiceForTest(t, SessionConfig{}, nil)
	w, _ := openWorkspace(t, svc, "")

	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	require.True(t, c.Loaded())
	require.Len(t, c.Items(), 2)

	again, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, 1, upstream.calls())
	assert.Equal(t, []string{"students"}, w.Pages())

	_, err = w.Page(context.Background(), "grades")
	require.ErrorIs(t, err, catalog.ErrUnknownPage)
}

func TestWorkspaceLoadFailureBecomesToast(t *testing.T) {
	svc, upstream := newSessionServiceForTest(t, SessionConfig{}, nil)
	upstream.listErr = appErrors.ErrNetwork
	w, _ := openWorkspace(t, svc, "")

	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	assert.False(t, c.Loaded())

	toasts := w.Toasts.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "error", toasts[0].Level)
	assert.Contains(t, toasts[0].Message, appErrors.ErrNetwork.Message)
}

func TestSessionServiceViewStateRoundTrip(t *testing.T) {
	repo := newMemoryViewStateRepo()
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, repo)
	w, _ := openWorkspace(t, svc, "")

	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	c.Query().SetFilter("departments", []string{"Science"})
	key := viewStateKey(w.stateID, "students")
	require.Eventually(t, func() bool { return repo.has(key) }, time.Second, 5*time.Millisecond)

	// A closed session keeps nothing.
	require.True(t, svc.Close(context.Background(), w.ID))
	assert.False(t, repo.has(key))
	_, err = w.Page(context.Background(), "students")
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionServiceRestoresSavedView(t *testing.T) {
	repo := newMemoryViewStateRepo()
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, repo)
	id := uuid.NewString()
	saved := catalog.Students().DefaultParams(10)
	saved.Filters = map[string][]string{"departments": {"Arts"}}
	require.NoError(t, repo.Set(context.Background(), viewStateKey(workspaceStateID(testAdmin.Subject, id), "students"), saved, time.Hour))

	w, created := openWorkspace(t, svc, id)
	require.True(t, created)
	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arts"}, c.Query().Params().Filters["departments"])
}

func TestSavedViewIsScopedToOwner(t *testing.T) {
	repo := newMemoryViewStateRepo()
	svc, _ := newSessionServiceForTest(t, SessionConfig{}, repo)
	id := uuid.NewString()
	saved := catalog.Students().DefaultParams(10)
	saved.Filters = map[string][]string{"departments": {"Arts"}}
	require.NoError(t, repo.Set(context.Background(), viewStateKey(workspaceStateID(testAdmin.Subject, id), "students"), saved, time.Hour))

	w, created, err := svc.Open(Principal{Subject: "admin-2"}, id)
	require.NoError(t, err)
	require.True(t, created)
	c, err := w.Page(context.Background(), "students")
	require.NoError(t, err)
	assert.Empty(t, c.Query().Params().Filters["departments"])
}

func TestSessionServiceEvictsLeastRecentlyUsed(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, SessionConfig{Capacity: 1}, nil)
	first, _ := openWorkspace(t, svc, "")
	_, err := first.Page(context.Background(), "students")
	require.NoError(t, err)

	second, _ := openWorkspace(t, svc, "")
	_, ok := svc.Get(first.ID)
	assert.False(t, ok)
	_, ok = svc.Get(second.ID)
	assert.True(t, ok)

	_, err = first.Page(context.Background(), "students")
	require.ErrorIs(t, err, ErrSessionClosed)
}
