package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/middleware"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/page"
	"github.com/noah-isme/sma-adp-console/internal/service"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

type fakePageSrv struct {
	view        *page.View
	result      *bulkaction.Result
	err         error
	lastPage    string
	lastID      string
	lastSearch  dto.SearchRequest
	lastBulk    dto.BulkRequest
	lastDelete  dto.SoftDeleteRequest
	lastSuggest dto.SuggestQuery
	refreshed   bool
	lastFilter  struct {
		category string
		values   []string
	}
}

func (f *fakePageSrv) viewFor(name string) (*page.View, error) {
	f.lastPage = name
	return f.view, f.err
}

func (f *fakePageSrv) View(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) Refresh(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) Search(_ context.Context, _ *service.Workspace, name string, req dto.SearchRequest) (*page.View, error) {
	f.lastSearch = req
	return f.viewFor(name)
}

func (f *fakePageSrv) SetFilter(_ context.Context, _ *service.Workspace, name, category string, req dto.FilterRequest) (*page.View, error) {
	f.lastFilter.category = category
	f.lastFilter.values = req.Values
	return f.viewFor(name)
}

func (f *fakePageSrv) ClearFilters(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) Sort(_ context.Context, _ *service.Workspace, name string, _ dto.SortRequest) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) Paginate(_ context.Context, _ *service.Workspace, name string, _ dto.PaginationRequest) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) Suggest(_ context.Context, _ *service.Workspace, name string, q dto.SuggestQuery) ([]listquery.Suggestion[models.Entity], error) {
	f.lastPage = name
	f.lastSuggest = q
	if f.err != nil {
		return nil, f.err
	}
	return []listquery.Suggestion[models.Entity]{{Item: models.Entity{ID: "7"}, Label: "Ayu"}}, nil
}

func (f *fakePageSrv) ToggleSelection(_ context.Context, _ *service.Workspace, name string, req dto.SelectionRequest) (*page.View, error) {
	f.lastID = req.ID
	return f.viewFor(name)
}

func (f *fakePageSrv) SelectVisible(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) ClearSelection(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) RequestBulk(_ context.Context, _ *service.Workspace, name string, req dto.BulkRequest) (*bulkaction.Result, error) {
	f.lastPage = name
	f.lastBulk = req
	return f.result, f.err
}

func (f *fakePageSrv) ConfirmBulk(_ context.Context, _ *service.Workspace, name string) (*bulkaction.Result, error) {
	f.lastPage = name
	return f.result, f.err
}

func (f *fakePageSrv) CancelBulk(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) DismissBulk(_ context.Context, _ *service.Workspace, name string) (*page.View, error) {
	return f.viewFor(name)
}

func (f *fakePageSrv) RowDetails(_ context.Context, _ *service.Workspace, name, id string) (models.RowDetail, error) {
	f.lastPage = name
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return models.RowDetail{"guardian": "Sari"}, nil
}

func (f *fakePageSrv) RefreshRow(_ context.Context, _ *service.Workspace, name, id string) error {
	f.lastPage = name
	f.lastID = id
	f.refreshed = true
	return f.err
}

func (f *fakePageSrv) SoftDelete(_ context.Context, _ *service.Workspace, name, id string, req dto.SoftDeleteRequest) (*bulkaction.Result, error) {
	f.lastPage = name
	f.lastID = id
	f.lastDelete = req
	return f.result, f.err
}

func newGinContext(method, target, body string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Params = params
	c.Set(middleware.ContextWorkspaceKey, &service.Workspace{ID: "session-1", Toasts: service.NewToastFeed(4)})
	return c, rec
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func sampleView() *page.View {
	return &page.View{
		Page:       "students",
		Items:      []models.Entity{{ID: "1"}, {ID: "2"}},
		Pagination: models.Pagination{Page: 1, PageSize: 10, TotalFiltered: 2, TotalPages: 1},
		Loaded:     true,
	}
}

func TestPageHandlerViewIncludesPagination(t *testing.T) {
	srv := &fakePageSrv{view: sampleView()}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/pages/students", "", gin.Params{{Key: "page", Value: "students"}})

	handler.View(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.TotalFiltered)
	assert.Equal(t, "students", srv.lastPage)
}

func TestPageHandlerRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPageHandler(&fakePageSrv{view: sampleView()})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pages/students", nil)

	handler.View(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPageHandlerMapsServiceErrors(t *testing.T) {
	srv := &fakePageSrv{err: appErrors.Clone(appErrors.ErrNotFound, "unknown page planets")}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/pages/planets", "", gin.Params{{Key: "page", Value: "planets"}})

	handler.View(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestPageHandlerSearchBindsBody(t *testing.T) {
	srv := &fakePageSrv{view: sampleView()}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPut, "/pages/students/search", `{"text":"ayu","immediate":true}`, gin.Params{{Key: "page", Value: "students"}})

	handler.Search(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.SearchRequest{Text: "ayu", Immediate: true}, srv.lastSearch)
}

func TestPageHandlerRejectsMalformedBody(t *testing.T) {
	srv := &fakePageSrv{view: sampleView()}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPut, "/pages/students/search", `{"text":`, gin.Params{{Key: "page", Value: "students"}})

	handler.Search(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastPage)
}

func TestPageHandlerSetFilterPassesCategory(t *testing.T) {
	srv := &fakePageSrv{view: sampleView()}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPut, "/pages/students/filters/departments", `{"values":["Arts","Science"]}`, gin.Params{
		{Key: "page", Value: "students"},
		{Key: "category", Value: "departments"},
	})

	handler.SetFilter(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "departments", srv.lastFilter.category)
	assert.Equal(t, []string{"Arts", "Science"}, srv.lastFilter.values)
}

func TestPageHandlerSuggestBindsQuery(t *testing.T) {
	srv := &fakePageSrv{}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/pages/students/suggest?q=ay&limit=3", "", gin.Params{{Key: "page", Value: "students"}})

	handler.Suggest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.SuggestQuery{Q: "ay", Limit: 3}, srv.lastSuggest)
}

func TestPageHandlerBulkResultCarriesState(t *testing.T) {
	srv := &fakePageSrv{result: &bulkaction.Result{
		State:     bulkaction.StatePartiallyFailed,
		Succeeded: []string{"1"},
		Failed:    []bulkaction.Failure{{ID: "2", Reason: "locked"}},
		Err:       appErrors.Clone(appErrors.ErrPartialFailure, "1 of 2 failed"),
	}}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPost, "/pages/students/bulk/confirm", "", gin.Params{{Key: "page", Value: "students"}})

	handler.ConfirmBulk(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, string(bulkaction.StatePartiallyFailed), env.Meta["state"])
	errMeta, ok := env.Meta["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrPartialFailure.Code, errMeta["code"])
}

func TestPageHandlerRequestBulkBusy(t *testing.T) {
	srv := &fakePageSrv{err: appErrors.ErrBusy}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPost, "/pages/students/bulk", `{"kind":"archive"}`, gin.Params{{Key: "page", Value: "students"}})

	handler.RequestBulk(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "archive", srv.lastBulk.Kind)
}

func TestPageHandlerRowDetailsAndRefresh(t *testing.T) {
	srv := &fakePageSrv{}
	handler := NewPageHandler(srv)
	params := gin.Params{{Key: "page", Value: "students"}, {Key: "id", Value: "9"}}

	c, rec := newGinContext(http.MethodGet, "/pages/students/rows/9/details", "", params)
	handler.RowDetails(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sari")

	c, _ = newGinContext(http.MethodDelete, "/pages/students/rows/9/details", "", params)
	handler.RefreshRow(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.True(t, srv.refreshed)
	assert.Equal(t, "9", srv.lastID)
}

func TestPageHandlerSoftDelete(t *testing.T) {
	srv := &fakePageSrv{result: &bulkaction.Result{State: bulkaction.StateSucceeded, Succeeded: []string{"4"}}}
	handler := NewPageHandler(srv)
	c, rec := newGinContext(http.MethodPost, "/pages/students/rows/4/soft-delete", `{"reason":"moved school","action":"deactivate"}`, gin.Params{
		{Key: "page", Value: "students"},
		{Key: "id", Value: "4"},
	})

	handler.SoftDelete(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", srv.lastID)
	assert.Equal(t, "deactivate", srv.lastDelete.Action)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, string(bulkaction.StateSucceeded), env.Meta["state"])
	assert.Nil(t, env.Meta["error"])
}
