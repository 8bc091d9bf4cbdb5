package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-console/internal/models"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestJSONMergesMeta(t *testing.T) {
	c, rec := newContext()

	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 2, PageSize: 10}, map[string]interface{}{"state": "idle"}, nil, map[string]interface{}{"stale": false})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, map[string]interface{}{"state": "idle", "stale": false}, env.Meta)
}

func TestErrorAbortsAndRecords(t *testing.T) {
	c, rec := newContext()

	Error(c, appErrors.Clone(appErrors.ErrBusy, "bulk operation in progress"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, c.IsAborted())
	require.Len(t, c.Errors, 1)

	c, rec = newContext()
	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
