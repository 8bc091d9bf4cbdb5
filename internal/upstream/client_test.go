package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/models"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop(), nil)
}

func TestListAcceptsEnvelopeAndArray(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		switch r.URL.Path {
		case "/students":
			_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Alice"},{"id":"S-2","name":"Bob"}],"total":40}`)
		case "/schedules":
			_, _ = io.WriteString(w, `[{"id":7,"room":"B2"}]`)
		}
	})

	page, err := client.List(context.Background(), "/students", models.ListQuery{
		Search:   "al",
		Page:     2,
		PageSize: 20,
		Filters:  map[string][]string{"department": {"CS", "IT"}},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, 40, page.Total)
	assert.Equal(t, "department=CS&department=IT&page=2&pageSize=20&search=al", gotQuery)

	page, err = client.List(context.Background(), "/schedules", models.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
	assert.Empty(t, gotQuery)
}

func TestListRejectsDuplicateIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1},{"id":"1"}]`)
	})

	_, err := client.List(context.Background(), "/students", models.ListQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
}

func TestBulkPatchSendsOrderedIDs(t *testing.T) {
	var body models.BulkPatchRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/students/bulk", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"success":false,"message":"2 of 3 updated","failed":[{"id":3,"error":"locked"},"9"]}`)
	})

	res, err := client.BulkPatch(context.Background(), "/students", models.BulkPatchRequest{
		IDs:    []string{"3", "1", "2"},
		Action: "status-update",
		Data:   map[string]any{"status": "ACTIVE"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, body.IDs)
	assert.False(t, res.Success)
	assert.Equal(t, "2 of 3 updated", res.Message)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, models.BulkFailure{ID: "3", Reason: "locked"}, res.Failed[0])
	assert.Equal(t, "9", res.Failed[1].ID)
}

func TestBulkDeleteEmptyBodyIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	res, err := client.BulkDelete(context.Background(), "/students", []string{"1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestServerErrorMessageIsSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"database unavailable"}`)
	})

	_, err := client.BulkPatch(context.Background(), "/students", models.BulkPatchRequest{IDs: []string{"1"}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Equal(t, "database unavailable", appErr.Message)
	assert.Equal(t, "500", appErr.Details["upstream_status"])
}

func TestErrorWithoutMessageFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := client.List(context.Background(), "/students", models.ListQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Message, appErrors.FromError(err).Message)
}

func TestNotFoundMapsToNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"student not found"}}`)
	})

	_, err := client.Details(context.Background(), "/students", "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "student not found", appErrors.FromError(err).Message)
}

func TestDetailsUnwrapsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/S%2F1/details", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"data":{"guardian":"Mrs. Tan","absences":3}}`)
	})

	detail, err := client.Details(context.Background(), "/students", "S/1")
	require.NoError(t, err)
	assert.Equal(t, "Mrs. Tan", detail["guardian"])
}

func TestTimeoutIsDistinctFromNetworkError(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.List(ctx, "/students", models.ListQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTimeout))

	unreachable := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil, nil)
	_, err = unreachable.List(context.Background(), "/students", models.ListQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNetwork))
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":`)
	})

	_, err := client.List(context.Background(), "/students", models.ListQuery{})
	require.Error(t, err)
	assert.Equal(t, "malformed response from server", appErrors.FromError(err).Message)
}

func TestSuccessStatusWithErrorBodyIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/students/bulk":
			_, _ = io.WriteString(w, `{"error":"records are locked"}`)
		case "/students":
			_, _ = io.WriteString(w, `{"error":{"message":"search index rebuilding"}}`)
		case "/students/7/details":
			_, _ = io.WriteString(w, `{"error":"guardian record missing"}`)
		}
	})
	ctx := context.Background()

	res, err := client.BulkPatch(ctx, "/students", models.BulkPatchRequest{IDs: []string{"1"}})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, "records are locked", appErrors.FromError(err).Message)

	_, err = client.BulkDelete(ctx, "/students", []string{"1"})
	require.Error(t, err)
	assert.Equal(t, "records are locked", appErrors.FromError(err).Message)

	_, err = client.List(ctx, "/students", models.ListQuery{})
	require.Error(t, err)
	assert.Equal(t, "search index rebuilding", appErrors.FromError(err).Message)

	detail, err := client.Details(ctx, "/students", "7")
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.Equal(t, "guardian record missing", appErrors.FromError(err).Message)
}

func TestNullErrorKeyIsIgnored(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"error":null}`)
	})

	res, err := client.BulkPatch(context.Background(), "/students", models.BulkPatchRequest{IDs: []string{"1"}})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"name":"`+strings.Repeat("a", 128)+`"}]`)
	}))
	t.Cleanup(srv.Close)
	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, MaxBodyBytes: 64}, zap.NewNop(), nil)

	_, err := client.List(context.Background(), "/students", models.ListQuery{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Equal(t, "response too large", appErr.Message)
	assert.Equal(t, "64", appErr.Details["limit_bytes"])
}

func TestRequestsCarryServiceToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	var observed []string
	client := New(Config{
		BaseURL: srv.URL,
		Tokens:  NewTokenSource("secret", "console", time.Minute),
	}, nil, func(op string, status int, _ time.Duration) {
		observed = append(observed, op)
		assert.Equal(t, http.StatusOK, status)
	})

	_, err := client.List(context.Background(), "/students", models.ListQuery{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(auth, "Bearer "))
	assert.Equal(t, []string{"list"}, observed)

	claims := &serviceClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}, jwt.WithAudience(tokenAudience))
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "console", claims.Subject)
	assert.Equal(t, tokenRole, claims.Role)
}

func TestAdminTokenReplacesServiceToken(t *testing.T) {
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	})
	client.tokens = NewTokenSource("secret", "console", time.Minute)

	_, err := client.List(WithBearer(context.Background(), "admin-token"), "/students", models.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer admin-token", auth)

	_, err = client.List(WithBearer(context.Background(), ""), "/students", models.ListQuery{})
	require.NoError(t, err)
	assert.NotEqual(t, "Bearer admin-token", auth)
	assert.True(t, strings.HasPrefix(auth, "Bearer "))
}

func TestTokenSourceReusesUntilNearExpiry(t *testing.T) {
	src := NewTokenSource("secret", "", 10*time.Minute)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	first, err := src.Token()
	require.NoError(t, err)
	now = now.Add(5 * time.Minute)
	second, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	now = now.Add(4 * time.Minute)
	third, err := src.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	assert.Nil(t, NewTokenSource("", "x", time.Minute))
}
