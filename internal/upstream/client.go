// Package upstream talks to the school REST API that owns every entity.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/models"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

const defaultMaxBody = 16 << 20

// Config configures the client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Tokens       *TokenSource
}

type bearerKey struct{}

// WithBearer makes calls issued with ctx carry the admin's own token instead
// of the service token, so the school API authorizes the actual admin.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// Observer receives the outcome of every call. status is 0 when no response arrived.
type Observer func(operation string, status int, duration time.Duration)

// Client issues JSON requests with a fixed timeout and no retries.
type Client struct {
	baseURL string
	http    *http.Client
	maxBody int64
	agent   string
	tokens  *TokenSource
	logger  *zap.Logger
	observe Observer
}

// New constructs a client.
func New(cfg Config, logger *zap.Logger, observe Observer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		maxBody: cfg.MaxBodyBytes,
		agent:   cfg.UserAgent,
		tokens:  cfg.Tokens,
		logger:  logger.With(zap.String("component", "upstream")),
		observe: observe,
	}
}

// List fetches a collection. Both a bare JSON array and {data, total} are accepted.
func (c *Client) List(ctx context.Context, endpoint string, q models.ListQuery) (*models.ListPage, error) {
	body, err := c.do(ctx, "list", http.MethodGet, endpoint+encodeQuery(q), nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// BulkPatch sends one batched mutation for ids, in order.
func (c *Client) BulkPatch(ctx context.Context, endpoint string, req models.BulkPatchRequest) (*models.BulkResult, error) {
	body, err := c.do(ctx, "bulk_patch", http.MethodPatch, endpoint+"/bulk", req)
	if err != nil {
		return nil, err
	}
	return decodeBulk(body)
}

// BulkDelete soft deletes ids.
func (c *Client) BulkDelete(ctx context.Context, endpoint string, ids []string) (*models.BulkResult, error) {
	body, err := c.do(ctx, "bulk_delete", http.MethodDelete, endpoint+"/bulk", models.BulkDeleteRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	return decodeBulk(body)
}

// Details fetches the expansion payload of one row.
func (c *Client) Details(ctx context.Context, endpoint, id string) (models.RowDetail, error) {
	body, err := c.do(ctx, "details", http.MethodGet, endpoint+"/"+url.PathEscape(id)+"/details", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw := body
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		raw = envelope.Data
	}
	var detail models.RowDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, malformed(err)
	}
	return detail, nil
}

// SoftDelete archives or deactivates one row.
func (c *Client) SoftDelete(ctx context.Context, endpoint, id string, req models.SoftDeleteRequest) error {
	_, err := c.do(ctx, "soft_delete", http.MethodPatch, endpoint+"/"+url.PathEscape(id)+"/soft-delete", req)
	return err
}

// Ping checks that the API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/health", nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	if bearer := bearerFrom(ctx); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign request")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(op, 0, start)
		c.logger.Warn("upstream call failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	c.record(op, resp.StatusCode, start)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn("upstream response too large", zap.String("op", op), zap.String("path", path), zap.Int64("limit", c.maxBody))
		e := appErrors.Clone(appErrors.ErrUpstream, "response too large")
		e.Details = map[string]string{"limit_bytes": strconv.FormatInt(c.maxBody, 10)}
		return nil, e
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream rejected request",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, statusError(resp.StatusCode, body)
	}
	// A 2xx body carrying an error key is still a failure.
	if msg, ok := reportedError(body); ok {
		c.logger.Warn("upstream reported failure", zap.String("op", op), zap.String("path", path), zap.String("error", msg))
		return nil, appErrors.Clone(appErrors.ErrUpstream, msg)
	}
	return body, nil
}

func (c *Client) record(op string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(op, status, time.Since(start))
	}
}

func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
}

func statusError(status int, body []byte) error {
	msg := serverMessage(body)
	if status == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, msg)
	}
	e := appErrors.Clone(appErrors.ErrUpstream, msg)
	e.Details = map[string]string{"upstream_status": strconv.Itoa(status)}
	return e
}

// serverMessage extracts {error}, {message} or {error: {message}} from an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return payload.Message
}

// reportedError reports whether body is an object with a non-empty error key.
func reportedError(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return "", false
	}
	switch strings.TrimSpace(string(payload.Error)) {
	case "", "null", "false", `""`, "{}":
		return "", false
	}
	msg := serverMessage(trimmed)
	if msg == "" {
		msg = appErrors.ErrUpstream.Message
	}
	return msg, true
}

func malformed(err error) error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed response from server")
}

func encodeQuery(q models.ListQuery) string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range q.Filters[k] {
			values.Add(k, v)
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func decodeList(body []byte) (*models.ListPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items, err := models.DecodeEntities(trimmed)
		if err != nil {
			return nil, malformed(err)
		}
		return &models.ListPage{Items: items, Total: len(items)}, nil
	}

	var envelope struct {
		Data       json.RawMessage `json:"data"`
		Total      *int            `json:"total"`
		Pagination *struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, malformed(err)
	}
	if len(envelope.Data) == 0 {
		return nil, malformed(fmt.Errorf("response has no data"))
	}
	items, err := models.DecodeEntities(envelope.Data)
	if err != nil {
		return nil, malformed(err)
	}
	page := &models.ListPage{Items: items, Total: len(items)}
	switch {
	case envelope.Total != nil:
		page.Total = *envelope.Total
	case envelope.Pagination != nil:
		page.Total = envelope.Pagination.Total
	}
	return page, nil
}

func decodeBulk(body []byte) (*models.BulkResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &models.BulkResult{Success: true}, nil
	}
	var raw struct {
		Success *bool             `json:"success"`
		Message string            `json:"message"`
		Failed  []json.RawMessage `json:"failed"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(err)
	}
	result := &models.BulkResult{Success: raw.Success == nil || *raw.Success, Message: raw.Message}
	for _, item := range raw.Failed {
		failure, err := decodeFailure(item)
		if err != nil {
			return nil, malformed(err)
		}
		result.Failed = append(result.Failed, failure)
	}
	return result, nil
}

// decodeFailure accepts "id", 42, {"id": .., "reason": ..} and {"id": .., "error": ..}.
func decodeFailure(raw json.RawMessage) (models.BulkFailure, error) {
	var obj struct {
		ID     json.RawMessage `json:"id"`
		Reason string          `json:"reason"`
		Error  string          `json:"error"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return models.BulkFailure{}, err
		}
		trimmed = obj.ID
	}
	id, err := scalarID(trimmed)
	if err != nil {
		return models.BulkFailure{}, err
	}
	reason := obj.Reason
	if reason == "" {
		reason = obj.Error
	}
	return models.BulkFailure{ID: id, Reason: reason}, nil
}

func scalarID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("failed entry without id")
}
