package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

// ViewStateRepository abstracts persistence for saved query parameters.
type ViewStateRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ViewStateService remembers each session's query parameters per page so a
// recreated page opens where the admin left it.
type ViewStateService struct {
	repo    ViewStateRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewViewStateService constructs the service.
func NewViewStateService(repo ViewStateRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *ViewStateService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewStateService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether view state is persisted.
func (s *ViewStateService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Load returns the saved parameters, or nil when nothing was saved.
func (s *ViewStateService) Load(ctx context.Context, sessionID, page string) (*listquery.Params, error) {
	if !s.Enabled() {
		return nil, nil
	}
	start := time.Now()
	var params listquery.Params
	err := s.repo.Get(ctx, viewStateKey(sessionID, page), &params)
	s.metrics.ObserveViewStateRead(time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, nil
		}
		s.logger.Warn("view state load failed", zap.String("session_id", sessionID), zap.String("page", page), zap.Error(err))
		return nil, err
	}
	return &params, nil
}

// Save stores the parameters.
func (s *ViewStateService) Save(ctx context.Context, sessionID, page string, params listquery.Params) error {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	err := s.repo.Set(ctx, viewStateKey(sessionID, page), params, s.ttl)
	s.metrics.ObserveViewStateWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("view state save failed", zap.String("session_id", sessionID), zap.String("page", page), zap.Error(err))
	}
	return err
}

// Forget removes every saved page of a session.
func (s *ViewStateService) Forget(ctx context.Context, sessionID string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, sessionID+":*"); err != nil {
		s.logger.Warn("view state invalidate failed", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func viewStateKey(sessionID, page string) string {
	return sessionID + ":" + page
}
