package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/pkg/jobs"
)

const reconcileJobType = "reconcile"

type reconcileQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

// ReconcileConfig sizes the refetch worker pool.
type ReconcileConfig struct {
	Workers    int
	BufferSize int
	Timeout    time.Duration
}

// ReconcileService runs background refetches after mutations whose outcome
// cannot be patched locally, such as duplicate. Failed refetches are logged
// and never retried.
type ReconcileService struct {
	queue  reconcileQueue
	logger *zap.Logger
}

// NewReconcileService builds the service and its job queue.
func NewReconcileService(cfg ReconcileConfig, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReconcileService{logger: logger}
	svc.queue = jobs.NewQueue("reconcile", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		JobTimeout: cfg.Timeout,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *ReconcileService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *ReconcileService) Stop() {
	s.queue.Stop()
}

// Reconcile schedules fn. Requests for a key that is already waiting are merged.
func (s *ReconcileService) Reconcile(key string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("reconcile %s: nil func", key)
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    reconcileJobType,
		Key:     key,
		Payload: fn,
	})
}

// ForSession scopes reconcile keys to one session so that two sessions
// refreshing the same page are not merged.
func (s *ReconcileService) ForSession(sessionID string) *SessionReconciler {
	return &SessionReconciler{svc: s, sessionID: sessionID}
}

func (s *ReconcileService) handle(ctx context.Context, job jobs.Job) error {
	fn, ok := job.Payload.(func(ctx context.Context) error)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	start := time.Now()
	if err := fn(ctx); err != nil {
		return err
	}
	s.logger.Debug("reconciled", zap.String("key", job.Key), zap.Duration("took", time.Since(start)))
	return nil
}

// SessionReconciler implements page.Reconciler for one session.
type SessionReconciler struct {
	svc       *ReconcileService
	sessionID string
}

// Reconcile schedules a refetch of pageName.
func (r *SessionReconciler) Reconcile(pageName string, fn func(ctx context.Context) error) error {
	return r.svc.Reconcile(r.sessionID+":"+pageName, fn)
}
