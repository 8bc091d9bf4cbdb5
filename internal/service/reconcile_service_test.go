package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconcileServiceRunsFunc(t *testing.T) {
	svc := NewReconcileService(ReconcileConfig{Workers: 1, BufferSize: 4, Timeout: time.Second}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	var ran int32
	var hadDeadline atomic.Bool
	err := svc.ForSession("s-1").Reconcile("students", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		atomic.AddInt32(&ran, 1)
		return nil
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, hadDeadline.Load())
}

func TestReconcileServiceDoesNotRetry(t *testing.T) {
	svc := NewReconcileService(ReconcileConfig{}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	var calls int32
	require.NoError(t, svc.Reconcile("k", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("upstream down")
	}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReconcileServiceRequiresStart(t *testing.T) {
	svc := NewReconcileService(ReconcileConfig{}, nil)
	require.Error(t, svc.Reconcile("k", func(context.Context) error { return nil }))
	require.Error(t, svc.Reconcile("k", nil))
}
