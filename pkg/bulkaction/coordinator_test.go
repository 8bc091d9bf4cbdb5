package bulkaction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

type backendStub struct {
	mu       sync.Mutex
	calls    []Request
	response *Response
	err      error
}

func (b *backendStub) Execute(ctx context.Context, req Request) (*Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, req)
	return b.response, b.err
}

type storeStub struct {
	applied   []Request
	succeeded [][]string
}

func (s *storeStub) Apply(req Request, succeeded []string) {
	s.applied = append(s.applied, req)
	s.succeeded = append(s.succeeded, succeeded)
}

type toast struct {
	level   Level
	message string
}

type toastRecorder struct {
	toasts []toast
}

func (r *toastRecorder) Notify(level Level, message string) {
	r.toasts = append(r.toasts, toast{level: level, message: message})
}

func newTestCoordinator(backend *backendStub, policy Policy) (*Coordinator, *storeStub, *toastRecorder) {
	store := &storeStub{}
	toasts := &toastRecorder{}
	if policy.Noun == "" {
		policy.Noun = "students"
	}
	c := NewCoordinator(Config{Policy: policy, Backend: backend, Store: store, Notifier: toasts})
	return c, store, toasts
}

func TestCoordinatorStatusUpdateSucceeds(t *testing.T) {
	backend := &backendStub{response: &Response{Message: "ok"}}
	c, store, toasts := newTestCoordinator(backend, Policy{})
	c.Selection().Add("3", "1", "2")

	res, err := c.RequestOperation(context.Background(), KindStatusUpdate, map[string]any{"status": "PRESENT"})
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, StateSucceeded, c.State())
	require.Len(t, backend.calls, 1)
	assert.Equal(t, []string{"3", "1", "2"}, backend.calls[0].TargetIDs)
	assert.Equal(t, [][]string{{"3", "1", "2"}}, store.succeeded)
	assert.Equal(t, 0, c.Selection().Len())
	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, LevelSuccess, toasts.toasts[0].level)
	assert.Equal(t, "Updated status of 3 students", toasts.toasts[0].message)

	c.Dismiss()
	assert.Equal(t, StateIdle, c.State())
}

func TestCoordinatorDestructiveOperationNeedsConfirmation(t *testing.T) {
	backend := &backendStub{response: &Response{}}
	c, store, _ := newTestCoordinator(backend, Policy{})
	c.Selection().Add("1", "2")

	res, err := c.RequestOperation(context.Background(), KindArchive, map[string]any{"reason": "graduated"})
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, res.State)
	assert.Empty(t, backend.calls)
	require.NotNil(t, c.Pending())
	assert.Equal(t, KindArchive, c.Pending().Kind)

	_, err = c.RequestOperation(context.Background(), KindNotify, nil)
	assert.ErrorIs(t, err, appErrors.ErrBusy)

	res, err = c.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Len(t, backend.calls, 1)
	assert.Len(t, store.applied, 1)
	assert.Nil(t, c.Pending())
}

func TestCoordinatorCancelFromConfirming(t *testing.T) {
	backend := &backendStub{response: &Response{}}
	c, store, _ := newTestCoordinator(backend, Policy{})
	c.Selection().Add("1")

	_, err := c.RequestOperation(context.Background(), KindDelete, nil)
	require.NoError(t, err)

	require.NoError(t, c.Cancel())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, backend.calls)
	assert.Empty(t, store.applied)
	assert.Equal(t, 0, c.Selection().Len())

	_, err = c.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirming)
}

func TestCoordinatorTotalFailurePreservesSelection(t *testing.T) {
	backend := &backendStub{err: appErrors.Clone(appErrors.ErrUpstream, "database unavailable")}
	c, store, toasts := newTestCoordinator(backend, Policy{})
	c.Selection().Add("1", "2", "3")

	res, err := c.RequestOperation(context.Background(), KindStatusUpdate, map[string]any{"status": "ABSENT"})
	require.Error(t, err)

	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, store.applied)
	assert.Equal(t, []string{"1", "2", "3"}, c.Selection().IDs())
	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, LevelError, toasts.toasts[0].level)
	assert.Equal(t, "database unavailable", toasts.toasts[0].message)
}

func TestCoordinatorTimeoutAndNetworkMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: appErrors.Wrap(context.DeadlineExceeded, appErrors.ErrTimeout.Code, 504, appErrors.ErrTimeout.Message), want: appErrors.ErrTimeout.Message},
		{name: "network", err: appErrors.Wrap(errors.New("dial tcp: refused"), appErrors.ErrNetwork.Code, 502, appErrors.ErrNetwork.Message), want: appErrors.ErrNetwork.Message},
		{name: "untyped", err: errors.New("boom"), want: "bulk operation failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, toasts := newTestCoordinator(&backendStub{err: tc.err}, Policy{})
			c.Selection().Add("1")

			_, err := c.RequestOperation(context.Background(), KindNotify, nil)
			require.Error(t, err)
			require.Len(t, toasts.toasts, 1)
			assert.Equal(t, tc.want, toasts.toasts[0].message)
			assert.Equal(t, 1, c.Selection().Len())
		})
	}
}

func TestCoordinatorPartialFailure(t *testing.T) {
	backend := &backendStub{response: &Response{Failed: []Failure{{ID: "2", Reason: "record locked"}}}}
	c, store, toasts := newTestCoordinator(backend, Policy{})
	c.Selection().Add("1", "2", "3")

	res, err := c.RequestOperation(context.Background(), KindStatusUpdate, map[string]any{"status": "LATE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPartialFailure)

	assert.Equal(t, StatePartiallyFailed, res.State)
	assert.Equal(t, []string{"1", "3"}, res.Succeeded)
	assert.Equal(t, []Failure{{ID: "2", Reason: "record locked"}}, res.Failed)
	assert.Equal(t, [][]string{{"1", "3"}}, store.succeeded)
	assert.Equal(t, []string{"2"}, c.Selection().IDs())
	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, LevelWarning, toasts.toasts[0].level)
	assert.Contains(t, toasts.toasts[0].message, "2 (record locked)")
}

func TestCoordinatorEveryTargetRejected(t *testing.T) {
	backend := &backendStub{response: &Response{Failed: []Failure{{ID: "1"}, {ID: "9"}}}}
	c, store, _ := newTestCoordinator(backend, Policy{})
	c.Selection().Add("1")

	res, err := c.RequestOperation(context.Background(), KindNotify, nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []Failure{{ID: "1", Reason: "rejected by server"}}, res.Failed)
	assert.Empty(t, store.applied)
	assert.Equal(t, []string{"1"}, c.Selection().IDs())
}

func TestCoordinatorValidationHappensBeforeRequest(t *testing.T) {
	backend := &backendStub{response: &Response{}}
	policy := Policy{
		Available: []Kind{KindExport, KindStatusUpdate},
		Validate: func(req Request) error {
			if req.Kind == KindExport && len(req.Payload) == 0 {
				return appErrors.Clone(appErrors.ErrValidation, "select at least one column")
			}
			return nil
		},
	}
	c, _, toasts := newTestCoordinator(backend, policy)

	_, err := c.RequestOperation(context.Background(), KindStatusUpdate, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	c.Selection().Add("1")
	_, err = c.RequestOperation(context.Background(), KindExport, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = c.RequestOperation(context.Background(), KindDelete, nil)
	assert.ErrorIs(t, err, ErrNotOffered)

	_, err = c.RequestOperation(context.Background(), Kind("explode"), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Empty(t, backend.calls)
	assert.Len(t, toasts.toasts, 4)
	assert.Equal(t, StateIdle, c.State())
}

func TestCoordinatorRequestForKeepsUnrelatedSelection(t *testing.T) {
	backend := &backendStub{response: &Response{}}
	c, _, _ := newTestCoordinator(backend, Policy{Confirm: map[Kind]bool{}})
	c.Selection().Add("1", "2")

	res, err := c.RequestFor(context.Background(), KindArchive, []string{"2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, []string{"1"}, c.Selection().IDs())
}

func TestCoordinatorObserveAndLast(t *testing.T) {
	var observed []State
	backend := &backendStub{response: &Response{Artifact: "file.csv"}}
	c := NewCoordinator(Config{
		Backend: backend,
		Observe: func(kind Kind, state State) { observed = append(observed, state) },
	})
	c.Selection().Add("a")

	_, err := c.RequestOperation(context.Background(), KindExport, map[string]any{"format": "csv"})
	require.NoError(t, err)

	assert.Equal(t, []State{StateSucceeded}, observed)
	require.NotNil(t, c.Last())
	assert.Equal(t, "file.csv", c.Last().Artifact)
	assert.Equal(t, "Exported 1 items", c.Last().Message)
}
