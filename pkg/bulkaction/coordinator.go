package bulkaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// Request is one batched mutation. TargetIDs keep selection order; the
// upstream processes them in that order.
type Request struct {
	TargetIDs []string       `json:"target_ids"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Failure describes one target the server could not process.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Response is what a Backend reports for a request it managed to send.
// Failed lists targets rejected by the server; everything else succeeded.
type Response struct {
	Message  string
	Failed   []Failure
	Artifact any
}

// Backend executes requests against the upstream, or locally for exports.
// A returned error means nothing was applied.
type Backend interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Store reconciles the local collection with the targets the server accepted.
type Store interface {
	Apply(req Request, succeeded []string)
}

// Policy configures what an entity type offers.
type Policy struct {
	// Noun names the entities in toasts, e.g. "students".
	Noun string
	// Available restricts the offered kinds; empty means all.
	Available []Kind
	// Confirm overrides which kinds need confirmation; nil means destructive kinds.
	Confirm map[Kind]bool
	// Validate runs before any request is issued.
	Validate func(Request) error
}

func (p Policy) offers(k Kind) bool {
	if len(p.Available) == 0 {
		return true
	}
	for _, a := range p.Available {
		if a == k {
			return true
		}
	}
	return false
}

func (p Policy) needsConfirmation(k Kind) bool {
	if p.Confirm != nil {
		return p.Confirm[k]
	}
	return k.Destructive()
}

// Result reports the outcome of the last operation.
type Result struct {
	Request   Request   `json:"request"`
	State     State     `json:"state"`
	Succeeded []string  `json:"succeeded,omitempty"`
	Failed    []Failure `json:"failed,omitempty"`
	Message   string    `json:"message,omitempty"`
	Artifact  any       `json:"artifact,omitempty"`
	Err       error     `json:"-"`
}

// Config bundles coordinator collaborators.
type Config struct {
	Policy   Policy
	Backend  Backend
	Store    Store
	Notifier Notifier
	Logger   *zap.Logger
	// Observe is called with each finished operation, e.g. for metrics.
	Observe func(kind Kind, state State)
}

// Coordinator drives Idle → Confirming → InFlight → terminal → Idle.
type Coordinator struct {
	mu        sync.Mutex
	state     State
	pending   *pendingOp
	last      *Result
	selection *Selection

	policy   Policy
	backend  Backend
	store    Store
	notifier Notifier
	logger   *zap.Logger
	observe  func(Kind, State)
}

type pendingOp struct {
	req           Request
	fromSelection bool
}

var (
	// ErrNotConfirming is returned by Confirm when nothing awaits confirmation.
	ErrNotConfirming = appErrors.New("NOT_CONFIRMING", 409, "no operation awaiting confirmation")
	// ErrNotOffered is returned for kinds the entity type does not support.
	ErrNotOffered = appErrors.New("OPERATION_NOT_AVAILABLE", 400, "operation not available for this page")
)

// NewCoordinator constructs an idle coordinator with an empty selection.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Policy.Noun == "" {
		cfg.Policy.Noun = "items"
	}
	return &Coordinator{
		state:     StateIdle,
		selection: NewSelection(),
		policy:    cfg.Policy,
		backend:   cfg.Backend,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		observe:   cfg.Observe,
	}
}

// Selection exposes the coordinator-owned selection.
func (c *Coordinator) Selection() *Selection {
	return c.selection
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the request awaiting confirmation, if any.
func (c *Coordinator) Pending() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.state != StateConfirming {
		return nil
	}
	req := c.pending.req
	return &req
}

// Last returns the result of the most recent finished operation.
func (c *Coordinator) Last() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	res := *c.last
	return &res
}

// RequestOperation targets the current selection.
func (c *Coordinator) RequestOperation(ctx context.Context, kind Kind, payload map[string]any) (*Result, error) {
	return c.request(ctx, Request{TargetIDs: c.selection.IDs(), Kind: kind, Payload: payload}, true)
}

// RequestFor targets explicit ids, e.g. a single row action. The selection is
// only touched for ids that succeed.
func (c *Coordinator) RequestFor(ctx context.Context, kind Kind, ids []string, payload map[string]any) (*Result, error) {
	return c.request(ctx, Request{TargetIDs: append([]string(nil), ids...), Kind: kind, Payload: payload}, false)
}

func (c *Coordinator) request(ctx context.Context, req Request, fromSelection bool) (*Result, error) {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return nil, appErrors.ErrBusy
	}
	if err := c.validate(req); err != nil {
		c.mu.Unlock()
		c.notifier.Notify(LevelError, appErrors.UserMessage(err, "invalid request"))
		return nil, err
	}
	op := &pendingOp{req: req, fromSelection: fromSelection}
	if c.policy.needsConfirmation(req.Kind) {
		c.state = StateConfirming
		c.pending = op
		c.mu.Unlock()
		c.logger.Debug("bulk operation awaiting confirmation", zap.String("kind", string(req.Kind)), zap.Int("targets", len(req.TargetIDs)))
		return &Result{Request: req, State: StateConfirming}, nil
	}
	c.state = StateInFlight
	c.pending = op
	c.mu.Unlock()
	return c.run(ctx, op)
}

// Confirm executes the pending operation.
func (c *Coordinator) Confirm(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.state != StateConfirming || c.pending == nil {
		c.mu.Unlock()
		return nil, ErrNotConfirming
	}
	c.state = StateInFlight
	op := c.pending
	c.mu.Unlock()
	return c.run(ctx, op)
}

// Cancel abandons a pending confirmation. In-flight requests cannot be cancelled.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	switch c.state {
	case StateInFlight:
		c.mu.Unlock()
		return appErrors.ErrBusy
	case StateConfirming:
		op := c.pending
		c.state = StateIdle
		c.pending = nil
		c.mu.Unlock()
		if op != nil && op.fromSelection {
			c.selection.Clear()
		}
		return nil
	default:
		c.mu.Unlock()
		return nil
	}
}

// Dismiss returns a terminal state to Idle.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		c.state = StateIdle
	}
}

func (c *Coordinator) validate(req Request) error {
	if !req.Kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown operation %q", req.Kind))
	}
	if !c.policy.offers(req.Kind) {
		return ErrNotOffered
	}
	if len(req.TargetIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("select at least one of the %s", c.policy.Noun))
	}
	if c.policy.Validate != nil {
		return c.policy.Validate(req)
	}
	return nil
}

func (c *Coordinator) run(ctx context.Context, op *pendingOp) (*Result, error) {
	req := op.req
	logger := c.logger.With(zap.String("kind", string(req.Kind)), zap.Int("targets", len(req.TargetIDs)))

	resp, err := c.backend.Execute(ctx, req)
	if err != nil {
		res := &Result{Request: req, State: StateFailed, Err: err, Message: failureMessage(err)}
		logger.Warn("bulk operation failed", zap.Error(err))
		c.finish(res)
		c.notifier.Notify(LevelError, res.Message)
		return res, err
	}
	if resp == nil {
		resp = &Response{}
	}

	failed, succeeded := splitTargets(req.TargetIDs, resp.Failed)
	res := &Result{Request: req, Succeeded: succeeded, Failed: failed, Artifact: resp.Artifact}

	switch {
	case len(succeeded) == 0:
		res.State = StateFailed
		res.Message = c.partialMessage(req.Kind, 0, failed, resp.Message)
		res.Err = appErrors.Clone(appErrors.ErrUpstream, res.Message)
	case len(failed) > 0:
		res.State = StatePartiallyFailed
		res.Message = c.partialMessage(req.Kind, len(succeeded), failed, resp.Message)
		res.Err = appErrors.Clone(appErrors.ErrPartialFailure, res.Message)
	default:
		res.State = StateSucceeded
		res.Message = fmt.Sprintf("%s %d %s", req.Kind.pastTense(), len(succeeded), c.policy.Noun)
	}

	if len(succeeded) > 0 && c.store != nil {
		c.store.Apply(req, succeeded)
	}
	c.reconcileSelection(op, res)
	c.finish(res)

	switch res.State {
	case StateSucceeded:
		logger.Info("bulk operation succeeded")
		c.notifier.Notify(LevelSuccess, res.Message)
		return res, nil
	case StatePartiallyFailed:
		logger.Warn("bulk operation partially failed", zap.Int("failed", len(failed)))
		c.notifier.Notify(LevelWarning, res.Message)
	default:
		logger.Warn("bulk operation rejected for every target")
		c.notifier.Notify(LevelError, res.Message)
	}
	return res, res.Err
}

func (c *Coordinator) reconcileSelection(op *pendingOp, res *Result) {
	switch {
	case res.State == StateFailed:
		return
	case op.fromSelection && res.State == StateSucceeded:
		c.selection.Clear()
	case op.fromSelection:
		ids := make([]string, 0, len(res.Failed))
		for _, f := range res.Failed {
			ids = append(ids, f.ID)
		}
		c.selection.Replace(ids)
	default:
		done := make(map[string]struct{}, len(res.Succeeded))
		for _, id := range res.Succeeded {
			done[id] = struct{}{}
		}
		c.selection.Retain(func(id string) bool {
			_, ok := done[id]
			return !ok
		})
	}
}

func (c *Coordinator) finish(res *Result) {
	c.mu.Lock()
	c.state = res.State
	c.pending = nil
	c.last = res
	c.mu.Unlock()
	if c.observe != nil {
		c.observe(res.Request.Kind, res.State)
	}
}

// splitTargets keeps only failures that name a requested target, in target order.
func splitTargets(targets []string, reported []Failure) ([]Failure, []string) {
	reasons := make(map[string]string, len(reported))
	for _, f := range reported {
		reasons[f.ID] = f.Reason
	}
	var failed []Failure
	succeeded := make([]string, 0, len(targets))
	for _, id := range targets {
		if reason, ok := reasons[id]; ok {
			if reason == "" {
				reason = "rejected by server"
			}
			failed = append(failed, Failure{ID: id, Reason: reason})
			continue
		}
		succeeded = append(succeeded, id)
	}
	return failed, succeeded
}

func (c *Coordinator) partialMessage(kind Kind, succeeded int, failed []Failure, serverMsg string) string {
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.ID, f.Reason))
	}
	msg := fmt.Sprintf("%s %d %s; %d failed: %s", kind.pastTense(), succeeded, c.policy.Noun, len(failed), strings.Join(parts, ", "))
	if serverMsg != "" {
		msg = serverMsg + ". " + msg
	}
	return msg
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return appErrors.ErrTimeout.Message
	case errors.Is(err, appErrors.ErrNetwork):
		return appErrors.ErrNetwork.Message
	}
	return appErrors.UserMessage(err, "bulk operation failed")
}
