package service

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/page"
	"github.com/noah-isme/sma-adp-console/internal/upstream"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

const viewStateSaveTimeout = 2 * time.Second

// ErrSessionClosed is returned when a workspace was evicted while in use.
var ErrSessionClosed = appErrors.New("SESSION_CLOSED", http.StatusGone, "session expired, reload the dashboard")

// SessionConfig tunes session lifetime and the pages created for it.
type SessionConfig struct {
	Capacity      int
	IdleTTL       time.Duration
	ToastCapacity int
	Locale        string
	Timeout       time.Duration
	DetailTimeout time.Duration
	Debounce      time.Duration
	PageSize      int
	CacheCapacity int
}

// Principal is the authenticated admin behind a request.
type Principal struct {
	Subject string
	Token   string
}

// Workspace is the state of one admin session: its page containers and
// its toast feed.
type Workspace struct {
	ID        string
	Owner     string
	Toasts    *ToastFeed
	CreatedAt time.Time

	// stateID keys saved views; it is derived from Owner and ID.
	stateID string

	mu         sync.Mutex
	credential string
	pages      map[string]*page.Container
	closed     bool
	build      func(ctx context.Context, w *Workspace, name string) (*page.Container, error)
}

// Credential returns the latest access token presented by the owner.
func (w *Workspace) Credential() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.credential
}

func (w *Workspace) setCredential(token string) {
	if token == "" {
		return
	}
	w.mu.Lock()
	w.credential = token
	w.mu.Unlock()
}

// Page returns the container of name, creating and loading it on first use.
func (w *Workspace) Page(ctx context.Context, name string) (*page.Container, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if c, ok := w.pages[name]; ok {
		w.mu.Unlock()
		return c, nil
	}
	w.mu.Unlock()

	c, err := w.build(ctx, w, name)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		c.Close()
		return nil, ErrSessionClosed
	}
	if existing, ok := w.pages[name]; ok {
		w.mu.Unlock()
		c.Close()
		return existing, nil
	}
	w.pages[name] = c
	w.mu.Unlock()

	// Load failures are kept on the container and surfaced as a toast.
	_ = c.Refresh(ctx)
	return c, nil
}

// Pages lists the names of the pages opened in this workspace.
func (w *Workspace) Pages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.pages))
	for name := range w.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w *Workspace) close() {
	w.mu.Lock()
	pages := w.pages
	w.pages = map[string]*page.Container{}
	w.closed = true
	w.mu.Unlock()
	for _, c := range pages {
		c.Close()
	}
}

// SessionService keeps workspaces in memory and expires idle ones.
type SessionService struct {
	catalog    *catalog.Registry
	upstream   page.Upstream
	exporter   page.Exporter
	reconciler *ReconcileService
	viewState  *ViewStateService
	metrics    *MetricsService
	logger     *zap.Logger
	clock      clockwork.Clock
	lang       language.Tag
	cfg        SessionConfig

	mu       sync.Mutex
	sessions *expirable.LRU[string, *Workspace]
}

// SessionDeps groups the collaborators shared by every workspace.
type SessionDeps struct {
	Catalog    *catalog.Registry
	Upstream   page.Upstream
	Exporter   page.Exporter
	Reconciler *ReconcileService
	ViewState  *ViewStateService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Clock      clockwork.Clock
}

// NewSessionService constructs the service.
func NewSessionService(cfg SessionConfig, deps SessionDeps) *SessionService {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	lang, err := language.Parse(cfg.Locale)
	if err != nil || cfg.Locale == "" {
		lang = language.English
	}

	s := &SessionService{
		catalog:    deps.Catalog,
		upstream:   deps.Upstream,
		exporter:   deps.Exporter,
		reconciler: deps.Reconciler,
		viewState:  deps.ViewState,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      deps.Clock,
		lang:       lang,
		cfg:        cfg,
	}
	s.sessions = expirable.NewLRU[string, *Workspace](cfg.Capacity, s.evicted, cfg.IdleTTL)
	return s
}

// Open returns the workspace for id owned by p, creating one when id is
// unknown or belongs to another admin. A missing or malformed id gets a
// fresh one. The second result reports whether the workspace was created.
func (s *SessionService) Open(p Principal, id string) (*Workspace, bool, error) {
	if p.Subject == "" {
		return nil, false, appErrors.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.sessions.Get(id); ok {
		if w.Owner == p.Subject {
			// Re-adding moves the expiry forward.
			s.sessions.Add(id, w)
			w.setCredential(p.Token)
			return w, false, nil
		}
		s.logger.Warn("session id presented by another admin", zap.String("session_id", id), zap.String("owner", p.Subject))
		id = uuid.NewString()
	}
	w := &Workspace{
		ID:         id,
		Owner:      p.Subject,
		Toasts:     NewToastFeed(s.cfg.ToastCapacity),
		CreatedAt:  time.Now().UTC(),
		stateID:    workspaceStateID(p.Subject, id),
		credential: p.Token,
		pages:      make(map[string]*page.Container),
		build:      s.buildPage,
	}
	s.sessions.Add(id, w)
	s.metrics.SessionOpened()
	s.logger.Info("session opened", zap.String("session_id", id), zap.String("owner", p.Subject))
	return w, true, nil
}

// workspaceStateID scopes saved views to the owner so a guessed session id
// never restores another admin's views.
func workspaceStateID(owner, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner+"\n"+id)).String()
}

// Get returns an existing workspace without creating one.
func (s *SessionService) Get(id string) (*Workspace, bool) {
	return s.sessions.Peek(id)
}

// Close ends a session and forgets its saved views.
func (s *SessionService) Close(ctx context.Context, id string) bool {
	s.mu.Lock()
	w, ok := s.sessions.Peek(id)
	removed := ok && s.sessions.Remove(id)
	s.mu.Unlock()
	if removed {
		_ = s.viewState.Forget(ctx, w.stateID)
	}
	return removed
}

// Len reports the number of live sessions.
func (s *SessionService) Len() int {
	return s.sessions.Len()
}

// Shutdown closes every session.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Purge()
}

// Catalog exposes the page descriptors.
func (s *SessionService) Catalog() *catalog.Registry {
	return s.catalog
}

func (s *SessionService) evicted(id string, w *Workspace) {
	w.close()
	s.metrics.SessionClosed()
	s.logger.Info("session closed", zap.String("session_id", id))
}

func (s *SessionService) buildPage(ctx context.Context, w *Workspace, name string) (*page.Container, error) {
	desc, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	initial, err := s.viewState.Load(ctx, w.stateID, name)
	if err != nil {
		initial = nil
	}

	logger := s.logger.With(zap.String("session_id", w.ID))
	cfg := page.Config{
		Descriptor:    desc,
		Upstream:      s.upstreamFor(w),
		Exporter:      s.exporter,
		Notifier:      bulkaction.MultiNotifier{w.Toasts, NewLogNotifier(s.logger, w.ID)},
		Observer:      s.metrics,
		Logger:        logger,
		Clock:         s.clock,
		Language:      s.lang,
		Timeout:       s.cfg.Timeout,
		DetailTimeout: s.cfg.DetailTimeout,
		Debounce:      s.cfg.Debounce,
		PageSize:      s.cfg.PageSize,
		CacheCapacity: s.cfg.CacheCapacity,
		Initial:       initial,
		OnParamsChange: func(p listquery.Params) {
			s.saveView(w.stateID, name, p)
		},
	}
	if s.reconciler != nil {
		cfg.Reconciler = s.reconciler.ForSession(w.ID)
	}
	return page.New(cfg)
}

func (s *SessionService) upstreamFor(w *Workspace) page.Upstream {
	if s.upstream == nil {
		return nil
	}
	return ownerUpstream{next: s.upstream, ws: w}
}

// ownerUpstream sends every call, background refetches included, with the
// workspace owner's latest access token.
type ownerUpstream struct {
	next page.Upstream
	ws   *Workspace
}

func (u ownerUpstream) ctx(ctx context.Context) context.Context {
	return upstream.WithBearer(ctx, u.ws.Credential())
}

func (u ownerUpstream) List(ctx context.Context, endpoint string, q models.ListQuery) (*models.ListPage, error) {
	return u.next.List(u.ctx(ctx), endpoint, q)
}

func (u ownerUpstream) BulkPatch(ctx context.Context, endpoint string, req models.BulkPatchRequest) (*models.BulkResult, error) {
	return u.next.BulkPatch(u.ctx(ctx), endpoint, req)
}

func (u ownerUpstream) BulkDelete(ctx context.Context, endpoint string, ids []string) (*models.BulkResult, error) {
	return u.next.BulkDelete(u.ctx(ctx), endpoint, ids)
}

func (u ownerUpstream) Details(ctx context.Context, endpoint, id string) (models.RowDetail, error) {
	return u.next.Details(u.ctx(ctx), endpoint, id)
}

func (u ownerUpstream) SoftDelete(ctx context.Context, endpoint, id string, req models.SoftDeleteRequest) error {
	return u.next.SoftDelete(u.ctx(ctx), endpoint, id, req)
}

func (s *SessionService) saveView(sessionID, name string, p listquery.Params) {
	if !s.viewState.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), viewStateSaveTimeout)
		defer cancel()
		_ = s.viewState.Save(ctx, sessionID, name, p)
	}()
}
