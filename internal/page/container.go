// Package page holds the state of one list page for one admin session: the
// entity collection, its query parameters, the selection and bulk workflow,
// and the cache of expanded row details.
package page

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
	"github.com/noah-isme/sma-adp-console/pkg/rowcache"
)

// DefaultTimeout applies to list and bulk calls when none is configured.
const DefaultTimeout = 20 * time.Second

// ErrRowNotFound is returned for ids absent from the current collection.
var ErrRowNotFound = appErrors.Clone(appErrors.ErrNotFound, "row not found")

// Upstream is the REST collaborator owning the entities.
type Upstream interface {
	List(ctx context.Context, endpoint string, q models.ListQuery) (*models.ListPage, error)
	BulkPatch(ctx context.Context, endpoint string, req models.BulkPatchRequest) (*models.BulkResult, error)
	BulkDelete(ctx context.Context, endpoint string, ids []string) (*models.BulkResult, error)
	Details(ctx context.Context, endpoint, id string) (models.RowDetail, error)
	SoftDelete(ctx context.Context, endpoint, id string, req models.SoftDeleteRequest) error
}

// ExportRequest is a rendered export of selected rows.
type ExportRequest struct {
	Page    string
	Title   string
	Format  export.Format
	Columns []export.Column
	Rows    []models.Entity
}

// Exporter renders and stores exports.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (*models.ExportArtifact, error)
}

// Reconciler runs background refetches.
type Reconciler interface {
	Reconcile(page string, fn func(ctx context.Context) error) error
}

// Observer receives page level events, e.g. for metrics.
type Observer interface {
	BulkFinished(page string, kind bulkaction.Kind, state bulkaction.State)
	RowCacheLookup(page string, hit bool)
	StaleResponse(page string)
}

// Config wires a container.
type Config struct {
	Descriptor    catalog.Descriptor
	Upstream      Upstream
	Exporter      Exporter
	Reconciler    Reconciler
	Notifier      bulkaction.Notifier
	Observer      Observer
	Logger        *zap.Logger
	Clock         clockwork.Clock
	Language      language.Tag
	Timeout       time.Duration
	DetailTimeout time.Duration
	Debounce      time.Duration
	PageSize      int
	CacheCapacity int
	// Initial restores persisted query parameters.
	Initial *listquery.Params
	// OnParamsChange is called after every effective parameter change.
	OnParamsChange func(listquery.Params)
}

// Container owns one page of one session.
type Container struct {
	desc          catalog.Descriptor
	upstream      Upstream
	exporter      Exporter
	reconciler    Reconciler
	notifier      bulkaction.Notifier
	observer      Observer
	logger        *zap.Logger
	timeout       time.Duration
	detailTimeout time.Duration
	onParams      func(listquery.Params)

	query   *listquery.State
	bulk    *bulkaction.Coordinator
	details *rowcache.Cache[models.RowDetail]

	mu         sync.Mutex
	items      []models.Entity
	total      int
	loaded     bool
	loadErr    error
	seq        uint64
	fetching   int
	refreshing bool
}

// New builds an empty, not yet loaded container.
func New(cfg Config) (*Container, error) {
	if cfg.Upstream == nil {
		return nil, fmt.Errorf("page %s: upstream required", cfg.Descriptor.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DetailTimeout <= 0 {
		cfg.DetailTimeout = cfg.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = bulkaction.NotifierFunc(func(bulkaction.Level, string) {})
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}

	c := &Container{
		desc:          cfg.Descriptor,
		upstream:      cfg.Upstream,
		exporter:      cfg.Exporter,
		reconciler:    cfg.Reconciler,
		notifier:      cfg.Notifier,
		observer:      cfg.Observer,
		logger:        cfg.Logger.With(zap.String("page", cfg.Descriptor.Name)),
		timeout:       cfg.Timeout,
		detailTimeout: cfg.DetailTimeout,
		onParams:      cfg.OnParamsChange,
	}

	c.query = listquery.NewState(listquery.StateConfig{
		Defaults: cfg.Descriptor.DefaultParams(cfg.PageSize),
		Options:  cfg.Descriptor.QueryOptions(cfg.Language),
		Debounce: cfg.Debounce,
		Clock:    cfg.Clock,
		OnChange: c.paramsChanged,
	})
	if cfg.Initial != nil {
		c.query.Restore(*cfg.Initial)
	}

	c.bulk = bulkaction.NewCoordinator(bulkaction.Config{
		Policy:   cfg.Descriptor.Policy(),
		Backend:  backend{c: c},
		Store:    c,
		Notifier: cfg.Notifier,
		Logger:   c.logger,
		Observe: func(kind bulkaction.Kind, state bulkaction.State) {
			if c.observer != nil {
				c.observer.BulkFinished(c.desc.Name, kind, state)
			}
		},
	})

	details, err := rowcache.New[models.RowDetail](cfg.CacheCapacity, c.loadDetail, func(hit bool) {
		if c.observer != nil {
			c.observer.RowCacheLookup(c.desc.Name, hit)
		}
	})
	if err != nil {
		return nil, err
	}
	c.details = details
	return c, nil
}

// Name is the page name.
func (c *Container) Name() string {
	return c.desc.Name
}

// Descriptor returns the capability table of the page.
func (c *Container) Descriptor() catalog.Descriptor {
	return c.desc
}

// Query exposes the query parameters.
func (c *Container) Query() *listquery.State {
	return c.query
}

// Bulk exposes the bulk operation coordinator.
func (c *Container) Bulk() *bulkaction.Coordinator {
	return c.bulk
}

// Loaded reports whether a list response has been applied.
func (c *Container) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Items returns the full, underived collection.
func (c *Container) Items() []models.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Entity(nil), c.items...)
}

// Refresh refetches the collection. A refresh while another is running is rejected.
func (c *Container) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return appErrors.ErrBusy
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()
	return c.reload(ctx)
}

// reload fetches the collection and applies it only if neither a newer fetch
// nor an acknowledged mutation happened in the meantime.
func (c *Container) reload(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.fetching++
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	page, err := c.upstream.List(ctx, c.desc.Endpoint, c.listQuery())

	c.mu.Lock()
	c.fetching--
	if token != c.seq {
		c.mu.Unlock()
		c.logger.Debug("dropping stale list response", zap.Uint64("seq", token))
		if c.observer != nil {
			c.observer.StaleResponse(c.desc.Name)
		}
		return nil
	}
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		c.logger.Warn("list load failed", zap.Error(err))
		c.notifier.Notify(bulkaction.LevelError, fmt.Sprintf("Could not load %s: %s", c.desc.Noun, appErrors.UserMessage(err, "unexpected error")))
		return err
	}
	c.items = page.Items
	c.total = page.Total
	c.loaded = true
	c.loadErr = nil
	present := make(map[string]struct{}, len(page.Items))
	for _, item := range page.Items {
		present[item.ID] = struct{}{}
	}
	c.mu.Unlock()

	if pruned := c.bulk.Selection().Retain(func(id string) bool {
		_, ok := present[id]
		return ok
	}); pruned > 0 {
		c.logger.Debug("pruned vanished ids from selection", zap.Int("count", pruned))
	}
	return nil
}

func (c *Container) listQuery() models.ListQuery {
	if !c.desc.ServerFiltered {
		return models.ListQuery{}
	}
	p := c.query.Params()
	filters := make(map[string][]string, len(p.Filters))
	for category, values := range p.Filters {
		field := category
		if mapped, ok := c.desc.FilterFields[category]; ok {
			field = mapped
		}
		filters[field] = values
	}
	return models.ListQuery{Search: p.Search, Page: p.Page, PageSize: p.PageSize, Filters: filters}
}

func (c *Container) paramsChanged(p listquery.Params) {
	if c.onParams != nil {
		c.onParams(p)
	}
	if c.desc.ServerFiltered {
		go func() {
			_ = c.reload(context.Background())
		}()
	}
}

// ToggleSelection flips membership of id, which must be in the collection.
func (c *Container) ToggleSelection(id string) (bool, error) {
	if c.bulk.State().Busy() {
		return false, appErrors.ErrBusy
	}
	if !c.contains(id) {
		return false, ErrRowNotFound
	}
	return c.bulk.Selection().Toggle(id), nil
}

// SelectVisible adds every row of the current page to the selection.
func (c *Container) SelectVisible() (int, error) {
	if c.bulk.State().Busy() {
		return 0, appErrors.ErrBusy
	}
	visible := c.derive().Items
	ids := make([]string, len(visible))
	for i, item := range visible {
		ids[i] = item.ID
	}
	c.bulk.Selection().Add(ids...)
	return len(ids), nil
}

// ClearSelection empties the selection.
func (c *Container) ClearSelection() error {
	if c.bulk.State().Busy() {
		return appErrors.ErrBusy
	}
	c.bulk.Selection().Clear()
	return nil
}

// RowDetails returns the expansion payload of id, fetching it once.
func (c *Container) RowDetails(ctx context.Context, id string) (models.RowDetail, error) {
	if !c.contains(id) {
		return nil, ErrRowNotFound
	}
	detail, err := c.details.Get(ctx, id)
	if err != nil {
		c.notifier.Notify(bulkaction.LevelError, "Could not load details: "+appErrors.UserMessage(err, "unexpected error"))
		return nil, err
	}
	return detail, nil
}

// RefreshRow forgets the cached details of id.
func (c *Container) RefreshRow(id string) {
	c.details.Refresh(id)
}

// RowState reports whether details of id are cached or being loaded.
func (c *Container) RowState(id string) (cached, loading bool) {
	return c.details.Cached(id), c.details.InFlight(id)
}

func (c *Container) loadDetail(ctx context.Context, id string) (models.RowDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, c.detailTimeout)
	defer cancel()
	return c.upstream.Details(ctx, c.desc.Endpoint, id)
}

// SoftDelete archives or deactivates one row. The reason dialog is the
// confirmation, so no separate confirm step is required.
func (c *Container) SoftDelete(ctx context.Context, id string, req models.SoftDeleteRequest) (*bulkaction.Result, error) {
	if !c.contains(id) {
		return nil, ErrRowNotFound
	}
	if req.Action == "" {
		req.Action = models.SoftDeleteArchive
	}
	payload := map[string]any{
		catalog.PayloadSoftDelete: string(req.Action),
		catalog.PayloadReason:     req.Reason,
	}
	res, err := c.bulk.RequestFor(ctx, bulkaction.KindArchive, []string{id}, payload)
	if err != nil || res.State != bulkaction.StateConfirming {
		return res, err
	}
	return c.bulk.Confirm(ctx)
}

// Suggest returns fuzzy matches over the whole collection.
func (c *Container) Suggest(query string, limit int) []listquery.Suggestion[models.Entity] {
	fields := c.desc.LabelFields
	if len(fields) == 0 {
		fields = c.desc.SearchFields
	}
	return listquery.Suggest(c.Items(), query, fields, limit)
}

// Close stops timers and drops cached details.
func (c *Container) Close() {
	c.query.Stop()
	c.details.Purge()
}

func (c *Container) contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// rows returns the entities for ids in the given order, skipping unknown ids.
func (c *Container) rows(ids []string) []models.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := make(map[string]models.Entity, len(c.items))
	for _, item := range c.items {
		index[item.ID] = item
	}
	out := make([]models.Entity, 0, len(ids))
	for _, id := range ids {
		if item, ok := index[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Apply patches the rows the server accepted. It implements bulkaction.Store.
func (c *Container) Apply(req bulkaction.Request, succeeded []string) {
	effect := c.effectFor(req)
	if effect.Refetch {
		c.scheduleReconcile()
	}
	fields := effect.Fields(req.Payload)
	if !effect.Remove && len(fields) == 0 {
		return
	}

	done := make(map[string]struct{}, len(succeeded))
	for _, id := range succeeded {
		done[id] = struct{}{}
	}

	c.mu.Lock()
	// Fetches started before the acknowledgement must not revert it.
	c.seq++
	superseded := c.fetching > 0
	next := make([]models.Entity, 0, len(c.items))
	for _, item := range c.items {
		if _, ok := done[item.ID]; !ok {
			next = append(next, item)
			continue
		}
		if effect.Remove {
			continue
		}
		next = append(next, item.WithFields(fields))
	}
	removed := len(c.items) - len(next)
	c.items = next
	c.total -= removed
	c.mu.Unlock()

	if superseded && !effect.Refetch {
		c.logger.Debug("mutation superseded an in-flight list fetch")
		c.scheduleReconcile()
	}

	if effect.Remove {
		for id := range done {
			c.details.Refresh(id)
		}
		c.bulk.Selection().Retain(func(id string) bool {
			_, gone := done[id]
			return !gone
		})
	}
}

func (c *Container) effectFor(req bulkaction.Request) catalog.Effect {
	if action, ok := req.Payload[catalog.PayloadSoftDelete].(string); ok {
		if effect, ok := c.desc.SoftDelete[models.SoftDeleteAction(action)]; ok {
			return effect
		}
	}
	return c.desc.Effects[req.Kind]
}

func (c *Container) scheduleReconcile() {
	fn := func(ctx context.Context) error { return c.reload(ctx) }
	if c.reconciler != nil {
		err := c.reconciler.Reconcile(c.desc.Name, fn)
		if err == nil {
			return
		}
		c.logger.Warn("reconcile queue unavailable, refetching inline", zap.Error(err))
	}
	go func() { _ = fn(context.Background()) }()
}
