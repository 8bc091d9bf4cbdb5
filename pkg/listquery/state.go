package listquery

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet period before a typed search takes effect.
const DefaultDebounce = 300 * time.Millisecond

// StateConfig configures a State.
type StateConfig struct {
	Defaults Params
	Options  Options
	Debounce time.Duration
	Clock    clockwork.Clock
	// OnChange is invoked, outside the lock, whenever the effective parameters change.
	OnChange func(Params)
}

// State owns one page's query parameters. The raw search text is echoed
// immediately while the effective search is committed after the debounce.
type State struct {
	mu        sync.Mutex
	params    Params
	defaults  Params
	rawSearch string
	opts      Options
	debounce  time.Duration
	clock     clockwork.Clock
	pending   clockwork.Timer
	gen       uint64
	onChange  func(Params)
}

// NewState builds a State initialised to cfg.Defaults.
func NewState(cfg StateConfig) *State {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	defaults := cfg.Defaults.Clone()
	if defaults.Page < 1 {
		defaults.Page = 1
	}
	if defaults.PageSize < 1 {
		defaults.PageSize = DefaultPageSize
	}
	if !defaults.SortOrder.Valid() {
		defaults.SortOrder = SortAscending
	}
	return &State{
		params:    defaults.Clone(),
		defaults:  defaults,
		rawSearch: defaults.Search,
		opts:      cfg.Options,
		debounce:  cfg.Debounce,
		clock:     cfg.Clock,
		onChange:  cfg.OnChange,
	}
}

// Params returns a copy of the effective parameters.
func (s *State) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// RawSearch returns the text as typed, which may not be committed yet.
func (s *State) RawSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawSearch
}

// SearchPending reports whether a typed search is waiting for the debounce.
func (s *State) SearchPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Restore replaces the effective parameters, e.g. with a persisted view.
// It does not fire OnChange.
func (s *State) Restore(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	p = p.Clone()
	if !p.SortOrder.Valid() {
		p.SortOrder = s.defaults.SortOrder
	}
	if p.PageSize < 1 {
		p.PageSize = s.defaults.PageSize
	}
	s.params = p
	s.rawSearch = p.Search
}

// SetSearchText records the typed text and (re)arms the debounce timer.
// Only the last text within the window is committed.
func (s *State) SetSearchText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawSearch = text
	s.cancelPendingLocked()
	s.gen++
	gen := s.gen
	s.pending = s.clock.AfterFunc(s.debounce, func() { s.commitSearch(gen) })
}

// FlushSearch commits a pending search immediately.
func (s *State) FlushSearch() {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()
	s.commitSearch(gen)
}

func (s *State) commitSearch(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending.Stop()
	s.pending = nil
	if s.params.Search == s.rawSearch {
		s.mu.Unlock()
		return
	}
	s.params.Search = s.rawSearch
	s.params.Page = 1
	snapshot := s.params.Clone()
	s.mu.Unlock()
	s.notify(snapshot)
}

// SetFilter replaces the accepted values of one category. An empty set clears it.
func (s *State) SetFilter(category string, values []string) {
	s.update(func(p *Params) {
		values = normaliseValues(values)
		if p.Filters == nil {
			p.Filters = make(map[string][]string)
		}
		if len(values) == 0 {
			delete(p.Filters, category)
		} else {
			p.Filters[category] = values
		}
		p.Page = 1
	})
}

// SetSort flips the order when field is already the sort field, otherwise
// sorts ascending by field.
func (s *State) SetSort(field string) {
	s.update(func(p *Params) {
		if p.SortField == field {
			p.SortOrder = p.SortOrder.Flip()
			return
		}
		p.SortField = field
		p.SortOrder = SortAscending
	})
}

// SetSortBy sorts by field in an explicit order.
func (s *State) SetSortBy(field string, order SortOrder) {
	if !order.Valid() {
		order = SortAscending
	}
	s.update(func(p *Params) {
		p.SortField = field
		p.SortOrder = order
	})
}

// SetPage stores the page number as given; derivation tolerates out of range values.
func (s *State) SetPage(n int) {
	s.update(func(p *Params) { p.Page = n })
}

// SetPageSize stores the page size and returns to the first page.
func (s *State) SetPageSize(n int) {
	s.update(func(p *Params) {
		p.PageSize = n
		p.Page = 1
	})
}

// ClearFilters resets every parameter to the defaults and drops pending input.
func (s *State) ClearFilters() {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.gen++
	s.params = s.defaults.Clone()
	s.rawSearch = s.defaults.Search
	snapshot := s.params.Clone()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Stop drops a pending debounced search without committing it.
func (s *State) Stop() {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.gen++
	s.mu.Unlock()
}

// Options returns the derivation options of this page.
func (s *State) Options() Options {
	return s.opts
}

func (s *State) update(fn func(p *Params)) {
	s.mu.Lock()
	fn(&s.params)
	snapshot := s.params.Clone()
	s.mu.Unlock()
	s.notify(snapshot)
}

func (s *State) notify(p Params) {
	if s.onChange != nil {
		s.onChange(p)
	}
}

func (s *State) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
