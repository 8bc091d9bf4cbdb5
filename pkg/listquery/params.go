// Package listquery derives the visible page of an in-memory collection from
// the user's search, filter, sort and pagination parameters.
package listquery

import (
	"sort"
	"strings"
)

// SortOrder is the direction applied to the sort field.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Valid reports whether the order is a supported value.
func (o SortOrder) Valid() bool {
	return o == SortAscending || o == SortDescending
}

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// ParseSortOrder maps user input onto a SortOrder, defaulting to ascending.
func ParseSortOrder(raw string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "desc", "descending":
		return SortDescending
	default:
		return SortAscending
	}
}

// Params is the tuple of view parameters driving derivation.
type Params struct {
	Search    string              `json:"search"`
	Filters   map[string][]string `json:"filters,omitempty"`
	SortField string              `json:"sort_field"`
	SortOrder SortOrder           `json:"sort_order"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"page_size"`
}

// DefaultPageSize is used when no page size was configured.
const DefaultPageSize = 10

// DefaultParams returns parameters for a freshly mounted page.
func DefaultParams(sortField string, pageSize int) Params {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Params{
		SortField: sortField,
		SortOrder: SortAscending,
		Page:      1,
		PageSize:  pageSize,
	}
}

// Clone returns a deep copy so callers can hand parameters out safely.
func (p Params) Clone() Params {
	out := p
	if p.Filters != nil {
		out.Filters = make(map[string][]string, len(p.Filters))
		for k, v := range p.Filters {
			out.Filters[k] = append([]string(nil), v...)
		}
	}
	return out
}

// ActiveFilters returns the categories with a non-empty selection, sorted by name.
func (p Params) ActiveFilters() []string {
	names := make([]string, 0, len(p.Filters))
	for name, values := range p.Filters {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// normaliseValues removes duplicates and empty values while keeping first-seen order.
func normaliseValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
