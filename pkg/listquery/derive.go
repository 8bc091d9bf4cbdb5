package listquery

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Record is anything exposing named fields to the derivation pipeline.
type Record interface {
	Value(field string) (any, bool)
}

// Options is the page-defined part of derivation: which fields are searched,
// which entity field backs each filter category, and the collation locale.
type Options struct {
	SearchFields []string
	// FilterFields maps a filter category (e.g. "departments") to the entity
	// field it constrains (e.g. "department"). Categories not listed here are
	// matched against the field with the same name.
	FilterFields map[string]string
	Language     language.Tag
}

// Result is the derived view of a collection.
type Result[T Record] struct {
	Items         []T `json:"items"`
	TotalFiltered int `json:"total_filtered"`
	TotalPages    int `json:"total_pages"`
}

// Derive runs search, filter, sort and paginate over items. It never modifies
// items and never fails: out of range pages yield an empty slice.
func Derive[T Record](items []T, p Params, opts Options) Result[T] {
	filtered := Search(items, p.Search, opts.SearchFields)
	filtered = Filter(filtered, p.Filters, opts)
	sorted := Sort(filtered, p.SortField, p.SortOrder, opts.Language)
	page, totalPages := Paginate(sorted, p.Page, p.PageSize)
	return Result[T]{
		Items:         page,
		TotalFiltered: len(sorted),
		TotalPages:    totalPages,
	}
}

// Search keeps items where any search field contains text, ignoring case.
// Blank text keeps everything.
func Search[T Record](items []T, text string, fields []string) []T {
	if strings.TrimSpace(text) == "" {
		return items
	}
	needle := strings.ToLower(text)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesSearch(item, needle, fields) {
			out = append(out, item)
		}
	}
	return out
}

func matchesSearch(item Record, needle string, fields []string) bool {
	for _, field := range fields {
		v, ok := item.Value(field)
		if isMissing(v, ok) {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(v)), needle) {
			return true
		}
	}
	return false
}

// Filter keeps items matching every non-empty category; within a category an
// item matches when its field equals any selected value.
func Filter[T Record](items []T, filters map[string][]string, opts Options) []T {
	active := make([]activeFilter, 0, len(filters))
	for category, values := range filters {
		if len(values) == 0 {
			continue
		}
		field := category
		if mapped, ok := opts.FilterFields[category]; ok && mapped != "" {
			field = mapped
		}
		active = append(active, activeFilter{field: field, accepted: values})
	}
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesFilters(item, active) {
			out = append(out, item)
		}
	}
	return out
}

// activeFilter is one non-empty category. Categories sharing a field still
// combine with AND.
type activeFilter struct {
	field    string
	accepted []string
}

func matchesFilters(item Record, active []activeFilter) bool {
	for _, f := range active {
		v, ok := item.Value(f.field)
		if isMissing(v, ok) || !matchesAny(v, f.accepted) {
			return false
		}
	}
	return true
}

func matchesAny(v any, accepted []string) bool {
	if list, ok := v.([]any); ok {
		for _, el := range list {
			if matchesAny(el, accepted) {
				return true
			}
		}
		return false
	}
	if list, ok := v.([]string); ok {
		for _, el := range list {
			if slices.Contains(accepted, el) {
				return true
			}
		}
		return false
	}
	return slices.Contains(accepted, stringify(v))
}

// Sort returns a stably sorted copy. Missing or nil values sort last in both
// directions. An empty field leaves the order untouched.
func Sort[T Record](items []T, field string, order SortOrder, tag language.Tag) []T {
	out := slices.Clone(items)
	if field == "" || len(out) < 2 {
		return out
	}
	cmp := newComparator(tag)
	desc := order == SortDescending
	slices.SortStableFunc(out, func(a, b T) int {
		va, oka := a.Value(field)
		vb, okb := b.Value(field)
		missA, missB := isMissing(va, oka), isMissing(vb, okb)
		switch {
		case missA && missB:
			return 0
		case missA:
			return 1
		case missB:
			return -1
		}
		c := cmp.compare(va, vb)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Paginate slices items to [(page-1)*size, page*size) and reports the page count.
func Paginate[T Record](items []T, page, size int) ([]T, int) {
	if size < 1 {
		return []T{}, 0
	}
	totalPages := (len(items) + size - 1) / size
	if page < 1 {
		return []T{}, totalPages
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return slices.Clone(items[start:end]), totalPages
}
