package listquery

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggestion is a fuzzy "quick jump" match.
type Suggestion[T Record] struct {
	Item  T      `json:"item"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

type recordSource[T Record] struct {
	items  []T
	labels []string
}

func (s recordSource[T]) String(i int) string { return s.labels[i] }
func (s recordSource[T]) Len() int { return len(s.labels) }

// Suggest ranks items by fuzzy match of query against their search fields.
func Suggest[T Record](items []T, query string, fields []string, limit int) []Suggestion[T] {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}
	src := recordSource[T]{items: items, labels: make([]string, len(items))}
	for i, item := range items {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			v, ok := item.Value(field)
			if isMissing(v, ok) {
				continue
			}
			if text := stringify(v); text != "" {
				parts = append(parts, text)
			}
		}
		src.labels[i] = strings.Join(parts, " ")
	}
	matches := fuzzy.FindFrom(query, src)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Suggestion[T], 0, len(matches))
	for _, m := range matches {
		out = append(out, Suggestion[T]{Item: items[m.Index], Label: m.Str, Score: m.Score})
	}
	return out
}
