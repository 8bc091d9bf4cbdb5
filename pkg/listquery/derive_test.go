package listquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type row map[string]any

func (r row) Value(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

func ids(items []row) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item["id"])
	}
	return out
}

func studentRows() []row {
	return []row{
		{"id": 1, "name": "Alice Tan", "department": "CS", "yearLevel": "FIRST_YEAR", "rate": 92.5},
		{"id": 2, "name": "Bob Cruz", "department": "IT", "yearLevel": "SECOND_YEAR", "rate": 71.0},
		{"id": 3, "name": "carla Reyes", "department": "CS", "yearLevel": "SECOND_YEAR", "rate": 88.0},
		{"id": 4, "name": "Dan Santos", "department": "IT", "yearLevel": "FIRST_YEAR", "rate": nil},
		{"id": 5, "name": "Ella Tanaka", "department": "CS", "yearLevel": "FIRST_YEAR"},
	}
}

var studentOpts = Options{
	SearchFields: []string{"name", "department"},
	FilterFields: map[string]string{"departments": "department", "yearLevels": "yearLevel"},
	Language:     language.English,
}

func TestDeriveIdentityWithoutSearchOrFilters(t *testing.T) {
	items := studentRows()
	params := DefaultParams("name", 2)

	res := Derive(items, params, studentOpts)

	sorted := Sort(items, "name", SortAscending, language.English)
	require.Equal(t, sorted[:2], res.Items)
	assert.Equal(t, 5, res.TotalFiltered)
	assert.Equal(t, 3, res.TotalPages)

	params.Page = 3
	res = Derive(items, params, studentOpts)
	require.Equal(t, sorted[4:], res.Items)
}

func TestDeriveSearchIsCaseInsensitiveSubstring(t *testing.T) {
	items := []row{{"id": 1, "name": "Alice Tan"}, {"id": 2, "name": "Bob Cruz"}}
	params := DefaultParams("", 10)
	params.Search = "tan"

	res := Derive(items, params, Options{SearchFields: []string{"name"}})

	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Items[0]["id"])
}

func TestDeriveSearchOnlyReturnsMatchingItems(t *testing.T) {
	params := DefaultParams("id", 10)
	params.Search = "TAN"

	res := Derive(studentRows(), params, studentOpts)

	assert.Equal(t, []any{1, 5}, ids(res.Items))
	for _, item := range res.Items {
		assert.Contains(t, strings.ToLower(item["name"].(string)), "tan")
	}
}

func TestDeriveMultiCategoryFilter(t *testing.T) {
	params := DefaultParams("id", 10)
	params.Filters = map[string][]string{
		"departments": {"CS"},
		"yearLevels":  {"FIRST_YEAR"},
	}

	res := Derive(studentRows(), params, studentOpts)

	assert.Equal(t, []any{1, 5}, ids(res.Items))
	assert.Equal(t, 2, res.TotalFiltered)
}

func TestFilterOrWithinCategory(t *testing.T) {
	filters := map[string][]string{"yearLevels": {"FIRST_YEAR", "SECOND_YEAR"}, "departments": {}}

	out := Filter(studentRows(), filters, studentOpts)

	assert.Len(t, out, 5)
}

func TestFilterCategoriesSharingFieldCombineWithAnd(t *testing.T) {
	opts := Options{FilterFields: map[string]string{"departments": "department", "faculty": "department"}}
	filters := map[string][]string{"departments": {"CS"}, "faculty": {"IT"}}

	out := Filter(studentRows(), filters, opts)

	assert.Empty(t, out)

	filters["faculty"] = []string{"CS", "IT"}
	out = Filter(studentRows(), filters, opts)
	assert.Equal(t, []any{1, 3, 5}, ids(out))
}

func TestFilterIsIdempotent(t *testing.T) {
	filters := map[string][]string{"departments": {"IT"}}

	once := Filter(studentRows(), filters, studentOpts)
	twice := Filter(once, filters, studentOpts)

	assert.Equal(t, once, twice)
}

func TestFilterMatchesListValues(t *testing.T) {
	items := []row{
		{"id": "a", "days": []any{"MON", "WED"}},
		{"id": "b", "days": []any{"TUE"}},
	}

	out := Filter(items, map[string][]string{"days": {"WED"}}, Options{})

	assert.Equal(t, []any{"a"}, ids(out))
}

func TestSortMissingValuesLastInBothDirections(t *testing.T) {
	items := studentRows()

	asc := Sort(items, "rate", SortAscending, language.English)
	desc := Sort(items, "rate", SortDescending, language.English)

	assert.Equal(t, []any{2, 3, 1, 4, 5}, ids(asc))
	assert.Equal(t, []any{1, 3, 2, 4, 5}, ids(desc))
}

func TestSortUsesCollationForStrings(t *testing.T) {
	out := Sort(studentRows(), "name", SortAscending, language.English)

	assert.Equal(t, []any{1, 2, 3, 4, 5}, ids(out))
}

func TestSortIsStable(t *testing.T) {
	out := Sort(studentRows(), "department", SortAscending, language.English)

	assert.Equal(t, []any{1, 3, 5, 2, 4}, ids(out))
}

func TestSortDoesNotModifyInput(t *testing.T) {
	items := studentRows()

	_ = Sort(items, "name", SortDescending, language.English)

	assert.Equal(t, []any{1, 2, 3, 4, 5}, ids(items))
}

func TestPaginateOutOfRange(t *testing.T) {
	items := studentRows()
	params := DefaultParams("id", 2)

	params.Page = 4
	res := Derive(items, params, studentOpts)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 5, res.TotalFiltered)
	assert.Equal(t, 3, res.TotalPages)

	params.Page = 0
	res = Derive(items, params, studentOpts)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.TotalFiltered)

	params.Page, params.PageSize = 1, 0
	res = Derive(items, params, studentOpts)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalPages)
}

func TestDeriveEmptyCollection(t *testing.T) {
	res := Derive([]row{}, DefaultParams("name", 10), studentOpts)

	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalFiltered)
	assert.Equal(t, 0, res.TotalPages)
}

func TestSuggestRanksFuzzyMatches(t *testing.T) {
	out := Suggest(studentRows(), "Tn", []string{"name", "department"}, 2)

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 2)
	assert.Nil(t, Suggest(studentRows(), "  ", []string{"name"}, 5))
}
