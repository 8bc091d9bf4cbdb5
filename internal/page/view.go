package page

import (
	"slices"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

// View is everything the dashboard renders for one page.
type View struct {
	Page          string            `json:"page"`
	Title         string            `json:"title"`
	Query         listquery.Params  `json:"query"`
	SearchText    string            `json:"search_text"`
	SearchPending bool              `json:"search_pending"`
	Items         []models.Entity   `json:"items"`
	Pagination    models.Pagination `json:"pagination"`
	Loaded        bool              `json:"loaded"`
	Refreshing    bool              `json:"refreshing"`
	LoadError     *appErrors.Error  `json:"load_error,omitempty"`
	Selection     SelectionView     `json:"selection"`
	Bulk          BulkView          `json:"bulk"`
	Capabilities  Capabilities      `json:"capabilities"`
}

// SelectionView summarises the selection.
type SelectionView struct {
	IDs        []string `json:"ids"`
	Count      int      `json:"count"`
	AllVisible bool     `json:"all_visible"`
}

// BulkView is the state of the bulk workflow.
type BulkView struct {
	State   bulkaction.State    `json:"state"`
	Pending *bulkaction.Request `json:"pending,omitempty"`
	Last    *bulkaction.Result  `json:"last,omitempty"`
}

// Capabilities tells the dashboard which controls to show.
type Capabilities struct {
	Operations       []bulkaction.Kind `json:"operations"`
	StatusOptions    []string          `json:"status_options,omitempty"`
	ExportColumns    []export.Column   `json:"export_columns,omitempty"`
	FilterCategories []string          `json:"filter_categories"`
	ServerFiltered   bool              `json:"server_filtered"`
}

// View derives the visible slice and collects page state.
func (c *Container) View() View {
	result := c.derive()
	params := c.query.Params()

	c.mu.Lock()
	loaded, refreshing, loadErr := c.loaded, c.refreshing, c.loadErr
	c.mu.Unlock()

	selected := c.bulk.Selection().IDs()
	view := View{
		Page:          c.desc.Name,
		Title:         c.desc.Title,
		Query:         params,
		SearchText:    c.query.RawSearch(),
		SearchPending: c.query.SearchPending(),
		Items:         result.Items,
		Pagination: models.Pagination{
			Page:          params.Page,
			PageSize:      params.PageSize,
			TotalFiltered: result.TotalFiltered,
			TotalPages:    result.TotalPages,
		},
		Loaded:     loaded,
		Refreshing: refreshing,
		LoadError:  appErrors.FromError(loadErr),
		Selection: SelectionView{
			IDs:        selected,
			Count:      len(selected),
			AllVisible: allSelected(result.Items, c.bulk.Selection()),
		},
		Bulk: BulkView{
			State:   c.bulk.State(),
			Pending: c.bulk.Pending(),
			Last:    c.bulk.Last(),
		},
		Capabilities: c.capabilities(),
	}
	return view
}

func (c *Container) derive() listquery.Result[models.Entity] {
	items := c.Items()
	params := c.query.Params()
	if !c.desc.ServerFiltered {
		return listquery.Derive(items, params, c.query.Options())
	}

	c.mu.Lock()
	total := c.total
	c.mu.Unlock()
	sorted := listquery.Sort(items, params.SortField, params.SortOrder, c.query.Options().Language)
	if sorted == nil {
		sorted = []models.Entity{}
	}
	pages := 0
	if params.PageSize > 0 {
		pages = (total + params.PageSize - 1) / params.PageSize
	}
	return listquery.Result[models.Entity]{Items: sorted, TotalFiltered: total, TotalPages: pages}
}

func (c *Container) capabilities() Capabilities {
	categories := make([]string, 0, len(c.desc.FilterFields))
	for category := range c.desc.FilterFields {
		categories = append(categories, category)
	}
	slices.Sort(categories)
	return Capabilities{
		Operations:       c.desc.Operations,
		StatusOptions:    c.desc.StatusOptions,
		ExportColumns:    c.desc.ExportColumns,
		FilterCategories: categories,
		ServerFiltered:   c.desc.ServerFiltered,
	}
}

func allSelected(items []models.Entity, sel *bulkaction.Selection) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !sel.Has(item.ID) {
			return false
		}
	}
	return true
}
