package dto

// SearchRequest updates the typed search text of a page. Immediate skips the
// debounce, e.g. when the admin presses enter.
type SearchRequest struct {
	Text      string `json:"text" validate:"max=200"`
	Immediate bool   `json:"immediate"`
}

// FilterRequest replaces the accepted values of one filter category.
type FilterRequest struct {
	Values []string `json:"values" validate:"max=50,dive,max=100"`
}

// SortRequest selects a sort field. Without Order the usual toggle applies:
// the current field flips, a new field sorts ascending.
type SortRequest struct {
	Field string `json:"field" validate:"required,max=64"`
	Order string `json:"order" validate:"omitempty,sort_order"`
}

// PaginationRequest moves to a page or changes the page size.
type PaginationRequest struct {
	Page     *int `json:"page" validate:"omitempty,min=1"`
	PageSize *int `json:"page_size" validate:"omitempty,min=1,max=200"`
}

// SelectionRequest toggles one row.
type SelectionRequest struct {
	ID string `json:"id" validate:"required"`
}

// BulkRequest starts a bulk operation on the current selection.
type BulkRequest struct {
	Kind    string         `json:"kind" validate:"required,operation_kind"`
	Payload map[string]any `json:"payload"`
}

// SoftDeleteRequest archives or deactivates one row.
type SoftDeleteRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Action string `json:"action" validate:"omitempty,oneof=archive deactivate"`
}

// SuggestQuery is bound from the query string of the suggest endpoint.
type SuggestQuery struct {
	Q     string `form:"q" validate:"max=200"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=50"`
}
