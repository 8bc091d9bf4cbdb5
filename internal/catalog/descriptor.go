// Package catalog describes what each list page offers: which fields are
// searched and filtered, which bulk operations exist and how a successful
// operation changes the local rows.
package catalog

import (
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

// Payload keys understood by the console.
const (
	PayloadStatus     = "status"
	PayloadMessage    = "message"
	PayloadColumns    = "columns"
	PayloadFormat     = "format"
	PayloadReason     = "reason"
	PayloadSoftDelete = "soft_delete"
)

// Effect is how a confirmed operation changes the rows the server accepted.
type Effect struct {
	// Patch sets fixed field values.
	Patch map[string]any
	// FromPayload copies payload values into entity fields (field -> payload key).
	FromPayload map[string]string
	// Remove drops the rows from the collection.
	Remove bool
	// Refetch reloads the collection in the background.
	Refetch bool
}

// Fields resolves the patch for one request payload.
func (e Effect) Fields(payload map[string]any) map[string]any {
	if len(e.Patch) == 0 && len(e.FromPayload) == 0 {
		return nil
	}
	out := make(map[string]any, len(e.Patch)+len(e.FromPayload))
	for k, v := range e.Patch {
		out[k] = v
	}
	for field, key := range e.FromPayload {
		if v, ok := payload[key]; ok {
			out[field] = v
		}
	}
	return out
}

// Descriptor is the capability table of one entity type.
type Descriptor struct {
	Name     string
	Title    string
	Noun     string
	Endpoint string
	// ServerFiltered pages forward search, filters and pagination upstream.
	ServerFiltered bool

	SearchFields []string
	FilterFields map[string]string
	LabelFields  []string
	DefaultSort  string
	DefaultOrder listquery.SortOrder
	PageSize     int

	StatusField   string
	StatusOptions []string
	ExportColumns []export.Column

	Operations []bulkaction.Kind
	Confirm    map[bulkaction.Kind]bool
	Effects    map[bulkaction.Kind]Effect
	SoftDelete map[models.SoftDeleteAction]Effect
}

// Offers reports whether kind is available on this page.
func (d Descriptor) Offers(kind bulkaction.Kind) bool {
	return slices.Contains(d.Operations, kind)
}

// QueryOptions returns the derivation options for the page.
func (d Descriptor) QueryOptions(tag language.Tag) listquery.Options {
	return listquery.Options{
		SearchFields: d.SearchFields,
		FilterFields: d.FilterFields,
		Language:     tag,
	}
}

// DefaultParams returns the initial query parameters. fallbackSize is used
// when the descriptor does not set its own page size.
func (d Descriptor) DefaultParams(fallbackSize int) listquery.Params {
	size := d.PageSize
	if size <= 0 {
		size = fallbackSize
	}
	p := listquery.DefaultParams(d.DefaultSort, size)
	if d.DefaultOrder.Valid() {
		p.SortOrder = d.DefaultOrder
	}
	return p
}

// Policy builds the coordinator policy for the page.
func (d Descriptor) Policy() bulkaction.Policy {
	return bulkaction.Policy{
		Noun:      d.Noun,
		Available: d.Operations,
		Confirm:   d.Confirm,
		Validate:  d.validate,
	}
}

// Columns resolves the export columns requested in a payload.
func (d Descriptor) Columns(payload map[string]any) []export.Column {
	return export.SelectColumns(d.ExportColumns, StringList(payload[PayloadColumns]))
}

func (d Descriptor) validate(req bulkaction.Request) error {
	switch req.Kind {
	case bulkaction.KindStatusUpdate:
		status, _ := req.Payload[PayloadStatus].(string)
		if status == "" {
			return appErrors.Clone(appErrors.ErrValidation, "choose a status")
		}
		if len(d.StatusOptions) > 0 && !slices.Contains(d.StatusOptions, status) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status %q is not valid for %s", status, d.Noun))
		}
	case bulkaction.KindNotify:
		msg, _ := req.Payload[PayloadMessage].(string)
		if msg == "" {
			return appErrors.Clone(appErrors.ErrValidation, "notification message is required")
		}
	case bulkaction.KindExport:
		if len(d.Columns(req.Payload)) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "select at least one column to export")
		}
		if raw, ok := req.Payload[PayloadFormat].(string); ok && raw != "" {
			if _, err := export.ParseFormat(raw); err != nil {
				return appErrors.Clone(appErrors.ErrValidation, err.Error())
			}
		}
	}
	return nil
}

// StringList converts JSON-decoded payload values into a string slice.
func StringList(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vals == "" {
			return nil
		}
		return []string{vals}
	default:
		return nil
	}
}
