package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format enumerates supported export encodings.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a requested format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Column maps an entity field onto an export header.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record exposes named fields for export.
type Record interface {
	Value(field string) (any, bool)
}

// BuildDataset renders records into a dataset with columns in the given order.
func BuildDataset[T Record](records []T, columns []Column) (Dataset, error) {
	if len(columns) == 0 {
		return Dataset{}, fmt.Errorf("export requires at least one column")
	}
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
		if headers[i] == "" {
			headers[i] = col.Key
		}
	}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			v, _ := rec.Value(col.Key)
			row[headers[i]] = formatCell(v)
		}
		rows = append(rows, row)
	}
	return Dataset{Headers: headers, Rows: rows}, nil
}

// SelectColumns keeps the configured columns whose keys were requested, in
// configured order. An empty request keeps every column.
func SelectColumns(configured []Column, requested []string) []Column {
	if len(requested) == 0 {
		return append([]Column(nil), configured...)
	}
	want := make(map[string]struct{}, len(requested))
	for _, key := range requested {
		want[key] = struct{}{}
	}
	out := make([]Column, 0, len(requested))
	for _, col := range configured {
		if _, ok := want[col.Key]; ok {
			out = append(out, col)
		}
	}
	return out
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(val))
		for _, el := range val {
			parts = append(parts, formatCell(el))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(val)
	}
}
