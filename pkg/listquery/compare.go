package listquery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// comparator orders field values. A collator keeps internal buffers, so one
// comparator must not be shared between goroutines.
type comparator struct {
	col *collate.Collator
}

func newComparator(tag language.Tag) *comparator {
	if tag == language.Und {
		tag = language.English
	}
	return &comparator{col: collate.New(tag)}
}

// compare returns -1, 0 or 1. Numbers compare numerically, strings with the
// locale collation, mixed kinds fall back to collating their text form.
func (c *comparator) compare(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return c.col.CompareString(stringify(a), stringify(b))
}

func isMissing(v any, ok bool) bool {
	return !ok || v == nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// stringify renders primitive values the way they appear in the UI. Composite
// values return "" so they never match a search.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case map[string]any, []any:
		return ""
	default:
		if _, ok := toFloat(v); ok {
			return fmt.Sprint(v)
		}
		return ""
	}
}
