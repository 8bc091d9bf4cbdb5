package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// IDField is the attribute carrying the entity identifier in upstream payloads.
const IDField = "id"

// Entity is a single row delivered by the upstream API: an identifier plus an
// open set of primitive fields. Entities are treated as immutable snapshots;
// WithFields returns a patched copy.
type Entity struct {
	ID     string
	Fields map[string]any
}

// NewEntity builds an entity from a field map, deriving the identifier from IDField.
func NewEntity(fields map[string]any) (Entity, error) {
	raw, ok := fields[IDField]
	if !ok || raw == nil {
		return Entity{}, fmt.Errorf("entity missing %q", IDField)
	}
	id, err := normaliseID(raw)
	if err != nil {
		return Entity{}, err
	}
	return Entity{ID: id, Fields: fields}, nil
}

// Value returns the named field. The identifier is always available under IDField.
func (e Entity) Value(field string) (any, bool) {
	if field == IDField {
		if v, ok := e.Fields[IDField]; ok {
			return v, true
		}
		return e.ID, true
	}
	v, ok := e.Fields[field]
	return v, ok
}

// EntityID implements the identifier accessor used by selection pruning.
func (e Entity) EntityID() string {
	return e.ID
}

// WithFields returns a copy with the given fields overwritten. The receiver is not modified.
func (e Entity) WithFields(patch map[string]any) Entity {
	fields := make(map[string]any, len(e.Fields)+len(patch))
	for k, v := range e.Fields {
		fields[k] = v
	}
	for k, v := range patch {
		if k == IDField {
			continue
		}
		fields[k] = v
	}
	return Entity{ID: e.ID, Fields: fields}
}

// MarshalJSON flattens the entity back into the upstream object shape.
func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if _, ok := out[IDField]; !ok {
		out[IDField] = e.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an upstream object. Integral numbers become int64,
// other numbers float64.
func (e *Entity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	fields, _ := normaliseNumbers(raw).(map[string]any)
	entity, err := NewEntity(fields)
	if err != nil {
		return err
	}
	*e = entity
	return nil
}

// DecodeEntities decodes a JSON array of upstream objects.
func DecodeEntities(data []byte) ([]Entity, error) {
	var items []Entity
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if err := EnsureUniqueIDs(items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureUniqueIDs reports the first duplicated identifier in the collection.
func EnsureUniqueIDs(items []Entity) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("duplicate entity id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func normaliseID(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("entity %q is empty", IDField)
		}
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported entity %q type %T", IDField, raw)
	}
}

func normaliseNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case map[string]any:
		for k, inner := range val {
			val[k] = normaliseNumbers(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normaliseNumbers(inner)
		}
		return val
	default:
		return v
	}
}
