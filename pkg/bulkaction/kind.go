// Package bulkaction coordinates multi-row mutations: selection, optional
// confirmation, a single batched upstream call, and reconciliation of the
// local collection once the server has answered.
package bulkaction

import "strings"

// Kind enumerates bulk operations.
type Kind string

const (
	KindStatusUpdate Kind = "status-update"
	KindNotify       Kind = "notify"
	KindExport       Kind = "export"
	KindArchive      Kind = "archive"
	KindDelete       Kind = "delete"
	KindDuplicate    Kind = "duplicate"
)

// AllKinds lists every supported operation in display order.
var AllKinds = []Kind{KindStatusUpdate, KindNotify, KindExport, KindArchive, KindDelete, KindDuplicate}

// Valid reports whether k is a known operation.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Destructive kinds require confirmation under the default policy.
func (k Kind) Destructive() bool {
	return k == KindArchive || k == KindDelete
}

// ParseKind normalises user input, accepting underscores and case variants.
func ParseKind(raw string) Kind {
	return Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
}

// pastTense renders the success toast verb phrase.
func (k Kind) pastTense() string {
	switch k {
	case KindStatusUpdate:
		return "Updated status of"
	case KindNotify:
		return "Sent notifications to"
	case KindExport:
		return "Exported"
	case KindArchive:
		return "Archived"
	case KindDelete:
		return "Deleted"
	case KindDuplicate:
		return "Duplicated"
	default:
		return "Processed"
	}
}
