package catalog

import (
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

// ErrUnknownPage is returned for page names without a descriptor.
var ErrUnknownPage = appErrors.New("UNKNOWN_PAGE", http.StatusNotFound, "page not found")

// Registry is the lookup table from page name to descriptor.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry validates and indexes descriptors.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" || d.Endpoint == "" {
			return nil, fmt.Errorf("descriptor requires name and endpoint")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate descriptor %q", d.Name)
		}
		for _, k := range d.Operations {
			if !k.Valid() {
				return nil, fmt.Errorf("descriptor %q: unknown operation %q", d.Name, k)
			}
		}
		if d.Offers(bulkaction.KindExport) && len(d.ExportColumns) == 0 {
			return nil, fmt.Errorf("descriptor %q offers export without columns", d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, ErrUnknownPage
	}
	return d, nil
}

// Names lists registered pages in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Default returns the attendance dashboard pages.
func Default() *Registry {
	r, err := NewRegistry(Students(), Schedules(), RFIDLogs())
	if err != nil {
		panic(err)
	}
	return r
}

// Students is the Student Attendance page.
func Students() Descriptor {
	return Descriptor{
		Name:         "students",
		Title:        "Student Attendance",
		Noun:         "students",
		Endpoint:     "/students",
		SearchFields: []string{"name", "studentNumber", "email"},
		FilterFields: map[string]string{
			"departments": "department",
			"yearLevels":  "yearLevel",
			"sections":    "section",
			"statuses":    "status",
		},
		LabelFields:   []string{"name", "studentNumber"},
		DefaultSort:   "name",
		StatusField:   "status",
		StatusOptions: []string{"ACTIVE", "INACTIVE", "SUSPENDED", "GRADUATED"},
		ExportColumns: []export.Column{
			{Key: "studentNumber", Header: "Student No."},
			{Key: "name", Header: "Name"},
			{Key: "department", Header: "Department"},
			{Key: "yearLevel", Header: "Year Level"},
			{Key: "section", Header: "Section"},
			{Key: "status", Header: "Status"},
			{Key: "attendanceRate", Header: "Attendance %"},
		},
		Operations: []bulkaction.Kind{
			bulkaction.KindStatusUpdate,
			bulkaction.KindNotify,
			bulkaction.KindExport,
			bulkaction.KindArchive,
			bulkaction.KindDelete,
		},
		Effects: map[bulkaction.Kind]Effect{
			bulkaction.KindStatusUpdate: {FromPayload: map[string]string{"status": PayloadStatus}},
			bulkaction.KindArchive:      {Patch: map[string]any{"status": "ARCHIVED"}},
			bulkaction.KindDelete:       {Remove: true},
		},
		SoftDelete: map[models.SoftDeleteAction]Effect{
			models.SoftDeleteArchive:    {Patch: map[string]any{"status": "ARCHIVED"}},
			models.SoftDeleteDeactivate: {Patch: map[string]any{"status": "INACTIVE"}},
		},
	}
}

// Schedules is the Class Schedule page.
func Schedules() Descriptor {
	return Descriptor{
		Name:         "schedules",
		Title:        "Class Schedules",
		Noun:         "schedules",
		Endpoint:     "/schedules",
		SearchFields: []string{"className", "subject", "teacher", "room"},
		FilterFields: map[string]string{
			"days":     "dayOfWeek",
			"rooms":    "room",
			"teachers": "teacher",
			"statuses": "status",
		},
		LabelFields:   []string{"className", "subject"},
		DefaultSort:   "dayOfWeek",
		StatusField:   "status",
		StatusOptions: []string{"ACTIVE", "INACTIVE", "DRAFT"},
		ExportColumns: []export.Column{
			{Key: "className", Header: "Class"},
			{Key: "subject", Header: "Subject"},
			{Key: "teacher", Header: "Teacher"},
			{Key: "room", Header: "Room"},
			{Key: "dayOfWeek", Header: "Day"},
			{Key: "startTime", Header: "Start"},
			{Key: "endTime", Header: "End"},
			{Key: "status", Header: "Status"},
		},
		Operations: []bulkaction.Kind{
			bulkaction.KindStatusUpdate,
			bulkaction.KindExport,
			bulkaction.KindArchive,
			bulkaction.KindDelete,
			bulkaction.KindDuplicate,
		},
		Effects: map[bulkaction.Kind]Effect{
			bulkaction.KindStatusUpdate: {FromPayload: map[string]string{"status": PayloadStatus}},
			bulkaction.KindArchive:      {Patch: map[string]any{"status": "INACTIVE", "isArchived": true}},
			bulkaction.KindDelete:       {Remove: true},
			bulkaction.KindDuplicate:    {Refetch: true},
		},
		SoftDelete: map[models.SoftDeleteAction]Effect{
			models.SoftDeleteArchive:    {Patch: map[string]any{"status": "INACTIVE", "isArchived": true}},
			models.SoftDeleteDeactivate: {Patch: map[string]any{"status": "INACTIVE"}},
		},
	}
}

// RFIDLogs is the RFID Reader Log page. Logs are large, so the upstream
// filters and paginates them.
func RFIDLogs() Descriptor {
	return Descriptor{
		Name:           "rfid-logs",
		Title:          "RFID Reader Logs",
		Noun:           "log entries",
		Endpoint:       "/rfid/logs",
		ServerFiltered: true,
		SearchFields:   []string{"cardUid", "studentName", "location"},
		FilterFields: map[string]string{
			"readers":    "readerId",
			"directions": "direction",
			"results":    "result",
		},
		LabelFields:  []string{"studentName", "cardUid"},
		DefaultSort:  "timestamp",
		DefaultOrder: listquery.SortDescending,
		PageSize:     25,
		ExportColumns: []export.Column{
			{Key: "timestamp", Header: "Time"},
			{Key: "cardUid", Header: "Card UID"},
			{Key: "studentName", Header: "Student"},
			{Key: "readerId", Header: "Reader"},
			{Key: "location", Header: "Location"},
			{Key: "direction", Header: "Direction"},
			{Key: "result", Header: "Result"},
		},
		Operations: []bulkaction.Kind{
			bulkaction.KindExport,
			bulkaction.KindArchive,
		},
		Effects: map[bulkaction.Kind]Effect{
			bulkaction.KindArchive: {Remove: true},
		},
	}
}
