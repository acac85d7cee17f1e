// Package store is the generic persistence boundary: CRUD over named
// collections of rows keyed by opaque string ids, with ordering on an integer
// sort_order column. The document repository is its only in-process consumer.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Collection names. These match the persisted table layout.
const (
	ColDocuments = "documents"
	ColPages     = "pages"
	ColLayers    = "layers"
	ColTimelines = "timelines"
	ColTracks    = "tracks"
	ColClips     = "clips"
	ColBrandKits = "brand_kits"
	ColSnapshots = "snapshots"
	ColScenes    = "scenes"
)

// Row is one persisted record. Values are strings, numbers, times, or raw
// JSON payloads ([]byte).
type Row map[string]any

// Filter is an equality match over columns.
type Filter map[string]any

// ErrNotFound is returned by Get and Update when no row has the id.
var ErrNotFound = errors.New("row not found")

var errMissingID = errors.New("row has no id")

// PersistenceError wraps a backing-store failure. The editing core treats
// these as transient: in-memory state is never discarded because of one.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op, collection string, err error) error {
	return &PersistenceError{Op: op, Collection: collection, Err: err}
}

// Store is the generic CRUD interface. Insert is an idempotent upsert keyed
// by the row's "id" so retried writes never double-apply. List with a
// sort_order ordering must preserve relative order across sparse ranks.
type Store interface {
	Get(ctx context.Context, collection, id string) (Row, error)
	List(ctx context.Context, collection string, filter Filter, orderBy string) ([]Row, error)
	Insert(ctx context.Context, collection string, row Row) error
	Update(ctx context.Context, collection, id string, fields Row) error
	Delete(ctx context.Context, collection, id string) error
}

// columns is the closed column set per collection; filter keys and order
// columns are checked against it before reaching SQL.
var columns = map[string][]string{
	ColDocuments: {"id", "title", "type", "owner_id", "created_at", "updated_at"},
	ColPages:     {"id", "document_id", "width", "height", "background", "sort_order"},
	ColLayers:    {"id", "page_id", "parent_id", "type", "payload", "sort_order"},
	ColTimelines: {"id", "document_id", "fps", "duration"},
	ColTracks:    {"id", "timeline_id", "type", "sort_order"},
	ColClips:     {"id", "track_id", "source_ref", "in_point", "out_point", "start_at", "payload", "sort_order"},
	ColBrandKits: {"id", "document_id", "payload"},
	ColSnapshots: {"id", "document_id", "author", "payload", "created_at"},
	ColScenes:    {"id", "document_id", "payload", "updated_at"},
}

func knownColumn(collection, col string) bool {
	for _, c := range columns[collection] {
		if c == col {
			return true
		}
	}
	return false
}

func checkCollection(op, collection string) error {
	if _, ok := columns[collection]; !ok {
		return persistErr(op, collection, fmt.Errorf("unknown collection"))
	}
	return nil
}

func checkFilter(op, collection string, filter Filter, orderBy string) error {
	for k := range filter {
		if !knownColumn(collection, k) {
			return persistErr(op, collection, fmt.Errorf("unknown filter column %q", k))
		}
	}
	if orderBy != "" && !knownColumn(collection, orderBy) {
		return persistErr(op, collection, fmt.Errorf("unknown order column %q", orderBy))
	}
	return nil
}

// String reads a string column, "" when absent.
func (r Row) String(col string) string {
	v, _ := r[col].(string)
	return v
}

// Float reads a numeric column across the widths drivers hand back.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int reads an integer column.
func (r Row) Int(col string) int {
	return int(r.Float(col))
}

// Time reads a timestamp column, accepting native times or RFC 3339 strings.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// Bytes reads a payload column, accepting []byte or string.
func (r Row) Bytes(col string) []byte {
	switch v := r[col].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}
