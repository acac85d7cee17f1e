package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite implements Store on an embedded database file, for local and
// single-user deployments.
type SQLite struct {
	conn *sql.DB
	Path string
}

func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent reads, foreign keys for cascading deletes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLite{conn: conn, Path: path}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Init creates the table layout if it does not exist yet.
func (s *SQLite) Init(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return persistErr("init", "schema", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		owner_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		width REAL NOT NULL,
		height REAL NOT NULL,
		background TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS layers (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		parent_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS timelines (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		fps REAL NOT NULL,
		duration REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		timeline_id TEXT NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS clips (
		id TEXT PRIMARY KEY,
		track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		source_ref TEXT NOT NULL DEFAULT '',
		in_point REAL NOT NULL,
		out_point REAL NOT NULL,
		start_at REAL NOT NULL,
		payload TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS brand_kits (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		author TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

func (s *SQLite) Get(ctx context.Context, collection, id string) (Row, error) {
	if err := checkCollection("get", collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(columns[collection], ", "), collection)
	rows, err := s.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, persistErr("get", collection, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, persistErr("get", collection, err)
		}
		return nil, ErrNotFound
	}
	return scanSQLRow(collection, rows)
}

func (s *SQLite) List(ctx context.Context, collection string, filter Filter, orderBy string) ([]Row, error) {
	if err := checkCollection("list", collection); err != nil {
		return nil, err
	}
	if err := checkFilter("list", collection, filter, orderBy); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(columns[collection], ", "), collection)

	var args []any
	if len(filter) > 0 {
		var clauses []string
		for _, col := range columns[collection] {
			if v, ok := filter[col]; ok {
				args = append(args, normalizeSQLiteValue(v))
				clauses = append(clauses, col+" = ?")
			}
		}
		sb.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}
	if orderBy != "" {
		fmt.Fprintf(&sb, " ORDER BY %s ASC, rowid ASC", orderBy)
	}

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, persistErr("list", collection, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanSQLRow(collection, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list", collection, err)
	}
	return out, nil
}

func (s *SQLite) Insert(ctx context.Context, collection string, row Row) error {
	if err := checkCollection("insert", collection); err != nil {
		return err
	}
	if row.String("id") == "" {
		return persistErr("insert", collection, errMissingID)
	}

	var cols, params, updates []string
	var args []any
	for _, col := range columns[collection] {
		v, ok := row[col]
		if !ok {
			continue
		}
		args = append(args, normalizeSQLiteValue(v))
		cols = append(cols, col)
		params = append(params, "?")
		if col != "id" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", collection, strings.Join(cols, ", "), strings.Join(params, ", "))
	if len(updates) > 0 {
		query += " ON CONFLICT(id) DO UPDATE SET " + strings.Join(updates, ", ")
	} else {
		query += " ON CONFLICT(id) DO NOTHING"
	}

	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return persistErr("insert", collection, err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, collection, id string, fields Row) error {
	if err := checkCollection("update", collection); err != nil {
		return err
	}
	if err := checkFilter("update", collection, Filter(fields), ""); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	var sets []string
	var args []any
	for _, col := range columns[collection] {
		if v, ok := fields[col]; ok {
			args = append(args, normalizeSQLiteValue(v))
			sets = append(sets, col+" = ?")
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", collection, strings.Join(sets, ", "))

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return persistErr("update", collection, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistErr("update", collection, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection("delete", collection); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection)
	if _, err := s.conn.ExecContext(ctx, query, id); err != nil {
		return persistErr("delete", collection, err)
	}
	return nil
}

// normalizeSQLiteValue converts values SQLite has no native type for.
func normalizeSQLiteValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	}
	return v
}

func scanSQLRow(collection string, rows *sql.Rows) (Row, error) {
	cols := columns[collection]
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, persistErr("scan", collection, err)
	}
	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = values[i]
	}
	return row, nil
}

var _ Store = (*SQLite)(nil)
