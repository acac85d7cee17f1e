package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Init creates the table layout if it does not exist yet.
func (p *Postgres) Init(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return persistErr("init", "schema", err)
		}
	}
	return nil
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		owner_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		width DOUBLE PRECISION NOT NULL,
		height DOUBLE PRECISION NOT NULL,
		background TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS layers (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		parent_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		payload JSONB NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS timelines (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		fps DOUBLE PRECISION NOT NULL,
		duration DOUBLE PRECISION NOT NULL
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
		in_point DOUBLE PRECISION NOT NULL,
		out_point DOUBLE PRECISION NOT NULL,
		start_at DOUBLE PRECISION NOT NULL,
		payload JSONB NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS brand_kits (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		payload JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		author TEXT NOT NULL DEFAULT '',
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Row, error) {
	if err := checkCollection("get", collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(columns[collection], ", "), collection)
	rows, err := p.pool.Query(ctx, query, id)
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
	return p.scanRow(collection, rows)
}

func (p *Postgres) List(ctx context.Context, collection string, filter Filter, orderBy string) ([]Row, error) {
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
		for _, col := range columns[collection] { // deterministic clause order
			if v, ok := filter[col]; ok {
				args = append(args, v)
				clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
			}
		}
		sb.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}
	if orderBy != "" {
		fmt.Fprintf(&sb, " ORDER BY %s ASC, id ASC", orderBy)
	}

	rows, err := p.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, persistErr("list", collection, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := p.scanRow(collection, rows)
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

// Insert is an upsert on id so retried writes stay idempotent.
func (p *Postgres) Insert(ctx context.Context, collection string, row Row) error {
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
		args = append(args, v)
		cols = append(cols, col)
		params = append(params, fmt.Sprintf("$%d", len(args)))
		if col != "id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", collection, strings.Join(cols, ", "), strings.Join(params, ", "))
	if len(updates) > 0 {
		query += " ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")
	} else {
		query += " ON CONFLICT (id) DO NOTHING"
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return persistErr("insert", collection, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields Row) error {
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
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", collection, strings.Join(sets, ", "), len(args))

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return persistErr("update", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection("delete", collection); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", collection)
	if _, err := p.pool.Exec(ctx, query, id); err != nil {
		return persistErr("delete", collection, err)
	}
	return nil
}

func (p *Postgres) scanRow(collection string, rows pgx.Rows) (Row, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, persistErr("scan", collection, err)
	}
	row := make(Row, len(values))
	for i, col := range columns[collection] {
		row[col] = values[i]
	}
	return row, nil
}

var _ Store = (*Postgres)(nil)
