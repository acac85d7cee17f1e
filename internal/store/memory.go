package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and by the CLI's transient
// workflows. FailOn, when set, can inject transient failures per operation.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]map[string]Row
	seq    map[string]int // insertion order per collection, for stable lists
	order  map[string]map[string]int
	FailOn func(op, collection string) error
}

func NewMemory() *Memory {
	return &Memory{
		data:  make(map[string]map[string]Row),
		seq:   make(map[string]int),
		order: make(map[string]map[string]int),
	}
}

func (m *Memory) fail(op, collection string) error {
	if m.FailOn != nil {
		if err := m.FailOn(op, collection); err != nil {
			return persistErr(op, collection, err)
		}
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Row, error) {
	if err := checkCollection("get", collection); err != nil {
		return nil, err
	}
	if err := m.fail("get", collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRow(row), nil
}

func (m *Memory) List(ctx context.Context, collection string, filter Filter, orderBy string) ([]Row, error) {
	if err := checkCollection("list", collection); err != nil {
		return nil, err
	}
	if err := checkFilter("list", collection, filter, orderBy); err != nil {
		return nil, err
	}
	if err := m.fail("list", collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Row
	for id, row := range m.data[collection] {
		if matches(row, filter) {
			r := copyRow(row)
			r["__seq"] = m.order[collection][id]
			out = append(out, r)
		}
	}

	// Insertion order is the stable tiebreak; sparse ranks keep their
	// relative order.
	sort.SliceStable(out, func(a, b int) bool {
		if orderBy != "" {
			ra, rb := out[a].Float(orderBy), out[b].Float(orderBy)
			if ra != rb {
				return ra < rb
			}
		}
		return out[a].Int("__seq") < out[b].Int("__seq")
	})
	for _, r := range out {
		delete(r, "__seq")
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, collection string, row Row) error {
	if err := checkCollection("insert", collection); err != nil {
		return err
	}
	if err := m.fail("insert", collection); err != nil {
		return err
	}

	id := row.String("id")
	if id == "" {
		return persistErr("insert", collection, errMissingID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]Row)
		m.order[collection] = make(map[string]int)
	}
	if _, exists := m.data[collection][id]; !exists {
		m.order[collection][id] = m.seq[collection]
		m.seq[collection]++
	}
	m.data[collection][id] = copyRow(row)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields Row) error {
	if err := checkCollection("update", collection); err != nil {
		return err
	}
	if err := m.fail("update", collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		row[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection("delete", collection); err != nil {
		return err
	}
	if err := m.fail("delete", collection); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}

func matches(row Row, filter Filter) bool {
	for k, want := range filter {
		if row[k] != want {
			return false
		}
	}
	return true
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
