package psm

import (
	"context"
	"sort"
	"sync"
)

// Store persists run records. Find looks a run up by any of its thread
// index keys.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Find(ctx context.Context, thread string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Remove(ctx context.Context, id string) error
	Close() error
}

// Memory is a Store for tests and for agents that don't need to survive a
// restart.
type Memory struct {
	l       sync.RWMutex
	records map[string]Record
	index   map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		index:   make(map[string]string),
	}
}

func (m *Memory) Save(_ context.Context, r *Record) error {
	m.l.Lock()
	defer m.l.Unlock()

	m.records[r.ID] = clone(r)
	for _, k := range r.Threads {
		m.index[k] = r.ID
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	return m.get(id)
}

func (m *Memory) get(id string) (*Record, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := clone(&r)
	return &c, nil
}

func (m *Memory) Find(_ context.Context, thread string) (*Record, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	id, ok := m.index[thread]
	if !ok {
		return nil, ErrNotFound
	}
	return m.get(id)
}

func (m *Memory) List(_ context.Context) ([]*Record, error) {
	m.l.RLock()
	defer m.l.RUnlock()

	rs := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		c := clone(&r)
		rs = append(rs, &c)
	}
	sortRecords(rs)
	return rs, nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.l.Lock()
	defer m.l.Unlock()

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	for _, k := range r.Threads {
		if m.index[k] == id {
			delete(m.index, k)
		}
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// clone copies the slices so that the caller's later changes don't reach
// the stored record.
func clone(r *Record) Record {
	c := *r
	c.State = append([]byte(nil), r.State...)
	c.Threads = append([]string(nil), r.Threads...)
	return c
}

func sortRecords(rs []*Record) {
	sort.Slice(rs, func(i, j int) bool {
		return rs[i].Updated.Before(rs[j].Updated)
	})
}
