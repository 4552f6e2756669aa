package session

import (
	"context"
	"sync"
)

// MemoryTable is the shared record table behind MemoryDriver. Whoever creates it
// owns its lifetime; entries never expire on their own.
type MemoryTable struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{records: make(map[string]string)}
}

// Get returns the raw payload stored under id.
func (t *MemoryTable) Get(id string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	data, ok := t.records[id]
	return data, ok
}

func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Clear drops every record.
func (t *MemoryTable) Clear() {
	t.mu.Lock()
	t.records = make(map[string]string)
	t.mu.Unlock()
}

func (t *MemoryTable) set(id, data string) {
	t.mu.Lock()
	t.records[id] = data
	t.mu.Unlock()
}

func (t *MemoryTable) delete(id string) {
	t.mu.Lock()
	delete(t.records, id)
	t.mu.Unlock()
}

// MemoryDriver keeps records in a MemoryTable. For tests and single-process use.
type MemoryDriver struct {
	table *MemoryTable
}

// NewMemoryDriver returns a driver over table. A nil table gets a private one.
func NewMemoryDriver(table *MemoryTable) *MemoryDriver {
	if table == nil {
		table = NewMemoryTable()
	}
	return &MemoryDriver{table: table}
}

func (d *MemoryDriver) Read(_ context.Context, id string) (string, bool, error) {
	data, ok := d.table.Get(id)
	return data, ok, nil
}

func (d *MemoryDriver) Write(_ context.Context, id, data string) error {
	if isEmptyPayload(data) {
		d.table.delete(id)
		return nil
	}
	d.table.set(id, data)
	return nil
}

func (d *MemoryDriver) Destroy(_ context.Context, id string) error {
	d.table.delete(id)
	return nil
}

// Touch is a no-op: memory records have no freshness.
func (d *MemoryDriver) Touch(context.Context, string) error {
	return nil
}
