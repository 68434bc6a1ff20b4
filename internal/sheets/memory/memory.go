package memory

import (
	"context"
	"slices"
	"sync"

	"logbook/internal/core"
	ports "logbook/internal/sheets"
)

var (
	_ ports.TableMirror = (*Mirror)(nil)
	_ ports.TabReader   = (*Mirror)(nil)
)

// Mirror keeps the last mirrored copy of each kind in process memory.
type Mirror struct {
	mu    sync.Mutex
	tabs  map[string][][]string
	calls map[string]int
}

func New() *Mirror {
	return &Mirror{
		tabs:  make(map[string][][]string),
		calls: make(map[string]int),
	}
}

// Mirror replaces the kind's tab with t, header row first.
func (m *Mirror) Mirror(_ context.Context, kind string, t core.Table) error {
	cols := t.Columns()
	rows := make([][]string, 0, t.Len()+1)
	rows = append(rows, cols)
	for i := 0; i < t.Len(); i++ {
		line := make([]string, len(cols))
		for j, c := range cols {
			line[j] = t.Value(i, c)
		}
		rows = append(rows, line)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[kind] = rows
	m.calls[kind]++
	return nil
}

// ReadTab returns a copy of the kind's tab; nil when never mirrored.
func (m *Mirror) ReadTab(_ context.Context, kind string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[kind]
	if !ok {
		return nil, nil
	}
	out := make([][]string, len(tab))
	for i, row := range tab {
		out[i] = slices.Clone(row)
	}
	return out, nil
}

// Calls reports how many times kind was mirrored.
func (m *Mirror) Calls(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind]
}

// Kinds lists the mirrored kinds in name order.
func (m *Mirror) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tabs))
	for k := range m.tabs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
