package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"logbook/internal/core"
)

// tableView is the JSON shape of a record table.
type tableView struct {
	Kind     string        `json:"kind"`
	Columns  []string      `json:"columns"`
	Rows     []core.Record `json:"rows"`
	Count    int           `json:"count"`
	Revision string        `json:"revision,omitempty"`
}

func newTableView(t core.Table) tableView {
	rows := t.Rows()
	if rows == nil {
		rows = []core.Record{}
	}
	return tableView{
		Kind:     t.Schema().Kind,
		Columns:  t.Columns(),
		Rows:     rows,
		Count:    t.Len(),
		Revision: t.Revision(),
	}
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
