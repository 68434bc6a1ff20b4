package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type (
	// Record maps column name to cell text. Inside a Table every record
	// carries every column; "" is the empty marker.
	Record map[string]string

	// Schema declares the columns of a record kind.
	Schema struct {
		Kind        string
		Columns     []string
		DateColumns []string
		// Aliases maps legacy header names to schema column names.
		Aliases map[string]string
	}

	// Table is an ordered sequence of same-schema records. Operations return
	// a new Table and leave the receiver untouched.
	Table struct {
		schema   Schema
		columns  []string
		rows     []Record
		revision string
		loadErr  error
	}
)

// Has reports whether col is a declared column.
func (s Schema) Has(col string) bool {
	return slices.Contains(s.Columns, col)
}

// IsDate reports whether col is date-bearing.
func (s Schema) IsDate(col string) bool {
	return slices.Contains(s.DateColumns, col)
}

// Canonical maps a file header to its schema column name. Headers are
// compared after trimming surrounding whitespace, then through Aliases.
func (s Schema) Canonical(header string) string {
	h := strings.TrimSpace(header)
	if alias, ok := s.Aliases[h]; ok {
		return alias
	}
	return h
}

// NewTable returns an empty table over schema. Extra columns found in a
// backing file but not declared by the schema are kept after the schema
// columns so a save never drops them.
func NewTable(schema Schema, extra ...string) Table {
	cols := append([]string(nil), schema.Columns...)
	for _, c := range extra {
		if c == "" || slices.Contains(cols, c) {
			continue
		}
		cols = append(cols, c)
	}
	return Table{schema: schema, columns: cols}
}

func (t Table) Schema() Schema { return t.schema }

// Columns returns the column order used for display and serialization.
func (t Table) Columns() []string { return append([]string(nil), t.columns...) }

func (t Table) Len() int { return len(t.rows) }

// Revision identifies the file content the table was loaded from; empty when
// it was not loaded from an existing file.
func (t Table) Revision() string { return t.revision }

// WithRevision returns a copy stamped with rev.
func (t Table) WithRevision(rev string) Table {
	t.rows = cloneRows(t.rows)
	t.revision = rev
	return t
}

// WithLoadError returns a copy marking that the backing file exists but
// could not be read, so its content is not what the table holds.
func (t Table) WithLoadError(err error) Table {
	t.rows = cloneRows(t.rows)
	t.loadErr = err
	return t
}

// LoadError is the error that left the table empty despite an existing
// backing file, or nil.
func (t Table) LoadError() error { return t.loadErr }

// HasColumn reports whether col is part of this table, declared or extra.
func (t Table) HasColumn(col string) bool {
	return slices.Contains(t.columns, col)
}

// Row returns a copy of row i. It panics when i is out of range, like a
// slice index.
func (t Table) Row(i int) Record {
	return maps.Clone(t.rows[i])
}

// Rows returns copies of every row in order.
func (t Table) Rows() []Record {
	return cloneRows(t.rows)
}

// Value returns the cell at row i, column col.
func (t Table) Value(i int, col string) string {
	return t.rows[i][col]
}

// Date returns the parsed date at row i, column col.
func (t Table) Date(i int, col string) Date {
	return CoerceDate(t.rows[i][col])
}

// Append validates rec against the table columns and returns a new table
// with rec at the end. Missing columns are filled with "".
func (t Table) Append(rec Record) (Table, error) {
	row, err := t.conform(rec)
	if err != nil {
		return t, err
	}
	out := t.withRows(append(cloneRows(t.rows), row))
	return out, nil
}

// UpdateCell returns a new table with one cell replaced.
func (t Table) UpdateCell(i int, col, value string) (Table, error) {
	if i < 0 || i >= len(t.rows) {
		return t, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, len(t.rows))
	}
	if !t.HasColumn(col) {
		return t, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	rows := cloneRows(t.rows)
	rows[i][col] = t.normalize(col, value)
	return t.withRows(rows), nil
}

// DeleteRow returns a new table without row i.
func (t Table) DeleteRow(i int) (Table, error) {
	if i < 0 || i >= len(t.rows) {
		return t, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, len(t.rows))
	}
	rows := cloneRows(t.rows)
	rows = append(rows[:i], rows[i+1:]...)
	return t.withRows(rows), nil
}

// Replace swaps every row at once, as an editable grid does on save. Either
// all records conform or the table is returned unchanged with the error.
func (t Table) Replace(recs []Record) (Table, error) {
	rows := make([]Record, 0, len(recs))
	for i, rec := range recs {
		row, err := t.conform(rec)
		if err != nil {
			return t, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return t.withRows(rows), nil
}

// FlatMap builds a table with the same columns from fn's output for every
// row. Produced records are conformed leniently: unknown keys are dropped
// and missing columns filled.
func (t Table) FlatMap(fn func(Record) []Record) Table {
	var rows []Record
	for _, r := range t.rows {
		for _, produced := range fn(maps.Clone(r)) {
			row := make(Record, len(t.columns))
			for _, c := range t.columns {
				row[c] = t.normalize(c, produced[c])
			}
			rows = append(rows, row)
		}
	}
	return t.withRows(rows)
}

// Filter keeps the rows for which keep returns true.
func (t Table) Filter(keep func(Record) bool) Table {
	var rows []Record
	for _, r := range t.rows {
		if keep(r) {
			rows = append(rows, maps.Clone(r))
		}
	}
	return t.withRows(rows)
}

func (t Table) conform(rec Record) (Record, error) {
	var unknown []string
	for k := range rec {
		if !t.HasColumn(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("%w: unknown keys %q for %s", ErrSchemaMismatch, unknown, t.schema.Kind)
	}
	row := make(Record, len(t.columns))
	for _, c := range t.columns {
		row[c] = t.normalize(c, rec[c])
	}
	return row, nil
}

// normalize canonicalizes date cells and turns CRLF line breaks into LF.
func (t Table) normalize(col, value string) string {
	if t.schema.IsDate(col) {
		return CoerceDate(value).String()
	}
	return strings.ReplaceAll(value, "\r\n", "\n")
}

func (t Table) withRows(rows []Record) Table {
	return Table{schema: t.schema, columns: t.columns, rows: rows, revision: t.revision, loadErr: t.loadErr}
}

func cloneRows(rows []Record) []Record {
	if rows == nil {
		return nil
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}

