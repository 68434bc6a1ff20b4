package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"logbook/internal/core"
	"logbook/internal/log"
)

const utf8BOM = "\ufeff"

// CSVStore persists record tables as delimited text files, one file per
// record kind. A table is always written in full.
type CSVStore struct {
	logger *log.Logger
	atomic bool

	// serializes SaveIfUnchanged within this process
	mu sync.Mutex
}

// CSVStoreOption configures a CSVStore.
type CSVStoreOption func(*CSVStore)

// WithAtomicSave makes saves write a temporary file in the target directory
// and rename it over the target.
func WithAtomicSave(enabled bool) CSVStoreOption {
	return func(s *CSVStore) { s.atomic = enabled }
}

// WithLogger sets the logger used to report absorbed read anomalies.
func WithLogger(l *log.Logger) CSVStoreOption {
	return func(s *CSVStore) { s.logger = l }
}

func NewCSVStore(opts ...CSVStoreOption) *CSVStore {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentStore
	s := &CSVStore{logger: log.New(cfg)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the table at path. It never fails: a missing, unreadable or
// malformed file yields an empty table over schema, and unparseable dates
// become the unknown-date marker with the row kept. When the file exists but
// could not be used, the table's LoadError says so.
func (s *CSVStore) Load(ctx context.Context, path string, schema core.Schema) core.Table {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.DebugContext(ctx, "Record file missing, using empty table",
				log.FieldKind, schema.Kind, log.FieldFile, path)
			return core.NewTable(schema)
		}
		s.logger.WarnContext(ctx, "Record file unreadable, using empty table",
			log.FieldKind, schema.Kind, log.FieldFile, path, log.FieldError, err)
		return core.NewTable(schema).WithLoadError(fmt.Errorf("%w: %w", core.ErrIO, err))
	}

	rev := Revision(data)
	tbl, bad, err := parseTable(data, schema)
	if err != nil {
		s.logger.WarnContext(ctx, "Record file malformed, using empty table",
			log.FieldKind, schema.Kind, log.FieldFile, path, log.FieldError, err)
		return core.NewTable(schema).WithRevision(rev).WithLoadError(err)
	}
	if bad > 0 {
		s.logger.WarnContext(ctx, "Unparseable dates replaced with unknown marker",
			log.FieldKind, schema.Kind, log.FieldFile, path, "cells", bad)
	}
	s.logger.DebugContext(ctx, "Table loaded",
		log.FieldKind, schema.Kind, log.FieldFile, path, log.FieldRows, tbl.Len())
	return tbl.WithRevision(rev)
}

// Save replaces the file at path with every row of t and returns the
// revision of the written content. Concurrent saves are not coordinated:
// the last writer wins.
func (s *CSVStore) Save(ctx context.Context, t core.Table, path string) (string, error) {
	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	if err := s.write(path, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save table",
			log.FieldKind, t.Schema().Kind, log.FieldFile, path, log.FieldError, err)
		return "", err
	}
	rev := Revision(data)
	log.NewStructuredLogger(s.logger).LogTableSaved(ctx, t.Schema().Kind, path, t.Len(), rev)
	return rev, nil
}

// SaveIfUnchanged saves t only when the file still holds the content t was
// loaded from, and fails with core.ErrConflict otherwise. A table loaded
// from a missing file expects the file to still be missing.
func (s *CSVStore) SaveIfUnchanged(ctx context.Context, t core.Table, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := FileRevision(path)
	if err != nil {
		return "", err
	}
	if current != t.Revision() {
		s.logger.WarnContext(ctx, "Save rejected, file changed since load",
			log.FieldKind, t.Schema().Kind, log.FieldFile, path, "expected", t.Revision(), "current", current)
		return "", fmt.Errorf("%w: %s changed since it was loaded", core.ErrConflict, filepath.Base(path))
	}
	return s.Save(ctx, t, path)
}

func (s *CSVStore) write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create directory: %w", core.ErrIO, err)
		}
	}
	if !s.atomic {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("%w: %w", core.ErrIO, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", core.ErrIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %w", core.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %w", core.ErrIO, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename: %w", core.ErrIO, err)
	}
	return nil
}

// Encode serializes t as delimited text: a header row, then one line per
// row in table column order. Date cells are already canonical inside a
// table, so unknown dates come out as empty fields.
func Encode(t core.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	cols := t.Columns()
	if err := w.Write(cols); err != nil {
		return nil, fmt.Errorf("%w: encode header: %w", core.ErrIO, err)
	}
	line := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			line[j] = t.Value(i, c)
		}
		if err := w.Write(line); err != nil {
			return nil, fmt.Errorf("%w: encode row %d: %w", core.ErrIO, i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return buf.Bytes(), nil
}

// Revision returns the content revision of a serialized table.
func Revision(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileRevision returns the revision of the file at path, or "" when the file
// does not exist.
func FileRevision(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return Revision(data), nil
}

// parseTable decodes data into a table over schema. It reports how many
// non-empty date cells could not be parsed.
func parseTable(data []byte, schema core.Schema) (core.Table, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return core.Table{}, 0, fmt.Errorf("%w: %w", core.ErrParseFailure, err)
	}
	if len(rows) == 0 {
		return core.NewTable(schema), 0, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = schema.Canonical(h)
	}
	// first occurrence of a repeated header wins
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if seen[h] {
			header[i] = ""
			continue
		}
		seen[h] = true
	}

	tbl := core.NewTable(schema, header...)
	recs := make([]core.Record, 0, len(rows)-1)
	bad := 0
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(core.Record, len(header))
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			v := row[i]
			if schema.IsDate(h) && strings.TrimSpace(v) != "" && core.CoerceDate(v).IsUnknown() {
				bad++
			}
			rec[h] = v
		}
		recs = append(recs, rec)
	}
	tbl, err = tbl.Replace(recs)
	if err != nil {
		return core.Table{}, 0, err
	}
	return tbl, bad, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
