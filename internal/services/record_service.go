// Package services orchestrates record-table operations: load, mutate, save
// and notify.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logbook/internal/amqp"
	"logbook/internal/core"
	"logbook/internal/log"
	"logbook/internal/records"
	"logbook/internal/storage"
)

// ErrValidation marks input rejected before any table is touched.
var ErrValidation = errors.New("validation failed")

// TableSavedPublisher announces saved tables to the mirror worker.
type TableSavedPublisher interface {
	PublishTableSaved(ctx context.Context, msg *amqp.TableSavedMessage) error
}

// RecordService runs every table mutation as load, apply, save. Tables are
// loaded fresh per call and nothing is held between calls.
type RecordService struct {
	store     *storage.CSVStore
	paths     map[records.Kind]string
	publisher TableSavedPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewRecordService(store *storage.CSVStore, paths map[records.Kind]string, publisher TableSavedPublisher, logger *log.Logger) *RecordService {
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Component = log.ComponentStore
		logger = log.New(cfg)
	}
	return &RecordService{
		store:     store,
		paths:     paths,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Today is the reference day for due windows and attendance.
func (s *RecordService) Today() core.Date {
	return core.DateOf(s.now())
}

// Path returns the backing file of kind.
func (s *RecordService) Path(kind records.Kind) (string, error) {
	if _, err := records.SchemaFor(kind); err != nil {
		return "", err
	}
	path, ok := s.paths[kind]
	if !ok || path == "" {
		return "", fmt.Errorf("%w: no file configured for %s", core.ErrUnknownKind, kind)
	}
	return path, nil
}

// Load reads the current table of kind. Read anomalies are absorbed into
// an empty table; only an unknown kind fails.
func (s *RecordService) Load(ctx context.Context, kind records.Kind) (core.Table, error) {
	path, err := s.Path(kind)
	if err != nil {
		return core.Table{}, err
	}
	return s.store.Load(ctx, path, records.MustSchema(kind)), nil
}

// Append adds rec at the end of kind's table.
func (s *RecordService) Append(ctx context.Context, kind records.Kind, rec core.Record, expectRev string) (core.Table, error) {
	return s.Mutate(ctx, kind, expectRev, func(t core.Table) (core.Table, error) {
		return t.Append(rec)
	})
}

// UpdateCell replaces one cell of kind's table.
func (s *RecordService) UpdateCell(ctx context.Context, kind records.Kind, row int, column, value, expectRev string) (core.Table, error) {
	return s.Mutate(ctx, kind, expectRev, func(t core.Table) (core.Table, error) {
		return t.UpdateCell(row, column, value)
	})
}

// DeleteRow removes one row of kind's table.
func (s *RecordService) DeleteRow(ctx context.Context, kind records.Kind, row int, expectRev string) (core.Table, error) {
	return s.Mutate(ctx, kind, expectRev, func(t core.Table) (core.Table, error) {
		return t.DeleteRow(row)
	})
}

// ReplaceAll swaps every row of kind's table, as a grid editor does.
func (s *RecordService) ReplaceAll(ctx context.Context, kind records.Kind, recs []core.Record, expectRev string) (core.Table, error) {
	return s.Mutate(ctx, kind, expectRev, func(t core.Table) (core.Table, error) {
		return t.Replace(recs)
	})
}

// Mutate loads kind's table, applies fn and saves the result. With a
// non-empty expectRev the table must still be at that revision, both when
// loaded and when written; otherwise the save is unconditional and the last
// writer wins. A failing fn, or an existing file that could not be loaded,
// leaves the file untouched.
func (s *RecordService) Mutate(ctx context.Context, kind records.Kind, expectRev string, fn func(core.Table) (core.Table, error)) (core.Table, error) {
	path, err := s.Path(kind)
	if err != nil {
		return core.Table{}, err
	}
	t := s.store.Load(ctx, path, records.MustSchema(kind))
	if err := t.LoadError(); err != nil {
		return t, fmt.Errorf("%s: existing file could not be loaded, not overwriting: %w", kind, err)
	}
	if expectRev != "" && t.Revision() != expectRev {
		return t, fmt.Errorf("%w: %s is at a newer revision", core.ErrConflict, kind)
	}

	out, err := fn(t)
	if err != nil {
		return t, err
	}
	return s.save(ctx, kind, path, out, expectRev != "")
}

func (s *RecordService) save(ctx context.Context, kind records.Kind, path string, t core.Table, conditional bool) (core.Table, error) {
	var (
		rev string
		err error
	)
	if conditional {
		rev, err = s.store.SaveIfUnchanged(ctx, t, path)
	} else {
		rev, err = s.store.Save(ctx, t, path)
	}
	if err != nil {
		return t, fmt.Errorf("save %s: %w", kind, err)
	}

	// Publish async mirror message; the save already succeeded
	if err := s.publishSaved(ctx, kind, path, rev, t.Len()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish table saved message",
			log.FieldKind, kind, log.FieldRevision, rev, log.FieldError, err)
	}

	return t.WithRevision(rev), nil
}

func (s *RecordService) publishSaved(ctx context.Context, kind records.Kind, path, rev string, rows int) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping table saved message", log.FieldKind, kind)
		return nil
	}
	return s.publisher.PublishTableSaved(ctx, amqp.NewTableSavedMessage(string(kind), path, rev, rows))
}
