// Package worker mirrors saved record tables to an external spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"logbook/internal/amqp"
	"logbook/internal/core"
	"logbook/internal/log"
	"logbook/internal/records"
	"logbook/internal/sheets"
)

type (
	// TableSource loads the current table of a kind.
	TableSource interface {
		Load(ctx context.Context, kind records.Kind) (core.Table, error)
	}

	// MirrorLedger remembers which revision of each kind was mirrored last.
	MirrorLedger interface {
		LastRevision(ctx context.Context, kind string) (string, error)
		MarkMirrored(ctx context.Context, kind, revision string, rows int) error
	}

	// Consumer delivers table saved messages until ctx is done.
	Consumer interface {
		ConsumeTableSaved(ctx context.Context, handler func(context.Context, *amqp.TableSavedMessage) error) error
	}
)

// MirrorWorker copies tables to the mirror whenever their file revision
// differs from the one recorded in the ledger. Messages only trigger a
// reload: the file on disk is always what gets mirrored.
type MirrorWorker struct {
	source TableSource
	mirror sheets.TableMirror
	ledger MirrorLedger
	logger *log.Logger
}

func NewMirrorWorker(source TableSource, mirror sheets.TableMirror, ledger MirrorLedger, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Component = log.ComponentWorker
		logger = log.New(cfg)
	}
	return &MirrorWorker{source: source, mirror: mirror, ledger: ledger, logger: logger}
}

// HandleTableSaved processes a single table saved message from AMQP.
// Messages naming no known kind are dropped; only sync failures are
// returned, which requeues the message.
func (w *MirrorWorker) HandleTableSaved(ctx context.Context, msg *amqp.TableSavedMessage) error {
	kind, err := records.ParseKind(msg.Kind)
	if vErr := msg.Validate(); vErr != nil || err != nil {
		w.logger.WarnContext(ctx, "Dropping unusable table saved message",
			log.FieldMessageID, msg.ID, log.FieldKind, msg.Kind, log.FieldError, errors.Join(vErr, err))
		return nil
	}

	w.logger.DebugContext(ctx, "Processing table saved message",
		log.FieldMessageID, msg.ID, log.FieldKind, kind, log.FieldRevision, msg.Revision)

	_, err = w.SyncKind(ctx, kind)
	return err
}

// SyncKind mirrors kind when its file changed since the last mirror. It
// reports whether a mirror write happened.
func (w *MirrorWorker) SyncKind(ctx context.Context, kind records.Kind) (bool, error) {
	t, err := w.source.Load(ctx, kind)
	if err != nil {
		return false, err
	}
	if err := t.LoadError(); err != nil {
		w.logger.WarnContext(ctx, "File for kind could not be loaded, not mirroring",
			log.FieldKind, kind, log.FieldError, err)
		return false, nil
	}
	if t.Revision() == "" {
		w.logger.DebugContext(ctx, "No file for kind, nothing to mirror", log.FieldKind, kind)
		return false, nil
	}

	last, err := w.ledger.LastRevision(ctx, string(kind))
	if err != nil {
		return false, fmt.Errorf("read ledger for %s: %w", kind, err)
	}
	if last == t.Revision() {
		w.logger.DebugContext(ctx, "Mirror already current", log.FieldKind, kind, log.FieldRevision, last)
		return false, nil
	}

	if err := w.mirror.Mirror(ctx, string(kind), t); err != nil {
		return false, fmt.Errorf("mirror %s: %w", kind, err)
	}

	// Ledger failures are logged only; the next resync mirrors again.
	if err := w.ledger.MarkMirrored(ctx, string(kind), t.Revision(), t.Len()); err != nil {
		w.logger.ErrorContext(ctx, "Failed to record mirrored revision",
			log.FieldKind, kind, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Table mirrored",
		log.FieldKind, kind, log.FieldRevision, t.Revision(), log.FieldRows, t.Len(),
		log.FieldOperation, log.OpMirror)
	return true, nil
}

// ResyncAll checks every kind against the ledger. It is the backup path for
// messages lost while the worker was down.
func (w *MirrorWorker) ResyncAll(ctx context.Context) (int, error) {
	var (
		mirrored int
		errs     []error
	)
	for _, kind := range records.Kinds() {
		if err := ctx.Err(); err != nil {
			return mirrored, err
		}
		done, err := w.SyncKind(ctx, kind)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync kind", log.FieldKind, kind, log.FieldError, err)
			errs = append(errs, err)
			continue
		}
		if done {
			mirrored++
		}
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"mirrored", mirrored, "errors", len(errs), log.FieldOperation, log.OpSync)
	return mirrored, errors.Join(errs...)
}

// Run resyncs once, then consumes messages and resyncs every interval until
// ctx is cancelled or the consumer fails. A nil consumer runs the periodic
// resync alone.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if _, err := w.ResyncAll(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup resync incomplete", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTableSaved(ctx, w.HandleTableSaved)
		})
	}

	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if _, err := w.ResyncAll(ctx); err != nil && ctx.Err() == nil {
						w.logger.WarnContext(ctx, "Periodic resync incomplete", log.FieldError, err)
					}
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
