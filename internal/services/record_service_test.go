package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"logbook/internal/amqp"
	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/storage"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TableSavedMessage
	err  error
}

func (f *fakePublisher) PublishTableSaved(_ context.Context, msg *amqp.TableSavedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakePublisher) published() []*amqp.TableSavedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*amqp.TableSavedMessage(nil), f.msgs...)
}

// fixedNow is the reference day used by every service test.
var fixedNow = time.Date(2024, time.February, 25, 9, 0, 0, 0, time.UTC)

func newTestRecordService(t *testing.T) (*RecordService, *fakePublisher, string) {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[records.Kind]string)
	for kind, name := range records.DefaultFiles {
		paths[kind] = filepath.Join(dir, name)
	}
	pub := &fakePublisher{}
	rs := NewRecordService(storage.NewCSVStore(), paths, pub, nil)
	rs.now = func() time.Time { return fixedNow }
	return rs, pub, dir
}

func writeKind(t *testing.T, dir string, kind records.Kind, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, records.DefaultFiles[kind]), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

func TestRecordServiceAppendPublishes(t *testing.T) {
	rs, pub, _ := newTestRecordService(t)
	ctx := context.Background()

	out, err := rs.Append(ctx, records.KindEquipment, core.Record{"SN": "1", "Equipment name": "Hoist", "Due date": "01/03/2024"}, "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if out.Revision() == "" {
		t.Fatalf("saved table should carry its revision")
	}

	loaded, err := rs.Load(ctx, records.KindEquipment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Revision() != out.Revision() {
		t.Fatalf("revision mismatch: %q vs %q", loaded.Revision(), out.Revision())
	}
	if loaded.Value(0, "Due date") != "2024-03-01" {
		t.Fatalf("date not normalized: %q", loaded.Value(0, "Due date"))
	}

	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Kind != string(records.KindEquipment) || msgs[0].Revision != out.Revision() || msgs[0].Rows != 1 {
		t.Fatalf("unexpected message %+v", msgs[0])
	}
}

func TestRecordServicePublishFailureDoesNotFailSave(t *testing.T) {
	rs, pub, _ := newTestRecordService(t)
	pub.err = errors.New("broker down")

	if _, err := rs.Append(context.Background(), records.KindAudit, core.Record{"Point": "Guard rail"}, ""); err != nil {
		t.Fatalf("save should succeed when publishing fails: %v", err)
	}
	loaded, _ := rs.Load(context.Background(), records.KindAudit)
	if loaded.Len() != 1 {
		t.Fatalf("row not persisted")
	}
}

func TestRecordServiceRejectedMutationLeavesFile(t *testing.T) {
	rs, pub, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindEquipment, "SN,Equipment name,Previous Test date,Test date,Due date\n1,Hoist,,,2024-03-01\n")
	before, _ := os.ReadFile(filepath.Join(dir, records.DefaultFiles[records.KindEquipment]))
	ctx := context.Background()

	if _, err := rs.Append(ctx, records.KindEquipment, core.Record{"Colour": "red"}, ""); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if _, err := rs.UpdateCell(ctx, records.KindEquipment, 5, "SN", "x", ""); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := rs.DeleteRow(ctx, records.KindEquipment, 0, "stale"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	after, _ := os.ReadFile(filepath.Join(dir, records.DefaultFiles[records.KindEquipment]))
	if diff := cmp.Diff(string(before), string(after)); diff != "" {
		t.Fatalf("file changed (-before +after):\n%s", diff)
	}
	if len(pub.published()) != 0 {
		t.Fatalf("nothing should be published for rejected mutations")
	}
}

func TestRecordServiceAppendKeepsRowsWithBareQuotes(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindEquipment, "SN,Equipment name,Previous Test date,Test date,Due date\n"+
		"1,Pipe 5\" hose,,,2024-03-01\n"+
		"2,Gas detector,,,2024-04-01\n")
	ctx := context.Background()

	if _, err := rs.Append(ctx, records.KindEquipment, core.Record{"SN": "3", "Equipment name": "Harness"}, ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	tbl, _ := rs.Load(ctx, records.KindEquipment)
	var got []string
	for i := 0; i < tbl.Len(); i++ {
		got = append(got, tbl.Value(i, "Equipment name"))
	}
	if diff := cmp.Diff([]string{"Pipe 5\" hose", "Gas detector", "Harness"}, got); diff != "" {
		t.Fatalf("equipment mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordServiceRefusesToOverwriteUnreadableFile(t *testing.T) {
	rs, pub, dir := newTestRecordService(t)
	path := filepath.Join(dir, records.DefaultFiles[records.KindEquipment])
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ctx := context.Background()

	_, err := rs.Append(ctx, records.KindEquipment, core.Record{"SN": "3", "Equipment name": "Harness"}, "")
	if !errors.Is(err, core.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		t.Fatalf("existing entry should be untouched, stat err=%v", err)
	}
	if len(pub.published()) != 0 {
		t.Fatalf("nothing should be published for a refused save")
	}
}

func TestRecordServiceRevisionPrecondition(t *testing.T) {
	rs, _, _ := newTestRecordService(t)
	ctx := context.Background()

	first, err := rs.Append(ctx, records.KindAudit, core.Record{"Point": "a"}, "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := rs.UpdateCell(ctx, records.KindAudit, 0, "Point", "b", first.Revision())
	if err != nil {
		t.Fatalf("UpdateCell with current revision: %v", err)
	}
	if _, err := rs.DeleteRow(ctx, records.KindAudit, 0, first.Revision()); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale revision, got %v", err)
	}
	if _, err := rs.ReplaceAll(ctx, records.KindAudit, nil, second.Revision()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	loaded, _ := rs.Load(ctx, records.KindAudit)
	if loaded.Len() != 0 {
		t.Fatalf("expected empty table after ReplaceAll, got %d rows", loaded.Len())
	}
}

func TestRecordServiceUnknownKind(t *testing.T) {
	rs, _, _ := newTestRecordService(t)
	if _, err := rs.Load(context.Background(), records.Kind("invoices")); !errors.Is(err, core.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
