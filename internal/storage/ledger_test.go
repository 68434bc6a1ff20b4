package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state", "ledger.db")

	l, err := OpenLedger(dbPath)
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	defer l.Close()

	rev, err := l.LastRevision(ctx, "meetings")
	if err != nil || rev != "" {
		t.Fatalf("LastRevision on empty ledger = %q, %v", rev, err)
	}

	if err := l.MarkMirrored(ctx, "meetings", "r1", 3); err != nil {
		t.Fatalf("MarkMirrored: %v", err)
	}
	if err := l.MarkMirrored(ctx, "meetings", "r2", 4); err != nil {
		t.Fatalf("MarkMirrored: %v", err)
	}
	if err := l.MarkMirrored(ctx, "audits", "a1", 1); err != nil {
		t.Fatalf("MarkMirrored: %v", err)
	}

	rev, err = l.LastRevision(ctx, "meetings")
	if err != nil || rev != "r2" {
		t.Fatalf("LastRevision = %q, %v; want r2", rev, err)
	}

	states, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 2 || states[0].Kind != "audits" || states[1].Rows != 4 {
		t.Fatalf("unexpected states: %+v", states)
	}
	if states[1].MirroredAt.IsZero() {
		t.Fatalf("mirrored_at not recorded")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("first run: %v", err)
	}
	v, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v != 1 {
		t.Fatalf("schema version = %d, want 1", v)
	}
}
