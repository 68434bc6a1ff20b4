package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"logbook/internal/core"
)

func TestMirrorReplacesTab(t *testing.T) {
	ctx := context.Background()
	schema := core.Schema{Kind: "roster", Columns: []string{"Team Name", "Name"}}
	tbl, _ := core.NewTable(schema).Replace([]core.Record{
		{"Team Name": "Blast", "Name": "Ravi"},
		{"Team Name": "Paint", "Name": "Meera"},
	})

	m := New()
	if tab, _ := m.ReadTab(ctx, "roster"); tab != nil {
		t.Fatalf("expected no tab before mirroring")
	}
	if err := m.Mirror(ctx, "roster", tbl); err != nil {
		t.Fatalf("Mirror: %v", err)
	}

	smaller, _ := tbl.DeleteRow(0)
	if err := m.Mirror(ctx, "roster", smaller); err != nil {
		t.Fatalf("Mirror: %v", err)
	}

	tab, err := m.ReadTab(ctx, "roster")
	if err != nil {
		t.Fatalf("ReadTab: %v", err)
	}
	want := [][]string{{"Team Name", "Name"}, {"Paint", "Meera"}}
	if diff := cmp.Diff(want, tab); diff != "" {
		t.Fatalf("tab mismatch (-want +got):\n%s", diff)
	}
	if m.Calls("roster") != 2 {
		t.Fatalf("Calls = %d, want 2", m.Calls("roster"))
	}
	if diff := cmp.Diff([]string{"roster"}, m.Kinds()); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}

	tab[1][0] = "changed"
	again, _ := m.ReadTab(ctx, "roster")
	if again[1][0] != "Paint" {
		t.Fatalf("ReadTab exposed internal state")
	}
}
