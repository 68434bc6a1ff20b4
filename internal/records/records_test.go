package records

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"logbook/internal/core"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(" " + string(k) + " ")
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
		if _, ok := DefaultFiles[k]; !ok {
			t.Errorf("no default file for %q", k)
		}
	}
	if _, err := ParseKind("Meetings"); err != nil {
		t.Errorf("kind lookup should ignore case: %v", err)
	}
	if _, err := ParseKind("invoices"); !errors.Is(err, core.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestSchemaAliases(t *testing.T) {
	cases := []struct {
		kind   Kind
		header string
		want   string
	}{
		{KindRoster, "Department", "Team Name"},
		{KindEquipment, "Test date ", "Test date"},
		{KindAudit, "Status", "Status (Done/Pending)"},
		{KindAudit, "Department", "Department"},
		{KindAttendance, "Status (Present/Absent)", "Status"},
	}
	for _, tc := range cases {
		if got := MustSchema(tc.kind).Canonical(tc.header); got != tc.want {
			t.Errorf("%s: Canonical(%q) = %q, want %q", tc.kind, tc.header, got, tc.want)
		}
	}
}

func TestSchemaForReturnsCopy(t *testing.T) {
	s := MustSchema(KindMeeting)
	s.Columns[0] = "mutated"
	if MustSchema(KindMeeting).Columns[0] != ColTeam {
		t.Fatalf("registry schema was mutated through a returned copy")
	}
}

func TestEncodeDecodeEntrants(t *testing.T) {
	in := []Entrant{
		{
			SN:              "1",
			Name:            "Asha Rao",
			Role:            "Entrant",
			TrainingDate:    core.NewDate(2024, 5, 2),
			DueDate:         core.NewDate(2025, 5, 2),
			Agency:          "Safe Co",
			CertificateFile: "Asha_Rao_Entrant_20250502_Safe_Co.pdf",
		},
		{SN: "2", Name: "Bo", Role: "Attendant"},
	}

	tbl, err := Encode(KindTraining, in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if tbl.Value(0, "Due date") != "2025-05-02" || tbl.Value(1, "Due date") != "" {
		t.Fatalf("unexpected date cells: %q %q", tbl.Value(0, "Due date"), tbl.Value(1, "Due date"))
	}

	out, err := Decode[Entrant](tbl)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("entrants mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeToleratesBadDatesAndExtraColumns(t *testing.T) {
	tbl := core.NewTable(MustSchema(KindEquipment), "Location")
	tbl, err := tbl.Append(core.Record{
		"SN":             "7",
		"Equipment name": "Gas detector",
		"Test date":      "sometime",
		"Due date":       "2025-01-31",
		"Location":       "Bay 2",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	out, err := Decode[Equipment](tbl)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one item, got %d", len(out))
	}
	if !out[0].TestDate.IsUnknown() || out[0].DueDate != core.NewDate(2025, 1, 31) {
		t.Fatalf("unexpected dates: %+v", out[0])
	}
}

func TestEncodeOne(t *testing.T) {
	rec, err := EncodeOne(KindAttendance, AttendanceRecord{
		Date:   core.NewDate(2024, 6, 1),
		Team:   "Blast",
		Names:  "A, B",
		Status: Present,
	})
	if err != nil {
		t.Fatalf("EncodeOne: %v", err)
	}
	want := core.Record{"Date": "2024-06-01", "Team Name": "Blast", "Names": "A, B", "Status": "Present"}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmpty(t *testing.T) {
	out, err := Decode[Member](core.NewTable(MustSchema(KindRoster)))
	if err != nil || len(out) != 0 {
		t.Fatalf("expected no members, got %v, %v", out, err)
	}
}

func TestMemberPasswordVisible(t *testing.T) {
	tbl, err := core.NewTable(MustSchema(KindRoster)).Append(core.Record{"Team Name": "Blast", "Name": "Asha", "Password": "x"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	members, err := Decode[Member](tbl)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]Member{{Team: "Blast", Name: "Asha", Password: "x"}}, members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
	out, err := json.Marshal(members[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(out), `{"team":"Blast","name":"Asha","password":"x"}`; got != want {
		t.Fatalf("json = %s, want %s", got, want)
	}
}
