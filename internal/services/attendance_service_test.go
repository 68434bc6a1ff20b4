package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"logbook/internal/core"
	"logbook/internal/records"
)

const rosterCSV = "Team Name,Name,Password\n" +
	"Blast,Asha,x\n" +
	"Paint,Ravi,y\n" +
	"Blast,Bilal,z\n" +
	"Blast,Chen,w\n"

func TestAttendanceTeamsAndMembers(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindRoster, rosterCSV)
	svc := NewAttendanceService(rs)
	ctx := context.Background()

	teams, err := svc.Teams(ctx)
	if err != nil {
		t.Fatalf("Teams: %v", err)
	}
	if diff := cmp.Diff([]string{"Blast", "Paint"}, teams); diff != "" {
		t.Errorf("teams mismatch (-want +got):\n%s", diff)
	}
	members, err := svc.Members(ctx, "Blast")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if diff := cmp.Diff([]string{"Asha", "Bilal", "Chen"}, members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestAttendanceMark(t *testing.T) {
	tests := []struct {
		name   string
		absent []string
		want   []records.AttendanceRecord
	}{
		{
			name: "one absent",
			absent: []string{"Bilal"},
			want: []records.AttendanceRecord{
				{Date: core.NewDate(2024, 2, 25), Team: "Blast", Names: "Asha, Chen", Status: records.Present},
				{Date: core.NewDate(2024, 2, 25), Team: "Blast", Names: "Bilal", Status: records.Absent},
			},
		},
		{
			name: "all present",
			want: []records.AttendanceRecord{
				{Date: core.NewDate(2024, 2, 25), Team: "Blast", Names: "Asha, Bilal, Chen", Status: records.Present},
			},
		},
		{
			name:   "all absent",
			absent: []string{"Asha", "Bilal", "Chen"},
			want: []records.AttendanceRecord{
				{Date: core.NewDate(2024, 2, 25), Team: "Blast", Names: "Asha, Bilal, Chen", Status: records.Absent},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, _, dir := newTestRecordService(t)
			writeKind(t, dir, records.KindRoster, rosterCSV)
			svc := NewAttendanceService(rs)

			got, err := svc.Mark(context.Background(), "Blast", tt.absent)
			if err != nil {
				t.Fatalf("Mark: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("marked mismatch (-want +got):\n%s", diff)
			}

			history, err := svc.History(context.Background(), false)
			if err != nil {
				t.Fatalf("History: %v", err)
			}
			saved, err := records.Decode[records.AttendanceRecord](history)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, saved); diff != "" {
				t.Fatalf("saved mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttendanceMarkValidation(t *testing.T) {
	rs, pub, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindRoster, rosterCSV)
	svc := NewAttendanceService(rs)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, " ", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("empty team: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Mark(ctx, "Welding", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown team: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Mark(ctx, "Blast", []string{"Ravi"}); !errors.Is(err, ErrValidation) {
		t.Errorf("absent outside team: expected ErrValidation, got %v", err)
	}
	if len(pub.published()) != 0 {
		t.Errorf("rejected marks must not save")
	}
}

func TestAttendanceHistoryPerPerson(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindAttendance, "Date,Team Name,Names,Status (Present/Absent)\n2024-02-20,Blast,\"Asha, Chen\",Present\n")
	svc := NewAttendanceService(rs)

	perPerson, err := svc.History(context.Background(), true)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if perPerson.Len() != 2 || perPerson.Value(1, "Names") != "Chen" || perPerson.Value(1, "Status") != records.Present {
		t.Fatalf("unexpected per-person rows: %v", perPerson.Rows())
	}
}

func TestEnsureRoster(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindRoster, "Department,Name\nBlast,Asha\n")
	svc := NewAttendanceService(rs)
	ctx := context.Background()

	changed, err := svc.EnsureRoster(ctx)
	if err != nil {
		t.Fatalf("EnsureRoster: %v", err)
	}
	if !changed {
		t.Fatalf("legacy roster should be rewritten")
	}
	roster, _ := rs.Load(ctx, records.KindRoster)
	if diff := cmp.Diff([]string{"Team Name", "Name", "Password"}, roster.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if roster.Value(0, "Team Name") != "Blast" {
		t.Fatalf("team lost in rewrite")
	}

	changed, err = svc.EnsureRoster(ctx)
	if err != nil || changed {
		t.Fatalf("second EnsureRoster should be a no-op, changed=%v err=%v", changed, err)
	}
}

func TestEnsureRosterKeepsQuotedNames(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	writeKind(t, dir, records.KindRoster, "Department,Name\nBlast,Ravi \"RK\" Kumar\nBlast,Asha\n")
	svc := NewAttendanceService(rs)
	ctx := context.Background()

	if _, err := svc.EnsureRoster(ctx); err != nil {
		t.Fatalf("EnsureRoster: %v", err)
	}
	roster, _ := rs.Load(ctx, records.KindRoster)
	want := []core.Record{
		{"Team Name": "Blast", "Name": "Ravi \"RK\" Kumar", "Password": ""},
		{"Team Name": "Blast", "Name": "Asha", "Password": ""},
	}
	if diff := cmp.Diff(want, roster.Rows()); diff != "" {
		t.Fatalf("roster mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureRosterLeavesUnreadableRoster(t *testing.T) {
	rs, _, dir := newTestRecordService(t)
	path := filepath.Join(dir, records.DefaultFiles[records.KindRoster])
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	svc := NewAttendanceService(rs)

	changed, err := svc.EnsureRoster(context.Background())
	if err != nil || changed {
		t.Fatalf("unreadable roster should be left alone, changed=%v err=%v", changed, err)
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		t.Fatalf("roster entry should be untouched, stat err=%v", err)
	}
}
