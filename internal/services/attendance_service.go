package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/storage"
	"logbook/internal/views"
)

// AttendanceService marks daily attendance against the team roster.
type AttendanceService struct {
	records *RecordService
}

func NewAttendanceService(rs *RecordService) *AttendanceService {
	return &AttendanceService{records: rs}
}

// Teams lists the roster's teams in roster order.
func (s *AttendanceService) Teams(ctx context.Context) ([]string, error) {
	roster, err := s.records.Load(ctx, records.KindRoster)
	if err != nil {
		return nil, err
	}
	return views.Distinct(roster, records.ColTeam)
}

// Members lists the distinct names on team in roster order.
func (s *AttendanceService) Members(ctx context.Context, team string) ([]string, error) {
	roster, err := s.records.Load(ctx, records.KindRoster)
	if err != nil {
		return nil, err
	}
	return teamMembers(roster, team)
}

func teamMembers(roster core.Table, team string) ([]string, error) {
	onTeam, err := views.FilterEq(roster, records.ColTeam, team)
	if err != nil {
		return nil, err
	}
	return views.Distinct(onTeam, records.ColName)
}

// Mark records today's attendance for team. Every roster member not listed
// in absent is present. At most two rows are written: one for the present
// names and one for the absent names, each joined with ", ".
func (s *AttendanceService) Mark(ctx context.Context, team string, absent []string) ([]records.AttendanceRecord, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return nil, fmt.Errorf("%w: team is required", ErrValidation)
	}
	members, err := s.Members(ctx, team)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: team %q has no members", ErrValidation, team)
	}
	for _, name := range absent {
		if !slices.Contains(members, name) {
			return nil, fmt.Errorf("%w: %q is not on team %q", ErrValidation, name, team)
		}
	}

	var present, away []string
	for _, m := range members {
		if slices.Contains(absent, m) {
			away = append(away, m)
		} else {
			present = append(present, m)
		}
	}

	today := s.records.Today()
	var marked []records.AttendanceRecord
	if len(present) > 0 {
		marked = append(marked, records.AttendanceRecord{Date: today, Team: team, Names: strings.Join(present, ", "), Status: records.Present})
	}
	if len(away) > 0 {
		marked = append(marked, records.AttendanceRecord{Date: today, Team: team, Names: strings.Join(away, ", "), Status: records.Absent})
	}

	rows := make([]core.Record, 0, len(marked))
	for _, m := range marked {
		rec, err := records.EncodeOne(records.KindAttendance, m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}

	_, err = s.records.Mutate(ctx, records.KindAttendance, "", func(t core.Table) (core.Table, error) {
		for _, rec := range rows {
			var err error
			if t, err = t.Append(rec); err != nil {
				return t, err
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// History returns the attendance records, optionally one row per person.
func (s *AttendanceService) History(ctx context.Context, perPerson bool) (core.Table, error) {
	t, err := s.records.Load(ctx, records.KindAttendance)
	if err != nil {
		return t, err
	}
	if !perPerson {
		return t, nil
	}
	return views.ExplodeMultiValue(t, "Names", ",")
}

// EnsureRoster rewrites the roster file in canonical form when it differs,
// which renames a legacy Department header and adds the Password column.
// A missing or unusable roster is left alone. It reports whether the file
// was rewritten.
func (s *AttendanceService) EnsureRoster(ctx context.Context) (bool, error) {
	roster, err := s.records.Load(ctx, records.KindRoster)
	if err != nil {
		return false, err
	}
	if roster.Revision() == "" || roster.LoadError() != nil {
		return false, nil
	}
	data, err := storage.Encode(roster)
	if err != nil {
		return false, err
	}
	if storage.Revision(data) == roster.Revision() {
		return false, nil
	}
	if _, err := s.records.ReplaceAll(ctx, records.KindRoster, roster.Rows(), roster.Revision()); err != nil {
		return false, err
	}
	return true, nil
}
