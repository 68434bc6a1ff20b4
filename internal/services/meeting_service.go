package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/views"
)

// StatusAll selects every row when listing by status.
const StatusAll = "All"

// MeetingService records meeting points and lists them.
type MeetingService struct {
	records *RecordService
}

func NewMeetingService(rs *RecordService) *MeetingService {
	return &MeetingService{records: rs}
}

// Responsible lists the roster members of team, the people a point can be
// assigned to.
func (s *MeetingService) Responsible(ctx context.Context, team string) ([]string, error) {
	roster, err := s.records.Load(ctx, records.KindRoster)
	if err != nil {
		return nil, err
	}
	return teamMembers(roster, team)
}

// Add appends a meeting point.
func (s *MeetingService) Add(ctx context.Context, m records.Meeting) (core.Table, error) {
	if err := validateMeeting(m); err != nil {
		return core.Table{}, err
	}
	rec, err := records.EncodeOne(records.KindMeeting, m)
	if err != nil {
		return core.Table{}, err
	}
	return s.records.Append(ctx, records.KindMeeting, rec, "")
}

// List returns the meeting points with the given status; "" or StatusAll
// returns every point.
func (s *MeetingService) List(ctx context.Context, status string) (core.Table, error) {
	t, err := s.records.Load(ctx, records.KindMeeting)
	if err != nil {
		return t, err
	}
	if status == "" || strings.EqualFold(status, StatusAll) {
		return t, nil
	}
	return views.FilterStatus(t, records.ColStatus, status)
}

func validateMeeting(m records.Meeting) error {
	var problems []string
	if strings.TrimSpace(m.Team) == "" {
		problems = append(problems, "team is required")
	}
	if strings.TrimSpace(m.Point) == "" {
		problems = append(problems, "point of discussion is required")
	}
	if m.AuditLevel != "" && !slices.Contains(records.MeetingAuditLevels, m.AuditLevel) {
		problems = append(problems, fmt.Sprintf("unknown audit level %q", m.AuditLevel))
	}
	if m.Severity != "" && !slices.Contains(records.Severities, m.Severity) {
		problems = append(problems, fmt.Sprintf("unknown severity %q", m.Severity))
	}
	if m.Status != "" && m.Status != records.StatusDone && m.Status != records.StatusPending {
		problems = append(problems, fmt.Sprintf("unknown status %q", m.Status))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
