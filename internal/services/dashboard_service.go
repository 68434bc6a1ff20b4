package services

import (
	"context"
	"slices"

	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/views"
)

// MeetingFilter selects the responsibility charts of the meeting dashboard.
// Empty fields fall back to the first team, the newest financial year and
// the first responsible person on offer.
type MeetingFilter struct {
	Team   string
	FY     string
	Person string
}

// MeetingDashboard holds every chart of the home page.
type MeetingDashboard struct {
	TeamCounts      []core.KeyCount   `json:"team_counts"`
	StatusCounts    []core.KeyCount   `json:"status_counts"`
	PendingSeverity []core.KeyCount   `json:"pending_severity"`
	Teams           []string          `json:"teams"`
	FinancialYears  []string          `json:"financial_years"`
	Team            string            `json:"team"`
	FY              string            `json:"fy"`
	Responsibility  []core.KeyCount   `json:"responsibility"`
	People          []string          `json:"people"`
	Person          string            `json:"person"`
	PendingByDate   []core.StackCount `json:"pending_by_date"`
}

// DueAnalytics is the due-date view of a kind: month-wise counts and the
// due window summary.
type DueAnalytics struct {
	AsOf      core.Date       `json:"as_of"`
	Monthly   []core.KeyCount `json:"monthly"`
	Series    []core.KeyCount `json:"series,omitempty"`
	Summary   core.DueSummary `json:"summary"`
	TotalRows int             `json:"total_rows"`
}

// DashboardService builds the chart data shown across the logbook pages.
type DashboardService struct {
	records *RecordService
}

func NewDashboardService(rs *RecordService) *DashboardService {
	return &DashboardService{records: rs}
}

// Meetings builds the home dashboard from the meeting table.
func (s *DashboardService) Meetings(ctx context.Context, f MeetingFilter) (MeetingDashboard, error) {
	var d MeetingDashboard
	t, err := s.records.Load(ctx, records.KindMeeting)
	if err != nil {
		return d, err
	}

	if d.TeamCounts, err = views.CountBy(t, records.ColTeam); err != nil {
		return d, err
	}
	if d.StatusCounts, err = views.CountBy(t, records.ColStatus); err != nil {
		return d, err
	}
	pending, err := views.FilterStatus(t, records.ColStatus, records.StatusPending)
	if err != nil {
		return d, err
	}
	if d.PendingSeverity, err = views.CountBy(pending, records.ColSeverity); err != nil {
		return d, err
	}

	dated := t.Filter(func(r core.Record) bool { return !core.CoerceDate(r[records.ColTargetDate]).IsUnknown() })
	if d.Teams, err = views.Distinct(dated, records.ColTeam); err != nil {
		return d, err
	}
	slices.Sort(d.Teams)
	years, err := views.FinancialYears(dated, records.ColTargetDate)
	if err != nil {
		return d, err
	}
	for _, fy := range years {
		d.FinancialYears = append(d.FinancialYears, fy.String())
	}

	d.Team = pick(f.Team, d.Teams)
	d.FY = pick(f.FY, d.FinancialYears)
	if d.Team == "" || d.FY == "" {
		return d, nil
	}
	fy, err := core.ParseFinancialYear(d.FY)
	if err != nil {
		return d, err
	}

	teamRows, err := views.FilterEq(dated, records.ColTeam, d.Team)
	if err != nil {
		return d, err
	}
	inYear, err := views.FilterByFY(teamRows, records.ColTargetDate, fy)
	if err != nil {
		return d, err
	}
	if d.Responsibility, err = views.CountBy(inYear, records.ColResponsibility); err != nil {
		return d, err
	}

	if d.People, err = views.Distinct(inYear, records.ColResponsibility); err != nil {
		return d, err
	}
	slices.Sort(d.People)
	d.Person = pick(f.Person, d.People)
	if d.Person == "" {
		return d, nil
	}
	mine, err := views.FilterEq(inYear, records.ColResponsibility, d.Person)
	if err != nil {
		return d, err
	}
	upcoming, err := views.FilterDateAfter(mine, records.ColTargetDate, s.records.Today())
	if err != nil {
		return d, err
	}
	d.PendingByDate, err = views.StackByDate(upcoming, records.ColTargetDate, records.ColSeverity)
	return d, err
}

// Equipment returns month-wise due counts and the due window of equipment.
func (s *DashboardService) Equipment(ctx context.Context) (DueAnalytics, error) {
	return s.dueAnalytics(ctx, records.KindEquipment, records.ColDueDate, true)
}

// Training returns month-wise due counts of training renewals.
func (s *DashboardService) Training(ctx context.Context) (DueAnalytics, error) {
	return s.dueAnalytics(ctx, records.KindTraining, records.ColDueDate, false)
}

func (s *DashboardService) dueAnalytics(ctx context.Context, kind records.Kind, column string, withSeries bool) (DueAnalytics, error) {
	a := DueAnalytics{AsOf: s.records.Today()}
	t, err := s.records.Load(ctx, kind)
	if err != nil {
		return a, err
	}
	a.TotalRows = t.Len()
	if a.Monthly, err = views.CountByMonth(t, column); err != nil {
		return a, err
	}
	if a.Summary, err = views.BucketByDueWindow(t, column, a.AsOf); err != nil {
		return a, err
	}
	if withSeries {
		a.Series = a.Summary.Series()
	}
	return a, nil
}

// pick returns want when it is offered, the first option when want is
// empty, and "" otherwise.
func pick(want string, options []string) string {
	if want == "" {
		if len(options) > 0 {
			return options[0]
		}
		return ""
	}
	if slices.Contains(options, want) {
		return want
	}
	return ""
}
