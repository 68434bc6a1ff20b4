package http

import (
	"net/http"

	"logbook/internal/core"
	"logbook/internal/log"
	"logbook/internal/records"
	"logbook/internal/services"
	"logbook/internal/views"
)

// chartTable loads the table named by ?kind= and the required ?column=.
func (s *Server) chartTable(r *http.Request) (core.Table, string, error) {
	q := r.URL.Query()
	kindParam, err := RequireQuery(q, "kind")
	if err != nil {
		return core.Table{}, "", err
	}
	kind, err := records.ParseKind(kindParam)
	if err != nil {
		return core.Table{}, "", err
	}
	column, err := RequireQuery(q, "column")
	if err != nil {
		return core.Table{}, "", err
	}
	t, err := s.svc.Records.Load(r.Context(), kind)
	return t, column, err
}

func (s *Server) handleCountChart(w http.ResponseWriter, r *http.Request) {
	t, column, err := s.chartTable(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	counts, err := views.CountBy(t, column)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"series": nonNilCounts(counts)}).Write(w)
}

func (s *Server) handleDueChart(w http.ResponseWriter, r *http.Request) {
	t, column, err := s.chartTable(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	asOf, err := ParseDateParam(r.URL.Query(), "as_of", s.svc.Records.Today())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	summary, err := views.BucketByDueWindow(t, column, asOf)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"as_of":   asOf,
		"summary": summary,
		"series":  summary.Series(),
	}).Write(w)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	t, column, err := s.chartTable(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	counts, err := views.CountByMonth(t, column)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"series": nonNilCounts(counts)}).Write(w)
}

func (s *Server) handleFYOptions(w http.ResponseWriter, r *http.Request) {
	t, column, err := s.chartTable(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	years, err := views.FinancialYears(t, column)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	out := make([]string, len(years))
	for i, fy := range years {
		out[i] = fy.String()
	}
	NewJSONResponse().Data(map[string]any{"financial_years": out}).Write(w)
}

func (s *Server) handleMeetingDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.svc.Dashboard.Meetings(r.Context(), services.MeetingFilter{
		Team:   q.Get("team"),
		FY:     q.Get("fy"),
		Person: q.Get("person"),
	})
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleEquipmentDashboard(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Dashboard.Equipment(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(a).Write(w)
}

func (s *Server) handleTrainingDashboard(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Dashboard.Training(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(a).Write(w)
}

func nonNilCounts(c []core.KeyCount) []core.KeyCount {
	if c == nil {
		return []core.KeyCount{}
	}
	return c
}
