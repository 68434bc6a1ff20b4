package http

import (
	"net/http"

	"logbook/internal/core"
	"logbook/internal/log"
	"logbook/internal/views"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	t, err := s.svc.Records.Load(r.Context(), kind)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleAppendRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	t, err := s.svc.Records.Append(r.Context(), kind, p.Record(), IfMatch(r))
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

// handleReplaceRecords saves a whole edited grid: {"rows": [{...}, ...]}.
func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpReplace, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	recs, err := p.Records("rows")
	if err != nil {
		s.fail(w, r, log.OpReplace, err)
		return
	}
	t, err := s.svc.Records.ReplaceAll(r.Context(), kind, recs, IfMatch(r))
	if err != nil {
		s.fail(w, r, log.OpReplace, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

// handleUpdateCell sets one cell: {"column": "...", "value": "..."}.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	row, err := ParseRow(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	column := p.Get("column")
	if column == "" {
		UnprocessableEntityError("column is required").Write(w)
		return
	}
	t, err := s.svc.Records.UpdateCell(r.Context(), kind, row, column, p.Get("value"), IfMatch(r))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	row, err := ParseRow(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	t, err := s.svc.Records.DeleteRow(r.Context(), kind, row, IfMatch(r))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

// handleFilterRecords applies one filter to column, chosen by which query
// parameter is present: equals, status, fy, after or explode.
func (s *Server) handleFilterRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	q := r.URL.Query()
	column, err := RequireQuery(q, "column")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	t, err := s.svc.Records.Load(r.Context(), kind)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}

	var out core.Table
	switch {
	case q.Has("equals"):
		out, err = views.FilterEq(t, column, q.Get("equals"))
	case q.Has("status"):
		out, err = views.FilterStatus(t, column, q.Get("status"))
	case q.Has("fy"):
		var fy core.FinancialYear
		if fy, err = core.ParseFinancialYear(q.Get("fy")); err == nil {
			out, err = views.FilterByFY(t, column, fy)
		}
	case q.Has("after"):
		var after core.Date
		if after, err = ParseDateParam(q, "after", s.svc.Records.Today()); err == nil {
			out, err = views.FilterDateAfter(t, column, after)
		}
	case q.Has("explode"):
		out, err = views.ExplodeMultiValue(t, column, q.Get("explode"))
	default:
		UnprocessableEntityError("one of equals, status, fy, after or explode is required").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(out)).Write(w)
}
