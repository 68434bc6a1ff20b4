package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"logbook/internal/core"
	"logbook/internal/log"
	"logbook/internal/records"
	"logbook/internal/services"
)

// maxUploadBytes bounds a certificate upload.
const maxUploadBytes = 10 << 20

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.svc.Attendance.Teams(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"teams": nonNil(teams)}).Write(w)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Attendance.Members(r.Context(), r.PathValue("team"))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"members": nonNil(members)}).Write(w)
}

// handleMarkAttendance takes {"team": "...", "absent": ["..."]}; everyone
// else on the team is marked present.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	marked, err := s.svc.Attendance.Mark(r.Context(), p.Get("team"), p.GetStrings("absent"))
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]any{"marked": marked}).Write(w)
}

func (s *Server) handleAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	perPerson, _ := strconv.ParseBool(r.URL.Query().Get("per_person"))
	t, err := s.svc.Attendance.History(r.Context(), perPerson)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Meetings.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleResponsible(w http.ResponseWriter, r *http.Request) {
	team, err := RequireQuery(r.URL.Query(), "team")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	people, err := s.svc.Meetings.Responsible(r.Context(), team)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"responsible": nonNil(people)}).Write(w)
}

func (s *Server) handleAddMeeting(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	target, err := formDate(p, "target_date")
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	m := records.Meeting{
		Team:           p.Get("team"),
		AuditLevel:     p.Get("audit_level"),
		Point:          p.Get("point"),
		Severity:       p.Get("severity"),
		Responsibility: p.Get("responsibility"),
		TargetDate:     target,
		Status:         p.Get("status"),
		Remarks:        p.Get("remarks"),
	}
	t, err := s.svc.Meetings.Add(r.Context(), m)
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	var (
		t   core.Table
		err error
	)
	if level == "" {
		t, err = s.svc.Records.Load(r.Context(), records.KindAudit)
	} else {
		t, err = s.svc.Audits.ByLevel(r.Context(), level)
	}
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleAddAudit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BodyError(err).Write(w)
		return
	}
	target, err := formDate(p, "target_date")
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	a := records.Audit{
		Level:          p.Get("level"),
		Point:          p.Get("point"),
		Area:           p.Get("area"),
		Department:     p.Get("department"),
		Responsibility: p.Get("responsibility"),
		TargetDate:     target,
		Status:         p.Get("status"),
		Remarks:        p.Get("remarks"),
	}
	t, err := s.svc.Audits.Add(r.Context(), a)
	if err != nil {
		s.fail(w, r, log.OpAppend, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Revision(t.Revision()).Data(newTableView(t)).Write(w)
}

func (s *Server) handleListTraining(w http.ResponseWriter, r *http.Request) {
	entrants, err := s.svc.Training.Entrants(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if entrants == nil {
		entrants = []records.Entrant{}
	}
	NewJSONResponse().Data(map[string]any{"entrants": entrants}).Write(w)
}

// handleAddTraining accepts a multipart form with the training fields and a
// "certificate" file.
func (s *Server) handleAddTraining(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		BodyError(err).Write(w)
		return
	}

	entry := services.TrainingEntry{
		Name:   strings.TrimSpace(sanitizeInput(r.FormValue("name"))),
		Role:   strings.TrimSpace(sanitizeInput(r.FormValue("role"))),
		Agency: strings.TrimSpace(sanitizeInput(r.FormValue("agency"))),
	}
	var err error
	if entry.TrainingDate, err = core.ParseDate(r.FormValue("training_date")); err != nil {
		s.fail(w, r, log.OpUpload, err)
		return
	}
	if entry.DueDate, err = core.ParseDate(r.FormValue("due_date")); err != nil {
		s.fail(w, r, log.OpUpload, err)
		return
	}

	file, header, err := r.FormFile("certificate")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		BadRequestError("invalid certificate upload").Write(w)
		return
	default:
		defer file.Close()
		entry.Certificate = file
		entry.CertificateName = header.Filename
	}

	added, err := s.svc.Training.AddEntry(r.Context(), entry)
	if err != nil {
		s.fail(w, r, log.OpUpload, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(added).Write(w)
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f, err := s.svc.Training.Certificate(name)
	if err != nil {
		s.fail(w, r, log.OpLoad, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, r, log.OpLoad, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// formDate reads an optional date field from a parsed body.
func formDate(p *RequestBodyParser, key string) (core.Date, error) {
	return core.ParseDate(p.Get(key))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
