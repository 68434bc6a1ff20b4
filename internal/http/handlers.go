package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"logbook/internal/log"
	"logbook/internal/records"
)

// fail logs err and writes the matching error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, op, log.NewFields().WithRequestID(r.Header.Get("X-Request-ID")))
	} else {
		logger.InfoContext(r.Context(), "Request rejected",
			log.FieldOperation, op, log.FieldPath, r.URL.Path, log.FieldStatusCode, status, log.FieldError, err)
	}
	DomainError(err).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every readiness check with a shared timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	NewJSONResponse().Status(httpStatus).Data(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rl := s.rateLimiter.GetMetrics()
	sec := s.security.GetMetrics()

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", atomic.LoadInt64(&s.totalRequests))

	fmt.Fprintf(w, "# HELP table_writes_total Successful write requests\n")
	fmt.Fprintf(w, "# TYPE table_writes_total counter\n")
	fmt.Fprintf(w, "table_writes_total %d\n\n", atomic.LoadInt64(&s.totalWrites))

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rl.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rl.ActiveClients)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", sec.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

type kindInfo struct {
	Kind        records.Kind `json:"kind"`
	Columns     []string     `json:"columns"`
	DateColumns []string     `json:"date_columns"`
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	var out []kindInfo
	for _, k := range records.Kinds() {
		schema := records.MustSchema(k)
		out = append(out, kindInfo{Kind: k, Columns: schema.Columns, DateColumns: schema.DateColumns})
	}
	NewJSONResponse().Data(out).Write(w)
}
