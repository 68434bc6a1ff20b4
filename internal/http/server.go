package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"logbook/internal/log"
	"logbook/internal/services"
)

// Services bundles the application services the handlers call.
type Services struct {
	Records    *services.RecordService
	Attendance *services.AttendanceService
	Training   *services.TrainingService
	Meetings   *services.MeetingService
	Audits     *services.AuditService
	Dashboard  *services.DashboardService
}

// NewServices wires every service over one record service.
func NewServices(rs *services.RecordService, training *services.TrainingService) Services {
	return Services{
		Records:    rs,
		Attendance: services.NewAttendanceService(rs),
		Training:   training,
		Meetings:   services.NewMeetingService(rs),
		Audits:     services.NewAuditService(rs),
		Dashboard:  services.NewDashboardService(rs),
	}
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(context.Context) error
}

// Options tunes the server; zero values select defaults.
type Options struct {
	RateLimit int
	Checks    []ReadinessCheck
}

type Server struct {
	http.Server
	logger     *log.Logger
	structured *log.StructuredLogger
	svc        Services
	checks     []ReadinessCheck

	rateLimiter *rateLimiter
	security    *securityDetector

	started       time.Time
	totalRequests int64
	totalWrites   int64

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Component = log.ComponentHTTP
		logger = log.New(cfg)
	}

	s := &Server{
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		svc:         svc,
		checks:      opts.Checks,
		rateLimiter: newRateLimiter(opts.RateLimit),
		security:    &securityDetector{},
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get("X-Request-ID") })(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = log.Middleware(logger)(handler)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withSecurityHeaders(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/kinds", s.handleKinds)
	mux.HandleFunc("GET /api/records/{kind}", s.handleListRecords)
	mux.HandleFunc("POST /api/records/{kind}", s.handleAppendRecord)
	mux.HandleFunc("PUT /api/records/{kind}", s.handleReplaceRecords)
	mux.HandleFunc("GET /api/records/{kind}/filter", s.handleFilterRecords)
	mux.HandleFunc("PATCH /api/records/{kind}/{row}", s.handleUpdateCell)
	mux.HandleFunc("DELETE /api/records/{kind}/{row}", s.handleDeleteRow)

	mux.HandleFunc("GET /api/attendance", s.handleAttendanceHistory)
	mux.HandleFunc("GET /api/attendance/teams", s.handleTeams)
	mux.HandleFunc("GET /api/attendance/teams/{team}/members", s.handleMembers)
	mux.HandleFunc("POST /api/attendance/mark", s.handleMarkAttendance)

	mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	mux.HandleFunc("POST /api/meetings", s.handleAddMeeting)
	mux.HandleFunc("GET /api/meetings/responsible", s.handleResponsible)

	mux.HandleFunc("GET /api/audits", s.handleListAudits)
	mux.HandleFunc("POST /api/audits", s.handleAddAudit)

	mux.HandleFunc("GET /api/training", s.handleListTraining)
	mux.HandleFunc("POST /api/training", s.handleAddTraining)
	mux.HandleFunc("GET /certificates/{name}", s.handleCertificate)

	mux.HandleFunc("GET /api/charts/count", s.handleCountChart)
	mux.HandleFunc("GET /api/charts/due", s.handleDueChart)
	mux.HandleFunc("GET /api/charts/monthly", s.handleMonthlyChart)
	mux.HandleFunc("GET /api/charts/fy", s.handleFYOptions)

	mux.HandleFunc("GET /api/dashboard/meetings", s.handleMeetingDashboard)
	mux.HandleFunc("GET /api/dashboard/equipment", s.handleEquipmentDashboard)
	mux.HandleFunc("GET /api/dashboard/training", s.handleTrainingDashboard)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses. Writes are rate limited per client IP.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.totalRequests, 1)

		clientIP := extractClientIP(r)
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := r.Context()
		s.structured.LogHTTPStart(ctx, r, clientIP)

		if s.security.inspect(r) {
			s.logger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if isWrite(r.Method) && rw.statusCode < 300 {
			atomic.AddInt64(&s.totalWrites, 1)
		}
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
