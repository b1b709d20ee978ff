package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meetcal/internal/calendar"
	"meetcal/internal/config"
	"meetcal/internal/dashboard"
	"meetcal/internal/ics"
	appLog "meetcal/internal/log"
)

// Server serves the dashboard: a JSON view API, a server-rendered HTML
// page and an ICS download of the visible meetings.
type Server struct {
	cfg     *config.Config
	session *dashboard.Session
	loc     *time.Location // display only
	now     func() time.Time
	mux     *http.ServeMux
}

// NewServer constructs a new Server. now may be nil.
func NewServer(cfg *config.Config, session *dashboard.Session, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", cfg.Timezone)
	}
	s := &Server{
		cfg:     cfg,
		session: session,
		loc:     loc,
		now:     now,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, session *dashboard.Session) error {
	s := NewServer(cfg, session, nil)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/meetings/{id}", s.handleMeeting)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("POST /refresh", s.handleRefreshForm)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// today is the current UTC calendar day, the same reference meetings are
// bucketed by.
func (s *Server) today() time.Time {
	return calendar.UTCDate(s.now())
}

func (s *Server) options(q url.Values) calendar.Options {
	pph := s.cfg.PixelsPerHour
	if q.Get("compact") == "1" {
		pph = s.cfg.CompactPixelsPerHour
	}
	return calendar.Options{
		WeekStart:     s.cfg.Weekday(),
		FirstHour:     s.cfg.DayStartHour,
		LastHour:      s.cfg.DayEndHour,
		PixelsPerHour: float64(pph),
		Today:         s.today(),
	}
}

// handleView returns the view for the state in the query after applying op.
//
// GET /api/view?granularity=week&previous=month&date=2024-03-04&op=next
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, err := stateFromQuery(q, s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, snap, err := s.session.View(r.Context(), state, s.options(q))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appLog.Debug("api view request",
		"granularity", string(state.Granularity),
		"range_start", v.Range.FirstDay().Format(dateLayout),
		"range_end", v.Range.LastDay().Format(dateLayout),
		"visible", v.Summary.Visible,
		"total", v.Summary.Total,
	)

	writeJSON(w, http.StatusOK, newViewResponse(v, snap))
}

// handleRefresh replaces the meeting snapshot; it is the retry
// affordance after a failed fetch.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Refresh(r.Context())
	writeJSON(w, http.StatusOK, newStatusDTO(snap))
}

func (s *Server) handleMeeting(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot(r.Context())
	m, ok := snap.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeJSON(w, http.StatusOK, newDetailDTO(m))
}

// handleICS exports the meetings visible in the requested view.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	state, err := stateFromQuery(r.URL.Query(), s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, _, err := s.session.View(r.Context(), state, s.options(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body := ics.Export(v.Visible, s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meetings-`+
		string(state.Granularity)+"-"+v.Range.FirstDay().Format(dateLayout)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
