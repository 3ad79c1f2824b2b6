package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"calpicker/internal/calendar"
	"calpicker/internal/config"
	"calpicker/internal/events"
	appLog "calpicker/internal/log"
	"calpicker/internal/metrics"
)

const (
	responseCacheSize = 128
	responseCacheTTL  = 30 * time.Second
)

// Options carries the collaborators the API reads from. All are optional.
type Options struct {
	// Store provides events for /api/events.
	Store *events.Store
	// Gatherer backs /metrics.
	Gatherer prometheus.Gatherer
	// Metrics records per-route request counters.
	Metrics *metrics.Metrics
	// Clock overrides time.Now.
	Clock func() time.Time
}

// Server exposes the pure grid provider over HTTP. It never touches widget
// state, so it is safe to serve from its own goroutines.
type Server struct {
	cfg   *config.Config
	opts  Options
	cal   *calendar.Calendar
	mux   chi.Router
	grids *expirable.LRU[string, gridResponse]
}

// NewServer builds the API for a validated config.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web: nil config")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	wd, err := config.ParseWeekday(cfg.WeekStart)
	if err != nil {
		return nil, err
	}
	var calOpts []calendar.Option
	if opts.Clock != nil {
		calOpts = append(calOpts, calendar.WithClock(opts.Clock))
	}

	s := &Server{
		cfg:   cfg,
		opts:  opts,
		cal:   calendar.New(loc, wd, calOpts...),
		mux:   chi.NewRouter(),
		grids: expirable.NewLRU[string, gridResponse](responseCacheSize, nil, responseCacheTTL),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calpicker", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(s.opts.Metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/grid", s.handleGrid)
		r.Get("/symbols", s.handleSymbols)
		r.Get("/events", s.handleEvents)
	})
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.opts.Gatherer))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type dayDTO struct {
	Date     string `json:"date"`
	InPeriod bool   `json:"in_period"`
	IsToday  bool   `json:"is_today"`
	Weekday  string `json:"weekday"`
}

type gridResponse struct {
	Layout     string    `json:"layout"`
	Anchor     time.Time `json:"anchor"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	Rows       int       `json:"rows"`
	Days       []dayDTO  `json:"days"`
}

// handleGrid returns the day grid of the state containing date.
//
// GET /api/grid?layout=month&date=2021-11-01&offset=1
//   - layout: month (default) or week
//   - date:   YYYY-MM-DD in the configured timezone (default today)
//   - offset: periods to step from the state containing date, within
//     ±10000 (default 0)
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	state, ok := s.stateFromQuery(w, r)
	if !ok {
		return
	}

	// is_today changes at midnight, so today's date is part of the key.
	key := state.Key().String() + "@" + s.cal.Today().Format("2006-01-02")
	if resp, ok := s.grids.Get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	days := calendar.Days(state)
	rng := state.Range()
	resp := gridResponse{
		Layout:     state.Layout().String(),
		Anchor:     state.Anchor(),
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		Rows:       len(days) / 7,
		Days:       make([]dayDTO, 0, len(days)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, dayDTO{
			Date:     d.String(),
			InPeriod: state.Contains(d.Date()),
			IsToday:  d.IsToday(),
			Weekday:  d.Weekday().String(),
		})
	}
	s.grids.Add(key, resp)
	appLog.Debug("api grid computed", "state", state, "rows", resp.Rows)

	writeJSON(w, http.StatusOK, resp)
}

type symbolsResponse struct {
	Style     string   `json:"style"`
	WeekStart string   `json:"week_start"`
	Symbols   []string `json:"symbols"`
}

// handleSymbols returns the column headers.
//
// GET /api/symbols?style=short
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	styleName := r.URL.Query().Get("style")
	if styleName == "" {
		styleName = s.cfg.WeekdaySymbols
	}
	style, err := calendar.ParseSymbolStyle(styleName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbols, err := calendar.WeekdaySymbols(style, s.cal.FirstWeekday(), s.cfg.CustomWeekdaySymbols)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, symbolsResponse{
		Style:     style.String(),
		WeekStart: s.cal.FirstWeekday().String(),
		Symbols:   symbols,
	})
}

type placementDTO struct {
	UID             string    `json:"uid"`
	Summary         string    `json:"summary"`
	Location        string    `json:"location,omitempty"`
	AllDay          bool      `json:"all_day"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Row             int       `json:"row"`
	Column          int       `json:"column"`
	Span            int       `json:"span"`
	Lane            int       `json:"lane"`
	ContinuesBefore bool      `json:"continues_before"`
	ContinuesAfter  bool      `json:"continues_after"`
}

type eventsResponse struct {
	Layout     string         `json:"layout"`
	Anchor     time.Time      `json:"anchor"`
	Placements []placementDTO `json:"placements"`
}

// handleEvents lays the configured events out on the grid of a state.
//
// GET /api/events?layout=week&date=2021-11-11
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	state, ok := s.stateFromQuery(w, r)
	if !ok {
		return
	}
	resp := eventsResponse{
		Layout:     state.Layout().String(),
		Anchor:     state.Anchor(),
		Placements: []placementDTO{},
	}
	if s.opts.Store == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	days := calendar.Days(state)
	from := days[0].Date()
	until := s.cal.AddDays(days[len(days)-1].Date(), 1)
	for _, p := range events.LayoutWeeks(days, s.opts.Store.Between(from, until)) {
		start, end := p.Event.Bounds(s.cal.Location())
		resp.Placements = append(resp.Placements, placementDTO{
			UID:             p.Event.UID,
			Summary:         p.Event.Summary,
			Location:        p.Event.Location,
			AllDay:          p.Event.AllDay,
			Start:           start,
			End:             end,
			Row:             p.Row,
			Column:          p.Column,
			Span:            p.Span,
			Lane:            p.Lane,
			ContinuesBefore: p.ContinuesBefore,
			ContinuesAfter:  p.ContinuesAfter,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) stateFromQuery(w http.ResponseWriter, r *http.Request) (calendar.State, bool) {
	q := r.URL.Query()

	layout := calendar.Month
	if v := q.Get("layout"); v != "" {
		l, err := calendar.ParseLayout(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return calendar.State{}, false
		}
		layout = l
	}

	date := s.cal.Now()
	if v := q.Get("date"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, s.cal.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return calendar.State{}, false
		}
		date = t
	}
	state := s.cal.NewState(layout, date)
	n, err := parseOffset(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return calendar.State{}, false
	}
	if n != 0 {
		state = state.Step(n)
	}
	return state, true
}

const maxOffset = 10000

func parseOffset(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < -maxOffset || n > maxOffset {
		return 0, fmt.Errorf("offset must be an integer between %d and %d", -maxOffset, maxOffset)
	}
	return n, nil
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
