package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
	"github.com/robfig/cron/v3"

	"plancal/internal/agenda"
	"plancal/internal/calendar"
	"plancal/internal/config"
	perr "plancal/internal/errors"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/source"
	"plancal/internal/syntax"
)

const (
	agendaCacheTTL  = 30 * time.Second
	agendaCacheSize = 64
)

// Server exposes the resolved agenda over HTTP.
//
//	GET  /health
//	GET  /api/agenda?range=today+--+%2B1w
//	GET  /api/agenda.ics?range=...
//	GET  /api/diagnostics
//	POST /api/refresh
type Server struct {
	cfg     *config.Config
	loader  *source.Loader
	sources []source.Source
	router  *chi.Mux
	now     func() time.Time

	docsMu   sync.RWMutex
	docs     []*model.Document
	loadedAt time.Time

	// Built agendas keyed by today and range, so repeated UI polls do not
	// re-resolve every entry.
	agendaMu    sync.RWMutex
	agendaCache map[string]*agendaCache
}

type agendaCache struct {
	agenda    *agenda.Agenda
	updatedAt time.Time
}

// NewServer constructs a Server for the given documents.
func NewServer(cfg *config.Config, loader *source.Loader, sources []source.Source) *Server {
	s := &Server{
		cfg:         cfg,
		loader:      loader,
		sources:     sources,
		now:         time.Now,
		agendaCache: map[string]*agendaCache{},
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.RequestID,
		chimw.Recoverer,
		chimw.Timeout(60*time.Second),
		chimw.NoCache,
		chicors.Handler(chicors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}),
		// Registered before auth so /health stays open.
		chimw.Heartbeat("/health"),
	)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuthMiddleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/agenda", s.handleAgenda)
		r.Get("/agenda.ics", s.handleICS)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

func (s *Server) basicAuthEnabled() bool {
	return s.cfg != nil && s.cfg.BasicAuth != nil &&
		s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="plancal", charset="UTF-8"`)
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

// Reload reads every source again and drops the agenda cache.
func (s *Server) Reload(ctx context.Context) {
	start := time.Now()
	docs := agenda.Load(ctx, s.loader, s.sources)

	s.docsMu.Lock()
	s.docs = docs
	s.loadedAt = time.Now()
	s.docsMu.Unlock()

	s.agendaMu.Lock()
	s.agendaCache = map[string]*agendaCache{}
	s.agendaMu.Unlock()

	appLog.Info("plans reloaded", "sources", len(s.sources), "took", time.Since(start))
}

func (s *Server) documents(ctx context.Context) []*model.Document {
	s.docsMu.RLock()
	docs := s.docs
	s.docsMu.RUnlock()
	if docs != nil {
		return docs
	}
	s.Reload(ctx)
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	return s.docs
}

func (s *Server) location(docs []*model.Document) *time.Location {
	loc, err := s.cfg.Location(agenda.Timezone(docs))
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err)
		return time.Local
	}
	return loc
}

// build resolves the agenda for the range expression rng, relative to
// the current day in the display timezone.
func (s *Server) build(ctx context.Context, rng string) (*agenda.Agenda, error) {
	docs := s.documents(ctx)
	loc := s.location(docs)
	today := calendar.FromTime(s.now().In(loc))
	if rng == "" {
		rng = s.cfg.DefaultRange
	}

	key := today.String() + "|" + rng
	now := time.Now()
	s.agendaMu.RLock()
	ac := s.agendaCache[key]
	s.agendaMu.RUnlock()
	if ac != nil && now.Sub(ac.updatedAt) < agendaCacheTTL {
		return ac.agenda, nil
	}

	w, err := syntax.ParseRange(rng, today)
	if err != nil {
		return nil, err
	}
	a := agenda.Build(docs, agenda.Options{
		Window:         w,
		Today:          today,
		Location:       loc,
		MaxOccurrences: s.cfg.MaxOccurrences,
		Parallel:       s.cfg.Parallel,
	})

	s.agendaMu.Lock()
	if len(s.agendaCache) >= agendaCacheSize {
		s.agendaCache = map[string]*agendaCache{}
	}
	s.agendaCache[key] = &agendaCache{agenda: a, updatedAt: now}
	s.agendaMu.Unlock()
	return a, nil
}

// StartRefresh reloads the documents on the configured cron schedule
// until the returned stop function is called.
func (s *Server) StartRefresh(ctx context.Context) (stop func(), err error) {
	c := cron.New(cron.WithLocation(s.location(s.documents(ctx))))
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() { s.Reload(ctx) }); err != nil {
		return nil, perr.Wrapf(err, perr.KindConfig, "refresh schedule %q", s.cfg.RefreshCron)
	}
	c.Start()
	appLog.Info("refresh scheduled", "cron", s.cfg.RefreshCron)
	return func() { <-c.Stop().Done() }, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	stop, err := s.StartRefresh(ctx)
	if err != nil {
		return err
	}
	defer stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return perr.Wrap(err, perr.KindIO, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// agendaResponse is the JSON response shape for /api/agenda.
type agendaResponse struct {
	From        string          `json:"from"`
	Until       string          `json:"until"`
	Today       string          `json:"today"`
	Timezone    string          `json:"timezone"`
	Items       []itemDTO       `json:"items"`
	Overdue     int             `json:"overdue"`
	Reminders   int             `json:"reminders"`
	Diagnostics []diagnosticDTO `json:"diagnostics"`
}

type itemDTO struct {
	UID         string   `json:"uid"`
	EntryID     string   `json:"entry_id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description []string `json:"description,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"`
	AllDay      bool     `json:"all_day"`
	Status      string   `json:"status,omitempty"`
	Overdue     bool     `json:"overdue,omitempty"`
	RemindAt    string   `json:"remind_at,omitempty"`
	MovedFrom   string   `json:"moved_from,omitempty"`
	Age         *int     `json:"age,omitempty"`
}

type diagnosticDTO struct {
	Entry   string `json:"entry,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Kind    string `json:"kind"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message"`
}

func toItemDTO(it agenda.Item) itemDTO {
	d := itemDTO{
		UID:         ics.UID(it),
		EntryID:     it.EntryID,
		Kind:        it.Kind.String(),
		Title:       it.Title,
		Description: it.Description,
		Start:       it.Start.String(),
		AllDay:      !it.Start.Timed(),
		Overdue:     it.Overdue,
		Age:         it.Age,
	}
	if it.End != nil {
		d.End = it.End.String()
	}
	if it.Kind == model.Task {
		d.Status = it.Status().String()
	}
	if it.RemindAt != nil {
		d.RemindAt = it.RemindAt.String()
	}
	if it.MovedFrom != nil {
		d.MovedFrom = it.MovedFrom.String()
	}
	return d
}

func toDiagnostics(l perr.List) []diagnosticDTO {
	out := make([]diagnosticDTO, 0, len(l))
	for _, err := range l {
		e, ok := perr.As(err)
		if !ok {
			out = append(out, diagnosticDTO{Kind: perr.KindUnknown.String(), Message: err.Error()})
			continue
		}
		out = append(out, diagnosticDTO{
			Entry:   e.Entry(),
			Line:    e.Pos().Line,
			Column:  e.Pos().Column,
			Kind:    e.Kind().String(),
			Date:    e.Date(),
			Message: e.Message(),
		})
	}
	return out
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	a, err := s.build(r.Context(), rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]itemDTO, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, toItemDTO(it))
	}
	appLog.Debug("api agenda request", "range", rng, "window", a.Window, "items", len(items))
	writeJSON(w, http.StatusOK, agendaResponse{
		From:        a.Window.From.String(),
		Until:       a.Window.Until.String(),
		Today:       a.Today.String(),
		Timezone:    a.Location.String(),
		Items:       items,
		Overdue:     len(a.Overdue()),
		Reminders:   len(a.Reminders()),
		Diagnostics: toDiagnostics(a.Diagnostics),
	})
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	a, err := s.build(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := ics.Write(w, a, ics.Options{Name: "plancal", Now: s.now()}); err != nil {
		appLog.Error("failed to write ics response", err)
	}
}

// handleDiagnostics reports the problems of the default range, parse
// errors included.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	a, err := s.build(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.docsMu.RLock()
	loadedAt := s.loadedAt
	s.docsMu.RUnlock()
	writeJSON(w, http.StatusOK, struct {
		LoadedAt    time.Time       `json:"loaded_at"`
		Diagnostics []diagnosticDTO `json:"diagnostics"`
	}{loadedAt, toDiagnostics(a.Diagnostics)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Reload(r.Context())
	w.WriteHeader(http.StatusNoContent)
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
