package server

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prahasith1996/video-player/internal/auth"
	"github.com/prahasith1996/video-player/internal/docs"
	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/httputil"
	"github.com/prahasith1996/video-player/internal/ratelimit"
	"github.com/prahasith1996/video-player/internal/session"
	"github.com/prahasith1996/video-player/internal/validate"
	"github.com/prahasith1996/video-player/internal/viewer"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ReportStorage uploads exported reports and signs download links.
type ReportStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURLWithDisposition(ctx context.Context, key string, filename string, expiry time.Duration) (string, error)
}

// DocumentInvalidator drops cached copies of a replaced document.
type DocumentInvalidator interface {
	Invalidate(ctx context.Context, videoID string)
}

type Config struct {
	Sessions    *session.Manager
	SessionAuth *auth.SessionAuth
	AdminAuth   *auth.AdminAuth
	Viewers     *viewer.Describer
	// Documents enables the admin document routes when set.
	Documents     hotspot.Store
	DocumentCache DocumentInvalidator
	// Reports enables report export when set.
	Reports         ReportStorage
	ReportURLExpiry time.Duration

	Pinger                Pinger
	WebFS                 fs.FS
	BaseURL               string
	StorageEndpoint       string
	AllowedFrameAncestors string
	EnableDocs            bool
}

type Server struct {
	router   chi.Router
	cfg      Config
	limiters []*ratelimit.Limiter
}

func New(cfg Config) *Server {
	if cfg.ReportURLExpiry <= 0 {
		cfg.ReportURLExpiry = time.Hour
	}

	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:               cfg.BaseURL,
		StorageEndpoint:       cfg.StorageEndpoint,
		AllowedFrameAncestors: cfg.AllowedFrameAncestors,
	}))

	s := &Server{router: r, cfg: cfg}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the rate limiters' background sweeps.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}

func (s *Server) limiter(rate float64, burst int, key ratelimit.KeyFunc) *ratelimit.Limiter {
	l := ratelimit.NewKeyedLimiter(rate, burst, key)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)

	if s.cfg.EnableDocs {
		s.router.Get("/api/docs", docs.HandleDocs)
		s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)
	}

	if s.cfg.Sessions != nil && s.cfg.SessionAuth != nil {
		s.router.Get("/api/profiles", s.handleListProfiles)

		createLimiter := s.limiter(1, 10, ratelimit.ByClientIP)
		eventLimiter := s.limiter(20, 40, ratelimit.BySession)
		controlLimiter := s.limiter(5, 20, ratelimit.BySession)

		s.router.Route("/api/sessions", func(r chi.Router) {
			r.With(createLimiter.Middleware).Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.cfg.SessionAuth.Middleware)
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.With(eventLimiter.Middleware).Post("/events", s.handleEvent)

				r.Group(func(r chi.Router) {
					r.Use(controlLimiter.Middleware)
					r.Post("/play", s.handlePlay)
					r.Post("/pause", s.handlePause)
					r.Post("/toggle", s.handleToggle)
					r.Post("/seek", s.handleSeek)
					r.Post("/keys", s.handleKey)
					r.Put("/gate", s.handleGate)
					r.Post("/report/export", s.handleExportReport)
				})

				r.Get("/report", s.handleGetReport)
				r.Get("/report.csv", s.handleReportCSV)
			})
		})
	}

	if s.cfg.Documents != nil && s.cfg.AdminAuth != nil {
		s.router.Route("/api/documents", func(r chi.Router) {
			r.Use(s.cfg.AdminAuth.Middleware)
			r.Put("/{videoId}", s.handlePutDocument)
			r.Get("/{videoId}", s.handleGetDocument)
		})
	}

	if s.cfg.WebFS != nil {
		spa := newSPAFileServer(s.cfg.WebFS)
		s.router.NotFound(spa.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.cfg.Pinger != nil {
		if err := s.cfg.Pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}
