package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/jobs"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/persistence"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/secrets"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/service"
)

type queueStatuser interface {
	Status(ctx context.Context) (*jobs.QueueStatus, error)
}

type scheduleStore interface {
	CreateSchedule(ctx context.Context, schedule persistence.Schedule) (int64, error)
	ListSchedules(ctx context.Context, activeOnly bool) ([]persistence.Schedule, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	automation *service.Automation
	queue      queueStatuser
	creds      *secrets.Store
	schedules  scheduleStore
	db         pinger

	requiredServices []string

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithCredentialStore(creds *secrets.Store, required []string) Option {
	return func(s *Server) {
		s.creds = creds
		s.requiredServices = required
	}
}

func WithScheduleStore(store scheduleStore) Option {
	return func(s *Server) {
		s.schedules = store
	}
}

// WithStorePing lets the health endpoint verify database connectivity.
func WithStorePing(db pinger) Option {
	return func(s *Server) {
		s.db = db
	}
}

func NewServer(automation *service.Automation, queue queueStatuser, opts ...Option) *Server {
	s := &Server{
		automation: automation,
		queue:      queue,
		uiEnabled:  false,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/videos/create", s.handleCreateVideo)
	s.mux.HandleFunc("/api/videos", s.handleListVideos)
	s.mux.HandleFunc("/api/videos/", s.handleVideoByID)
	s.mux.HandleFunc("/api/jobs", s.handleListJobs)
	s.mux.HandleFunc("/api/jobs/queue/status", s.handleQueueStatus)
	s.mux.HandleFunc("/api/jobs/", s.handleJobByID)
	s.mux.HandleFunc("/api/config/save", s.handleConfigSave)
	s.mux.HandleFunc("/api/config/status", s.handleConfigStatus)
	s.mux.HandleFunc("/api/schedules", s.handleSchedules)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
