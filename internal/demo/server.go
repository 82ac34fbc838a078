// Package demo serves synthetic provider status so provmon can be tried
// without real machines.
package demo

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/rileyhilliard/provmon/internal/status"
)

// Defaults for Options.
const (
	DefaultProviders = 8
	DefaultSeed      = 1
)

// Options configures a demo Server.
type Options struct {
	Providers int   // providers per snapshot
	Seed      int64 // same seed, same sequence of snapshots
	Now       func() time.Time
	Log       logger.Logger
}

// Server generates a fresh, seeded snapshot of providers for every request.
type Server struct {
	opts   Options
	mu     sync.Mutex
	rng    *rand.Rand
	router chi.Router
}

// New creates a demo server.
func New(opts Options) *Server {
	if opts.Providers <= 0 {
		opts.Providers = DefaultProviders
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}

	s := &Server{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/providers", s.handleProviders)
	r.Get("/providers/{providerID}", s.handleProvider)
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "synthetic failure"})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for the demo routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshot returns the next set of providers.
func (s *Server) Snapshot() []status.RawProvider {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	out := make([]status.RawProvider, s.opts.Providers)
	for i := range out {
		out[i] = s.provider(i, now)
	}
	return out
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")
	for _, p := range s.Snapshot() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("provider %q not found", id)})
}

// provider draws one record; s.mu must be held.
func (s *Server) provider(i int, now time.Time) status.RawProvider {
	n := i + 1
	p := status.RawProvider{
		ID:              fmt.Sprintf("provider-%02d", n),
		YagnaService:    fmt.Sprintf("golem-yagna@%d", n),
		ProviderService: fmt.Sprintf("golem-provider@%d", n),
		LastSeen:        now.Add(-time.Duration(s.rng.Intn(120)) * time.Second).UTC().Format(time.RFC3339),
	}

	switch roll := s.rng.Float64(); {
	case roll < 0.6:
		p.Status = status.StatusWorking
	case roll < 0.9:
		p.Status = status.StatusWaiting
	default:
		p.Status = status.StatusUnknown
	}

	switch p.Status {
	case status.StatusWorking:
		p.YagnaRunning = true
		p.ProviderRunning = true
		p.Work = json.RawMessage(fmt.Sprintf(`{"task":"task-%04d"}`, s.rng.Intn(10000)))
	case status.StatusWaiting:
		p.YagnaRunning = true
		p.ProviderRunning = s.rng.Float64() < 0.8
	default:
		note := "no heartbeat"
		p.Notes = &note
		p.LastSeen = ""
	}

	if p.YagnaRunning {
		p.YagnaPIDs = []int{1000 + s.rng.Intn(9000)}
	}
	if p.ProviderRunning {
		p.ProviderPIDs = []int{1000 + s.rng.Intn(9000)}
		latency := math.Round((5+s.rng.Float64()*195)*10) / 10
		p.LatencyMs = &latency
	}
	return p
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Log.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
