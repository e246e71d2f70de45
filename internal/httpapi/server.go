// Package httpapi exposes the device's HTTP surface: the control page,
// manual feeding, schedule updates and the state snapshot.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"petfeeder/internal/feeder"
	logx "petfeeder/pkg/logx"
)

// Config controls the HTTP listener.
type Config struct {
	Enabled bool
	Address string
	// FeedPerMin/FeedBurst bound manual feed requests. The facade itself
	// never debounces manual feeds; this only protects the servo from a
	// misbehaving network client. Zero values pick defaults.
	FeedPerMin int
	FeedBurst  int
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = "0.0.0.0:8080"
	}
	if c.FeedPerMin <= 0 {
		c.FeedPerMin = 6
	}
	if c.FeedBurst <= 0 {
		c.FeedBurst = 2
	}
	return c
}

// Server manages lifecycle for the device HTTP listener.
type Server struct {
	svc *feeder.Service

	mu      sync.Mutex
	log     logx.Logger
	srv     *http.Server
	ln      net.Listener
	addr    string
	cfg     Config
	limiter *rate.Limiter
}

func New(svc *feeder.Service, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{svc: svc, log: log.With(logx.String("comp", "http"))}
}

// Apply starts/stops/restarts the server according to cfg.
func (s *Server) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Limiter knobs apply even without a listener restart.
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(float64(cfg.FeedPerMin)/60.0), cfg.FeedBurst)

	if !cfg.Enabled {
		s.stopLocked(ctx)
		return
	}
	if s.srv != nil && s.addr == cfg.Address {
		return
	}

	s.stopLocked(ctx)
	s.startLocked(cfg)
}

func (s *Server) startLocked(cfg Config) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/feed", s.handleFeed)
	mux.HandleFunc("/set-schedule", s.handleSetSchedule)
	mux.HandleFunc("/state", s.handleState)

	srv := &http.Server{Addr: cfg.Address, Handler: mux}
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		s.log.Warn("http listen failed", logx.String("addr", cfg.Address), logx.Err(err))
		return
	}

	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("http server error", logx.Err(err))
		}
	}()
	s.log.Info("http listening", logx.String("addr", s.addr))
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv := s.srv
	ln := s.ln
	addr := s.addr
	s.srv = nil
	s.ln = nil
	s.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("http shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("http stopped", logx.String("addr", addr))
}

// Addr reports the actual listen address if running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) allowFeed() bool {
	s.mu.Lock()
	lim := s.limiter
	s.mu.Unlock()
	return lim == nil || lim.Allow()
}
