package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/dkedar7/cowork-dash/backend/internal/api/http"
	"github.com/dkedar7/cowork-dash/backend/internal/api/middleware"
	"github.com/dkedar7/cowork-dash/backend/internal/domain/service"
	"github.com/dkedar7/cowork-dash/backend/internal/domain/session"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/config"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/monitoring"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/resilience"
	"github.com/dkedar7/cowork-dash/backend/internal/providers/filesystem"
	"github.com/dkedar7/cowork-dash/backend/internal/providers/shell"
	"github.com/dkedar7/cowork-dash/backend/internal/sandbox"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	sessions  *session.Manager
	services  *service.Registry
	executors *sandbox.Registry
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics

	reaperCancel context.CancelFunc
	reaperDone   chan struct{}
	closeOnce    sync.Once
}

// NewServer creates a new server instance with a logger built from cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.FromConfig(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires every component from cfg onto logger.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing workspace server",
		zap.String("addr", cfg.Addr()),
		zap.String("workspace_root", cfg.Workspace.Root),
		zap.String("sandbox_backend", cfg.Sandbox.Backend),
	)

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
		logger.Info("Performance monitoring initialized")
	}

	// Session manager
	sessions := session.NewManager(
		session.WithRoot(cfg.Workspace.Root),
		session.WithLogger(logger.Named("session")),
	)
	if metrics != nil {
		metrics.TrackSessions(sessions.Stats)
	}

	// Sandbox executors
	executors, err := newExecutors(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	sessions.OnDelete(executors.CleanupSession)
	logger.Info("Sandbox ready", zap.String("backend", string(executors.Kind())))

	// Service registry and providers
	services := service.NewRegistry(logger.Named("services"))
	if metrics != nil {
		services.SetObserver(metrics)
	}
	if err := registerProviders(services, sessions, executors); err != nil {
		return nil, err
	}

	// Router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics, "/metrics"))
	}
	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(sessions, services, executors, metrics, logger.Named("api"))
	var metricsHandler http.Handler
	if metrics != nil {
		metricsHandler = metrics.Handler()
	}
	api.RegisterRoutes(router, handlers, metricsHandler)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		http:      &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second},
		sessions:  sessions,
		services:  services,
		executors: executors,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

func newExecutors(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) (*sandbox.Registry, error) {
	kind, err := sandbox.ParseKind(cfg.Sandbox.Backend)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = sandbox.HostKind()
	}
	backend, err := sandbox.NewBackend(kind, sandbox.BackendConfig{
		Image:  cfg.Sandbox.Image,
		Memory: cfg.Sandbox.Memory,
		CPUs:   cfg.Sandbox.CPUs,
	})
	if err != nil {
		return nil, err
	}
	if kind == sandbox.KindNone {
		logger.Warn("No sandbox backend available; command execution is disabled")
	}

	breakerLog := logger.Named("breaker")
	breaker := resilience.New("sandbox", resilience.Settings{
		FailureThreshold: uint32(cfg.Sandbox.BreakerThreshold),
		Cooldown:         cfg.Sandbox.BreakerCooldown.Std(),
		OnStateChange: func(name string, from, to resilience.State) {
			breakerLog.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if metrics != nil {
				metrics.ObserveBreaker(name, from, to)
			}
		},
	})

	opts := []sandbox.Option{
		sandbox.WithBackend(backend),
		sandbox.WithBaseDir(cfg.Sandbox.BaseDir),
		sandbox.WithCanvasDir(cfg.Workspace.CanvasDir),
		sandbox.WithDefaultTimeout(cfg.Sandbox.DefaultTimeout.Std()),
		sandbox.WithLogger(logger.Named("sandbox")),
		sandbox.WithBreaker(breaker),
	}
	if metrics != nil {
		opts = append(opts, sandbox.WithObserver(metrics))
	}
	return sandbox.NewRegistry(opts...), nil
}

func registerProviders(registry *service.Registry, sessions *session.Manager, executors *sandbox.Registry) error {
	if err := registry.Register(filesystem.NewProvider(sessions)); err != nil {
		return fmt.Errorf("failed to register filesystem provider: %w", err)
	}
	if err := registry.Register(shell.NewProvider(sessions, executors)); err != nil {
		return fmt.Errorf("failed to register shell provider: %w", err)
	}
	return nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the idle reaper and serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.startReaper()
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) startReaper() {
	ttl := s.config.Sessions.IdleTTL.Std()
	if ttl <= 0 {
		return
	}
	interval := s.config.Sessions.ReapInterval.Std()
	ctx, cancel := context.WithCancel(context.Background())
	s.reaperCancel = cancel
	s.reaperDone = make(chan struct{})
	s.logger.Info("Session reaper started",
		zap.Duration("idle_ttl", ttl),
		zap.Duration("interval", interval))

	go func() {
		defer close(s.reaperDone)
		s.sessions.RunReaper(ctx, interval, ttl)
	}()
}

// Shutdown drains HTTP requests, stops the reaper and removes every
// executor's temp directory.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}
		if s.reaperCancel != nil {
			s.reaperCancel()
			<-s.reaperDone
		}
		s.executors.CleanupAll()
		s.logger.Info("Sandbox directories removed")
		_ = s.logger.Sync()
	})
	return err
}

// Close shuts down with the configured grace period.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout.Std())
	defer cancel()
	return s.Shutdown(ctx)
}
