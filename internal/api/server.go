package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tsanders-rh/dockctl/internal/ai"
	apimiddleware "github.com/tsanders-rh/dockctl/internal/api/middleware"
	"github.com/tsanders-rh/dockctl/internal/auth"
	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/host"
	"github.com/tsanders-rh/dockctl/internal/metrics"
	"github.com/tsanders-rh/dockctl/internal/store"
	"github.com/tsanders-rh/dockctl/internal/usage"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port              int           `yaml:"port" env:"PORT" validate:"gte=1,lte=65535"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"FRONTEND_URL" envSeparator:","`
	MaxBodySize       string        `yaml:"max_body_size" env:"MAX_BODY_SIZE"`
	RateLimitRequests int           `yaml:"rate_limit_requests" env:"RATE_LIMIT_REQUESTS" validate:"gte=0"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// SelfID is the ID (or ID prefix) of the container the API runs in
	SelfID string `yaml:"self_id" env:"SELF_CONTAINER_ID"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:              3000,
		ShutdownTimeout:   10 * time.Second,
		AllowedOrigins:    []string{"http://localhost:5173"},
		MaxBodySize:       "10K",
		RateLimitRequests: 1000,
		RateLimitWindow:   15 * time.Minute,
		RequestTimeout:    30 * time.Second,
	}
}

// ResolveSelfID returns the configured self ID or, inside a container, the
// short container ID Docker uses as the hostname
func ResolveSelfID(configured string) string {
	if configured != "" {
		return configured
	}
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	if len(hostname) > apimiddleware.MinIDLength {
		hostname = hostname[:apimiddleware.MinIDLength]
	}
	if ok, _ := apimiddleware.ValidID(hostname); !ok {
		return ""
	}
	return hostname
}

// ActionLog persists container actions
type ActionLog interface {
	Log(ctx context.Context, record *types.ActionRecord) error
	LogBatch(ctx context.Context, records []*types.ActionRecord) error
	List(ctx context.Context, filters store.ActionFilters) ([]*types.ActionRecord, int, error)
}

// UsageHistory reads persisted usage samples
type UsageHistory interface {
	ListSince(ctx context.Context, containerID string, since time.Time, limit int) ([]*types.UsageRecord, error)
}

// IdempotencyCache stores bulk responses keyed by Idempotency-Key
type IdempotencyCache interface {
	Save(ctx context.Context, key, requestHash string, status int, body []byte, ttl time.Duration) error
	Lookup(ctx context.Context, key, requestHash string) (*types.IdempotencyKey, error)
}

// HostInspector reports host capacity
type HostInspector interface {
	Snapshot(ctx context.Context) (*host.Capacity, error)
}

// Dependencies are the collaborators the server routes to. Engine and AI are
// required; a nil Auth disables authentication and the persistence interfaces
// are nil when no database is configured.
type Dependencies struct {
	Engine  engine.Engine
	AI      ai.Analyzer
	Auth    *auth.Auth
	Cost    *cost.Analyzer
	Host    HostInspector
	Metrics *metrics.Metrics
	Bulk    *bulk.Config
	Logger  *zap.Logger

	Actions     ActionLog
	Usage       UsageHistory
	Idempotency IdempotencyCache
}

// UseStore wires the persistence interfaces to a database store
func (d *Dependencies) UseStore(st *store.Store) {
	if st == nil {
		return
	}
	d.Actions = st.Actions
	d.Usage = st.Usage
	d.Idempotency = st.Idempotency
}

// Server represents the HTTP API server
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	deps   Dependencies
	logger *zap.Logger
}

// NewServer creates a new API server
func NewServer(config *ServerConfig, deps Dependencies) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Cost == nil {
		deps.Cost = cost.NewAnalyzer(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Bulk == nil {
		deps.Bulk = bulk.DefaultConfig()
	}
	if deps.Host == nil {
		deps.Host = host.NewInspector(deps.Logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger, we'll use our own
	e.Logger.SetOutput(io.Discard)

	// Set custom validator
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(deps.Logger)

	s := &Server{
		echo:   e,
		config: config,
		deps:   deps,
		logger: deps.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware stack
func (s *Server) setupMiddleware() {
	// Recover from panics
	s.echo.Use(middleware.Recover())

	// Request ID for tracing
	s.echo.Use(middleware.RequestID())

	s.echo.Use(apimiddleware.Logger(s.logger))

	// CORS runs before the rate limiter so 429 responses carry the headers
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.HeaderAPIKey, HeaderIdempotencyKey},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
	}))

	if s.config.RateLimitRequests > 0 && s.config.RateLimitWindow > 0 {
		s.echo.Use(s.rateLimiter())
	}

	// Body limit
	s.echo.Use(middleware.BodyLimit(s.config.MaxBodySize))

	if s.config.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeout(s.config.RequestTimeout))
	}
}

// rateLimiter allows RateLimitRequests per RateLimitWindow per client IP
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	every := rate.Limit(float64(s.config.RateLimitRequests) / s.config.RateLimitWindow.Seconds())

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      every,
			Burst:     s.config.RateLimitRequests,
			ExpiresIn: s.config.RateLimitWindow,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, NewErrorResponse("Too many requests from this IP, please try again later.", ""))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, NewErrorResponse("Unable to identify client", ""))
		},
	})
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.root)
	s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	v1 := s.echo.Group("/api")

	// Public routes
	v1.GET("/health", s.healthCheck)
	authHandler := NewAuthHandler(s.deps.Auth)
	v1.POST("/auth/token", authHandler.Token)

	protected := v1.Group("", auth.RequireAuth(s.deps.Auth))

	validID := apimiddleware.ValidateID()
	notSelf := apimiddleware.PreventSelfTermination(s.config.SelfID)

	containers := NewContainerHandler(s.deps, s.config.SelfID)
	cg := protected.Group("/containers")
	cg.GET("", containers.List)
	cg.POST("", containers.Create)
	cg.POST("/bulk/stop", containers.BulkStop)
	cg.POST("/bulk/remove", containers.BulkRemove)
	cg.POST("/prune", containers.Prune)
	cg.GET("/:id/stats", containers.Stats, validID)
	cg.GET("/:id/logs", containers.Logs, validID)
	cg.GET("/:id/inspect", containers.Inspect, validID)
	cg.POST("/:id/start", containers.Start, validID)
	cg.POST("/:id/stop", containers.Stop, validID, notSelf)
	cg.POST("/:id/restart", containers.Restart, validID, notSelf)
	cg.DELETE("/:id", containers.Remove, validID, notSelf)

	resources := NewResourceHandler(s.deps)
	ig := protected.Group("/images")
	ig.GET("", resources.ListImages)
	ig.POST("/prune", resources.PruneImages)

	ng := protected.Group("/networks")
	ng.GET("", resources.ListNetworks)
	ng.POST("", resources.CreateNetwork)
	ng.DELETE("/:id", resources.RemoveNetwork, validID)

	vg := protected.Group("/volumes")
	vg.GET("", resources.ListVolumes)
	vg.POST("", resources.CreateVolume)
	vg.POST("/prune", resources.PruneVolumes)
	vg.DELETE("/:name", resources.RemoveVolume)

	docker := NewDockerHandler(s.deps)
	dg := protected.Group("/docker")
	dg.GET("/info", docker.Info)
	dg.GET("/health", docker.Health)
	dg.GET("/host", docker.Host)

	collector := usage.NewCollector(s.deps.Engine, bulk.NewDispatcher(s.deps.Bulk, s.deps.Metrics.BulkObserver("sample")), s.logger)
	aiHandler := NewAIHandler(s.deps, collector)
	ag := protected.Group("/ai")
	ag.POST("/analyze-logs/:id", aiHandler.AnalyzeLogs, validID)
	ag.GET("/optimize/:id", aiHandler.Optimize, validID)
	ag.POST("/natural-language", aiHandler.NaturalLanguage)
	ag.GET("/cost-analysis", aiHandler.CostAnalysis)

	if s.deps.Actions != nil || s.deps.Usage != nil {
		history := NewHistoryHandler(s.deps)
		hg := protected.Group("/history")
		if s.deps.Actions != nil {
			hg.GET("/actions", history.Actions)
		}
		if s.deps.Usage != nil {
			hg.GET("/usage", history.Usage)
		}
	}
}

// root returns the service banner
func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Docker Node Controller API - AI-Powered Edition",
		"version": "3.0.0",
		"features": []string{
			"AI-Powered Log Analysis & Diagnostics",
			"Smart Cost Optimization & Savings Calculator",
			"Natural Language Docker Commands",
			"Predictive Health Monitoring",
			"Complete Container Lifecycle Management",
			"Docker Networks & Volumes Management",
			"Bulk Operations & Resource Pruning",
		},
		"endpoints": map[string]string{
			"health":     "/api/health",
			"containers": "/api/containers",
			"images":     "/api/images",
			"networks":   "/api/networks",
			"volumes":    "/api/volumes",
			"docker":     "/api/docker",
			"ai":         "/api/ai",
			"metrics":    "/metrics",
		},
	})
}

// healthCheck returns basic health status
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Docker Node Controller API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting API server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance for testing
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
