// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/halcyonpay/fraudsentry/internal/circuitbreaker"
	"github.com/halcyonpay/fraudsentry/internal/collector"
	"github.com/halcyonpay/fraudsentry/internal/config"
	"github.com/halcyonpay/fraudsentry/internal/gateway"
	"github.com/halcyonpay/fraudsentry/internal/health"
	"github.com/halcyonpay/fraudsentry/internal/ledger"
	"github.com/halcyonpay/fraudsentry/internal/logging"
	"github.com/halcyonpay/fraudsentry/internal/metrics"
	"github.com/halcyonpay/fraudsentry/internal/ratelimit"
	"github.com/halcyonpay/fraudsentry/internal/risk"
	"github.com/halcyonpay/fraudsentry/internal/segment"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	ledger       *ledger.Ledger
	aggregator   *risk.Aggregator
	gateway      gateway.Analyzer
	collector    *collector.Collector
	riskStore    risk.Store
	segmentStore segment.Store
	rateLimiter  *ratelimit.Limiter
	healthReg    *health.Registry
	db           *sql.DB // nil if using in-memory
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLedger injects a pre-loaded ledger (for testing)
func WithLedger(l *ledger.Ledger) Option {
	return func(s *Server) {
		s.ledger = l
	}
}

// WithCollectorProvider injects a data collection provider (for testing)
func WithCollectorProvider(p collector.Provider) Option {
	return func(s *Server) {
		s.collector = collector.New(p)
	}
}

// WithAnalysisGateway injects the analysis gateway (for testing)
func WithAnalysisGateway(g gateway.Analyzer) Option {
	return func(s *Server) {
		s.gateway = g
	}
}

// New creates a new server instance. The fraud ledger is loaded during
// construction; an empty or unreachable source is a fatal error.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set ledger/logger)
	for _, opt := range opts {
		opt(s)
	}

	// Context for initialization
	ctx := context.Background()

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db

		riskStore := risk.NewPostgresStore(db)
		if err := riskStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate assessment store", "error", err)
		}
		s.riskStore = riskStore

		segmentStore := segment.NewPostgresStore(db)
		if err := segmentStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate segment store", "error", err)
		}
		s.segmentStore = segmentStore

		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
	} else {
		s.riskStore = risk.NewMemoryStore()
		s.segmentStore = segment.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	// Load the fraud ledger unless injected. Startup without it would
	// silently score every customer as unknown, so failure is fatal.
	if s.ledger == nil {
		src, err := s.ledgerSource()
		if err != nil {
			return nil, err
		}
		l, err := ledger.Load(ctx, src, s.logger)
		if err != nil {
			return nil, fmt.Errorf("ledger load: %w", err)
		}
		s.ledger = l
	}
	s.logger.Info("fraud ledger loaded",
		"records", s.ledger.Size(),
		"blacklisted_customers", s.ledger.BlacklistSize(),
		"mean_amount", s.ledger.MeanAmount(),
	)
	metrics.SetLedgerStats(s.ledger.Size(), s.ledger.BlacklistSize(), s.ledger.MeanAmount())

	// Multi-agent risk engine over the loaded ledger
	agg, err := risk.NewAggregator(s.ledger, s.segmentStore,
		risk.WithLogger(s.logger),
		risk.WithStore(s.riskStore),
	)
	if err != nil {
		return nil, fmt.Errorf("risk engine: %w", err)
	}
	s.aggregator = agg

	// Primary analyzer: in-process engine, or a remote scoring service
	if s.gateway == nil {
		var primary gateway.Analyzer
		if cfg.AnalyzerURL != "" {
			primary = gateway.NewRemoteAnalyzer(cfg.AnalyzerURL)
			s.logger.Info("using remote analyzer", "url", cfg.AnalyzerURL)
		} else {
			primary = gateway.NewLocalAnalyzer(agg)
		}

		s.gateway = gateway.New(
			primary,
			gateway.NewFallbackScorer(gateway.DefaultPatterns, gateway.NewTimeJitter()),
			gateway.WithTimeout(cfg.AnalyzerTimeout),
			gateway.WithLogger(s.logger),
			gateway.WithBreaker(circuitbreaker.New(5, 30*time.Second)),
		)
	}

	// Data collection fan-out (simulated providers unless injected)
	if s.collector == nil {
		s.collector = collector.New(collector.NewSimulatedProvider(time.Now().UnixNano()))
	}

	// Health checks
	s.healthReg = health.NewRegistry()
	s.healthReg.Register("ledger", func(ctx context.Context) health.Status {
		if s.ledger.Size() == 0 {
			return health.Status{Name: "ledger", Healthy: false, Detail: "no fraud records loaded"}
		}
		return health.Status{Name: "ledger", Healthy: true}
	})
	if s.db != nil {
		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			if err := s.db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	}

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// ledgerSource picks the ledger source from config: a local file wins
// over the object store so dev runs never need network access.
func (s *Server) ledgerSource() (ledger.Source, error) {
	if s.cfg.LedgerFile != "" {
		return ledger.NewFileSource(s.cfg.LedgerFile), nil
	}
	if s.cfg.LedgerEndpoint != "" {
		return ledger.NewObjectStoreSource(
			s.cfg.LedgerEndpoint,
			s.cfg.LedgerBucket,
			s.cfg.LedgerKey,
			30*time.Second,
		), nil
	}
	return nil, errors.New("no ledger source configured")
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPS > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPS * 60
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/healthz", s.healthHandler)
	s.router.GET("/livez", s.livenessHandler)
	s.router.GET("/readyz", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	v1.POST("/analyze-fraud", s.analyzeFraudHandler)
	v1.POST("/decide", s.decideHandler)
	v1.GET("/ledger/stats", s.ledgerStatsHandler)
	v1.GET("/customers/:id/assessments", s.listAssessmentsHandler)
	v1.PUT("/customers/:id/segment", s.upsertSegmentHandler)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"ledger_records", s.ledger.Size(),
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Sample DB pool stats into Prometheus gauges
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
