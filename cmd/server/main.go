package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/jobtrack/internal/handler"
	"github.com/yourorg/jobtrack/internal/infrastructure/logger"
	"github.com/yourorg/jobtrack/internal/infrastructure/redis"
	"github.com/yourorg/jobtrack/internal/observability/metrics"
	"github.com/yourorg/jobtrack/internal/observability/tracing"
	"github.com/yourorg/jobtrack/internal/reliability/retry"
	"github.com/yourorg/jobtrack/internal/repository"
	"github.com/yourorg/jobtrack/internal/security/audit"
	"github.com/yourorg/jobtrack/internal/security/middleware"
	"github.com/yourorg/jobtrack/internal/security/ratelimit"
	"github.com/yourorg/jobtrack/internal/service"
	"github.com/yourorg/jobtrack/internal/session"
	"github.com/yourorg/jobtrack/internal/web"
	"github.com/yourorg/jobtrack/internal/worker"
	"github.com/yourorg/jobtrack/pkg/cache"
	"github.com/yourorg/jobtrack/pkg/config"
	"github.com/yourorg/jobtrack/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting JobTrack server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "jobtrack", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and run migrations. Retried because the database
	// may come up after the server in a fresh deploy.
	var dbPool *database.ConnectionPool
	err = retry.Do(ctx, retry.DefaultConfig(), log, "connect database", func(ctx context.Context) error {
		var connErr error
		dbPool, connErr = database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, log)
		return connErr
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Migrate(ctx); err != nil {
		log.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Connect to Redis (session revocation list)
	var redisClient *redis.Client
	err = retry.Do(ctx, retry.DefaultConfig(), log, "connect redis", func(ctx context.Context) error {
		var connErr error
		redisClient, connErr = redis.NewClient(cfg.RedisURL)
		return connErr
	})
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories and report cache
	userRepo := repository.NewPostgresUserRepository(dbPool.GetDB(), log)
	appRepo := repository.NewPostgresApplicationRepository(dbPool.GetDB(), log)
	reportCache := cache.New()

	// 7. Initialize services
	authService := service.NewAuthService(userRepo, log)
	appService := service.NewApplicationService(appRepo, reportCache, log)
	reportService := service.NewReportService(appRepo, reportCache, cfg.ReportCacheTTL, cfg.PageSize, log)

	// 8. Sessions, rate limiting, audit
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, redisClient, log)
	loginLimiter := ratelimit.NewLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
	auditLogger := audit.NewLogger(log)

	// 9. Templates and handlers
	renderer, err := web.NewRenderer(log)
	if err != nil {
		log.Error("failed to load templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authHandler := handler.NewAuthHandler(authService, sessions, auditLogger, renderer, log)
	dashboardHandler := handler.NewDashboardHandler(reportService, renderer, log)
	boardHandler := handler.NewBoardHandler(appService, auditLogger, renderer, log)
	healthHandler := handler.NewHealthHandler(handler.PingerFunc(dbPool.Health), redisClient, log)

	// 10. Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", authHandler.Index)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("GET /logout", authHandler.Logout)

	mux.Handle("GET /dashboard", middleware.RequireAuth(dashboardHandler))
	mux.Handle("GET /applications", middleware.RequireAuth(http.HandlerFunc(boardHandler.Board)))
	mux.Handle("POST /add_job", middleware.RequireAuth(http.HandlerFunc(boardHandler.Add)))
	mux.Handle("POST /delete_job/{id}", middleware.RequireAuth(http.HandlerFunc(boardHandler.Delete)))
	mux.Handle("POST /edit_job/{id}", middleware.RequireAuth(http.HandlerFunc(boardHandler.Edit)))
	mux.Handle("POST /update_status/{id}",
		middleware.RequireAuthJSON(middleware.RequireJSON(log)(http.HandlerFunc(boardHandler.UpdateStatus))))

	mux.HandleFunc("GET /healthz", healthHandler.Live)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> metrics -> rate limit -> session
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.RateLimitMiddleware(loginLimiter, log)(
				middleware.SessionMiddleware(sessions, log)(mux),
			),
		),
		log,
	)

	// 11. Start stats worker in background
	statsWorker := worker.NewStatsWorker(appRepo, log, time.Duration(cfg.StatsIntervalMins)*time.Minute)
	go statsWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "http.server"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "session-cookie"),
		slog.Int("page_size", cfg.PageSize),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	loginLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
