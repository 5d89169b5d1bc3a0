package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/HammerMeetNail/conversando/internal/config"
	"github.com/HammerMeetNail/conversando/internal/database"
	"github.com/HammerMeetNail/conversando/internal/handlers"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/middleware"
	"github.com/HammerMeetNail/conversando/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env":    cfg.Server.Environment,
			"source": cfg.Source,
		})
	}

	logger.Info("Starting Conversando server...")

	checks := map[string]handlers.HealthChecker{}

	// Connect to the registry
	var registry services.Registry
	switch cfg.Source {
	case config.SourcePostgres:
		logger.Info("Connecting to PostgreSQL", map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
		})
		db, err := database.NewPostgresDB(context.Background(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		logger.Info("Connected to PostgreSQL")

		logger.Info("Running database migrations...")
		migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
		if err != nil {
			return fmt.Errorf("creating migrator: %w", err)
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return fmt.Errorf("running migrations: %w", err)
		}
		_ = migrator.Close()
		logger.Info("Migrations completed")

		registry = services.NewPostgresSource(services.NewPoolAdapter(db.Pool))
		checks["postgres"] = db
	default:
		logger.Info("Connecting to Google Sheets", map[string]interface{}{
			"spreadsheet_id": cfg.Sheets.SpreadsheetID,
		})
		sheetsDB, err := database.NewSheetsDB(context.Background(), cfg.Sheets)
		if err != nil {
			return fmt.Errorf("connecting to sheets: %w", err)
		}
		registry = services.NewSheetsSource(sheetsDB, cfg.Sheets.CodesRange, cfg.Sheets.QuestionsRange)
		checks["sheets"] = sheetsDB
	}

	// Connect to Redis. The validator keeps working without it, only
	// unthrottled.
	var limiterStore middleware.Evaler
	if cfg.Redis.Enabled {
		logger.Info("Connecting to Redis", map[string]interface{}{
			"addr": cfg.Redis.Addr(),
		})
		redisDB, err := database.NewRedisDB(context.Background(), cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable; rate limiting disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer func() { _ = redisDB.Close() }()
			logger.Info("Connected to Redis")
			limiterStore = redisDB.Client
			checks["redis"] = redisDB
		}
	}

	// Initialize services
	validator := services.NewCodeValidator(registry, clockwork.NewRealClock(), logger)
	questionService := services.NewQuestionService(registry)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(checks)
	codeHandler := handlers.NewCodeHandler(validator)
	questionHandler := handlers.NewQuestionHandler(questionService)
	cardImageHandler := handlers.NewCardImageHandler()

	// Initialize middleware
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)

	validateLimit := resolveValidateRateLimit(cfg, logger, os.LookupEnv)
	validateLimiter := middleware.NewRateLimiter(
		limiterStore,
		validateLimit,
		cfg.RateLimit.ValidateWindow,
		"ratelimit:validate:",
		middleware.ClientIPFunc(cfg.Server.TrustProxy),
		true,
	).WithLimitHandler(http.HandlerFunc(codeHandler.RateLimited))

	mux := newRouter(routes{
		health:    healthHandler,
		codes:     codeHandler,
		questions: questionHandler,
		cardImage: cardImageHandler,
		limiter:   validateLimiter,
	})

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Sheets reads happen inline on every request.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

type routes struct {
	health    *handlers.HealthHandler
	codes     *handlers.CodeHandler
	questions *handlers.QuestionHandler
	cardImage *handlers.CardImageHandler
	limiter   *middleware.RateLimiter
}

func newRouter(r routes) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (no rate limit)
	mux.HandleFunc("GET /health", r.health.Health)
	mux.HandleFunc("GET /ready", r.health.Ready)
	mux.HandleFunc("GET /live", r.health.Live)

	// Access codes
	mux.Handle("POST /api/validate-code", r.limiter.Middleware(http.HandlerFunc(r.codes.Validate)))

	// Questions
	mux.HandleFunc("GET /api/questions", r.questions.List)
	mux.HandleFunc("GET /api/cards/image", r.cardImage.Serve)

	return mux
}

// resolveValidateRateLimit lets development run with a looser limit unless
// VALIDATE_RATE_LIMIT is set explicitly.
func resolveValidateRateLimit(cfg *config.Config, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	limit := cfg.RateLimit.ValidateLimit
	if limit <= 0 {
		limit = 30
	}
	v, ok := lookupEnv("VALIDATE_RATE_LIMIT")
	if ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			logger.Info("Using validate rate limit from env", map[string]interface{}{"limit": parsed})
			return parsed
		}
		logger.Warn("Invalid VALIDATE_RATE_LIMIT; using default", map[string]interface{}{
			"value": v,
			"limit": limit,
		})
		return limit
	}
	if cfg.Server.Environment == "development" {
		limit = 300
		logger.Info("Using development validate rate limit", map[string]interface{}{"limit": limit})
	}
	return limit
}
