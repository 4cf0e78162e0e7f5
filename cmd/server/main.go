package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	accessapp "github.com/society/backend/internal/application/access"
	billingapp "github.com/society/backend/internal/application/billing"
	identityapp "github.com/society/backend/internal/application/identity"
	maintenanceapp "github.com/society/backend/internal/application/maintenance"
	societyapp "github.com/society/backend/internal/application/society"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/auth"
	"github.com/society/backend/internal/infrastructure/cache"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/society/backend/internal/infrastructure/event"
	"github.com/society/backend/internal/infrastructure/logger"
	"github.com/society/backend/internal/infrastructure/persistence"
	"github.com/society/backend/internal/infrastructure/statement"
	"github.com/society/backend/internal/infrastructure/storage"
	"github.com/society/backend/internal/infrastructure/telemetry"
	"github.com/society/backend/internal/interfaces/http/handler"
	"github.com/society/backend/internal/interfaces/http/middleware"
	"github.com/society/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Society Console API
//	@version		1.0
//	@description	Permissions, maintenance schedules, billing reports and payment ledgers of a housing society.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry comes first so that the bridged logger is used everywhere else
	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if tel.Logs.IsEnabled() {
		log = tel.Logs.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	}

	log.Info("Starting society console backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		SlowQueryThresh: 200 * time.Millisecond,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		log.Warn("Redis not configured, using in-memory token blacklist")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	permissionCache := cache.NewPermissionCache(redisClient, cfg.Permission.CacheTTL, log)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	typeRepo := persistence.NewGormApartmentTypeRepository(db.DB)
	apartmentRepo := persistence.NewGormApartmentRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewGrantsChangedHandler(roleRepo, permissionCache, blacklist, cfg.JWT.RefreshTokenExpiration, log))
	eventBus.Subscribe(event.NewPaymentRecordedHandler(tel.Metrics))

	currency := valueobject.Currency(cfg.Billing.Currency)
	guard := accessapp.NewGuard(fallbackPolicy(cfg.Permission), log, accessapp.WithDecisionRecorder(tel.Metrics))

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	permissionService := accessapp.NewPermissionService(roleRepo, permissionCache, eventBus, log)
	authService := identityapp.NewAuthService(
		userRepo, permissionService, permissionCache, jwtService, blacklist,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockDuration:     cfg.Auth.LockDuration,
		},
		log,
	)
	apartmentService := societyapp.NewApartmentService(typeRepo, apartmentRepo, log)
	scheduleService := maintenanceapp.NewScheduleService(scheduleRepo, typeRepo, eventBus, currency, log)
	reportService := billingapp.NewReportService(billRepo, scheduleService, permissionService, guard, tel.Metrics,
		billingapp.ReportServiceConfig{
			Currency:             currency,
			RejectUnmatchedTypes: cfg.Billing.RejectUnmatchedTypes,
			MaxReportDays:        cfg.Billing.MaxReportDays,
		},
		log,
	)
	paymentService := billingapp.NewPaymentService(billRepo, paymentRepo, guard, eventBus, currency, log)

	statements, closeStatements, err := newStatementService(ctx, cfg, billRepo, scheduleService, guard, currency, log)
	if err != nil {
		log.Fatal("Failed to initialize bill statements", zap.Error(err))
	}
	defer closeStatements()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Start the request span
	// 4. Logger - Log requests with trace IDs
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Metrics - Count requests and latencies
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tel.Tracer.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(tel.Meter.Meter(telemetry.TracerName)))

	systemHandler := handler.NewSystemHandler(version, healthChecks(db, redisClient))
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	var loginLimiter *middleware.RateLimiter
	if cfg.HTTP.LoginRateLimit > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
		log.Info("Login rate limiting enabled",
			zap.Int("requests", cfg.HTTP.LoginRateLimit),
			zap.Duration("window", cfg.HTTP.LoginRateWindow),
		)
	}

	var statementUsecase handler.StatementUsecase
	if statements != nil {
		statementUsecase = statements
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.ConsoleAPI(r, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Apartments:  handler.NewApartmentHandler(apartmentService),
		Maintenance: handler.NewMaintenanceHandler(scheduleService),
		Reports:     handler.NewReportHandler(reportService),
		Bills:       handler.NewBillHandler(paymentService, statementUsecase, currency),
		Roles:       handler.NewRoleHandler(permissionService),
		System:      systemHandler,
	}, router.APIConfig{
		JWT:          jwtConfig,
		Permissions:  permissionService,
		Guard:        guard,
		LoginLimiter: loginLimiter,
		Profiling:    tel.Profiler.IsEnabled(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func fallbackPolicy(cfg config.PermissionConfig) access.FallbackPolicy {
	p := access.DefaultFallbackPolicy()
	if cfg.ResidentMarker != "" {
		p.ResidentMarker = access.Capability(cfg.ResidentMarker)
	}
	if cfg.StaffMarker != "" {
		p.StaffMarker = access.Capability(cfg.StaffMarker)
	}
	if cfg.ResidentTarget != "" {
		p.ResidentTarget = access.Target(cfg.ResidentTarget)
	}
	if cfg.StaffTarget != "" {
		p.StaffTarget = access.Target(cfg.StaffTarget)
	}
	if cfg.DeniedTarget != "" {
		p.UnauthorizedTarget = access.Target(cfg.DeniedTarget)
	}
	return p
}

// newStatementService returns nil when statements are disabled
func newStatementService(
	ctx context.Context,
	cfg *config.Config,
	bills *persistence.GormBillRepository,
	schedules billingapp.ActiveSchedule,
	guard *accessapp.Guard,
	currency valueobject.Currency,
	log *zap.Logger,
) (*billingapp.StatementService, func(), error) {
	noop := func() {}
	if !cfg.Statement.Enabled {
		log.Info("Bill statements disabled")
		return nil, noop, nil
	}

	var store billingapp.ObjectStorage
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, noop, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, noop, err
		}
		store = s3
	} else {
		log.Warn("Object storage not configured, statements are kept in memory")
		store = storage.NewMemoryObjectStorage("/statements")
	}

	composer, err := statement.NewComposer()
	if err != nil {
		return nil, noop, err
	}
	renderer := statement.NewRenderer(composer, statement.NewChromedpRenderer(cfg.Statement, log))
	closeRenderer := func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Closing statement renderer failed", zap.Error(err))
		}
	}

	svc := billingapp.NewStatementService(bills, schedules, renderer, store, guard,
		billingapp.StatementServiceConfig{
			Currency:  currency,
			KeyPrefix: cfg.Statement.KeyPrefix,
			URLTTL:    cfg.Storage.PresignExpiration,
		},
		log,
	)
	return svc, closeRenderer, nil
}

func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
