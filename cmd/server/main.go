package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	budgetapp "github.com/bizledger/backend/internal/application/budget"
	financeapp "github.com/bizledger/backend/internal/application/finance"
	partnerapp "github.com/bizledger/backend/internal/application/partner"
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/infrastructure/auth"
	"github.com/bizledger/backend/internal/infrastructure/cache"
	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/event"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/infrastructure/printing"
	"github.com/bizledger/backend/internal/infrastructure/scheduler"
	"github.com/bizledger/backend/internal/infrastructure/storage"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/bizledger/backend/internal/interfaces/http/handler"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/bizledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

//	@title			BizLedger API
//	@version		1.0
//	@description	Payable documents, payment reconciliation and budget tracking

//	@contact.name	API Support

//	@host		localhost:8080
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
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = loggerProvider.Bridge(log, zapcore.InfoLevel)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilerEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting BizLedger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if cfg.Database.Driver == persistence.DriverSQLite {
		dbTracing.DBSystem = "sqlite"
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  dbTracing,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Repositories
	documentRepo := persistence.NewGormPayableDocumentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetEventRepository(db.DB)
	revisionRepo := persistence.NewGormBudgetRevisionRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	budgetScope := persistence.NewGormBudgetTransactionScope(db.DB)

	// Idempotency store: Redis when configured, in-memory otherwise
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	tolerance, err := valueobject.FromDecimal(cfg.Reconciliation.OverpaymentTolerance)
	if err != nil {
		log.Fatal("Invalid overpayment tolerance", zap.Error(err))
	}
	idempotencyCfg := shared.DefaultIdempotencyConfig()
	if cfg.Reconciliation.IdempotencyTTL > 0 {
		idempotencyCfg.TTL = cfg.Reconciliation.IdempotencyTTL
	}

	// Application services
	reconciler := financeapp.NewReconciler(ledgerScope, documentRepo, paymentRepo, financeapp.ReconcilerConfig{
		OverpaymentTolerance: tolerance,
		Idempotency:          idempotencyCfg,
	})
	reconciler.SetIdempotencyStore(idempotencyStore)
	documentService := financeapp.NewDocumentService(ledgerScope, documentRepo, contactRepo, budgetRepo)
	receiptService := financeapp.NewReceiptService(paymentRepo, documentRepo, contactRepo)
	budgetService := budgetapp.NewBudgetService(budgetRepo, revisionRepo, budgetScope,
		budget.RevisionPropagation(cfg.Budget.RevisionPropagation))
	contactService := partnerapp.NewContactService(contactRepo)

	reconciliationMetrics, err := telemetry.NewReconciliationMetrics(meterProvider.Meter("bizledger/reconciliation"))
	if err != nil {
		log.Fatal("Failed to create reconciliation metrics", zap.Error(err))
	}
	reconciler.SetMetrics(reconciliationMetrics)
	budgetService.SetMetrics(reconciliationMetrics)

	// Event bus: domain events are logged, and forwarded to Kafka when enabled
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler())

	var kafkaPublisher *event.KafkaPublisher
	if cfg.Events.KafkaEnabled {
		serializer := event.NewEventSerializer()
		event.RegisterLedgerEvents(serializer)
		kafkaPublisher = event.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, serializer, log)
		eventBus.Subscribe(event.NewIdempotentHandler(kafkaPublisher, idempotencyStore, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}),
			event.WithDeliveryRecorder(reconciliationMetrics),
		))
		log.Info("Kafka event publishing enabled",
			zap.Strings("brokers", cfg.Events.KafkaBrokers),
			zap.String("topic", cfg.Events.KafkaTopic),
		)
	}

	reconciler.SetEventPublisher(eventBus)
	documentService.SetEventPublisher(eventBus)
	budgetService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Receipt rendering and archiving are optional
	if cfg.Printing.Enabled {
		pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.ChromeRemoteURL,
			Headless:       true,
			DisableGPU:     true,
			NoSandbox:      true,
			Scale:          1.0,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to create PDF renderer", zap.Error(err))
		}
		defer func() {
			if err := pdfRenderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		receiptRenderer, err := printing.NewReceiptRenderer(pdfRenderer)
		if err != nil {
			log.Fatal("Failed to create receipt renderer", zap.Error(err))
		}
		receiptService.SetRenderer(receiptRenderer)
		log.Info("Receipt rendering enabled")
	}

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ReceiptArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create receipt archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare receipt archive bucket", zap.Error(err))
		}
		receiptService.SetArchive(archive)
		log.Info("Receipt archiving enabled", zap.String("bucket", archive.Bucket()))
	}

	// Budget status snapshots feed the bizledger_budgets gauge
	snapshotCfg := scheduler.DefaultBudgetSnapshotSchedulerConfig()
	snapshotCfg.Enabled = cfg.Budget.SnapshotEnabled
	snapshotCfg.Interval = cfg.Budget.SnapshotInterval
	budgetSnapshots, err := scheduler.NewBudgetSnapshotScheduler(budgetService, reconciliationMetrics, log, snapshotCfg)
	if err != nil {
		log.Fatal("Failed to create budget snapshot scheduler", zap.Error(err))
	}
	if err := budgetSnapshots.Start(ctx); err != nil {
		log.Fatal("Failed to start budget snapshot scheduler", zap.Error(err))
	}

	// Handlers
	jwtService := auth.NewJWTService(cfg.JWT)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Middleware order matters:
	// 1. Recovery - Catch panics
	// 2. Tracing - Start the request span before anything logs
	// 3. RequestID - Generate/propagate request ID
	// 4. Logger - Log requests with trace and request IDs
	// 5. Security, CORS and body limit
	// 6. Metrics and profiling labels
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("bizledger/http")))
	engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuth(middleware.JWTMiddlewareConfig{
				Validator: jwtService,
				Logger:    log,
			}),
			middleware.TracingAttributeInjector(),
		),
	)
	r.Register(
		handler.BudgetRoutes(handler.NewBudgetHandler(budgetService)),
		handler.ContactRoutes(handler.NewContactHandler(contactService)),
		handler.DocumentRoutes(handler.NewDocumentHandler(documentService, reconciler)),
		handler.PaymentRoutes(handler.NewPaymentHandler(reconciler, receiptService)),
		handler.SystemRoutes(systemHandler),
	)
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
	}
	if err := budgetSnapshots.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping budget snapshot scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Error closing Kafka publisher", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
