package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	cacheadapter "github.com/carelink/mission-service/internal/adapters/cache"
	eventadapter "github.com/carelink/mission-service/internal/adapters/events"
	grpcadapter "github.com/carelink/mission-service/internal/adapters/grpc"
	httpadapter "github.com/carelink/mission-service/internal/adapters/http"
	"github.com/carelink/mission-service/internal/adapters/postgres"
	"github.com/carelink/mission-service/internal/adapters/reporting"
	"github.com/carelink/mission-service/internal/adapters/security"
	"github.com/carelink/mission-service/internal/application"
	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
)

type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	service   *application.Service
	handler   http.Handler
	outbox    *eventadapter.OutboxWorker
	consumer  *eventadapter.ConsumerWorker
	sweeper   *eventadapter.SweepWorker
	cleanupFn func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	logger.Info("bootstrapping care mission service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	var closers []io.Closer
	cleanup := func(context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	closers = append(closers, sqlDB)

	var (
		cache  ports.Cache
		locker ports.Locker
	)
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, redisClient)
		cache = cacheadapter.NewRedisCache(redisClient)
		locker = cacheadapter.NewRedisLocker(redisClient)
	} else {
		logger.Warn("REDIS_URL not set, using process-local cache and sweep lock")
		memory := cacheadapter.NewMemoryCache()
		cache, locker = memory, memory
	}

	var (
		publisher ports.EventPublisher
		consumer  eventadapter.Consumer
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopics)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		closers = append(closers, kafkaPublisher)
		kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, []string{
			eventadapter.TopicFor(domain.EventRequestNeedsReassignment, cfg.KafkaTopics),
		})
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init kafka consumer: %w", err)
		}
		closers = append(closers, kafkaConsumer)
		publisher, consumer = eventadapter.NewLoggingPublisher(logger, kafkaPublisher), kafkaConsumer
	} else {
		logger.Warn("KAFKA_BROKERS not set, relaying events in process")
		bus := eventadapter.NewMemoryBus(cfg.KafkaTopics)
		publisher, consumer = eventadapter.NewLoggingPublisher(logger, bus), bus
	}

	var tokens ports.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier, err := security.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init jwt verifier: %w", err)
		}
		tokens = verifier
	}

	var reports ports.ReportGenerator = reporting.DisabledGenerator{}
	if cfg.ReportingURL != "" {
		reports = reporting.NewHTTPGenerator(cfg.ReportingURL, cfg.ReportingTimeout)
	}

	repos := postgres.NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:           cfg.ServiceID,
			CheckInTolerance:      cfg.CheckInTolerance,
			GeofenceMeters:        cfg.GeofenceMeters,
			MissionGracePeriod:    cfg.MissionGracePeriod,
			PriceTolerance:        cfg.PriceTolerance,
			DefaultMatchLimit:     cfg.DefaultMatchLimit,
			MaxMatchLimit:         cfg.MaxMatchLimit,
			MatchCacheTTL:         cfg.MatchCacheTTL,
			PlaceholderDistanceKm: cfg.PlaceholderDistanceKm,
			SweepInterval:         cfg.SweepInterval,
			SweepLockTTL:          cfg.SweepLockTTL,
			SweepBatchSize:        cfg.SweepBatchSize,
			DefaultAlertLimit:     cfg.DefaultAlertLimit,
		},
		Logger:      logger,
		Store:       repos.Store,
		Requests:    repos.Requests,
		Missions:    repos.Missions,
		Caregivers:  repos.Caregivers,
		Suggestions: repos.Suggestions,
		JobRuns:     repos.JobRuns,
		Outbox:      repos.Outbox,
		EventDedup:  repos.EventDedup,
		Idempotency: repos.Idempotency,
		Cache:       cache,
		Locker:      locker,
		Reports:     reports,
		Tokens:      tokens,
	})

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		service:   svc,
		handler:   httpadapter.NewRouter(httpadapter.NewHandler(svc, logger)),
		outbox:    eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		consumer:  eventadapter.NewConsumerWorker(logger, consumer, svc, cfg.ConsumerPollInterval),
		sweeper:   eventadapter.NewSweepWorker(logger, svc, cfg.SweepTick),
		cleanupFn: cleanup,
	}, nil
}

func openDatabase(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, error) {
	if dsn, ok := cfg.SQLiteDSN(); ok {
		logger.Warn("using sqlite database", "dsn", dsn)
		return postgres.OpenSQLite(ctx, dsn, logger)
	}
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns, logger)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	if r.cfg.JWTSecret == "" {
		r.cleanupFn(ctx)
		return errors.New("missing JWT_SECRET: the API cannot authenticate callers")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           r.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewMissionInternalServer(r.service))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(ctx)
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}

// RunWorker relays the outbox, consumes reassignment events and schedules the
// expiry sweep until the process is signalled.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	for name, run := range map[string]func(context.Context) error{
		"outbox":   r.outbox.Run,
		"consumer": r.consumer.Run,
		"sweep":    r.sweeper.Run,
	} {
		r.logger.Info("worker started", "worker", name)
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}(run)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.cleanupFn(shutdownCtx)
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}

// RunSweepOnce forces one expiry sweep plus the unstarted-mission pass,
// ignoring the schedule watermark, then flushes the outbox.
func (r *Runtime) RunSweepOnce(ctx context.Context) error {
	defer r.cleanupFn(context.Background())

	report, err := r.service.RunExpirySweep(ctx)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}
	unstarted, err := r.service.ExpireUnstartedMissions(ctx)
	if err != nil {
		return fmt.Errorf("expire unstarted missions: %w", err)
	}
	// Without a broker the in-process bus dies with this process, so the rows
	// are left for cmd/worker to relay.
	published := 0
	if len(r.cfg.KafkaBrokers) > 0 {
		if published, err = r.outbox.RunOnce(ctx); err != nil {
			r.logger.Warn("outbox flush after sweep failed", "error", err)
		}
	}
	r.logger.Info("sweep completed",
		"missions_completed", report.MissionsCompleted,
		"missions_expired", report.MissionsExpired+unstarted.MissionsExpired,
		"requests_expired", report.RequestsExpired,
		"conflicts", report.Conflicts+unstarted.Conflicts,
		"events_published", published,
	)
	return nil
}
