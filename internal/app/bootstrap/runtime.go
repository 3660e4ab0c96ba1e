package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	cacheadapter "github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/http"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/postgres"
	realtimeadapter "github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/realtime"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/security"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/telemetry"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/application"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	hub        *realtimeadapter.Hub
	monitor    *telemetry.Monitor
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m20 storefront data access service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	verifier, err := security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt verifier: %w", err)
	}

	counters := telemetry.NewCounters()

	remote := cacheadapter.NewRemoteTier(redisClient)
	breaker := cacheadapter.NewBreaker(remote, cacheadapter.BreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
	})
	local := cacheadapter.NewLocalTier(cfg.LocalMaxEntries, cfg.LocalTTLCeiling)
	store := cacheadapter.NewTieredStore(breaker, local, counters, cacheadapter.TieredConfig{
		RemoteTimeout: cfg.RemoteTimeout,
		LocalCeiling:  cfg.LocalTTLCeiling,
	})

	backplane := realtimeadapter.NewRedisBackplane(redisClient)
	hub := realtimeadapter.NewHub(backplane, counters)

	var publisher ports.EventPublisher
	var sink ports.MetricsSink
	var kafkaPublisher *eventadapter.KafkaPublisher
	var kafkaSink *telemetry.KafkaMetricsSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"storefront.product.updated": cfg.EventsTopic,
		})
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher

		kafkaSink, err = telemetry.NewKafkaMetricsSink(cfg.KafkaBrokers, cfg.MetricsTopic, cfg.ServiceID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			_ = kafkaPublisher.Close()
			return nil, fmt.Errorf("init kafka metrics sink: %w", err)
		}
		sink = kafkaSink
	} else {
		logger.Warn("no kafka brokers configured, events and metrics fall back to logs")
		publisher = eventadapter.NewLoggingPublisher(logger)
		sink = telemetry.NewLoggingMetricsSink(logger)
	}

	monitor := telemetry.NewMonitor(
		breaker,
		func() string { return breaker.State().String() },
		backplane,
		hub,
		counters,
		sink,
		telemetry.MonitorConfig{
			HealthInterval: cfg.HealthInterval,
			FlushInterval:  cfg.FlushInterval,
		},
	)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName: cfg.ServiceID,
			Version:     cfg.Version,
			EntryTTL:    cfg.EntryTTL,
			ListTTL:     cfg.ListTTL,
			SearchTTL:   cfg.SearchTTL,
			PageSize:    cfg.PageSize,
		},
		Store:   store,
		Catalog: postgres.NewCatalogRepository(db),
		Hub:     hub,
		Events:  publisher,
		Health:  monitor,
		Metrics: counters,
	})

	handler := httpadapter.NewHandler(svc, verifier, hub, httpadapter.Options{
		WSMessageRate:  cfg.WSMessageRate,
		WSMessageBurst: cfg.WSMessageBurst,
	})
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewStorefrontDataInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		hub:        hub,
		monitor:    monitor,
		cleanupFn: func(ctx context.Context) {
			if kafkaPublisher != nil {
				_ = kafkaPublisher.Close()
			}
			if kafkaSink != nil {
				_ = kafkaSink.Close()
			}
			_ = backplane.Close()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves HTTP and gRPC alongside the hub fan-in loop and the
// health/metrics monitor until a shutdown signal or server failure.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		if err := r.hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("broadcast hub stopped", "error", err)
		}
	}()
	go func() {
		if err := r.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("monitor stopped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}
