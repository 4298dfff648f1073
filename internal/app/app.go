package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/auth"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/config"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/event"
	handler "github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/handler/http"
	mongorepo "github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository/mongo"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/webhook"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/health"
	pkgkafka "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/kafka"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/middleware"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/tracing"
)

// App wires together all dependencies and runs the shop server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mongo          *database.Mongo
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize MongoDB with pool metrics.
	poolMetrics := database.NewPoolMetrics(cfg.ServiceName, prometheus.DefaultRegisterer)
	mdb, err := database.ConnectMongo(ctx, database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
	}, options.Client().SetPoolMonitor(poolMetrics.Monitor()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	logger.Info("connected to MongoDB",
		slog.String("database", cfg.MongoDatabase),
		slog.Bool("transactions", cfg.MongoTransactions),
	)

	if err := mdb.EnsureIndexes(ctx, mongorepo.Indexes()); err != nil {
		_ = mdb.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	// Configure slow operation logging.
	if cfg.SlowOpThreshold > 0 {
		database.SetSlowOpLogging(cfg.SlowOpThreshold, logger)
	}

	var tx database.Transactor = database.NoopTransactor{}
	if cfg.MongoTransactions {
		tx = database.NewMongoTransactor(mdb.Client)
	}

	// Redis backs the webhook replay guard. Without it, fall back to memory.
	var replayGuard webhook.ReplayGuard
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, using in-memory webhook replay guard",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
		rdb = nil
		replayGuard = webhook.NewMemoryReplayGuard(cfg.WebhookReplayTTL)
	} else {
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		replayGuard = webhook.NewRedisReplayGuard(rdb, cfg.WebhookReplayTTL)
	}

	// Initialize Kafka producer with connection validation and retry.
	var (
		producer  *pkgkafka.Producer
		publisher pkgkafka.Publisher = pkgkafka.NopPublisher{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = producer
	}

	// Build the dependency graph.
	products := mongorepo.NewProductRepository(mdb.Database)
	carts := mongorepo.NewCartRepository(mdb.Database)
	coupons := mongorepo.NewCouponRepository(mdb.Database)
	orders := mongorepo.NewOrderRepository(mdb.Database)
	eventProducer := event.NewProducer(publisher, logger)

	couponService := service.NewCouponService(coupons, eventProducer, logger)
	services := handler.Services{
		Catalog: service.NewCatalogService(products, logger),
		Cart:    service.NewCartService(carts, products, couponService, eventProducer, logger),
		Coupons: couponService,
		Orders: service.NewOrderService(orders, carts, coupons, products, tx, eventProducer, logger, service.PaymentConfig{
			Method:     cfg.PaymentMethod,
			GatewayURL: cfg.PaymentGatewayURL,
		}),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("mongo", mdb.Ping)
	if rdb != nil {
		healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	verifier := webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)

	// HTTP router. The rate limiter's cleanup loop lives until shutdown.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, services, healthHandler, logger, handler.Options{
		Tokens:         jwtManager.Validator(),
		Webhook:        webhook.Verify(verifier, replayGuard, logger),
		CORS:           cors,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		mongo:          mdb,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stopBackground: stopBackground,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, Redis, then MongoDB.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopBackground()

	// Flush spans after the HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer mongoCancel()
	if err := a.mongo.Disconnect(mongoCtx); err != nil {
		a.logger.Error("mongo disconnect error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s with ±25% jitter between them).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		err := producer.Ping(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", 3),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
