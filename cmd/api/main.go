package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartdoc/queue-notifier/internal/config"
	"github.com/smartdoc/queue-notifier/internal/gateway"
	"github.com/smartdoc/queue-notifier/internal/handler"
	"github.com/smartdoc/queue-notifier/internal/infra/postgresql"
	"github.com/smartdoc/queue-notifier/internal/infra/postgresql/migrations"
	infraredis "github.com/smartdoc/queue-notifier/internal/infra/redis"
	"github.com/smartdoc/queue-notifier/internal/observability"
	"github.com/smartdoc/queue-notifier/internal/queue"
	"github.com/smartdoc/queue-notifier/internal/repository"
	"github.com/smartdoc/queue-notifier/internal/service"
	"github.com/smartdoc/queue-notifier/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("queue-notifier exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.GatewayRateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer broker.Close()

	fcmClient, err := gateway.NewFCMClient(cfg.PushGatewayURL, cfg.PushGatewayToken)
	if err != nil {
		return fmt.Errorf("push gateway initialization failed: %w", err)
	}

	ledgerRepo := repository.NewGormLedgerRepo(db)
	patientRepo := repository.NewGormPatientRepo(db)

	resolver, err := service.NewRecipientResolver(patientRepo)
	if err != nil {
		return err
	}

	dispatcher, err := service.NewDispatcher(fcmClient, ledgerRepo, limiter, logger)
	if err != nil {
		return err
	}

	notifier, err := service.NewChangeNotifier(resolver, dispatcher, logger)
	if err != nil {
		return err
	}

	notificationService, err := service.NewNotificationService(resolver, dispatcher, cfg.BulkConcurrency, logger)
	if err != nil {
		return err
	}

	sweeper, err := service.NewRetentionSweeper(
		ledgerRepo,
		time.Duration(cfg.SweepIntervalHours)*time.Hour,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		cfg.SweepBatchLimit,
		logger,
	)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	dispatcher.SetMetrics(metrics)
	notificationService.SetMetrics(metrics)
	sweeper.SetMetrics(metrics)

	consumer := queue.NewRabbitMQConsumer(broker, cfg.ConsumerPrefetch, logger)

	app := fiber.New(fiber.Config{
		AppName:      "queue-notifier",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(metrics.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	api := app.Group("", transport.JWTAuth(cfg.JWTSecret))
	if err := handler.RegisterNotificationRoutes(api, notificationService); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consuming queue updates",
			zap.String("queue", cfg.QueueUpdatesQueue),
			zap.Int("prefetch", cfg.ConsumerPrefetch),
		)
		return consumer.Consume(gctx, cfg.QueueUpdatesQueue, func(ctx context.Context, msg queue.QueueUpdateMessage) error {
			before, after := msg.Entries()
			return notifier.HandleQueueUpdate(ctx, service.QueueUpdate{
				DoctorID:  msg.DoctorID,
				PatientID: msg.PatientID,
				Before:    before,
				After:     after,
			})
		})
	})

	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	g.Go(func() error {
		logger.Info("queue-notifier api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
