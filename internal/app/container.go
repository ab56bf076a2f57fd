// Package app wires configuration, storage, messaging and handlers into a
// runnable engine. Both binaries (CLI and worker) build their world from the
// same container so local mode and the full deployment stay behaviourally
// identical.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rotahq/rota/internal/notify"
	scheduleCommands "github.com/rotahq/rota/internal/scheduling/application/commands"
	scheduleQueries "github.com/rotahq/rota/internal/scheduling/application/queries"
	scheduleServices "github.com/rotahq/rota/internal/scheduling/application/services"
	schedulingDomain "github.com/rotahq/rota/internal/scheduling/domain"
	schedulePersistence "github.com/rotahq/rota/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	"github.com/rotahq/rota/internal/shared/infrastructure/database/postgres"
	"github.com/rotahq/rota/internal/shared/infrastructure/database/sqlite"
	"github.com/rotahq/rota/internal/shared/infrastructure/eventbus"
	"github.com/rotahq/rota/internal/shared/infrastructure/migrations"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
	"github.com/rotahq/rota/pkg/config"
	"github.com/rotahq/rota/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database. Exactly one of Pool and SQLiteDB is non-nil, per the
	// configured driver.
	Pool     *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis. Nil when locking is in-process.
	RedisClient *redis.Client

	// Repositories
	FamilyRepo      schedulingDomain.FamilyRepository
	AppointmentRepo schedulingDomain.AppointmentRepository
	Templates       schedulingDomain.TemplateReader
	OutboxRepo      outbox.Repository

	// Metrics collector shared by background components. NoopMetrics by
	// default; tests swap in an in-memory collector.
	Metrics observability.Metrics

	// Shared services
	UnitOfWork      sharedApplication.UnitOfWork
	Locker          scheduleServices.Locker
	ConflictChecker *scheduleServices.ConflictChecker
	Reconciler      *scheduleServices.Reconciler

	// Publishers. InProcessEventBus is non-nil only when RabbitMQ is not
	// configured; it then doubles as the publisher so outbox messages are
	// dispatched to in-process consumers.
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus

	// Command handlers
	CreateFamilyHandler      *scheduleCommands.CreateFamilyHandler
	ConfirmInstanceHandler   *scheduleCommands.ConfirmInstanceHandler
	SkipInstanceHandler      *scheduleCommands.SkipInstanceHandler
	MoveInstanceHandler      *scheduleCommands.MoveInstanceHandler
	ReattachHandler          *scheduleCommands.ReattachRescheduledHandler
	StopFamilyHandler        *scheduleCommands.StopFamilyHandler
	RestartFamilyHandler     *scheduleCommands.RestartFamilyHandler
	DeleteFamilyHandler      *scheduleCommands.DeleteFamilyHandler
	CreateAppointmentHandler *scheduleCommands.CreateAppointmentHandler
	UpdateAppointmentHandler *scheduleCommands.UpdateAppointmentHandler
	MakeRecurringHandler     *scheduleCommands.MakeAppointmentRecurringHandler
	StopRecurringHandler     *scheduleCommands.StopAppointmentRecurringHandler

	// Query handlers
	GetFamilyHandler          *scheduleQueries.GetFamilyHandler
	SweepAndListActiveHandler *scheduleQueries.SweepAndListActiveHandler

	// Outbox processor
	OutboxProcessor *outbox.Processor

	// SMS side channel. Nil unless SMS is enabled.
	NotifyConsumer *notify.VisitEventConsumer
}

// NewContainer creates and wires all dependencies for the configured driver.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
	}

	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		if err := c.initPostgres(ctx); err != nil {
			return nil, err
		}
	case config.DriverSQLite:
		if err := c.initSQLite(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if err := c.initLocker(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.ConflictChecker = scheduleServices.NewConflictChecker(c.AppointmentRepo, logger).
		WithMetrics(c.Metrics)
	c.Reconciler = scheduleServices.NewReconciler(c.AppointmentRepo, logger)

	c.CreateFamilyHandler = scheduleCommands.NewCreateFamilyHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Templates, c.ConflictChecker, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.ConfirmInstanceHandler = scheduleCommands.NewConfirmInstanceHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Reconciler, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.SkipInstanceHandler = scheduleCommands.NewSkipInstanceHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Reconciler, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.MoveInstanceHandler = scheduleCommands.NewMoveInstanceHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.ReattachHandler = scheduleCommands.NewReattachRescheduledHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.StopFamilyHandler = scheduleCommands.NewStopFamilyHandler(
		c.FamilyRepo, c.Reconciler, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.RestartFamilyHandler = scheduleCommands.NewRestartFamilyHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.DeleteFamilyHandler = scheduleCommands.NewDeleteFamilyHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Reconciler, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.CreateAppointmentHandler = scheduleCommands.NewCreateAppointmentHandler(
		c.AppointmentRepo, c.Templates, c.ConflictChecker, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.UpdateAppointmentHandler = scheduleCommands.NewUpdateAppointmentHandler(
		c.AppointmentRepo, c.ConflictChecker, c.Locker, c.OutboxRepo, c.UnitOfWork,
	)
	c.MakeRecurringHandler = scheduleCommands.NewMakeAppointmentRecurringHandler()
	c.StopRecurringHandler = scheduleCommands.NewStopAppointmentRecurringHandler()

	c.GetFamilyHandler = scheduleQueries.NewGetFamilyHandler(c.FamilyRepo, c.AppointmentRepo)
	c.SweepAndListActiveHandler = scheduleQueries.NewSweepAndListActiveHandler(
		c.FamilyRepo, c.AppointmentRepo, c.Reconciler, c.OutboxRepo, c.UnitOfWork, time.Now,
	)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        time.Duration(cfg.OutboxRetentionDays) * 24 * time.Hour,
		CleanupInterval:  cfg.OutboxCleanupInterval,
	}, logger).WithMetrics(c.Metrics)

	if cfg.SMSEnabled {
		if err := c.initNotify(); err != nil {
			c.Close()
			return nil, err
		}
	}

	logger.Info("container initialized",
		"driver", cfg.DatabaseDriver,
		"locking", lockerMode(cfg),
		"eventbus", busMode(cfg),
		"sms", cfg.SMSEnabled,
	)
	return c, nil
}

func (c *Container) initPostgres(ctx context.Context) error {
	pool, err := postgres.Connect(ctx, c.Config.DatabaseURL, int32(c.Config.MaxConns))
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	c.Pool = pool
	c.FamilyRepo = schedulePersistence.NewPostgresFamilyRepository(pool)
	c.AppointmentRepo = schedulePersistence.NewPostgresAppointmentRepository(pool)
	c.Templates = schedulePersistence.NewPostgresTemplateReader(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)
	return nil
}

func (c *Container) initSQLite(ctx context.Context) error {
	db, err := sqlite.Open(ctx, c.Config.SQLitePath)
	if err != nil {
		return fmt.Errorf("open SQLite database: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	c.SQLiteDB = db
	c.FamilyRepo = schedulePersistence.NewSQLiteFamilyRepository(db)
	c.AppointmentRepo = schedulePersistence.NewSQLiteAppointmentRepository(db)
	c.Templates = schedulePersistence.NewSQLiteTemplateReader(db)
	c.OutboxRepo = outbox.NewSQLiteRepository(db)
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(db)
	return nil
}

func (c *Container) initLocker(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.Locker = scheduleServices.NewInProcessLocker()
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping Redis: %w", err)
	}

	c.RedisClient = client
	c.Locker = scheduleServices.NewRedisLocker(client, 30*time.Second, c.Logger)
	return nil
}

func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		bus := eventbus.NewInProcessEventBus(c.Logger)
		c.InProcessEventBus = bus
		c.EventPublisher = bus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	c.EventPublisher = publisher
	return nil
}

func (c *Container) initNotify() error {
	if c.Config.SMSProviderURL == "" {
		return fmt.Errorf("SMS_PROVIDER_URL is required when SMS is enabled")
	}

	directory := notify.ClientDirectory(notify.NewStaticDirectory(nil))
	if c.Config.SMSDirectoryPath != "" {
		loaded, err := notify.LoadDirectory(c.Config.SMSDirectoryPath)
		if err != nil {
			return err
		}
		directory = loaded
	}

	provider := notify.NewHTTPProvider(c.Config.SMSProviderURL, c.Config.SMSAPIKey, c.Logger)
	dispatcher := notify.NewBreakerDispatcher(provider, notify.DefaultBreakerConfig(), c.Logger)
	c.NotifyConsumer = notify.NewVisitEventConsumer(directory, dispatcher, c.Logger).
		WithMetrics(c.Metrics)

	// Without a broker the consumer hangs off the in-process bus, so SMS
	// still fires in single-binary deployments.
	if c.InProcessEventBus != nil {
		c.InProcessEventBus.RegisterConsumer(c.NotifyConsumer)
	}
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing SQLite database", "error", err)
		}
	}
}

func lockerMode(cfg *config.Config) string {
	if cfg.RedisURL == "" {
		return "in-process"
	}
	return "redis"
}

func busMode(cfg *config.Config) string {
	if cfg.RabbitMQURL == "" {
		return "in-process"
	}
	return "rabbitmq"
}
