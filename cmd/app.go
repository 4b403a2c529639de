package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/hotel-booking/config"
	"github.com/Eursukkul/hotel-booking/internal/repository"
	"github.com/Eursukkul/hotel-booking/internal/service"
	"github.com/Eursukkul/hotel-booking/pkg/database"
	"github.com/Eursukkul/hotel-booking/pkg/logger"
	"github.com/Eursukkul/hotel-booking/pkg/rabbitmq"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

// app holds the wiring shared by every command.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	repo    repository.BookingRepository
	tariffs *service.TariffStore
	svc     service.BookingService
	closers []func()
}

func newApp(ctx context.Context) (a *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	a = &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() { logCloser.Close() })
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	a.repo = repository.WithBreaker(repo, gobreaker.Settings{
		Name:    "booking-storage",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"path":    "cmd/app",
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	a.tariffs = service.NewTariffStore(service.Tariff{Capacity: cfg.RoomCapacity, Price: cfg.RoomPrices})

	opts := service.Options{
		MissingPolicy: service.MissingPolicy(cfg.MissingBookingPolicy),
		Logger:        log,
		Tracer:        otel.Tracer(cfg.ServiceName),
	}
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		opts.Publisher = publisher
	}

	a.svc = service.NewBookingService(a.repo, a.tariffs, cfg.TotalHotelRooms, opts)
	return a, nil
}

func (a *app) repositoryOptions() repository.Options {
	opts := repository.Options{Table: a.cfg.BookingsTable, InventoryTable: a.cfg.InventoryTable}
	if a.cfg.InventoryGuard {
		opts.Capacity = a.cfg.TotalHotelRooms
	}
	return opts
}

func (a *app) openRepository(ctx context.Context) (repository.BookingRepository, error) {
	opts := a.repositoryOptions()

	switch a.cfg.StorageDriver {
	case config.DriverPostgres, config.DriverSQLite:
		open := func() (*gorm.DB, error) { return database.NewPostgresDB(a.cfg.DSN()) }
		if a.cfg.StorageDriver == config.DriverSQLite {
			open = func() (*gorm.DB, error) { return database.NewSQLiteDB(a.cfg.SQLitePath) }
		}
		db, err := open()
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, func() { sqlDB.Close() })
		}
		if err := repository.Migrate(db, opts); err != nil {
			return nil, err
		}
		return repository.NewBookingRepository(db, opts), nil

	case config.DriverDynamoDB:
		client, err := database.NewDynamoDBClient(ctx, a.cfg.AWSRegion, a.cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return repository.NewDynamoRepository(client, opts), nil

	case config.DriverCassandra:
		session, err := database.NewCassandraSession(a.cfg.CassandraHosts, a.cfg.CassandraKeyspace)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, session.Close)
		cql := repository.NewCQLSession(session)
		if err := repository.CreateCassandraTables(ctx, cql, opts); err != nil {
			return nil, err
		}
		return repository.NewCassandraRepository(cql, opts), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
}

// prepareCounter makes sure the inventory counter exists before requests are served. With
// rebuild set it is recomputed from a full scan, otherwise an existing counter is kept and a
// missing one is created.
func (a *app) prepareCounter(ctx context.Context, rebuild bool) error {
	if !a.cfg.InventoryGuard {
		return nil
	}
	log := a.logger.WithFields(logrus.Fields{"path": "cmd/app", "total": a.cfg.TotalHotelRooms})

	if rebuild {
		booked, err := a.repo.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile inventory: %w", err)
		}
		log.WithField("booked", booked).Info("inventory counter reconciled")
		return nil
	}

	created, err := a.repo.EnsureCounter(ctx)
	if err != nil {
		return fmt.Errorf("ensure inventory counter: %w", err)
	}
	if created {
		log.Info("inventory counter created")
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
