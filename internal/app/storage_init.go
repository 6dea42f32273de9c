package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/retail-oms/internal/health"
	"github.com/vladislavdragonenkov/retail-oms/internal/storage/memory"
	"github.com/vladislavdragonenkov/retail-oms/internal/storage/postgres"
)

// runtimeDependencies — хранилища, выбранные по StorageDriver.
type runtimeDependencies struct {
	catalog         domain.CatalogLookup
	repo            domain.OrderRepository
	lineItems       domain.LineItemRepository
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository
	storageChecker  healthcheck.Checker
	closeFn         func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case "", StorageDriverMemory:
		return initMemoryDependencies(cfg, logger), nil
	case StorageDriverPostgres:
		return initPostgresDependencies(ctx, cfg, logger)
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initMemoryDependencies(cfg Config, logger *log.Entry) runtimeDependencies {
	catalog := memory.NewProductCatalog()
	if cfg.SeedCatalog {
		for _, product := range memory.DemoProducts() {
			catalog.Put(product)
		}
	}
	store := memory.NewOrderStore()

	logger.WithField("storage_driver", StorageDriverMemory).Info("storage initialized")
	return runtimeDependencies{
		catalog:         catalog,
		repo:            store,
		lineItems:       store.LineItems(),
		outboxRepo:      memory.NewOutboxRepository(),
		timelineRepo:    memory.NewTimelineRepository(),
		idempotencyRepo: memory.NewIdempotencyRepository(),
		storageChecker:  healthcheck.NewPingChecker("storage", store),
	}
}

func initPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	dsn := strings.TrimSpace(cfg.PostgresDSN)
	if dsn == "" {
		return runtimeDependencies{}, fmt.Errorf("postgres dsn is required for storage driver %q", StorageDriverPostgres)
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return runtimeDependencies{}, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
		}
	}

	catalog := postgres.NewProductCatalog(store)
	if cfg.SeedCatalog {
		if err := catalog.Seed(ctx, memory.DemoProducts()); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("seed product catalog: %w", err)
		}
	}

	logger.WithFields(log.Fields{
		"storage_driver": StorageDriverPostgres,
		"auto_migrate":   cfg.PostgresAutoMigrate,
	}).Info("storage initialized")

	return runtimeDependencies{
		catalog:         catalog,
		repo:            postgres.NewOrderRepository(store),
		lineItems:       postgres.NewLineItemRepository(store),
		outboxRepo:      postgres.NewOutboxRepository(store),
		timelineRepo:    postgres.NewTimelineRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		storageChecker:  healthcheck.NewPingChecker("storage", store),
		closeFn:         store.Close,
	}, nil
}

// outboxBacklogChecker помечает сервис degraded, когда outbox не успевает разгружаться.
type outboxBacklogChecker struct {
	repo       domain.OutboxRepository
	maxPending int
}

func (c outboxBacklogChecker) Check(ctx context.Context) healthcheck.Check {
	check := healthcheck.Check{Name: "outbox", Status: healthcheck.StatusHealthy}

	stats, err := c.repo.Stats(ctx)
	if err != nil {
		check.Status = healthcheck.StatusUnhealthy
		check.Message = err.Error()
		return check
	}
	if c.maxPending > 0 && stats.PendingCount > c.maxPending {
		check.Status = healthcheck.StatusDegraded
		check.Message = fmt.Sprintf("%d pending outbox records exceed limit %d", stats.PendingCount, c.maxPending)
	}
	return check
}
