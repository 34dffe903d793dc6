package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"kiosk-inventory-backend/internal/config"
	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/notify"
	"kiosk-inventory-backend/internal/repository"
	"kiosk-inventory-backend/internal/repository/cached"
	"kiosk-inventory-backend/internal/repository/memory"
	"kiosk-inventory-backend/internal/repository/postgres"
	"kiosk-inventory-backend/internal/service"
)

const notificationQueueSize = 256

// Engine bundles the reservation engine services over one store
type Engine struct {
	Store        repository.Store
	Catalog      repository.EquipmentCatalog
	Ledger       service.StockLedger
	Coordinator  service.ReservationCoordinator
	Transactions service.TransactionService
	Maintenance  service.MaintenanceService
}

// NewEngine wires the services. The catalog is read through an LRU cache.
func NewEngine(store repository.Store, notifier notify.Notifier, cfg *config.Config, clock service.Clock) *Engine {
	catalog := cached.NewCatalog(store.Catalog(), cfg.Catalog.CacheSize, cfg.CatalogCacheTTL())
	ledger := service.NewStockLedger(catalog, store.Stock(), domain.Quantity(cfg.Inventory.DefaultMinimumStock), clock)
	coordinator := service.NewReservationCoordinator(store, ledger, notifier, clock)

	return &Engine{
		Store:        store,
		Catalog:      catalog,
		Ledger:       ledger,
		Coordinator:  coordinator,
		Transactions: service.NewTransactionService(store, coordinator, catalog, store.Transactions(), notifier, cfg.Inventory.PenaltyPerDayCents, clock),
		Maintenance:  service.NewMaintenanceService(coordinator, store.Maintenance(), cfg.Inventory.BusyRetries, clock),
	}
}

// OpenStore connects the configured backing store. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, func() error, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart", "equipment", len(cfg.Catalog.Seed))
		return memory.NewStore(SeedCatalog(cfg.Catalog.Seed), cfg.LockTimeout()), func() error { return nil }, nil

	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")

		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return postgres.NewStore(db, cfg.LockTimeout()), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
}

// SeedCatalog converts configured catalog entries for the memory store
func SeedCatalog(entries []config.CatalogEntry) []domain.Equipment {
	out := make([]domain.Equipment, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Equipment{
			ID:           e.EquipmentID,
			Name:         e.Name,
			BaseQuantity: domain.Quantity(e.BaseQuantity),
			SizeCategory: domain.ParseSizeCategory(e.SizeCategory),
			Condition:    e.Condition,
			MinimumStock: domain.Quantity(e.MinimumStock),
		})
	}
	return out
}

// NewNotifier builds the dispatcher for the configured sinks. The returned
// func drains the queue and closes broker connections.
func NewNotifier(cfg *config.Config) (*notify.Dispatcher, func(), error) {
	var (
		sinks   []notify.Sink
		closers []func() error
	)
	if cfg.HasSink("log") {
		sinks = append(sinks, notify.LogSink{})
	}
	if cfg.HasSink("email") {
		sg := cfg.Notification.SendGrid
		sinks = append(sinks, notify.NewEmailSink(sg.APIKey, sg.FromEmail, sg.FromName, sg.StaffEmail))
	}
	if cfg.HasSink("amqp") {
		sink, err := notify.NewAMQPSink(cfg.Notification.AMQP.URL, cfg.Notification.AMQP.Exchange)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("Notification sinks configured", "sinks", names)

	d := notify.NewDispatcher(notificationQueueSize, sinks...)
	return d, func() {
		d.Close()
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close notification sink", "error", err)
			}
		}
	}, nil
}
