package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/config"
	"ticket-checkout/internal/database"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/services"
)

// CatalogSource serves event catalogs and the event list
type CatalogSource interface {
	GetCatalog(ctx context.Context, eventID string) (*models.Catalog, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// App holds the checkout and the storage it runs on
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *database.DB // nil when running without a database
	Catalogs CatalogSource
	Archive  checkout.OrderArchive
	Invoices *services.InvoiceRenderer
	Checkout *checkout.Service
}

// NewApp opens storage and builds the checkout service. Without a database
// driver, catalogs come from CATALOG_FILE (or the bundled demo) and orders
// are kept in memory.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	if cfg.Database.Driver != "" {
		if err := app.openDatabase(); err != nil {
			return nil, err
		}
	} else {
		static, err := loadStaticCatalog(cfg.Checkout.CatalogFile)
		if err != nil {
			return nil, err
		}
		app.Catalogs = static
		app.Archive = repositories.NewMemoryArchive()
		logger.Info("running without a database; orders are kept in memory")
	}

	invoices, err := services.NewInvoiceRenderer()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Invoices = invoices

	app.Checkout = checkout.NewService(
		app.Catalogs,
		checkout.NewFinalizer(app.Archive, logger),
		services.NewMockPaymentGateway(cfg.Checkout.PaymentLatency, logger),
		invoices,
		services.NewReceiptSigner(cfg.Checkout.ReceiptSecret, cfg.Checkout.ReceiptTTL),
		cfg.Checkout.PaymentTimeout,
		logger,
	)

	return app, nil
}

func (a *App) openDatabase() error {
	db, err := Connect(a.Config.Database)
	if err != nil {
		return err
	}
	a.DB = db
	a.Logger.Info("database connection established", zap.String("driver", db.Driver))

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	catalogs := repositories.NewCatalogRepository(db.DB)
	a.Catalogs = catalogs
	a.Archive = repositories.NewOrderRepository(db.DB)

	// an empty database gets the configured catalog so the checkout has something to sell
	events, err := catalogs.ListEvents(context.Background())
	if err != nil {
		db.Close()
		return err
	}
	if len(events) == 0 {
		static, err := loadStaticCatalog(a.Config.Checkout.CatalogFile)
		if err != nil {
			db.Close()
			return err
		}
		n, err := SeedCatalogs(context.Background(), catalogs, static)
		if err != nil {
			db.Close()
			return err
		}
		a.Logger.Info("seeded empty database", zap.Int("events", n))
	}

	return nil
}

// Close releases the database connection, if any
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Connect opens the configured database
func Connect(cfg config.DatabaseConfig) (*database.DB, error) {
	return database.NewConnection(database.Config{
		Driver:   cfg.Driver,
		URL:      cfg.URL,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Path:     cfg.Path,
	})
}

// SeedCatalogs writes every static catalog into the repository and returns how many were written
func SeedCatalogs(ctx context.Context, repo *repositories.CatalogRepository, static *repositories.StaticCatalog) (int, error) {
	catalogs := static.Catalogs(ctx)
	for _, c := range catalogs {
		if err := repo.Upsert(ctx, c); err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", c.Event.ID, err)
		}
	}
	return len(catalogs), nil
}

func loadStaticCatalog(path string) (*repositories.StaticCatalog, error) {
	if path == "" {
		return repositories.DemoCatalog(), nil
	}
	return repositories.LoadStaticCatalogFile(path)
}
