// Package container provides dependency injection for the reconciler.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/blob"
	"bcgov/pay-reconciler/internal/config"
	"bcgov/pay-reconciler/internal/credit"
	"bcgov/pay-reconciler/internal/eftparser"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/notify"
	"bcgov/pay-reconciler/internal/reconcile"
	"bcgov/pay-reconciler/internal/report"
	"bcgov/pay-reconciler/internal/settlement"
	"bcgov/pay-reconciler/internal/shortname"
	"bcgov/pay-reconciler/internal/storage"
	"bcgov/pay-reconciler/internal/worker"

	"google.golang.org/api/option"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	storage  *storage.SQLiteStorage
	blobs    blob.Store
	notifier notify.Notifier

	resolver    *shortname.Resolver
	engine      *credit.Engine
	eft         *reconcile.EFTReconciler
	settlements *settlement.Reconciler
	dispatcher  *reconcile.Dispatcher
	reports     *report.Generator
	server      *worker.Server
}

// NewContainer creates and wires all application dependencies. The database
// is opened and migrated; callers must Close the container.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := config.NewLogger(cfg)

	db, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	notifier := newNotifier(ctx, cfg, logger)

	resolver := shortname.NewResolver(logger)
	engine := credit.NewEngine(logger)
	eft := reconcile.NewEFTReconciler(db, blobs, resolver, engine, reconcile.EFTOptions{
		LocationID: cfg.EFT.LocationID,
		Patterns: eftparser.Patterns{
			EFT:      cfg.EFT.EFTPatterns,
			Wire:     cfg.EFT.WirePatterns,
			Generate: cfg.EFT.GeneratePatterns,
			Ignore:   cfg.EFT.IgnorePatterns,
		},
	}, logger)
	settlements := settlement.NewReconciler(db, blobs, logger)
	dispatcher := reconcile.NewDispatcher(eft, settlements, db, notifier, logger)

	logger.Info("Container initialized successfully",
		logging.F("database", cfg.Database.Path),
		logging.F("blob_provider", cfg.Blob.Provider),
		logging.F("notify_enabled", cfg.Notify.Endpoint != ""))

	return &Container{
		logger:      logger,
		config:      cfg,
		storage:     db,
		blobs:       blobs,
		notifier:    notifier,
		resolver:    resolver,
		engine:      engine,
		eft:         eft,
		settlements: settlements,
		dispatcher:  dispatcher,
		reports:     report.NewGenerator(logger),
		server:      worker.NewServer(dispatcher, notifier, logger),
	}, nil
}

// newBlobStore builds the configured provider behind a retrying reader.
func newBlobStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (blob.Store, error) {
	var base blob.Store
	switch cfg.Blob.Provider {
	case config.BlobProviderGCS:
		var opts []option.ClientOption
		if cfg.Blob.GCSEndpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Blob.GCSEndpoint), option.WithoutAuthentication())
		}
		gcs, err := blob.NewGCSStore(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gcs store: %w", err)
		}
		base = gcs
	default:
		base = blob.NewLocalStore(cfg.Blob.LocalRoot)
	}

	initial, maxDelay := cfg.RetryDelays()
	return blob.NewRetryStore(base, blob.RetryOptions{
		MaxAttempts:  cfg.Blob.Retry.MaxAttempts,
		InitialDelay: initial,
		MaxDelay:     maxDelay,
	}, logger), nil
}

// newNotifier sends through the notification API when one is configured and
// only logs otherwise.
func newNotifier(ctx context.Context, cfg *config.Config, logger logging.Logger) notify.Notifier {
	if cfg.Notify.Endpoint == "" {
		logger.Info("Notification endpoint not configured, alerts will be logged only")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewAPINotifier(ctx, notify.APIConfig{
		Endpoint:     cfg.Notify.Endpoint,
		Recipients:   cfg.Notify.Recipients,
		TokenURL:     cfg.Notify.TokenURL,
		ClientID:     cfg.Notify.ClientID,
		ClientSecret: cfg.Notify.ClientSecret,
		Timeout:      time.Duration(cfg.Notify.TimeoutSeconds) * time.Second,
	}, logger)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStorage returns the database handle.
func (c *Container) GetStorage() *storage.SQLiteStorage {
	return c.storage
}

// GetBlobStore returns the retrying blob reader.
func (c *Container) GetBlobStore() blob.Store {
	return c.blobs
}

// GetNotifier returns the alert sender.
func (c *Container) GetNotifier() notify.Notifier {
	return c.notifier
}

// GetResolver returns the short name resolver.
func (c *Container) GetResolver() *shortname.Resolver {
	return c.resolver
}

// GetEngine returns the credit engine.
func (c *Container) GetEngine() *credit.Engine {
	return c.engine
}

// GetEFTReconciler returns the TDI17 pipeline.
func (c *Container) GetEFTReconciler() *reconcile.EFTReconciler {
	return c.eft
}

// GetSettlementReconciler returns the CAS settlement pipeline.
func (c *Container) GetSettlementReconciler() *settlement.Reconciler {
	return c.settlements
}

// GetDispatcher returns the message dispatcher.
func (c *Container) GetDispatcher() *reconcile.Dispatcher {
	return c.dispatcher
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.reports
}

// GetServer returns the push worker.
func (c *Container) GetServer() *worker.Server {
	return c.server
}

// Close releases the database.
func (c *Container) Close() error {
	if err := c.storage.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.logger.Info("Container closed")
	return nil
}
