package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/ledger"
	ledgerfile "finboard/internal/ledger/file"
	"finboard/internal/ledger/memory"
	applog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store := ledgerfile.NewStore(config.DataFile,
		applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger))

	f.logger.Info("Initialized file backend", "data_file", config.DataFile)
	return f.withMirrorPublisher(store, config, nil)
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return f.withMirrorPublisher(store, config, store.Close)
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Store: memory.NewStore()}, nil
}

// withMirrorPublisher wraps the store in a TransactionService when AMQP is
// configured. A broker that cannot be reached downgrades to no publishing;
// the worker's reconcile pass covers the gap.
func (f *DefaultFactory) withMirrorPublisher(store ledger.Store, config Config, storeCleanup CleanupFunc) (*BackendResult, error) {
	if config.AMQPURL == "" {
		return &BackendResult{Store: store, Cleanup: storeCleanup}, nil
	}

	amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without mirror notifications", "error", err)
		return &BackendResult{Store: store, Cleanup: storeCleanup}, nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	svc := services.NewTransactionService(store, amqpClient)
	cleanup := func() error {
		err := svc.Close()
		if storeCleanup != nil {
			if cerr := storeCleanup(); err == nil {
				err = cerr
			}
		}
		return err
	}
	return &BackendResult{Store: svc, Cleanup: cleanup}, nil
}
