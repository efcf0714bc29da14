// Package backend builds the configured ledger store and, when AMQP is
// enabled, the transaction service that feeds the mirror pipeline.
package backend

import (
	"context"

	"finboard/internal/ledger"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function.
type BackendResult struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// File store
	DataFile string

	// SQLite
	SQLiteDBPath string

	// AMQP mirror notifications (optional, empty URL disables)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects the canonical store implementation.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
