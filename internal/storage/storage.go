package storage

import (
	"context"
	"errors"

	"github.com/yourorg/crypto-dashboard/internal/config"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("storage: document not found")

// Store persists small JSON documents (image registry, watchlist) under
// opaque string keys. Writes are synchronous: when Save returns, the
// document is durable.
type Store interface {
	// Load returns the raw document stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save durably writes the document under key, replacing any previous
	// content.
	Save(ctx context.Context, key string, data []byte) error
}

// NewStore creates a store implementation based on the configuration.
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return NewPostgresStore(cfg.Storage.Postgres, logger)
	case "file":
		return NewFileStore(cfg.Storage.File.Path, logger)
	default:
		// Default to the file store
		return NewFileStore(cfg.Storage.File.Path, logger)
	}
}
