// Package registry holds the durable image-URL registry: one last-known-good
// icon URL per coin, hydrated from storage at startup and flushed on every
// write. Coin icons almost never change, so entries are never evicted.
package registry

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/yourorg/crypto-dashboard/internal/storage"

	"go.uber.org/zap"
)

// storageKey is the document name the registry persists under.
const storageKey = "image-registry"

// placeholderMarker rejects stub icons; a URL containing it is never stored.
const placeholderMarker = "placeholder"

// ImageRegistry maps coin ids to confirmed icon URLs. It is safe for
// concurrent use. Persistence is write-through: every accepted write is
// flushed before SetImage returns. If the backing store fails, the registry
// degrades to memory-only for the rest of the process instead of failing
// its callers.
type ImageRegistry struct {
	mu     sync.RWMutex
	images map[string]string
	store  storage.Store
	logger *zap.Logger
}

// NewImageRegistry creates a registry hydrated from the store. A load
// failure is logged and leaves the registry empty; it is not fatal.
func NewImageRegistry(store storage.Store, logger *zap.Logger) *ImageRegistry {
	r := &ImageRegistry{
		images: make(map[string]string),
		store:  store,
		logger: logger,
	}

	data, err := store.Load(context.Background(), storageKey)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Warn("Failed to load image registry, starting empty", zap.Error(err))
		}
		return r
	}

	if err := json.Unmarshal(data, &r.images); err != nil {
		logger.Warn("Corrupt image registry document, starting empty", zap.Error(err))
		r.images = make(map[string]string)
	}
	return r
}

// GetImage returns the cached URL for a coin, if any.
func (r *ImageRegistry) GetImage(coinID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.images[coinID]
	return url, ok
}

// HasImage reports whether a URL is cached for a coin.
func (r *ImageRegistry) HasImage(coinID string) bool {
	_, ok := r.GetImage(coinID)
	return ok
}

// SetImage stores a confirmed icon URL. Empty URLs and placeholder images
// are rejected as no-ops. Writes that do not change the stored URL are
// skipped so repeated observations of the same image cost nothing.
func (r *ImageRegistry) SetImage(coinID, url string) {
	if coinID == "" || url == "" {
		return
	}
	if strings.Contains(url, placeholderMarker) {
		return
	}

	r.mu.Lock()
	if r.images[coinID] == url {
		r.mu.Unlock()
		return
	}
	r.images[coinID] = url
	r.mu.Unlock()

	r.persist()
}

// ClearCache empties the registry and persists the empty map.
func (r *ImageRegistry) ClearCache() {
	r.mu.Lock()
	r.images = make(map[string]string)
	r.mu.Unlock()

	r.persist()
}

// Len reports the number of cached URLs.
func (r *ImageRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}

func (r *ImageRegistry) persist() {
	r.mu.RLock()
	data, err := json.Marshal(r.images)
	r.mu.RUnlock()
	if err != nil {
		r.logger.Error("Failed to encode image registry", zap.Error(err))
		return
	}

	if err := r.store.Save(context.Background(), storageKey, data); err != nil {
		// Keep serving from memory; the next write retries persistence.
		r.logger.Warn("Failed to persist image registry, continuing in memory",
			zap.Error(err))
	}
}
