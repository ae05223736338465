package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/yourorg/crypto-dashboard/internal/storage"

	"go.uber.org/zap"
)

// watchlistKey is the document name the watchlist persists under.
const watchlistKey = "watchlist"

// WatchlistService maintains the persisted set of watched coin ids. Set
// semantics with insertion order preserved for display. Every mutation is
// flushed to storage before returning; storage failures degrade to
// memory-only, matching the image registry.
type WatchlistService struct {
	mu      sync.Mutex
	ids     []string
	members map[string]bool
	store   storage.Store
	logger  *zap.Logger
}

// NewWatchlistService creates a watchlist hydrated from storage.
func NewWatchlistService(store storage.Store, logger *zap.Logger) *WatchlistService {
	s := &WatchlistService{
		ids:     []string{},
		members: make(map[string]bool),
		store:   store,
		logger:  logger,
	}

	data, err := store.Load(context.Background(), watchlistKey)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Warn("Failed to load watchlist, starting empty", zap.Error(err))
		}
		return s
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warn("Corrupt watchlist document, starting empty", zap.Error(err))
		return s
	}
	for _, id := range ids {
		if id != "" && !s.members[id] {
			s.members[id] = true
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Add puts a coin on the watchlist. Adding an existing member is a no-op;
// the return value reports whether the set changed.
func (s *WatchlistService) Add(coinID string) bool {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return false
	}

	s.mu.Lock()
	if s.members[coinID] {
		s.mu.Unlock()
		return false
	}
	s.members[coinID] = true
	s.ids = append(s.ids, coinID)
	s.mu.Unlock()

	s.persist()
	return true
}

// Remove drops a coin from the watchlist. Removing a non-member is a no-op.
func (s *WatchlistService) Remove(coinID string) bool {
	s.mu.Lock()
	if !s.members[coinID] {
		s.mu.Unlock()
		return false
	}
	delete(s.members, coinID)
	for i, id := range s.ids {
		if id == coinID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.persist()
	return true
}

// Contains reports membership.
func (s *WatchlistService) Contains(coinID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[coinID]
}

// List returns the watched ids in insertion order.
func (s *WatchlistService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *WatchlistService) persist() {
	s.mu.Lock()
	data, err := json.Marshal(s.ids)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Failed to encode watchlist", zap.Error(err))
		return
	}

	if err := s.store.Save(context.Background(), watchlistKey, data); err != nil {
		s.logger.Warn("Failed to persist watchlist, continuing in memory", zap.Error(err))
	}
}
