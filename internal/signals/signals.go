// Package signals implements the feature store backing the extractors.
// Behavioral signals and market snapshots are synced in by the marketplace
// backend and read here at scoring time.
package signals

import (
	"context"
	"errors"
	"fmt"

	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/repository"
)

// Store is a repository-backed feature store. A missing row is a miss, not
// an error; the extractors turn misses into neutral defaults.
type Store struct {
	repo domain.Repository
}

// NewStore creates a feature store over the repository.
func NewStore(repo domain.Repository) *Store {
	return &Store{repo: repo}
}

// BehaviorSignals returns the stored signals for a user, or nil on miss.
func (s *Store) BehaviorSignals(ctx context.Context, userID string) (*domain.BehaviorSignals, error) {
	sig, err := s.repo.GetBehaviorSignals(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("behavior signals lookup: %w", err)
	}
	return sig, nil
}

// MarketSnapshot returns market data for a location, or nil on miss.
func (s *Store) MarketSnapshot(ctx context.Context, location string) (*domain.MarketSnapshot, error) {
	snap, err := s.repo.GetMarketSnapshot(ctx, location)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market snapshot lookup: %w", err)
	}
	return snap, nil
}

// StaticStore is an in-memory feature store, used in tests and as a stand-in
// when no repository is wired.
type StaticStore struct {
	Signals map[string]*domain.BehaviorSignals
	Markets map[string]*domain.MarketSnapshot
}

// NewStaticStore creates an empty in-memory feature store.
func NewStaticStore() *StaticStore {
	return &StaticStore{
		Signals: make(map[string]*domain.BehaviorSignals),
		Markets: make(map[string]*domain.MarketSnapshot),
	}
}

// BehaviorSignals returns the stored signals for a user, or nil on miss.
func (s *StaticStore) BehaviorSignals(ctx context.Context, userID string) (*domain.BehaviorSignals, error) {
	return s.Signals[userID], nil
}

// MarketSnapshot returns market data for a location, or nil on miss.
func (s *StaticStore) MarketSnapshot(ctx context.Context, location string) (*domain.MarketSnapshot, error) {
	return s.Markets[location], nil
}
