package repositories

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/urovesa/portal-api/internal/models"
)

// CachedSecretStore serves reads from an in-memory map loaded once at
// startup. Every mutation is written through to the backing store first
// and the map is updated before returning, so a concurrent reader sees
// either the pre- or post-mutation record, never a partial write.
type CachedSecretStore struct {
	backing SecretStore
	logger  *slog.Logger

	mu      sync.RWMutex
	records map[string]models.SecretRecord
}

// NewCachedSecretStore wraps a durable store with a read cache. Call Warm
// before serving traffic.
func NewCachedSecretStore(backing SecretStore, logger *slog.Logger) *CachedSecretStore {
	return &CachedSecretStore{
		backing: backing,
		logger:  logger,
		records: make(map[string]models.SecretRecord),
	}
}

// Warm loads all persisted records into the cache.
func (s *CachedSecretStore) Warm(ctx context.Context) error {
	records, err := s.backing.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]models.SecretRecord, len(records))
	for _, rec := range records {
		s.records[rec.UserID] = *rec
	}

	s.logger.Info("two-factor secret cache loaded", slog.Int("count", len(records)))
	return nil
}

func (s *CachedSecretStore) Get(ctx context.Context, userID string) (*models.SecretRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, models.ErrNotFound
	}

	out := rec
	return &out, nil
}

func (s *CachedSecretStore) Has(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[userID]
	return ok, nil
}

func (s *CachedSecretStore) IsEnabled(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	return ok && rec.Enabled, nil
}

func (s *CachedSecretStore) Save(ctx context.Context, userID, secret string) (*models.SecretRecord, error) {
	rec, err := s.backing.Save(ctx, userID, secret)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records[userID] = *rec
	s.mu.Unlock()

	out := *rec
	return &out, nil
}

func (s *CachedSecretStore) Enable(ctx context.Context, userID string) error {
	if err := s.backing.Enable(ctx, userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[userID]; ok {
		rec.Enabled = true
		s.records[userID] = rec
	}
	return nil
}

func (s *CachedSecretStore) Disable(ctx context.Context, userID string) error {
	err := s.backing.Disable(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	delete(s.records, userID)
	s.mu.Unlock()

	return nil
}

func (s *CachedSecretStore) List(ctx context.Context) ([]*models.SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.SecretRecord, 0, len(s.records))
	for _, rec := range s.records {
		out := rec
		records = append(records, &out)
	}
	return records, nil
}
