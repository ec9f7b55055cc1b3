package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// SettlementStore is an in-memory implementation of storage.SettlementStore.
type SettlementStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SettlementRecord // keyed by receipt ID
}

// NewSettlementStore creates a new in-memory settlement store.
func NewSettlementStore() *SettlementStore {
	return &SettlementStore{
		data: make(map[string]*domain.SettlementRecord),
	}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// Insert adds a new settlement. Returns ErrDuplicateKey if receipt_id exists.
func (s *SettlementStore) Insert(_ context.Context, rec *domain.SettlementRecord) error {
	if rec == nil || rec.ReceiptID == "" || rec.ListingKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ReceiptID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *rec
	s.data[rec.ReceiptID] = &copy
	return nil
}

// GetByReceiptID retrieves a settlement by receipt ID. Returns ErrNotFound if not exists.
func (s *SettlementStore) GetByReceiptID(_ context.Context, receiptID string) (*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[receiptID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *rec
	return &copy, nil
}

// GetByListingKey retrieves the settlement for a listing. Returns ErrNotFound if not exists.
func (s *SettlementStore) GetByListingKey(_ context.Context, listingKey string) (*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.data {
		if rec.ListingKey == listingKey {
			copy := *rec
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByWinner retrieves all settlements won by an actor, ordered by settled time ASC.
func (s *SettlementStore) GetByWinner(_ context.Context, winner string) ([]*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SettlementRecord
	for _, rec := range s.data {
		if rec.Winner == winner {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SettledAt != result[j].SettledAt {
			return result[i].SettledAt < result[j].SettledAt
		}
		return result[i].ReceiptID < result[j].ReceiptID
	})

	return result, nil
}
