package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidRecordStore is an in-memory implementation of storage.BidRecordStore.
type BidRecordStore struct {
	mu     sync.RWMutex
	data   []*domain.BidRecord
	nextID int64
}

// NewBidRecordStore creates a new in-memory bid record store.
func NewBidRecordStore() *BidRecordStore {
	return &BidRecordStore{nextID: 1}
}

// Compile-time interface check.
var _ storage.BidRecordStore = (*BidRecordStore)(nil)

// Insert adds a new bid record.
func (s *BidRecordStore) Insert(_ context.Context, r *domain.BidRecord) error {
	if r == nil || r.ListingKey == "" || r.Bidder == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *r
	copy.ID = s.nextID
	s.nextID++
	s.data = append(s.data, &copy)
	return nil
}

// GetByListingKey retrieves all records for a listing, ordered by bid time ASC.
func (s *BidRecordStore) GetByListingKey(_ context.Context, listingKey string) ([]*domain.BidRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(r *domain.BidRecord) bool {
		return r.ListingKey == listingKey
	}), nil
}

// GetByBidder retrieves all records for a bidder, ordered by bid time ASC.
func (s *BidRecordStore) GetByBidder(_ context.Context, bidder string) ([]*domain.BidRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(r *domain.BidRecord) bool {
		return r.Bidder == bidder
	}), nil
}

// GetByTimeRange retrieves records for a listing within [start, end] (inclusive).
func (s *BidRecordStore) GetByTimeRange(_ context.Context, listingKey string, start, end int64) ([]*domain.BidRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(r *domain.BidRecord) bool {
		return r.ListingKey == listingKey && r.BidTime >= start && r.BidTime <= end
	}), nil
}

// filter returns copies of matching records sorted by (bid_time, id).
// Caller must hold at least a read lock.
func (s *BidRecordStore) filter(match func(*domain.BidRecord) bool) []*domain.BidRecord {
	var result []*domain.BidRecord
	for _, r := range s.data {
		if match(r) {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BidTime != result[j].BidTime {
			return result[i].BidTime < result[j].BidTime
		}
		return result[i].ID < result[j].ID
	})

	return result
}
