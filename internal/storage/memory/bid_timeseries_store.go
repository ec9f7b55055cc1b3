package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidTimeseriesStore is an in-memory implementation of storage.BidTimeseriesStore.
type BidTimeseriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BidTimeseriesPoint // keyed by (listing_key, timestamp)
}

// NewBidTimeseriesStore creates a new in-memory bid timeseries store.
func NewBidTimeseriesStore() *BidTimeseriesStore {
	return &BidTimeseriesStore{
		data: make(map[string]*domain.BidTimeseriesPoint),
	}
}

// Compile-time interface check.
var _ storage.BidTimeseriesStore = (*BidTimeseriesStore)(nil)

func pointKey(listingKey string, timestamp int64) string {
	return fmt.Sprintf("%s|%d", listingKey, timestamp)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate (listing_key, timestamp).
func (s *BidTimeseriesStore) InsertBulk(_ context.Context, points []*domain.BidTimeseriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.ListingKey == "" {
			return storage.ErrInvalidInput
		}
		key := pointKey(p.ListingKey, p.Timestamp)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		copy := *p
		s.data[pointKey(p.ListingKey, p.Timestamp)] = &copy
	}

	return nil
}

// GetByListingKey retrieves all points for a listing, ordered by timestamp ASC.
func (s *BidTimeseriesStore) GetByListingKey(_ context.Context, listingKey string) ([]*domain.BidTimeseriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BidTimeseriesPoint
	for _, p := range s.data {
		if p.ListingKey == listingKey {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortPoints(result)
	return result, nil
}

// GetByTimeRange retrieves points for a listing within [start, end] (inclusive).
func (s *BidTimeseriesStore) GetByTimeRange(_ context.Context, listingKey string, start, end int64) ([]*domain.BidTimeseriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BidTimeseriesPoint
	for _, p := range s.data {
		if p.ListingKey == listingKey && p.Timestamp >= start && p.Timestamp <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortPoints(result)
	return result, nil
}

func sortPoints(points []*domain.BidTimeseriesPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}
