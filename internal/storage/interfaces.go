package storage

import (
	"context"

	"nft-auction-engine/internal/domain"
)

// BidRecordStore provides access to bid_records storage. Records are
// append-only: one row per accepted bid.
type BidRecordStore interface {
	// Insert adds a new bid record.
	Insert(ctx context.Context, r *domain.BidRecord) error

	// GetByListingKey retrieves all records for a listing, ordered by bid time ASC.
	GetByListingKey(ctx context.Context, listingKey string) ([]*domain.BidRecord, error)

	// GetByBidder retrieves all records for a bidder, ordered by bid time ASC.
	GetByBidder(ctx context.Context, bidder string) ([]*domain.BidRecord, error)

	// GetByTimeRange retrieves records for a listing within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, listingKey string, start, end int64) ([]*domain.BidRecord, error)
}

// SettlementStore provides access to settlements storage.
type SettlementStore interface {
	// Insert adds a new settlement. Returns ErrDuplicateKey if receipt_id exists.
	Insert(ctx context.Context, s *domain.SettlementRecord) error

	// GetByReceiptID retrieves a settlement by receipt ID. Returns ErrNotFound if not exists.
	GetByReceiptID(ctx context.Context, receiptID string) (*domain.SettlementRecord, error)

	// GetByListingKey retrieves the settlement for a listing. Returns ErrNotFound if not exists.
	GetByListingKey(ctx context.Context, listingKey string) (*domain.SettlementRecord, error)

	// GetByWinner retrieves all settlements won by an actor, ordered by settled time ASC.
	GetByWinner(ctx context.Context, winner string) ([]*domain.SettlementRecord, error)
}

// BidTimeseriesStore provides access to bid_timeseries storage.
type BidTimeseriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (listing_key, timestamp).
	InsertBulk(ctx context.Context, points []*domain.BidTimeseriesPoint) error

	// GetByListingKey retrieves all points for a listing, ordered by timestamp ASC.
	GetByListingKey(ctx context.Context, listingKey string) ([]*domain.BidTimeseriesPoint, error)

	// GetByTimeRange retrieves points for a listing within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, listingKey string, start, end int64) ([]*domain.BidTimeseriesPoint, error)
}
