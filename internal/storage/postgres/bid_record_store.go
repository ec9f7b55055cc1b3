package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidRecordStore implements storage.BidRecordStore using PostgreSQL.
type BidRecordStore struct {
	pool *Pool
}

// NewBidRecordStore creates a new BidRecordStore.
func NewBidRecordStore(pool *Pool) *BidRecordStore {
	return &BidRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BidRecordStore = (*BidRecordStore)(nil)

// Insert adds a new bid record.
func (s *BidRecordStore) Insert(ctx context.Context, r *domain.BidRecord) error {
	if r == nil || r.ListingKey == "" || r.Bidder == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bid_records (
			listing_key, bidder, paid, fee, net, cumulative, bid_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ListingKey,
		r.Bidder,
		r.Paid,
		r.Fee,
		r.Net,
		r.Cumulative,
		r.BidTime,
	)
	if err != nil {
		return fmt.Errorf("insert bid record: %w", err)
	}
	return nil
}

// GetByListingKey retrieves all records for a listing, ordered by bid time ASC.
func (s *BidRecordStore) GetByListingKey(ctx context.Context, listingKey string) ([]*domain.BidRecord, error) {
	query := `
		SELECT id, listing_key, bidder, paid, fee, net, cumulative, bid_time, created_at
		FROM bid_records
		WHERE listing_key = $1
		ORDER BY bid_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, listingKey)
	if err != nil {
		return nil, fmt.Errorf("get bid records by listing key: %w", err)
	}
	defer rows.Close()

	return scanBidRecords(rows)
}

// GetByBidder retrieves all records for a bidder, ordered by bid time ASC.
func (s *BidRecordStore) GetByBidder(ctx context.Context, bidder string) ([]*domain.BidRecord, error) {
	query := `
		SELECT id, listing_key, bidder, paid, fee, net, cumulative, bid_time, created_at
		FROM bid_records
		WHERE bidder = $1
		ORDER BY bid_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, bidder)
	if err != nil {
		return nil, fmt.Errorf("get bid records by bidder: %w", err)
	}
	defer rows.Close()

	return scanBidRecords(rows)
}

// GetByTimeRange retrieves records for a listing within [start, end] (inclusive).
func (s *BidRecordStore) GetByTimeRange(ctx context.Context, listingKey string, start, end int64) ([]*domain.BidRecord, error) {
	query := `
		SELECT id, listing_key, bidder, paid, fee, net, cumulative, bid_time, created_at
		FROM bid_records
		WHERE listing_key = $1 AND bid_time >= $2 AND bid_time <= $3
		ORDER BY bid_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, listingKey, start, end)
	if err != nil {
		return nil, fmt.Errorf("get bid records by time range: %w", err)
	}
	defer rows.Close()

	return scanBidRecords(rows)
}

// scanBidRecords scans all rows into bid records.
func scanBidRecords(rows pgx.Rows) ([]*domain.BidRecord, error) {
	var result []*domain.BidRecord
	for rows.Next() {
		var r domain.BidRecord
		err := rows.Scan(
			&r.ID,
			&r.ListingKey,
			&r.Bidder,
			&r.Paid,
			&r.Fee,
			&r.Net,
			&r.Cumulative,
			&r.BidTime,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bid record: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid records: %w", err)
	}
	return result, nil
}
