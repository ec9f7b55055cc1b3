package clickhouse

import (
	"context"
	"fmt"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidTimeseriesStore implements storage.BidTimeseriesStore using ClickHouse.
type BidTimeseriesStore struct {
	conn *Conn
}

// NewBidTimeseriesStore creates a new BidTimeseriesStore.
func NewBidTimeseriesStore(conn *Conn) *BidTimeseriesStore {
	return &BidTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BidTimeseriesStore = (*BidTimeseriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (listing_key, timestamp).
func (s *BidTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.BidTimeseriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		listingKey string
		timestamp  int64
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.ListingKey == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.ListingKey, p.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.ListingKey, p.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bid_timeseries (
			listing_key, timestamp, highest_bid, bidder, bid_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.ListingKey, uint64(p.Timestamp), uint64(p.HighestBid),
			p.Bidder, uint32(p.BidCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByListingKey retrieves all points for a listing, ordered by timestamp ASC.
func (s *BidTimeseriesStore) GetByListingKey(ctx context.Context, listingKey string) ([]*domain.BidTimeseriesPoint, error) {
	query := `
		SELECT listing_key, timestamp, highest_bid, bidder, bid_count
		FROM bid_timeseries
		WHERE listing_key = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, listingKey)
	if err != nil {
		return nil, fmt.Errorf("get bid timeseries by listing key: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetByTimeRange retrieves points for a listing within [start, end] (inclusive).
func (s *BidTimeseriesStore) GetByTimeRange(ctx context.Context, listingKey string, start, end int64) ([]*domain.BidTimeseriesPoint, error) {
	query := `
		SELECT listing_key, timestamp, highest_bid, bidder, bid_count
		FROM bid_timeseries
		WHERE listing_key = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, listingKey, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("get bid timeseries by time range: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// exists checks whether a point exists for (listing_key, timestamp).
func (s *BidTimeseriesStore) exists(ctx context.Context, listingKey string, timestamp int64) (bool, error) {
	query := `
		SELECT count() FROM bid_timeseries
		WHERE listing_key = ? AND timestamp = ?
	`

	var count uint64
	row := s.conn.QueryRow(ctx, query, listingKey, uint64(timestamp))
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// rowScanner abstracts driver.Rows for scanning.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanPoints scans all rows into timeseries points.
func scanPoints(rows rowScanner) ([]*domain.BidTimeseriesPoint, error) {
	var result []*domain.BidTimeseriesPoint
	for rows.Next() {
		var (
			p          domain.BidTimeseriesPoint
			timestamp  uint64
			highestBid uint64
			bidCount   uint32
		)
		if err := rows.Scan(&p.ListingKey, &timestamp, &highestBid, &p.Bidder, &bidCount); err != nil {
			return nil, fmt.Errorf("scan bid timeseries point: %w", err)
		}
		p.Timestamp = int64(timestamp)
		p.HighestBid = int64(highestBid)
		p.BidCount = int(bidCount)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid timeseries points: %w", err)
	}
	return result, nil
}
