package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// SettlementStore implements storage.SettlementStore using PostgreSQL.
type SettlementStore struct {
	pool *Pool
}

// NewSettlementStore creates a new SettlementStore.
func NewSettlementStore(pool *Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// Insert adds a new settlement. Returns ErrDuplicateKey if receipt_id exists.
func (s *SettlementStore) Insert(ctx context.Context, rec *domain.SettlementRecord) error {
	if rec == nil || rec.ReceiptID == "" || rec.ListingKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO settlements (
			receipt_id, listing_key, winner, winning_bid, owner_earnings, total_fee, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ReceiptID,
		rec.ListingKey,
		rec.Winner,
		rec.WinningBid,
		rec.OwnerEarnings,
		rec.TotalFee,
		rec.SettledAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByReceiptID retrieves a settlement by receipt ID. Returns ErrNotFound if not exists.
func (s *SettlementStore) GetByReceiptID(ctx context.Context, receiptID string) (*domain.SettlementRecord, error) {
	query := `
		SELECT receipt_id, listing_key, winner, winning_bid, owner_earnings, total_fee, settled_at, created_at
		FROM settlements
		WHERE receipt_id = $1
	`

	row := s.pool.QueryRow(ctx, query, receiptID)
	rec, err := scanSettlement(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get settlement by receipt id: %w", err)
	}
	return rec, nil
}

// GetByListingKey retrieves the settlement for a listing. Returns ErrNotFound if not exists.
func (s *SettlementStore) GetByListingKey(ctx context.Context, listingKey string) (*domain.SettlementRecord, error) {
	query := `
		SELECT receipt_id, listing_key, winner, winning_bid, owner_earnings, total_fee, settled_at, created_at
		FROM settlements
		WHERE listing_key = $1
	`

	row := s.pool.QueryRow(ctx, query, listingKey)
	rec, err := scanSettlement(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get settlement by listing key: %w", err)
	}
	return rec, nil
}

// GetByWinner retrieves all settlements won by an actor, ordered by settled time ASC.
func (s *SettlementStore) GetByWinner(ctx context.Context, winner string) ([]*domain.SettlementRecord, error) {
	query := `
		SELECT receipt_id, listing_key, winner, winning_bid, owner_earnings, total_fee, settled_at, created_at
		FROM settlements
		WHERE winner = $1
		ORDER BY settled_at ASC, receipt_id ASC
	`

	rows, err := s.pool.Query(ctx, query, winner)
	if err != nil {
		return nil, fmt.Errorf("get settlements by winner: %w", err)
	}
	defer rows.Close()

	var result []*domain.SettlementRecord
	for rows.Next() {
		rec, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return result, nil
}

// scanSettlement scans a single row into a settlement record.
func scanSettlement(row pgx.Row) (*domain.SettlementRecord, error) {
	var rec domain.SettlementRecord
	err := row.Scan(
		&rec.ReceiptID,
		&rec.ListingKey,
		&rec.Winner,
		&rec.WinningBid,
		&rec.OwnerEarnings,
		&rec.TotalFee,
		&rec.SettledAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
