package engine

import (
	"fmt"

	"nft-auction-engine/internal/domain"
)

// BuildReceiptMetadata constructs the deterministic metadata record
// attached to the minted asset.
func BuildReceiptMetadata(
	listingKey string,
	amount int64,
	bidTime int64,
	seller domain.Identity,
	minter domain.Identity,
) (string, error) {
	if seller.IsZero() {
		return "", fmt.Errorf("build metadata: %w", ErrInvalidOwner)
	}
	if minter.IsZero() {
		return "", fmt.Errorf("build metadata: empty minter identity")
	}

	return fmt.Sprintf(
		"listing_id:%s, amount:%d, time:%d, seller:%s, minter:%s",
		listingKey, amount, bidTime, seller, minter,
	), nil
}
