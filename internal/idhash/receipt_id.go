package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeReceiptID computes a deterministic settlement receipt ID using SHA256.
// Formula: SHA256(listing_key|winner|winning_bid|settled_at)
// Returns hex-encoded hash (64 characters).
func ComputeReceiptID(
	listingKey string,
	winner string,
	winningBid int64,
	settledAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		listingKey,
		winner,
		winningBid,
		settledAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
