package engine

import (
	"context"

	"nft-auction-engine/internal/domain"
)

// MintRequest carries everything the ownership-transfer service needs
// to transfer the auctioned asset to the winner.
type MintRequest struct {
	Winner      domain.Identity
	ListingKey  string
	Metadata    string
	Seller      domain.Identity
	Amount      int64
	RoutingHint string // opaque, forwarded unmodified
}

// OwnershipTransfer finalizes transfer of the auctioned asset to the
// winner. The call is synchronous and may fail; a failure aborts the
// settlement that issued it.
type OwnershipTransfer interface {
	Mint(ctx context.Context, req MintRequest) error
}

// Ledger moves funds to an actor. Every transfer's error must be
// checked; a failure aborts the transaction that issued it.
type Ledger interface {
	Transfer(ctx context.Context, to domain.Identity, amount int64) error
}
