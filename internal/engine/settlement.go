package engine

import (
	"context"
	"fmt"

	"nft-auction-engine/internal/domain"
)

// EndAuction settles an expired auction: transfers the asset to the
// winner, splits proceeds into owner earnings and fees, and disburses
// funds. The whole transition is atomic: mutations are staged on a
// copy and swapped in only after every external call has succeeded, so
// a failure anywhere leaves the auction exactly as it was and the call
// may be retried.
func (e *Engine) EndAuction(ctx context.Context, key string, routingHint string) (*domain.AuctionEnded, error) {
	l, err := e.lookup(key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.a
	now := e.clock.Now()

	if now < a.EndTime {
		return nil, fmt.Errorf("settle %q: %w", key, ErrAuctionNotEnded)
	}
	if a.Ended {
		return nil, fmt.Errorf("settle %q: %w", key, ErrAuctionEnded)
	}
	if a.HighestBid <= 0 {
		return nil, fmt.Errorf("settle %q: %w", key, ErrNothingToSettle)
	}

	cfg := e.feeConfig()

	// Stage the terminal state.
	staged := a.Clone()
	staged.Ended = true

	fee := cfg.SellerFee(a.HighestBid)
	ownerEarnings := a.HighestBid - fee
	fee += a.FeesAccrued

	// Alien auctions additionally pay out the entire contributed total,
	// feed at the seller rate, on top of the highest-bid payout. The
	// winning bid is part of TotalAmount, so its contribution is
	// counted twice here; this mirrors the deployed behavior and is
	// kept intact. See DESIGN.md.
	if a.IsAlien {
		alienFee := cfg.SellerFee(a.TotalAmount)
		fee += alienFee
		ownerEarnings += a.TotalAmount - alienFee
	}

	metadata, err := BuildReceiptMetadata(key, a.HighestBid, a.Bids[a.HighestBidder].Time, a.Owner, e.selfID)
	if err != nil {
		return nil, fmt.Errorf("settle %q: %w", key, err)
	}

	// External calls, each checked. Balance mutations happen only after
	// all of them have succeeded.
	mint := e.mintTarget()
	if err := mint.Mint(ctx, MintRequest{
		Winner:      a.HighestBidder,
		ListingKey:  key,
		Metadata:    metadata,
		Seller:      a.Owner,
		Amount:      a.HighestBid,
		RoutingHint: routingHint,
	}); err != nil {
		e.logger.Printf("settle %s: ownership transfer failed: %v", key, err)
		return nil, fmt.Errorf("settle %q: ownership transfer: %w: %v", key, ErrExternalService, err)
	}

	if err := e.ledger.Transfer(ctx, a.Owner, ownerEarnings); err != nil {
		e.logger.Printf("settle %s: owner payout failed: %v", key, err)
		return nil, fmt.Errorf("settle %q: owner payout: %w: %v", key, ErrExternalService, err)
	}
	if fee > 0 {
		if err := e.ledger.Transfer(ctx, cfg.FeeRecipient, fee); err != nil {
			e.logger.Printf("settle %s: fee payout failed: %v", key, err)
			return nil, fmt.Errorf("settle %q: fee payout: %w: %v", key, ErrExternalService, err)
		}
	}

	// Commit: swap in the staged auction and move the listing from the
	// owner's active index to the past index.
	l.a = staged
	e.idxMu.Lock()
	e.activeByOwner[a.Owner] = removeKey(e.activeByOwner[a.Owner], key)
	e.pastByOwner[a.Owner] = append(e.pastByOwner[a.Owner], key)
	e.idxMu.Unlock()

	ev := domain.AuctionEnded{
		ListingKey:    key,
		Winner:        a.HighestBidder,
		WinningBid:    a.HighestBid,
		OwnerEarnings: ownerEarnings,
		TotalFee:      fee,
		SettledAt:     now,
	}
	e.emitAuctionEnded(ev)
	return &ev, nil
}

// mintTarget returns the current ownership-transfer service.
func (e *Engine) mintTarget() OwnershipTransfer {
	e.mintMu.RLock()
	defer e.mintMu.RUnlock()
	return e.mint
}

// removeKey returns keys with the first occurrence of key removed.
func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
