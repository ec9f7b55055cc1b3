package engine

import (
	"context"
	"fmt"

	"nft-auction-engine/internal/domain"
)

// Withdraw releases a non-winning bidder's held funds. The recorded
// amount is zeroed strictly before the ledger transfer is issued, so a
// reentrant attempt during the transfer observes zero and is rejected;
// a failed transfer restores the amount.
func (e *Engine) Withdraw(ctx context.Context, key string, caller domain.Identity, recipient domain.Identity) (int64, error) {
	l, err := e.lookup(key)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.a

	if a.IsAlien {
		return 0, fmt.Errorf("withdraw from %q: %w", key, ErrAlienAuction)
	}
	if caller == a.HighestBidder {
		return 0, fmt.Errorf("withdraw from %q: %w", key, ErrHighestBidderCannotWithdraw)
	}

	prior, ok := a.Bids[caller]
	if !ok || prior.Amount <= 0 {
		return 0, fmt.Errorf("withdraw from %q: %w", key, ErrNoFundsToWithdraw)
	}

	if recipient.IsZero() {
		recipient = caller
	}

	// Zero first, transfer second.
	a.Bids[caller] = domain.Bid{Amount: 0, Time: prior.Time}

	if err := e.ledger.Transfer(ctx, recipient, prior.Amount); err != nil {
		a.Bids[caller] = prior
		e.logger.Printf("withdraw %s: transfer failed: %v", key, err)
		return 0, fmt.Errorf("withdraw from %q: %w: %v", key, ErrExternalService, err)
	}

	e.emitFundsWithdrawn(domain.FundsWithdrawn{
		ListingKey: key,
		Bidder:     caller,
		Recipient:  recipient,
		Amount:     prior.Amount,
	})
	return prior.Amount, nil
}
