package engine

import (
	"fmt"

	"nft-auction-engine/internal/domain"
)

// Administrative operations. Each is restricted to the admin identity
// configured at construction. Fee changes take effect for transactions
// that start after the change; in-flight transactions keep the
// snapshot they captured.

// SetFeeRecipient changes the identity that receives platform fees.
func (e *Engine) SetFeeRecipient(caller domain.Identity, recipient domain.Identity) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if recipient.IsZero() {
		return fmt.Errorf("set fee recipient: %w", ErrInvalidOwner)
	}

	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	e.cfg.FeeRecipient = recipient
	return nil
}

// SetFees changes the buyer- and seller-side fee rates, in
// parts-per-thousand.
func (e *Engine) SetFees(caller domain.Identity, buyerPpt, sellerPpt int64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if buyerPpt < 0 || sellerPpt < 0 || buyerPpt > domain.FeeDenominator || sellerPpt > domain.FeeDenominator {
		return fmt.Errorf("set fees: %w", ErrInvalidAmount)
	}

	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	e.cfg.BuyerFeePpt = buyerPpt
	e.cfg.SellerFeePpt = sellerPpt
	return nil
}

// SetPaused pauses or resumes bidding on one listing.
func (e *Engine) SetPaused(caller domain.Identity, key string, paused bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}

	l, err := e.lookup(key)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Paused = paused
	return nil
}

// SetMintTarget swaps the ownership-transfer service. In-flight
// settlements keep the target they resolved at start.
func (e *Engine) SetMintTarget(caller domain.Identity, mint OwnershipTransfer) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if mint == nil {
		return fmt.Errorf("set mint target: nil service")
	}

	e.mintMu.Lock()
	defer e.mintMu.Unlock()
	e.mint = mint
	return nil
}

func (e *Engine) requireAdmin(caller domain.Identity) error {
	if e.admin.IsZero() || caller != e.admin {
		return fmt.Errorf("caller %q: %w", caller, ErrUnauthorized)
	}
	return nil
}
