package engine

import (
	"fmt"

	"nft-auction-engine/internal/domain"
)

// UserListingBid is one listing a bidder has participated in.
type UserListingBid struct {
	ListingKey string
	Amount     int64
	Time       int64
}

// BidderInfo is one entry of a recent-bidders listing.
type BidderInfo struct {
	Bidder domain.Identity
	Amount int64
	Time   int64
}

// AuctionStatus is a read-only snapshot of one auction.
type AuctionStatus struct {
	ListingKey    string
	MinimumBid    int64
	HighestBid    int64
	HighestBidder domain.Identity
	EndTime       int64
	RemainingTime int64
	Ended         bool
	Paused        bool
	IsAlien       bool
	Owner         domain.Identity
	NumBidders    int
}

// UserBid returns a bidder's recorded cumulative amount and last bid
// time on a listing. Unknown bidders read as zero.
func (e *Engine) UserBid(key string, user domain.Identity) (int64, int64, error) {
	l, err := e.lookup(key)
	if err != nil {
		return 0, 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bid := l.a.Bids[user]
	return bid.Amount, bid.Time, nil
}

// BidsOfUser returns every listing the bidder has ever bid on, with
// the recorded amount and time for each.
func (e *Engine) BidsOfUser(bidder domain.Identity) ([]UserListingBid, error) {
	e.idxMu.RLock()
	keys := append([]string(nil), e.listingsByBidder[bidder]...)
	e.idxMu.RUnlock()

	result := make([]UserListingBid, 0, len(keys))
	for _, key := range keys {
		l, err := e.lookup(key)
		if err != nil {
			continue // index may briefly lead the arena; skip unknown keys
		}
		l.mu.Lock()
		bid := l.a.Bids[bidder]
		l.mu.Unlock()
		result = append(result, UserListingBid{ListingKey: key, Amount: bid.Amount, Time: bid.Time})
	}
	return result, nil
}

// LatestBidders returns up to n most recent distinct bidders on a
// listing, most-recent-first.
func (e *Engine) LatestBidders(key string, n int) ([]BidderInfo, error) {
	l, err := e.lookup(key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.a
	if n > len(a.Bidders) {
		n = len(a.Bidders)
	}
	if n < 0 {
		n = 0
	}

	result := make([]BidderInfo, 0, n)
	for i := 0; i < n; i++ {
		bidder := a.Bidders[len(a.Bidders)-1-i]
		bid := a.Bids[bidder]
		result = append(result, BidderInfo{Bidder: bidder, Amount: bid.Amount, Time: bid.Time})
	}
	return result, nil
}

// Status returns a snapshot of the auction's public state.
func (e *Engine) Status(key string) (*AuctionStatus, error) {
	l, err := e.lookup(key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.a
	return &AuctionStatus{
		ListingKey:    a.ListingKey,
		MinimumBid:    a.MinimumBid,
		HighestBid:    a.HighestBid,
		HighestBidder: a.HighestBidder,
		EndTime:       a.EndTime,
		RemainingTime: a.RemainingTime(e.clock.Now()),
		Ended:         a.Ended,
		Paused:        a.Paused,
		IsAlien:       a.IsAlien,
		Owner:         a.Owner,
		NumBidders:    len(a.Bidders),
	}, nil
}

// Winner returns the winning bidder of a settled auction. It fails
// with ErrAuctionNotEnded while the auction is still live.
func (e *Engine) Winner(key string) (domain.Identity, error) {
	l, err := e.lookup(key)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.a.Ended {
		return "", fmt.Errorf("winner of %q: %w", key, ErrAuctionNotEnded)
	}
	return l.a.HighestBidder, nil
}

// HasEnded reports whether the auction has been settled.
func (e *Engine) HasEnded(key string) (bool, error) {
	l, err := e.lookup(key)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Ended, nil
}

// ActiveAuctionsOf returns the listing keys an owner currently has open.
func (e *Engine) ActiveAuctionsOf(owner domain.Identity) []string {
	e.idxMu.RLock()
	defer e.idxMu.RUnlock()
	return append([]string(nil), e.activeByOwner[owner]...)
}

// PastAuctionsOf returns the listing keys an owner has settled.
func (e *Engine) PastAuctionsOf(owner domain.Identity) []string {
	e.idxMu.RLock()
	defer e.idxMu.RUnlock()
	return append([]string(nil), e.pastByOwner[owner]...)
}

// PendingWithdrawals returns the actor's pending-withdrawal balance.
// Nothing credits this ledger in this version, so it always reads zero.
func (e *Engine) PendingWithdrawals(actor domain.Identity) int64 {
	e.idxMu.RLock()
	defer e.idxMu.RUnlock()
	return e.pendingWithdrawals[actor]
}
