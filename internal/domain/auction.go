package domain

// Anti-sniping constants, in seconds.
const (
	// SnipingWindow is the trailing interval before EndTime during which
	// a bid triggers an extension.
	SnipingWindow int64 = 300

	// TimeExtension is the amount added to EndTime on each qualifying
	// late bid. Extensions stack without cap.
	TimeExtension int64 = 300
)

// MinRaisePct is the minimum percentage a new cumulative bid must
// exceed the current highest bid by. A bid is competitive when
// newCumulative*100 > highestBid*(100+MinRaisePct).
const MinRaisePct int64 = 3

// Bid records one bidder's cumulative net contribution to an auction.
type Bid struct {
	Amount int64 // cumulative net contribution, lamports
	Time   int64 // unix seconds of the most recent accepted bid
}

// Auction is one English-style auction keyed by listing key.
// All amounts are net of buyer-side fees unless noted.
type Auction struct {
	ListingKey    string
	MinimumBid    int64 // smallest net contribution from a brand-new bidder; immutable
	HighestBid    int64 // current winning cumulative net amount; non-decreasing
	HighestBidder Identity
	EndTime       int64 // unix seconds; advanced only by anti-sniping while not ended
	FeesAccrued   int64 // running total of buyer-side fees withheld
	TotalAmount   int64 // running sum of all net contributions ever accepted
	Ended         bool
	Paused        bool
	IsAlien       bool // set at creation, never changes
	Owner         Identity

	// Bids maps bidder to cumulative net contribution. Amounts only
	// grow, except when zeroed by withdrawal.
	Bids map[Identity]Bid

	// Bidders lists distinct bidders in first-bid order.
	Bidders []Identity
}

// Clone returns a deep copy of the auction. The engine stages
// settlement mutations on a clone and swaps it in only on commit.
func (a *Auction) Clone() *Auction {
	cp := *a
	cp.Bids = make(map[Identity]Bid, len(a.Bids))
	for k, v := range a.Bids {
		cp.Bids[k] = v
	}
	cp.Bidders = append([]Identity(nil), a.Bidders...)
	return &cp
}

// RemainingTime returns seconds until EndTime, or 0 if already past.
func (a *Auction) RemainingTime(now int64) int64 {
	if now < a.EndTime {
		return a.EndTime - now
	}
	return 0
}
