package reporting

import "time"

// Report summarizes the auction journal: per-listing bidding activity
// and settlement outcomes.
type Report struct {
	GeneratedAt time.Time

	Summary  Summary
	Listings []ListingRow

	// TopBidders is sorted by total paid, descending.
	TopBidders []BidderRow
}

// Summary contains totals across all reported listings.
type Summary struct {
	TotalListings   int
	SettledListings int
	TotalBids       int
	DistinctBidders int
	TotalPaid       int64 // gross amount paid in
	TotalBuyerFees  int64
	TotalEarnings   int64 // settled owner earnings
	TotalFees       int64 // settled total fees
}

// ListingRow is one listing's journal summary.
type ListingRow struct {
	ListingKey      string
	Bids            int
	DistinctBidders int
	TotalPaid       int64
	BuyerFees       int64
	HighestBid      int64 // highest cumulative contribution observed

	Settled       bool
	Winner        string
	WinningBid    int64
	OwnerEarnings int64
	TotalFee      int64
	SettledAt     int64
}

// BidderRow is one bidder's aggregate activity.
type BidderRow struct {
	Bidder    string
	Bids      int
	TotalPaid int64
	Wins      int
}
