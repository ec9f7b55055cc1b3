package domain

// Event types emitted by the engine.
const (
	EventAuctionInitialized = "auction_initialized"
	EventBidPlaced          = "bid_placed"
	EventAuctionEnded       = "auction_ended"
	EventFundsWithdrawn     = "funds_withdrawn"
)

// AuctionInitialized is emitted when a fresh listing key is opened.
type AuctionInitialized struct {
	ListingKey string
	MinimumBid int64
	EndTime    int64
	Owner      Identity
	IsAlien    bool
}

// BidPlaced is emitted for every accepted bid.
type BidPlaced struct {
	ListingKey string
	Bidder     Identity
	Paid       int64 // gross amount paid by the bidder
	Fee        int64 // buyer-side fee withheld
	Net        int64 // net contribution of this call
	Cumulative int64 // bidder's cumulative net contribution after this bid
	Time       int64 // unix seconds
}

// AuctionEnded is emitted when settlement commits.
type AuctionEnded struct {
	ListingKey    string
	Winner        Identity
	WinningBid    int64
	OwnerEarnings int64
	TotalFee      int64
	SettledAt     int64
}

// FundsWithdrawn is emitted when a non-winning bidder's funds are
// released.
type FundsWithdrawn struct {
	ListingKey string
	Bidder     Identity
	Recipient  Identity
	Amount     int64
}

// EventSink receives engine events after the emitting transaction has
// committed. Implementations must not call back into the engine for
// the same listing key.
type EventSink interface {
	AuctionInitialized(e AuctionInitialized)
	BidPlaced(e BidPlaced)
	AuctionEnded(e AuctionEnded)
	FundsWithdrawn(e FundsWithdrawn)
}
