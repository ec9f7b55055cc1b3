package domain

// BidRecord is one accepted bid in the write-behind journal.
// Corresponds to the bid_records table in PostgreSQL.
type BidRecord struct {
	ID         int64  // BIGSERIAL primary key
	ListingKey string
	Bidder     string
	Paid       int64 // gross paid amount
	Fee        int64 // buyer-side fee withheld
	Net        int64 // net contribution of the call
	Cumulative int64 // bidder cumulative after the call
	BidTime    int64 // unix seconds
	CreatedAt  int64 // record creation timestamp (s)
}

// SettlementRecord is one committed settlement in the journal.
// Corresponds to the settlements table in PostgreSQL.
type SettlementRecord struct {
	ReceiptID     string // deterministic hash, see idhash
	ListingKey    string
	Winner        string
	WinningBid    int64
	OwnerEarnings int64
	TotalFee      int64
	SettledAt     int64 // unix seconds
	CreatedAt     int64
}

// BidTimeseriesPoint is one highest-bid observation for analytics.
// Corresponds to the bid_timeseries table in ClickHouse.
type BidTimeseriesPoint struct {
	ListingKey string
	Timestamp  int64 // unix seconds
	HighestBid int64
	Bidder     string
	BidCount   int // distinct bidders at observation time
}
