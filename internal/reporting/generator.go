package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"nft-auction-engine/internal/storage"
)

// Generator produces reports from the journal stores.
type Generator struct {
	bidStore        storage.BidRecordStore
	settlementStore storage.SettlementStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(bidStore storage.BidRecordStore, settlementStore storage.SettlementStore) *Generator {
	return &Generator{
		bidStore:        bidStore,
		settlementStore: settlementStore,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report covering the given listing keys.
func (g *Generator) Generate(ctx context.Context, listingKeys []string) (*Report, error) {
	report := &Report{GeneratedAt: g.now()}

	bidders := make(map[string]*BidderRow)

	for _, key := range listingKeys {
		row, err := g.listingRow(ctx, key, bidders)
		if err != nil {
			return nil, err
		}
		report.Listings = append(report.Listings, *row)

		report.Summary.TotalListings++
		report.Summary.TotalBids += row.Bids
		report.Summary.TotalPaid += row.TotalPaid
		report.Summary.TotalBuyerFees += row.BuyerFees
		if row.Settled {
			report.Summary.SettledListings++
			report.Summary.TotalEarnings += row.OwnerEarnings
			report.Summary.TotalFees += row.TotalFee
		}
	}

	report.Summary.DistinctBidders = len(bidders)
	report.TopBidders = sortBidders(bidders)
	return report, nil
}

func (g *Generator) listingRow(ctx context.Context, key string, bidders map[string]*BidderRow) (*ListingRow, error) {
	records, err := g.bidStore.GetByListingKey(ctx, key)
	if err != nil {
		return nil, err
	}

	row := &ListingRow{ListingKey: key}
	seen := make(map[string]struct{})
	for _, r := range records {
		row.Bids++
		row.TotalPaid += r.Paid
		row.BuyerFees += r.Fee
		if r.Cumulative > row.HighestBid {
			row.HighestBid = r.Cumulative
		}
		seen[r.Bidder] = struct{}{}

		b, ok := bidders[r.Bidder]
		if !ok {
			b = &BidderRow{Bidder: r.Bidder}
			bidders[r.Bidder] = b
		}
		b.Bids++
		b.TotalPaid += r.Paid
	}
	row.DistinctBidders = len(seen)

	settlement, err := g.settlementStore.GetByListingKey(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return row, nil
	}
	if err != nil {
		return nil, err
	}

	row.Settled = true
	row.Winner = settlement.Winner
	row.WinningBid = settlement.WinningBid
	row.OwnerEarnings = settlement.OwnerEarnings
	row.TotalFee = settlement.TotalFee
	row.SettledAt = settlement.SettledAt
	if b, ok := bidders[settlement.Winner]; ok {
		b.Wins++
	}
	return row, nil
}

// sortBidders orders by total paid descending, bidder ascending for
// deterministic output.
func sortBidders(m map[string]*BidderRow) []BidderRow {
	rows := make([]BidderRow, 0, len(m))
	for _, b := range m {
		rows = append(rows, *b)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPaid != rows[j].TotalPaid {
			return rows[i].TotalPaid > rows[j].TotalPaid
		}
		return rows[i].Bidder < rows[j].Bidder
	})
	return rows
}
