package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders listing rows as CSV string.
func RenderCSV(listings []ListingRow) string {
	var sb strings.Builder

	sb.WriteString("listing_key,bids,distinct_bidders,total_paid,buyer_fees,highest_bid,")
	sb.WriteString("settled,winner,winning_bid,owner_earnings,total_fee,settled_at\n")

	for _, l := range listings {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d,%t,%s,%d,%d,%d,%d\n",
			l.ListingKey,
			l.Bids,
			l.DistinctBidders,
			l.TotalPaid,
			l.BuyerFees,
			l.HighestBid,
			l.Settled,
			l.Winner,
			l.WinningBid,
			l.OwnerEarnings,
			l.TotalFee,
			l.SettledAt,
		))
	}

	return sb.String()
}
