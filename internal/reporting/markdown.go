package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Auction Journal Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Listings | %d |\n", r.Summary.TotalListings))
	sb.WriteString(fmt.Sprintf("| Settled Listings | %d |\n", r.Summary.SettledListings))
	sb.WriteString(fmt.Sprintf("| Total Bids | %d |\n", r.Summary.TotalBids))
	sb.WriteString(fmt.Sprintf("| Distinct Bidders | %d |\n", r.Summary.DistinctBidders))
	sb.WriteString(fmt.Sprintf("| Total Paid | %d |\n", r.Summary.TotalPaid))
	sb.WriteString(fmt.Sprintf("| Buyer Fees | %d |\n", r.Summary.TotalBuyerFees))
	sb.WriteString(fmt.Sprintf("| Owner Earnings (settled) | %d |\n", r.Summary.TotalEarnings))
	sb.WriteString(fmt.Sprintf("| Total Fees (settled) | %d |\n", r.Summary.TotalFees))
	sb.WriteString("\n")

	sb.WriteString("## Listings\n\n")
	sb.WriteString("| Listing | Bids | Bidders | Total Paid | Highest Bid | Settled | Winner | Winning Bid | Earnings | Fees |\n")
	sb.WriteString("|---------|------|---------|------------|-------------|---------|--------|-------------|----------|------|\n")
	for _, l := range r.Listings {
		settled := "no"
		if l.Settled {
			settled = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %s | %s | %d | %d | %d |\n",
			l.ListingKey, l.Bids, l.DistinctBidders, l.TotalPaid, l.HighestBid,
			settled, l.Winner, l.WinningBid, l.OwnerEarnings, l.TotalFee))
	}
	sb.WriteString("\n")

	if len(r.TopBidders) > 0 {
		sb.WriteString("## Top Bidders\n\n")
		sb.WriteString("| Bidder | Bids | Total Paid | Wins |\n")
		sb.WriteString("|--------|------|------------|------|\n")
		for _, b := range r.TopBidders {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n", b.Bidder, b.Bids, b.TotalPaid, b.Wins))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
