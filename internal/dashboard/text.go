package dashboard

import (
	"fmt"
	"strings"
	"time"

	"macro-dashboard/internal/domain"
	"macro-dashboard/internal/provider"
)

const (
	pricesLoadingText    = "Loading crypto prices…"
	marketLoadingText    = "Loading crypto market stats…"
	fearGreedLoadingText = "Loading Fear & Greed Index…"
	newsLoadingText      = "Loading news…"
)

func PricesText(board domain.PriceBoard) string {
	lines := make([]string, 0, len(board.Quotes))
	for _, q := range board.Quotes {
		lines = append(lines, fmt.Sprintf("%s: %s", q.DisplayName(), FormatUSD(q.PriceUSD)))
	}
	return strings.Join(lines, "\n")
}

func MarketText(stats domain.MarketStats) string {
	return strings.Join([]string{
		"Total Market Cap: " + FormatUSDWhole(stats.TotalMarketCapUSD),
		"BTC Dominance: " + FormatPct(stats.BTCDominancePct),
		"ETH Dominance: " + FormatPct(stats.ETHDominancePct),
		"Other Dominance: " + FormatPct(stats.OtherDominancePct()),
	}, "\n")
}

func FearGreedText(idx domain.FearGreedIndex, loc *time.Location) string {
	return fmt.Sprintf("%d (%s)\nLast Updated: %s", idx.Value, idx.Classification, FormatLocalTime(idx.UpdatedAt(), loc))
}

// NewsText lists each entry's title and link, followed by its description
// reduced to plain text.
func NewsText(digest domain.NewsDigest) string {
	var b strings.Builder
	for i, item := range digest.Items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "• %s", item.Title)
		if item.Link != "" {
			fmt.Fprintf(&b, "\n  %s", item.Link)
		}
		if desc := provider.HTMLText(item.DescriptionHTML); desc != "" {
			fmt.Fprintf(&b, "\n  %s", desc)
		}
	}
	return b.String()
}
