package domain

import (
	"strings"
	"time"
)

// PriceQuote is one asset's USD price as reported by the simple/price endpoint.
type PriceQuote struct {
	ID       string  `json:"id"`
	PriceUSD float64 `json:"price_usd"`
}

// DisplayName is the label shown on every surface: the upstream id in upper case.
func (q PriceQuote) DisplayName() string {
	return strings.ToUpper(q.ID)
}

// PriceBoard is the PriceTicker snapshot. Quotes follow the configured id order.
type PriceBoard struct {
	Quotes []PriceQuote `json:"quotes"`
}

// MarketStats is the CryptoMarket snapshot.
type MarketStats struct {
	TotalMarketCapUSD float64 `json:"total_market_cap_usd"`
	BTCDominancePct   float64 `json:"btc_dominance_pct"`
	ETHDominancePct   float64 `json:"eth_dominance_pct"`
}

// OtherDominancePct is whatever BTC and ETH leave of 100%. Inconsistent upstream
// percentages are not clamped and can produce a negative value.
func (s MarketStats) OtherDominancePct() float64 {
	return 100 - s.BTCDominancePct - s.ETHDominancePct
}

// FearGreedIndex is the FearGreed snapshot.
type FearGreedIndex struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
	TimestampMs    int64  `json:"timestamp_ms"`
}

func (f FearGreedIndex) UpdatedAt() time.Time {
	return time.UnixMilli(f.TimestampMs).UTC()
}

// NewsItem is one feed entry. Any field may be empty when the feed omits it.
// DescriptionHTML is rendered verbatim.
type NewsItem struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	DescriptionHTML string `json:"description_html"`
	PubDate         string `json:"pub_date"`
}

// NewsDigest is the NewsFeed snapshot, in feed order.
type NewsDigest struct {
	Items []NewsItem `json:"items"`
}
