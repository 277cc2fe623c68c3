package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"macro-dashboard/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches spot prices and global market stats from the
// CoinGecko free API through the shared relay.
type CoinGeckoProvider struct {
	relay   *Relay
	baseURL string
	tracer  trace.Tracer
}

func NewCoinGeckoProvider(tracer trace.Tracer, relay *Relay, baseURL string) *CoinGeckoProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	return &CoinGeckoProvider{
		relay:   relay,
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// PricesURL is the upstream address for a simple/price lookup.
func (p *CoinGeckoProvider) PricesURL(ids []string) string {
	return fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", p.baseURL, url.QueryEscape(strings.Join(ids, ",")))
}

func (p *CoinGeckoProvider) GlobalURL() string {
	return p.baseURL + "/global"
}

// FetchPrices fetches the USD price of every id in a single call. Quotes come
// back in the order of ids; ids the API returns unasked are appended sorted.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, ids []string) (domain.PriceBoard, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()
	span.SetAttributes(attribute.Int("coingecko.ids", len(ids)))

	if len(ids) == 0 {
		return domain.PriceBoard{}, fmt.Errorf("no price ids configured")
	}

	body, err := p.relay.Raw(ctx, p.PricesURL(ids))
	if err != nil {
		return domain.PriceBoard{}, fmt.Errorf("fetch prices: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000}, "ethereum": {"usd": 3400}}
	var raw map[string]struct {
		USD *float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.PriceBoard{}, fmt.Errorf("parse prices: %w", err)
	}
	if raw == nil {
		return domain.PriceBoard{}, fmt.Errorf("parse prices: empty response")
	}

	order := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, id := range ids {
		if _, ok := raw[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	extra := make([]string, 0)
	for id := range raw {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	board := domain.PriceBoard{Quotes: make([]domain.PriceQuote, 0, len(order))}
	for _, id := range order {
		entry := raw[id]
		if entry.USD == nil {
			return domain.PriceBoard{}, fmt.Errorf("parse prices: %s has no usd price", id)
		}
		board.Quotes = append(board.Quotes, domain.PriceQuote{ID: id, PriceUSD: *entry.USD})
	}
	return board, nil
}

// FetchGlobal fetches total market cap and BTC/ETH dominance.
func (p *CoinGeckoProvider) FetchGlobal(ctx context.Context) (domain.MarketStats, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-global")
	defer span.End()

	body, err := p.relay.Raw(ctx, p.GlobalURL())
	if err != nil {
		return domain.MarketStats{}, fmt.Errorf("fetch global: %w", err)
	}

	var payload struct {
		Data *struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.MarketStats{}, fmt.Errorf("parse global: %w", err)
	}
	if payload.Data == nil {
		return domain.MarketStats{}, fmt.Errorf("parse global: missing data")
	}

	total, ok := payload.Data.TotalMarketCap["usd"]
	if !ok {
		return domain.MarketStats{}, fmt.Errorf("parse global: missing total_market_cap.usd")
	}
	btc, ok := payload.Data.MarketCapPercentage["btc"]
	if !ok {
		return domain.MarketStats{}, fmt.Errorf("parse global: missing market_cap_percentage.btc")
	}
	eth, ok := payload.Data.MarketCapPercentage["eth"]
	if !ok {
		return domain.MarketStats{}, fmt.Errorf("parse global: missing market_cap_percentage.eth")
	}

	return domain.MarketStats{
		TotalMarketCapUSD: total,
		BTCDominancePct:   btc,
		ETHDominancePct:   eth,
	}, nil
}
