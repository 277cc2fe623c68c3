package dashboard

import (
	"html/template"
	"net/url"

	"macro-dashboard/internal/domain"
)

const (
	tradingViewEmbedURL = "https://s.tradingview.com/embed-widget/mini-symbol-overview/"
	fredGraphURL        = "https://fred.stlouisfed.org/graph/fredgraph.png"
)

// MarketChartURL builds the TradingView mini symbol overview address.
func MarketChartURL(symbol string) string {
	return tradingViewEmbedURL + "?symbol=" + url.QueryEscape(symbol) +
		"&width=100%25&height=300&locale=en&dateRange=12M&colorTheme=light"
}

// FredChartURL builds the FRED graph image address for a series.
func FredChartURL(seriesID string) string {
	return fredGraphURL + "?id=" + url.QueryEscape(seriesID)
}

type embed struct {
	Title string
	URL   string
}

func RenderMarketCharts(charts []domain.MarketChart) template.HTML {
	embeds := make([]embed, 0, len(charts))
	for _, c := range charts {
		embeds = append(embeds, embed{Title: c.Title, URL: MarketChartURL(c.Symbol)})
	}
	return execute("market-charts", embeds)
}

func RenderFredCharts(charts []domain.FredChart) template.HTML {
	embeds := make([]embed, 0, len(charts))
	for _, c := range charts {
		embeds = append(embeds, embed{Title: c.Title, URL: FredChartURL(c.SeriesID)})
	}
	return execute("fred-charts", embeds)
}
