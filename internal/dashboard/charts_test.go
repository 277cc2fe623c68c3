package dashboard

import (
	"strings"
	"testing"

	"macro-dashboard/internal/domain"
)

func TestMarketChartURL(t *testing.T) {
	want := "https://s.tradingview.com/embed-widget/mini-symbol-overview/?symbol=CRYPTO%3ABTCUSD&width=100%25&height=300&locale=en&dateRange=12M&colorTheme=light"
	if got := MarketChartURL("CRYPTO:BTCUSD"); got != want {
		t.Fatalf("unexpected url:\n got %s\nwant %s", got, want)
	}
	if got := MarketChartURL("NYMEX:CL1!"); !strings.Contains(got, "symbol=NYMEX%3ACL1%21&") {
		t.Fatalf("unexpected crude oil url %s", got)
	}
}

func TestFredChartURL(t *testing.T) {
	if got := FredChartURL("M2SL"); got != "https://fred.stlouisfed.org/graph/fredgraph.png?id=M2SL" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestRenderCharts(t *testing.T) {
	market := string(RenderMarketCharts(domain.DefaultMarketCharts))
	if strings.Count(market, "<iframe") != len(domain.DefaultMarketCharts) {
		t.Fatalf("expected one iframe per chart: %s", market)
	}
	if !strings.Contains(market, `title="S&amp;P 500"`) {
		t.Fatalf("expected escaped title: %s", market)
	}

	fred := string(RenderFredCharts(domain.DefaultFredCharts))
	if strings.Count(fred, `class="fred-image"`) != len(domain.DefaultFredCharts) {
		t.Fatalf("expected one image per series: %s", fred)
	}
	if !strings.Contains(fred, "<h3>Unemployment Rate (UK)</h3>") {
		t.Fatalf("missing series title: %s", fred)
	}
	if !strings.Contains(fred, "fredgraph.png?id=GBRCPIALLMINMEI") {
		t.Fatalf("missing series url: %s", fred)
	}
}
