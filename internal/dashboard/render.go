package dashboard

import (
	"bytes"
	"html/template"
	"time"

	"macro-dashboard/internal/domain"

	"go.uber.org/zap"
)

const (
	pricesPlaceholder    template.HTML = "<p>Loading crypto prices…</p>"
	marketPlaceholder    template.HTML = "<p>Loading crypto market stats…</p>"
	fearGreedPlaceholder template.HTML = "<p>Loading Fear &amp; Greed Index…</p>"
)

var fragments = template.Must(template.New("fragments").Parse(`
{{define "prices"}}<h2>Crypto Prices (USD)</h2>
<ul class="ticker-list">{{range .}}
<li class="ticker-item">{{.Name}}: {{.Price}}</li>{{end}}
</ul>{{end}}

{{define "market"}}<h2>Global Crypto Market</h2>
<p>Total Market Cap: {{.Total}}</p>
<p>BTC Dominance: {{.BTC}}</p>
<p>ETH Dominance: {{.ETH}}</p>
<p>Other Dominance: {{.Other}}</p>{{end}}

{{define "feargreed"}}<h2>Fear &amp; Greed Index</h2>
<p class="fng-value">{{.Value}} ({{.Classification}})</p>
<p>Last Updated: {{.UpdatedAt}}</p>{{end}}

{{define "news-loading"}}<h2>{{.}}</h2>
<p>Loading news…</p>{{end}}

{{define "news"}}<h2>{{.Title}}</h2>{{range .Items}}
<div class="news-item">
<a href="{{.Link}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a>
<div class="news-description">{{.Description}}</div>
</div>{{end}}{{end}}

{{define "market-charts"}}<h2>Market Charts</h2>
<div class="market-grid">{{range .}}
<iframe title="{{.Title}}" class="widget-frame" src="{{.URL}}"></iframe>{{end}}
</div>{{end}}

{{define "fred-charts"}}<h2>Macro Indicators</h2>{{range .}}
<div class="fred-chart">
<h3>{{.Title}}</h3>
<img class="fred-image" src="{{.URL}}" alt="{{.Title}}">
</div>{{end}}{{end}}
`))

func execute(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		zap.S().Errorw("fragment render failed", "fragment", name, "error", err)
		return template.HTML("<!-- " + template.HTMLEscapeString(name) + " render failed -->")
	}
	return template.HTML(buf.String())
}

func RenderPrices(board domain.PriceBoard) template.HTML {
	type row struct{ Name, Price string }
	rows := make([]row, 0, len(board.Quotes))
	for _, q := range board.Quotes {
		rows = append(rows, row{Name: q.DisplayName(), Price: FormatUSD(q.PriceUSD)})
	}
	return execute("prices", rows)
}

func RenderMarket(stats domain.MarketStats) template.HTML {
	return execute("market", struct{ Total, BTC, ETH, Other string }{
		Total: FormatUSDWhole(stats.TotalMarketCapUSD),
		BTC:   FormatPct(stats.BTCDominancePct),
		ETH:   FormatPct(stats.ETHDominancePct),
		Other: FormatPct(stats.OtherDominancePct()),
	})
}

// FearGreedRenderer shows the last-updated time in loc.
func FearGreedRenderer(loc *time.Location) func(domain.FearGreedIndex) template.HTML {
	return func(idx domain.FearGreedIndex) template.HTML {
		return execute("feargreed", struct {
			Value          int
			Classification string
			UpdatedAt      string
		}{idx.Value, idx.Classification, FormatLocalTime(idx.UpdatedAt(), loc)})
	}
}

func newsPlaceholder(title string) template.HTML {
	return execute("news-loading", title)
}

// NewsRenderer renders a digest under title. Descriptions are emitted as-is.
func NewsRenderer(title string) func(domain.NewsDigest) template.HTML {
	return func(digest domain.NewsDigest) template.HTML {
		type item struct {
			Title, Link string
			Description template.HTML
		}
		items := make([]item, 0, len(digest.Items))
		for _, it := range digest.Items {
			items = append(items, item{
				Title:       it.Title,
				Link:        it.Link,
				Description: template.HTML(it.DescriptionHTML),
			})
		}
		return execute("news", struct {
			Title string
			Items []item
		}{title, items})
	}
}
