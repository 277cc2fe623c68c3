package dashboard

import (
	"html/template"
	"io"
)

type slot struct {
	Name string
	HTML template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Macro &amp; Crypto Dashboard</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f4f6f8; margin: 0; color: #1f2933; }
.dashboard { display: grid; gap: 16px; padding: 16px; max-width: 1200px; margin: 0 auto; }
.card { background: #fff; border-radius: 8px; padding: 16px 24px; box-shadow: 0 1px 3px rgba(0,0,0,.12); }
.ticker-list { list-style: none; padding: 0; display: flex; flex-wrap: wrap; gap: 8px 24px; }
.ticker-item { font-variant-numeric: tabular-nums; }
.fng-value { font-size: 32px; margin: 8px 0; }
.market-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 12px; }
.widget-frame { width: 100%; height: 300px; border: 0; }
.fred-chart { margin-bottom: 24px; }
.fred-image { max-width: 100%; }
.news-item { margin-bottom: 12px; }
.news-description { font-size: 14px; color: #52606d; }
</style>
</head>
<body>
<div class="dashboard">
<div class="card header-card">
<h1>Macro &amp; Crypto Dashboard</h1>
<p>Real-time cryptocurrency prices, global market data and macroeconomic indicators.</p>
</div>
{{range .}}<div class="card">{{range .}}
<div id="widget-{{.Name}}" class="widget">{{.HTML}}</div>{{end}}
</div>
{{end}}</div>
<script>
(function () {
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      var el = document.getElementById("widget-" + msg.widget);
      if (el) { el.innerHTML = msg.html; }
    };
    ws.onclose = function () { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>
</body>
</html>
`))

func (a *App) cards() [][]slot {
	s := func(name string) slot {
		html, _ := a.Fragment(name)
		return slot{Name: name, HTML: html}
	}

	news := make([]slot, 0, len(a.News))
	for _, n := range a.News {
		news = append(news, s(n.Name()))
	}
	return [][]slot{
		{s(PricesWidget), s(MarketWidget), s(FearGreedWidget)},
		{s(MarketChartsWidget)},
		{s(FredChartsWidget)},
		news,
	}
}

// RenderPage writes the full dashboard document with every widget's current
// fragment.
func (a *App) RenderPage(w io.Writer) error {
	return pageTemplate.Execute(w, a.cards())
}
