package dashboard

import (
	"macro-dashboard/internal/config"
	"macro-dashboard/internal/provider"
	"macro-dashboard/internal/widget"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Build wires the upstream providers described by cfg into a new App using
// the given layout. Both the web server and the SSH server start from here.
func Build(cfg *config.Config, layout config.Layout, tracer trace.Tracer, logger *zap.SugaredLogger, observer widget.Observer) *App {
	relay := provider.NewRelay(tracer, cfg.RelayURL, provider.RelayMode(cfg.RelayMode))

	coingecko := provider.NewCoinGeckoProvider(tracer, relay, cfg.CoinGeckoBaseURL)
	src := Sources{
		Prices:    coingecko,
		Market:    coingecko,
		FearGreed: provider.NewFearGreedProvider(tracer, relay, cfg.FearGreedBaseURL),
		News:      provider.NewRSSProvider(tracer, relay, cfg.NewsItemLimit, cfg.NewsStripHTML),
	}

	return NewApp(src, Options{
		PriceIDs:          layout.PriceIDs,
		Feeds:             layout.Feeds,
		MarketCharts:      layout.MarketCharts,
		FredCharts:        layout.FredCharts,
		PriceInterval:     cfg.PriceInterval(),
		MarketInterval:    cfg.MarketInterval(),
		FearGreedInterval: cfg.FearGreedInterval(),
		NewsInterval:      cfg.NewsInterval(),
		Location:          cfg.DisplayLocation,
		Tracer:            tracer,
		Logger:            logger,
		Observer:          observer,
	})
}
