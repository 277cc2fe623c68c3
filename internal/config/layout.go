package config

import (
	"fmt"
	"os"

	"macro-dashboard/internal/domain"

	"gopkg.in/yaml.v3"
)

// Layout lists what the dashboard shows. Sections left out of the layout file
// keep the built-in defaults.
type Layout struct {
	PriceIDs     []string             `yaml:"prices"`
	Feeds        []domain.Feed        `yaml:"news"`
	MarketCharts []domain.MarketChart `yaml:"market_charts"`
	FredCharts   []domain.FredChart   `yaml:"fred_charts"`
}

func DefaultLayout() Layout {
	return Layout{
		PriceIDs:     append([]string(nil), domain.DefaultPriceIDs...),
		Feeds:        append([]domain.Feed(nil), domain.DefaultFeeds...),
		MarketCharts: append([]domain.MarketChart(nil), domain.DefaultMarketCharts...),
		FredCharts:   append([]domain.FredChart(nil), domain.DefaultFredCharts...),
	}
}

// LoadLayout reads a YAML layout file. An empty path yields the defaults.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

func ParseLayout(data []byte) (Layout, error) {
	var file Layout
	if err := yaml.Unmarshal(data, &file); err != nil {
		return DefaultLayout(), fmt.Errorf("parse layout: %w", err)
	}

	layout := DefaultLayout()
	if len(file.PriceIDs) > 0 {
		layout.PriceIDs = file.PriceIDs
	}
	if len(file.Feeds) > 0 {
		for i, f := range file.Feeds {
			if f.URL == "" {
				return DefaultLayout(), fmt.Errorf("parse layout: news[%d] has no url", i)
			}
		}
		layout.Feeds = file.Feeds
	}
	if len(file.MarketCharts) > 0 {
		layout.MarketCharts = file.MarketCharts
	}
	if len(file.FredCharts) > 0 {
		layout.FredCharts = file.FredCharts
	}
	return layout, nil
}

// Resolve merges the layout with environment overrides. PRICE_IDS wins over the
// layout's price list.
func (c *Config) Resolve(layout Layout) Layout {
	if len(c.PriceIDs) > 0 {
		layout.PriceIDs = c.PriceIDs
	}
	return layout
}
