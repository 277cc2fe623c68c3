package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"macro-dashboard/internal/domain"
	"macro-dashboard/internal/widget"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	PricesWidget       = "prices"
	MarketWidget       = "market"
	FearGreedWidget    = "feargreed"
	MarketChartsWidget = "market-charts"
	FredChartsWidget   = "fred-charts"
)

type PriceSource interface {
	FetchPrices(ctx context.Context, ids []string) (domain.PriceBoard, error)
}

type MarketSource interface {
	FetchGlobal(ctx context.Context) (domain.MarketStats, error)
}

type FearGreedSource interface {
	FetchLatest(ctx context.Context) (domain.FearGreedIndex, error)
}

type NewsSource interface {
	FetchFeed(ctx context.Context, feedURL string) (domain.NewsDigest, error)
}

type Sources struct {
	Prices    PriceSource
	Market    MarketSource
	FearGreed FearGreedSource
	News      NewsSource
}

// Options configures an App. Zero values fall back to the built-in layout and
// polling intervals.
type Options struct {
	PriceIDs     []string
	Feeds        []domain.Feed
	MarketCharts []domain.MarketChart
	FredCharts   []domain.FredChart

	PriceInterval     time.Duration
	MarketInterval    time.Duration
	FearGreedInterval time.Duration
	NewsInterval      time.Duration

	Location *time.Location
	Tracer   trace.Tracer
	Logger   *zap.SugaredLogger
	Observer widget.Observer
}

func (o *Options) applyDefaults() {
	if len(o.PriceIDs) == 0 {
		o.PriceIDs = domain.DefaultPriceIDs
	}
	if len(o.Feeds) == 0 {
		o.Feeds = domain.DefaultFeeds
	}
	if len(o.MarketCharts) == 0 {
		o.MarketCharts = domain.DefaultMarketCharts
	}
	if len(o.FredCharts) == 0 {
		o.FredCharts = domain.DefaultFredCharts
	}
	if o.PriceInterval <= 0 {
		o.PriceInterval = 60 * time.Second
	}
	if o.MarketInterval <= 0 {
		o.MarketInterval = 60 * time.Second
	}
	if o.FearGreedInterval <= 0 {
		o.FearGreedInterval = 3600 * time.Second
	}
	if o.NewsInterval <= 0 {
		o.NewsInterval = 1800 * time.Second
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
}

// NewsFeed is a news widget bound to one feed.
type NewsFeed struct {
	Feed domain.Feed
	*widget.Widget[domain.NewsDigest]
}

// App is the composition root: it owns every widget on the page in layout
// order.
type App struct {
	Prices       *widget.Widget[domain.PriceBoard]
	Market       *widget.Widget[domain.MarketStats]
	FearGreed    *widget.Widget[domain.FearGreedIndex]
	News         []*NewsFeed
	MarketCharts *widget.Static
	FredCharts   *widget.Static

	loc    *time.Location
	logger *zap.SugaredLogger
	live   []widget.Live
	byName map[string]widget.Renderer
}

func NewApp(src Sources, opts Options) *App {
	opts.applyDefaults()

	cfg := func(name string, interval time.Duration, placeholder template.HTML) widget.Config {
		return widget.Config{
			Name:        name,
			Interval:    interval,
			Placeholder: placeholder,
			Tracer:      opts.Tracer,
			Logger:      opts.Logger,
			Observer:    opts.Observer,
		}
	}

	ids := append([]string(nil), opts.PriceIDs...)
	a := &App{
		Prices: widget.New(cfg(PricesWidget, opts.PriceInterval, pricesPlaceholder),
			func(ctx context.Context) (domain.PriceBoard, error) {
				return src.Prices.FetchPrices(ctx, ids)
			}, RenderPrices),
		Market: widget.New(cfg(MarketWidget, opts.MarketInterval, marketPlaceholder),
			src.Market.FetchGlobal, RenderMarket),
		FearGreed: widget.New(cfg(FearGreedWidget, opts.FearGreedInterval, fearGreedPlaceholder),
			src.FearGreed.FetchLatest, FearGreedRenderer(opts.Location)),
		MarketCharts: widget.NewStatic(MarketChartsWidget, RenderMarketCharts(opts.MarketCharts)),
		FredCharts:   widget.NewStatic(FredChartsWidget, RenderFredCharts(opts.FredCharts)),
		loc:          opts.Location,
		logger:       opts.Logger,
	}

	used := map[string]bool{}
	for _, feed := range opts.Feeds {
		feed := feed
		name := uniqueName("news-"+slugify(feed.Title), used)
		a.News = append(a.News, &NewsFeed{
			Feed: feed,
			Widget: widget.New(cfg(name, opts.NewsInterval, newsPlaceholder(feed.Title)),
				func(ctx context.Context) (domain.NewsDigest, error) {
					return src.News.FetchFeed(ctx, feed.URL)
				}, NewsRenderer(feed.Title)),
		})
	}

	a.live = []widget.Live{a.Prices, a.Market, a.FearGreed}
	for _, n := range a.News {
		a.live = append(a.live, n.Widget)
	}
	a.byName = map[string]widget.Renderer{
		MarketChartsWidget: a.MarketCharts,
		FredChartsWidget:   a.FredCharts,
	}
	for _, w := range a.live {
		a.byName[w.Name()] = w
	}
	return a
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "feed"
	}
	return s
}

func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	used[candidate] = true
	return candidate
}

// Widgets returns the live widgets in layout order.
func (a *App) Widgets() []widget.Live {
	return append([]widget.Live(nil), a.live...)
}

// Widget looks up a live widget by name.
func (a *App) Widget(name string) (widget.Live, bool) {
	r, ok := a.byName[name]
	if !ok {
		return nil, false
	}
	w, ok := r.(widget.Live)
	return w, ok
}

// Fragment renders any widget on the page, live or static.
func (a *App) Fragment(name string) (template.HTML, bool) {
	r, ok := a.byName[name]
	if !ok {
		return "", false
	}
	return r.Render(), true
}

func (a *App) Location() *time.Location {
	return a.loc
}

// OnUpdate subscribes fn to every live widget.
func (a *App) OnUpdate(fn func(widget.Update)) {
	for _, w := range a.live {
		w.OnUpdate(fn)
	}
}

// Start activates every live widget. Each runs on its own timer.
func (a *App) Start(ctx context.Context) {
	for _, w := range a.live {
		a.logger.Infow("starting widget", "widget", w.Name(), "interval", w.Interval().String())
		w.Start(ctx)
	}
}

// Stop tears every live widget down.
func (a *App) Stop() {
	for _, w := range a.live {
		w.Stop()
	}
	a.logger.Info("dashboard widgets stopped")
}

func (a *App) PricesText() string {
	board, ok := a.Prices.Snapshot()
	if !ok {
		return pricesLoadingText
	}
	return PricesText(board)
}

// Quote returns the latest price for one asset id.
func (a *App) Quote(id string) (domain.PriceQuote, bool) {
	board, ok := a.Prices.Snapshot()
	if !ok {
		return domain.PriceQuote{}, false
	}
	for _, q := range board.Quotes {
		if q.ID == id {
			return q, true
		}
	}
	return domain.PriceQuote{}, false
}

func (a *App) MarketText() string {
	stats, ok := a.Market.Snapshot()
	if !ok {
		return marketLoadingText
	}
	return MarketText(stats)
}

func (a *App) FearGreedText() string {
	idx, ok := a.FearGreed.Snapshot()
	if !ok {
		return fearGreedLoadingText
	}
	return FearGreedText(idx, a.loc)
}

// NewsText renders every feed under its title.
func (a *App) NewsText() string {
	sections := make([]string, 0, len(a.News))
	for _, n := range a.News {
		body := newsLoadingText
		if digest, ok := n.Snapshot(); ok {
			body = NewsText(digest)
		}
		sections = append(sections, n.Feed.Title+"\n"+body)
	}
	return strings.Join(sections, "\n\n")
}
