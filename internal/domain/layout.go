package domain

// Feed is an RSS/Atom source rendered by a NewsFeed widget.
type Feed struct {
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// MarketChart is a TradingView instrument embedded by MarketCharts.
type MarketChart struct {
	Title  string `yaml:"title" json:"title"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// FredChart is a FRED series graph embedded by FredCharts.
type FredChart struct {
	Title    string `yaml:"title" json:"title"`
	SeriesID string `yaml:"id" json:"id"`
}

// DefaultPriceIDs are the CoinGecko ids shown by the PriceTicker.
var DefaultPriceIDs = []string{
	"bitcoin", "ethereum", "binancecoin",
	"solana", "cardano", "ripple",
}

var DefaultFeeds = []Feed{
	{
		Title: "Crypto News",
		URL:   "https://news.google.com/rss/search?q=cryptocurrency&hl=en-US&gl=US&ceid=US:en",
	},
	{
		Title: "Global Business & Macro News",
		URL:   "https://news.google.com/rss/headlines/section/topic/BUSINESS?hl=en-US&gl=US&ceid=US:en",
	},
}

var DefaultMarketCharts = []MarketChart{
	{Title: "BTCUSD", Symbol: "CRYPTO:BTCUSD"},
	{Title: "ETHUSD", Symbol: "CRYPTO:ETHUSD"},
	{Title: "Gold", Symbol: "OANDA:XAUUSD"},
	{Title: "Crude Oil", Symbol: "NYMEX:CL1!"},
	{Title: "S&P 500", Symbol: "SP:SPX"},
	{Title: "FTSE 100", Symbol: "INDEXFTSE:UKX"},
}

var DefaultFredCharts = []FredChart{
	{Title: "M2 Money Supply (USA)", SeriesID: "M2SL"},
	{Title: "Unemployment Rate (USA)", SeriesID: "UNRATE"},
	{Title: "Unemployment Rate (UK)", SeriesID: "LRHUTTTTGBM156S"},
	{Title: "CPI (USA)", SeriesID: "CPIAUCSL"},
	{Title: "CPI (UK)", SeriesID: "GBRCPIALLMINMEI"},
}
