package provider

import (
	"context"
	"fmt"
	"html"
	"strings"

	"macro-dashboard/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultNewsItems = 5

type RSSProvider struct {
	relay     *Relay
	tracer    trace.Tracer
	maxItems  int
	stripHTML bool
}

func NewRSSProvider(tracer trace.Tracer, relay *Relay, maxItems int, stripHTML bool) *RSSProvider {
	if maxItems <= 0 {
		maxItems = defaultNewsItems
	}
	return &RSSProvider{
		relay:     relay,
		tracer:    tracer,
		maxItems:  maxItems,
		stripHTML: stripHTML,
	}
}

// FetchFeed returns the first entries of an RSS or Atom feed in document order.
func (p *RSSProvider) FetchFeed(ctx context.Context, feedURL string) (domain.NewsDigest, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-feed")
	defer span.End()

	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return domain.NewsDigest{}, fmt.Errorf("feed url is required")
	}
	span.SetAttributes(attribute.String("rss.feed_url", feedURL))

	contents, err := p.relay.Contents(ctx, feedURL)
	if err != nil {
		return domain.NewsDigest{}, fmt.Errorf("fetch feed: %w", err)
	}
	return p.ParseFeed(contents)
}

// ParseFeed extracts up to maxItems entries from a feed document. Absent
// sub-elements become empty strings.
func (p *RSSProvider) ParseFeed(contents string) (domain.NewsDigest, error) {
	feed, err := gofeed.NewParser().ParseString(contents)
	if err != nil {
		return domain.NewsDigest{}, fmt.Errorf("decode feed: %w", err)
	}

	n := min(p.maxItems, len(feed.Items))
	digest := domain.NewsDigest{Items: make([]domain.NewsItem, 0, n)}
	for _, entry := range feed.Items[:n] {
		if entry == nil {
			continue
		}
		description := entry.Description
		if p.stripHTML {
			description = html.EscapeString(HTMLText(description))
		}
		digest.Items = append(digest.Items, domain.NewsItem{
			Title:           entry.Title,
			Link:            entry.Link,
			DescriptionHTML: description,
			PubDate:         entry.Published,
		})
	}
	return digest, nil
}

// HTMLText reduces an HTML fragment to its whitespace-collapsed text.
func HTMLText(in string) string {
	if strings.TrimSpace(in) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return strings.TrimSpace(in)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
