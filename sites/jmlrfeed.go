package sites

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/papercrawl/paper"
)

const siteJMLRFeed = "jmlr_feed"

// JMLRFeed handles the JMLR RSS feed of recent papers. The feed carries no
// per-page year or display name, so the paper's source is the feed title and
// its year comes from the item's publication date.
func JMLRFeed() *Site {
	return &Site{
		ID:          siteJMLRFeed,
		Description: "JMLR RSS/Atom feed of recent papers",
		List:        listFeed,
		Extract:     extractJMLRFeed,
	}
}

func listFeed(l *Listing) ([]Record, error) {
	feed, err := gofeed.NewParser().ParseString(l.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, Record{Item: item, Feed: feed})
	}
	return records, nil
}

func extractJMLRFeed(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteJMLRFeed
	item := rec.Item
	if item == nil {
		return nil, mismatch(site, "feed item")
	}
	if item.Link == "" {
		return nil, mismatch(site, "item link")
	}

	webLink, err := resolve(site, "item link", base, item.Link)
	if err != nil {
		return nil, err
	}

	detail, detailURL, err := env.Document(ctx, webLink)
	if err != nil {
		return nil, fmt.Errorf("detail page: %w", err)
	}

	abs, err := jmlrAbstractPage(site, detail, detailURL)
	if err != nil {
		return nil, err
	}

	authors := abs.authors
	if authors == "" {
		authors = feedAuthors(item)
	}

	m := &paper.Metadata{
		Title:    item.Title,
		Authors:  authors,
		WebLink:  webLink,
		PDFLink:  abs.pdfLink,
		Abstract: abs.abstract,
	}
	if rec.Feed != nil {
		m.Source = rec.Feed.Title
	}
	switch {
	case item.PublishedParsed != nil:
		m.Year = strconv.Itoa(item.PublishedParsed.Year())
	case item.UpdatedParsed != nil:
		m.Year = strconv.Itoa(item.UpdatedParsed.Year())
	}

	return m, nil
}

func feedAuthors(item *gofeed.Item) string {
	var names []string
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 && item.Author != nil {
		names = append(names, item.Author.Name)
	}

	return strings.Join(names, ", ")
}
