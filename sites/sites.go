// Package sites holds the per-site extraction rules. Each proceedings site
// that the crawler understands is described by a Site bundle: an ordered list
// of HTML rewrite rules applied before parsing, a step that lists the paper
// containers of an index page, and a step that extracts one paper's fields.
// The crawl driver only talks to a Registry and never branches on a site
// identifier itself.
package sites

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/pevans/papercrawl/fetch"
	"github.com/pevans/papercrawl/paper"
)

// Custom errors for extraction
var (
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrUnknownSite        = errors.New("no extraction rules for site")
)

// MismatchError reports an element or attribute that a site's rules expected
// but the page didn't have.
type MismatchError struct {
	Site string
	Step string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Site, e.Step, ErrStructuralMismatch)
}

func (e *MismatchError) Unwrap() error {
	return ErrStructuralMismatch
}

func mismatch(site, step string) error {
	return &MismatchError{Site: site, Step: step}
}

// Listing is a fetched, preprocessed and parsed index page.
type Listing struct {
	URL  *url.URL
	HTML string
	Doc  *goquery.Document
}

// NewListing parses already preprocessed HTML.
func NewListing(pageURL, html string) (*Listing, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Listing{URL: u, HTML: html, Doc: doc}, nil
}

// Record locates one paper on a listing. HTML sites set Node; feed sites set
// Item and Feed.
type Record struct {
	Node *goquery.Selection
	Item *gofeed.Item
	Feed *gofeed.Feed
}

// Env gives extraction steps access to the network for detail pages.
type Env struct {
	Fetcher fetch.Fetcher
	// Encoding overrides the transport-declared encoding of fetched pages.
	Encoding string
}

// Document fetches, decodes and parses a page. The returned URL is the final
// location after redirects and is the base for links found on the page.
func (e *Env) Document(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	if e == nil || e.Fetcher == nil {
		return nil, nil, fmt.Errorf("no fetcher configured for %s", rawURL)
	}

	resp, err := e.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}

	text, err := resp.Text(e.Encoding)
	if err != nil {
		return nil, nil, err
	}

	base, err := url.Parse(resp.URL)
	if err != nil || resp.URL == "" {
		base, err = url.Parse(rawURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, base, nil
}

// ListFunc returns the paper containers of a listing in document order.
type ListFunc func(l *Listing) ([]Record, error)

// ExtractFunc resolves one paper's fields. base is the listing page URL.
// PDFLink must be absolute; FileName, WebLink defaults and text
// normalization are filled in by the Registry.
type ExtractFunc func(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error)

// Site is the extraction bundle for one site identifier.
type Site struct {
	ID          string
	Description string
	// Encoding, when set, overrides the declared encoding of every page
	// fetched for this site.
	Encoding string
	Rules    []Rule
	List     ListFunc
	Extract  ExtractFunc
}

// Preprocess applies the site's rewrite rules in order.
func (s *Site) Preprocess(html string) string {
	for _, rule := range s.Rules {
		html = rule.Apply(html)
	}
	return html
}
