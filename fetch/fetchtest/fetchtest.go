// Package fetchtest provides an in-memory fetch.Fetcher for tests.
package fetchtest

import (
	"context"
	"net/http"
	"sync"

	"github.com/pevans/papercrawl/fetch"
)

// Page is a canned response body.
type Page struct {
	Body        string
	ContentType string
	// URL is the final URL reported for the page, as after a redirect.
	// Empty means the requested URL.
	URL string
}

// Fetcher serves canned pages by URL. Unknown URLs fail with a 404
// TransportError. Fetched URLs are recorded in order.
type Fetcher struct {
	Pages map[string]Page

	mu      sync.Mutex
	fetched []string
}

// New creates a fetcher serving HTML bodies keyed by URL.
func New(pages map[string]string) *Fetcher {
	f := &Fetcher{Pages: make(map[string]Page, len(pages))}
	for url, body := range pages {
		f.Pages[url] = Page{Body: body}
	}
	return f
}

// Fetch implements fetch.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*fetch.Response, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &fetch.TransportError{URL: url, Err: err}
	}

	page, ok := f.Pages[url]
	if !ok {
		return nil, &fetch.TransportError{URL: url, StatusCode: http.StatusNotFound}
	}

	final := url
	if page.URL != "" {
		final = page.URL
	}

	return &fetch.Response{
		URL:         final,
		StatusCode:  http.StatusOK,
		Body:        []byte(page.Body),
		ContentType: page.ContentType,
	}, nil
}

// Fetched returns the URLs requested so far.
func (f *Fetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}
