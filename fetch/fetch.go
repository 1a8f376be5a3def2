// Package fetch is the network boundary of the crawler. Everything that
// leaves the process goes through a Fetcher so extraction code can be tested
// against canned pages.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the crawler to proceedings sites.
const DefaultUserAgent = "papercrawl/1.0 (proceedings metadata harvester)"

// MaxBodySize is the default cap on a response body. PDFs on proceedings
// sites stay well below this.
const MaxBodySize = 200 << 20

// ErrBodyTooLarge is wrapped by the TransportError of a response whose body
// exceeds the fetcher's limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is a successfully fetched document.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	// DeclaredEncoding is the charset from the Content-Type header, if any.
	DeclaredEncoding string
	ContentType      string
}

// TransportError reports a failed request or a non-success status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodingError reports a body that could not be decoded with the chosen
// character encoding.
type DecodingError struct {
	URL      string
	Encoding string
	Err      error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %s as %q: %v", e.URL, e.Encoding, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Text decodes the body. A non-empty override names the encoding to use
// regardless of what the server declared (e.g. "windows-1252"); otherwise the
// declared charset, a <meta> tag or content sniffing decides.
func (r *Response) Text(override string) (string, error) {
	var enc encoding.Encoding
	name := override

	if override != "" {
		e, err := htmlindex.Get(override)
		if err != nil {
			return "", &DecodingError{URL: r.URL, Encoding: override, Err: err}
		}
		enc = e
	} else {
		enc, name, _ = charset.DetermineEncoding(r.Body, r.ContentType)
	}

	out, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return "", &DecodingError{URL: r.URL, Encoding: name, Err: err}
	}

	// Sniffed UTF-8 bodies may still carry a BOM.
	return string(bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))), nil
}

// HTTPFetcher fetches over HTTP with a fixed User-Agent and an optional
// request rate limit.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	maxBody   int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithRateLimit allows at most rps requests per second. Zero disables the
// limit.
func WithRateLimit(rps float64) Option {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxBodySize overrides MaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewHTTPFetcher creates a fetcher with a 60 second timeout and no rate limit.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: 60 * time.Second},
		userAgent: DefaultUserAgent,
		maxBody:   MaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET request and returns the whole body. Any non-200 status
// is a TransportError, and so is a body larger than the size limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBody {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	contentType := resp.Header.Get("Content-Type")
	return &Response{
		URL:              resp.Request.URL.String(),
		StatusCode:       resp.StatusCode,
		Body:             body,
		DeclaredEncoding: declaredCharset(contentType),
		ContentType:      contentType,
	}, nil
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
