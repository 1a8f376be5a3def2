package sites

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pevans/papercrawl/paper"
)

// Registry maps site identifiers to their extraction bundles.
type Registry struct {
	sites map[string]*Site
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sites: make(map[string]*Site),
	}
}

// Default returns a registry with every built-in site registered.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range []*Site{
		ICMLHosted(),
		JMLRVolume(),
		JMLRFeed(),
		NIPS(),
		CVFOpenAccess(),
		ACLAnthology(),
	} {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a site bundle. Identifiers are unique.
func (r *Registry) Register(s *Site) error {
	if s == nil {
		return fmt.Errorf("site cannot be nil")
	}
	if s.ID == "" {
		return fmt.Errorf("site must have a non-empty identifier")
	}
	if s.List == nil || s.Extract == nil {
		return fmt.Errorf("site '%s' must define List and Extract", s.ID)
	}
	if _, exists := r.sites[s.ID]; exists {
		return fmt.Errorf("site '%s' already registered", s.ID)
	}

	r.sites[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// Lookup returns the bundle for a site identifier.
func (r *Registry) Lookup(id string) (*Site, bool) {
	s, ok := r.sites[id]
	return s, ok
}

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Preprocess applies the site's rewrite rules. Sites without rules and
// unknown sites get html back unchanged.
func (r *Registry) Preprocess(html, id string) string {
	s, ok := r.sites[id]
	if !ok {
		return html
	}
	return s.Preprocess(html)
}

// FetchListing fetches a listing page with the site's encoding override,
// preprocesses it and parses the result. Links resolve against the final URL
// after redirects.
func (r *Registry) FetchListing(ctx context.Context, env *Env, id, pageURL string) (*Listing, error) {
	siteEnv := r.envFor(env, id)
	if siteEnv.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", pageURL)
	}

	resp, err := siteEnv.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	text, err := resp.Text(siteEnv.Encoding)
	if err != nil {
		return nil, err
	}

	base := pageURL
	if resp.URL != "" {
		base = resp.URL
	}
	return NewListing(base, r.Preprocess(text, id))
}

// ListPapers returns the site's paper records in document order. Unknown
// sites yield no records and no error.
func (r *Registry) ListPapers(l *Listing, id string) ([]Record, error) {
	s, ok := r.sites[id]
	if !ok || l == nil {
		return nil, nil
	}
	return s.List(l)
}

// Extract resolves one paper's metadata. The PDF file name is always taken
// from the PDF URL, the web link falls back to the listing page and the
// free-text fields are normalized.
func (r *Registry) Extract(ctx context.Context, env *Env, rec Record, id string, base *url.URL) (*paper.Metadata, error) {
	s, ok := r.sites[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownSite)
	}

	m, err := s.Extract(ctx, r.envFor(env, id), rec, base)
	if err != nil {
		return nil, err
	}

	if m.PDFLink == "" {
		return nil, mismatch(id, "pdf link")
	}
	m.FileName = FileNameFromURL(m.PDFLink)
	if m.FileName == "" {
		return nil, mismatch(id, "pdf file name")
	}
	if m.WebLink == "" && base != nil {
		m.WebLink = base.String()
	}
	m.Normalize()

	return m, nil
}

func (r *Registry) envFor(env *Env, id string) *Env {
	out := &Env{}
	if env != nil {
		*out = *env
	}
	if s, ok := r.sites[id]; ok && s.Encoding != "" {
		out.Encoding = s.Encoding
	}
	return out
}

// MaxFileNameBytes caps derived file names, leaving room under the usual
// 255-byte limit for collision suffixes.
const MaxFileNameBytes = 200

// FileNameFromURL returns the final path segment of a URL, percent-decoded.
// Segments with control characters yield "". Long names are cut to
// MaxFileNameBytes, keeping a short extension.
func FileNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "." || p == ".." || strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return ""
	}
	return truncateName(p, MaxFileNameBytes)
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}

	ext := path.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	n := limit - len(ext)
	stem := name[:len(name)-len(ext)]
	for n > 0 && !utf8.RuneStart(stem[n]) {
		n--
	}
	return stem[:n] + ext
}
