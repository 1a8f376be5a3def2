package sites

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pevans/papercrawl/fetch"
	"github.com/pevans/papercrawl/fetch/fetchtest"
	"github.com/pevans/papercrawl/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: build an Env serving the given pages
func createTestEnv(pages map[string]string) (*Env, *fetchtest.Fetcher) {
	f := fetchtest.New(pages)
	return &Env{Fetcher: f}, f
}

// Test helper: fetch, list and extract every paper of a listing
func crawlListing(t *testing.T, reg *Registry, env *Env, site, listingURL string) []*paper.Metadata {
	t.Helper()

	listing, err := reg.FetchListing(context.Background(), env, site, listingURL)
	require.NoError(t, err)

	records, err := reg.ListPapers(listing, site)
	require.NoError(t, err)

	var out []*paper.Metadata
	for _, rec := range records {
		m, err := reg.Extract(context.Background(), env, rec, site, listing.URL)
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// TestRegister_Validation verifies bad bundles are rejected
func TestRegister_Validation(t *testing.T) {
	reg := NewRegistry()
	list := func(*Listing) ([]Record, error) { return nil, nil }
	extract := func(context.Context, *Env, Record, *url.URL) (*paper.Metadata, error) { return nil, nil }

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&Site{List: list, Extract: extract}), "should require an id")
	assert.Error(t, reg.Register(&Site{ID: "x", List: list}), "should require Extract")

	require.NoError(t, reg.Register(&Site{ID: "x", List: list, Extract: extract}))
	assert.Error(t, reg.Register(&Site{ID: "x", List: list, Extract: extract}), "should reject duplicates")
}

// TestDefault_RegistersBuiltins verifies every built-in site is available in
// a stable order
func TestDefault_RegistersBuiltins(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{
		"icml_jmlr_hosted",
		"jmlr_volume",
		"jmlr_feed",
		"nips",
		"cvf_open_access",
		"acl_anthology",
	}, reg.IDs())

	s, ok := reg.Lookup("acl_anthology")
	require.True(t, ok)
	assert.Equal(t, "windows-1252", s.Encoding)
}

// TestRegistry_UnknownSite verifies unknown identifiers are a no-op for
// preprocessing and listing, and an error for extraction
func TestRegistry_UnknownSite(t *testing.T) {
	reg := Default()

	assert.Equal(t, "<p>x</p>", reg.Preprocess("<p>x</p>", "nope"))

	listing, err := NewListing("http://example.com/", `<div class="paper"></div>`)
	require.NoError(t, err)

	records, err := reg.ListPapers(listing, "nope")
	assert.NoError(t, err)
	assert.Empty(t, records)

	_, err = reg.Extract(context.Background(), nil, Record{}, "nope", listing.URL)
	assert.ErrorIs(t, err, ErrUnknownSite)
}

// TestRule_Literal verifies fixed-string replacement of all matches
func TestRule_Literal(t *testing.T) {
	r := Literal("<br>", "<br/>", 0)
	assert.Equal(t, "a<br/>b<br/>c", r.Apply("a<br>b<br>c"))
}

// TestRule_Limit verifies only the first n matches are replaced
func TestRule_Limit(t *testing.T) {
	r := Literal("x", "y", 1)
	assert.Equal(t, "yxx", r.Apply("xxx"))

	r = Pattern(`x`, "y", 2)
	assert.Equal(t, "yyx", r.Apply("xxx"))
}

// TestRule_Submatch verifies submatch expansion in replacements
func TestRule_Submatch(t *testing.T) {
	r := Pattern(`<h4>(\w+)</h4>`, `<div class="t">$1</div>`, 0)
	assert.Equal(t, `<div class="t">One</div><div class="t">Two</div>`, r.Apply("<h4>One</h4><h4>Two</h4>"))

	r = Pattern(`<h4>(\w+)</h4>`, `[$1]`, 1)
	assert.Equal(t, `[One]<h4>Two</h4>`, r.Apply("<h4>One</h4><h4>Two</h4>"))
}

// TestRule_LiteralDollar verifies literal replacements are not expanded
func TestRule_LiteralDollar(t *testing.T) {
	r := Literal("price", "$1.00", 0)
	assert.Equal(t, "$1.00", r.Apply("price"))
}

// TestRule_NoMatch verifies a missing anchor leaves the page unchanged
func TestRule_NoMatch(t *testing.T) {
	html := "<p>nothing to see</p>"
	assert.Equal(t, html, Literal("</dl>", "</div></dl>", 1).Apply(html))
	assert.Equal(t, html, Pattern(`<dt>`, "x", 0).Apply(html))
	assert.Equal(t, html, Rule{}.Apply(html))
}

// TestRule_When verifies a guarded rule only applies when its marker is
// present
func TestRule_When(t *testing.T) {
	r := Literal("</dl>", "</div></dl>", 1).When("<div>")

	assert.Equal(t, "<dl></dl>", r.Apply("<dl></dl>"))
	assert.Equal(t, "<div><dl></div></dl>", r.Apply("<div><dl></dl>"))
}

// TestCVF_Preprocess verifies containers are synthesized around each paper
func TestCVF_Preprocess(t *testing.T) {
	html := Default().Preprocess(cvfListing, "cvf_open_access")

	assert.Equal(t, 3, strings.Count(html, ContainerOpen))
	assert.Equal(t, 2, strings.Count(html, ContainerClose+ContainerOpen), "first container should not be preceded by a close")
	assert.Contains(t, html, "<dl>\n"+ContainerOpen+`<dt class="ptitle">`)
	assert.Contains(t, html, "</dd>\n"+ContainerClose+"</dl>")
}

// TestCVF_PreprocessWithoutList verifies pages without the expected markup
// yield no containers instead of failing
func TestCVF_PreprocessWithoutList(t *testing.T) {
	reg := Default()
	html := reg.Preprocess("<html><body><p>maintenance</p></body></html>", "cvf_open_access")

	listing, err := NewListing(cvfListingURL, html)
	require.NoError(t, err)

	records, err := reg.ListPapers(listing, "cvf_open_access")
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestCVF_PreprocessListWithoutTitles verifies a definition list with no
// paper titles is left alone, so no stray close is inserted
func TestCVF_PreprocessListWithoutTitles(t *testing.T) {
	reg := Default()
	page := `<html><body><div id="content"><dl><dd>x</dd></dl><p>after</p></div></body></html>`

	html := reg.Preprocess(page, "cvf_open_access")
	assert.Equal(t, page, html)

	listing, err := NewListing(cvfListingURL, html)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Doc.Find("#content p").Length())

	records, err := reg.ListPapers(listing, "cvf_open_access")
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestCVF_Extract verifies fields of the synthesized containers
func TestCVF_Extract(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{
		cvfListingURL: cvfListing,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/He_Deep_Residual_CVPR_2015_paper.html":          cvfDetailHe,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/Long_Fully_Convolutional_CVPR_2015_paper.html":  cvfDetailLong,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/Szegedy_Going_Deeper_CVPR_2015_paper.html":      cvfDetailSzegedy,
	})

	papers := crawlListing(t, reg, env, "cvf_open_access", cvfListingURL)
	require.Len(t, papers, 3)

	assert.Equal(t, &paper.Metadata{
		Title:    "Deep Residual Learning",
		Authors:  "Kaiming He, Xiangyu Zhang",
		WebLink:  "http://openaccess.thecvf.com/content_cvpr_2015/html/He_Deep_Residual_CVPR_2015_paper.html",
		FileName: "He_Deep_Residual_CVPR_2015_paper.pdf",
		PDFLink:  "http://openaccess.thecvf.com/content_cvpr_2015/papers/He_Deep_Residual_CVPR_2015_paper.pdf",
		Abstract: "Deeper neural networks are more difficult to train.",
	}, papers[0])

	assert.Equal(t, "Fully Convolutional Networks", papers[1].Title)
	assert.Equal(t, "Jonathan Long", papers[1].Authors)
	assert.Equal(t, "Christian Szegedy, Wei Liu", papers[2].Authors, "should fall back to plain dd text")
	assert.Equal(t, "Szegedy_Going_Deeper_CVPR_2015_paper.pdf", papers[2].FileName)
}

// TestICMLHosted_Extract verifies index and detail page fields
func TestICMLHosted_Extract(t *testing.T) {
	reg := Default()
	env, f := createTestEnv(map[string]string{
		icmlListingURL: icmlListing,
		"http://proceedings.mlr.press/v37/ioffe15.html":    icmlDetailIoffe,
		"http://proceedings.mlr.press/v37/schulman15.html": icmlDetailSchulman,
	})

	papers := crawlListing(t, reg, env, "icml_jmlr_hosted", icmlListingURL)
	require.Len(t, papers, 2)

	assert.Equal(t, &paper.Metadata{
		Title:    "Batch Normalization: Accelerating Deep Network Training",
		Authors:  "Sergey Ioffe, Christian Szegedy",
		WebLink:  "http://proceedings.mlr.press/v37/ioffe15.html",
		FileName: "ioffe15.pdf",
		PDFLink:  "http://proceedings.mlr.press/v37/ioffe15.pdf",
		Abstract: "Training Deep Neural Networks is complicated by the fact that the distribution of each layer's inputs changes during training.",
	}, papers[0])

	assert.Equal(t, "John Schulman, Sergey Levine, Pieter Abbeel", papers[1].Authors)
	assert.Equal(t, "http://proceedings.mlr.press/v37/schulman15.pdf", papers[1].PDFLink, "should resolve against the detail page")
	assert.Empty(t, papers[1].Source)
	assert.Empty(t, papers[1].Year)

	assert.Equal(t, []string{
		icmlListingURL,
		"http://proceedings.mlr.press/v37/ioffe15.html",
		"http://proceedings.mlr.press/v37/schulman15.html",
	}, f.Fetched())
}

// TestICMLHosted_MissingAbsLink verifies a structural mismatch names the
// failed step
func TestICMLHosted_MissingAbsLink(t *testing.T) {
	reg := Default()
	listing, err := NewListing(icmlListingURL, `<div class="paper"><p class="title">T</p><span class="authors">A</span><a href="t.pdf">pdf</a></div>`)
	require.NoError(t, err)

	records, err := reg.ListPapers(listing, "icml_jmlr_hosted")
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = reg.Extract(context.Background(), &Env{}, records[0], "icml_jmlr_hosted", listing.URL)
	require.ErrorIs(t, err, ErrStructuralMismatch)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "icml_jmlr_hosted", me.Site)
	assert.Equal(t, "abs link", me.Step)
}

// TestICMLHosted_DetailTransportError verifies detail page failures surface
// as transport errors
func TestICMLHosted_DetailTransportError(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{icmlListingURL: icmlListing})

	listing, err := reg.FetchListing(context.Background(), env, "icml_jmlr_hosted", icmlListingURL)
	require.NoError(t, err)
	records, err := reg.ListPapers(listing, "icml_jmlr_hosted")
	require.NoError(t, err)

	_, err = reg.Extract(context.Background(), env, records[0], "icml_jmlr_hosted", listing.URL)

	var te *fetch.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "http://proceedings.mlr.press/v37/ioffe15.html", te.URL)
}

// TestJMLRVolume_Extract verifies title text nodes and sibling abstracts
func TestJMLRVolume_Extract(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{
		jmlrListingURL: jmlrListing,
		"http://jmlr.csail.mit.edu/papers/v16/bubenik15a.html": jmlrDetailBubenik,
		"http://jmlr.csail.mit.edu/papers/v16/ailon15a.html":   jmlrDetailAilon,
	})

	papers := crawlListing(t, reg, env, "jmlr_volume", jmlrListingURL)
	require.Len(t, papers, 2, "dl outside div#content should be ignored")

	assert.Equal(t, &paper.Metadata{
		Title:    "Statistical Topological Data Analysis using Persistence Landscapes",
		Authors:  "Peter Bubenik",
		WebLink:  "http://jmlr.csail.mit.edu/papers/v16/bubenik15a.html",
		FileName: "bubenik15a.pdf",
		PDFLink:  "http://jmlr.csail.mit.edu/papers/volume16/bubenik15a/bubenik15a.pdf",
		Abstract: "We define a new topological summary for data that we call the persistence landscape.",
	}, papers[0])

	assert.Equal(t, "Iterative and Active Graph Clustering Using Trace Norm Minimization", papers[1].Title)
	assert.Equal(t, "Nir Ailon, Yudong Chen, Huan Xu", papers[1].Authors)
	assert.Equal(t, "Graph clustering seeks to cluster nodes.", papers[1].Abstract)
}

// TestJMLRVolume_MissingAbstractHeading verifies a detail page without the
// heading is a mismatch
func TestJMLRVolume_MissingAbstractHeading(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{
		jmlrListingURL: jmlrListing,
		"http://jmlr.csail.mit.edu/papers/v16/bubenik15a.html": `<html><body><a href="x.pdf">pdf</a></body></html>`,
	})

	listing, err := reg.FetchListing(context.Background(), env, "jmlr_volume", jmlrListingURL)
	require.NoError(t, err)
	records, err := reg.ListPapers(listing, "jmlr_volume")
	require.NoError(t, err)

	_, err = reg.Extract(context.Background(), env, records[0], "jmlr_volume", listing.URL)
	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "abstract heading", me.Step)
}

// TestJMLRFeed_Extract verifies feed items carry their own source and year
func TestJMLRFeed_Extract(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{
		jmlrFeedURL: jmlrFeed,
		"http://www.jmlr.org/papers/v16/bubenik15a.html": jmlrDetailBubenik,
		"http://www.jmlr.org/papers/v16/ailon15a.html":   jmlrDetailAilon,
	})

	papers := crawlListing(t, reg, env, "jmlr_feed", jmlrFeedURL)
	require.Len(t, papers, 2)

	assert.Equal(t, &paper.Metadata{
		Title:    "Statistical Topological Data Analysis using Persistence Landscapes",
		Authors:  "Peter Bubenik",
		WebLink:  "http://www.jmlr.org/papers/v16/bubenik15a.html",
		FileName: "bubenik15a.pdf",
		PDFLink:  "http://www.jmlr.org/papers/volume16/bubenik15a/bubenik15a.pdf",
		Abstract: "We define a new topological summary for data that we call the persistence landscape.",
		Source:   "JMLR",
		Year:     "2015",
	}, papers[0])
	assert.Equal(t, "ailon15a.pdf", papers[1].FileName)
}

// TestJMLRFeed_InvalidFeed verifies an unparseable feed is a listing error
func TestJMLRFeed_InvalidFeed(t *testing.T) {
	reg := Default()
	listing, err := NewListing(jmlrFeedURL, "this is not a feed")
	require.NoError(t, err)

	_, err = reg.ListPapers(listing, "jmlr_feed")
	assert.Error(t, err)
}

// TestNIPS_Extract verifies author lists and the missing-abstract placeholder
func TestNIPS_Extract(t *testing.T) {
	reg := Default()
	env, _ := createTestEnv(map[string]string{
		nipsListingURL: nipsListing,
		"https://papers.nips.cc/paper/5666-double-or-nothing":                 nipsDetailShah,
		"https://papers.nips.cc/paper/5667-learning-with-symmetric-label-noise": nipsDetailRooyen,
	})

	papers := crawlListing(t, reg, env, "nips", nipsListingURL)
	require.Len(t, papers, 2)

	assert.Equal(t, &paper.Metadata{
		Title:    "Double or Nothing: Multiplicative Incentive Mechanisms",
		Authors:  "Nihar Bhadresh Shah, Dengyong Zhou",
		WebLink:  "https://papers.nips.cc/paper/5666-double-or-nothing",
		FileName: "5666-double-or-nothing.pdf",
		PDFLink:  "https://papers.nips.cc/paper/5666-double-or-nothing.pdf",
		Abstract: "Crowdsourcing has gained immense popularity in machine learning.",
	}, papers[0])

	assert.Equal(t, "Brendan van Rooyen", papers[1].Authors)
	assert.Equal(t, "Abstract Missing", papers[1].Abstract, "placeholder should pass through unchanged")
}

// TestACL_Extract verifies the encoding override and page-level web link
func TestACL_Extract(t *testing.T) {
	reg := Default()
	env, f := createTestEnv(map[string]string{aclListingURL: aclListing})

	papers := crawlListing(t, reg, env, "acl_anthology", aclListingURL)
	require.Len(t, papers, 2, "front matter and navigation should be skipped")

	assert.Equal(t, &paper.Metadata{
		Title:    "NASARI – a Novel Approach",
		Authors:  "José Camacho-Collados, Roberto Navigli",
		WebLink:  aclListingURL,
		FileName: "P15-1001.pdf",
		PDFLink:  "http://www.aclweb.org/anthology/P/P15/P15-1001.pdf",
		Abstract: "",
	}, papers[0])
	assert.Equal(t, "Kai Sheng Tai, Richard Socher", papers[1].Authors)

	assert.Equal(t, []string{aclListingURL}, f.Fetched(), "should not fetch detail pages")
}

// TestACL_WithoutOverrideIsGarbled verifies why the override exists
func TestACL_WithoutOverrideIsGarbled(t *testing.T) {
	reg := NewRegistry()
	s := ACLAnthology()
	s.Encoding = ""
	require.NoError(t, reg.Register(s))

	env, _ := createTestEnv(map[string]string{aclListingURL: aclListing})
	papers := crawlListing(t, reg, env, "acl_anthology", aclListingURL)
	require.Len(t, papers, 2)

	assert.NotEqual(t, "José Camacho-Collados, Roberto Navigli", papers[0].Authors)
	assert.Contains(t, papers[0].Authors, "�")
}

// TestExtract_Deterministic verifies the same page yields identical
// metadata sequences
func TestExtract_Deterministic(t *testing.T) {
	reg := Default()
	pages := map[string]string{
		cvfListingURL: cvfListing,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/He_Deep_Residual_CVPR_2015_paper.html":         cvfDetailHe,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/Long_Fully_Convolutional_CVPR_2015_paper.html": cvfDetailLong,
		"http://openaccess.thecvf.com/content_cvpr_2015/html/Szegedy_Going_Deeper_CVPR_2015_paper.html":     cvfDetailSzegedy,
	}

	env1, _ := createTestEnv(pages)
	env2, _ := createTestEnv(pages)

	first := crawlListing(t, reg, env1, "cvf_open_access", cvfListingURL)
	second := crawlListing(t, reg, env2, "cvf_open_access", cvfListingURL)

	assert.Equal(t, first, second)
}

// TestExtract_WrongRecordKind verifies HTML sites reject feed records
func TestExtract_WrongRecordKind(t *testing.T) {
	reg := Default()
	_, err := reg.Extract(context.Background(), &Env{}, Record{}, "nips", mustParseURL(t, nipsListingURL))
	assert.ErrorIs(t, err, ErrStructuralMismatch)
}

// TestFileNameFromURL verifies the final path segment is used
func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com/papers/v16/foo.pdf", "foo.pdf"},
		{"http://example.com/papers/foo.pdf?download=1", "foo.pdf"},
		{"http://example.com/papers/my%20paper.pdf", "my paper.pdf"},
		{"http://example.com/papers/", ""},
		{"http://example.com", ""},
		{"foo.pdf", "foo.pdf"},
		{"http://example.com/papers/bad%00name.pdf", ""},
		{"http://example.com/papers/tab%09name.pdf", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileNameFromURL(tt.in), tt.in)
	}
}

// TestFileNameFromURL_Long verifies long names are cut to the limit and
// keep their extension
func TestFileNameFromURL_Long(t *testing.T) {
	name := FileNameFromURL("http://example.com/papers/" + strings.Repeat("a", 300) + ".pdf")
	assert.Len(t, name, MaxFileNameBytes)
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	// Multi-byte runes are not split.
	name = FileNameFromURL("http://example.com/papers/" + strings.Repeat("\u00e9", 150) + ".pdf")
	assert.LessOrEqual(t, len(name), MaxFileNameBytes)
	assert.True(t, utf8.ValidString(name))
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	// A long extension is not kept apart from the stem.
	name = FileNameFromURL("http://example.com/papers/x." + strings.Repeat("b", 300))
	assert.Len(t, name, MaxFileNameBytes)
	assert.True(t, strings.HasPrefix(name, "x.b"))
}

// TestExtract_ControlCharacterFileName verifies a PDF URL whose name holds a
// control character is a mismatch
func TestExtract_ControlCharacterFileName(t *testing.T) {
	reg := Default()
	listing := `<html><body>
<p><a href="bad%00name.pdf">pdf</a> <b>A. Author</b>: <i>Bad Name</i></p>
</body></html>`
	env, _ := createTestEnv(map[string]string{aclListingURL: listing})

	l, err := reg.FetchListing(context.Background(), env, "acl_anthology", aclListingURL)
	require.NoError(t, err)
	records, err := reg.ListPapers(l, "acl_anthology")
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = reg.Extract(context.Background(), env, records[0], "acl_anthology", l.URL)
	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "pdf file name", me.Step)
}

// TestFetchListing_FollowsFinalURL verifies relative links resolve against
// the URL the listing was finally served from
func TestFetchListing_FollowsFinalURL(t *testing.T) {
	reg := Default()
	f := fetchtest.New(nil)
	f.Pages["http://old.example.com/P15/"] = fetchtest.Page{Body: aclListing, URL: aclListingURL}
	env := &Env{Fetcher: f}

	papers := crawlListing(t, reg, env, "acl_anthology", "http://old.example.com/P15/")
	require.Len(t, papers, 2)

	assert.Equal(t, "http://www.aclweb.org/anthology/P/P15/P15-1001.pdf", papers[0].PDFLink)
	assert.Equal(t, aclListingURL, papers[0].WebLink)
}

// TestExtract_EmptyFileName verifies a PDF URL without a file name is a
// mismatch
func TestExtract_EmptyFileName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Site{
		ID:   "dir",
		List: func(*Listing) ([]Record, error) { return nil, nil },
		Extract: func(context.Context, *Env, Record, *url.URL) (*paper.Metadata, error) {
			return &paper.Metadata{Title: "T", PDFLink: "http://example.com/pdfs/"}, nil
		},
	}))

	_, err := reg.Extract(context.Background(), nil, Record{}, "dir", nil)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "pdf file name", me.Step)
}
