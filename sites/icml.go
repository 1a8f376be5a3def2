package sites

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pevans/papercrawl/paper"
)

const siteICMLHosted = "icml_jmlr_hosted"

// ICMLHosted handles ICML proceedings hosted by JMLR W&CP / PMLR. The index
// lists one div.paper per paper; the PDF link and abstract live on the
// paper's "abs" page.
func ICMLHosted() *Site {
	return &Site{
		ID:          siteICMLHosted,
		Description: "ICML proceedings hosted by JMLR W&CP / PMLR",
		List: func(l *Listing) ([]Record, error) {
			return nodeRecords(l.Doc.Find("div.paper")), nil
		},
		Extract: extractICMLHosted,
	}
}

func extractICMLHosted(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteICMLHosted
	node, err := recordNode(site, rec)
	if err != nil {
		return nil, err
	}

	title, err := find(site, "title", node, "p.title")
	if err != nil {
		return nil, err
	}

	authors, err := find(site, "authors", node, "span.authors")
	if err != nil {
		return nil, err
	}

	webLink, err := findLink(site, "abs link", node, "abs", base)
	if err != nil {
		return nil, err
	}

	detail, detailURL, err := env.Document(ctx, webLink)
	if err != nil {
		return nil, fmt.Errorf("detail page: %w", err)
	}

	pdfLink, err := findLink(site, "download pdf link", detail.Selection, "Download PDF", detailURL)
	if err != nil {
		return nil, err
	}

	abstract, err := find(site, "abstract", detail.Selection, "div#abstract")
	if err != nil {
		return nil, err
	}

	return &paper.Metadata{
		Title:    title.Text(),
		Authors:  icmlAuthors(authors.Text()),
		WebLink:  webLink,
		PDFLink:  pdfLink,
		Abstract: abstract.Text(),
	}, nil
}

// icmlAuthors drops the layout whitespace the index puts inside the author
// list and spaces out the commas.
func icmlAuthors(s string) string {
	s = strings.NewReplacer("\t", "", "\n", "").Replace(s)
	return strings.ReplaceAll(s, ",", ", ")
}
