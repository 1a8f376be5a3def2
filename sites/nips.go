package sites

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pevans/papercrawl/paper"
)

const siteNIPS = "nips"

// NIPS handles the papers.nips.cc book pages: one <li> per paper holding the
// title link followed by author links. The abstract and PDF link are on the
// paper's own page. Abstracts the site never received read "Abstract
// Missing" and are kept as is.
func NIPS() *Site {
	return &Site{
		ID:          siteNIPS,
		Description: "NIPS/NeurIPS proceedings book pages on papers.nips.cc",
		List: func(l *Listing) ([]Record, error) {
			return nodeRecords(l.Doc.Find("div.main ul li")), nil
		},
		Extract: extractNIPS,
	}
}

func extractNIPS(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteNIPS
	node, err := recordNode(site, rec)
	if err != nil {
		return nil, err
	}

	titleLink, err := find(site, "title", node, "a:not(.author)")
	if err != nil {
		return nil, err
	}

	webLink, err := resolveHref(site, "paper link", titleLink, base)
	if err != nil {
		return nil, err
	}

	detail, detailURL, err := env.Document(ctx, webLink)
	if err != nil {
		return nil, fmt.Errorf("detail page: %w", err)
	}

	pdfLink, err := findLink(site, "pdf link", detail.Selection, "[PDF]", detailURL)
	if err != nil {
		return nil, err
	}

	abstract, err := find(site, "abstract", detail.Selection, "p.abstract")
	if err != nil {
		return nil, err
	}

	return &paper.Metadata{
		Title:    titleLink.Text(),
		Authors:  joinTexts(node.Find("a.author")),
		WebLink:  webLink,
		PDFLink:  pdfLink,
		Abstract: abstract.Text(),
	}, nil
}
