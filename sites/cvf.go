package sites

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pevans/papercrawl/paper"
)

const siteCVF = "cvf_open_access"

// CVFOpenAccess handles the CVF open access listings (CVPR, ICCV). A paper
// there is a <dt class="ptitle"> followed by two loose <dd>s with no common
// parent, so preprocessing wraps each dt/dd run in a paper container:
//
//  1. open a container before every title, closing the previous one
//  2. drop the close inserted before the first title
//  3. close the last container at the end of the list, if one was opened
func CVFOpenAccess() *Site {
	return &Site{
		ID:          siteCVF,
		Description: "CVF open access proceedings (CVPR, ICCV)",
		Rules: []Rule{
			Pattern(`<dt\s+class="ptitle">`, ContainerClose+ContainerOpen+`$0`, 0),
			Literal(ContainerClose+ContainerOpen, ContainerOpen, 1),
			Literal(`</dl>`, ContainerClose+`</dl>`, 1).When(ContainerOpen),
		},
		List: func(l *Listing) ([]Record, error) {
			return nodeRecords(l.Doc.Find(ContainerSelector)), nil
		},
		Extract: extractCVF,
	}
}

func extractCVF(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteCVF
	node, err := recordNode(site, rec)
	if err != nil {
		return nil, err
	}

	titleLink, err := find(site, "title", node, "dt.ptitle a")
	if err != nil {
		return nil, err
	}

	webLink, err := resolveHref(site, "paper link", titleLink, base)
	if err != nil {
		return nil, err
	}

	authorsDD, err := find(site, "authors", node, "dd")
	if err != nil {
		return nil, err
	}
	authors := joinTexts(authorsDD.Find("a"))
	if authors == "" {
		authors = strings.TrimSpace(authorsDD.Text())
	}

	pdfLink, err := findLink(site, "pdf link", node, "pdf", base)
	if err != nil {
		return nil, err
	}

	detail, _, err := env.Document(ctx, webLink)
	if err != nil {
		return nil, fmt.Errorf("detail page: %w", err)
	}

	abstract, err := find(site, "abstract", detail.Selection, "div#abstract")
	if err != nil {
		return nil, err
	}

	return &paper.Metadata{
		Title:    titleLink.Text(),
		Authors:  authors,
		WebLink:  webLink,
		PDFLink:  pdfLink,
		Abstract: abstract.Text(),
	}, nil
}
