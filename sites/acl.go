package sites

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/papercrawl/paper"
)

const siteACL = "acl_anthology"

// ACLAnthology handles the legacy ACL Anthology volume pages. Each paper is a
// <p> with the PDF link, the authors in bold and the title in italics. The
// site has no abstracts and no per-paper page, and serves Latin-1 text under
// a wrong charset declaration.
func ACLAnthology() *Site {
	return &Site{
		ID:          siteACL,
		Description: "legacy ACL Anthology volume pages",
		Encoding:    "windows-1252",
		List: func(l *Listing) ([]Record, error) {
			papers := l.Doc.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
				return p.Find(`a[href$=".pdf"]`).Length() > 0 &&
					p.Find("i").Length() > 0 &&
					strings.TrimSpace(p.Find("b").Text()) != ""
			})
			return nodeRecords(papers), nil
		},
		Extract: extractACL,
	}
}

func extractACL(_ context.Context, _ *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteACL
	node, err := recordNode(site, rec)
	if err != nil {
		return nil, err
	}

	title, err := find(site, "title", node, "i")
	if err != nil {
		return nil, err
	}

	authors, err := find(site, "authors", node, "b")
	if err != nil {
		return nil, err
	}

	pdfLink, err := resolveHref(site, "pdf link", node.Find(`a[href$=".pdf"]`).First(), base)
	if err != nil {
		return nil, err
	}

	return &paper.Metadata{
		Title:   title.Text(),
		Authors: strings.ReplaceAll(authors.Text(), ";", ","),
		PDFLink: pdfLink,
	}, nil
}
