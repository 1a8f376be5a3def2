package sites

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/papercrawl/paper"
)

const siteJMLRVolume = "jmlr_volume"

// JMLRVolume handles the per-volume index of the Journal of Machine Learning
// Research. Each paper is a <dl>: the title is the bare text of its <dt>, the
// authors are in italics, and the abstract page carries the PDF link and the
// abstract.
func JMLRVolume() *Site {
	return &Site{
		ID:          siteJMLRVolume,
		Description: "JMLR volume index pages",
		List: func(l *Listing) ([]Record, error) {
			return nodeRecords(l.Doc.Find("div#content").First().Find("dl")), nil
		},
		Extract: extractJMLRVolume,
	}
}

func extractJMLRVolume(ctx context.Context, env *Env, rec Record, base *url.URL) (*paper.Metadata, error) {
	const site = siteJMLRVolume
	node, err := recordNode(site, rec)
	if err != nil {
		return nil, err
	}

	dt, err := find(site, "title", node, "dt")
	if err != nil {
		return nil, err
	}
	title, ok := firstTextNode(dt)
	if !ok {
		return nil, mismatch(site, "title text")
	}

	authors, err := find(site, "authors", node, "dd i")
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

	abs, err := jmlrAbstractPage(site, detail, detailURL)
	if err != nil {
		return nil, err
	}

	return &paper.Metadata{
		Title:    title,
		Authors:  authors.Text(),
		WebLink:  webLink,
		PDFLink:  abs.pdfLink,
		Abstract: abs.abstract,
	}, nil
}

type jmlrAbstract struct {
	authors  string
	pdfLink  string
	abstract string
}

// jmlrAbstractPage reads a JMLR abstract page: the abstract is the loose
// text between the "Abstract" heading and the grey link bar.
func jmlrAbstractPage(site string, doc *goquery.Document, base *url.URL) (*jmlrAbstract, error) {
	pdfLink, err := findLink(site, "pdf link", doc.Selection, "pdf", base)
	if err != nil {
		return nil, err
	}

	heading, err := find(site, "abstract heading", doc.Selection, "h3")
	if err != nil {
		return nil, err
	}

	return &jmlrAbstract{
		authors:  doc.Find("b i").First().Text(),
		pdfLink:  pdfLink,
		abstract: textUntil(heading, "font"),
	}, nil
}
