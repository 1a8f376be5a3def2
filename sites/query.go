package sites

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// find returns the first match of selector under s, or a mismatch for step.
func find(site, step string, s *goquery.Selection, selector string) (*goquery.Selection, error) {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return nil, mismatch(site, step)
	}
	return found, nil
}

// linkByText returns the first <a> under s whose trimmed text equals text.
func linkByText(s *goquery.Selection, text string) *goquery.Selection {
	return s.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.TrimSpace(a.Text()) == text
	}).First()
}

// resolveHref resolves the href of a against base.
func resolveHref(site, step string, a *goquery.Selection, base *url.URL) (string, error) {
	if a == nil || a.Length() == 0 {
		return "", mismatch(site, step)
	}
	href, ok := a.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", mismatch(site, step+" href")
	}
	return resolve(site, step, base, href)
}

// findLink resolves the href of the first <a> under s labelled text.
func findLink(site, step string, s *goquery.Selection, text string, base *url.URL) (string, error) {
	return resolveHref(site, step, linkByText(s, text), base)
}

func resolve(site, step string, base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", mismatch(site, step+" url")
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

// joinTexts joins the trimmed, non-empty texts of s with ", ".
func joinTexts(s *goquery.Selection) string {
	var parts []string
	s.Each(func(_ int, item *goquery.Selection) {
		if t := strings.TrimSpace(item.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, ", ")
}

// firstTextNode returns the first non-blank text node directly under s.
func firstTextNode(s *goquery.Selection) (string, bool) {
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
				return c.Data, true
			}
		}
	}
	return "", false
}

// textUntil concatenates the text of the siblings following s, stopping at
// the first element named stop (or at the end of the parent).
func textUntil(s *goquery.Selection, stop string) string {
	if s.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == stop {
			break
		}
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			b.WriteString(goquery.NewDocumentFromNode(n).Text())
		}
	}
	return b.String()
}

// nodeRecords wraps every node of s as a Record, in document order.
func nodeRecords(s *goquery.Selection) []Record {
	records := make([]Record, 0, s.Length())
	s.Each(func(_ int, node *goquery.Selection) {
		records = append(records, Record{Node: node})
	})
	return records
}

func recordNode(site string, rec Record) (*goquery.Selection, error) {
	if rec.Node == nil || rec.Node.Length() == 0 {
		return nil, mismatch(site, "paper node")
	}
	return rec.Node, nil
}
