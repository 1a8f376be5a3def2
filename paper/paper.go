package paper

import (
	"strings"
	"unicode"
)

// Metadata is the canonical output unit for one paper. Title, Authors and
// Abstract are normalized text. FileName is the final path segment of
// PDFLink. Source and Year are only set when the site itself carries them;
// the crawl driver otherwise fills them from the catalog.
type Metadata struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	WebLink  string `json:"web_link"`
	FileName string `json:"paper_file_name"`
	PDFLink  string `json:"pdf_link"`
	Abstract string `json:"abstract_data"`
	Source   string `json:"source,omitempty"`
	Year     string `json:"year,omitempty"`
}

// Row is one line of the CSV index.
type Row struct {
	Title        string
	Authors      string
	WebLink      string
	PaperFile    string
	AbstractFile string
	Source       string
	Year         string
}

// Columns is the header row of the CSV index.
var Columns = []string{"Title", "Authors", "WebLink", "PaperFile", "AbstractFile", "Source", "Year"}

// Record returns the row as CSV fields in Columns order.
func (r Row) Record() []string {
	return []string{r.Title, r.Authors, r.WebLink, r.PaperFile, r.AbstractFile, r.Source, r.Year}
}

// EffectiveSource returns the group display name, or the paper's own source
// when the group is unnamed.
func EffectiveSource(groupName string, m *Metadata) string {
	if groupName != "" {
		return groupName
	}
	return m.Source
}

// EffectiveYear returns the page year, or the paper's own year when the page
// doesn't carry one.
func EffectiveYear(pageYear string, m *Metadata) string {
	if pageYear != "" {
		return pageYear
	}
	return m.Year
}

// NormalizeText replaces every run of whitespace with a single space and
// trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Normalize applies NormalizeText to the free-text fields of m.
func (m *Metadata) Normalize() {
	m.Title = NormalizeText(m.Title)
	m.Authors = NormalizeText(m.Authors)
	m.Abstract = NormalizeText(m.Abstract)
}
