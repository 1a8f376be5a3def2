package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Custom errors for catalog validation
var (
	ErrMissingSite  = errors.New("group has no site identifier")
	ErrNoPages      = errors.New("group has no pages")
	ErrMissingURL   = errors.New("page has no url")
	ErrEmptyCatalog = errors.New("catalog has no groups")
)

// Page is one crawlable listing page of a group.
type Page struct {
	Year string `yaml:"year,omitempty" json:"year,omitempty"`
	URL  string `yaml:"url" json:"url"`
}

// Group is a family of same-shaped pages that share one site identifier.
type Group struct {
	Site  string `yaml:"site" json:"site"`
	Name  string `yaml:"name" json:"name"`
	Pages []Page `yaml:"pages" json:"pages"`
}

// FolderName is the group's directory name in the archive: the display name
// with spaces removed.
func (g Group) FolderName() string {
	return strings.ReplaceAll(g.Name, " ", "")
}

// Catalog is the ordered list of groups to crawl. Treat it as read-only once
// loaded; Select returns filtered copies.
type Catalog struct {
	Groups []Group `yaml:"groups" json:"groups"`
}

// Validate checks that every group names a site and has crawlable pages.
func (c *Catalog) Validate() error {
	if len(c.Groups) == 0 {
		return ErrEmptyCatalog
	}

	for i, g := range c.Groups {
		if g.Site == "" {
			return fmt.Errorf("group %d (%q): %w", i, g.Name, ErrMissingSite)
		}
		if len(g.Pages) == 0 {
			return fmt.Errorf("group %d (%q): %w", i, g.Name, ErrNoPages)
		}
		for j, p := range g.Pages {
			if p.URL == "" {
				return fmt.Errorf("group %d (%q) page %d: %w", i, g.Name, j, ErrMissingURL)
			}
		}
	}

	return nil
}

// Scope restricts a run to part of the catalog. The zero value selects
// everything.
type Scope struct {
	// Groups matches group display names or site identifiers
	// (case-insensitive).
	Groups []string `yaml:"groups,omitempty" mapstructure:"groups"`
	// Years matches page years exactly.
	Years []string `yaml:"years,omitempty" mapstructure:"years"`
	// MaxPages limits the pages crawled per group (0 = no limit).
	MaxPages int `yaml:"max_pages,omitempty" mapstructure:"max_pages"`
	// MaxPapers limits the papers extracted per page (0 = no limit).
	MaxPapers int `yaml:"max_papers,omitempty" mapstructure:"max_papers"`
}

// IsZero reports whether the scope selects the whole catalog.
func (s Scope) IsZero() bool {
	return len(s.Groups) == 0 && len(s.Years) == 0 && s.MaxPages == 0 && s.MaxPapers == 0
}

func (s Scope) matchesGroup(g Group) bool {
	if len(s.Groups) == 0 {
		return true
	}
	for _, want := range s.Groups {
		if strings.EqualFold(want, g.Name) || strings.EqualFold(want, g.Site) {
			return true
		}
	}
	return false
}

func (s Scope) matchesYear(p Page) bool {
	if len(s.Years) == 0 {
		return true
	}
	for _, want := range s.Years {
		if want == p.Year {
			return true
		}
	}
	return false
}

// Select returns a copy of the catalog restricted to the scope. Groups left
// without pages are dropped. Catalog order is preserved.
func (c *Catalog) Select(scope Scope) *Catalog {
	out := &Catalog{}

	for _, g := range c.Groups {
		if !scope.matchesGroup(g) {
			continue
		}

		var pages []Page
		for _, p := range g.Pages {
			if !scope.matchesYear(p) {
				continue
			}
			if scope.MaxPages > 0 && len(pages) >= scope.MaxPages {
				break
			}
			pages = append(pages, p)
		}
		if len(pages) == 0 {
			continue
		}

		out.Groups = append(out.Groups, Group{
			Site:  g.Site,
			Name:  g.Name,
			Pages: pages,
		})
	}

	return out
}

// PageCount returns the total number of pages across all groups.
func (c *Catalog) PageCount() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Pages)
	}
	return n
}
