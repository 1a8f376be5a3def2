// Package crawler drives a crawl run: for every selected catalog page it
// fetches the listing, extracts each paper through the site registry,
// downloads the PDF, stores it in the archive and appends a row to the index.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pevans/papercrawl/archive"
	"github.com/pevans/papercrawl/catalog"
	"github.com/pevans/papercrawl/fetch"
	"github.com/pevans/papercrawl/ledger"
	"github.com/pevans/papercrawl/logging"
	"github.com/pevans/papercrawl/paper"
	"github.com/pevans/papercrawl/sites"
)

// Sink receives one row per stored paper, in extraction order.
type Sink interface {
	Append(row paper.Row) error
}

// Ledger records run history. *ledger.Store implements it.
type Ledger interface {
	StartRun(startedAt time.Time) (*ledger.Run, error)
	RecordPage(p ledger.PageResult) error
	FinishRun(runID uuid.UUID, finishedAt time.Time, runErr error) error
}

// Driver runs crawls. It is not safe for concurrent use.
type Driver struct {
	registry *sites.Registry
	fetcher  fetch.Fetcher
	archive  *archive.Archive
	sink     Sink
	ledger   Ledger
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithLedger records every run in l.
func WithLedger(l Ledger) Option {
	return func(d *Driver) {
		d.ledger = l
	}
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// New creates a driver that stores papers in arch and rows in sink.
func New(registry *sites.Registry, fetcher fetch.Fetcher, arch *archive.Archive, sink Sink, opts ...Option) *Driver {
	d := &Driver{
		registry: registry,
		fetcher:  fetcher,
		archive:  arch,
		sink:     sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDefault(d.logger)
	return d
}

// PageSummary is the outcome of one listing page.
type PageSummary struct {
	Group     string
	Site      string
	Year      string
	URL       string
	Total     int
	Completed int
	Failed    int
	// Err is set when the page could not be listed at all.
	Err error
}

// Result is the outcome of a run.
type Result struct {
	RunID  uuid.UUID
	Pages  []PageSummary
	Papers int
	Failed int
}

// PaperError reports a paper that was skipped. Any other error out of a
// paper is fatal to the run.
type PaperError struct {
	Title string
	URL   string
	Err   error
}

func (e *PaperError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("paper %q: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("paper on %s: %v", e.URL, e.Err)
}

func (e *PaperError) Unwrap() error {
	return e.Err
}

// Run crawls every page of cat selected by scope, in catalog order. Paper
// and page failures are logged and counted; a filesystem failure or a
// cancelled context ends the run and is returned along with the partial
// result.
func (d *Driver) Run(ctx context.Context, cat *catalog.Catalog, scope catalog.Scope) (*Result, error) {
	selected := cat.Select(scope)
	result := &Result{RunID: uuid.New()}

	if d.ledger != nil {
		run, err := d.ledger.StartRun(d.now())
		if err != nil {
			d.logger.Warn("failed to record run start", "err", err)
		} else {
			result.RunID = run.RunID
		}
	}

	d.logger.Info("crawl starting",
		"run", result.RunID,
		"groups", len(selected.Groups),
		"pages", selected.PageCount())

	runErr := d.crawl(ctx, selected, scope, result)

	if d.ledger != nil {
		if err := d.ledger.FinishRun(result.RunID, d.now(), runErr); err != nil {
			d.logger.Warn("failed to record run finish", "run", result.RunID, "err", err)
		}
	}

	if runErr != nil {
		d.logger.Error("crawl stopped", "run", result.RunID, "papers", result.Papers, "failed", result.Failed, "err", runErr)
		return result, runErr
	}

	d.logger.Info("crawl completed", "run", result.RunID, "pages", len(result.Pages), "papers", result.Papers, "failed", result.Failed)
	return result, nil
}

func (d *Driver) crawl(ctx context.Context, cat *catalog.Catalog, scope catalog.Scope, result *Result) error {
	for _, group := range cat.Groups {
		for _, page := range group.Pages {
			if err := ctx.Err(); err != nil {
				return err
			}

			summary, err := d.crawlPage(ctx, group, page, scope.MaxPapers)
			result.Pages = append(result.Pages, summary)
			result.Papers += summary.Completed
			result.Failed += summary.Failed
			d.recordPage(result.RunID, summary)

			if err != nil {
				return err
			}
		}
	}
	return nil
}

// crawlPage processes one listing page. The returned error is fatal to the
// run; everything else is reported through the summary.
func (d *Driver) crawlPage(ctx context.Context, group catalog.Group, page catalog.Page, maxPapers int) (PageSummary, error) {
	summary := PageSummary{
		Group: group.Name,
		Site:  group.Site,
		Year:  page.Year,
		URL:   page.URL,
	}
	log := d.logger.With("group", group.Name, "site", group.Site, "year", page.Year, "url", page.URL)

	if _, ok := d.registry.Lookup(group.Site); !ok {
		summary.Err = fmt.Errorf("%s: %w", group.Site, sites.ErrUnknownSite)
		log.Warn("skipping page", "err", summary.Err)
		return summary, nil
	}

	env := &sites.Env{Fetcher: d.fetcher}

	listing, err := d.registry.FetchListing(ctx, env, group.Site, page.URL)
	if err != nil {
		summary.Err = err
		log.Warn("skipping page", "err", err)
		return summary, nil
	}

	records, err := d.registry.ListPapers(listing, group.Site)
	if err != nil {
		summary.Err = err
		log.Warn("skipping page", "err", err)
		return summary, nil
	}
	if maxPapers > 0 && len(records) > maxPapers {
		records = records[:maxPapers]
	}
	summary.Total = len(records)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		row, err := d.crawlPaper(ctx, env, group, page, listing, rec)
		if err != nil {
			var paperErr *PaperError
			if !errors.As(err, &paperErr) {
				return summary, err
			}
			summary.Failed++
			log.Warn("skipping paper", "err", err)
			continue
		}

		summary.Completed++
		log.Info("paper saved",
			"progress", fmt.Sprintf("%d/%d", summary.Completed, summary.Total),
			"file", row.PaperFile)
	}

	log.Info("page done", "completed", summary.Completed, "failed", summary.Failed, "total", summary.Total)
	return summary, nil
}

func (d *Driver) crawlPaper(
	ctx context.Context,
	env *sites.Env,
	group catalog.Group,
	page catalog.Page,
	listing *sites.Listing,
	rec sites.Record,
) (*paper.Row, error) {
	m, err := d.registry.Extract(ctx, env, rec, group.Site, listing.URL)
	if err != nil {
		return nil, &PaperError{URL: page.URL, Err: err}
	}

	// The PDF is downloaded before any path is reserved so that a failed
	// download leaves nothing in the archive.
	resp, err := d.fetcher.Fetch(ctx, m.PDFLink)
	if err != nil {
		return nil, &PaperError{Title: m.Title, URL: page.URL, Err: err}
	}

	dir := filepath.Join(FolderName(group, m), safeSegment(paper.EffectiveYear(page.Year, m)))

	stored, err := d.archive.Save(dir, m.FileName, resp.Body, m.Abstract)
	if err != nil {
		var nameErr *archive.NameError
		if errors.As(err, &nameErr) {
			return nil, &PaperError{Title: m.Title, URL: page.URL, Err: err}
		}
		return nil, err
	}

	row := paper.Row{
		Title:        m.Title,
		Authors:      m.Authors,
		WebLink:      m.WebLink,
		PaperFile:    stored.PaperFile,
		AbstractFile: stored.AbstractFile,
		Source:       paper.EffectiveSource(group.Name, m),
		Year:         paper.EffectiveYear(page.Year, m),
	}
	if err := d.sink.Append(row); err != nil {
		return nil, fmt.Errorf("failed to append index row: %w", err)
	}

	return &row, nil
}

func (d *Driver) recordPage(runID uuid.UUID, s PageSummary) {
	if d.ledger == nil {
		return
	}

	p := ledger.PageResult{
		RunID:      runID,
		Group:      s.Group,
		Site:       s.Site,
		Year:       s.Year,
		URL:        s.URL,
		Total:      s.Total,
		Completed:  s.Completed,
		Failed:     s.Failed,
		FinishedAt: d.now(),
	}
	if s.Err != nil {
		msg := s.Err.Error()
		p.Error = &msg
	}

	if err := d.ledger.RecordPage(p); err != nil {
		d.logger.Warn("failed to record page", "run", runID, "url", s.URL, "err", err)
	}
}

// FolderName is the archive directory of a paper: the group's display name
// without spaces, else the paper's own source, else the site identifier.
// The result is always a single path segment.
func FolderName(group catalog.Group, m *paper.Metadata) string {
	if name := safeSegment(group.FolderName()); name != "" {
		return name
	}
	if m != nil {
		if name := safeSegment(m.Source); name != "" {
			return name
		}
	}
	return group.Site
}

// safeSegment turns s into one directory name. Separators become
// underscores, spaces and control characters are dropped, and leading or
// trailing dots are trimmed so "." and ".." come out empty.
func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r == ' ' || unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.Trim(s, ".")
}
