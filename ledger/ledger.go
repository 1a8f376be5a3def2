// Package ledger keeps a history of crawl runs in SQLite: one row per run
// and one per crawled page, with completed and failed paper counts.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Custom errors for ledger operations
var (
	ErrRunNotFound = errors.New("run not found")
)

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Run is one crawl run.
type Run struct {
	RunID      uuid.UUID  `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Pages      int        `json:"pages"`
	Papers     int        `json:"papers"`
	Failed     int        `json:"failed"`
	Error      *string    `json:"error,omitempty"`
}

// PageResult is the outcome of one listing page.
type PageResult struct {
	RunID      uuid.UUID `json:"run_id"`
	Seq        int       `json:"seq"`
	Group      string    `json:"group"`
	Site       string    `json:"site"`
	Year       string    `json:"year"`
	URL        string    `json:"url"`
	Total      int       `json:"total"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Error      *string   `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewStore opens (or creates) the ledger database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS pages (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		group_name TEXT NOT NULL,
		site TEXT NOT NULL,
		year TEXT NOT NULL,
		url TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		finished_at TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a new run.
func (s *Store) StartRun(startedAt time.Time) (*Run, error) {
	run := &Run{
		RunID:     uuid.New(),
		StartedAt: startedAt.Truncate(0),
	}

	_, err := s.db.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		run.RunID.String(),
		formatTime(&run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// RecordPage stores one page outcome. Seq is assigned in arrival order.
func (s *Store) RecordPage(p PageResult) error {
	query := `
		INSERT INTO pages (
			run_id, seq, group_name, site, year, url,
			total, completed, failed, error, finished_at
		) VALUES (
			?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM pages WHERE run_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	_, err := s.db.Exec(query,
		p.RunID.String(), p.RunID.String(),
		p.Group, p.Site, p.Year, p.URL,
		p.Total, p.Completed, p.Failed,
		p.Error,
		formatTime(&p.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page result: %w", err)
	}

	return nil
}

// FinishRun marks a run as finished. A non-nil runErr is stored as the
// run's error.
func (s *Store) FinishRun(runID uuid.UUID, finishedAt time.Time, runErr error) error {
	var errText *string
	if runErr != nil {
		msg := runErr.Error()
		errText = &msg
	}

	result, err := s.db.Exec(
		"UPDATE runs SET finished_at = ?, error = ? WHERE run_id = ?",
		formatTime(&finishedAt), errText, runID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}

	return nil
}

const runColumns = `
	SELECT r.run_id, r.started_at, r.finished_at, r.error,
	       COUNT(p.seq),
	       COALESCE(SUM(p.completed), 0),
	       COALESCE(SUM(p.failed), 0)
	FROM runs r
	LEFT JOIN pages p ON p.run_id = r.run_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, startedAtStr string
	var finishedAtStr, errText sql.NullString
	var run Run

	err := row.Scan(&runIDStr, &startedAtStr, &finishedAtStr, &errText, &run.Pages, &run.Papers, &run.Failed)
	if err != nil {
		return nil, err
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run_id: %w", err)
	}
	run.StartedAt = parseTime(startedAtStr)
	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if errText.Valid {
		run.Error = &errText.String
	}

	return &run, nil
}

// GetRun retrieves a run with its page totals.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(runColumns+" WHERE r.run_id = ? GROUP BY r.run_id", runID.String())

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := runColumns + " GROUP BY r.run_id ORDER BY julianday(r.started_at) DESC, r.rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// ListPages returns a run's page results in crawl order.
func (s *Store) ListPages(runID uuid.UUID) ([]PageResult, error) {
	query := `
		SELECT seq, group_name, site, year, url, total, completed, failed, error, finished_at
		FROM pages
		WHERE run_id = ?
		ORDER BY seq
	`

	rows, err := s.db.Query(query, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageResult
	for rows.Next() {
		p := PageResult{RunID: runID}
		var errText sql.NullString
		var finishedAtStr string

		err := rows.Scan(&p.Seq, &p.Group, &p.Site, &p.Year, &p.URL,
			&p.Total, &p.Completed, &p.Failed, &errText, &finishedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		if errText.Valid {
			p.Error = &errText.String
		}
		p.FinishedAt = parseTime(finishedAtStr)

		pages = append(pages, p)
	}

	return pages, rows.Err()
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
