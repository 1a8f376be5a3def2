package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pevans/papercrawl/paper"
)

// Index is the CSV listing of every stored paper. Rows are flushed as they
// are appended, so an interrupted run leaves a readable file.
type Index struct {
	path   string
	file   *os.File
	w      *csv.Writer
	closed bool
}

// CreateIndex creates (or truncates) the index at path and writes the header.
func CreateIndex(path string) (*Index, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &FSError{Op: "create", Path: path, Err: err}
	}

	idx := &Index{path: path, file: f, w: csv.NewWriter(f)}
	if err := idx.write(paper.Columns); err != nil {
		f.Close()
		return nil, err
	}

	return idx, nil
}

// Append writes one row.
func (i *Index) Append(row paper.Row) error {
	return i.write(row.Record())
}

func (i *Index) write(record []string) error {
	if err := i.w.Write(record); err != nil {
		return &FSError{Op: "write", Path: i.path, Err: err}
	}
	i.w.Flush()
	if err := i.w.Error(); err != nil {
		return &FSError{Op: "write", Path: i.path, Err: err}
	}
	return nil
}

// Path returns the index file path.
func (i *Index) Path() string {
	return i.path
}

// Close closes the index file. Closing an already closed index is a no-op.
func (i *Index) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true

	i.w.Flush()
	if err := i.w.Error(); err != nil {
		i.file.Close()
		return &FSError{Op: "write", Path: i.path, Err: err}
	}
	if err := i.file.Close(); err != nil {
		return &FSError{Op: "close", Path: i.path, Err: err}
	}
	return nil
}

// ReadIndex reads every row of an index file, skipping the header.
func ReadIndex(path string) ([]paper.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(paper.Columns)

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}

	var rows []paper.Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		rows = append(rows, paper.Row{
			Title:        rec[0],
			Authors:      rec[1],
			WebLink:      rec[2],
			PaperFile:    rec[3],
			AbstractFile: rec[4],
			Source:       rec[5],
			Year:         rec[6],
		})
	}

	return rows, nil
}
