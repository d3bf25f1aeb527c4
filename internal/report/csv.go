package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/CZERTAINLY/lighthouse/internal/model"
)

// CSVWriter writes rows as comma separated values. It does not close the
// underlying writer.
type CSVWriter struct {
	w *csv.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	if w == nil {
		w = os.Stdout
	}
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) WriteHeader(headers []string) error {
	return c.w.Write(headers)
}

func (c *CSVWriter) Write(domain, baseDomain string, row model.Row) error {
	return c.w.Write(cells(domain, baseDomain, row))
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

// DirWriter stores the CSV output as lighthouse-<timestamp>.csv inside a
// directory. Paths can't escape the directory.
type DirWriter struct {
	root *os.Root
	f    *os.File
	path string
	csv  *CSVWriter
}

func NewDirWriter(dir string) (*DirWriter, error) {
	return newDirWriter(dir, time.Now())
}

func newDirWriter(dir string, now time.Time) (*DirWriter, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}

	path := "lighthouse-" + now.Format("2006-01-02-15-04-05") + ".csv"
	f, err := root.Create(path)
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("creating lighthouse results: %w", err)
	}
	return &DirWriter{
		root: root,
		f:    f,
		path: path,
		csv:  NewCSVWriter(f),
	}, nil
}

// Path is the file name relative to the directory.
func (d *DirWriter) Path() string {
	return d.path
}

func (d *DirWriter) WriteHeader(headers []string) error {
	if d.root == nil {
		return errClosed
	}
	return d.csv.WriteHeader(headers)
}

func (d *DirWriter) Write(domain, baseDomain string, row model.Row) error {
	if d.root == nil {
		return errClosed
	}
	return d.csv.Write(domain, baseDomain, row)
}

func (d *DirWriter) Close() error {
	if d.root == nil {
		return errClosed
	}
	if err := d.csv.Close(); err != nil {
		_ = d.f.Close()
		_ = d.root.Close()
		d.root = nil
		return fmt.Errorf("saving lighthouse results: %w", err)
	}
	if err := d.f.Close(); err != nil {
		_ = d.root.Close()
		d.root = nil
		return fmt.Errorf("closing lighthouse results: %w", err)
	}
	slog.Info("results saved", "dir", d.root.Name(), "path", d.path)
	err := d.root.Close()
	d.root = nil
	return err
}
