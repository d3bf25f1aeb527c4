package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/CZERTAINLY/lighthouse/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// TableWriter renders rows as a terminal table. Rows are buffered, the table
// is printed on Close.
type TableWriter struct {
	w       io.Writer
	headers []string
	rows    [][]string
	closed  bool
}

func NewTableWriter(w io.Writer) *TableWriter {
	if w == nil {
		w = os.Stdout
	}
	return &TableWriter{w: w}
}

func (t *TableWriter) WriteHeader(headers []string) error {
	if t.closed {
		return errClosed
	}
	t.headers = headers
	return nil
}

func (t *TableWriter) Write(domain, baseDomain string, row model.Row) error {
	if t.closed {
		return errClosed
	}
	t.rows = append(t.rows, cells(domain, baseDomain, row))
	return nil
}

func (t *TableWriter) Close() error {
	if t.closed {
		return errClosed
	}
	t.closed = true

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.headers...).
		Rows(t.rows...)

	_, err := fmt.Fprintln(t.w, tbl.String())
	return err
}
