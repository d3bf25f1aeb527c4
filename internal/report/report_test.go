package report_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/CZERTAINLY/lighthouse/internal/report"
	"github.com/stretchr/testify/require"
)

var rows = []model.Row{
	{ID: "viewport", Description: "Has a <meta name=\"viewport\"> tag", Title: "Has a viewport", Score: model.Ptr(1.0), ScoreDisplayMode: "binary"},
	{ID: "font-size", Description: "Legible, readable", Title: "Font size", Score: model.Ptr(0.92), ScoreDisplayMode: "numeric"},
	{ID: "timing-budget", Description: "", Title: "Timing budget", ScoreDisplayMode: "notApplicable"},
}

func write(t *testing.T, w report.RowWriter) {
	t.Helper()
	require.NoError(t, w.WriteHeader(report.Columns))
	for _, row := range rows {
		require.NoError(t, w.Write("www.example.com", "example.com", row))
	}
	require.NoError(t, w.Close())
}

func TestColumns(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"Domain", "Base Domain", "ID", "Description", "Title", "Score", "Score Display Mode"}, report.Columns)
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	write(t, report.NewCSVWriter(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		report.Columns,
		{"www.example.com", "example.com", "viewport", "Has a <meta name=\"viewport\"> tag", "Has a viewport", "1", "binary"},
		{"www.example.com", "example.com", "font-size", "Legible, readable", "Font size", "0.92", "numeric"},
		{"www.example.com", "example.com", "timing-budget", "", "Timing budget", "", "notApplicable"},
	}, records)
}

func TestDirWriter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := report.NewDirWriter(dir)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(w.Path(), "lighthouse-"))
	require.True(t, strings.HasSuffix(w.Path(), ".csv"))
	write(t, w)

	matches, err := filepath.Glob(filepath.Join(dir, "lighthouse-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+len(rows))
	require.Equal(t, report.Columns, records[0])

	require.Error(t, w.Close())
	require.Error(t, w.Write("example.com", "example.com", rows[0]))
}

func TestDirWriterMissingDir(t *testing.T) {
	t.Parallel()
	_, err := report.NewDirWriter(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestTableWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	write(t, report.NewTableWriter(&buf))

	out := buf.String()
	for _, s := range []string{"Base Domain", "Score Display Mode", "www.example.com", "viewport", "0.92", "notApplicable"} {
		require.Contains(t, out, s)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// top border, header, separator, a line per row, bottom border
	require.Len(t, lines, 4+len(rows))
}

type failing struct {
	report.RowWriter
	closed bool
}

func (f *failing) WriteHeader([]string) error {
	return errors.New("header")
}

func (f *failing) Write(string, string, model.Row) error {
	return errors.New("row")
}

func (f *failing) Close() error {
	f.closed = true
	return errors.New("close")
}

func TestMulti(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	bad := &failing{}
	m := report.Multi{bad, report.NewCSVWriter(&buf)}

	require.EqualError(t, m.WriteHeader(report.Columns), "header")
	require.EqualError(t, m.Write("example.com", "example.com", rows[0]), "row")
	require.EqualError(t, m.Close(), "close")
	require.True(t, bad.closed)

	// the healthy writer got everything
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
}
