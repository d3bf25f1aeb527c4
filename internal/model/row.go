package model

import (
	"strconv"
)

// Headers are the column labels of a Row, in Row.Strings order.
var Headers = []string{"ID", "Description", "Title", "Score", "Score Display Mode"}

// Row is the tabular projection of one Audit.
type Row struct {
	ID               string
	Description      string
	Title            string
	Score            *float64
	ScoreDisplayMode string
}

func RowFromAudit(a Audit) Row {
	return Row{
		ID:               a.ID,
		Description:      a.Description,
		Title:            a.Title,
		Score:            a.Score,
		ScoreDisplayMode: a.ScoreDisplayMode,
	}
}

// Strings returns the CSV cells of a row. A missing score is an empty cell.
func (r Row) Strings() []string {
	return []string{
		r.ID,
		r.Description,
		r.Title,
		FormatScore(r.Score),
		r.ScoreDisplayMode,
	}
}

// FormatScore renders the shortest decimal representation of a score, or ""
// for nil.
func FormatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}
