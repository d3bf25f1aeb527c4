package lighthouse

import (
	"github.com/CZERTAINLY/lighthouse/internal/model"
)

// Headers are the column labels matching Rows.
var Headers = model.Headers

// Workers is the default number of domains scanned in parallel.
const Workers = 1

// Rows converts audits to rows, one per audit, in report order.
func Rows(audits model.Audits) []model.Row {
	rows := make([]model.Row, 0, audits.Len())
	for _, audit := range audits.All() {
		rows = append(rows, model.RowFromAudit(audit))
	}
	return rows
}
