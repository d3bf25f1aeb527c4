// Package service drives lighthouse scans of many domains: it runs them in
// parallel, hands the rows to the outputs and records every outcome.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/CZERTAINLY/lighthouse/internal/canonical"
	"github.com/CZERTAINLY/lighthouse/internal/lighthouse"
	"github.com/CZERTAINLY/lighthouse/internal/parallel"
	"github.com/CZERTAINLY/lighthouse/internal/report"
	"github.com/CZERTAINLY/lighthouse/internal/store"
)

// Summary counts the outcomes of a batch.
type Summary struct {
	Scanned     int
	Succeeded   int
	ExecFailed  int
	ParseFailed int
	Rows        int
}

// Batch scans a sequence of domains. The zero value is not usable, use
// NewBatch.
type Batch struct {
	scanner lighthouse.Scanner
	out     report.RowWriter
	workers int
	opts    lighthouse.Options
	env     lighthouse.Environment
	db      *sql.DB
	runID   string
}

func NewBatch(scanner lighthouse.Scanner, out report.RowWriter) Batch {
	return Batch{
		scanner: scanner,
		out:     out,
		workers: lighthouse.Workers,
	}
}

func (b Batch) WithWorkers(workers int) Batch {
	b.workers = workers
	return b
}

func (b Batch) WithCacheDir(dir string) Batch {
	b.opts.CacheDir = dir
	return b
}

func (b Batch) WithEnvironment(env lighthouse.Environment) Batch {
	b.env = env
	return b
}

// WithLedger records every outcome into db under runID.
func (b Batch) WithLedger(db *sql.DB, runID string) Batch {
	b.db = db
	b.runID = runID
	return b
}

// Do scans all domains and writes the header and rows to the output. It
// does not close the output. Failed scans are logged and counted, they do
// not stop the batch. The returned error joins errors of the domain source,
// the output and the ledger.
func (b Batch) Do(ctx context.Context, domains iter.Seq2[string, error]) (Summary, error) {
	var summary Summary
	if err := b.out.WriteHeader(report.Columns); err != nil {
		return summary, fmt.Errorf("writing header: %w", err)
	}

	scan := func(ctx context.Context, domain string) (lighthouse.Result, error) {
		return b.scanner.Scan(ctx, domain, b.env, b.opts), nil
	}

	var errs []error
	for result, err := range parallel.NewMap(ctx, b.workers, scan).Iter(domains) {
		if err != nil {
			slog.ErrorContext(ctx, "reading domains failed", "error", err)
			errs = append(errs, err)
			continue
		}

		summary.Scanned++
		switch result.Status {
		case lighthouse.StatusSuccess:
			summary.Succeeded++
		case lighthouse.StatusExecError:
			summary.ExecFailed++
		case lighthouse.StatusParseError:
			summary.ParseFailed++
		}
		if !result.OK() {
			slog.ErrorContext(ctx, "lighthouse scan failed",
				"domain", result.Domain,
				"url", result.URL,
				"status", result.Status.String(),
				"error", result.Err,
			)
		}

		base := canonical.BaseDomain(result.Domain)
		for _, row := range lighthouse.Rows(result.Audits) {
			if err := b.out.Write(result.Domain, base, row); err != nil {
				errs = append(errs, fmt.Errorf("writing row of %s: %w", result.Domain, err))
				continue
			}
			summary.Rows++
		}

		if err := b.record(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return summary, errors.Join(errs...)
}

func (b Batch) record(ctx context.Context, result lighthouse.Result) error {
	if b.db == nil {
		return nil
	}
	var errText *string
	if result.Err != nil {
		s := result.Err.Error()
		errText = &s
	}
	err := store.Record(ctx, b.db, store.Outcome{
		RunID:   b.runID,
		Domain:  result.Domain,
		URL:     result.URL,
		Status:  result.Status.String(),
		Error:   errText,
		Audits:  result.Audits.Len(),
		Started: result.Started,
		Stopped: result.Stopped,
	})
	if err != nil {
		return fmt.Errorf("recording outcome of %s: %w", result.Domain, err)
	}
	return nil
}
