// Package store keeps a ledger of scan outcomes in a sqlite database, so a
// failed scan can be told apart from a page without audits.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Outcome is the record of a single scan.
type Outcome struct {
	RunID   string
	Domain  string
	URL     string
	Status  string
	Error   *string
	Audits  int
	Started time.Time
	Stopped time.Time
}

type OutcomeRow struct {
	Outcome
	ID int
}

func (o OutcomeRow) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run: %q, domain: %q, url: %q, status: %q, audits: %d", o.RunID, o.Domain, o.URL, o.Status, o.Audits)
	if o.Error != nil {
		fmt.Fprintf(&sb, ", error: %q", *o.Error)
	} else {
		sb.WriteString(", error: nil")
	}
	return sb.String()
}

func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			domain TEXT NOT NULL,
			url TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT DEFAULT NULL,
			audits INTEGER NOT NULL,
			started TEXT NOT NULL,
			stopped TEXT NOT NULL
		)`,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS outcomes_domain ON outcomes (domain, id)`,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Record persists one outcome.
func Record(ctx context.Context, db *sql.DB, o Outcome) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, domain, url, status, error, audits, started, stopped)
		 VALUES (?,?,?,?,?,?,?,?);`,
		o.RunID, o.Domain, o.URL, o.Status, o.Error, o.Audits,
		o.Started.UTC().Format(time.RFC3339Nano),
		o.Stopped.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("executing sql insert failed: %w", err)
	}
	return nil
}

// Outcomes returns all outcomes of a run in insertion order.
func Outcomes(ctx context.Context, db *sql.DB, runID string) ([]OutcomeRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, run_id, domain, url, status, error, audits, started, stopped
		 FROM outcomes WHERE run_id=? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.ErrorContext(ctx, "closing sql rows failed", "error", err)
		}
	}()

	var ret []OutcomeRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sql rows failed: %w", err)
	}
	return ret, nil
}

// Last returns the most recent outcome for domain, ErrNotFound when the
// domain was never scanned.
func Last(ctx context.Context, db *sql.DB, domain string) (OutcomeRow, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, run_id, domain, url, status, error, audits, started, stopped
		 FROM outcomes WHERE domain=? ORDER BY id DESC LIMIT 1`, domain,
	)
	ret, err := scanRow(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return OutcomeRow{}, ErrNotFound
	case err != nil:
		return OutcomeRow{}, err
	}
	return ret, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (OutcomeRow, error) {
	var (
		row              OutcomeRow
		started, stopped string
	)
	err := s.Scan(
		&row.ID,
		&row.RunID,
		&row.Domain,
		&row.URL,
		&row.Status,
		&row.Error,
		&row.Audits,
		&started,
		&stopped,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OutcomeRow{}, err
		}
		return OutcomeRow{}, fmt.Errorf("scanning sql row failed: %w", err)
	}
	if row.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return OutcomeRow{}, fmt.Errorf("parsing started: %w", err)
	}
	if row.Stopped, err = time.Parse(time.RFC3339Nano, stopped); err != nil {
		return OutcomeRow{}, fmt.Errorf("parsing stopped: %w", err)
	}
	return row, nil
}
