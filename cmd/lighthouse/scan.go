package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/CZERTAINLY/lighthouse/internal/canonical"
	"github.com/CZERTAINLY/lighthouse/internal/lighthouse"
	"github.com/CZERTAINLY/lighthouse/internal/log"
	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/CZERTAINLY/lighthouse/internal/report"
	"github.com/CZERTAINLY/lighthouse/internal/runner"
	"github.com/CZERTAINLY/lighthouse/internal/service"
	"github.com/CZERTAINLY/lighthouse/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagDomainsFile string // value of --domains flag

var scanCmd = &cobra.Command{
	Use:   "scan [domain...]",
	Short: "scan runs lighthouse audits against domains and writes the rows",
	RunE:  doScan,
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDomainsFile, "domains", "", "file with domains, one per line or CSV with domains in the first column")
	cmd.Flags().Int("workers", model.DefaultWorkers, "number of domains scanned in parallel")
	cmd.Flags().String("cache-dir", model.DefaultCacheDir, "directory with pshtt results used to find canonical URLs")
	cmd.Flags().String("format", model.FormatCSV, "output format: csv or table")
	cmd.Flags().String("dir", "", "write lighthouse-<timestamp>.csv into this directory instead of stdout")
	cmd.Flags().String("ledger", "", "sqlite database recording the outcome of every scan")
}

func doScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 && flagDomainsFile == "" {
		return fmt.Errorf("no domains to scan, pass them as arguments or via --domains")
	}

	runID := uuid.NewString()
	attrs := slog.Group("lighthouse",
		slog.String("cmd", "scan"),
		slog.String("run_id", runID),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	lhCfg, err := lighthouse.ConfigFromModel(config.Lighthouse)
	if err != nil {
		return err
	}
	executor := runner.New().WithStderrFunc(func(ctx context.Context, line string) {
		slog.DebugContext(ctx, "lighthouse stderr", "line", line)
	})
	scanner := lighthouse.New(lhCfg, executor, canonical.PSHTT{})

	out, err := output(config.Service)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			slog.ErrorContext(ctx, "closing output failed", "error", err)
		}
	}()

	batch := service.NewBatch(scanner, out).
		WithWorkers(model.Get(config.Scan.Workers)).
		WithCacheDir(model.Get(config.Scan.CacheDir))

	if path := model.Get(config.Service.Ledger); path != "" {
		db, err := store.InitDB(ctx, path)
		if err != nil {
			return fmt.Errorf("opening ledger %s: %w", path, err)
		}
		defer closeDB(ctx, db)
		batch = batch.WithLedger(db, runID)
	}

	domains := service.Args(args)
	if flagDomainsFile != "" {
		domains = service.Concat(domains, service.DomainsFile(flagDomainsFile))
	}

	summary, err := batch.Do(ctx, domains)
	slog.InfoContext(ctx, "lighthouse scan finished",
		"scanned", summary.Scanned,
		"succeeded", summary.Succeeded,
		"exec_failed", summary.ExecFailed,
		"parse_failed", summary.ParseFailed,
		"rows", summary.Rows,
	)
	return err
}

// output returns the writers for the configured format and directory. The
// directory always gets CSV, a table is printed to stdout.
func output(cfg *model.Service) (report.Multi, error) {
	format := model.Get(cfg.Format)
	dir := model.Get(cfg.Dir)

	var writers report.Multi
	switch format {
	case "", model.FormatCSV:
		if dir == "" {
			writers = append(writers, report.NewCSVWriter(os.Stdout))
		}
	case model.FormatTable:
		writers = append(writers, report.NewTableWriter(os.Stdout))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if dir != "" {
		w, err := report.NewDirWriter(dir)
		if err != nil {
			return nil, fmt.Errorf("opening output dir: %w", err)
		}
		writers = append(writers, w)
	}
	return writers, nil
}

func closeDB(ctx context.Context, db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.ErrorContext(ctx, "closing ledger failed", "error", err)
	}
}
