// Package report writes lighthouse rows to the configured outputs.
package report

import (
	"errors"
	"slices"

	"github.com/CZERTAINLY/lighthouse/internal/model"
)

// Columns is the header of every output: the scanned domain and its base
// domain, followed by the audit columns.
var Columns = slices.Concat([]string{"Domain", "Base Domain"}, model.Headers)

// RowWriter is an output of a scan. WriteHeader is called once before any
// Write and Close flushes whatever is buffered.
type RowWriter interface {
	WriteHeader(headers []string) error
	Write(domain, baseDomain string, row model.Row) error
	Close() error
}

var errClosed = errors.New("writer already closed")

func cells(domain, baseDomain string, row model.Row) []string {
	return slices.Concat([]string{domain, baseDomain}, row.Strings())
}

// Multi fans rows out to all writers. Errors of individual writers are
// joined, a failing writer does not stop the others.
type Multi []RowWriter

func (m Multi) WriteHeader(headers []string) error {
	var errs []error
	for _, w := range m {
		errs = append(errs, w.WriteHeader(headers))
	}
	return errors.Join(errs...)
}

func (m Multi) Write(domain, baseDomain string, row model.Row) error {
	var errs []error
	for _, w := range m {
		errs = append(errs, w.Write(domain, baseDomain, row))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
