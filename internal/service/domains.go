package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Args yields the domains given on the command line, skipping empty ones.
func Args(domains []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, d := range domains {
			d = strings.TrimSpace(d)
			if d == "" {
				continue
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// ReadDomains yields domains from r. The input is either one domain per
// line, or a CSV whose first column holds the domain, optionally with a
// "Domain Name" header. Lines starting with # are ignored.
func ReadDomains(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cr := csv.NewReader(r)
		cr.Comment = '#'
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		cr.ReuseRecord = true

		first := true
		for {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("reading domains: %w", err))
				return
			}

			domain := strings.TrimSpace(record[0])
			isHeader := first && strings.EqualFold(domain, "Domain Name")
			first = false
			if domain == "" || isHeader {
				continue
			}
			if !yield(domain, nil) {
				return
			}
		}
	}
}

// DomainsFile yields domains of a file in the format ReadDomains accepts.
// The file is opened when the sequence is iterated.
func DomainsFile(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield("", fmt.Errorf("opening domains file: %w", err))
			return
		}
		defer f.Close()
		for d, err := range ReadDomains(f) {
			if !yield(d, err) {
				return
			}
		}
	}
}

// Concat yields all domains of the first sequence, then the second and so on.
func Concat(seqs ...iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, seq := range seqs {
			for d, err := range seq {
				if !yield(d, err) {
					return
				}
			}
		}
	}
}
