// Package canonical provides the canonical endpoint of a domain discovered by
// an earlier pshtt scan, and domain name helpers used to label output rows.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	pshttDir          = "pshtt"
	canonicalURLField = "Canonical URL"
)

// PSHTT reads pshtt results cached as <cacheDir>/pshtt/<domain>.json. The
// cached document is a JSON object or an array whose first element is the
// object. Zero value is ready to use.
type PSHTT struct{}

// Canonical returns the "Canonical URL" of domain. Any problem reading the
// cache means there is no canonical endpoint.
func (PSHTT) Canonical(domain, cacheDir string) (string, bool) {
	name := Normalize(domain)
	if name == "" || !filepath.IsLocal(name) {
		return "", false
	}
	path := filepath.Join(cacheDir, pshttDir, name+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("reading pshtt cache failed", "path", path, "error", err)
		}
		return "", false
	}
	return canonicalURL(b)
}

func canonicalURL(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", false
	}

	var record map[string]any
	if b[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(b, &records); err != nil || len(records) == 0 {
			return "", false
		}
		record = records[0]
	} else if err := json.Unmarshal(b, &record); err != nil {
		return "", false
	}

	s, _ := record[canonicalURLField].(string)
	if s == "" {
		return "", false
	}
	return s, true
}
