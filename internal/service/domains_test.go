package service_test

import (
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CZERTAINLY/lighthouse/internal/service"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, seq iter.Seq2[string, error]) []string {
	t.Helper()
	var ret []string
	for d, err := range seq {
		require.NoError(t, err)
		ret = append(ret, d)
	}
	return ret
}

func TestReadDomains(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     []string
	}{
		{
			scenario: "lines",
			given:    "example.com\n\n# comment\n  www.example.gov  \n",
			then:     []string{"example.com", "www.example.gov"},
		},
		{
			scenario: "csv with header",
			given:    "Domain Name,Domain Type,Agency\nexample.gov,Federal Agency,GSA\nsub.example.gov,Federal Agency,GSA\n",
			then:     []string{"example.gov", "sub.example.gov"},
		},
		{
			scenario: "csv without header",
			given:    "example.gov,Federal Agency\nother.gov\n",
			then:     []string{"example.gov", "other.gov"},
		},
		{
			scenario: "urls",
			given:    "https://example.com/path\n",
			then:     []string{"https://example.com/path"},
		},
		{
			scenario: "empty",
			given:    "",
			then:     nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.then, collect(t, service.ReadDomains(strings.NewReader(tc.given))))
		})
	}
}

func TestReadDomainsError(t *testing.T) {
	t.Parallel()
	var errs int
	for _, err := range service.ReadDomains(strings.NewReader("\"unterminated\n")) {
		require.Error(t, err)
		errs++
	}
	require.Equal(t, 1, errs)
}

func TestDomainsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "domains.csv")
	require.NoError(t, os.WriteFile(path, []byte("Domain Name\na.gov\nb.gov\n"), 0o600))

	all := service.Concat(
		service.Args([]string{"c.gov", " ", "d.gov"}),
		service.DomainsFile(path),
	)
	require.Equal(t, []string{"c.gov", "d.gov", "a.gov", "b.gov"}, collect(t, all))

	var first []string
	for d := range all {
		first = append(first, d)
		if len(first) == 3 {
			break
		}
	}
	require.Equal(t, []string{"c.gov", "d.gov", "a.gov"}, first)
}
