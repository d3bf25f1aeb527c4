package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/CZERTAINLY/lighthouse/internal/store"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := store.InitDB(ctx, filepath.Join(t.TempDir(), "lighthouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	started := time.Date(2025, 10, 1, 12, 0, 0, 123, time.UTC)
	stopped := started.Add(42 * time.Second)
	failed := "lighthouse execution failed: exit status 1"

	outcomes := []store.Outcome{
		{RunID: "run-1", Domain: "example.com", URL: "http://example.com", Status: "success", Audits: 12, Started: started, Stopped: stopped},
		{RunID: "run-1", Domain: "empty.gov", URL: "https://empty.gov", Status: "success", Audits: 0, Started: started, Stopped: stopped},
		{RunID: "run-1", Domain: "broken.gov", URL: "http://broken.gov", Status: "exec_error", Error: &failed, Started: started, Stopped: stopped},
		{RunID: "run-2", Domain: "example.com", URL: "http://example.com", Status: "parse_error", Error: &failed, Started: stopped, Stopped: stopped},
	}
	for _, o := range outcomes {
		require.NoError(t, store.Record(ctx, db, o))
	}

	t.Run("outcomes", func(t *testing.T) {
		rows, err := store.Outcomes(ctx, db, "run-1")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for i, row := range rows {
			require.NotZero(t, row.ID)
			require.Equal(t, outcomes[i], row.Outcome)
		}
		// a failed scan and a page without audits are told apart
		require.Equal(t, "success", rows[1].Status)
		require.Zero(t, rows[1].Audits)
		require.Nil(t, rows[1].Error)
		require.Equal(t, "exec_error", rows[2].Status)
		require.Equal(t, failed, *rows[2].Error)
	})

	t.Run("unknown run", func(t *testing.T) {
		rows, err := store.Outcomes(ctx, db, "run-0")
		require.NoError(t, err)
		require.Empty(t, rows)
	})

	t.Run("last", func(t *testing.T) {
		row, err := store.Last(ctx, db, "example.com")
		require.NoError(t, err)
		require.Equal(t, "run-2", row.RunID)
		require.Equal(t, "parse_error", row.Status)
		require.Contains(t, row.String(), `status: "parse_error"`)

		_, err = store.Last(ctx, db, "unknown.gov")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestInitDBTwice(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lighthouse.db")
	for range 2 {
		db, err := store.InitDB(t.Context(), path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}
