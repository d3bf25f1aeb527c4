package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/CZERTAINLY/lighthouse/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestApplyOverrides(t *testing.T) {
	// can't be parallel as it sets environment variables
	t.Setenv("LIGHTHOUSE_PATH", "/opt/lighthouse/bin/lighthouse")
	t.Setenv("CHROME_PATH", "")

	cmd := &cobra.Command{Use: "scan"}
	addScanFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--workers", "4", "--format", "table"}))

	v := viper.New()
	require.NoError(t, bindViper(v, cmd))

	cfg := applyOverrides(v, model.DefaultConfig())
	require.Equal(t, "/opt/lighthouse/bin/lighthouse", model.Get(cfg.Lighthouse.Binary))
	require.Nil(t, cfg.Lighthouse.ChromePath)
	require.Equal(t, 4, model.Get(cfg.Scan.Workers))
	require.Equal(t, model.FormatTable, model.Get(cfg.Service.Format))
	// flags left on defaults keep the config values
	require.Equal(t, model.DefaultCacheDir, model.Get(cfg.Scan.CacheDir))
	require.Nil(t, cfg.Service.Dir)
	require.Nil(t, cfg.Service.Ledger)
}

func TestApplyOverridesKeepsInput(t *testing.T) {
	t.Setenv("CHROME_PATH", "/usr/bin/chromium")

	cmd := &cobra.Command{Use: "audits"}
	v := viper.New()
	require.NoError(t, bindViper(v, cmd))

	dflt := model.DefaultConfig()
	cfg := applyOverrides(v, dflt)
	require.Equal(t, "/usr/bin/chromium", model.Get(cfg.Lighthouse.ChromePath))
	require.Nil(t, dflt.Lighthouse.ChromePath)
}

func TestFindConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o600))

	t.Run("flag", func(t *testing.T) {
		t.Setenv("LIGHTHOUSECONFIG", "")
		require.Equal(t, path, findConfig(path))
	})
	t.Run("env wins", func(t *testing.T) {
		t.Setenv("LIGHTHOUSECONFIG", "/etc/lighthouse.yaml")
		require.Equal(t, "/etc/lighthouse.yaml", findConfig(path))
	})
}

func TestExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, configName)
	require.False(t, exists(path))
	require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o600))
	require.True(t, exists(path))
	require.False(t, exists(dir))
}

func TestOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var testCases = []struct {
		scenario string
		given    *model.Service
		then     []any
	}{
		{
			scenario: "default",
			given:    &model.Service{},
			then:     []any{&report.CSVWriter{}},
		},
		{
			scenario: "table",
			given:    &model.Service{Format: model.Ptr(model.FormatTable)},
			then:     []any{&report.TableWriter{}},
		},
		{
			scenario: "dir",
			given:    &model.Service{Format: model.Ptr(model.FormatCSV), Dir: model.Ptr(dir)},
			then:     []any{&report.DirWriter{}},
		},
		{
			scenario: "table and dir",
			given:    &model.Service{Format: model.Ptr(model.FormatTable), Dir: model.Ptr(dir)},
			then:     []any{&report.TableWriter{}, &report.DirWriter{}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			out, err := output(tc.given)
			require.NoError(t, err)
			require.Len(t, out, len(tc.then))
			for i, w := range out {
				require.IsType(t, tc.then[i], w)
			}
			if tc.given.Dir == nil {
				return
			}
			require.NoError(t, out[len(out)-1].Close())
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		_, err := output(&model.Service{Format: model.Ptr("json")})
		require.EqualError(t, err, `unsupported format "json"`)
	})
}
