package main

import (
	"fmt"

	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// environment variables understood on top of the config file
var envBindings = map[string]string{
	"lighthouse.binary":      "LIGHTHOUSE_PATH",
	"lighthouse.chrome_path": "CHROME_PATH",
}

// flags of the scan command overriding the config file
var flagBindings = map[string]string{
	"scan.workers":   "workers",
	"scan.cache_dir": "cache-dir",
	"service.format": "format",
	"service.dir":    "dir",
	"service.ledger": "ledger",
}

func bindViper(v *viper.Viper, cmd *cobra.Command) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	for key, name := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// applyOverrides sets the fields of cfg, which were set by environment
// variables or flags. cfg must have all sections populated.
func applyOverrides(v *viper.Viper, cfg model.Config) model.Config {
	lh := *cfg.Lighthouse
	scan := *cfg.Scan
	svc := *cfg.Service

	if s, ok := stringOf(v, "lighthouse.binary"); ok {
		lh.Binary = &s
	}
	if s, ok := stringOf(v, "lighthouse.chrome_path"); ok {
		lh.ChromePath = &s
	}
	if v.IsSet("scan.workers") {
		scan.Workers = model.Ptr(v.GetInt("scan.workers"))
	}
	if s, ok := stringOf(v, "scan.cache_dir"); ok {
		scan.CacheDir = &s
	}
	if s, ok := stringOf(v, "service.format"); ok {
		svc.Format = &s
	}
	if s, ok := stringOf(v, "service.dir"); ok {
		svc.Dir = &s
	}
	if s, ok := stringOf(v, "service.ledger"); ok {
		svc.Ledger = &s
	}

	cfg.Lighthouse = &lh
	cfg.Scan = &scan
	cfg.Service = &svc
	return cfg
}

func stringOf(v *viper.Viper, key string) (string, bool) {
	if !v.IsSet(key) {
		return "", false
	}
	s := v.GetString(key)
	return s, s != ""
}
