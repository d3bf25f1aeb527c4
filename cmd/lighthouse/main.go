package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/CZERTAINLY/lighthouse/internal/log"
	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configName = "lighthouse.yaml"

var (
	userConfigPath string // /default/config/path/lighthouse on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag

	vpr = viper.New()
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		// no $HOME, e.g. in a minimal container
		d = "."
	}
	userConfigPath = filepath.Join(d, "lighthouse")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is "+configName+" in "+userConfigPath+" or in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse the config, setup logging
	rootCmd.PersistentPreRunE = initLighthouse

	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(auditsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("lighthouse failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "lighthouse",
	Short:        "Runs Google Lighthouse audits against domains and reports them as CSV",
	SilenceUsage: true,
}

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "audits lists the lighthouse audits requested by a scan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, audit := range config.Lighthouse.Audits {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), audit); err != nil {
				return err
			}
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		return enc.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a lighthouse scanner",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("lighthouse: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:     %s\n", configPath)
		}
		fmt.Printf("lighthouse: %s\n", info.Main.Version)
		fmt.Printf("go:         %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:     %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:       %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:      %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

func initLighthouse(cmd *cobra.Command, _ []string) error {
	configPath = findConfig(flagConfigFilePath)

	loaded := model.Config{}
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		loaded, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid configuration", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := bindViper(vpr, cmd); err != nil {
		return err
	}
	config = applyOverrides(vpr, loaded.Merge(model.DefaultConfig()))

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Service.Verbose = model.Ptr(true)
	}

	// initialize logging
	slog.SetDefault(log.New(os.Stderr, model.Get(config.Service.Verbose)))

	slog.Debug("lighthouse run", "configPath", configPath)
	slog.Debug("lighthouse run", "config", config)
	return nil
}

// findConfig returns the first config file found: $LIGHTHOUSECONFIG, the
// --config flag, user config dir and current directory. Empty string means
// defaults are used.
func findConfig(flagPath string) string {
	if envConfig, ok := os.LookupEnv("LIGHTHOUSECONFIG"); ok && envConfig != "" {
		return envConfig
	}
	if flagPath != "" {
		return flagPath
	}
	for _, d := range []string{userConfigPath, "."} {
		path := filepath.Join(d, configName)
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("can't stat config file", "path", path, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}
