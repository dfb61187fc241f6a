package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "twdataset",
	Short: "Build a Taiwan tourist attraction image dataset",
	Long: `twdataset is a command-line toolchain that builds an image dataset of
Taiwan tourist attractions.

Pipeline stages (each is a subcommand):
  fetchmeta  download per-attraction metadata JSON
  rank       rank attractions by search popularity
  scrape     download images from Flickr, Google, or Maps Places
  renumber   renumber stored images into contiguous sequences
  split      split the corpus into train and validation sets
  describe   generate image descriptions with Gemini
  convert    convert the description JSONL to Parquet

Credentials are read from environment variables, a .env file, or the
system keychain (see "twdataset auth").`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .twdataset.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`twdataset {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration with the given command flags merged in and
// initializes the global logger
func setup(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}
