package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashsum/cmd/hashsum/tui"
	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/config"
	"github.com/jamesainslie/hashsum/pkg/hashsum/history"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
)

// errVerificationFailed makes the process exit non-zero without printing
// anything beyond the report.
var errVerificationFailed = errors.New("verification failed")

var (
	cfgFile string
	cfg     *config.Config
	digests *cache.Cache

	rootCmd = &cobra.Command{
		Use:   "hashsum",
		Short: "Create and verify checksum manifests",
		Long: `hashsum writes manifests listing a digest for each file and later checks
files against them, reporting which are unchanged, modified or missing.

Examples:
  hashsum create -o release.sha256 dist/*         # Write a manifest
  hashsum create -r -o tree.blake3 src            # Walk a directory
  hashsum check release.sha256                    # Verify it
  hashsum check --watch -o plain release.sha256   # Re-verify on change
  hashsum digest -a md5 notes.txt                 # md5sum-style output`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/hashsum/config.yaml)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "concurrent digests (0=auto)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the digest cache")
	rootCmd.PersistentFlags().Bool("no-progress", false, "do not draw progress on the terminal")

	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("no_progress", rootCmd.PersistentFlags().Lookup("no-progress"))
}

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

// setup loads configuration and starts logging for every subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		loaded.Workers = viper.GetInt("workers")
	}
	cfg = loaded

	if err := initLogging(cfg, getVerbose()); err != nil {
		// Logging is not worth failing a checksum run over.
		printVerbose("Logging disabled: %v", err)
	}
	logging.Get("cli").Debug("command started", "command", cmd.CommandPath(), "config", cfg.File)
	return nil
}

// teardown closes the cache and log file, also after a failed command.
func teardown() {
	if digests != nil {
		if err := digests.Close(); err != nil {
			printVerbose("Closing cache: %v", err)
		}
		digests = nil
	}
	_ = logging.Close()
}

// openCache returns the digest cache for this run. It is nil with
// --no-cache, in memory when the persistent cache is disabled or cannot be
// opened, and backed by badger otherwise.
func openCache() *cache.Cache {
	if viper.GetBool("no_cache") {
		return nil
	}
	if digests != nil {
		return digests
	}

	if !cfg.Cache.Enabled {
		digests = cache.New()
		return digests
	}

	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		// Another process may hold the badger lock.
		logging.Get("cli").Warn("persistent cache unavailable", "path", cfg.Cache.Path, "error", err)
		printVerbose("Persistent cache unavailable, using memory: %v", err)
		c = cache.New()
	}
	digests = c
	return digests
}

// recordHistory appends entry to the history log when enabled. Failures
// are logged, never returned.
func recordHistory(entry *history.Entry) {
	if !cfg.History.Enabled {
		return
	}
	h, err := history.New(cfg.History.Path)
	if err == nil {
		err = h.Record(entry)
	}
	if err != nil {
		logging.Get("cli").Warn("recording history", "error", err)
		printVerbose("History not recorded: %v", err)
		return
	}
	printVerbose("Recorded history entry %s", entry.ID)
}

// startProgress draws progress on stderr when it is a terminal.
func startProgress(label string) *tui.Tracker {
	if getQuiet() || viper.GetBool("no_progress") || !tui.Enabled(os.Stderr) {
		return nil
	}
	return tui.Start(label, os.Stderr)
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
