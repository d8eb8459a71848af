package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage hashsum configuration settings.

Configuration is loaded from:
  1. --config FILE
  2. $XDG_CONFIG_HOME/hashsum/config.yaml (if set)
  3. ~/.config/hashsum/config.yaml

Environment variables override file settings using the HASHSUM_ prefix:
  HASHSUM_ALGORITHM=blake3
  HASHSUM_WORKERS=8
  HASHSUM_CACHE_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a commented default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in $VISUAL, $EDITOR or vi, creating a
default one first if needed.`,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if cfg.File != "" {
		fmt.Printf("Config file: %s\n\n", cfg.File)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("algorithm:               %s\n", cfg.Algorithm)
	fmt.Printf("chunk_size:              %s\n", cfg.ChunkSize)
	fmt.Printf("workers:                 %d\n", cfg.Workers)
	fmt.Printf("allow_upward:            %t\n", cfg.AllowUpward)
	fmt.Printf("exclude:                 %v\n", cfg.Exclude)
	fmt.Printf("output:                  %s\n", cfg.Output)
	fmt.Printf("cache.enabled:           %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path:              %s\n", cfg.Cache.Path)
	fmt.Printf("history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:            %s\n", cfg.History.Path)
	fmt.Printf("history.retention_days:  %d\n", cfg.History.RetentionDays)
	fmt.Printf("logging.level:           %s\n", cfg.Logging.Level)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	var overrides []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			overrides = append(overrides, kv)
		}
	}
	sort.Strings(overrides)
	if len(overrides) == 0 {
		fmt.Println("(none)")
	}
	for _, kv := range overrides {
		fmt.Println(kv)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := config.WriteDefault(cfgFile)
	if errors.Is(err, os.ErrExist) {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'hashsum config edit' to modify it.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, err := config.WriteDefault(cfgFile)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		printVerbose("File does not exist (defaults in use)")
	}
	return nil
}
