package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the persistent digest cache.

The cache remembers each file's digest together with its modification
time, so unchanged files are not read again. Entries for a file are
dropped as soon as its modification time changes. The cache lives in the
XDG cache directory (typically ~/.cache/hashsum/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached digests",
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(cfg.Cache.Path)
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfg.Cache.Path); os.IsNotExist(err) {
		printInfo("Cache is already empty.")
		return nil
	}

	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printInfo("Cache cleared.")
	return nil
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	fmt.Printf("Cache location: %s\n", cfg.Cache.Path)
	if !cfg.Cache.Enabled {
		fmt.Println("Cache: disabled in config")
	}
	if _, err := os.Stat(cfg.Cache.Path); os.IsNotExist(err) {
		fmt.Println("Cache: empty (not created yet)")
		return nil
	}

	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	count, err := c.Store().Count()
	if err != nil {
		return fmt.Errorf("counting cache records: %w", err)
	}
	fmt.Printf("Cached results: %s\n", types.FormatCount(count))
	fmt.Printf("Cache size: %s\n", types.FormatSize(c.Store().Size()))
	return nil
}
