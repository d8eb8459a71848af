package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/history"
	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past create and check runs",
	Long: `List recent create and check runs, newest first.

Each run is stored as a JSON file in the history directory
(typically ~/.local/share/hashsum/history).`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show details of a run",
	Long:  `Display a run by its ID or a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove history entries older than history.retention_days.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	h, err := history.New(cfg.History.Path)
	if err != nil {
		return err
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	fmt.Printf("\n%-44s  %-6s  %-8s  %-24s  %s\n", "ID", "RESULT", "FILES", "SUMMARY", "MANIFEST")
	fmt.Println(strings.Repeat("-", 110))
	for _, e := range entries {
		result := "ok"
		if !e.OK() {
			result = "FAIL"
		}
		summary := fmt.Sprintf("%d/%d/%d", e.Summary.Matched, e.Summary.Modified, e.Summary.Missing)
		fmt.Printf("%-44s  %-6s  %-8s  %-24s  %s\n",
			truncateString(e.ID, 44), result, types.FormatCount(e.Summary.Files), summary, e.Manifest)
	}
	fmt.Println(strings.Repeat("-", 110))
	fmt.Println("SUMMARY is matched/modified/missing.")
	fmt.Println("Use 'hashsum history show <id>' for details on a specific entry.")
	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	h, err := history.New(cfg.History.Path)
	if err != nil {
		return err
	}

	e, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", e.ID)
	fmt.Printf("Timestamp:  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", e.Operation)
	fmt.Printf("Manifest:   %s\n", e.Manifest)
	fmt.Printf("Algorithm:  %s\n", e.Algorithm)
	fmt.Printf("Files:      %s\n", types.FormatCount(e.Summary.Files))
	fmt.Printf("Matched:    %d\n", e.Summary.Matched)
	fmt.Printf("Modified:   %d\n", e.Summary.Modified)
	fmt.Printf("Missing:    %d\n", e.Summary.Missing)
	fmt.Printf("Read:       %s in %s\n", types.FormatSize(e.Summary.Bytes), e.Summary.Elapsed)
	if e.Error != "" {
		fmt.Printf("Error:      %s\n", e.Error)
	}

	if len(e.Problems) > 0 {
		fmt.Println("\nProblems:")
		fmt.Println(strings.Repeat("-", 60))

		limit := min(len(e.Problems), 50)
		for _, p := range e.Problems[:limit] {
			fmt.Printf("%-12s  %s\n", p.Status, p.Path)
		}
		if len(e.Problems) > limit {
			fmt.Printf("\n... and %d more files\n", len(e.Problems)-limit)
		}
	}
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	h, err := history.New(cfg.History.Path)
	if err != nil {
		return err
	}

	days := cfg.History.RetentionDays
	printInfo("Cleaning history entries older than %d days...", days)

	removed, err := h.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates s to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
