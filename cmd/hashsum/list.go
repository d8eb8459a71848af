package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
)

var listCmd = &cobra.Command{
	Use:   "list MANIFEST",
	Short: "Print the entries of a manifest",
	Long: `Print each entry of a manifest as "DIGEST  PATH" with paths resolved,
without reading the listed files.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var listComments bool

func init() {
	listCmd.Flags().BoolVarP(&listComments, "comments", "c", false, "print header comments first")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	path := args[0]
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if listComments {
		m, err := manifest.Load(path, manifest.LoadOptions{Algorithm: cfg.Algorithm})
		if err != nil {
			return err
		}
		for _, c := range m.Comments {
			fmt.Fprintf(out, "# %s\n", c)
		}
	}

	for entry, err := range manifest.Entries(path) {
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s  %s\n", entry.Digest, entry.Path)
	}
	return nil
}
