package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List supported digest algorithms",
	Long: `List the supported digest algorithms. The name doubles as the manifest
extension. Extendable algorithms need --length (in bytes) when creating a
manifest.`,
	Args: cobra.NoArgs,
	RunE: runAlgorithms,
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}

func runAlgorithms(_ *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBITS\tNOTE")

	for _, alg := range digest.Algorithms() {
		bits, note := fmt.Sprint(alg.Size()*8), ""
		if alg.Extendable() {
			bits, note = "-", "extendable, needs --length"
		}
		if alg == digest.Default {
			note = "default"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", alg, bits, note)
	}
	return tw.Flush()
}
