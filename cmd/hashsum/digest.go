package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/apply"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
)

var digestCmd = &cobra.Command{
	Use:   "digest FILE...",
	Short: "Print the digest of files",
	Long: `Print "DIGEST  PATH" for each file in the style of sha256sum, or with
--eol the number of line terminators in each file.

Unreadable files are reported on stderr and make the exit status
non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDigest,
}

var digestOpts struct {
	digestFlags
	eol       bool
	separator string
	recursive bool
}

func init() {
	f := digestCmd.Flags()
	f.StringVarP(&digestOpts.algorithm, "algorithm", "a", "", "digest algorithm (default: from config)")
	f.IntVarP(&digestOpts.length, "length", "l", 0, "output length in bytes for shake_128/shake_256")
	f.StringVar(&digestOpts.chunkSize, "chunk-size", "", "read buffer size (e.g. 64KiB, 1M)")
	f.BoolVar(&digestOpts.eol, "eol", false, "count line terminators instead of digesting")
	f.StringVar(&digestOpts.separator, "separator", `\n`, "line terminator counted by --eol (Go escapes allowed)")
	f.BoolVarP(&digestOpts.recursive, "recursive", "r", false, "descend into directories")

	rootCmd.AddCommand(digestCmd)
}

func runDigest(_ *cobra.Command, args []string) error {
	files, err := pathutil.Expand(args, pathutil.ExpandOptions{
		Exclude:   cfg.Exclude,
		Recursive: digestOpts.recursive,
	})
	if err != nil {
		return fmt.Errorf("expanding inputs: %w", err)
	}

	chunkSize, err := digestOpts.chunkBytes()
	if err != nil {
		return err
	}

	if digestOpts.eol {
		return runEOLCount(files, chunkSize)
	}

	report, err := verify.Files(files, verify.Options{
		Algorithm: digestOpts.digestAlgorithm(),
		Length:    digestOpts.length,
		ChunkSize: chunkSize,
		Workers:   cfg.Workers,
		Cache:     openCache(),
	})
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for _, o := range report.Outcomes {
		if o.Status == verify.Missing {
			fmt.Fprintf(os.Stderr, "hashsum: %s: %v\n", o.Path, o.Err)
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", o.Actual, o.Path)
	}
	if len(report.Missing) > 0 {
		return errVerificationFailed
	}
	return nil
}

func runEOLCount(files []string, chunkSize int) error {
	sep := digestOpts.separator
	if unquoted, err := strconv.Unquote(`"` + sep + `"`); err == nil {
		sep = unquoted
	}
	if sep == "" {
		return errors.New("separator must not be empty")
	}
	c := openCache()

	results, err := apply.Apply(files, func(path string) (int64, error) {
		return c.EOLCount(path, sep, chunkSize)
	}, apply.Options{Workers: cfg.Workers})
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	failed := false
	for _, r := range results {
		if !r.Ok() {
			fmt.Fprintf(os.Stderr, "hashsum: %s: %v\n", r.Path, r.Err)
			failed = true
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", strconv.FormatInt(r.Value, 10), r.Path)
	}
	if failed {
		return errVerificationFailed
	}
	return nil
}
