package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/history"
	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
)

var createCmd = &cobra.Command{
	Use:   "create -o MANIFEST FILE...",
	Short: "Write a manifest for files",
	Long: `Digest every file and write a manifest listing them.

Arguments may be files, glob patterns or (with -r) directories. The
algorithm is taken from the manifest extension (sums.sha256, tree.blake3)
unless -a is given; an output without an extension gets one appended.

If any file cannot be read, nothing is written and the unreadable files
are listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

var createOpts struct {
	digestFlags
	output      string
	header      string
	recursive   bool
	exclude     []string
	allowUpward bool
}

func init() {
	f := createCmd.Flags()
	f.StringVarP(&createOpts.output, "output", "o", "", "manifest path to write (required)")
	f.StringVarP(&createOpts.algorithm, "algorithm", "a", "", "digest algorithm (default: from extension)")
	f.IntVarP(&createOpts.length, "length", "l", 0, "output length in bytes for shake_128/shake_256")
	f.StringVar(&createOpts.chunkSize, "chunk-size", "", "read buffer size (e.g. 64KiB, 1M)")
	f.StringVarP(&createOpts.header, "header", "H", "", "comment text written at the top of the manifest")
	f.BoolVarP(&createOpts.recursive, "recursive", "r", false, "descend into directories")
	f.StringSliceVarP(&createOpts.exclude, "exclude", "e", nil, "skip paths matching pattern (repeatable)")
	f.BoolVar(&createOpts.allowUpward, "allow-upward", false, "store paths outside the manifest directory with ..")
	_ = createCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(createCmd)
}

func runCreate(_ *cobra.Command, args []string) error {
	exclude := append(append([]string{}, cfg.Exclude...), createOpts.exclude...)
	files, err := pathutil.Expand(args, pathutil.ExpandOptions{
		Exclude:   exclude,
		Recursive: createOpts.recursive,
	})
	if err != nil {
		return fmt.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		return errors.New("no input files")
	}
	printVerbose("Digesting %d files", len(files))

	chunkSize, err := createOpts.chunkBytes()
	if err != nil {
		return err
	}
	alg := createOpts.createAlgorithm(createOpts.output)

	progress := startProgress("create")
	start := time.Now()
	path, err := manifest.Compute(files, createOpts.output, manifest.Options{
		Algorithm:   alg,
		Length:      createOpts.length,
		ChunkSize:   chunkSize,
		Workers:     cfg.Workers,
		Header:      createOpts.header,
		AllowUpward: createOpts.allowUpward || cfg.AllowUpward,
		Cache:       openCache(),
		OnProgress:  progress.Update,
	})
	progress.Stop()

	entry := &history.Entry{
		Operation: history.OpCreate,
		Manifest:  createOpts.output,
		Algorithm: alg,
		Summary:   history.Summary{Files: len(files), Elapsed: time.Since(start)},
	}
	if a, aerr := manifest.AlgorithmFor(createOpts.output, alg); aerr == nil {
		entry.Algorithm = a.String()
	}
	if err != nil {
		entry.Error = err.Error()
		var incomplete *manifest.IncompleteDigestSetError
		if errors.As(err, &incomplete) {
			for _, f := range incomplete.Files {
				entry.Problems = append(entry.Problems, history.Problem{Path: f, Status: "inaccessible"})
				fmt.Fprintf(os.Stderr, "inaccessible: %s\n", f)
			}
		}
		recordHistory(entry)
		return fmt.Errorf("creating manifest: %w", err)
	}

	entry.Manifest = path
	entry.Summary.Matched = len(files)
	recordHistory(entry)

	printInfo("Wrote %s (%d files)", path, len(files))
	return nil
}
