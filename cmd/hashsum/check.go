package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hashsum/pkg/hashsum/history"
	"github.com/jamesainslie/hashsum/pkg/hashsum/output"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
	"github.com/jamesainslie/hashsum/pkg/hashsum/watch"
)

var checkCmd = &cobra.Command{
	Use:   "check MANIFEST",
	Short: "Verify files against a manifest",
	Long: `Recompute the digest of every file in a manifest and report which files
match, which were modified and which are missing.

The exit status is non-zero when any file is modified or missing. With
--watch the manifest is checked again whenever a listed file changes,
until interrupted.

Output formats: ` + "pretty, plain, json, jsonl, yaml, csv, markdown, paths, null, template",
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkOpts struct {
	digestFlags
	format   string
	template string
	watch    bool
	debounce time.Duration
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkOpts.algorithm, "algorithm", "a", "", "digest algorithm (default: from extension)")
	f.IntVarP(&checkOpts.length, "length", "l", 0, "output length in bytes for shake_128/shake_256")
	f.StringVar(&checkOpts.chunkSize, "chunk-size", "", "read buffer size (e.g. 64KiB, 1M)")
	f.StringVarP(&checkOpts.format, "output", "o", "", "report format (default: from config)")
	f.StringVar(&checkOpts.template, "template", "", `template for -o template, e.g. "{status} {path}\n"`)
	f.BoolVar(&checkOpts.watch, "watch", false, "re-check when listed files change")
	f.DurationVar(&checkOpts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a re-check")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	path := args[0]

	formatter, err := checkFormatter()
	if err != nil {
		return err
	}

	chunkSize, err := checkOpts.chunkBytes()
	if err != nil {
		return err
	}
	opts := verify.Options{
		Algorithm: checkOpts.checkAlgorithm(),
		Length:    checkOpts.length,
		ChunkSize: chunkSize,
		Workers:   cfg.Workers,
		Cache:     openCache(),
	}

	if checkOpts.watch {
		return runWatch(path, opts, formatter)
	}

	progress := startProgress("check")
	opts.OnProgress = progress.Update
	report, err := verify.Check(path, opts)
	progress.Stop()
	if err != nil {
		recordHistory(&history.Entry{Operation: history.OpCheck, Manifest: path, Error: err.Error()})
		return fmt.Errorf("checking %s: %w", path, err)
	}

	recordHistory(checkEntry(report))

	if err := render(formatter, report); err != nil {
		return err
	}
	if !report.OK() {
		return errVerificationFailed
	}
	return nil
}

func runWatch(path string, opts verify.Options, formatter output.Formatter) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(path, watch.Options{Verify: opts, Debounce: checkOpts.debounce})
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	defer w.Close()

	printInfo("Watching %s (Ctrl+C to stop)", w.Manifest())
	err = w.Run(ctx, func(report *verify.Report, err error) {
		if err != nil {
			printError("checking %s: %v", path, err)
			return
		}
		if rerr := render(formatter, report); rerr != nil {
			printError("%v", rerr)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// checkFormatter resolves the -o flag (or the configured format).
func checkFormatter() (output.Formatter, error) {
	name := checkOpts.format
	if name == "" {
		name = cfg.Output
	}

	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, output.Available())
	}

	tmpl := checkOpts.template
	if tmpl == "" {
		tmpl = cfg.Template
	}
	if tf, ok := formatter.(*output.TemplateFormatter); ok && tmpl != "" {
		tf.SetTemplate(tmpl)
	}
	return formatter, nil
}

// render writes report to stdout. Quiet mode suppresses the pretty report
// only; machine-readable formats are always written.
func render(formatter output.Formatter, report *verify.Report) error {
	if _, pretty := formatter.(*output.PrettyFormatter); pretty && getQuiet() {
		return nil
	}

	result := output.FromReport(report)
	if digests != nil {
		stats := digests.Stats()
		printVerbose("Cache: %d hits, %d misses, %d invalidations", stats.Hits, stats.Misses, stats.Invalidations)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}

// checkEntry summarizes a report for the history log.
func checkEntry(report *verify.Report) *history.Entry {
	entry := &history.Entry{
		Operation: history.OpCheck,
		Manifest:  report.Manifest,
		Algorithm: report.Algorithm.String(),
		Summary: history.Summary{
			Files:    len(report.Outcomes),
			Matched:  len(report.Matched),
			Modified: len(report.Modified),
			Missing:  len(report.Missing),
			Bytes:    report.Bytes,
			Elapsed:  report.Elapsed,
		},
	}
	for _, o := range report.Outcomes {
		if o.Status != verify.Matched {
			entry.Problems = append(entry.Problems, history.Problem{Path: o.Path, Status: o.Status.String()})
		}
	}
	return entry
}
