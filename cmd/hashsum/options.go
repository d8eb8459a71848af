package main

import (
	"fmt"

	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
)

// digestFlags are shared by commands that compute digests.
type digestFlags struct {
	algorithm string
	length    int
	chunkSize string
}

// checkAlgorithm returns the algorithm for verifying a manifest. Only
// the flag overrides the manifest extension; an unknown extension then
// fails instead of falling back to a default.
func (f *digestFlags) checkAlgorithm() string {
	return f.algorithm
}

// createAlgorithm returns the algorithm for writing a manifest to
// output. Without a flag the extension decides. The configured algorithm
// is used only for an output without an extension, where it also names
// the file, and only when it was set in the config file or environment.
func (f *digestFlags) createAlgorithm(output string) string {
	if f.algorithm != "" {
		return f.algorithm
	}
	if pathutil.Suffix(output) == "" && cfg.AlgorithmSet {
		return cfg.Algorithm
	}
	return ""
}

// digestAlgorithm returns the algorithm for ad hoc digests, which have no
// manifest name to infer one from.
func (f *digestFlags) digestAlgorithm() string {
	if f.algorithm != "" {
		return f.algorithm
	}
	return cfg.Algorithm
}

// chunkBytes returns the flag value, or the configured chunk size.
func (f *digestFlags) chunkBytes() (int, error) {
	if f.chunkSize == "" {
		return cfg.ChunkSizeBytes()
	}
	n, err := types.ParseChunkSize(f.chunkSize)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", f.chunkSize, err)
	}
	return n, nil
}
