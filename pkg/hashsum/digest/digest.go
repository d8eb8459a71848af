// Package digest computes hex digests and end-of-line counts of files by
// streaming them in fixed-size chunks through a selectable algorithm.
package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

// DefaultChunkSize is the read size used when Options.ChunkSize is zero.
const DefaultChunkSize = 64 * 1024

// DefaultEOL is the sequence EOLCount counts when none is given.
const DefaultEOL = "\n"

// Options selects how a digest is computed.
type Options struct {
	// Algorithm is a name accepted by ParseAlgorithm.
	Algorithm string

	// ChunkSize is the read size in bytes; 0 selects DefaultChunkSize.
	ChunkSize int

	// Length is the output size in bytes for extendable algorithms
	// (shake_128, shake_256). It must be 0 for every other algorithm.
	Length int
}

// Normalize validates the options and fills defaults. The returned
// options carry the canonical algorithm name.
func (o Options) Normalize() (Options, error) {
	alg, err := ParseAlgorithm(o.Algorithm)
	if err != nil {
		return o, err
	}
	o.Algorithm = string(alg)

	switch {
	case o.ChunkSize < 0:
		return o, fmt.Errorf("%w: chunk size %d is negative", ErrInvalidArgument, o.ChunkSize)
	case o.ChunkSize == 0:
		o.ChunkSize = DefaultChunkSize
	}

	switch {
	case alg.Extendable() && o.Length <= 0:
		return o, fmt.Errorf("%w: %s needs a positive length, got %d", ErrInvalidArgument, alg, o.Length)
	case !alg.Extendable() && o.Length != 0:
		return o, fmt.Errorf("%w: %s has a fixed length", ErrInvalidArgument, alg)
	}

	return o, nil
}

// File returns the lower-case hex digest of the file at path.
//
// Access failures (missing file, permission denied, directory) satisfy
// IsAccessError. Invalid options fail before the file is opened.
func File(path string, opts Options) (result string, retErr error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", err
	}

	f, err := openRegular(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	hexSum, err := sum(f, opts)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hexSum, nil
}

// Reader returns the lower-case hex digest of everything read from r.
func Reader(r io.Reader, opts Options) (string, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", err
	}
	return sum(r, opts)
}

func sum(r io.Reader, opts Options) (string, error) {
	info := registry[Algorithm(opts.Algorithm)]

	var w io.Writer
	var h hash.Hash
	var x xof
	if info.newXOF != nil {
		x = info.newXOF()
		w = x
	} else {
		h = info.newHash()
		w = h
	}

	if err := eachChunk(r, opts.ChunkSize, func(chunk []byte) error {
		_, err := w.Write(chunk)
		return err
	}); err != nil {
		return "", err
	}

	if x != nil {
		out := make([]byte, opts.Length)
		if _, err := io.ReadFull(x, out); err != nil {
			return "", err
		}
		return hex.EncodeToString(out), nil
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EOLCount counts the occurrences of eol in the file at path, reading in
// chunks of chunkSize bytes (0 selects DefaultChunkSize). An empty eol
// counts DefaultEOL. Sequences split across chunk boundaries are counted.
func EOLCount(path, eol string, chunkSize int) (count int64, retErr error) {
	if eol == "" {
		eol = DefaultEOL
	}
	switch {
	case chunkSize < 0:
		return 0, fmt.Errorf("%w: chunk size %d is negative", ErrInvalidArgument, chunkSize)
	case chunkSize == 0:
		chunkSize = DefaultChunkSize
	}

	f, err := openRegular(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	sep := []byte(eol)
	var carry []byte
	err = eachChunk(f, chunkSize, func(chunk []byte) error {
		window := append(carry, chunk...)
		end := 0
		for {
			i := bytes.Index(window[end:], sep)
			if i < 0 {
				break
			}
			count++
			end += i + len(sep)
		}

		// Carry at most len(sep)-1 bytes that were not part of a match;
		// they may start a separator completed by the next chunk.
		start := max(end, len(window)-(len(sep)-1))
		carry = append(carry[:0:0], window[start:]...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", path, err)
	}
	return count, nil
}

func openRegular(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	return f, nil
}

func eachChunk(r io.Reader, size int, fn func([]byte) error) error {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := fn(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
