package digest_test

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileKnownVectors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	hello := writeFile(t, dir, "hello.txt", "hello")
	empty := writeFile(t, dir, "empty.txt", "")

	tests := []struct {
		name string
		path string
		opts digest.Options
		want string
	}{
		{"md5 hello", hello, digest.Options{Algorithm: "md5"}, "5d41402abc4b2a76b9719d911017c592"},
		{"sha1 hello", hello, digest.Options{Algorithm: "sha1"}, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
		{"sha256 hello", hello, digest.Options{Algorithm: "SHA256"}, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{"sha256 empty", empty, digest.Options{Algorithm: "sha256"}, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"sha3_256 empty", empty, digest.Options{Algorithm: "sha3_256"}, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"blake3 empty", empty, digest.Options{Algorithm: "blake3"}, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
		{"shake_128 empty", empty, digest.Options{Algorithm: "shake_128", Length: 32}, "7f9c2ba4e88f827d616045507605853ed73b8093f6efbc88eb1a6eacfa66ef26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := digest.File(tt.path, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileChunkSizeIndependent(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "data.bin", strings.Repeat("0123456789abcdef", 10_000))

	want, err := digest.File(path, digest.Options{Algorithm: "sha512"})
	require.NoError(t, err)

	for _, size := range []int{1, 7, 4096, 1 << 20} {
		got, err := digest.File(path, digest.Options{Algorithm: "sha512", ChunkSize: size})
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestFileExtendableLength(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "a.txt", "hello")

	for _, length := range []int{1, 16, 64} {
		got, err := digest.File(path, digest.Options{Algorithm: "shake_256", Length: length})
		require.NoError(t, err)
		assert.Len(t, got, 2*length)
	}
}

func TestFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hello")

	t.Run("unsupported algorithm", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(path, digest.Options{Algorithm: "crc99"})
		require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
	})

	t.Run("empty algorithm", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(path, digest.Options{})
		require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
	})

	t.Run("negative chunk size", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(path, digest.Options{Algorithm: "md5", ChunkSize: -1})
		require.ErrorIs(t, err, digest.ErrInvalidArgument)
	})

	t.Run("extendable without length", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(path, digest.Options{Algorithm: "shake_128"})
		require.ErrorIs(t, err, digest.ErrInvalidArgument)
	})

	t.Run("fixed with length", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(path, digest.Options{Algorithm: "sha256", Length: 8})
		require.ErrorIs(t, err, digest.ErrInvalidArgument)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(filepath.Join(dir, "nope"), digest.Options{Algorithm: "md5"})
		require.Error(t, err)
		assert.True(t, digest.IsAccessError(err))
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		_, err := digest.File(dir, digest.Options{Algorithm: "md5"})
		require.ErrorIs(t, err, digest.ErrNotRegular)
		assert.True(t, digest.IsAccessError(err))
	})
}

func TestReader(t *testing.T) {
	t.Parallel()

	got, err := digest.Reader(strings.NewReader("hello"), digest.Options{Algorithm: "md5", ChunkSize: 2})
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", got)
}

func TestEOLCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unix := writeFile(t, dir, "unix.txt", "a\nb\nc\n")
	dos := writeFile(t, dir, "dos.txt", "a\r\nb\r\nc\r\n")
	none := writeFile(t, dir, "none.txt", "abc")

	tests := []struct {
		name  string
		path  string
		eol   string
		chunk int
		want  int64
	}{
		{"default eol", unix, "", 0, 3},
		{"lf in crlf file", dos, "\n", 0, 3},
		{"crlf", dos, "\r\n", 0, 3},
		{"crlf split across chunks", dos, "\r\n", 2, 3},
		{"crlf one byte chunks", dos, "\r\n", 1, 3},
		{"no match", none, "\n", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := digest.EOLCount(tt.path, tt.eol, tt.chunk)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := digest.EOLCount(filepath.Join(dir, "missing"), "", 0)
	assert.True(t, digest.IsAccessError(err))
}

func TestEOLCountOverlappingSeparator(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		content string
		eol     string
	}{
		{"\r\r\r\r", "\r\r"},
		{"\r\r\r", "\r\r"},
		{"aaaaaaa", "aa"},
		{"xaabaaaax", "aa"},
		{"abababab", "aba"},
		{"\r\n\r\n\n", "\r\n"},
	}

	for i, tt := range tests {
		path := writeFile(t, dir, fmt.Sprintf("f%d.txt", i), tt.content)
		want := int64(strings.Count(tt.content, tt.eol))

		for chunk := 1; chunk <= 4; chunk++ {
			got, err := digest.EOLCount(path, tt.eol, chunk)
			require.NoError(t, err)
			assert.Equal(t, want, got, "content=%q eol=%q chunk=%d", tt.content, tt.eol, chunk)
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    digest.Algorithm
		wantErr bool
	}{
		{input: "sha256", want: digest.SHA256},
		{input: ".SHA256", want: digest.SHA256},
		{input: "SHA-1", want: digest.SHA1},
		{input: "sha3-512", want: digest.SHA3_512},
		{input: "shake256", want: digest.SHAKE256},
		{input: "blake3", want: digest.BLAKE3},
		{input: "txt", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := digest.ParseAlgorithm(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithms(t *testing.T) {
	t.Parallel()

	algs := digest.Algorithms()
	assert.Contains(t, algs, digest.MD5)
	assert.Contains(t, algs, digest.SHAKE128)
	assert.True(t, slices.IsSorted(algs))

	assert.Equal(t, 32, digest.SHA256.Size())
	assert.Equal(t, 64, digest.BLAKE2b.Size())
	assert.Equal(t, 0, digest.SHAKE128.Size())
	assert.True(t, digest.SHAKE256.Extendable())
	assert.False(t, digest.BLAKE3.Extendable())
}
