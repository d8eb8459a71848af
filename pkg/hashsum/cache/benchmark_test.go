package cache_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/hashsum/pkg/hashsum/apply"
	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
)

func createBenchFiles(b *testing.B, numFiles int) []string {
	b.Helper()
	root := b.TempDir()

	files := make([]string, numFiles)
	for i := range numFiles {
		dir := filepath.Join(root, "dir"+string(rune('a'+i%26)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatalf("failed to create dir: %v", err)
		}

		size := 4 * 1024
		if i%10 == 0 {
			size = 256 * 1024
		}

		files[i] = filepath.Join(dir, fmt.Sprintf("file%d.bin", i))
		if err := os.WriteFile(files[i], make([]byte, size), 0o644); err != nil {
			b.Fatalf("failed to write file: %v", err)
		}
	}
	return files
}

func benchmarkDigest(b *testing.B, c *cache.Cache, files []string) {
	b.Helper()
	opts := digest.Options{Algorithm: string(digest.SHA256)}

	for b.Loop() {
		_, err := apply.Apply(files, func(path string) (string, error) {
			return c.Digest(path, opts)
		}, apply.Options{})
		if err != nil {
			b.Fatalf("digest failed: %v", err)
		}
	}
}

func BenchmarkDigest_NoCache(b *testing.B) {
	benchmarkDigest(b, nil, createBenchFiles(b, 500))
}

func BenchmarkDigest_Memory(b *testing.B) {
	benchmarkDigest(b, cache.New(), createBenchFiles(b, 500))
}

func BenchmarkDigest_Persistent(b *testing.B) {
	c, err := cache.Open(b.TempDir())
	if err != nil {
		b.Fatalf("failed to open cache: %v", err)
	}
	defer c.Close()

	benchmarkDigest(b, c, createBenchFiles(b, 500))
}
