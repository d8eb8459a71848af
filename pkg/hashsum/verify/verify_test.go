package verify_test

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
)

// fixture writes n files and a manifest over them, returning the file
// paths and the manifest path.
func fixture(t *testing.T, n int, manifestName string, opts manifest.Options) ([]string, string) {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	files := make([]string, n)
	for i := range n {
		files[i] = filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		require.NoError(t, os.WriteFile(files[i], []byte(fmt.Sprintf("content %d", i)), 0o644))
	}

	out, err := manifest.Compute(files, filepath.Join(dir, manifestName), opts)
	require.NoError(t, err)
	return files, out
}

func TestRoundTripAllMatched(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"sums.md5", "sums.sha256", "sums.sha3_512", "sums.blake3", "sums.blake2s"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			files, out := fixture(t, 5, name, manifest.Options{})
			report, err := verify.Check(out, verify.Options{})
			require.NoError(t, err)

			assert.Equal(t, files, report.Matched)
			assert.Empty(t, report.Modified)
			assert.Empty(t, report.Missing)
			assert.True(t, report.OK())
			assert.Positive(t, report.Bytes)
		})
	}
}

func TestModificationDetection(t *testing.T) {
	t.Parallel()

	files, out := fixture(t, 4, "sums.sha1", manifest.Options{})
	require.NoError(t, os.WriteFile(files[2], []byte("tampered"), 0o644))

	report, err := verify.Check(out, verify.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{files[2]}, report.Modified)
	assert.Equal(t, []string{files[0], files[1], files[3]}, report.Matched)
	assert.Empty(t, report.Missing)
	assert.False(t, report.OK())
}

func TestMissingDetection(t *testing.T) {
	t.Parallel()

	files, out := fixture(t, 3, "sums.md5", manifest.Options{})
	require.NoError(t, os.Remove(files[0]))

	report, err := verify.Check(out, verify.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{files[0]}, report.Missing)
	assert.Equal(t, files[1:], report.Matched)
	assert.Empty(t, report.Modified)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, verify.Missing, report.Outcomes[0].Status)
	assert.True(t, digest.IsAccessError(report.Outcomes[0].Err))
	assert.Empty(t, report.Outcomes[0].Actual)
}

func TestVerifierClassifiesOnce(t *testing.T) {
	t.Parallel()

	files, out := fixture(t, 3, "sums.md5", manifest.Options{})
	m, err := manifest.Load(out, manifest.LoadOptions{})
	require.NoError(t, err)

	c := cache.New()
	v := verify.New(m, verify.Options{Cache: c})

	assert.Equal(t, files, slices.Collect(v.Matched()))

	// Changes after the first pass are not observed by this verifier.
	require.NoError(t, os.WriteFile(files[1], []byte("changed"), 0o644))
	assert.Empty(t, slices.Collect(v.Modified()))
	assert.Empty(t, slices.Collect(v.Missing()))
	assert.Equal(t, int64(3), c.Stats().Misses, "files hashed once")
	require.NoError(t, v.Err())

	// A fresh verifier sees the change.
	stamp := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(files[1], stamp, stamp))
	fresh := verify.New(m, verify.Options{Cache: c})
	assert.Equal(t, []string{files[1]}, slices.Collect(fresh.Modified()))
}

func TestAccessorsAfterFailedClassification(t *testing.T) {
	t.Parallel()

	_, out := fixture(t, 2, "sums.md5", manifest.Options{})
	m, err := manifest.Load(out, manifest.LoadOptions{})
	require.NoError(t, err)

	v := verify.New(m, verify.Options{Algorithm: "nope"})
	assert.Empty(t, slices.Collect(v.Matched()))
	assert.Empty(t, slices.Collect(v.Modified()))
	assert.Empty(t, slices.Collect(v.Missing()))
	require.ErrorIs(t, v.Err(), digest.ErrUnsupportedAlgorithm)

	_, err = v.Report()
	require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
}

func TestCaseInsensitiveCompare(t *testing.T) {
	t.Parallel()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	out := filepath.Join(dir, "sums.md5")
	require.NoError(t, os.WriteFile(out, []byte("5d41402abc4b2a76b9719d911017c592 *a.txt\n"), 0o644))

	report, err := verify.Check(out, verify.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, report.Matched)
	assert.Equal(t, "5D41402ABC4B2A76B9719D911017C592", report.Outcomes[0].Recorded)
}

func TestDuplicateEntries(t *testing.T) {
	t.Parallel()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	out := filepath.Join(dir, "sums.md5")
	content := strings.Join([]string{
		"5D41402ABC4B2A76B9719D911017C592 *a.txt",
		"00000000000000000000000000000000 *a.txt",
	}, "\n")
	require.NoError(t, os.WriteFile(out, []byte(content), 0o644))

	report, err := verify.Check(out, verify.Options{})
	require.NoError(t, err)
	assert.Len(t, report.Matched, 1)
	assert.Len(t, report.Modified, 1)
}

func TestExtendableLengthFromRecordedDigest(t *testing.T) {
	t.Parallel()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))

	short, err := digest.File(file, digest.Options{Algorithm: "shake_256", Length: 8})
	require.NoError(t, err)
	long, err := digest.File(file, digest.Options{Algorithm: "shake_256", Length: 32})
	require.NoError(t, err)

	out := filepath.Join(dir, "sums.shake_256")
	content := strings.ToUpper(short) + " *a.txt\n" + strings.ToUpper(long) + " *a.txt\n"
	require.NoError(t, os.WriteFile(out, []byte(content), 0o644))

	report, err := verify.Check(out, verify.Options{})
	require.NoError(t, err)
	assert.Len(t, report.Matched, 2)

	// An explicit length applies to every entry.
	report, err = verify.Check(out, verify.Options{Length: 8})
	require.NoError(t, err)
	assert.Len(t, report.Matched, 1)
	assert.Len(t, report.Modified, 1)
}

func TestAlgorithmOverride(t *testing.T) {
	t.Parallel()

	_, out := fixture(t, 2, "sums.txt", manifest.Options{Algorithm: "sha256"})

	_, err := verify.Check(out, verify.Options{})
	require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)

	report, err := verify.Check(out, verify.Options{Algorithm: "sha256"})
	require.NoError(t, err)
	assert.Len(t, report.Matched, 2)

	report, err = verify.Check(out, verify.Options{Algorithm: "md5"})
	require.NoError(t, err)
	assert.Len(t, report.Modified, 2)

	_, err = verify.Check(out, verify.Options{Algorithm: "sha256", ChunkSize: -1})
	require.ErrorIs(t, err, digest.ErrInvalidArgument)
}

func TestFiles(t *testing.T) {
	t.Parallel()

	files, _ := fixture(t, 2, "sums.md5", manifest.Options{})
	missing := filepath.Join(filepath.Dir(files[0]), "absent.txt")

	report, err := verify.Files(append(files, missing), verify.Options{Algorithm: "md5"})
	require.NoError(t, err)
	assert.Equal(t, files, report.Matched)
	assert.Equal(t, []string{missing}, report.Missing)

	_, err = verify.Files(files, verify.Options{})
	require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	for _, s := range []verify.Status{verify.Matched, verify.Modified, verify.Missing} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back verify.Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	var s verify.Status
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}
