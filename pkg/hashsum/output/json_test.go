package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var got jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "sha256", got.Algorithm)
	assert.Len(t, got.Entries, 3)
	assert.Equal(t, jsonSummary{
		Total: 3, Matched: 1, Modified: 1, Missing: 1, Bytes: 2058, Elapsed: "1.5s", OK: false,
	}, got.Summary)
}

func TestJSONFormatterEmptyEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Result{Algorithm: "md5"}))
	assert.Contains(t, buf.String(), `"entries": []`)
}

func TestJSONLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &e))
	assert.Equal(t, "/data/b.txt", e.Path)
	assert.Equal(t, "modified", e.Status)
	assert.Equal(t, "cc", e.Actual)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var got yamlOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "/data/sums.sha256", got.Manifest)
	assert.Equal(t, 1, got.Summary.Missing)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, "missing", got.Entries[2].Status)
}
