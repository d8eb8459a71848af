// Package config loads hashsum settings from a YAML file, HASHSUM_
// environment variables and built-in defaults.
package config

const (
	// DefaultAlgorithm is used when neither a flag nor the manifest
	// extension names one.
	DefaultAlgorithm = "sha256"

	// DefaultChunkSize is the read buffer size.
	DefaultChunkSize = "64KiB"

	// DefaultOutput is the report format for check.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30

	// EnvPrefix prefixes environment overrides, e.g. HASHSUM_ALGORITHM.
	EnvPrefix = "HASHSUM"
)

// DefaultExclusions are skipped when expanding directories.
var DefaultExclusions = []string{
	".git",
	"*.swp",
	".DS_Store",
}
