package digest

import (
	"errors"
	"io/fs"
)

var (
	// ErrUnsupportedAlgorithm is returned for algorithm names outside the
	// supported set. There is no silent fallback.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidArgument is returned for a negative chunk size or an
	// output length the algorithm cannot honor.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRegular is returned when the path names a directory or
	// another non-regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// IsAccessError reports whether err means the file could not be read at
// all: it does not exist, permission was denied, or it is not a regular
// file. These errors are recoverable per file during batch operations.
func IsAccessError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, ErrNotRegular)
}
