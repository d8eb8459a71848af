package cache

import (
	"os"
)

// stamp is the modification state a cached result is tied to.
type stamp struct {
	mtime int64
}

// currentStamp stats path. The error is the stat error, unchanged, so
// callers can tell an access failure apart.
func currentStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	return stamp{mtime: info.ModTime().UnixNano()}, nil
}

// fresh reports whether record was written for this modification state.
func (s stamp) fresh(record *Record) bool {
	return record.Version == FormatVersion && record.Mtime == s.mtime
}
