package verify

import (
	"fmt"
	"strings"
)

// Status classifies one manifest entry.
type Status int

const (
	// Matched means the fresh digest equals the recorded one.
	Matched Status = iota
	// Modified means both digests exist and differ.
	Modified
	// Missing means no fresh digest could be computed.
	Missing
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Modified:
		return "modified"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "matched":
		*s = Matched
	case "modified":
		*s = Modified
	case "missing":
		*s = Missing
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Outcome is the classification of one manifest entry.
type Outcome struct {
	Path     string
	Recorded string
	Actual   string
	Status   Status

	// Size is the file size in bytes; zero when Missing.
	Size int64

	// Err is the access error behind a Missing status.
	Err error
}
