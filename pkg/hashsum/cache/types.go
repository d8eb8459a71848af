package cache

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack"
)

// FormatVersion is incremented when the persisted record format changes.
// Records with another version are treated as stale.
const FormatVersion = 1

// KeySeparator separates path, operation and arguments in store keys.
const KeySeparator = '\x00'

// Record is one persisted operation result.
type Record struct {
	Version int    `msgpack:"v"`
	Mtime   int64  `msgpack:"m"`
	Value   []byte `msgpack:"d"`
}

// Encode serializes the record with msgpack.
func (r *Record) Encode() ([]byte, error) {
	return msgpack.Marshal(r)
}

// Decode deserializes msgpack data into the record.
func (r *Record) Decode(data []byte) error {
	return msgpack.Unmarshal(data, r)
}

// Args are the arguments of a cached operation. Only arguments that can
// change the result belong here.
type Args map[string]any

// Canonical renders the arguments as sorted key=value pairs so equal
// argument sets always produce the same key.
func (a Args) Canonical() string {
	keys := slices.Sorted(maps.Keys(a))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, a[k]))
	}
	return strings.Join(parts, "&")
}

// MakeKey creates a store key.
// Format: <path>\x00<op>\x00<args>
func MakeKey(path, op, args string) []byte {
	sep := string(KeySeparator)
	return []byte(path + sep + op + sep + args)
}

// ParseKey splits a store key into its parts.
func ParseKey(key []byte) (path, op, args string) {
	parts := bytes.SplitN(key, []byte{KeySeparator}, 3)
	switch len(parts) {
	case 3:
		return string(parts[0]), string(parts[1]), string(parts[2])
	case 2:
		return string(parts[0]), string(parts[1]), ""
	default:
		return string(key), "", ""
	}
}

// MakeKeyPrefix returns the prefix shared by every key of path.
func MakeKeyPrefix(path string) []byte {
	return []byte(path + string(KeySeparator))
}
