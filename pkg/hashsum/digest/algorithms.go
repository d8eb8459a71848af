package digest

import (
	"crypto/md5"  //nolint:gosec // md5 manifests are still common for archives
	"crypto/sha1" //nolint:gosec // sha1 manifests are still common for archives
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a supported digest algorithm. Names are lower case and
// match the manifest file extension, e.g. "sha256" for sums.sha256.
type Algorithm string

// Supported algorithms.
const (
	MD5        Algorithm = "md5"
	SHA1       Algorithm = "sha1"
	SHA224     Algorithm = "sha224"
	SHA256     Algorithm = "sha256"
	SHA384     Algorithm = "sha384"
	SHA512     Algorithm = "sha512"
	SHA512_224 Algorithm = "sha512_224"
	SHA512_256 Algorithm = "sha512_256"
	SHA3_224   Algorithm = "sha3_224"
	SHA3_256   Algorithm = "sha3_256"
	SHA3_384   Algorithm = "sha3_384"
	SHA3_512   Algorithm = "sha3_512"
	BLAKE2b    Algorithm = "blake2b"
	BLAKE2s    Algorithm = "blake2s"
	BLAKE3     Algorithm = "blake3"
	SHAKE128   Algorithm = "shake_128"
	SHAKE256   Algorithm = "shake_256"
)

// Default is the algorithm used when none is configured.
const Default = SHA256

// xof is an extendable-output function: absorb with Write, squeeze any
// number of bytes with Read.
type xof interface {
	io.Writer
	io.Reader
}

type algorithmInfo struct {
	newHash func() hash.Hash
	newXOF  func() xof
}

var registry = map[Algorithm]algorithmInfo{
	MD5:        {newHash: md5.New},
	SHA1:       {newHash: sha1.New},
	SHA224:     {newHash: sha256.New224},
	SHA256:     {newHash: sha256.New},
	SHA384:     {newHash: sha512.New384},
	SHA512:     {newHash: sha512.New},
	SHA512_224: {newHash: sha512.New512_224},
	SHA512_256: {newHash: sha512.New512_256},
	SHA3_224:   {newHash: sha3.New224},
	SHA3_256:   {newHash: sha3.New256},
	SHA3_384:   {newHash: sha3.New384},
	SHA3_512:   {newHash: sha3.New512},
	BLAKE2b:    {newHash: mustKeyless(blake2b.New512)},
	BLAKE2s:    {newHash: mustKeyless(blake2s.New256)},
	BLAKE3:     {newHash: func() hash.Hash { return blake3.New() }},
	SHAKE128:   {newXOF: func() xof { return sha3.NewShake128() }},
	SHAKE256:   {newXOF: func() xof { return sha3.NewShake256() }},
}

// aliases maps common spellings onto registry names.
var aliases = map[string]Algorithm{
	"sha-1":       SHA1,
	"sha-224":     SHA224,
	"sha-256":     SHA256,
	"sha-384":     SHA384,
	"sha-512":     SHA512,
	"sha512-224":  SHA512_224,
	"sha512-256":  SHA512_256,
	"sha3-224":    SHA3_224,
	"sha3-256":    SHA3_256,
	"sha3-384":    SHA3_384,
	"sha3-512":    SHA3_512,
	"blake2b512":  BLAKE2b,
	"blake2s256":  BLAKE2s,
	"shake128":    SHAKE128,
	"shake256":    SHAKE256,
	"blake2b-512": BLAKE2b,
	"blake2s-256": BLAKE2s,
}

// mustKeyless adapts a keyed constructor; with a nil key it cannot fail.
func mustKeyless(fn func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := fn(nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// ParseAlgorithm normalizes name and checks it against the supported set.
// Matching is case-insensitive and a leading dot is ignored, so a file
// extension such as ".SHA256" parses.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if alias, ok := aliases[key]; ok {
		return alias, nil
	}
	alg := Algorithm(key)
	if _, ok := registry[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// Extendable reports whether the algorithm needs an explicit output length.
func (a Algorithm) Extendable() bool {
	return registry[a].newXOF != nil
}

// Size returns the fixed digest size in bytes, or 0 for extendable
// algorithms and unknown names.
func (a Algorithm) Size() int {
	info, ok := registry[a]
	if !ok || info.newHash == nil {
		return 0
	}
	return info.newHash().Size()
}

func (a Algorithm) String() string { return string(a) }

// Algorithms returns every supported algorithm name in sorted order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for alg := range registry {
		out = append(out, alg)
	}
	slices.Sort(out)
	return out
}
