// Package hash computes salted 64-bit fingerprints of protocol messages.
// Fingerprints are not collision resistant against an adversary who
// learns the salt; the salt is sampled locally and never sent.
package hash

import (
	"io"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
	"github.com/shivakar/metrohash"
	"github.com/twmb/murmur3"
)

const SaltLength = 32

const (
	Highway = iota
	Murmur3
	Metro
)

var (
	ErrUnknownHash        = errors.New("cannot create a hasher of unknown hash type")
	ErrSaltLengthMismatch = errors.Errorf("provided salt is not %d length", SaltLength)
)

// Hasher implements different non cryptographic hashing functions
type Hasher interface {
	Hash64([]byte) uint64
}

var typeNames = map[string]int{
	"highway": Highway,
	"murmur3": Murmur3,
	"metro":   Metro,
}

// ParseType returns the hasher type named s (highway, murmur3 or metro)
func ParseType(s string) (int, error) {
	t, ok := typeNames[strings.ToLower(s)]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownHash, "%q", s)
	}
	return t, nil
}

// New creates a hasher of type t
func New(t int, salt []byte) (Hasher, error) {
	switch t {
	case Highway:
		return NewHighwayHasher(salt)
	case Murmur3:
		return NewMurmur3Hasher(salt)
	case Metro:
		return NewMetroHasher(salt)
	default:
		return nil, ErrUnknownHash
	}
}

// NewRandom creates a hasher of type t keyed with a salt read from rng
func NewRandom(t int, rng io.Reader) (Hasher, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return nil, errors.Wrap(err, "sample salt")
	}
	return New(t, salt)
}

// HighwayHash keyed with the salt
type highway struct {
	key []byte
}

// NewHighwayHasher returns a HighwayHash-64 hasher keyed with salt
func NewHighwayHasher(salt []byte) (highway, error) {
	if len(salt) != SaltLength {
		return highway{}, ErrSaltLengthMismatch
	}
	return highway{key: salt}, nil
}

func (h highway) Hash64(p []byte) uint64 {
	return highwayhash.Sum64(p, h.key)
}

// Murmur3 implementation of Hasher
type murmur64 struct {
	salt []byte
}

// NewMurmur3Hasher returns a Murmur3 hasher that uses salt as a prefix to the
// bytes being summed
func NewMurmur3Hasher(salt []byte) (murmur64, error) {
	if len(salt) != SaltLength {
		return murmur64{}, ErrSaltLengthMismatch
	}
	return murmur64{salt: salt}, nil
}

func (t murmur64) Hash64(p []byte) uint64 {
	h := murmur3.New64()
	h.Write(t.salt)
	h.Write(p)
	return h.Sum64()
}

// Metro Hash implementation of Hasher
type metro struct {
	salt []byte
}

// NewMetroHasher returns a metro64 hasher that uses salt as a
// prefix to the bytes being summed
func NewMetroHasher(salt []byte) (metro, error) {
	if len(salt) != SaltLength {
		return metro{}, ErrSaltLengthMismatch
	}
	return metro{salt: salt}, nil
}

func (m metro) Hash64(p []byte) uint64 {
	h := metrohash.NewMetroHash64()
	h.Write(m.salt)
	h.Write(p)
	return h.Sum64()
}
