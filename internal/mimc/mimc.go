// Package mimc implements the MiMC-5 Feistel permutation over the BN254
// base field and the label pads derived from it.
//
// Each round maps (xl, xr) to ((xl + c_i)^5 + xr, xl). The output of the
// keyed hash is the left half after the last round.
package mimc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bluele/gcache"
	"github.com/optable/cot/internal/crypto"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultRounds is the number of rounds of the reference parameterization
	DefaultRounds = 322
	// DefaultSeed is the public seed the round constants are expanded from
	DefaultSeed = "cot/mimc5/bn254"

	// DigestLen is the length of a parameter digest
	DigestLen = 32

	// 16 bytes over the field size keep the reduction bias negligible
	constantLen  = crypto.ElementLen + 16
	constantsCtx = "github.com/optable/cot mimc5 round constants"
	cacheSize    = 16
)

var ErrInvalidRounds = errors.New("number of rounds must be positive")

type constantsKey struct {
	seed   string
	rounds int
}

// expanding 322 constants is cheap but every session needs them
var constantsCache = gcache.New(cacheSize).LRU().LoaderFunc(func(k interface{}) (interface{}, error) {
	key := k.(constantsKey)
	return expandConstants(key.seed, key.rounds), nil
}).Build()

func expandConstants(seed string, rounds int) []crypto.Element {
	h := blake3.NewDeriveKey(constantsCtx)
	h.WriteString(seed)
	xof := h.Digest()

	cs := make([]crypto.Element, rounds)
	var buf [constantLen]byte
	for i := range cs {
		if _, err := io.ReadFull(xof, buf[:]); err != nil {
			panic(fmt.Sprintf("mimc: blake3 output exhausted: %v", err))
		}
		cs[i].SetBytes(buf[:])
	}
	return cs
}

// Constants returns the round constants expanded from seed. The returned
// slice is shared and must not be modified.
func Constants(seed string, rounds int) ([]crypto.Element, error) {
	if rounds <= 0 {
		return nil, ErrInvalidRounds
	}
	v, err := constantsCache.Get(constantsKey{seed: seed, rounds: rounds})
	if err != nil {
		return nil, err
	}
	return v.([]crypto.Element), nil
}

// Hasher evaluates the keyed MiMC-5 hash with a fixed set of round
// constants. It holds no mutable state and is safe for concurrent use.
type Hasher struct {
	seed      string
	constants []crypto.Element
}

// New returns a Hasher with rounds constants expanded from seed
func New(seed string, rounds int) (*Hasher, error) {
	cs, err := Constants(seed, rounds)
	if err != nil {
		return nil, err
	}
	return &Hasher{seed: seed, constants: cs}, nil
}

// Default returns the Hasher of the reference parameterization
func Default() *Hasher {
	h, err := New(DefaultSeed, DefaultRounds)
	if err != nil {
		panic(err)
	}
	return h
}

// Rounds returns the number of Feistel rounds
func (h *Hasher) Rounds() int {
	return len(h.constants)
}

// Seed returns the public seed of the round constants
func (h *Hasher) Seed() string {
	return h.seed
}

// Hash runs the Feistel network on (xl, xr) and returns the left half
func (h *Hasher) Hash(xl, xr crypto.Element) crypto.Element {
	var t, t2 crypto.Element
	for i := range h.constants {
		t.Add(&xl, &h.constants[i])
		t2.Square(&t)
		t2.Square(&t2)
		t.Mul(&t2, &t)
		t.Add(&t, &xr)
		xr = xl
		xl = t
	}
	return xl
}

// Pad derives the one-time pad for counter from seed
func (h *Hasher) Pad(seed crypto.Element, counter uint64) crypto.Element {
	return h.Hash(seed, crypto.ElementFromUint64(counter))
}

// Digest binds the parameters of h. Two parties whose digests differ
// would derive different pads from the same seed.
func (h *Hasher) Digest() [DigestLen]byte {
	d, err := blake2b.New256([]byte(constantsCtx))
	if err != nil {
		panic(fmt.Sprintf("mimc: digest key rejected: %v", err))
	}
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(h.constants)))
	d.Write(n[:])
	for i := range h.constants {
		d.Write(crypto.MarshalElement(&h.constants[i]))
	}

	var out [DigestLen]byte
	copy(out[:], d.Sum(nil))
	return out
}

func (h *Hasher) String() string {
	return fmt.Sprintf("mimc5(seed=%q, rounds=%d)", h.seed, len(h.constants))
}
