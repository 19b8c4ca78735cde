// Package replay detects receiver public keys that show up in more than
// one session. A receiver must sample fresh keys for every batch; a key
// seen twice means the peer is replaying an earlier transcript.
package replay

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/optable/cot/internal/hash"
	"github.com/pkg/errors"
)

var ErrKeyReuse = errors.New("receiver public key reused across sessions")

// Guard remembers fingerprints of every key it observed. False positives
// are possible at the configured rate, false negatives are not.
type Guard struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	h      hash.Hasher
	n      uint64
}

// New returns a Guard sized for capacity keys at false positive rate fp,
// fingerprinting keys with a hasher of type t keyed from rng.
func New(capacity uint, fp float64, t int, rng io.Reader) (*Guard, error) {
	if capacity == 0 || fp <= 0 || fp >= 1 {
		return nil, errors.Errorf("invalid replay guard parameters: capacity %d, false positive rate %v", capacity, fp)
	}
	h, err := hash.NewRandom(t, rng)
	if err != nil {
		return nil, err
	}
	return &Guard{filter: bloom.NewWithEstimates(capacity, fp), h: h}, nil
}

// Observe records keys and fails with ErrKeyReuse if any of them was seen
// before, in this call or an earlier one. Keys are recorded even when the
// call fails.
func (g *Guard) Observe(keys [][]byte) error {
	var fp [8]byte
	reused := -1

	g.mu.Lock()
	defer g.mu.Unlock()
	g.n += uint64(len(keys))
	for i, k := range keys {
		binary.LittleEndian.PutUint64(fp[:], g.h.Hash64(k))
		if g.filter.TestAndAdd(fp[:]) && reused < 0 {
			reused = i
		}
	}
	if reused >= 0 {
		return errors.Wrapf(ErrKeyReuse, "key %d", reused)
	}
	return nil
}

// Observed returns the number of keys passed to Observe so far
func (g *Guard) Observed() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
