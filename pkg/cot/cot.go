// Package cot transfers batches of correlated label pairs with a
// maliciously secure correlated oblivious transfer.
//
// The sender holds m pairs (zero, one) and the receiver holds m choice
// bits. Two independent PVW base OT runs give the receiver one PRG seed
// and one correlation offset per index on the branch of its choice. The
// sender pads both labels with MiMC-5 pads derived from the seeds, and in
// Malicious mode authenticates every (label, offset) pair with the
// information theoretic MAC k1*(x + r) + k0*r under keys chosen by the
// receiver. A receiver whose own branch fails the check gets
// ErrCheatingDetected and no labels.
package cot

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/cot/internal/crypto"
	"github.com/optable/cot/internal/mimc"
	"github.com/optable/cot/internal/replay"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
)

var (
	ErrEmptyBatch       = errors.New("cannot transfer an empty batch")
	ErrCheatingDetected = errors.New("MAC verification failed: sender is cheating")
	ErrParamMismatch    = errors.New("session parameters do not match")
)

// Mode selects the security level of a session
type Mode uint32

const (
	// Malicious adds the offset transfer and the MAC check
	Malicious Mode = iota
	// SemiHonest only transfers the padded labels
	SemiHonest
)

func (m Mode) String() string {
	switch m {
	case Malicious:
		return "malicious"
	case SemiHonest:
		return "semi-honest"
	default:
		return fmt.Sprintf("mode(%d)", uint32(m))
	}
}

// ParseMode parses the String form of a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "malicious":
		return Malicious, nil
	case "semi-honest", "semihonest":
		return SemiHonest, nil
	default:
		return 0, errors.Errorf("unknown mode %q", s)
	}
}

// Pair holds the two labels of one wire
type Pair struct {
	Zero, One crypto.Element
}

// Label returns the label selected by choice
func (p Pair) Label(choice bool) crypto.Element {
	if choice {
		return p.One
	}
	return p.Zero
}

// CorrelatedPairs samples m pairs with One = Zero + delta
func CorrelatedPairs(rng io.Reader, delta crypto.Element, m int) ([]Pair, error) {
	zeros, err := crypto.RandomElements(rng, m)
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair, m)
	for i := range pairs {
		pairs[i].Zero = zeros[i]
		pairs[i].One.Add(&zeros[i], &delta)
	}
	return pairs, nil
}

// MacKeys are the receiver's keys of the MAC k1*(x + r) + k0*r
type MacKeys struct {
	K0, K1 crypto.Element
}

// NewMacKeys samples fresh MAC keys
func NewMacKeys(rng io.Reader) (MacKeys, error) {
	ks, err := crypto.RandomElements(rng, 2)
	if err != nil {
		return MacKeys{}, err
	}
	return MacKeys{K0: ks[0], K1: ks[1]}, nil
}

// Tag returns k1*(x + r) + k0*r
func Tag(keys MacKeys, x, r crypto.Element) crypto.Element {
	var t, u crypto.Element
	t.Add(&x, &r)
	t.Mul(&t, &keys.K1)
	u.Mul(&r, &keys.K0)
	t.Add(&t, &u)
	return t
}

type options struct {
	mode     Mode
	hasher   *mimc.Hasher
	registry metrics.Registry
	guard    *replay.Guard
}

// Option configures a Sender or a Receiver
type Option func(*options)

// WithMode sets the session mode, Malicious by default
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithHasher sets the pad hasher, mimc.Default() by default. Both parties
// must use the same parameters.
func WithHasher(h *mimc.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

// WithRegistry registers the session metrics in r
func WithRegistry(r metrics.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithReplayGuard makes a Sender reject receiver keys seen in an earlier
// session. Receivers ignore it.
func WithReplayGuard(g *replay.Guard) Option {
	return func(o *options) { o.guard = g }
}

func newOptions(opts []Option) options {
	o := options{mode: Malicious}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasher == nil {
		o.hasher = mimc.Default()
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}
	return o
}

// sessionMetrics are the counters of one party
type sessionMetrics struct {
	sessions metrics.Counter
	aborted  metrics.Counter
	duration metrics.Timer
}

func newSessionMetrics(r metrics.Registry, party string) sessionMetrics {
	prefix := "cot." + party + "."
	return sessionMetrics{
		sessions: metrics.GetOrRegisterCounter(prefix+"sessions", r),
		aborted:  metrics.GetOrRegisterCounter(prefix+"aborted", r),
		duration: metrics.GetOrRegisterTimer(prefix+"duration", r),
	}
}

// printStageStats logs the time and memory spent in a stage and returns
// the values the next stage is measured from
func printStageStats(logger logr.Logger, stage int, prevTime, startTime time.Time, prevMem uint64) (time.Time, uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	now := time.Now()
	logger.V(2).Info(fmt.Sprintf("stage %d stats", stage),
		"time", now.Sub(prevTime).String(),
		"cumulative time", now.Sub(startTime).String(),
		"memory delta (MiB)", (float64(m.Alloc)-float64(prevMem))/(1024*1024),
		"total memory (MiB)", float64(m.Alloc)/(1024*1024))
	return now, m.Alloc
}
