package cot

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/optable/cot/internal/crypto"
	"github.com/optable/cot/internal/ot"
	"github.com/optable/cot/internal/transport"
	"github.com/optable/cot/internal/util"
	"github.com/pkg/errors"
)

// stage 1: open the session with the parameter header
// stage 2: transfer PRG seeds and, in Malicious mode, correlation offsets
// with two independent base OT runs
// stage 3: pad both labels of every pair and send them
// stage 4: read the receiver's MAC keys and send the MACs of both branches

// Sender side of the correlated OT, often the garbler
type Sender struct {
	crs     ot.CRS
	rng     io.Reader
	opts    options
	metrics sessionMetrics
}

// NewSender returns a Sender using crs and sampling from rng.
// A nil rng means crypto/rand.
func NewSender(crs ot.CRS, rng io.Reader, opts ...Option) *Sender {
	if rng == nil {
		rng = rand.Reader
	}
	o := newOptions(opts)
	return &Sender{crs: crs, rng: rng, opts: o, metrics: newSessionMetrics(o.registry, "sender")}
}

// Mode returns the session mode of s
func (s *Sender) Mode() Mode {
	return s.opts.mode
}

// senderSession is the state of one Send
type senderSession struct {
	*Sender
	id     uuid.UUID
	ch     *transport.Channel
	logger logr.Logger
	pairs  []Pair

	// PRG seeds and correlation offsets of both branches
	seeds   [2][]crypto.Element
	offsets [2][]crypto.Element
}

func (s *Sender) newSession(ctx context.Context, rw io.ReadWriter, pairs []Pair) (*senderSession, error) {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return nil, err
	}
	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", "cot", "party", "sender", "session", id.String())
	return &senderSession{
		Sender: s,
		id:     id,
		ch:     transport.NewChannel(rw),
		logger: logger,
		pairs:  pairs,
	}, nil
}

// Send transfers pairs to the receiver on the other end of rw. The
// receiver learns exactly one label of every pair.
func (s *Sender) Send(ctx context.Context, rw io.ReadWriter, pairs []Pair) (err error) {
	if len(pairs) == 0 {
		return ErrEmptyBatch
	}

	start := time.Now()
	s.metrics.sessions.Inc(1)
	defer func() {
		if err != nil {
			s.metrics.aborted.Inc(1)
		}
		s.metrics.duration.UpdateSince(start)
	}()

	sess, err := s.newSession(ctx, rw, pairs)
	if err != nil {
		return err
	}
	logger := sess.logger
	timer := start
	var mem uint64

	stages := []func() error{sess.handshake, sess.transfer, sess.mask}
	if s.opts.mode == Malicious {
		stages = append(stages, func() error { return sess.authenticate(sess.pairs) })
	}

	for i, stage := range stages {
		n := i + 1
		logger.V(1).Info("Starting stage", "stage", n)
		if err := util.Sel(ctx, stage); err != nil {
			return errors.Wrapf(err, "stage%d", n)
		}
		timer, mem = printStageStats(logger, n, timer, start, mem)
		logger.V(1).Info("Finished stage", "stage", n)
	}

	stats := sess.ch.Stats()
	logger.V(2).Info("session done", "sent bytes", stats.Sent.Count(), "received bytes", stats.Recvd.Count())
	return nil
}

// handshake sends the session header and waits for the receiver's verdict
func (sess *senderSession) handshake() error {
	h := newHeader(sess.id, len(sess.pairs), sess.opts.mode, sess.opts.hasher)
	if err := h.write(sess.ch); err != nil {
		return err
	}
	return readStatus(sess.ch)
}

// transfer runs the base OTs for the seeds and the offsets
func (sess *senderSession) transfer() error {
	m := len(sess.pairs)
	runs := 1
	if sess.opts.mode == Malicious {
		runs = 2
	}

	senders := make([]*ot.Sender, runs)
	for i := range senders {
		otSender, err := ot.NewSender(sess.crs, m)
		if err != nil {
			return err
		}
		if err := otSender.ReadKeys(sess.ch); err != nil {
			return err
		}
		senders[i] = otSender
	}

	if sess.opts.guard != nil {
		var keys [][]byte
		for _, otSender := range senders {
			for _, pk := range otSender.PublicKeys() {
				keys = append(keys, pk.G.Marshal(), pk.H.Marshal())
			}
		}
		if err := sess.opts.guard.Observe(keys); err != nil {
			return err
		}
	}

	var err error
	for c := range sess.seeds {
		if sess.seeds[c], err = crypto.RandomElements(sess.rng, m); err != nil {
			return err
		}
	}
	if err := senders[0].Send(sess.ch, sess.seeds[0], sess.seeds[1], sess.rng); err != nil {
		return err
	}

	if runs == 2 {
		for c := range sess.offsets {
			if sess.offsets[c], err = crypto.RandomElements(sess.rng, m); err != nil {
				return err
			}
		}
		if err := senders[1].Send(sess.ch, sess.offsets[0], sess.offsets[1], sess.rng); err != nil {
			return err
		}
	}
	return nil
}

// mask sends label + Pad(seed, i+1) for both branches of every pair.
// Each branch counts from one.
func (sess *senderSession) mask() error {
	h := sess.opts.hasher
	masked := make([]crypto.Element, 2*len(sess.pairs))
	for i, p := range sess.pairs {
		pad0 := h.Pad(sess.seeds[0][i], uint64(i+1))
		pad1 := h.Pad(sess.seeds[1][i], uint64(i+1))
		masked[2*i].Add(&p.Zero, &pad0)
		masked[2*i+1].Add(&p.One, &pad1)
	}
	if err := sess.ch.WriteElements(masked); err != nil {
		return err
	}
	return sess.ch.Flush()
}

// authenticate reads the receiver's MAC keys and sends the MACs of both
// branches of pairs under the transferred offsets
func (sess *senderSession) authenticate(pairs []Pair) error {
	k, err := sess.ch.ReadElements(2)
	if err != nil {
		return err
	}
	keys := MacKeys{K0: k[0], K1: k[1]}

	macs := make([]crypto.Element, 2*len(pairs))
	for i, p := range pairs {
		macs[2*i] = Tag(keys, p.Zero, sess.offsets[0][i])
		macs[2*i+1] = Tag(keys, p.One, sess.offsets[1][i])
	}
	if err := sess.ch.WriteElements(macs); err != nil {
		return err
	}
	return sess.ch.Flush()
}
