package cot

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/cot/internal/crypto"
	"github.com/optable/cot/internal/ot"
	"github.com/optable/cot/internal/transport"
	"github.com/optable/cot/internal/util"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
)

// stage 1: check the sender's session header and answer with a status
// stage 2: act as receiver in the seed and offset base OTs
// stage 3: read the padded labels and remove the pad of the chosen branch
// stage 4: send fresh MAC keys, read the MACs and verify the chosen branch

// Receiver side of the correlated OT, often the evaluator
type Receiver struct {
	crs      ot.CRS
	rng      io.Reader
	opts     options
	metrics  sessionMetrics
	accepted metrics.Counter
	cheating metrics.Counter
}

// NewReceiver returns a Receiver using crs and sampling from rng.
// A nil rng means crypto/rand.
func NewReceiver(crs ot.CRS, rng io.Reader, opts ...Option) *Receiver {
	if rng == nil {
		rng = rand.Reader
	}
	o := newOptions(opts)
	return &Receiver{
		crs:      crs,
		rng:      rng,
		opts:     o,
		metrics:  newSessionMetrics(o.registry, "receiver"),
		accepted: metrics.GetOrRegisterCounter("cot.receiver.accepted", o.registry),
		cheating: metrics.GetOrRegisterCounter("cot.receiver.cheating", o.registry),
	}
}

// Mode returns the session mode of r
func (r *Receiver) Mode() Mode {
	return r.opts.mode
}

// receiverSession is the state of one Receive
type receiverSession struct {
	*Receiver
	ch      *transport.Channel
	logger  logr.Logger
	choices []bool

	seeds   []crypto.Element
	offsets []crypto.Element
	labels  []crypto.Element
}

// Receive obtains the label selected by choices[i] from the i-th pair of
// the sender on the other end of rw. No labels are returned unless the
// whole batch was received and, in Malicious mode, verified.
func (r *Receiver) Receive(ctx context.Context, rw io.ReadWriter, choices []bool) (labels []crypto.Element, err error) {
	if len(choices) == 0 {
		return nil, ErrEmptyBatch
	}

	start := time.Now()
	r.metrics.sessions.Inc(1)
	defer func() {
		switch {
		case err == nil:
			r.accepted.Inc(1)
		case errors.Is(err, ErrCheatingDetected):
			r.cheating.Inc(1)
		default:
			r.metrics.aborted.Inc(1)
		}
		r.metrics.duration.UpdateSince(start)
	}()

	sess := &receiverSession{
		Receiver: r,
		ch:       transport.NewChannel(rw),
		logger:   logr.FromContextOrDiscard(ctx).WithValues("protocol", "cot", "party", "receiver"),
		choices:  choices,
	}
	timer := start
	var mem uint64

	stages := []func() error{sess.handshake, sess.transfer, sess.unmask}
	if r.opts.mode == Malicious {
		stages = append(stages, sess.verify)
	}

	for i, stage := range stages {
		n := i + 1
		sess.logger.V(1).Info("Starting stage", "stage", n)
		if err := util.Sel(ctx, stage); err != nil {
			if errors.Is(err, ErrCheatingDetected) {
				sess.logger.Error(err, "aborting session")
			}
			return nil, errors.Wrapf(err, "stage%d", n)
		}
		timer, mem = printStageStats(sess.logger, n, timer, start, mem)
		sess.logger.V(1).Info("Finished stage", "stage", n)
	}

	stats := sess.ch.Stats()
	sess.logger.V(2).Info("session done", "sent bytes", stats.Sent.Count(), "received bytes", stats.Recvd.Count())
	return sess.labels, nil
}

// handshake reads the session header and accepts it only if it matches
// the local parameters
func (sess *receiverSession) handshake() error {
	got, err := readHeader(sess.ch)
	if err == nil {
		sess.logger = sess.logger.WithValues("session", got.session.String())
		err = got.check(newHeader(got.session, len(sess.choices), sess.opts.mode, sess.opts.hasher))
	}
	if errors.Is(err, ErrParamMismatch) {
		// tell the sender before giving up, the session is lost either way
		_ = writeStatus(sess.ch, statusMismatch)
		return err
	}
	if err != nil {
		return err
	}
	return writeStatus(sess.ch, statusOK)
}

// transfer runs the base OTs for the seeds and the offsets. Every run
// samples its own receiver keys.
func (sess *receiverSession) transfer() error {
	runs := 1
	if sess.opts.mode == Malicious {
		runs = 2
	}

	receivers := make([]*ot.Receiver, runs)
	for i := range receivers {
		otReceiver, err := ot.NewReceiver(sess.crs, sess.choices)
		if err != nil {
			return err
		}
		if err := otReceiver.WriteKeys(sess.ch, sess.rng); err != nil {
			return err
		}
		receivers[i] = otReceiver
	}

	var err error
	if sess.seeds, err = receivers[0].Receive(sess.ch); err != nil {
		return err
	}
	if runs == 2 {
		if sess.offsets, err = receivers[1].Receive(sess.ch); err != nil {
			return err
		}
	}
	return nil
}

// unmask reads both padded labels of every pair and removes the pad of
// the chosen branch
func (sess *receiverSession) unmask() error {
	m := len(sess.choices)
	masked, err := sess.ch.ReadElements(2 * m)
	if err != nil {
		return err
	}

	h := sess.opts.hasher
	labels := make([]crypto.Element, m)
	for i, b := range sess.choices {
		enc := masked[2*i]
		if b {
			enc = masked[2*i+1]
		}
		pad := h.Pad(sess.seeds[i], uint64(i+1))
		labels[i].Sub(&enc, &pad)
	}
	sess.labels = labels
	return nil
}

// verify sends fresh MAC keys and checks the sender's MAC of the chosen
// branch of every pair against the recovered label and offset
func (sess *receiverSession) verify() error {
	keys, err := NewMacKeys(sess.rng)
	if err != nil {
		return err
	}
	if err := sess.ch.WriteElements([]crypto.Element{keys.K0, keys.K1}); err != nil {
		return err
	}
	if err := sess.ch.Flush(); err != nil {
		return err
	}

	m := len(sess.choices)
	macs, err := sess.ch.ReadElements(2 * m)
	if err != nil {
		return err
	}

	var bad []int
	for i, b := range sess.choices {
		got := macs[2*i]
		if b {
			got = macs[2*i+1]
		}
		want := Tag(keys, sess.labels[i], sess.offsets[i])
		if !got.Equal(&want) {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		sess.labels = nil
		return errors.Wrapf(ErrCheatingDetected, "%d of %d MACs rejected, first at index %d", len(bad), m, bad[0])
	}
	return nil
}
