package ot

import (
	"io"

	"github.com/optable/cot/internal/crypto"
	"github.com/optable/cot/internal/transport"
	"github.com/pkg/errors"
)

/*
Receiver                                  Sender
  r_i <- Fr*, (g_i, h_i) = (g_b^r_i, h_b^r_i)
                      --- (g_i, h_i) --->
                                          for c in {0, 1}: s, t <- Fr
                                            u_c = g_c^s h_c^t
                                            v_c = g_i^s h_i^t
                      <--- (u_c, v_c.x + m_c) ---
  m_b = vx_b - (u_b^r_i).x
*/

// PublicKey is the receiver's key for one transfer
type PublicKey struct {
	G, H crypto.Point
}

// SecretKey is the receiver's exponent for one transfer, never zero
type SecretKey = crypto.Scalar

// Ciphertext encrypts one field element under one branch of the CRS
type Ciphertext struct {
	U crypto.Point
	V crypto.Element
}

// KeyGen derives one key pair per choice bit. Every secret is sampled
// independently; the public key is formed on the branch of the choice.
func KeyGen(crs CRS, choices []bool, rng io.Reader) ([]PublicKey, []SecretKey, error) {
	if len(choices) == 0 {
		return nil, nil, ErrEmptyBatch
	}

	sks := make([]SecretKey, len(choices))
	for i := range sks {
		r, err := crypto.RandomScalar(rng)
		if err != nil {
			return nil, nil, err
		}
		sks[i] = r
	}

	pks := make([]PublicKey, len(choices))
	parallel(len(choices), func(i int) {
		g, h := crs.branch(choices[i])
		pks[i] = PublicKey{G: g.ScalarMult(&sks[i]), H: h.ScalarMult(&sks[i])}
	})
	return pks, sks, nil
}

// blinding holds the (s, t) pair of both branches of one transfer
type blinding [2][2]crypto.Scalar

func sampleBlinding(rng io.Reader) (b blinding, err error) {
	for c := range b {
		for j := range b[c] {
			if b[c][j], err = crypto.RandomScalar(rng); err != nil {
				return
			}
		}
	}
	return
}

func encrypt(crs CRS, pk PublicKey, m0, m1 crypto.Element, b *blinding) [2]Ciphertext {
	var cts [2]Ciphertext
	for c, m := range [2]crypto.Element{m0, m1} {
		g, h := crs.branch(c == 1)
		s, t := &b[c][0], &b[c][1]
		cts[c].U = crypto.Combine(g, s, h, t)
		v := crypto.Combine(pk.G, s, pk.H, t)
		vx := v.X()
		cts[c].V.Add(&vx, &m)
	}
	return cts
}

// Encrypt encrypts m0 on branch 0 and m1 on branch 1 under pk with fresh
// blinding exponents.
func Encrypt(crs CRS, pk PublicKey, m0, m1 crypto.Element, rng io.Reader) ([2]Ciphertext, error) {
	b, err := sampleBlinding(rng)
	if err != nil {
		return [2]Ciphertext{}, err
	}
	return encrypt(crs, pk, m0, m1, &b), nil
}

// Decrypt recovers the message of the branch sk was derived from. A
// ciphertext of the other branch, or a malformed one, yields an
// unrelated element rather than an error.
func Decrypt(sk SecretKey, ct Ciphertext) crypto.Element {
	ur := ct.U.ScalarMult(&sk)
	x := ur.X()
	var m crypto.Element
	m.Sub(&ct.V, &x)
	return m
}

// Sender is the OT sender of one batch
type Sender struct {
	crs  CRS
	m    int
	pks  []PublicKey
	used bool
}

// NewSender returns a sender for a batch of m transfers
func NewSender(crs CRS, m int) (*Sender, error) {
	if m <= 0 {
		return nil, ErrEmptyBatch
	}
	return &Sender{crs: crs, m: m}, nil
}

// ReadKeys receives the m receiver public keys
func (s *Sender) ReadKeys(ch *transport.Channel) error {
	pks := make([]PublicKey, s.m)
	for i := range pks {
		g, err := ch.ReadPoint()
		if err != nil {
			return err
		}
		h, err := ch.ReadPoint()
		if err != nil {
			return err
		}
		pks[i] = PublicKey{G: g, H: h}
	}
	s.pks = pks
	return nil
}

// PublicKeys returns the keys read by ReadKeys
func (s *Sender) PublicKeys() []PublicKey {
	return s.pks
}

// Send encrypts msgs0[i], msgs1[i] under the i-th public key and writes
// both ciphertexts of every transfer. A batch can be sent only once.
func (s *Sender) Send(ch *transport.Channel, msgs0, msgs1 []crypto.Element, rng io.Reader) error {
	if s.used {
		return ErrBatchConsumed
	}
	if s.pks == nil {
		return ErrNoKeys
	}
	if len(msgs0) != s.m || len(msgs1) != s.m {
		return ErrLengthMismatch
	}
	s.used = true

	blindings := make([]blinding, s.m)
	for i := range blindings {
		b, err := sampleBlinding(rng)
		if err != nil {
			return err
		}
		blindings[i] = b
	}

	cts := make([][2]Ciphertext, s.m)
	parallel(s.m, func(i int) {
		cts[i] = encrypt(s.crs, s.pks[i], msgs0[i], msgs1[i], &blindings[i])
	})

	for i := range cts {
		for c := range cts[i] {
			if err := ch.WritePoint(cts[i][c].U); err != nil {
				return err
			}
			if err := ch.WriteElement(cts[i][c].V); err != nil {
				return err
			}
		}
	}
	return ch.Flush()
}

// Receiver is the OT receiver of one batch
type Receiver struct {
	crs     CRS
	choices []bool
	sks     []SecretKey
	used    bool
}

// NewReceiver returns a receiver for one transfer per choice bit
func NewReceiver(crs CRS, choices []bool) (*Receiver, error) {
	if len(choices) == 0 {
		return nil, ErrEmptyBatch
	}
	return &Receiver{crs: crs, choices: append([]bool(nil), choices...)}, nil
}

// WriteKeys generates fresh key pairs and sends the public keys
func (r *Receiver) WriteKeys(ch *transport.Channel, rng io.Reader) error {
	if r.sks != nil {
		return ErrBatchConsumed
	}
	pks, sks, err := KeyGen(r.crs, r.choices, rng)
	if err != nil {
		return err
	}
	r.sks = sks

	for _, pk := range pks {
		if err := ch.WritePoint(pk.G); err != nil {
			return err
		}
		if err := ch.WritePoint(pk.H); err != nil {
			return err
		}
	}
	return ch.Flush()
}

// Receive reads both ciphertexts of every transfer and decrypts the one
// selected by the choice bit.
func (r *Receiver) Receive(ch *transport.Channel) ([]crypto.Element, error) {
	if r.used {
		return nil, ErrBatchConsumed
	}
	if r.sks == nil {
		return nil, errors.New("receiver keys have not been sent")
	}
	r.used = true

	chosen := make([]Ciphertext, len(r.choices))
	for i, b := range r.choices {
		var cts [2]Ciphertext
		for c := range cts {
			u, err := ch.ReadPoint()
			if err != nil {
				return nil, err
			}
			v, err := ch.ReadElement()
			if err != nil {
				return nil, err
			}
			cts[c] = Ciphertext{U: u, V: v}
		}
		if b {
			chosen[i] = cts[1]
		} else {
			chosen[i] = cts[0]
		}
	}

	msgs := make([]crypto.Element, len(chosen))
	parallel(len(chosen), func(i int) {
		msgs[i] = Decrypt(r.sks[i], chosen[i])
	})
	return msgs, nil
}
