package crypto

import (
	"encoding/hex"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
)

/*
Field arithmetic over BN254.

Element is the base field Fp. Wire labels, masking pads, correlation
offsets and MAC keys are all Elements, the same field as the
x-coordinate of a G1 point. Scalar is the group order field Fr and is
only ever used as an exponent.
*/

const (
	// ElementLen is the length of a canonical Element encoding
	ElementLen = fp.Bytes

	// 16 extra bytes make the bias of the modular reduction negligible
	sampleLen = fp.Bytes + 16
)

type (
	Element = fp.Element
	Scalar  = fr.Element
)

var ErrInvalidElement = errors.New("invalid field element encoding")

// RandomScalar samples a nonzero scalar from rng, re-sampling on zero.
func RandomScalar(rng io.Reader) (Scalar, error) {
	var buf [sampleLen]byte
	var s Scalar
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return s, errors.Wrap(err, "sample scalar")
		}
		s.SetBytes(buf[:])
		if !s.IsZero() {
			return s, nil
		}
	}
}

// RandomElement samples a uniformly distributed base field element from rng.
func RandomElement(rng io.Reader) (Element, error) {
	var buf [sampleLen]byte
	var e Element
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return e, errors.Wrap(err, "sample element")
	}
	e.SetBytes(buf[:])
	return e, nil
}

// RandomElements samples n field elements from rng.
func RandomElements(rng io.Reader, n int) ([]Element, error) {
	es := make([]Element, n)
	for i := range es {
		e, err := RandomElement(rng)
		if err != nil {
			return nil, err
		}
		es[i] = e
	}
	return es, nil
}

// ElementFromUint64 returns v as a field element
func ElementFromUint64(v uint64) Element {
	return fp.NewElement(v)
}

// MarshalElement returns the canonical big-endian encoding of e
func MarshalElement(e *Element) []byte {
	b := e.Bytes()
	return b[:]
}

// UnmarshalElement decodes a canonical encoding, rejecting values >= p
func UnmarshalElement(b []byte) (Element, error) {
	var e Element
	if err := e.SetBytesCanonical(b); err != nil {
		return e, errors.Wrap(ErrInvalidElement, err.Error())
	}
	return e, nil
}

// ElementHex returns the hex encoding of e
func ElementHex(e Element) string {
	return hex.EncodeToString(MarshalElement(&e))
}

// ElementFromHex parses a hex encoded canonical element
func ElementFromHex(s string) (Element, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Element{}, errors.Wrap(ErrInvalidElement, err.Error())
	}
	return UnmarshalElement(b)
}
