package ot

import (
	"io"

	"github.com/optable/cot/internal/crypto"
	"github.com/pkg/errors"
)

// CRSLen is the length of a marshaled CRS
const CRSLen = 4 * crypto.PointLen

var ErrInvalidCRS = errors.New("invalid common reference string")

// CRS is the common reference string (g0, h0, g1, h1) with
// h0 = g0^x0 and h1 = g1^x1 for distinct nonzero x0, x1.
// It is immutable once created and may be shared by concurrent sessions.
type CRS struct {
	G0, H0 crypto.Point
	G1, H1 crypto.Point
}

// Setup samples a fresh CRS. The trapdoors x0 and x1 are discarded.
// Degenerate draws are re-sampled.
func Setup(rng io.Reader) (CRS, error) {
	for {
		g0, err := crypto.RandomPoint(rng)
		if err != nil {
			return CRS{}, err
		}
		g1, err := crypto.RandomPoint(rng)
		if err != nil {
			return CRS{}, err
		}
		// RandomScalar never returns zero
		x0, err := crypto.RandomScalar(rng)
		if err != nil {
			return CRS{}, err
		}
		x1, err := crypto.RandomScalar(rng)
		if err != nil {
			return CRS{}, err
		}
		if x0.Equal(&x1) || g0.Equal(g1) {
			continue
		}

		return CRS{
			G0: g0,
			H0: g0.ScalarMult(&x0),
			G1: g1,
			H1: g1.ScalarMult(&x1),
		}, nil
	}
}

// branch returns the generators of branch b
func (c CRS) branch(b bool) (g, h crypto.Point) {
	if b {
		return c.G1, c.H1
	}
	return c.G0, c.H0
}

// Marshal encodes the CRS as g0 || h0 || g1 || h1
func (c CRS) Marshal() []byte {
	buf := make([]byte, 0, CRSLen)
	for _, p := range []crypto.Point{c.G0, c.H0, c.G1, c.H1} {
		buf = append(buf, p.Marshal()...)
	}
	return buf
}

// UnmarshalCRS decodes a CRS produced by Marshal
func UnmarshalCRS(buf []byte) (CRS, error) {
	if len(buf) != CRSLen {
		return CRS{}, errors.Wrapf(ErrInvalidCRS, "got %d bytes, want %d", len(buf), CRSLen)
	}

	var pts [4]crypto.Point
	for i := range pts {
		if err := pts[i].Unmarshal(buf[i*crypto.PointLen : (i+1)*crypto.PointLen]); err != nil {
			return CRS{}, errors.Wrap(ErrInvalidCRS, err.Error())
		}
	}

	crs := CRS{G0: pts[0], H0: pts[1], G1: pts[2], H1: pts[3]}
	if crs.G0.Equal(crs.G1) && crs.H0.Equal(crs.H1) {
		return CRS{}, errors.Wrap(ErrInvalidCRS, "both branches are equal")
	}
	return crs, nil
}
