package crypto

import (
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/pkg/errors"
)

/*
High level api for operating on BN254 G1 Points.
*/

// PointLen is the length of a compressed G1 point encoding
const PointLen = bn254.SizeOfG1AffineCompressed

var (
	ErrInvalidPoint  = errors.New("invalid elliptic curve point encoding")
	ErrIdentityPoint = errors.New("unexpected identity point")
)

// Point represents a point on the BN254 G1 curve
type Point struct {
	a bn254.G1Affine
}

// Generator returns the G1 generator
func Generator() Point {
	_, _, g, _ := bn254.Generators()
	return Point{a: g}
}

// RandomPoint returns g^k for a fresh nonzero scalar k sampled from rng.
// BN254 G1 has cofactor one, so every such point generates the group.
func RandomPoint(rng io.Reader) (Point, error) {
	k, err := RandomScalar(rng)
	if err != nil {
		return Point{}, err
	}
	return Generator().ScalarMult(&k), nil
}

// Marshal converts a Point to its compressed byte representation
func (p Point) Marshal() []byte {
	b := p.a.Bytes()
	return b[:]
}

// Unmarshal takes in a marshaled point and extracts the Point object.
// The encoding is rejected unless it names a non-identity point of the
// prime order subgroup.
func (p *Point) Unmarshal(marshaledPoint []byte) error {
	if len(marshaledPoint) != PointLen {
		return ErrInvalidPoint
	}

	var a bn254.G1Affine
	if _, err := a.SetBytes(marshaledPoint); err != nil {
		return errors.Wrap(ErrInvalidPoint, err.Error())
	}
	if a.IsInfinity() {
		return ErrIdentityPoint
	}

	p.a = a
	return nil
}

// Add adds two points
func (p Point) Add(q Point) Point {
	var j bn254.G1Jac
	j.FromAffine(&p.a)
	j.AddMixed(&q.a)

	var r Point
	r.a.FromJacobian(&j)
	return r
}

// ScalarMult multiplies a point with a scalar
func (p Point) ScalarMult(s *Scalar) Point {
	var r Point
	r.a.ScalarMultiplication(&p.a, s.BigInt(new(big.Int)))
	return r
}

// Combine returns p^s * q^t, the two-base exponentiation used by
// re-randomized ElGamal encryption.
func Combine(p Point, s *Scalar, q Point, t *Scalar) Point {
	var ps, qt bn254.G1Jac
	ps.ScalarMultiplicationAffine(&p.a, s.BigInt(new(big.Int)))
	qt.ScalarMultiplicationAffine(&q.a, t.BigInt(new(big.Int)))
	ps.AddAssign(&qt)

	var r Point
	r.a.FromJacobian(&ps)
	return r
}

// X returns the affine x-coordinate as a base field element
func (p Point) X() Element {
	return p.a.X
}

// IsIdentity reports whether p is the point at infinity
func (p Point) IsIdentity() bool {
	return p.a.IsInfinity()
}

// Equal returns true when 2 points are equal
func (p Point) Equal(q Point) bool {
	return p.a.Equal(&q.a)
}

func (p Point) String() string {
	return p.a.String()
}
