package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroReader yields zeros for the first n bytes and then defers to rand.Reader
type zeroReader struct {
	n int
}

func (z *zeroReader) Read(p []byte) (int, error) {
	if z.n <= 0 {
		return rand.Read(p)
	}
	k := len(p)
	if k > z.n {
		k = z.n
	}
	for i := 0; i < k; i++ {
		p[i] = 0
	}
	z.n -= k
	return k, nil
}

func TestRandomScalarResamplesZero(t *testing.T) {
	// the first draw is all zeros and must be rejected
	s, err := RandomScalar(&zeroReader{n: sampleLen})
	require.NoError(t, err)
	assert.False(t, s.IsZero())
}

func TestRandomScalarShortRead(t *testing.T) {
	_, err := RandomScalar(bytes.NewReader(make([]byte, 3)))
	require.Error(t, err)
}

func TestPointMarshalRoundTrip(t *testing.T) {
	p, err := RandomPoint(rand.Reader)
	require.NoError(t, err)

	buf := p.Marshal()
	require.Len(t, buf, PointLen)

	var q Point
	require.NoError(t, q.Unmarshal(buf))
	assert.True(t, p.Equal(q))
	qx := q.X()
	px := p.X()
	assert.True(t, px.Equal(&qx))
}

func TestPointUnmarshalRejectsGarbage(t *testing.T) {
	var p Point
	assert.Error(t, p.Unmarshal(make([]byte, PointLen-1)))

	var identity Point
	assert.ErrorIs(t, p.Unmarshal(identity.Marshal()), ErrIdentityPoint)

	junk := bytes.Repeat([]byte{0xff}, PointLen)
	assert.Error(t, p.Unmarshal(junk))
}

func TestCombineMatchesScalarMult(t *testing.T) {
	g := Generator()
	h, err := RandomPoint(rand.Reader)
	require.NoError(t, err)
	s, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	u, err := RandomScalar(rand.Reader)
	require.NoError(t, err)

	want := g.ScalarMult(&s).Add(h.ScalarMult(&u))
	got := Combine(g, &s, h, &u)
	assert.True(t, want.Equal(got))
}

func TestElementHex(t *testing.T) {
	e, err := RandomElement(rand.Reader)
	require.NoError(t, err)

	f, err := ElementFromHex(ElementHex(e))
	require.NoError(t, err)
	assert.True(t, e.Equal(&f))

	// p itself is not a canonical encoding
	_, err = ElementFromHex("30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47")
	assert.ErrorIs(t, err, ErrInvalidElement)
}
