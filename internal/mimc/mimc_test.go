package mimc

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/optable/cot/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestConstants(t *testing.T) {
	cs, err := Constants(DefaultSeed, DefaultRounds)
	require.NoError(t, err)
	require.Len(t, cs, DefaultRounds)

	again, err := Constants(DefaultSeed, DefaultRounds)
	require.NoError(t, err)
	assert.Equal(t, cs, again)

	// a shorter schedule is a prefix of the longer one
	short, err := Constants(DefaultSeed, 10)
	require.NoError(t, err)
	assert.Equal(t, cs[:10], short)

	other, err := Constants("another seed", 10)
	require.NoError(t, err)
	assert.NotEqual(t, short, other)

	_, err = Constants(DefaultSeed, 0)
	assert.ErrorIs(t, err, ErrInvalidRounds)
}

func TestHashMatchesDefinition(t *testing.T) {
	h, err := New(DefaultSeed, 3)
	require.NoError(t, err)
	cs, _ := Constants(DefaultSeed, 3)

	xl := crypto.ElementFromUint64(7)
	xr := crypto.ElementFromUint64(11)
	for i := range cs {
		var s, t5 crypto.Element
		s.Add(&xl, &cs[i])
		t5.Exp(s, big.NewInt(5))
		t5.Add(&t5, &xr)
		xl, xr = t5, xl
	}

	got := h.Hash(crypto.ElementFromUint64(7), crypto.ElementFromUint64(11))
	assert.True(t, got.Equal(&xl))
}

func TestPadDeterministic(t *testing.T) {
	h := Default()
	seed, err := crypto.RandomElement(rand.Reader)
	require.NoError(t, err)

	a := h.Pad(seed, 1)
	b := h.Pad(seed, 1)
	assert.True(t, a.Equal(&b))

	c := h.Pad(seed, 2)
	assert.False(t, a.Equal(&c))
}

func TestPadRoundTrip(t *testing.T) {
	h := Default()
	seed := crypto.ElementFromUint64(42)
	label, err := crypto.RandomElement(rand.Reader)
	require.NoError(t, err)

	pad := h.Pad(seed, 5)
	var enc, dec crypto.Element
	enc.Add(&label, &pad)
	again := h.Pad(seed, 5)
	dec.Sub(&enc, &again)
	assert.True(t, dec.Equal(&label))
}

func TestDigest(t *testing.T) {
	a := Default()
	b, err := New(DefaultSeed, DefaultRounds)
	require.NoError(t, err)
	assert.Equal(t, a.Digest(), b.Digest())

	c, err := New(DefaultSeed, DefaultRounds-1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Equal(t, DefaultRounds-1, c.Rounds())
}

func TestParametersFitPrimitives(t *testing.T) {
	// the digest is keyed with the constants context
	assert.LessOrEqual(t, len(constantsCtx), blake2b.Size)
	assert.NotPanics(t, func() { Default().Digest() })
	assert.NotPanics(t, func() { expandConstants("long schedule", 4*DefaultRounds) })
}
