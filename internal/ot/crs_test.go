package ot

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRSMarshal(t *testing.T) {
	crs := testCRS(t)
	buf := crs.Marshal()
	require.Len(t, buf, CRSLen)

	got, err := UnmarshalCRS(buf)
	require.NoError(t, err)
	assert.True(t, got.G0.Equal(crs.G0))
	assert.True(t, got.H0.Equal(crs.H0))
	assert.True(t, got.G1.Equal(crs.G1))
	assert.True(t, got.H1.Equal(crs.H1))
}

func TestCRSRejectsMalformed(t *testing.T) {
	crs := testCRS(t)
	buf := crs.Marshal()

	_, err := UnmarshalCRS(buf[:CRSLen-1])
	assert.ErrorIs(t, err, ErrInvalidCRS)

	// second branch copied from the first
	dup := append(append([]byte{}, buf[:CRSLen/2]...), buf[:CRSLen/2]...)
	_, err = UnmarshalCRS(dup)
	assert.ErrorIs(t, err, ErrInvalidCRS)
}

func TestSetupDistinctBranches(t *testing.T) {
	for i := 0; i < 4; i++ {
		crs, err := Setup(rand.Reader)
		require.NoError(t, err)
		assert.False(t, crs.G0.Equal(crs.G1))
		assert.False(t, crs.H0.Equal(crs.H1))
	}
}
