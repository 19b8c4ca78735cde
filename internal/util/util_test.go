package util

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestBitSetInByte(t *testing.T) {
	b := []byte{161}
	for i := 0; i < 8; i++ {
		want := i == 0 || i == 5 || i == 7
		assert.Equal(t, want, BitSetInByte(b, i), "bit %d", i)
	}
}

func TestSampleChoices(t *testing.T) {
	choices, err := SampleChoices(bytes.NewReader([]byte{0x01, 0x80}), 16)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000001", FormatChoices(choices))

	choices, err = SampleChoices(rand.Reader, 13)
	require.NoError(t, err)
	assert.Len(t, choices, 13)

	_, err = SampleChoices(bytes.NewReader(nil), 1)
	assert.Error(t, err)
}

func TestParseChoices(t *testing.T) {
	choices, err := ParseChoices("01 1\n0")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, choices)

	_, err = ParseChoices("012")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a b\r\n\nc d\nlast"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "c d", "last"}, lines)
}
