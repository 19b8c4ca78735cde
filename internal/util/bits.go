package util

import (
	"fmt"
	"io"
	"strings"
)

var ErrInvalidChoice = fmt.Errorf("choice bits should be binary")

// SampleChoices reads n uniformly random choice bits from prng
func SampleChoices(prng io.Reader, n int) ([]bool, error) {
	buf := make([]byte, (n+7)/8)
	if _, err := io.ReadFull(prng, buf); err != nil {
		return nil, err
	}

	choices := make([]bool, n)
	for i := range choices {
		choices[i] = BitSetInByte(buf, i)
	}
	return choices, nil
}

// BitSetInByte returns true if bit i is set in a byte slice.
// it extracts bits from the least significant bit of a byte.
func BitSetInByte(b []byte, i int) bool {
	return b[i/8]&(1<<(i%8)) > 0
}

// ParseChoices parses a string of '0' and '1' characters into choice bits,
// ignoring whitespace.
func ParseChoices(s string) ([]bool, error) {
	var choices []bool
	for _, c := range s {
		switch c {
		case '0':
			choices = append(choices, false)
		case '1':
			choices = append(choices, true)
		case ' ', '\t', '\r', '\n':
		default:
			return nil, fmt.Errorf("%w, got %q", ErrInvalidChoice, c)
		}
	}
	return choices, nil
}

// FormatChoices is the inverse of ParseChoices
func FormatChoices(choices []bool) string {
	var b strings.Builder
	b.Grow(len(choices))
	for _, c := range choices {
		if c {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
