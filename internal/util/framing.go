package util

import (
	"bufio"
	"io"
)

// SafeReadLine blocks until a whole line can be read or
// r returns an error.
// ***warning: expects lines to be \n separated***
func SafeReadLine(r *bufio.Reader) (line []byte, err error) {
	line, err = r.ReadBytes('\n')
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return
}

// ReadLines returns every non-empty line of r, with the line terminators
// stripped.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	src := bufio.NewReader(r)
	for {
		line, err := SafeReadLine(src)
		if len(line) != 0 {
			lines = append(lines, string(line))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
