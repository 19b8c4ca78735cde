package transport

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/optable/cot/internal/crypto"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
)

/*
Ordered, reliable channel between the two parties of a transfer.

Writes are buffered until Flush, which the protocols call at the end of
every round. Reads block until the full fixed-size payload is available.
*/

const bufSize = 64 * 1024

var ErrTransport = errors.New("transport failure")

// Error describes a failed channel operation. Every Error matches
// ErrTransport with errors.Is.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "transport: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }

func opError(op string, err error) error {
	if err == io.EOF {
		// a premature close is a transport failure, never a clean end
		err = io.ErrUnexpectedEOF
	}
	return &Error{Op: op, Err: err}
}

// Stats counts the bytes moved through a Channel
type Stats struct {
	Sent    metrics.Counter
	Recvd   metrics.Counter
	Flushed metrics.Counter
}

func newStats() Stats {
	return Stats{
		Sent:    metrics.NewCounter(),
		Recvd:   metrics.NewCounter(),
		Flushed: metrics.NewCounter(),
	}
}

// Channel reads and writes points and field elements over rw
type Channel struct {
	r     *bufio.Reader
	w     *bufio.Writer
	buf   [crypto.PointLen]byte
	stats Stats
}

// NewChannel returns a Channel using rw as the communication layer
func NewChannel(rw io.ReadWriter) *Channel {
	return &Channel{
		r:     bufio.NewReaderSize(rw, bufSize),
		w:     bufio.NewWriterSize(rw, bufSize),
		stats: newStats(),
	}
}

// Stats returns the channel counters
func (c *Channel) Stats() Stats {
	return c.stats
}

// WriteBytes writes b verbatim
func (c *Channel) WriteBytes(b []byte) error {
	n, err := c.w.Write(b)
	c.stats.Sent.Inc(int64(n))
	if err != nil {
		return opError("write", err)
	}
	return nil
}

// ReadBytes fills b from the channel
func (c *Channel) ReadBytes(b []byte) error {
	n, err := io.ReadFull(c.r, b)
	c.stats.Recvd.Inc(int64(n))
	if err != nil {
		return opError("read", err)
	}
	return nil
}

// WriteUint32 writes v in big-endian order
func (c *Channel) WriteUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return c.WriteBytes(b[:])
}

// ReadUint32 reads a big-endian uint32
func (c *Channel) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := c.ReadBytes(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// WritePoint writes the compressed encoding of p
func (c *Channel) WritePoint(p crypto.Point) error {
	return c.WriteBytes(p.Marshal())
}

// ReadPoint reads a compressed point. Encodings of the identity or of
// points outside the prime order subgroup are malformed payloads.
func (c *Channel) ReadPoint() (crypto.Point, error) {
	var p crypto.Point
	if err := c.ReadBytes(c.buf[:crypto.PointLen]); err != nil {
		return p, err
	}
	if err := p.Unmarshal(c.buf[:crypto.PointLen]); err != nil {
		return p, opError("read point", err)
	}
	return p, nil
}

// WriteElement writes the canonical encoding of e
func (c *Channel) WriteElement(e crypto.Element) error {
	return c.WriteBytes(crypto.MarshalElement(&e))
}

// ReadElement reads a canonical field element encoding
func (c *Channel) ReadElement() (crypto.Element, error) {
	if err := c.ReadBytes(c.buf[:crypto.ElementLen]); err != nil {
		return crypto.Element{}, err
	}
	e, err := crypto.UnmarshalElement(c.buf[:crypto.ElementLen])
	if err != nil {
		return e, opError("read element", err)
	}
	return e, nil
}

// WriteElements writes every element of es
func (c *Channel) WriteElements(es []crypto.Element) error {
	for i := range es {
		if err := c.WriteElement(es[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadElements reads n field elements
func (c *Channel) ReadElements(n int) ([]crypto.Element, error) {
	es := make([]crypto.Element, n)
	for i := range es {
		e, err := c.ReadElement()
		if err != nil {
			return nil, err
		}
		es[i] = e
	}
	return es, nil
}

// Flush pushes all buffered writes to the peer
func (c *Channel) Flush() error {
	if c.w.Buffered() == 0 {
		return nil
	}
	if err := c.w.Flush(); err != nil {
		return opError("flush", err)
	}
	c.stats.Flushed.Inc(1)
	return nil
}
