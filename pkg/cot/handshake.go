package cot

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/optable/cot/internal/mimc"
	"github.com/optable/cot/internal/transport"
	"github.com/pkg/errors"
)

const version = 1

var magic = [4]byte{'P', 'V', 'W', 'C'}

const (
	statusOK byte = iota
	statusMismatch
)

// header opens every session. The receiver accepts it only if every
// field matches its own parameters.
type header struct {
	session uuid.UUID
	m       uint32
	mode    Mode
	rounds  uint32
	digest  [mimc.DigestLen]byte
}

func newHeader(session uuid.UUID, m int, mode Mode, h *mimc.Hasher) header {
	return header{
		session: session,
		m:       uint32(m),
		mode:    mode,
		rounds:  uint32(h.Rounds()),
		digest:  h.Digest(),
	}
}

func (h header) write(ch *transport.Channel) error {
	if err := ch.WriteBytes(magic[:]); err != nil {
		return err
	}
	if err := ch.WriteUint32(version); err != nil {
		return err
	}
	if err := ch.WriteBytes(h.session[:]); err != nil {
		return err
	}
	for _, v := range []uint32{h.m, uint32(h.mode), h.rounds} {
		if err := ch.WriteUint32(v); err != nil {
			return err
		}
	}
	if err := ch.WriteBytes(h.digest[:]); err != nil {
		return err
	}
	return ch.Flush()
}

func readHeader(ch *transport.Channel) (h header, err error) {
	var mg [4]byte
	if err = ch.ReadBytes(mg[:]); err != nil {
		return
	}
	if mg != magic {
		return h, errors.Wrapf(ErrParamMismatch, "bad magic %x", mg)
	}
	v, err := ch.ReadUint32()
	if err != nil {
		return
	}
	if v != version {
		return h, errors.Wrapf(ErrParamMismatch, "unsupported version %d", v)
	}
	if err = ch.ReadBytes(h.session[:]); err != nil {
		return
	}
	var fields [3]uint32
	for i := range fields {
		if fields[i], err = ch.ReadUint32(); err != nil {
			return
		}
	}
	h.m, h.mode, h.rounds = fields[0], Mode(fields[1]), fields[2]
	err = ch.ReadBytes(h.digest[:])
	return
}

// check compares a received header against the local parameters
func (h header) check(want header) error {
	switch {
	case h.m != want.m:
		return errors.Wrapf(ErrParamMismatch, "batch size %d, expected %d", h.m, want.m)
	case h.mode != want.mode:
		return errors.Wrapf(ErrParamMismatch, "mode %s, expected %s", h.mode, want.mode)
	case h.rounds != want.rounds:
		return errors.Wrapf(ErrParamMismatch, "%d pad rounds, expected %d", h.rounds, want.rounds)
	case !bytes.Equal(h.digest[:], want.digest[:]):
		return errors.Wrap(ErrParamMismatch, "pad constants differ")
	}
	return nil
}

func writeStatus(ch *transport.Channel, s byte) error {
	if err := ch.WriteBytes([]byte{s}); err != nil {
		return err
	}
	return ch.Flush()
}

func readStatus(ch *transport.Channel) error {
	var s [1]byte
	if err := ch.ReadBytes(s[:]); err != nil {
		return err
	}
	if s[0] != statusOK {
		return errors.Wrap(ErrParamMismatch, "rejected by receiver")
	}
	return nil
}
