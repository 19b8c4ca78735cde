// Package ot implements the PVW dual-key ElGamal 1-out-of-2 oblivious
// transfer over BN254 G1.
//
// The receiver derives one public key per transfer from the branch of the
// common reference string matching its choice bit. The sender encrypts
// both of its field elements under the key, once per branch, so that only
// the chosen branch decrypts correctly.
//
// reference: Peikert, Vaikuntanathan and Waters, A Framework for Efficient
// and Composable Oblivious Transfer, CRYPTO 2008.
package ot

import (
	"github.com/pkg/errors"
)

var (
	ErrEmptyBatch     = errors.New("attempt to perform OT on an empty batch")
	ErrLengthMismatch = errors.New("provided slices are not the same length as the OT batch")
	ErrBatchConsumed  = errors.New("OT batch already used")
	ErrNoKeys         = errors.New("receiver public keys have not been read")
)
