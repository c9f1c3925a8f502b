// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/protocol"
)

// ErrWouldBlock is the only error a caller may legitimately retry: a
// record-layer read or flush could not complete without blocking.
// errors.Is-comparable so callers can distinguish it from fatal errors
// without inspecting a concrete type. It is an alias for
// protocol.ErrWouldBlock so that RecordLayer implementations living
// outside this package (pkg/protocol/recordlayer) can return the same
// sentinel without importing back into the root package.
var ErrWouldBlock = protocol.ErrWouldBlock

// Fatal per-connection error sentinels (spec §7 "Bad-message"). Each is
// wrapped with github.com/pkg/errors so the stack at the point of first
// detection survives to the caller, matching this driver's teacher-
// adjacent error style (lanikai-alohartc wraps fatal errors the same way).
var (
	ErrUnexpectedRecordType   = errors.New("tls: unexpected record type at this point in the handshake")
	ErrUnexpectedWireType     = errors.New("tls: unexpected handshake message type")
	ErrHandshakeMessageTooBig = errors.New("tls: handshake message exceeds maximum length")
	ErrChangeCipherSpecBody   = errors.New("tls: change_cipher_spec body must be exactly one byte")
	ErrApplicationDataTooSoon = errors.New("tls: application data received before handshake completed")
	ErrUnexpectedSSLv2Hello  = errors.New("tls: sslv2 clienthello received outside of ClientHello position")
	ErrUnsupportedMessage    = errors.New("tls: reached a message this driver does not implement a handler for")
	ErrPeerAlert             = errors.New("tls: peer sent a fatal alert")
)

// badMessage wraps one of the sentinels above with context, keeping the
// sentinel matchable via errors.Is while adding a human-readable detail.
func badMessage(sentinel error, detail string) error {
	return errors.Wrap(sentinel, detail)
}

// handlerError wraps an error returned by a payload handler (spec §7
// "Handler error"): parse failure, crypto failure, or policy violation.
// The driver kills the connection and propagates this unchanged.
func handlerError(msg Message, err error) error {
	return errors.Wrapf(err, "tls: payload handler for %s failed", msg)
}

// transcriptError wraps a transcript digest failure (spec §7
// "Crypto/transcript failure").
func transcriptError(err error) error {
	return errors.Wrap(err, "tls: transcript update failed")
}
