// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"context"

	"github.com/kommander/handshaker/pkg/protocol"
)

// RecordLayer is the record-layer collaborator the driver consumes (§6).
// Record encryption/decryption, socket I/O, and fragmentation of the
// ciphertext stream are all out of scope for the driver: it only asks for
// the next full record's content type and body, and for a place to push
// outbound bytes of a chosen content type.
type RecordLayer interface {
	// ReadFullRecord blocks (or, if ctx is done, returns ErrWouldBlock)
	// until one full record has been read and (if necessary) decrypted.
	// isSSLv2 is true only when the record layer recognized an SSLv2-
	// formatted ClientHello instead of a v3 record.
	ReadFullRecord(ctx context.Context) (contentType protocol.ContentType, body []byte, isSSLv2 bool, err error)

	// Write enqueues a record of the given content type and body.
	// Records are never coalesced across logical messages by the driver
	// (§4.4 fragmentation policy), though the record layer is free to
	// coalesce at the transport level once flushed.
	Write(contentType protocol.ContentType, body []byte)

	// Flush pushes any enqueued records to the wire. Returns
	// ErrWouldBlock if the underlying socket is not ready.
	Flush(ctx context.Context) error

	// MaxWritePayloadSize returns the largest plaintext payload that fits
	// in one outbound record given the current cipher state.
	MaxWritePayloadSize() int
}
