// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package recordlayer implements the TLS record framing the handshake
// driver sends its messages through. Unlike DTLS, TLS records carry no
// epoch or explicit sequence number on the wire: the sequence number is
// tracked per direction by the connection and folded only into the MAC
// computation (out of scope here; see pkg/crypto/ciphersuite).
package recordlayer

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/protocol"
)

// FixedHeaderSize is the size in bytes of a marshaled record header:
// 1 byte content type, 2 bytes version, 2 bytes length.
const FixedHeaderSize = 5

// MaxPlaintextLength is the largest permitted record payload before
// encryption, per RFC 5246 section 6.2.1.
const MaxPlaintextLength = 1 << 14

var (
	errBufferTooSmall = errors.New("recordlayer: buffer too small to unmarshal header")
	errInvalidLength  = errors.New("recordlayer: content length exceeds maximum plaintext size")
)

// Header is the 5-byte TLS record header.
type Header struct {
	ContentType protocol.ContentType
	Version     protocol.Version
	ContentLen  uint16
}

// Size returns the marshaled size of a record header.
func (h *Header) Size() int {
	return FixedHeaderSize
}

// Marshal encodes the header.
func (h *Header) Marshal() ([]byte, error) {
	if h.ContentLen > MaxPlaintextLength {
		return nil, errInvalidLength
	}
	out := make([]byte, FixedHeaderSize)
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor
	binary.BigEndian.PutUint16(out[3:], h.ContentLen)
	return out, nil
}

// Unmarshal decodes the header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < FixedHeaderSize {
		return errBufferTooSmall
	}
	h.ContentType = protocol.ContentType(data[0])
	h.Version.Major = data[1]
	h.Version.Minor = data[2]
	h.ContentLen = binary.BigEndian.Uint16(data[3:5])
	return nil
}
