// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the size in bytes of a marshaled handshake message
// header: one type byte, three big-endian length bytes.
//
// https://tools.ietf.org/html/rfc5246#section-7.4
const HeaderSize = 4

var (
	errHeaderTooSmall = errors.New("handshake: header buffer too small")
	errLengthMismatch = errors.New("handshake: body length does not fit a 24-bit field")
)

// Header is the 4-byte handshake message header the driver writes before
// a message body and reads before reassembling one.
type Header struct {
	Type   Type
	Length uint32 // 24-bit on the wire
}

// Marshal encodes the header into a freshly allocated 4-byte slice.
func (h *Header) Marshal() ([]byte, error) {
	if h.Length > 0xFFFFFF {
		return nil, errLengthMismatch
	}
	out := make([]byte, HeaderSize)
	out[0] = byte(h.Type)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], h.Length)
	copy(out[1:], lenBuf[1:])
	return out, nil
}

// Unmarshal decodes a header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < HeaderSize {
		return errHeaderTooSmall
	}
	h.Type = Type(data[0])
	var lenBuf [4]byte
	copy(lenBuf[1:], data[1:4])
	h.Length = binary.BigEndian.Uint32(lenBuf[:])
	return nil
}
