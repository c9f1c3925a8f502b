// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/zmap/zcrypto/tls"

	"github.com/kommander/handshaker/pkg/protocol"
)

// MessageClientHello is the first message a client sends after connecting.
// As with MessageServerHello, extension parsing is out of scope for the
// driver; RawExtensions is carried through unopened.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.2
type MessageClientHello struct {
	Version protocol.Version
	Random  [RandomLength]byte

	SessionID []byte

	CipherSuiteIDs     []uint16
	CompressionMethods []protocol.CompressionMethodID
	RawExtensions      []byte
}

// Type returns the Handshake Type.
func (m MessageClientHello) Type() Type {
	return TypeClientHello
}

// Marshal encodes the message using cryptobyte's length-prefix builder,
// which keeps the 8/16-bit length fields RFC 5246 mandates from ever
// drifting out of sync with the bytes actually written.
func (m *MessageClientHello) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(m.Version.Major)
	b.AddUint8(m.Version.Minor)
	b.AddBytes(m.Random[:])
	b.AddUint8LengthPrefixed(func(c *cryptobyte.Builder) {
		c.AddBytes(m.SessionID)
	})
	b.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, id := range m.CipherSuiteIDs {
			c.AddUint16(id)
		}
	})
	b.AddUint8LengthPrefixed(func(c *cryptobyte.Builder) {
		for _, cm := range m.CompressionMethods {
			c.AddUint8(uint8(cm))
		}
	})
	b.AddBytes(m.RawExtensions)
	return b.Bytes()
}

// Unmarshal populates the message from encoded data using cryptobyte's
// bounds-checked reader: every length-prefixed field is validated against
// the remaining buffer before any bytes are copied out of it.
func (m *MessageClientHello) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)

	if !s.ReadUint8(&m.Version.Major) || !s.ReadUint8(&m.Version.Minor) {
		return errBufferTooSmall
	}
	if !s.CopyBytes(m.Random[:]) {
		return errBufferTooSmall
	}

	var sessionID cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&sessionID) {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, sessionID...)

	var suites cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&suites) {
		return errBufferTooSmall
	}
	m.CipherSuiteIDs = nil
	for !suites.Empty() {
		var id uint16
		if !suites.ReadUint16(&id) {
			return errBufferTooSmall
		}
		m.CipherSuiteIDs = append(m.CipherSuiteIDs, id)
	}

	var compression cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&compression) {
		return errBufferTooSmall
	}
	m.CompressionMethods = nil
	for !compression.Empty() {
		var cm uint8
		if !compression.ReadUint8(&cm) {
			return errBufferTooSmall
		}
		m.CompressionMethods = append(m.CompressionMethods, protocol.CompressionMethodID(cm))
	}

	m.RawExtensions = append([]byte{}, s...)
	return nil
}

// MakeLog produces the zcrypto structured log entry for this message,
// consumed by Conn.GetHandshakeLog.
func (m *MessageClientHello) MakeLog() *tls.ClientHello {
	ret := &tls.ClientHello{}
	ret.Version = tls.TLSVersion((uint16(m.Version.Major) << 8) | uint16(m.Version.Minor))
	ret.Random = append([]byte{}, m.Random[:]...)
	ret.SessionID = append([]byte{}, m.SessionID...)
	ids := make([]tls.CipherSuiteID, len(m.CipherSuiteIDs))
	for i, id := range m.CipherSuiteIDs {
		ids[i] = tls.CipherSuiteID(id)
	}
	ret.CipherSuites = ids
	comps := make([]tls.CompressionMethod, len(m.CompressionMethods))
	for i, c := range m.CompressionMethods {
		comps[i] = tls.CompressionMethod(c)
	}
	ret.CompressionMethods = comps
	return ret
}
