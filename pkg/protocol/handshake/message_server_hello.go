// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/zmap/zcrypto/tls"

	"github.com/kommander/handshaker/pkg/protocol"
)

// RandomLength is the size in bytes of the handshake Random structure.
const RandomLength = 32

// MessageServerHello is sent in response to a ClientHello when the server
// was able to find an acceptable set of algorithms. Extension parsing is
// out of scope for the driver (an external collaborator's concern); the
// raw extension bytes are carried through unopened so MakeLog can still
// produce a faithful post-handshake record.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.3
type MessageServerHello struct {
	Version protocol.Version
	Random  [RandomLength]byte

	SessionID []byte

	CipherSuiteID     uint16
	CompressionMethod protocol.CompressionMethodID
	RawExtensions     []byte
}

const messageServerHelloFixedWidth = 2 + RandomLength

// Type returns the Handshake Type.
func (m MessageServerHello) Type() Type {
	return TypeServerHello
}

// Marshal encodes the message.
func (m *MessageServerHello) Marshal() ([]byte, error) {
	out := make([]byte, messageServerHelloFixedWidth)
	out[0] = m.Version.Major
	out[1] = m.Version.Minor
	copy(out[2:], m.Random[:])

	out = append(out, byte(len(m.SessionID)))
	out = append(out, m.SessionID...)

	suite := make([]byte, 2)
	binary.BigEndian.PutUint16(suite, m.CipherSuiteID)
	out = append(out, suite...)

	out = append(out, byte(m.CompressionMethod))
	return append(out, m.RawExtensions...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageServerHello) Unmarshal(data []byte) error {
	if len(data) < messageServerHelloFixedWidth {
		return errBufferTooSmall
	}
	m.Version.Major = data[0]
	m.Version.Minor = data[1]
	copy(m.Random[:], data[2:messageServerHelloFixedWidth])

	offset := messageServerHelloFixedWidth
	if len(data) <= offset {
		return errBufferTooSmall
	}
	n := int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, data[offset:offset+n]...)
	offset += n

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	m.CipherSuiteID = binary.BigEndian.Uint16(data[offset:])
	offset += 2

	if len(data) <= offset {
		return errBufferTooSmall
	}
	m.CompressionMethod = protocol.CompressionMethodID(data[offset])
	offset++

	m.RawExtensions = append([]byte{}, data[offset:]...)
	return nil
}

// MakeLog produces the zcrypto structured log entry for this message,
// consumed by Conn.GetHandshakeLog.
func (m *MessageServerHello) MakeLog() *tls.ServerHello {
	ret := &tls.ServerHello{}
	ret.Version = tls.TLSVersion((uint16(m.Version.Major) << 8) | uint16(m.Version.Minor))
	ret.Random = append([]byte{}, m.Random[:]...)
	ret.SessionID = append([]byte{}, m.SessionID...)
	ret.CipherSuite = tls.CipherSuiteID(m.CipherSuiteID)
	ret.CompressionMethod = uint8(m.CompressionMethod)
	return ret
}
