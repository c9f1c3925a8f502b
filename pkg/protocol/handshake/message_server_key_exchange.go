// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageServerKeyExchange carries the server's ephemeral key-exchange
// parameters when the negotiated cipher suite is PFS (spec shape rows 4
// and 6 add this message right after ServerCert/ServerCertStatus). The
// wire shape of the parameters varies by key-exchange algorithm (ECDHE
// curve params, classic DHE params); interpreting RawParams is a
// Callbacks concern, not the driver's (spec §1).
//
// https://tools.ietf.org/html/rfc5246#section-7.4.3
type MessageServerKeyExchange struct {
	RawParams []byte
}

// Type returns the Handshake Type.
func (m MessageServerKeyExchange) Type() Type {
	return TypeServerKeyExchange
}

// Marshal encodes the message.
func (m *MessageServerKeyExchange) Marshal() ([]byte, error) {
	return append([]byte{}, m.RawParams...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageServerKeyExchange) Unmarshal(data []byte) error {
	m.RawParams = append([]byte{}, data...)
	return nil
}
