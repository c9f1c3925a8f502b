// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageClientKeyExchange carries the client's half of the key exchange:
// an RSA-encrypted premaster secret for plain RSA cipher suites, or an
// ECDHE public key for PFS suites. As with MessageServerKeyExchange, the
// wire shape is algorithm-dependent and interpreting RawExchangeKeys is a
// Callbacks concern.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.7
type MessageClientKeyExchange struct {
	RawExchangeKeys []byte
}

// Type returns the Handshake Type.
func (m MessageClientKeyExchange) Type() Type {
	return TypeClientKeyExchange
}

// Marshal encodes the message.
func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	return append([]byte{}, m.RawExchangeKeys...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	m.RawExchangeKeys = append([]byte{}, data...)
	return nil
}
