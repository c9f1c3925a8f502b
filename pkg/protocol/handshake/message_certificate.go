// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageCertificate carries the sender's certificate chain, leaf first.
// x509 parsing/validation is out of scope for the driver (spec §1); the
// raw DER bytes are carried through for a Callbacks implementation to
// interpret.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.2
type MessageCertificate struct {
	Certificates [][]byte
}

// Type returns the Handshake Type.
func (m MessageCertificate) Type() Type {
	return TypeCertificate
}

// Marshal encodes the message: a 3-byte total length followed by each
// certificate as a 3-byte-length-prefixed DER blob.
func (m *MessageCertificate) Marshal() ([]byte, error) {
	var certs []byte
	for _, c := range m.Certificates {
		if len(c) > 0xFFFFFF {
			return nil, errLengthMismatch
		}
		certs = append(certs, byte(len(c)>>16), byte(len(c)>>8), byte(len(c)))
		certs = append(certs, c...)
	}
	if len(certs) > 0xFFFFFF {
		return nil, errLengthMismatch
	}
	out := []byte{byte(len(certs) >> 16), byte(len(certs) >> 8), byte(len(certs))}
	return append(out, certs...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificate) Unmarshal(data []byte) error {
	if len(data) < 3 {
		return errBufferTooSmall
	}
	total := int(data[0])<<16 | int(data[1])<<8 | int(data[2])
	data = data[3:]
	if len(data) < total {
		return errBufferTooSmall
	}
	data = data[:total]

	m.Certificates = nil
	for len(data) > 0 {
		if len(data) < 3 {
			return errBufferTooSmall
		}
		certLen := int(data[0])<<16 | int(data[1])<<8 | int(data[2])
		data = data[3:]
		if len(data) < certLen {
			return errBufferTooSmall
		}
		m.Certificates = append(m.Certificates, append([]byte{}, data[:certLen]...))
		data = data[certLen:]
	}
	return nil
}
