// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// CertificateStatusType identifies the kind of status response carried by
// MessageCertificateStatus. OCSP is the only value in scope.
type CertificateStatusType byte

// CertificateStatusTypeOCSP is the only status type the OCSP shape rows
// staple.
const CertificateStatusTypeOCSP CertificateStatusType = 1

// MessageCertificateStatus carries a stapled OCSP response following
// ServerCert when the OCSP_STATUS shape is selected.
//
// https://tools.ietf.org/html/rfc6066#section-8
type MessageCertificateStatus struct {
	StatusType CertificateStatusType
	Response   []byte
}

// Type returns the Handshake Type.
func (m MessageCertificateStatus) Type() Type {
	return TypeCertificateStatus
}

// Marshal encodes the message: one status-type byte followed by a 3-byte
// length-prefixed OCSP response.
func (m *MessageCertificateStatus) Marshal() ([]byte, error) {
	if len(m.Response) > 0xFFFFFF {
		return nil, errLengthMismatch
	}
	out := []byte{byte(m.StatusType), byte(len(m.Response) >> 16), byte(len(m.Response) >> 8), byte(len(m.Response))}
	return append(out, m.Response...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificateStatus) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return errBufferTooSmall
	}
	m.StatusType = CertificateStatusType(data[0])
	respLen := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	data = data[4:]
	if len(data) < respLen {
		return errBufferTooSmall
	}
	m.Response = append([]byte{}, data[:respLen]...)
	return nil
}
