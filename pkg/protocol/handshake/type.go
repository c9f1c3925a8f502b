// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the wire-level handshake header and the
// handful of payload shapes the driver touches directly. Full message
// parsing (extensions, certificate chains, key-exchange bodies) is out of
// scope for the driver itself; these types exist so the driver's scratch
// buffer has a concrete header to marshal/unmarshal and so payload
// handlers elsewhere in the stack have somewhere to live.
package handshake

// Type is the one-byte wire tag carried in a handshake message header.
//
// https://tools.ietf.org/html/rfc5246#section-7.4
type Type byte

// Handshake message types in scope for this driver.
const (
	TypeHelloRequest       Type = 0
	TypeClientHello        Type = 1
	TypeServerHello        Type = 2
	TypeCertificate        Type = 11
	TypeServerKeyExchange  Type = 12
	TypeCertificateRequest Type = 13
	TypeServerHelloDone    Type = 14
	TypeCertificateVerify  Type = 15
	TypeClientKeyExchange  Type = 16
	TypeFinished           Type = 20
	TypeCertificateStatus  Type = 22
)

func (t Type) String() string {
	switch t {
	case TypeHelloRequest:
		return "HelloRequest"
	case TypeClientHello:
		return "ClientHello"
	case TypeServerHello:
		return "ServerHello"
	case TypeCertificate:
		return "Certificate"
	case TypeServerKeyExchange:
		return "ServerKeyExchange"
	case TypeCertificateRequest:
		return "CertificateRequest"
	case TypeServerHelloDone:
		return "ServerHelloDone"
	case TypeCertificateVerify:
		return "CertificateVerify"
	case TypeClientKeyExchange:
		return "ClientKeyExchange"
	case TypeFinished:
		return "Finished"
	case TypeCertificateStatus:
		return "CertificateStatus"
	default:
		return "Unknown"
	}
}
