// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package elliptic names the key-exchange curves this driver's PRF and
// ServerKeyExchange/ClientKeyExchange callbacks negotiate over.
package elliptic

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
)

// Curve identifies a named elliptic curve usable for ECDHE key exchange.
type Curve uint16

// Named curves. Values match RFC 8422's NamedCurve registry for the ones
// this driver recognizes; P256/P384 are carried for completeness even
// though SharedSecret below only implements X25519, the curve the
// dependency-wiring plan (golang.org/x/crypto/curve25519) targets.
const (
	P256   Curve = 23
	P384   Curve = 24
	X25519 Curve = 29
)

func (c Curve) String() string {
	switch c {
	case P256:
		return "P-256"
	case P384:
		return "P-384"
	case X25519:
		return "X25519"
	default:
		return "Unknown"
	}
}

var errUnsupportedCurve = errors.New("elliptic: unsupported curve")

// SharedSecret computes the ECDH shared secret for curve c given this
// endpoint's private scalar and the peer's public value.
func SharedSecret(publicKey, privateKey []byte, c Curve) ([]byte, error) {
	switch c {
	case X25519:
		var dst, priv, pub [32]byte
		copy(priv[:], privateKey)
		copy(pub[:], publicKey)
		curve25519.ScalarMult(&dst, &priv, &pub)
		return dst[:], nil
	default:
		return nil, errors.Wrap(errUnsupportedCurve, c.String())
	}
}
