// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package prf implements the RFC 5246 §5 pseudo-random function and the
// key material it derives: the premaster/master secret, the client/server
// write keys and IVs, and Finished verify-data. The driver itself never
// calls this package directly; it is the collaborator a Callbacks
// implementation reaches for once ClientKeyExchange/ServerKeyExchange have
// produced a shared secret.
package prf

import (
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // required for the TLS 1.0/1.1 combined PRF
	"crypto/sha1" //nolint:gosec // required for the TLS 1.0/1.1 combined PRF
	"hash"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/crypto/elliptic"
)

var errPRFHashUnavailable = errors.New("prf: hash constructor returned nil")

// PreMasterSecret computes the ECDHE premaster secret for the given curve.
func PreMasterSecret(publicKey, privateKey []byte, curve elliptic.Curve) ([]byte, error) {
	return elliptic.SharedSecret(publicKey, privateKey, curve)
}

const masterSecretLabel = "master secret"

// MasterSecret derives the 48-byte master secret from the premaster secret
// and the hello randoms (RFC 5246 §8.1).
func MasterSecret(preMasterSecret, clientRandom, serverRandom []byte, hashFunc func() hash.Hash) ([]byte, error) {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return pHash(preMasterSecret, append([]byte(masterSecretLabel), seed...), 48, hashFunc)
}

// EncryptionKeys bundles the symmetric key material GenerateEncryptionKeys
// derives from the master secret (RFC 5246 §6.3).
type EncryptionKeys struct {
	MasterSecret   []byte
	ClientMACKey   []byte
	ServerMACKey   []byte
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte
}

const keyExpansionLabel = "key expansion"

// GenerateEncryptionKeys derives MAC keys, write keys, and write IVs from
// the master secret. macLen is 0 for the AEAD cipher suites this driver's
// ciphersuite package implements (no separate MAC key); it is carried as a
// parameter so the CBC suites can reuse the same derivation.
func GenerateEncryptionKeys(masterSecret, clientRandom, serverRandom []byte, macLen, keyLen, ivLen int, hashFunc func() hash.Hash) (*EncryptionKeys, error) {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	material, err := pHash(masterSecret, append([]byte(keyExpansionLabel), seed...), (2*macLen)+(2*keyLen)+(2*ivLen), hashFunc)
	if err != nil {
		return nil, err
	}

	clientMACKey := make([]byte, macLen)
	serverMACKey := make([]byte, macLen)
	clientWriteKey := make([]byte, keyLen)
	serverWriteKey := make([]byte, keyLen)
	clientWriteIV := make([]byte, ivLen)
	serverWriteIV := make([]byte, ivLen)

	offset := 0
	offset += copy(clientMACKey, material[offset:])
	offset += copy(serverMACKey, material[offset:])
	offset += copy(clientWriteKey, material[offset:])
	offset += copy(serverWriteKey, material[offset:])
	offset += copy(clientWriteIV, material[offset:])
	copy(serverWriteIV, material[offset:])

	return &EncryptionKeys{
		MasterSecret:   masterSecret,
		ClientMACKey:   clientMACKey,
		ServerMACKey:   serverMACKey,
		ClientWriteKey: clientWriteKey,
		ServerWriteKey: serverWriteKey,
		ClientWriteIV:  clientWriteIV,
		ServerWriteIV:  serverWriteIV,
	}, nil
}

const (
	verifyDataClientLabel = "client finished"
	verifyDataServerLabel = "server finished"
)

// VerifyDataClient computes the client's Finished verify-data over the
// handshake transcript so far.
func VerifyDataClient(masterSecret, handshakeBytes []byte, hashFunc func() hash.Hash) ([]byte, error) {
	return verifyData(masterSecret, handshakeBytes, verifyDataClientLabel, hashFunc)
}

// VerifyDataServer computes the server's Finished verify-data.
func VerifyDataServer(masterSecret, handshakeBytes []byte, hashFunc func() hash.Hash) ([]byte, error) {
	return verifyData(masterSecret, handshakeBytes, verifyDataServerLabel, hashFunc)
}

func verifyData(masterSecret, handshakeBytes []byte, label string, hashFunc func() hash.Hash) ([]byte, error) {
	h := hashFunc()
	if h == nil {
		return nil, errPRFHashUnavailable
	}
	if _, err := h.Write(handshakeBytes); err != nil {
		return nil, err
	}
	return verifyDataFromDigest(masterSecret, h.Sum(nil), label, hashFunc)
}

// VerifyDataClientFromDigest is VerifyDataClient for a caller that already
// holds the finalized transcript digest (transcript.Accumulator's
// CloneAndFinalize* methods) rather than the raw handshake byte stream.
// Driving a handshake one message at a time never has the full raw
// transcript in hand at once, only the running digest, so a Callbacks
// implementation backed by transcript.Accumulator calls this instead of
// VerifyDataClient.
func VerifyDataClientFromDigest(masterSecret, digest []byte, hashFunc func() hash.Hash) ([]byte, error) {
	return verifyDataFromDigest(masterSecret, digest, verifyDataClientLabel, hashFunc)
}

// VerifyDataServerFromDigest is VerifyDataServer's transcript-digest
// counterpart; see VerifyDataClientFromDigest.
func VerifyDataServerFromDigest(masterSecret, digest []byte, hashFunc func() hash.Hash) ([]byte, error) {
	return verifyDataFromDigest(masterSecret, digest, verifyDataServerLabel, hashFunc)
}

func verifyDataFromDigest(masterSecret, digest []byte, label string, hashFunc func() hash.Hash) ([]byte, error) {
	seed := append([]byte(label), digest...)
	return pHash(masterSecret, seed, 12, hashFunc)
}

// pHash implements RFC 5246 §5's P_hash(secret, seed) expansion function,
// iterated HMAC(secret, A(i) || seed) until at least length bytes have
// been produced.
func pHash(secret, seed []byte, length int, hashFunc func() hash.Hash) ([]byte, error) {
	h := hmac.New(hashFunc, secret)

	hmacHash := func(in []byte) ([]byte, error) {
		h.Reset()
		if _, err := h.Write(in); err != nil {
			return nil, err
		}
		return h.Sum(nil), nil
	}

	var err error
	aI := seed
	out := make([]byte, 0, length+h.Size())
	for len(out) < length {
		aI, err = hmacHash(aI)
		if err != nil {
			return nil, err
		}
		chunk, err := hmacHash(append(append([]byte{}, aI...), seed...))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out[:length], nil
}

// prf12Both returns the combined MD5||SHA-1 pseudo-random function TLS
// 1.0/1.1 use (RFC 2246/4346), XORed together from two independent P_hash
// expansions keyed by disjoint halves of the secret.
func prf12Both(secret, seed []byte, length int) ([]byte, error) {
	half := (len(secret) + 1) / 2
	md5Part, err := pHash(secret[:half], seed, length, md5.New)
	if err != nil {
		return nil, err
	}
	sha1Part, err := pHash(secret[len(secret)-half:], seed, length, sha1.New)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = md5Part[i] ^ sha1Part[i]
	}
	return out, nil
}

// MasterSecret10 derives the master secret using the TLS 1.0/1.1 combined
// MD5/SHA-1 PRF, for connections that negotiated one of those versions.
func MasterSecret10(preMasterSecret, clientRandom, serverRandom []byte) ([]byte, error) {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return prf12Both(preMasterSecret, append([]byte(masterSecretLabel), seed...), 48)
}

// GenerateEncryptionKeys10 is GenerateEncryptionKeys's TLS 1.0/1.1
// counterpart, using the combined MD5/SHA-1 PRF.
func GenerateEncryptionKeys10(masterSecret, clientRandom, serverRandom []byte, macLen, keyLen, ivLen int) (*EncryptionKeys, error) {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	material, err := prf12Both(masterSecret, append([]byte(keyExpansionLabel), seed...), (2*macLen)+(2*keyLen)+(2*ivLen))
	if err != nil {
		return nil, err
	}

	clientMACKey := make([]byte, macLen)
	serverMACKey := make([]byte, macLen)
	clientWriteKey := make([]byte, keyLen)
	serverWriteKey := make([]byte, keyLen)
	clientWriteIV := make([]byte, ivLen)
	serverWriteIV := make([]byte, ivLen)

	offset := 0
	offset += copy(clientMACKey, material[offset:])
	offset += copy(serverMACKey, material[offset:])
	offset += copy(clientWriteKey, material[offset:])
	offset += copy(serverWriteKey, material[offset:])
	offset += copy(clientWriteIV, material[offset:])
	copy(serverWriteIV, material[offset:])

	return &EncryptionKeys{
		MasterSecret:   masterSecret,
		ClientMACKey:   clientMACKey,
		ServerMACKey:   serverMACKey,
		ClientWriteKey: clientWriteKey,
		ServerWriteKey: serverWriteKey,
		ClientWriteIV:  clientWriteIV,
		ServerWriteIV:  serverWriteIV,
	}, nil
}

// VerifyDataClient10 and VerifyDataServer10 are the TLS 1.0/1.1 combined-PRF
// counterparts of VerifyDataClient/VerifyDataServer.
func VerifyDataClient10(masterSecret, handshakeBytes []byte) ([]byte, error) {
	return verifyData10(masterSecret, handshakeBytes, verifyDataClientLabel)
}

func VerifyDataServer10(masterSecret, handshakeBytes []byte) ([]byte, error) {
	return verifyData10(masterSecret, handshakeBytes, verifyDataServerLabel)
}

func verifyData10(masterSecret, handshakeBytes []byte, label string) ([]byte, error) {
	md5Sum := md5.Sum(handshakeBytes)   //nolint:gosec
	sha1Sum := sha1.Sum(handshakeBytes) //nolint:gosec
	seed := append([]byte(label), append(md5Sum[:], sha1Sum[:]...)...)
	return prf12Both(masterSecret, seed, 12)
}
