// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite adapts the key material pkg/crypto/prf derives into
// record-level AEAD/CBC encryption, for a RecordLayer implementation to
// drive once ChangeCipherSpec activates it. The handshake driver itself
// never imports this package: encryption is out of scope for the driver
// (spec §1), but a complete TLS stack built around the driver needs
// exactly this adaptation, so it is carried here as the collaborator a
// Callbacks.ActivateCipherState implementation would construct and hand to
// the RecordLayer.
package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/protocol"
)

const (
	gcmTagLength          = 16
	gcmExplicitNonceLength = 8
	gcmImplicitNonceLength = 4
)

var (
	errNotEnoughRoomForNonce = errors.New("ciphersuite: record too short to hold explicit nonce")
	errDecryptPacket         = errors.New("ciphersuite: gcm decrypt failed")
)

// GCM implements the TLS 1.2 AES-GCM record protection described in RFC
// 5288: a 4-byte implicit salt from key expansion, an 8-byte explicit nonce
// sent per-record, and additional data built from the sequence number and
// record header.
type GCM struct {
	localGCM, remoteGCM         cipher.AEAD
	localWriteIV, remoteWriteIV []byte // 4-byte implicit salt
	localSeq, remoteSeq         uint64
}

// NewGCM builds a GCM cipher suite from each direction's write key and
// implicit IV (spec's EncryptionKeys.ClientWriteKey/ServerWriteKey and
// ClientWriteIV/ServerWriteIV, oriented by connection role).
func NewGCM(localKey, localWriteIV, remoteKey, remoteWriteIV []byte) (*GCM, error) {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}
	localGCM, err := cipher.NewGCM(localBlock)
	if err != nil {
		return nil, err
	}

	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return nil, err
	}
	remoteGCM, err := cipher.NewGCM(remoteBlock)
	if err != nil {
		return nil, err
	}

	return &GCM{
		localGCM:      localGCM,
		localWriteIV:  localWriteIV,
		remoteGCM:     remoteGCM,
		remoteWriteIV: remoteWriteIV,
	}, nil
}

// Encrypt seals one record's plaintext payload, returning the explicit
// nonce followed by ciphertext+tag ready to follow the record header on
// the wire.
func (g *GCM) Encrypt(contentType protocol.ContentType, version protocol.Version, payload []byte) ([]byte, error) {
	nonce := make([]byte, gcmImplicitNonceLength+gcmExplicitNonceLength)
	copy(nonce, g.localWriteIV[:gcmImplicitNonceLength])
	if _, err := rand.Read(nonce[gcmImplicitNonceLength:]); err != nil {
		return nil, err
	}

	additionalData := generateAEADAdditionalData(g.localSeq, contentType, version, len(payload))
	g.localSeq++

	sealed := g.localGCM.Seal(nil, nonce, payload, additionalData)
	out := make([]byte, gcmExplicitNonceLength+len(sealed))
	copy(out, nonce[gcmImplicitNonceLength:])
	copy(out[gcmExplicitNonceLength:], sealed)
	return out, nil
}

// Decrypt opens one record's body (explicit nonce + ciphertext + tag),
// returning the plaintext payload.
func (g *GCM) Decrypt(contentType protocol.ContentType, version protocol.Version, body []byte) ([]byte, error) {
	if len(body) < gcmExplicitNonceLength+gcmTagLength {
		return nil, errNotEnoughRoomForNonce
	}

	nonce := make([]byte, 0, gcmImplicitNonceLength+gcmExplicitNonceLength)
	nonce = append(append(nonce, g.remoteWriteIV[:gcmImplicitNonceLength]...), body[:gcmExplicitNonceLength]...)
	ciphertext := body[gcmExplicitNonceLength:]

	additionalData := generateAEADAdditionalData(g.remoteSeq, contentType, version, len(ciphertext)-gcmTagLength)
	g.remoteSeq++

	plaintext, err := g.remoteGCM.Open(ciphertext[:0], nonce, ciphertext, additionalData)
	if err != nil {
		return nil, errors.Wrap(errDecryptPacket, err.Error())
	}
	return plaintext, nil
}

// generateAEADAdditionalData builds the 13-byte "additional data" input to
// the AEAD (RFC 5246 §6.2.3.3): the 8-byte sequence number followed by the
// same type/version/length fields the plaintext record header carries.
func generateAEADAdditionalData(seq uint64, contentType protocol.ContentType, version protocol.Version, payloadLen int) []byte {
	out := make([]byte, 13)
	binary.BigEndian.PutUint64(out[0:], seq)
	out[8] = byte(contentType)
	out[9] = version.Major
	out[10] = version.Minor
	binary.BigEndian.PutUint16(out[11:], uint16(payloadLen))
	return out
}
