// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // TLS 1.0/1.1 CBC suites' MAC
	"encoding/binary"
	"hash"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/protocol"
)

var errInvalidMAC = errors.New("ciphersuite: cbc record failed MAC verification")

// CBC implements the TLS 1.0/1.1 CBC record protection (RFC 2246 §6.2.3.2,
// RFC 4346): an explicit per-record IV, HMAC-then-encrypt, and PKCS#7-style
// padding.
type CBC struct {
	localBlock, remoteBlock cipher.Block
	localMACKey, remoteMACKey []byte
	localSeq, remoteSeq     uint64
	macHash                 func() hash.Hash
}

// NewCBC builds a CBC cipher suite from each direction's write key and MAC
// key (RFC 5246 §6.3's ClientMACKey/ServerMACKey, unlike the AEAD suites
// which carry none).
func NewCBC(localKey, localMACKey, remoteKey, remoteMACKey []byte) (*CBC, error) {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}
	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return nil, err
	}
	return &CBC{
		localBlock:   localBlock,
		remoteBlock:  remoteBlock,
		localMACKey:  localMACKey,
		remoteMACKey: remoteMACKey,
		macHash:      sha1.New,
	}, nil
}

// Encrypt MACs, pads, and CBC-encrypts one record's plaintext payload,
// prefixing the result with a fresh explicit IV.
func (c *CBC) Encrypt(contentType protocol.ContentType, version protocol.Version, payload []byte) ([]byte, error) {
	mac := c.computeMAC(c.localMACKey, c.localSeq, contentType, version, payload)
	c.localSeq++

	plaintext := append(append([]byte{}, payload...), mac...)
	blockSize := c.localBlock.BlockSize()
	padLen := blockSize - (len(plaintext)+1)%blockSize
	if padLen == blockSize {
		padLen = 0
	}
	for i := 0; i <= padLen; i++ {
		plaintext = append(plaintext, byte(padLen))
	}

	iv := make([]byte, blockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(c.localBlock, iv).CryptBlocks(ciphertext, plaintext)

	out := make([]byte, len(iv)+len(ciphertext))
	copy(out, iv)
	copy(out[len(iv):], ciphertext)
	return out, nil
}

// Decrypt reverses Encrypt: CBC-decrypts, strips and validates padding,
// then checks the MAC.
func (c *CBC) Decrypt(contentType protocol.ContentType, version protocol.Version, body []byte) ([]byte, error) {
	blockSize := c.remoteBlock.BlockSize()
	if len(body) < 2*blockSize {
		return nil, errInvalidMAC
	}
	iv, ciphertext := body[:blockSize], body[blockSize:]
	if len(ciphertext)%blockSize != 0 {
		return nil, errInvalidMAC
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.remoteBlock, iv).CryptBlocks(plaintext, ciphertext)

	padLen := int(plaintext[len(plaintext)-1])
	if padLen+1 > len(plaintext) {
		return nil, errInvalidMAC
	}
	for _, b := range plaintext[len(plaintext)-padLen-1:] {
		if int(b) != padLen {
			return nil, errInvalidMAC
		}
	}
	plaintext = plaintext[:len(plaintext)-padLen-1]

	macLen := c.macHash().Size()
	if len(plaintext) < macLen {
		return nil, errInvalidMAC
	}
	payload, gotMAC := plaintext[:len(plaintext)-macLen], plaintext[len(plaintext)-macLen:]

	wantMAC := c.computeMAC(c.remoteMACKey, c.remoteSeq, contentType, version, payload)
	c.remoteSeq++
	if !hmac.Equal(gotMAC, wantMAC) {
		return nil, errInvalidMAC
	}
	return payload, nil
}

func (c *CBC) computeMAC(key []byte, seq uint64, contentType protocol.ContentType, version protocol.Version, payload []byte) []byte {
	h := hmac.New(c.macHash, key)
	var header [13]byte
	binary.BigEndian.PutUint64(header[0:], seq)
	header[8] = byte(contentType)
	header[9] = version.Major
	header[10] = version.Minor
	binary.BigEndian.PutUint16(header[11:], uint16(len(payload)))
	h.Write(header[:])
	h.Write(payload)
	return h.Sum(nil)
}
