// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

// ID is the two-byte TLS cipher suite identifier (RFC 5246 §A.5 and the
// IANA TLS Cipher Suites registry).
type ID uint16

// Cipher suites this driver's registry recognizes. The ECDHE entries carry
// PerfectForwardSecrecy; the plain RSA entries do not, matching the §4.3
// PFS flag a Callbacks.ParseServerHello implementation consults via
// Conn.SetCipherSuitePFS.
const (
	TLSRSAWithAES128GCMSHA256      ID = 0x009c
	TLSRSAWithAES128CBCSHA         ID = 0x002f
	TLSECDHERSAWithAES128GCMSHA256 ID = 0xc02f
	TLSECDHERSAWithAES256GCMSHA384 ID = 0xc030
	TLSECDHERSAWithAES128CBCSHA256 ID = 0xc027
)

// suiteInfo is the static, per-suite metadata the registry exposes.
type suiteInfo struct {
	PFS       bool
	KeyLen    int
	MACLen    int // 0 for AEAD suites
	IVLen     int
	Hash      string // "sha256" or "sha384", selects the PRF hash (spec §4.3/§8.1)
}

var suites = map[ID]suiteInfo{
	TLSRSAWithAES128GCMSHA256:      {PFS: false, KeyLen: 16, MACLen: 0, IVLen: 4, Hash: "sha256"},
	TLSRSAWithAES128CBCSHA:         {PFS: false, KeyLen: 16, MACLen: 20, IVLen: 16, Hash: "sha256"},
	TLSECDHERSAWithAES128GCMSHA256: {PFS: true, KeyLen: 16, MACLen: 0, IVLen: 4, Hash: "sha256"},
	TLSECDHERSAWithAES256GCMSHA384: {PFS: true, KeyLen: 32, MACLen: 0, IVLen: 4, Hash: "sha384"},
	TLSECDHERSAWithAES128CBCSHA256: {PFS: true, KeyLen: 16, MACLen: 32, IVLen: 16, Hash: "sha256"},
}

// IsPFS reports whether a cipher suite's key exchange is ephemeral
// (Diffie-Hellman or a KEM), the fact setHandshakeType (spec §4.3) needs.
func IsPFS(id ID) bool {
	return suites[id].PFS
}

// KeyMaterialLengths returns the key/MAC/IV lengths GenerateEncryptionKeys
// needs to split the derived key block for this suite.
func KeyMaterialLengths(id ID) (keyLen, macLen, ivLen int, ok bool) {
	info, ok := suites[id]
	return info.KeyLen, info.MACLen, info.IVLen, ok
}

// PRFHash returns the PRF hash name (spec §8.1's "sha256" or "sha384")
// this suite selects.
func PRFHash(id ID) (string, bool) {
	info, ok := suites[id]
	return info.Hash, ok
}
