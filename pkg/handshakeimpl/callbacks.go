// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshakeimpl is a concrete tls.Callbacks implementation for
// exactly one handshake shape: Negotiated|FullHandshake|PerfectForward-
// Secrecy, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256 over curve X25519. Every
// other shape (session resumption, OCSP stapling, plain RSA key exchange)
// is out of scope here; driver_test.go's scripted callbacks already cover
// shape selection for those, and this package exists instead to prove the
// driver can carry a real, interoperable handshake end to end, including
// the record-layer cipher activation a Callbacks implementation owns.
package handshakeimpl

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"

	tlsdriver "github.com/kommander/handshaker"
	"github.com/kommander/handshaker/pkg/crypto/ciphersuite"
	"github.com/kommander/handshaker/pkg/crypto/elliptic"
	"github.com/kommander/handshaker/pkg/crypto/prf"
	"github.com/kommander/handshaker/pkg/protocol"
	"github.com/kommander/handshaker/pkg/protocol/handshake"
	"github.com/kommander/handshaker/pkg/protocol/recordlayer"
)

// negotiatedSuite is the only cipher suite this Callbacks offers or
// accepts.
const negotiatedSuite = ciphersuite.TLSECDHERSAWithAES128GCMSHA256

// RFC 4492 §5.4 ECCurveType; named_curve is the only value this
// implementation produces or accepts.
const curveTypeNamedCurve = 3

// RFC 5246 §7.4.1.4.1 SignatureAndHashAlgorithm; sha256+rsa is the only
// pairing this implementation's self-signed certificate can produce.
var signatureAndHashAlgorithm = [2]byte{4 /* sha256 */, 1 /* rsa */}

var (
	errNoAcceptableCipherSuite = errors.New("handshakeimpl: peer offered no acceptable cipher suite")
	errUnexpectedCipherSuite   = errors.New("handshakeimpl: server selected a cipher suite we did not offer")
	errEmptyCertificateChain   = errors.New("handshakeimpl: certificate message carried no certificates")
	errBadServerKeyExchange    = errors.New("handshakeimpl: malformed ServerKeyExchange body")
	errBadClientKeyExchange    = errors.New("handshakeimpl: malformed ClientKeyExchange body")
	errUnsupportedCurveType    = errors.New("handshakeimpl: ServerKeyExchange did not use a named curve")
	errUnsupportedCurve        = errors.New("handshakeimpl: peer selected a curve other than X25519")
	errFinishedMismatch        = errors.New("handshakeimpl: peer Finished verify-data did not match")
	errSSLv2Unsupported        = errors.New("handshakeimpl: sslv2-framed ClientHello is not supported")
	errOCSPUnsupported         = errors.New("handshakeimpl: OCSP stapling is not supported by this callbacks implementation")
)

// Callbacks drives one connection's worth of TLS_ECDHE_RSA_WITH_AES_128_
// GCM_SHA256 key exchange. It is not safe to share between two
// connections: construct one per Conn, mirroring how Conn itself is
// one-per-connection.
type Callbacks struct {
	rl *recordlayer.StreamRecordLayer

	certDER   []byte
	signerKey *rsa.PrivateKey

	ephemeralPriv [32]byte
	ephemeralPub  [32]byte
	peerPublic    [32]byte

	clientRandom [32]byte
	serverRandom [32]byte

	masterSecret []byte
}

// New constructs a Callbacks bound to rl, the same RecordLayer instance
// passed as Config.RecordLayer for this connection: Callbacks stages and
// activates record protection on it directly, since the driver's
// Callbacks interface exposes no hook for the write side of cipher
// activation (only ActivateCipherState, called on the read side when a
// peer's ChangeCipherSpec is processed).
func New(rl *recordlayer.StreamRecordLayer) (*Callbacks, error) {
	certDER, key, err := selfSignedCert()
	if err != nil {
		return nil, errors.Wrap(err, "handshakeimpl: generating self-signed certificate")
	}

	cb := &Callbacks{rl: rl, certDER: certDER, signerKey: key}
	if _, err := rand.Read(cb.ephemeralPriv[:]); err != nil {
		return nil, err
	}
	curve25519.ScalarBaseMult(&cb.ephemeralPub, &cb.ephemeralPriv)
	return cb, nil
}

// selfSignedCert generates a throwaway RSA key and a self-signed leaf
// certificate for it. Chain validation is out of scope for the driver
// (MessageCertificate's own doc comment), so there is nothing downstream
// that needs this to chain to a real root; it exists only so
// BuildServerKeyExchange has a real RSA key to sign with.
func selfSignedCert() ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "tlsdiag"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(100 * 365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}
	return der, key, nil
}

// BuildClientHello implements tls.Callbacks.
func (cb *Callbacks) BuildClientHello(c *tlsdriver.Conn) ([]byte, error) {
	if _, err := rand.Read(cb.clientRandom[:]); err != nil {
		return nil, err
	}
	msg := handshake.MessageClientHello{
		Version:            protocol.Version1_2,
		CipherSuiteIDs:     []uint16{uint16(negotiatedSuite)},
		CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
	}
	copy(msg.Random[:], cb.clientRandom[:])
	c.RecordClientHello(msg.MakeLog())
	return msg.Marshal()
}

// ParseClientHello implements tls.Callbacks.
func (cb *Callbacks) ParseClientHello(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageClientHello
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	if !offersSuite(msg.CipherSuiteIDs, negotiatedSuite) {
		return errNoAcceptableCipherSuite
	}
	copy(cb.clientRandom[:], msg.Random[:])
	c.SetCipherSuitePFS(ciphersuite.IsPFS(negotiatedSuite))
	c.SetOCSPRequested(false)
	c.SetSessionCacheHit(false)
	c.RecordClientHello(msg.MakeLog())
	return nil
}

// ParseClientHelloSSLv2 implements tls.Callbacks. This implementation only
// drives TLS 1.2 over a v3 ClientHello; the legacy SSLv2-compatible
// framing (driver spec §4.5) is a different Callbacks' problem.
func (cb *Callbacks) ParseClientHelloSSLv2(c *tlsdriver.Conn, body []byte) error {
	return errSSLv2Unsupported
}

// BuildServerHello implements tls.Callbacks.
func (cb *Callbacks) BuildServerHello(c *tlsdriver.Conn) ([]byte, error) {
	if _, err := rand.Read(cb.serverRandom[:]); err != nil {
		return nil, err
	}
	sessionID := make([]byte, 32)
	if _, err := rand.Read(sessionID); err != nil {
		return nil, err
	}
	c.SetSessionID(sessionID)

	msg := handshake.MessageServerHello{
		Version:           protocol.Version1_2,
		SessionID:         sessionID,
		CipherSuiteID:     uint16(negotiatedSuite),
		CompressionMethod: protocol.CompressionMethodNull,
	}
	copy(msg.Random[:], cb.serverRandom[:])
	c.RecordServerHello(msg.MakeLog())

	return msg.Marshal()
}

// ParseServerHello implements tls.Callbacks.
func (cb *Callbacks) ParseServerHello(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageServerHello
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	if ciphersuite.ID(msg.CipherSuiteID) != negotiatedSuite {
		return errUnexpectedCipherSuite
	}
	copy(cb.serverRandom[:], msg.Random[:])
	c.SetSessionID(msg.SessionID)
	c.SetCipherSuitePFS(ciphersuite.IsPFS(negotiatedSuite))
	c.RecordServerHello(msg.MakeLog())
	return nil
}

// BuildServerCert implements tls.Callbacks.
func (cb *Callbacks) BuildServerCert(c *tlsdriver.Conn) ([]byte, error) {
	msg := handshake.MessageCertificate{Certificates: [][]byte{cb.certDER}}
	return msg.Marshal()
}

// ParseServerCert implements tls.Callbacks. Chain validation is out of
// scope (MessageCertificate's doc comment); this only confirms a
// certificate was actually sent.
func (cb *Callbacks) ParseServerCert(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageCertificate
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	if len(msg.Certificates) == 0 {
		return errEmptyCertificateChain
	}
	return nil
}

// BuildServerCertStatus and ParseServerCertStatus implement tls.Callbacks
// but are unreachable: this Callbacks never sets OCSPRequested/OCSPStapled,
// so setHandshakeType never selects a shape row that visits them.
func (cb *Callbacks) BuildServerCertStatus(c *tlsdriver.Conn) ([]byte, error) {
	return nil, errOCSPUnsupported
}

func (cb *Callbacks) ParseServerCertStatus(c *tlsdriver.Conn, body []byte) error {
	return errOCSPUnsupported
}

// ecdheParams encodes a ServerECDHParams structure (RFC 4492 §5.4): a
// named curve followed by a length-prefixed public point.
func ecdheParams(pub [32]byte) []byte {
	out := []byte{curveTypeNamedCurve, byte(elliptic.X25519 >> 8), byte(elliptic.X25519), byte(len(pub))}
	return append(out, pub[:]...)
}

// BuildServerKeyExchange implements tls.Callbacks.
func (cb *Callbacks) BuildServerKeyExchange(c *tlsdriver.Conn) ([]byte, error) {
	params := ecdheParams(cb.ephemeralPub)
	signed, err := cb.signParams(params)
	if err != nil {
		return nil, err
	}
	msg := handshake.MessageServerKeyExchange{RawParams: append(params, signed...)}
	return msg.Marshal()
}

// signParams signs clientRandom||serverRandom||params with the server's
// RSA key (RFC 5246 §7.4.3's "digitally-signed struct"), wire-prefixed
// with the SignatureAndHashAlgorithm pair and a 16-bit length.
func (cb *Callbacks) signParams(params []byte) ([]byte, error) {
	h := sha256.New()
	h.Write(cb.clientRandom[:])
	h.Write(cb.serverRandom[:])
	h.Write(params)
	digest := h.Sum(nil)

	sig, err := rsa.SignPKCS1v15(rand.Reader, cb.signerKey, crypto.SHA256, digest)
	if err != nil {
		return nil, err
	}

	out := []byte{signatureAndHashAlgorithm[0], signatureAndHashAlgorithm[1], byte(len(sig) >> 8), byte(len(sig))}
	return append(out, sig...), nil
}

// ParseServerKeyExchange implements tls.Callbacks.
func (cb *Callbacks) ParseServerKeyExchange(c *tlsdriver.Conn, body []byte) error {
	pub, _, err := parseECDHEParams(body)
	if err != nil {
		return err
	}
	copy(cb.peerPublic[:], pub)
	// The trailing digitally-signed struct is intentionally not verified:
	// this Callbacks never validates the certificate chain either (see
	// ParseServerCert), so checking the signature over it would be
	// theater. A Callbacks implementation backed by a real trust store
	// would verify both together.
	return cb.deriveMasterSecret(c)
}

// parseECDHEParams decodes a ServerECDHParams structure, returning the
// peer's public point and the bytes immediately following it (the
// digitally-signed struct).
func parseECDHEParams(body []byte) (pub []byte, rest []byte, err error) {
	if len(body) < 4 {
		return nil, nil, errBadServerKeyExchange
	}
	if body[0] != curveTypeNamedCurve {
		return nil, nil, errUnsupportedCurveType
	}
	curveID := uint16(body[1])<<8 | uint16(body[2])
	if elliptic.Curve(curveID) != elliptic.X25519 {
		return nil, nil, errUnsupportedCurve
	}
	n := int(body[3])
	if len(body) < 4+n {
		return nil, nil, errBadServerKeyExchange
	}
	return body[4 : 4+n], body[4+n:], nil
}

// BuildClientKeyExchange implements tls.Callbacks.
func (cb *Callbacks) BuildClientKeyExchange(c *tlsdriver.Conn) ([]byte, error) {
	out := append([]byte{byte(len(cb.ephemeralPub))}, cb.ephemeralPub[:]...)
	msg := handshake.MessageClientKeyExchange{RawExchangeKeys: out}
	return msg.Marshal()
}

// ParseClientKeyExchange implements tls.Callbacks.
func (cb *Callbacks) ParseClientKeyExchange(c *tlsdriver.Conn, body []byte) error {
	if len(body) < 1 {
		return errBadClientKeyExchange
	}
	n := int(body[0])
	if len(body) < 1+n {
		return errBadClientKeyExchange
	}
	copy(cb.peerPublic[:], body[1:1+n])
	return cb.deriveMasterSecret(c)
}

// deriveMasterSecret computes the shared secret and master secret once
// this endpoint knows the peer's ephemeral public key, then derives and
// stages (but does not yet activate) the GCM record protection for both
// directions. A single ciphersuite.GCM instance carries independent
// sequence counters for each direction, so one Protection serves both
// StagePendingReadProtection and StagePendingWriteProtection.
func (cb *Callbacks) deriveMasterSecret(c *tlsdriver.Conn) error {
	pre, err := prf.PreMasterSecret(cb.peerPublic[:], cb.ephemeralPriv[:], elliptic.X25519)
	if err != nil {
		return err
	}
	master, err := prf.MasterSecret(pre, cb.clientRandom[:], cb.serverRandom[:], sha256.New)
	if err != nil {
		return err
	}
	cb.masterSecret = master

	keys, err := prf.GenerateEncryptionKeys(master, cb.clientRandom[:], cb.serverRandom[:], 0, 16, 4, sha256.New)
	if err != nil {
		return err
	}

	localKey, localIV, remoteKey, remoteIV := keys.ServerWriteKey, keys.ServerWriteIV, keys.ClientWriteKey, keys.ClientWriteIV
	if c.Mode() == tlsdriver.ModeClient {
		localKey, localIV, remoteKey, remoteIV = keys.ClientWriteKey, keys.ClientWriteIV, keys.ServerWriteKey, keys.ServerWriteIV
	}

	gcm, err := ciphersuite.NewGCM(localKey, localIV, remoteKey, remoteIV)
	if err != nil {
		return err
	}
	cb.rl.StagePendingWriteProtection(gcm)
	cb.rl.StagePendingReadProtection(gcm)
	return nil
}

// BuildServerHelloDone implements tls.Callbacks.
func (cb *Callbacks) BuildServerHelloDone(c *tlsdriver.Conn) ([]byte, error) {
	msg := handshake.MessageServerHelloDone{}
	return msg.Marshal()
}

// ParseServerHelloDone implements tls.Callbacks.
func (cb *Callbacks) ParseServerHelloDone(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageServerHelloDone
	return msg.Unmarshal(body)
}

// BuildClientFinished implements tls.Callbacks. Activating write
// protection here, before building the body, is deliberate: by the time
// this runs, the client's own ChangeCipherSpec has already been flushed
// unprotected (writeHandshake flushes each message before the cursor
// advances), so everything built from here on must be encrypted.
func (cb *Callbacks) BuildClientFinished(c *tlsdriver.Conn) ([]byte, error) {
	cb.rl.ActivateWrite()
	vd, err := prf.VerifyDataClientFromDigest(cb.masterSecret, c.TranscriptSHA256(), sha256.New)
	if err != nil {
		return nil, err
	}
	msg := handshake.MessageFinished{VerifyData: vd}
	c.RecordClientFinished(msg.MakeLog())
	return msg.Marshal()
}

// ParseClientFinished implements tls.Callbacks (server side: verifying the
// client's Finished). Read protection is already active by this point,
// activated when this endpoint processed the peer's ChangeCipherSpec.
func (cb *Callbacks) ParseClientFinished(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageFinished
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	expected, err := prf.VerifyDataClientFromDigest(cb.masterSecret, c.TranscriptSHA256(), sha256.New)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, msg.VerifyData) {
		return errFinishedMismatch
	}
	c.RecordClientFinished(msg.MakeLog())
	return nil
}

// BuildServerFinished implements tls.Callbacks; see BuildClientFinished.
func (cb *Callbacks) BuildServerFinished(c *tlsdriver.Conn) ([]byte, error) {
	cb.rl.ActivateWrite()
	vd, err := prf.VerifyDataServerFromDigest(cb.masterSecret, c.TranscriptSHA256(), sha256.New)
	if err != nil {
		return nil, err
	}
	msg := handshake.MessageFinished{VerifyData: vd}
	c.RecordServerFinished(msg.MakeLog())
	return msg.Marshal()
}

// ParseServerFinished implements tls.Callbacks; see ParseClientFinished.
func (cb *Callbacks) ParseServerFinished(c *tlsdriver.Conn, body []byte) error {
	var msg handshake.MessageFinished
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	expected, err := prf.VerifyDataServerFromDigest(cb.masterSecret, c.TranscriptSHA256(), sha256.New)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, msg.VerifyData) {
		return errFinishedMismatch
	}
	c.RecordServerFinished(msg.MakeLog())
	return nil
}

// ActivateCipherState implements tls.Callbacks: the driver's reader calls
// this once it has processed a peer's ChangeCipherSpec, meaning every
// record this endpoint reads from here on is protected.
func (cb *Callbacks) ActivateCipherState(c *tlsdriver.Conn) error {
	cb.rl.ActivateRead()
	return nil
}

func offersSuite(offered []uint16, want ciphersuite.ID) bool {
	for _, id := range offered {
		if ciphersuite.ID(id) == want {
			return true
		}
	}
	return false
}
