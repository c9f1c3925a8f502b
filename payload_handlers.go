// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import "github.com/kommander/handshaker/pkg/protocol/handshake"

// Callbacks is the narrow external-collaborator surface the payload
// handlers below delegate to. Per spec §1 "out of scope", the driver
// never itself parses or constructs ClientHello/ServerHello/Certificate/
// Key/Finished bodies, negotiates a cipher suite, or decides session
// resumption; it only feeds bytes to and from Callbacks and reacts to the
// bookkeeping Callbacks records back onto the connection's
// handshakeState (negotiated cipher suite's PFS flag, OCSP intent,
// session-cache outcome) so that setHandshakeType (§4.3) can run.
type Callbacks interface {
	BuildClientHello(c *Conn) ([]byte, error)
	ParseClientHello(c *Conn, body []byte) error
	// ParseClientHelloSSLv2 parses the body of an SSLv2-framed ClientHello
	// (spec §4.5 "SSLv2 ClientHello"), a distinct wire shape from the v3
	// ClientHello the handlers above carry.
	ParseClientHelloSSLv2(c *Conn, body []byte) error
	BuildServerHello(c *Conn) ([]byte, error)
	ParseServerHello(c *Conn, body []byte) error
	BuildServerCert(c *Conn) ([]byte, error)
	ParseServerCert(c *Conn, body []byte) error
	BuildServerCertStatus(c *Conn) ([]byte, error)
	ParseServerCertStatus(c *Conn, body []byte) error
	BuildServerKeyExchange(c *Conn) ([]byte, error)
	ParseServerKeyExchange(c *Conn, body []byte) error
	BuildServerHelloDone(c *Conn) ([]byte, error)
	ParseServerHelloDone(c *Conn, body []byte) error
	BuildClientKeyExchange(c *Conn) ([]byte, error)
	ParseClientKeyExchange(c *Conn, body []byte) error
	BuildClientFinished(c *Conn) ([]byte, error)
	ParseClientFinished(c *Conn, body []byte) error
	BuildServerFinished(c *Conn) ([]byte, error)
	ParseServerFinished(c *Conn, body []byte) error
	// ActivateCipherState switches in the pending cipher (the one
	// negotiated via Server/ClientKeyExchange) for the direction implied
	// by which ChangeCipherSpec was just processed. Encryption itself is
	// out of scope for this driver (§1); this is the narrow hook the
	// reader calls into when it sees a CCS record.
	ActivateCipherState(c *Conn) error
}

// scratchBody returns the portion of scratch following the 4-byte
// handshake header, i.e. the message body the reader reassembled.
func (c *Conn) scratchBody() []byte {
	return c.hs.scratch.Bytes()[handshake.HeaderSize:]
}

func buildClientHello(c *Conn) error {
	body, err := c.callbacks.BuildClientHello(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseClientHello(c *Conn) error {
	if err := c.callbacks.ParseClientHello(c, c.scratchBody()); err != nil {
		return err
	}
	// Server resolves negotiation the moment ClientHello is processed.
	return setHandshakeType(c)
}

func buildServerHello(c *Conn) error {
	body, err := c.callbacks.BuildServerHello(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerHello(c *Conn) error {
	if err := c.callbacks.ParseServerHello(c, c.scratchBody()); err != nil {
		return err
	}
	// Client resolves negotiation the moment ServerHello is processed.
	return setHandshakeType(c)
}

func buildServerCert(c *Conn) error {
	body, err := c.callbacks.BuildServerCert(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerCert(c *Conn) error {
	return c.callbacks.ParseServerCert(c, c.scratchBody())
}

func buildServerCertStatus(c *Conn) error {
	body, err := c.callbacks.BuildServerCertStatus(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerCertStatus(c *Conn) error {
	return c.callbacks.ParseServerCertStatus(c, c.scratchBody())
}

func buildServerKeyExchange(c *Conn) error {
	body, err := c.callbacks.BuildServerKeyExchange(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerKeyExchange(c *Conn) error {
	return c.callbacks.ParseServerKeyExchange(c, c.scratchBody())
}

func buildServerHelloDone(c *Conn) error {
	body, err := c.callbacks.BuildServerHelloDone(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerHelloDone(c *Conn) error {
	return c.callbacks.ParseServerHelloDone(c, c.scratchBody())
}

func buildClientKeyExchange(c *Conn) error {
	body, err := c.callbacks.BuildClientKeyExchange(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseClientKeyExchange(c *Conn) error {
	return c.callbacks.ParseClientKeyExchange(c, c.scratchBody())
}

func buildClientFinished(c *Conn) error {
	body, err := c.callbacks.BuildClientFinished(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseClientFinished(c *Conn) error {
	return c.callbacks.ParseClientFinished(c, c.scratchBody())
}

func buildServerFinished(c *Conn) error {
	body, err := c.callbacks.BuildServerFinished(c)
	if err != nil {
		return err
	}
	c.hs.scratch.Append(body)
	return nil
}

func parseServerFinished(c *Conn) error {
	return c.callbacks.ParseServerFinished(c, c.scratchBody())
}

// changeCipherSpecBody is the sole legal wire body of a ChangeCipherSpec
// record (RFC 5246 §7.1).
var changeCipherSpecBody = []byte{0x01}

// buildChangeCipherSpec is shared by both ClientChangeCipherSpec and
// ServerChangeCipherSpec descriptors: the body is a fixed single byte, so
// there is nothing for an external Callbacks method to decide.
func buildChangeCipherSpec(c *Conn) error {
	c.hs.scratch.Append(changeCipherSpecBody)
	return nil
}

// applyChangeCipherSpec is the reading side's handler for a
// ChangeCipherSpec record: it updates cipher state (switching in the
// pending read/write cipher), delegated to Callbacks since the driver
// does not implement encryption itself (§1).
func applyChangeCipherSpec(c *Conn) error {
	return c.callbacks.ActivateCipherState(c)
}
