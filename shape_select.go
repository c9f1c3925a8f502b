// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import "crypto/rand"

// setHandshakeType resolves the handshake shape once negotiation has
// produced enough information to do so (§4.3). It is invoked from inside
// the ClientHello/ServerHello payload handlers, never directly by the
// driver loop.
//
// Because every negotiated sequence begins identically to INITIAL with
// {ClientHello, ServerHello}, a cursor already past those two entries
// remains a valid index into whichever sequence is selected here.
func setHandshakeType(c *Conn) error {
	hs := c.hs
	hs.shape = Negotiated

	if c.cache != nil && hs.sessionCacheHit {
		hs.shape |= Resume
		if c.mode() == ModeServer {
			id := make([]byte, 32)
			if _, err := rand.Read(id); err != nil {
				return err
			}
			hs.sessionID = id
			hs.sessionIDLen = 32
		}
		return nil
	}

	hs.shape |= FullHandshake
	if hs.cipherSuitePFS {
		hs.shape |= PerfectForwardSecrecy
	}
	if hs.ocspRequested && hs.ocspStapled {
		hs.shape |= OCSPStatus
	}
	return nil
}
