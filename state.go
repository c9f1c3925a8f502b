// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"github.com/kommander/handshaker/pkg/crypto/transcript"
	"github.com/kommander/handshaker/pkg/session"
)

// Mode names which endpoint role a connection plays. It is set at
// construction and never changes.
type Mode byte

const (
	ModeClient Mode = 'C'
	ModeServer Mode = 'S'
)

func (m Mode) writer() Writer {
	if m == ModeClient {
		return WriterClient
	}
	return WriterServer
}

// Blocked reports why negotiate returned without completing.
type Blocked int

const (
	NotBlocked Blocked = iota
	BlockedOnRead
	BlockedOnWrite
)

func (b Blocked) String() string {
	switch b {
	case BlockedOnRead:
		return "blocked-on-read"
	case BlockedOnWrite:
		return "blocked-on-write"
	default:
		return "not-blocked"
	}
}

// handshakeState is the mutable handshake-cursor state owned by a
// connection (spec §3 "Connection handshake state"). It is never shared
// across connections.
type handshakeState struct {
	mode Mode

	shape  Shape
	cursor int

	scratch    *scratch
	transcript *transcript.Accumulator

	sessionID    []byte
	sessionIDLen int

	corkedIO        bool // optional send coalescing requested by the caller
	callerPreCorked bool // SocketCork.WasCorked() at construction, before this Conn ever cork'd/uncork'd it itself

	// cipherSuitePFS/ocspRequested/ocspStapled/sessionCacheHit are
	// populated by the ClientHello/ServerHello handlers (external
	// collaborators, via Conn's Set* methods below) and read by
	// setHandshakeType (§4.3). The driver never decides these itself.
	cipherSuitePFS  bool
	ocspRequested   bool
	ocspStapled     bool
	sessionCacheHit bool
}

func newHandshakeState(mode Mode) *handshakeState {
	return &handshakeState{
		mode:       mode,
		shape:      Initial,
		cursor:     0,
		scratch:    newScratch(),
		transcript: transcript.New(),
	}
}

// current returns the descriptor for the message at the current cursor.
func (hs *handshakeState) current() *descriptor {
	return descriptorAt(messageAt(hs.shape, hs.cursor))
}

// currentMessage returns the logical message id at the cursor; exposed to
// callers via Conn.CurrentMessage (§6 "current_message").
func (hs *handshakeState) currentMessage() Message {
	return messageAt(hs.shape, hs.cursor)
}

// done reports whether the cursor has reached the terminal slot.
func (hs *handshakeState) done() bool {
	return hs.current().writer == WriterBoth
}

// SetCipherSuitePFS records whether the negotiated cipher suite's
// key-exchange algorithm carries the "ephemeral" flag (spec §4.3 step 4).
// Called by Callbacks.ParseServerHello (the client learns the cipher
// suite from ServerHello) or, server-side, at the point it chooses one
// while parsing ClientHello.
func (c *Conn) SetCipherSuitePFS(pfs bool) { c.hs.cipherSuitePFS = pfs }

// SetOCSPRequested records that the client's ClientHello asked for a
// stapled OCSP response (spec §4.3 step 5).
func (c *Conn) SetOCSPRequested(v bool) { c.hs.ocspRequested = v }

// SetOCSPStapled records that the server has an OCSP response to staple.
func (c *Conn) SetOCSPStapled(v bool) { c.hs.ocspStapled = v }

// SetSessionCacheHit records that a session cache lookup succeeded for
// the id offered in ClientHello (spec §4.3 step 2).
func (c *Conn) SetSessionCacheHit(v bool) { c.hs.sessionCacheHit = v }

// SessionID returns the session id bytes currently recorded on the
// connection (0 length if none has been issued or resumed yet).
func (c *Conn) SessionID() []byte { return c.hs.sessionID }

// SetSessionID lets Callbacks record the session id a resumed
// ClientHello offered, before setHandshakeType runs.
func (c *Conn) SetSessionID(id []byte) {
	c.hs.sessionID = append([]byte{}, id...)
	c.hs.sessionIDLen = len(id)
}

// SessionCache exposes the session cache collaborator to Callbacks (nil
// if resumption is disabled for this connection).
func (c *Conn) SessionCache() session.Cache { return c.cache }

// TranscriptSHA256 finalizes a copy of the running SHA-256 transcript
// digest without disturbing it, for a Callbacks implementation computing
// Finished verify-data on a cipher suite whose PRF selects SHA-256.
func (c *Conn) TranscriptSHA256() []byte { return c.hs.transcript.CloneAndFinalizeSHA256() }

// TranscriptSHA384 is TranscriptSHA256's counterpart for cipher suites
// whose PRF selects SHA-384.
func (c *Conn) TranscriptSHA384() []byte { return c.hs.transcript.CloneAndFinalizeSHA384() }

// TranscriptMD5SHA1 is TranscriptSHA256's counterpart for TLS 1.0/1.1
// connections, whose combined PRF keys off MD5||SHA-1 instead of a single
// SHA-2 digest.
func (c *Conn) TranscriptMD5SHA1() []byte { return c.hs.transcript.CloneAndFinalizeMD5SHA1() }
