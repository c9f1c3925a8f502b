// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/alert"
	"github.com/kommander/handshaker/pkg/protocol"
	"github.com/kommander/handshaker/pkg/protocol/handshake"
)

// maxHandshakeMessageLength bounds a single handshake message's body, the
// same ceiling s2n calls S2N_MAXIMUM_HANDSHAKE_MESSAGE_LENGTH: large enough
// for a realistic certificate chain, small enough that a peer cannot make
// the reassembly loop grow scratch without bound.
const maxHandshakeMessageLength = 1 << 21 // 2 MiB

// handlerFor returns the payload handler this endpoint role runs for the
// message at the cursor (§4.4 step 1b, §4.5 step 4).
func handlerFor(c *Conn, d *descriptor) PayloadHandler {
	if c.mode() == ModeClient {
		return d.onClient
	}
	return d.onServer
}

// writeHandshake drives one handshake writer turn (§4.4). Preconditions:
// the descriptor at the cursor has writer role equal to this endpoint, and
// any bytes pending from a prior turn have already been flushed.
func (c *Conn) writeHandshake(ctx context.Context) error {
	hs := c.hs
	d := hs.current()

	if hs.scratch.IsWiped() {
		headerOffset := -1
		if d.recordType == protocol.ContentTypeHandshake {
			headerOffset = hs.scratch.Len()
			hs.scratch.Append(make([]byte, handshake.HeaderSize))
		}

		handler := handlerFor(c, d)
		if handler == nil {
			return badMessage(ErrUnsupportedMessage, hs.currentMessage().String())
		}
		if err := handler(c); err != nil {
			return handlerError(hs.currentMessage(), err)
		}

		if headerOffset >= 0 {
			bodyLen := uint32(hs.scratch.Len() - headerOffset - handshake.HeaderSize)
			hs.scratch.buf[headerOffset] = byte(d.wireType)
			hs.scratch.SetLengthPrefix(headerOffset+1, bodyLen)
		}
	}

	for len(hs.scratch.Unsent()) > 0 {
		chunkSize := c.rl.MaxWritePayloadSize()
		unsent := hs.scratch.Unsent()
		if chunkSize <= 0 || chunkSize > len(unsent) {
			chunkSize = len(unsent)
		}
		chunk := unsent[:chunkSize]

		c.rl.Write(d.recordType, chunk)
		if d.recordType == protocol.ContentTypeHandshake {
			if err := hs.transcript.Update(chunk); err != nil {
				return transcriptError(err)
			}
		}
		hs.scratch.Advance(chunkSize)

		wctx, cancel := c.writeCtx(ctx)
		err := c.rl.Flush(wctx)
		cancel()
		if err != nil {
			return err
		}
	}

	hs.scratch.Wipe()
	c.advanceCursor()
	return nil
}

// readHandshake drives one handshake reader turn (§4.5): it reads exactly
// one record and reacts according to its content type.
func (c *Conn) readHandshake(ctx context.Context) error {
	rctx, cancel := c.readCtx(ctx)
	contentType, body, isSSLv2, err := c.rl.ReadFullRecord(rctx)
	cancel()
	if err != nil {
		return err
	}

	hs := c.hs

	if isSSLv2 {
		return c.readSSLv2ClientHello(body)
	}

	switch contentType {
	case protocol.ContentTypeApplicationData:
		return badMessage(ErrApplicationDataTooSoon, "application data before handshake completion")

	case protocol.ContentTypeChangeCipherSpec:
		d := hs.current()
		if d.recordType != protocol.ContentTypeChangeCipherSpec {
			return badMessage(ErrUnexpectedRecordType, "change_cipher_spec received out of order")
		}
		if len(body) != 1 {
			return badMessage(ErrChangeCipherSpecBody, "")
		}
		handler := handlerFor(c, d)
		if handler == nil {
			return badMessage(ErrUnsupportedMessage, hs.currentMessage().String())
		}
		if err := handler(c); err != nil {
			return handlerError(hs.currentMessage(), err)
		}
		hs.scratch.Wipe()
		c.advanceCursor()
		return nil

	case protocol.ContentTypeAlert:
		var a alert.Alert
		if err := a.Unmarshal(body); err != nil {
			return err
		}
		return c.alerts.Process(&a)

	case protocol.ContentTypeHandshake:
		return c.reassembleHandshake(body)

	default:
		// Unknown content type: ignored per RFC forward-compatibility.
		return nil
	}
}

// readSSLv2ClientHello implements the SSLv2 branch of §4.5: legal only at
// the CLIENT_HELLO cursor position, and reconstitutes the transcript bytes
// a v3 ClientHello would have contributed before handing the body to the
// SSLv2-specific callback.
func (c *Conn) readSSLv2ClientHello(body []byte) error {
	hs := c.hs
	if hs.currentMessage() != ClientHello {
		return badMessage(ErrUnexpectedSSLv2Hello, "")
	}
	if len(body) < 5 {
		return badMessage(ErrUnexpectedSSLv2Hello, "short v2 header")
	}

	if err := hs.transcript.Update(body[2:5]); err != nil {
		return transcriptError(err)
	}
	if err := hs.transcript.Update(body[5:]); err != nil {
		return transcriptError(err)
	}

	// Unlike the HANDSHAKE-type reassembly path, the v2 hello carries no
	// 4-byte handshake header for scratchBody to skip: the whole
	// reconstituted buffer is the message. Append it for bookkeeping
	// parity with the rest of the reader, but hand the callback the raw
	// body directly rather than through scratchBody (which would
	// incorrectly chop off its first 4 bytes).
	hs.scratch.Append(body)
	if err := c.callbacks.ParseClientHelloSSLv2(c, body); err != nil {
		return handlerError(ClientHello, err)
	}
	if err := setHandshakeType(c); err != nil {
		return err
	}
	hs.scratch.Wipe()
	c.advanceCursor()
	return nil
}

// reassembleHandshake implements §4.5's message-reassembly loop over one
// record's body, which may hold a partial message, exactly one, or several.
func (c *Conn) reassembleHandshake(record []byte) error {
	hs := c.hs

	for len(record) > 0 {
		if hs.scratch.Len() < handshake.HeaderSize {
			need := handshake.HeaderSize - hs.scratch.Len()
			take := need
			if take > len(record) {
				take = len(record)
			}
			hs.scratch.Append(record[:take])
			record = record[take:]
			if hs.scratch.Len() < handshake.HeaderSize {
				return nil
			}
		}

		var hdr handshake.Header
		if err := hdr.Unmarshal(hs.scratch.Bytes()); err != nil {
			return err
		}
		if hdr.Length > maxHandshakeMessageLength {
			return badMessage(ErrHandshakeMessageTooBig, hs.currentMessage().String())
		}

		total := handshake.HeaderSize + int(hdr.Length)
		have := hs.scratch.Len()
		if have < total {
			need := total - have
			take := need
			if take > len(record) {
				take = len(record)
			}
			hs.scratch.Append(record[:take])
			record = record[take:]
			have = hs.scratch.Len()
		}

		if have < total {
			// Message still incomplete; the next record continues it.
			return nil
		}

		full := hs.scratch.Bytes()[:total]

		d := hs.current()
		if hdr.Type != d.wireType {
			return badMessage(ErrUnexpectedWireType, hs.currentMessage().String())
		}

		handler := handlerFor(c, d)
		if handler == nil {
			c.killConnection()
			return badMessage(ErrUnsupportedMessage, hs.currentMessage().String())
		}
		if err := handler(c); err != nil {
			c.killConnection()
			return handlerError(hs.currentMessage(), err)
		}

		// Transcript update is deferred until after the handler runs, so a
		// Finished handler sees the digest over every prior message but not
		// the one it is currently parsing (RFC 5246 §7.4.9's "handshake
		// messages" excludes the Finished message itself). This mirrors
		// writeHandshake, which builds a message's body before feeding its
		// bytes to the transcript.
		if err := hs.transcript.Update(full); err != nil {
			c.killConnection()
			return transcriptError(err)
		}

		hs.scratch.Wipe()
		c.advanceCursor()
	}

	return nil
}

// advanceCursor moves the cursor forward one slot and applies §4.6's
// optional send-coalescing policy.
func (c *Conn) advanceCursor() {
	hs := c.hs
	prevWriter := hs.current().writer
	hs.cursor++

	if !hs.corkedIO || hs.callerPreCorked {
		return
	}
	nextWriter := hs.current().writer
	switch {
	case nextWriter == prevWriter:
		// Same side writes again; leave corking as-is.
	case nextWriter == c.mode().writer():
		c.cork.Cork()
	default:
		c.cork.Uncork()
	}
}

// Negotiate drives the handshake to completion or until blocked (§4.7). It
// may be called repeatedly after ErrWouldBlock once the caller's I/O is
// ready again; the cursor only ever advances past a fully-sent or
// fully-received message, so re-entry resumes cleanly.
func (c *Conn) Negotiate(ctx context.Context) (Blocked, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ctx, span := c.negotiateSpan(ctx)
	defer span.End()

	hs := c.hs
	for hs.current().writer != WriterBoth {
		fctx, cancel := c.writeCtx(ctx)
		err := c.rl.Flush(fctx)
		cancel()
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return BlockedOnWrite, err
			}
			c.killConnection()
			return BlockedOnWrite, err
		}

		if hs.current().writer == c.mode().writer() {
			mctx, mspan := c.messageSpan(ctx, "write")
			err := c.writeHandshake(mctx)
			mspan.End()
			if err != nil {
				if errors.Is(err, ErrWouldBlock) {
					return BlockedOnWrite, err
				}
				c.killConnection()
				return BlockedOnWrite, err
			}
		} else {
			mctx, mspan := c.messageSpan(ctx, "read")
			err := c.readHandshake(mctx)
			mspan.End()
			if err != nil {
				if errors.Is(err, ErrWouldBlock) {
					return BlockedOnRead, err
				}
				c.killConnection()
				return BlockedOnRead, err
			}
		}
	}

	return NotBlocked, nil
}
