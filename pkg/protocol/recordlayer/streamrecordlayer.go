// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/kommander/handshaker/pkg/protocol"
)

// noDeadline clears a previously set read/write deadline (net.Conn's
// convention: the zero Time means "no deadline").
var noDeadline time.Time

// Protection is the record-level encrypt/decrypt collaborator a
// StreamRecordLayer activates once ChangeCipherSpec has been processed.
// pkg/crypto/ciphersuite.CBC and .GCM both satisfy this structurally; the
// record layer otherwise knows nothing about either.
type Protection interface {
	Encrypt(contentType protocol.ContentType, version protocol.Version, payload []byte) ([]byte, error)
	Decrypt(contentType protocol.ContentType, version protocol.Version, body []byte) ([]byte, error)
}

var errSSLv2NotClientHello = errors.New("recordlayer: sslv2-style record is not a ClientHello")

// StreamRecordLayer is a concrete RecordLayer (root package's interface,
// not imported here to avoid a cycle) over a stream socket. It frames the
// driver's outbound bytes into TLS records, coalesces queued writes into
// one Flush, and recognizes the SSLv2-compatible ClientHello framing
// (spec §4.5) on the read side. Record protection (MAC/AEAD) is inert
// until ActivateWrite/ActivateRead is called, matching a plaintext
// handshake's leading records before ChangeCipherSpec.
type StreamRecordLayer struct {
	conn    net.Conn
	version protocol.Version

	pending []queuedRecord

	readProtection, writeProtection Protection
	// pendingReadProtection/pendingWriteProtection are staged by
	// StagePending*Protection and swapped in by ActivateRead/ActivateWrite
	// one direction at a time, mirroring the TLS rule
	// that ChangeCipherSpec flips the cipher state for one direction only.
	pendingReadProtection, pendingWriteProtection Protection

	reader *bufio.Reader
}

type queuedRecord struct {
	contentType protocol.ContentType
	body        []byte
}

// NewStreamRecordLayer wraps conn for a handshake negotiating at version.
func NewStreamRecordLayer(conn net.Conn, version protocol.Version) *StreamRecordLayer {
	return &StreamRecordLayer{
		conn:    conn,
		version: version,
		reader:  bufio.NewReaderSize(conn, MaxPlaintextLength+FixedHeaderSize),
	}
}

// StagePendingWriteProtection records the Protection a subsequent
// ActivateWrite should swap in; a Callbacks implementation calls this once
// key derivation completes (pkg/handshakeimpl does so from its key-exchange
// handlers), then ActivateWrite/ActivateRead once the matching CCS has
// actually been sent/received.
func (rl *StreamRecordLayer) StagePendingWriteProtection(p Protection) { rl.pendingWriteProtection = p }

// StagePendingReadProtection is StagePendingWriteProtection's read-side
// counterpart.
func (rl *StreamRecordLayer) StagePendingReadProtection(p Protection) { rl.pendingReadProtection = p }

// ActivateWrite swaps in the staged write protection. Called once this
// endpoint's own ChangeCipherSpec has been flushed: protection is applied
// at Flush time, so the CCS record stays unprotected only if it left
// before this call.
func (rl *StreamRecordLayer) ActivateWrite() { rl.writeProtection = rl.pendingWriteProtection }

// ActivateRead swaps in the staged read protection, once a peer
// ChangeCipherSpec has been processed.
func (rl *StreamRecordLayer) ActivateRead() { rl.readProtection = rl.pendingReadProtection }

// Write enqueues a record; nothing reaches the wire until Flush.
func (rl *StreamRecordLayer) Write(contentType protocol.ContentType, body []byte) {
	rl.pending = append(rl.pending, queuedRecord{contentType: contentType, body: append([]byte{}, body...)})
}

// Flush protects and writes every queued record as one or more records,
// splitting any body that exceeds MaxPlaintextLength.
func (rl *StreamRecordLayer) Flush(ctx context.Context) error {
	if len(rl.pending) == 0 {
		return nil
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := rl.conn.SetWriteDeadline(dl); err != nil {
			return err
		}
	} else {
		_ = rl.conn.SetWriteDeadline(noDeadline)
	}

	var out []byte
	for _, rec := range rl.pending {
		body := rec.body
		for {
			chunk := body
			if len(chunk) > MaxPlaintextLength {
				chunk = chunk[:MaxPlaintextLength]
			}
			protected := chunk
			if rl.writeProtection != nil {
				p, err := rl.writeProtection.Encrypt(rec.contentType, rl.version, chunk)
				if err != nil {
					return errors.Wrap(err, "recordlayer: encrypt failed")
				}
				protected = p
			}
			hdr := Header{ContentType: rec.contentType, Version: rl.version, ContentLen: uint16(len(protected))}
			hb, err := hdr.Marshal()
			if err != nil {
				return err
			}
			out = append(out, hb...)
			out = append(out, protected...)
			body = body[len(chunk):]
			if len(body) == 0 {
				break
			}
		}
	}
	rl.pending = nil

	if _, err := rl.conn.Write(out); err != nil {
		if isTimeout(err) {
			return protocol.ErrWouldBlock
		}
		return err
	}
	return nil
}

// MaxWritePayloadSize returns the largest plaintext chunk that still fits
// in one record once the active Protection's overhead (MAC/tag/padding
// headroom) is accounted for. CBC needs room for up to one block of
// padding plus the MAC; GCM needs room for the explicit nonce and tag.
// 64 bytes comfortably covers either.
func (rl *StreamRecordLayer) MaxWritePayloadSize() int {
	if rl.writeProtection == nil {
		return MaxPlaintextLength
	}
	return MaxPlaintextLength - 64
}

// ReadFullRecord reads one record (or one SSLv2-framed ClientHello) from
// the wire, unprotecting it if read protection is active.
func (rl *StreamRecordLayer) ReadFullRecord(ctx context.Context) (protocol.ContentType, []byte, bool, error) {
	if dl, ok := ctx.Deadline(); ok {
		if err := rl.conn.SetReadDeadline(dl); err != nil {
			return 0, nil, false, err
		}
	} else {
		_ = rl.conn.SetReadDeadline(noDeadline)
	}

	first, err := rl.reader.Peek(1)
	if err != nil {
		return 0, nil, false, wrapReadErr(err)
	}

	if first[0]&0x80 != 0 {
		return rl.readSSLv2(ctx)
	}

	hdrBuf := make([]byte, FixedHeaderSize)
	if _, err := readFull(rl.reader, hdrBuf); err != nil {
		return 0, nil, false, wrapReadErr(err)
	}
	var hdr Header
	if err := hdr.Unmarshal(hdrBuf); err != nil {
		return 0, nil, false, err
	}

	body := make([]byte, hdr.ContentLen)
	if _, err := readFull(rl.reader, body); err != nil {
		return 0, nil, false, wrapReadErr(err)
	}

	if rl.readProtection != nil {
		plain, err := rl.readProtection.Decrypt(hdr.ContentType, hdr.Version, body)
		if err != nil {
			return 0, nil, false, err
		}
		body = plain
	}

	return hdr.ContentType, body, false, nil
}

// readSSLv2 reads an SSLv2-style 2-byte-length-prefixed record (high bit
// of the first byte set, so no padding byte). It returns a body shaped as
// [lenHi, lenLo, msgType, version..., <rest>] so that the driver's §4.5
// transcript reconstitution (offsets [2:5) are the msg-type and version
// bytes a v3 ClientHello's handshake header would have carried) has
// exactly the bytes it expects.
func (rl *StreamRecordLayer) readSSLv2(ctx context.Context) (protocol.ContentType, []byte, bool, error) {
	lenBuf := make([]byte, 2)
	if _, err := readFull(rl.reader, lenBuf); err != nil {
		return 0, nil, false, wrapReadErr(err)
	}
	recLen := int(lenBuf[0]&0x7f)<<8 | int(lenBuf[1])

	rest := make([]byte, recLen)
	if _, err := readFull(rl.reader, rest); err != nil {
		return 0, nil, false, wrapReadErr(err)
	}
	if recLen < 1 || rest[0] != 1 {
		return 0, nil, false, errSSLv2NotClientHello
	}

	body := append(append([]byte{}, lenBuf...), rest...)
	return protocol.ContentTypeHandshake, body, true, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func wrapReadErr(err error) error {
	if isTimeout(err) {
		return protocol.ErrWouldBlock
	}
	return err
}
