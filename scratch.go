// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

// scratch is the per-connection handshake I/O buffer: it accumulates an
// outbound message before framing, or reassembles an inbound fragmented
// message before it is handed to a payload handler.
//
// It carries an explicit wiped/empty distinction rather than relying on
// len(buf) == 0: "nothing has been written for this message yet" (wiped)
// and "fully drained, one read cursor short of the end" (empty-but-not-
// wiped, mid-fragmentation) are different states the writer's one-shot
// header/payload construction (§4.4 step 1) depends on distinguishing.
// The reader's reassembly loop (§4.5) goes by Len alone.
type scratch struct {
	buf     []byte
	readAt  int // consumer's read offset into buf, used by the writer
	wiped   bool
}

func newScratch() *scratch {
	return &scratch{wiped: true}
}

// Wipe marks the buffer empty and ready for the next message. This is the
// *only* operation that resets wiped to true.
func (s *scratch) Wipe() {
	s.buf = s.buf[:0]
	s.readAt = 0
	s.wiped = true
}

// IsWiped reports whether scratch has never been written to for the
// current message (distinct from having been drained of a prior one).
func (s *scratch) IsWiped() bool {
	return s.wiped
}

// Append adds bytes to the buffer and clears the wiped flag: the instant
// anything is written, this message is "in flight", not "nothing yet".
func (s *scratch) Append(b []byte) {
	s.buf = append(s.buf, b...)
	s.wiped = false
}

// Len returns the total number of bytes held, irrespective of read
// position.
func (s *scratch) Len() int {
	return len(s.buf)
}

// Bytes returns the full buffer contents.
func (s *scratch) Bytes() []byte {
	return s.buf
}

// Unsent returns the bytes not yet pulled by the writer's record-emission
// loop (§4.4 step 2).
func (s *scratch) Unsent() []byte {
	return s.buf[s.readAt:]
}

// Advance marks n more bytes as sent.
func (s *scratch) Advance(n int) {
	s.readAt += n
}

// SetLengthPrefix backfills the 3-byte length field of a handshake header
// previously written as a placeholder (§4.4 step 1c). off is the byte
// offset of the length field's first byte.
func (s *scratch) SetLengthPrefix(off int, length uint32) {
	s.buf[off] = byte(length >> 16)
	s.buf[off+1] = byte(length >> 8)
	s.buf[off+2] = byte(length)
}
