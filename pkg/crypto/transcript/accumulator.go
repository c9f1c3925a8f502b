// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package transcript maintains the running multi-digest over every
// handshake byte observed or emitted on a connection, the input the
// Finished message's verify-data is computed and checked against.
package transcript

import (
	"crypto/md5"  //nolint:gosec // required alongside SHA-1 for the TLS 1.0/1.1 combined PRF
	"crypto/sha1" //nolint:gosec // required for the TLS 1.0/1.1 combined PRF and TLS 1.2 cipher suites that select it
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// Accumulator feeds every handshake byte into four digests in parallel
// (MD5, SHA-1, SHA-256, SHA-384) so that whichever hash the negotiated
// cipher suite's PRF selects for Finished is already up to date without
// re-reading the byte stream. A Callbacks implementation reads the
// finalized digest it needs through Conn's Transcript* methods, which call
// the CloneAnd* accessors; the driver's writer and reader only ever call
// Update.
type Accumulator struct {
	md5    hash.Hash
	sha1   hash.Hash
	sha256 hash.Hash
	sha384 hash.Hash
}

// New returns an Accumulator with all four digests freshly initialized.
func New() *Accumulator {
	return &Accumulator{
		md5:    md5.New(),  //nolint:gosec
		sha1:   sha1.New(), //nolint:gosec
		sha256: sha256.New(),
		sha384: sha512.New384(),
	}
}

// Update feeds b into all four running digests. The accumulator fails
// only if an underlying digest write fails, which hash.Hash.Write never
// does in the standard library; callers still treat a failure here as a
// fatal crypto/transcript error per spec §7.
func (a *Accumulator) Update(b []byte) error {
	for _, h := range []hash.Hash{a.md5, a.sha1, a.sha256, a.sha384} {
		if _, err := h.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// CloneAndFinalizeMD5 finalizes a copy of the running MD5 digest without
// disturbing it, so Finished can be computed mid-handshake.
func (a *Accumulator) CloneAndFinalizeMD5() []byte { return cloneSum(a.md5) }

// CloneAndFinalizeSHA1 finalizes a copy of the running SHA-1 digest.
func (a *Accumulator) CloneAndFinalizeSHA1() []byte { return cloneSum(a.sha1) }

// CloneAndFinalizeSHA256 finalizes a copy of the running SHA-256 digest.
func (a *Accumulator) CloneAndFinalizeSHA256() []byte { return cloneSum(a.sha256) }

// CloneAndFinalizeSHA384 finalizes a copy of the running SHA-384 digest.
func (a *Accumulator) CloneAndFinalizeSHA384() []byte { return cloneSum(a.sha384) }

// CloneAndFinalizeMD5SHA1 returns the concatenated MD5||SHA-1 digest used
// by the TLS 1.0/1.1 combined PRF (RFC 5246 §5 predecessor, RFC 2246/4346).
func (a *Accumulator) CloneAndFinalizeMD5SHA1() []byte {
	return append(a.CloneAndFinalizeMD5(), a.CloneAndFinalizeSHA1()...)
}

func cloneSum(h hash.Hash) []byte {
	// hash.Hash.Sum appends to, but does not reset, the receiver, so
	// calling it on the live digest is itself non-destructive; the name
	// "clone" here documents intent (Update may safely be called again
	// right after) rather than a literal copy.
	return h.Sum(nil)
}
