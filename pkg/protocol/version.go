// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// Version is the two-byte {major, minor} TLS protocol version.
//
// https://tools.ietf.org/html/rfc5246#section-6.2.1
type Version struct {
	Major, Minor uint8
}

// Named versions in scope for this driver. SSLv3 and TLS 1.3 are
// intentionally absent: both are out of scope per the driver spec.
var (
	Version1_0 = Version{Major: 3, Minor: 1}
	Version1_1 = Version{Major: 3, Minor: 2}
	Version1_2 = Version{Major: 3, Minor: 3}
)

func (v Version) String() string {
	switch v {
	case Version1_0:
		return "TLS1.0"
	case Version1_1:
		return "TLS1.1"
	case Version1_2:
		return "TLS1.2"
	default:
		return "Unknown"
	}
}
