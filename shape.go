// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

// Shape is a bitmask identifying one handshake flavor. Only the six rows
// below are legal; every other bit combination is unreachable in a
// correct driver.
type Shape uint8

// Shape flags. INITIAL is the zero value: the bootstrap sequence driven
// before negotiation resolves.
const (
	Negotiated Shape = 1 << iota
	FullHandshake
	PerfectForwardSecrecy
	OCSPStatus
	Resume
)

// Initial is the bootstrap shape: {ClientHello, ServerHello}, used until
// shape selection (§4.3, setHandshakeType) replaces it.
const Initial Shape = 0

func (s Shape) String() string {
	if s == Initial {
		return "Initial"
	}
	out := ""
	add := func(bit Shape, name string) {
		if s&bit != 0 {
			if out != "" {
				out += "|"
			}
			out += name
		}
	}
	add(Negotiated, "Negotiated")
	add(FullHandshake, "FullHandshake")
	add(PerfectForwardSecrecy, "PFS")
	add(OCSPStatus, "OCSPStatus")
	add(Resume, "Resume")
	return out
}

// sequences maps each of the six populated shapes to its ordered message
// list, terminated by ApplicationData. Built once at init, read-only
// thereafter and shared read-only across every connection.
var sequences = map[Shape][]Message{
	Initial: {
		ClientHello, ServerHello,
	},
	Negotiated | Resume: {
		ClientHello, ServerHello,
		ServerChangeCipherSpec, ServerFinished,
		ClientChangeCipherSpec, ClientFinished,
		ApplicationData,
	},
	Negotiated | FullHandshake: {
		ClientHello, ServerHello,
		ServerCert, ServerHelloDone,
		ClientKey,
		ClientChangeCipherSpec, ClientFinished,
		ServerChangeCipherSpec, ServerFinished,
		ApplicationData,
	},
	Negotiated | FullHandshake | PerfectForwardSecrecy: {
		ClientHello, ServerHello,
		ServerCert, ServerKey, ServerHelloDone,
		ClientKey,
		ClientChangeCipherSpec, ClientFinished,
		ServerChangeCipherSpec, ServerFinished,
		ApplicationData,
	},
	Negotiated | FullHandshake | OCSPStatus: {
		ClientHello, ServerHello,
		ServerCert, ServerCertStatus, ServerHelloDone,
		ClientKey,
		ClientChangeCipherSpec, ClientFinished,
		ServerChangeCipherSpec, ServerFinished,
		ApplicationData,
	},
	Negotiated | FullHandshake | PerfectForwardSecrecy | OCSPStatus: {
		ClientHello, ServerHello,
		ServerCert, ServerCertStatus, ServerKey, ServerHelloDone,
		ClientKey,
		ClientChangeCipherSpec, ClientFinished,
		ServerChangeCipherSpec, ServerFinished,
		ApplicationData,
	},
}

// sequenceFor returns the ordered message list for shape s, panicking if s
// is not one of the six legal rows. Every populated shape begins
// identically with {ClientHello, ServerHello}, which is what lets a
// cursor already past those two entries remain well-formed across the
// INITIAL -> negotiated transition (§4.3).
func sequenceFor(s Shape) []Message {
	seq, ok := sequences[s]
	if !ok {
		panic("tls: unreachable handshake shape " + s.String())
	}
	return seq
}

// messageAt returns the logical message at cursor within shape s.
func messageAt(s Shape, cursor int) Message {
	seq := sequenceFor(s)
	if cursor < 0 || cursor >= len(seq) {
		panic("tls: cursor out of range for shape")
	}
	return seq[cursor]
}
