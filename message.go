// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"github.com/kommander/handshaker/pkg/protocol"
	"github.com/kommander/handshaker/pkg/protocol/handshake"
)

// Message is a logical handshake step. A single Message may span several
// records on the wire (fragmentation) but is delivered to its payload
// handler exactly once, as a whole.
type Message int

// The closed set of logical messages this driver knows how to sequence.
// Order here is cosmetic; sequencing order comes from the shape tables
// in shape.go.
const (
	ClientHello Message = iota
	ServerHello
	ServerCert
	ServerCertStatus
	ServerKey
	ServerCertReq
	ServerHelloDone
	ClientCert
	ClientKey
	ClientCertVerify
	ClientChangeCipherSpec
	ClientFinished
	ServerChangeCipherSpec
	ServerFinished
	ApplicationData
)

func (m Message) String() string {
	switch m {
	case ClientHello:
		return "ClientHello"
	case ServerHello:
		return "ServerHello"
	case ServerCert:
		return "ServerCert"
	case ServerCertStatus:
		return "ServerCertStatus"
	case ServerKey:
		return "ServerKey"
	case ServerCertReq:
		return "ServerCertReq"
	case ServerHelloDone:
		return "ServerHelloDone"
	case ClientCert:
		return "ClientCert"
	case ClientKey:
		return "ClientKey"
	case ClientCertVerify:
		return "ClientCertVerify"
	case ClientChangeCipherSpec:
		return "ClientChangeCipherSpec"
	case ClientFinished:
		return "ClientFinished"
	case ServerChangeCipherSpec:
		return "ServerChangeCipherSpec"
	case ServerFinished:
		return "ServerFinished"
	case ApplicationData:
		return "ApplicationData"
	default:
		return "Unknown"
	}
}

// Writer names who is responsible for producing a given message.
type Writer byte

const (
	// WriterClient means the client endpoint writes this message.
	WriterClient Writer = 'C'
	// WriterServer means the server endpoint writes this message.
	WriterServer Writer = 'S'
	// WriterBoth marks the terminal ApplicationData slot: both sides may
	// write from here on, and the driver loop stops advancing it.
	WriterBoth Writer = 'B'
)

// PayloadHandler reads or writes a single handshake message's body against
// the connection's scratch buffer. It is an external collaborator in the
// sense spec §6 describes: the driver invokes it by (message, endpoint
// role) but never itself inspects or constructs wire-format contents.
type PayloadHandler func(c *Conn) error

// descriptor is the immutable, compile-time description of one logical
// message: its record type, wire message-type byte (HANDSHAKE only), who
// writes it, and the handlers for each endpoint role. A nil handler marks
// a message this driver does not implement; reaching it is a programming
// error, never a silent no-op (see ServerCertReq/ClientCert/
// ClientCertVerify below - spec's open question on client auth).
type descriptor struct {
	recordType protocol.ContentType
	wireType   handshake.Type // zero for non-HANDSHAKE records
	writer     Writer
	onServer   PayloadHandler
	onClient   PayloadHandler
}

// catalogue maps each logical message to its descriptor. Built once at
// package init, read-only thereafter: looked up by value, no allocation.
var catalogue [ApplicationData + 1]descriptor

func init() {
	catalogue[ClientHello] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeClientHello,
		writer:     WriterClient,
		onClient:   buildClientHello,
		onServer:   parseClientHello,
	}
	catalogue[ServerHello] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeServerHello,
		writer:     WriterServer,
		onServer:   buildServerHello,
		onClient:   parseServerHello,
	}
	catalogue[ServerCert] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeCertificate,
		writer:     WriterServer,
		onServer:   buildServerCert,
		onClient:   parseServerCert,
	}
	catalogue[ServerCertStatus] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeCertificateStatus,
		writer:     WriterServer,
		onServer:   buildServerCertStatus,
		onClient:   parseServerCertStatus,
	}
	catalogue[ServerKey] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeServerKeyExchange,
		writer:     WriterServer,
		onServer:   buildServerKeyExchange,
		onClient:   parseServerKeyExchange,
	}
	catalogue[ServerCertReq] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeCertificateRequest,
		writer:     WriterServer,
		// Client auth is out of scope: both handlers are absent. No
		// populated shape ever reaches this row (see shape.go); the
		// driver asserts unreachability rather than silently succeeding
		// if it ever is.
	}
	catalogue[ServerHelloDone] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeServerHelloDone,
		writer:     WriterServer,
		onServer:   buildServerHelloDone,
		onClient:   parseServerHelloDone,
	}
	catalogue[ClientCert] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeCertificate,
		writer:     WriterClient,
		// Unimplemented, see ServerCertReq above.
	}
	catalogue[ClientKey] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeClientKeyExchange,
		writer:     WriterClient,
		onClient:   buildClientKeyExchange,
		onServer:   parseClientKeyExchange,
	}
	catalogue[ClientCertVerify] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeCertificateVerify,
		writer:     WriterClient,
		// Unimplemented, see ServerCertReq above.
	}
	catalogue[ClientChangeCipherSpec] = descriptor{
		recordType: protocol.ContentTypeChangeCipherSpec,
		writer:     WriterClient,
		onClient:   buildChangeCipherSpec,
		onServer:   applyChangeCipherSpec,
	}
	catalogue[ClientFinished] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeFinished,
		writer:     WriterClient,
		onClient:   buildClientFinished,
		onServer:   parseClientFinished,
	}
	catalogue[ServerChangeCipherSpec] = descriptor{
		recordType: protocol.ContentTypeChangeCipherSpec,
		writer:     WriterServer,
		onServer:   buildChangeCipherSpec,
		onClient:   applyChangeCipherSpec,
	}
	catalogue[ServerFinished] = descriptor{
		recordType: protocol.ContentTypeHandshake,
		wireType:   handshake.TypeFinished,
		writer:     WriterServer,
		onServer:   buildServerFinished,
		onClient:   parseServerFinished,
	}
	catalogue[ApplicationData] = descriptor{
		recordType: protocol.ContentTypeApplicationData,
		writer:     WriterBoth,
	}
}

// descriptorAt returns the descriptor for a message id. Panics on an
// out-of-range id: the catalogue is closed and callers only ever index it
// with values drawn from a shape sequence.
func descriptorAt(m Message) *descriptor {
	if m < ClientHello || m > ApplicationData {
		panic("tls: message id out of range")
	}
	return &catalogue[m]
}
