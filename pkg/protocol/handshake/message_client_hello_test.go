// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"reflect"
	"testing"

	"github.com/kommander/handshaker/pkg/protocol"
)

func TestHandshakeMessageClientHello(t *testing.T) {
	rawClientHello := []byte{
		0x03, 0x03, 0x21, 0x63, 0x32, 0x21, 0x81, 0x0e, 0x98, 0x6c,
		0x85, 0x3d, 0xa4, 0x39, 0xaf, 0x5f, 0xd6, 0x5c, 0xcc, 0x20,
		0x7f, 0x7c, 0x78, 0xf1, 0x5f, 0x7e, 0x1c, 0xb7, 0xa1, 0x1e,
		0xcf, 0x63, 0x84, 0x28,
		0x00, // session id length
		0x00, 0x04, 0xc0, 0x2f, 0x00, 0x2f, // cipher suites length + 2 suites
		0x01, 0x00, // compression methods length + null
		0x00, 0x00, // extensions (empty)
	}

	parsedClientHello := &MessageClientHello{
		Version: protocol.Version1_2,
		Random: [RandomLength]byte{
			0x21, 0x63, 0x32, 0x21, 0x81, 0x0e, 0x98, 0x6c, 0x85, 0x3d,
			0xa4, 0x39, 0xaf, 0x5f, 0xd6, 0x5c, 0xcc, 0x20, 0x7f, 0x7c,
			0x78, 0xf1, 0x5f, 0x7e, 0x1c, 0xb7, 0xa1, 0x1e, 0xcf, 0x63,
			0x84, 0x28,
		},
		SessionID:          []byte{},
		CipherSuiteIDs:      []uint16{0xc02f, 0x002f},
		CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
		RawExtensions:      []byte{0x00, 0x00},
	}

	c := &MessageClientHello{}
	if err := c.Unmarshal(rawClientHello); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, parsedClientHello) {
		t.Errorf("handshakeMessageClientHello unmarshal: got %#v, want %#v", c, parsedClientHello)
	}

	raw, err := c.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(raw, rawClientHello) {
		t.Errorf("handshakeMessageClientHello marshal: got %#v, want %#v", raw, rawClientHello)
	}
}
