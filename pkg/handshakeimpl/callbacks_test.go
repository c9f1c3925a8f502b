// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshakeimpl_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"context"

	"github.com/stretchr/testify/require"

	tlsdriver "github.com/kommander/handshaker"
	"github.com/kommander/handshaker/pkg/handshakeimpl"
	"github.com/kommander/handshaker/pkg/protocol"
	"github.com/kommander/handshaker/pkg/protocol/recordlayer"
)

// runToCompletion drives both ends of a real net.Pipe handshake until each
// reaches ApplicationData or a test-configured deadline expires, returning
// each side's terminal error (nil on success). Mirrors the root package's
// own driver_test.go harness.
func runToCompletion(t *testing.T, client, server *tlsdriver.Conn) (clientErr, serverErr error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for client.CurrentMessage() != tlsdriver.ApplicationData {
			if _, err := client.Negotiate(ctx); err != nil {
				clientErr = err
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for server.CurrentMessage() != tlsdriver.ApplicationData {
			if _, err := server.Negotiate(ctx); err != nil {
				serverErr = err
				return
			}
		}
	}()
	wg.Wait()
	return clientErr, serverErr
}

func newPair(t *testing.T, clientConn, serverConn net.Conn) (client, server *tlsdriver.Conn) {
	t.Helper()
	clientRL := recordlayer.NewStreamRecordLayer(clientConn, protocol.Version1_2)
	serverRL := recordlayer.NewStreamRecordLayer(serverConn, protocol.Version1_2)

	clientCB, err := handshakeimpl.New(clientRL)
	require.NoError(t, err)
	serverCB, err := handshakeimpl.New(serverRL)
	require.NoError(t, err)

	client, err = tlsdriver.NewConn(clientConn, nil, tlsdriver.ModeClient, &tlsdriver.Config{
		RecordLayer: clientRL,
		Callbacks:   clientCB,
	})
	require.NoError(t, err)
	server, err = tlsdriver.NewConn(serverConn, nil, tlsdriver.ModeServer, &tlsdriver.Config{
		RecordLayer: serverRL,
		Callbacks:   serverCB,
	})
	require.NoError(t, err)
	return client, server
}

func TestRealHandshakeCompletes(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client, server := newPair(t, clientConn, serverConn)

	clientErr, serverErr := runToCompletion(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	wantShape := tlsdriver.Negotiated | tlsdriver.FullHandshake | tlsdriver.PerfectForwardSecrecy
	require.Equal(t, wantShape, client.CurrentShape())
	require.Equal(t, wantShape, server.CurrentShape())
}

// corruptingConn flips the last byte of the n-th Write call through to the
// underlying net.Conn, simulating an on-wire bit flip.
type corruptingConn struct {
	net.Conn
	mu      sync.Mutex
	writeAt int
	writes  int
}

func (c *corruptingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	c.writes++
	n := c.writes
	c.mu.Unlock()

	if n == c.writeAt && len(b) > 0 {
		corrupted := append([]byte{}, b...)
		corrupted[len(corrupted)-1] ^= 0xFF
		return c.Conn.Write(corrupted)
	}
	return c.Conn.Write(b)
}

// TestRealHandshakeRejectsTamperedFinished corrupts the wire bytes of the
// client's fourth write, ClientFinished's encrypted record (ClientHello,
// ClientKeyExchange, ClientChangeCipherSpec precede it), and checks the
// server's GCM unprotect rejects it instead of silently accepting garbage
// as valid verify-data.
func TestRealHandshakeRejectsTamperedFinished(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	tamperingClientConn := &corruptingConn{Conn: clientConn, writeAt: 4}
	client, server := newPair(t, tamperingClientConn, serverConn)

	_, serverErr := runToCompletion(t, client, server)
	require.Error(t, serverErr)
}
