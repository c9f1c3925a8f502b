// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Command tlsdiag drives one real TLS 1.2 handshake over a TCP socket. It
// logs the cursor and shape each time Negotiate returns early (would-block
// or failure) and the final shape on success; a handshake that completes
// in one Negotiate call logs only that final line. It is a thin wiring
// exercise over the driver, pkg/handshakeimpl, pkg/protocol/recordlayer,
// and pkg/session: not a production TLS terminator.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/pion/logging"
	flag "github.com/spf13/pflag"

	tlsdriver "github.com/kommander/handshaker"
	"github.com/kommander/handshaker/pkg/handshakeimpl"
	"github.com/kommander/handshaker/pkg/protocol"
	"github.com/kommander/handshaker/pkg/protocol/recordlayer"
	"github.com/kommander/handshaker/pkg/session"
)

var (
	flagListen  = flag.String("listen", "", "listen address; run as server")
	flagConnect = flag.String("connect", "", "address to dial; run as client")
)

func main() {
	flag.Parse()

	if (*flagListen == "") == (*flagConnect == "") {
		fmt.Fprintln(os.Stderr, "tlsdiag: exactly one of --listen or --connect is required")
		os.Exit(2)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	log := loggerFactory.NewLogger("tlsdiag")

	var conn net.Conn
	var mode tlsdriver.Mode
	var err error
	if *flagListen != "" {
		conn, err = acceptOnce(*flagListen)
		mode = tlsdriver.ModeServer
	} else {
		conn, err = net.Dial("tcp", *flagConnect)
		mode = tlsdriver.ModeClient
	}
	if err != nil {
		log.Errorf("tlsdiag: establishing TCP connection: %v", err)
		os.Exit(1)
	}
	defer conn.Close()

	rl := recordlayer.NewStreamRecordLayer(conn, protocol.Version1_2)
	callbacks, err := handshakeimpl.New(rl)
	if err != nil {
		log.Errorf("tlsdiag: constructing callbacks: %v", err)
		os.Exit(1)
	}

	tlsConn, err := tlsdriver.NewConn(conn, conn.RemoteAddr(), mode, &tlsdriver.Config{
		RecordLayer:   rl,
		Callbacks:     callbacks,
		Cache:         session.NewInMemory(),
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		log.Errorf("tlsdiag: constructing connection: %v", err)
		os.Exit(1)
	}

	if err := runHandshake(tlsConn, log); err != nil {
		log.Errorf("tlsdiag: handshake failed at %s (shape %s): %v", tlsConn.CurrentMessage(), tlsConn.CurrentShape(), err)
		os.Exit(1)
	}

	log.Infof("tlsdiag: handshake complete, shape=%s", tlsConn.CurrentShape())
}

// runHandshake drives Negotiate to completion, retrying only on
// ErrWouldBlock (which a real blocking TCP socket with no deadline set
// should never actually return, but the driver's contract allows it).
func runHandshake(c *tlsdriver.Conn, log logging.LeveledLogger) error {
	ctx := context.Background()
	last := tlsdriver.Message(-1)
	for {
		_, err := c.Negotiate(ctx)
		if err == nil {
			return nil
		}
		if cur := c.CurrentMessage(); cur != last {
			log.Infof("tlsdiag: reached %s (shape %s)", cur, c.CurrentShape())
			last = cur
		}
		if !errors.Is(err, tlsdriver.ErrWouldBlock) {
			return err
		}
	}
}

// acceptOnce listens on addr, accepts exactly one connection, and closes
// the listener: tlsdiag diagnoses one handshake per invocation.
func acceptOnce(addr string) (net.Conn, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return ln.Accept()
}
