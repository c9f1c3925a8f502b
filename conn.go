// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/deadline"
	"github.com/pion/transport/v3/netctx"
	"github.com/zmap/zcrypto/tls"

	"github.com/kommander/handshaker/internal/closer"
	"github.com/kommander/handshaker/pkg/alert"
	"github.com/kommander/handshaker/pkg/session"
)

// Conn drives one TLS connection's handshake. It owns the handshake
// cursor/scratch/transcript state (handshakeState) plus the I/O plumbing
// around it; the record layer, payload callbacks, session cache, and
// socket cork are all external collaborators injected at construction.
//
// A Conn is driven by exactly one goroutine at a time (spec §5): nothing
// here is internally synchronized beyond the fields explicitly documented
// as safe for concurrent access (RemoteAddr, deadlines, Close).
type Conn struct {
	lock sync.RWMutex

	nextConn netctx.Conn // underlying transport, context-aware reads/writes
	rAddr    net.Addr

	rl        RecordLayer
	callbacks Callbacks
	cache     session.Cache
	cork      SocketCork
	alerts    alert.Processor

	hs *handshakeState

	log logging.LeveledLogger

	readDeadline  *deadline.Deadline
	writeDeadline *deadline.Deadline

	handshakeLog *tls.ServerHandshake

	closed                 *closer.Closer
	connectionClosedByUser bool
	closeLock              sync.Mutex
}

// Config bundles the external collaborators and options NewConn needs.
// Only RecordLayer and Callbacks are mandatory; the rest default to
// inert/no-op implementations matching spec §5's "optional" framing.
type Config struct {
	RecordLayer   RecordLayer
	Callbacks     Callbacks
	Cache         session.Cache // nil disables resumption
	Cork          SocketCork    // nil disables send coalescing
	Alerts        alert.Processor
	LoggerFactory logging.LoggerFactory
	CorkedIO      bool
}

// NewConn constructs a Conn in the given mode over nextConn. It does not
// itself perform any I/O; call Negotiate to drive the handshake.
func NewConn(nextConn net.Conn, rAddr net.Addr, mode Mode, cfg *Config) (*Conn, error) {
	if nextConn == nil {
		return nil, badMessage(ErrUnsupportedMessage, "nil underlying connection")
	}
	loggerFactory := cfg.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	cork := cfg.Cork
	if cork == nil {
		cork = newFlagCork()
	}

	alerts := cfg.Alerts
	if alerts == nil {
		alerts = defaultAlertProcessor{}
	}

	c := &Conn{
		nextConn:      netctx.NewConn(nextConn),
		rAddr:         rAddr,
		rl:            cfg.RecordLayer,
		callbacks:     cfg.Callbacks,
		cache:         cfg.Cache,
		cork:          cork,
		alerts:        alerts,
		hs:            newHandshakeState(mode),
		log:           loggerFactory.NewLogger("tls"),
		readDeadline:  deadline.New(),
		writeDeadline: deadline.New(),
		closed:        closer.NewCloser(),
	}
	c.hs.corkedIO = cfg.CorkedIO
	// Captured once, before this Conn ever calls Cork()/Uncork() itself:
	// §4.6 asks whether the socket "was already corked by the caller",
	// i.e. externally, not whether the driver's own bookkeeping currently
	// reports it corked mid-handshake.
	c.hs.callerPreCorked = cork.WasCorked()
	return c, nil
}

func (c *Conn) mode() Mode { return c.hs.mode }

// Mode exposes the connection's role to external Callbacks implementations
// that need to branch client/server logic (e.g. which side derives the
// ephemeral ECDHE keypair for ServerKeyExchange vs ClientKeyExchange).
func (c *Conn) Mode() Mode { return c.hs.mode }

// CurrentMessage exposes the cursor's logical message for tests and
// introspection (spec §6 "current_message").
func (c *Conn) CurrentMessage() Message {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.hs.currentMessage()
}

// CurrentShape exposes the negotiated shape for tests and introspection.
func (c *Conn) CurrentShape() Shape {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.hs.shape
}

// RemoteAddr returns the peer address, safe to call from any goroutine.
func (c *Conn) RemoteAddr() net.Addr {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.rAddr
}

// SetDeadline sets both read and write deadlines.
func (c *Conn) SetDeadline(t time.Time) error {
	c.readDeadline.Set(t)
	c.writeDeadline.Set(t)
	return nil
}

// SetReadDeadline sets the read deadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline.Set(t)
	return nil
}

// SetWriteDeadline sets the write deadline.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline.Set(t)
	return nil
}

// GetHandshakeLog returns the structured, zcrypto-shaped record of the
// handshake so far: ClientHello/ServerHello/Finished, for post-handshake
// introspection (offline analysis, scanning tools). Populated
// incrementally by a Callbacks implementation calling the Record*
// methods below as it builds or parses each message; nil until the
// first one completes.
func (c *Conn) GetHandshakeLog() *tls.ServerHandshake {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.handshakeLog
}

func (c *Conn) ensureHandshakeLog() *tls.ServerHandshake {
	if c.handshakeLog == nil {
		c.handshakeLog = &tls.ServerHandshake{}
	}
	return c.handshakeLog
}

// RecordClientHello lets a Callbacks implementation feed the structured
// ClientHello log entry (MessageClientHello.MakeLog) into GetHandshakeLog,
// from either BuildClientHello or ParseClientHello depending on Mode.
// The Record* methods take no lock of their own: they run inside a
// Callbacks method, while Negotiate already holds the Conn's lock.
func (c *Conn) RecordClientHello(h *tls.ClientHello) {
	c.ensureHandshakeLog().ClientHello = h
}

// RecordServerHello is RecordClientHello's counterpart for ServerHello.
func (c *Conn) RecordServerHello(h *tls.ServerHello) {
	c.ensureHandshakeLog().ServerHello = h
}

// RecordClientFinished is RecordClientHello's counterpart for the
// client's Finished message.
func (c *Conn) RecordClientFinished(f *tls.Finished) {
	c.ensureHandshakeLog().ClientFinished = f
}

// RecordServerFinished is RecordClientHello's counterpart for the
// server's Finished message.
func (c *Conn) RecordServerFinished(f *tls.Finished) {
	c.ensureHandshakeLog().ServerFinished = f
}

// defaultAlertProcessor is the policy a Conn falls back to when the caller
// supplies no alert.Processor: fatal alerts fail the connection, warnings
// are swallowed. A caller that cares about logging or close_notify
// bookkeeping supplies its own Processor through Config.Alerts instead.
type defaultAlertProcessor struct{}

func (defaultAlertProcessor) Process(a *alert.Alert) error {
	if a.Level == alert.LevelFatal {
		return badMessage(ErrPeerAlert, a.Description.String())
	}
	return nil
}

// killConnection marks the connection unusable after a fatal error and,
// if session caching is active and a session id had been issued for it,
// purges the cache entry (spec §7 propagation policy).
func (c *Conn) killConnection() {
	if c.cache != nil && c.hs.sessionIDLen > 0 {
		c.cache.Delete(c.hs.sessionID)
	}
	c.closed.Close()
}

// Close releases the connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeLock.Lock()
	defer c.closeLock.Unlock()
	c.connectionClosedByUser = true
	c.closed.Close()
	return c.nextConn.Close()
}

// readCtx builds a context bound to the read deadline, for RecordLayer and
// netctx reads that want cooperative would-block behavior instead of a
// blocking syscall.
func (c *Conn) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := c.readDeadline.Get(); !t.IsZero() {
		return context.WithDeadline(ctx, t)
	}
	return context.WithCancel(ctx)
}

func (c *Conn) writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := c.writeDeadline.Get(); !t.IsZero() {
		return context.WithDeadline(ctx, t)
	}
	return context.WithCancel(ctx)
}
