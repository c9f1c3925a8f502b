// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package session implements the session-resumption cache the driver
// consumes as an optional external collaborator (spec §6, §7).
package session

import (
	"encoding/hex"
	"sync"
)

// State is the cached material a resumed handshake needs. Its contents
// (master secret, cipher suite, negotiated extensions) are opaque to the
// driver; only the cache and the key/Finished handlers interpret them.
type State struct {
	MasterSecret []byte
	CipherSuiteID uint16
	Negotiated    map[string]string
}

// Cache is the narrow lookup/delete surface the driver's shape-selection
// and error-propagation logic needs (spec §6 "Session cache (consumed,
// optional)").
type Cache interface {
	Lookup(sessionID []byte) (*State, bool)
	Delete(sessionID []byte)
}

// InMemory is a process-local Cache backed by a mutex-guarded map. It is
// the default used by cmd/tlsdiag and by the driver's own tests; a
// production deployment would swap in a distributed cache behind the same
// interface without the driver noticing.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]*State
}

// NewInMemory returns an empty in-memory session cache.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*State)}
}

func key(sessionID []byte) string {
	return hex.EncodeToString(sessionID)
}

// Lookup returns the cached state for sessionID, if any.
func (c *InMemory) Lookup(sessionID []byte) (*State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[key(sessionID)]
	return s, ok
}

// Store records state under sessionID, overwriting any prior entry.
func (c *InMemory) Store(sessionID []byte, s *State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(sessionID)] = s
}

// Delete purges the entry for sessionID. Called by the driver only on a
// fatal, non-would-block handshake failure after a session id had been
// issued (spec §7), to keep a broken handshake from being resumable.
func (c *InMemory) Delete(sessionID []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key(sessionID))
}
