// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

import "github.com/pkg/errors"

// ErrWouldBlock is the sentinel a RecordLayer implementation returns from
// ReadFullRecord/Flush when the underlying transport is not yet ready
// (spec §6, §7 "Would-block"). It lives here, not in the root tls
// package, so that concrete RecordLayer implementations (e.g.
// pkg/protocol/recordlayer) can return it without importing back into the
// root package that consumes them.
var ErrWouldBlock = errors.New("protocol: would block")
