// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "github.com/pkg/errors"

var errBufferTooSmall = errors.New("handshake: buffer too small to unmarshal message")
