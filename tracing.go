// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tls

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer names the span producer for this package, following the
// "module/package" convention the rest of the dependency-wiring plan's
// otel usage follows.
var tracer = otel.Tracer("github.com/kommander/handshaker")

// negotiateSpan opens the span covering one Negotiate call; each
// writer/reader turn inside it gets a child span from messageSpan. A
// handshake re-entered after ErrWouldBlock produces one such span per call.
func (c *Conn) negotiateSpan(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "tls.Negotiate",
		trace.WithAttributes(
			attribute.String("tls.mode", string(rune(c.mode()))),
			attribute.String("tls.shape", c.hs.shape.String()),
		),
	)
	return ctx, span
}

// messageSpan wraps one writer/reader turn in a child span, tagged with the
// logical message at the cursor when the turn began.
func (c *Conn) messageSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "tls."+op,
		trace.WithAttributes(
			attribute.String("tls.message", c.hs.currentMessage().String()),
		),
	)
}
