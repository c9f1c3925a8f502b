// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package alert implements the TLS alert protocol bodies and the
// alert-processor interface the driver hands interleaved alert records to
// (spec §4.5 "ALERT"). The driver itself never interprets alert contents:
// it only recognizes the ALERT content type and delegates.
package alert

import "github.com/pkg/errors"

// Level is the first byte of an alert body.
type Level byte

const (
	LevelWarning Level = 1
	LevelFatal   Level = 2
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Description is the second byte of an alert body.
type Description byte

// A subset of RFC 5246 §7.2 descriptions; enough for the end-to-end
// scenarios this driver is tested against.
const (
	DescriptionCloseNotify            Description = 0
	DescriptionUnexpectedMessage      Description = 10
	DescriptionNoCertificateRESERVED  Description = 41
	DescriptionHandshakeFailure       Description = 40
	DescriptionBadCertificate         Description = 42
	DescriptionCertificateUnknown     Description = 46
	DescriptionProtocolVersion        Description = 70
	DescriptionDecryptError           Description = 51
)

func (d Description) String() string {
	switch d {
	case DescriptionCloseNotify:
		return "close_notify"
	case DescriptionUnexpectedMessage:
		return "unexpected_message"
	case DescriptionHandshakeFailure:
		return "handshake_failure"
	case DescriptionBadCertificate:
		return "bad_certificate"
	case DescriptionCertificateUnknown:
		return "certificate_unknown"
	case DescriptionProtocolVersion:
		return "protocol_version"
	case DescriptionDecryptError:
		return "decrypt_error"
	default:
		return "unknown"
	}
}

// Alert is the 2-byte alert record body.
type Alert struct {
	Level       Level
	Description Description
}

var errAlertBodyTooSmall = errors.New("alert: body must be exactly 2 bytes")

// Unmarshal decodes an alert body.
func (a *Alert) Unmarshal(data []byte) error {
	if len(data) != 2 {
		return errAlertBodyTooSmall
	}
	a.Level = Level(data[0])
	a.Description = Description(data[1])
	return nil
}

// Marshal encodes an alert body.
func (a *Alert) Marshal() ([]byte, error) {
	return []byte{byte(a.Level), byte(a.Description)}, nil
}

// Processor is the external collaborator the driver's reader hands every
// interleaved ALERT record to (spec §4.5, §7 "Alert received"). A fatal
// alert should be surfaced as an error; a warning alert may be logged and
// swallowed.
type Processor interface {
	Process(a *Alert) error
}

// Func adapts a plain function to Processor.
type Func func(a *Alert) error

// Process implements Processor.
func (f Func) Process(a *Alert) error { return f(a) }
