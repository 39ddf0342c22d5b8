package core

import (
	"context"
	"io"

	"github.com/keriat/voiceline/internal/domain"
)

// CredentialSource issues one connection-details tuple per call.
// Implementations never cache: every connect attempt gets fresh credentials.
type CredentialSource interface {
	Fetch(ctx context.Context) (domain.ConnectionDetails, error)
}

// CaptureSession is a live microphone stream (Ogg/Opus).
// Owned by whoever opened it; the owner must Close() it.
type CaptureSession interface {
	io.Reader
	Close() error
}

// CaptureDevice abstracts the platform microphone boundary.
type CaptureDevice interface {
	// Probe opens the device and releases it immediately. A failure means
	// "not granted yet", not a hard error: probing before explicit user
	// intent is expected to fail on many platforms.
	Probe(ctx context.Context) error

	// Open acquires the device for capture. Called on a user gesture;
	// a failure here is an explicit denial.
	Open(ctx context.Context) (CaptureSession, error)
}

// RoomConnection is one attempt at joining a real-time room. A connection
// is single-use: Connect at most once, then Close. Callbacks must be
// registered before Connect.
type RoomConnection interface {
	// Connect dials the credential-supplied server, negotiates media and
	// publishes the local microphone track. Blocks until the room is
	// joined or the attempt fails.
	Connect(ctx context.Context, details domain.ConnectionDetails) error

	// OnDeviceFailure fires when the capture stream dies mid-session.
	// The room itself stays up.
	OnDeviceFailure(fn func(error))

	// OnClosed fires once when the connection ends, whatever the cause.
	OnClosed(fn func())

	// Close tears the connection down and releases the capture stream.
	// Idempotent.
	Close()
}

// RoomFactory produces a fresh RoomConnection per connect attempt.
type RoomFactory func() RoomConnection
