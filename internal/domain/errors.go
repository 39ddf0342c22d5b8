package domain

import "errors"

// Failure taxonomy. Every failure is terminal for the in-flight action;
// recovery is always a user-initiated repeat, never an automatic retry.
var (
	// ErrPermissionDenied: the user declined microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrCredentialFetch: the issuing endpoint was unreachable or returned
	// a non-2xx status or a malformed body.
	ErrCredentialFetch = errors.New("credential fetch failed")

	// ErrTransportConnect: the room-join step failed (bad/expired token,
	// signaling failure, ICE never converged).
	ErrTransportConnect = errors.New("transport connect failed")

	// ErrDeviceRuntime: the capture device failed mid-session. The session
	// stays connected; the user decides whether to leave.
	ErrDeviceRuntime = errors.New("capture device failure")

	// ErrSessionActive: a connect was attempted while one is already in
	// flight or established.
	ErrSessionActive = errors.New("session already active")
)
