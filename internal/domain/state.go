// Package domain contains entities without logic, just meta-data.
package domain

// PermissionState tracks microphone access as the platform reports it.
// Unknown covers both "never asked" and a failed passive probe; an explicit
// denial is only recorded from a user-gesture request.
type PermissionState string

const (
	PermissionUnknown PermissionState = "unknown"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// ConnectionState is owned exclusively by the session controller.
// Readers get snapshots; nothing else mutates it.
type ConnectionState string

const (
	ConnDisconnected ConnectionState = "disconnected"
	ConnConnecting   ConnectionState = "connecting"
	ConnConnected    ConnectionState = "connected"
	ConnError        ConnectionState = "error"
)
