// Package ui derives what to show from session state. It holds no
// authoritative state of its own and does no network or device I/O.
package ui

import "github.com/keriat/voiceline/internal/domain"

// Affordance is the single actionable surface for a given state.
type Affordance string

const (
	// AffordanceRequestPermission: microphone not granted, offer the
	// explicit access request.
	AffordanceRequestPermission Affordance = "request-permission"
	// AffordanceStart: ready to start a conversation.
	AffordanceStart Affordance = "start"
	// AffordanceConnecting: transitional, nothing actionable.
	AffordanceConnecting Affordance = "connecting"
	// AffordanceLive: connected; live indicator plus the leave control.
	AffordanceLive Affordance = "live"
	// AffordanceError: dismissable error notice offering a retry.
	AffordanceError Affordance = "error"
)

// View is the decision table over {PermissionState, ConnectionState}.
func View(perm domain.PermissionState, conn domain.ConnectionState) Affordance {
	switch conn {
	case domain.ConnConnecting:
		return AffordanceConnecting
	case domain.ConnConnected:
		return AffordanceLive
	case domain.ConnError:
		return AffordanceError
	}
	if perm == domain.PermissionGranted {
		return AffordanceStart
	}
	return AffordanceRequestPermission
}
