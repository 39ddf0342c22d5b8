// Package session owns the permission and connection state of one
// voice-assistant session and mediates between the capture device, the
// credential issuer and the room transport.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keriat/voiceline/internal/core"
	"github.com/keriat/voiceline/internal/domain"
)

// Snapshot is the read-only view the presentation layer renders from.
type Snapshot struct {
	Permission domain.PermissionState
	Connection domain.ConnectionState
	// Err carries the reason while Connection == ConnError.
	Err error
	// Notice is a dismissable user-visible message ("" when none).
	Notice string
	// ProbeErr records why the last passive probe failed. Diagnostics
	// only: a failed probe still renders as "not yet granted", but this
	// keeps a true prior denial from being invisible.
	ProbeErr error
}

// Controller is constructed once per active session and torn down with
// Close. It is safe for use from multiple goroutines, but actions are
// expected to be serialized by the UI (no affordance is shown while one
// is in flight).
type Controller struct {
	creds  core.CredentialSource
	device core.CaptureDevice
	rooms  core.RoomFactory
	log    zerolog.Logger

	mu       sync.Mutex
	perm     domain.PermissionState
	conn     domain.ConnectionState
	lastErr  error
	notice   string
	probeErr error
	room     core.RoomConnection

	onChange func()
}

func NewController(creds core.CredentialSource, device core.CaptureDevice, rooms core.RoomFactory) *Controller {
	return &Controller{
		creds:  creds,
		device: device,
		rooms:  rooms,
		log:    log.With().Str("module", "session").Logger(),
		perm:   domain.PermissionUnknown,
		conn:   domain.ConnDisconnected,
	}
}

// OnChange registers the re-render notification. Called after every state
// mutation, outside the controller's lock.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Permission: c.perm, Connection: c.conn, Err: c.lastErr, Notice: c.notice, ProbeErr: c.probeErr}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// CheckPermission probes the device without user interaction. A probe
// failure is expected when nothing was granted before, so it never
// produces an error state; the cause is kept for diagnostics only.
func (c *Controller) CheckPermission(ctx context.Context) {
	err := c.device.Probe(ctx)

	c.mu.Lock()
	if err == nil {
		c.perm = domain.PermissionGranted
		c.probeErr = nil
	} else {
		c.perm = domain.PermissionUnknown
		c.probeErr = err
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Debug().Err(err).Msg("permission probe failed, treating as not granted")
	}
	c.notify()
}

// RequestPermissionAndConnect explicitly acquires the microphone (a user
// gesture) and, on success, runs the full connect sequence.
func (c *Controller) RequestPermissionAndConnect(ctx context.Context) error {
	s, err := c.device.Open(ctx)
	if err != nil {
		c.mu.Lock()
		c.perm = domain.PermissionDenied
		c.notice = "Microphone access was denied. Grant access in your system settings and try again."
		c.mu.Unlock()
		c.notify()
		c.log.Warn().Err(err).Msg("microphone request denied")
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	// The grant is what we needed; the transport re-acquires the device.
	_ = s.Close()

	c.mu.Lock()
	c.perm = domain.PermissionGranted
	c.probeErr = nil
	c.mu.Unlock()
	c.notify()

	return c.Connect(ctx)
}

// Connect runs the sequence: fetch credentials, join the room, publish the
// microphone. Allowed only with permission granted and no session in
// flight; an error state re-enters the sequence from scratch.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.perm != domain.PermissionGranted {
		c.mu.Unlock()
		return fmt.Errorf("%w: connect requires granted microphone access", domain.ErrPermissionDenied)
	}
	if c.conn == domain.ConnConnecting || c.conn == domain.ConnConnected {
		c.mu.Unlock()
		return domain.ErrSessionActive
	}
	c.conn = domain.ConnConnecting
	c.lastErr = nil
	c.mu.Unlock()
	c.notify()

	details, err := c.creds.Fetch(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	room := c.rooms()
	room.OnDeviceFailure(func(err error) { c.deviceFailure(room, err) })
	room.OnClosed(func() { c.roomClosed(room) })

	if err := room.Connect(ctx, details); err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.room = room
	c.conn = domain.ConnConnected
	c.mu.Unlock()
	c.notify()

	c.log.Info().Str("room", details.RoomName).Str("participant", details.ParticipantName).Msg("session connected")
	return nil
}

// Disconnect tears down the active connection and releases the capture
// track. Idempotent: a no-op when nothing is connected.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	room := c.room
	c.room = nil
	if room == nil {
		c.mu.Unlock()
		return
	}
	c.conn = domain.ConnDisconnected
	c.mu.Unlock()

	room.Close()
	c.notify()
	c.log.Info().Msg("session disconnected")
}

// DismissNotice clears the current user notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	changed := c.notice != ""
	c.notice = ""
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// Close is the deterministic end of the session's lifetime. Every
// registered observer dies with the room handle it was scoped to.
func (c *Controller) Close() {
	c.Disconnect()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.conn = domain.ConnError
	c.lastErr = err
	c.mu.Unlock()
	c.notify()
	c.log.Error().Err(err).Msg("connect failed")
}

// deviceFailure surfaces a mid-session capture loss. The room stays
// connected until the user leaves.
func (c *Controller) deviceFailure(room core.RoomConnection, err error) {
	c.mu.Lock()
	if c.room != room {
		c.mu.Unlock()
		return
	}
	c.notice = "Microphone failure: " + err.Error()
	c.mu.Unlock()
	c.notify()
	c.log.Error().Err(err).Msg("device failure while connected")
}

// roomClosed handles the transport ending on its own (server close, media
// failure). Events from a handle that is no longer current are dropped.
func (c *Controller) roomClosed(room core.RoomConnection) {
	c.mu.Lock()
	if c.room != room {
		c.mu.Unlock()
		return
	}
	c.room = nil
	c.conn = domain.ConnDisconnected
	c.mu.Unlock()
	c.notify()
	c.log.Info().Msg("room connection ended")
}
