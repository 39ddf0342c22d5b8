// Package rtc joins a real-time audio room: websocket signaling against the
// credential-supplied server, a pion peer connection for media, and the
// local microphone published as an Opus track.
package rtc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keriat/voiceline/internal/core"
	"github.com/keriat/voiceline/internal/domain"
)

const (
	sampleRateHz = 48000

	handshakeTimeout = 10 * time.Second
	joinTimeout      = 15 * time.Second
	writeTimeout     = 5 * time.Second

	sendBuffer = 32
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Room is a single-use connection to one real-time room.
type Room struct {
	cfg    webrtc.Configuration
	device core.CaptureDevice
	log    zerolog.Logger

	mu      sync.Mutex
	pc      *webrtc.PeerConnection
	ws      *websocket.Conn
	capture core.CaptureSession

	send      chan []byte
	answerCh  chan webrtc.SessionDescription
	joinErrCh chan error

	cancel    context.CancelFunc
	closeOnce sync.Once
	closedCb  sync.Once

	onDeviceFailure func(error)
	onClosed        func()
}

func NewRoom(cfg webrtc.Configuration, device core.CaptureDevice) *Room {
	return &Room{
		cfg:       cfg,
		device:    device,
		log:       log.With().Str("module", "rtc").Logger(),
		send:      make(chan []byte, sendBuffer),
		answerCh:  make(chan webrtc.SessionDescription, 1),
		joinErrCh: make(chan error, 1),
	}
}

func (r *Room) OnDeviceFailure(fn func(error)) { r.onDeviceFailure = fn }

func (r *Room) OnClosed(fn func()) { r.onClosed = fn }

// Connect performs the full join sequence. The caller's ctx governs only
// the join phase; once connected the session lives until Close.
func (r *Room) Connect(ctx context.Context, details domain.ConnectionDetails) error {
	wsURL, err := signalURL(details.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+details.ParticipantToken)

	ws, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: signaling dial: %v (%s)", domain.ErrTransportConnect, err, resp.Status)
		}
		return fmt.Errorf("%w: signaling dial: %v", domain.ErrTransportConnect, err)
	}

	capture, err := r.device.Open(ctx)
	if err != nil {
		_ = ws.Close()
		return fmt.Errorf("%w: enable microphone: %v", domain.ErrTransportConnect, err)
	}

	pc, err := webrtc.NewPeerConnection(r.cfg)
	if err != nil {
		_ = ws.Close()
		_ = capture.Close()
		return fmt.Errorf("%w: peer connection: %v", domain.ErrTransportConnect, err)
	}

	r.mu.Lock()
	r.ws = ws
	r.pc = pc
	r.capture = capture
	r.mu.Unlock()

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: sampleRateHz, Channels: 1},
		"microphone", "voiceline",
	)
	if err == nil {
		_, err = pc.AddTrack(track)
	}
	if err != nil {
		r.Close()
		return fmt.Errorf("%w: publish track: %v", domain.ErrTransportConnect, err)
	}

	connected := make(chan struct{}, 1)
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		r.log.Info().Str("peer_connection_state", s.String()).Msg("peer state")
		switch s {
		case webrtc.PeerConnectionStateConnected:
			select {
			case connected <- struct{}{}:
			default:
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			r.closed()
		}
	})

	sctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.writePump(sctx)
	go r.readPump(sctx)

	if err := r.enqueue(envelope{
		Type:        msgJoin,
		Token:       details.ParticipantToken,
		Room:        details.RoomName,
		Participant: details.ParticipantName,
	}); err != nil {
		r.Close()
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, err)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		r.Close()
		return fmt.Errorf("%w: create offer: %v", domain.ErrTransportConnect, err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		r.Close()
		return fmt.Errorf("%w: set local description: %v", domain.ErrTransportConnect, err)
	}
	<-gatherComplete

	if err := r.enqueue(envelope{Type: msgOffer, SDP: pc.LocalDescription().SDP}); err != nil {
		r.Close()
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, err)
	}

	if err := r.awaitJoin(ctx, connected); err != nil {
		r.Close()
		return err
	}

	go r.publish(sctx, track)
	r.log.Info().Str("room", details.RoomName).Msg("room joined")
	return nil
}

// awaitJoin waits for the remote answer, then for ICE to converge.
func (r *Room) awaitJoin(ctx context.Context, connected <-chan struct{}) error {
	deadline := time.NewTimer(joinTimeout)
	defer deadline.Stop()

	select {
	case answer := <-r.answerCh:
		if err := r.pc.SetRemoteDescription(answer); err != nil {
			return fmt.Errorf("%w: set remote description: %v", domain.ErrTransportConnect, err)
		}
	case err := <-r.joinErrCh:
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, err)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, ctx.Err())
	case <-deadline.C:
		return fmt.Errorf("%w: no answer before deadline", domain.ErrTransportConnect)
	}

	select {
	case <-connected:
		return nil
	case err := <-r.joinErrCh:
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, err)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrTransportConnect, ctx.Err())
	case <-deadline.C:
		return fmt.Errorf("%w: media never connected", domain.ErrTransportConnect)
	}
}

func (r *Room) enqueue(env envelope) error {
	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	select {
	case r.send <- data:
		return nil
	default:
		return fmt.Errorf("signal send buffer full")
	}
}

func (r *Room) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-r.send:
			if !ok {
				return
			}
			if err := r.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				r.log.Debug().Err(err).Msg("writePump set deadline")
				return
			}
			if err := r.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				r.log.Debug().Err(err).Msg("writePump write")
				return
			}
		}
	}
}

func (r *Room) readPump(ctx context.Context) {
	defer r.closed()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := r.ws.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					r.log.Debug().Err(err).Msg("readPump read")
					select {
					case r.joinErrCh <- err:
					default:
					}
				}
				return
			}
			if err := r.handleEnvelope(data); err != nil {
				r.log.Warn().Err(err).Msg("bad signal frame")
			}
		}
	}
}

func (r *Room) handleEnvelope(data []byte) error {
	env, err := decodeEnvelope(data)
	if err != nil {
		return err
	}
	switch env.Type {
	case msgAnswer:
		select {
		case r.answerCh <- webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: env.SDP}:
		default:
		}
	case msgCandidate:
		if env.Candidate == nil {
			return fmt.Errorf("candidate frame without candidate")
		}
		r.mu.Lock()
		pc := r.pc
		r.mu.Unlock()
		if pc != nil {
			return pc.AddICECandidate(*env.Candidate)
		}
	case msgError:
		select {
		case r.joinErrCh <- fmt.Errorf("server rejected session: %s", env.Reason):
		default:
		}
	default:
		r.log.Debug().Str("type", env.Type).Msg("ignoring signal frame")
	}
	return nil
}

// publish pumps Ogg pages from the capture stream into the local track.
// Pacing comes from the capture process itself (live source, 20 ms pages).
func (r *Room) publish(ctx context.Context, track *webrtc.TrackLocalStaticSample) {
	ogg, _, err := oggreader.NewWith(r.capture)
	if err != nil {
		r.deviceFailed(ctx, err)
		return
	}

	var lastGranule uint64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		page, hdr, err := ogg.ParseNextPage()
		if err != nil {
			r.deviceFailed(ctx, err)
			return
		}

		sampleCount := hdr.GranulePosition - lastGranule
		lastGranule = hdr.GranulePosition
		duration := time.Duration(sampleCount) * time.Second / sampleRateHz

		if err := track.WriteSample(media.Sample{Data: page, Duration: duration}); err != nil {
			r.log.Debug().Err(err).Msg("write sample")
			return
		}
	}
}

// deviceFailed reports a mid-session capture loss. The room stays up:
// leaving is the user's call.
func (r *Room) deviceFailed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	r.log.Error().Err(err).Msg("capture stream lost")
	if r.onDeviceFailure != nil {
		r.onDeviceFailure(fmt.Errorf("%w: %v", domain.ErrDeviceRuntime, err))
	}
}

func (r *Room) closed() {
	r.closedCb.Do(func() {
		if r.onClosed != nil {
			r.onClosed()
		}
	})
}

// Close tears down signaling, media and the capture stream. Idempotent.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.mu.Lock()
		ws, pc, capture := r.ws, r.pc, r.capture
		r.mu.Unlock()
		if capture != nil {
			_ = capture.Close()
		}
		if pc != nil {
			if err := pc.Close(); err != nil {
				r.log.Error().Err(err).Msg("close peer connection")
			}
		}
		if ws != nil {
			_ = ws.Close()
		}
		r.log.Info().Msg("room connection closed")
	})
	r.closed()
}
