package rtc

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func TestSignalURL(t *testing.T) {
	req := require.New(t)

	for in, want := range map[string]string{
		"wss://rtc.example.com/join": "wss://rtc.example.com/join",
		"ws://localhost:8080":        "ws://localhost:8080",
		"https://rtc.example.com":    "wss://rtc.example.com",
		"http://localhost:8080":      "ws://localhost:8080",
	} {
		got, err := signalURL(in)
		req.NoError(err)
		req.Equal(want, got)
	}

	_, err := signalURL("ftp://nope")
	req.Error(err)
}

func TestHandleEnvelope_Answer(t *testing.T) {
	req := require.New(t)
	r := NewRoom(DefaultWebRTCConfig(), nil)

	req.NoError(r.handleEnvelope([]byte(`{"type":"answer","sdp":"v=0"}`)))

	select {
	case answer := <-r.answerCh:
		req.Equal(webrtc.SDPTypeAnswer, answer.Type)
		req.Equal("v=0", answer.SDP)
	default:
		t.Fatal("answer was not delivered")
	}
}

func TestHandleEnvelope_ServerError(t *testing.T) {
	req := require.New(t)
	r := NewRoom(DefaultWebRTCConfig(), nil)

	req.NoError(r.handleEnvelope([]byte(`{"type":"error","reason":"token expired"}`)))

	select {
	case err := <-r.joinErrCh:
		req.Contains(err.Error(), "token expired")
	default:
		t.Fatal("join error was not delivered")
	}
}

func TestHandleEnvelope_Malformed(t *testing.T) {
	req := require.New(t)
	r := NewRoom(DefaultWebRTCConfig(), nil)

	req.Error(r.handleEnvelope([]byte(`not json`)))
	req.Error(r.handleEnvelope([]byte(`{"sdp":"v=0"}`)))
	req.Error(r.handleEnvelope([]byte(`{"type":"candidate"}`)))

	// Unknown frame types are ignored, not errors.
	req.NoError(r.handleEnvelope([]byte(`{"type":"participant-joined"}`)))
}
