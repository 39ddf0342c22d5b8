package rtc

import (
	"fmt"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
)

// envelope is the JSON signaling frame exchanged with the room server.
// The client sends join/offer/candidate; the server replies with
// answer/candidate/error.
type envelope struct {
	Type        string                   `json:"type"`
	SDP         string                   `json:"sdp,omitempty"`
	Candidate   *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Token       string                   `json:"token,omitempty"`
	Room        string                   `json:"room,omitempty"`
	Participant string                   `json:"participant,omitempty"`
	Reason      string                   `json:"reason,omitempty"`
}

const (
	msgJoin      = "join"
	msgOffer     = "offer"
	msgAnswer    = "answer"
	msgCandidate = "candidate"
	msgError     = "error"
)

func encodeEnvelope(env envelope) ([]byte, error) {
	return json.Marshal(env)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("bad signal frame: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("signal frame missing type")
	}
	return env, nil
}

// signalURL maps the credential-supplied server address onto a websocket
// endpoint. http(s) schemes are accepted for convenience.
func signalURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("bad server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	return u.String(), nil
}
