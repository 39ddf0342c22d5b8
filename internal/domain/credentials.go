package domain

import "errors"

var (
	ErrMissingServerURL = errors.New("connection details missing serverUrl")
	ErrMissingToken     = errors.New("connection details missing participantToken")
)

// ConnectionDetails is the one-shot credential tuple issued by the backend.
// Immutable once fetched; handed to the transport and discarded, never cached.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	ParticipantToken string `json:"participantToken"`
	RoomName         string `json:"roomName"`
	ParticipantName  string `json:"participantName"`
}

// Validate keeps malformed issuer responses out of the connect path.
// Room and participant names are informational and may be empty.
func (d ConnectionDetails) Validate() error {
	if d.ServerURL == "" {
		return ErrMissingServerURL
	}
	if d.ParticipantToken == "" {
		return ErrMissingToken
	}
	return nil
}
