package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionDetails_Validate(t *testing.T) {
	req := require.New(t)

	full := ConnectionDetails{
		ServerURL:        "wss://rtc.example.com",
		ParticipantToken: "tok",
		RoomName:         "r",
		ParticipantName:  "p",
	}
	req.NoError(full.Validate())

	// Names are informational only.
	bare := ConnectionDetails{ServerURL: "wss://rtc.example.com", ParticipantToken: "tok"}
	req.NoError(bare.Validate())

	noURL := full
	noURL.ServerURL = ""
	req.ErrorIs(noURL.Validate(), ErrMissingServerURL)

	noToken := full
	noToken.ParticipantToken = ""
	req.ErrorIs(noToken.Validate(), ErrMissingToken)
}
