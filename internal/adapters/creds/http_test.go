package creds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/keriat/voiceline/internal/domain"
)

func issuer(t *testing.T, handler gin.HandlerFunc) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/connection-details", handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_OK(t *testing.T) {
	req := require.New(t)

	srv := issuer(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"serverUrl":        "wss://x",
			"participantToken": "t",
			"roomName":         "r",
			"participantName":  "p",
		})
	})

	details, err := NewClient(srv.URL + "/api/connection-details").Fetch(context.Background())
	req.NoError(err)
	req.Equal("wss://x", details.ServerURL)
	req.Equal("t", details.ParticipantToken)
	req.Equal("r", details.RoomName)
	req.Equal("p", details.ParticipantName)
}

func TestFetch_ServerError(t *testing.T) {
	req := require.New(t)

	srv := issuer(t, func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})

	_, err := NewClient(srv.URL + "/api/connection-details").Fetch(context.Background())
	req.ErrorIs(err, domain.ErrCredentialFetch)
}

func TestFetch_MissingToken(t *testing.T) {
	req := require.New(t)

	srv := issuer(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"serverUrl": "wss://x", "roomName": "r"})
	})

	_, err := NewClient(srv.URL + "/api/connection-details").Fetch(context.Background())
	req.ErrorIs(err, domain.ErrCredentialFetch)
}

func TestFetch_MalformedBody(t *testing.T) {
	req := require.New(t)

	srv := issuer(t, func(c *gin.Context) {
		c.String(http.StatusOK, "not json at all")
	})

	_, err := NewClient(srv.URL + "/api/connection-details").Fetch(context.Background())
	req.ErrorIs(err, domain.ErrCredentialFetch)
}

func TestFetch_Unreachable(t *testing.T) {
	req := require.New(t)

	srv := issuer(t, func(c *gin.Context) { c.Status(http.StatusOK) })
	url := srv.URL + "/api/connection-details"
	srv.Close()

	_, err := NewClient(url).Fetch(context.Background())
	req.ErrorIs(err, domain.ErrCredentialFetch)
}
