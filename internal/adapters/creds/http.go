// Package creds fetches one-time connection details from the issuing endpoint.
package creds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/keriat/voiceline/internal/domain"
)

const fetchTimeout = 10 * time.Second

// Client performs a single GET per connect attempt. Any non-2xx status,
// unreachable endpoint or malformed body maps to domain.ErrCredentialFetch.
type Client struct {
	url   string
	httpc *http.Client
}

func NewClient(endpointURL string) *Client {
	return &Client{
		url:   endpointURL,
		httpc: &http.Client{Timeout: fetchTimeout},
	}
}

func (c *Client) Fetch(ctx context.Context) (domain.ConnectionDetails, error) {
	var details domain.ConnectionDetails

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return details, fmt.Errorf("%w: bad endpoint %q: %v", domain.ErrCredentialFetch, c.url, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return details, fmt.Errorf("%w: %v", domain.ErrCredentialFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return details, fmt.Errorf("%w: endpoint returned %s", domain.ErrCredentialFetch, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return details, fmt.Errorf("%w: decode body: %v", domain.ErrCredentialFetch, err)
	}
	if err := details.Validate(); err != nil {
		return domain.ConnectionDetails{}, fmt.Errorf("%w: %v", domain.ErrCredentialFetch, err)
	}

	log.Debug().Str("module", "creds").Str("room", details.RoomName).Msg("connection details issued")
	return details, nil
}
