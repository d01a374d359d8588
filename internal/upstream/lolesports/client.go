package lolesports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the LoL Esports gateway (getLive, getEventDetails) and the
// livestats feed (window, details). No quota applies; failures surface to
// the caller and the tailing loops decide what to do with them.
type Client struct {
	gwBase     string
	feedBase   string
	hl         string
	apiKey     string
	httpClient *http.Client
}

func NewClient(gwBase, feedBase, hl, apiKey string) *Client {
	return &Client{
		gwBase:   strings.TrimRight(gwBase, "/"),
		feedBase: strings.TrimRight(feedBase, "/"),
		hl:       hl,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetLive returns the current live schedule (events → match → games).
func (c *Client) GetLive(ctx context.Context) (map[string]any, error) {
	params := url.Values{}
	params.Set("hl", c.hl)
	return c.getJSON(ctx, c.gwBase+"/getLive", params)
}

// GetEventDetails returns gateway metadata for one match.
func (c *Client) GetEventDetails(ctx context.Context, matchID string) (map[string]any, error) {
	params := url.Values{}
	params.Set("hl", c.hl)
	params.Set("id", matchID)
	return c.getJSON(ctx, c.gwBase+"/getEventDetails", params)
}

// Window returns coarse per-team frames for a game. startingTime, when set,
// is the cursor from the previous poll's last frame.
func (c *Client) Window(ctx context.Context, gameID, startingTime string) (map[string]any, error) {
	params := url.Values{}
	if startingTime != "" {
		params.Set("startingTime", startingTime)
	}
	return c.getJSON(ctx, c.feedBase+"/window/"+gameID, params)
}

// Details returns per-participant frames. participantIDs is an optional
// comma-separated filter.
func (c *Client) Details(ctx context.Context, gameID, startingTime, participantIDs string) (map[string]any, error) {
	params := url.Values{}
	if startingTime != "" {
		params.Set("startingTime", startingTime)
	}
	if participantIDs != "" {
		params.Set("participantIds", participantIDs)
	}
	return c.getJSON(ctx, c.feedBase+"/details/"+gameID, params)
}

func (c *Client) getJSON(ctx context.Context, base string, params url.Values) (map[string]any, error) {
	u := base
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lolesports: GET %s: HTTP %d", base, resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
