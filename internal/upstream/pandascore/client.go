package pandascore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

const (
	maxAttempts = 5
	maxBackoff  = 10 * time.Second
)

// Client wraps the PandaScore REST API. Every call goes through the hourly
// token bucket and the retry policy: transport errors and 5xx retry with
// exponential backoff, 429 honors the server's Retry-After, other 4xx are
// fatal to the call.
type Client struct {
	baseURL    string
	token      string
	bucket     *HourlyBucket
	httpClient *http.Client
	backoff    func(retry int) time.Duration
}

func NewClient(baseURL, token string, requestsPerHour int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		bucket:  NewHourlyBucket(requestsPerHour),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: backoffDelay,
	}
}

// UpcomingMatches lists not-yet-started LoL matches, soonest first.
func (c *Client) UpcomingMatches(ctx context.Context, page, perPage int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "begin_at")
	return c.get(ctx, "/lol/matches/upcoming", params)
}

// RunningMatches lists matches currently in progress.
func (c *Client) RunningMatches(ctx context.Context, page, perPage int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "begin_at")
	return c.get(ctx, "/lol/matches/running", params)
}

// PastMatches lists finished matches, most recently ended first. sinceISO,
// when set, becomes the lower bound of the end_at range filter.
func (c *Client) PastMatches(ctx context.Context, page, perPage int, sinceISO string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "-end_at")
	params.Set("filter[status]", "finished")
	if sinceISO != "" {
		params.Set("range[end_at]", sinceISO+",")
	}
	return c.get(ctx, "/lol/matches/past", params)
}

// Tournaments lists LoL tournaments, optionally filtered to a slug whitelist.
func (c *Client) Tournaments(ctx context.Context, page, perPage int, whitelist []string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "-begin_at")
	params.Set("filter[videogame]", "lol")
	if len(whitelist) > 0 {
		params.Set("filter[slug]", strings.Join(whitelist, ","))
	}
	return c.get(ctx, "/tournaments", params)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error) {
	label := strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", "_")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.bucket.Take(ctx); err != nil {
			return nil, err
		}

		rows, retryAfter, err := c.doOnce(ctx, endpoint, label, params)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		var pe *permanentError
		if errors.As(err, &pe) {
			return nil, pe.err
		}
		if attempt == maxAttempts {
			break
		}

		delay := c.backoff(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		telemetry.Warnf("pandascore: %s attempt %d/%d: %v (retry in %s)", label, attempt, maxAttempts, err, delay)
		if serr := sleepCtx(ctx, delay); serr != nil {
			return nil, serr
		}
	}
	return nil, fmt.Errorf("pandascore: %s: %w", label, lastErr)
}

// permanentError wraps a non-retryable failure (4xx other than 429).
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (c *Client) doOnce(ctx context.Context, endpoint, label string, params url.Values) ([]map[string]any, time.Duration, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	telemetry.Metrics.RequestsTotal.WithLabelValues(label).Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.Metrics.RequestLatency.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		telemetry.Metrics.RequestErrors.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, retryAfterHint(resp), fmt.Errorf("HTTP 429")
		}
		if resp.StatusCode >= 500 {
			return nil, 0, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil, 0, &permanentError{err: fmt.Errorf("pandascore: GET %s: HTTP %d", endpoint, resp.StatusCode)}
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, 0, fmt.Errorf("decode: %w", err)
	}
	return rows, 0, nil
}

func retryAfterHint(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

// backoffDelay is exponential base 2 capped at 10s, with uniform jitter up
// to one second.
func backoffDelay(retry int) time.Duration {
	d := time.Duration(math.Pow(2, float64(retry))) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d + time.Duration(rand.Int63n(int64(time.Second)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
