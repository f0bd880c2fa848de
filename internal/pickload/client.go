package pickload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SubmitOutcome classifies a POST /picks reply.
type SubmitOutcome int

const (
	OutcomeAccepted SubmitOutcome = iota
	OutcomeDuplicate
	OutcomeRejected // 4xx other than 429
	OutcomeFailed   // transport errors, 429 and 5xx
)

// Client talks to the grader's HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the service at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Submit posts a pick.
func (c *Client) Submit(ctx context.Context, p Pick) (SubmitOutcome, error) { //nolint:gocritic // hugeParam: marshalled once
	resp, err := c.do(ctx, http.MethodPost, "/picks", p)
	if err != nil {
		return OutcomeFailed, err
	}
	defer resp.Body.Close()

	var ack AckResponse
	_ = json.NewDecoder(resp.Body).Decode(&ack)

	switch {
	case resp.StatusCode == http.StatusAccepted:
		return OutcomeAccepted, nil
	case resp.StatusCode == http.StatusOK && ack.Duplicate:
		return OutcomeDuplicate, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return OutcomeFailed, fmt.Errorf("submit %s: HTTP %d", p.PickID, resp.StatusCode)
	default:
		return OutcomeRejected, fmt.Errorf("submit %s: HTTP %d", p.PickID, resp.StatusCode)
	}
}

// Board fetches GET /board?limit=n.
func (c *Client) Board(ctx context.Context, n int) ([]Entry, error) {
	var out []Entry
	err := c.getJSON(ctx, "/board?limit="+strconv.Itoa(n), &out)
	return out, err
}

// Game fetches GET /board/{gameID}.
func (c *Client) Game(ctx context.Context, gameID string) (Entry, error) {
	var out Entry
	err := c.getJSON(ctx, "/board/"+url.PathEscape(gameID), &out)
	return out, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (ServiceStats, error) {
	var out ServiceStats
	err := c.getJSON(ctx, "/stats", &out)
	return out, err
}
