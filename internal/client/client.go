package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/models"
)

// Fetcher loads aggregated hours for a range.
type Fetcher interface {
	FetchAggregate(ctx context.Context, r models.Range) ([]models.CategoryEntry, error)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AggregateURL builds the request URL. An empty range omits the query
// parameter so the server applies its default.
func (c *Client) AggregateURL(r models.Range) (string, error) {
	u, err := url.Parse(c.baseURL + constants.AggregatePath)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.baseURL, err)
	}
	if r != "" {
		q := u.Query()
		q.Set("range", string(r))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchAggregate requests hours per calendar for r. Every failure is an
// *Error carrying a user-facing message.
func (c *Client) FetchAggregate(ctx context.Context, r models.Range) ([]models.CategoryEntry, error) {
	if r != "" && !r.Valid() {
		return nil, fmt.Errorf("invalid range: %q", r)
	}

	endpoint, err := c.AggregateURL(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.Debug("Fetching aggregate", "url", endpoint)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: constants.MsgUnreachable, Err: err}
	}
	defer resp.Body.Close()

	// One byte past the cap tells a full-size body from an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: constants.MsgUnreachable, Err: err}
	}
	oversized := len(body) > constants.MaxResponseBytes
	if oversized {
		body = body[:constants.MaxResponseBytes]
	}

	logger.Debug("Aggregate response", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp.StatusCode, body)
	}

	if oversized {
		return nil, &Error{Kind: KindParse, Status: resp.StatusCode, Message: constants.MsgMalformedData, Err: ErrResponseTooLarge}
	}

	entries, err := decodeEntries(body)
	if err != nil {
		return nil, &Error{Kind: KindParse, Status: resp.StatusCode, Message: constants.MsgMalformedData, Err: err}
	}
	return entries, nil
}

type errorBody struct {
	Error *string `json:"error"`
}

func serverError(status int, body []byte) *Error {
	e := &Error{Kind: KindServer, Status: status, Message: constants.MsgFetchFailed}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Err = fmt.Errorf("unreadable error body: %w", err)
		return e
	}
	if payload.Error != nil && strings.TrimSpace(*payload.Error) != "" {
		e.Message = *payload.Error
	}
	return e
}

type wireEntry struct {
	Name  *string  `json:"name"`
	Hours *float64 `json:"hours"`
}

// decodeEntries validates the array-of-category-hours shape and keeps the
// response order.
func decodeEntries(body []byte) ([]models.CategoryEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("response body is not a JSON array")
	}

	var wire []wireEntry
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	entries := make([]models.CategoryEntry, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		if w.Name == nil {
			return nil, fmt.Errorf("entry %d: missing name", i)
		}
		if w.Hours == nil {
			return nil, fmt.Errorf("entry %d (%s): missing hours", i, *w.Name)
		}
		if *w.Hours < 0 {
			return nil, fmt.Errorf("entry %d (%s): negative hours %v", i, *w.Name, *w.Hours)
		}
		if _, dup := seen[*w.Name]; dup {
			return nil, fmt.Errorf("entry %d: duplicate name %q", i, *w.Name)
		}
		seen[*w.Name] = struct{}{}
		entries = append(entries, models.CategoryEntry{Name: *w.Name, Hours: *w.Hours})
	}
	return entries, nil
}
