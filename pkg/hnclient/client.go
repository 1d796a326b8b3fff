// Package hnclient is a rate-limited client for the HackerNews item-by-id API.
package hnclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Firebase endpoint.
const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// ErrNotFound marks an item or user that does not exist upstream. Callers skip
// these; they are never retried.
var ErrNotFound = errors.New("hnclient: not found")

// Item is the raw upstream record shape. Every item kind (story, comment, job,
// poll, ...) shares this envelope; absent fields decode to zero values.
type Item struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Text        string  `json:"text"`
	Score       int     `json:"score"`
	Parent      int64   `json:"parent"`
	Descendants int     `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Deleted     bool    `json:"deleted"`
	Dead        bool    `json:"dead"`
}

// User is the raw upstream profile shape.
type User struct {
	ID        string  `json:"id"`
	Created   int64   `json:"created"`
	Karma     int     `json:"karma"`
	About     string  `json:"about"`
	Submitted []int64 `json:"submitted"`
}

// UpdateSet is the changed-items feed.
type UpdateSet struct {
	Items    []int64  `json:"items"`
	Profiles []string `json:"profiles"`
}

// Config controls client behavior.
type Config struct {
	BaseURL        string
	RequestsPerSec float64
	Timeout        time.Duration
	MaxRetries     uint64
}

// Client issues paginated item-by-id requests with a shared token bucket.
// Stateless between calls apart from the bucket.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	maxRetries uint64
}

// New creates a Client. Zero-value config fields fall back to defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
	}
}

// FetchItem returns one item by id, or ErrNotFound for missing/deleted-upstream ids.
func (c *Client) FetchItem(ctx context.Context, id int64) (*Item, error) {
	var item Item
	if err := c.getJSON(ctx, fmt.Sprintf("item/%d.json", id), &item); err != nil {
		return nil, err
	}
	if item.ID == 0 {
		// Firebase returns a literal null body for unknown ids.
		return nil, ErrNotFound
	}
	return &item, nil
}

// FetchUser returns one profile by username, or ErrNotFound.
func (c *Client) FetchUser(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.getJSON(ctx, fmt.Sprintf("user/%s.json", username), &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrNotFound
	}
	return &user, nil
}

// MaxItemID returns the greatest item id currently assigned upstream.
func (c *Client) MaxItemID(ctx context.Context) (int64, error) {
	var id int64
	if err := c.getJSON(ctx, "maxitem.json", &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Updates returns the set of recently changed item ids and profiles.
func (c *Client) Updates(ctx context.Context) (*UpdateSet, error) {
	var set UpdateSet
	if err := c.getJSON(ctx, "updates.json", &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// TopStories returns up to limit current front-page story ids.
func (c *Client) TopStories(ctx context.Context, limit int) ([]int64, error) {
	return c.idList(ctx, "topstories.json", limit)
}

// JobStories returns up to limit current job posting ids.
func (c *Client) JobStories(ctx context.Context, limit int) ([]int64, error) {
	return c.idList(ctx, "jobstories.json", limit)
}

func (c *Client) idList(ctx context.Context, endpoint string, limit int) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, endpoint, &ids); err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// transientError wraps failures worth retrying.
type transientError struct{ err error }

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

// IsTransient reports whether err was a retryable network/5xx failure that
// exhausted its retry budget.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// getJSON performs one rate-limited GET with bounded exponential-backoff retry.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	url := c.baseURL + "/" + endpoint

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request %s: %w", url, err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &transientError{fmt.Errorf("fetch %s: %w", url, err)}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			return &transientError{fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)}
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
}
