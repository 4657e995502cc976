package livesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

// Client talks to the live-document endpoints over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// PushResult mirrors the server's accept/conflict response.
type PushResult struct {
	OK      bool
	Version int64
	Latest  *domain.LiveDocument
}

// Fetch performs a conditional GET of a show's live document. When
// sinceVersion is >= 0 it is sent as a validator; a 304 reply comes back
// as changed=false with no document.
func (c *Client) Fetch(ctx context.Context, showID string, sinceVersion int64) (domain.LiveDocument, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.liveURL(showID), nil)
	if err != nil {
		return domain.LiveDocument{}, false, err
	}
	if sinceVersion >= 0 {
		req.Header.Set(VersionHeader, strconv.FormatInt(sinceVersion, 10))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.LiveDocument{}, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return domain.LiveDocument{}, false, nil
	case http.StatusOK:
		var doc domain.LiveDocument
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return domain.LiveDocument{}, false, fmt.Errorf("decode live document: %w", err)
		}
		return doc, true, nil
	default:
		return domain.LiveDocument{}, false, fmt.Errorf("fetch live document: unexpected status %d", resp.StatusCode)
	}
}

// Push attempts a conditional save tagged with the last-known version.
// A version conflict is a normal result, not an error.
func (c *Client) Push(ctx context.Context, showID string, version int64, state domain.LiveState, by string) (PushResult, error) {
	body, err := json.Marshal(SaveRequest{
		ShowID:  showID,
		Version: version,
		State:   state,
		By:      by,
	})
	if err != nil {
		return PushResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.liveURL(showID), bytes.NewReader(body))
	if err != nil {
		return PushResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return PushResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var accepted SaveAccepted
		if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
			return PushResult{}, fmt.Errorf("decode save response: %w", err)
		}
		return PushResult{OK: true, Version: accepted.Version}, nil
	case http.StatusConflict:
		var conflict SaveConflict
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			return PushResult{}, fmt.Errorf("decode conflict response: %w", err)
		}
		latest := conflict.Latest
		return PushResult{OK: false, Version: latest.Version, Latest: &latest}, nil
	default:
		return PushResult{}, fmt.Errorf("save live document: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) liveURL(showID string) string {
	return c.baseURL + "/live/" + url.PathEscape(showID)
}
