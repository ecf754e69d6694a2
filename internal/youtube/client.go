// Package youtube is a minimal YouTube Data API v3 client covering the
// track-search surface: search.list for candidates plus videos.list for
// durations, normalized into core.Track at this boundary.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/core"
	strumerrors "github.com/mkessler/strum/internal/errors"
)

const (
	// BaseURL is the YouTube Data API base URL.
	BaseURL = "https://www.googleapis.com/youtube/v3"

	// musicCategoryID narrows search.list to the Music category.
	musicCategoryID = "10"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is a YouTube Data API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
	logger     zerolog.Logger
}

// New creates a new YouTube client.
func New(apiKey string, maxResults int, logger zerolog.Logger) *Client {
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 20
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		logger:     logger.With().Str("component", "youtube").Logger(),
	}
}

// SearchResult is a page of track search results.
type SearchResult struct {
	Tracks        []core.Track `json:"tracks"`
	NextPageToken string       `json:"next_page_token"`

	// RateLimited marks a result that is empty only because the API is
	// out of quota. Callers treat it as "no results now", not an error.
	RateLimited bool `json:"rate_limited"`
}

// Search queries the Music category for tracks matching query. pageToken
// continues a previous page; pass "" for the first one. Quota rejections
// come back as an empty, RateLimited result rather than an error.
func (c *Client) Search(ctx context.Context, query, pageToken string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if c.apiKey == "" {
		return nil, strumerrors.ErrAPIKeyMissing
	}

	search, err := c.searchList(ctx, query, pageToken, true)

	// Some regions reject the category filter; retry without it.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Reason() == "invalidParameter" {
		c.logger.Warn().Str("query", query).Msg("retrying search without category filter")
		search, err = c.searchList(ctx, query, pageToken, false)
	}

	if errors.As(err, &apiErr) && apiErr.IsQuotaError() {
		c.logger.Warn().Str("query", query).Msg("search quota exceeded")
		return &SearchResult{RateLimited: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if id := NormalizeVideoID(item.ID.VideoID); ValidVideoID(id) {
			ids = append(ids, id)
		}
	}

	durations := c.fetchDurations(ctx, ids)

	result := &SearchResult{
		Tracks:        make([]core.Track, 0, len(search.Items)),
		NextPageToken: search.NextPageToken,
	}
	seen := make(map[string]bool, len(search.Items))
	for _, item := range search.Items {
		id := NormalizeVideoID(item.ID.VideoID)
		if !ValidVideoID(id) || seen[id] {
			continue
		}
		seen[id] = true
		result.Tracks = append(result.Tracks, core.Track{
			ID:           id,
			Title:        item.Snippet.Title,
			Artist:       item.Snippet.ChannelTitle,
			ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
			Duration:     durations[id],
		})
	}

	return result, nil
}

func (c *Client) searchList(ctx context.Context, query, pageToken string, withCategory bool) (*searchResponse, error) {
	params := map[string]string{
		"part":       "snippet",
		"type":       "video",
		"maxResults": fmt.Sprintf("%d", c.maxResults),
		"q":          query,
		"key":        c.apiKey,
	}
	if withCategory {
		params["videoCategoryId"] = musicCategoryID
	}
	if pageToken != "" {
		params["pageToken"] = pageToken
	}

	var resp searchResponse
	if err := c.get(ctx, BuildURL(c.baseURL+"/search", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// fetchDurations resolves durations for the given ids. Failures degrade to
// unknown durations; search results without timings beat no results.
func (c *Client) fetchDurations(ctx context.Context, ids []string) map[string]time.Duration {
	durations := make(map[string]time.Duration, len(ids))
	if len(ids) == 0 {
		return durations
	}

	params := map[string]string{
		"part": "contentDetails",
		"id":   strings.Join(ids, ","),
		"key":  c.apiKey,
	}

	var resp videosResponse
	if err := c.get(ctx, BuildURL(c.baseURL+"/videos", params), &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsQuotaError() {
			c.logger.Warn().Msg("duration lookup quota exceeded, continuing without durations")
		} else {
			c.logger.Warn().Err(err).Msg("duration lookup failed, continuing without durations")
		}
		return durations
	}

	for _, item := range resp.Items {
		d, err := ParseISODuration(item.ContentDetails.Duration)
		if err != nil {
			c.logger.Debug().Err(err).Str("video", item.ID).Msg("unparseable duration")
			continue
		}
		durations[NormalizeVideoID(item.ID)] = d
	}
	return durations
}

// get performs a GET request with retries on network and server errors.
func (c *Client) get(ctx context.Context, rawURL string, result any) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.logger.Debug().Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 {
			lastErr = decodeAPIError(resp.StatusCode, respBody)
			continue
		}

		// Don't retry 4xx errors; they carry the quota/parameter taxonomy.
		if resp.StatusCode >= 400 {
			return decodeAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func decodeAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		return &apiErr
	}
	fallback := &APIError{}
	fallback.ErrorInfo.Code = status
	fallback.ErrorInfo.Message = http.StatusText(status)
	return fallback
}

// bestThumbnail prefers the medium rendition, then the largest available.
func bestThumbnail(set thumbnailSet) string {
	if set.Medium.URL != "" {
		return set.Medium.URL
	}
	if set.High.URL != "" {
		return set.High.URL
	}
	return set.Default.URL
}

// BuildURL appends query parameters to a URL.
func BuildURL(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
