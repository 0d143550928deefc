package granola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	ClientVersion string
	UserAgent     string
	PageSize      int
	MaxPages      int
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client talks to the Granola API.
type Client struct {
	base          string
	clientVersion string
	userAgent     string
	pageSize      int
	maxPages      int
	http          *http.Client
}

// NewClient creates a Client. Zero options fall back to the public API defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		base:          strings.TrimRight(opts.BaseURL, "/"),
		clientVersion: opts.ClientVersion,
		userAgent:     opts.UserAgent,
		pageSize:      opts.PageSize,
		maxPages:      opts.MaxPages,
		http:          opts.HTTPClient,
	}
	if c.base == "" {
		c.base = "https://api.granola.ai"
	}
	if c.clientVersion == "" {
		c.clientVersion = "ObsidianPlugin-0.1.7"
	}
	if c.userAgent == "" {
		c.userAgent = "GranolaObsidianPlugin/0.1.7"
	}
	if c.pageSize <= 0 {
		c.pageSize = 100
	}
	if c.maxPages <= 0 {
		c.maxPages = 1
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

type documentsRequest struct {
	Limit                  int  `json:"limit"`
	Offset                 int  `json:"offset"`
	IncludeLastViewedPanel bool `json:"include_last_viewed_panel"`
}

// Documents fetches the user's documents, paging until a short page or the
// configured page limit.
func (c *Client) Documents(ctx context.Context, token string) ([]Document, error) {
	var all []Document
	for page := 0; page < c.maxPages; page++ {
		req := documentsRequest{
			Limit:                  c.pageSize,
			Offset:                 page * c.pageSize,
			IncludeLastViewedPanel: true,
		}
		var resp struct {
			Docs *[]Document `json:"docs"`
		}
		if err := c.post(ctx, "/v2/get-documents", token, req, &resp); err != nil {
			return nil, err
		}
		if resp.Docs == nil {
			return nil, ErrInvalidResponse
		}
		all = append(all, *resp.Docs...)
		if len(*resp.Docs) < c.pageSize {
			break
		}
	}
	return all, nil
}

// Transcript fetches the transcript of one document. A document without a
// transcript yields an empty slice.
func (c *Client) Transcript(ctx context.Context, token, documentID string) ([]TranscriptEntry, error) {
	body := map[string]string{"document_id": documentID}
	var entries []TranscriptEntry
	if err := c.post(ctx, "/v1/get-document-transcript", token, body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) post(ctx context.Context, endpoint, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("granola: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("granola: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Client-Version", c.clientVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: KindRequest, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
