package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
)

// ClientConfig configures an HTTP client against an upstream tracking
// service. Either APIKey or TokenSource should be set; TokenSource
// (typically an OAuthTokenSource) takes precedence when both are set.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	TokenSource TokenSource
	Timeout     time.Duration
	Logger      daalog.Logger
}

// Client is the HTTP client for an upstream entity-tracking service that
// supplies fused aircraft tracks (spec.md §1: consuming already-fused
// tracks is in scope; producing them is not).
type Client struct {
	baseURL    string
	apiKey     string
	tokenSrc   TokenSource
	httpClient *http.Client
	log        daalog.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = daalog.New()
	}
	return &Client{
		baseURL:    u.String(),
		apiKey:     cfg.APIKey,
		tokenSrc:   cfg.TokenSource,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	switch {
	case c.tokenSrc != nil:
		token, err := c.tokenSrc.GetAccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case c.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				c.log.Warn("feed: close error response body: " + cerr.Error())
			}
		}()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, v interface{}, log daalog.Logger) error {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && log != nil {
			log.Warn("feed: close response body: " + cerr.Error())
		}
	}()
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// SearchTrackLocations polls the upstream service for the most recent
// position report of every track created or updated since req.Filters's
// CreatedAfter (spec.md "client API" polling contract).
func (c *Client) SearchTrackLocations(ctx context.Context, req SearchTrackLocationsRequest) (*TrackLocationPaginatedResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v3/entities/locations/search", req)
	if err != nil {
		return nil, fmt.Errorf("search track locations: %w", err)
	}
	var result TrackLocationPaginatedResponse
	if err := decodeResponse(resp, &result, c.log); err != nil {
		return nil, fmt.Errorf("decode track locations: %w", err)
	}
	return &result, nil
}
