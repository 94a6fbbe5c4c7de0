package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrShorten wraps every failure reported by the shortening service.
var ErrShorten = errors.New("url shortening failed")

const defaultTimeout = 10 * time.Second

type response struct {
	StatusCode int    `json:"status_code"`
	StatusTxt  string `json:"status_txt"`
	Data       struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Client talks to a bit.ly v3 compatible shorten endpoint.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

func NewClient(endpoint, accessToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		endpoint:    endpoint,
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

// Shorten makes a single attempt. Retries are the caller's business.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint: %w", ErrShorten, err)
	}

	query := reqURL.Query()
	query.Set("access_token", c.accessToken)
	query.Set("longUrl", longURL)
	query.Set("format", "json")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", ErrShorten, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrShorten, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP error: %d", ErrShorten, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", ErrShorten, err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: malformed response: %w", ErrShorten, err)
	}

	if payload.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: service status %d %s", ErrShorten, payload.StatusCode, payload.StatusTxt)
	}
	if payload.Data.URL == "" {
		return "", fmt.Errorf("%w: empty short url", ErrShorten)
	}

	return payload.Data.URL, nil
}
