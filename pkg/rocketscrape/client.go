// Package rocketscrape provides a client for the RocketScrape search API.
package rocketscrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/resilience"
)

const defaultBaseURL = "https://api.rocketscrape.com/v1"

// ErrInvalidKey is returned when the API rejects the credential.
var ErrInvalidKey = errors.New("rocketscrape: invalid api key")

// Client defines the RocketScrape search operations.
type Client interface {
	// Search runs one web search and returns structured results.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	// TestAPIKey issues a minimal search to verify the credential.
	TestAPIKey(ctx context.Context) error
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
	Country    string `json:"country,omitempty"`
	Language   string `json:"language,omitempty"`
	Device     string `json:"device,omitempty"`
}

// SearchResponse is the parsed search response.
type SearchResponse struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
	SearchQuery  string   `json:"search_query"`
	SearchTimeMS int      `json:"search_time_ms"`
}

// Result is a single organic search result.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocale sets the country and language sent with every search.
func WithLocale(country, language string) Option {
	return func(c *httpClient) {
		c.country = country
		c.language = language
	}
}

// WithRetryPolicy overrides the retry policy for 429/5xx responses.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	country  string
	language string
	http     *http.Client
	retry    resilience.Policy
}

// NewClient creates a RocketScrape client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		country:  "TH",
		language: "th",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultPolicy("rocketscrape", "search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Country == "" {
		req.Country = c.country
	}
	if req.Language == "" {
		req.Language = c.language
	}
	if req.Device == "" {
		req.Device = "desktop"
	}
	if req.NumResults <= 0 {
		req.NumResults = 10
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "rocketscrape: marshal request")
	}

	resp, err := resilience.Retry(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		return nil, err
	}
	if resp.SearchQuery == "" {
		resp.SearchQuery = req.Query
	}
	return resp, nil
}

func (c *httpClient) post(ctx context.Context, payload []byte) (*SearchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "rocketscrape: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "rocketscrape: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rocketscrape: read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, eris.Wrapf(ErrInvalidKey, "rocketscrape: status %d", resp.StatusCode)
	case resilience.TransientStatus(resp.StatusCode):
		return nil, resilience.Transient(
			eris.Errorf("rocketscrape: status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("rocketscrape: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "rocketscrape: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) TestAPIKey(ctx context.Context) error {
	probe := *c
	probe.retry.Attempts = 1
	if _, err := probe.Search(ctx, SearchRequest{Query: "test", NumResults: 1}); err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return ErrInvalidKey
		}
		return eris.Wrap(err, "rocketscrape: key probe")
	}
	return nil
}
