package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Status values returned in the body of a Places response.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusInvalidRequest = "INVALID_REQUEST"
)

// Business status flag for places that no longer operate.
const BusinessClosedPermanently = "CLOSED_PERMANENTLY"

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error)
}

// NearbySearchRequest is one page request to Places Nearby Search. When
// PageToken is set the other fields are ignored by the API.
type NearbySearchRequest struct {
	Keyword   string
	Lat       float64
	Lng       float64
	Radius    float64 // meters
	Type      string
	PageToken string
}

// NearbySearchResponse is one page of Nearby Search results.
type NearbySearchResponse struct {
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Place represents a place returned by the API.
type Place struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Vicinity         string    `json:"vicinity,omitempty"`
	Rating           *float64  `json:"rating,omitempty"`
	Types            []string  `json:"types,omitempty"`
	BusinessStatus   string    `json:"business_status,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
}

// Address returns the formatted address, falling back to the vicinity that
// Nearby Search returns instead.
func (p Place) Address() string {
	if p.FormattedAddress != "" {
		return p.FormattedAddress
	}
	return p.Vicinity
}

// Geometry holds a place's location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a coordinate pair in API form.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the retry policy for transient HTTP failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.DefaultPolicy("google", "nearby_search"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NearbySearch fetches one page. API-level failures such as REQUEST_DENIED
// arrive with HTTP 200 and are reported through Status, not as an error.
func (c *httpClient) NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
	} else {
		q.Set("location", strconv.FormatFloat(req.Lat, 'f', -1, 64)+","+strconv.FormatFloat(req.Lng, 'f', -1, 64))
		q.Set("radius", strconv.FormatFloat(req.Radius, 'f', 0, 64))
		if req.Keyword != "" {
			q.Set("keyword", req.Keyword)
		}
		if req.Type != "" {
			q.Set("type", req.Type)
		}
	}
	endpoint := c.baseURL + "/nearbysearch/json?" + q.Encode()

	return resilience.Retry(ctx, c.retry, func(ctx context.Context) (*NearbySearchResponse, error) {
		return c.get(ctx, endpoint)
	})
}

func (c *httpClient) get(ctx context.Context, endpoint string) (*NearbySearchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("google: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.TransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	var result NearbySearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}
	return &result, nil
}
