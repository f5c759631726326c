package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mr1hm/go-ocean-hazards/internal/observability"
)

const DefaultUserAgent = "go-ocean-hazards/1.0"

// Client calls the Nominatim reverse endpoint, throttled to the configured
// request rate.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
}

// NewClient builds a Nominatim client. A non-positive rps disables throttling.
func NewClient(baseURL, userAgent string, rps float64, timeout time.Duration, metrics *observability.Metrics) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
	}
}

func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', 6, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("error")
		return Result{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record("error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("nominatim error: status %d: %s", resp.StatusCode, body)
	}

	var data reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.record("error")
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	// Nominatim answers 200 with an error field for points at sea.
	if data.Error != "" {
		c.record("empty")
		return Result{}, nil
	}

	res := Result{
		Address:  data.DisplayName,
		State:    data.Address.State,
		District: firstNonEmpty(data.Address.StateDistrict, data.Address.County, data.Address.City, data.Address.Town),
	}
	if res.Empty() {
		c.record("empty")
	} else {
		c.record("success")
	}
	return res, nil
}

func (c *Client) record(outcome string) {
	if c.metrics != nil {
		c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type reverseResponse struct {
	DisplayName string         `json:"display_name"`
	Address     reverseAddress `json:"address"`
	Error       string         `json:"error"`
}

type reverseAddress struct {
	StateDistrict string `json:"state_district"`
	County        string `json:"county"`
	City          string `json:"city"`
	Town          string `json:"town"`
	State         string `json:"state"`
}
