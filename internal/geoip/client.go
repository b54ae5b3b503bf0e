package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client resolves an IP address to an ISO country code
type Client interface {
	// Lookup returns the two-letter country code for ip
	Lookup(ctx context.Context, ip string) (string, error)
}

// ErrLookupFailed is returned for any unusable geo-IP answer
type ErrLookupFailed struct {
	IP     string
	Reason string
	Err    error
}

func (e ErrLookupFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geoip lookup for %s failed: %s: %v", e.IP, e.Reason, e.Err)
	}
	return fmt.Sprintf("geoip lookup for %s failed: %s", e.IP, e.Reason)
}

func (e ErrLookupFailed) Unwrap() error {
	return e.Err
}

type ipAPIResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
}

// IPAPIClient queries an ip-api.com compatible endpoint
type IPAPIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures an IPAPIClient
type Option func(*IPAPIClient)

// WithRateLimit caps outbound lookups per minute. Lookups over the cap fail
// immediately instead of waiting. perMinute <= 0 disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(c *IPAPIClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// NewIPAPIClient creates a client for baseURL (e.g. http://ip-api.com/json)
func NewIPAPIClient(baseURL string, timeout time.Duration, opts ...Option) *IPAPIClient {
	c := &IPAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup implements Client
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", ErrLookupFailed{IP: ip, Reason: "rate limited"}
	}

	endpoint := fmt.Sprintf("%s/%s?fields=status,message,countryCode", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", ErrLookupFailed{IP: ip, Reason: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", ErrLookupFailed{IP: ip, Reason: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrLookupFailed{IP: ip, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", ErrLookupFailed{IP: ip, Reason: "decode", Err: err}
	}
	if body.Status != "" && body.Status != "success" {
		return "", ErrLookupFailed{IP: ip, Reason: "provider: " + body.Message}
	}
	if body.CountryCode == "" {
		return "", ErrLookupFailed{IP: ip, Reason: "empty country code"}
	}

	return strings.ToUpper(body.CountryCode), nil
}
