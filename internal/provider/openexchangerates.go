package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const openExchangeRatesName = "openexchangerates"

type oxrLatestResponse struct {
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
}

// OpenExchangeRatesClient fetches rates from openexchangerates.org
type OpenExchangeRatesClient struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures an OpenExchangeRatesClient
type Option func(*OpenExchangeRatesClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *OpenExchangeRatesClient) {
		c.httpClient = httpClient
	}
}

// NewOpenExchangeRatesClient creates a client for the given API root
// (e.g. https://openexchangerates.org/api). timeout bounds every request.
func NewOpenExchangeRatesClient(baseURL string, timeout time.Duration, opts ...Option) *OpenExchangeRatesClient {
	c := &OpenExchangeRatesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name
func (c *OpenExchangeRatesClient) Name() string {
	return openExchangeRatesName
}

// FetchLatest calls /latest.json with the app id as credential
func (c *OpenExchangeRatesClient) FetchLatest(ctx context.Context, credential, base string) (*LatestRates, error) {
	if credential == "" {
		return nil, ErrCredentialMissing{Provider: c.Name()}
	}

	query := url.Values{}
	query.Set("app_id", credential)
	// The free plan only serves USD; only ask for other bases explicitly.
	if base != "" && base != "USD" {
		query.Set("base", base)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest.json?"+query.Encode(), nil)
	if err != nil {
		return nil, ErrNetwork{Provider: c.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrNetwork{Provider: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized{Provider: c.Name()}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, ErrHTTPStatus{Provider: c.Name(), StatusCode: resp.StatusCode}
	}

	var body oxrLatestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, ErrMalformedResponse{Provider: c.Name(), Reason: err.Error()}
	}
	if len(body.Rates) == 0 {
		return nil, ErrMalformedResponse{Provider: c.Name(), Reason: "no rates"}
	}
	if body.Base == "" {
		body.Base = "USD"
	}

	return &LatestRates{
		Timestamp: body.Timestamp,
		Base:      body.Base,
		Rates:     body.Rates,
		Provider:  c.Name(),
	}, nil
}
