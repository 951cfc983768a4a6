// Package registry integrates the authoritative NPI registry feed. The feed
// is the source of truth for provider standing: deactivations observed here
// flow into confidence scoring through the provider status.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"caredex/internal/confidence"
	"caredex/pkg/platform/sentinel"
)

// Record is one provider's entry in the authoritative registry.
type Record struct {
	NPI         string                    `json:"npi"`
	Status      confidence.ProviderStatus `json:"status"`
	LastUpdated time.Time                 `json:"last_updated"`
}

// Client queries the registry. The interface stays small so tests can stub
// quickly.
type Client interface {
	Lookup(ctx context.Context, npi string) (Record, error)
}

// HTTPClient fetches registry records over HTTP with retries and backoff.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a registry client for the given base URL. Transient
// failures retry with exponential backoff.
func NewHTTPClient(baseURL string) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	return &HTTPClient{
		baseURL: baseURL,
		http:    rc.StandardClient(),
	}
}

func (c *HTTPClient) Lookup(ctx context.Context, npi string) (Record, error) {
	endpoint := fmt.Sprintf("%s/providers/%s", c.baseURL, url.PathEscape(npi))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Record{}, fmt.Errorf("build registry request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("registry lookup %s: %w", npi, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Record{}, sentinel.ErrNotFound
	default:
		return Record{}, fmt.Errorf("registry lookup %s: unexpected status %d", npi, resp.StatusCode)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return Record{}, fmt.Errorf("decode registry record: %w", err)
	}
	return record, nil
}

// MockClient serves deterministic records for development and tests.
type MockClient struct {
	Latency time.Duration
	// Deactivated lists NPIs the mock reports as deactivated.
	Deactivated map[string]bool
}

func (c MockClient) Lookup(_ context.Context, npi string) (Record, error) {
	time.Sleep(c.Latency)
	status := confidence.ProviderActive
	if c.Deactivated[npi] {
		status = confidence.ProviderDeactivated
	}
	return Record{
		NPI:         npi,
		Status:      status,
		LastUpdated: time.Now(),
	}, nil
}
