package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/metrics"
)

const (
	prospeoDefaultBaseURL = "https://api.prospeo.io"
	prospeoTimeout        = 15 * time.Second
)

// ProspeoClient finds work emails from a name and company domain.
type ProspeoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*ProspeoClient)(nil)

// NewProspeoClient builds a client. baseURL may be empty to use the
// public endpoint.
func NewProspeoClient(apiKey, baseURL string) *ProspeoClient {
	if baseURL == "" {
		baseURL = prospeoDefaultBaseURL
	}
	return &ProspeoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: prospeoTimeout,
		},
	}
}

// Name implements Provider.
func (c *ProspeoClient) Name() string { return "prospeo" }

type prospeoResponse struct {
	Error    bool `json:"error"`
	Response struct {
		Email struct {
			Email string `json:"email"`
		} `json:"email"`
	} `json:"response"`
}

// Lookup calls the email-finder endpoint. companyName is expected to
// carry the company website or domain for this provider.
func (c *ProspeoClient) Lookup(ctx context.Context, p model.Person, companyName string) (*Profile, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(map[string]string{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"company":    companyName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prospeo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email-finder", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("prospeo email finder: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordEnrichmentCall(c.Name(), "rate_limited")
		return nil, ErrRateLimited
	case resp.StatusCode >= http.StatusBadRequest:
		metrics.RecordEnrichmentCall(c.Name(), "error")
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("prospeo error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("read prospeo response: %w", err)
	}

	var pr prospeoResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("decode prospeo response: %w", err)
	}
	if pr.Error || pr.Response.Email.Email == "" {
		metrics.RecordEnrichmentCall(c.Name(), "not_found")
		return nil, ErrNotFound
	}

	email := pr.Response.Email.Email
	metrics.RecordEnrichmentCall(c.Name(), "ok")
	return &Profile{
		Email:    &email,
		Provider: c.Name(),
		Raw:      raw,
	}, nil
}
