package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"encoding/json"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/metrics"
)

const (
	lushaDefaultBaseURL = "https://api.lusha.com"
	lushaTimeout        = 15 * time.Second
)

// LushaClient resolves direct contact details (email, phone) by name
// and company.
type LushaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*LushaClient)(nil)

// NewLushaClient builds a client. baseURL may be empty to use the
// public endpoint.
func NewLushaClient(apiKey, baseURL string) *LushaClient {
	if baseURL == "" {
		baseURL = lushaDefaultBaseURL
	}
	return &LushaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: lushaTimeout,
		},
	}
}

// Name implements Provider.
func (c *LushaClient) Name() string { return "lusha" }

type lushaResponse struct {
	Data struct {
		EmailAddresses []struct {
			Email string `json:"email"`
		} `json:"emailAddresses"`
		PhoneNumbers []struct {
			InternationalNumber string `json:"internationalNumber"`
		} `json:"phoneNumbers"`
	} `json:"data"`
}

// Lookup queries the person endpoint.
func (c *LushaClient) Lookup(ctx context.Context, p model.Person, companyName string) (*Profile, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("firstName", p.FirstName)
	q.Set("lastName", p.LastName)
	q.Set("companyName", companyName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/person?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("lusha lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordEnrichmentCall(c.Name(), "rate_limited")
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordEnrichmentCall(c.Name(), "not_found")
		return nil, ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		metrics.RecordEnrichmentCall(c.Name(), "error")
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("lusha error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("read lusha response: %w", err)
	}

	var lr lushaResponse
	if err := json.Unmarshal(raw, &lr); err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("decode lusha response: %w", err)
	}

	profile := &Profile{Provider: c.Name(), Raw: raw}
	if len(lr.Data.EmailAddresses) > 0 && lr.Data.EmailAddresses[0].Email != "" {
		email := lr.Data.EmailAddresses[0].Email
		profile.Email = &email
	}
	if len(lr.Data.PhoneNumbers) > 0 && lr.Data.PhoneNumbers[0].InternationalNumber != "" {
		phone := lr.Data.PhoneNumbers[0].InternationalNumber
		profile.Phone = &phone
	}
	if profile.Empty() {
		metrics.RecordEnrichmentCall(c.Name(), "not_found")
		return nil, ErrNotFound
	}

	metrics.RecordEnrichmentCall(c.Name(), "ok")
	return profile, nil
}
