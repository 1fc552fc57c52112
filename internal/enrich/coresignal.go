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
	coresignalDefaultBaseURL = "https://api.coresignal.com/cdapi"
	coresignalTimeout        = 20 * time.Second
)

// CoresignalClient queries the Coresignal employee database for
// professional-network stats.
type CoresignalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*CoresignalClient)(nil)

// NewCoresignalClient builds a client. baseURL may be empty to use the
// public endpoint.
func NewCoresignalClient(apiKey, baseURL string) *CoresignalClient {
	if baseURL == "" {
		baseURL = coresignalDefaultBaseURL
	}
	return &CoresignalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: coresignalTimeout,
		},
	}
}

// Name implements Provider.
func (c *CoresignalClient) Name() string { return "coresignal" }

type coresignalMember struct {
	Title           *string `json:"title"`
	ConnectionCount *int    `json:"connection_count"`
	FollowerCount   *int    `json:"follower_count"`
}

// Lookup searches members by name and company and maps the first hit.
func (c *CoresignalClient) Lookup(ctx context.Context, p model.Person, companyName string) (*Profile, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(map[string]string{
		"name":               p.FullName(),
		"experience_company": companyName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal coresignal query: %w", err)
	}

	url := c.baseURL + "/v1/professional_network/member/search/filter"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("coresignal search: %w", err)
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
		return nil, fmt.Errorf("coresignal error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("read coresignal response: %w", err)
	}

	var members []coresignalMember
	if err := json.Unmarshal(raw, &members); err != nil {
		metrics.RecordEnrichmentCall(c.Name(), "error")
		return nil, fmt.Errorf("decode coresignal response: %w", err)
	}
	if len(members) == 0 {
		metrics.RecordEnrichmentCall(c.Name(), "not_found")
		return nil, ErrNotFound
	}

	m := members[0]
	metrics.RecordEnrichmentCall(c.Name(), "ok")
	return &Profile{
		JobTitle:            m.Title,
		LinkedinConnections: m.ConnectionCount,
		LinkedinFollowers:   m.FollowerCount,
		Provider:            c.Name(),
		Raw:                 raw,
	}, nil
}
