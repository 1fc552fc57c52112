package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/adrata/crmops/internal/domain/domainmatch"
)

const (
	siteProbeTimeout   = 10 * time.Second
	siteProbeUserAgent = "crmops-siteprobe/1.0"
)

// SiteProbe fetches a company homepage and reports the domain the site
// itself claims, via its canonical link or og:url tag. Redirect chains
// count too: the final URL's host wins over the configured website.
type SiteProbe struct {
	httpClient *http.Client
}

// NewSiteProbe creates a probe with a default HTTP client.
func NewSiteProbe() *SiteProbe {
	return &SiteProbe{
		httpClient: &http.Client{
			Timeout: siteProbeTimeout,
		},
	}
}

// Probe returns the normalized root domain the website resolves to.
func (s *SiteProbe) Probe(ctx context.Context, website string) (string, error) {
	if strings.TrimSpace(website) == "" {
		return "", ErrNoWebsite
	}
	target := website
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", siteProbeUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", website, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch %s: %s", website, resp.Status)
	}

	finalHost := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalHost = resp.Request.URL.Host
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", website, err)
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if host := hostOf(href); host != "" {
			return domainmatch.RootDomain(host), nil
		}
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		if host := hostOf(content); host != "" {
			return domainmatch.RootDomain(host), nil
		}
	}
	if finalHost != "" {
		return domainmatch.RootDomain(finalHost), nil
	}
	return domainmatch.RootDomain(website), nil
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return u.Host
}
