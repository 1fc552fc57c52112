package enrich

import "errors"

// Sentinel kinds for enrichment errors.
var (
	ErrMissingAPIKey = errors.New("missing api key")
	ErrNotFound      = errors.New("person not found by provider")
	ErrRateLimited   = errors.New("provider rate limited")
	ErrNoWebsite     = errors.New("company has no website")
)
