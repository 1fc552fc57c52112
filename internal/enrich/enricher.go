package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/logger"
)

const defaultRequestDelay = 500 * time.Millisecond

// Enricher runs a chain of providers for one person, consulting the
// cache first and pausing between live calls.
type Enricher struct {
	providers []Provider
	cache     *Cache
	delay     time.Duration

	logger logger.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithCache puts a Redis cache in front of the providers.
func WithCache(c *Cache) EnricherOption {
	return func(e *Enricher) {
		e.cache = c
	}
}

// WithRequestDelay sets the pause between consecutive provider calls.
func WithRequestDelay(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// NewEnricher creates an enricher over the given provider chain.
func NewEnricher(providers []Provider, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		providers: providers,
		delay:     defaultRequestDelay,
		logger:    logger.Get().Named("enricher"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichPerson queries each provider in order and merges their
// results. Providers that return no data are skipped; a person with no
// hits at all yields ErrNotFound.
func (e *Enricher) EnrichPerson(ctx context.Context, p model.Person, companyName string) (*Profile, error) {
	merged := &Profile{Provider: "merged"}
	anyHit := false

	for i, provider := range e.providers {
		if i > 0 && e.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.delay):
			}
		}

		profile, err := e.lookup(ctx, provider, p, companyName)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingAPIKey) {
				continue
			}
			if errors.Is(err, ErrRateLimited) {
				e.logger.Warn(ctx, "provider rate limited, skipping",
					logger.String("provider", provider.Name()),
				)
				continue
			}
			return nil, err
		}
		merged.Merge(profile)
		anyHit = true
	}

	if !anyHit {
		return nil, ErrNotFound
	}
	return merged, nil
}

func (e *Enricher) lookup(ctx context.Context, provider Provider, p model.Person, companyName string) (*Profile, error) {
	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, provider.Name(), p.ID)
		if err != nil {
			e.logger.Warn(ctx, "enrichment cache read failed",
				logger.String("provider", provider.Name()),
				logger.Error(err),
			)
		} else if ok {
			return cached, nil
		}
	}

	profile, err := provider.Lookup(ctx, p, companyName)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, provider.Name(), p.ID, profile); err != nil {
			e.logger.Warn(ctx, "enrichment cache write failed",
				logger.String("provider", provider.Name()),
				logger.Error(err),
			)
		}
	}
	return profile, nil
}
