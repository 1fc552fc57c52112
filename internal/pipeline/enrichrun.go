package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/enrich"
	"github.com/adrata/crmops/pkg/logger"
)

// PersonEnricher resolves external data for one person.
type PersonEnricher interface {
	EnrichPerson(ctx context.Context, p model.Person, companyName string) (*enrich.Profile, error)
}

// EnrichReport summarizes one enrichment run.
type EnrichReport struct {
	Processed int
	Enriched  int
	Missed    int
	Duration  time.Duration
}

// EnrichRunner walks incomplete people through an enricher one at a
// time. Provider rate limits make this deliberately sequential.
type EnrichRunner struct {
	store    repository.Store
	enricher PersonEnricher

	logger logger.Logger
}

// NewEnrichRunner creates an enrichment pipeline.
func NewEnrichRunner(store repository.Store, enricher PersonEnricher) *EnrichRunner {
	return &EnrichRunner{
		store:    store,
		enricher: enricher,
		logger:   logger.Get().Named("enrich"),
	}
}

// Run enriches everyone matching the filter and persists any new
// fields. Existing person data is never overwritten.
func (r *EnrichRunner) Run(ctx context.Context, f repository.PersonFilter) (EnrichReport, error) {
	start := time.Now()
	report := EnrichReport{}

	people, err := r.store.ListPeople(ctx, f)
	if err != nil {
		return report, fmt.Errorf("list people: %w", err)
	}

	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		companyName := r.companyName(ctx, p)
		profile, err := r.enricher.EnrichPerson(ctx, p, companyName)
		if err != nil {
			if errors.Is(err, enrich.ErrNotFound) {
				report.Missed++
				continue
			}
			return report, fmt.Errorf("enrich person %s: %w", p.ID, err)
		}

		if !apply(&p, profile) {
			report.Missed++
			continue
		}
		if err := r.store.UpsertPerson(ctx, p); err != nil {
			return report, fmt.Errorf("save person %s: %w", p.ID, err)
		}
		report.Enriched++
	}

	report.Duration = time.Since(start)
	r.logger.Info(ctx, "enrichment run complete",
		logger.Int("processed", report.Processed),
		logger.Int("enriched", report.Enriched),
		logger.Int("missed", report.Missed),
	)
	return report, nil
}

// companyName resolves the person's company name for provider context.
// A missing company is not fatal, the providers just get less context.
func (r *EnrichRunner) companyName(ctx context.Context, p model.Person) string {
	if p.CompanyID == nil {
		return ""
	}
	company, err := r.store.GetCompany(ctx, *p.CompanyID)
	if err != nil {
		return ""
	}
	return company.Name
}

// apply fills empty person fields from the profile and reports whether
// anything changed.
func apply(p *model.Person, profile *enrich.Profile) bool {
	if profile == nil {
		return false
	}
	changed := false
	if p.Email == nil && profile.Email != nil {
		p.Email = profile.Email
		changed = true
	}
	if p.Phone == nil && profile.Phone != nil {
		p.Phone = profile.Phone
		changed = true
	}
	if p.JobTitle == nil && profile.JobTitle != nil {
		p.JobTitle = profile.JobTitle
		changed = true
	}
	if p.LinkedinConnections == nil && profile.LinkedinConnections != nil {
		p.LinkedinConnections = profile.LinkedinConnections
		changed = true
	}
	if p.LinkedinFollowers == nil && profile.LinkedinFollowers != nil {
		p.LinkedinFollowers = profile.LinkedinFollowers
		changed = true
	}
	if changed {
		p.UpdatedAt = time.Now().UTC()
	}
	return changed
}
