package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/domainmatch"
	"github.com/adrata/crmops/internal/events"
	"github.com/adrata/crmops/pkg/logger"
	"github.com/adrata/crmops/pkg/metrics"
)

// Finding is one mismatch discovered during an audit run.
type Finding struct {
	PersonID     string
	Category     domainmatch.Category
	Severity     domainmatch.Severity
	EmailRoot    string
	CompanyRoot  string
	ProbedDomain string
	AutoFixed    bool
}

// AuditReport summarizes one audit run.
type AuditReport struct {
	Checked    int
	Matched    int
	Findings   []Finding
	ByCategory map[domainmatch.Category]int
	BySeverity map[domainmatch.Severity]int
	AutoFixed  int
	Duration   time.Duration
}

// AuditPublisher emits one event per finding. Optional.
type AuditPublisher interface {
	PublishAuditFinding(ctx context.Context, event events.AuditFindingEvent) error
}

// SiteProber resolves what domain a company website actually serves.
// Optional; used to annotate findings.
type SiteProber interface {
	Probe(ctx context.Context, website string) (string, error)
}

// Auditor validates each person's email domain against their company's
// website domain and optionally clears buyer-group membership for
// auto-fixable findings.
type Auditor struct {
	store     repository.Store
	publisher AuditPublisher
	prober    SiteProber
	fix       bool

	logger logger.Logger
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithAuditPublisher emits audit-finding events.
func WithAuditPublisher(p AuditPublisher) AuditorOption {
	return func(a *Auditor) {
		a.publisher = p
	}
}

// WithSiteProber annotates findings with the domain the company site
// actually serves.
func WithSiteProber(p SiteProber) AuditorOption {
	return func(a *Auditor) {
		a.prober = p
	}
}

// WithAutoFix clears buyer-group membership for high-severity,
// auto-fixable findings. Off unless requested.
func WithAutoFix(fix bool) AuditorOption {
	return func(a *Auditor) {
		a.fix = fix
	}
}

// NewAuditor creates a domain auditor.
func NewAuditor(store repository.Store, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		store:  store,
		logger: logger.Get().Named("audit"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run validates every email/company pair matching the filter.
func (a *Auditor) Run(ctx context.Context, f repository.PersonFilter) (AuditReport, error) {
	start := time.Now()
	report := AuditReport{
		ByCategory: make(map[domainmatch.Category]int),
		BySeverity: make(map[domainmatch.Severity]int),
	}

	pairs, err := a.store.ListDomainPairs(ctx, f)
	if err != nil {
		return report, fmt.Errorf("list domain pairs: %w", err)
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		result := domainmatch.Validate(pair.Email, pair.CompanyDomain)
		if result.Match {
			report.Matched++
			continue
		}

		finding := Finding{
			PersonID:    pair.PersonID,
			Category:    result.Category,
			Severity:    result.Severity,
			EmailRoot:   result.EmailRoot,
			CompanyRoot: result.CompanyRoot,
		}
		report.ByCategory[result.Category]++
		report.BySeverity[result.Severity]++
		metrics.RecordAuditFinding(string(result.Category), string(result.Severity))

		if a.prober != nil && pair.CompanyDomain != nil {
			probed, err := a.prober.Probe(ctx, *pair.CompanyDomain)
			if err != nil {
				a.logger.Debug(ctx, "site probe failed",
					logger.String("personID", pair.PersonID),
					logger.Error(err),
				)
			} else {
				finding.ProbedDomain = probed
			}
		}

		if a.fix && result.AutoFixable {
			reason := fmt.Sprintf("domain audit: email domain %q does not belong to company domain %q (%s)",
				result.EmailRoot, result.CompanyRoot, result.Category)
			if err := a.store.ClearBuyerGroup(ctx, pair.PersonID, reason); err != nil {
				metrics.RecordErrorByComponent("pipeline", "autofix_error")
				return report, fmt.Errorf("clear buyer group for %s: %w", pair.PersonID, err)
			}
			finding.AutoFixed = true
			report.AutoFixed++
			metrics.RecordAutoFix()
		}

		if a.publisher != nil {
			event := events.AuditFindingEvent{
				PersonID:      pair.PersonID,
				Category:      string(result.Category),
				Severity:      string(result.Severity),
				EmailDomain:   result.EmailRoot,
				CompanyDomain: result.CompanyRoot,
				AutoFixed:     finding.AutoFixed,
			}
			if err := a.publisher.PublishAuditFinding(ctx, event); err != nil {
				a.logger.Warn(ctx, "audit finding event not published",
					logger.String("personID", pair.PersonID),
					logger.Error(err),
				)
			}
		}

		report.Findings = append(report.Findings, finding)
	}

	report.Duration = time.Since(start)
	a.logger.Info(ctx, "audit run complete",
		logger.Int("checked", report.Checked),
		logger.Int("findings", len(report.Findings)),
		logger.Int("autoFixed", report.AutoFixed),
	)
	return report, nil
}
