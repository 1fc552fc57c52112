// Package pipeline implements the batch operations run against the
// people store: full rescoring, domain auditing, and enrichment.
package pipeline

import (
	"context"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/domain/rank"
	"github.com/adrata/crmops/internal/domain/role"
)

// Scorer recomputes a person's buyer-group role and global rank from
// their current attributes. It is shared by the batch rescore pipeline
// and the queue workers so both produce identical scores.
type Scorer struct {
	calc *rank.Calculator
}

// NewScorer wraps a rank calculator.
func NewScorer(calc *rank.Calculator) *Scorer {
	if calc == nil {
		calc = rank.NewCalculator()
	}
	return &Scorer{calc: calc}
}

// Score classifies the person's title and computes their global rank.
func (s *Scorer) Score(_ context.Context, p model.Person) (string, int, error) {
	r := role.Classify(p.JobTitle)
	globalRank := s.calc.Compute(rank.Inputs{
		Role:                &r,
		InfluenceScore:      p.InfluenceScore,
		EngagementScore:     p.EngagementScore,
		DataQualityScore:    p.DataQualityScore,
		LinkedinConnections: p.LinkedinConnections,
		LinkedinFollowers:   p.LinkedinFollowers,
	})
	return r.String(), globalRank, nil
}
