package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/pkg/logger"
	"github.com/adrata/crmops/pkg/metrics"
)

// RankPublisher emits one event per changed score. Optional.
type RankPublisher interface {
	PublishRankUpdate(ctx context.Context, personID, roleLabel string, globalRank int) error
}

// RescoreReport summarizes one batch rescore run.
type RescoreReport struct {
	Processed int
	Updated   int
	ByRole    map[string]int
	Duration  time.Duration
}

// Rescorer recomputes role and rank for every person matching a filter
// and persists the results in one batch.
type Rescorer struct {
	store     repository.Store
	scorer    *Scorer
	publisher RankPublisher

	logger logger.Logger
}

// RescorerOption configures a Rescorer.
type RescorerOption func(*Rescorer)

// WithRescorePublisher emits rank-update events for changed rows.
func WithRescorePublisher(p RankPublisher) RescorerOption {
	return func(r *Rescorer) {
		r.publisher = p
	}
}

// NewRescorer creates a batch rescorer.
func NewRescorer(store repository.Store, scorer *Scorer, opts ...RescorerOption) *Rescorer {
	r := &Rescorer{
		store:  store,
		scorer: scorer,
		logger: logger.Get().Named("rescore"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run rescores everyone matching the filter. Scores are recomputed
// from scratch, never adjusted incrementally.
func (r *Rescorer) Run(ctx context.Context, f repository.PersonFilter) (RescoreReport, error) {
	start := time.Now()
	report := RescoreReport{ByRole: make(map[string]int)}

	people, err := r.store.ListPeople(ctx, f)
	if err != nil {
		return report, fmt.Errorf("list people: %w", err)
	}

	updates := make([]repository.ScoreUpdate, 0, len(people))
	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		roleLabel, globalRank, err := r.scorer.Score(ctx, p)
		if err != nil {
			metrics.RecordErrorByComponent("pipeline", "scoring_error")
			return report, fmt.Errorf("score person %s: %w", p.ID, err)
		}

		updates = append(updates, repository.ScoreUpdate{
			PersonID:   p.ID,
			Role:       roleLabel,
			GlobalRank: globalRank,
		})
		report.ByRole[roleLabel]++
		report.Processed++
		metrics.RecordRescoreProcessed()
	}

	changed, err := r.store.BulkUpdateScores(ctx, updates)
	if err != nil {
		return report, fmt.Errorf("bulk update scores: %w", err)
	}
	report.Updated = changed
	for i := 0; i < changed; i++ {
		metrics.RecordRankUpdate()
	}

	if r.publisher != nil {
		for _, u := range updates {
			if err := r.publisher.PublishRankUpdate(ctx, u.PersonID, u.Role, u.GlobalRank); err != nil {
				r.logger.Warn(ctx, "rank update event not published",
					logger.String("personID", u.PersonID),
					logger.Error(err),
				)
			}
		}
	}

	report.Duration = time.Since(start)
	r.logger.Info(ctx, "rescore run complete",
		logger.Int("processed", report.Processed),
		logger.Int("updated", report.Updated),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}
