// Package events publishes CRM change events to Kafka so downstream
// consumers (sync jobs, analytics) can react to rescoring and audits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/adrata/crmops/pkg/logger"
	"github.com/adrata/crmops/pkg/metrics"
)

// Default topic names.
const (
	DefaultRankTopic  = "crmops.rank-updates"
	DefaultAuditTopic = "crmops.audit-findings"
)

// RankUpdateEvent is emitted after a person's role or rank changes.
type RankUpdateEvent struct {
	PersonID   string    `json:"person_id"`
	Role       string    `json:"buyer_group_role"`
	GlobalRank int       `json:"global_rank"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditFindingEvent is emitted for each domain mismatch found by an
// audit run.
type AuditFindingEvent struct {
	PersonID      string    `json:"person_id"`
	Category      string    `json:"category"`
	Severity      string    `json:"severity"`
	EmailDomain   string    `json:"email_domain"`
	CompanyDomain string    `json:"company_domain"`
	AutoFixed     bool      `json:"auto_fixed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher writes events to per-concern Kafka topics.
type Publisher struct {
	rankWriter  *kafka.Writer
	auditWriter *kafka.Writer

	logger logger.Logger
}

// Option configures a Publisher.
type Option func(*options)

type options struct {
	rankTopic  string
	auditTopic string
}

// WithRankTopic overrides the rank-updates topic.
func WithRankTopic(topic string) Option {
	return func(o *options) {
		if topic != "" {
			o.rankTopic = topic
		}
	}
}

// WithAuditTopic overrides the audit-findings topic.
func WithAuditTopic(topic string) Option {
	return func(o *options) {
		if topic != "" {
			o.auditTopic = topic
		}
	}
}

// NewPublisher creates a publisher for the given brokers.
func NewPublisher(brokers []string, opts ...Option) *Publisher {
	o := &options{
		rankTopic:  DefaultRankTopic,
		auditTopic: DefaultAuditTopic,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Publisher{
		rankWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    o.rankTopic,
			Balancer: &kafka.LeastBytes{},
		},
		auditWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    o.auditTopic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger.Get().Named("events"),
	}
}

// PublishRankUpdate emits a rank-update event keyed by person ID.
func (p *Publisher) PublishRankUpdate(ctx context.Context, personID, roleLabel string, globalRank int) error {
	event := RankUpdateEvent{
		PersonID:   personID,
		Role:       roleLabel,
		GlobalRank: globalRank,
		OccurredAt: time.Now().UTC(),
	}
	return p.publish(ctx, p.rankWriter, personID, event)
}

// PublishAuditFinding emits a domain-mismatch event keyed by person ID.
func (p *Publisher) PublishAuditFinding(ctx context.Context, event AuditFindingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, p.auditWriter, event.PersonID, event)
}

func (p *Publisher) publish(ctx context.Context, w *kafka.Writer, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.RecordEventPublishError(w.Topic)
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		metrics.RecordEventPublishError(w.Topic)
		return fmt.Errorf("write to %s: %w", w.Topic, err)
	}

	metrics.RecordEventPublished(w.Topic)
	p.logger.Debug(ctx, "event published",
		logger.String("topic", w.Topic),
		logger.String("key", key),
	)
	return nil
}

// Close closes both writers.
func (p *Publisher) Close() error {
	if err := p.rankWriter.Close(); err != nil {
		return err
	}
	return p.auditWriter.Close()
}
