// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/adrata/crmops/internal/adapters/mq/queue"
	workerpool "github.com/adrata/crmops/internal/adapters/mq/worker"
	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/dedupe"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/domain/rank"
	"github.com/adrata/crmops/internal/domain/types"
	"github.com/adrata/crmops/internal/events"
	"github.com/adrata/crmops/internal/pipeline"
	"github.com/adrata/crmops/pkg/logger"
	"github.com/adrata/crmops/pkg/metrics"
)

// Service implements the API dependencies for the CRM scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	scorer     *pipeline.Scorer
	workerPool *workerpool.Pool
	publisher  *events.Publisher

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	databaseURL string
	brokers     []string
	rankTopic   string
	auditTopic  string
	calculator  *rank.Calculator

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the rescore-job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDatabaseURL selects the Postgres store. Empty keeps the
// in-memory store.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) {
		s.databaseURL = dsn
	}
}

// WithKafka enables event publishing to the given brokers. Empty
// topics keep the defaults.
func WithKafka(brokers []string, rankTopic, auditTopic string) Option {
	return func(s *Service) {
		s.brokers = brokers
		s.rankTopic = rankTopic
		s.auditTopic = auditTopic
	}
}

// WithCalculator overrides the rank calculator.
func WithCalculator(c *rank.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calculator = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100_000,
		dedupeSize:  100_000,
		stopCh:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting crm scoring service...")

	if s.databaseURL != "" {
		store, err := repository.NewPostgresStore(ctx, s.databaseURL)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using postgres store")
	} else {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)
	s.scorer = pipeline.NewScorer(s.calculator)

	var workerOpts []workerpool.Option
	if len(s.brokers) > 0 {
		s.publisher = events.NewPublisher(s.brokers,
			events.WithRankTopic(s.rankTopic),
			events.WithAuditTopic(s.auditTopic),
		)
		workerOpts = append(workerOpts, workerpool.WithPublisher(s.publisher))
		s.logger.Info(ctx, "event publishing enabled")
	}

	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.scorer, s.store, workerOpts...)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "crm scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping crm scoring service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "crm scoring service stopped")
}

// SeenAndRecord atomically checks if a request id was seen and records it
// if not. Returns true if the request was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordRescoreDuplicate()
	}
	return seen
}

// Unrecord removes a request ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// EnqueueRescore loads the person and submits a rescore job for
// asynchronous processing.
func (s *Service) EnqueueRescore(ctx context.Context, requestID, personID string) error {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}

	job := model.RescoreJob{
		RequestID: requestID,
		Person:    person,
		TS:        time.Now().UTC(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		return ErrBackpressure
	}

	s.logger.Debug(ctx, "rescore job enqueued",
		logger.String("requestID", requestID),
		logger.String("personID", personID),
	)
	return nil
}

// UpsertPerson creates or replaces a person record.
func (s *Service) UpsertPerson(ctx context.Context, p model.Person) error {
	return s.store.UpsertPerson(ctx, p)
}

// UpsertCompany creates or replaces a company record.
func (s *Service) UpsertCompany(ctx context.Context, c model.Company) error {
	return s.store.UpsertCompany(ctx, c)
}

// Queue returns the top N outreach-queue entries, best rank first.
func (s *Service) Queue(ctx context.Context, n int) ([]types.QueueEntry, error) {
	entries, err := s.store.Queue(ctx, n)
	if err != nil {
		return nil, err
	}
	return toQueueEntries(entries), nil
}

// Rank returns the queue entry for a given person id.
func (s *Service) Rank(ctx context.Context, personID string) (types.QueueEntry, error) {
	entry, err := s.store.Rank(ctx, personID)
	if err != nil {
		return types.QueueEntry{}, err
	}
	return toQueueEntry(entry), nil
}

// Store exposes the underlying repository for batch pipelines.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Publisher exposes the event publisher; nil when Kafka is not
// configured.
func (s *Service) Publisher() *events.Publisher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		totalPeople := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalPeople"] = totalPeople
		stats["publishing"] = s.publisher != nil

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalPeople(totalPeople)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func toQueueEntry(e repository.Entry) types.QueueEntry {
	return types.QueueEntry{
		Position:   e.Position,
		PersonID:   e.PersonID,
		Name:       e.Name,
		Role:       e.Role,
		GlobalRank: e.GlobalRank,
		Influence:  e.Influence,
	}
}

func toQueueEntries(entries []repository.Entry) []types.QueueEntry {
	out := make([]types.QueueEntry, len(entries))
	for i, e := range entries {
		out[i] = toQueueEntry(e)
	}
	return out
}
