// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/dedupe"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// EnqueueRescore submits a rescore job for async processing.
	EnqueueRescore(ctx context.Context, requestID, personID string) error

	// Record writes used by CRM sync tooling.
	UpsertPerson(ctx context.Context, p model.Person) error
	UpsertCompany(ctx context.Context, c model.Company) error

	// Read operations expose the outreach queue.
	Queue(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, personID string) (Entry, error)
}

// Entry mirrors the read shape returned by queue queries.
type Entry = types.QueueEntry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rescoreHandler *RescoreHandler
	peopleHandler  *PeopleHandler
	queueHandler   *QueueHandler
	rankHandler    *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxQueueLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		rescoreHandler: NewRescoreHandler(deps),
		peopleHandler:  NewPeopleHandler(deps),
		queueHandler:   NewQueueHandler(deps, maxQueueLimit),
		rankHandler:    NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rescore", MetricsMiddleware(s.rescoreHandler.HandlePostRescore, "rescore"))
	mux.HandleFunc("/people", MetricsMiddleware(s.peopleHandler.HandlePostPerson, "people"))
	mux.HandleFunc("/companies", MetricsMiddleware(s.peopleHandler.HandlePostCompany, "companies"))
	mux.HandleFunc("/queue", MetricsMiddleware(s.queueHandler.HandleGetQueue, "queue"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
