// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/adrata/crmops/internal/app"
	"github.com/adrata/crmops/internal/domain/dedupe"
)

// RescoreDependencies defines the interface for rescore processing.
type RescoreDependencies interface {
	dedupe.Deduper
	EnqueueRescore(ctx context.Context, requestID, personID string) error
}

// RescoreHandler handles rescore requests.
type RescoreHandler struct {
	deps RescoreDependencies
}

// NewRescoreHandler creates a new rescore handler.
func NewRescoreHandler(deps RescoreDependencies) *RescoreHandler {
	return &RescoreHandler{deps: deps}
}

// rescoreRequest mirrors the OpenAPI schema for POST /rescore.
type rescoreRequest struct {
	RequestID string `json:"request_id"`
	PersonID  string `json:"person_id"`
	TS        string `json:"ts"`
}

func (e rescoreRequest) validate() error {
	switch {
	case strings.TrimSpace(e.RequestID) == "":
		return errors.New("missing request_id")
	case strings.TrimSpace(e.PersonID) == "":
		return errors.New("missing person_id")
	}
	if e.TS != "" {
		if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// HandlePostRescore handles POST /rescore requests.
func (h *RescoreHandler) HandlePostRescore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rescore"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req rescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.RequestID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.EnqueueRescore(r.Context(), req.RequestID, req.PersonID); err != nil {
		// Rollback the "seen" status so the request can be retried
		h.deps.Unrecord(r.Context(), req.RequestID)
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		case errors.Is(err, service.ErrBackpressure):
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
