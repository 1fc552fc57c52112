// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
)

// QueueDependencies defines the interface for queue reads.
type QueueDependencies interface {
	Queue(ctx context.Context, n int) ([]Entry, error)
}

// QueueHandler handles outreach-queue requests.
type QueueHandler struct {
	deps     QueueDependencies
	maxLimit int
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps QueueDependencies, maxLimit int) *QueueHandler {
	return &QueueHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetQueue handles GET /queue?limit=N requests.
func (h *QueueHandler) HandleGetQueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_queue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Queue(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
