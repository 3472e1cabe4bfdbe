package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyaneshwarpardhi/mro/internal/dispatch"
	"github.com/gyaneshwarpardhi/mro/internal/engine"
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error     string               `json:"error"`
	Kind      string               `json:"kind,omitempty"`
	Class     string               `json:"class,omitempty"`
	Conflicts []hierarchy.Conflict `json:"conflicts,omitempty"`
	Cycle     []string             `json:"cycle,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps engine and hierarchy errors to a status and envelope.
func writeDomainError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	writeJSON(w, status, body)
}

func errorBody(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error(), Kind: engine.Outcome(err)}

	var inconsistent *hierarchy.InconsistentHierarchyError
	var invalid *hierarchy.InvalidHierarchyError
	switch {
	case errors.As(err, &inconsistent):
		body.Class = inconsistent.Class
		body.Conflicts = inconsistent.Conflicts
		return http.StatusConflict, body
	case errors.As(err, &invalid):
		body.Class = invalid.Class
		body.Cycle = invalid.Cycle
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, hierarchy.ErrInvalidHierarchy):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, hierarchy.ErrClassNotFound), errors.Is(err, dispatch.ErrMethodNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, engine.ErrQueueFull):
		body.Kind = "queue_full"
		return http.StatusTooManyRequests, body
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		body.Kind = "timeout"
		return http.StatusGatewayTimeout, body
	default:
		return http.StatusInternalServerError, body
	}
}
