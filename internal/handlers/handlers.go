// Package handlers exposes the quotation services as JSON endpoints.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/uds-rfq/auth"
	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/services"
)

// writeError maps a service error onto its HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	se := services.AsError(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(se, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(se, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(se, services.ErrInvalidState), errors.Is(se, services.ErrConflict):
		status = http.StatusConflict
	}

	msg := se.Message
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	var details any
	if len(se.Details) > 0 {
		details = se.Details
	}
	httpx.JSONError(w, status, se.Code(), msg, details)
}

func badRequest(w http.ResponseWriter, msg string) {
	httpx.JSONError(w, http.StatusBadRequest, "bad_request", msg, nil)
}

// decode reads the JSON body into dst, answering 400 on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// page is the body of list endpoints.
type page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}

func currentUser(r *http.Request) *string {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		return &uid
	}
	return nil
}

func currentUserName(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
