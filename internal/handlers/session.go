package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/uds-rfq/auth"
	"github.com/diewo77/uds-rfq/httpx"
)

// SessionHandler issues session cookies for an already identified user id. It is meant
// for development and for clients that sit behind the identity provider.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler { return &SessionHandler{} }

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	uid := strings.TrimSpace(body.UserID)
	if uid == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "validation failed", map[string]string{"user_id": "required"})
		return
	}
	auth.CreateSession(w, uid)
	httpx.OK(w, http.StatusCreated, map[string]string{"user_id": uid})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "", nil)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"user_id": uid})
}
