package handlers

import (
	"net/http"

	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/services"
)

type ResponseHandler struct {
	responses *services.ResponseService
}

func NewResponseHandler(responses *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{responses: responses}
}

func (h *ResponseHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.ResponseInput
	if !decode(w, r, &in) {
		return
	}
	resp, err := h.responses.RecordResponse(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, resp)
}

func (h *ResponseHandler) CreateDetailed(w http.ResponseWriter, r *http.Request) {
	rfqID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}
	var in services.DetailedResponseInput
	if !decode(w, r, &in) {
		return
	}
	if in.EnteredByUserID == nil {
		in.EnteredByUserID = currentUser(r)
	}
	resp, err := h.responses.RecordDetailedResponse(r.Context(), rfqID, versionID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, resp)
}

func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.responses.GetResponses(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, entries)
}
