package handlers

import (
	"net/http"

	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/services"
)

type NegotiationHandler struct {
	negotiation *services.NegotiationService
}

func NewNegotiationHandler(negotiation *services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiation: negotiation}
}

func (h *NegotiationHandler) ListCommunications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	comms, err := h.negotiation.ListCommunications(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, comms)
}

func (h *NegotiationHandler) CreateCommunication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.CommunicationInput
	if !decode(w, r, &in) {
		return
	}
	if in.EnteredByUserID == nil {
		in.EnteredByUserID = currentUser(r)
	}
	comm, err := h.negotiation.RecordCommunication(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, comm)
}

func (h *NegotiationHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	body := struct {
		Completed *bool `json:"completed"`
	}{}
	if !decode(w, r, &body) {
		return
	}
	completed := body.Completed == nil || *body.Completed
	comm, err := h.negotiation.CompleteFollowUp(r.Context(), id, completed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, comm)
}

func (h *NegotiationHandler) CreateSkuChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	skuID, ok := pathID(w, r, "skuId")
	if !ok {
		return
	}
	var in services.SkuChangeInput
	if !decode(w, r, &in) {
		return
	}
	if in.EnteredByUserID == nil {
		in.EnteredByUserID = currentUser(r)
	}
	change, err := h.negotiation.RecordSkuChange(r.Context(), id, skuID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, change)
}

// ListSkuChanges serves both the per-SKU and the whole-RFQ change history.
func (h *NegotiationHandler) ListSkuChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var skuID *uint
	if r.PathValue("skuId") != "" {
		n, ok := pathID(w, r, "skuId")
		if !ok {
			return
		}
		skuID = &n
	}
	changes, err := h.negotiation.ListSkuChanges(r.Context(), id, skuID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, changes)
}

func (h *NegotiationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sum, err := h.negotiation.GetSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, sum)
}
