package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/lifecycle"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RfqHandler struct {
	rfqs   *services.RfqService
	export *services.ExportService
}

func NewRfqHandler(rfqs *services.RfqService, export *services.ExportService) *RfqHandler {
	return &RfqHandler{rfqs: rfqs, export: export}
}

func (h *RfqHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.RfqFilter{
		Status: lifecycle.NormalizeStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	rfqs, total, err := h.rfqs.ListRfqs(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, page[models.Rfq]{Items: rfqs, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *RfqHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.RfqInput
	if !decode(w, r, &in) {
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = currentUserName(r)
	}
	rfq, err := h.rfqs.CreateRfq(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, rfq)
}

func (h *RfqHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rfq, err := h.rfqs.GetRfq(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"rfq": rfq, "rules": rfq.Rules()})
}

func (h *RfqHandler) Rules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rules, err := h.rfqs.Rules(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rules)
}

func (h *RfqHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status lifecycle.Status `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	rfq, err := h.rfqs.TransitionRfq(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rfq)
}

func (h *RfqHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	data, err := h.export.ExportRfqWorkbook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rfq-%d.xlsx"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
