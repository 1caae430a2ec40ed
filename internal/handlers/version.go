package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/services"
)

type VersionHandler struct {
	versions *services.VersionService
}

func NewVersionHandler(versions *services.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

func versionNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || n <= 0 {
		badRequest(w, "invalid number")
		return 0, false
	}
	return n, true
}

func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versions, err := h.versions.GetVersions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, versions)
}

func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.CreateVersionInput
	if !decode(w, r, &in) {
		return
	}
	in.RfqID = id
	if in.SubmittedByUserID == nil {
		in.SubmittedByUserID = currentUser(r)
	}
	if in.CreatedBy == "" {
		in.CreatedBy = currentUserName(r)
	}
	version, err := h.versions.CreateVersion(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, version)
}

func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := versionNumber(w, r)
	if !ok {
		return
	}
	version, err := h.versions.GetVersion(r.Context(), id, number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, version)
}

func (h *VersionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := versionNumber(w, r)
	if !ok {
		return
	}
	var upd services.VersionStatusUpdate
	if !decode(w, r, &upd) {
		return
	}
	version, err := h.versions.UpdateVersionStatus(r.Context(), id, number, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, version)
}
