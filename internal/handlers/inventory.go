package handlers

import (
	"net/http"

	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/internal/services"
)

type InventoryHandler struct {
	inventory *services.InventoryService
	customers *services.CustomerService
}

func NewInventoryHandler(inventory *services.InventoryService, customers *services.CustomerService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, customers: customers}
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := queryInt(r, "limit"), queryInt(r, "offset")
	items, total, err := h.inventory.ListInventory(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, page[models.InventoryItem]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InventoryInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.inventory.CreateInventoryItem(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, item)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.inventory.GetInventoryItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, item)
}

func (h *InventoryHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := queryInt(r, "limit"), queryInt(r, "offset")
	customers, total, err := h.customers.ListCustomers(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, page[models.Customer]{Items: customers, Total: total, Limit: limit, Offset: offset})
}

func (h *InventoryHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.customers.CreateCustomer(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, c)
}
