package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/inventory"
	"github.com/erazemk/oprema/internal/model"
)

// ItemsHandler handles item lifecycle and category endpoints.
type ItemsHandler struct {
	Items  *inventory.Service
	Logger *zap.Logger
}

type deployRequest struct {
	AssignedUser string `json:"assigned_user"`
	Note         string `json:"note"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type quantityRequest struct {
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

type itemResponse struct {
	Item *model.Item `json:"item"`
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid item id")
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	return GetUser(r.Context()).Username
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.ListItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"items": items})
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventory.NewItem
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.AddItem(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusCreated, itemResponse{Item: item})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Items.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if item.History == nil {
		item.History = []model.AuditEvent{}
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req inventory.ItemEdit
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.EditItem(r.Context(), actor(r), id, req)
	h.respondItem(w, item, err)
}

// Deploy handles POST /api/items/{id}/deploy.
func (h *ItemsHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req deployRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.DeployItem(r.Context(), actor(r), id, req.AssignedUser, req.Note)
	h.respondItem(w, item, err)
}

// Return handles POST /api/items/{id}/return.
func (h *ItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.ReturnItem(r.Context(), actor(r), id, req.Note)
	h.respondItem(w, item, err)
}

// Retire handles POST /api/items/{id}/retire.
func (h *ItemsHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req inventory.RetireOptions
	if err := decodeOptionalJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.RetireItem(r.Context(), actor(r), id, req)
	h.respondItem(w, item, err)
}

// Restore handles POST /api/items/{id}/restore.
func (h *ItemsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.RestoreItem(r.Context(), actor(r), id, req.Note)
	h.respondItem(w, item, err)
}

// AdjustQuantity handles POST /api/items/{id}/quantity.
func (h *ItemsHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	item, err := h.Items.AdjustQuantity(r.Context(), actor(r), id, req.Delta, req.Note)
	h.respondItem(w, item, err)
}

// CategorySummary handles GET /api/items/category/{category}/summary.
func (h *ItemsHandler) CategorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Items.GetCategorySummary(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if summary.Items == nil {
		summary.Items = []model.Item{}
	}
	if summary.History == nil {
		summary.History = []model.AuditEvent{}
	}
	jsonResponse(w, http.StatusOK, summary)
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Items.CategoryCounts(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if counts == nil {
		counts = []model.CategoryCount{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"categories": counts})
}

func (h *ItemsHandler) respondItem(w http.ResponseWriter, item *model.Item, err error) {
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemResponse{Item: item})
}
