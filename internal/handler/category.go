package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/websocket"
)

type CategoryHandler struct {
	categories *store.CategoryStore
	children   *store.ChildStore
	catalog    *catalog.Service
	events     Publisher
	logger     *slog.Logger
}

func NewCategoryHandler(cs *store.CategoryStore, children *store.ChildStore, cat *catalog.Service, events Publisher, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: cs, children: children, catalog: cat, events: events, logger: logger}
}

type categoryRequest struct {
	Name               string             `json:"name" validate:"required,max=40"`
	Icon               string             `json:"icon"`
	ColorHex           string             `json:"color_hex" validate:"omitempty,hexcolor"`
	IsActive           *bool              `json:"is_active"`
	SortOrder          int                `json:"sort_order" validate:"min=0"`
	RecommendedMinutes int                `json:"recommended_minutes" validate:"required,min=1,max=1440"`
	CategoryType       model.CategoryType `json:"category_type" validate:"omitempty,oneof=task reward"`
	PointsMultiplier   float64            `json:"points_multiplier" validate:"omitempty,gt=0,lte=10"`
	ParentCategoryID   *string            `json:"parent_category_id"`
}

func (req categoryRequest) apply(c *model.Category) {
	c.Name = strings.TrimSpace(req.Name)
	c.Icon = req.Icon
	c.ColorHex = req.ColorHex
	c.IsActive = req.IsActive == nil || *req.IsActive
	c.SortOrder = req.SortOrder
	c.RecommendedSeconds = int64(req.RecommendedMinutes) * 60
	c.CategoryType = req.CategoryType
	c.PointsMultiplier = req.PointsMultiplier
	c.ParentCategoryID = req.ParentCategoryID
}

// List returns the child's categories, seeding defaults for a new child.
// ?active=true limits the result to active categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	child, err := h.children.GetByID(childID)
	if err != nil {
		h.logger.Error("get child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	cats, err := h.catalog.Load(childID)
	if err != nil {
		h.logger.Error("load categories", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if r.URL.Query().Get("active") == "true" {
		cats = catalog.Active(cats)
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// Suggest returns the category matching ?title, or 404 when none fits.
func (h *CategoryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	child, err := h.children.GetByID(childID)
	if err != nil {
		h.logger.Error("get child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to suggest category")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	cats, err := h.catalog.Load(childID)
	if err != nil {
		h.logger.Error("load categories", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to suggest category")
		return
	}
	c, ok := catalog.Suggest(r.URL.Query().Get("title"), cats)
	if !ok {
		writeError(w, http.StatusNotFound, "no matching category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	child, err := h.children.GetByID(childID)
	if err != nil {
		h.logger.Error("get child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	var req categoryRequest
	if !decodeValid(w, r, &req) {
		return
	}
	c := model.Category{ChildID: childID}
	req.apply(&c)

	created, err := h.categories.Create(c)
	if err != nil {
		handleError(w, h.logger, err, "failed to create category")
		return
	}

	h.events.Publish(websocket.EntityCategory, websocket.ActionCreated, childID, created.ID, nil)
	writeJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) find(w http.ResponseWriter, r *http.Request) (*model.Category, bool) {
	c, err := h.categories.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return nil, false
	}
	return c, true
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.find(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeValid(w, r, &req) {
		return
	}
	c := *existing
	req.apply(&c)

	updated, err := h.categories.Update(c)
	if err != nil {
		handleError(w, h.logger, err, "failed to update category")
		return
	}

	h.events.Publish(websocket.EntityCategory, websocket.ActionUpdated, updated.ChildID, updated.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

// Deactivate hides a category from pickers. System categories can be
// deactivated but not deleted.
func (h *CategoryHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.categories.SetActive(c.ID, false); err != nil {
		handleError(w, h.logger, err, "failed to deactivate category")
		return
	}
	c.IsActive = false

	h.events.Publish(websocket.EntityCategory, websocket.ActionUpdated, c.ChildID, c.ID, map[string]any{"is_active": false})
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.categories.Delete(c.ID); err != nil {
		handleError(w, h.logger, err, "failed to delete category")
		return
	}

	h.events.Publish(websocket.EntityCategory, websocket.ActionDeleted, c.ChildID, c.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}
