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

type ChildHandler struct {
	children *store.ChildStore
	catalog  *catalog.Service
	events   Publisher
	logger   *slog.Logger
}

func NewChildHandler(cs *store.ChildStore, cat *catalog.Service, events Publisher, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{children: cs, catalog: cat, events: events, logger: logger}
}

type childRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Avatar      string `json:"avatar" validate:"max=16"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
}

// find loads the child named by the {id} path value, writing 404 when absent.
func (h *ChildHandler) find(w http.ResponseWriter, r *http.Request) (*model.Child, bool) {
	child, err := h.children.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return nil, false
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return nil, false
	}
	return child, true
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.children.List()
	if err != nil {
		h.logger.Error("list children", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

// Create adds a child profile and seeds its default categories.
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if !decodeValid(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	child, err := h.children.Create(req.Name, req.Avatar, req.ParentEmail)
	if err != nil {
		h.logger.Error("create child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create child")
		return
	}
	if err := h.catalog.EnsureDefaults(child.ID); err != nil {
		h.logger.Error("seed default categories", "child_id", child.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create child")
		return
	}

	h.events.Publish(websocket.EntityChild, websocket.ActionCreated, child.ID, child.ID, nil)
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	child, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.find(w, r); !ok {
		return
	}
	var req childRequest
	if !decodeValid(w, r, &req) {
		return
	}

	child, err := h.children.Update(r.PathValue("id"), strings.TrimSpace(req.Name), req.Avatar, req.ParentEmail)
	if err != nil {
		h.logger.Error("update child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update child")
		return
	}

	h.events.Publish(websocket.EntityChild, websocket.ActionUpdated, child.ID, child.ID, nil)
	writeJSON(w, http.StatusOK, child)
}

// Delete removes the child and, through cascading keys, all of its data.
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	child, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.children.Delete(child.ID); err != nil {
		h.logger.Error("delete child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete child")
		return
	}

	h.events.Publish(websocket.EntityChild, websocket.ActionDeleted, child.ID, child.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}
