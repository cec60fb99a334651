package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/store"
)

type NotificationHandler struct {
	store  *store.NotificationStore
	logger *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: ns, logger: logger}
}

// List handles GET /api/notifications?unread=true&limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	unread := r.URL.Query().Get("unread") == "true"

	items, err := h.store.ListByRecipient(r.Context(), string(actor.Role), actor.ID, unread, limit)
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if items == nil {
		items = []model.Notification{}
	}
	count, err := h.store.CountUnread(r.Context(), string(actor.Role), actor.ID)
	if err != nil {
		h.logger.Error("count unread notifications", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items, "unread": count})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = h.store.MarkRead(r.Context(), id, string(actor.Role), actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		h.logger.Error("mark notification read", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
