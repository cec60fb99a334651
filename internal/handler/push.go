package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kidbank/internal/push"
	"github.com/dukerupert/kidbank/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeMessage(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), string(actor.Role), actor.ID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.pushStore.GetByEndpoint(r.Context(), req.Endpoint)
	if err != nil {
		h.logger.Error("get push subscription", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if sub == nil || sub.RecipientID != actor.ID || sub.RecipientRole != string(actor.Role) {
		writeMessage(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err := h.pushStore.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
