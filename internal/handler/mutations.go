package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/service"
)

// ReplayServicer defines the service methods needed by the replay endpoint.
// Satisfied by *service.ReplayService.
type ReplayServicer interface {
	Apply(ctx context.Context, m order.Mutation, by uuid.UUID) (*service.ReplayResult, error)
}

// MutationHandler accepts mutations queued by terminals while offline.
type MutationHandler struct {
	svc ReplayServicer
}

// NewMutationHandler creates a new MutationHandler.
func NewMutationHandler(svc ReplayServicer) *MutationHandler {
	return &MutationHandler{svc: svc}
}

// RegisterRoutes registers the replay endpoint. Only device tokens may
// replay. Expected to be mounted at /orders
func (h *MutationHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireDevice).Post("/mutations", h.Apply)
}

// Apply handles POST /orders/mutations. A conflict still carries the result
// body so the terminal can show what was dropped.
func (h *MutationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	device, ok := staffID(w, r)
	if !ok {
		return
	}
	var m order.Mutation
	if !decodeBody(w, r, &m) {
		return
	}
	if m.LocalID == uuid.Nil || m.Kind == "" {
		writeError(w, http.StatusBadRequest, "local_id and kind are required")
		return
	}

	res, err := h.svc.Apply(r.Context(), m, device)
	if err != nil {
		if errors.Is(err, order.ErrReplayConflict) && res != nil {
			log.WithFields(log.Fields{
				"local_id": m.LocalID,
				"kind":     m.Kind,
				"detail":   res.Detail,
			}).Warn("offline mutation conflicted")
			writeJSON(w, http.StatusConflict, res)
			return
		}
		writeServiceError(w, r, "replay mutation", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
