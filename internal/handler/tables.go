package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
)

// TableStore defines the database methods needed by floor plan handlers.
// Satisfied by *database.Queries.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
}

// TableHandler serves the floor plan. Tables are provisioned by cmd/seed.
type TableHandler struct {
	store TableStore
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers floor plan endpoints. Expected to be mounted at /tables
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type tableResponse struct {
	ID        uuid.UUID  `json:"id"`
	Label     string     `json:"label"`
	Status    string     `json:"status"`
	OpenedBy  *uuid.UUID `json:"opened_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:        t.ID,
		Label:     t.Label,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.Time,
	}
	if t.OpenedBy.Valid {
		id := uuid.UUID(t.OpenedBy.Bytes)
		resp.OpenedBy = &id
	}
	return resp
}

// List returns every table with its occupancy.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		writeServiceError(w, r, "list tables", err)
		return
	}
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

