package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/middleware"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	DeactivateMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuInvalidator drops a cached menu entry. Satisfied by *catalog.Cache.
type MenuInvalidator interface {
	Invalidate(id uuid.UUID) error
}

// MenuHandler exposes the menu to terminals. Prices are read-only here;
// a manager can only take an item off the menu for the rest of service.
type MenuHandler struct {
	store MenuStore
	cache MenuInvalidator
}

// NewMenuHandler creates a new MenuHandler. cache may be nil.
func NewMenuHandler(store MenuStore, cache MenuInvalidator) *MenuHandler {
	return &MenuHandler{store: store, cache: cache}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireRole(enum.UserRoleManager)).Delete("/{id}", h.Delete)
}

// --- Response types ---

type menuItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	TaxRate   string    `json:"tax_rate"`
	Routing   string    `json:"routing"`
	Category  *string   `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:        m.ID,
		Name:      m.Name,
		Price:     database.NumericToDecimal(m.Price).StringFixed(2),
		TaxRate:   database.NumericToDecimal(m.TaxRate).StringFixed(2),
		Routing:   m.Routing,
		UpdatedAt: m.UpdatedAt.Time,
	}
	if m.Category.Valid {
		resp.Category = &m.Category.String
	}
	return resp
}

func (h *MenuHandler) invalidate(id uuid.UUID) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(id); err != nil {
		log.WithError(err).WithField("menu_item_id", id).Warn("invalidate menu cache")
	}
}

// --- Handlers ---

// List returns all active menu items.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		writeServiceError(w, r, "list menu items", err)
		return
	}
	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single active menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "menu item")
	if !ok {
		return
	}
	m, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeServiceError(w, r, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(m))
}

// Delete deactivates a menu item. Existing order lines are unaffected.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "menu item")
	if !ok {
		return
	}
	if _, err := h.store.DeactivateMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeServiceError(w, r, "deactivate menu item", err)
		return
	}
	h.invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}
