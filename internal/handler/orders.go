package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Get(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	GetByTable(ctx context.Context, tableID uuid.UUID) (*service.OrderSnapshot, error)
	AddToTable(ctx context.Context, tableID uuid.UUID, req service.AddItemRequest) (*service.ItemResult, error)
	AdjustQuantity(ctx context.Context, orderID, itemID uuid.UUID, delta int32) (*service.ItemResult, error)
	Advance(ctx context.Context, orderID, itemID uuid.UUID) (*service.ItemResult, error)
	Complete(ctx context.Context, orderID, itemID uuid.UUID) (*service.ItemResult, error)
	SetNotes(ctx context.Context, orderID, itemID uuid.UUID, notes string) (*service.ItemResult, error)
	Offer(ctx context.Context, orderID, itemID uuid.UUID, quantity int32, reason string) (*service.ItemResult, error)
	CancelOffer(ctx context.Context, orderID, originalID, complimentaryID uuid.UUID) (*service.ItemResult, error)
	AddSupplement(ctx context.Context, orderID uuid.UUID, in order.NewSupplement) (*service.OrderSnapshot, error)
	SetCovers(ctx context.Context, orderID uuid.UUID, covers int32) (*service.OrderSnapshot, error)
	Transfer(ctx context.Context, orderID, toTableID uuid.UUID) (*service.OrderSnapshot, error)
	CloseEmpty(ctx context.Context, tableID uuid.UUID) error
	CloseSettled(ctx context.Context, orderID uuid.UUID) (*service.OrderSnapshot, error)
	Fire(ctx context.Context, orderID uuid.UUID, supplements []order.NewSupplement) (*service.FireResult, error)
	Reprint(ctx context.Context, orderID uuid.UUID, destination string, failedOnly bool) (*service.FireResult, error)
}

// OrderHandler handles table order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterTableRoutes registers the table-addressed endpoints.
// Expected to be mounted at /tables/{tid}/order
func (h *OrderHandler) RegisterTableRoutes(r chi.Router) {
	r.Get("/", h.GetByTable)
	r.Post("/items", h.AddItem)
	r.Post("/close-empty", h.CloseEmpty)
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/transfer", h.Transfer)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/supplements", h.AddSupplement)
	r.Post("/{id}/fire", h.Fire)
	r.Post("/{id}/reprint", h.Reprint)
	r.Post("/{id}/items/merge", h.Merge)
	r.Patch("/{id}/items/{itemId}/quantity", h.AdjustQuantity)
	r.Patch("/{id}/items/{itemId}/notes", h.SetNotes)
	r.Post("/{id}/items/{itemId}/advance", h.Advance)
	r.Post("/{id}/items/{itemId}/complete", h.Complete)
	r.Post("/{id}/items/{itemId}/offer", h.Offer)
}

// --- Request types ---

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
	Status     string `json:"status"`
	Covers     int32  `json:"covers"`
}

type updateOrderRequest struct {
	Covers *int32 `json:"covers"`
}

type transferRequest struct {
	ToTableID string `json:"to_table_id"`
}

type quantityRequest struct {
	Delta int32 `json:"delta"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type offerRequest struct {
	Quantity int32  `json:"quantity"`
	Reason   string `json:"reason"`
}

type mergeRequest struct {
	OriginalID      string `json:"original_id"`
	ComplimentaryID string `json:"complimentary_id"`
}

type supplementRequest struct {
	Name                string          `json:"name"`
	Amount              decimal.Decimal `json:"amount"`
	Notes               string          `json:"notes"`
	Complimentary       bool            `json:"is_complimentary"`
	ComplimentaryReason string          `json:"complimentary_reason"`
}

type fireRequest struct {
	Supplements []supplementRequest `json:"supplements"`
}

type reprintRequest struct {
	Destination string `json:"destination"`
	FailedOnly  bool   `json:"failed_only"`
}

func (s supplementRequest) toNew(by uuid.UUID) (order.NewSupplement, error) {
	if s.Name == "" {
		return order.NewSupplement{}, errors.New("supplement name is required")
	}
	return order.NewSupplement{
		Name:                s.Name,
		Amount:              s.Amount,
		Notes:               s.Notes,
		Complimentary:       s.Complimentary,
		ComplimentaryReason: s.ComplimentaryReason,
		CreatedBy:           by,
	}, nil
}

// --- Table handlers ---

// GetByTable handles GET /tables/{tid}/order. A table without an open
// order answers null.
func (h *OrderHandler) GetByTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(w, r, "tid", "table")
	if !ok {
		return
	}
	snap, err := h.svc.GetByTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeServiceError(w, r, "get table order", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// AddItem handles POST /tables/{tid}/order/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(w, r, "tid", "table")
	if !ok {
		return
	}
	by, ok := staffID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "menu_item_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.svc.AddToTable(r.Context(), tableID, service.AddItemRequest{
		MenuItemID: menuItemID,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		Status:     req.Status,
		Covers:     req.Covers,
		By:         by,
	})
	if err != nil {
		writeServiceError(w, r, "add item", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// CloseEmpty handles POST /tables/{tid}/order/close-empty.
func (h *OrderHandler) CloseEmpty(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(w, r, "tid", "table")
	if !ok {
		return
	}
	if err := h.svc.CloseEmpty(r.Context(), tableID); err != nil {
		writeServiceError(w, r, "close empty order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Order handlers ---

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	snap, err := h.svc.Get(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Update handles PATCH /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Covers == nil {
		writeError(w, http.StatusBadRequest, "covers is required")
		return
	}
	snap, err := h.svc.SetCovers(r.Context(), orderID, *req.Covers)
	if err != nil {
		writeServiceError(w, r, "set covers", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Transfer handles POST /orders/{id}/transfer.
func (h *OrderHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	toTableID, err := uuid.Parse(req.ToTableID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to_table_id is required")
		return
	}
	snap, err := h.svc.Transfer(r.Context(), orderID, toTableID)
	if err != nil {
		writeServiceError(w, r, "transfer order", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Close handles POST /orders/{id}/close.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	snap, err := h.svc.CloseSettled(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, "close order", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// AddSupplement handles POST /orders/{id}/supplements.
func (h *OrderHandler) AddSupplement(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	by, ok := staffID(w, r)
	if !ok {
		return
	}
	var req supplementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := req.toNew(by)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.svc.AddSupplement(r.Context(), orderID, in)
	if err != nil {
		writeServiceError(w, r, "add supplement", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Fire handles POST /orders/{id}/fire.
func (h *OrderHandler) Fire(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	by, ok := staffID(w, r)
	if !ok {
		return
	}
	var req fireRequest
	if !decodeBody(w, r, &req) {
		return
	}
	supplements := make([]order.NewSupplement, 0, len(req.Supplements))
	for _, s := range req.Supplements {
		in, err := s.toNew(by)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		supplements = append(supplements, in)
	}

	res, err := h.svc.Fire(r.Context(), orderID, supplements)
	if err != nil {
		writeServiceError(w, r, "fire", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reprint handles POST /orders/{id}/reprint.
func (h *OrderHandler) Reprint(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	var req reprintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Reprint(r.Context(), orderID, req.Destination, req.FailedOnly)
	if err != nil {
		writeServiceError(w, r, "reprint", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Item handlers ---

func (h *OrderHandler) itemIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, ok := urlID(w, r, "itemId", "item")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}

// AdjustQuantity handles PATCH /orders/{id}/items/{itemId}/quantity.
func (h *OrderHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.itemIDs(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}
	res, err := h.svc.AdjustQuantity(r.Context(), orderID, itemID, req.Delta)
	if err != nil {
		writeServiceError(w, r, "adjust quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetNotes handles PATCH /orders/{id}/items/{itemId}/notes.
func (h *OrderHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.itemIDs(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.SetNotes(r.Context(), orderID, itemID, req.Notes)
	if err != nil {
		writeServiceError(w, r, "set notes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Advance handles POST /orders/{id}/items/{itemId}/advance.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.itemIDs(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Advance(r.Context(), orderID, itemID)
	if err != nil {
		writeServiceError(w, r, "advance item", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Complete handles POST /orders/{id}/items/{itemId}/complete.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.itemIDs(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Complete(r.Context(), orderID, itemID)
	if err != nil {
		writeServiceError(w, r, "complete item", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Offer handles POST /orders/{id}/items/{itemId}/offer.
func (h *OrderHandler) Offer(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.itemIDs(w, r)
	if !ok {
		return
	}
	var req offerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be > 0")
		return
	}
	res, err := h.svc.Offer(r.Context(), orderID, itemID, req.Quantity, req.Reason)
	if err != nil {
		writeServiceError(w, r, "offer item", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Merge handles POST /orders/{id}/items/merge, undoing an offer.
func (h *OrderHandler) Merge(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	var req mergeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	originalID, err := uuid.Parse(req.OriginalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "original_id is required")
		return
	}
	complimentaryID, err := uuid.Parse(req.ComplimentaryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "complimentary_id is required")
		return
	}
	res, err := h.svc.CancelOffer(r.Context(), orderID, originalID, complimentaryID)
	if err != nil {
		writeServiceError(w, r, "cancel offer", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
