package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/service"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService.
type PaymentServicer interface {
	Quote(ctx context.Context, orderID uuid.UUID, req order.SplitRequest) (*service.Quote, error)
	Record(ctx context.Context, orderID uuid.UUID, req service.PaymentRequest) (*service.PaymentResult, error)
	List(ctx context.Context, orderID uuid.UUID) ([]service.PaymentView, error)
	Balance(ctx context.Context, orderID uuid.UUID) (*service.Balance, error)
}

// PaymentHandler handles the settlement endpoints of an order.
type PaymentHandler struct {
	svc PaymentServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}/balance", h.Balance)
	r.Post("/{id}/payments/quote", h.Quote)
	r.Post("/{id}/payments", h.Record)
	r.Get("/{id}/payments", h.List)
}

// --- Request types ---

type splitRequest struct {
	Mode           string           `json:"mode"`
	Parts          int32            `json:"parts"`
	ItemQuantities map[string]int32 `json:"item_quantities"`
	Amount         decimal.Decimal  `json:"amount"`
}

type recordPaymentRequest struct {
	splitRequest
	Method string          `json:"method"`
	Tip    decimal.Decimal `json:"tip"`
}

func (req splitRequest) itemQuantities() (map[uuid.UUID]int32, bool) {
	if len(req.ItemQuantities) == 0 {
		return nil, true
	}
	out := make(map[uuid.UUID]int32, len(req.ItemQuantities))
	for k, q := range req.ItemQuantities {
		id, err := uuid.Parse(k)
		if err != nil {
			return nil, false
		}
		out[id] = q
	}
	return out, true
}

func validMode(mode string) bool {
	switch mode {
	case enum.SplitModeFull, enum.SplitModeEqual, enum.SplitModeItems, enum.SplitModeCustom:
		return true
	}
	return false
}

// --- Handlers ---

// Balance handles GET /orders/{id}/balance.
func (h *PaymentHandler) Balance(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	bal, err := h.svc.Balance(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

// Quote handles POST /orders/{id}/payments/quote.
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	var req splitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validMode(req.Mode) {
		writeError(w, http.StatusBadRequest, "mode must be one of full, equal, items, custom")
		return
	}
	items, ok := req.itemQuantities()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID in item_quantities")
		return
	}

	q, err := h.svc.Quote(r.Context(), orderID, order.SplitRequest{
		Mode:           req.Mode,
		Parts:          req.Parts,
		ItemQuantities: items,
		Amount:         req.Amount,
	})
	if err != nil {
		writeServiceError(w, r, "quote", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Record handles POST /orders/{id}/payments.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	by, ok := staffID(w, r)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}
	if req.Mode != "" && !validMode(req.Mode) {
		writeError(w, http.StatusBadRequest, "mode must be one of full, equal, items, custom")
		return
	}
	items, ok := req.itemQuantities()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item ID in item_quantities")
		return
	}

	res, err := h.svc.Record(r.Context(), orderID, service.PaymentRequest{
		Amount:         req.Amount,
		Method:         req.Method,
		Tip:            req.Tip,
		Mode:           req.Mode,
		Parts:          req.Parts,
		ItemQuantities: items,
		By:             by,
	})
	if err != nil {
		writeServiceError(w, r, "record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /orders/{id}/payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id", "order")
	if !ok {
		return
	}
	payments, err := h.svc.List(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, "list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
