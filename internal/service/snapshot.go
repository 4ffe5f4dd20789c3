package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/order"
)

// OrderSnapshot is the committed state of an order as sent to terminals.
type OrderSnapshot struct {
	ID                  uuid.UUID        `json:"id"`
	TableID             uuid.UUID        `json:"table_id"`
	ServerID            uuid.UUID        `json:"server_id"`
	Covers              int32            `json:"covers"`
	Status              string           `json:"status"`
	Revision            int64            `json:"revision"`
	OpenedAt            time.Time        `json:"opened_at"`
	ClosedAt            *time.Time       `json:"closed_at"`
	Items               []ItemView       `json:"items"`
	Supplements         []SupplementView `json:"supplements"`
	Total               decimal.Decimal  `json:"total"`
	ComplimentaryAmount decimal.Decimal  `json:"complimentary_amount"`
	PaidTotal           decimal.Decimal  `json:"paid_total"`
	Remaining           decimal.Decimal  `json:"remaining"`
}

type ItemView struct {
	ID                  uuid.UUID       `json:"id"`
	MenuItemID          *uuid.UUID      `json:"menu_item_id"`
	Name                string          `json:"name"`
	Routing             string          `json:"routing"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int32           `json:"quantity"`
	PaidQuantity        int32           `json:"paid_quantity"`
	Status              string          `json:"status"`
	Notes               string          `json:"notes"`
	Complimentary       bool            `json:"is_complimentary"`
	ComplimentaryReason string          `json:"complimentary_reason,omitempty"`
	LineTotal           decimal.Decimal `json:"line_total"`
	FiredAt             *time.Time      `json:"fired_at"`
	PrintFailedAt       *time.Time      `json:"print_failed_at"`
}

type SupplementView struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Amount              decimal.Decimal `json:"amount"`
	Notes               string          `json:"notes"`
	Complimentary       bool            `json:"is_complimentary"`
	ComplimentaryReason string          `json:"complimentary_reason,omitempty"`
	SentAt              *time.Time      `json:"sent_at"`
}

type PaymentView struct {
	ID         uuid.UUID         `json:"id"`
	Amount     decimal.Decimal   `json:"amount"`
	Method     string            `json:"method"`
	Tip        decimal.Decimal   `json:"tip"`
	SplitMode  string            `json:"split_mode"`
	SplitParts int32             `json:"split_parts,omitempty"`
	RecordedBy uuid.UUID         `json:"recorded_by"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []PaymentItemView `json:"items"`
}

type PaymentItemView struct {
	OrderItemID uuid.UUID       `json:"order_item_id"`
	Quantity    int32           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// Snapshot renders an order for clients.
func Snapshot(o *order.Order) OrderSnapshot {
	paid := o.PaidQuantities()
	compAmount, _ := o.ComplimentaryTotal()
	s := OrderSnapshot{
		ID:                  o.ID,
		TableID:             o.TableID,
		ServerID:            o.ServerID,
		Covers:              o.Covers,
		Status:              o.Status,
		Revision:            o.Revision,
		OpenedAt:            o.OpenedAt,
		ClosedAt:            o.ClosedAt,
		Items:               make([]ItemView, 0, len(o.Items)),
		Supplements:         make([]SupplementView, 0, len(o.Supplements)),
		Total:               o.Total(),
		ComplimentaryAmount: compAmount,
		PaidTotal:           o.PaidTotal(),
		Remaining:           o.RemainingDue(),
	}
	for _, it := range o.Items {
		v := ItemView{
			ID:                  it.ID,
			Name:                it.Name,
			Routing:             order.RoutingOf(it),
			UnitPrice:           it.UnitPrice,
			Quantity:            it.Quantity,
			PaidQuantity:        paid[it.ID],
			Status:              it.Status,
			Notes:               it.Notes,
			Complimentary:       it.Complimentary,
			ComplimentaryReason: it.ComplimentaryReason,
			LineTotal:           order.LineTotal(it),
			FiredAt:             it.FiredAt,
			PrintFailedAt:       it.PrintFailedAt,
		}
		if it.MenuItemID.Valid {
			id := it.MenuItemID.UUID
			v.MenuItemID = &id
		}
		s.Items = append(s.Items, v)
	}
	for _, sup := range o.Supplements {
		s.Supplements = append(s.Supplements, SupplementView{
			ID:                  sup.ID,
			Name:                sup.Name,
			Amount:              sup.Amount,
			Notes:               sup.Notes,
			Complimentary:       sup.Complimentary,
			ComplimentaryReason: sup.ComplimentaryReason,
			SentAt:              sup.SentAt,
		})
	}
	return s
}

func paymentView(p order.Payment) PaymentView {
	v := PaymentView{
		ID:         p.ID,
		Amount:     p.Amount,
		Method:     p.Method,
		Tip:        p.Tip,
		SplitMode:  p.SplitMode,
		SplitParts: p.SplitParts,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
		Items:      make([]PaymentItemView, 0, len(p.Items)),
	}
	for _, pi := range p.Items {
		v.Items = append(v.Items, PaymentItemView{
			OrderItemID: pi.OrderItemID,
			Quantity:    pi.Quantity,
			Amount:      pi.Amount,
		})
	}
	return v
}
