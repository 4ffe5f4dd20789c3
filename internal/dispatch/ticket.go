// Package dispatch delivers kitchen and bar tickets to the print pipeline.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/order"
)

// Ticket is the payload of one print job.
type Ticket struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	TableLabel  string    `json:"table_label"`
	ServerID    uuid.UUID `json:"server_id"`
	Covers      int32     `json:"covers"`
	Wave        string    `json:"wave"`
	Destination string    `json:"destination"`
	Lines       []Line    `json:"lines"`
	CreatedAt   time.Time `json:"created_at"`
}

// Line is one printed line.
type Line struct {
	ItemID   uuid.UUID `json:"item_id"`
	Name     string    `json:"name"`
	Quantity int32     `json:"quantity"`
	Notes    string    `json:"notes,omitempty"`
}

// Printer sends a ticket to its destination. Implementations must honour
// ctx cancellation; a timeout is reported as an error like any other
// delivery failure.
type Printer interface {
	Print(ctx context.Context, t Ticket) error
}

// NewTicket renders a planned ticket for an order.
func NewTicket(o *order.Order, tableLabel string, t order.Ticket, now time.Time) Ticket {
	lines := make([]Line, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = Line{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity, Notes: l.Notes}
	}
	return Ticket{
		ID:          uuid.New(),
		OrderID:     o.ID,
		TableLabel:  tableLabel,
		ServerID:    o.ServerID,
		Covers:      o.Covers,
		Wave:        t.Wave,
		Destination: t.Destination,
		Lines:       lines,
		CreatedAt:   now,
	}
}
