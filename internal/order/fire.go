package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
)

// WaveReprint labels tickets produced by a reprint.
const WaveReprint = "reprint"

// waves are fired in this order, one per Fire call.
var waves = []string{
	enum.ItemStatusPending,
	enum.ItemStatusToFollow1,
	enum.ItemStatusToFollow2,
}

var destinations = []string{
	enum.DestinationKitchen,
	enum.DestinationBar,
}

// Ticket is one print job for one destination.
type Ticket struct {
	Destination string
	Wave        string
	Lines       []TicketLine
}

// TicketLine is a single line on a ticket.
type TicketLine struct {
	ItemID   uuid.UUID
	Name     string
	Quantity int32
	Notes    string
}

// FirePlan describes the next wave to send.
type FirePlan struct {
	Wave          string
	ItemIDs       []uuid.UUID
	SupplementIDs []uuid.UUID
	Tickets       []Ticket
}

// PlanFire picks the next wave: every pending line if any, else every
// to_follow_1 line, else every to_follow_2 line. Unsent supplements only
// travel with the pending wave. Lines already fired or completed are never
// selected.
func PlanFire(items []Item, supplements []Supplement) (FirePlan, error) {
	for _, wave := range waves {
		var selected []Item
		for _, it := range items {
			if it.Status == wave {
				selected = append(selected, it)
			}
		}
		if len(selected) == 0 {
			continue
		}

		plan := FirePlan{Wave: wave, Tickets: BuildTickets(selected, wave)}
		for _, it := range selected {
			plan.ItemIDs = append(plan.ItemIDs, it.ID)
		}
		if wave == enum.ItemStatusPending {
			for _, s := range supplements {
				if s.SentAt == nil {
					plan.SupplementIDs = append(plan.SupplementIDs, s.ID)
				}
			}
		}
		return plan, nil
	}
	return FirePlan{}, ErrNothingToSend
}

// BuildTickets groups lines by destination, kitchen first, one ticket per
// destination present.
func BuildTickets(items []Item, wave string) []Ticket {
	byDest := make(map[string][]TicketLine)
	for _, it := range items {
		dest := RoutingOf(it)
		byDest[dest] = append(byDest[dest], TicketLine{
			ItemID:   it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Notes:    it.Notes,
		})
	}
	var tickets []Ticket
	for _, dest := range destinations {
		if lines := byDest[dest]; len(lines) > 0 {
			tickets = append(tickets, Ticket{Destination: dest, Wave: wave, Lines: lines})
		}
	}
	return tickets
}

// RoutingOf returns the destination of a line. Lines whose menu item no
// longer exists go to the kitchen.
func RoutingOf(it Item) string {
	if it.Routing == enum.DestinationBar {
		return enum.DestinationBar
	}
	return enum.DestinationKitchen
}

// Fire applies the next wave: selected lines become fired and selected
// supplements are marked sent.
func (o *Order) Fire(now time.Time) (FirePlan, error) {
	if err := o.requireOpen(); err != nil {
		return FirePlan{}, err
	}
	plan, err := PlanFire(o.Items, o.Supplements)
	if err != nil {
		return FirePlan{}, err
	}
	for _, id := range plan.ItemIDs {
		i := o.itemIndex(id)
		o.Items[i].Status = enum.ItemStatusFired
		firedAt := now
		o.Items[i].FiredAt = &firedAt
		o.changes.markItem(id, changeUpdate)
	}
	for _, id := range plan.SupplementIDs {
		i := o.supplementIndex(id)
		sentAt := now
		o.Supplements[i].SentAt = &sentAt
		o.changes.markSupplement(id, changeUpdate)
	}
	return plan, nil
}

// ReprintTickets renders tickets for lines already sent. An empty
// destination means all destinations; failedOnly restricts to lines whose
// last print failed. Item status is never touched.
func (o *Order) ReprintTickets(destination string, failedOnly bool) []Ticket {
	var selected []Item
	for _, it := range o.Items {
		if !isSent(it.Status) {
			continue
		}
		if failedOnly && it.PrintFailedAt == nil {
			continue
		}
		if destination != "" && RoutingOf(it) != destination {
			continue
		}
		selected = append(selected, it)
	}
	return BuildTickets(selected, WaveReprint)
}

// MarkPrintFailed flags lines whose ticket could not be printed.
func (o *Order) MarkPrintFailed(ids []uuid.UUID, at time.Time) {
	for _, id := range ids {
		if i := o.itemIndex(id); i >= 0 {
			failedAt := at
			o.Items[i].PrintFailedAt = &failedAt
			o.changes.markItem(id, changeUpdate)
		}
	}
}

// ClearPrintFailed removes the print failure flag after a successful print.
func (o *Order) ClearPrintFailed(ids []uuid.UUID) {
	for _, id := range ids {
		if i := o.itemIndex(id); i >= 0 && o.Items[i].PrintFailedAt != nil {
			o.Items[i].PrintFailedAt = nil
			o.changes.markItem(id, changeUpdate)
		}
	}
}

// TicketItemIDs lists the lines printed on a ticket.
func TicketItemIDs(t Ticket) []uuid.UUID {
	ids := make([]uuid.UUID, len(t.Lines))
	for i, l := range t.Lines {
		ids[i] = l.ItemID
	}
	return ids
}
