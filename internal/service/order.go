package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/catalog"
	"github.com/tableside-pos/api/internal/dispatch"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/ws"
)

// AddItemRequest is the validated input for adding a line.
type AddItemRequest struct {
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      string
	Status     string // empty, to_follow_1 or to_follow_2
	Covers     int32  // only used when the add opens the order
	By         uuid.UUID
}

// ItemResult is an order after a line operation, with the line it touched.
type ItemResult struct {
	Order  OrderSnapshot `json:"order"`
	ItemID *uuid.UUID    `json:"item_id,omitempty"`
}

// FireResult is an order after a wave was sent or reprinted.
type FireResult struct {
	Order    OrderSnapshot     `json:"order"`
	Wave     string            `json:"wave"`
	Tickets  []dispatch.Ticket `json:"tickets"`
	Warnings []string          `json:"warnings,omitempty"`
}

// OrderService handles the item lifecycle of table orders.
type OrderService struct {
	coord   *Coordinator
	menu    catalog.Provider
	printer dispatch.Printer
}

// NewOrderService creates a new OrderService.
func NewOrderService(coord *Coordinator, menu catalog.Provider, printer dispatch.Printer) *OrderService {
	return &OrderService{coord: coord, menu: menu, printer: printer}
}

func itemResult(o *order.Order, itemID uuid.UUID) *ItemResult {
	res := &ItemResult{Order: Snapshot(o)}
	if itemID != uuid.Nil {
		res.ItemID = &itemID
	}
	return res
}

// --- Reads ---

// Get returns the committed state of an order.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	o, err := s.coord.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// GetByTable returns the open order of a table, or ErrNotFound.
func (s *OrderService) GetByTable(ctx context.Context, tableID uuid.UUID) (*OrderSnapshot, error) {
	o, err := s.coord.LoadByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// --- Lines ---

func (s *OrderService) newLine(ctx context.Context, req AddItemRequest) (order.NewLine, error) {
	if req.Quantity < 1 {
		return order.NewLine{}, order.ErrInvalidQuantity
	}
	item, err := s.menu.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return order.NewLine{}, fmt.Errorf("menu item %s: %w", req.MenuItemID, order.ErrNotFound)
		}
		return order.NewLine{}, fmt.Errorf("get menu item: %w", err)
	}
	return order.NewLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Routing:    item.Routing,
		UnitPrice:  item.Price,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		Status:     req.Status,
		CreatedBy:  req.By,
	}, nil
}

// AddToTable adds a line to the table's open order, opening one when the
// table has none. Retries up to maxOpenOrderRetries times when another
// terminal opens the table concurrently.
func (s *OrderService) AddToTable(ctx context.Context, tableID uuid.UUID, req AddItemRequest) (*ItemResult, error) {
	line, err := s.newLine(ctx, req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxOpenOrderRetries; attempt++ {
		existing, err := s.coord.LoadByTable(ctx, tableID)
		switch {
		case err == nil:
			return s.addLine(ctx, existing.ID, line)
		case !errors.Is(err, order.ErrNotFound):
			return nil, err
		}

		var itemID uuid.UUID
		o, err := s.coord.open(ctx, tableID, req.By, req.Covers, func(ctx context.Context, t *txn) error {
			it, err := t.order.Add(line, t.now)
			if err != nil {
				return err
			}
			itemID = it.ID
			t.itemID = it.ID
			return nil
		})
		if err == nil {
			return itemResult(o, itemID), nil
		}
		if errors.Is(err, errTableTaken) || isUniqueViolation(err, "orders_one_open_per_table") {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("open order for table %s: too many concurrent attempts", tableID)
}

// AddItem adds a line to an existing order.
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req AddItemRequest) (*ItemResult, error) {
	line, err := s.newLine(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.addLine(ctx, orderID, line)
}

func (s *OrderService) addLine(ctx context.Context, orderID uuid.UUID, line order.NewLine) (*ItemResult, error) {
	var itemID uuid.UUID
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		it, err := t.order.Add(line, t.now)
		if err != nil {
			return err
		}
		itemID = it.ID
		t.itemID = it.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemResult(o, itemID), nil
}

// AdjustQuantity changes a line's quantity by delta; reaching zero deletes it.
func (s *OrderService) AdjustQuantity(ctx context.Context, orderID, itemID uuid.UUID, delta int32) (*ItemResult, error) {
	var touched uuid.UUID
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		_, deleted, err := t.order.AdjustQuantity(itemID, delta)
		if err != nil {
			return err
		}
		t.itemID = itemID
		if !deleted {
			touched = itemID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemResult(o, touched), nil
}

// Advance rotates a staged line to its next wave.
func (s *OrderService) Advance(ctx context.Context, orderID, itemID uuid.UUID) (*ItemResult, error) {
	return s.lineOp(ctx, orderID, itemID, func(o *order.Order) (order.Item, error) {
		return o.Advance(itemID)
	})
}

// Complete marks a fired line as served.
func (s *OrderService) Complete(ctx context.Context, orderID, itemID uuid.UUID) (*ItemResult, error) {
	return s.lineOp(ctx, orderID, itemID, func(o *order.Order) (order.Item, error) {
		return o.Complete(itemID)
	})
}

// SetNotes replaces a line's notes before it is fired.
func (s *OrderService) SetNotes(ctx context.Context, orderID, itemID uuid.UUID, notes string) (*ItemResult, error) {
	return s.lineOp(ctx, orderID, itemID, func(o *order.Order) (order.Item, error) {
		return o.SetNotes(itemID, notes)
	})
}

// Offer makes quantity units of a line complimentary. The result points at
// the complimentary line.
func (s *OrderService) Offer(ctx context.Context, orderID, itemID uuid.UUID, quantity int32, reason string) (*ItemResult, error) {
	var offered uuid.UUID
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		it, err := t.order.SplitComplimentary(itemID, quantity, reason, t.now)
		if err != nil {
			return err
		}
		offered = it.ID
		t.itemID = it.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemResult(o, offered), nil
}

// CancelOffer folds a complimentary line back into its original line.
func (s *OrderService) CancelOffer(ctx context.Context, orderID, originalID, complimentaryID uuid.UUID) (*ItemResult, error) {
	return s.lineOp(ctx, orderID, originalID, func(o *order.Order) (order.Item, error) {
		return o.MergeComplimentary(originalID, complimentaryID)
	})
}

func (s *OrderService) lineOp(ctx context.Context, orderID, itemID uuid.UUID, op func(o *order.Order) (order.Item, error)) (*ItemResult, error) {
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		if _, err := op(t.order); err != nil {
			return err
		}
		t.itemID = itemID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemResult(o, itemID), nil
}

// AddSupplement stages a supplement on the order.
func (s *OrderService) AddSupplement(ctx context.Context, orderID uuid.UUID, in order.NewSupplement) (*OrderSnapshot, error) {
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		_, err := t.order.AddSupplement(in, t.now)
		return err
	})
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// --- Order ---

// SetCovers records the number of guests.
func (s *OrderService) SetCovers(ctx context.Context, orderID uuid.UUID, covers int32) (*OrderSnapshot, error) {
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		return t.order.SetCovers(covers)
	})
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// Transfer moves an open order to a table that has no open order.
func (s *OrderService) Transfer(ctx context.Context, orderID, toTableID uuid.UUID) (*OrderSnapshot, error) {
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		if _, err := t.store.GetTableForUpdate(ctx, toTableID); err != nil {
			if isNoRows(err) {
				return fmt.Errorf("table %s: %w", toTableID, order.ErrNotFound)
			}
			return fmt.Errorf("lock table: %w", err)
		}
		if _, err := t.store.GetOpenOrderByTable(ctx, toTableID); err == nil {
			return fmt.Errorf("table %s is occupied: %w", toTableID, order.ErrInvalidTransition)
		} else if !isNoRows(err) {
			return fmt.Errorf("get open order: %w", err)
		}

		from := t.order.TableID
		if err := t.order.MoveTo(toTableID); err != nil {
			return err
		}
		if err := freeTable(ctx, t.store, from); err != nil {
			return err
		}
		return occupyTable(ctx, t.store, toTableID, t.order.ServerID)
	})
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// CloseEmpty deletes the open order of a table when it has no lines,
// supplements or payments, and frees the table.
func (s *OrderService) CloseEmpty(ctx context.Context, tableID uuid.UUID) error {
	existing, err := s.coord.LoadByTable(ctx, tableID)
	if err != nil {
		return err
	}
	_, err = s.coord.mutate(ctx, existing.ID, func(ctx context.Context, t *txn) error {
		if !t.order.IsOpen() || !t.order.IsEmpty() {
			return order.ErrInvalidTransition
		}
		t.deleted = true
		return nil
	})
	return err
}

// CloseSettled closes an order whose balance is already covered, for
// example when every line was offered.
func (s *OrderService) CloseSettled(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		return t.order.CloseSettled(t.now)
	})
	if err != nil {
		return nil, err
	}
	snap := Snapshot(o)
	return &snap, nil
}

// --- Fire ---

// Fire sends the next wave. Supplements passed in are stored with the order
// and travel with the pending wave. Tickets are printed after the commit; a
// failed print flags its lines and is reported as a warning, never undone.
func (s *OrderService) Fire(ctx context.Context, orderID uuid.UUID, supplements []order.NewSupplement) (*FireResult, error) {
	var plan order.FirePlan
	var tickets []dispatch.Ticket
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		for _, in := range supplements {
			if _, err := t.order.AddSupplement(in, t.now); err != nil {
				return err
			}
		}
		p, err := t.order.Fire(t.now)
		if err != nil {
			return err
		}
		plan = p
		label, err := tableLabel(ctx, t.store, t.order.TableID)
		if err != nil {
			log.WithError(err).WithField("order_id", orderID).Debug("table label lookup")
		}
		for _, tk := range p.Tickets {
			tickets = append(tickets, dispatch.NewTicket(t.order, label, tk, t.now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &FireResult{Wave: plan.Wave, Tickets: tickets}
	_, failed, warnings := s.print(ctx, tickets)
	res.Warnings = warnings
	if len(failed) > 0 {
		if flagged, err := s.flagPrintFailures(ctx, orderID, failed); err == nil {
			o = flagged
		}
	}
	res.Order = Snapshot(o)
	return res, nil
}

// Reprint prints sent lines again without touching their status. An empty
// destination means every destination; failedOnly limits the reprint to
// lines whose last print failed.
func (s *OrderService) Reprint(ctx context.Context, orderID uuid.UUID, destination string, failedOnly bool) (*FireResult, error) {
	o, err := s.coord.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	planned := o.ReprintTickets(destination, failedOnly)
	if len(planned) == 0 {
		return nil, order.ErrNothingToSend
	}

	var label string
	err = s.coord.read(ctx, func(ctx context.Context, st Store) error {
		var lerr error
		label, lerr = tableLabel(ctx, st, o.TableID)
		return lerr
	})
	if err != nil {
		// Tickets still print without a table label.
		log.WithError(err).WithField("order_id", orderID).Debug("table label lookup")
	}
	now := s.coord.now()
	tickets := make([]dispatch.Ticket, 0, len(planned))
	for _, tk := range planned {
		tickets = append(tickets, dispatch.NewTicket(o, label, tk, now))
	}

	printed, failed, warnings := s.print(ctx, tickets)
	res := &FireResult{Wave: order.WaveReprint, Tickets: tickets, Warnings: warnings}

	updated, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		t.order.ClearPrintFailed(printed)
		if len(failed) > 0 {
			t.order.MarkPrintFailed(failed, t.now)
			t.event = ws.EventPrintFailed
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("order_id", orderID).Warn("update print flags")
		updated = o
	}
	res.Order = Snapshot(updated)
	return res, nil
}

// print sends every ticket and splits the printed lines from the failed ones.
func (s *OrderService) print(ctx context.Context, tickets []dispatch.Ticket) (printed, failed []uuid.UUID, warnings []string) {
	ctx = detach(ctx)
	for _, tk := range tickets {
		ids := make([]uuid.UUID, len(tk.Lines))
		for i, l := range tk.Lines {
			ids[i] = l.ItemID
		}
		if err := s.printer.Print(ctx, tk); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"order_id":    tk.OrderID,
				"destination": tk.Destination,
				"action":      "print",
			}).Warn("print ticket")
			failed = append(failed, ids...)
			warnings = append(warnings, fmt.Sprintf("%s ticket did not print: %v", tk.Destination, err))
			continue
		}
		printed = append(printed, ids...)
	}
	return printed, failed, warnings
}

func (s *OrderService) flagPrintFailures(ctx context.Context, orderID uuid.UUID, failed []uuid.UUID) (*order.Order, error) {
	o, err := s.coord.mutate(detach(ctx), orderID, func(ctx context.Context, t *txn) error {
		t.order.MarkPrintFailed(failed, t.now)
		t.event = ws.EventPrintFailed
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("order_id", orderID).Warn("flag print failures")
		return nil, err
	}
	return o, nil
}
