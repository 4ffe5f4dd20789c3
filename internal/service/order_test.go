package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/dispatch"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/ws"
)

// =====================
// AddToTable
// =====================

func TestAddToTable_OpensOrderAndOccupiesTable(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	tableID, orderID, itemID := h.openWith(t, burger, 2)

	st := h.db.snapshot()
	if st.tables[tableID].Status != enum.TableStatusOccupied {
		t.Errorf("expected table occupied, got %s", st.tables[tableID].Status)
	}
	o := st.orders[orderID]
	if o.Revision != 1 || o.Status != enum.OrderStatusOpen {
		t.Errorf("unexpected order row: %+v", o)
	}
	if st.items[itemID].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", st.items[itemID].Quantity)
	}

	events := h.bus.all()
	if len(events) != 1 || events[0].Type != ws.EventOrderUpdated || events[0].Revision != 1 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestAddToTable_MergesIntoOpenOrder(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	tableID, orderID, itemID := h.openWith(t, burger, 1)

	res, err := h.orders.AddToTable(context.Background(), tableID, AddItemRequest{MenuItemID: burger, Quantity: 2, By: h.staff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order.ID != orderID {
		t.Errorf("expected same order %s, got %s", orderID, res.Order.ID)
	}
	if len(res.Order.Items) != 1 || res.Order.Items[0].Quantity != 3 || *res.ItemID != itemID {
		t.Errorf("expected merged line of 3, got %+v", res.Order.Items)
	}
	if res.Order.Revision != 2 {
		t.Errorf("expected revision 2, got %d", res.Order.Revision)
	}
}

func TestAddToTable_ConcurrentTerminalsShareOneOrder(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	tableID := h.db.addTable("T7")

	const terminals = 8
	var wg sync.WaitGroup
	errs := make(chan error, terminals)
	for i := 0; i < terminals; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orders.AddToTable(context.Background(), tableID, AddItemRequest{MenuItemID: burger, Quantity: 1, By: h.staff})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	st := h.db.snapshot()
	if len(st.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(st.orders))
	}
	var total int32
	for _, it := range st.items {
		total += it.Quantity
	}
	if total != terminals {
		t.Errorf("expected %d units, got %d", terminals, total)
	}
}

func TestAddToTable_UnknownMenuItem(t *testing.T) {
	h := newHarness(t)
	tableID := h.db.addTable("T1")
	_, err := h.orders.AddToTable(context.Background(), tableID, AddItemRequest{MenuItemID: uuid.New(), Quantity: 1})
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if len(h.db.snapshot().orders) != 0 {
		t.Error("expected no order to be created")
	}
}

func TestAddToTable_UnknownTable(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, err := h.orders.AddToTable(context.Background(), uuid.New(), AddItemRequest{MenuItemID: burger, Quantity: 1})
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, burger, 1)

	_, err := h.orders.AddItem(context.Background(), orderID, AddItemRequest{MenuItemID: burger, Quantity: 0})
	if !errors.Is(err, order.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

// =====================
// Line operations
// =====================

func TestAdjustQuantity_ToZeroDeletesLine(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, orderID, itemID := h.openWith(t, burger, 2)

	res, err := h.orders.AdjustQuantity(context.Background(), orderID, itemID, -2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ItemID != nil || len(res.Order.Items) != 0 {
		t.Errorf("expected line removed, got %+v", res)
	}
	if _, ok := h.db.snapshot().items[itemID]; ok {
		t.Error("expected row deleted")
	}
}

func TestAdjustQuantity_BelowPaidQuantity(t *testing.T) {
	h := newHarness(t)
	fries := h.menuItem("Fries", "5.00", enum.DestinationKitchen)
	side := h.menuItem("Salad", "8.00", enum.DestinationKitchen)
	_, orderID, itemID := h.openWith(t, fries, 2)
	if _, err := h.orders.AddItem(context.Background(), orderID, AddItemRequest{MenuItemID: side, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
		Method:         enum.PaymentMethodCard,
		Mode:           enum.SplitModeItems,
		ItemQuantities: map[uuid.UUID]int32{itemID: 2},
	}); err != nil {
		t.Fatalf("pay items: %v", err)
	}

	_, err := h.orders.AdjustQuantity(context.Background(), orderID, itemID, -1)
	if !errors.Is(err, order.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
	if h.db.snapshot().items[itemID].Quantity != 2 {
		t.Error("quantity must be unchanged")
	}
}

func TestAdvance_RotatesAndRejectsFired(t *testing.T) {
	h := newHarness(t)
	cake := h.menuItem("Cake", "7.00", enum.DestinationKitchen)
	_, orderID, itemID := h.openWith(t, cake, 1)

	res, err := h.orders.Advance(context.Background(), orderID, itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := findItem(t, res.Order, itemID).Status; got != enum.ItemStatusToFollow1 {
		t.Errorf("expected to_follow_1, got %s", got)
	}

	if _, err := h.orders.Fire(context.Background(), orderID, nil); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if _, err := h.orders.Advance(context.Background(), orderID, itemID); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestOfferAndCancelOffer(t *testing.T) {
	h := newHarness(t)
	wine := h.menuItem("Wine", "10.00", enum.DestinationBar)
	_, orderID, itemID := h.openWith(t, wine, 3)

	res, err := h.orders.Offer(context.Background(), orderID, itemID, 1, "VIP")
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	compID := *res.ItemID
	if compID == itemID {
		t.Fatal("expected a new complimentary line")
	}
	if len(res.Order.Items) != 2 || !res.Order.Total.Equal(dec("20")) {
		t.Errorf("expected 2 lines totalling 20, got %d lines total %s", len(res.Order.Items), res.Order.Total)
	}
	if comp := findItem(t, res.Order, compID); !comp.Complimentary || comp.ComplimentaryReason != "VIP" {
		t.Errorf("unexpected complimentary line: %+v", comp)
	}

	merged, err := h.orders.CancelOffer(context.Background(), orderID, itemID, compID)
	if err != nil {
		t.Fatalf("cancel offer: %v", err)
	}
	if len(merged.Order.Items) != 1 || merged.Order.Items[0].Quantity != 3 || !merged.Order.Total.Equal(dec("30")) {
		t.Errorf("expected one line of 3 totalling 30, got %+v", merged.Order)
	}
	if _, ok := h.db.snapshot().items[compID]; ok {
		t.Error("expected complimentary row deleted")
	}
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orders.Get(context.Background(), uuid.New()); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got: %v", err)
	}
	if _, err := h.orders.Advance(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("Advance: expected ErrNotFound, got: %v", err)
	}
	if _, err := h.orders.GetByTable(context.Background(), uuid.New()); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("GetByTable: expected ErrNotFound, got: %v", err)
	}
}

func TestFailedMutationLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, orderID, itemID := h.openWith(t, burger, 1)
	before := len(h.bus.all())

	if _, err := h.orders.Complete(context.Background(), orderID, itemID); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
	st := h.db.snapshot()
	if st.orders[orderID].Revision != 1 {
		t.Errorf("expected revision 1, got %d", st.orders[orderID].Revision)
	}
	if len(h.bus.all()) != before {
		t.Error("expected no broadcast")
	}
}

// =====================
// Order
// =====================

func TestTransfer(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	fromID, orderID, _ := h.openWith(t, burger, 1)
	toID := h.db.addTable("T9")

	snap, err := h.orders.Transfer(context.Background(), orderID, toID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TableID != toID {
		t.Errorf("expected table %s, got %s", toID, snap.TableID)
	}
	st := h.db.snapshot()
	if st.tables[fromID].Status != enum.TableStatusAvailable || st.tables[toID].Status != enum.TableStatusOccupied {
		t.Errorf("unexpected table status: from %s to %s", st.tables[fromID].Status, st.tables[toID].Status)
	}
}

func TestTransfer_OccupiedTarget(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, burger, 1)
	otherTable, _, _ := h.openWith(t, burger, 1)

	_, err := h.orders.Transfer(context.Background(), orderID, otherTable)
	if !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestCloseEmpty(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	tableID, orderID, itemID := h.openWith(t, burger, 1)

	if err := h.orders.CloseEmpty(context.Background(), tableID); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for non-empty order, got: %v", err)
	}
	if _, err := h.orders.AdjustQuantity(context.Background(), orderID, itemID, -1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := h.orders.CloseEmpty(context.Background(), tableID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := h.db.snapshot()
	if _, ok := st.orders[orderID]; ok {
		t.Error("expected order deleted")
	}
	if st.tables[tableID].Status != enum.TableStatusAvailable {
		t.Errorf("expected table available, got %s", st.tables[tableID].Status)
	}
	events := h.bus.all()
	if last := events[len(events)-1]; last.Type != ws.EventOrderDeleted || last.OrderID != orderID {
		t.Errorf("unexpected last event: %+v", last)
	}
}

func TestCloseSettled_AllOffered(t *testing.T) {
	h := newHarness(t)
	wine := h.menuItem("Wine", "10.00", enum.DestinationBar)
	tableID, orderID, itemID := h.openWith(t, wine, 1)

	if _, err := h.orders.Offer(context.Background(), orderID, itemID, 1, ""); err != nil {
		t.Fatalf("offer: %v", err)
	}
	snap, err := h.orders.CloseSettled(context.Background(), orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != enum.OrderStatusClosed {
		t.Errorf("expected closed, got %s", snap.Status)
	}
	st := h.db.snapshot()
	if st.tables[tableID].Status != enum.TableStatusAvailable {
		t.Error("expected table freed")
	}
	if len(st.sales) != 1 || st.sales[0].ComplimentaryCount != 1 {
		t.Errorf("expected one daily sale with one offer, got %+v", st.sales)
	}
}

func TestCloseSettled_DailySaleCountsOfferedUnits(t *testing.T) {
	h := newHarness(t)
	wine := h.menuItem("Wine", "10.00", enum.DestinationBar)
	_, orderID, itemID := h.openWith(t, wine, 3)

	if _, err := h.orders.Offer(context.Background(), orderID, itemID, 3, ""); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if _, err := h.orders.CloseSettled(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := h.db.snapshot()
	if len(st.sales) != 1 {
		t.Fatalf("expected one daily sale, got %d", len(st.sales))
	}
	sale := st.sales[0]
	if sale.ComplimentaryCount != 3 {
		t.Errorf("expected 3 offered units, got %d", sale.ComplimentaryCount)
	}
	if got := database.NumericToDecimal(sale.ComplimentaryAmount); !got.Equal(dec("30")) {
		t.Errorf("expected complimentary amount 30, got %s", got)
	}
}

// =====================
// Fire
// =====================

func TestFire_OneTicketPerDestination(t *testing.T) {
	h := newHarness(t)
	steak := h.menuItem("Steak", "24.00", enum.DestinationKitchen)
	soup := h.menuItem("Soup", "6.00", enum.DestinationKitchen)
	beer := h.menuItem("Beer", "5.00", enum.DestinationBar)
	_, orderID, _ := h.openWith(t, steak, 1)
	for _, id := range []uuid.UUID{soup, beer} {
		if _, err := h.orders.AddItem(context.Background(), orderID, AddItemRequest{MenuItemID: id, Quantity: 1}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	res, err := h.orders.Fire(context.Background(), orderID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Wave != enum.ItemStatusPending || len(res.Tickets) != 2 {
		t.Fatalf("expected 2 tickets for the pending wave, got %d (%s)", len(res.Tickets), res.Wave)
	}
	if res.Tickets[0].Destination != enum.DestinationKitchen || len(res.Tickets[0].Lines) != 2 {
		t.Errorf("unexpected kitchen ticket: %+v", res.Tickets[0])
	}
	if res.Tickets[1].Destination != enum.DestinationBar || res.Tickets[0].TableLabel != "T1" {
		t.Errorf("unexpected bar ticket: %+v", res.Tickets[1])
	}
	for _, it := range res.Order.Items {
		if it.Status != enum.ItemStatusFired || it.FiredAt == nil {
			t.Errorf("expected fired line, got %+v", it)
		}
	}
	if len(h.printer.printed) != 2 {
		t.Errorf("expected 2 prints, got %d", len(h.printer.printed))
	}

	if _, err := h.orders.Fire(context.Background(), orderID, nil); !errors.Is(err, order.ErrNothingToSend) {
		t.Fatalf("expected ErrNothingToSend, got: %v", err)
	}
}

func TestFire_WavesInOrder(t *testing.T) {
	h := newHarness(t)
	steak := h.menuItem("Steak", "24.00", enum.DestinationKitchen)
	cake := h.menuItem("Cake", "7.00", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, steak, 1)
	if _, err := h.orders.AddItem(context.Background(), orderID, AddItemRequest{MenuItemID: cake, Quantity: 1, Status: enum.ItemStatusToFollow1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	first, err := h.orders.Fire(context.Background(), orderID, nil)
	if err != nil || first.Wave != enum.ItemStatusPending {
		t.Fatalf("first fire: %v %+v", err, first)
	}
	second, err := h.orders.Fire(context.Background(), orderID, nil)
	if err != nil || second.Wave != enum.ItemStatusToFollow1 {
		t.Fatalf("second fire: %v %+v", err, second)
	}
	if len(second.Tickets) != 1 || second.Tickets[0].Lines[0].Name != "Cake" {
		t.Errorf("unexpected tickets: %+v", second.Tickets)
	}
}

func TestFire_SupplementsTravelWithPendingWave(t *testing.T) {
	h := newHarness(t)
	steak := h.menuItem("Steak", "24.00", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, steak, 1)

	res, err := h.orders.Fire(context.Background(), orderID, []order.NewSupplement{{Name: "Extra sauce", Amount: dec("1.50")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Order.Supplements) != 1 || res.Order.Supplements[0].SentAt == nil {
		t.Fatalf("expected sent supplement, got %+v", res.Order.Supplements)
	}
	if !res.Order.Total.Equal(dec("25.50")) {
		t.Errorf("expected total 25.50, got %s", res.Order.Total)
	}
}

func TestFire_PrintFailureFlagsLinesAndWarns(t *testing.T) {
	h := newHarness(t)
	steak := h.menuItem("Steak", "24.00", enum.DestinationKitchen)
	beer := h.menuItem("Beer", "5.00", enum.DestinationBar)
	_, orderID, steakLine := h.openWith(t, steak, 1)
	added, err := h.orders.AddItem(context.Background(), orderID, AddItemRequest{MenuItemID: beer, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	beerLine := *added.ItemID

	h.printer.printFn = func(ctx context.Context, tk dispatch.Ticket) error {
		if tk.Destination == enum.DestinationBar {
			return context.DeadlineExceeded
		}
		return nil
	}
	res, err := h.orders.Fire(context.Background(), orderID, nil)
	if err != nil {
		t.Fatalf("fire must not fail on print errors: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", res.Warnings)
	}
	if beer := findItem(t, res.Order, beerLine); beer.Status != enum.ItemStatusFired || beer.PrintFailedAt == nil {
		t.Errorf("expected fired and flagged bar line, got %+v", beer)
	}
	if steak := findItem(t, res.Order, steakLine); steak.PrintFailedAt != nil {
		t.Error("kitchen line must not be flagged")
	}

	events := h.bus.all()
	if last := events[len(events)-1]; last.Type != ws.EventPrintFailed {
		t.Errorf("expected print.failed event, got %s", last.Type)
	}

	// A reprint of failed lines that succeeds clears the flag.
	h.printer.printFn = nil
	reprint, err := h.orders.Reprint(context.Background(), orderID, "", true)
	if err != nil {
		t.Fatalf("reprint: %v", err)
	}
	if len(reprint.Tickets) != 1 || reprint.Tickets[0].Destination != enum.DestinationBar || reprint.Wave != order.WaveReprint {
		t.Errorf("unexpected reprint tickets: %+v", reprint.Tickets)
	}
	if findItem(t, reprint.Order, beerLine).PrintFailedAt != nil {
		t.Error("expected flag cleared")
	}
	if _, err := h.orders.Reprint(context.Background(), orderID, "", true); !errors.Is(err, order.ErrNothingToSend) {
		t.Fatalf("expected ErrNothingToSend, got: %v", err)
	}
}

func TestReprint_MissingTableLabelIsLogged(t *testing.T) {
	h := newHarness(t)
	steak := h.menuItem("Steak", "24.00", enum.DestinationKitchen)
	tableID, orderID, _ := h.openWith(t, steak, 1)
	if _, err := h.orders.Fire(context.Background(), orderID, nil); err != nil {
		t.Fatalf("fire: %v", err)
	}

	hook := logtest.NewGlobal()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() { log.SetLevel(level) })

	h.db.mu.Lock()
	delete(h.db.state.tables, tableID)
	h.db.mu.Unlock()

	res, err := h.orders.Reprint(context.Background(), orderID, "", false)
	if err != nil {
		t.Fatalf("reprint must not fail on a missing table: %v", err)
	}
	if len(res.Tickets) != 1 || res.Tickets[0].TableLabel != "" {
		t.Errorf("expected one unlabeled ticket, got %+v", res.Tickets)
	}

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == log.DebugLevel && e.Message == "table label lookup" && e.Data["order_id"] == orderID {
			logged = true
		}
	}
	if !logged {
		t.Error("expected table label lookup failure to be logged")
	}
}

// =====================
// Revisions
// =====================

func TestRevisionsBroadcastInCommitOrder(t *testing.T) {
	h := newHarness(t)
	burger := h.menuItem("Burger", "12.50", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, burger, 1)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.orders.SetCovers(context.Background(), orderID, 2); err != nil {
				t.Errorf("set covers: %v", err)
			}
		}()
	}
	wg.Wait()

	var last int64
	for _, e := range h.bus.all() {
		if e.OrderID != orderID {
			continue
		}
		if e.Revision <= last {
			t.Fatalf("revision %d broadcast after %d", e.Revision, last)
		}
		last = e.Revision
	}
	if want := int64(writers + 1); last != want {
		t.Errorf("expected final revision %d, got %d", want, last)
	}
	if h.coord.locks.size() != 0 || h.coord.publish.size() != 0 {
		t.Error("expected lock entries to be released")
	}
}
